package services

import (
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/gabriel-vasile/mimetype"
)

// OpenFileSource describes the local file at path. The MIME type is sniffed
// from content, not taken from the extension.
func OpenFileSource(path string) (models.FileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.FileSource{}, err
	}
	if info.IsDir() {
		return models.FileSource{}, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return models.FileSource{}, fmt.Errorf("detect type of %s: %w", path, err)
	}

	return models.FileSource{
		Name:        info.Name(),
		Size:        info.Size(),
		ContentType: mt.String(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}
