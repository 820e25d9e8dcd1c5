package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/dmitrijs2005/mediaqr/internal/client/services"
	"github.com/dmitrijs2005/mediaqr/internal/client/uploadstate"
	"github.com/dmitrijs2005/mediaqr/internal/qr"
	"github.com/dustin/go-humanize"
)

var errUploadFailed = errors.New("upload failed")

// openFile is a test seam for services.OpenFileSource.
var openFile = services.OpenFileSource

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Upload validates and uploads the file at the given path, then shows the
// share link and its QR code.
func (a *App) Upload(ctx context.Context, args []string) error {
	path := strings.Join(args, " ")

	f, err := openFile(path)
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}

	a.printf("Uploading %s (%s, %s)...\n", f.Name, humanize.IBytes(uint64(max(f.Size, 0))), f.ContentType)

	st := a.upload.HandleFileSelect(ctx, f)
	if st.Status != uploadstate.Success {
		a.printf("Error: %s\n", st.Message)
		a.printf("Type 'reset' to start over.\n")
		return errUploadFailed
	}

	a.showEntry(*st.Entry, qr.LevelMain)
	return nil
}

// showEntry prints e with its QR code at the given level.
func (a *App) showEntry(e models.HistoryEntry, level qr.Level) {
	v, err := qr.Encode(e.URL, level)
	if err != nil {
		a.printf("Error: %v\n", err)
		return
	}
	a.renderQR(v)
	a.printf("%s\n", e.URL)
	a.printf("%s  %s MB • %s\n", e.Filename, e.Size, mediaKind(e.ContentType))
}

// mediaKind returns the top-level MIME type, e.g. "audio".
func mediaKind(contentType string) string {
	kind, _, _ := strings.Cut(contentType, "/")
	return kind
}

func (a *App) Reset(ctx context.Context) error {
	a.upload.Reset()
	a.printf("Ready for a new upload.\n")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st := a.upload.State()
	switch st.Status {
	case uploadstate.Success:
		a.printf("success: %s (%s)\n", st.Entry.Filename, st.Entry.URL)
	case uploadstate.Error:
		a.printf("error: %s\n", st.Message)
	default:
		a.printf("%s\n", st.Status)
	}
	return nil
}
