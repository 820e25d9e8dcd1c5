package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/dmitrijs2005/mediaqr/internal/client/uploadstate"
	"github.com/dmitrijs2005/mediaqr/internal/qr"
)

var errNothingToExport = errors.New("nothing to export")

// Export writes the QR code of an upload as an image file. With a single
// argument the current upload result is exported.
func (a *App) Export(ctx context.Context, args []string) error {
	var (
		entry *models.HistoryEntry
		err   error
	)

	tagArg := args[len(args)-1]
	tag, err := qr.ParseSizeTag(tagArg)
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}

	if len(args) == 1 {
		st := a.upload.State()
		if st.Status != uploadstate.Success {
			a.printf("No current upload; use export <id> %s.\n", tag)
			return errNothingToExport
		}
		entry = st.Entry
	} else {
		if entry, err = a.findEntry(ctx, args[0]); err != nil {
			return err
		}
	}

	v, err := qr.Encode(entry.URL, qr.LevelMain)
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}

	path, err := qr.Export(v, entry.Filename, tag, a.config.ExportDir)
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}
	a.printf("Saved %s\n", path)
	return nil
}
