package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/dmitrijs2005/mediaqr/internal/common"
	"github.com/dmitrijs2005/mediaqr/internal/qr"
	"github.com/dustin/go-humanize"
)

var errDeleteFailed = errors.New("delete failed")

func uploadedAgo(e models.HistoryEntry) string {
	t, err := e.UploadedTime()
	if err != nil {
		return e.UploadedAt
	}
	return humanize.Time(t)
}

// History refreshes the access counts and lists the remembered uploads,
// most recent first.
func (a *App) History(ctx context.Context) error {
	counts, err := a.history.RefreshAccessCounts(ctx)
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}

	entries, err := a.history.List(ctx)
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}

	if len(entries) == 0 {
		a.printf("No uploads yet.\n")
		return nil
	}

	for _, e := range entries {
		views := humanize.Comma(int64(counts[e.ID]))
		a.printf("%-12s %-32s %8s MB  %-6s %6s views  %s\n",
			e.ID, e.Filename, e.Size, mediaKind(e.ContentType), views, uploadedAgo(e))
	}
	a.printf("%d of %d entries\n", len(entries), common.HistoryCapacity)
	return nil
}

func (a *App) findEntry(ctx context.Context, id string) (*models.HistoryEntry, error) {
	e, err := a.history.Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		a.printf("No upload with id %s in history.\n", id)
		return nil, err
	}
	if err != nil {
		a.printf("Error: %v\n", err)
		return nil, err
	}
	return e, nil
}

// Show prints the QR code of a remembered upload.
func (a *App) Show(ctx context.Context, args []string) error {
	e, err := a.findEntry(ctx, args[0])
	if err != nil {
		return err
	}

	a.showEntry(*e, qr.LevelPreview)
	a.printf("uploaded %s, %s views\n", uploadedAgo(*e), humanize.Comma(int64(a.history.AccessCounts()[e.ID])))
	return nil
}

// Delete asks for confirmation, then deletes the upload remotely and, if that
// worked, from the local history.
func (a *App) Delete(ctx context.Context, args []string) error {
	e, err := a.findEntry(ctx, args[0])
	if err != nil {
		return err
	}

	ok, err := Confirm(a.reader, fmt.Sprintf("Delete %s (%s)? The QR code will stop working.", e.Filename, e.ID), a.out)
	if err != nil {
		return err
	}
	if !ok {
		a.printf("Cancelled.\n")
		return nil
	}

	deleted, err := a.history.DeleteEntry(ctx, e.ID)
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}
	if !deleted {
		a.printf("Error: could not delete %s, try again later.\n", e.ID)
		return errDeleteFailed
	}

	a.printf("Deleted %s.\n", e.ID)
	a.storage.Refresh(ctx)
	return nil
}
