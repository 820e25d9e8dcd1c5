package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/dmitrijs2005/mediaqr/internal/client/services"
	"github.com/dustin/go-humanize"
)

var errNoSnapshot = errors.New("storage information unavailable")

const barWidth = 30

func megabytes(mb float64) string {
	return humanize.IBytes(uint64(max(mb, 0) * 1024 * 1024))
}

// storageBar renders the quota as a text bar followed by the level.
func storageBar(s models.StorageSnapshot) string {
	pct := min(max(s.Percentage, 0), 100)
	filled := int(pct / 100 * barWidth)

	return fmt.Sprintf("[%s%s] %s of %s used (%.1f%%), %s free [%s]",
		strings.Repeat("#", filled), strings.Repeat("-", barWidth-filled),
		megabytes(s.UsedMB), megabytes(s.TotalMB), s.Percentage,
		megabytes(s.AvailableMB), services.Level(s.AvailableMB))
}

func (a *App) printStorage() error {
	snap, ok := a.storage.Snapshot()
	if !ok {
		a.printf("Storage information unavailable.\n")
		return errNoSnapshot
	}
	a.printf("%s\n", storageBar(snap))
	return nil
}

// Storage shows the quota, fetching it first when none is known yet.
func (a *App) Storage(ctx context.Context) error {
	if _, ok := a.storage.Snapshot(); !ok {
		a.storage.Refresh(ctx)
	}
	return a.printStorage()
}

// Refresh refetches the quota. On failure the previous readout is shown.
func (a *App) Refresh(ctx context.Context) error {
	a.storage.Refresh(ctx)
	return a.printStorage()
}
