package cli

import (
	"context"
	"errors"
)

var errNoAgent = errors.New("offline agent not configured")

// Snapshot pushes the current history to the offline agent so it survives
// in the agent's offline-history partition.
func (a *App) Snapshot(ctx context.Context) error {
	if a.agent == nil {
		a.printf("Offline agent not configured (-g).\n")
		return errNoAgent
	}

	entries, err := a.history.List(ctx)
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}

	if err := a.agent.CacheHistory(ctx, entries); err != nil {
		a.log.Warn(ctx, "history snapshot failed", "error", err)
		a.printf("Error: %v\n", err)
		return err
	}
	a.printf("Sent %d entries to the offline agent.\n", len(entries))
	return nil
}

// Update tells a waiting agent version to take over.
func (a *App) Update(ctx context.Context) error {
	if a.agent == nil {
		a.printf("Offline agent not configured (-g).\n")
		return errNoAgent
	}

	if err := a.agent.SkipWaiting(ctx); err != nil {
		a.printf("Error: %v\n", err)
		return err
	}
	a.printf("Update requested.\n")
	return nil
}
