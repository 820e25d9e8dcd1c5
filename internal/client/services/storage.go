package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/mediaqr/internal/client/client"
	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/dmitrijs2005/mediaqr/internal/common"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
)

// Level classifies the available quota in megabytes.
func Level(availableMB float64) models.StorageLevel {
	switch {
	case availableMB > common.StorageAmpleAbove:
		return models.StorageAmple
	case availableMB >= common.StorageCautionFloor:
		return models.StorageCaution
	default:
		return models.StorageCritical
	}
}

// StorageIndicator keeps the last successfully fetched quota snapshot.
// Fetch failures are advisory only: they are logged and the previous
// snapshot stays in place.
type StorageIndicator struct {
	client client.Client
	log    logging.Logger

	mu       sync.Mutex
	snapshot *models.StorageSnapshot
	nextID   int
	subs     map[int]func(models.StorageSnapshot)
}

func NewStorageIndicator(c client.Client, log logging.Logger) *StorageIndicator {
	return &StorageIndicator{
		client: c,
		log:    log,
		subs:   make(map[int]func(models.StorageSnapshot)),
	}
}

// Refresh fetches a new snapshot and notifies subscribers on success.
// It reports whether the snapshot was replaced.
func (s *StorageIndicator) Refresh(ctx context.Context) bool {
	snap, err := s.client.Storage(ctx)
	if err != nil {
		s.log.Warn(ctx, "storage snapshot fetch failed", "error", err)
		return false
	}

	s.mu.Lock()
	s.snapshot = snap
	subs := make([]func(models.StorageSnapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(*snap)
	}
	return true
}

// Snapshot returns the current snapshot; ok is false before the first
// successful refresh.
func (s *StorageIndicator) Snapshot() (snap models.StorageSnapshot, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return models.StorageSnapshot{}, false
	}
	return *s.snapshot, true
}

// Subscribe registers fn for every replaced snapshot. The returned func
// removes the subscription.
func (s *StorageIndicator) Subscribe(fn func(models.StorageSnapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
