package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/mediaqr/internal/client/client"
	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/dmitrijs2005/mediaqr/internal/client/repositories/kv"
	"github.com/dmitrijs2005/mediaqr/internal/common"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

type HistoryService interface {
	RecordUpload(ctx context.Context, entry models.HistoryEntry) error
	List(ctx context.Context) ([]models.HistoryEntry, error)
	Get(ctx context.Context, id string) (*models.HistoryEntry, error)
	DeleteEntry(ctx context.Context, id string) (bool, error)
	RefreshAccessCounts(ctx context.Context) (models.AccessCounts, error)
	AccessCounts() models.AccessCounts
}

type historyService struct {
	client client.Client
	repo   kv.Repository
	log    logging.Logger

	// counts holds the last published access-count aggregate. Entries never
	// expire; only a new refresh replaces them.
	countsMu sync.Mutex
	counts   *gocache.Cache
}

func NewHistoryService(c client.Client, repo kv.Repository, log logging.Logger) HistoryService {
	return &historyService{
		client: c,
		repo:   repo,
		log:    log,
		counts: gocache.New(gocache.NoExpiration, 0),
	}
}

func decodeHistory(raw []byte) ([]models.HistoryEntry, error) {
	if len(raw) == 0 {
		return []models.HistoryEntry{}, nil
	}
	var entries []models.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

// prepend puts entry first, drops any older entry with the same id and
// truncates the tail to the history capacity.
func prepend(entries []models.HistoryEntry, entry models.HistoryEntry) []models.HistoryEntry {
	out := make([]models.HistoryEntry, 0, min(len(entries)+1, common.HistoryCapacity))
	out = append(out, entry)
	for _, e := range entries {
		if len(out) == common.HistoryCapacity {
			break
		}
		if e.ID == entry.ID {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *historyService) RecordUpload(ctx context.Context, entry models.HistoryEntry) error {
	return s.repo.Update(ctx, common.HistoryKey, func(current []byte) ([]byte, error) {
		entries, err := decodeHistory(current)
		if err != nil {
			return nil, err
		}
		return json.Marshal(prepend(entries, entry))
	})
}

func (s *historyService) List(ctx context.Context) ([]models.HistoryEntry, error) {
	raw, err := s.repo.Get(ctx, common.HistoryKey)
	if err != nil {
		return nil, err
	}
	return decodeHistory(raw)
}

func (s *historyService) Get(ctx context.Context, id string) (*models.HistoryEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, common.ErrorNotFound
}

// DeleteEntry removes id remotely and, only when that succeeds, locally.
// A remote failure is logged and reported as false with the stored history
// left as it was. The error is reserved for local storage failures.
func (s *historyService) DeleteEntry(ctx context.Context, id string) (bool, error) {
	if err := s.client.Delete(ctx, id); err != nil {
		s.log.Warn(ctx, "remote delete failed", "id", id, "error", err)
		return false, nil
	}

	err := s.repo.Update(ctx, common.HistoryKey, func(current []byte) ([]byte, error) {
		entries, err := decodeHistory(current)
		if err != nil {
			return nil, err
		}
		kept := make([]models.HistoryEntry, 0, len(entries))
		for _, e := range entries {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		return json.Marshal(kept)
	})
	if err != nil {
		return false, err
	}

	s.countsMu.Lock()
	s.counts.Delete(id)
	s.countsMu.Unlock()

	return true, nil
}

// RefreshAccessCounts queries the info endpoint for every remembered upload
// concurrently. A failed lookup counts as zero and never aborts the batch.
// The aggregate replaces the published counts once every lookup settled.
func (s *historyService) RefreshAccessCounts(ctx context.Context) (models.AccessCounts, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]int, len(entries))
	g, gctx := errgroup.WithContext(ctx)

	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			info, err := s.client.Info(gctx, e.ID)
			if err != nil {
				s.log.Debug(gctx, "access count lookup failed", "id", e.ID, "error", err)
				return nil
			}
			results[i] = info.AccessCount
			return nil
		})
	}
	_ = g.Wait()

	counts := make(models.AccessCounts, len(entries))
	for i, e := range entries {
		counts[e.ID] = results[i]
	}

	s.countsMu.Lock()
	s.counts.Flush()
	for id, n := range counts {
		s.counts.Set(id, n, gocache.NoExpiration)
	}
	s.countsMu.Unlock()

	return counts, nil
}

// AccessCounts returns a copy of the last published aggregate.
func (s *historyService) AccessCounts() models.AccessCounts {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()

	items := s.counts.Items()
	out := make(models.AccessCounts, len(items))
	for id, item := range items {
		out[id] = item.Object.(int)
	}
	return out
}
