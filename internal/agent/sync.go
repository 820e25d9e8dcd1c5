package agent

import (
	"context"
	"sync"
)

// SyncTagStorage is the background sync tag registered by default.
const SyncTagStorage = "sync-storage"

type SyncHandler func(ctx context.Context) error

// SyncRegistry maps background sync tags to handlers. Firing an unknown tag
// is a no-op.
type SyncRegistry struct {
	mu       sync.RWMutex
	handlers map[string]SyncHandler
}

func NewSyncRegistry() *SyncRegistry {
	r := &SyncRegistry{handlers: make(map[string]SyncHandler)}
	r.Register(SyncTagStorage, func(context.Context) error { return nil })
	return r
}

func (r *SyncRegistry) Register(tag string, h SyncHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[tag] = h
}

// Fire runs the handler of tag. It reports whether one was registered.
func (r *SyncRegistry) Fire(ctx context.Context, tag string) (bool, error) {
	r.mu.RLock()
	h, ok := r.handlers[tag]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, h(ctx)
}
