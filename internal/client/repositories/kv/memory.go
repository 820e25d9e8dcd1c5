package kv

import (
	"context"
	"sync"
)

type MemoryRepository struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string][]byte)}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (r *MemoryRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.data[key]), nil
}

func (r *MemoryRepository) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = clone(value)
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, key string, fn UpdateFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := fn(clone(r.data[key]))
	if err != nil {
		return err
	}
	r.data[key] = clone(next)
	return nil
}
