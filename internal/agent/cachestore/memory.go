package cachestore

import (
	"context"
	"sort"
	"sync"
)

type MemoryStorage struct {
	mu         sync.RWMutex
	partitions map[string]map[string]*Response
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{partitions: make(map[string]map[string]*Response)}
}

func (s *MemoryStorage) Open(_ context.Context, name string) (Partition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.partitions[name]; !ok {
		s.partitions[name] = make(map[string]*Response)
	}
	return &memoryPartition{s: s, name: name}, nil
}

func (s *MemoryStorage) Names(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.partitions))
	for n := range s.partitions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.partitions[name]
	delete(s.partitions, name)
	return ok, nil
}

func (s *MemoryStorage) Close() error { return nil }

type memoryPartition struct {
	s    *MemoryStorage
	name string
}

func (p *memoryPartition) Name() string { return p.name }

func (p *memoryPartition) Match(_ context.Context, key string) (*Response, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	r, ok := p.s.partitions[p.name][key]
	if !ok {
		return nil, ErrNotFound
	}
	return r.clone(), nil
}

func (p *memoryPartition) Put(_ context.Context, key string, resp *Response) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	entries, ok := p.s.partitions[p.name]
	if !ok {
		entries = make(map[string]*Response)
		p.s.partitions[p.name] = entries
	}
	entries[key] = resp.clone()
	return nil
}

func (p *memoryPartition) Keys(context.Context) ([]string, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	keys := make([]string, 0, len(p.s.partitions[p.name]))
	for k := range p.s.partitions[p.name] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
