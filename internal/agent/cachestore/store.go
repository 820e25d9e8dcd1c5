// Package cachestore holds the named cache partitions of the offline agent.
//
// A Storage is a set of partitions addressed by name; a Partition maps
// request keys ("GET /index.html") to stored responses. Three backends are
// provided: MemoryStorage for tests, BoltStorage (one bbolt bucket per
// partition) and RedisStorage (one hash per partition).
package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

var ErrNotFound = errors.New("cache entry not found")

// Response is a stored copy of an HTTP response.
type Response struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

func (r *Response) clone() *Response {
	out := *r
	out.Header = r.Header.Clone()
	out.Body = append([]byte(nil), r.Body...)
	return &out
}

func encode(r *Response) ([]byte, error) {
	return json.Marshal(r)
}

func decode(b []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

type Storage interface {
	// Open returns the partition called name, creating it when missing.
	Open(ctx context.Context, name string) (Partition, error)
	// Names lists the existing partitions in lexical order.
	Names(ctx context.Context) ([]string, error)
	// Delete removes a partition and reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
	Close() error
}

type Partition interface {
	Name() string
	// Match returns the response stored under key or ErrNotFound.
	Match(ctx context.Context, key string) (*Response, error)
	// Put stores resp under key, replacing any previous entry.
	Put(ctx context.Context, key string, resp *Response) error
	Keys(ctx context.Context) ([]string, error)
}

// Key builds the partition key of a request.
func Key(method, requestURI string) string {
	return method + " " + requestURI
}
