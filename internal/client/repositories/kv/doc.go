// Package kv is the client's local persistent key-value store: the Go
// counterpart of the browser's per-origin local storage.
//
// Repository is the port used by services; SQLiteRepository persists into the
// kv table created by the embedded migrations, MemoryRepository is the
// in-memory fake used in tests.
//
// Contract: Get returns (nil, nil) for an absent key; Delete of an absent key
// is not an error; Update reads and writes one key atomically with respect to
// other Update calls on the same repository.
package kv
