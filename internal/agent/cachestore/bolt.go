package cachestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediaqr/internal/filex"
	bolt "go.etcd.io/bbolt"
)

// BoltStorage keeps every partition in its own bucket of one bbolt file.
type BoltStorage struct {
	db *bolt.DB
}

func OpenBoltStorage(path string) (*BoltStorage, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open the bolt database '%s': %w", path, err)
	}
	return &BoltStorage{db: db}, nil
}

func (b *BoltStorage) Open(_ context.Context, name string) (Partition, error) {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
			return fmt.Errorf("failed to create the bucket '%s': %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &boltPartition{db: b.db, name: name}, nil
}

func (b *BoltStorage) Names(context.Context) ([]string, error) {
	var names []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

func (b *BoltStorage) Delete(_ context.Context, name string) (bool, error) {
	deleted := false
	err := b.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(name))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (b *BoltStorage) Close() error {
	return b.db.Close()
}

type boltPartition struct {
	db   *bolt.DB
	name string
}

func (p *boltPartition) Name() string { return p.name }

func (p *boltPartition) Match(_ context.Context, key string) (*Response, error) {
	var value []byte
	err := p.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(p.name))
		if bucket == nil {
			return ErrNotFound
		}
		v := bucket.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decode(value)
}

func (p *boltPartition) Put(_ context.Context, key string, resp *Response) error {
	value, err := encode(resp)
	if err != nil {
		return err
	}
	return p.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(p.name))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), value)
	})
}

func (p *boltPartition) Keys(context.Context) ([]string, error) {
	var keys []string
	err := p.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(p.name))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}
