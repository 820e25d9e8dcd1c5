package cachestore

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps each partition in a hash and the partition names in a
// set, so several agents can share one cache.
type RedisStorage struct {
	client    *redis.Client
	namespace string
}

func NewRedisStorage(client *redis.Client, namespace string) *RedisStorage {
	return &RedisStorage{client: client, namespace: namespace}
}

// DialRedisStorage connects to addr and verifies the connection.
func DialRedisStorage(ctx context.Context, addr, namespace string) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisStorage(client, namespace), nil
}

func (s *RedisStorage) namesKey() string {
	return s.namespace + ":partitions"
}

func (s *RedisStorage) partitionKey(name string) string {
	return s.namespace + ":partition:" + name
}

func (s *RedisStorage) Open(ctx context.Context, name string) (Partition, error) {
	if err := s.client.SAdd(ctx, s.namesKey(), name).Err(); err != nil {
		return nil, err
	}
	return &redisPartition{s: s, name: name}, nil
}

func (s *RedisStorage) Names(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.namesKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStorage) Delete(ctx context.Context, name string) (bool, error) {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.partitionKey(name))
		removed = pipe.SRem(ctx, s.namesKey(), name)
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed.Val() > 0, nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}

type redisPartition struct {
	s    *RedisStorage
	name string
}

func (p *redisPartition) Name() string { return p.name }

func (p *redisPartition) Match(ctx context.Context, key string) (*Response, error) {
	value, err := p.s.client.HGet(ctx, p.s.partitionKey(p.name), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(value)
}

func (p *redisPartition) Put(ctx context.Context, key string, resp *Response) error {
	value, err := encode(resp)
	if err != nil {
		return err
	}
	_, err = p.s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, p.s.namesKey(), p.name)
		pipe.HSet(ctx, p.s.partitionKey(p.name), key, value)
		return nil
	})
	return err
}

func (p *redisPartition) Keys(ctx context.Context) ([]string, error) {
	keys, err := p.s.client.HKeys(ctx, p.s.partitionKey(p.name)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
