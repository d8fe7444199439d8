package navigation

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StackStore persists a session's back stack between connections
type StackStore interface {
	Save(ctx context.Context, key string, routes []string) error
	Load(ctx context.Context, key string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStackStore keeps stacks in process memory
type MemoryStackStore struct {
	mu     sync.RWMutex
	stacks map[string][]string
}

// NewMemoryStackStore creates an empty MemoryStackStore
func NewMemoryStackStore() *MemoryStackStore {
	return &MemoryStackStore{stacks: make(map[string][]string)}
}

func (s *MemoryStackStore) Save(_ context.Context, key string, routes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stacks[key] = append([]string(nil), routes...)
	return nil
}

func (s *MemoryStackStore) Load(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.stacks[key]...), nil
}

func (s *MemoryStackStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stacks, key)
	return nil
}

// RedisStackStore keeps each stack in a Redis list that expires after ttl
type RedisStackStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStackStore creates a new RedisStackStore
func NewRedisStackStore(client *redis.Client, ttl time.Duration) *RedisStackStore {
	return &RedisStackStore{client: client, ttl: ttl}
}

func stackKey(key string) string {
	return "nav:stack:" + key
}

func (s *RedisStackStore) Save(ctx context.Context, key string, routes []string) error {
	k := stackKey(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		if len(routes) == 0 {
			return nil
		}
		values := make([]interface{}, len(routes))
		for i, r := range routes {
			values[i] = r
		}
		pipe.RPush(ctx, k, values...)
		if s.ttl > 0 {
			pipe.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	return err
}

func (s *RedisStackStore) Load(ctx context.Context, key string) ([]string, error) {
	return s.client.LRange(ctx, stackKey(key), 0, -1).Result()
}

func (s *RedisStackStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, stackKey(key)).Err()
}
