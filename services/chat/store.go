package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// StateStore persists Records by app session key. A missing key is LoggedOut.
type StateStore interface {
	Get(ctx context.Context, key string) (Record, error)
	Set(ctx context.Context, key string, rec Record) error
	Delete(ctx context.Context, key string) error
}

const stateKeyPrefix = "chat:session:"

// RedisStateStore keeps chat state in Redis with a sliding TTL: every read
// and write restarts the expiry.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore creates a store on client.
func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{client: client, ttl: ttl}
}

func (s *RedisStateStore) Get(ctx context.Context, key string) (Record, error) {
	data, err := s.client.GetEx(ctx, stateKeyPrefix+key, s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{State: LoggedOut}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("RedisStateStore: failed to get chat state: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("RedisStateStore: failed to unmarshal chat state: %w", err)
	}
	return rec, nil
}

func (s *RedisStateStore) Set(ctx context.Context, key string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("RedisStateStore: failed to marshal chat state: %w", err)
	}
	if err := s.client.Set(ctx, stateKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("RedisStateStore: failed to set chat state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, stateKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("RedisStateStore: failed to delete chat state: %w", err)
	}
	return nil
}

// MemoryStateStore is a process-local StateStore.
type MemoryStateStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{records: make(map[string]Record)}
}

func (s *MemoryStateStore) Get(_ context.Context, key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok {
		return rec, nil
	}
	return Record{State: LoggedOut}, nil
}

func (s *MemoryStateStore) Set(_ context.Context, key string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec
	return nil
}

func (s *MemoryStateStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
