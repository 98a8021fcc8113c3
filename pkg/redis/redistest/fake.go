// Package redistest provides an in-memory RedisServiceInterface for tests.
package redistest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ClareAI/astra-personalization-bridge/pkg/redis"
)

// Store is a map-backed stand-in for the Redis service. TTLs are recorded, not enforced.
type Store struct {
	mu     sync.Mutex
	values map[string]string
	TTLs   map[string]time.Duration

	// Err, when set, is returned by every operation.
	Err error

	Gets int
	Sets int
}

var _ redis.RedisServiceInterface = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		values: make(map[string]string),
		TTLs:   make(map[string]time.Duration),
	}
}

func (s *Store) GenerateKey(keyType redis.KeyType, identifier string) string {
	return redis.GenerateKey(keyType, identifier)
}

func (s *Store) GetValue(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Gets++
	if s.Err != nil {
		return "", s.Err
	}
	v, ok := s.values[key]
	if !ok {
		return "", redis.ErrKeyNotExist
	}
	return v, nil
}

func (s *Store) SetValue(ctx context.Context, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sets++
	if s.Err != nil {
		return s.Err
	}
	s.values[key] = value
	s.TTLs[key] = ttl
	return nil
}

func (s *Store) DelValue(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.values, key)
	delete(s.TTLs, key)
	return nil
}

// Raw returns the stored value for key.
func (s *Store) Raw(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// ErrUnavailable is a convenience error for simulating outages.
var ErrUnavailable = errors.New("redis unavailable")
