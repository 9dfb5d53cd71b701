package storage

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Memory is a process-local store backed by go-cache.
type Memory struct {
	cache *cache.Cache
}

// NewMemory creates a store whose values expire after defaultTTL.
// A defaultTTL of 0 keeps values until deleted.
func NewMemory(defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = cache.NoExpiration
	}
	return &Memory{cache: cache.New(defaultTTL, 10*time.Minute)}
}

func (m *Memory) Get(_ context.Context, name string) (string, error) {
	v, ok := m.cache.Get(name)
	if !ok {
		return "", ErrNotFound
	}
	return v.(string), nil
}

func (m *Memory) Set(_ context.Context, name, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	m.cache.Set(name, value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.cache.Delete(name)
	return nil
}
