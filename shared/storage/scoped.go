package storage

import (
	"context"
	"time"
)

// Scoped prefixes every name before delegating to another Store. The
// server-side BFF sessions use it to keep one namespace per browser.
type Scoped struct {
	store      Store
	prefix     string
	defaultTTL time.Duration
}

// NewScoped wraps store. Values written with ttl <= 0 get defaultTTL, or
// the wrapped store's default when defaultTTL is 0 too.
func NewScoped(store Store, prefix string, defaultTTL time.Duration) *Scoped {
	return &Scoped{store: store, prefix: prefix, defaultTTL: defaultTTL}
}

func (s *Scoped) Get(ctx context.Context, name string) (string, error) {
	return s.store.Get(ctx, s.prefix+name)
}

func (s *Scoped) Set(ctx context.Context, name, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.store.Set(ctx, s.prefix+name, value, ttl)
}

func (s *Scoped) Delete(ctx context.Context, name string) error {
	return s.store.Delete(ctx, s.prefix+name)
}
