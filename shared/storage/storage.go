// Package storage holds the cookie-like key/value stores that keep the
// session token and the logged-in user between calls.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the name is absent or expired.
var ErrNotFound = errors.New("storage: not found")

// Store is a named value store with per-value expiry, modelled after
// browser cookies.
type Store interface {
	// Get returns ErrNotFound when the value is missing or expired.
	Get(ctx context.Context, name string) (string, error)
	// Set stores value under name. ttl <= 0 uses the store default.
	Set(ctx context.Context, name, value string, ttl time.Duration) error
	// Delete removes name. Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error
}

// Interface satisfaction checks
var (
	_ Store = (*Memory)(nil)
	_ Store = (*Redis)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*HTTPCookies)(nil)
	_ Store = (*Scoped)(nil)
)
