// Package session keeps the bearer token and the current user on top of a
// storage.Store.
package session

import (
	"context"
	"errors"

	"github.com/itchan-dev/strapikit/shared/logger"
	"github.com/itchan-dev/strapikit/shared/storage"
)

// TokenStore persists the session token under a cookie name.
type TokenStore struct {
	store storage.Store
	name  string
}

func NewTokenStore(store storage.Store, name string) *TokenStore {
	return &TokenStore{store: store, name: name}
}

// Token returns the stored token. An empty value or the literal "null" left
// by older clients count as absent.
func (t *TokenStore) Token(ctx context.Context) (string, bool) {
	v, err := t.store.Get(ctx, t.name)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Log.Error("reading session token", "cookie", t.name, "error", err)
		}
		return "", false
	}
	if v == "" || v == "null" {
		return "", false
	}
	return v, true
}

// SetToken stores token. An empty token clears the store.
func (t *TokenStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return t.ClearToken(ctx)
	}
	return t.store.Set(ctx, t.name, token, 0)
}

func (t *TokenStore) ClearToken(ctx context.Context) error {
	return t.store.Delete(ctx, t.name)
}
