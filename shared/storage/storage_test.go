package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "strapi_jwt", "token-1", 0))
	v, err := s.Get(ctx, "strapi_jwt")
	require.NoError(t, err)
	assert.Equal(t, "token-1", v)

	require.NoError(t, s.Set(ctx, "strapi_jwt", "token-2", time.Hour))
	v, err = s.Get(ctx, "strapi_jwt")
	require.NoError(t, err)
	assert.Equal(t, "token-2", v)

	require.NoError(t, s.Delete(ctx, "strapi_jwt"))
	_, err = s.Get(ctx, "strapi_jwt")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "strapi_jwt"), "deleting twice is fine")
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory(0))

	t.Run("expiry", func(t *testing.T) {
		s := NewMemory(0)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", "v", time.Millisecond))
		time.Sleep(5 * time.Millisecond)
		_, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)

	t.Run("expired rows read as absent", func(t *testing.T) {
		ctx := context.Background()
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return now }

		require.NoError(t, s.Set(ctx, "loggedUser", `{"id":1}`, time.Minute))
		v, err := s.Get(ctx, "loggedUser")
		require.NoError(t, err)
		assert.Equal(t, `{"id":1}`, v)

		now = now.Add(2 * time.Minute)
		_, err = s.Get(ctx, "loggedUser")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("survives reopen", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "strapi_jwt", "persisted", 0))
		require.NoError(t, s.Close())

		s2, err := OpenSQLite(path)
		require.NoError(t, err)
		defer s2.Close()
		v, err := s2.Get(ctx, "strapi_jwt")
		require.NoError(t, err)
		assert.Equal(t, "persisted", v)
	})
}

func TestHTTPCookies(t *testing.T) {
	t.Run("shared behaviour", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		exerciseStore(t, NewHTTPCookies(r, httptest.NewRecorder(), false))
	})

	t.Run("reads request cookies", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "loggedUser", Value: "%7B%22id%22%3A1%7D"})
		s := NewHTTPCookies(r, httptest.NewRecorder(), false)

		v, err := s.Get(context.Background(), "loggedUser")
		require.NoError(t, err)
		assert.Equal(t, `{"id":1}`, v)
	})

	t.Run("writes set-cookie headers", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "strapi_jwt", Value: "old"})
		w := httptest.NewRecorder()
		s := NewHTTPCookies(r, w, true)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "loggedUser", `{"id":1}`, 24*time.Hour))
		require.NoError(t, s.Delete(ctx, "strapi_jwt"))

		_, err := s.Get(ctx, "strapi_jwt")
		assert.ErrorIs(t, err, ErrNotFound, "pending delete shadows the request cookie")

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)

		assert.Equal(t, "loggedUser", cookies[0].Name)
		assert.Equal(t, 86400, cookies[0].MaxAge)
		assert.True(t, cookies[0].Secure)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, "/", cookies[0].Path)

		assert.Equal(t, "strapi_jwt", cookies[1].Name)
		assert.Equal(t, -1, cookies[1].MaxAge)
	})

	t.Run("only the last write per name is sent", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.AddCookie(&http.Cookie{Name: "strapi_jwt", Value: "old"})
		w := httptest.NewRecorder()
		http.SetCookie(w, &http.Cookie{Name: "csrf_token", Value: "c"})
		s := NewHTTPCookies(r, w, false)
		ctx := context.Background()

		require.NoError(t, s.Delete(ctx, "strapi_jwt"))
		require.NoError(t, s.Set(ctx, "loggedUser", `{"id":1}`, time.Hour))
		require.NoError(t, s.Set(ctx, "strapi_jwt", "T", 0))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 3)
		assert.Equal(t, "csrf_token", cookies[0].Name)
		assert.Equal(t, "loggedUser", cookies[1].Name)
		assert.Equal(t, "strapi_jwt", cookies[2].Name)
		assert.Equal(t, "T", cookies[2].Value)
		assert.Equal(t, 0, cookies[2].MaxAge)

		require.NoError(t, s.Delete(ctx, "strapi_jwt"))
		cookies = w.Result().Cookies()
		require.Len(t, cookies, 3)
		assert.Equal(t, -1, cookies[2].MaxAge)
	})
}

func TestScoped(t *testing.T) {
	inner := NewMemory(0)
	exerciseStore(t, NewScoped(inner, "session:a:", 0))

	ctx := context.Background()
	a := NewScoped(inner, "session:a:", 0)
	b := NewScoped(inner, "session:b:", 0)
	require.NoError(t, a.Set(ctx, "strapi_jwt", "A", 0))

	_, err := b.Get(ctx, "strapi_jwt")
	assert.ErrorIs(t, err, ErrNotFound, "scopes do not leak")

	v, err := inner.Get(ctx, "session:a:strapi_jwt")
	require.NoError(t, err)
	assert.Equal(t, "A", v)
}

func TestScoped_DefaultTTL(t *testing.T) {
	inner := NewMemory(0)
	s := NewScoped(inner, "p:", time.Millisecond)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	require.NoError(t, s.Set(ctx, "kept", "v", time.Hour))
	time.Sleep(5 * time.Millisecond)

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	v, err := s.Get(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
