package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchan-dev/strapikit/apiclient"
	"github.com/itchan-dev/strapikit/frontend/internal/handler"
	"github.com/itchan-dev/strapikit/frontend/internal/setup"
	"github.com/itchan-dev/strapikit/shared/config"
	"github.com/itchan-dev/strapikit/shared/csrf"
	"github.com/itchan-dev/strapikit/shared/richtext"
	"github.com/itchan-dev/strapikit/shared/storage"
)

func newTestRouter(t *testing.T, sessions storage.Store) (http.Handler, config.Public) {
	t.Helper()
	cms := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(cms.Close)

	cfg := config.Default().Public
	cfg.URL = cms.URL
	return New(&setup.Dependencies{
		Public:   cfg,
		Client:   apiclient.New(cfg, storage.NewMemory(0)),
		Handler:  handler.New(cfg, richtext.New()),
		Sessions: sessions,
	}), cfg
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Nil(t, cookieNamed(rr, csrf.CookieName), "health is outside the session group")
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "bff_http_requests_total")
}

func TestRouter_CSRF(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	t.Run("missing token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("echoed token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: "tok"})
		req.Header.Set(csrf.HeaderName, "tok")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestRouter_Sessions(t *testing.T) {
	t.Run("cookie mode", func(t *testing.T) {
		r, cfg := newTestRouter(t, nil)

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.NotNil(t, cookieNamed(rr, csrf.CookieName))
		assert.Nil(t, cookieNamed(rr, cfg.Frontend.SessionCookie))
	})

	t.Run("server mode", func(t *testing.T) {
		r, cfg := newTestRouter(t, storage.NewMemory(0))

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		sid := cookieNamed(rr, cfg.Frontend.SessionCookie)
		require.NotNil(t, sid)
		assert.True(t, sid.HttpOnly)
	})
}
