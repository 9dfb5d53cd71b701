package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchan-dev/strapikit/shared/api"
	"github.com/itchan-dev/strapikit/shared/domain"
	"github.com/itchan-dev/strapikit/shared/errors"
)

// fakeAuthCMS implements the auth endpoints. A request to users/me succeeds
// only with "Bearer T" or "Bearer T2".
type fakeAuthCMS struct {
	t        *testing.T
	mux      *http.ServeMux
	meCalls  atomic.Int32
	lastAuth atomic.Value
}

func newFakeAuthCMS(t *testing.T) *fakeAuthCMS {
	f := &fakeAuthCMS{t: t, mux: http.NewServeMux()}

	f.mux.HandleFunc("POST /api/auth/local", func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Identifier != "u" || req.Password != "p" {
			writeJSON(t, w, http.StatusBadRequest, api.ErrorResponse{Error: api.ErrorDetails{Status: 400, Name: "ValidationError", Message: "Invalid identifier or password"}})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"jwt": "T", "user": map[string]any{"id": 1}})
	})
	f.mux.HandleFunc("POST /api/auth/local/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"jwt": "T", "user": map[string]any{"id": 1}})
	})
	f.mux.HandleFunc("POST /api/auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"jwt": "T"})
	})
	f.mux.HandleFunc("GET /api/auth/github/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "gh-token" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"jwt": "T"})
	})
	f.mux.HandleFunc("POST /api/auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	})
	f.mux.HandleFunc("POST /api/auth/change-password", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth.Store(r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{"jwt": "T"})
	})
	f.mux.HandleFunc("POST /api/auth/send-email-confirmation", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"email": "a@b.c", "sent": true})
	})
	f.mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, r *http.Request) {
		f.meCalls.Add(1)
		auth := r.Header.Get("Authorization")
		f.lastAuth.Store(auth)
		if auth != "Bearer T" && auth != "Bearer T2" {
			writeJSON(t, w, http.StatusUnauthorized, api.ErrorResponse{Error: api.ErrorDetails{Status: 401, Name: "UnauthorizedError", Message: "Missing or invalid credentials"}})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 1, "username": "u", "email": "u@example.com", "confirmed": true})
	})
	f.mux.HandleFunc("POST /admin/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{"token": "T", "user": map[string]any{"id": 3, "email": "root@example.com"}}})
	})
	f.mux.HandleFunc("GET /admin/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{"id": 3, "firstname": "Root", "email": "root@example.com", "isActive": true}})
	})
	f.mux.HandleFunc("POST /admin/renew-token", func(w http.ResponseWriter, r *http.Request) {
		var req api.RenewTokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Token == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{"token": "T2"}})
	})
	return f
}

func (f *fakeAuthCMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mux.ServeHTTP(w, r)
}

func TestLogin_EndToEnd(t *testing.T) {
	cms := newFakeAuthCMS(t)
	c, _ := newTestClient(t, cms)
	ctx := context.Background()

	res, err := c.Login(ctx, api.LoginRequest{Identifier: "u", Password: "p"})
	require.NoError(t, err)

	token, ok := c.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, "T", token)
	assert.Equal(t, "Bearer T", cms.lastAuth.Load())
	assert.Equal(t, int32(1), cms.meCalls.Load())

	assert.Equal(t, "T", res.JWT)
	assert.Equal(t, FetchOK, res.User.Status)
	require.NotNil(t, res.User.Profile)
	assert.Equal(t, domain.ProfileUser, res.User.Profile.Kind)
	assert.Equal(t, int64(1), res.User.Profile.Id())
	assert.Same(t, res.User.Profile, c.CurrentUser(ctx))

	out, err := json.Marshal(res)
	require.NoError(t, err)
	var shape map[string]any
	require.NoError(t, json.Unmarshal(out, &shape))
	assert.Equal(t, "T", shape["jwt"])
	assert.Contains(t, shape["user"], "current")
	assert.Equal(t, "ok", shape["user"].(map[string]any)["status"])
}

func TestLogin_FailureClearsToken(t *testing.T) {
	cms := newFakeAuthCMS(t)
	c, _ := newTestClient(t, cms)
	ctx := context.Background()

	t.Run("rejected credentials", func(t *testing.T) {
		require.NoError(t, c.SetToken(ctx, "OLD"))
		_, err := c.Login(ctx, api.LoginRequest{Identifier: "u", Password: "wrong"})
		require.Error(t, err)

		code, ok := errors.StatusCode(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, code)
		_, ok = c.Token(ctx)
		assert.False(t, ok)
		assert.Zero(t, cms.meCalls.Load())
	})

	t.Run("invalid form", func(t *testing.T) {
		require.NoError(t, c.SetToken(ctx, "OLD"))
		_, err := c.Login(ctx, api.LoginRequest{Identifier: "u"})
		require.Error(t, err)
		_, ok := c.Token(ctx)
		assert.False(t, ok)
	})
}

func TestFetchUser(t *testing.T) {
	cached := domain.UserProfile(&domain.User{Id: 42, Username: "cached"})

	t.Run("no token issues no call", func(t *testing.T) {
		cms := newFakeAuthCMS(t)
		c, _ := newTestClient(t, cms)
		ctx := context.Background()
		require.NoError(t, c.SetCurrentUser(ctx, cached))

		res := c.FetchUser(ctx)
		assert.Equal(t, FetchNoToken, res.Status)
		assert.Same(t, cached, res.Profile)
		assert.Zero(t, cms.meCalls.Load())
	})

	t.Run("rejected token is cleared", func(t *testing.T) {
		cms := newFakeAuthCMS(t)
		c, _ := newTestClient(t, cms)
		ctx := context.Background()
		require.NoError(t, c.SetCurrentUser(ctx, cached))
		require.NoError(t, c.SetToken(ctx, "EXPIRED"))

		res := c.FetchUser(ctx)
		assert.Equal(t, FetchUnauthorized, res.Status)
		assert.Same(t, cached, res.Profile)
		assert.Equal(t, int32(1), cms.meCalls.Load())
		_, ok := c.Token(ctx)
		assert.False(t, ok)
	})

	t.Run("canceled context keeps the token", func(t *testing.T) {
		cms := newFakeAuthCMS(t)
		c, _ := newTestClient(t, cms)
		require.NoError(t, c.SetCurrentUser(context.Background(), cached))
		require.NoError(t, c.SetToken(context.Background(), "T"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := c.FetchUser(ctx)
		assert.Equal(t, FetchAborted, res.Status)
		assert.Same(t, cached, res.Profile)

		token, ok := c.Token(context.Background())
		assert.True(t, ok)
		assert.Equal(t, "T", token)
	})

	t.Run("success replaces the cached user", func(t *testing.T) {
		cms := newFakeAuthCMS(t)
		c, _ := newTestClient(t, cms)
		ctx := context.Background()
		require.NoError(t, c.SetCurrentUser(ctx, cached))
		require.NoError(t, c.SetToken(ctx, "T"))

		res := c.FetchUser(ctx)
		assert.Equal(t, FetchOK, res.Status)
		assert.Equal(t, "u@example.com", res.Profile.Email())
		assert.Equal(t, "u@example.com", c.CurrentUser(ctx).Email())
	})
}

func TestAdminLogin(t *testing.T) {
	c, _ := newTestClient(t, newFakeAuthCMS(t))
	ctx := context.Background()

	res, err := c.AdminLogin(ctx, api.AdminLoginRequest{Email: "root@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "T", res.Token)
	assert.Equal(t, FetchOK, res.User.Status)
	assert.Equal(t, domain.ProfileAdmin, res.User.Profile.Kind)
	assert.Equal(t, "Root", res.User.Profile.Admin.Firstname)

	_, err = c.AdminLogin(ctx, api.AdminLoginRequest{Email: "not-an-email", Password: "x"})
	assert.Error(t, err)
	_, ok := c.Token(ctx)
	assert.False(t, ok)
}

func TestSignInFlows(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(c *APIClient) (*AuthResult, error)
	}{
		{"register", func(c *APIClient) (*AuthResult, error) {
			return c.Register(ctx, api.RegisterRequest{Username: "u", Email: "u@example.com", Password: "p"})
		}},
		{"reset password", func(c *APIClient) (*AuthResult, error) {
			return c.ResetPassword(ctx, api.ResetPasswordRequest{Code: "c", Password: "p", PasswordConfirmation: "p"})
		}},
		{"provider", func(c *APIClient) (*AuthResult, error) {
			return c.AuthenticateProvider(ctx, api.ProviderGithub, "gh-token")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, newFakeAuthCMS(t))
			require.NoError(t, c.SetToken(ctx, "OLD"))

			res, err := tt.run(c)
			require.NoError(t, err)
			assert.Equal(t, "T", res.JWT)
			assert.Equal(t, FetchOK, res.User.Status)
			token, _ := c.Token(ctx)
			assert.Equal(t, "T", token)
		})
	}

	t.Run("reset password confirmation mismatch", func(t *testing.T) {
		c, _ := newTestClient(t, newFakeAuthCMS(t))
		_, err := c.ResetPassword(ctx, api.ResetPasswordRequest{Code: "c", Password: "p", PasswordConfirmation: "q"})
		assert.Error(t, err)
	})
}

func TestPasswordAndEmailFlows(t *testing.T) {
	cms := newFakeAuthCMS(t)
	c, _ := newTestClient(t, cms)
	ctx := context.Background()

	require.NoError(t, c.SetToken(ctx, "T"))
	require.NoError(t, c.ChangePassword(ctx, api.ChangePasswordRequest{CurrentPassword: "a", Password: "b", PasswordConfirmation: "b"}))
	assert.Equal(t, "Bearer T", cms.lastAuth.Load(), "change password keeps the session")

	require.NoError(t, c.SendEmailConfirmation(ctx, api.EmailConfirmationRequest{Email: "a@b.c"}))
	_, ok := c.Token(ctx)
	assert.True(t, ok)

	require.NoError(t, c.ForgotPassword(ctx, api.ForgotPasswordRequest{Email: "a@b.c"}))
	_, ok = c.Token(ctx)
	assert.False(t, ok, "forgot password clears the session token")

	assert.Error(t, c.SendEmailConfirmation(ctx, api.EmailConfirmationRequest{}))
}

func TestProviderAuthenticationURL(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())
	assert.Equal(t, c.Config().URL+"/api/connect/github", c.ProviderAuthenticationURL(api.ProviderGithub))
}

func TestRenewToken(t *testing.T) {
	c, _ := newTestClient(t, newFakeAuthCMS(t))
	ctx := context.Background()
	require.NoError(t, c.SetToken(ctx, "T"))

	token, err := c.RenewToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T2", token)
	stored, _ := c.Token(ctx)
	assert.Equal(t, "T2", stored)
}

func TestEnsureFreshToken(t *testing.T) {
	sign := func(exp time.Time) string {
		s, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{"id": 1, "exp": exp.Unix()}).SignedString([]byte("k"))
		require.NoError(t, err)
		return s
	}
	ctx := context.Background()

	t.Run("fresh token is kept", func(t *testing.T) {
		c, _ := newTestClient(t, newFakeAuthCMS(t))
		fresh := sign(time.Now().Add(24 * time.Hour))
		require.NoError(t, c.SetToken(ctx, fresh))

		renewed, err := c.EnsureFreshToken(ctx, time.Hour)
		require.NoError(t, err)
		assert.False(t, renewed)
		token, _ := c.Token(ctx)
		assert.Equal(t, fresh, token)
	})

	t.Run("expiring token is renewed", func(t *testing.T) {
		c, _ := newTestClient(t, newFakeAuthCMS(t))
		require.NoError(t, c.SetToken(ctx, sign(time.Now().Add(time.Minute))))

		renewed, err := c.EnsureFreshToken(ctx, time.Hour)
		require.NoError(t, err)
		assert.True(t, renewed)
		token, _ := c.Token(ctx)
		assert.Equal(t, "T2", token)
	})

	t.Run("no token", func(t *testing.T) {
		c, _ := newTestClient(t, newFakeAuthCMS(t))
		renewed, err := c.EnsureFreshToken(ctx, time.Hour)
		require.NoError(t, err)
		assert.False(t, renewed)
	})
}

func TestLogout(t *testing.T) {
	c, store := newTestClient(t, newFakeAuthCMS(t))
	ctx := context.Background()

	_, err := c.Login(ctx, api.LoginRequest{Identifier: "u", Password: "p"})
	require.NoError(t, err)
	require.NotNil(t, c.CurrentUser(ctx))

	require.NoError(t, c.Logout(ctx))
	_, ok := c.Token(ctx)
	assert.False(t, ok)
	assert.Nil(t, c.CurrentUser(ctx))
	_, err = store.Get(ctx, c.Config().LoggedUserKey)
	assert.Error(t, err)
}
