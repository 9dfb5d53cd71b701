package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/itchan-dev/strapikit/shared/api"
	"github.com/itchan-dev/strapikit/shared/domain"
	"github.com/itchan-dev/strapikit/shared/jwt"
	"github.com/itchan-dev/strapikit/shared/utils"
)

var tracer = otel.Tracer("apiclient")

// FetchStatus tells how a fetch of the current user ended.
type FetchStatus int

const (
	// FetchOK: the profile was loaded from the CMS and stored.
	FetchOK FetchStatus = iota
	// FetchNoToken: nothing was sent, the cached profile is returned.
	FetchNoToken
	// FetchUnauthorized: the CMS rejected the call, the token was cleared
	// and the cached profile is returned.
	FetchUnauthorized
	// FetchAborted: the caller's context ended before the CMS answered.
	// The token is kept and the cached profile is returned.
	FetchAborted
)

func (s FetchStatus) String() string {
	switch s {
	case FetchOK:
		return "ok"
	case FetchNoToken:
		return "no_token"
	case FetchUnauthorized:
		return "unauthorized"
	case FetchAborted:
		return "aborted"
	}
	return fmt.Sprintf("FetchStatus(%d)", int(s))
}

func (s FetchStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type FetchResult struct {
	Profile *domain.Profile `json:"current"`
	Status  FetchStatus     `json:"status"`
}

type AuthResult struct {
	JWT  string      `json:"jwt"`
	User FetchResult `json:"user"`
}

type AdminAuthResult struct {
	Token string      `json:"token"`
	User  FetchResult `json:"user"`
}

func (c *APIClient) adminPath(p string) string {
	return c.cfg.Admin + "/" + p
}

// Token returns the stored session token.
func (c *APIClient) Token(ctx context.Context) (string, bool) {
	return c.tokens.Token(ctx)
}

// SetToken stores token; an empty token clears it.
func (c *APIClient) SetToken(ctx context.Context, token string) error {
	return c.tokens.SetToken(ctx, token)
}

// CurrentUser returns the cached profile without contacting the CMS.
func (c *APIClient) CurrentUser(ctx context.Context) *domain.Profile {
	return c.users.Current(ctx)
}

// SetCurrentUser replaces the cached profile. Nil is ignored.
func (c *APIClient) SetCurrentUser(ctx context.Context, p *domain.Profile) error {
	return c.users.Set(ctx, p)
}

func (c *APIClient) clearToken(ctx context.Context) {
	if err := c.tokens.ClearToken(ctx); err != nil {
		c.log.Error("failed to clear session token", "error", err)
	}
}

// FetchUser loads users/me with the stored token. It never fails: without
// a token nothing is sent, and a rejected call clears the token unless ctx
// ended first. In every case the cached profile is returned.
func (c *APIClient) FetchUser(ctx context.Context) FetchResult {
	ctx, span := tracer.Start(ctx, "APIClient.FetchUser")
	defer span.End()

	if _, ok := c.tokens.Token(ctx); !ok {
		return FetchResult{Profile: c.users.Current(ctx), Status: FetchNoToken}
	}

	var user domain.User
	err := c.Request(ctx, "users/me", RequestOptions{Method: http.MethodGet}, false, &user)
	if err == nil {
		err = utils.Validate(&user)
	}
	if err != nil {
		return c.demote(ctx, span, "users/me", err)
	}

	profile := domain.UserProfile(&user)
	if err := c.users.Set(ctx, profile); err != nil {
		c.log.Error("failed to persist logged user", "error", err)
	}
	span.SetAttributes(attribute.Int64("user.id", user.Id))
	return FetchResult{Profile: profile, Status: FetchOK}
}

// FetchAdmin is FetchUser for the admin panel account.
func (c *APIClient) FetchAdmin(ctx context.Context) FetchResult {
	ctx, span := tracer.Start(ctx, "APIClient.FetchAdmin")
	defer span.End()

	if _, ok := c.tokens.Token(ctx); !ok {
		return FetchResult{Profile: c.users.Current(ctx), Status: FetchNoToken}
	}

	var resp api.AdminUserResponse
	path := c.adminPath("users/me")
	err := c.Request(ctx, path, RequestOptions{Method: http.MethodGet}, true, &resp)
	if err == nil {
		err = utils.Validate(&resp)
	}
	if err != nil {
		return c.demote(ctx, span, path, err)
	}

	profile := domain.AdminProfile(resp.Data)
	if err := c.users.Set(ctx, profile); err != nil {
		c.log.Error("failed to persist logged user", "error", err)
	}
	span.SetAttributes(attribute.Int64("user.id", resp.Data.Id))
	return FetchResult{Profile: profile, Status: FetchOK}
}

func (c *APIClient) demote(ctx context.Context, span trace.Span, path string, err error) FetchResult {
	span.RecordError(err)
	if ctx.Err() != nil {
		c.log.Debug("current user fetch aborted, keeping token", "path", path, "error", err)
		return FetchResult{Profile: c.users.Current(ctx), Status: FetchAborted}
	}
	c.log.Warn("current user fetch failed, clearing token", "path", path, "error", err)
	c.clearToken(ctx)
	return FetchResult{Profile: c.users.Current(ctx), Status: FetchUnauthorized}
}

// authenticate runs the shared sign-in sequence: clear the token, validate
// the form, call the CMS, store the returned jwt and load the user.
func (c *APIClient) authenticate(ctx context.Context, span trace.Span, path string, opts RequestOptions, form any) (*AuthResult, error) {
	c.clearToken(ctx)

	if form != nil {
		if err := utils.Validate(form); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("invalid %s form: %w", path, err)
		}
	}

	var resp api.AuthenticationResponse
	if err := c.Request(ctx, path, opts, false, &resp); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := utils.Validate(&resp); err != nil {
		err = fmt.Errorf("%w from %s: %v", ErrInvalidEnvelope, path, err)
		span.RecordError(err)
		return nil, err
	}

	if err := c.tokens.SetToken(ctx, resp.Jwt); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	return &AuthResult{JWT: resp.Jwt, User: c.FetchUser(ctx)}, nil
}

// Login authenticates with identifier (email or username) and password.
func (c *APIClient) Login(ctx context.Context, req api.LoginRequest) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "APIClient.Login")
	defer span.End()

	return c.authenticate(ctx, span, "auth/local", RequestOptions{Method: http.MethodPost, Data: req}, &req)
}

func (c *APIClient) Register(ctx context.Context, req api.RegisterRequest) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "APIClient.Register")
	defer span.End()

	return c.authenticate(ctx, span, "auth/local/register", RequestOptions{Method: http.MethodPost, Data: req}, &req)
}

// ResetPassword sets a new password using the code from the reset email
// and signs the user in.
func (c *APIClient) ResetPassword(ctx context.Context, req api.ResetPasswordRequest) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "APIClient.ResetPassword")
	defer span.End()

	return c.authenticate(ctx, span, "auth/reset-password", RequestOptions{Method: http.MethodPost, Data: req}, &req)
}

// AuthenticateProvider exchanges the provider access token for a CMS jwt.
func (c *APIClient) AuthenticateProvider(ctx context.Context, provider api.AuthProvider, accessToken string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "APIClient.AuthenticateProvider")
	defer span.End()
	span.SetAttributes(attribute.String("auth.provider", provider))

	opts := RequestOptions{
		Method: http.MethodGet,
		Params: map[string]string{"access_token": accessToken},
	}
	return c.authenticate(ctx, span, "auth/"+provider+"/callback", opts, nil)
}

// ProviderAuthenticationURL is where the browser goes to start a provider
// login.
func (c *APIClient) ProviderAuthenticationURL(provider api.AuthProvider) string {
	return c.cfg.UserURL() + "/connect/" + provider
}

func (c *APIClient) AdminLogin(ctx context.Context, req api.AdminLoginRequest) (*AdminAuthResult, error) {
	ctx, span := tracer.Start(ctx, "APIClient.AdminLogin")
	defer span.End()

	c.clearToken(ctx)
	if err := utils.Validate(&req); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("invalid admin login form: %w", err)
	}

	var resp api.AdminAuthenticationResponse
	path := c.adminPath("login")
	if err := c.Request(ctx, path, RequestOptions{Method: http.MethodPost, Data: req}, true, &resp); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := utils.Validate(&resp); err != nil {
		err = fmt.Errorf("%w from %s: %v", ErrInvalidEnvelope, path, err)
		span.RecordError(err)
		return nil, err
	}

	if err := c.tokens.SetToken(ctx, resp.Data.Token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	return &AdminAuthResult{Token: resp.Data.Token, User: c.FetchAdmin(ctx)}, nil
}

// ForgotPassword asks the CMS to email a reset code. The session token is
// cleared first.
func (c *APIClient) ForgotPassword(ctx context.Context, req api.ForgotPasswordRequest) error {
	ctx, span := tracer.Start(ctx, "APIClient.ForgotPassword")
	defer span.End()

	c.clearToken(ctx)
	return c.postForm(ctx, span, "auth/forgot-password", &req)
}

// ChangePassword changes the password of the signed-in user.
func (c *APIClient) ChangePassword(ctx context.Context, req api.ChangePasswordRequest) error {
	ctx, span := tracer.Start(ctx, "APIClient.ChangePassword")
	defer span.End()

	return c.postForm(ctx, span, "auth/change-password", &req)
}

func (c *APIClient) SendEmailConfirmation(ctx context.Context, req api.EmailConfirmationRequest) error {
	ctx, span := tracer.Start(ctx, "APIClient.SendEmailConfirmation")
	defer span.End()

	return c.postForm(ctx, span, "auth/send-email-confirmation", &req)
}

func (c *APIClient) postForm(ctx context.Context, span trace.Span, path string, form any) error {
	if err := utils.Validate(form); err != nil {
		span.RecordError(err)
		return fmt.Errorf("invalid %s form: %w", path, err)
	}
	if err := c.Request(ctx, path, RequestOptions{Method: http.MethodPost, Data: form}, false, nil); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// RenewToken trades the stored token for a fresh one on the admin API,
// stores it and returns it.
func (c *APIClient) RenewToken(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "APIClient.RenewToken")
	defer span.End()

	token, _ := c.tokens.Token(ctx)

	var resp api.RenewTokenResponse
	path := c.adminPath("renew-token")
	err := c.Request(ctx, path, RequestOptions{
		Method: http.MethodPost,
		Data:   api.RenewTokenRequest{Token: token},
	}, true, &resp)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if err := utils.Validate(&resp); err != nil {
		err = fmt.Errorf("%w from %s: %v", ErrInvalidEnvelope, path, err)
		span.RecordError(err)
		return "", err
	}

	if err := c.tokens.SetToken(ctx, resp.Data.Token); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	c.log.Debug("session token renewed")
	return resp.Data.Token, nil
}

// EnsureFreshToken renews the stored token when it expires within window.
// It reports whether a renewal happened.
func (c *APIClient) EnsureFreshToken(ctx context.Context, window time.Duration) (bool, error) {
	token, ok := c.tokens.Token(ctx)
	if !ok || !jwt.ExpiresWithin(token, window, time.Now()) {
		return false, nil
	}
	if _, err := c.RenewToken(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Logout drops the token and the cached user. Nothing is sent to the CMS.
func (c *APIClient) Logout(ctx context.Context) error {
	if err := c.tokens.ClearToken(ctx); err != nil {
		return err
	}
	return c.users.Clear(ctx)
}
