// Package apiclient talks to a Strapi-style headless CMS: JSON requests with
// bearer auth, versioned content-type CRUD, authentication flows and media
// uploads.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/itchan-dev/strapikit/shared/api"
	"github.com/itchan-dev/strapikit/shared/config"
	"github.com/itchan-dev/strapikit/shared/errors"
	"github.com/itchan-dev/strapikit/shared/logger"
	"github.com/itchan-dev/strapikit/shared/session"
	"github.com/itchan-dev/strapikit/shared/storage"
)

// ErrInvalidEnvelope is wrapped by errors for responses that decode but do
// not have the v4 shape.
var ErrInvalidEnvelope = stderrors.New("invalid response envelope")

// APIClient handles all communication with the CMS. The token and the
// current user live in the storage.Store it was built with.
type APIClient struct {
	cfg        config.Public
	HttpClient *http.Client
	log        *slog.Logger

	tokens *session.TokenStore
	users  *session.UserStore
	media  *Media
}

type Option func(*APIClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *APIClient) { c.HttpClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *APIClient) { c.log = l }
}

// New creates a client for cfg that keeps its session in store.
func New(cfg config.Public, store storage.Store, opts ...Option) *APIClient {
	c := &APIClient{
		cfg: cfg,
		HttpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: NewTransport(http.DefaultTransport),
		},
		log: logger.Log,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.bind(store)
	if cfg.Version != "" && cfg.Version != "v4" {
		c.log.Warn("only the v4 response format is supported", "version", cfg.Version)
	}
	return c
}

// WithStore returns a copy of c sharing its HTTP client but keeping the
// session in store. Used to bind a client to one incoming request.
func (c *APIClient) WithStore(store storage.Store) *APIClient {
	clone := &APIClient{cfg: c.cfg, HttpClient: c.HttpClient, log: c.log}
	clone.bind(store)
	return clone
}

func (c *APIClient) bind(store storage.Store) {
	c.tokens = session.NewTokenStore(store, c.cfg.CookieName)
	c.users = session.NewUserStore(store, c.cfg.LoggedUserKey, c.cfg.LoggedUserTTL)
	c.media = &Media{client: c}
}

func (c *APIClient) Config() config.Public {
	return c.cfg
}

// NewTransport wraps base with client metrics and tracing.
func NewTransport(base http.RoundTripper) http.RoundTripper {
	return otelhttp.NewTransport(instrumentRoundTripper(base))
}

// RequestOptions describe one call to the CMS.
type RequestOptions struct {
	Method string // GET when empty
	Data   any    // JSON-encoded request body
	Params any    // bracket-encoded query, see EncodeParams
	Header http.Header
}

// Request sends a JSON request to {userURL}/{path}, or {adminURL}/{path}
// when forAdmin is set, and decodes a 2xx body into out (which may be nil).
// Non-2xx responses become *errors.ErrorWithStatusCode carrying the raw
// body. Transport errors are returned as is.
func (c *APIClient) Request(ctx context.Context, path string, opts RequestOptions, forAdmin bool, out any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	if opts.Params != nil {
		query, err := EncodeParams(opts.Params)
		if err != nil {
			return fmt.Errorf("failed to encode params: %w", err)
		}
		path = appendQuery(path, query)
	}

	base := c.cfg.UserURL()
	if forAdmin {
		base = c.cfg.AdminURL()
	}
	url := base + "/" + path

	var body io.Reader
	if opts.Data != nil {
		jsonBody, err := json.Marshal(opts.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal request data: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create API request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.authorize(ctx, req)
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	for key, values := range opts.Header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := c.HttpClient.Do(req)
	if err != nil {
		c.log.Error("backend unavailable", "method", method, "url", url, "request_id", requestID, "error", err)
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	c.log.Debug("backend request",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("%s %s: %s", method, path, http.StatusText(resp.StatusCode)),
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("cannot decode response from %s: %w", path, err)
	}
	return nil
}

// Do is Request with a typed result.
func Do[T any](ctx context.Context, c *APIClient, path string, opts RequestOptions, forAdmin bool) (T, error) {
	var out T
	err := c.Request(ctx, path, opts, forAdmin, &out)
	return out, err
}

// ParseError decodes the CMS error envelope carried by err, if any.
func ParseError(err error) (*api.ErrorResponse, bool) {
	var e *errors.ErrorWithStatusCode
	if !stderrors.As(err, &e) || len(e.Body) == 0 {
		return nil, false
	}
	var resp api.ErrorResponse
	if jsonErr := json.Unmarshal(e.Body, &resp); jsonErr != nil || resp.Error.Status == 0 {
		return nil, false
	}
	return &resp, true
}

// authorize sets the bearer header, or removes it when there is no token.
func (c *APIClient) authorize(ctx context.Context, req *http.Request) {
	if token, ok := c.tokens.Token(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
		return
	}
	req.Header.Del("Authorization")
}

func appendQuery(path, query string) string {
	if query == "" {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + query
	}
	return path + "?" + query
}
