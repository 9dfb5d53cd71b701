package storage

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// HTTPCookies is a Store over one request/response pair. Reads come from
// the request cookies, writes go out as Set-Cookie headers. Values written
// during the request shadow the request cookies for later reads, and only
// the last write per name is sent.
type HTTPCookies struct {
	r      *http.Request
	w      http.ResponseWriter
	secure bool

	mu      sync.Mutex
	pending map[string]*string // nil value means deleted
}

func NewHTTPCookies(r *http.Request, w http.ResponseWriter, secure bool) *HTTPCookies {
	return &HTTPCookies{r: r, w: w, secure: secure, pending: make(map[string]*string)}
}

func (c *HTTPCookies) Get(_ context.Context, name string) (string, error) {
	c.mu.Lock()
	v, ok := c.pending[name]
	c.mu.Unlock()
	if ok {
		if v == nil {
			return "", ErrNotFound
		}
		return *v, nil
	}

	cookie, err := c.r.Cookie(name)
	if err != nil {
		return "", ErrNotFound
	}
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return cookie.Value, nil
	}
	return value, nil
}

func (c *HTTPCookies) Set(_ context.Context, name, value string, ttl time.Duration) error {
	cookie := c.cookie(name, url.QueryEscape(value))
	if ttl > 0 {
		cookie.MaxAge = int(ttl.Seconds())
		cookie.Expires = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.write(cookie)
	c.pending[name] = &value
	return nil
}

func (c *HTTPCookies) Delete(_ context.Context, name string) error {
	cookie := c.cookie(name, "")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.write(cookie)
	c.pending[name] = nil
	return nil
}

// write replaces any Set-Cookie already queued for the same name.
// c.mu must be held.
func (c *HTTPCookies) write(cookie *http.Cookie) {
	h := c.w.Header()
	prefix := cookie.Name + "="
	kept := h["Set-Cookie"][:0]
	for _, v := range h["Set-Cookie"] {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		h.Del("Set-Cookie")
	} else {
		h["Set-Cookie"] = kept
	}
	http.SetCookie(c.w, cookie)
}

func (c *HTTPCookies) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
