package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/itchan-dev/strapikit/apiclient"
	"github.com/itchan-dev/strapikit/shared/storage"
)

type clientKey struct{}

// SessionOptions configure where the per-request session lives.
type SessionOptions struct {
	SecureCookies bool

	// Store enables server-side sessions: values are kept in Store under a
	// random id that the browser holds in Cookie. Nil keeps everything in
	// browser cookies.
	Store  storage.Store
	Cookie string
	// TTL bounds both the session cookie and the values kept in Store.
	TTL    time.Duration
}

// Session binds a copy of base to each request's session, so the CMS token
// and the logged user travel with the browser.
func Session(base *apiclient.APIClient, opts SessionOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var store storage.Store
			if opts.Store == nil {
				store = storage.NewHTTPCookies(r, w, opts.SecureCookies)
			} else {
				store = storage.NewScoped(opts.Store, "session:"+sessionID(w, r, opts)+":", opts.TTL)
			}

			client := base.WithStore(store)
			ctx := context.WithValue(r.Context(), clientKey{}, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionID reads the session cookie, issuing a new id when it is missing
// or malformed.
func sessionID(w http.ResponseWriter, r *http.Request, opts SessionOptions) string {
	if c, err := r.Cookie(opts.Cookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     opts.Cookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if opts.TTL > 0 {
		cookie.MaxAge = int(opts.TTL.Seconds())
	}
	http.SetCookie(w, cookie)
	return id
}

// ClientFromContext returns the client bound by Session, or nil.
func ClientFromContext(ctx context.Context) *apiclient.APIClient {
	client, _ := ctx.Value(clientKey{}).(*apiclient.APIClient)
	return client
}
