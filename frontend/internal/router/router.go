package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/itchan-dev/strapikit/frontend/internal/setup"
	"github.com/itchan-dev/strapikit/shared/csrf"
	mw "github.com/itchan-dev/strapikit/shared/middleware"
	"github.com/itchan-dev/strapikit/shared/middleware/metrics"
	rl "github.com/itchan-dev/strapikit/shared/middleware/ratelimiter"
)

// New creates the chi router with all the routes.
// IMPORTANT! ratelimiters attached with .With are shared by every route of that group
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()
	frontend := deps.Public.Frontend

	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   frontend.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", csrf.HeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeaders(frontend.SecureCookies))

	r.Get("/health", deps.Handler.Health)
	r.Handle("/metrics", metrics.Handler())

	h := deps.Handler
	r.Group(func(r chi.Router) {
		r.Use(mw.CSRF(frontend.SecureCookies))
		r.Use(mw.Session(deps.Client, mw.SessionOptions{
			SecureCookies: frontend.SecureCookies,
			Store:         deps.Sessions,
			Cookie:        frontend.SessionCookie,
			TTL:           frontend.SessionTTL,
		}))

		r.Route("/auth", func(r chi.Router) {
			// Credential endpoints: per account, per IP and global limits
			signIn := r.With(
				mw.RateLimit(rl.New(5.0/60, 5, time.Hour), mw.GetIdentifierFromBody), // 5 per minute by account
				mw.RateLimit(rl.OnceInSecond(), mw.GetIP),                            // 1 per second by IP
				mw.GlobalRateLimit(rl.Rps100()),                                      // 100 global RPS
			)
			signIn.Post("/login", h.Login)
			signIn.Post("/admin/login", h.AdminLogin)

			// Endpoints that make the CMS send email
			sendsEmail := r.With(
				mw.RateLimit(rl.New(1.0/60, 1, time.Hour), mw.GetIdentifierFromBody), // 1 per minute by email
				mw.RateLimit(rl.OnceInSecond(), mw.GetIP),
			)
			sendsEmail.Post("/register", h.Register)
			sendsEmail.Post("/forgot-password", h.ForgotPassword)
			sendsEmail.Post("/send-email-confirmation", h.SendEmailConfirmation)

			byIP := r.With(mw.RateLimit(rl.Rps10(), mw.GetIP))
			byIP.Post("/reset-password", h.ResetPassword)
			byIP.Post("/change-password", h.ChangePassword)
			byIP.Post("/renew", h.RenewToken)
			byIP.Get("/connect/{provider}", h.ProviderConnect)
			byIP.Get("/{provider}/callback", h.ProviderCallback)

			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
			r.Get("/admin/me", h.AdminMe)
		})

		r.Route("/content/{contentType}", func(r chi.Router) {
			r.Get("/", h.Find)
			r.Post("/", h.Create)
			r.Get("/{id}", h.FindOne)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})

		r.With(mw.RateLimit(rl.Rps10(), mw.GetIP)).Post("/upload", h.Upload)
	})

	return r
}
