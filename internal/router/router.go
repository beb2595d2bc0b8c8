// Package router sets up all HTTP routes and middleware chains for the
// theme sandbox service. Both hosts are served by one router: the
// identity middleware and per-handler host checks keep the trusted and
// sandbox surfaces apart.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"themesandbox/internal/handlers"
	"themesandbox/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(identity middleware.IdentityStrategy, sandboxHost, trustedBaseURL string, themes *handlers.Themes, sandbox *handlers.Sandbox, auth *handlers.Auth, public *handlers.Public) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.ResolveIdentity(identity))
	r.Use(middleware.RedirectStrandedAnon(sandboxHost, trustedBaseURL))

	// Health check and metrics — no auth, no CSRF.
	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Auth — login opens a session, 2FA completes it.
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.CSRF)

		r.Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/2fa/setup", auth.TwoFASetup)
			r.Post("/2fa/verify", auth.TwoFAVerify)
		})
	})

	r.Route("/user_themes", func(r chi.Router) {
		// Sandbox entry is reached by a cross-host redirect carrying only
		// a single-use token: no session, no CSRF token to present.
		r.Get("/enter_sandbox/{token}", sandbox.Enter)

		// Share info and hotlink preview are navigable GETs gated by the
		// capability checks inside the handlers. A session that has not
		// finished 2FA must not act as anyone here either.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Require2FA)
			r.Get("/{id}/share_info", themes.ShareInfo)
			r.Get("/{id}/preview", themes.Preview)
		})

		// Everything else needs a fully authenticated trusted-host session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CSRF)
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/", themes.List)
			r.Post("/", themes.Create)
			r.Put("/{id}", themes.Update)
			r.Delete("/{id}", themes.Delete)
			r.Post("/{id}/rotate_key", themes.RotateKey)
			r.Post("/{id}/share_preview", themes.SharePreview)

			r.Route("/{id}/color_schemes", func(r chi.Router) {
				r.Post("/", themes.CreateScheme)
				r.Put("/{scheme_id}", themes.UpdateScheme)
				r.Delete("/{scheme_id}", themes.DestroyScheme)
			})
		})
	})

	// Public routes — themed page rendering on both hosts.
	r.Get("/", public.Render)
	r.Get("/{slug}", public.Render)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
