// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"themesandbox/internal/models"
	"themesandbox/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
)

// SandboxEntryPath is the one sandbox-host path an unauthenticated request
// may reach: everything else on that host redirects back to the trusted
// base URL.
const SandboxEntryPath = "/user_themes/enter_sandbox"

// IdentityStrategy resolves the acting principal for a request. It is
// injected at process start; the default strategy is DomainScopedResolver.
type IdentityStrategy interface {
	Resolve(r *http.Request) *session.Data
}

// DomainScopedResolver wraps session lookup with the domain isolation
// policy: the sandbox host only ever carries ephemeral identities, and
// every other host never does. A session that violates the policy for the
// host it arrived on is discarded, not rejected — the request proceeds as
// unauthenticated.
type DomainScopedResolver struct {
	sessions    *session.Store
	sandboxHost string
}

// NewDomainScopedResolver creates the default identity strategy.
func NewDomainScopedResolver(sessions *session.Store, sandboxHost string) *DomainScopedResolver {
	return &DomainScopedResolver{sessions: sessions, sandboxHost: sandboxHost}
}

// Resolve looks up the session and applies the per-host policy.
func (d *DomainScopedResolver) Resolve(r *http.Request) *session.Data {
	data, err := d.sessions.Get(r.Context(), r)
	if err != nil {
		// Log but don't block — treat as unauthenticated.
		slog.Error("session lookup failed", "error", err)
		return nil
	}
	return scopeToHost(r.Host, d.sandboxHost, data)
}

// scopeToHost applies the domain isolation policy to a resolved session.
func scopeToHost(host, sandboxHost string, data *session.Data) *session.Data {
	if data == nil {
		return nil
	}

	if host == sandboxHost {
		// In the sandbox, only ephemeral identities are allowed.
		if !data.Anonymous {
			slog.Warn("real identity discarded on sandbox host", "user_id", data.UserID)
			return nil
		}
	} else {
		// Outside the sandbox, ephemeral identities are never allowed.
		if data.Anonymous {
			slog.Warn("ephemeral identity discarded on trusted host", "user_id", data.UserID)
			return nil
		}
	}

	return data
}

// ResolveIdentity runs the injected strategy and stores the resolved
// session in the request context. It does NOT enforce authentication —
// downstream middleware and the guardian do that.
func ResolveIdentity(strategy IdentityStrategy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if data := strategy.Resolve(r); data != nil {
				ctx := context.WithValue(r.Context(), SessionKey, data)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectStrandedAnon sends unauthenticated requests that land on the
// sandbox host anywhere outside the entry endpoint back to the trusted
// base URL. There is nothing for them there, and letting them linger would
// invite probing.
func RedirectStrandedAnon(sandboxHost, trustedBaseURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionFromCtx(r.Context()) == nil &&
				r.Host == sandboxHost &&
				r.URL.Path != "/health" &&
				r.URL.Path != "/metrics" &&
				!strings.HasPrefix(r.URL.Path, SandboxEntryPath) {
				http.Redirect(w, r, trustedBaseURL, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects unauthenticated requests with the uniform forbidden
// response. Must be applied after ResolveIdentity in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require2FA rejects sessions that have not completed two-factor
// verification. Must be applied after RequireAuth; a missing session passes
// through so the auth check stays in one place. Sandbox sessions carry
// TwoFADone from creation, so this only ever bites half-authenticated
// trusted-host sessions.
func Require2FA(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess != nil && !sess.TwoFADone {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (request is unauthenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// ActorFromCtx builds the acting principal from the resolved session.
// Returns nil for unauthenticated requests.
func ActorFromCtx(ctx context.Context) *models.User {
	data := SessionFromCtx(ctx)
	if data == nil {
		return nil
	}
	return &models.User{
		ID:          data.UserID,
		Email:       data.Email,
		DisplayName: data.DisplayName,
		Role:        models.Role(data.Role),
		Anonymous:   data.Anonymous,
	}
}
