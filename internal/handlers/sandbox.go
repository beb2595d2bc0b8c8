// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"themesandbox/internal/guardian"
	"themesandbox/internal/middleware"
	"themesandbox/internal/models"
	"themesandbox/internal/session"
	"themesandbox/internal/token"
)

// UserFinder loads users by id for sandbox entry.
type UserFinder interface {
	FindByID(id uuid.UUID) (*models.User, error)
}

// SessionCreator opens a new server-side session and sets the cookie.
type SessionCreator interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
}

// HandoffSetter records the theme selection for a session to pick up
// exactly once.
type HandoffSetter interface {
	Set(ctx context.Context, sessionID, themeKey string) error
}

// Sandbox handles entry onto the sandbox host.
type Sandbox struct {
	tokens   TokenService
	users    UserFinder
	themes   ThemeStore
	guard    *guardian.Guardian
	sessions SessionCreator
	handoff  HandoffSetter

	sandboxHost string
}

// NewSandbox creates the sandbox entry handler.
func NewSandbox(tokens TokenService, users UserFinder, themes ThemeStore, guard *guardian.Guardian, sessions SessionCreator, handoff HandoffSetter, sandboxHost string) *Sandbox {
	return &Sandbox{
		tokens:      tokens,
		users:       users,
		themes:      themes,
		guard:       guard,
		sessions:    sessions,
		handoff:     handoff,
		sandboxHost: sandboxHost,
	}
}

// deny counts the rejection and writes the uniform forbidden response.
// Every failure mode of sandbox entry looks identical from outside.
func (h *Sandbox) deny(w http.ResponseWriter, reason string) {
	slog.Warn("sandbox entry denied", "reason", reason)
	middleware.CountSandboxEntryDenied()
	forbidden(w)
}

// Enter consumes a single-use token and establishes an anonymous session
// on the sandbox host. The token is burned before any further checks, so
// a request that fails later still invalidates it.
func (h *Sandbox) Enter(w http.ResponseWriter, r *http.Request) {
	if r.Host != h.sandboxHost {
		h.deny(w, "wrong host")
		return
	}

	tok := chi.URLParam(r, "token")
	if !token.ValidFormat(tok) {
		h.deny(w, "malformed token")
		return
	}

	shadowID, err := h.tokens.Consume(r.Context(), tok)
	if err != nil {
		h.deny(w, "token rejected")
		return
	}

	user, err := h.users.FindByID(shadowID)
	if err != nil {
		slog.Error("shadow lookup failed", "error", err)
		h.deny(w, "lookup failed")
		return
	}
	if user == nil || !user.Anonymous {
		// A token must only ever name a shadow identity.
		h.deny(w, "not a shadow user")
		return
	}

	themeKey := r.URL.Query().Get("theme")
	theme, err := h.themes.FindByKey(themeKey)
	if err != nil {
		slog.Error("theme lookup failed", "error", err)
		h.deny(w, "lookup failed")
		return
	}
	if theme == nil || !h.guard.CanSeeTheme(user, theme) {
		h.deny(w, "theme not visible")
		return
	}

	// The handoff slot is written before the session exists, keyed by a
	// pre-generated id. If session creation fails afterwards the slot is
	// an orphan that its TTL reaps; no cookie was ever issued, so no
	// half-open session can reach a browser.
	sessionID, err := session.NewID()
	if err != nil {
		internalError(w, "session id generation failed", err)
		return
	}
	if err := h.handoff.Set(r.Context(), sessionID, theme.Key); err != nil {
		internalError(w, "handoff store failed", err)
		return
	}

	if _, err := h.sessions.Create(r.Context(), w, &session.Data{
		ID:          sessionID,
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		Anonymous:   true,
		TwoFADone:   true,
	}); err != nil {
		internalError(w, "session create failed", err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
