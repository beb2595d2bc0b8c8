package handlers

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"themesandbox/internal/guardian"
	"themesandbox/internal/middleware"
)

// HandoffTaker retrieves, at most once, the theme selection recorded for
// a session.
type HandoffTaker interface {
	Take(ctx context.Context, sessionID string) (string, bool)
}

// Public serves the rendered pages. Theme activation comes from two
// sources: the read-once handoff slot (sandbox sessions, first request)
// and the preview_theme_key query parameter (hotlink previews).
type Public struct {
	themes  ThemeStore
	guard   *guardian.Guardian
	handoff HandoffTaker

	sandboxHost string
}

// NewPublic creates the public render handler.
func NewPublic(themes ThemeStore, guard *guardian.Guardian, handoff HandoffTaker, sandboxHost string) *Public {
	return &Public{themes: themes, guard: guard, handoff: handoff, sandboxHost: sandboxHost}
}

// activeThemeKey decides which theme, if any, styles this request.
func (h *Public) activeThemeKey(r *http.Request) string {
	sess := middleware.SessionFromCtx(r.Context())
	actor := middleware.ActorFromCtx(r.Context())

	// Sandbox sessions pick up the handed-off theme exactly once; after
	// that the key would normally be persisted client-side by the page.
	if r.Host == h.sandboxHost && sess != nil {
		if key, ok := h.handoff.Take(r.Context(), sess.ID); ok {
			theme, err := h.themes.FindByKey(key)
			if err != nil {
				slog.Error("theme lookup failed", "error", err)
			} else if theme != nil && h.guard.CanSeeTheme(actor, theme) {
				return key
			}
		}
	}

	if key := r.URL.Query().Get("preview_theme_key"); key != "" {
		if h.guard.AllowTheme(actor, key) {
			return key
		}
		slog.Warn("preview theme rejected", "host", r.Host)
	}
	return ""
}

// Render serves a page shell with the active theme applied. Content is a
// stand-in: the interesting part is which theme wins.
func (h *Public) Render(w http.ResponseWriter, r *http.Request) {
	key := h.activeThemeKey(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html>\n<html>\n<head><title>Theme Sandbox</title>")
	if key != "" {
		fmt.Fprintf(w, "\n<meta name=\"active-theme-key\" content=%q>", html.EscapeString(key))
	}
	fmt.Fprint(w, "</head>\n<body>\n")
	if key != "" {
		fmt.Fprintf(w, "<p>Previewing theme %s</p>\n", html.EscapeString(key))
	} else {
		fmt.Fprint(w, "<p>Default theme</p>\n")
	}
	fmt.Fprint(w, "</body>\n</html>\n")
}
