// Package handlers implements the HTTP surface of the theme sandbox
// preview service: theme and color scheme management on the trusted host,
// the share-preview handoff, the sandbox entry endpoint, and the render
// path that activates a previewed theme.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"themesandbox/internal/guardian"
	"themesandbox/internal/middleware"
	"themesandbox/internal/models"
)

// ThemeStore is the slice of the theme store the handlers need.
type ThemeStore interface {
	FindByID(id int64) (*models.Theme, error)
	FindByKey(key string) (*models.Theme, error)
	ListByUser(userID uuid.UUID) ([]models.Theme, error)
	Create(userID uuid.UUID, name string) (*models.Theme, error)
	UpdateName(id int64, name string) error
	SetColorScheme(id int64, schemeID *int64) error
	RotateKey(id int64) (string, error)
	Delete(id int64) error
}

// ColorSchemeStore is the slice of the scheme store the handlers need.
type ColorSchemeStore interface {
	FindByID(id int64) (*models.ColorScheme, error)
	FindDefault() (*models.ColorScheme, error)
	ListByThemes(themeIDs []int64) ([]models.ColorScheme, error)
	CreateFromDefault(themeID int64, name string) (*models.ColorScheme, error)
	Update(id int64, name string, colors []models.ColorEntry) (*models.ColorScheme, error)
	Delete(id int64) error
}

// SharedFlags reads and writes the out-of-band shared flag.
type SharedFlags interface {
	ThemeShared(themeID int64) bool
	SetThemeShared(themeID int64, shared bool) error
	ClearThemeShared(themeID int64) error
}

// ShadowProvisioner mints ephemeral preview identities.
type ShadowProvisioner interface {
	Provision(realUser *models.User) (*models.User, error)
}

// TokenService issues and consumes single-use sandbox entry tokens.
type TokenService interface {
	Issue(ctx context.Context, shadowID uuid.UUID) (string, error)
	Consume(ctx context.Context, tok string) (uuid.UUID, error)
}

// Themes groups the trusted-host theme handlers.
type Themes struct {
	themes  ThemeStore
	schemes ColorSchemeStore
	flags   SharedFlags
	guard   *guardian.Guardian
	shadows ShadowProvisioner
	tokens  TokenService

	sandboxBaseURL     string
	previewDestination string
}

// NewThemes creates the theme handler group.
func NewThemes(themes ThemeStore, schemes ColorSchemeStore, flags SharedFlags, guard *guardian.Guardian, shadows ShadowProvisioner, tokens TokenService, sandboxBaseURL, previewDestination string) *Themes {
	return &Themes{
		themes:             themes,
		schemes:            schemes,
		flags:              flags,
		guard:              guard,
		shadows:            shadows,
		tokens:             tokens,
		sandboxBaseURL:     sandboxBaseURL,
		previewDestination: previewDestination,
	}
}

// themeFromPath resolves the {id} path parameter to a theme. Any failure —
// malformed id, lookup error, missing row — writes the uniform forbidden
// response and returns nil: "doesn't exist" must be indistinguishable from
// "exists but you can't see it".
func (h *Themes) themeFromPath(w http.ResponseWriter, r *http.Request) *models.Theme {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		forbidden(w)
		return nil
	}
	theme, err := h.themes.FindByID(id)
	if err != nil {
		slog.Error("theme lookup failed", "error", err)
		forbidden(w)
		return nil
	}
	if theme == nil {
		forbidden(w)
		return nil
	}
	return theme
}

// ownTheme resolves the theme and requires the acting user to be its
// owner. Staff deliberately get no pass here: mutation of another user's
// theme is off limits for everyone.
func (h *Themes) ownTheme(w http.ResponseWriter, r *http.Request) (*models.User, *models.Theme) {
	actor := middleware.ActorFromCtx(r.Context())
	theme := h.themeFromPath(w, r)
	if theme == nil {
		return nil, nil
	}
	if actor == nil || !theme.OwnedBy(actor.ID) {
		forbidden(w)
		return nil, nil
	}
	return actor, theme
}

// shareInfoPayload is the minimal theme descriptor returned to anyone who
// can see the theme.
type shareInfoPayload struct {
	ID            int64  `json:"id"`
	Key           string `json:"key"`
	Name          string `json:"name"`
	ColorSchemeID *int64 `json:"color_scheme_id"`
	IsShared      bool   `json:"is_shared"`
	CanShare      bool   `json:"can_share"`
}

func (h *Themes) shareInfo(theme *models.Theme) shareInfoPayload {
	return shareInfoPayload{
		ID:            theme.ID,
		Key:           theme.Key,
		Name:          theme.Name,
		ColorSchemeID: theme.ColorSchemeID,
		IsShared:      h.flags.ThemeShared(theme.ID),
		CanShare:      h.guard.CanShareThemes(theme.UserID),
	}
}

// List returns the caller's themes together with the color schemes
// attached to them, the built-in default scheme first.
func (h *Themes) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	if actor == nil {
		forbidden(w)
		return
	}

	themes, err := h.themes.ListByUser(actor.ID)
	if err != nil {
		internalError(w, "list themes failed", err)
		return
	}

	ids := make([]int64, len(themes))
	infos := make([]shareInfoPayload, len(themes))
	for i, t := range themes {
		ids[i] = t.ID
		infos[i] = h.shareInfo(&t)
	}

	schemes, err := h.schemes.ListByThemes(ids)
	if err != nil {
		internalError(w, "list color schemes failed", err)
		return
	}

	// Present the unattached default palette first, like the built-in
	// "Light" scheme users copy from.
	all := []models.ColorScheme{}
	if def, err := h.schemes.FindDefault(); err == nil && def != nil {
		all = append(all, *def)
	}
	all = append(all, schemes...)

	writeJSON(w, http.StatusOK, map[string]any{
		"user_themes": infos,
		"extras": map[string]any{
			"color_schemes": all,
		},
	})
}

// Create makes a new theme owned by the caller, with a fresh opaque key.
func (h *Themes) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	if actor == nil {
		forbidden(w)
		return
	}

	var payload themeCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeFieldErrors(w, fieldErrors(err))
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeFieldErrors(w, fieldErrors(err))
		return
	}

	theme, err := h.themes.Create(actor.ID, payload.Name)
	if err != nil {
		internalError(w, "create theme failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"theme": h.shareInfo(theme)})
}

// Update modifies a theme: rename, flip the shared flag, or select a color
// scheme. Owner only. Selecting a scheme cross-checks that the scheme is
// owned by this theme — a mismatch is an access failure, never a no-op.
func (h *Themes) Update(w http.ResponseWriter, r *http.Request) {
	_, theme := h.ownTheme(w, r)
	if theme == nil {
		return
	}

	var payload themeUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeFieldErrors(w, fieldErrors(err))
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeFieldErrors(w, fieldErrors(err))
		return
	}

	if payload.ColorSchemeID != nil {
		scheme, err := h.schemes.FindByID(*payload.ColorSchemeID)
		if err != nil {
			internalError(w, "scheme lookup failed", err)
			return
		}
		if scheme == nil || !scheme.OwnedByTheme(theme.ID) {
			forbidden(w)
			return
		}
		if err := h.themes.SetColorScheme(theme.ID, payload.ColorSchemeID); err != nil {
			internalError(w, "set color scheme failed", err)
			return
		}
		theme.ColorSchemeID = payload.ColorSchemeID
	}

	if payload.Name != nil {
		if err := h.themes.UpdateName(theme.ID, *payload.Name); err != nil {
			internalError(w, "rename theme failed", err)
			return
		}
		theme.Name = *payload.Name
	}

	if payload.IsShared != nil {
		if err := h.flags.SetThemeShared(theme.ID, *payload.IsShared); err != nil {
			internalError(w, "set shared flag failed", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"theme": h.shareInfo(theme)})
}

// Delete removes a theme, its shared flag entry, and (via the schema
// cascade) its color schemes. Owner only.
func (h *Themes) Delete(w http.ResponseWriter, r *http.Request) {
	_, theme := h.ownTheme(w, r)
	if theme == nil {
		return
	}

	if err := h.flags.ClearThemeShared(theme.ID); err != nil {
		internalError(w, "clear shared flag failed", err)
		return
	}
	if err := h.themes.Delete(theme.ID); err != nil {
		internalError(w, "delete theme failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RotateKey replaces the theme's opaque key, revoking everything that
// referenced the old one. Owner only.
func (h *Themes) RotateKey(w http.ResponseWriter, r *http.Request) {
	_, theme := h.ownTheme(w, r)
	if theme == nil {
		return
	}

	key, err := h.themes.RotateKey(theme.ID)
	if err != nil {
		internalError(w, "rotate theme key failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key})
}

// Preview is the hotlink path: a bare navigable GET, so it is gated on the
// strict owner-only predicate and never leaves the trusted host. The theme
// key rides along as a visible query parameter for the render path.
func (h *Themes) Preview(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	theme := h.themeFromPath(w, r)
	if theme == nil {
		return
	}
	if !h.guard.CanHotlinkTheme(actor, theme) {
		forbidden(w)
		return
	}

	dest := fmt.Sprintf("%s?preview_theme_key=%s", h.previewDestination, url.QueryEscape(theme.Key))
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// SharePreview begins the cross-domain handoff: capability check, shadow
// identity, single-use token, then a redirect onto the sandbox host. POST
// only — a link cannot trigger it — and the token is the only thing that
// crosses the domain boundary.
func (h *Themes) SharePreview(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	theme := h.themeFromPath(w, r)
	if theme == nil {
		return
	}
	if !h.guard.CanSeeTheme(actor, theme) {
		forbidden(w)
		return
	}

	shadowUser, err := h.shadows.Provision(actor)
	if err != nil {
		// Terminal for the share flow: no token without a shadow.
		slog.Error("shadow provisioning failed", "error", err)
		forbidden(w)
		return
	}

	tok, err := h.tokens.Issue(r.Context(), shadowUser.ID)
	if err != nil {
		internalError(w, "token issue failed", err)
		return
	}
	middleware.CountTokenIssued()

	dest := fmt.Sprintf("%s%s/%s?theme=%s",
		h.sandboxBaseURL, middleware.SandboxEntryPath, tok, url.QueryEscape(theme.Key))
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// ShareInfo returns the minimal theme descriptor to anyone who can see
// the theme.
func (h *Themes) ShareInfo(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	theme := h.themeFromPath(w, r)
	if theme == nil {
		return
	}
	if !h.guard.CanSeeTheme(actor, theme) {
		forbidden(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"theme": h.shareInfo(theme)})
}
