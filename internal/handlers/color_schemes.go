// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// schemeFromPath resolves {scheme_id} against the current theme. The
// scheme must belong to the theme already resolved from the path; any
// mismatch gets the uniform forbidden response.
func (h *Themes) schemeFromPath(w http.ResponseWriter, r *http.Request, themeID int64) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "scheme_id"), 10, 64)
	if err != nil {
		forbidden(w)
		return 0, false
	}
	scheme, err := h.schemes.FindByID(id)
	if err != nil {
		internalError(w, "scheme lookup failed", err)
		return 0, false
	}
	if scheme == nil || !scheme.OwnedByTheme(themeID) {
		forbidden(w)
		return 0, false
	}
	return id, true
}

// CreateScheme copies the default palette into a new scheme owned by the
// theme. Owner only.
func (h *Themes) CreateScheme(w http.ResponseWriter, r *http.Request) {
	_, theme := h.ownTheme(w, r)
	if theme == nil {
		return
	}

	scheme, err := h.schemes.CreateFromDefault(theme.ID, theme.Name)
	if err != nil {
		internalError(w, "create color scheme failed", err)
		return
	}
	if err := h.themes.SetColorScheme(theme.ID, &scheme.ID); err != nil {
		internalError(w, "attach color scheme failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"color_scheme": scheme})
}

// UpdateScheme replaces a scheme's name and colors. Owner only, and the
// scheme must belong to the theme in the path.
func (h *Themes) UpdateScheme(w http.ResponseWriter, r *http.Request) {
	_, theme := h.ownTheme(w, r)
	if theme == nil {
		return
	}
	schemeID, ok := h.schemeFromPath(w, r, theme.ID)
	if !ok {
		return
	}

	var payload schemeUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeFieldErrors(w, fieldErrors(err))
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeFieldErrors(w, fieldErrors(err))
		return
	}

	scheme, err := h.schemes.Update(schemeID, payload.Name, payload.Colors)
	if err != nil {
		internalError(w, "update color scheme failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"color_scheme": scheme})
}

// DestroyScheme deletes a scheme. If the theme currently points at it the
// pointer is cleared first, so the theme is never left referencing a
// deleted scheme.
func (h *Themes) DestroyScheme(w http.ResponseWriter, r *http.Request) {
	_, theme := h.ownTheme(w, r)
	if theme == nil {
		return
	}
	schemeID, ok := h.schemeFromPath(w, r, theme.ID)
	if !ok {
		return
	}

	if theme.ColorSchemeID != nil && *theme.ColorSchemeID == schemeID {
		if err := h.themes.SetColorScheme(theme.ID, nil); err != nil {
			internalError(w, "detach color scheme failed", err)
			return
		}
	}
	if err := h.schemes.Delete(schemeID); err != nil {
		internalError(w, "delete color scheme failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
