// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"fmt"
	"log/slog"
)

// PluginNamespace is the plugin store namespace for theme sharing state.
const PluginNamespace = "theme-sandbox"

// SharedFlagStore maps theme ids to their shared flag through the plugin
// key-value store. It reads fail closed: a storage error reports the theme
// as not shared.
type SharedFlagStore struct {
	kv *PluginStore
}

// NewSharedFlagStore wraps the given plugin store.
func NewSharedFlagStore(kv *PluginStore) *SharedFlagStore {
	return &SharedFlagStore{kv: kv}
}

// shareKey builds the per-theme key under the plugin namespace.
func shareKey(themeID int64) string {
	return fmt.Sprintf("share:$%d", themeID)
}

// ThemeShared reports whether the theme is currently shared.
func (s *SharedFlagStore) ThemeShared(themeID int64) bool {
	shared, err := s.kv.GetBool(shareKey(themeID))
	if err != nil {
		slog.Error("shared flag read failed, treating as not shared", "theme_id", themeID, "error", err)
		return false
	}
	return shared
}

// SetThemeShared persists the theme's shared flag.
func (s *SharedFlagStore) SetThemeShared(themeID int64, shared bool) error {
	return s.kv.SetBool(shareKey(themeID), shared)
}

// ClearThemeShared removes the flag entry, used when the theme is deleted.
func (s *SharedFlagStore) ClearThemeShared(themeID int64) error {
	return s.kv.Delete(shareKey(themeID))
}
