// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Theme is an owner-authored bundle of presentation assets. Themes are
// addressed externally by Key, an opaque random string used in URLs and
// tokens instead of the sequential ID so that sequential IDs never leak
// and access can be revoked by rotating the key.
//
// The shared flag is deliberately NOT a column here: sharing is an add-on
// capability stored out-of-band in the plugin key-value store and read
// fresh at every capability decision.
type Theme struct {
	ID            int64     `json:"id"`
	Key           string    `json:"key"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	ColorSchemeID *int64    `json:"color_scheme_id"`
	// UserSelectable marks platform themes anyone may select by key.
	UserSelectable bool      `json:"user_selectable"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OwnedBy returns true if the given user is the theme's owner.
func (t *Theme) OwnedBy(userID uuid.UUID) bool {
	return t.UserID == userID
}
