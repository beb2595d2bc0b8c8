// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// ColorEntry is one named color within a scheme.
type ColorEntry struct {
	Name string `json:"name" validate:"required,max=100"`
	Hex  string `json:"hex" validate:"required,len=6,hexadecimal"`
}

// ColorScheme is a named palette. ThemeID is nullable: the built-in default
// scheme is attached to no theme. A scheme selected by a theme's
// color_scheme_id pointer must be owned by that theme; every mutation
// entry point cross-checks this.
type ColorScheme struct {
	ID        int64        `json:"id"`
	ThemeID   *int64       `json:"theme_id"`
	Name      string       `json:"name"`
	Colors    []ColorEntry `json:"colors"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// OwnedByTheme returns true if the scheme belongs to the given theme.
// Unattached schemes (like the default) belong to no theme.
func (c *ColorScheme) OwnedByTheme(themeID int64) bool {
	return c.ThemeID != nil && *c.ThemeID == themeID
}
