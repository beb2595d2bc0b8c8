// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"themesandbox/internal/models"
)

// schemeColumns lists the columns selected in color scheme queries.
const schemeColumns = `id, theme_id, name, colors, created_at, updated_at`

// ColorSchemeStore handles all color scheme database operations.
type ColorSchemeStore struct {
	db *sql.DB
}

// NewColorSchemeStore creates a new ColorSchemeStore.
func NewColorSchemeStore(db *sql.DB) *ColorSchemeStore {
	return &ColorSchemeStore{db: db}
}

// scanScheme scans a color scheme row, decoding the JSONB colors column.
func scanScheme(scanner interface{ Scan(...any) error }) (*models.ColorScheme, error) {
	var c models.ColorScheme
	var colors []byte
	err := scanner.Scan(&c.ID, &c.ThemeID, &c.Name, &colors, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(colors, &c.Colors); err != nil {
		return nil, fmt.Errorf("decode scheme colors: %w", err)
	}
	return &c, nil
}

// FindByID retrieves a color scheme by id. Returns nil if not found.
func (s *ColorSchemeStore) FindByID(id int64) (*models.ColorScheme, error) {
	row := s.db.QueryRow(`SELECT `+schemeColumns+` FROM color_schemes WHERE id = $1`, id)
	c, err := scanScheme(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find color scheme by id: %w", err)
	}
	return c, nil
}

// FindDefault returns the built-in unattached default scheme, or nil if the
// database was never seeded.
func (s *ColorSchemeStore) FindDefault() (*models.ColorScheme, error) {
	row := s.db.QueryRow(`SELECT ` + schemeColumns + ` FROM color_schemes WHERE theme_id IS NULL ORDER BY id LIMIT 1`)
	c, err := scanScheme(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find default color scheme: %w", err)
	}
	return c, nil
}

// ListByThemes returns all schemes attached to the given themes.
func (s *ColorSchemeStore) ListByThemes(themeIDs []int64) ([]models.ColorScheme, error) {
	if len(themeIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT `+schemeColumns+` FROM color_schemes WHERE theme_id = ANY($1) ORDER BY id`, themeIDs)
	if err != nil {
		return nil, fmt.Errorf("list color schemes: %w", err)
	}
	defer rows.Close()

	var items []models.ColorScheme
	for rows.Next() {
		c, err := scanScheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan color scheme: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// CreateFromDefault inserts a new scheme for the theme, copying the colors
// of the built-in default palette.
func (s *ColorSchemeStore) CreateFromDefault(themeID int64, name string) (*models.ColorScheme, error) {
	base, err := s.FindDefault()
	if err != nil {
		return nil, err
	}

	colors := []models.ColorEntry{}
	if base != nil {
		colors = base.Colors
	}
	payload, err := json.Marshal(colors)
	if err != nil {
		return nil, fmt.Errorf("encode scheme colors: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO color_schemes (theme_id, name, colors)
		VALUES ($1, $2, $3)
		RETURNING `+schemeColumns,
		themeID, name, payload,
	)
	c, err := scanScheme(row)
	if err != nil {
		return nil, fmt.Errorf("create color scheme: %w", err)
	}
	return c, nil
}

// Update replaces a scheme's name and colors.
func (s *ColorSchemeStore) Update(id int64, name string, colors []models.ColorEntry) (*models.ColorScheme, error) {
	payload, err := json.Marshal(colors)
	if err != nil {
		return nil, fmt.Errorf("encode scheme colors: %w", err)
	}

	row := s.db.QueryRow(`
		UPDATE color_schemes SET name = $1, colors = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+schemeColumns,
		name, payload, id,
	)
	c, err := scanScheme(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("color scheme not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update color scheme: %w", err)
	}
	return c, nil
}

// Delete removes a color scheme. Callers must clear any theme pointer at
// the scheme before calling, so no render ever sees a dangling selection.
func (s *ColorSchemeStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM color_schemes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete color scheme: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("color scheme not found")
	}
	return nil
}
