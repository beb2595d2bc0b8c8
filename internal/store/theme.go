// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"themesandbox/internal/models"
)

// themeKeyLength is the byte length of the random theme key (16 bytes = 32 hex chars).
const themeKeyLength = 16

// themeColumns lists the columns selected in theme queries.
const themeColumns = `id, key, user_id, name, color_scheme_id, user_selectable, created_at, updated_at`

// ThemeStore handles all theme database operations.
type ThemeStore struct {
	db *sql.DB
}

// NewThemeStore creates a new ThemeStore.
func NewThemeStore(db *sql.DB) *ThemeStore {
	return &ThemeStore{db: db}
}

// scanTheme scans a theme row from the result set.
func scanTheme(scanner interface{ Scan(...any) error }) (*models.Theme, error) {
	var t models.Theme
	err := scanner.Scan(
		&t.ID, &t.Key, &t.UserID, &t.Name, &t.ColorSchemeID,
		&t.UserSelectable, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByID retrieves a theme by its numeric id. Returns nil if not found.
func (s *ThemeStore) FindByID(id int64) (*models.Theme, error) {
	row := s.db.QueryRow(`SELECT `+themeColumns+` FROM themes WHERE id = $1`, id)
	t, err := scanTheme(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find theme by id: %w", err)
	}
	return t, nil
}

// FindByKey retrieves a theme by its opaque external key. Returns nil if not found.
func (s *ThemeStore) FindByKey(key string) (*models.Theme, error) {
	row := s.db.QueryRow(`SELECT `+themeColumns+` FROM themes WHERE key = $1`, key)
	t, err := scanTheme(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find theme by key: %w", err)
	}
	return t, nil
}

// ListByUser returns the user's themes ordered by name.
func (s *ThemeStore) ListByUser(userID uuid.UUID) ([]models.Theme, error) {
	rows, err := s.db.Query(`SELECT `+themeColumns+` FROM themes WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()

	var items []models.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// Create inserts a new theme owned by userID with a freshly generated key.
func (s *ThemeStore) Create(userID uuid.UUID, name string) (*models.Theme, error) {
	key, err := generateThemeKey()
	if err != nil {
		return nil, fmt.Errorf("generate theme key: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO themes (key, user_id, name)
		VALUES ($1, $2, $3)
		RETURNING `+themeColumns,
		key, userID, name,
	)
	t, err := scanTheme(row)
	if err != nil {
		return nil, fmt.Errorf("create theme: %w", err)
	}
	return t, nil
}

// UpdateName renames a theme.
func (s *ThemeStore) UpdateName(id int64, name string) error {
	result, err := s.db.Exec(`
		UPDATE themes SET name = $1, updated_at = NOW() WHERE id = $2
	`, name, id)
	if err != nil {
		return fmt.Errorf("update theme name: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("theme not found")
	}
	return nil
}

// SetColorScheme points the theme at a color scheme, or clears the pointer
// when schemeID is nil. Ownership of the scheme is the caller's check.
func (s *ThemeStore) SetColorScheme(id int64, schemeID *int64) error {
	result, err := s.db.Exec(`
		UPDATE themes SET color_scheme_id = $1, updated_at = NOW() WHERE id = $2
	`, schemeID, id)
	if err != nil {
		return fmt.Errorf("set theme color scheme: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("theme not found")
	}
	return nil
}

// RotateKey replaces the theme's external key, revoking every URL and
// pending handoff that referenced the old one. Returns the new key.
func (s *ThemeStore) RotateKey(id int64) (string, error) {
	key, err := generateThemeKey()
	if err != nil {
		return "", fmt.Errorf("generate theme key: %w", err)
	}

	result, err := s.db.Exec(`
		UPDATE themes SET key = $1, updated_at = NOW() WHERE id = $2
	`, key, id)
	if err != nil {
		return "", fmt.Errorf("rotate theme key: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return "", fmt.Errorf("theme not found")
	}
	return key, nil
}

// Delete removes a theme. Attached color schemes go with it via the
// foreign key cascade.
func (s *ThemeStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM themes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete theme: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("theme not found")
	}
	return nil
}

// generateThemeKey creates a cryptographically random opaque theme key.
func generateThemeKey() (string, error) {
	b := make([]byte, themeKeyLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
