// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// PluginStore is a generic namespaced key-value side store. Capabilities
// bolted onto pre-existing entities (like a theme's shared flag) live here
// instead of growing columns on the owning table.
//
// Reads are never cached: the shared flag feeds capability decisions, and
// a stale read there is a security defect, not a performance win.
type PluginStore struct {
	db        *sql.DB
	namespace string
}

// NewPluginStore returns a PluginStore scoped to the given namespace.
func NewPluginStore(db *sql.DB, namespace string) *PluginStore {
	return &PluginStore{db: db, namespace: namespace}
}

// Get returns the raw value for key, or the empty string if absent.
func (s *PluginStore) Get(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`
		SELECT value FROM plugin_store WHERE namespace = $1 AND key = $2
	`, s.namespace, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("plugin store get: %w", err)
	}
	return val, nil
}

// Set upserts a value under key.
func (s *PluginStore) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO plugin_store (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		s.namespace, key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("plugin store set: %w", err)
	}
	return nil
}

// Delete removes a key. Missing keys are not an error.
func (s *PluginStore) Delete(key string) error {
	_, err := s.db.Exec(`
		DELETE FROM plugin_store WHERE namespace = $1 AND key = $2
	`, s.namespace, key)
	if err != nil {
		return fmt.Errorf("plugin store delete: %w", err)
	}
	return nil
}

// GetBool returns the value for key parsed as a boolean. Absent or
// unparseable values are false.
func (s *PluginStore) GetBool(key string) (bool, error) {
	val, err := s.Get(key)
	if err != nil {
		return false, err
	}
	b, _ := strconv.ParseBool(val)
	return b, nil
}

// SetBool stores a boolean value under key.
func (s *PluginStore) SetBool(key string, value bool) error {
	return s.Set(key, strconv.FormatBool(value))
}
