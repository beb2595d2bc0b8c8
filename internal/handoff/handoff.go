// Package handoff carries the theme-to-activate across the final redirect
// into the sandbox render. Each value is a write-once/read-once slot keyed
// by the responding session id: Take deletes on read, and a short TTL
// guarantees an unread value never resurfaces in a later render.
package handoff

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces handoff slots in Valkey.
const keyPrefix = "theme_handoff:"

// Store manages one-shot handoff slots in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a handoff store. ttl bounds how long an unread slot
// survives; it only needs to cover one redirect-then-render cycle.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Set writes the theme key into the session's slot, replacing any unread
// value.
func (s *Store) Set(ctx context.Context, sessionID, themeKey string) error {
	if err := s.client.Set(ctx, keyPrefix+sessionID, themeKey, s.ttl).Err(); err != nil {
		return fmt.Errorf("handoff set: %w", err)
	}
	return nil
}

// Take reads and clears the session's slot. The second return is false when
// the slot is empty — including when it was already taken, which is the
// read-once guarantee.
func (s *Store) Take(ctx context.Context, sessionID string) (string, bool) {
	val, err := s.client.GetDel(ctx, keyPrefix+sessionID).Result()
	if err != nil {
		// redis.Nil (empty slot) and transport errors both mean no handoff;
		// the render falls back to the default theme either way.
		return "", false
	}
	return val, true
}
