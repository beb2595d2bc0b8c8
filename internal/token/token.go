// Package token issues and consumes the single-use sandbox entry tokens.
// A token binds an opaque random string to a shadow user id in Valkey with
// a short TTL. Consumption is a Valkey GETDEL, so exactly one of any number
// of concurrent consumers wins; everyone else sees the same uniform
// ErrInvalidToken that malformed, expired, and unknown tokens get.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix namespaces token records in Valkey.
	keyPrefix = "sandbox_token:"

	// tokenLength is the byte length of the random token (32 bytes = 64 hex chars).
	tokenLength = 32
)

// ErrInvalidToken is the single failure value for every way a token can be
// bad. Callers must not learn whether a token was malformed, already
// consumed, expired, or never issued.
var ErrInvalidToken = errors.New("invalid sandbox token")

// Service manages single-use sandbox entry tokens in Valkey.
type Service struct {
	client *redis.Client
	ttl    time.Duration
}

// NewService creates a token service. ttl bounds how long an unconsumed
// token stays redeemable.
func NewService(client *redis.Client, ttl time.Duration) *Service {
	return &Service{client: client, ttl: ttl}
}

// Issue mints a token bound to the given shadow user id.
func (s *Service) Issue(ctx context.Context, shadowID uuid.UUID) (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token issue: %w", err)
	}
	tok := hex.EncodeToString(b)

	if err := s.client.Set(ctx, keyPrefix+tok, shadowID.String(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("token store: %w", err)
	}
	return tok, nil
}

// Consume redeems a token exactly once, returning the bound shadow user id.
// The format check runs before any store round-trip so malformed input is
// rejected cheaply.
func (s *Service) Consume(ctx context.Context, tok string) (uuid.UUID, error) {
	if !ValidFormat(tok) {
		return uuid.Nil, ErrInvalidToken
	}

	// GETDEL is atomic: concurrent consumers of the same token get exactly
	// one winner.
	val, err := s.client.GetDel(ctx, keyPrefix+tok).Result()
	if err == redis.Nil {
		return uuid.Nil, ErrInvalidToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("token consume: %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// ValidFormat reports whether tok looks like an issued token: exactly
// tokenLength bytes of lowercase hex.
func ValidFormat(tok string) bool {
	if len(tok) != tokenLength*2 {
		return false
	}
	for _, c := range tok {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
