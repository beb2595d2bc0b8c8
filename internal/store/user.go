// Package store provides database access methods for all application
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"themesandbox/internal/models"
)

// userColumns lists the columns selected in user queries.
const userColumns = `id, email, password_hash, display_name, role, anonymous, shadow_of, totp_secret, totp_enabled, created_at, updated_at`

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// scanUser scans a user row from the result set.
func scanUser(scanner interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := scanner.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role,
		&u.Anonymous, &u.ShadowOf, &u.TOTPSecret, &u.TOTPEnabled,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByEmail retrieves a user by their email address. Returns nil if not found.
func (s *UserStore) FindByEmail(email string) (*models.User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(id uuid.UUID) (*models.User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// Create inserts a new real user with a bcrypt-hashed password.
func (s *UserStore) Create(email, password, displayName string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		email, string(hash), displayName, role,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// CreateShadow inserts a disposable anonymous user spawned by realUserID.
// Shadow users have an empty password hash, which makes credential login
// impossible, and carry the spawning user's id for audit only.
func (s *UserStore) CreateShadow(email, displayName string, realUserID uuid.UUID) (*models.User, error) {
	row := s.db.QueryRow(`
		INSERT INTO users (email, password_hash, display_name, role, anonymous, shadow_of)
		VALUES ($1, '', $2, $3, TRUE, $4)
		RETURNING `+userColumns,
		email, displayName, models.RoleMember, realUserID,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("create shadow user: %w", err)
	}
	return u, nil
}

// CheckPassword verifies a password against the stored bcrypt hash.
// Always false for shadow users: their hash is empty and bcrypt rejects it.
func (s *UserStore) CheckPassword(u *models.User, password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetTOTPSecret stores a newly generated TOTP secret for the user.
func (s *UserStore) SetTOTPSecret(id uuid.UUID, secret string) error {
	_, err := s.db.Exec(`
		UPDATE users SET totp_secret = $1, updated_at = NOW() WHERE id = $2
	`, secret, id)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks the user's 2FA enrollment as complete.
func (s *UserStore) EnableTOTP(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// InAnyGroup reports whether the user belongs to at least one of the named
// groups. An empty name list is always false.
func (s *UserStore) InAnyGroup(userID uuid.UUID, names []string) (bool, error) {
	if len(names) == 0 {
		return false, nil
	}
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM group_users gu
			JOIN groups g ON g.id = gu.group_id
			WHERE gu.user_id = $1 AND g.name = ANY($2)
		)
	`, userID, names).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}
	return exists, nil
}
