package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data.
// It creates a default admin user and the built-in default color scheme if
// the database is empty. The admin will be prompted to set up 2FA on first
// login (totp_enabled = false).
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// Hash the default admin password.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// Insert default admin user. 2FA is not enabled — they must set it up
	// on first login.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, "admin@themesandbox.local", string(hash), "Admin", "admin", false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	// The built-in default color scheme is attached to no theme. Schemes
	// created for user themes are copied from it.
	_, err = db.Exec(`
		INSERT INTO color_schemes (theme_id, name, colors)
		VALUES (NULL, 'Default', $1)
	`, `[{"name":"primary","hex":"222222"},{"name":"secondary","hex":"ffffff"},{"name":"tertiary","hex":"0088cc"},{"name":"highlight","hex":"ffff4d"}]`)
	if err != nil {
		return fmt.Errorf("seed insert default color scheme: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@themesandbox.local",
		"password", "admin",
	)

	return nil
}
