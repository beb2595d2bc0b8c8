// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"themesandbox/internal/database"
	"themesandbox/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "themesandbox")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "themesandbox")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by email. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// cleanThemes removes test themes by name. Call in t.Cleanup().
func cleanThemes(t *testing.T, db *sql.DB, names ...string) {
	t.Helper()
	for _, name := range names {
		db.Exec("DELETE FROM themes WHERE name = $1", name)
	}
}

// cleanPluginRows removes plugin store rows by key. Call in t.Cleanup().
func cleanPluginRows(t *testing.T, db *sql.DB, keys ...string) {
	t.Helper()
	for _, key := range keys {
		db.Exec("DELETE FROM plugin_store WHERE namespace = $1 AND key = $2", PluginNamespace, key)
	}
}

// makeUser creates a throwaway user and registers cleanup.
func makeUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()
	users := NewUserStore(db)
	u, err := users.Create(email, "test-password-1234", "Test User", models.RoleMember)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM users WHERE shadow_of = $1", u.ID)
		cleanUsers(t, db, email)
	})
	return u
}

// ensureDefaultScheme makes sure the unattached default color scheme
// exists, inserting one (with cleanup) when the database was never seeded.
func ensureDefaultScheme(t *testing.T, db *sql.DB) {
	t.Helper()
	schemes := NewColorSchemeStore(db)
	if def, err := schemes.FindDefault(); err == nil && def != nil {
		return
	}
	var id int64
	err := db.QueryRow(`
		INSERT INTO color_schemes (theme_id, name, colors)
		VALUES (NULL, 'Default', '[{"name":"primary","hex":"222222"}]')
		RETURNING id
	`).Scan(&id)
	if err != nil {
		t.Fatalf("insert default scheme: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM color_schemes WHERE id = $1", id) })
}

// makeTheme creates a throwaway theme and registers cleanup.
func makeTheme(t *testing.T, db *sql.DB, userID uuid.UUID, name string) *models.Theme {
	t.Helper()
	themes := NewThemeStore(db)
	theme, err := themes.Create(userID, name)
	if err != nil {
		t.Fatalf("create theme: %v", err)
	}
	t.Cleanup(func() { cleanThemes(t, db, name) })
	return theme
}
