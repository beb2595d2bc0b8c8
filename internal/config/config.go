// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Domain separation. The trusted base URL is where real users live;
	// the sandbox host only ever serves ephemeral preview identities.
	TrustedBaseURL string
	SandboxBaseURL string

	// PreviewDestinationPath is where hotlink previews land on the trusted
	// host (e.g. "/styleguide/" when a styleguide is deployed).
	PreviewDestinationPath string

	// ShareGroups is the pipe-separated allow-list of group names whose
	// members may share their themes. Empty means everyone may share.
	ShareGroups []string

	// SandboxTokenTTL bounds how long an unconsumed sandbox entry token
	// stays valid. Tokens are single-use regardless.
	SandboxTokenTTL time.Duration

	// HandoffTTL bounds how long an unread preview handoff survives.
	HandoffTTL time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "themesandbox"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "themesandbox"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		TrustedBaseURL: envOrDefault("TRUSTED_BASE_URL", "http://localhost:8080"),
		SandboxBaseURL: envOrDefault("SANDBOX_BASE_URL", "http://sandbox.localhost:8080"),

		PreviewDestinationPath: envOrDefault("PREVIEW_DESTINATION_PATH", "/"),

		ShareGroups: splitGroups(os.Getenv("THEME_SHARE_GROUPS")),
	}

	var err error
	cfg.SandboxTokenTTL, err = time.ParseDuration(envOrDefault("SANDBOX_TOKEN_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SANDBOX_TOKEN_TTL: %w", err)
	}
	cfg.HandoffTTL, err = time.ParseDuration(envOrDefault("HANDOFF_TTL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid HANDOFF_TTL: %w", err)
	}

	if cfg.TrustedHost() == "" || cfg.SandboxHost() == "" {
		return nil, fmt.Errorf("TRUSTED_BASE_URL and SANDBOX_BASE_URL must be absolute URLs")
	}
	if cfg.TrustedHost() == cfg.SandboxHost() {
		return nil, fmt.Errorf("trusted and sandbox hosts must differ (%s)", cfg.TrustedHost())
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// TrustedHost returns the host:port component of the trusted base URL,
// as it appears in the Host header of incoming requests.
func (c *Config) TrustedHost() string {
	return hostOf(c.TrustedBaseURL)
}

// SandboxHost returns the host:port component of the sandbox base URL.
func (c *Config) SandboxHost() string {
	return hostOf(c.SandboxBaseURL)
}

// hostOf extracts host:port from an absolute URL, or "" if unparseable.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// splitGroups parses the pipe-separated group allow-list, dropping empties.
func splitGroups(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var groups []string
	for _, g := range strings.Split(raw, "|") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
