// Package main is the entry point for the theme sandbox server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"themesandbox/internal/cache"
	"themesandbox/internal/config"
	"themesandbox/internal/database"
	"themesandbox/internal/guardian"
	"themesandbox/internal/handlers"
	"themesandbox/internal/handoff"
	"themesandbox/internal/middleware"
	"themesandbox/internal/router"
	"themesandbox/internal/session"
	"themesandbox/internal/shadow"
	"themesandbox/internal/store"
	"themesandbox/internal/token"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Local development convenience; a missing .env file is not an error.
	_ = godotenv.Load()

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"trusted_host", cfg.TrustedHost(),
		"sandbox_host", cfg.SandboxHost(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible store for sessions, tokens,
	// and handoff slots).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark session cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	themeStore := store.NewThemeStore(db)
	schemeStore := store.NewColorSchemeStore(db)
	pluginStore := store.NewPluginStore(db, store.PluginNamespace)
	sharedFlags := store.NewSharedFlagStore(pluginStore)

	// Capability guardian over the stores.
	guard := guardian.New(sharedFlags, userStore, themeStore, cfg.ShareGroups)

	// Ephemeral identity machinery.
	shadows := shadow.NewProvisioner(userStore, cfg.SandboxHost())
	tokens := token.NewService(valkeyClient, cfg.SandboxTokenTTL)
	handoffStore := handoff.NewStore(valkeyClient, cfg.HandoffTTL)

	// Create handler groups with their dependencies.
	themeHandlers := handlers.NewThemes(themeStore, schemeStore, sharedFlags, guard, shadows, tokens, cfg.SandboxBaseURL, cfg.PreviewDestinationPath)
	sandboxHandlers := handlers.NewSandbox(tokens, userStore, themeStore, guard, sessionStore, handoffStore, cfg.SandboxHost())
	authHandlers := handlers.NewAuth(sessionStore, userStore)
	publicHandlers := handlers.NewPublic(themeStore, guard, handoffStore, cfg.SandboxHost())

	// Identity resolution: sessions scoped to the host they arrived on.
	identity := middleware.NewDomainScopedResolver(sessionStore, cfg.SandboxHost())

	// Set up the Chi router with all middleware and routes.
	r := router.New(identity, cfg.SandboxHost(), cfg.TrustedBaseURL, themeHandlers, sandboxHandlers, authHandlers, publicHandlers)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
