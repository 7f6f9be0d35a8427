package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nativeways/pathways/internal/admin"
	"github.com/nativeways/pathways/internal/advisor"
	"github.com/nativeways/pathways/internal/config"
	guideapi "github.com/nativeways/pathways/internal/guides"
	"github.com/nativeways/pathways/internal/listing"
	"github.com/nativeways/pathways/internal/llm/ollama"
	"github.com/nativeways/pathways/internal/server"
	"github.com/nativeways/pathways/internal/services"
	"github.com/nativeways/pathways/internal/store"
	"github.com/nativeways/pathways/internal/version"
	"github.com/nativeways/pathways/pkg/guides"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Pathways server starting", zap.String("version", version.Short()))

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// Open store and apply migrations
	db, err := store.New(cfg.GetString("store.path"))
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Migrate(ctx, store.Migrations); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	listings := services.NewSQLiteListingRepository(db.DB())
	users := services.NewSQLiteUserRepository(db.DB())

	if err := bootstrapAdmin(ctx, cfg, users, logger); err != nil {
		logger.Fatal("failed to bootstrap admin user", zap.Error(err))
	}

	// Listing engine and search resolver
	pageSize := cfg.GetInt("listing.page_size")
	engine := listing.NewEngine(listings, logger)
	resolver := listing.NewResolver(listings, logger)

	// Admin auth
	secret := cfg.GetString("auth.secret")
	if secret == "" {
		// Ephemeral secret: admin sessions won't survive a restart.
		secret = uuid.New().String()
		logger.Warn("auth.secret not configured, using an ephemeral signing key")
	}
	issuer := admin.NewTokenIssuer([]byte(secret), cfg.GetDuration("auth.token_ttl"))

	registrars := []server.RouteRegistrar{
		listing.NewHandler(engine, resolver, pageSize, logger),
		guideapi.NewHandler(guides.NewLibrary(), logger),
		admin.NewHandler(listings, users, issuer, logger),
	}

	// Advisor is optional: it needs a reachable LLM server.
	if cfg.GetBool("llm.enabled") {
		client := ollama.New(
			cfg.GetString("llm.base_url"),
			cfg.GetString("llm.model"),
			cfg.GetDuration("llm.timeout"),
		)

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx)
		pingCancel()
		if err != nil {
			logger.Warn("LLM server unreachable, advisor disabled", zap.Error(err))
		} else {
			adv := advisor.New(client, engine, resolver, pageSize, logger)
			registrars = append(registrars,
				advisor.NewHandler(adv, cfg.GetInt("advisor.rate_limit_per_minute"), logger))
			logger.Info("advisor enabled", zap.String("model", cfg.GetString("llm.model")))
		}
	}

	// Create and start HTTP server
	addr := cfg.GetString("server.host") + ":" + cfg.GetString("server.port")
	srv := server.New(addr, logger, registrars...)

	// Start server in background
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("Pathways server ready", zap.String("addr", addr))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("Pathways server stopped")
}

// bootstrapAdmin creates the first admin account when the user table is
// empty and a bootstrap password is configured.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, users services.UserRepository, logger *zap.Logger) error {
	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := cfg.GetString("auth.bootstrap_password")
	if password == "" {
		logger.Warn("no admin users exist and auth.bootstrap_password is unset, admin API is unusable")
		return nil
	}

	hash, err := services.HashPassword(password)
	if err != nil {
		return err
	}
	user := &services.User{Username: "admin", PasswordHash: hash}
	if err := users.Create(ctx, user); err != nil {
		return err
	}
	logger.Info("bootstrapped initial admin user", zap.String("username", user.Username))
	return nil
}
