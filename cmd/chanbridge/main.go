package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chanbridge/internal/bridgestore"
	"chanbridge/internal/config"
	"chanbridge/internal/constants"
	"chanbridge/internal/database"
	"chanbridge/internal/metrics"
	"chanbridge/internal/service"
	"chanbridge/internal/tracing"
	"chanbridge/internal/versioning"
	"chanbridge/pkg/discord"
	"chanbridge/pkg/discord/types"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("chanbridge %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting chanbridge")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	tracingManager := tracing.NewManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	store, err := bridgestore.New(cfg.BridgeDir)
	if err != nil {
		return fmt.Errorf("failed to initialize bridge store: %w", err)
	}

	client, err := discord.NewClient(cfg.Discord.Token, logger)
	if err != nil {
		return fmt.Errorf("failed to create discord client: %w", err)
	}

	stats := metrics.NewRegistry()
	provisioner := service.NewProvisioner(client, logger)
	registry := service.NewRegistry(store, client, provisioner, logger)
	relay := service.NewRelay(client, registry, provisioner, cfg.Discord.CommandPrefix, stats, logger)
	vault := service.NewRoleVault(db, client, logger)
	admin := service.NewAdmin(registry, client, cfg.Discord.OwnerID, logger)

	// Handlers must be registered before the gateway opens so no early
	// event slips through unobserved.
	client.OnMessageCreate(relay.HandleMessageCreate)
	client.OnMessageUpdate(relay.HandleMessageUpdate)
	client.OnMessageDelete(relay.HandleMessageDelete)
	client.OnMemberAdd(vault.HandleMemberAdd)
	client.OnMemberRemove(vault.HandleMemberRemove)

	if err := client.Open(); err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warnf("Failed to close discord session: %v", err)
		}
	}()

	if err := registry.Load(ctx); err != nil {
		return err
	}

	if err := client.RegisterCommands(admin); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	if cfg.Discord.Activity != "" {
		err := client.UpdatePresence(types.PresenceUpdate{
			ActivityType: "Custom",
			Text:         cfg.Discord.Activity,
		})
		if err != nil {
			logger.Warnf("Failed to set startup activity: %v", err)
		}
	}

	server := NewServer(registry, stats, versioning.NewInfo(Version, GitCommit, BuildTime), logger)
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logger.Info("chanbridge is ready")

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultGracefulShutdownSec*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("Failed to shut down server cleanly: %v", err)
	}
	return nil
}
