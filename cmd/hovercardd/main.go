// Package main is the entry point for the hovercardd placement service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jmylchreest/hovercard/internal/card"
	"github.com/jmylchreest/hovercard/internal/config"
	"github.com/jmylchreest/hovercard/internal/dbus"
	"github.com/jmylchreest/hovercard/internal/httpapi"
)

const (
	startAttempts = 10
	startDelay    = 500 * time.Millisecond
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/hovercard/config.toml)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("hovercardd version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, *configPath, logger)
	stop()
	if err != nil {
		logger.Error("hovercardd failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	logger.Info("starting hovercardd", "version", version)

	if configPath == "" {
		configPath = config.ConfigPath()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts, err := cfg.Placement.Options()
	if err != nil {
		return fmt.Errorf("invalid placement config: %w", err)
	}

	catalog := card.NewCatalog(cfg.CardsDir(), logger)
	if err := catalog.Load(); err != nil {
		return fmt.Errorf("failed to load cards: %w", err)
	}
	logger.Info("card catalog loaded", "count", catalog.Len(), "dir", cfg.CardsDir())

	server := dbus.NewPlacementServer(dbus.ServerOptions{
		BusName: cfg.DBus.BusName,
		Cards:   catalog,
		Options: opts,
		Logger:  logger,
	})
	// The session bus may come up after us at login, and a previous instance
	// may still hold the name while it shuts down.
	err = retry.Do(
		server.Start,
		retry.Context(ctx),
		retry.Attempts(startAttempts),
		retry.Delay(startDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("D-Bus server not ready, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to start D-Bus server: %w", err)
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Warn("error stopping D-Bus server", "error", err)
		}
	}()

	watcher, err := config.NewWatcher(configPath, func(newCfg *config.Config) {
		applyConfig(newCfg, cfg, server, catalog, logger)
	}, logger)
	if err != nil {
		logger.Warn("failed to create config watcher", "error", err)
	} else if err := watcher.Start(); err != nil {
		logger.Warn("config hot reload disabled", "error", err)
		if err := watcher.Stop(); err != nil {
			logger.Warn("error stopping config watcher", "error", err)
		}
	} else {
		defer func() {
			if err := watcher.Stop(); err != nil {
				logger.Warn("error stopping config watcher", "error", err)
			}
		}()
	}

	httpErr := make(chan error, 1)
	if cfg.HTTP.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.HTTP.Listen,
			Handler:           httpapi.NewHandler(catalog, server, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErr <- fmt.Errorf("http api: %w", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error stopping http api", "error", err)
			}
		}()
		logger.Info("http api listening", "addr", cfg.HTTP.Listen)
	}

	logger.Info("hovercardd ready", "bus_name", cfg.DBus.BusName)

	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
		return nil
	case err := <-httpErr:
		return err
	}
}

// applyConfig pushes a reloaded config into the running service.
// The bus name, http listener and cards directory only change on restart.
func applyConfig(newCfg, current *config.Config, server *dbus.PlacementServer, catalog *card.Catalog, logger *slog.Logger) {
	opts, err := newCfg.Placement.Options()
	if err != nil {
		logger.Warn("ignoring reloaded placement config", "error", err)
		return
	}
	server.SetOptions(opts)

	if newCfg.DBus.BusName != current.DBus.BusName {
		logger.Warn("bus_name change requires a restart", "current", current.DBus.BusName, "configured", newCfg.DBus.BusName)
	}
	if newCfg.HTTP.Listen != current.HTTP.Listen {
		logger.Warn("http listen change requires a restart", "current", current.HTTP.Listen, "configured", newCfg.HTTP.Listen)
	}
	if newCfg.CardsDir() != current.CardsDir() {
		logger.Warn("cards dir change requires a restart", "current", current.CardsDir(), "configured", newCfg.CardsDir())
	}

	if err := catalog.Load(); err != nil {
		logger.Warn("failed to reload cards", "error", err)
	}

	logger.Info("configuration reloaded", "gap", opts.Gap, "margin", opts.Margin, "cards", catalog.Len())
}
