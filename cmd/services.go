package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/xvierd/tally/internal/adapters/notification"
	"github.com/xvierd/tally/internal/adapters/storage"
	"github.com/xvierd/tally/internal/config"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/logging"
	"github.com/xvierd/tally/internal/ports"
	"github.com/xvierd/tally/internal/services"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	storage    ports.Storage
	tracker    *services.Tracker
	notifier   *notification.Notifier
	config     *config.Config
	configPath string
	logger     *slog.Logger
	logCloser  io.Closer
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// initializeServices sets up all the required services and adapters.
func initializeServices() error {
	var err error
	app.configPath = configPath
	if app.configPath == "" {
		if app.configPath, err = config.GetConfigPath(); err != nil {
			return err
		}
	}

	// Load configuration; a broken file falls back to defaults
	cfgErr := config.LoadDotEnv(".env")
	if cfgErr == nil {
		app.config, cfgErr = config.LoadFrom(app.configPath)
	}
	if cfgErr != nil {
		app.config = config.DefaultConfig()
		if app.config.Storage.DataDir, err = filepath.Abs(filepath.Dir(app.configPath)); err != nil {
			return err
		}
	}

	app.logger, app.logCloser, err = logging.Open(app.config, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if cfgErr != nil {
		app.logger.Warn("using default configuration", "path", app.configPath, "error", cfgErr)
	}

	app.notifier = notification.New(&app.config.Notifications)

	// Determine database path
	path := dbPath
	if path == "" {
		path = config.GetDBPath(app.config)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	app.storage, err = storage.New(path, storage.WithLogger(app.logger))
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	settings, err := reportSettings(app.config.Reports)
	if err != nil {
		return err
	}
	app.tracker = services.NewTracker(app.storage)
	app.tracker.SetLogger(app.logger)
	app.tracker.SetNotifier(app.notifier)
	app.tracker.SetReportSettings(settings)

	return nil
}

// reportSettings converts the reports section into service settings.
func reportSettings(cfg config.ReportsConfig) (services.ReportSettings, error) {
	loc, err := cfg.Location()
	if err != nil {
		return services.ReportSettings{}, err
	}
	mode, err := domain.ParseIdleMode(cfg.IdleMode)
	if err != nil {
		return services.ReportSettings{}, err
	}
	return services.ReportSettings{
		Location:        loc,
		IdleMode:        mode,
		WorkStart:       cfg.WorkStart,
		WorkEnd:         cfg.WorkEnd,
		IdleGraceMin:    cfg.IdleGraceMin,
		DefaultPageSize: cfg.DefaultPageSize,
	}, nil
}

// cleanupServices closes all resources.
func cleanupServices() error {
	var errs []error
	if app.storage != nil {
		errs = append(errs, app.storage.Close())
		app.storage = nil
	}
	if app.logCloser != nil {
		errs = append(errs, app.logCloser.Close())
		app.logCloser = nil
	}
	return errors.Join(errs...)
}

// setupSignalHandler sets up a context that cancels on interrupt signals.
func setupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// userError keeps domain messages and hides storage causes, which are
// already logged.
func userError(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return errors.New(domain.UserMessage(err))
	}
	return err
}
