package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dori/swimlane/internal/board"
	"github.com/dori/swimlane/internal/config"
	"github.com/dori/swimlane/internal/db"
	"github.com/dori/swimlane/internal/model"
	"github.com/dori/swimlane/internal/notify"
	"github.com/dori/swimlane/internal/remote"
	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyRunning is returned when another process holds the data dir lock
var ErrAlreadyRunning = errors.New("another instance of swimlane is already running")

// Client is everything the UI needs from a task store
type Client interface {
	board.TaskClient
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateTask(ctx context.Context, projectID string, t model.NewTask) (*model.Task, error)
}

var (
	_ Client = (*db.DB)(nil)
	_ Client = (*remote.Client)(nil)
)

// App holds the application state and dependencies
type App struct {
	Config   *config.Config
	Client   Client
	DB       *db.DB // nil unless the sqlite backend is in use
	Notifier *notify.Notifier
	Log      logrus.FieldLogger
	DataDir  string

	lockFile    *flock.Flock
	closeClient func() error
}

// New opens the configured backend. The sqlite backend takes an exclusive
// lock on the data directory first.
func New(cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	app := &App{
		Config:   cfg,
		DataDir:  cfg.DataDir,
		Notifier: notify.NewNotifier(cfg.Notify, log),
		Log:      log,
	}

	if cfg.Backend != config.BackendHTTP {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		if err := app.acquireLock(); err != nil {
			return nil, err
		}
	}

	client, closeClient, err := OpenClient(cfg, log)
	if err != nil {
		app.releaseLock()
		return nil, err
	}
	app.Client = client
	app.closeClient = closeClient
	if database, ok := client.(*db.DB); ok {
		app.DB = database
	}

	return app, nil
}

// OpenClient opens the configured backend without taking the instance lock.
// One-shot commands use it so they work while the board is open.
func OpenClient(cfg *config.Config, log logrus.FieldLogger) (Client, func() error, error) {
	if cfg.Backend == config.BackendHTTP {
		client, err := remote.New(remote.Config{
			BaseURL: cfg.API.BaseURL,
			Token:   cfg.API.Token,
			Timeout: cfg.API.Timeout,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("base_url", cfg.API.BaseURL).Debug("using http backend")
		return client, func() error { return nil }, nil
	}

	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	log.WithField("path", cfg.DBPath()).Debug("using sqlite backend")
	return database, database.Close, nil
}

// NewBoard creates a board over the app's client
func (a *App) NewBoard() *board.Board {
	return board.New(a.Client,
		board.WithNotifier(a.Notifier),
		board.WithLogger(a.Log),
	)
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, "swimlane.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.closeClient != nil {
		if err := a.closeClient(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close backend: %w", err))
		}
	}

	a.releaseLock()

	return errors.Join(errs...)
}
