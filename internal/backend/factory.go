package backend

import (
	"fmt"
	"log/slog"

	"github.com/jithinsajeev21/Smartspend/internal/storage"
	"github.com/jithinsajeev21/Smartspend/internal/store"
	"github.com/jithinsajeev21/Smartspend/internal/store/snapshot"
)

// Result bundles a constructed repository with its cleanup hook. Cleanup is
// never nil and must be called exactly once on shutdown.
type Result struct {
	Repo    store.Repository
	Cleanup func()
}

// Factory builds storage backends from configuration.
type Factory struct {
	logger *slog.Logger
}

// NewFactory returns a factory that logs through the given logger, or the
// default logger when nil.
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the backend named by cfg.Type.
func (f *Factory) Create(cfg Config) (*Result, error) {
	switch cfg.Type {
	case TypeSnapshot:
		return f.createSnapshot(cfg)
	case TypeSQLite:
		return f.createSQLite(cfg)
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}
}

func (f *Factory) createSnapshot(cfg Config) (*Result, error) {
	if cfg.SnapshotDir == "" {
		return nil, fmt.Errorf("snapshot backend requires a data directory")
	}
	repo := snapshot.New(cfg.SnapshotDir)
	f.logger.Info("Snapshot backend ready", "dir", cfg.SnapshotDir)
	return &Result{
		Repo: repo,
		Cleanup: func() {
			if err := repo.Close(); err != nil {
				f.logger.Error("Closing snapshot store", "error", err)
			}
		},
	}, nil
}

func (f *Factory) createSQLite(cfg Config) (*Result, error) {
	if cfg.SQLiteDBPath == "" {
		return nil, fmt.Errorf("sqlite backend requires a database path")
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	f.logger.Info("SQLite backend ready", "path", cfg.SQLiteDBPath)
	return &Result{
		Repo: repo,
		Cleanup: func() {
			if err := repo.Close(); err != nil {
				f.logger.Error("Closing sqlite database", "error", err)
			}
		},
	}, nil
}
