// Package backend selects and constructs the storage backend at startup.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/ledger"
	"tally/internal/memory"
	"tally/internal/postgres"
	"tally/internal/storage"
)

// Store bundles the two contracts every backend offers.
type Store interface {
	ledger.RecordStore
	ledger.UserStore
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result carries the constructed store and its cleanup, if any.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Type names a storage backend.
type Type string

const (
	Memory   Type = "memory"
	SQLite   Type = "sqlite"
	Postgres Type = "postgres"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Postgres:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{Memory, SQLite, Postgres}
}

// Config holds what each backend needs to come up.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresURL string
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case SQLite:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLITE_DB_PATH is required for the sqlite backend")
		}
	case Postgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for the postgres backend")
		}
	}
	return nil
}

// Factory constructs stores from a Config.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case Memory:
		f.logger.Info("initialized memory backend")
		return &Result{Store: memory.New()}, nil

	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		f.logger.Info("initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	case Postgres:
		repo, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres backend: %w", err)
		}
		f.logger.Info("initialized postgres backend")
		return &Result{Store: repo, Cleanup: func() error {
			repo.Close()
			return nil
		}}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
