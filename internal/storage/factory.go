package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fidde/tagstats/internal/storage/clickhouse"
	"github.com/fidde/tagstats/internal/storage/sqlite"
)

// ErrNoBackend is returned by NewReader when no store is configured.
var ErrNoBackend = errors.New("no run store configured (use sqlite or clickhouse)")

// Config holds storage configuration.
type Config struct {
	// Backend selects the store: "none", "sqlite" or "clickhouse"
	Backend string

	// SQLite-specific config
	SQLitePath string

	// ClickHouse-specific config
	ClickHouseAddr string
}

// store is implemented by every real backend.
type store interface {
	Exporter
	Reader
}

var (
	_ store = (*sqlite.Store)(nil)
	_ store = (*clickhouse.Store)(nil)
)

// NewExporter creates an exporter based on configuration.
// Backend "none" returns an exporter that discards runs.
func NewExporter(ctx context.Context, cfg Config, logger *slog.Logger) (Exporter, error) {
	if cfg.Backend == "" || cfg.Backend == "none" {
		return nopExporter{}, nil
	}
	return open(ctx, cfg, logger)
}

// NewReader opens the configured store for reading.
func NewReader(ctx context.Context, cfg Config, logger *slog.Logger) (Reader, error) {
	if cfg.Backend == "" || cfg.Backend == "none" {
		return nil, ErrNoBackend
	}
	return open(ctx, cfg, logger)
}

func open(ctx context.Context, cfg Config, logger *slog.Logger) (store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case "sqlite":
		logger.Info("using SQLite run store", "path", cfg.SQLitePath)
		s, err := sqlite.New(sqlite.DefaultConfig(cfg.SQLitePath))
		if err != nil {
			return nil, fmt.Errorf("creating SQLite store: %w", err)
		}
		return s, nil

	case "clickhouse":
		logger.Info("using ClickHouse run store", "addr", cfg.ClickHouseAddr)
		chCfg := clickhouse.DefaultConfig()
		chCfg.Addr = cfg.ClickHouseAddr

		s, err := clickhouse.NewStore(ctx, chCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("creating ClickHouse store: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: none, sqlite, clickhouse)", cfg.Backend)
	}
}
