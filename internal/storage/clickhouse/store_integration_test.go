//go:build integration

package clickhouse

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/fidde/tagstats/pkg/models"
)

// TestClickHouseIntegration round-trips a run through a live server.
// Run with: go test -tags=integration ./internal/storage/clickhouse -v
func TestClickHouseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	config := DefaultConfig()
	config.MaxRetries = 1
	if addr := os.Getenv("TAGSTATS_CLICKHOUSE_ADDR"); addr != "" {
		config.Addr = addr
	}

	store, err := NewStore(ctx, config, logger)
	if err != nil {
		t.Skipf("ClickHouse not available: %v", err)
	}
	defer store.Close()

	run := &models.Run{
		ID:             models.NewRunID(),
		Created:        time.Now().UTC().Truncate(time.Millisecond),
		ProjectName:    "10p7reads",
		NoFilterMarker: "NOCORRECTIONs",
		DataPath:       "/data",
		Categories: []models.CategoryResult{
			{Category: "fail", Path: "/data/a.fail.log", Tags: []models.TagCount{{"z", 1}, {"y", 9}}},
			{Category: "success", Path: "/data/a.success.log", Tags: []models.TagCount{{"x", 4}}},
		},
	}

	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := store.LoadRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}
	fail := got.Category("fail")
	if fail == nil || len(fail.Tags) != 2 || fail.Tags[0].Tag != "z" {
		t.Errorf("fail category = %+v", fail)
	}

	if _, err := store.LoadRun(ctx, models.NewRunID()); !errors.Is(err, models.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}
