package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fidde/tagstats/pkg/models"
)

func TestNewExporterNone(t *testing.T) {
	for _, backend := range []string{"", "none"} {
		exp, err := NewExporter(context.Background(), Config{Backend: backend}, nil)
		if err != nil {
			t.Fatalf("NewExporter(%q) error = %v", backend, err)
		}
		if err := exp.SaveRun(context.Background(), &models.Run{}); err != nil {
			t.Errorf("nop SaveRun() error = %v", err)
		}
		if err := exp.Close(); err != nil {
			t.Errorf("nop Close() error = %v", err)
		}
	}
}

func TestSQLiteExportThenRead(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "runs.db")}

	exp, err := NewExporter(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	run := &models.Run{
		ID:          models.NewRunID(),
		Created:     time.Now(),
		ProjectName: "p",
		Categories:  []models.CategoryResult{{Category: "fail", Tags: []models.TagCount{{Tag: "x", Count: 3}}}},
	}
	if err := exp.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Fatal(err)
	}

	reader, err := NewReader(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer reader.Close()

	runs, err := reader.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID || runs[0].Totals["fail"] != 3 {
		t.Errorf("ListRuns() = %+v", runs)
	}

	got, err := reader.LoadRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}
	if fail := got.Category("fail"); fail == nil || len(fail.Tags) != 1 {
		t.Errorf("fail category = %+v", fail)
	}
}

func TestNewReaderNone(t *testing.T) {
	if _, err := NewReader(context.Background(), Config{Backend: "none"}, nil); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend, got %v", err)
	}
}

func TestNewExporterUnknown(t *testing.T) {
	if _, err := NewExporter(context.Background(), Config{Backend: "postgres"}, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
