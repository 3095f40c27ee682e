// Package storage defines where analysis runs are recorded.
package storage

import (
	"context"

	"github.com/fidde/tagstats/pkg/models"
)

// Exporter records analysis runs.
// Implementations must be safe for concurrent use.
type Exporter interface {
	// SaveRun stores a complete run. A failed save stores nothing.
	SaveRun(ctx context.Context, run *models.Run) error

	// Close the exporter (for cleanup, e.g., DB connections)
	Close() error
}

// Reader reads recorded runs back.
type Reader interface {
	// ListRuns returns a summary of every run, newest first.
	ListRuns(ctx context.Context) ([]models.RunSummary, error)

	// LoadRun returns models.ErrRunNotFound for an unknown id.
	LoadRun(ctx context.Context, id string) (*models.Run, error)

	Close() error
}

// nopExporter discards every run.
type nopExporter struct{}

func (nopExporter) SaveRun(context.Context, *models.Run) error { return nil }
func (nopExporter) Close() error                               { return nil }
