// Package clickhouse records analysis runs in ClickHouse.
package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/fidde/tagstats/pkg/models"
)

// Store writes runs to ClickHouse using one batch per table.
type Store struct {
	conn      driver.Conn
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewStore connects and initializes the schema.
func NewStore(ctx context.Context, config *ConnectionConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := Connect(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connecting to ClickHouse: %w", err)
	}

	if err := InitializeSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{conn: conn, logger: logger}, nil
}

// SaveRun appends the run, its sources and its tag counts.
func (s *Store) SaveRun(ctx context.Context, run *models.Run) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if err := models.ValidateRunID(run.ID); err != nil {
		return err
	}

	if err := s.conn.Exec(ctx, `
		INSERT INTO tagstats_runs (run_id, created_at, project_name, no_filter_marker, data_path)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Created, run.ProjectName, run.NoFilterMarker, run.DataPath); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	sources, err := s.conn.PrepareBatch(ctx, "INSERT INTO tagstats_sources")
	if err != nil {
		return fmt.Errorf("preparing sources batch: %w", err)
	}
	for _, cat := range run.Categories {
		if err := sources.Append(run.ID, cat.Category, cat.Path, uint64(len(cat.Tags)), cat.Total()); err != nil {
			sources.Abort()
			return fmt.Errorf("appending %s source: %w", cat.Category, err)
		}
	}
	if err := sources.Send(); err != nil {
		return fmt.Errorf("sending sources batch: %w", err)
	}

	rows := 0
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO tagstats_tag_counts")
	if err != nil {
		return fmt.Errorf("preparing tag batch: %w", err)
	}
	for _, cat := range run.Categories {
		for i, tc := range cat.Tags {
			if err := batch.Append(run.ID, cat.Category, uint32(i), tc.Tag, int64(tc.Count)); err != nil {
				batch.Abort()
				return fmt.Errorf("appending %s tag %q: %w", cat.Category, tc.Tag, err)
			}
			rows++
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("sending tag batch: %w", err)
	}

	s.logger.Debug("saved run", "run_id", run.ID, "tag_rows", rows)
	return nil
}

// LoadRun reads a run back with its tags in table order.
func (s *Store) LoadRun(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	err := s.conn.QueryRow(ctx, `
		SELECT run_id, created_at, project_name, no_filter_marker, data_path
		FROM tagstats_runs WHERE run_id = ? LIMIT 1
	`, id).Scan(&run.ID, &run.Created, &run.ProjectName, &run.NoFilterMarker, &run.DataPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT category, path FROM tagstats_sources WHERE run_id = ? ORDER BY category
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cat models.CategoryResult
		if err := rows.Scan(&cat.Category, &cat.Path); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		run.Categories = append(run.Categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range run.Categories {
		tagRows, err := s.conn.Query(ctx, `
			SELECT tag, count FROM tagstats_tag_counts
			WHERE run_id = ? AND category = ?
			ORDER BY position
		`, id, run.Categories[i].Category)
		if err != nil {
			return nil, fmt.Errorf("querying tags: %w", err)
		}
		for tagRows.Next() {
			var (
				tag   string
				count int64
			)
			if err := tagRows.Scan(&tag, &count); err != nil {
				tagRows.Close()
				return nil, fmt.Errorf("scanning tag: %w", err)
			}
			run.Categories[i].Tags = append(run.Categories[i].Tags, models.TagCount{Tag: tag, Count: int(count)})
		}
		err = tagRows.Err()
		tagRows.Close()
		if err != nil {
			return nil, err
		}
	}

	return &run, nil
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]models.RunSummary, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT r.run_id, r.created_at, r.project_name, s.category, s.distinct_tags, s.total_count
		FROM tagstats_runs AS r
		LEFT JOIN tagstats_sources AS s ON s.run_id = r.run_id
		ORDER BY r.created_at DESC, r.run_id
		SETTINGS join_use_nulls = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunSummary
	for rows.Next() {
		var (
			id, project string
			created     time.Time
			category    *string
			distinct    *uint64
			total       *int64
		)
		if err := rows.Scan(&id, &created, &project, &category, &distinct, &total); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		if len(runs) == 0 || runs[len(runs)-1].ID != id {
			runs = append(runs, models.RunSummary{
				ID:          id,
				Created:     created.UTC(),
				ProjectName: project,
				Distinct:    make(map[string]int),
				Totals:      make(map[string]int64),
			})
		}
		if category != nil && distinct != nil && total != nil {
			last := &runs[len(runs)-1]
			last.Distinct[*category] = int(*distinct)
			last.Totals[*category] = *total
		}
	}

	return runs, rows.Err()
}

// Close closes the connection.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}
