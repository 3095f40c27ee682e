// Package sqlite provides a SQLite-backed store of analysis runs.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/fidde/tagstats/pkg/models"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.up.sql
var migrationSQL string

// Store is a SQLite-backed store of analysis runs.
type Store struct {
	db *sql.DB
}

// Config holds SQLite store configuration.
type Config struct {
	DBPath string
}

// DefaultConfig returns default SQLite configuration.
func DefaultConfig(dbPath string) Config {
	return Config{DBPath: dbPath}
}

// New opens (or creates) the database and applies the schema.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if _, err := db.Exec(migrationSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes a run and all of its tag rows in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *models.Run) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if err := models.ValidateRunID(run.ID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, project_name, no_filter_marker, data_path)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Created.UnixNano(), run.ProjectName, run.NoFilterMarker, run.DataPath)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	tagStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tag_counts (run_id, category, position, tag, count)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing tag insert: %w", err)
	}
	defer tagStmt.Close()

	for _, cat := range run.Categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_sources (run_id, category, path, distinct_tags, total_count)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, cat.Category, cat.Path, len(cat.Tags), cat.Total())
		if err != nil {
			return fmt.Errorf("inserting %s source: %w", cat.Category, err)
		}

		for i, tc := range cat.Tags {
			if _, err := tagStmt.ExecContext(ctx, run.ID, cat.Category, i, tc.Tag, tc.Count); err != nil {
				return fmt.Errorf("inserting %s tag %q: %w", cat.Category, tc.Tag, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// LoadRun reads a run back with its tags in table order.
func (s *Store) LoadRun(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	var created int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, project_name, no_filter_marker, data_path
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &created, &run.ProjectName, &run.NoFilterMarker, &run.DataPath)

	if err == sql.ErrNoRows {
		return nil, models.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	run.Created = time.Unix(0, created).UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, path FROM run_sources WHERE run_id = ? ORDER BY rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying run sources: %w", err)
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
		tags, err := s.loadTags(ctx, id, run.Categories[i].Category)
		if err != nil {
			return nil, err
		}
		run.Categories[i].Tags = tags
	}

	return &run, nil
}

func (s *Store) loadTags(ctx context.Context, runID, category string) ([]models.TagCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag, count FROM tag_counts
		WHERE run_id = ? AND category = ?
		ORDER BY position
	`, runID, category)
	if err != nil {
		return nil, fmt.Errorf("querying %s tags: %w", category, err)
	}
	defer rows.Close()

	var tags []models.TagCount
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tc)
	}

	return tags, rows.Err()
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]models.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.project_name, s.category, s.distinct_tags, s.total_count
		FROM runs r
		LEFT JOIN run_sources s ON s.run_id = r.id
		ORDER BY r.created_at DESC, r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunSummary
	for rows.Next() {
		var (
			id, project string
			created     int64
			category    sql.NullString
			distinct    sql.NullInt64
			total       sql.NullInt64
		)
		if err := rows.Scan(&id, &created, &project, &category, &distinct, &total); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		if len(runs) == 0 || runs[len(runs)-1].ID != id {
			runs = append(runs, models.RunSummary{
				ID:          id,
				Created:     time.Unix(0, created).UTC(),
				ProjectName: project,
				Distinct:    make(map[string]int),
				Totals:      make(map[string]int64),
			})
		}
		if category.Valid {
			last := &runs[len(runs)-1]
			last.Distinct[category.String] = int(distinct.Int64)
			last.Totals[category.String] = total.Int64
		}
	}

	return runs, rows.Err()
}
