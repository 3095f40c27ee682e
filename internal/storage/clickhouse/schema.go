package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const schemaVersion = "1.0.0"

const runsTableDDL = `
	CREATE TABLE IF NOT EXISTS tagstats_runs (
		run_id String,
		created_at DateTime64(3),
		project_name LowCardinality(String),
		no_filter_marker LowCardinality(String),
		data_path String
	) ENGINE = MergeTree()
	ORDER BY (created_at, run_id)
`

const sourcesTableDDL = `
	CREATE TABLE IF NOT EXISTS tagstats_sources (
		run_id String,
		category LowCardinality(String),
		path String,
		distinct_tags UInt64,
		total_count Int64
	) ENGINE = MergeTree()
	ORDER BY (run_id, category)
`

const tagCountsTableDDL = `
	CREATE TABLE IF NOT EXISTS tagstats_tag_counts (
		run_id String,
		category LowCardinality(String),
		position UInt32,
		tag String,
		count Int64
	) ENGINE = MergeTree()
	ORDER BY (run_id, category, position)
`

// InitializeSchema creates all required tables if they don't exist
func InitializeSchema(ctx context.Context, conn driver.Conn) error {
	if err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tagstats_schema_version (
			version String,
			applied_at DateTime64(3) DEFAULT now64(3)
		) ENGINE = MergeTree()
		ORDER BY applied_at
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	currentVersion, err := getCurrentSchemaVersion(ctx, conn)
	if err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}
	if currentVersion != "" && currentVersion != schemaVersion {
		return fmt.Errorf("schema version mismatch: database has %s, code expects %s", currentVersion, schemaVersion)
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"tagstats_runs", runsTableDDL},
		{"tagstats_sources", sourcesTableDDL},
		{"tagstats_tag_counts", tagCountsTableDDL},
	}

	for _, table := range tables {
		if err := conn.Exec(ctx, table.ddl); err != nil {
			return fmt.Errorf("creating table %s: %w", table.name, err)
		}
	}

	if currentVersion == "" {
		if err := conn.Exec(ctx, "INSERT INTO tagstats_schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("setting schema version: %w", err)
		}
	}

	return nil
}

func getCurrentSchemaVersion(ctx context.Context, conn driver.Conn) (string, error) {
	var version string
	err := conn.QueryRow(ctx, "SELECT version FROM tagstats_schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	return version, nil
}
