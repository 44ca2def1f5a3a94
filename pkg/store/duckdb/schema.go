package duckdb

import (
	"context"
	"fmt"
)

// CreateProfilesTable creates the input profile table, one row per value
const CreateProfilesTable = `
CREATE TABLE IF NOT EXISTS profiles (
    profile_name VARCHAR NOT NULL,
    time_step INTEGER NOT NULL,
    value DOUBLE NOT NULL,
    PRIMARY KEY (profile_name, time_step)
);
`

// CreateProfileStatsTable creates the per-run statistics table
const CreateProfileStatsTable = `
CREATE TABLE IF NOT EXISTS profile_stats (
    result_id VARCHAR PRIMARY KEY,
    profile_name VARCHAR NOT NULL,
    method VARCHAR NOT NULL,
    params VARCHAR,
    num_timesteps INTEGER NOT NULL,
    num_clusters INTEGER NOT NULL,
    compression_ratio DOUBLE,
    total_error DOUBLE,
    runtime_sec DOUBLE,
    uniform_error DOUBLE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// CreatePartitionsTable creates the segment table of every result. Rows are
// replaced per result_id, so the table carries no key.
const CreatePartitionsTable = `
CREATE TABLE IF NOT EXISTS partitions (
    result_id VARCHAR NOT NULL,
    segment_idx INTEGER NOT NULL,
    start_step INTEGER NOT NULL,
    end_step INTEGER NOT NULL,
    value DOUBLE
);
`

// CreateMergeErrorsTable creates the merge error trace of every result
const CreateMergeErrorsTable = `
CREATE TABLE IF NOT EXISTS merge_errors (
    result_id VARCHAR NOT NULL,
    merge_idx INTEGER NOT NULL,
    cost DOUBLE NOT NULL,
    cumulative DOUBLE NOT NULL,
    ldc_rmse DOUBLE
);
`

// InitializeSchema creates all required tables
func InitializeSchema(ctx context.Context, c *Client) error {
	schemas := []string{
		CreateProfilesTable,
		CreateProfileStatsTable,
		CreatePartitionsTable,
		CreateMergeErrorsTable,
	}

	for _, schema := range schemas {
		if err := c.Exec(ctx, schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// DropAllTables drops all tables (use with caution)
func DropAllTables(ctx context.Context, c *Client) error {
	tables := []string{"merge_errors", "partitions", "profile_stats", "profiles"}
	for _, table := range tables {
		if err := c.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
