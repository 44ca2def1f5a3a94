package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/tunogya/hcpart/pkg/model"
)

// StoredResult is one persisted clustering run
type StoredResult struct {
	ResultID  string
	Params    string
	Partition model.Partition
	Stats     model.Stats
}

// ResultRepo persists clustering results: statistics, segments and the
// merge error trace of every run
type ResultRepo struct {
	client *Client
}

// NewResultRepo creates a new result repository
func NewResultRepo(client *Client) *ResultRepo {
	return &ResultRepo{client: client}
}

// Save stores one result in a transaction, replacing an earlier run with the
// same ID
func (r *ResultRepo) Save(ctx context.Context, resultID, params string, res *model.ClusteringResult) error {
	return r.SaveBatch(ctx, []string{resultID}, params, []*model.ClusteringResult{res})
}

// SaveBatch stores results in one transaction; ids[i] names results[i]
func (r *ResultRepo) SaveBatch(ctx context.Context, ids []string, params string, results []*model.ClusteringResult) error {
	if len(ids) != len(results) {
		return fmt.Errorf("got %d ids for %d results", len(ids), len(results))
	}

	tx, err := r.client.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO profile_stats (
			result_id, profile_name, method, params, num_timesteps, num_clusters,
			compression_ratio, total_error, runtime_sec, uniform_error
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (result_id) DO UPDATE SET
			num_clusters = EXCLUDED.num_clusters,
			compression_ratio = EXCLUDED.compression_ratio,
			total_error = EXCLUDED.total_error,
			runtime_sec = EXCLUDED.runtime_sec,
			uniform_error = EXCLUDED.uniform_error
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer statsStmt.Close()

	segStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO partitions (result_id, segment_idx, start_step, end_step, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer segStmt.Close()

	errStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO merge_errors (result_id, merge_idx, cost, cumulative, ldc_rmse)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer errStmt.Close()

	for i, res := range results {
		id := ids[i]
		s := res.Stats
		if _, err := statsStmt.ExecContext(ctx,
			id, s.ProfileName, s.Method, params, s.NumTimesteps, s.NumClusters,
			s.CompressionRatio, s.TotalError, s.RuntimeSec, s.UniformError,
		); err != nil {
			return fmt.Errorf("failed to insert stats: %w", err)
		}

		if err := deleteTrace(ctx, tx, id); err != nil {
			return err
		}
		for j, seg := range res.Partition {
			if _, err := segStmt.ExecContext(ctx, id, j, seg.Start, seg.End, seg.Value); err != nil {
				return fmt.Errorf("failed to insert segment: %w", err)
			}
		}

		cumulative := floats.CumSum(make([]float64, len(res.MergeErrors)), res.MergeErrors)
		for j, cost := range res.MergeErrors {
			var ldc any
			if j < len(s.CurveErrors) {
				ldc = s.CurveErrors[j]
			}
			if _, err := errStmt.ExecContext(ctx, id, j+1, cost, cumulative[j], ldc); err != nil {
				return fmt.Errorf("failed to insert merge error: %w", err)
			}
		}
	}

	return tx.Commit()
}

func deleteTrace(ctx context.Context, tx *sql.Tx, id string) error {
	for _, table := range []string{"partitions", "merge_errors"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE result_id = ?", table), id); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Get retrieves one stored result by ID
func (r *ResultRepo) Get(ctx context.Context, resultID string) (*StoredResult, error) {
	out := &StoredResult{ResultID: resultID}
	s := &out.Stats
	var params sql.NullString
	err := r.client.QueryRow(ctx, `
		SELECT profile_name, method, params, num_timesteps, num_clusters,
			   compression_ratio, total_error, runtime_sec, uniform_error
		FROM profile_stats
		WHERE result_id = ?
	`, resultID).Scan(&s.ProfileName, &s.Method, &params, &s.NumTimesteps, &s.NumClusters,
		&s.CompressionRatio, &s.TotalError, &s.RuntimeSec, &s.UniformError)
	if err != nil {
		return nil, fmt.Errorf("failed to get result %s: %w", resultID, err)
	}
	out.Params = params.String

	if out.Partition, err = r.partition(ctx, resultID); err != nil {
		return nil, err
	}
	if s.MergeErrors, s.CurveErrors, err = r.mergeErrors(ctx, resultID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ResultRepo) partition(ctx context.Context, resultID string) (model.Partition, error) {
	rows, err := r.client.Query(ctx, `
		SELECT start_step, end_step, value FROM partitions
		WHERE result_id = ?
		ORDER BY segment_idx
	`, resultID)
	if err != nil {
		return nil, fmt.Errorf("failed to query partition: %w", err)
	}
	defer rows.Close()

	var p model.Partition
	for rows.Next() {
		var seg model.Segment
		if err := rows.Scan(&seg.Start, &seg.End, &seg.Value); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		p = append(p, seg)
	}
	return p, rows.Err()
}

// mergeErrors returns the merge costs and, when they were recorded, the load
// duration curve errors of a result
func (r *ResultRepo) mergeErrors(ctx context.Context, resultID string) ([]float64, []float64, error) {
	rows, err := r.client.Query(ctx, `
		SELECT cost, ldc_rmse FROM merge_errors
		WHERE result_id = ?
		ORDER BY merge_idx
	`, resultID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query merge errors: %w", err)
	}
	defer rows.Close()

	var costs, curve []float64
	for rows.Next() {
		var c float64
		var ldc sql.NullFloat64
		if err := rows.Scan(&c, &ldc); err != nil {
			return nil, nil, fmt.Errorf("failed to scan merge error: %w", err)
		}
		costs = append(costs, c)
		if ldc.Valid {
			curve = append(curve, ldc.Float64)
		}
	}
	return costs, curve, rows.Err()
}

// StatsByMethod lists the statistics of every run of a method, ordered by
// profile name
func (r *ResultRepo) StatsByMethod(ctx context.Context, method string) ([]model.Stats, error) {
	rows, err := r.client.Query(ctx, `
		SELECT profile_name, method, num_timesteps, num_clusters,
			   compression_ratio, total_error, runtime_sec, uniform_error
		FROM profile_stats
		WHERE method = ?
		ORDER BY profile_name, num_clusters
	`, method)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var stats []model.Stats
	for rows.Next() {
		var s model.Stats
		if err := rows.Scan(&s.ProfileName, &s.Method, &s.NumTimesteps, &s.NumClusters,
			&s.CompressionRatio, &s.TotalError, &s.RuntimeSec, &s.UniformError); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Count returns the number of stored results
func (r *ResultRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.client.QueryRow(ctx, `SELECT COUNT(*) FROM profile_stats`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}
