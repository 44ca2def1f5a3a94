package duckdb

import (
	"context"
	"fmt"

	"github.com/tunogya/hcpart/pkg/model"
)

// ProfileRepo handles input profile persistence
type ProfileRepo struct {
	client *Client
}

// NewProfileRepo creates a new profile repository
func NewProfileRepo(client *Client) *ProfileRepo {
	return &ProfileRepo{client: client}
}

// InsertBatch stores profiles in a transaction; time steps are 1-based
func (r *ProfileRepo) InsertBatch(ctx context.Context, profiles []model.Profile) error {
	tx, err := r.client.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO profiles (profile_name, time_step, value)
		VALUES (?, ?, ?)
		ON CONFLICT (profile_name, time_step) DO UPDATE SET
			value = EXCLUDED.value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range profiles {
		for i, v := range p.Values {
			if _, err := stmt.ExecContext(ctx, p.Name, i+1, v); err != nil {
				return fmt.Errorf("failed to insert profile %s: %w", p.Name, err)
			}
		}
	}

	return tx.Commit()
}

// Get retrieves one profile with its values ordered by time step
func (r *ProfileRepo) Get(ctx context.Context, name string) (model.Profile, error) {
	rows, err := r.client.Query(ctx, `
		SELECT value FROM profiles
		WHERE profile_name = ?
		ORDER BY time_step
	`, name)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to query profile: %w", err)
	}
	defer rows.Close()

	p := model.Profile{Name: name}
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return model.Profile{}, fmt.Errorf("failed to scan value: %w", err)
		}
		p.Values = append(p.Values, v)
	}
	if err := rows.Err(); err != nil {
		return model.Profile{}, err
	}
	if len(p.Values) == 0 {
		return model.Profile{}, fmt.Errorf("profile %s not found", name)
	}
	return p, nil
}

// Names lists the stored profile names in order
func (r *ProfileRepo) Names(ctx context.Context) ([]string, error) {
	rows, err := r.client.Query(ctx, `SELECT DISTINCT profile_name FROM profiles ORDER BY profile_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan profile name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LoadProfiles implements data.ProfileProvider over the stored profiles
func (r *ProfileRepo) LoadProfiles(ctx context.Context) ([]model.Profile, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]model.Profile, 0, len(names))
	for _, name := range names {
		p, err := r.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Count returns the number of stored values of a profile
func (r *ProfileRepo) Count(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.client.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE profile_name = ?`, name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profile values: %w", err)
	}
	return count, nil
}
