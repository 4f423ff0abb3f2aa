package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type Renter struct {
	ID   string
	Name string
}

type RentersRepo struct {
	db *sql.DB
}

func NewRentersRepo(db *sql.DB) *RentersRepo {
	return &RentersRepo{db: db}
}

func (r *RentersRepo) HasActiveRenters(ctx context.Context) (bool, error) {
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM renters WHERE is_active = 1 LIMIT 1)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active renters: %w", err)
	}
	return exists == 1, nil
}

// List returns active renters in the order the floors page lists them.
func (r *RentersRepo) List(ctx context.Context) ([]Renter, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name FROM renters
WHERE is_active = 1
ORDER BY display_order, name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list renters: %w", err)
	}
	defer rows.Close()

	var out []Renter
	for rows.Next() {
		var renter Renter
		if err := rows.Scan(&renter.ID, &renter.Name); err != nil {
			return nil, fmt.Errorf("scan renter: %w", err)
		}
		out = append(out, renter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read renter rows: %w", err)
	}
	return out, nil
}

// ReplaceSnapshot makes renters the active set, in the given order.
// Renters missing from the snapshot are deactivated, not deleted, so their
// cached ledgers survive a renter being hidden from the floors page.
func (r *RentersRepo) ReplaceSnapshot(ctx context.Context, renters []Renter, fetchedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin renters snapshot transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	fetchedValue := fetchedAt.UTC().Format(time.RFC3339Nano)
	const upsert = `
INSERT INTO renters (id, name, last_fetched_at, is_active, display_order)
VALUES (?, ?, ?, 1, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	last_fetched_at = excluded.last_fetched_at,
	is_active = 1,
	display_order = excluded.display_order
`
	for i, renter := range renters {
		if _, err = tx.ExecContext(
			ctx,
			upsert,
			renter.ID,
			normalizeRenterName(renter.Name, renter.ID),
			fetchedValue,
			i,
		); err != nil {
			return fmt.Errorf("upsert renter %q: %w", renter.ID, err)
		}
	}

	if err = deactivateMissingRenters(ctx, tx, renters); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit renters snapshot transaction: %w", err)
	}
	return nil
}

func deactivateMissingRenters(ctx context.Context, tx *sql.Tx, renters []Renter) error {
	if len(renters) == 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE renters SET is_active = 0`); err != nil {
			return fmt.Errorf("deactivate all renters: %w", err)
		}
		return nil
	}

	placeholders := make([]string, len(renters))
	args := make([]any, len(renters))
	for i, renter := range renters {
		placeholders[i] = "?"
		args[i] = renter.ID
	}

	q := fmt.Sprintf(
		"UPDATE renters SET is_active = 0 WHERE id NOT IN (%s)",
		strings.Join(placeholders, ","),
	)
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("deactivate missing renters: %w", err)
	}
	return nil
}
