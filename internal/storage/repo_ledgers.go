package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lachiem1/rentdesk/internal/matrix"
	"github.com/shopspring/decimal"
)

// LedgersRepo caches each renter's payment matrix and totals so the last
// known state can be shown before the page is fetched again.
type LedgersRepo struct {
	db *sql.DB
}

func NewLedgersRepo(db *sql.DB) *LedgersRepo {
	return &LedgersRepo{db: db}
}

// Save replaces the cached ledger of one renter.
func (r *LedgersRepo) Save(ctx context.Context, renterID string, m *matrix.Matrix, totals matrix.Totals, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger transaction for %q: %w", renterID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM matrix_cells WHERE renter_id = ?`, renterID); err != nil {
		return fmt.Errorf("clear matrix cells for %q: %w", renterID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO matrix_cells (renter_id, year, month, paid) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare matrix cell insert: %w", err)
	}
	defer stmt.Close()

	var cellErr error
	m.Each(func(p matrix.Period, paid bool) {
		if cellErr != nil {
			return
		}
		if _, execErr := stmt.ExecContext(ctx, renterID, p.Year, int(p.Month), boolToInt(paid)); execErr != nil {
			cellErr = fmt.Errorf("insert matrix cell %s for %q: %w", p, renterID, execErr)
		}
	})
	if cellErr != nil {
		err = cellErr
		return err
	}

	const upsertTotals = `
INSERT INTO renter_totals (renter_id, total_paid, expected_total, expected_unpaid, balance, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(renter_id) DO UPDATE SET
	total_paid = excluded.total_paid,
	expected_total = excluded.expected_total,
	expected_unpaid = excluded.expected_unpaid,
	balance = excluded.balance,
	updated_at = excluded.updated_at
`
	if _, err = tx.ExecContext(
		ctx,
		upsertTotals,
		renterID,
		decimalValue(totals.TotalPaid),
		decimalValue(totals.ExpectedTotal),
		decimalValue(totals.ExpectedUnpaid),
		decimalValue(totals.Balance),
		at.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("upsert totals for %q: %w", renterID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger transaction for %q: %w", renterID, err)
	}
	return nil
}

// Load returns the cached ledger of one renter. ok is false when nothing
// is cached.
func (r *LedgersRepo) Load(ctx context.Context, renterID string) (*matrix.Matrix, matrix.Totals, bool, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT year, month, paid FROM matrix_cells
WHERE renter_id = ?
ORDER BY year, month`, renterID)
	if err != nil {
		return nil, matrix.Totals{}, false, fmt.Errorf("query matrix cells for %q: %w", renterID, err)
	}
	defer rows.Close()

	m := matrix.New()
	cells := 0
	for rows.Next() {
		var year, month, paid int
		if err := rows.Scan(&year, &month, &paid); err != nil {
			return nil, matrix.Totals{}, false, fmt.Errorf("scan matrix cell for %q: %w", renterID, err)
		}
		m.Set(matrix.Period{Year: year, Month: time.Month(month)}, paid == 1)
		cells++
	}
	if err := rows.Err(); err != nil {
		return nil, matrix.Totals{}, false, fmt.Errorf("read matrix cells for %q: %w", renterID, err)
	}

	var totals matrix.Totals
	var paid, expected, unpaid, balance sql.NullString
	err = r.db.QueryRowContext(ctx, `
SELECT total_paid, expected_total, expected_unpaid, balance
FROM renter_totals WHERE renter_id = ?`, renterID).Scan(&paid, &expected, &unpaid, &balance)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if cells == 0 {
			return nil, matrix.Totals{}, false, nil
		}
	case err != nil:
		return nil, matrix.Totals{}, false, fmt.Errorf("query totals for %q: %w", renterID, err)
	default:
		totals = matrix.Totals{
			TotalPaid:      parseDecimal(paid),
			ExpectedTotal:  parseDecimal(expected),
			ExpectedUnpaid: parseDecimal(unpaid),
			Balance:        parseDecimal(balance),
		}
	}
	return m, totals, true, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func decimalValue(v *decimal.Decimal) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func parseDecimal(v sql.NullString) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil
	}
	return &d
}
