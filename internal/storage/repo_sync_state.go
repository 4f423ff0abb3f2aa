package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SyncState is the bookkeeping of one cached collection.
type SyncState struct {
	Collection  string
	LastAttempt *time.Time
	LastSuccess *time.Time
	// LastError is empty unless the latest attempt failed.
	LastError string
	SyncCounts
}

// SyncCounts is what the last successful sync stored.
type SyncCounts struct {
	Renters int
	Ledgers int
}

// Stale reports whether the collection has no successful sync newer than ttl.
func (s SyncState) Stale(now time.Time, ttl time.Duration) bool {
	return s.LastSuccess == nil || now.Sub(*s.LastSuccess) > ttl
}

func (s SyncState) Failed() bool {
	return s.LastError != ""
}

type SyncStateRepo struct {
	db *sql.DB
}

func NewSyncStateRepo(db *sql.DB) *SyncStateRepo {
	return &SyncStateRepo{db: db}
}

func (r *SyncStateRepo) Get(ctx context.Context, collection string) (SyncState, bool, error) {
	var (
		state                    SyncState
		attempt, success, errMsg sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
SELECT collection, last_attempt_at, last_success_at, last_error, renter_count, ledger_count
FROM sync_state WHERE collection = ?`, collection).
		Scan(&state.Collection, &attempt, &success, &errMsg, &state.Renters, &state.Ledgers)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncState{}, false, nil
	}
	if err != nil {
		return SyncState{}, false, fmt.Errorf("query sync state for %q: %w", collection, err)
	}

	if state.LastAttempt, err = parseStamp(attempt); err != nil {
		return SyncState{}, false, fmt.Errorf("sync state %q: last_attempt_at: %w", collection, err)
	}
	if state.LastSuccess, err = parseStamp(success); err != nil {
		return SyncState{}, false, fmt.Errorf("sync state %q: last_success_at: %w", collection, err)
	}
	state.LastError = errMsg.String
	return state, true, nil
}

// Begin marks the start of an attempt and clears the previous error.
func (r *SyncStateRepo) Begin(ctx context.Context, collection string, at time.Time) error {
	return r.exec(ctx, collection, `
INSERT INTO sync_state (collection, last_attempt_at, last_error) VALUES (?, ?, NULL)
ON CONFLICT(collection) DO UPDATE SET
  last_attempt_at = excluded.last_attempt_at,
  last_error = NULL`,
		collection, stamp(at))
}

// Succeed records a finished sync and what it stored.
func (r *SyncStateRepo) Succeed(ctx context.Context, collection string, at time.Time, counts SyncCounts) error {
	return r.exec(ctx, collection, `
INSERT INTO sync_state (collection, last_attempt_at, last_success_at, last_error, renter_count, ledger_count)
VALUES (?, ?, ?, NULL, ?, ?)
ON CONFLICT(collection) DO UPDATE SET
  last_success_at = excluded.last_success_at,
  last_error = NULL,
  renter_count = excluded.renter_count,
  ledger_count = excluded.ledger_count`,
		collection, stamp(at), stamp(at), counts.Renters, counts.Ledgers)
}

// Fail records why the latest attempt failed. The last success and its
// counts are kept, since the cache still holds that data.
func (r *SyncStateRepo) Fail(ctx context.Context, collection string, at time.Time, syncErr error) error {
	msg := "unknown error"
	if syncErr != nil {
		msg = syncErr.Error()
	}
	return r.exec(ctx, collection, `
INSERT INTO sync_state (collection, last_attempt_at, last_error) VALUES (?, ?, ?)
ON CONFLICT(collection) DO UPDATE SET
  last_attempt_at = excluded.last_attempt_at,
  last_error = excluded.last_error`,
		collection, stamp(at), msg)
}

func (r *SyncStateRepo) exec(ctx context.Context, collection, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update sync state for %q: %w", collection, err)
	}
	return nil
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseStamp(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
