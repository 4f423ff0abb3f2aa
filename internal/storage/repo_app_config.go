package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Keys stored in app_config.
const (
	ConfigLastUsername = "last_username"
	ConfigLastRenter   = "last_renter_id"
)

// AppConfigRepo keeps client preferences that outlive a session, such as
// the username to prefill and the renter viewed last.
type AppConfigRepo struct {
	db *sql.DB
}

func NewAppConfigRepo(db *sql.DB) *AppConfigRepo {
	return &AppConfigRepo{db: db}
}

func (r *AppConfigRepo) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("read preference %q: %w", key, err)
	}
	return value, true, nil
}

func (r *AppConfigRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO app_config (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, stamp(time.Now()))
	if err != nil {
		return fmt.Errorf("save preference %q: %w", key, err)
	}
	return nil
}

// Delete removes keys; missing keys are ignored.
func (r *AppConfigRepo) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM app_config WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete preference %q: %w", key, err)
		}
	}
	return nil
}
