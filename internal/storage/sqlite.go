package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Mode string

const (
	// ModePlain is an unencrypted database file.
	ModePlain Mode = "plain"
	// ModeSecure is a sqlcipher database keyed from the system keyring.
	ModeSecure Mode = "secure"
)

const schemaVersion = 4

type Config struct {
	Mode Mode
	Path string
}

// KeyStore holds the key of a secure database.
type KeyStore interface {
	LoadDBKey() (string, error)
	SaveDBKey(key string) error
}

// ResolveConfig picks the database path and mode. Empty arguments fall back
// to RENTDESK_DB_PATH / RENTDESK_DB_MODE, then to a file under the user
// config directory in the most secure mode this build supports.
func ResolveConfig(path string, mode string) (Config, error) {
	cfg := Config{
		Path: strings.TrimSpace(path),
		Mode: Mode(strings.ToLower(strings.TrimSpace(mode))),
	}
	if cfg.Path == "" {
		cfg.Path = strings.TrimSpace(os.Getenv("RENTDESK_DB_PATH"))
	}
	if cfg.Mode == "" {
		cfg.Mode = Mode(strings.ToLower(strings.TrimSpace(os.Getenv("RENTDESK_DB_MODE"))))
	}

	if cfg.Path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve user config directory: %w", err)
		}
		cfg.Path = filepath.Join(configDir, "rentdesk", "rentdesk.db")
	}

	switch cfg.Mode {
	case "":
		cfg.Mode = ModePlain
		if secureSQLiteSupported() {
			cfg.Mode = ModeSecure
		}
	case ModePlain, ModeSecure:
	default:
		return Config{}, fmt.Errorf("unknown database mode %q", cfg.Mode)
	}
	return cfg, nil
}

// Open opens the local cache and brings its schema up to date. keys is
// only used in secure mode.
func Open(ctx context.Context, cfg Config, keys KeyStore) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Mode {
	case ModeSecure:
		db, err = openSecure(cfg.Path, keys)
	case ModePlain:
		db, err = openPlainSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown database mode %q", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openSecure(path string, keys KeyStore) (*sql.DB, error) {
	if !secureSQLiteSupported() {
		return nil, fmt.Errorf(
			"secure mode requires a sqlcipher-enabled build; rebuild with '-tags sqlcipher' or set RENTDESK_DB_MODE=plain",
		)
	}
	if keys == nil {
		return nil, errors.New("secure mode requires a key store")
	}

	key, created, err := ensureDBKey(keys)
	if err != nil {
		return nil, fmt.Errorf("ensure secure db key: %w", err)
	}
	if created {
		// A new key cannot open a file written under an old one.
		exists, err := hasLocalDBFiles(path)
		if err != nil {
			return nil, err
		}
		if exists {
			if err := resetLocalDBFiles(path); err != nil {
				return nil, fmt.Errorf("reset db after key creation: %w", err)
			}
		}
	}
	return openSecureSQLite(path, key)
}

// Wipe removes local database files for the resolved DB path.
func Wipe(cfg Config) error {
	if err := resetLocalDBFiles(cfg.Path); err != nil {
		return fmt.Errorf("wipe local db files: %w", err)
	}
	return nil
}

func ensureDBKey(keys KeyStore) (key string, created bool, err error) {
	key, err = keys.LoadDBKey()
	if err == nil && strings.TrimSpace(key) != "" {
		return key, false, nil
	}

	newKey, err := generateRandomKey()
	if err != nil {
		return "", false, err
	}
	if err := keys.SaveDBKey(newKey); err != nil {
		return "", false, err
	}
	return newKey, true, nil
}

func generateRandomKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(buf), nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	const bootstrapSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  version INTEGER NOT NULL
);

INSERT OR IGNORE INTO schema_migrations (id, version) VALUES (1, 1);

CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := db.ExecContext(ctx, bootstrapSchema); err != nil {
		return fmt.Errorf("run sqlite migrations: %w", err)
	}

	var currentVersion int
	if err := db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE id = 1").Scan(&currentVersion); err != nil {
		return fmt.Errorf("read sqlite schema version: %w", err)
	}

	if currentVersion < 2 {
		if err := applyV2Migrations(ctx, db); err != nil {
			return err
		}
		currentVersion = 2
	}
	if currentVersion < 3 {
		if err := applyV3Migrations(ctx, db); err != nil {
			return err
		}
		currentVersion = 3
	}
	if currentVersion < 4 {
		if err := applyV4Migrations(ctx, db); err != nil {
			return err
		}
		currentVersion = 4
	}

	if currentVersion > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, schemaVersion)
	}
	return nil
}

func applyV2Migrations(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS sync_state (
  collection TEXT PRIMARY KEY,
  last_success_at TEXT,
  last_attempt_at TEXT,
  last_error TEXT
);

CREATE TABLE IF NOT EXISTS renters (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  last_fetched_at TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1 CHECK (is_active IN (0,1))
);

CREATE TABLE IF NOT EXISTS matrix_cells (
  renter_id TEXT NOT NULL,
  year INTEGER NOT NULL,
  month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
  paid INTEGER NOT NULL CHECK (paid IN (0,1)),
  PRIMARY KEY (renter_id, year, month)
);

CREATE TABLE IF NOT EXISTS renter_totals (
  renter_id TEXT PRIMARY KEY,
  total_paid TEXT,
  expected_total TEXT,
  expected_unpaid TEXT,
  balance TEXT,
  updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_renters_last_fetched_at ON renters(last_fetched_at);
`
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite migration v2 transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("run sqlite v2 migrations: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "UPDATE schema_migrations SET version = 2 WHERE id = 1"); err != nil {
		return fmt.Errorf("update sqlite schema version to 2: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite v2 migrations: %w", err)
	}
	return nil
}

// applyV3Migrations records the order renters appear on the floors page.
func applyV3Migrations(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite migration v3 transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	hasDisplayOrder, err := tableHasColumn(ctx, tx, "renters", "display_order")
	if err != nil {
		return err
	}
	if !hasDisplayOrder {
		if _, err = tx.ExecContext(
			ctx,
			"ALTER TABLE renters ADD COLUMN display_order INTEGER NOT NULL DEFAULT 2147483647",
		); err != nil {
			return fmt.Errorf("add renters.display_order column: %w", err)
		}
	}
	if _, err = tx.ExecContext(
		ctx,
		"CREATE INDEX IF NOT EXISTS idx_renters_display_order ON renters(display_order)",
	); err != nil {
		return fmt.Errorf("create renters display_order index: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "UPDATE schema_migrations SET version = 3 WHERE id = 1"); err != nil {
		return fmt.Errorf("update sqlite schema version to 3: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite v3 migrations: %w", err)
	}
	return nil
}

// applyV4Migrations keeps how many renters and matrices each sync stored.
func applyV4Migrations(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite migration v4 transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, column := range []string{"renter_count", "ledger_count"} {
		var exists bool
		if exists, err = tableHasColumn(ctx, tx, "sync_state", column); err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err = tx.ExecContext(ctx, "ALTER TABLE sync_state ADD COLUMN "+column+" INTEGER NOT NULL DEFAULT 0"); err != nil {
			return fmt.Errorf("add sync_state.%s column: %w", column, err)
		}
	}
	if _, err = tx.ExecContext(ctx, "UPDATE schema_migrations SET version = 4 WHERE id = 1"); err != nil {
		return fmt.Errorf("update sqlite schema version to 4: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite v4 migrations: %w", err)
	}
	return nil
}

func tableHasColumn(ctx context.Context, tx *sql.Tx, tableName, columnName string) (bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return false, fmt.Errorf("query table info for %s: %w", tableName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name string
		var ctype sql.NullString
		var notNull int
		var defaultValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defaultValue, &pk); err != nil {
			return false, fmt.Errorf("scan table info for %s: %w", tableName, err)
		}
		if name == columnName {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("read table info rows for %s: %w", tableName, err)
	}
	return false, nil
}

func localDBFiles(path string) []string {
	return []string{path, path + "-wal", path + "-shm"}
}

func hasLocalDBFiles(path string) (bool, error) {
	for _, p := range localDBFiles(path) {
		_, err := os.Stat(p)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return false, nil
}

func resetLocalDBFiles(path string) error {
	for _, p := range localDBFiles(path) {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
