package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/lachiem1/rentdesk/internal/matrix"
	"github.com/shopspring/decimal"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Mode: ModePlain, Path: filepath.Join(t.TempDir(), "rentdesk.db")}, nil)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMigratesToCurrentVersion(t *testing.T) {
	db := openTestDB(t)

	var version int
	if err := db.QueryRow("SELECT version FROM schema_migrations WHERE id = 1").Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != schemaVersion {
		t.Fatalf("version = %d, want %d", version, schemaVersion)
	}

	// Running migrations again is a no-op.
	if err := runMigrations(context.Background(), db); err != nil {
		t.Fatalf("runMigrations() second run: %v", err)
	}
}

type memoryKeys struct {
	key   string
	saves int
}

func (m *memoryKeys) LoadDBKey() (string, error) {
	if m.key == "" {
		return "", errors.New("no key")
	}
	return m.key, nil
}

func (m *memoryKeys) SaveDBKey(key string) error {
	m.key = key
	m.saves++
	return nil
}

func TestEnsureDBKeyCreatesOnce(t *testing.T) {
	keys := &memoryKeys{}

	first, created, err := ensureDBKey(keys)
	if err != nil || !created || first == "" {
		t.Fatalf("ensureDBKey() = (%q, %v, %v)", first, created, err)
	}
	second, created, err := ensureDBKey(keys)
	if err != nil || created || second != first {
		t.Fatalf("ensureDBKey() second = (%q, %v, %v)", second, created, err)
	}
	if keys.saves != 1 {
		t.Fatalf("saves = %d, want 1", keys.saves)
	}
}

func TestAppConfigRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewAppConfigRepo(openTestDB(t))

	if _, ok, err := repo.Get(ctx, ConfigLastUsername); err != nil || ok {
		t.Fatalf("Get() on empty store = (%v, %v)", ok, err)
	}
	if err := repo.Set(ctx, ConfigLastUsername, "simple"); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}
	if err := repo.Set(ctx, ConfigLastUsername, "other"); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}
	value, ok, err := repo.Get(ctx, ConfigLastUsername)
	if err != nil || !ok || value != "other" {
		t.Fatalf("Get() = (%q, %v, %v)", value, ok, err)
	}
	if err := repo.Delete(ctx, ConfigLastUsername, "missing"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, ok, _ := repo.Get(ctx, ConfigLastUsername); ok {
		t.Fatal("key survived Delete()")
	}
}

func TestRentersReplaceSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := NewRentersRepo(openTestDB(t))
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := repo.ReplaceSnapshot(ctx, []Renter{{ID: "9", Name: "  Bob \n Smith"}, {ID: "4", Name: "Alice"}}, now); err != nil {
		t.Fatalf("ReplaceSnapshot() unexpected error: %v", err)
	}
	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	want := []Renter{{ID: "9", Name: "Bob Smith"}, {ID: "4", Name: "Alice"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}

	if err := repo.ReplaceSnapshot(ctx, []Renter{{ID: "4", Name: ""}}, now.Add(time.Hour)); err != nil {
		t.Fatalf("ReplaceSnapshot() unexpected error: %v", err)
	}
	got, _ = repo.List(ctx)
	if !reflect.DeepEqual(got, []Renter{{ID: "4", Name: "Renter 4"}}) {
		t.Fatalf("List() after second snapshot = %v", got)
	}

	if err := repo.ReplaceSnapshot(ctx, nil, now); err != nil {
		t.Fatalf("ReplaceSnapshot(nil) unexpected error: %v", err)
	}
	active, err := repo.HasActiveRenters(ctx)
	if err != nil || active {
		t.Fatalf("HasActiveRenters() = (%v, %v), want false", active, err)
	}
}

func TestLedgersRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgersRepo(openTestDB(t))

	if _, _, ok, err := repo.Load(ctx, "4"); err != nil || ok {
		t.Fatalf("Load() on empty cache = (%v, %v)", ok, err)
	}

	m := matrix.New(2023, 2024)
	m.MarkMonth(2024, time.March)
	m.MarkYear(2023)
	paid := decimal.RequireFromString("1300.50")
	totals := matrix.Totals{TotalPaid: &paid}

	if err := repo.Save(ctx, "4", m, totals, time.Now()); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	got, gotTotals, ok, err := repo.Load(ctx, "4")
	if err != nil || !ok {
		t.Fatalf("Load() = (%v, %v)", ok, err)
	}
	if !reflect.DeepEqual(got.Years(), []int{2023, 2024}) {
		t.Fatalf("Years() = %v", got.Years())
	}
	if paid, _ := got.Paid(2024, time.March); !paid {
		t.Fatal("2024-03 not restored as paid")
	}
	if paid, _ := got.Paid(2024, time.April); paid {
		t.Fatal("2024-04 restored as paid")
	}
	if gotTotals.TotalPaid == nil || !gotTotals.TotalPaid.Equal(paid) {
		t.Fatalf("TotalPaid = %v", gotTotals.TotalPaid)
	}
	if gotTotals.Balance != nil {
		t.Fatalf("Balance = %v, want unknown", gotTotals.Balance)
	}

	// Saving again replaces rather than merges.
	if err := repo.Save(ctx, "4", matrix.New(2025), matrix.Totals{}, time.Now()); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	got, _, _, _ = repo.Load(ctx, "4")
	if !reflect.DeepEqual(got.Years(), []int{2025}) {
		t.Fatalf("Years() after replace = %v", got.Years())
	}
}

func TestSyncStateRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewSyncStateRepo(openTestDB(t))
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	if _, ok, err := repo.Get(ctx, "renters"); ok || err != nil {
		t.Fatalf("Get() on empty table = (%v, %v)", ok, err)
	}

	if err := repo.Begin(ctx, "renters", at); err != nil {
		t.Fatalf("Begin() unexpected error: %v", err)
	}
	if err := repo.Fail(ctx, "renters", at, errors.New("boom")); err != nil {
		t.Fatalf("Fail() unexpected error: %v", err)
	}
	state, ok, err := repo.Get(ctx, "renters")
	if err != nil || !ok {
		t.Fatalf("Get() = (%v, %v)", ok, err)
	}
	if !state.Failed() || state.LastError != "boom" || state.LastSuccess != nil {
		t.Fatalf("state = %+v", state)
	}
	if !state.Stale(at, time.Hour) {
		t.Fatal("state without a success is not stale")
	}

	done := at.Add(time.Minute)
	if err := repo.Succeed(ctx, "renters", done, SyncCounts{Renters: 3, Ledgers: 2}); err != nil {
		t.Fatalf("Succeed() unexpected error: %v", err)
	}
	state, _, _ = repo.Get(ctx, "renters")
	if state.Failed() || state.LastSuccess == nil || !state.LastSuccess.Equal(done) {
		t.Fatalf("state = %+v", state)
	}
	if state.Renters != 3 || state.Ledgers != 2 {
		t.Fatalf("counts = %+v", state.SyncCounts)
	}
	if state.Stale(done.Add(30*time.Second), time.Minute) || !state.Stale(done.Add(2*time.Minute), time.Minute) {
		t.Fatal("Stale() does not follow ttl")
	}

	// A later failure keeps the last good counts.
	if err := repo.Begin(ctx, "renters", done.Add(time.Hour)); err != nil {
		t.Fatalf("Begin() unexpected error: %v", err)
	}
	state, _, _ = repo.Get(ctx, "renters")
	if state.Failed() || state.Renters != 3 || !state.LastAttempt.Equal(done.Add(time.Hour)) {
		t.Fatalf("state after new attempt = %+v", state)
	}
}
