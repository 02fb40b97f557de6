package store

import (
	"database/sql"
	"net/url"
	"path/filepath"
	"testing"
)

func testRawDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	u := url.URL{Scheme: "file", Path: path}
	db, err := sql.Open("sqlite", u.String())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrationsFreshDB(t *testing.T) {
	db := testRawDB(t)

	if err := runMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	version, err := currentVersion(db)
	if err != nil {
		t.Fatalf("current version: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected version 2, got %d", version)
	}

	for _, table := range []string{"users", "schedules", "schedule_shares", "alarms"} {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count); err != nil {
			t.Fatalf("check %s: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("%s table not created", table)
		}
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := testRawDB(t)

	if err := runMigrations(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := runMigrations(db); err != nil {
		t.Fatalf("second run: %v", err)
	}

	version, err := currentVersion(db)
	if err != nil {
		t.Fatalf("current version: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected version 2, got %d", version)
	}
}

func TestMigrationPlan(t *testing.T) {
	db := testRawDB(t)

	plan, err := MigrationPlan(db)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.CurrentVersion != 0 {
		t.Fatalf("expected current 0, got %d", plan.CurrentVersion)
	}
	if plan.AvailableVersion != 2 {
		t.Fatalf("expected available 2, got %d", plan.AvailableVersion)
	}
	if len(plan.Pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(plan.Pending))
	}

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	plan, err = MigrationPlan(db)
	if err != nil {
		t.Fatalf("plan after migrate: %v", err)
	}
	if plan.CurrentVersion != 2 || len(plan.Pending) != 0 {
		t.Fatalf("expected fully migrated plan, got %+v", plan)
	}
}

func TestOpenDueAlarmIndexRejectsDuplicates(t *testing.T) {
	db := testRawDB(t)
	if err := runMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	stmts := []string{
		`INSERT INTO users (id, username, created_at, updated_at) VALUES (1, 'kim', 'x', 'x')`,
		`INSERT INTO schedules (id, title, date, owner_id, created_at, updated_at) VALUES (1, 'standup', 'x', 1, 'x', 'x')`,
		`INSERT INTO alarms (user_id, schedule_id, type, created_at) VALUES (1, 1, 'schedule_due', 'x')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}

	if _, err := db.Exec(`INSERT INTO alarms (user_id, schedule_id, type, created_at) VALUES (1, 1, 'schedule_due', 'x')`); err == nil {
		t.Fatal("expected second open schedule_due alarm to be rejected")
	}
	// Other alarm types are not constrained.
	if _, err := db.Exec(`INSERT INTO alarms (user_id, schedule_id, type, created_at) VALUES (1, 1, 'memo', 'x')`); err != nil {
		t.Fatalf("insert memo alarm: %v", err)
	}
	if _, err := db.Exec(`UPDATE alarms SET is_acked = 1 WHERE type = 'schedule_due'`); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO alarms (user_id, schedule_id, type, created_at) VALUES (1, 1, 'schedule_due', 'x')`); err != nil {
		t.Fatalf("expected new alarm after ack: %v", err)
	}
}
