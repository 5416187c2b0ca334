package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRun_AppliesSchemaOnce(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := Run(ctx, db, nil); err != nil {
			t.Fatalf("Run #%d: %v", i+1, err)
		}
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Errorf("schema_migrations rows = %d, want 1", n)
	}

	for _, table := range []string{"daily_records", "record_slots", "period_winds", "morning_windows", "winds", "import_runs"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in      string
		version string
		name    string
		ok      bool
	}{
		{in: "0001_schema.sql", version: "0001", name: "schema", ok: true},
		{in: "0012_add_index.sql", version: "0012", name: "add_index", ok: true},
		{in: "1_schema.sql"},
		{in: "0001_schema.txt"},
		{in: "README.md"},
	}
	for _, tt := range tests {
		version, name, ok := parseMigrationFilename(tt.in)
		if ok != tt.ok || version != tt.version || name != tt.name {
			t.Errorf("parseMigrationFilename(%q) = %q, %q, %v", tt.in, version, name, ok)
		}
	}
}

func TestPendingMigrations_OrderAndSkip(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0003_c.sql": {Data: []byte("SELECT 3")},
		"sql/0001_a.sql": {Data: []byte("SELECT 1")},
		"sql/0002_b.sql": {Data: []byte("SELECT 2")},
		"sql/notes.txt":  {Data: []byte("ignored")},
	}
	got, err := pendingMigrations(fsys, map[string]bool{"0002": true})
	if err != nil {
		t.Fatalf("pendingMigrations: %v", err)
	}
	if len(got) != 2 || got[0].version != "0001" || got[1].version != "0003" {
		t.Fatalf("pending = %+v, want 0001, 0003", got)
	}
}
