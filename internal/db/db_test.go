package db

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "creates new database",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "shed.db")
			},
		},
		{
			name: "creates nested directories",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "a", "b", "shed.db")
			},
		},
		{
			name: "opens existing database",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "shed.db")
				d, err := Open(path)
				if err != nil {
					t.Fatalf("setup: %v", err)
				}
				if err := d.Close(); err != nil {
					t.Fatalf("setup close: %v", err)
				}
				return path
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			d, err := Open(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer func() {
				if err := d.Close(); err != nil {
					t.Errorf("close: %v", err)
				}
			}()

			if d.Dialect != SQLite {
				t.Errorf("dialect = %v, want sqlite3", d.Dialect)
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Error("database file was not created")
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		dsn  string
		want Dialect
	}{
		{"/tmp/shed.db", SQLite},
		{"shed.db", SQLite},
		{"postgres://shed:pw@localhost:5432/shed?sslmode=disable", Postgres},
		{"postgresql://db.example.com/shed", Postgres},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			if got := DialectFor(tt.dsn); got != tt.want {
				t.Errorf("DialectFor(%q) = %v, want %v", tt.dsn, got, tt.want)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	lite := &DB{Dialect: SQLite}

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"no placeholders", "SELECT 1", "SELECT 1"},
		{"numbered in order", "UPDATE t SET a = ?, b = ? WHERE id = ?", "UPDATE t SET a = $1, b = $2 WHERE id = $3"},
		{"quoted question mark kept", "SELECT '?' FROM t WHERE id = ?", "SELECT '?' FROM t WHERE id = $1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pg.Rebind(tt.query); got != tt.want {
				t.Errorf("postgres Rebind = %q, want %q", got, tt.want)
			}
			if got := lite.Rebind(tt.query); got != tt.query {
				t.Errorf("sqlite Rebind = %q, want unchanged", got)
			}
		})
	}
}

func TestWALMode(t *testing.T) {
	d := openTestDB(t)

	var mode string
	if err := d.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestForeignKeys(t *testing.T) {
	d := openTestDB(t)

	var fk int
	if err := d.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		name  string
		table string
		cols  []string
	}{
		{
			name:  "members table exists",
			table: "members",
			cols:  []string{"id", "email", "name", "created_at", "phone", "location"},
		},
		{
			name:  "rental_items table exists",
			table: "rental_items",
			cols: []string{"id", "owner_email", "title", "description", "image_url", "original_price",
				"hourly_rate", "daily_rate", "quantity", "available_quantity", "category", "location",
				"status", "created_at"},
		},
		{
			name:  "rentals table exists",
			table: "rentals",
			cols:  []string{"id", "item_id", "renter_email", "start_date", "end_date", "total_cost", "status", "created_at"},
		},
		{
			name:  "settings table exists",
			table: "settings",
			cols:  []string{"name", "value", "updated_at"},
		},
		{
			name:  "sessions table exists",
			table: "sessions",
			cols:  []string{"id", "email", "expires_at", "created_at"},
		},
		{
			name:  "api_keys table exists",
			table: "api_keys",
			cols:  []string{"id", "name", "key_prefix", "key_hash", "created_at", "last_used_at", "email"},
		},
		{
			name:  "passkey_credentials table exists",
			table: "passkey_credentials",
			cols:  []string{"id", "email", "user_handle", "name", "credential_json", "created_at", "last_used_at"},
		},
	}

	d := openTestDB(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := tableColumns(t, d, tt.table)
			if len(cols) != len(tt.cols) {
				t.Fatalf("got %d columns, want %d: %v", len(cols), len(tt.cols), cols)
			}
			for i, want := range tt.cols {
				if cols[i] != want {
					t.Errorf("column %d = %q, want %q", i, cols[i], want)
				}
			}
		})
	}
}

func TestPriceConstraint(t *testing.T) {
	d := openTestDB(t)

	insert := `INSERT INTO rental_items (id, owner_email, title, original_price, hourly_rate, category, location)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	tests := []struct {
		name    string
		price   int64
		hourly  any
		wantErr bool
	}{
		{"free item without rate", 0, nil, false},
		{"priced item with rate", 50000, 3000, false},
		{"negative price", -1, nil, true},
		{"negative hourly rate", 100, -5, true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Exec(insert, fmt.Sprintf("item-%d", i), "a@example.com", "Drill", tt.price, tt.hourly, "tools", "gangnam")
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCascadeDelete(t *testing.T) {
	d := openTestDB(t)

	_, err := d.Exec(
		`INSERT INTO rental_items (id, owner_email, title, original_price, category, location) VALUES (?, ?, ?, ?, ?, ?)`,
		"item-1", "owner@example.com", "Tent", 120000, "camping", "mapo",
	)
	if err != nil {
		t.Fatalf("insert item: %v", err)
	}

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err = d.Exec(
			`INSERT INTO rentals (id, item_id, renter_email, start_date, end_date) VALUES (?, ?, ?, ?, ?)`,
			fmt.Sprintf("rental-%d", i), "item-1", "renter@example.com", start, start.Add(time.Hour),
		)
		if err != nil {
			t.Fatalf("insert rental %d: %v", i, err)
		}
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM rentals WHERE item_id = ?`, "item-1").Scan(&count); err != nil {
		t.Fatalf("count rentals: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 rentals, got %d", count)
	}

	if _, err := d.Exec(`DELETE FROM rental_items WHERE id = ?`, "item-1"); err != nil {
		t.Fatalf("delete item: %v", err)
	}

	if err := d.QueryRow(`SELECT COUNT(*) FROM rentals WHERE item_id = ?`, "item-1").Scan(&count); err != nil {
		t.Fatalf("count rentals after delete: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 rentals after cascade delete, got %d", count)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shed.db")

	d1, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := d1.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}

	d2, err := Open(path)
	if err != nil {
		t.Fatalf("second open (idempotency): %v", err)
	}
	if err := d2.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	p, err := DefaultPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Base(p) != "shed.db" {
		t.Errorf("expected filename shed.db, got %s", filepath.Base(p))
	}

	dir := filepath.Base(filepath.Dir(p))
	if dir != ".rentshed" {
		t.Errorf("expected directory .rentshed, got %s", dir)
	}
}

// openTestDB creates a temporary database for testing.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shed.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	return d
}

// tableColumns returns column names for a table using PRAGMA table_info.
func tableColumns(t *testing.T, d *DB, table string) []string {
	t.Helper()
	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		t.Fatalf("pragma table_info(%s): %v", table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			t.Errorf("close rows: %v", err)
		}
	}()

	var cols []string
	for rows.Next() {
		var cid int
		var name, typ string
		var notnull int
		var dflt *string
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}
