package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenAppliesPragmasOnFileDatabase(t *testing.T) {
	database, err := Open(context.Background(), filepath.Join(t.TempDir(), "pragmas.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	var journalMode string
	if err := database.QueryRow(`PRAGMA journal_mode`).Scan(&journalMode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Fatalf("journal_mode=%q, want %q", journalMode, "wal")
	}

	var foreignKeys int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&foreignKeys); err != nil {
		t.Fatalf("read foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Fatalf("foreign_keys=%d, want 1", foreignKeys)
	}
}

func TestOpenMemoryDatabaseSharesOneConnection(t *testing.T) {
	database, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if _, err := database.Exec(`CREATE TABLE probe (id INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := database.Exec(`INSERT INTO probe (id) VALUES (1)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var count int
	if err := database.QueryRow(`SELECT COUNT(*) FROM probe`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count=%d, want 1", count)
	}
}

func TestDSNAppendsToExistingQuery(t *testing.T) {
	got := dsn("file:test.db?cache=shared")
	if want := "file:test.db?cache=shared&_pragma="; len(got) < len(want) || got[:len(want)] != want {
		t.Fatalf("dsn=%q, want prefix %q", got, want)
	}
}
