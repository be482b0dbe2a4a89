package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestDialectPlaceholders(t *testing.T) {
	cols := []string{"a", "b", "c"}
	if got := DialectSQLite.InsertQuery("t", cols); got != "INSERT INTO t (a, b, c) VALUES (?, ?, ?)" {
		t.Fatalf("sqlite query %q", got)
	}
	if got := DialectPostgres.InsertQuery("t", cols); got != "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)" {
		t.Fatalf("postgres query %q", got)
	}
}

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	db, err := Open(context.Background(), DialectSQLite, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec("CREATE TABLE probe (id INTEGER)"); err != nil {
		t.Fatalf("exec: %v", err)
	}
}

func TestOpenRejects(t *testing.T) {
	if _, err := Open(context.Background(), Dialect("oracle"), "x"); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
	if _, err := Open(context.Background(), DialectSQLite, " "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
