package archive

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"tycoon/internal/db"
	"tycoon/internal/game"
)

// SQLSink stores day reports through database/sql. It works against SQLite
// and, through the pgx stdlib driver, Postgres.
type SQLSink struct {
	dialect db.Dialect
	db      *sql.DB
	runID   string
}

func NewSQLSink(ctx context.Context, conn *sql.DB, dialect db.Dialect) (*SQLSink, error) {
	s := &SQLSink{dialect: dialect, db: conn, runID: newRunID()}
	if err := s.applyMigrations(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQLite opens (creating if needed) a history file and prepares its schema.
func OpenSQLite(ctx context.Context, path string) (*SQLSink, error) {
	conn, err := db.Open(ctx, db.DialectSQLite, path)
	if err != nil {
		return nil, err
	}
	s, err := NewSQLSink(ctx, conn, db.DialectSQLite)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLSink) RunID() string { return s.runID }

func (s *SQLSink) Close() error { return s.db.Close() }

func (s *SQLSink) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	files, err := fs.Glob(migrationFS, fmt.Sprintf("migrations/%s/*.sql", s.dialect))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		body, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		q := s.dialect.InsertQuery("schema_migrations", []string{"version", "applied_at"})
		if _, err := tx.ExecContext(ctx, q, base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

func (s *SQLSink) RecordDay(ctx context.Context, sessionID string, r game.DayResult) error {
	row, err := newRow(s.runID, sessionID, r)
	if err != nil {
		return err
	}
	q := s.dialect.InsertQuery("day_reports", rowColumns)
	if _, err := s.db.ExecContext(ctx, q, row.args(time.Now())...); err != nil {
		return fmt.Errorf("insert day report: %w", err)
	}
	return nil
}

// History returns up to limit of the most recent reports for a session,
// oldest first. limit <= 0 means all of them.
func (s *SQLSink) History(ctx context.Context, sessionID string, limit int) ([]Row, error) {
	q := `SELECT run_id, session_id, day, revenue_cents, expenses_cents, interest_cents,
		net_profit_cents, cash_cents, economy, market_share, bankrupt, report
		FROM day_reports WHERE session_id = ` + s.dialect.Bind(1) + ` ORDER BY day DESC, id DESC`
	args := []any{sessionID}
	if limit > 0 {
		q += " LIMIT " + s.dialect.Bind(2)
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query day reports: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		var revenue, expenses, interest, net, cash int64
		var report string
		if err := rows.Scan(&row.RunID, &row.SessionID, &row.Day, &revenue, &expenses, &interest, &net, &cash,
			&row.Economy, &row.MarketShare, &row.Bankrupt, &report); err != nil {
			return nil, fmt.Errorf("scan day report: %w", err)
		}
		row.Revenue = fromCents(revenue)
		row.Expenses = fromCents(expenses)
		row.Interest = fromCents(interest)
		row.NetProfit = fromCents(net)
		row.Cash = fromCents(cash)
		row.Report = []byte(report)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day reports: %w", err)
	}
	reverse(out)
	return out, nil
}

func reverse(rows []Row) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
