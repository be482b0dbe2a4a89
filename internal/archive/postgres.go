package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tycoon/internal/db"
	"tycoon/internal/game"
)

// PGSink stores day reports in Postgres through a pgx pool.
type PGSink struct {
	pool  *pgxpool.Pool
	runID string
}

func NewPGSink(ctx context.Context, pool *pgxpool.Pool) (*PGSink, error) {
	body, err := migrationFS.ReadFile("migrations/postgres/0001_day_reports.sql")
	if err != nil {
		return nil, fmt.Errorf("read postgres schema: %w", err)
	}
	if _, err := pool.Exec(ctx, string(body)); err != nil {
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}
	return &PGSink{pool: pool, runID: newRunID()}, nil
}

func (s *PGSink) RunID() string { return s.runID }

func (s *PGSink) RecordDay(ctx context.Context, sessionID string, r game.DayResult) error {
	row, err := newRow(s.runID, sessionID, r)
	if err != nil {
		return err
	}
	q := db.DialectPostgres.InsertQuery("day_reports", rowColumns)
	if _, err := s.pool.Exec(ctx, q, row.args(time.Now())...); err != nil {
		return fmt.Errorf("insert day report: %w", err)
	}
	return nil
}

func (s *PGSink) History(ctx context.Context, sessionID string, limit int) ([]Row, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT run_id, session_id, day, revenue_cents, expenses_cents, interest_cents,
		net_profit_cents, cash_cents, economy, market_share, bankrupt, report::text
		FROM day_reports WHERE session_id = $1 ORDER BY day DESC, id DESC`)
	args := []any{sessionID}
	if limit > 0 {
		sb.WriteString(" LIMIT $2")
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query day reports: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Row, error) {
		var r Row
		var revenue, expenses, interest, net, cash int64
		var report string
		err := row.Scan(&r.RunID, &r.SessionID, &r.Day, &revenue, &expenses, &interest, &net, &cash,
			&r.Economy, &r.MarketShare, &r.Bankrupt, &report)
		r.Revenue = fromCents(revenue)
		r.Expenses = fromCents(expenses)
		r.Interest = fromCents(interest)
		r.NetProfit = fromCents(net)
		r.Cash = fromCents(cash)
		r.Report = []byte(report)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan day reports: %w", err)
	}
	reverse(out)
	return out, nil
}
