// Package archive keeps the history of day reports.
package archive

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tycoon/internal/game"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Row is one archived day report. Money columns are whole cents.
type Row struct {
	RunID       string          `json:"run_id"`
	SessionID   string          `json:"session_id"`
	Day         int             `json:"day"`
	Revenue     decimal.Decimal `json:"revenue"`
	Expenses    decimal.Decimal `json:"expenses"`
	Interest    decimal.Decimal `json:"interest"`
	NetProfit   decimal.Decimal `json:"net_profit"`
	Cash        decimal.Decimal `json:"cash"`
	Economy     string          `json:"economy"`
	MarketShare float64         `json:"market_share"`
	Bankrupt    bool            `json:"bankrupt"`
	Report      json.RawMessage `json:"report,omitempty"`
}

// History is implemented by sinks that can read back what they stored.
type History interface {
	History(ctx context.Context, sessionID string, limit int) ([]Row, error)
}

func newRunID() string {
	return uuid.NewString()
}

func cents(v float64) int64 {
	return decimal.NewFromFloat(v).Round(2).Shift(2).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func newRow(runID, sessionID string, r game.DayResult) (Row, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return Row{}, fmt.Errorf("encode day report: %w", err)
	}
	return Row{
		RunID:       runID,
		SessionID:   sessionID,
		Day:         r.Day,
		Revenue:     fromCents(cents(r.TotalRevenue)),
		Expenses:    fromCents(cents(r.TotalExpenses)),
		Interest:    fromCents(cents(r.LoanInterestAccrued)),
		NetProfit:   fromCents(cents(r.NetProfit)),
		Cash:        fromCents(cents(r.CashAfter)),
		Economy:     r.EconomicState.String(),
		MarketShare: r.PlayerMarketShare,
		Bankrupt:    r.Bankrupt,
		Report:      raw,
	}, nil
}

var rowColumns = []string{
	"run_id", "session_id", "day",
	"revenue_cents", "expenses_cents", "interest_cents", "net_profit_cents", "cash_cents",
	"economy", "market_share", "bankrupt", "report", "recorded_at",
}

func (r Row) args(now time.Time) []any {
	return []any{
		r.RunID, r.SessionID, r.Day,
		r.Revenue.Shift(2).IntPart(), r.Expenses.Shift(2).IntPart(), r.Interest.Shift(2).IntPart(),
		r.NetProfit.Shift(2).IntPart(), r.Cash.Shift(2).IntPart(),
		r.Economy, r.MarketShare, r.Bankrupt, string(r.Report), now.UTC(),
	}
}

// LogSink writes each day report to a structured logger.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{log: logger}
}

func (s *LogSink) RecordDay(ctx context.Context, sessionID string, r game.DayResult) error {
	s.log.InfoContext(ctx, "day report",
		"session_id", sessionID,
		"day", r.Day,
		"revenue", fromCents(cents(r.TotalRevenue)).StringFixed(2),
		"items_sold", r.TotalItemsSold,
		"expenses", fromCents(cents(r.TotalExpenses)).StringFixed(2),
		"interest", fromCents(cents(r.LoanInterestAccrued)).StringFixed(2),
		"net_profit", fromCents(cents(r.NetProfit)).StringFixed(2),
		"cash", fromCents(cents(r.CashAfter)).StringFixed(2),
		"economy", r.EconomicState.String(),
		"market_share", r.PlayerMarketShare,
		"completed_jobs", len(r.ProductionCompleted),
		"competitor_events", len(r.CompetitorEvents),
	)
	for _, due := range r.LoansDue {
		s.log.WarnContext(ctx, "term loan due", "session_id", sessionID, "loan_id", due.LoanID, "balance", due.Balance)
	}
	return nil
}

// Multi fans a day report out to several sinks and joins their errors.
func Multi(sinks ...game.Sink) game.Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multiSink []game.Sink

func (m multiSink) RecordDay(ctx context.Context, sessionID string, r game.DayResult) error {
	var errs []error
	for _, s := range m {
		if err := s.RecordDay(ctx, sessionID, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// History returns the first member that can read history, if any.
func (m multiSink) History(ctx context.Context, sessionID string, limit int) ([]Row, error) {
	for _, s := range m {
		if h, ok := s.(History); ok {
			return h.History(ctx, sessionID, limit)
		}
	}
	return nil, nil
}
