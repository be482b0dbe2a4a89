package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"tycoon/internal/game"
)

func sampleDay(day int, cash float64) game.DayResult {
	return game.DayResult{
		Day:                 day,
		TotalRevenue:        123.456,
		TotalItemsSold:      12,
		TotalExpenses:       100,
		LoanInterestAccrued: 0.333,
		NetProfit:           23.123,
		CashAfter:           cash,
		EconomicState:       game.EconomyStandard,
		PlayerMarketShare:   0.25,
	}
}

func TestSQLiteSinkRecordsAndReadsBack(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	sink, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sink.Close()

	for day := 1; day <= 3; day++ {
		if err := sink.RecordDay(ctx, "s1", sampleDay(day, 1000+float64(day))); err != nil {
			t.Fatalf("record day %d: %v", day, err)
		}
	}
	if err := sink.RecordDay(ctx, "s2", sampleDay(1, 5)); err != nil {
		t.Fatalf("record other session: %v", err)
	}

	rows, err := sink.History(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(rows) != 2 || rows[0].Day != 2 || rows[1].Day != 3 {
		t.Fatalf("rows = %+v", rows)
	}
	r := rows[1]
	if r.Revenue.StringFixed(2) != "123.46" || r.Interest.StringFixed(2) != "0.33" || r.Cash.StringFixed(2) != "1003.00" {
		t.Fatalf("money columns revenue=%s interest=%s cash=%s", r.Revenue, r.Interest, r.Cash)
	}
	if r.Economy != game.EconomyStandard.String() || r.RunID != sink.RunID() || r.Bankrupt {
		t.Fatalf("row = %+v", r)
	}
	var decoded game.DayResult
	if err := json.Unmarshal(r.Report, &decoded); err != nil {
		t.Fatalf("report json: %v", err)
	}
	if decoded.TotalItemsSold != 12 {
		t.Fatalf("decoded report %+v", decoded)
	}

	all, _ := sink.History(ctx, "s1", 0)
	if len(all) != 3 {
		t.Fatalf("all rows %d want 3", len(all))
	}
}

func TestSQLiteSinkReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = first.RecordDay(ctx, "s1", sampleDay(1, 10))
	_ = first.Close()

	second, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	rows, _ := second.History(ctx, "s1", 0)
	if len(rows) != 1 || rows[0].RunID == second.RunID() {
		t.Fatalf("rows after reopen = %+v", rows)
	}
}

type failingSink struct{}

func (failingSink) RecordDay(context.Context, string, game.DayResult) error {
	return errors.New("offline")
}

func TestMultiJoinsErrorsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logs := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))
	day := sampleDay(4, 50)
	day.LoansDue = []game.LoanDue{{LoanID: 2, Balance: 900}}

	err := Multi(logs, nil, failingSink{}).RecordDay(context.Background(), "s9", day)
	if err == nil || !strings.Contains(err.Error(), "offline") {
		t.Fatalf("err = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"session_id":"s9"`) || !strings.Contains(out, `"revenue":"123.46"`) {
		t.Fatalf("log output %s", out)
	}
	if !strings.Contains(out, "term loan due") {
		t.Fatalf("missing due warning: %s", out)
	}
}
