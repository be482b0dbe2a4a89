package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type memorySink struct {
	mu   sync.Mutex
	days []int
	err  error
}

func (m *memorySink) RecordDay(_ context.Context, _ string, r DayResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.days = append(m.days, r.Day)
	return m.err
}

func newTestService(sink Sink, max int) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(ServiceConfig{Sink: sink, MaxSessions: max}, logger)
}

func TestServiceSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil, 0)
	a, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, _ := svc.CreateSession(ctx)

	if _, err := svc.Apply(ctx, ApplyInput{SessionID: a.ID, Command: Command{Action: ActionBuyInventory, ProductID: 1, Quantity: 10}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	sa, _ := svc.Status(ctx, a.ID)
	sb, _ := svc.Status(ctx, b.ID)
	if sa.Cash == sb.Cash {
		t.Fatalf("purchase in one session changed the other")
	}

	list, _ := svc.ListSessions(ctx)
	if len(list) != 2 {
		t.Fatalf("sessions %d want 2", len(list))
	}
	if err := svc.DeleteSession(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Status(ctx, a.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v want ErrSessionNotFound", err)
	}
}

func TestServiceSessionLimit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil, 1)
	if _, err := svc.CreateSession(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateSession(ctx); !errors.Is(err, ErrSessionLimit) {
		t.Fatalf("got %v want ErrSessionLimit", err)
	}
}

func TestServiceIdempotency(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil, 0)
	s, _ := svc.CreateSession(ctx)
	in := ApplyInput{SessionID: s.ID, Command: Command{Action: ActionBuyInventory, ProductID: 1, Quantity: 10}, IdempotencyKey: "k1"}

	if _, err := svc.Apply(ctx, in); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := svc.Apply(ctx, in); !errors.Is(err, ErrDuplicateCommand) {
		t.Fatalf("got %v want ErrDuplicateCommand", err)
	}

	bad := ApplyInput{SessionID: s.ID, Command: Command{Action: ActionBuyInventory, ProductID: 1}, IdempotencyKey: "k2"}
	if _, err := svc.Apply(ctx, bad); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("got %v want ErrInvalidQuantity", err)
	}
	bad.Command.Quantity = 1
	if _, err := svc.Apply(ctx, bad); err != nil {
		t.Fatalf("retry after rejection: %v", err)
	}
}

func TestServiceAdvanceDayRecordsAndPublishes(t *testing.T) {
	ctx := context.Background()
	sink := &memorySink{err: errors.New("disk full")}
	svc := newTestService(sink, 0)
	s, _ := svc.CreateSession(ctx)

	feed, cancel, err := svc.Subscribe(ctx, s.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	r, err := svc.AdvanceDay(ctx, s.ID, "")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if r.Day != FirstDay {
		t.Fatalf("report day %d", r.Day)
	}
	select {
	case got := <-feed:
		if got.Day != r.Day {
			t.Fatalf("feed day %d want %d", got.Day, r.Day)
		}
	case <-time.After(time.Second):
		t.Fatalf("no report on the feed")
	}
	if len(sink.days) != 1 || sink.days[0] != FirstDay {
		t.Fatalf("sink days %v", sink.days)
	}
	st, _ := svc.Status(ctx, s.ID)
	if st.Day != FirstDay+1 {
		t.Fatalf("status day %d", st.Day)
	}

	if err := svc.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, open := <-feed; open {
		t.Fatalf("feed still open after delete")
	}
}

func TestServiceReplay(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil, 0)
	s, _ := svc.CreateSession(ctx)

	items := []ReplayItem{
		{Command: Command{Action: ActionBuyInventory, ProductID: 1, Quantity: 5}, IdempotencyKey: "a"},
		{Command: Command{Action: ActionBuyInventory, ProductID: 1, Quantity: 5}, IdempotencyKey: "a"},
		{Command: Command{Action: ActionSetPrice, ProductID: 1, Price: -2}, IdempotencyKey: "b"},
		{Command: Command{Action: ActionAdvanceDay}, IdempotencyKey: "c"},
	}
	results, err := svc.Replay(ctx, s.ID, items)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	want := []string{"applied", "duplicate", "rejected", "applied"}
	for i, res := range results {
		if res.Status != want[i] {
			t.Fatalf("item %d: status %q want %q (%s)", i, res.Status, want[i], res.Error)
		}
	}
	if _, err := svc.Replay(ctx, "missing", items); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v want ErrSessionNotFound", err)
	}
}

func TestSubscribeAfterDeleteIsRefused(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil, 0)
	s, _ := svc.CreateSession(ctx)

	// Hold the session as a subscriber would between lookup and registration.
	ss, err := svc.lookup(s.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if err := svc.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := ss.subscribe(); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v want ErrSessionNotFound", err)
	}
	if len(ss.subs) != 0 {
		t.Fatalf("deleted session holds %d feeds", len(ss.subs))
	}
}
