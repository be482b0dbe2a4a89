package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultMaxSessions = 256
	maxRememberedKeys  = 1024
	subscriberBuffer   = 16
)

// Sink receives every day report a session produces.
type Sink interface {
	RecordDay(ctx context.Context, sessionID string, r DayResult) error
}

type ServiceConfig struct {
	Catalog     *Catalog
	Sink        Sink
	MaxSessions int
}

type session struct {
	mu        sync.Mutex
	id        string
	state     *GameState
	createdAt time.Time
	keys      map[string]struct{}
	keyOrder  []string
	subs      map[chan DayResult]struct{}
	deleted   bool
}

// claim records an idempotency key. An empty key is never a duplicate.
func (ss *session) claim(key string) error {
	if key == "" {
		return nil
	}
	if _, seen := ss.keys[key]; seen {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, key)
	}
	ss.keys[key] = struct{}{}
	ss.keyOrder = append(ss.keyOrder, key)
	if len(ss.keyOrder) > maxRememberedKeys {
		delete(ss.keys, ss.keyOrder[0])
		ss.keyOrder = ss.keyOrder[1:]
	}
	return nil
}

// Service hosts many independent games. Each session is guarded by its own
// mutex so ticks in one game never wait on another.
type Service struct {
	log         *slog.Logger
	catalog     *Catalog
	sink        Sink
	maxSessions int

	mu       sync.Mutex
	sessions map[string]*session
}

func NewService(cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog()
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	return &Service{
		log:         logger,
		catalog:     cfg.Catalog,
		sink:        cfg.Sink,
		maxSessions: cfg.MaxSessions,
		sessions:    map[string]*session{},
	}
}

// Catalog is the product and recipe set every session is created with.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Status    Status    `json:"status"`
}

func (s *Service) CreateSession(ctx context.Context) (SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return SessionInfo{}, err
	}
	ss := &session{
		id:        uuid.NewString(),
		state:     NewGameState(s.catalog),
		createdAt: time.Now().UTC(),
		keys:      map[string]struct{}{},
		subs:      map[chan DayResult]struct{}{},
	}

	s.mu.Lock()
	if len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		return SessionInfo{}, fmt.Errorf("%w: %d active", ErrSessionLimit, s.maxSessions)
	}
	s.sessions[ss.id] = ss
	s.mu.Unlock()

	s.log.Info("session created", "session_id", ss.id, "cash", ss.state.Player.Cash)
	return SessionInfo{ID: ss.id, CreatedAt: ss.createdAt, Status: ss.state.Status()}, nil
}

func (s *Service) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	all := make([]*session, 0, len(s.sessions))
	for _, ss := range s.sessions {
		all = append(all, ss)
	}
	s.mu.Unlock()

	out := make([]SessionInfo, 0, len(all))
	for _, ss := range all {
		ss.mu.Lock()
		out = append(out, SessionInfo{ID: ss.id, CreatedAt: ss.createdAt, Status: ss.state.Status()})
		ss.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	ss, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	ss.mu.Lock()
	ss.deleted = true
	for ch := range ss.subs {
		close(ch)
		delete(ss.subs, ch)
	}
	ss.mu.Unlock()
	s.log.Info("session deleted", "session_id", id)
	return nil
}

func (s *Service) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return ss, nil
}

// View runs fn against the session's state under its lock. fn must not keep
// the pointer.
func (s *Service) View(ctx context.Context, id string, fn func(g *GameState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ss, err := s.lookup(id)
	if err != nil {
		return err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return fn(ss.state)
}

func (s *Service) Status(ctx context.Context, id string) (Status, error) {
	var st Status
	err := s.View(ctx, id, func(g *GameState) error {
		st = g.Status()
		return nil
	})
	return st, err
}

// Snapshot returns a deep copy of the whole game.
func (s *Service) Snapshot(ctx context.Context, id string) (*GameState, error) {
	var out *GameState
	err := s.View(ctx, id, func(g *GameState) error {
		out = g.Clone()
		return nil
	})
	return out, err
}

func (s *Service) Apply(ctx context.Context, in ApplyInput) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if in.Command.Action == ActionAdvanceDay {
		r, err := s.AdvanceDay(ctx, in.SessionID, in.IdempotencyKey)
		if err != nil {
			return Receipt{}, err
		}
		return Receipt{
			Action:  ActionAdvanceDay,
			Message: fmt.Sprintf("Day %d closed: net $%.2f", r.Day, r.NetProfit),
			Events:  r.CompetitorEvents,
		}, nil
	}

	ss, err := s.lookup(in.SessionID)
	if err != nil {
		return Receipt{}, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if err := ss.claim(in.IdempotencyKey); err != nil {
		return Receipt{}, err
	}
	receipt, err := ss.state.Apply(in.Command)
	if err != nil {
		ss.forget(in.IdempotencyKey)
		s.log.Debug("command rejected", "session_id", ss.id, "action", in.Command.Action, "error", err)
		return Receipt{}, err
	}
	s.log.Debug("command applied", "session_id", ss.id, "action", in.Command.Action, "cash", ss.state.Player.Cash)
	return receipt, nil
}

// forget releases a key whose command failed so a corrected retry can reuse it.
func (ss *session) forget(key string) {
	if key == "" {
		return
	}
	delete(ss.keys, key)
	for i := len(ss.keyOrder) - 1; i >= 0; i-- {
		if ss.keyOrder[i] == key {
			ss.keyOrder = append(ss.keyOrder[:i], ss.keyOrder[i+1:]...)
			return
		}
	}
}

// AdvanceDay ticks one session, archives the report and fans it out to
// subscribers. A sink failure is logged, never returned: the day already
// happened.
func (s *Service) AdvanceDay(ctx context.Context, id, idempotencyKey string) (DayResult, error) {
	if err := ctx.Err(); err != nil {
		return DayResult{}, err
	}
	ss, err := s.lookup(id)
	if err != nil {
		return DayResult{}, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if err := ss.claim(idempotencyKey); err != nil {
		return DayResult{}, err
	}
	wasBankrupt := ss.state.Bankrupt
	r := ss.state.AdvanceDay()

	s.log.Info("day advanced",
		"session_id", ss.id,
		"day", r.Day,
		"net_profit", RoundCents(r.NetProfit),
		"cash", RoundCents(r.CashAfter),
		"bankrupt", r.Bankrupt,
	)
	if r.Bankrupt && !wasBankrupt {
		s.log.Warn("session went bankrupt", "session_id", ss.id, "day", r.Day, "cash", RoundCents(r.CashAfter))
	}

	if s.sink != nil {
		if err := s.sink.RecordDay(ctx, ss.id, r); err != nil {
			s.log.Error("record day failed", "session_id", ss.id, "day", r.Day, "error", err)
		}
	}
	for ch := range ss.subs {
		select {
		case ch <- r:
		default:
			s.log.Warn("feed subscriber lagging, report dropped", "session_id", ss.id, "day", r.Day)
		}
	}
	return r, nil
}

type ReplayItem struct {
	Command        Command `json:"command"`
	IdempotencyKey string  `json:"idempotency_key"`
}

type ReplayResult struct {
	IdempotencyKey string   `json:"idempotency_key"`
	Action         string   `json:"action"`
	Status         string   `json:"status"`
	Receipt        *Receipt `json:"receipt,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Replay applies queued offline commands in order. Each item is judged on its
// own; a rejected command does not stop the rest.
func (s *Service) Replay(ctx context.Context, id string, items []ReplayItem) ([]ReplayResult, error) {
	if _, err := s.lookup(id); err != nil {
		return nil, err
	}
	results := make([]ReplayResult, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := ReplayResult{IdempotencyKey: item.IdempotencyKey, Action: item.Command.Action}
		receipt, err := s.Apply(ctx, ApplyInput{SessionID: id, Command: item.Command, IdempotencyKey: item.IdempotencyKey})
		switch {
		case err == nil:
			res.Status = "applied"
			res.Receipt = &receipt
		case errors.Is(err, ErrDuplicateCommand):
			res.Status = "duplicate"
		case errors.Is(err, ErrSessionNotFound):
			return results, err
		default:
			res.Status = "rejected"
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results, nil
}

// Subscribe streams the session's day reports until cancel is called or the
// session is deleted, whichever comes first.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan DayResult, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ss, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	return ss.subscribe()
}

// subscribe registers a feed on ss. A session deleted after lookup has
// already closed its feeds, so it refuses new ones.
func (ss *session) subscribe() (<-chan DayResult, func(), error) {
	ch := make(chan DayResult, subscriberBuffer)
	ss.mu.Lock()
	if ss.deleted {
		ss.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s", ErrSessionNotFound, ss.id)
	}
	ss.subs[ch] = struct{}{}
	ss.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			ss.mu.Lock()
			defer ss.mu.Unlock()
			if _, ok := ss.subs[ch]; ok {
				delete(ss.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel, nil
}
