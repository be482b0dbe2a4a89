package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tycoon/internal/archive"
	"tycoon/internal/catalog"
	"tycoon/internal/config"
	"tycoon/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Server struct {
	cfg      config.APIConfig
	log      *slog.Logger
	game     *game.Service
	history  archive.History
	mux      *chi.Mux
	upgrader websocket.Upgrader
}

// New builds the HTTP API. history may be nil when no archive is configured.
func New(cfg config.APIConfig, logger *slog.Logger, gameSvc *game.Service, history archive.History) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		log:     logger,
		game:    gameSvc,
		history: history,
		mux:     chi.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// actionRoutes exposes each game command under its own path. The request
// body carries the command fields; the action comes from the route.
var actionRoutes = []struct {
	path   string
	action string
}{
	{"/inventory", game.ActionBuyInventory},
	{"/inventory/price", game.ActionSetPrice},
	{"/stores", game.ActionBuyStore},
	{"/stores/switch", game.ActionSwitchStore},
	{"/stores/employees", game.ActionHireEmployee},
	{"/stores/employees/fire", game.ActionFireEmployee},
	{"/factories", game.ActionBuyFactory},
	{"/factories/switch", game.ActionSwitchFactory},
	{"/factories/materials", game.ActionBuyRawMaterials},
	{"/factories/production", game.ActionStartProduction},
	{"/factories/transfer", game.ActionTransferToStore},
	{"/factories/connect", game.ActionConnectStore},
	{"/factories/disconnect", game.ActionDisconnectStore},
	{"/factories/auto-transfer", game.ActionToggleAutoTransfer},
	{"/factories/workers", game.ActionHireWorker},
	{"/factories/workers/fire", game.ActionFireWorker},
	{"/loans/flexible", game.ActionTakeFlexibleLoan},
	{"/loans/credit-line", game.ActionTakeLineOfCredit},
	{"/loans/term", game.ActionTakeTermLoan},
	{"/loans/pay", game.ActionPayLoan},
	{"/stocks/buy", game.ActionBuyStock},
	{"/stocks/sell", game.ActionSellStock},
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		// The feed is long-lived and stays outside the request timeout.
		r.Get("/sessions/{id}/feed", s.handleFeed)
		r.Get("/catalog", s.handleCatalog)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Post("/sessions", s.handleCreateSession)
			r.Get("/sessions", s.handleListSessions)

			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Get("/", s.handleStatus)
				r.Delete("/", s.handleDeleteSession)
				r.Get("/snapshot", s.handleSnapshot)
				r.Get("/stores", s.view(func(g *game.GameState) any { return map[string]any{"stores": g.Stores()} }))
				r.Get("/factories", s.view(func(g *game.GameState) any { return map[string]any{"factories": g.Factories()} }))
				r.Get("/recipes", s.view(func(g *game.GameState) any { return map[string]any{"recipes": g.RecipePlans()} }))
				r.Get("/loans", s.view(func(g *game.GameState) any { return map[string]any{"loans": g.Loans()} }))
				r.Get("/prices", s.view(func(g *game.GameState) any {
					return map[string]any{"economy": g.Market.State, "prices": g.PriceList()}
				}))
				r.Get("/loan-rates", s.view(func(g *game.GameState) any { return map[string]any{"rates": g.LoanRates()} }))
				r.Get("/stocks", s.view(func(g *game.GameState) any {
					return map[string]any{"stocks": g.StockQuotes(), "market_value": g.Stocks.TotalMarketValue()}
				}))
				r.Get("/portfolio", s.view(func(g *game.GameState) any {
					return map[string]any{"holdings": g.Portfolio(), "value": g.Player.PortfolioValue(g.Stocks)}
				}))
				r.Get("/competitors", s.view(func(g *game.GameState) any {
					return map[string]any{"competitors": g.Competitors(), "player_share": g.Competition.PlayerShare}
				}))
				r.Get("/history", s.handleHistory)

				r.Post("/commands", s.handleCommand)
				for _, route := range actionRoutes {
					r.Post(route.path, s.handleAction(route.action))
				}
				r.Post("/advance-day", s.handleAdvanceDay)
				r.Post("/sync/replay", s.handleSyncReplay)
			})
		})
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	raw, err := catalog.Export(s.game.Catalog())
	if err != nil {
		s.log.Error("export catalog", "err", err)
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.game.CreateSession(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.ListSessions(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.game.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.game.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	g, err := s.game.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// view renders a read-only projection of a session under its lock.
func (s *Server) view(project func(g *game.GameState) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var out any
		err := s.game.View(r.Context(), chi.URLParam(r, "id"), func(g *game.GameState) error {
			out = project(g)
			return nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "no report archive configured")
		return
	}
	limit := 30
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	rows, err := s.history.History(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": rows})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd game.Command
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, r, cmd)
}

func (s *Server) handleAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd game.Command
		if err := decodeJSON(r, &cmd); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cmd.Action = action
		s.apply(w, r, cmd)
	}
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, cmd game.Command) {
	if cmd.Action == game.ActionAdvanceDay {
		s.handleAdvanceDay(w, r)
		return
	}
	receipt, err := s.game.Apply(r.Context(), game.ApplyInput{
		SessionID:      chi.URLParam(r, "id"),
		Command:        cmd,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleAdvanceDay(w http.ResponseWriter, r *http.Request) {
	report, err := s.game.AdvanceDay(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSyncReplay(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Commands []game.ReplayItem `json:"commands"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for i, item := range in.Commands {
		if strings.TrimSpace(item.IdempotencyKey) == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("commands[%d]: idempotency_key is required", i))
			return
		}
	}
	out, err := s.game.Replay(r.Context(), chi.URLParam(r, "id"), in.Commands)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrSessionNotFound),
		errors.Is(err, game.ErrProductNotFound),
		errors.Is(err, game.ErrRecipeNotFound),
		errors.Is(err, game.ErrLoanNotFound),
		errors.Is(err, game.ErrStockNotFound),
		errors.Is(err, game.ErrNotInInventory):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrDuplicateCommand):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrSessionLimit):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, game.ErrLoanLimit),
		errors.Is(err, game.ErrDebtLimit),
		errors.Is(err, game.ErrStaffFull),
		errors.Is(err, game.ErrNoSlots),
		errors.Is(err, game.ErrSlotsInUse):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, game.ErrInsufficientFunds),
		errors.Is(err, game.ErrInsufficientShares),
		errors.Is(err, game.ErrInsufficientMaterials),
		errors.Is(err, game.ErrNoFinishedGoods),
		errors.Is(err, game.ErrInvalidQuantity),
		errors.Is(err, game.ErrInvalidPrice),
		errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrInvalidName),
		errors.Is(err, game.ErrInvalidIndex),
		errors.Is(err, game.ErrInvalidTerm),
		errors.Is(err, game.ErrNotRawMaterial),
		errors.Is(err, game.ErrNotRetail),
		errors.Is(err, game.ErrNoFactory),
		errors.Is(err, game.ErrNotConnected),
		errors.Is(err, game.ErrStaffRequired),
		errors.Is(err, game.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}
