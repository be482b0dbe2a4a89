package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tycoon/internal/archive"
	"tycoon/internal/catalog"
	"tycoon/internal/config"
	"tycoon/internal/game"
)

func newTestServer(t *testing.T, sink game.Sink, history archive.History) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := game.NewService(game.ServiceConfig{Sink: sink, MaxSessions: 2}, logger)
	return New(config.APIConfig{}, logger, svc, history)
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", rec.Code, rec.Body.String())
	}
	return decode[game.SessionInfo](t, rec).ID
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()
	if rec := do(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz %d", rec.Code)
	}
}

func TestCatalogIsServedAsYAML(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()
	rec := do(t, h, http.MethodGet, "/v1/catalog", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Fatalf("content type %q", ct)
	}
	c, err := catalog.Parse(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("parse served catalog: %v", err)
	}
	if len(c.Products()) != len(game.DefaultProducts()) || len(c.Recipes()) != len(game.DefaultRecipes()) {
		t.Fatalf("served %d products %d recipes", len(c.Products()), len(c.Recipes()))
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()
	id := createSession(t, h)

	rec := do(t, h, http.MethodGet, "/v1/sessions/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	st := decode[game.Status](t, rec)
	if st.Day != game.FirstDay || st.Cash != game.StartingCash {
		t.Fatalf("status = %+v", st)
	}

	_ = createSession(t, h)
	if rec := do(t, h, http.MethodPost, "/v1/sessions", nil); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third session got %d", rec.Code)
	}

	list := decode[struct {
		Sessions []game.SessionInfo `json:"sessions"`
	}](t, do(t, h, http.MethodGet, "/v1/sessions", nil))
	if len(list.Sessions) != 2 {
		t.Fatalf("sessions %d", len(list.Sessions))
	}

	if rec := do(t, h, http.MethodDelete, "/v1/sessions/"+id, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/sessions/"+id, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted session got %d", rec.Code)
	}
}

func TestCommandRoutesAndErrors(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()
	id := createSession(t, h)
	base := "/v1/sessions/" + id

	rec := do(t, h, http.MethodPost, base+"/inventory", map[string]any{"product_id": 1, "quantity": 10})
	if rec.Code != http.StatusOK {
		t.Fatalf("buy inventory %d %s", rec.Code, rec.Body.String())
	}
	if r := decode[game.Receipt](t, rec); r.Action != game.ActionBuyInventory || r.Cost <= 0 {
		t.Fatalf("receipt = %+v", r)
	}

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{name: "unknown product", path: "/inventory", body: map[string]any{"product_id": 999, "quantity": 1}, want: http.StatusNotFound},
		{name: "zero quantity", path: "/inventory", body: map[string]any{"product_id": 1}, want: http.StatusBadRequest},
		{name: "unknown field", path: "/inventory", body: map[string]any{"sku": 1}, want: http.StatusBadRequest},
		{name: "no factory", path: "/factories/workers", body: nil, want: http.StatusBadRequest},
		{name: "loan too small", path: "/loans/flexible", body: map[string]any{"amount": 10}, want: http.StatusUnprocessableEntity},
		{name: "bad term", path: "/loans/term", body: map[string]any{"amount": 1000, "days": 9}, want: http.StatusBadRequest},
		{name: "store too expensive", path: "/stores", body: map[string]any{"name": "Mall"}, want: http.StatusBadRequest},
		{name: "unknown action", path: "/commands", body: map[string]any{"action": "launch_rocket"}, want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, base+tc.path, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("got %d want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Fatalf("missing error body: %s", rec.Body.String())
			}
		})
	}

	rec = do(t, h, http.MethodPost, base+"/commands", game.Command{Action: game.ActionSetPrice, ProductID: 1, Price: 4.5})
	if rec.Code != http.StatusOK {
		t.Fatalf("generic set price %d %s", rec.Code, rec.Body.String())
	}
	stores := decode[struct {
		Stores []game.StoreView `json:"stores"`
	}](t, do(t, h, http.MethodGet, base+"/stores", nil))
	if len(stores.Stores) != 1 || len(stores.Stores[0].Inventory) != 1 || stores.Stores[0].Inventory[0].RetailPrice != 4.5 {
		t.Fatalf("stores = %+v", stores)
	}
}

func TestIdempotencyKeyHeader(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()
	base := "/v1/sessions/" + createSession(t, h)
	body := map[string]any{"product_id": 2, "quantity": 1}

	if rec := do(t, h, http.MethodPost, base+"/inventory", body, "Idempotency-Key", "abc"); rec.Code != http.StatusOK {
		t.Fatalf("first %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, base+"/inventory", body, "Idempotency-Key", "abc"); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, base+"/inventory", body); rec.Code != http.StatusOK {
		t.Fatalf("no key got %d", rec.Code)
	}
}

func TestAdvanceDayAndViews(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()
	base := "/v1/sessions/" + createSession(t, h)

	rec := do(t, h, http.MethodPost, base+"/advance-day", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("advance %d %s", rec.Code, rec.Body.String())
	}
	report := decode[game.DayResult](t, rec)
	if report.Day != game.FirstDay || report.TotalExpenses != game.StoreDailyRent {
		t.Fatalf("report = %+v", report)
	}

	for _, path := range []string{"/snapshot", "/factories", "/recipes", "/loans", "/prices", "/loan-rates", "/stocks", "/portfolio", "/competitors"} {
		if rec := do(t, h, http.MethodGet, base+path, nil); rec.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", path, rec.Code, rec.Body.String())
		}
	}
	if rec := do(t, h, http.MethodGet, base+"/history", nil); rec.Code != http.StatusNotImplemented {
		t.Fatalf("history without archive got %d", rec.Code)
	}
}

func TestHistoryFromSQLiteArchive(t *testing.T) {
	sink, err := archive.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "h.db"))
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	defer sink.Close()
	h := newTestServer(t, sink, sink).Handler()
	id := createSession(t, h)
	base := "/v1/sessions/" + id
	for i := 0; i < 3; i++ {
		if rec := do(t, h, http.MethodPost, base+"/advance-day", nil); rec.Code != http.StatusOK {
			t.Fatalf("advance %d", rec.Code)
		}
	}
	rec := do(t, h, http.MethodGet, base+"/history?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history %d %s", rec.Code, rec.Body.String())
	}
	out := decode[struct {
		Days []archive.Row `json:"days"`
	}](t, rec)
	if len(out.Days) != 2 || out.Days[1].Day != game.FirstDay+2 || out.Days[0].SessionID != id {
		t.Fatalf("history = %+v", out.Days)
	}
	if rec := do(t, h, http.MethodGet, base+"/history?limit=x", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit got %d", rec.Code)
	}
}

func TestSyncReplay(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()
	base := "/v1/sessions/" + createSession(t, h)
	body := map[string]any{"commands": []game.ReplayItem{
		{Command: game.Command{Action: game.ActionBuyInventory, ProductID: 3, Quantity: 2}, IdempotencyKey: "q1"},
		{Command: game.Command{Action: game.ActionBuyInventory, ProductID: 3, Quantity: 2}, IdempotencyKey: "q1"},
		{Command: game.Command{Action: game.ActionPayLoan, LoanID: 7, Amount: 5}, IdempotencyKey: "q2"},
	}}
	rec := do(t, h, http.MethodPost, base+"/sync/replay", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("replay %d %s", rec.Code, rec.Body.String())
	}
	out := decode[struct {
		Results []game.ReplayResult `json:"results"`
	}](t, rec)
	want := []string{"applied", "duplicate", "rejected"}
	for i, res := range out.Results {
		if res.Status != want[i] {
			t.Fatalf("result %d = %+v", i, res)
		}
	}

	missingKey := map[string]any{"commands": []game.ReplayItem{{Command: game.Command{Action: game.ActionAdvanceDay}}}}
	if rec := do(t, h, http.MethodPost, base+"/sync/replay", missingKey); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing key got %d", rec.Code)
	}
}

func TestFeedStreamsReports(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	id := createSession(t, srv.Handler())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/sessions/" + id + "/feed"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The subscription exists once the upgrade has completed.
	if rec := do(t, srv.Handler(), http.MethodPost, "/v1/sessions/"+id+"/advance-day", nil); rec.Code != http.StatusOK {
		t.Fatalf("advance %d", rec.Code)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var report game.DayResult
	if err := json.Unmarshal(msg, &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Day != game.FirstDay {
		t.Fatalf("feed day %d", report.Day)
	}

	if rec := do(t, srv.Handler(), http.MethodDelete, "/v1/sessions/"+id, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete %d", rec.Code)
	}
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal closure, got %v", err)
	}

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil || resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("dial deleted session: err=%v", err)
	}
}
