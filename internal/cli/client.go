package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"tycoon/internal/archive"
	"tycoon/internal/game"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StatusError is a non-2xx answer from the API. Anything else the client
// returns is a transport failure.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Code, e.Message)
}

// IsUnreachable reports whether err means the request never got an answer.
func IsUnreachable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	return !errors.As(err, &se)
}

func sessionURL(id, suffix string) string {
	return "/v1/sessions/" + url.PathEscape(id) + suffix
}

func (c *Client) CreateSession(ctx context.Context) (game.SessionInfo, error) {
	var out game.SessionInfo
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/sessions", nil, &out, "")
	return out, err
}

func (c *Client) ListSessions(ctx context.Context) ([]game.SessionInfo, error) {
	var out struct {
		Sessions []game.SessionInfo `json:"sessions"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/sessions", nil, &out, "")
	return out.Sessions, err
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.jsonRequest(ctx, http.MethodDelete, sessionURL(id, ""), nil, nil, "")
}

func (c *Client) Status(ctx context.Context, id string) (game.Status, error) {
	var out game.Status
	err := c.jsonRequest(ctx, http.MethodGet, sessionURL(id, ""), nil, &out, "")
	return out, err
}

func (c *Client) Stores(ctx context.Context, id string) ([]game.StoreView, error) {
	var out struct {
		Stores []game.StoreView `json:"stores"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, sessionURL(id, "/stores"), nil, &out, "")
	return out.Stores, err
}

func (c *Client) Factories(ctx context.Context, id string) ([]game.FactoryView, error) {
	var out struct {
		Factories []game.FactoryView `json:"factories"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, sessionURL(id, "/factories"), nil, &out, "")
	return out.Factories, err
}

func (c *Client) Recipes(ctx context.Context, id string) ([]game.RecipePlan, error) {
	var out struct {
		Recipes []game.RecipePlan `json:"recipes"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, sessionURL(id, "/recipes"), nil, &out, "")
	return out.Recipes, err
}

func (c *Client) Loans(ctx context.Context, id string) ([]game.LoanView, error) {
	var out struct {
		Loans []game.LoanView `json:"loans"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, sessionURL(id, "/loans"), nil, &out, "")
	return out.Loans, err
}

func (c *Client) LoanRates(ctx context.Context, id string) ([]game.LoanRate, error) {
	var out struct {
		Rates []game.LoanRate `json:"rates"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, sessionURL(id, "/loan-rates"), nil, &out, "")
	return out.Rates, err
}

func (c *Client) Prices(ctx context.Context, id string) (game.EconomicState, []game.PriceQuote, error) {
	var out struct {
		Economy game.EconomicState `json:"economy"`
		Prices  []game.PriceQuote  `json:"prices"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, sessionURL(id, "/prices"), nil, &out, "")
	return out.Economy, out.Prices, err
}

func (c *Client) Stocks(ctx context.Context, id string) ([]game.StockQuote, error) {
	var out struct {
		Stocks []game.StockQuote `json:"stocks"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, sessionURL(id, "/stocks"), nil, &out, "")
	return out.Stocks, err
}

func (c *Client) Portfolio(ctx context.Context, id string) ([]game.PortfolioLine, float64, error) {
	var out struct {
		Holdings []game.PortfolioLine `json:"holdings"`
		Value    float64              `json:"value"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, sessionURL(id, "/portfolio"), nil, &out, "")
	return out.Holdings, out.Value, err
}

func (c *Client) Competitors(ctx context.Context, id string) ([]game.CompetitorView, float64, error) {
	var out struct {
		Competitors []game.CompetitorView `json:"competitors"`
		PlayerShare float64               `json:"player_share"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, sessionURL(id, "/competitors"), nil, &out, "")
	return out.Competitors, out.PlayerShare, err
}

func (c *Client) History(ctx context.Context, id string, limit int) ([]archive.Row, error) {
	var out struct {
		Days []archive.Row `json:"days"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, sessionURL(id, fmt.Sprintf("/history?limit=%d", limit)), nil, &out, "")
	return out.Days, err
}

func (c *Client) Apply(ctx context.Context, id string, cmd game.Command, idem string) (game.Receipt, error) {
	var out game.Receipt
	err := c.jsonRequest(ctx, http.MethodPost, sessionURL(id, "/commands"), cmd, &out, idem)
	return out, err
}

func (c *Client) AdvanceDay(ctx context.Context, id, idem string) (game.DayResult, error) {
	var out game.DayResult
	err := c.jsonRequest(ctx, http.MethodPost, sessionURL(id, "/advance-day"), nil, &out, idem)
	return out, err
}

func (c *Client) SyncReplay(ctx context.Context, id string, items []game.ReplayItem) ([]game.ReplayResult, error) {
	var out struct {
		Results []game.ReplayResult `json:"results"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, sessionURL(id, "/sync/replay"), map[string]any{
		"commands": items,
	}, &out, "")
	return out.Results, err
}

// Watch calls fn for every day report of the session until ctx ends or the
// server closes the feed.
func (c *Client) Watch(ctx context.Context, id string, fn func(game.DayResult)) error {
	u, err := url.Parse(c.BaseURL + sessionURL(id, "/feed"))
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		var r game.DayResult
		if err := json.Unmarshal(msg, &r); err != nil {
			return fmt.Errorf("decode day report: %w", err)
		}
		fn(r)
	}
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Message: apiMessage(raw)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiMessage pulls the "error" field out of an error body when there is one.
func apiMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
