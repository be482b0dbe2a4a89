package game

import (
	"fmt"
	"math"
	"strings"
)

type StockType int

const (
	StockBlueChip StockType = iota
	StockGrowth
	StockSpeculative
)

func (t StockType) Volatility() float64 {
	switch t {
	case StockBlueChip:
		return 0.02
	case StockGrowth:
		return 0.05
	default:
		return 0.12
	}
}

// DividendYield is the annual yield paid out daily.
func (t StockType) DividendYield() float64 {
	switch t {
	case StockBlueChip:
		return 0.04
	case StockGrowth:
		return 0.01
	default:
		return 0
	}
}

func (t StockType) String() string {
	switch t {
	case StockBlueChip:
		return "Blue Chip"
	case StockGrowth:
		return "Growth"
	case StockSpeculative:
		return "Speculative"
	}
	return fmt.Sprintf("StockType(%d)", int(t))
}

func (t StockType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *StockType) UnmarshalText(text []byte) error {
	parsed, err := ParseStockType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func ParseStockType(s string) (StockType, error) {
	switch normalizeKey(s) {
	case "bluechip":
		return StockBlueChip, nil
	case "growth":
		return StockGrowth, nil
	case "speculative":
		return StockSpeculative, nil
	}
	return 0, fmt.Errorf("unknown stock type %q", s)
}

// SharesOutstanding is the float assumed for every listed company.
const SharesOutstanding = 1000

const (
	stockPriceFloor   = 0.50
	stockHistoryDays  = 7
	reversionStrength = 0.01
)

type Stock struct {
	ID        int       `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Type      StockType `json:"type"`
	Price     float64   `json:"price"`
	BasePrice float64   `json:"base_price"`
	History   []float64 `json:"history"`

	// sub-cent movement not yet applied to Price
	pending float64
}

func NewStock(id int, symbol, name string, t StockType, price float64) *Stock {
	return &Stock{
		ID:        id,
		Symbol:    symbol,
		Name:      name,
		Type:      t,
		Price:     price,
		BasePrice: price,
		History:   []float64{price},
	}
}

func DefaultStocks() []*Stock {
	return []*Stock{
		NewStock(1, "MEGA", "MegaCorp Industries", StockBlueChip, 100),
		NewStock(2, "SAFE", "SafeHaven Holdings", StockBlueChip, 75),
		NewStock(3, "TECH", "TechGrowth Inc", StockGrowth, 50),
		NewStock(4, "RETL", "RetailExpand Co", StockGrowth, 35),
		NewStock(5, "MOON", "MoonShot Ventures", StockSpeculative, 15),
		NewStock(6, "RISK", "RiskyBet Gaming", StockSpeculative, 8),
	}
}

// UpdatePrice moves the price by one day of trend, noise and pull toward the
// base price. randomFactor is in [-1, 1]. Movement accumulates until it is
// worth at least a cent. Returns the applied change.
func (s *Stock) UpdatePrice(state EconomicState, randomFactor float64) float64 {
	reversion := 0.0
	if s.BasePrice > 0 {
		reversion = (s.BasePrice - s.Price) / s.BasePrice * reversionStrength
	}
	delta := state.StockTrend() + randomFactor*s.Type.Volatility() + reversion
	s.pending += s.Price * delta

	old := s.Price
	if math.Abs(s.pending) >= 0.01 {
		change := math.Round(s.pending*100) / 100
		s.Price = RoundCents(s.Price + change)
		s.pending -= change
	}
	if s.Price < stockPriceFloor {
		s.Price = stockPriceFloor
		s.pending = 0
	}

	s.History = append(s.History, s.Price)
	if len(s.History) > stockHistoryDays {
		s.History = s.History[len(s.History)-stockHistoryDays:]
	}
	return s.Price - old
}

// Trend is the percent change across the price history window.
func (s *Stock) Trend() float64 {
	if len(s.History) < 2 || s.History[0] == 0 {
		return 0
	}
	oldest := s.History[0]
	newest := s.History[len(s.History)-1]
	return (newest - oldest) / oldest * 100
}

func (s *Stock) DailyDividend() float64 {
	return s.Price * s.Type.DividendYield() / 365
}

func (s *Stock) TrendIndicator() string {
	t := s.Trend()
	switch {
	case t > 5:
		return "▲▲"
	case t > 1:
		return "▲"
	case t < -5:
		return "▼▼"
	case t < -1:
		return "▼"
	default:
		return "─"
	}
}

type StockHolding struct {
	StockID          int     `json:"stock_id"`
	Shares           int     `json:"shares"`
	AvgPurchasePrice float64 `json:"avg_purchase_price"`
	TotalDividends   float64 `json:"total_dividends"`
}

func (h *StockHolding) AddShares(shares int, price float64) {
	total := float64(h.Shares)*h.AvgPurchasePrice + float64(shares)*price
	h.Shares += shares
	if h.Shares > 0 {
		h.AvgPurchasePrice = total / float64(h.Shares)
	}
}

func (h *StockHolding) RemoveShares(shares int) bool {
	if shares <= 0 || shares > h.Shares {
		return false
	}
	h.Shares -= shares
	return true
}

func (h *StockHolding) CurrentValue(price float64) float64 {
	return float64(h.Shares) * price
}

func (h *StockHolding) GainLoss(price float64) float64 {
	return h.CurrentValue(price) - float64(h.Shares)*h.AvgPurchasePrice
}

func (h *StockHolding) GainLossPercent(price float64) float64 {
	cost := float64(h.Shares) * h.AvgPurchasePrice
	if cost == 0 {
		return 0
	}
	return h.GainLoss(price) / cost * 100
}

func (h *StockHolding) ReceiveDividend(amount float64) {
	h.TotalDividends += amount
}

type StockChange struct {
	Symbol   string  `json:"symbol"`
	OldPrice float64 `json:"old_price"`
	NewPrice float64 `json:"new_price"`
}

type StockMarket struct {
	Stocks []*Stock `json:"stocks"`
}

func NewStockMarket() *StockMarket {
	return &StockMarket{Stocks: DefaultStocks()}
}

func (m *StockMarket) Stock(id int) (*Stock, bool) {
	for _, s := range m.Stocks {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

func (m *StockMarket) StockBySymbol(symbol string) (*Stock, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, s := range m.Stocks {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return nil, false
}

// AdvanceDay updates every stock with its own draw for the day.
func (m *StockMarket) AdvanceDay(day int, state EconomicState) []StockChange {
	changes := make([]StockChange, 0, len(m.Stocks))
	for _, s := range m.Stocks {
		old := s.Price
		s.UpdatePrice(state, signedDraw(day, drawStock, uint64(s.ID)))
		changes = append(changes, StockChange{Symbol: s.Symbol, OldPrice: old, NewPrice: s.Price})
	}
	return changes
}

// TotalMarketValue is the capitalisation of every listed company.
func (m *StockMarket) TotalMarketValue() float64 {
	total := 0.0
	for _, s := range m.Stocks {
		total += s.Price * SharesOutstanding
	}
	return total
}

func (m *StockMarket) clone() *StockMarket {
	out := &StockMarket{Stocks: make([]*Stock, len(m.Stocks))}
	for i, s := range m.Stocks {
		cp := *s
		cp.History = append([]float64(nil), s.History...)
		out.Stocks[i] = &cp
	}
	return out
}
