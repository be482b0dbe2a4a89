package game

import (
	"fmt"
	"math"
)

type EconomicState int

const (
	EconomyCollapse EconomicState = iota
	EconomyRecession
	EconomyStandard
	EconomyGrowth
	EconomyBooming
	EconomyProsperity
)

type economyLevel struct {
	name        string
	description string
	interest    float64
	sales       float64
	price       float64
	stockTrend  float64
}

var economyLevels = [...]economyLevel{
	EconomyCollapse:   {"Collapse", "Economic crisis, very hard times", 0.15, 0.5, 0.80, -0.030},
	EconomyRecession:  {"Recession", "Economic downturn, reduced spending", 0.10, 0.7, 0.90, -0.015},
	EconomyStandard:   {"Standard", "Normal economic conditions", 0.06, 1.0, 1.00, 0},
	EconomyGrowth:     {"Growth", "Expanding economy", 0.05, 1.2, 1.05, 0.010},
	EconomyBooming:    {"Booming", "Strong economic growth", 0.04, 1.4, 1.10, 0.020},
	EconomyProsperity: {"Prosperity", "Peak economic conditions", 0.03, 1.6, 1.15, 0.025},
}

func (e EconomicState) level() economyLevel {
	if e < EconomyCollapse || e > EconomyProsperity {
		return economyLevels[EconomyStandard]
	}
	return economyLevels[e]
}

// InterestRate is the annual base rate lenders charge in this state.
func (e EconomicState) InterestRate() float64    { return e.level().interest }
func (e EconomicState) SalesMultiplier() float64 { return e.level().sales }
func (e EconomicState) PriceMultiplier() float64 { return e.level().price }
func (e EconomicState) StockTrend() float64      { return e.level().stockTrend }
func (e EconomicState) Description() string      { return e.level().description }
func (e EconomicState) String() string           { return e.level().name }

func (e EconomicState) IsExtreme() bool {
	return e == EconomyCollapse || e == EconomyProsperity
}

func (e EconomicState) up() EconomicState {
	if e >= EconomyProsperity {
		return EconomyProsperity
	}
	return e + 1
}

func (e EconomicState) down() EconomicState {
	if e <= EconomyCollapse {
		return EconomyCollapse
	}
	return e - 1
}

func (e EconomicState) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EconomicState) UnmarshalText(text []byte) error {
	key := normalizeKey(string(text))
	for i, lvl := range economyLevels {
		if normalizeKey(lvl.name) == key {
			*e = EconomicState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown economic state %q", string(text))
}

var defaultCategoryDemand = map[Category]float64{
	CategoryFood:        1.2,
	CategoryElectronics: 0.8,
	CategoryClothing:    1.0,
	CategoryFurniture:   0.6,
	CategoryRawMaterial: 0.0,
}

// Market holds wholesale prices and the economy that drives retail demand.
type Market struct {
	State EconomicState `json:"state"`
	Trend float64       `json:"trend"`

	day       int
	wholesale map[int]float64
	demand    map[Category]float64
}

func NewMarket(products []Product) *Market {
	m := &Market{
		State:     EconomyStandard,
		day:       FirstDay,
		wholesale: make(map[int]float64, len(products)),
		demand:    make(map[Category]float64, len(defaultCategoryDemand)),
	}
	for _, p := range products {
		m.wholesale[p.ID] = p.BasePrice
	}
	for c, w := range defaultCategoryDemand {
		m.demand[c] = w
	}
	return m
}

// WholesalePrice is the base price scaled by the current economy.
func (m *Market) WholesalePrice(productID int) (float64, bool) {
	base, ok := m.wholesale[productID]
	if !ok {
		return 0, false
	}
	return base * m.State.PriceMultiplier(), true
}

func (m *Market) BaseWholesalePrice(productID int) (float64, bool) {
	base, ok := m.wholesale[productID]
	return base, ok
}

func (m *Market) CategoryDemand(c Category) float64 {
	if w, ok := m.demand[c]; ok {
		return w
	}
	return 1.0
}

// AdvanceDay rolls the economy for the given day and returns a change note,
// or "" when the state held.
func (m *Market) AdvanceDay(day int) string {
	m.day = day
	old := m.State
	m.Trend = math.Sin(float64(day) * 0.125)

	upChance, downChance := 0.04, 0.04
	if m.Trend > 0 {
		upChance += m.Trend * 0.06
	} else {
		downChance += -m.Trend * 0.06
	}
	switch m.State {
	case EconomyCollapse:
		upChance += 0.10
		downChance = 0
	case EconomyProsperity:
		downChance += 0.10
		upChance = 0
	}

	roll := draw(day, drawEconomy, 0)
	if roll < upChance {
		m.State = m.State.up()
	} else if roll < upChance+downChance {
		m.State = m.State.down()
	}

	if m.State == old {
		return ""
	}
	direction := "worsened"
	if m.State.SalesMultiplier() > old.SalesMultiplier() {
		direction = "improved"
	}
	return fmt.Sprintf("Economy %s to %s!", direction, m.State)
}

// CalculateSales returns units sold of one product in one store today. The
// result never exceeds available.
func (m *Market) CalculateSales(p Product, retailPrice float64, available, customers int) int {
	if available <= 0 || customers <= 0 || p.BasePrice <= 0 {
		return 0
	}
	priceRatio := (retailPrice - p.BasePrice) / p.BasePrice
	priceFactor := clamp(1-priceRatio*0.5, 0, 2)
	baseDemand := 0.1 * m.CategoryDemand(p.Category) * m.State.SalesMultiplier()
	expected := float64(customers) * baseDemand * priceFactor

	variance := 0.8 + draw(m.day, drawSales, 0)*0.4
	sold := int(math.Floor(expected * variance))
	if sold < 0 {
		return 0
	}
	if sold > available {
		return available
	}
	return sold
}

// LoanRate is the annual rate offered today for a loan type.
func (m *Market) LoanRate(t LoanType) float64 {
	return m.State.InterestRate() + t.RateModifier()
}

func CalculateMarkup(wholesale, retail float64) float64 {
	if wholesale <= 0 {
		return 0
	}
	return (retail - wholesale) / wholesale * 100
}

func SuggestRetailPrice(wholesale, markupPercent float64) float64 {
	return wholesale * (1 + markupPercent/100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (m *Market) clone() *Market {
	out := &Market{
		State:     m.State,
		Trend:     m.Trend,
		day:       m.day,
		wholesale: make(map[int]float64, len(m.wholesale)),
		demand:    make(map[Category]float64, len(m.demand)),
	}
	for k, v := range m.wholesale {
		out.wholesale[k] = v
	}
	for k, v := range m.demand {
		out.demand[k] = v
	}
	return out
}
