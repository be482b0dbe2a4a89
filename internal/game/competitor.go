package game

import "fmt"

type PricingStrategy int

const (
	StrategyAggressive PricingStrategy = iota
	StrategyNeutral
	StrategyPremium
)

func (s PricingStrategy) PriceMultiplier() float64 {
	switch s {
	case StrategyAggressive:
		return 0.85
	case StrategyPremium:
		return 1.20
	default:
		return 1.0
	}
}

func (s PricingStrategy) AttractionMultiplier() float64 {
	switch s {
	case StrategyAggressive:
		return 1.3
	case StrategyPremium:
		return 0.7
	default:
		return 1.0
	}
}

func (s PricingStrategy) String() string {
	switch s {
	case StrategyAggressive:
		return "Aggressive"
	case StrategyNeutral:
		return "Neutral"
	case StrategyPremium:
		return "Premium"
	}
	return fmt.Sprintf("PricingStrategy(%d)", int(s))
}

func (s PricingStrategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PricingStrategy) UnmarshalText(text []byte) error {
	parsed, err := ParsePricingStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParsePricingStrategy(s string) (PricingStrategy, error) {
	switch normalizeKey(s) {
	case "aggressive":
		return StrategyAggressive, nil
	case "neutral":
		return StrategyNeutral, nil
	case "premium":
		return StrategyPremium, nil
	}
	return 0, fmt.Errorf("unknown pricing strategy %q", s)
}

const (
	competitorBaseCash        = 10_000.0
	competitorCashPerStore    = 5_000.0
	competitorMaxQuality      = 1.5
	competitorRevenuePerStore = 200.0
	competitorCostPerStore    = 150.0
	competitorExpansionCost   = 10_000.0

	initialPlayerShare = 0.15
	totalMarketSize    = 500
)

type Competitor struct {
	ID                 int             `json:"id"`
	Name               string          `json:"name"`
	StoreCount         int             `json:"store_count"`
	StoreQuality       float64         `json:"store_quality"`
	Strategy           PricingStrategy `json:"strategy"`
	Cash               float64         `json:"cash"`
	BaseShare          float64         `json:"base_share"`
	DaysSinceExpansion int             `json:"days_since_expansion"`
}

func NewCompetitor(id int, name string, stores int, strategy PricingStrategy) *Competitor {
	return &Competitor{
		ID:           id,
		Name:         name,
		StoreCount:   stores,
		StoreQuality: 1.0,
		Strategy:     strategy,
		Cash:         competitorBaseCash + float64(stores)*competitorCashPerStore,
	}
}

func DefaultCompetitors() []*Competitor {
	return []*Competitor{
		NewCompetitor(1, "MegaMart", 3, StrategyAggressive),
		NewCompetitor(2, "Quality Goods Co", 2, StrategyPremium),
		NewCompetitor(3, "ValueStore", 2, StrategyNeutral),
	}
}

func (c *Competitor) MarketPower() float64 {
	return float64(c.StoreCount) * c.StoreQuality * c.Strategy.AttractionMultiplier()
}

// AdvanceDay runs one day of the rival's business and returns any moves it made.
// A strategy switch and an expansion are judged independently.
func (c *Competitor) AdvanceDay(economicMultiplier, playerShare float64) []string {
	var events []string
	c.DaysSinceExpansion++

	stores := float64(c.StoreCount)
	c.Cash += stores*competitorRevenuePerStore*economicMultiplier*(1-playerShare) - stores*competitorCostPerStore

	if playerShare > 0.4 && c.Strategy != StrategyAggressive && c.DaysSinceExpansion >= 10 {
		c.Strategy = StrategyAggressive
		events = append(events, fmt.Sprintf("%s has switched to aggressive pricing!", c.Name))
	}

	if c.Cash > 15_000 && c.DaysSinceExpansion >= 14 && c.Cash > 20_000 {
		c.Cash -= competitorExpansionCost
		c.StoreCount++
		c.DaysSinceExpansion = 0
		events = append(events, fmt.Sprintf("%s has opened a new store! (Now has %d stores)", c.Name, c.StoreCount))
	}

	if c.DaysSinceExpansion >= 7 && c.StoreQuality < competitorMaxQuality {
		c.StoreQuality += 0.01
		if c.StoreQuality > competitorMaxQuality {
			c.StoreQuality = competitorMaxQuality
		}
	}
	return events
}

// ReactToPlayerExpansion flips a cash-rich neutral rival to aggressive pricing.
func (c *Competitor) ReactToPlayerExpansion() (string, bool) {
	if c.Strategy == StrategyNeutral && c.Cash > 5_000 {
		c.Strategy = StrategyAggressive
		return fmt.Sprintf("%s is responding with lower prices!", c.Name), true
	}
	return "", false
}

type CompetitiveMarket struct {
	Competitors     []*Competitor `json:"competitors"`
	PlayerShare     float64       `json:"player_market_share"`
	TotalMarketSize int           `json:"total_market_size"`
}

func NewCompetitiveMarket() *CompetitiveMarket {
	return &CompetitiveMarket{
		Competitors:     DefaultCompetitors(),
		PlayerShare:     initialPlayerShare,
		TotalMarketSize: totalMarketSize,
	}
}

// PlayerPriceFactor rewards low markups and punishes high ones.
func PlayerPriceFactor(avgMarkup float64) float64 {
	switch {
	case avgMarkup > 60:
		return 0.7
	case avgMarkup < 30:
		return 1.3
	default:
		return 1.0
	}
}

// CalculateMarketShares splits the customer pool. The player's share is held
// within [0.05, 0.95].
func (m *CompetitiveMarket) CalculateMarketShares(playerStores int, avgMarkup float64) {
	if playerStores < 0 {
		playerStores = 0
	}
	playerPower := float64(playerStores) * PlayerPriceFactor(avgMarkup)
	competitorPower := 0.0
	for _, c := range m.Competitors {
		competitorPower += c.MarketPower()
	}
	total := playerPower + competitorPower

	share := 0.5
	if total > 0 {
		share = playerPower / total
		for _, c := range m.Competitors {
			c.BaseShare = c.MarketPower() / total
		}
	}
	m.PlayerShare = clamp(share, 0.05, 0.95)
}

// CustomerMultiplier scales every player store's traffic.
func (m *CompetitiveMarket) CustomerMultiplier() float64 {
	return clamp(m.PlayerShare*2, 0.3, 1.5)
}

func (m *CompetitiveMarket) AdvanceDay(economicMultiplier float64) []string {
	var events []string
	for _, c := range m.Competitors {
		events = append(events, c.AdvanceDay(economicMultiplier, m.PlayerShare)...)
	}
	return events
}

func (m *CompetitiveMarket) NotifyPlayerExpansion() []string {
	var events []string
	for _, c := range m.Competitors {
		if msg, ok := c.ReactToPlayerExpansion(); ok {
			events = append(events, msg)
		}
	}
	return events
}

func (m *CompetitiveMarket) TotalCompetitorStores() int {
	total := 0
	for _, c := range m.Competitors {
		total += c.StoreCount
	}
	return total
}

// MarketLeader is the rival with the most market power, first one on ties.
func (m *CompetitiveMarket) MarketLeader() (*Competitor, bool) {
	var leader *Competitor
	for _, c := range m.Competitors {
		if leader == nil || c.MarketPower() > leader.MarketPower() {
			leader = c
		}
	}
	return leader, leader != nil
}

func (m *CompetitiveMarket) clone() *CompetitiveMarket {
	out := &CompetitiveMarket{
		Competitors:     make([]*Competitor, len(m.Competitors)),
		PlayerShare:     m.PlayerShare,
		TotalMarketSize: m.TotalMarketSize,
	}
	for i, c := range m.Competitors {
		cp := *c
		out.Competitors[i] = &cp
	}
	return out
}
