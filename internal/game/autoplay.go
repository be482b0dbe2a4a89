package game

import "math"

// Strategy is a simple shopkeeper used to drive a game without a player.
type Strategy struct {
	RestockBelow    int
	RestockQuantity int
	TargetMarkup    float64
	CashReserve     float64
}

func DefaultStrategy() Strategy {
	return Strategy{
		RestockBelow:    10,
		RestockQuantity: 20,
		TargetMarkup:    40,
		CashReserve:     400,
	}
}

// Plan looks at g and returns the commands to issue before the next tick.
// Spending is budgeted against cash above the reserve, so the plan can be
// applied in order without most commands being rejected.
func (st Strategy) Plan(g *GameState) []Command {
	var cmds []Command
	budget := g.Player.Cash - st.CashReserve - g.Player.TotalDailyExpenses()

	for i, s := range g.Player.Stores {
		if len(g.Player.Stores) > 1 {
			cmds = append(cmds, Command{Action: ActionSwitchStore, Index: i})
		}
		for _, p := range g.catalog.Products() {
			if p.Type != TypeRetailGood || g.Market.CategoryDemand(p.Category) <= 0 {
				continue
			}
			if s.Quantity(p.ID) >= st.RestockBelow || st.RestockQuantity <= 0 {
				continue
			}
			cost := g.wholesale(p) * float64(st.RestockQuantity)
			if cost > budget {
				continue
			}
			budget -= cost
			cmds = append(cmds, Command{Action: ActionBuyInventory, ProductID: p.ID, Quantity: st.RestockQuantity})
		}
		for _, id := range s.ProductIDs() {
			p, ok := g.catalog.Product(id)
			if !ok {
				continue
			}
			target := RoundCents(SuggestRetailPrice(g.wholesale(p), st.TargetMarkup))
			if current, _ := s.Price(id); math.Abs(current-target) >= 0.01 {
				cmds = append(cmds, Command{Action: ActionSetPrice, ProductID: id, Price: target})
			}
		}
	}
	if len(g.Player.Stores) > 1 {
		cmds = append(cmds, Command{Action: ActionSwitchStore, Index: g.CurrentStore})
	}

	for _, l := range g.Player.Loans {
		if l.Type != LoanFlexible || budget <= 0 {
			continue
		}
		pay := RoundCents(math.Min(budget, l.Balance))
		if pay <= 0 {
			continue
		}
		budget -= pay
		cmds = append(cmds, Command{Action: ActionPayLoan, LoanID: l.ID, Amount: pay})
	}
	return cmds
}
