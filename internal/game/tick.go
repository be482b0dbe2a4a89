package game

import "math"

// AdvanceDay runs one full day and returns its report. The phases run in a
// fixed order; each reads what the ones before it left behind. Every draw
// uses the day number the tick started on.
func (g *GameState) AdvanceDay() DayResult {
	day := g.Day
	r := DayResult{
		Day:                 day,
		SalesByProduct:      []ProductSales{},
		ExpensesByStore:     []ExpenseLine{},
		ExpensesByFactory:   []ExpenseLine{},
		ProductionCompleted: []ProductionResult{},
		AutoTransfers:       []AutoTransfer{},
		LoanPayments:        []LoanPayment{},
		LoansDue:            []LoanDue{},
		LoansDueSoon:        []LoanDueSoon{},
		CompetitorEvents:    []string{},
		StockChanges:        []StockChange{},
	}

	r.EconomicChange = g.Market.AdvanceDay(day)
	r.EconomicState = g.Market.State

	g.Competition.CalculateMarketShares(len(g.Player.Stores), g.AverageMarkup())
	r.PlayerMarketShare = g.Competition.PlayerShare
	multiplier := g.Competition.CustomerMultiplier()

	r.CompetitorEvents = append(r.CompetitorEvents, g.Competition.AdvanceDay(g.Market.State.SalesMultiplier())...)

	g.runSales(&r, multiplier)
	g.runFactories(&r)
	g.payExpenses(&r)
	g.serviceLoans(&r)

	r.StockChanges = g.Stocks.AdvanceDay(day, g.Market.State)
	r.DividendsEarned = g.payDividends()

	if g.Player.Cash < 0 {
		g.Bankrupt = true
	}
	g.Day++

	r.NetProfit = r.TotalRevenue - r.TotalExpenses - r.LoanInterestAccrued
	r.CashAfter = g.Player.Cash
	r.Bankrupt = g.Bankrupt
	return r
}

func (g *GameState) runSales(r *DayResult, multiplier float64) {
	for _, s := range g.Player.Stores {
		customers := int(float64(s.EffectiveCustomers()) * multiplier)
		for _, id := range s.ProductIDs() {
			item := s.Inventory[id]
			if item.Quantity <= 0 {
				continue
			}
			p, ok := g.catalog.Product(id)
			if !ok {
				continue
			}
			sold := g.Market.CalculateSales(p, item.RetailPrice, item.Quantity, customers)
			if sold == 0 {
				continue
			}
			revenue, ok := s.Sell(id, sold)
			if !ok {
				continue
			}
			g.Player.Earn(revenue)
			r.TotalRevenue += revenue
			r.TotalItemsSold += sold
			r.SalesByProduct = append(r.SalesByProduct, ProductSales{
				StoreID:   s.ID,
				ProductID: id,
				Name:      p.Name,
				Quantity:  sold,
				Revenue:   revenue,
			})
		}
	}
}

// runFactories advances every queue, then ships all finished goods of an
// auto-transfer factory to its primary store. Goods finished today ship today.
func (g *GameState) runFactories(r *DayResult) {
	for _, f := range g.Player.Factories {
		for _, done := range f.AdvanceProduction() {
			done.Factory = f.Name
			r.ProductionCompleted = append(r.ProductionCompleted, done)
		}
		if !f.AutoTransfer {
			continue
		}
		storeID, ok := f.PrimaryStore()
		if !ok {
			continue
		}
		store, ok := g.Player.StoreByID(storeID)
		if !ok {
			continue
		}
		for _, id := range f.finishedGoodIDs() {
			p, ok := g.catalog.Product(id)
			if !ok {
				continue
			}
			moved, err := f.TakeFinishedGoods(id, f.FinishedGood(id))
			if err != nil {
				continue
			}
			store.AddInventory(id, moved, SuggestRetailPrice(p.BasePrice, DefaultMarkupPercent))
			r.AutoTransfers = append(r.AutoTransfers, AutoTransfer{
				Factory:  f.Name,
				Store:    store.Name,
				Product:  p.Name,
				Quantity: moved,
			})
		}
	}
}

func (g *GameState) payExpenses(r *DayResult) {
	for _, s := range g.Player.Stores {
		line := ExpenseLine{ID: s.ID, Name: s.Name, Rent: s.DailyRent, Salaries: s.Salaries()}
		r.ExpensesByStore = append(r.ExpensesByStore, line)
		r.TotalExpenses += line.Total()
	}
	for _, f := range g.Player.Factories {
		line := ExpenseLine{ID: f.ID, Name: f.Name, Rent: f.DailyRent, Salaries: f.Salaries()}
		r.ExpensesByFactory = append(r.ExpensesByFactory, line)
		r.TotalExpenses += line.Total()
	}
	g.Player.Cash -= r.TotalExpenses
}

// serviceLoans works against post-expense cash. Payments never exceed what is
// on hand; a shortfall on a due term loan adds the default penalty instead.
func (g *GameState) serviceLoans(r *DayResult) {
	p := g.Player
	for _, l := range p.Loans {
		r.LoanInterestAccrued += l.AccrueInterest()
	}

	for _, l := range p.Loans {
		if l.Type != LoanLineOfCredit {
			continue
		}
		due := l.AutoPayment()
		available := math.Max(p.Cash, 0)
		if due <= 0 || available <= 0 {
			continue
		}
		if paid, _ := p.MakeLoanPayment(l.ID, math.Min(due, available)); paid > 0 {
			r.LoanPayments = append(r.LoanPayments, LoanPayment{LoanID: l.ID, Amount: paid})
		}
	}

	for _, l := range p.Loans {
		l.DecrementDays()
	}

	for _, l := range p.Loans {
		if !l.IsDue() {
			continue
		}
		r.LoansDue = append(r.LoansDue, LoanDue{LoanID: l.ID, Balance: l.Balance})
		if p.Cash >= l.Balance {
			if paid, _ := p.MakeLoanPayment(l.ID, l.Balance); paid > 0 {
				r.LoanPayments = append(r.LoanPayments, LoanPayment{LoanID: l.ID, Amount: paid})
			}
			continue
		}
		if p.Cash > 0 {
			if paid, _ := p.MakeLoanPayment(l.ID, p.Cash); paid > 0 {
				r.LoanPayments = append(r.LoanPayments, LoanPayment{LoanID: l.ID, Amount: paid})
			}
		}
		penalty := l.DefaultPenalty()
		l.Balance += penalty
		r.TermLoanPenalties += penalty
	}

	for _, l := range p.Loans {
		if days, ok := l.DueSoon(); ok {
			r.LoansDueSoon = append(r.LoansDueSoon, LoanDueSoon{LoanID: l.ID, DaysRemaining: days, Balance: l.Balance})
		}
	}

	p.CleanupLoans()
}

// payDividends credits each holder's cash and running dividend total.
func (g *GameState) payDividends() float64 {
	total := 0.0
	for _, id := range g.Player.holdingIDs() {
		h := g.Player.Holdings[id]
		s, ok := g.Stocks.Stock(id)
		if !ok || h.Shares <= 0 {
			continue
		}
		amount := s.DailyDividend() * float64(h.Shares)
		if amount <= 0 {
			continue
		}
		h.ReceiveDividend(amount)
		g.Player.Earn(amount)
		total += amount
	}
	return total
}

// AverageMarkup is the mean markup over base price across every inventory
// line in every store, or the default markup when nothing is stocked.
func (g *GameState) AverageMarkup() float64 {
	total, n := 0.0, 0
	for _, s := range g.Player.Stores {
		for _, id := range s.ProductIDs() {
			p, ok := g.catalog.Product(id)
			if !ok || p.BasePrice <= 0 {
				continue
			}
			total += CalculateMarkup(p.BasePrice, s.Inventory[id].RetailPrice)
			n++
		}
	}
	if n == 0 {
		return DefaultMarkupPercent
	}
	return total / float64(n)
}
