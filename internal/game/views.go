package game

import "sort"

func (g *GameState) Status() Status {
	st := Status{
		Day:                g.Day,
		Cash:               g.Player.Cash,
		NetWorth:           g.Player.NetWorth(g.Stocks),
		TotalDebt:          g.Player.TotalDebt(),
		MaxBorrowable:      g.Player.MaxBorrowable(),
		DailyExpenses:      g.Player.TotalDailyExpenses(),
		PortfolioValue:     g.Player.PortfolioValue(g.Stocks),
		Economy:            g.Market.State,
		EconomyDescription: g.Market.State.Description(),
		MarketShare:        g.Competition.PlayerShare,
		CurrentStore:       g.CurrentStore,
		StoreCount:         len(g.Player.Stores),
		FactoryCount:       len(g.Player.Factories),
		LoanCount:          len(g.Player.Loans),
		Bankrupt:           g.Bankrupt,
	}
	if g.CurrentFactory != noFactory {
		idx := g.CurrentFactory
		st.CurrentFactory = &idx
	}
	return st
}

// PriceList quotes every catalog product under today's economy.
func (g *GameState) PriceList() []PriceQuote {
	products := g.catalog.Products()
	out := make([]PriceQuote, 0, len(products))
	for _, p := range products {
		w := g.wholesale(p)
		out = append(out, PriceQuote{
			ProductID:       p.ID,
			Name:            p.Name,
			Category:        p.Category,
			Type:            p.Type,
			BasePrice:       p.BasePrice,
			Wholesale:       w,
			SuggestedRetail: SuggestRetailPrice(w, DefaultMarkupPercent),
		})
	}
	return out
}

func (g *GameState) LoanRates() []LoanRate {
	out := []LoanRate{
		{Type: LoanFlexible, Rate: g.Market.LoanRate(LoanFlexible)},
		{Type: LoanLineOfCredit, Rate: g.Market.LoanRate(LoanLineOfCredit)},
	}
	for _, days := range []int{7, 14, 30} {
		out = append(out, LoanRate{Type: LoanTerm, Days: days, Rate: TermLoanRate(g.Market.LoanRate(LoanTerm), days)})
	}
	for i := range out {
		out[i].Name = out[i].Type.String()
		out[i].Description = out[i].Type.Description()
	}
	return out
}

func (g *GameState) StockQuotes() []StockQuote {
	out := make([]StockQuote, 0, len(g.Stocks.Stocks))
	for _, s := range g.Stocks.Stocks {
		out = append(out, StockQuote{
			ID:            s.ID,
			Symbol:        s.Symbol,
			Name:          s.Name,
			Type:          s.Type,
			Price:         s.Price,
			TrendPercent:  s.Trend(),
			Indicator:     s.TrendIndicator(),
			DailyDividend: s.DailyDividend(),
		})
	}
	return out
}

func (g *GameState) Portfolio() []PortfolioLine {
	var out []PortfolioLine
	for _, id := range g.Player.holdingIDs() {
		h := g.Player.Holdings[id]
		s, ok := g.Stocks.Stock(id)
		if !ok {
			continue
		}
		out = append(out, PortfolioLine{
			StockID:         id,
			Symbol:          s.Symbol,
			Shares:          h.Shares,
			AvgPrice:        h.AvgPurchasePrice,
			Price:           s.Price,
			Value:           h.CurrentValue(s.Price),
			GainLoss:        h.GainLoss(s.Price),
			GainLossPercent: h.GainLossPercent(s.Price),
			Dividends:       h.TotalDividends,
		})
	}
	return out
}

// Competitors lists rivals by descending market power.
func (g *GameState) Competitors() []CompetitorView {
	leader, _ := g.Competition.MarketLeader()
	out := make([]CompetitorView, 0, len(g.Competition.Competitors))
	for _, c := range g.Competition.Competitors {
		out = append(out, CompetitorView{
			Name:         c.Name,
			Stores:       c.StoreCount,
			Quality:      c.StoreQuality,
			Strategy:     c.Strategy,
			Power:        c.MarketPower(),
			Share:        c.BaseShare,
			MarketLeader: c == leader,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Power > out[j].Power })
	return out
}

func (g *GameState) Stores() []StoreView {
	var current *Factory
	if f, err := g.Factory(); err == nil {
		current = f
	}
	out := make([]StoreView, 0, len(g.Player.Stores))
	for i, s := range g.Player.Stores {
		v := StoreView{
			Index:          i,
			ID:             s.ID,
			Name:           s.Name,
			Current:        i == g.CurrentStore,
			Employees:      append([]Employee(nil), s.Employees...),
			Customers:      s.EffectiveCustomers(),
			DailyExpenses:  s.DailyExpenses(),
			InventoryValue: s.InventoryValue(),
		}
		if current != nil {
			v.ConnectedFactory = current.IsConnectedTo(s.ID)
		}
		for _, id := range s.ProductIDs() {
			item := s.Inventory[id]
			line := InventoryLine{ProductID: id, Name: g.catalog.ProductName(id), Quantity: item.Quantity, RetailPrice: item.RetailPrice}
			if p, ok := g.catalog.Product(id); ok {
				line.Wholesale = g.wholesale(p)
				line.Markup = CalculateMarkup(line.Wholesale, item.RetailPrice)
			}
			v.Inventory = append(v.Inventory, line)
		}
		out = append(out, v)
	}
	return out
}

func (g *GameState) Factories() []FactoryView {
	out := make([]FactoryView, 0, len(g.Player.Factories))
	for i, f := range g.Player.Factories {
		out = append(out, FactoryView{
			Index:           i,
			ID:              f.ID,
			Name:            f.Name,
			Current:         i == g.CurrentFactory,
			Workers:         append([]Worker(nil), f.Workers...),
			Slots:           f.ProductionSlots(),
			AvailableSlots:  f.AvailableSlots(),
			Queue:           append([]ProductionJob(nil), f.Queue...),
			RawMaterials:    g.stockLines(f.RawMaterials),
			FinishedGoods:   g.stockLines(f.FinishedGoods),
			ConnectedStores: append([]int(nil), f.ConnectedStores...),
			AutoTransfer:    f.AutoTransfer,
			DailyExpenses:   f.DailyExpenses(),
		})
	}
	return out
}

func (g *GameState) stockLines(m map[int]int) []StockLine {
	ids := make([]int, 0, len(m))
	for id, qty := range m {
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]StockLine, 0, len(ids))
	for _, id := range ids {
		out = append(out, StockLine{ProductID: id, Name: g.catalog.ProductName(id), Quantity: m[id]})
	}
	return out
}

func (g *GameState) Loans() []LoanView {
	out := make([]LoanView, 0, len(g.Player.Loans))
	for _, l := range g.Player.Loans {
		out = append(out, LoanView{
			ID:            l.ID,
			Type:          l.Type,
			Name:          l.Type.String(),
			Principal:     l.Principal,
			Balance:       l.Balance,
			Rate:          l.DisplayRate(),
			DaysRemaining: l.DaysRemaining,
			DailyPayment:  l.DailyPayment,
			Due:           l.IsDue(),
		})
	}
	return out
}

// RecipePlans prices every recipe and, when a factory is selected, says how
// many batches it could start right now.
func (g *GameState) RecipePlans() []RecipePlan {
	f, _ := g.Factory()
	recipes := g.catalog.Recipes()
	out := make([]RecipePlan, 0, len(recipes))
	for _, r := range recipes {
		plan := RecipePlan{
			RecipeID:    r.ID,
			Name:        r.Name,
			Output:      g.catalog.ProductName(r.OutputProductID),
			Days:        r.ProductionDays,
			Ingredients: append([]Ingredient(nil), r.Ingredients...),
			MaterialCost: r.MaterialCost(func(id int) float64 {
				p, ok := g.catalog.Product(id)
				if !ok {
					return 0
				}
				return g.wholesale(p)
			}),
		}
		if p, ok := g.catalog.Product(r.OutputProductID); ok {
			plan.OutputValue = p.BasePrice * float64(r.OutputQuantity)
		}
		if f != nil {
			plan.MaxProducible = f.MaxProducible(r)
			plan.Missing = f.MissingIngredients(r)
		}
		out = append(out, plan)
	}
	return out
}
