package game

import (
	"fmt"
	"math"
)

const noFactory = -1

// GameState is one isolated game. It is not safe for concurrent use; the
// Service serializes access per session.
type GameState struct {
	Day            int                `json:"day"`
	Player         *Player            `json:"player"`
	Market         *Market            `json:"market"`
	Competition    *CompetitiveMarket `json:"competition"`
	Stocks         *StockMarket       `json:"stocks"`
	CurrentStore   int                `json:"current_store"`
	CurrentFactory int                `json:"current_factory"`
	Bankrupt       bool               `json:"bankrupt"`

	catalog *Catalog
}

func NewGameState(catalog *Catalog) *GameState {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &GameState{
		Day:            FirstDay,
		Player:         NewPlayer(StartingCash, FirstStoreName),
		Market:         NewMarket(catalog.Products()),
		Competition:    NewCompetitiveMarket(),
		Stocks:         NewStockMarket(),
		CurrentStore:   0,
		CurrentFactory: noFactory,
		catalog:        catalog,
	}
}

func (g *GameState) Catalog() *Catalog {
	return g.catalog
}

// Clone returns a deep copy sharing only the immutable catalog.
func (g *GameState) Clone() *GameState {
	return &GameState{
		Day:            g.Day,
		Player:         g.Player.clone(),
		Market:         g.Market.clone(),
		Competition:    g.Competition.clone(),
		Stocks:         g.Stocks.clone(),
		CurrentStore:   g.CurrentStore,
		CurrentFactory: g.CurrentFactory,
		Bankrupt:       g.Bankrupt,
		catalog:        g.catalog,
	}
}

func (g *GameState) Store() *Store {
	return g.Player.Stores[g.CurrentStore]
}

func (g *GameState) Factory() (*Factory, error) {
	if g.CurrentFactory == noFactory || g.CurrentFactory >= len(g.Player.Factories) {
		return nil, ErrNoFactory
	}
	return g.Player.Factories[g.CurrentFactory], nil
}

func (g *GameState) product(id int) (Product, error) {
	p, ok := g.catalog.Product(id)
	if !ok {
		return Product{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	return p, nil
}

func (g *GameState) recipe(id int) (Recipe, error) {
	r, ok := g.catalog.Recipe(id)
	if !ok {
		return Recipe{}, fmt.Errorf("%w: %d", ErrRecipeNotFound, id)
	}
	return r, nil
}

func (g *GameState) wholesale(p Product) float64 {
	if w, ok := g.Market.WholesalePrice(p.ID); ok {
		return w
	}
	return p.BasePrice * g.Market.State.PriceMultiplier()
}

func (g *GameState) storeAt(index int) (*Store, error) {
	if index < 0 || index >= len(g.Player.Stores) {
		return nil, fmt.Errorf("%w: store %d", ErrInvalidIndex, index)
	}
	return g.Player.Stores[index], nil
}

func (g *GameState) BuyInventory(productID, quantity int) (Receipt, error) {
	if quantity <= 0 {
		return Receipt{}, ErrInvalidQuantity
	}
	p, err := g.product(productID)
	if err != nil {
		return Receipt{}, err
	}
	if p.Type.IsRawMaterial() {
		return Receipt{}, fmt.Errorf("%w: %s", ErrNotRetail, p.Name)
	}
	price := g.wholesale(p)
	cost := price * float64(quantity)
	if !g.Player.Spend(cost) {
		return Receipt{}, insufficientFunds(cost, g.Player.Cash)
	}
	store := g.Store()
	store.AddInventory(p.ID, quantity, SuggestRetailPrice(price, DefaultMarkupPercent))
	return Receipt{
		Action:   ActionBuyInventory,
		Message:  fmt.Sprintf("Bought %d %s for $%.2f", quantity, p.Name, cost),
		Cost:     cost,
		ID:       p.ID,
		Quantity: quantity,
	}, nil
}

func (g *GameState) SetRetailPrice(productID int, price float64) (Receipt, error) {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return Receipt{}, ErrInvalidPrice
	}
	p, err := g.product(productID)
	if err != nil {
		return Receipt{}, err
	}
	if err := g.Store().SetPrice(p.ID, price); err != nil {
		return Receipt{}, fmt.Errorf("%w: %s", err, p.Name)
	}
	return Receipt{
		Action:  ActionSetPrice,
		Message: fmt.Sprintf("%s now sells for $%.2f", p.Name, price),
		ID:      p.ID,
	}, nil
}

// BuyNewStore opens a store and lets rivals react immediately.
func (g *GameState) BuyNewStore(name string) (Receipt, error) {
	name, err := validateEntityName(name)
	if err != nil {
		return Receipt{}, err
	}
	if !g.Player.Spend(NewStoreCost) {
		return Receipt{}, insufficientFunds(NewStoreCost, g.Player.Cash)
	}
	s := g.Player.AddStore(name)
	return Receipt{
		Action:  ActionBuyStore,
		Message: fmt.Sprintf("Opened %s", s.Name),
		Cost:    NewStoreCost,
		ID:      s.ID,
		Events:  g.Competition.NotifyPlayerExpansion(),
	}, nil
}

func (g *GameState) SwitchStore(index int) (Receipt, error) {
	s, err := g.storeAt(index)
	if err != nil {
		return Receipt{}, err
	}
	g.CurrentStore = index
	return Receipt{Action: ActionSwitchStore, Message: fmt.Sprintf("Switched to %s", s.Name), ID: s.ID}, nil
}

// BuyNewFactory builds a factory. The first one becomes the current factory.
func (g *GameState) BuyNewFactory(name string) (Receipt, error) {
	name, err := validateEntityName(name)
	if err != nil {
		return Receipt{}, err
	}
	if !g.Player.Spend(NewFactoryCost) {
		return Receipt{}, insufficientFunds(NewFactoryCost, g.Player.Cash)
	}
	f := g.Player.AddFactory(name)
	if g.CurrentFactory == noFactory {
		g.CurrentFactory = len(g.Player.Factories) - 1
	}
	return Receipt{
		Action:  ActionBuyFactory,
		Message: fmt.Sprintf("Built %s", f.Name),
		Cost:    NewFactoryCost,
		ID:      f.ID,
	}, nil
}

func (g *GameState) SwitchFactory(index int) (Receipt, error) {
	if index < 0 || index >= len(g.Player.Factories) {
		return Receipt{}, fmt.Errorf("%w: factory %d", ErrInvalidIndex, index)
	}
	g.CurrentFactory = index
	f := g.Player.Factories[index]
	return Receipt{Action: ActionSwitchFactory, Message: fmt.Sprintf("Switched to %s", f.Name), ID: f.ID}, nil
}

func (g *GameState) BuyRawMaterials(productID, quantity int) (Receipt, error) {
	if quantity <= 0 {
		return Receipt{}, ErrInvalidQuantity
	}
	f, err := g.Factory()
	if err != nil {
		return Receipt{}, err
	}
	p, err := g.product(productID)
	if err != nil {
		return Receipt{}, err
	}
	if !p.Type.IsRawMaterial() {
		return Receipt{}, fmt.Errorf("%w: %s", ErrNotRawMaterial, p.Name)
	}
	cost := g.wholesale(p) * float64(quantity)
	if !g.Player.Spend(cost) {
		return Receipt{}, insufficientFunds(cost, g.Player.Cash)
	}
	f.AddRawMaterial(p.ID, quantity)
	return Receipt{
		Action:   ActionBuyRawMaterials,
		Message:  fmt.Sprintf("Bought %d %s for $%.2f", quantity, p.Name, cost),
		Cost:     cost,
		ID:       p.ID,
		Quantity: quantity,
	}, nil
}

// StartProduction queues up to quantity jobs of a recipe in the current
// factory. Receipt.Quantity is the number actually started.
func (g *GameState) StartProduction(recipeID, quantity int) (Receipt, error) {
	if quantity <= 0 {
		return Receipt{}, ErrInvalidQuantity
	}
	f, err := g.Factory()
	if err != nil {
		return Receipt{}, err
	}
	r, err := g.recipe(recipeID)
	if err != nil {
		return Receipt{}, err
	}
	started, err := f.StartProductionBatch(r, quantity)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %s", err, r.Name)
	}
	msg := fmt.Sprintf("Started %d x %s (%d days)", started, r.Name, r.ProductionDays)
	if started < quantity {
		msg = fmt.Sprintf("Started %d of %d x %s (%d days)", started, quantity, r.Name, r.ProductionDays)
	}
	return Receipt{Action: ActionStartProduction, Message: msg, ID: r.ID, Quantity: started}, nil
}

func (g *GameState) MaxProducible(recipeID int) (int, error) {
	f, err := g.Factory()
	if err != nil {
		return 0, err
	}
	r, err := g.recipe(recipeID)
	if err != nil {
		return 0, err
	}
	return f.MaxProducible(r), nil
}

func (g *GameState) MissingIngredients(recipeID int) ([]Shortfall, error) {
	f, err := g.Factory()
	if err != nil {
		return nil, err
	}
	r, err := g.recipe(recipeID)
	if err != nil {
		return nil, err
	}
	return f.MissingIngredients(r), nil
}

// TransferToStore moves finished goods from the current factory to a
// connected store, priced at 50% over base on a new line.
func (g *GameState) TransferToStore(productID, quantity, storeIndex int) (Receipt, error) {
	if quantity <= 0 {
		return Receipt{}, ErrInvalidQuantity
	}
	f, err := g.Factory()
	if err != nil {
		return Receipt{}, err
	}
	store, err := g.storeAt(storeIndex)
	if err != nil {
		return Receipt{}, err
	}
	if !f.IsConnectedTo(store.ID) {
		return Receipt{}, fmt.Errorf("%w: %s -> %s", ErrNotConnected, f.Name, store.Name)
	}
	p, err := g.product(productID)
	if err != nil {
		return Receipt{}, err
	}
	moved, err := f.TakeFinishedGoods(p.ID, quantity)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %s", err, p.Name)
	}
	store.AddInventory(p.ID, moved, SuggestRetailPrice(p.BasePrice, DefaultMarkupPercent))
	return Receipt{
		Action:   ActionTransferToStore,
		Message:  fmt.Sprintf("Moved %d %s to %s", moved, p.Name, store.Name),
		ID:       p.ID,
		Quantity: moved,
	}, nil
}

func (g *GameState) ConnectFactoryToStore(storeIndex int) (Receipt, error) {
	f, err := g.Factory()
	if err != nil {
		return Receipt{}, err
	}
	store, err := g.storeAt(storeIndex)
	if err != nil {
		return Receipt{}, err
	}
	f.ConnectStore(store.ID)
	return Receipt{
		Action:  ActionConnectStore,
		Message: fmt.Sprintf("%s now supplies %s", f.Name, store.Name),
		ID:      store.ID,
	}, nil
}

func (g *GameState) DisconnectFactoryFromStore(storeIndex int) (Receipt, error) {
	f, err := g.Factory()
	if err != nil {
		return Receipt{}, err
	}
	store, err := g.storeAt(storeIndex)
	if err != nil {
		return Receipt{}, err
	}
	if !f.IsConnectedTo(store.ID) {
		return Receipt{}, fmt.Errorf("%w: %s -> %s", ErrNotConnected, f.Name, store.Name)
	}
	f.DisconnectStore(store.ID)
	return Receipt{
		Action:  ActionDisconnectStore,
		Message: fmt.Sprintf("%s no longer supplies %s", f.Name, store.Name),
		ID:      store.ID,
	}, nil
}

func (g *GameState) ToggleAutoTransfer() (Receipt, error) {
	f, err := g.Factory()
	if err != nil {
		return Receipt{}, err
	}
	state := "off"
	if f.ToggleAutoTransfer() {
		state = "on"
	}
	return Receipt{Action: ActionToggleAutoTransfer, Message: fmt.Sprintf("Auto-transfer %s for %s", state, f.Name), ID: f.ID}, nil
}

func (g *GameState) HireEmployee(name string) (Receipt, error) {
	s := g.Store()
	if err := s.HireEmployee(name); err != nil {
		return Receipt{}, err
	}
	e := s.Employees[len(s.Employees)-1]
	return Receipt{
		Action:  ActionHireEmployee,
		Message: fmt.Sprintf("Hired %s at %s ($%.2f/day)", e.Name, s.Name, e.Salary),
		ID:      s.ID,
	}, nil
}

func (g *GameState) FireEmployee(index int) (Receipt, error) {
	s := g.Store()
	e, err := s.FireEmployee(index)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{Action: ActionFireEmployee, Message: fmt.Sprintf("Let %s go from %s", e.Name, s.Name), ID: s.ID}, nil
}

func (g *GameState) HireWorker(name string) (Receipt, error) {
	f, err := g.Factory()
	if err != nil {
		return Receipt{}, err
	}
	if err := f.HireWorker(name); err != nil {
		return Receipt{}, err
	}
	w := f.Workers[len(f.Workers)-1]
	return Receipt{
		Action:  ActionHireWorker,
		Message: fmt.Sprintf("Hired %s at %s ($%.2f/day, %d slots)", w.Name, f.Name, w.Salary, f.ProductionSlots()),
		ID:      f.ID,
	}, nil
}

func (g *GameState) FireWorker(index int) (Receipt, error) {
	f, err := g.Factory()
	if err != nil {
		return Receipt{}, err
	}
	w, err := f.FireWorker(index)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{Action: ActionFireWorker, Message: fmt.Sprintf("Let %s go from %s", w.Name, f.Name), ID: f.ID}, nil
}

func (g *GameState) checkBorrow(amount float64) error {
	if math.IsNaN(amount) || amount < MinLoanAmount || amount > MaxLoanAmount {
		return fmt.Errorf("%w: amount must be between $%.2f and $%.2f", ErrLoanLimit, MinLoanAmount, MaxLoanAmount)
	}
	if !g.Player.CanBorrow(amount) {
		return fmt.Errorf("%w: would exceed maximum debt of $%.2f, you can borrow up to $%.2f more",
			ErrDebtLimit, MaxTotalDebt, g.Player.MaxBorrowable())
	}
	return nil
}

func (g *GameState) openLoan(action string, l *Loan) Receipt {
	l = g.Player.AddLoan(l)
	g.Player.Earn(l.Principal)
	return Receipt{
		Action:   action,
		Message:  fmt.Sprintf("%s #%d for $%.2f at %s", l.Type, l.ID, l.Principal, l.DisplayRate()),
		Proceeds: l.Principal,
		ID:       l.ID,
	}
}

func (g *GameState) TakeFlexibleLoan(amount float64) (Receipt, error) {
	if err := g.checkBorrow(amount); err != nil {
		return Receipt{}, err
	}
	return g.openLoan(ActionTakeFlexibleLoan, NewFlexibleLoan(0, amount, g.Market.LoanRate(LoanFlexible))), nil
}

func (g *GameState) TakeLineOfCredit(amount float64) (Receipt, error) {
	if err := g.checkBorrow(amount); err != nil {
		return Receipt{}, err
	}
	return g.openLoan(ActionTakeLineOfCredit, NewLineOfCredit(0, amount, g.Market.LoanRate(LoanLineOfCredit))), nil
}

func (g *GameState) TakeTermLoan(amount float64, days int) (Receipt, error) {
	if !validTermDays(days) {
		return Receipt{}, fmt.Errorf("%w: %d days (choose 7, 14 or 30)", ErrInvalidTerm, days)
	}
	if err := g.checkBorrow(amount); err != nil {
		return Receipt{}, err
	}
	rate := TermLoanRate(g.Market.LoanRate(LoanTerm), days)
	return g.openLoan(ActionTakeTermLoan, NewTermLoan(0, amount, rate, days)), nil
}

func (g *GameState) MakeLoanPayment(loanID int, amount float64) (Receipt, error) {
	if amount <= 0 || math.IsNaN(amount) {
		return Receipt{}, ErrInvalidAmount
	}
	if _, ok := g.Player.Loan(loanID); !ok {
		return Receipt{}, fmt.Errorf("%w: %d", ErrLoanNotFound, loanID)
	}
	if amount > g.Player.Cash {
		return Receipt{}, insufficientFunds(amount, g.Player.Cash)
	}
	paid, err := g.Player.MakeLoanPayment(loanID, amount)
	if err != nil {
		return Receipt{}, err
	}
	msg := fmt.Sprintf("Paid $%.2f on loan #%d", paid, loanID)
	if l, _ := g.Player.Loan(loanID); l.IsPaidOff() {
		msg = fmt.Sprintf("Paid off loan #%d", loanID)
	}
	g.Player.CleanupLoans()
	return Receipt{Action: ActionPayLoan, Message: msg, Cost: paid, ID: loanID}, nil
}

func (g *GameState) BuyStock(stockID, shares int) (Receipt, error) {
	if shares <= 0 {
		return Receipt{}, ErrInvalidQuantity
	}
	s, ok := g.Stocks.Stock(stockID)
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %d", ErrStockNotFound, stockID)
	}
	cost := s.Price * float64(shares)
	if !g.Player.Spend(cost) {
		return Receipt{}, insufficientFunds(cost, g.Player.Cash)
	}
	h, ok := g.Player.Holding(s.ID)
	if !ok {
		h = &StockHolding{StockID: s.ID}
		g.Player.Holdings[s.ID] = h
	}
	h.AddShares(shares, s.Price)
	return Receipt{
		Action:   ActionBuyStock,
		Message:  fmt.Sprintf("Bought %d %s at $%.2f", shares, s.Symbol, s.Price),
		Cost:     cost,
		ID:       s.ID,
		Quantity: shares,
	}, nil
}

func (g *GameState) SellStock(stockID, shares int) (Receipt, error) {
	if shares <= 0 {
		return Receipt{}, ErrInvalidQuantity
	}
	s, ok := g.Stocks.Stock(stockID)
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %d", ErrStockNotFound, stockID)
	}
	h, ok := g.Player.Holding(s.ID)
	if !ok || h.Shares < shares {
		held := 0
		if ok {
			held = h.Shares
		}
		return Receipt{}, fmt.Errorf("%w: own %d %s, selling %d", ErrInsufficientShares, held, s.Symbol, shares)
	}
	h.RemoveShares(shares)
	if h.Shares == 0 {
		delete(g.Player.Holdings, s.ID)
	}
	proceeds := s.Price * float64(shares)
	g.Player.Earn(proceeds)
	return Receipt{
		Action:   ActionSellStock,
		Message:  fmt.Sprintf("Sold %d %s at $%.2f", shares, s.Symbol, s.Price),
		Proceeds: proceeds,
		ID:       s.ID,
		Quantity: shares,
	}, nil
}

// Apply dispatches a wire command to the matching operation.
func (g *GameState) Apply(cmd Command) (Receipt, error) {
	switch cmd.Action {
	case ActionBuyInventory:
		return g.BuyInventory(cmd.ProductID, cmd.Quantity)
	case ActionSetPrice:
		return g.SetRetailPrice(cmd.ProductID, cmd.Price)
	case ActionBuyStore:
		return g.BuyNewStore(cmd.Name)
	case ActionSwitchStore:
		return g.SwitchStore(cmd.Index)
	case ActionHireEmployee:
		return g.HireEmployee(cmd.Name)
	case ActionFireEmployee:
		return g.FireEmployee(cmd.Index)
	case ActionBuyFactory:
		return g.BuyNewFactory(cmd.Name)
	case ActionSwitchFactory:
		return g.SwitchFactory(cmd.Index)
	case ActionBuyRawMaterials:
		return g.BuyRawMaterials(cmd.ProductID, cmd.Quantity)
	case ActionStartProduction:
		qty := cmd.Quantity
		if qty == 0 {
			qty = 1
		}
		return g.StartProduction(cmd.RecipeID, qty)
	case ActionTransferToStore:
		return g.TransferToStore(cmd.ProductID, cmd.Quantity, cmd.Index)
	case ActionConnectStore:
		return g.ConnectFactoryToStore(cmd.Index)
	case ActionDisconnectStore:
		return g.DisconnectFactoryFromStore(cmd.Index)
	case ActionToggleAutoTransfer:
		return g.ToggleAutoTransfer()
	case ActionHireWorker:
		return g.HireWorker(cmd.Name)
	case ActionFireWorker:
		return g.FireWorker(cmd.Index)
	case ActionTakeFlexibleLoan:
		return g.TakeFlexibleLoan(cmd.Amount)
	case ActionTakeLineOfCredit:
		return g.TakeLineOfCredit(cmd.Amount)
	case ActionTakeTermLoan:
		return g.TakeTermLoan(cmd.Amount, cmd.Days)
	case ActionPayLoan:
		return g.MakeLoanPayment(cmd.LoanID, cmd.Amount)
	case ActionBuyStock:
		return g.BuyStock(cmd.StockID, cmd.Quantity)
	case ActionSellStock:
		return g.SellStock(cmd.StockID, cmd.Quantity)
	}
	return Receipt{}, fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
}
