package game

import (
	"fmt"
	"sort"
)

// Player owns every store, factory, loan and holding. All cash movement goes
// through it.
type Player struct {
	Cash      float64               `json:"cash"`
	Stores    []*Store              `json:"stores"`
	Factories []*Factory            `json:"factories"`
	Loans     []*Loan               `json:"loans"`
	Holdings  map[int]*StockHolding `json:"holdings"`

	NextStoreID   int `json:"next_store_id"`
	NextFactoryID int `json:"next_factory_id"`
	NextLoanID    int `json:"next_loan_id"`
}

func NewPlayer(cash float64, storeName string) *Player {
	p := &Player{
		Cash:          cash,
		Stores:        []*Store{},
		Factories:     []*Factory{},
		Loans:         []*Loan{},
		Holdings:      map[int]*StockHolding{},
		NextStoreID:   1,
		NextFactoryID: 1,
		NextLoanID:    1,
	}
	p.AddStore(storeName)
	return p
}

// Spend debits cash only when the full amount is covered.
func (p *Player) Spend(amount float64) bool {
	if amount < 0 || p.Cash < amount {
		return false
	}
	p.Cash -= amount
	return true
}

func (p *Player) Earn(amount float64) {
	p.Cash += amount
}

func (p *Player) AddStore(name string) *Store {
	s := NewStore(p.NextStoreID, name)
	p.NextStoreID++
	p.Stores = append(p.Stores, s)
	return s
}

func (p *Player) AddFactory(name string) *Factory {
	f := NewFactory(p.NextFactoryID, name)
	p.NextFactoryID++
	p.Factories = append(p.Factories, f)
	return f
}

func (p *Player) StoreByID(id int) (*Store, bool) {
	for _, s := range p.Stores {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

func (p *Player) TotalDailyExpenses() float64 {
	total := 0.0
	for _, s := range p.Stores {
		total += s.DailyExpenses()
	}
	for _, f := range p.Factories {
		total += f.DailyExpenses()
	}
	return total
}

func (p *Player) TotalDebt() float64 {
	total := 0.0
	for _, l := range p.Loans {
		total += l.Balance
	}
	return total
}

func (p *Player) CanBorrow(amount float64) bool {
	return p.TotalDebt()+amount <= MaxTotalDebt
}

// MaxBorrowable is the room left under the aggregate debt cap.
func (p *Player) MaxBorrowable() float64 {
	room := MaxTotalDebt - p.TotalDebt()
	if room < 0 {
		return 0
	}
	return room
}

func (p *Player) AddLoan(l *Loan) *Loan {
	l.ID = p.NextLoanID
	p.NextLoanID++
	p.Loans = append(p.Loans, l)
	return l
}

func (p *Player) Loan(id int) (*Loan, bool) {
	for _, l := range p.Loans {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// MakeLoanPayment pays up to amount from cash, never more than cash on hand
// or the loan balance, and returns what was paid.
func (p *Player) MakeLoanPayment(id int, amount float64) (float64, error) {
	l, ok := p.Loan(id)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrLoanNotFound, id)
	}
	if amount > p.Cash {
		amount = p.Cash
	}
	if amount <= 0 {
		return 0, nil
	}
	paid := l.MakePayment(amount)
	p.Cash -= paid
	return paid, nil
}

// CleanupLoans drops every loan with less than a cent outstanding.
func (p *Player) CleanupLoans() {
	kept := p.Loans[:0]
	for _, l := range p.Loans {
		if !l.IsPaidOff() {
			kept = append(kept, l)
		}
	}
	p.Loans = kept
}

func (p *Player) Holding(stockID int) (*StockHolding, bool) {
	h, ok := p.Holdings[stockID]
	return h, ok
}

func (p *Player) holdingIDs() []int {
	ids := make([]int, 0, len(p.Holdings))
	for id := range p.Holdings {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (p *Player) InventoryValue() float64 {
	total := 0.0
	for _, s := range p.Stores {
		total += s.InventoryValue()
	}
	return total
}

func (p *Player) PortfolioValue(stocks *StockMarket) float64 {
	total := 0.0
	for id, h := range p.Holdings {
		if s, ok := stocks.Stock(id); ok {
			total += h.CurrentValue(s.Price)
		}
	}
	return total
}

// NetWorth is cash plus inventory at retail plus portfolio, less debt.
func (p *Player) NetWorth(stocks *StockMarket) float64 {
	return p.Cash + p.InventoryValue() + p.PortfolioValue(stocks) - p.TotalDebt()
}

func (p *Player) clone() *Player {
	out := &Player{
		Cash:          p.Cash,
		Stores:        make([]*Store, len(p.Stores)),
		Factories:     make([]*Factory, len(p.Factories)),
		Loans:         make([]*Loan, len(p.Loans)),
		Holdings:      make(map[int]*StockHolding, len(p.Holdings)),
		NextStoreID:   p.NextStoreID,
		NextFactoryID: p.NextFactoryID,
		NextLoanID:    p.NextLoanID,
	}
	for i, s := range p.Stores {
		out.Stores[i] = s.clone()
	}
	for i, f := range p.Factories {
		out.Factories[i] = f.clone()
	}
	for i, l := range p.Loans {
		cp := *l
		out.Loans[i] = &cp
	}
	for id, h := range p.Holdings {
		cp := *h
		out.Holdings[id] = &cp
	}
	return out
}
