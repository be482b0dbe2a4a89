package game

import (
	"math"
	"reflect"
	"testing"
)

func TestAdvanceDayIsDeterministic(t *testing.T) {
	g := NewGameState(nil)
	g.Day = 5
	g.Store().AddInventory(1, 100, 3.00)

	a := g.Clone().AdvanceDay()
	b := g.Clone().AdvanceDay()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same day produced different reports:\n%+v\n%+v", a, b)
	}
	if a.Day != 5 {
		t.Fatalf("report day %d want 5", a.Day)
	}
	if a.TotalItemsSold > 100 {
		t.Fatalf("sold %d of 100", a.TotalItemsSold)
	}
	if a.PlayerMarketShare < 0.05 || a.PlayerMarketShare > 0.95 {
		t.Fatalf("share %v out of bounds", a.PlayerMarketShare)
	}
}

func TestAdvanceDayBooksSalesAndExpenses(t *testing.T) {
	g := NewGameState(nil)
	g.Store().AddInventory(1, 100, 2.00)
	start := g.Player.Cash

	r := g.AdvanceDay()
	if g.Day != FirstDay+1 {
		t.Fatalf("day %d want %d", g.Day, FirstDay+1)
	}
	if got := 100 - g.Store().Quantity(1); got != r.TotalItemsSold {
		t.Fatalf("inventory dropped %d, report says %d", got, r.TotalItemsSold)
	}
	if math.Abs(r.TotalRevenue-2*float64(r.TotalItemsSold)) > 1e-9 {
		t.Fatalf("revenue %v for %d items", r.TotalRevenue, r.TotalItemsSold)
	}
	if r.TotalExpenses != StoreDailyRent {
		t.Fatalf("expenses %v want %v", r.TotalExpenses, StoreDailyRent)
	}
	if math.Abs(g.Player.Cash-(start+r.TotalRevenue-r.TotalExpenses)) > 1e-9 {
		t.Fatalf("cash %v does not match report", g.Player.Cash)
	}
	if r.NetProfit != r.TotalRevenue-r.TotalExpenses-r.LoanInterestAccrued {
		t.Fatalf("net profit %v", r.NetProfit)
	}
	if r.CashAfter != g.Player.Cash {
		t.Fatalf("cash after %v want %v", r.CashAfter, g.Player.Cash)
	}
}

func TestBankruptcyIsSticky(t *testing.T) {
	g := newTestGame(50)
	_ = g.Store().HireEmployee("A")
	_ = g.Store().HireEmployee("B")
	if g.Player.TotalDailyExpenses() != 200 {
		t.Fatalf("expenses %v want 200", g.Player.TotalDailyExpenses())
	}

	r := g.AdvanceDay()
	if g.Player.Cash >= 0 || !g.Bankrupt || !r.Bankrupt {
		t.Fatalf("cash %v bankrupt %v", g.Player.Cash, g.Bankrupt)
	}
	g.Player.Cash = 1_000_000
	g.AdvanceDay()
	if !g.Bankrupt {
		t.Fatalf("bankruptcy cleared itself")
	}
}

func TestTermLoanDefaultsOnSeventhTick(t *testing.T) {
	g := newTestGame(0)
	lr, err := g.TakeTermLoan(1000, 7)
	if err != nil {
		t.Fatalf("term loan: %v", err)
	}

	for tick := 1; tick <= 7; tick++ {
		g.Player.Cash = 0
		l, ok := g.Player.Loan(lr.ID)
		if !ok {
			t.Fatalf("tick %d: loan disappeared", tick)
		}
		before := l.Balance
		r := g.AdvanceDay()

		if tick < 7 {
			if len(r.LoansDue) != 0 {
				t.Fatalf("tick %d: loan reported due early", tick)
			}
			if tick >= 4 && len(r.LoansDueSoon) != 1 {
				t.Fatalf("tick %d: expected a due-soon warning", tick)
			}
			continue
		}

		if len(r.LoansDue) != 1 || r.LoansDue[0].LoanID != lr.ID {
			t.Fatalf("tick 7: loans due = %+v", r.LoansDue)
		}
		l, ok = g.Player.Loan(lr.ID)
		if !ok {
			t.Fatalf("defaulted loan was written off")
		}
		accrued := before * (1 + l.DailyRate())
		want := accrued * (1 + TermDefaultPenalty)
		if math.Abs(l.Balance-want) > 1e-6 {
			t.Fatalf("balance %v want %v", l.Balance, want)
		}
		if math.Abs(r.TermLoanPenalties-accrued*TermDefaultPenalty) > 1e-6 {
			t.Fatalf("penalty %v want %v", r.TermLoanPenalties, accrued*TermDefaultPenalty)
		}
	}
}

func TestTermLoanPaidWhenCashCovers(t *testing.T) {
	g := newTestGame(5000)
	lr, _ := g.TakeTermLoan(1000, 7)
	var last DayResult
	for i := 0; i < 7; i++ {
		last = g.AdvanceDay()
	}
	if _, ok := g.Player.Loan(lr.ID); ok {
		t.Fatalf("term loan still open")
	}
	if len(last.LoanPayments) != 1 || last.TermLoanPenalties != 0 {
		t.Fatalf("payments %+v penalties %v", last.LoanPayments, last.TermLoanPenalties)
	}
}

func TestLineOfCreditPaysWhatCashAllows(t *testing.T) {
	g := newTestGame(0)
	_, _ = g.TakeLineOfCredit(1000)
	g.Player.Cash = 105

	r := g.AdvanceDay()
	if len(r.LoanPayments) != 1 {
		t.Fatalf("payments %+v", r.LoanPayments)
	}
	if math.Abs(r.LoanPayments[0].Amount-5) > 1e-9 {
		t.Fatalf("paid %v want the 5 left after rent", r.LoanPayments[0].Amount)
	}
	if g.Player.Cash != 0 {
		t.Fatalf("cash %v want 0", g.Player.Cash)
	}

	r = g.AdvanceDay()
	if len(r.LoanPayments) != 0 {
		t.Fatalf("paid from negative cash: %+v", r.LoanPayments)
	}
}

func TestAutoTransferShipsSameDayOutput(t *testing.T) {
	g := newTestGame(20_000)
	if _, err := g.BuyNewFactory("Works"); err != nil {
		t.Fatalf("factory: %v", err)
	}
	_, _ = g.BuyNewStore("Second")
	_, _ = g.ConnectFactoryToStore(1)
	_, _ = g.ConnectFactoryToStore(0)
	_, _ = g.ToggleAutoTransfer()
	_, _ = g.BuyRawMaterials(11, 2)
	if _, err := g.StartProduction(1, 1); err != nil {
		t.Fatalf("start: %v", err)
	}

	r := g.AdvanceDay()
	if len(r.ProductionCompleted) != 1 || r.ProductionCompleted[0].Factory != "Works" {
		t.Fatalf("completed %+v", r.ProductionCompleted)
	}
	if len(r.AutoTransfers) != 1 {
		t.Fatalf("transfers %+v", r.AutoTransfers)
	}
	at := r.AutoTransfers[0]
	if at.Store != FirstStoreName || at.Product != "Wooden Chair" || at.Quantity != 1 {
		t.Fatalf("transfer %+v", at)
	}
	if g.Player.Stores[0].Quantity(16) != 1 {
		t.Fatalf("primary store did not receive the chair")
	}
	f, _ := g.Factory()
	if f.TotalFinishedGoods() != 0 {
		t.Fatalf("factory kept %d goods", f.TotalFinishedGoods())
	}
}

func TestDividendsAreCreditedAndReported(t *testing.T) {
	g := newTestGame(5000)
	if _, err := g.BuyStock(1, 10); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := g.BuyStock(5, 10); err != nil {
		t.Fatalf("buy: %v", err)
	}
	r := g.AdvanceDay()
	if r.DividendsEarned <= 0 {
		t.Fatalf("no dividends reported")
	}
	h, _ := g.Player.Holding(1)
	if math.Abs(h.TotalDividends-r.DividendsEarned) > 1e-12 {
		t.Fatalf("holding dividends %v report %v", h.TotalDividends, r.DividendsEarned)
	}
	if growth, _ := g.Player.Holding(5); growth.TotalDividends != 0 {
		t.Fatalf("speculative stock paid %v", growth.TotalDividends)
	}
	if len(r.StockChanges) != len(g.Stocks.Stocks) {
		t.Fatalf("stock changes %d", len(r.StockChanges))
	}
	if r.NetProfit != r.TotalRevenue-r.TotalExpenses-r.LoanInterestAccrued {
		t.Fatalf("dividends leaked into net profit")
	}
}

func TestAverageMarkup(t *testing.T) {
	g := NewGameState(nil)
	if got := g.AverageMarkup(); got != DefaultMarkupPercent {
		t.Fatalf("empty markup %v", got)
	}
	g.Store().AddInventory(1, 0, 3)
	g.Store().AddInventory(2, 5, 3.5)
	if got := g.AverageMarkup(); math.Abs(got-25) > 1e-9 {
		t.Fatalf("markup %v want 25", got)
	}
}
