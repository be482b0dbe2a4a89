package game

import (
	"errors"
	"math"
	"testing"
)

func newTestGame(cash float64) *GameState {
	g := NewGameState(nil)
	g.Player.Cash = cash
	return g
}

func TestBuyInventoryConservesCash(t *testing.T) {
	g := newTestGame(1000)
	w, _ := g.Market.WholesalePrice(1)

	for i := 0; i < 2; i++ {
		before := g.Player.Cash
		qty := g.Store().Quantity(1)
		r, err := g.BuyInventory(1, 25)
		if err != nil {
			t.Fatalf("buy %d: %v", i, err)
		}
		if math.Abs(before-g.Player.Cash-25*w) > 1e-9 || r.Cost != 25*w {
			t.Fatalf("buy %d: cash moved %v want %v", i, before-g.Player.Cash, 25*w)
		}
		if got := g.Store().Quantity(1); got != qty+25 {
			t.Fatalf("buy %d: quantity %d want %d", i, got, qty+25)
		}
	}
	if p, _ := g.Store().Price(1); math.Abs(p-w*1.5) > 1e-9 {
		t.Fatalf("new line priced %v want %v", p, w*1.5)
	}
}

func TestBuyInventoryRejectsWithoutSideEffects(t *testing.T) {
	tests := []struct {
		name    string
		product int
		qty     int
		want    error
	}{
		{name: "zero quantity", product: 1, qty: 0, want: ErrInvalidQuantity},
		{name: "unknown product", product: 999, qty: 1, want: ErrProductNotFound},
		{name: "raw material", product: 11, qty: 1, want: ErrNotRetail},
		{name: "too expensive", product: 21, qty: 100, want: ErrInsufficientFunds},
	}
	for _, tc := range tests {
		g := newTestGame(1000)
		_, err := g.BuyInventory(tc.product, tc.qty)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, err, tc.want)
		}
		if g.Player.Cash != 1000 || g.Store().TotalItems() != 0 {
			t.Fatalf("%s: state changed (cash=%v items=%d)", tc.name, g.Player.Cash, g.Store().TotalItems())
		}
	}
}

func TestSetRetailPrice(t *testing.T) {
	g := newTestGame(1000)
	if _, err := g.SetRetailPrice(1, 2.5); !errors.Is(err, ErrNotInInventory) {
		t.Fatalf("got %v want ErrNotInInventory", err)
	}
	if _, err := g.BuyInventory(1, 10); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := g.SetRetailPrice(1, -1); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("got %v want ErrInvalidPrice", err)
	}
	if _, err := g.SetRetailPrice(1, 2.75); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if p, _ := g.Store().Price(1); p != 2.75 {
		t.Fatalf("price %v want 2.75", p)
	}
}

func TestStoresAndCursor(t *testing.T) {
	g := newTestGame(6000)
	r, err := g.BuyNewStore("Uptown")
	if err != nil {
		t.Fatalf("buy store: %v", err)
	}
	if r.ID != 2 || g.Player.Cash != 1000 {
		t.Fatalf("store id %d cash %v", r.ID, g.Player.Cash)
	}
	if len(r.Events) != 1 {
		t.Fatalf("expected one rival reaction, got %v", r.Events)
	}
	if g.CurrentStore != 0 {
		t.Fatalf("buying a store moved the cursor")
	}
	if _, err := g.SwitchStore(1); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if g.Store().Name != "Uptown" {
		t.Fatalf("current store %q", g.Store().Name)
	}
	if _, err := g.SwitchStore(2); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("got %v want ErrInvalidIndex", err)
	}
	if _, err := g.BuyNewStore("Again"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v want ErrInsufficientFunds", err)
	}
}

func TestFactoryCommandsNeedAFactory(t *testing.T) {
	g := newTestGame(1000)
	checks := []func() error{
		func() error { _, err := g.BuyRawMaterials(11, 1); return err },
		func() error { _, err := g.StartProduction(1, 1); return err },
		func() error { _, err := g.ConnectFactoryToStore(0); return err },
		func() error { _, err := g.ToggleAutoTransfer(); return err },
		func() error { _, err := g.HireWorker("Bo"); return err },
	}
	for i, check := range checks {
		if err := check(); !errors.Is(err, ErrNoFactory) {
			t.Fatalf("check %d: got %v want ErrNoFactory", i, err)
		}
	}
}

func TestProductionAndManualTransfer(t *testing.T) {
	g := newTestGame(20_000)
	if _, err := g.BuyNewFactory("Works"); err != nil {
		t.Fatalf("buy factory: %v", err)
	}
	if g.CurrentFactory != 0 {
		t.Fatalf("first factory not selected")
	}
	if _, err := g.BuyRawMaterials(1, 1); !errors.Is(err, ErrNotRawMaterial) {
		t.Fatalf("got %v want ErrNotRawMaterial", err)
	}
	if _, err := g.BuyRawMaterials(11, 6); err != nil {
		t.Fatalf("buy lumber: %v", err)
	}
	if n, _ := g.MaxProducible(1); n != 2 {
		t.Fatalf("max producible %d want 2", n)
	}
	r, err := g.StartProduction(1, 5)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if r.Quantity != 2 {
		t.Fatalf("started %d want 2", r.Quantity)
	}

	g.AdvanceDay()
	f, _ := g.Factory()
	if f.FinishedGood(16) != 2 {
		t.Fatalf("chairs %d want 2", f.FinishedGood(16))
	}

	if _, err := g.TransferToStore(16, 1, 0); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("got %v want ErrNotConnected", err)
	}
	if _, err := g.ConnectFactoryToStore(0); err != nil {
		t.Fatalf("connect: %v", err)
	}
	moved, err := g.TransferToStore(16, 5, 0)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if moved.Quantity != 2 || g.Store().Quantity(16) != 2 {
		t.Fatalf("moved %d, store holds %d", moved.Quantity, g.Store().Quantity(16))
	}
	if p, _ := g.Store().Price(16); p != 60 {
		t.Fatalf("chair priced %v want 60", p)
	}
	if _, err := g.TransferToStore(16, 1, 0); !errors.Is(err, ErrNoFinishedGoods) {
		t.Fatalf("got %v want ErrNoFinishedGoods", err)
	}
}

func TestLoanLimits(t *testing.T) {
	g := newTestGame(1000)
	if _, err := g.TakeFlexibleLoan(100); !errors.Is(err, ErrLoanLimit) {
		t.Fatalf("got %v want ErrLoanLimit", err)
	}
	if _, err := g.TakeFlexibleLoan(30_000); !errors.Is(err, ErrLoanLimit) {
		t.Fatalf("got %v want ErrLoanLimit", err)
	}
	if _, err := g.TakeTermLoan(1000, 10); !errors.Is(err, ErrInvalidTerm) {
		t.Fatalf("got %v want ErrInvalidTerm", err)
	}
	if _, err := g.TakeFlexibleLoan(25_000); err != nil {
		t.Fatalf("first loan: %v", err)
	}
	if _, err := g.TakeLineOfCredit(25_000); err != nil {
		t.Fatalf("second loan: %v", err)
	}
	if _, err := g.TakeTermLoan(500, 7); !errors.Is(err, ErrDebtLimit) {
		t.Fatalf("got %v want ErrDebtLimit", err)
	}
	if g.Player.Cash != 51_000 || len(g.Player.Loans) != 2 {
		t.Fatalf("cash %v loans %d", g.Player.Cash, len(g.Player.Loans))
	}
}

func TestLoanRateUsesEconomy(t *testing.T) {
	g := newTestGame(1000)
	g.Market.State = EconomyRecession
	r, err := g.TakeTermLoan(1000, 30)
	if err != nil {
		t.Fatalf("term loan: %v", err)
	}
	l, _ := g.Player.Loan(r.ID)
	if math.Abs(l.InterestRate-0.09) > 1e-12 {
		t.Fatalf("rate %v want 0.09", l.InterestRate)
	}
}

func TestMakeLoanPayment(t *testing.T) {
	g := newTestGame(0)
	r, _ := g.TakeFlexibleLoan(1000)
	if _, err := g.MakeLoanPayment(r.ID, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("got %v want ErrInvalidAmount", err)
	}
	if _, err := g.MakeLoanPayment(r.ID, 1500); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v want ErrInsufficientFunds", err)
	}
	if _, err := g.MakeLoanPayment(42, 10); !errors.Is(err, ErrLoanNotFound) {
		t.Fatalf("got %v want ErrLoanNotFound", err)
	}
	g.Player.Cash = 2000
	paid, err := g.MakeLoanPayment(r.ID, 1500)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.Cost != 1000 || g.Player.Cash != 1000 || len(g.Player.Loans) != 0 {
		t.Fatalf("paid %v cash %v loans %d", paid.Cost, g.Player.Cash, len(g.Player.Loans))
	}
}

func TestStockTrades(t *testing.T) {
	g := newTestGame(1000)
	if _, err := g.BuyStock(1, 11); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v want ErrInsufficientFunds", err)
	}
	if _, err := g.BuyStock(1, 5); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := g.SellStock(1, 6); !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("got %v want ErrInsufficientShares", err)
	}
	if _, err := g.SellStock(2, 1); !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("got %v want ErrInsufficientShares", err)
	}
	r, err := g.SellStock(1, 5)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if r.Proceeds != 500 || g.Player.Cash != 1000 {
		t.Fatalf("proceeds %v cash %v", r.Proceeds, g.Player.Cash)
	}
	if _, ok := g.Player.Holding(1); ok {
		t.Fatalf("empty holding kept")
	}
	if _, err := g.BuyStock(99, 1); !errors.Is(err, ErrStockNotFound) {
		t.Fatalf("got %v want ErrStockNotFound", err)
	}
}

func TestApplyDispatches(t *testing.T) {
	g := newTestGame(1000)
	r, err := g.Apply(Command{Action: ActionBuyInventory, ProductID: 2, Quantity: 4})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if r.Action != ActionBuyInventory || g.Store().Quantity(2) != 4 {
		t.Fatalf("receipt %+v quantity %d", r, g.Store().Quantity(2))
	}
	if _, err := g.Apply(Command{Action: "teleport"}); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("got %v want ErrUnknownAction", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := newTestGame(1000)
	_, _ = g.BuyInventory(1, 10)
	c := g.Clone()
	_, _ = c.BuyInventory(1, 10)
	c.AdvanceDay()
	if g.Store().Quantity(1) != 10 || g.Day != FirstDay {
		t.Fatalf("clone leaked into original: qty=%d day=%d", g.Store().Quantity(1), g.Day)
	}
}
