package game

import (
	"errors"
	"testing"
)

func chairRecipe(t *testing.T) Recipe {
	t.Helper()
	r, ok := DefaultCatalog().Recipe(1)
	if !ok {
		t.Fatalf("chair recipe missing")
	}
	return r
}

func TestStartProductionBatchIsSlotLimited(t *testing.T) {
	r := chairRecipe(t)
	f := NewFactory(1, "Works")
	f.AddRawMaterial(11, 6)

	started, err := f.StartProductionBatch(r, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if started != 2 {
		t.Fatalf("started %d want 2", started)
	}
	if f.AvailableSlots() != 0 {
		t.Fatalf("available slots %d want 0", f.AvailableSlots())
	}
	if got := f.RawMaterial(11); got != 2 {
		t.Fatalf("lumber left %d want 2", got)
	}

	if _, err := f.StartProductionBatch(r, 1); !errors.Is(err, ErrNoSlots) {
		t.Fatalf("got %v want ErrNoSlots", err)
	}

	done := f.AdvanceProduction()
	if len(done) != 2 {
		t.Fatalf("completed %d jobs want 2", len(done))
	}
	if got := f.FinishedGood(16); got != 2 {
		t.Fatalf("chairs %d want 2", got)
	}
	if len(f.Queue) != 0 {
		t.Fatalf("queue still holds %d jobs", len(f.Queue))
	}
}

func TestStartProductionBatchValidatesBeforeDebit(t *testing.T) {
	r := chairRecipe(t)
	f := NewFactory(1, "Works")
	f.AddRawMaterial(11, 1)

	if _, err := f.StartProductionBatch(r, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("got %v want ErrInvalidQuantity", err)
	}
	if _, err := f.StartProductionBatch(r, 1); !errors.Is(err, ErrInsufficientMaterials) {
		t.Fatalf("got %v want ErrInsufficientMaterials", err)
	}
	if f.RawMaterial(11) != 1 || len(f.Queue) != 0 {
		t.Fatalf("failed start mutated the factory: lumber=%d queue=%d", f.RawMaterial(11), len(f.Queue))
	}
	missing := f.MissingIngredients(r)
	if len(missing) != 1 || missing[0].ProductID != 11 || missing[0].Missing != 1 {
		t.Fatalf("missing = %+v", missing)
	}
}

func TestQueueNeverExceedsSlots(t *testing.T) {
	r := chairRecipe(t)
	f := NewFactory(1, "Works")
	f.AddRawMaterial(11, 1000)

	ops := []string{"hire", "start", "hire", "start", "fire", "start", "hire", "hire", "start", "fire", "fire", "fire", "advance", "fire", "start", "fire"}
	for i, op := range ops {
		switch op {
		case "hire":
			_ = f.HireWorker("w")
		case "fire":
			_, _ = f.FireWorker(0)
		case "start":
			_, _ = f.StartProductionBatch(r, 10)
		case "advance":
			f.AdvanceProduction()
		}
		if len(f.Queue) > f.ProductionSlots() {
			t.Fatalf("step %d (%s): queue %d exceeds slots %d", i, op, len(f.Queue), f.ProductionSlots())
		}
	}
}

func TestFireWorkerRejectsWhenSlotsBusy(t *testing.T) {
	r := chairRecipe(t)
	f := NewFactory(1, "Works")
	if err := f.HireWorker("Ada"); err != nil {
		t.Fatalf("hire: %v", err)
	}
	f.AddRawMaterial(11, 6)
	if n, err := f.StartProductionBatch(r, 3); err != nil || n != 3 {
		t.Fatalf("start: n=%d err=%v", n, err)
	}
	if _, err := f.FireWorker(0); !errors.Is(err, ErrSlotsInUse) {
		t.Fatalf("got %v want ErrSlotsInUse", err)
	}
	if len(f.Workers) != 1 {
		t.Fatalf("worker was removed")
	}
}

func TestWorkerCap(t *testing.T) {
	f := NewFactory(1, "Works")
	for i := 0; i < MaxWorkers; i++ {
		if err := f.HireWorker("w"); err != nil {
			t.Fatalf("hire %d: %v", i, err)
		}
	}
	if err := f.HireWorker("w"); !errors.Is(err, ErrStaffFull) {
		t.Fatalf("got %v want ErrStaffFull", err)
	}
	if f.ProductionSlots() != 5 {
		t.Fatalf("slots %d want 5", f.ProductionSlots())
	}
}

func TestPrimaryStoreIsLowestID(t *testing.T) {
	f := NewFactory(1, "Works")
	f.ConnectStore(7)
	f.ConnectStore(3)
	f.ConnectStore(5)
	f.ConnectStore(3)
	if id, ok := f.PrimaryStore(); !ok || id != 3 {
		t.Fatalf("primary = %d,%v want 3", id, ok)
	}
	f.DisconnectStore(3)
	if id, _ := f.PrimaryStore(); id != 5 {
		t.Fatalf("primary after disconnect = %d want 5", id)
	}
	if len(f.ConnectedStores) != 2 {
		t.Fatalf("connected = %v", f.ConnectedStores)
	}
}

func TestTakeFinishedGoodsCapsAtStock(t *testing.T) {
	f := NewFactory(1, "Works")
	f.FinishedGoods[16] = 3
	got, err := f.TakeFinishedGoods(16, 10)
	if err != nil || got != 3 {
		t.Fatalf("took %d err %v want 3", got, err)
	}
	if _, err := f.TakeFinishedGoods(16, 1); !errors.Is(err, ErrNoFinishedGoods) {
		t.Fatalf("got %v want ErrNoFinishedGoods", err)
	}
}

func TestStoreInventoryAndStaff(t *testing.T) {
	s := NewStore(1, "Corner")
	s.AddInventory(1, 10, 3)
	s.AddInventory(1, 5, 99)
	if s.Quantity(1) != 15 {
		t.Fatalf("quantity %d want 15", s.Quantity(1))
	}
	if p, _ := s.Price(1); p != 3 {
		t.Fatalf("restock changed price to %v", p)
	}
	if err := s.SetPrice(2, 4); !errors.Is(err, ErrNotInInventory) {
		t.Fatalf("got %v want ErrNotInInventory", err)
	}
	if err := s.SetPrice(1, 0); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("got %v want ErrInvalidPrice", err)
	}

	if s.EffectiveCustomers() != 50 {
		t.Fatalf("customers %d want 50", s.EffectiveCustomers())
	}
	_ = s.HireEmployee("A")
	_ = s.HireEmployee("B")
	if s.EffectiveCustomers() != 70 {
		t.Fatalf("customers %d want 70", s.EffectiveCustomers())
	}
	if s.DailyExpenses() != 200 {
		t.Fatalf("expenses %v want 200", s.DailyExpenses())
	}
	if _, err := s.FireEmployee(5); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("got %v want ErrInvalidIndex", err)
	}
}
