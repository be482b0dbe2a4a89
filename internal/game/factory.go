package game

import (
	"fmt"
	"sort"
)

type ProductionJob struct {
	RecipeID        int    `json:"recipe_id"`
	RecipeName      string `json:"recipe_name"`
	DaysRemaining   int    `json:"days_remaining"`
	OutputProductID int    `json:"output_product_id"`
	OutputQuantity  int    `json:"output_quantity"`
}

func newProductionJob(r Recipe) ProductionJob {
	return ProductionJob{
		RecipeID:        r.ID,
		RecipeName:      r.Name,
		DaysRemaining:   r.ProductionDays,
		OutputProductID: r.OutputProductID,
		OutputQuantity:  r.OutputQuantity,
	}
}

type Worker struct {
	Name   string  `json:"name"`
	Salary float64 `json:"salary"`
}

type ProductionResult struct {
	Factory    string `json:"factory,omitempty"`
	RecipeName string `json:"recipe_name"`
	ProductID  int    `json:"product_id"`
	Quantity   int    `json:"quantity"`
}

// Shortfall is how many more units of a raw material a recipe needs.
type Shortfall struct {
	ProductID int `json:"product_id"`
	Missing   int `json:"missing"`
}

type Factory struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	RawMaterials    map[int]int     `json:"raw_materials"`
	FinishedGoods   map[int]int     `json:"finished_goods"`
	Queue           []ProductionJob `json:"production_queue"`
	Workers         []Worker        `json:"workers"`
	DailyRent       float64         `json:"daily_rent"`
	ConnectedStores []int           `json:"connected_stores"`
	AutoTransfer    bool            `json:"auto_transfer"`
}

func NewFactory(id int, name string) *Factory {
	return &Factory{
		ID:              id,
		Name:            name,
		RawMaterials:    map[int]int{},
		FinishedGoods:   map[int]int{},
		Queue:           []ProductionJob{},
		Workers:         []Worker{},
		DailyRent:       FactoryDailyRent,
		ConnectedStores: []int{},
	}
}

// ProductionSlots is how many jobs may be queued at once.
func (f *Factory) ProductionSlots() int {
	return BaseProductionSlots + len(f.Workers)
}

func (f *Factory) ActiveJobs() int {
	return len(f.Queue)
}

func (f *Factory) AvailableSlots() int {
	free := f.ProductionSlots() - len(f.Queue)
	if free < 0 {
		return 0
	}
	return free
}

func (f *Factory) AddRawMaterial(productID, quantity int) {
	f.RawMaterials[productID] += quantity
}

func (f *Factory) RawMaterial(productID int) int {
	return f.RawMaterials[productID]
}

func (f *Factory) FinishedGood(productID int) int {
	return f.FinishedGoods[productID]
}

func (f *Factory) HasIngredients(r Recipe) bool {
	for _, ing := range r.Ingredients {
		if f.RawMaterials[ing.ProductID] < ing.Quantity {
			return false
		}
	}
	return true
}

func (f *Factory) MissingIngredients(r Recipe) []Shortfall {
	var out []Shortfall
	for _, ing := range r.Ingredients {
		have := f.RawMaterials[ing.ProductID]
		if have < ing.Quantity {
			out = append(out, Shortfall{ProductID: ing.ProductID, Missing: ing.Quantity - have})
		}
	}
	return out
}

// MaxProducible is the number of jobs of r that could start right now,
// bounded by free slots and by the scarcest ingredient.
func (f *Factory) MaxProducible(r Recipe) int {
	limit := f.AvailableSlots()
	for _, ing := range r.Ingredients {
		if ing.Quantity <= 0 {
			continue
		}
		if n := f.RawMaterials[ing.ProductID] / ing.Quantity; n < limit {
			limit = n
		}
	}
	return limit
}

func (f *Factory) StartProduction(r Recipe) error {
	_, err := f.StartProductionBatch(r, 1)
	return err
}

// StartProductionBatch queues up to quantity jobs of r and returns how many
// actually started. Ingredients for every started job are debited up front.
func (f *Factory) StartProductionBatch(r Recipe, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	if f.AvailableSlots() == 0 {
		return 0, ErrNoSlots
	}
	limit := f.MaxProducible(r)
	if limit == 0 {
		return 0, ErrInsufficientMaterials
	}
	actual := quantity
	if actual > limit {
		actual = limit
	}
	for _, ing := range r.Ingredients {
		f.RawMaterials[ing.ProductID] -= ing.Quantity * actual
		if f.RawMaterials[ing.ProductID] == 0 {
			delete(f.RawMaterials, ing.ProductID)
		}
	}
	for i := 0; i < actual; i++ {
		f.Queue = append(f.Queue, newProductionJob(r))
	}
	return actual, nil
}

// AdvanceProduction moves every job one day forward and returns the jobs
// that finished, whose output is now in FinishedGoods.
func (f *Factory) AdvanceProduction() []ProductionResult {
	var done []ProductionResult
	remaining := f.Queue[:0]
	for _, job := range f.Queue {
		if job.DaysRemaining > 0 {
			job.DaysRemaining--
		}
		if job.DaysRemaining == 0 {
			f.FinishedGoods[job.OutputProductID] += job.OutputQuantity
			done = append(done, ProductionResult{
				RecipeName: job.RecipeName,
				ProductID:  job.OutputProductID,
				Quantity:   job.OutputQuantity,
			})
			continue
		}
		remaining = append(remaining, job)
	}
	f.Queue = remaining
	return done
}

// TakeFinishedGoods removes up to quantity units and reports how many were taken.
func (f *Factory) TakeFinishedGoods(productID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	have := f.FinishedGoods[productID]
	if have == 0 {
		return 0, ErrNoFinishedGoods
	}
	taken := quantity
	if taken > have {
		taken = have
	}
	if have-taken == 0 {
		delete(f.FinishedGoods, productID)
	} else {
		f.FinishedGoods[productID] = have - taken
	}
	return taken, nil
}

func (f *Factory) Salaries() float64 {
	total := 0.0
	for _, w := range f.Workers {
		total += w.Salary
	}
	return total
}

func (f *Factory) DailyExpenses() float64 {
	return f.DailyRent + f.Salaries()
}

func (f *Factory) HireWorker(name string) error {
	name, err := validateEntityName(name)
	if err != nil {
		return err
	}
	if len(f.Workers) >= MaxWorkers {
		return fmt.Errorf("%w: maximum of %d workers per factory", ErrStaffFull, MaxWorkers)
	}
	f.Workers = append(f.Workers, Worker{Name: name, Salary: WorkerSalary})
	return nil
}

// FireWorker refuses to drop below the slots the current queue occupies.
func (f *Factory) FireWorker(index int) (Worker, error) {
	if len(f.Workers) == 0 {
		return Worker{}, ErrStaffRequired
	}
	if index < 0 || index >= len(f.Workers) {
		return Worker{}, fmt.Errorf("%w: worker %d", ErrInvalidIndex, index)
	}
	if len(f.Queue) > f.ProductionSlots()-1 {
		return Worker{}, fmt.Errorf("%w: %d jobs running on %d slots", ErrSlotsInUse, len(f.Queue), f.ProductionSlots())
	}
	w := f.Workers[index]
	f.Workers = append(f.Workers[:index], f.Workers[index+1:]...)
	return w, nil
}

func (f *Factory) ConnectStore(storeID int) {
	if f.IsConnectedTo(storeID) {
		return
	}
	f.ConnectedStores = append(f.ConnectedStores, storeID)
	sort.Ints(f.ConnectedStores)
}

func (f *Factory) DisconnectStore(storeID int) {
	for i, id := range f.ConnectedStores {
		if id == storeID {
			f.ConnectedStores = append(f.ConnectedStores[:i], f.ConnectedStores[i+1:]...)
			return
		}
	}
}

func (f *Factory) IsConnectedTo(storeID int) bool {
	for _, id := range f.ConnectedStores {
		if id == storeID {
			return true
		}
	}
	return false
}

// PrimaryStore is the lowest connected store id, the auto-transfer target.
func (f *Factory) PrimaryStore() (int, bool) {
	if len(f.ConnectedStores) == 0 {
		return 0, false
	}
	return f.ConnectedStores[0], true
}

func (f *Factory) ToggleAutoTransfer() bool {
	f.AutoTransfer = !f.AutoTransfer
	return f.AutoTransfer
}

func (f *Factory) TotalRawMaterials() int {
	total := 0
	for _, n := range f.RawMaterials {
		total += n
	}
	return total
}

func (f *Factory) TotalFinishedGoods() int {
	total := 0
	for _, n := range f.FinishedGoods {
		total += n
	}
	return total
}

func (f *Factory) finishedGoodIDs() []int {
	ids := make([]int, 0, len(f.FinishedGoods))
	for id := range f.FinishedGoods {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (f *Factory) clone() *Factory {
	out := &Factory{
		ID:              f.ID,
		Name:            f.Name,
		RawMaterials:    make(map[int]int, len(f.RawMaterials)),
		FinishedGoods:   make(map[int]int, len(f.FinishedGoods)),
		Queue:           append([]ProductionJob{}, f.Queue...),
		Workers:         append([]Worker{}, f.Workers...),
		DailyRent:       f.DailyRent,
		ConnectedStores: append([]int{}, f.ConnectedStores...),
		AutoTransfer:    f.AutoTransfer,
	}
	for k, v := range f.RawMaterials {
		out.RawMaterials[k] = v
	}
	for k, v := range f.FinishedGoods {
		out.FinishedGoods[k] = v
	}
	return out
}
