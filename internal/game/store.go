package game

import (
	"fmt"
	"sort"
)

type InventoryItem struct {
	ProductID   int     `json:"product_id"`
	Quantity    int     `json:"quantity"`
	RetailPrice float64 `json:"retail_price"`
}

type Employee struct {
	Name   string  `json:"name"`
	Salary float64 `json:"salary"`
}

type Store struct {
	ID             int                    `json:"id"`
	Name           string                 `json:"name"`
	Inventory      map[int]*InventoryItem `json:"inventory"`
	Employees      []Employee             `json:"employees"`
	DailyCustomers int                    `json:"daily_customers"`
	DailyRent      float64                `json:"daily_rent"`
}

func NewStore(id int, name string) *Store {
	return &Store{
		ID:             id,
		Name:           name,
		Inventory:      map[int]*InventoryItem{},
		Employees:      []Employee{},
		DailyCustomers: BaseDailyCustomers,
		DailyRent:      StoreDailyRent,
	}
}

// AddInventory restocks a product. The retail price only applies to a
// product the store has never carried; restocks keep the current price.
func (s *Store) AddInventory(productID, quantity int, retailPrice float64) {
	if item, ok := s.Inventory[productID]; ok {
		item.Quantity += quantity
		return
	}
	s.Inventory[productID] = &InventoryItem{
		ProductID:   productID,
		Quantity:    quantity,
		RetailPrice: retailPrice,
	}
}

func (s *Store) SetPrice(productID int, price float64) error {
	if price <= 0 {
		return ErrInvalidPrice
	}
	item, ok := s.Inventory[productID]
	if !ok {
		return ErrNotInInventory
	}
	item.RetailPrice = price
	return nil
}

// Sell removes quantity units and returns the revenue at the current price.
func (s *Store) Sell(productID, quantity int) (float64, bool) {
	item, ok := s.Inventory[productID]
	if !ok || quantity <= 0 || item.Quantity < quantity {
		return 0, false
	}
	item.Quantity -= quantity
	return item.RetailPrice * float64(quantity), true
}

func (s *Store) Quantity(productID int) int {
	if item, ok := s.Inventory[productID]; ok {
		return item.Quantity
	}
	return 0
}

func (s *Store) Price(productID int) (float64, bool) {
	item, ok := s.Inventory[productID]
	if !ok {
		return 0, false
	}
	return item.RetailPrice, true
}

// EffectiveCustomers is base traffic plus 20% per employee.
func (s *Store) EffectiveCustomers() int {
	bonus := 1 + EmployeeTrafficBonus*float64(len(s.Employees))
	return int(float64(s.DailyCustomers) * bonus)
}

func (s *Store) HireEmployee(name string) error {
	name, err := validateEntityName(name)
	if err != nil {
		return err
	}
	if len(s.Employees) >= MaxEmployees {
		return fmt.Errorf("%w: maximum of %d employees per store", ErrStaffFull, MaxEmployees)
	}
	s.Employees = append(s.Employees, Employee{Name: name, Salary: EmployeeSalary})
	return nil
}

func (s *Store) FireEmployee(index int) (Employee, error) {
	if len(s.Employees) == 0 {
		return Employee{}, ErrStaffRequired
	}
	if index < 0 || index >= len(s.Employees) {
		return Employee{}, fmt.Errorf("%w: employee %d", ErrInvalidIndex, index)
	}
	emp := s.Employees[index]
	s.Employees = append(s.Employees[:index], s.Employees[index+1:]...)
	return emp, nil
}

func (s *Store) Salaries() float64 {
	total := 0.0
	for _, e := range s.Employees {
		total += e.Salary
	}
	return total
}

func (s *Store) DailyExpenses() float64 {
	return s.DailyRent + s.Salaries()
}

// InventoryValue is stock on hand valued at retail.
func (s *Store) InventoryValue() float64 {
	total := 0.0
	for _, item := range s.Inventory {
		total += item.RetailPrice * float64(item.Quantity)
	}
	return total
}

func (s *Store) TotalItems() int {
	total := 0
	for _, item := range s.Inventory {
		total += item.Quantity
	}
	return total
}

// ProductIDs lists carried products in ascending id order.
func (s *Store) ProductIDs() []int {
	ids := make([]int, 0, len(s.Inventory))
	for id := range s.Inventory {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Store) clone() *Store {
	out := &Store{
		ID:             s.ID,
		Name:           s.Name,
		Inventory:      make(map[int]*InventoryItem, len(s.Inventory)),
		Employees:      append([]Employee{}, s.Employees...),
		DailyCustomers: s.DailyCustomers,
		DailyRent:      s.DailyRent,
	}
	for id, item := range s.Inventory {
		cp := *item
		out.Inventory[id] = &cp
	}
	return out
}
