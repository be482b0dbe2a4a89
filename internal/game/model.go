package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	StartingCash   = 1_000.0
	FirstStoreName = "My First Store"
	FirstDay       = 1

	NewStoreCost   = 5_000.0
	NewFactoryCost = 10_000.0

	BaseDailyCustomers   = 50
	StoreDailyRent       = 100.0
	EmployeeSalary       = 50.0
	MaxEmployees         = 3
	EmployeeTrafficBonus = 0.20

	FactoryDailyRent    = 150.0
	WorkerSalary        = 75.0
	MaxWorkers          = 3
	BaseProductionSlots = 2

	DefaultMarkupPercent = 50.0

	MinLoanAmount      = 500.0
	MaxLoanAmount      = 25_000.0
	MaxTotalDebt       = 50_000.0
	TermDefaultPenalty = 0.25

	maxNameLength = 40
)

var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInvalidQuantity       = errors.New("quantity must be greater than 0")
	ErrInvalidPrice          = errors.New("price must be positive")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidName           = errors.New("invalid name")
	ErrInvalidIndex          = errors.New("invalid index")
	ErrProductNotFound       = errors.New("product not found")
	ErrNotInInventory        = errors.New("product not in inventory")
	ErrNotRawMaterial        = errors.New("product is not a raw material")
	ErrNotRetail             = errors.New("raw materials cannot be stocked in a store")
	ErrRecipeNotFound        = errors.New("recipe not found")
	ErrNoFactory             = errors.New("no factory selected")
	ErrNoSlots               = errors.New("no available production slots")
	ErrInsufficientMaterials = errors.New("insufficient raw materials")
	ErrNoFinishedGoods       = errors.New("no finished goods of this type")
	ErrNotConnected          = errors.New("factory is not connected to store")
	ErrStaffFull             = errors.New("staff limit reached")
	ErrStaffRequired         = errors.New("no staff to let go")
	ErrSlotsInUse            = errors.New("production slots in use")
	ErrLoanLimit             = errors.New("loan amount outside limits")
	ErrDebtLimit             = errors.New("debt limit exceeded")
	ErrInvalidTerm           = errors.New("invalid loan term")
	ErrLoanNotFound          = errors.New("loan not found")
	ErrStockNotFound         = errors.New("stock not found")
	ErrInsufficientShares    = errors.New("insufficient shares")
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionLimit          = errors.New("session limit reached")
	ErrUnknownAction         = errors.New("unknown action")
	ErrDuplicateCommand      = errors.New("duplicate idempotency key")
)

// RoundCents rounds a dollar amount to whole cents.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func validateEntityName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", ErrInvalidName, maxNameLength)
	}
	return name, nil
}

func insufficientFunds(need, have float64) error {
	return fmt.Errorf("%w: need $%.2f, have $%.2f", ErrInsufficientFunds, need, have)
}
