package game

import (
	"fmt"
	"math"
)

type LoanType int

const (
	LoanFlexible LoanType = iota
	LoanLineOfCredit
	LoanTerm
)

func (t LoanType) RateModifier() float64 {
	switch t {
	case LoanFlexible:
		return 0.02
	case LoanLineOfCredit:
		return 0.01
	default:
		return 0
	}
}

func (t LoanType) String() string {
	switch t {
	case LoanFlexible:
		return "Flexible Loan"
	case LoanLineOfCredit:
		return "Line of Credit"
	case LoanTerm:
		return "Term Loan"
	}
	return fmt.Sprintf("LoanType(%d)", int(t))
}

func (t LoanType) Description() string {
	switch t {
	case LoanFlexible:
		return "Manual payments, pay any amount anytime"
	case LoanLineOfCredit:
		return "Auto-deduct 2% of balance daily (min $10)"
	case LoanTerm:
		return "Full amount due at end of term"
	}
	return ""
}

func (t LoanType) MarshalText() ([]byte, error) {
	switch t {
	case LoanFlexible:
		return []byte("flexible"), nil
	case LoanLineOfCredit:
		return []byte("line_of_credit"), nil
	case LoanTerm:
		return []byte("term"), nil
	}
	return nil, fmt.Errorf("unknown loan type %d", int(t))
}

func (t *LoanType) UnmarshalText(text []byte) error {
	parsed, err := ParseLoanType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func ParseLoanType(s string) (LoanType, error) {
	switch normalizeKey(s) {
	case "flexible", "flexibleloan":
		return LoanFlexible, nil
	case "lineofcredit", "loc", "credit":
		return LoanLineOfCredit, nil
	case "term", "termloan":
		return LoanTerm, nil
	}
	return 0, fmt.Errorf("unknown loan type %q", s)
}

// TermLoanRate discounts longer terms off the base rate, floored at 1%.
func TermLoanRate(rate float64, days int) float64 {
	switch days {
	case 14:
		rate -= 0.005
	case 30:
		rate -= 0.01
	}
	return math.Max(rate, 0.01)
}

func validTermDays(days int) bool {
	return days == 7 || days == 14 || days == 30
}

type Loan struct {
	ID            int      `json:"id"`
	Type          LoanType `json:"type"`
	Principal     float64  `json:"principal"`
	Balance       float64  `json:"balance"`
	InterestRate  float64  `json:"interest_rate"`
	DaysRemaining int      `json:"days_remaining,omitempty"`
	DailyPayment  float64  `json:"daily_payment,omitempty"`
}

func NewFlexibleLoan(id int, amount, annualRate float64) *Loan {
	return &Loan{ID: id, Type: LoanFlexible, Principal: amount, Balance: amount, InterestRate: annualRate}
}

func NewLineOfCredit(id int, amount, annualRate float64) *Loan {
	return &Loan{
		ID:           id,
		Type:         LoanLineOfCredit,
		Principal:    amount,
		Balance:      amount,
		InterestRate: annualRate,
		DailyPayment: math.Max(amount*0.02, 10),
	}
}

func NewTermLoan(id int, amount, annualRate float64, days int) *Loan {
	return &Loan{
		ID:            id,
		Type:          LoanTerm,
		Principal:     amount,
		Balance:       amount,
		InterestRate:  annualRate,
		DaysRemaining: days,
	}
}

func (l *Loan) DailyRate() float64 {
	return l.InterestRate / 365
}

// AccrueInterest compounds one day of interest and returns the amount added.
func (l *Loan) AccrueInterest() float64 {
	interest := l.Balance * l.DailyRate()
	l.Balance += interest
	return interest
}

// MakePayment applies at most the outstanding balance and returns what was paid.
func (l *Loan) MakePayment(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	paid := math.Min(amount, l.Balance)
	l.Balance -= paid
	if l.Balance < 0 {
		l.Balance = 0
	}
	return paid
}

func (l *Loan) IsDue() bool {
	return l.Type == LoanTerm && l.DaysRemaining == 0
}

// DueSoon reports a term loan maturing within 1 to 3 days.
func (l *Loan) DueSoon() (int, bool) {
	if l.Type != LoanTerm {
		return 0, false
	}
	if l.DaysRemaining >= 1 && l.DaysRemaining <= 3 {
		return l.DaysRemaining, true
	}
	return 0, false
}

func (l *Loan) DecrementDays() {
	if l.Type == LoanTerm && l.DaysRemaining > 0 {
		l.DaysRemaining--
	}
}

func (l *Loan) IsPaidOff() bool {
	return l.Balance < 0.01
}

// AutoPayment is the line-of-credit daily draw: 2% of balance, at least $10,
// never more than the balance.
func (l *Loan) AutoPayment() float64 {
	if l.Type != LoanLineOfCredit {
		return 0
	}
	return math.Min(math.Max(l.Balance*0.02, 10), l.Balance)
}

func (l *Loan) DefaultPenalty() float64 {
	return l.Balance * TermDefaultPenalty
}

func (l *Loan) DisplayRate() string {
	return fmt.Sprintf("%.1f%% APR", l.InterestRate*100)
}
