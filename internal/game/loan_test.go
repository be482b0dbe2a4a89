package game

import (
	"math"
	"testing"
)

func TestLoanPaymentNeverOverdraws(t *testing.T) {
	amounts := []float64{0, -5, 0.5, 250, 1000, 1e9}
	for _, amount := range amounts {
		l := NewFlexibleLoan(1, 1000, 0.08)
		paid := l.MakePayment(amount)
		if l.Balance < 0 {
			t.Fatalf("amount %v: balance went negative (%v)", amount, l.Balance)
		}
		want := math.Max(0, math.Min(amount, 1000))
		if paid != want {
			t.Fatalf("amount %v: paid %v want %v", amount, paid, want)
		}
	}
}

func TestLoanAccrualCompoundsDaily(t *testing.T) {
	l := NewFlexibleLoan(1, 1000, 0.365)
	got := l.AccrueInterest()
	if math.Abs(got-1) > 1e-9 {
		t.Fatalf("interest %v want 1.00", got)
	}
	l.AccrueInterest()
	if math.Abs(l.Balance-1002.001) > 1e-9 {
		t.Fatalf("balance %v want 1002.001", l.Balance)
	}
}

func TestLineOfCreditAutoPayment(t *testing.T) {
	tests := []struct {
		balance float64
		want    float64
	}{
		{balance: 5000, want: 100},
		{balance: 300, want: 10},
		{balance: 4, want: 4},
	}
	for _, tc := range tests {
		l := NewLineOfCredit(1, 1000, 0.07)
		l.Balance = tc.balance
		if got := l.AutoPayment(); got != tc.want {
			t.Fatalf("balance %v: auto payment %v want %v", tc.balance, got, tc.want)
		}
	}
	if got := NewFlexibleLoan(1, 1000, 0.08).AutoPayment(); got != 0 {
		t.Fatalf("flexible loan auto payment %v", got)
	}
}

func TestTermLoanCountdown(t *testing.T) {
	l := NewTermLoan(1, 1000, 0.06, 3)
	if days, ok := l.DueSoon(); !ok || days != 3 {
		t.Fatalf("due soon = %d,%v", days, ok)
	}
	l.DecrementDays()
	l.DecrementDays()
	if l.IsDue() {
		t.Fatalf("due a day early")
	}
	l.DecrementDays()
	if !l.IsDue() {
		t.Fatalf("expected due")
	}
	l.DecrementDays()
	if l.DaysRemaining != 0 {
		t.Fatalf("days went below zero: %d", l.DaysRemaining)
	}
	if _, ok := l.DueSoon(); ok {
		t.Fatalf("due loan should not warn as due soon")
	}
}

func TestTermLoanRate(t *testing.T) {
	tests := []struct {
		base float64
		days int
		want float64
	}{
		{base: 0.06, days: 7, want: 0.06},
		{base: 0.06, days: 14, want: 0.055},
		{base: 0.06, days: 30, want: 0.05},
		{base: 0.015, days: 30, want: 0.01},
	}
	for _, tc := range tests {
		if got := TermLoanRate(tc.base, tc.days); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("TermLoanRate(%v,%d) = %v want %v", tc.base, tc.days, got, tc.want)
		}
	}
}

func TestPlayerLoanPaymentCapsAtCash(t *testing.T) {
	p := NewPlayer(300, "Shop")
	l := p.AddLoan(NewFlexibleLoan(0, 1000, 0.08))
	paid, err := p.MakeLoanPayment(l.ID, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paid != 300 || p.Cash != 0 || l.Balance != 700 {
		t.Fatalf("paid=%v cash=%v balance=%v", paid, p.Cash, l.Balance)
	}
	if _, err := p.MakeLoanPayment(99, 1); err == nil {
		t.Fatalf("expected unknown loan error")
	}
}
