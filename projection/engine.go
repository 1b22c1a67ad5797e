package projection

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidWeeks is returned when the projection length is below one week
	ErrInvalidWeeks = errors.New("projection length must be at least 1 week")

	// ErrInvalidFrequency is returned when a recurring cash flow has a frequency below one week
	ErrInvalidFrequency = errors.New("frequency must be at least 1 week")

	// ErrNonFinite is returned when a numeric input is NaN or infinite
	ErrNonFinite = errors.New("value must be a finite number")
)

// Recurring is a cash flow applied every EveryWeeks weeks
type Recurring struct {
	Amount     float64
	EveryWeeks int
}

// appliesIn reports whether the cash flow lands in the given week
func (r *Recurring) appliesIn(week int) bool {
	return r != nil && week%r.EveryWeeks == 0
}

// Params holds the inputs of a weekly projection
type Params struct {
	Principal     float64
	WeeklyRatePct float64
	Weeks         int
	TaxRatePct    float64

	// Deposit and Withdrawal are disabled when nil
	Deposit    *Recurring
	Withdrawal *Recurring
}

// Week is one projected week
type Week struct {
	Week             int
	BeginningBalance float64
	Interest         float64
	Profit           float64
	TaxDeduction     float64
	Deposit          float64
	Withdrawal       float64
	EndingBalance    float64
}

type namedValue struct {
	name  string
	value float64
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks the inputs the recurrence cannot handle.
// Signs are not checked here.
func (p Params) Validate() error {
	if p.Weeks < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWeeks, p.Weeks)
	}

	numbers := []namedValue{
		{"principal", p.Principal},
		{"weekly_rate_pct", p.WeeklyRatePct},
		{"tax_rate_pct", p.TaxRatePct},
	}
	if p.Deposit != nil {
		numbers = append(numbers, namedValue{"deposit_amount", p.Deposit.Amount})
	}
	if p.Withdrawal != nil {
		numbers = append(numbers, namedValue{"withdrawal_amount", p.Withdrawal.Amount})
	}
	for _, n := range numbers {
		if !isFinite(n.value) {
			return fmt.Errorf("%s: %w", n.name, ErrNonFinite)
		}
	}

	if p.Deposit != nil && p.Deposit.EveryWeeks < 1 {
		return fmt.Errorf("deposit: %w: got %d", ErrInvalidFrequency, p.Deposit.EveryWeeks)
	}
	if p.Withdrawal != nil && p.Withdrawal.EveryWeeks < 1 {
		return fmt.Errorf("withdrawal: %w: got %d", ErrInvalidFrequency, p.Withdrawal.EveryWeeks)
	}

	return nil
}

// Project runs the weekly recurrence and returns exactly p.Weeks rows
func Project(p Params) ([]Week, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rate := p.WeeklyRatePct / 100
	taxRate := p.TaxRatePct / 100

	weeks := make([]Week, 0, p.Weeks)
	balance := p.Principal

	for week := 1; week <= p.Weeks; week++ {
		interest := balance * rate
		// Interest is the only profit source for now
		profit := interest

		var tax float64
		if taxRate != 0 {
			tax = profit * taxRate
		}

		var deposit, withdrawal float64
		if p.Deposit.appliesIn(week) {
			deposit = p.Deposit.Amount
		}
		if p.Withdrawal.appliesIn(week) {
			withdrawal = p.Withdrawal.Amount
		}

		ending := balance + deposit + profit - withdrawal - tax
		if !isFinite(ending) {
			return nil, fmt.Errorf("ending balance overflowed in week %d: %w", week, ErrNonFinite)
		}

		weeks = append(weeks, Week{
			Week:             week,
			BeginningBalance: balance,
			Interest:         interest,
			Profit:           profit,
			TaxDeduction:     tax,
			Deposit:          deposit,
			Withdrawal:       withdrawal,
			EndingBalance:    ending,
		})

		balance = ending
	}

	return weeks, nil
}
