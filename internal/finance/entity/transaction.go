package entity

import (
	"math"
	"time"
)

// Amount is a money value in minor units (cents).
type Amount int64

// ParseAmount converts a decimal value with at most two fractional digits.
func ParseAmount(v float64) (Amount, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	minor := math.Round(v * 100)
	if math.Abs(v*100-minor) > 1e-6 || minor > math.MaxInt64/2 || minor < -math.MaxInt64/2 {
		return 0, false
	}

	return Amount(minor), true
}

func (a Amount) Float() float64 {
	return float64(a) / 100
}

type Transaction struct {
	ID                 int64
	UserID             int64
	Type               TransactionType
	Amount             Amount
	Category           Category
	Description        string
	Date               time.Time
	Tags               []string
	Notes              string
	IsRecurring        bool
	RecurringFrequency RecurringFrequency
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type UpdateTransaction struct {
	ID                 int64
	UserID             int64
	Type               TransactionType
	Amount             Amount
	Category           Category
	Description        string
	Date               time.Time
	Tags               []string
	Notes              string
	IsRecurring        bool
	RecurringFrequency RecurringFrequency
}

// TransactionFilter selects a user's transactions. Date bounds are half-open:
// DateFrom inclusive, DateTo exclusive; a zero bound is unbounded.
type TransactionFilter struct {
	UserID         int64
	Type           TransactionType
	Category       Category
	DateFrom       time.Time
	DateTo         time.Time
	Search         string
	OrderBy        string
	OrderDirection string
	Size           int32
	Offset         int32
}

// Totals aggregates amounts per transaction type.
type Totals struct {
	Income       Amount
	Expense      Amount
	IncomeCount  int64
	ExpenseCount int64
}

func (t Totals) Net() Amount {
	return t.Income - t.Expense
}

func (t Totals) Count() int64 {
	return t.IncomeCount + t.ExpenseCount
}

// SavingsRate is (income-expense)/income in percent, rounded to two decimals,
// or zero without income.
func (t Totals) SavingsRate() float64 {
	if t.Income <= 0 {
		return 0
	}
	return Round2(float64(t.Net()) / float64(t.Income) * 100)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
