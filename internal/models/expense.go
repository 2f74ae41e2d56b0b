package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// SplitType describes how an expense is divided among users.
type SplitType string

const (
	// SplitEqual divides the amount evenly across the listed users.
	SplitEqual SplitType = "equal"

	// SplitExact uses caller-supplied absolute amounts per user.
	SplitExact SplitType = "exact"

	// SplitPercentage derives each share from a percentage of the amount.
	SplitPercentage SplitType = "percentage"
)

// Expense represents one recorded transaction split among users.
// Once accepted into a group an expense is immutable and retained
// permanently as part of the group's history.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Amount is the total amount of the expense. Always positive.
	Amount float64

	// Description is the human-readable label for the expense.
	Description string

	// PaidByID is the ID of the user who paid.
	PaidByID string

	// SplitType records how Shares was derived.
	SplitType SplitType

	// Currency is the 3-letter currency code. Must match the group's.
	Currency string

	// CreatedAt is when the expense was recorded.
	CreatedAt time.Time

	// Shares maps user ID to the amount that user owes for this expense.
	// Invariant: the shares sum to Amount within 0.01.
	Shares map[string]float64
}

// NewExpense creates an expense with a generated ID and no shares yet.
// Callers populate Shares via AddShare before handing the expense to the
// ledger, which enforces the split invariant.
func NewExpense(amount float64, description, paidByID string, splitType SplitType, currency string) *Expense {
	return &Expense{
		ID:          uuid.New().String(),
		Amount:      amount,
		Description: description,
		PaidByID:    paidByID,
		SplitType:   splitType,
		Currency:    currency,
		CreatedAt:   time.Now(),
		Shares:      make(map[string]float64),
	}
}

// AddShare records the amount a user owes for this expense.
func (e *Expense) AddShare(userID string, amount float64) {
	e.Shares[userID] = amount
}

// Share returns the amount a user owes for this expense, or 0 if the user
// is not part of the split.
func (e *Expense) Share(userID string) float64 {
	return e.Shares[userID]
}

// ValidSplit reports whether the shares sum to the expense amount,
// allowing for small floating point differences.
func (e *Expense) ValidSplit() bool {
	var total float64
	for _, share := range e.Shares {
		total += share
	}
	return math.Abs(total-e.Amount) < 0.01
}
