package models

import (
	"time"

	"github.com/google/uuid"
)

// Settlement records a direct payment between two group members.
// The balance effect is applied by the ledger; the record itself is
// history only.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// PayerID is the user who paid (debtor settling up).
	PayerID string

	// PayeeID is the user who received payment (creditor being paid).
	PayeeID string

	// Amount is the payment amount. Always positive.
	Amount float64

	// CreatedAt is when the settlement was recorded.
	CreatedAt time.Time
}

// NewSettlement creates a settlement record with a generated ID.
func NewSettlement(payerID, payeeID string, amount float64) Settlement {
	return Settlement{
		ID:        uuid.New().String(),
		PayerID:   payerID,
		PayeeID:   payeeID,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
}
