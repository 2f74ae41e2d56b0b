// Package validate provides the pure, stateless checks that gate expense
// and settlement input: amounts, split completeness, percentage totals and
// currency codes. It holds no state and depends on nothing but the inputs
// it is handed.
package validate

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Sentinel errors for every validation failure. Callers match with
// errors.Is; the wrapped message carries the offending value.
var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptySelection       = errors.New("at least one user must be specified")
	ErrUnknownUser          = errors.New("user not found in group")
	ErrNegativeShare        = errors.New("share cannot be negative")
	ErrSplitMismatch        = errors.New("split does not add up to expense amount")
	ErrPercentageOutOfRange = errors.New("percentage must be between 0 and 100")
	ErrPercentageMismatch   = errors.New("percentages must add up to 100")
	ErrInvalidCurrency      = errors.New("invalid currency")
)

// maxAmount is the upper bound on a single expense, in currency units.
const maxAmount = 1_000_000

// tolerance is the threshold below which a split or percentage
// discrepancy is treated as floating point noise.
const tolerance = 0.01

// supportedCurrencies is the set of accepted 3-letter currency codes.
var supportedCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CAD": true, "AUD": true, "CHF": true, "CNY": true, "INR": true,
}

// Membership reports whether a user ID belongs to a group. The ledger's
// Group satisfies this.
type Membership interface {
	HasMember(userID string) bool
}

// Amount checks that an expense or settlement amount is positive and
// within the supported range.
func Amount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: must be positive, got %v", ErrInvalidAmount, amount)
	}
	if amount > maxAmount {
		return fmt.Errorf("%w: %v exceeds maximum %d", ErrInvalidAmount, amount, maxAmount)
	}
	return nil
}

// UsersInGroup checks that userIDs is non-empty and that every ID is a
// member of the group.
func UsersInGroup(userIDs []string, group Membership) error {
	if len(userIDs) == 0 {
		return ErrEmptySelection
	}
	for _, id := range userIDs {
		if !group.HasMember(id) {
			return fmt.Errorf("%w: %s", ErrUnknownUser, id)
		}
	}
	return nil
}

// ExactSplit checks a user→amount split against the expense total:
// non-empty, no negative shares, and summing to the total within tolerance.
func ExactSplit(total float64, shares map[string]float64) error {
	if len(shares) == 0 {
		return ErrEmptySelection
	}
	var sum float64
	for userID, amount := range shares {
		if amount < 0 {
			return fmt.Errorf("%w: user %s has %v", ErrNegativeShare, userID, amount)
		}
		sum += amount
	}
	if math.Abs(sum-total) > tolerance {
		return fmt.Errorf("%w: shares sum to %v, expense amount is %v", ErrSplitMismatch, sum, total)
	}
	return nil
}

// PercentageSplit checks a user→percentage split: non-empty, every value
// in [0,100], and summing to 100 within tolerance.
func PercentageSplit(percentages map[string]float64) error {
	if len(percentages) == 0 {
		return ErrEmptySelection
	}
	var sum float64
	for userID, pct := range percentages {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%w: user %s has %v", ErrPercentageOutOfRange, userID, pct)
		}
		sum += pct
	}
	if math.Abs(sum-100) > tolerance {
		return fmt.Errorf("%w: got %v", ErrPercentageMismatch, sum)
	}
	return nil
}

// Currency checks a currency code against the supported set and returns
// it normalized to uppercase.
func Currency(code string) (string, error) {
	if len(code) != 3 {
		return "", fmt.Errorf("%w: must be a 3-character code, got %q", ErrInvalidCurrency, code)
	}
	code = strings.ToUpper(code)
	if !supportedCurrencies[code] {
		return "", fmt.Errorf("%w: unsupported currency %s", ErrInvalidCurrency, code)
	}
	return code, nil
}
