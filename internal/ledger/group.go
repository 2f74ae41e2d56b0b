// Package ledger owns the authoritative state of one expense group: its
// members, its expense and settlement history, and the user→balance map.
// Every balance mutation goes through AddExpense or SettleDebt; both
// validate fully before touching state, so a rejected operation leaves
// all balances unchanged.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/validate"
)

// Failure variants detected by the ledger itself. Validation failures
// (unknown user, invalid amount, split mismatch) reuse the validate
// package's sentinels so each variant is defined exactly once.
var (
	ErrDuplicateUser      = errors.New("user already in group")
	ErrOutstandingBalance = errors.New("outstanding balance")
	ErrPayerNotMember     = errors.New("paying user not in group")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrNothingOwed        = errors.New("payer does not owe any money")
	ErrNothingOwedToPayee = errors.New("payee is not owed any money")
	ErrOverPayment        = errors.New("payment exceeds amount owed")
)

// settledThreshold is the balance magnitude treated as zero when deciding
// whether a user may be removed or a payment is within bounds.
const settledThreshold = 0.01

// Group is a named container of users sharing expenses in one currency.
//
// Balance sign convention: positive = the user owes money into the group,
// negative = the user is owed money by the group. Invariant: the balances
// always sum to zero within floating tolerance, because every accepted
// expense credits the payer by exactly −amount and debits the shares by
// +sum(shares), with amount == sum(shares) enforced on acceptance.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Family Trip").
	Name string

	// Description is an optional free-form description.
	Description string

	// Currency is the group's 3-letter currency code. Every expense in
	// the group must carry the same code.
	Currency string

	// CreatedAt is when the group was created.
	CreatedAt time.Time

	users        map[string]models.User
	expenses     map[string]*models.Expense
	expenseOrder []string // insertion order, for display
	settlements  []models.Settlement
	balances     map[string]float64
}

// NewGroup creates an empty group with a generated ID. The currency code
// is stored as given; callers normalize and validate it first.
func NewGroup(name, description, currency string) *Group {
	return &Group{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Currency:    currency,
		CreatedAt:   time.Now(),
		users:       make(map[string]models.User),
		expenses:    make(map[string]*models.Expense),
		balances:    make(map[string]float64),
	}
}

// AddUser inserts a user with a zero balance. Duplicate IDs are rejected;
// duplicate names are a business rule enforced above the ledger.
func (g *Group) AddUser(user models.User) error {
	if _, ok := g.users[user.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateUser, user.ID)
	}
	g.users[user.ID] = user
	g.balances[user.ID] = 0.0
	return nil
}

// RemoveUser removes a member and their balance entry. A user can only
// leave once their balance is within tolerance of zero.
func (g *Group) RemoveUser(userID string) error {
	if _, ok := g.users[userID]; !ok {
		return fmt.Errorf("%w: %s", validate.ErrUnknownUser, userID)
	}
	if math.Abs(g.balances[userID]) > settledThreshold {
		return fmt.Errorf("%w: user %s has balance %.2f", ErrOutstandingBalance, userID, g.balances[userID])
	}
	delete(g.users, userID)
	delete(g.balances, userID)
	return nil
}

// HasMember reports whether the user ID is a current group member.
func (g *Group) HasMember(userID string) bool {
	_, ok := g.users[userID]
	return ok
}

// User returns a member by ID.
func (g *Group) User(userID string) (models.User, bool) {
	user, ok := g.users[userID]
	return user, ok
}

// UserByName returns the first member with the given display name.
func (g *Group) UserByName(name string) (models.User, bool) {
	for _, user := range g.users {
		if user.Name == name {
			return user, true
		}
	}
	return models.User{}, false
}

// Users returns all members. Order is unspecified.
func (g *Group) Users() []models.User {
	users := make([]models.User, 0, len(g.users))
	for _, user := range g.users {
		users = append(users, user)
	}
	return users
}

// UserCount returns the number of members.
func (g *Group) UserCount() int {
	return len(g.users)
}

// AddExpense validates and applies an expense. Validation fully precedes
// mutation: the payer must be a member, the currency must match the
// group's, every share key must be a member, and the shares must sum to
// the amount within tolerance (re-checked here, defense in depth).
//
// On success the payer's balance decreases by the full amount, each share
// holder's balance increases by their share, and the expense joins the
// group's history.
func (g *Group) AddExpense(expense *models.Expense) error {
	if !g.HasMember(expense.PaidByID) {
		return fmt.Errorf("%w: %s", ErrPayerNotMember, expense.PaidByID)
	}
	if expense.Currency != g.Currency {
		return fmt.Errorf("%w: expense is %s, group is %s", ErrCurrencyMismatch, expense.Currency, g.Currency)
	}
	for userID := range expense.Shares {
		if !g.HasMember(userID) {
			return fmt.Errorf("%w: %s in expense split", validate.ErrUnknownUser, userID)
		}
	}
	if !expense.ValidSplit() {
		return fmt.Errorf("%w: expense %s", validate.ErrSplitMismatch, expense.ID)
	}

	g.expenses[expense.ID] = expense
	g.expenseOrder = append(g.expenseOrder, expense.ID)
	g.balances[expense.PaidByID] -= expense.Amount
	for userID, share := range expense.Shares {
		g.balances[userID] += share
	}
	return nil
}

// Expenses returns the group's expense history in insertion order.
func (g *Group) Expenses() []*models.Expense {
	expenses := make([]*models.Expense, 0, len(g.expenseOrder))
	for _, id := range g.expenseOrder {
		expenses = append(expenses, g.expenses[id])
	}
	return expenses
}

// ExpenseCount returns the number of recorded expenses.
func (g *Group) ExpenseCount() int {
	return len(g.expenses)
}

// TotalExpenses returns the sum of all recorded expense amounts.
func (g *Group) TotalExpenses() float64 {
	var total float64
	for _, expense := range g.expenses {
		total += expense.Amount
	}
	return total
}

// SettleDebt applies a direct payment from payer to payee. The payer must
// currently owe money (positive balance) and the payee must currently be
// owed (negative balance); the amount may not exceed the smaller of the
// two outstanding magnitudes beyond tolerance.
//
// Settlements are not constrained to pairs suggested by the simplifier —
// any payer/payee pair satisfying the bounds may settle.
func (g *Group) SettleDebt(payerID, payeeID string, amount float64) error {
	if !g.HasMember(payerID) {
		return fmt.Errorf("%w: payer %s", validate.ErrUnknownUser, payerID)
	}
	if !g.HasMember(payeeID) {
		return fmt.Errorf("%w: payee %s", validate.ErrUnknownUser, payeeID)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: settlement amount must be positive, got %v", validate.ErrInvalidAmount, amount)
	}

	payerBalance := g.balances[payerID]
	payeeBalance := g.balances[payeeID]
	if payerBalance <= 0 {
		return fmt.Errorf("%w: %s has balance %.2f", ErrNothingOwed, payerID, payerBalance)
	}
	if payeeBalance >= 0 {
		return fmt.Errorf("%w: %s has balance %.2f", ErrNothingOwedToPayee, payeeID, payeeBalance)
	}

	maxPayment := math.Min(payerBalance, -payeeBalance)
	if amount > maxPayment+settledThreshold {
		return fmt.Errorf("%w: %v exceeds maximum payable %.2f", ErrOverPayment, amount, maxPayment)
	}

	g.balances[payerID] -= amount
	g.balances[payeeID] += amount
	g.settlements = append(g.settlements, models.NewSettlement(payerID, payeeID, amount))
	return nil
}

// Settlements returns the settlement history in insertion order.
func (g *Group) Settlements() []models.Settlement {
	settlements := make([]models.Settlement, len(g.settlements))
	copy(settlements, g.settlements)
	return settlements
}

// Balance returns a user's current balance, 0 for non-members.
func (g *Group) Balance(userID string) float64 {
	return g.balances[userID]
}

// Balances returns a snapshot copy of the balance map, not a live view.
func (g *Group) Balances() map[string]float64 {
	snapshot := make(map[string]float64, len(g.balances))
	for userID, balance := range g.balances {
		snapshot[userID] = balance
	}
	return snapshot
}

// Settled reports whether every member balance is within tolerance of
// zero. Groups may only be deleted once settled.
func (g *Group) Settled() bool {
	for _, balance := range g.balances {
		if math.Abs(balance) > settledThreshold {
			return false
		}
	}
	return true
}
