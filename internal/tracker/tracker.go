// Package tracker is the orchestrator over the group collection. It owns
// every group, exposes the three expense-creation variants as convenience
// constructors that compute shares before delegating to the group ledger,
// and assembles the read-only summary views.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/validate"
)

var (
	ErrGroupNotFound     = errors.New("group not found")
	ErrGroupName         = errors.New("group name is required")
	ErrDuplicateUserName = errors.New("user with this name already exists in the group")
)

// Tracker owns the collection of expense groups. It is not safe for
// concurrent use; callers serialize access (the API server holds a lock).
type Tracker struct {
	groups map[string]*ledger.Group
	order  []string // creation order, for listing
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{groups: make(map[string]*ledger.Group)}
}

// CreateGroup creates a group after validating and normalizing the
// currency code.
func (t *Tracker) CreateGroup(name, description, currency string) (*ledger.Group, error) {
	if name == "" {
		return nil, ErrGroupName
	}
	currency, err := validate.Currency(currency)
	if err != nil {
		return nil, err
	}

	group := ledger.NewGroup(name, description, currency)
	t.groups[group.ID] = group
	t.order = append(t.order, group.ID)
	slog.Info("group created", "group_id", group.ID, "name", name, "currency", currency)
	return group, nil
}

// Group returns a group by ID.
func (t *Tracker) Group(groupID string) (*ledger.Group, error) {
	group, ok := t.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	return group, nil
}

// Groups returns all groups in creation order.
func (t *Tracker) Groups() []*ledger.Group {
	groups := make([]*ledger.Group, 0, len(t.order))
	for _, id := range t.order {
		groups = append(groups, t.groups[id])
	}
	return groups
}

// DeleteGroup removes a group. Deletion is blocked while any member has
// an outstanding balance.
func (t *Tracker) DeleteGroup(groupID string) error {
	group, err := t.Group(groupID)
	if err != nil {
		return err
	}
	if !group.Settled() {
		return fmt.Errorf("%w: group %s has unsettled balances", ledger.ErrOutstandingBalance, groupID)
	}

	delete(t.groups, groupID)
	for i, id := range t.order {
		if id == groupID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	slog.Info("group deleted", "group_id", groupID)
	return nil
}

// AddUser creates a user and adds them to the group. Duplicate display
// names within a group are rejected here, above the ledger.
func (t *Tracker) AddUser(groupID, name, email string) (models.User, error) {
	group, err := t.Group(groupID)
	if err != nil {
		return models.User{}, err
	}
	if _, exists := group.UserByName(name); exists {
		return models.User{}, fmt.Errorf("%w: %s", ErrDuplicateUserName, name)
	}

	user := models.NewUser(name, email)
	if err := group.AddUser(user); err != nil {
		return models.User{}, err
	}
	slog.Info("user added", "group_id", groupID, "user_id", user.ID, "name", name)
	return user, nil
}

// RemoveUser removes a user from a group, subject to the ledger's
// outstanding-balance rule.
func (t *Tracker) RemoveUser(groupID, userID string) error {
	group, err := t.Group(groupID)
	if err != nil {
		return err
	}
	if err := group.RemoveUser(userID); err != nil {
		return err
	}
	slog.Info("user removed", "group_id", groupID, "user_id", userID)
	return nil
}

// AddExpenseEqualSplit records an expense divided evenly across userIDs.
// The share is plain real division of the amount — no cent-rounding
// correction; the residual floating error stays under the ledger's 0.01
// split tolerance. Every listed user, including the payer if listed,
// receives the same share.
func (t *Tracker) AddExpenseEqualSplit(groupID string, amount float64, description, paidByID string, userIDs []string) (*models.Expense, error) {
	group, err := t.Group(groupID)
	if err != nil {
		return nil, err
	}
	if err := validate.Amount(amount); err != nil {
		return nil, err
	}
	if err := validate.UsersInGroup(userIDs, group); err != nil {
		return nil, err
	}

	expense := models.NewExpense(amount, description, paidByID, models.SplitEqual, group.Currency)
	share := amount / float64(len(userIDs))
	for _, userID := range userIDs {
		expense.AddShare(userID, share)
	}
	return expense, t.acceptExpense(group, expense)
}

// AddExpenseExactSplit records an expense with caller-supplied absolute
// shares, validated against the total before construction.
func (t *Tracker) AddExpenseExactSplit(groupID string, amount float64, description, paidByID string, shares map[string]float64) (*models.Expense, error) {
	group, err := t.Group(groupID)
	if err != nil {
		return nil, err
	}
	if err := validate.Amount(amount); err != nil {
		return nil, err
	}
	if err := validate.UsersInGroup(keys(shares), group); err != nil {
		return nil, err
	}
	if err := validate.ExactSplit(amount, shares); err != nil {
		return nil, err
	}

	expense := models.NewExpense(amount, description, paidByID, models.SplitExact, group.Currency)
	for userID, share := range shares {
		expense.AddShare(userID, share)
	}
	return expense, t.acceptExpense(group, expense)
}

// AddExpensePercentageSplit records an expense where each share is
// amount × (percentage/100). The percentages must sum to 100 within
// tolerance; the resulting shares are not re-validated beyond the
// ledger's own split check.
func (t *Tracker) AddExpensePercentageSplit(groupID string, amount float64, description, paidByID string, percentages map[string]float64) (*models.Expense, error) {
	group, err := t.Group(groupID)
	if err != nil {
		return nil, err
	}
	if err := validate.Amount(amount); err != nil {
		return nil, err
	}
	if err := validate.UsersInGroup(keys(percentages), group); err != nil {
		return nil, err
	}
	if err := validate.PercentageSplit(percentages); err != nil {
		return nil, err
	}

	expense := models.NewExpense(amount, description, paidByID, models.SplitPercentage, group.Currency)
	for userID, pct := range percentages {
		expense.AddShare(userID, amount*(pct/100))
	}
	return expense, t.acceptExpense(group, expense)
}

func (t *Tracker) acceptExpense(group *ledger.Group, expense *models.Expense) error {
	if err := group.AddExpense(expense); err != nil {
		return err
	}
	slog.Info("expense recorded",
		"group_id", group.ID,
		"expense_id", expense.ID,
		"amount", expense.Amount,
		"split_type", expense.SplitType,
		"paid_by", expense.PaidByID,
	)
	return nil
}

// SettleDebt applies a direct payment between two members of a group.
func (t *Tracker) SettleDebt(groupID, payerID, payeeID string, amount float64) error {
	group, err := t.Group(groupID)
	if err != nil {
		return err
	}
	if err := group.SettleDebt(payerID, payeeID, amount); err != nil {
		return err
	}
	slog.Info("debt settled", "group_id", groupID, "payer", payerID, "payee", payeeID, "amount", amount)
	return nil
}

// Balances returns a group's balance snapshot.
func (t *Tracker) Balances(groupID string) (map[string]float64, error) {
	group, err := t.Group(groupID)
	if err != nil {
		return nil, err
	}
	return group.Balances(), nil
}

// SimplifiedDebts returns the minimal-ish transaction list that would
// zero the group's balances.
func (t *Tracker) SimplifiedDebts(groupID string) ([]calculator.Transaction, error) {
	group, err := t.Group(groupID)
	if err != nil {
		return nil, err
	}
	return calculator.SimplifyDebts(group.Balances()), nil
}

// UserDebtSummary returns one member's aggregate owed-to/owed-by view.
func (t *Tracker) UserDebtSummary(groupID, userID string) (calculator.DebtSummary, error) {
	group, err := t.Group(groupID)
	if err != nil {
		return calculator.DebtSummary{}, err
	}
	if !group.HasMember(userID) {
		return calculator.DebtSummary{}, fmt.Errorf("%w: %s", validate.ErrUnknownUser, userID)
	}
	return calculator.UserDebtSummary(userID, group.Balances()), nil
}

// GroupSummary is the aggregate view of one group.
type GroupSummary struct {
	Group           *ledger.Group
	SimplifiedDebts []calculator.Transaction
	TotalExpenses   float64
	ExpenseCount    int
	UserCount       int
}

// Summary assembles the aggregate view for a group.
func (t *Tracker) Summary(groupID string) (GroupSummary, error) {
	group, err := t.Group(groupID)
	if err != nil {
		return GroupSummary{}, err
	}
	return GroupSummary{
		Group:           group,
		SimplifiedDebts: calculator.SimplifyDebts(group.Balances()),
		TotalExpenses:   group.TotalExpenses(),
		ExpenseCount:    group.ExpenseCount(),
		UserCount:       group.UserCount(),
	}, nil
}

func keys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
