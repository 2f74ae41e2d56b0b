package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/validate"
)

// newTestGroup returns a USD group with three members.
func newTestGroup(t *testing.T) (*Group, models.User, models.User, models.User) {
	t.Helper()

	group := NewGroup("Family Trip", "Summer vacation expenses", "USD")
	alice := models.NewUser("Alice", "alice@example.com")
	bob := models.NewUser("Bob", "bob@example.com")
	carol := models.NewUser("Carol", "")
	for _, user := range []models.User{alice, bob, carol} {
		if err := group.AddUser(user); err != nil {
			t.Fatalf("AddUser(%s) failed: %v", user.Name, err)
		}
	}
	return group, alice, bob, carol
}

// equalExpense builds an expense splitting amount evenly across the users.
func equalExpense(amount float64, description, paidByID, currency string, userIDs ...string) *models.Expense {
	expense := models.NewExpense(amount, description, paidByID, models.SplitEqual, currency)
	share := amount / float64(len(userIDs))
	for _, id := range userIDs {
		expense.AddShare(id, share)
	}
	return expense
}

// assertBalancesSumToZero checks the group's conservation invariant.
func assertBalancesSumToZero(t *testing.T, group *Group) {
	t.Helper()

	var sum float64
	for _, balance := range group.Balances() {
		sum += balance
	}
	if math.Abs(sum) > 0.01 {
		t.Errorf("balances sum to %v, want 0", sum)
	}
}

func TestAddUser(t *testing.T) {
	group := NewGroup("Office Lunch", "", "USD")
	user := models.NewUser("David", "david@example.com")

	if err := group.AddUser(user); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if !group.HasMember(user.ID) {
		t.Error("user not a member after AddUser")
	}
	if group.Balance(user.ID) != 0 {
		t.Errorf("new user balance = %v, want 0", group.Balance(user.ID))
	}

	if err := group.AddUser(user); !errors.Is(err, ErrDuplicateUser) {
		t.Errorf("duplicate AddUser = %v, want ErrDuplicateUser", err)
	}
}

func TestRemoveUser(t *testing.T) {
	group, alice, bob, carol := newTestGroup(t)

	if err := group.RemoveUser("missing"); !errors.Is(err, validate.ErrUnknownUser) {
		t.Errorf("RemoveUser(missing) = %v, want ErrUnknownUser", err)
	}

	// Removing a settled member works.
	if err := group.RemoveUser(carol.ID); err != nil {
		t.Fatalf("RemoveUser(settled) failed: %v", err)
	}
	if group.HasMember(carol.ID) {
		t.Error("user still a member after removal")
	}

	// A member with an outstanding balance is stuck.
	expense := equalExpense(100, "Dinner", alice.ID, "USD", alice.ID, bob.ID)
	if err := group.AddExpense(expense); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if err := group.RemoveUser(bob.ID); !errors.Is(err, ErrOutstandingBalance) {
		t.Errorf("RemoveUser(indebted) = %v, want ErrOutstandingBalance", err)
	}
}

func TestAddExpenseEqualSplitScenario(t *testing.T) {
	group, alice, bob, carol := newTestGroup(t)

	// Equal split of 300 paid by Alice among all three.
	expense := equalExpense(300, "Hotel Booking", alice.ID, "USD", alice.ID, bob.ID, carol.ID)
	if err := group.AddExpense(expense); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	wantBalances := map[string]float64{alice.ID: -200, bob.ID: 100, carol.ID: 100}
	for userID, want := range wantBalances {
		if got := group.Balance(userID); math.Abs(got-want) > 0.01 {
			t.Errorf("balance[%s] = %v, want %v", userID, got, want)
		}
	}
	assertBalancesSumToZero(t, group)

	if group.ExpenseCount() != 1 {
		t.Errorf("ExpenseCount = %d, want 1", group.ExpenseCount())
	}
	if math.Abs(group.TotalExpenses()-300.0) > 0.01 {
		t.Errorf("TotalExpenses = %v, want 300.0", group.TotalExpenses())
	}
}

func TestAddExpenseExactSplitScenario(t *testing.T) {
	group, alice, bob, carol := newTestGroup(t)

	// Exact split of 150 paid by Bob: A:50, B:60, C:40.
	expense := models.NewExpense(150, "Gas and Tolls", bob.ID, models.SplitExact, "USD")
	expense.AddShare(alice.ID, 50)
	expense.AddShare(bob.ID, 60)
	expense.AddShare(carol.ID, 40)
	if err := group.AddExpense(expense); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	wantBalances := map[string]float64{alice.ID: 50, bob.ID: -90, carol.ID: 40}
	for userID, want := range wantBalances {
		if got := group.Balance(userID); math.Abs(got-want) > 0.01 {
			t.Errorf("balance[%s] = %v, want %v", userID, got, want)
		}
	}
	assertBalancesSumToZero(t, group)
}

func TestAddExpenseRejections(t *testing.T) {
	group, alice, bob, _ := newTestGroup(t)
	outsider := models.NewUser("Mallory", "")

	tests := []struct {
		name    string
		expense *models.Expense
		wantErr error
	}{
		{
			name:    "payer not a member",
			expense: equalExpense(50, "Taxi", outsider.ID, "USD", alice.ID, bob.ID),
			wantErr: ErrPayerNotMember,
		},
		{
			name:    "currency mismatch",
			expense: equalExpense(50, "Taxi", alice.ID, "EUR", alice.ID, bob.ID),
			wantErr: ErrCurrencyMismatch,
		},
		{
			name:    "share holder not a member",
			expense: equalExpense(50, "Taxi", alice.ID, "USD", alice.ID, outsider.ID),
			wantErr: validate.ErrUnknownUser,
		},
		{
			name: "shares do not sum to amount",
			expense: func() *models.Expense {
				e := models.NewExpense(100, "Taxi", alice.ID, models.SplitExact, "USD")
				e.AddShare(alice.ID, 30)
				e.AddShare(bob.ID, 30)
				return e
			}(),
			wantErr: validate.ErrSplitMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := group.AddExpense(tt.expense); !errors.Is(err, tt.wantErr) {
				t.Errorf("AddExpense = %v, want %v", err, tt.wantErr)
			}
			// Rejected expenses leave state untouched.
			if group.ExpenseCount() != 0 {
				t.Errorf("ExpenseCount = %d after rejection, want 0", group.ExpenseCount())
			}
			for userID, balance := range group.Balances() {
				if balance != 0 {
					t.Errorf("balance[%s] = %v after rejection, want 0", userID, balance)
				}
			}
		})
	}
}

func TestExpensesInsertionOrder(t *testing.T) {
	group, alice, bob, _ := newTestGroup(t)

	first := equalExpense(40, "Breakfast", alice.ID, "USD", alice.ID, bob.ID)
	second := equalExpense(60, "Lunch", bob.ID, "USD", alice.ID, bob.ID)
	for _, expense := range []*models.Expense{first, second} {
		if err := group.AddExpense(expense); err != nil {
			t.Fatalf("AddExpense(%s) failed: %v", expense.Description, err)
		}
	}

	expenses := group.Expenses()
	if len(expenses) != 2 {
		t.Fatalf("got %d expenses, want 2", len(expenses))
	}
	if expenses[0].ID != first.ID || expenses[1].ID != second.ID {
		t.Error("expenses not in insertion order")
	}
}

func TestSettleDebt(t *testing.T) {
	group, alice, bob, carol := newTestGroup(t)

	// Alice pays 300 split equally: Alice -200, Bob +100, Carol +100.
	expense := equalExpense(300, "Hotel Booking", alice.ID, "USD", alice.ID, bob.ID, carol.ID)
	if err := group.AddExpense(expense); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	if err := group.SettleDebt(bob.ID, alice.ID, 100); err != nil {
		t.Fatalf("SettleDebt failed: %v", err)
	}
	if got := group.Balance(bob.ID); math.Abs(got) > 0.01 {
		t.Errorf("payer balance = %v after full settlement, want 0", got)
	}
	if got := group.Balance(alice.ID); math.Abs(got+100) > 0.01 {
		t.Errorf("payee balance = %v, want -100", got)
	}
	assertBalancesSumToZero(t, group)

	settlements := group.Settlements()
	if len(settlements) != 1 {
		t.Fatalf("got %d settlements, want 1", len(settlements))
	}
	if settlements[0].PayerID != bob.ID || settlements[0].PayeeID != alice.ID {
		t.Errorf("settlement recorded as %s -> %s", settlements[0].PayerID, settlements[0].PayeeID)
	}
}

func TestSettleDebtRejections(t *testing.T) {
	group, alice, bob, carol := newTestGroup(t)

	expense := equalExpense(300, "Hotel Booking", alice.ID, "USD", alice.ID, bob.ID, carol.ID)
	if err := group.AddExpense(expense); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	// Balances: Alice -200, Bob +100, Carol +100.

	tests := []struct {
		name    string
		payer   string
		payee   string
		amount  float64
		wantErr error
	}{
		{name: "unknown payer", payer: "missing", payee: alice.ID, amount: 10, wantErr: validate.ErrUnknownUser},
		{name: "unknown payee", payer: bob.ID, payee: "missing", amount: 10, wantErr: validate.ErrUnknownUser},
		{name: "zero amount", payer: bob.ID, payee: alice.ID, amount: 0, wantErr: validate.ErrInvalidAmount},
		{name: "negative amount", payer: bob.ID, payee: alice.ID, amount: -5, wantErr: validate.ErrInvalidAmount},
		{name: "payer owes nothing", payer: alice.ID, payee: alice.ID, amount: 10, wantErr: ErrNothingOwed},
		{name: "payee not owed", payer: bob.ID, payee: carol.ID, amount: 10, wantErr: ErrNothingOwedToPayee},
		{name: "overpayment", payer: bob.ID, payee: alice.ID, amount: 100.02, wantErr: ErrOverPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := group.SettleDebt(tt.payer, tt.payee, tt.amount); !errors.Is(err, tt.wantErr) {
				t.Errorf("SettleDebt = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Rejections left balances untouched.
	if got := group.Balance(bob.ID); math.Abs(got-100) > 0.01 {
		t.Errorf("balance changed by rejected settlements: %v", got)
	}

	// Settling exactly min(payer, |payee|) succeeds and zeroes the payer.
	if err := group.SettleDebt(bob.ID, alice.ID, 100); err != nil {
		t.Errorf("settling exact maximum failed: %v", err)
	}
	if got := group.Balance(bob.ID); math.Abs(got) > 0.01 {
		t.Errorf("payer balance = %v after maximum settlement, want 0", got)
	}
}

func TestSettled(t *testing.T) {
	group, alice, bob, carol := newTestGroup(t)
	if !group.Settled() {
		t.Error("fresh group not settled")
	}

	expense := equalExpense(300, "Hotel Booking", alice.ID, "USD", alice.ID, bob.ID, carol.ID)
	if err := group.AddExpense(expense); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if group.Settled() {
		t.Error("group with outstanding balances reported settled")
	}

	for _, payer := range []string{bob.ID, carol.ID} {
		if err := group.SettleDebt(payer, alice.ID, 100); err != nil {
			t.Fatalf("SettleDebt failed: %v", err)
		}
	}
	if !group.Settled() {
		t.Error("fully settled group not reported settled")
	}
}

func TestBalancesSnapshotIsCopy(t *testing.T) {
	group, alice, _, _ := newTestGroup(t)

	snapshot := group.Balances()
	snapshot[alice.ID] = 999

	if group.Balance(alice.ID) != 0 {
		t.Error("mutating the snapshot changed the ledger")
	}
}

func TestUserByName(t *testing.T) {
	group, alice, _, _ := newTestGroup(t)

	got, ok := group.UserByName("Alice")
	if !ok || got.ID != alice.ID {
		t.Errorf("UserByName(Alice) = %+v, %v", got, ok)
	}
	if _, ok := group.UserByName("Nobody"); ok {
		t.Error("UserByName found a non-member")
	}
}
