package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/tracker"
	"github.com/tallyhq/tally/internal/validate"
)

// --- wire types ---

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type expenseResponse struct {
	ID          string             `json:"id"`
	Amount      float64            `json:"amount"`
	Description string             `json:"description"`
	PaidBy      string             `json:"paid_by"`
	SplitType   models.SplitType   `json:"split_type"`
	Currency    string             `json:"currency"`
	CreatedAt   time.Time          `json:"created_at"`
	Shares      map[string]float64 `json:"shares"`
}

type settlementResponse struct {
	ID        string    `json:"id"`
	PayerID   string    `json:"payer_id"`
	PayeeID   string    `json:"payee_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type transactionResponse struct {
	PayerID string  `json:"payer_id"`
	PayeeID string  `json:"payee_id"`
	Amount  float64 `json:"amount"`
}

type groupResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Currency    string               `json:"currency"`
	CreatedAt   time.Time            `json:"created_at"`
	Users       []userResponse       `json:"users"`
	Expenses    []expenseResponse    `json:"expenses"`
	Settlements []settlementResponse `json:"settlements"`
	Balances    map[string]float64   `json:"balances"`
}

type groupListItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Currency     string `json:"currency"`
	UserCount    int    `json:"user_count"`
	ExpenseCount int    `json:"expense_count"`
}

type summaryResponse struct {
	Group           groupResponse         `json:"group"`
	SimplifiedDebts []transactionResponse `json:"simplified_debts"`
	TotalExpenses   float64               `json:"total_expenses"`
	ExpenseCount    int                   `json:"expense_count"`
	UserCount       int                   `json:"user_count"`
}

type debtSummaryResponse struct {
	UserID     string             `json:"user_id"`
	OwesTo     map[string]float64 `json:"owes_to"`
	OwedBy     map[string]float64 `json:"owed_by"`
	TotalOwes  float64            `json:"total_owes"`
	TotalOwed  float64            `json:"total_owed"`
	NetBalance float64            `json:"net_balance"`
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

type addUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type addExpenseRequest struct {
	SplitType   models.SplitType   `json:"split_type"`
	Amount      float64            `json:"amount"`
	Description string             `json:"description"`
	PaidBy      string             `json:"paid_by"`
	UserIDs     []string           `json:"user_ids,omitempty"`
	Shares      map[string]float64 `json:"shares,omitempty"`
	Percentages map[string]float64 `json:"percentages,omitempty"`
}

type settleDebtRequest struct {
	PayerID string  `json:"payer_id"`
	PayeeID string  `json:"payee_id"`
	Amount  float64 `json:"amount"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// --- conversions ---

func toGroupResponse(g *ledger.Group) groupResponse {
	users := make([]userResponse, 0, g.UserCount())
	for _, u := range g.Users() {
		users = append(users, userResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt})
	}

	expenses := make([]expenseResponse, 0, g.ExpenseCount())
	for _, e := range g.Expenses() {
		expenses = append(expenses, expenseResponse{
			ID:          e.ID,
			Amount:      e.Amount,
			Description: e.Description,
			PaidBy:      e.PaidByID,
			SplitType:   e.SplitType,
			Currency:    e.Currency,
			CreatedAt:   e.CreatedAt,
			Shares:      e.Shares,
		})
	}

	settlements := make([]settlementResponse, 0, len(g.Settlements()))
	for _, st := range g.Settlements() {
		settlements = append(settlements, settlementResponse{
			ID:        st.ID,
			PayerID:   st.PayerID,
			PayeeID:   st.PayeeID,
			Amount:    st.Amount,
			CreatedAt: st.CreatedAt,
		})
	}

	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Currency:    g.Currency,
		CreatedAt:   g.CreatedAt,
		Users:       users,
		Expenses:    expenses,
		Settlements: settlements,
		Balances:    g.Balances(),
	}
}

func toTransactionResponses(txns []calculator.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(txns))
	for i, txn := range txns {
		out[i] = transactionResponse{PayerID: txn.PayerID, PayeeID: txn.PayeeID, Amount: txn.Amount}
	}
	return out
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// statusFor maps the core's error taxonomy to HTTP statuses: absence is
// 404, conflicts with existing state are 409, everything else the caller
// sent is 400.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrGroupNotFound),
		errors.Is(err, validate.ErrUnknownUser):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateUser),
		errors.Is(err, tracker.ErrDuplicateUserName),
		errors.Is(err, ledger.ErrOutstandingBalance):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// --- handlers ---

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	group, err := s.tracker.CreateGroup(req.Name, req.Description, req.Currency)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(group))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := s.tracker.Groups()
	items := make([]groupListItem, len(groups))
	for i, g := range groups {
		items[i] = groupListItem{
			ID:           g.ID,
			Name:         g.Name,
			Currency:     g.Currency,
			UserCount:    g.UserCount(),
			ExpenseCount: g.ExpenseCount(),
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, err := s.tracker.Group(mux.Vars(r)["groupID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	err := s.tracker.DeleteGroup(mux.Vars(r)["groupID"])
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}

	s.mu.Lock()
	user, err := s.tracker.AddUser(mux.Vars(r)["groupID"], req.Name, req.Email)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s.mu.Lock()
	err := s.tracker.RemoveUser(vars["groupID"], vars["userID"])
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req addExpenseRequest
	if !decode(w, r, &req) {
		return
	}
	groupID := mux.Vars(r)["groupID"]

	s.mu.Lock()
	var (
		expense *models.Expense
		err     error
	)
	switch req.SplitType {
	case models.SplitEqual:
		expense, err = s.tracker.AddExpenseEqualSplit(groupID, req.Amount, req.Description, req.PaidBy, req.UserIDs)
	case models.SplitExact:
		expense, err = s.tracker.AddExpenseExactSplit(groupID, req.Amount, req.Description, req.PaidBy, req.Shares)
	case models.SplitPercentage:
		expense, err = s.tracker.AddExpensePercentageSplit(groupID, req.Amount, req.Description, req.PaidBy, req.Percentages)
	default:
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "split_type must be equal, exact or percentage"})
		return
	}
	s.mu.Unlock()

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseResponse{
		ID:          expense.ID,
		Amount:      expense.Amount,
		Description: expense.Description,
		PaidBy:      expense.PaidByID,
		SplitType:   expense.SplitType,
		Currency:    expense.Currency,
		CreatedAt:   expense.CreatedAt,
		Shares:      expense.Shares,
	})
}

func (s *Server) handleSettleDebt(w http.ResponseWriter, r *http.Request) {
	var req settleDebtRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	err := s.tracker.SettleDebt(mux.Vars(r)["groupID"], req.PayerID, req.PayeeID, req.Amount)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balances, err := s.tracker.Balances(mux.Vars(r)["groupID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) handleGetSimplifiedDebts(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	debts, err := s.tracker.SimplifiedDebts(mux.Vars(r)["groupID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(debts))
}

func (s *Server) handleGetUserDebtSummary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, err := s.tracker.UserDebtSummary(vars["groupID"], vars["userID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, debtSummaryResponse{
		UserID:     summary.UserID,
		OwesTo:     summary.OwesTo,
		OwedBy:     summary.OwedBy,
		TotalOwes:  summary.TotalOwes,
		TotalOwed:  summary.TotalOwed,
		NetBalance: summary.NetBalance,
	})
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, err := s.tracker.Summary(mux.Vars(r)["groupID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Group:           toGroupResponse(summary.Group),
		SimplifiedDebts: toTransactionResponses(summary.SimplifiedDebts),
		TotalExpenses:   summary.TotalExpenses,
		ExpenseCount:    summary.ExpenseCount,
		UserCount:       summary.UserCount,
	})
}
