// Package calculator holds the pure debt computations: simplifying a
// balance snapshot into a minimal set of settlement transactions, and the
// read-only transforms derived from that transaction list. Nothing here
// mutates ledger state.
package calculator

import (
	"container/heap"
	"math"
)

// settledThreshold is the balance magnitude below which a party is
// treated as fully settled.
const settledThreshold = 0.01

// Transaction is one suggested payment: payer sends amount to payee.
type Transaction struct {
	// PayerID is the debtor making the payment.
	PayerID string

	// PayeeID is the creditor receiving the payment.
	PayeeID string

	// Amount is the payment amount. Always positive.
	Amount float64
}

// party is a heap entry: one user and their outstanding magnitude
// (debt for debtors, credit for creditors — always positive).
type party struct {
	id     string
	amount float64
}

// partyHeap is a max-heap of parties keyed by outstanding amount.
// Ties are broken arbitrarily by heap order.
type partyHeap []party

func (h partyHeap) Len() int           { return len(h) }
func (h partyHeap) Less(i, j int) bool { return h[i].amount > h[j].amount }
func (h partyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *partyHeap) Push(x any) { *h = append(*h, x.(party)) }

func (h *partyHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}

// SimplifyDebts reduces a balance snapshot to an ordered list of
// transactions that drives every balance to within 0.01 of zero.
//
// Balances use the ledger sign convention: positive = owes money,
// negative = owed money. Balances within ±0.01 are already settled and
// are ignored.
//
// The matching is greedy largest-debtor against largest-creditor: pop the
// biggest outstanding party from each side, settle the smaller of the two
// amounts, and push back whichever side still has more than 0.01
// outstanding. Every settlement fully consumes at least one party, so the
// loop terminates after at most (non-zero balances − 1) transactions. The
// greedy matching is a heuristic: close to minimal in practice, not proven
// globally minimal.
func SimplifyDebts(balances map[string]float64) []Transaction {
	debtors := &partyHeap{}
	creditors := &partyHeap{}
	for userID, balance := range balances {
		switch {
		case balance > settledThreshold:
			*debtors = append(*debtors, party{id: userID, amount: balance})
		case balance < -settledThreshold:
			*creditors = append(*creditors, party{id: userID, amount: -balance})
		}
	}
	heap.Init(debtors)
	heap.Init(creditors)

	var transactions []Transaction
	for debtors.Len() > 0 && creditors.Len() > 0 {
		debtor := heap.Pop(debtors).(party)
		creditor := heap.Pop(creditors).(party)

		settled := math.Min(debtor.amount, creditor.amount)
		transactions = append(transactions, Transaction{
			PayerID: debtor.id,
			PayeeID: creditor.id,
			Amount:  settled,
		})

		if remaining := debtor.amount - settled; remaining > settledThreshold {
			heap.Push(debtors, party{id: debtor.id, amount: remaining})
		}
		if remaining := creditor.amount - settled; remaining > settledThreshold {
			heap.Push(creditors, party{id: creditor.id, amount: remaining})
		}
	}

	// If the input conserved money (balances sum to ~0), whatever is left
	// in the non-empty heap is within tolerance of zero.
	return transactions
}

// DebtGraph simplifies a balance snapshot and folds the transactions into
// a debtor→{creditor: amount} mapping.
func DebtGraph(balances map[string]float64) map[string]map[string]float64 {
	graph := make(map[string]map[string]float64)
	for _, txn := range SimplifyDebts(balances) {
		if graph[txn.PayerID] == nil {
			graph[txn.PayerID] = make(map[string]float64)
		}
		graph[txn.PayerID][txn.PayeeID] = txn.Amount
	}
	return graph
}

// DebtSummary aggregates one user's position in the simplified debt graph.
type DebtSummary struct {
	UserID string

	// OwesTo maps creditor ID to the amount this user should pay them.
	OwesTo map[string]float64

	// OwedBy maps debtor ID to the amount they should pay this user.
	OwedBy map[string]float64

	TotalOwes float64
	TotalOwed float64

	// NetBalance is TotalOwes − TotalOwed: positive means the user is a
	// net debtor.
	NetBalance float64
}

// UserDebtSummary computes a user's aggregate owed-to/owed-by summary
// from the simplified debt graph of the given balances.
func UserDebtSummary(userID string, balances map[string]float64) DebtSummary {
	graph := DebtGraph(balances)

	owesTo := graph[userID]
	if owesTo == nil {
		owesTo = make(map[string]float64)
	}

	owedBy := make(map[string]float64)
	for debtorID, creditors := range graph {
		if amount, ok := creditors[userID]; ok {
			owedBy[debtorID] = amount
		}
	}

	summary := DebtSummary{
		UserID: userID,
		OwesTo: owesTo,
		OwedBy: owedBy,
	}
	for _, amount := range owesTo {
		summary.TotalOwes += amount
	}
	for _, amount := range owedBy {
		summary.TotalOwed += amount
	}
	summary.NetBalance = summary.TotalOwes - summary.TotalOwed
	return summary
}

// ValidateSimplification reports whether applying the transactions to the
// balance snapshot drives every balance to within tolerance of zero.
// Used for self-checking; not part of the main flow.
func ValidateSimplification(balances map[string]float64, transactions []Transaction) bool {
	final := make(map[string]float64, len(balances))
	for userID, balance := range balances {
		final[userID] = balance
	}
	for _, txn := range transactions {
		final[txn.PayerID] -= txn.Amount
		final[txn.PayeeID] += txn.Amount
	}
	for _, balance := range final {
		if math.Abs(balance) > settledThreshold {
			return false
		}
	}
	return true
}
