package ledger

import (
	"sort"
	"time"

	"github.com/cassiomorais/finance/internal/domain/transaction"
)

// BalanceAtDate is initial plus the signed sum of transactions dated before at.
func BalanceAtDate(txs []*transaction.Transaction, initial int64, at time.Time) int64 {
	balance := initial
	for _, tx := range txs {
		if tx.Date.Before(at) {
			balance += tx.SignedAmount()
		}
	}
	return balance
}

// SignedSum is the net contribution of txs to a balance.
func SignedSum(txs []*transaction.Transaction) int64 {
	var sum int64
	for _, tx := range txs {
		sum += tx.SignedAmount()
	}
	return sum
}

// MonthPoint is one month of a balance trend. Balance is the closing balance.
type MonthPoint struct {
	Year    int
	Month   time.Month
	Income  int64
	Expense int64
	Balance int64
}

// BalanceHistory returns the last months months ending with the month of now,
// oldest first. It sorts once and walks the ledger with a running balance
// instead of replaying history per month.
func BalanceHistory(txs []*transaction.Transaction, opening int64, months int, now time.Time, loc *time.Location) []MonthPoint {
	if months < 1 {
		return []MonthPoint{}
	}
	if loc == nil {
		loc = time.UTC
	}

	sorted := make([]*transaction.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	now = now.In(loc)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(months - 1), 0)

	running := opening
	i := 0
	for ; i < len(sorted) && sorted[i].Date.Before(first); i++ {
		running += sorted[i].SignedAmount()
	}

	points := make([]MonthPoint, 0, months)
	for m := 0; m < months; m++ {
		start := first.AddDate(0, m, 0)
		end := start.AddDate(0, 1, 0)
		p := MonthPoint{Year: start.Year(), Month: start.Month()}
		for ; i < len(sorted) && sorted[i].Date.Before(end); i++ {
			tx := sorted[i]
			running += tx.SignedAmount()
			if tx.Type == transaction.TypeIncome {
				p.Income += tx.Amount
			} else {
				p.Expense += tx.Amount
			}
		}
		p.Balance = running
		points = append(points, p)
	}
	return points
}
