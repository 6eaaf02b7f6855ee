package ledger

import (
	"sort"
	"time"

	"github.com/cassiomorais/finance/internal/domain/transaction"
)

// Day is the rollup of a single calendar day.
type Day struct {
	Date         time.Time
	Income       int64
	Expense      int64
	Net          int64
	Transactions []*transaction.Transaction
}

// DailySummary collects the transactions dated on day in loc, newest first.
func DailySummary(txs []*transaction.Transaction, day time.Time, loc *time.Location) Day {
	start, end := DayBounds(day, loc)
	d := Day{Date: start, Transactions: []*transaction.Transaction{}}

	var t Totals
	for _, tx := range txs {
		if inRange(tx.Date, start, end) {
			t.add(tx)
			d.Transactions = append(d.Transactions, tx)
		}
	}
	sort.SliceStable(d.Transactions, func(i, j int) bool {
		return d.Transactions[i].Date.After(d.Transactions[j].Date)
	})

	d.Income = t.Income
	d.Expense = t.Expense
	d.Net = t.Net()
	return d
}
