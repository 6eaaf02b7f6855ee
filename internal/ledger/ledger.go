// Package ledger folds transaction lists into balances and spending figures.
// Every function is pure: callers fetch the transactions, ledger does the math.
// Amounts are int64 cents; rates and percentages are float64.
package ledger

import (
	"time"

	"github.com/cassiomorais/finance/internal/domain/transaction"
)

// Totals holds the income and expense sums of a period.
type Totals struct {
	Income  int64
	Expense int64
}

func (t Totals) Net() int64 {
	return t.Income - t.Expense
}

func (t *Totals) add(tx *transaction.Transaction) {
	switch tx.Type {
	case transaction.TypeIncome:
		t.Income += tx.Amount
	case transaction.TypeExpense:
		t.Expense += tx.Amount
	}
}

// MonthTotals sums amounts per type for transactions whose Date falls in the
// given calendar month of loc.
func MonthTotals(txs []*transaction.Transaction, year int, month time.Month, loc *time.Location) Totals {
	start, end := MonthBounds(year, month, loc)
	return RangeTotals(txs, start, end)
}

// RangeTotals sums transactions dated in [start, end).
func RangeTotals(txs []*transaction.Transaction, start, end time.Time) Totals {
	var t Totals
	for _, tx := range txs {
		if inRange(tx.Date, start, end) {
			t.add(tx)
		}
	}
	return t
}

// PercentChange is the signed change from previous to current in percent.
// A rise from zero counts as +100, zero to zero as 0.
func PercentChange(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

// MonthBounds returns [first instant of month, first instant of next month) in loc.
func MonthBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// DayBounds returns [midnight, next midnight) of the day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
