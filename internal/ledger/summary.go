package ledger

import (
	"time"

	"github.com/cassiomorais/finance/internal/domain/transaction"
)

// AverageWindowMonths is how many months feed the average daily expense.
const AverageWindowMonths = 3

// Summary is the month dashboard.
type Summary struct {
	Year                   int
	Month                  time.Month
	TotalBalance           int64
	Current                Totals
	Previous               Totals
	IncomeChange           float64
	ExpenseChange          float64
	DaysPassed             int
	DaysRemaining          int
	DailySpendRate         float64
	ProjectedExpense       float64
	RecommendedDailyBudget float64
	Average                AverageExpense
	// RateVsAverage is DailySpendRate minus Average.Daily; positive means spending faster than usual.
	RateVsAverage float64
}

// Summarize builds the month dashboard for year/month as seen at now. txs must
// cover at least the target month, the previous one and the average window.
func Summarize(txs []*transaction.Transaction, totalBalance int64, year int, month time.Month, now time.Time, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}
	start, _ := MonthBounds(year, month, loc)
	prev := start.AddDate(0, -1, 0)

	cur := MonthTotals(txs, year, month, loc)
	before := MonthTotals(txs, prev.Year(), prev.Month(), loc)
	progress := Progress(year, month, now, loc)
	rate := DailySpendRate(cur.Expense, progress.DaysPassed)

	// the average window ends at the target month, not at now
	avg := AverageDailyExpense(txs, AverageWindowMonths, start, loc)

	return Summary{
		Year:                   year,
		Month:                  month,
		TotalBalance:           totalBalance,
		Current:                cur,
		Previous:               before,
		IncomeChange:           PercentChange(cur.Income, before.Income),
		ExpenseChange:          PercentChange(cur.Expense, before.Expense),
		DaysPassed:             progress.DaysPassed,
		DaysRemaining:          progress.DaysRemaining,
		DailySpendRate:         rate,
		ProjectedExpense:       ProjectedMonthEndExpense(cur.Expense, progress.DaysPassed, progress.DaysRemaining),
		RecommendedDailyBudget: RecommendedDailyBudget(cur.Income, cur.Expense, progress.DaysRemaining),
		Average:                avg,
		RateVsAverage:          rate - avg.Daily,
	}
}

// WindowStart is the earliest instant Summarize needs transactions from.
func WindowStart(year int, month time.Month, loc *time.Location) time.Time {
	start, _ := MonthBounds(year, month, loc)
	return start.AddDate(0, -(AverageWindowMonths - 1), 0)
}
