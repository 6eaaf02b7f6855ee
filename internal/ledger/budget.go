package ledger

import (
	"time"

	"github.com/cassiomorais/finance/internal/domain/transaction"
)

// MonthProgress describes how far into a month a given instant is.
// For the current month DaysPassed is today's day of month and DaysRemaining
// the days after today. Past months are fully passed, future months untouched.
type MonthProgress struct {
	DaysInMonth   int
	DaysPassed    int
	DaysRemaining int
}

func Progress(year int, month time.Month, now time.Time, loc *time.Location) MonthProgress {
	if loc == nil {
		loc = time.UTC
	}
	days := DaysIn(year, month)
	now = now.In(loc)
	start, end := MonthBounds(year, month, loc)

	switch {
	case now.Before(start):
		return MonthProgress{DaysInMonth: days, DaysRemaining: days}
	case !now.Before(end):
		return MonthProgress{DaysInMonth: days, DaysPassed: days}
	default:
		return MonthProgress{
			DaysInMonth:   days,
			DaysPassed:    now.Day(),
			DaysRemaining: days - now.Day(),
		}
	}
}

// DailySpendRate is the average expense per elapsed day.
func DailySpendRate(monthExpense int64, daysPassed int) float64 {
	if daysPassed < 1 {
		daysPassed = 1
	}
	return float64(monthExpense) / float64(daysPassed)
}

// ProjectedMonthEndExpense extrapolates the current rate over the rest of the month.
func ProjectedMonthEndExpense(monthExpense int64, daysPassed, daysRemaining int) float64 {
	if daysRemaining < 0 {
		daysRemaining = 0
	}
	return float64(monthExpense) + DailySpendRate(monthExpense, daysPassed)*float64(daysRemaining)
}

// RecommendedDailyBudget spreads what is left of the month's income over the
// remaining days. Zero when no day is left or nothing is left to spend.
func RecommendedDailyBudget(monthIncome, monthExpense int64, daysRemaining int) float64 {
	if daysRemaining <= 0 {
		return 0
	}
	b := float64(monthIncome-monthExpense) / float64(daysRemaining)
	if b < 0 {
		return 0
	}
	return b
}

// AverageExpense is the daily expense over a run of whole months.
type AverageExpense struct {
	Daily           float64
	MonthlyAverages []float64 // most recent month first
	Months          int
}

// AverageDailyExpense averages expense per calendar day over the month of now
// and the months-1 months before it. Each month counts all of its days.
func AverageDailyExpense(txs []*transaction.Transaction, months int, now time.Time, loc *time.Location) AverageExpense {
	if loc == nil {
		loc = time.UTC
	}
	if months < 1 {
		return AverageExpense{MonthlyAverages: []float64{}}
	}
	now = now.In(loc)
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	var totalExpense int64
	var totalDays int
	avgs := make([]float64, 0, months)
	for i := 0; i < months; i++ {
		m := anchor.AddDate(0, -i, 0)
		days := DaysIn(m.Year(), m.Month())
		expense := MonthTotals(txs, m.Year(), m.Month(), loc).Expense
		totalExpense += expense
		totalDays += days
		avgs = append(avgs, float64(expense)/float64(days))
	}

	return AverageExpense{
		Daily:           float64(totalExpense) / float64(totalDays),
		MonthlyAverages: avgs,
		Months:          months,
	}
}
