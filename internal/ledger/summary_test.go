package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	txs := []*transaction.Transaction{
		income(5000, day(2024, 3, 1)),
		expense(1000, day(2024, 3, 4)),
		income(2500, day(2024, 2, 1)),
		expense(2000, day(2024, 2, 10)),
	}

	s := Summarize(txs, 12345, 2024, time.March, day(2024, 3, 10), time.UTC)

	assert.Equal(t, int64(12345), s.TotalBalance)
	assert.Equal(t, Totals{Income: 5000, Expense: 1000}, s.Current)
	assert.Equal(t, Totals{Income: 2500, Expense: 2000}, s.Previous)
	assert.InDelta(t, 100.0, s.IncomeChange, 1e-9)
	assert.InDelta(t, -50.0, s.ExpenseChange, 1e-9)
	assert.Equal(t, 10, s.DaysPassed)
	assert.Equal(t, 21, s.DaysRemaining)
	assert.InDelta(t, 100.0, s.DailySpendRate, 1e-9)
	assert.InDelta(t, 3100.0, s.ProjectedExpense, 1e-9)
	assert.InDelta(t, 4000.0/21.0, s.RecommendedDailyBudget, 1e-9)
	assert.Equal(t, AverageWindowMonths, s.Average.Months)
	assert.InDelta(t, 3000.0/91.0, s.Average.Daily, 1e-9)
	assert.InDelta(t, s.DailySpendRate-s.Average.Daily, s.RateVsAverage, 1e-9)
}

func TestSummarize_EmptyLedger(t *testing.T) {
	s := Summarize(nil, 0, 2024, time.March, day(2024, 3, 31), time.UTC)

	for _, v := range []float64{s.IncomeChange, s.ExpenseChange, s.DailySpendRate, s.ProjectedExpense, s.RecommendedDailyBudget, s.Average.Daily} {
		assert.False(t, math.IsNaN(v))
		assert.Equal(t, 0.0, v)
	}
	assert.Equal(t, 0, s.DaysRemaining)
}

func TestWindowStart(t *testing.T) {
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), WindowStart(2024, time.March, time.UTC))
	assert.Equal(t, time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), WindowStart(2024, time.January, time.UTC))
}
