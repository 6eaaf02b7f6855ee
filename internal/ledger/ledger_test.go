package ledger

import (
	"testing"
	"time"

	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func tx(amount int64, typ transaction.Type, date time.Time, cat *uuid.UUID) *transaction.Transaction {
	return &transaction.Transaction{
		ID:         uuid.New(),
		AccountID:  uuid.New(),
		Amount:     amount,
		Type:       typ,
		Date:       date,
		CategoryID: cat,
	}
}

func income(amount int64, date time.Time) *transaction.Transaction {
	return tx(amount, transaction.TypeIncome, date, nil)
}

func expense(amount int64, date time.Time) *transaction.Transaction {
	return tx(amount, transaction.TypeExpense, date, nil)
}

func TestMonthTotals_UsesDateOfRecord(t *testing.T) {
	txs := []*transaction.Transaction{
		income(1000, day(2024, 3, 1)),
		expense(300, day(2024, 3, 31)),
		expense(50, day(2024, 4, 1)),
		income(70, day(2024, 2, 29)),
	}
	// created_at in a different month must not matter
	txs[0].CreatedAt = day(2024, 5, 1)

	got := MonthTotals(txs, 2024, time.March, time.UTC)
	assert.Equal(t, Totals{Income: 1000, Expense: 300}, got)
	assert.Equal(t, int64(700), got.Net())
}

func TestMonthTotals_TimeZone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)

	// 2024-03-31 22:30 UTC is already April at UTC+3
	late := time.Date(2024, 3, 31, 22, 30, 0, 0, time.UTC)
	txs := []*transaction.Transaction{expense(100, late)}

	assert.Equal(t, int64(100), MonthTotals(txs, 2024, time.March, time.UTC).Expense)
	assert.Equal(t, int64(0), MonthTotals(txs, 2024, time.March, loc).Expense)
	assert.Equal(t, int64(100), MonthTotals(txs, 2024, time.April, loc).Expense)
}

func TestMonthTotals_Empty(t *testing.T) {
	assert.Equal(t, Totals{}, MonthTotals(nil, 2024, time.January, nil))
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		previous int64
		want     float64
	}{
		{"both zero", 0, 0, 0},
		{"rise from zero", 500, 0, 100},
		{"fifty percent up", 150, 100, 50},
		{"down", 50, 100, -50},
		{"to zero", 0, 100, -100},
		{"unchanged", 100, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PercentChange(tt.current, tt.previous), 1e-9)
		})
	}
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 31, DaysIn(2024, time.December))
}
