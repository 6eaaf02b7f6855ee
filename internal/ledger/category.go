package ledger

import (
	"sort"

	"github.com/cassiomorais/finance/internal/domain/category"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/google/uuid"
)

// CategoryAmount is one slice of an expense breakdown. CategoryID is nil for
// the Uncategorized bucket.
type CategoryAmount struct {
	CategoryID     *uuid.UUID
	Name           string
	Color          string
	Amount         int64
	PercentOfTotal float64
}

// ExpensesByCategory groups expense transactions by category, largest first.
// Transactions without a known category land in Uncategorized.
func ExpensesByCategory(txs []*transaction.Transaction, cats []*category.Category) []CategoryAmount {
	byID := indexCategories(cats)

	buckets := make(map[uuid.UUID]*CategoryAmount)
	var uncategorized *CategoryAmount
	var total int64

	for _, tx := range txs {
		if tx.Type != transaction.TypeExpense {
			continue
		}
		total += tx.Amount

		var c *category.Category
		if tx.CategoryID != nil {
			c = byID[*tx.CategoryID]
		}
		if c == nil {
			if uncategorized == nil {
				uncategorized = &CategoryAmount{Name: category.UncategorizedName, Color: category.UncategorizedColor}
			}
			uncategorized.Amount += tx.Amount
			continue
		}

		b, ok := buckets[c.ID]
		if !ok {
			id := c.ID
			b = &CategoryAmount{CategoryID: &id, Name: c.Name, Color: c.Color}
			buckets[c.ID] = b
		}
		b.Amount += tx.Amount
	}

	out := make([]CategoryAmount, 0, len(buckets)+1)
	for _, b := range buckets {
		out = append(out, *b)
	}
	if uncategorized != nil {
		out = append(out, *uncategorized)
	}
	for i := range out {
		if total > 0 {
			out[i].PercentOfTotal = float64(out[i].Amount) / float64(total) * 100
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// CategoryBudget is an expense category with its spend against the monthly limit.
type CategoryBudget struct {
	Category        *category.Category
	MonthlySpent    int64
	ProgressPercent float64
	HasLimit        bool
}

// CategoryProgress reports spend per expense category for the given period's
// transactions, largest spend first. Progress is capped at 100 and stays 0
// for categories without a limit.
func CategoryProgress(txs []*transaction.Transaction, cats []*category.Category) []CategoryBudget {
	spent := make(map[uuid.UUID]int64)
	for _, tx := range txs {
		if tx.Type == transaction.TypeExpense && tx.CategoryID != nil {
			spent[*tx.CategoryID] += tx.Amount
		}
	}

	out := make([]CategoryBudget, 0, len(cats))
	for _, c := range cats {
		if c.Type != transaction.TypeExpense {
			continue
		}
		b := CategoryBudget{Category: c, MonthlySpent: spent[c.ID], HasLimit: c.HasLimit()}
		if b.HasLimit {
			p := float64(b.MonthlySpent) / float64(*c.Limit) * 100
			if p > 100 {
				p = 100
			}
			b.ProgressPercent = p
		}
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MonthlySpent > out[j].MonthlySpent
	})
	return out
}

func indexCategories(cats []*category.Category) map[uuid.UUID]*category.Category {
	m := make(map[uuid.UUID]*category.Category, len(cats))
	for _, c := range cats {
		m[c.ID] = c
	}
	return m
}
