package client

import (
	"net/url"
	"strconv"
	"time"
)

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsConfirmed bool      `json:"isConfirmed"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Account struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Balance         float64 `json:"balance"`
	Currency        string  `json:"currency"`
	Color           string  `json:"color"`
	FamilyAccountID *string `json:"familyAccountId,omitempty"`
}

type NewAccount struct {
	Name     string  `json:"name"`
	Type     string  `json:"type,omitempty"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

type Transaction struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"accountId"`
	CategoryID  *string   `json:"categoryId"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

type NewTransaction struct {
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	AccountID   string  `json:"accountId"`
	CategoryID  *string `json:"categoryId,omitempty"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date,omitempty"`
}

// TransactionFilter mirrors the query parameters of GET /transactions.
type TransactionFilter struct {
	AccountID string
	Type      string
	Start     time.Time
	End       time.Time
	Limit     int
	Offset    int
}

func (f TransactionFilter) values() url.Values {
	q := url.Values{}
	if f.AccountID != "" {
		q.Set("accountId", f.AccountID)
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if !f.Start.IsZero() {
		q.Set("startDate", f.Start.Format(time.RFC3339))
	}
	if !f.End.IsZero() {
		q.Set("endDate", f.End.Format(time.RFC3339))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

type Totals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

type Summary struct {
	Year                   int     `json:"year"`
	Month                  int     `json:"month"`
	TotalBalance           float64 `json:"totalBalance"`
	Current                Totals  `json:"current"`
	Previous               Totals  `json:"previous"`
	IncomeChange           float64 `json:"incomeChange"`
	ExpenseChange          float64 `json:"expenseChange"`
	DaysPassed             int     `json:"daysPassed"`
	DaysRemaining          int     `json:"daysRemaining"`
	DailySpendRate         float64 `json:"dailySpendRate"`
	ProjectedExpense       float64 `json:"projectedExpense"`
	RecommendedDailyBudget float64 `json:"recommendedDailyBudget"`
}
