package controller

import (
	"errors"
	"math"
	"time"

	"github.com/cassiomorais/finance/internal/domain/account"
	"github.com/cassiomorais/finance/internal/domain/category"
	"github.com/cassiomorais/finance/internal/domain/family"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/cassiomorais/finance/internal/domain/user"
	"github.com/cassiomorais/finance/internal/ledger"
	"github.com/google/uuid"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (float64 for money, string for IDs, validation tags).
// Controllers convert these to service layer DTOs before calling business logic.

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ConfirmRequest struct {
	Token string `json:"token" validate:"required"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
}

type CreateAccountRequest struct {
	Name            string  `json:"name" validate:"required"`
	Type            string  `json:"type" validate:"omitempty,oneof=BANK CASH SAVINGS INVESTMENT CREDIT"`
	Balance         float64 `json:"balance"`
	Currency        string  `json:"currency" validate:"required,len=3"`
	Color           string  `json:"color"`
	FamilyAccountID *string `json:"familyAccountId,omitempty" validate:"omitempty,uuid"`
}

type CreateCategoryRequest struct {
	Name     string   `json:"name" validate:"required"`
	Type     string   `json:"type" validate:"omitempty,oneof=INCOME EXPENSE"`
	Color    string   `json:"color"`
	Icon     string   `json:"icon"`
	Limit    *float64 `json:"limit,omitempty" validate:"omitempty,gte=0"`
	ParentID *string  `json:"parentId,omitempty" validate:"omitempty,uuid"`
}

type UpdateCategoryRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Type        *string  `json:"type,omitempty" validate:"omitempty,oneof=INCOME EXPENSE"`
	Color       *string  `json:"color,omitempty"`
	Icon        *string  `json:"icon,omitempty"`
	Limit       *float64 `json:"limit,omitempty" validate:"omitempty,gte=0"`
	ClearLimit  bool     `json:"clearLimit,omitempty"`
	ParentID    *string  `json:"parentId,omitempty" validate:"omitempty,uuid"`
	ClearParent bool     `json:"clearParent,omitempty"`
}

type CreateTransactionRequest struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Type        string  `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	AccountID   string  `json:"accountId" validate:"required,uuid"`
	CategoryID  *string `json:"categoryId,omitempty" validate:"omitempty,uuid"`
	Description string  `json:"description"`
	Date        string  `json:"date,omitempty"`
}

// UpdateTransactionRequest leaves nil fields unchanged. An empty categoryId
// string detaches the category.
type UpdateTransactionRequest struct {
	Amount      *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Type        *string  `json:"type,omitempty" validate:"omitempty,oneof=INCOME EXPENSE"`
	AccountID   *string  `json:"accountId,omitempty" validate:"omitempty,uuid"`
	CategoryID  *string  `json:"categoryId,omitempty" validate:"omitempty,uuid"`
	Description *string  `json:"description,omitempty"`
}

type CreateFamilyRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
}

type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// --- Response DTOs ---

type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsConfirmed bool      `json:"isConfirmed"`
	CreatedAt   time.Time `json:"createdAt"`
}

type AccountResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Balance         float64   `json:"balance"`
	OpeningBalance  float64   `json:"openingBalance"`
	Currency        string    `json:"currency"`
	Color           string    `json:"color"`
	FamilyAccountID *string   `json:"familyAccountId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type AccountTypeResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon,omitempty"`
	Limit     *float64  `json:"limit"`
	ParentID  *string   `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type TransactionResponse struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"accountId"`
	CategoryID  *string   `json:"categoryId"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type MemberResponse struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name,omitempty"`
	Email    string    `json:"email,omitempty"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

type FamilyResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Members     []MemberResponse `json:"members"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type InvitationResponse struct {
	ID              string    `json:"id"`
	FamilyAccountID string    `json:"familyAccountId"`
	FamilyName      string    `json:"familyName,omitempty"`
	InvitedUserID   string    `json:"invitedUserId"`
	InvitedByID     string    `json:"invitedById"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

type TotalsResponse struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

type SummaryResponse struct {
	Year                   int            `json:"year"`
	Month                  int            `json:"month"`
	TotalBalance           float64        `json:"totalBalance"`
	Current                TotalsResponse `json:"current"`
	Previous               TotalsResponse `json:"previous"`
	IncomeChange           float64        `json:"incomeChange"`
	ExpenseChange          float64        `json:"expenseChange"`
	DaysPassed             int            `json:"daysPassed"`
	DaysRemaining          int            `json:"daysRemaining"`
	DailySpendRate         float64        `json:"dailySpendRate"`
	ProjectedExpense       float64        `json:"projectedExpense"`
	RecommendedDailyBudget float64        `json:"recommendedDailyBudget"`
	AverageDailyExpense    float64        `json:"averageDailyExpense"`
	MonthlyAverages        []float64      `json:"monthlyAverages"`
	RateVsAverage          float64        `json:"rateVsAverage"`
}

type CategoryAmountResponse struct {
	CategoryID     *string `json:"categoryId"`
	Name           string  `json:"name"`
	Color          string  `json:"color"`
	Amount         float64 `json:"amount"`
	PercentOfTotal float64 `json:"percentOfTotal"`
}

type CategoryProgressResponse struct {
	Category        CategoryResponse `json:"category"`
	MonthlySpent    float64          `json:"monthlySpent"`
	ProgressPercent float64          `json:"progressPercent"`
	HasLimit        bool             `json:"hasLimit"`
}

type MonthPointResponse struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

type DailyResponse struct {
	Date         string                `json:"date"`
	Income       float64               `json:"income"`
	Expense      float64               `json:"expense"`
	Net          float64               `json:"net"`
	Transactions []TransactionResponse `json:"transactions"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// --- Conversion helpers ---

func FromUser(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Name:        u.Name,
		IsConfirmed: u.IsConfirmed,
		CreatedAt:   u.CreatedAt,
	}
}

func FromAccount(a *account.Account) AccountResponse {
	return AccountResponse{
		ID:              a.ID.String(),
		Name:            a.Name,
		Type:            string(a.Type),
		Balance:         centsToFloat(a.Balance),
		OpeningBalance:  centsToFloat(a.OpeningBalance),
		Currency:        a.Currency,
		Color:           a.Color,
		FamilyAccountID: uuidString(a.FamilyAccountID),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func FromAccounts(accts []*account.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accts))
	for _, a := range accts {
		out = append(out, FromAccount(a))
	}
	return out
}

func FromCategory(c *category.Category) CategoryResponse {
	resp := CategoryResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Type:      string(c.Type),
		Color:     c.Color,
		Icon:      c.Icon,
		ParentID:  uuidString(c.ParentID),
		CreatedAt: c.CreatedAt,
	}
	if c.Limit != nil {
		l := centsToFloat(*c.Limit)
		resp.Limit = &l
	}
	return resp
}

func FromCategories(cats []*category.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, FromCategory(c))
	}
	return out
}

func FromTransaction(t *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID.String(),
		AccountID:   t.AccountID.String(),
		CategoryID:  uuidString(t.CategoryID),
		Amount:      centsToFloat(t.Amount),
		Type:        string(t.Type),
		Description: t.Description,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromTransactions(txs []*transaction.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, FromTransaction(t))
	}
	return out
}

func FromFamily(f *family.FamilyAccount) FamilyResponse {
	resp := FamilyResponse{
		ID:          f.ID.String(),
		Name:        f.Name,
		Description: f.Description,
		Members:     make([]MemberResponse, 0, len(f.Members)),
		CreatedAt:   f.CreatedAt,
	}
	for _, m := range f.Members {
		resp.Members = append(resp.Members, MemberResponse{
			UserID:   m.UserID.String(),
			Name:     m.UserName,
			Email:    m.UserEmail,
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt,
		})
	}
	return resp
}

func FromFamilies(fams []*family.FamilyAccount) []FamilyResponse {
	out := make([]FamilyResponse, 0, len(fams))
	for _, f := range fams {
		out = append(out, FromFamily(f))
	}
	return out
}

func FromInvitation(inv *family.Invitation) InvitationResponse {
	return InvitationResponse{
		ID:              inv.ID.String(),
		FamilyAccountID: inv.FamilyAccountID.String(),
		FamilyName:      inv.FamilyName,
		InvitedUserID:   inv.InvitedUserID.String(),
		InvitedByID:     inv.InvitedByID.String(),
		Status:          string(inv.Status),
		CreatedAt:       inv.CreatedAt,
	}
}

func fromTotals(t ledger.Totals) TotalsResponse {
	return TotalsResponse{
		Income:  centsToFloat(t.Income),
		Expense: centsToFloat(t.Expense),
		Net:     centsToFloat(t.Net()),
	}
}

// FromSummary converts the ledger dashboard. Rates are computed on cents and
// scaled to currency units like every other amount.
func FromSummary(s *ledger.Summary) SummaryResponse {
	monthly := make([]float64, 0, len(s.Average.MonthlyAverages))
	for _, m := range s.Average.MonthlyAverages {
		monthly = append(monthly, m/100)
	}
	return SummaryResponse{
		Year:                   s.Year,
		Month:                  int(s.Month),
		TotalBalance:           centsToFloat(s.TotalBalance),
		Current:                fromTotals(s.Current),
		Previous:               fromTotals(s.Previous),
		IncomeChange:           s.IncomeChange,
		ExpenseChange:          s.ExpenseChange,
		DaysPassed:             s.DaysPassed,
		DaysRemaining:          s.DaysRemaining,
		DailySpendRate:         s.DailySpendRate / 100,
		ProjectedExpense:       s.ProjectedExpense / 100,
		RecommendedDailyBudget: s.RecommendedDailyBudget / 100,
		AverageDailyExpense:    s.Average.Daily / 100,
		MonthlyAverages:        monthly,
		RateVsAverage:          s.RateVsAverage / 100,
	}
}

func FromCategoryAmounts(in []ledger.CategoryAmount) []CategoryAmountResponse {
	out := make([]CategoryAmountResponse, 0, len(in))
	for _, c := range in {
		out = append(out, CategoryAmountResponse{
			CategoryID:     uuidString(c.CategoryID),
			Name:           c.Name,
			Color:          c.Color,
			Amount:         centsToFloat(c.Amount),
			PercentOfTotal: c.PercentOfTotal,
		})
	}
	return out
}

func FromCategoryBudgets(in []ledger.CategoryBudget) []CategoryProgressResponse {
	out := make([]CategoryProgressResponse, 0, len(in))
	for _, b := range in {
		out = append(out, CategoryProgressResponse{
			Category:        FromCategory(b.Category),
			MonthlySpent:    centsToFloat(b.MonthlySpent),
			ProgressPercent: b.ProgressPercent,
			HasLimit:        b.HasLimit,
		})
	}
	return out
}

func FromMonthPoints(in []ledger.MonthPoint) []MonthPointResponse {
	out := make([]MonthPointResponse, 0, len(in))
	for _, p := range in {
		out = append(out, MonthPointResponse{
			Month:   time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
			Income:  centsToFloat(p.Income),
			Expense: centsToFloat(p.Expense),
			Balance: centsToFloat(p.Balance),
		})
	}
	return out
}

func FromDay(d *ledger.Day) DailyResponse {
	return DailyResponse{
		Date:         d.Date.Format(time.DateOnly),
		Income:       centsToFloat(d.Income),
		Expense:      centsToFloat(d.Expense),
		Net:          centsToFloat(d.Net),
		Transactions: FromTransactions(d.Transactions),
	}
}

// maxAmountFloat is the largest amount a NUMERIC(15, 2) column can hold.
const maxAmountFloat = 9_999_999_999_999.99

var errAmountRange = errors.New("amount out of range")

// floatToCents rounds a currency amount to whole cents. Sign checks belong to
// the validators; only non-finite and overflowing values are rejected here.
func floatToCents(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxAmountFloat {
		return 0, errAmountRange
	}
	return int64(math.Round(f * 100)), nil
}

// centsToFloat converts cents to a float currency amount.
func centsToFloat(cents int64) float64 {
	return float64(cents) / 100.0
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// parseUUID parses a UUID string, returning nil if empty or invalid.
func parseUUID(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}
