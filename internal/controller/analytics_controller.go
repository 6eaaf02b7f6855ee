package controller

import (
	"net/http"
	"time"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/service"
)

type AnalyticsController struct {
	analyticsService *service.AnalyticsService
	loc              *time.Location
	now              func() time.Time
}

// NewAnalyticsController resolves missing year/month parameters against the
// current time in loc.
func NewAnalyticsController(analyticsService *service.AnalyticsService, loc *time.Location) *AnalyticsController {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsController{analyticsService: analyticsService, loc: loc, now: time.Now}
}

func (h *AnalyticsController) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	year, month, err := h.period(r)
	if err != nil {
		writeError(w, err)
		return
	}
	accountID, err := queryUUID(r, "accountId")
	if err != nil {
		writeError(w, err)
		return
	}

	s, err := h.analyticsService.Summary(r.Context(), userID, year, month, accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromSummary(s))
}

func (h *AnalyticsController) ExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	year, month, err := h.period(r)
	if err != nil {
		writeError(w, err)
		return
	}
	accountID, err := queryUUID(r, "accountId")
	if err != nil {
		writeError(w, err)
		return
	}

	out, err := h.analyticsService.ExpensesByCategory(r.Context(), userID, year, month, accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromCategoryAmounts(out))
}

func (h *AnalyticsController) CategoryProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	year, month, err := h.period(r)
	if err != nil {
		writeError(w, err)
		return
	}

	out, err := h.analyticsService.CategoryProgress(r.Context(), userID, year, month)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromCategoryBudgets(out))
}

func (h *AnalyticsController) BalanceHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	months, err := queryInt(r, "months", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	accountID, err := queryUUID(r, "accountId")
	if err != nil {
		writeError(w, err)
		return
	}

	out, err := h.analyticsService.BalanceHistory(r.Context(), userID, months, accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromMonthPoints(out))
}

// Daily takes ?date=YYYY-MM-DD and defaults to today.
func (h *AnalyticsController) Daily(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	accountID, err := queryUUID(r, "accountId")
	if err != nil {
		writeError(w, err)
		return
	}

	var day time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err = time.ParseInLocation(time.DateOnly, raw, h.loc)
		if err != nil {
			writeError(w, domainErrors.NewValidationError("date", "must be YYYY-MM-DD"))
			return
		}
	}

	d, err := h.analyticsService.Daily(r.Context(), userID, day, accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromDay(d))
}

func (h *AnalyticsController) period(r *http.Request) (int, time.Month, error) {
	now := h.now().In(h.loc)
	year, err := queryInt(r, "year", now.Year())
	if err != nil {
		return 0, 0, err
	}
	month, err := queryInt(r, "month", int(now.Month()))
	if err != nil {
		return 0, 0, err
	}
	return year, time.Month(month), nil
}
