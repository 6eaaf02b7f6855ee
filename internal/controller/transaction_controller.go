package controller

import (
	"net/http"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/cassiomorais/finance/internal/service"
	"github.com/google/uuid"
)

type TransactionController struct {
	transactionService *service.TransactionService
}

func NewTransactionController(transactionService *service.TransactionService) *TransactionController {
	return &TransactionController{transactionService: transactionService}
}

// List supports ?accountId&type&startDate&endDate&limit&offset.
func (h *TransactionController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := listRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	txs, err := h.transactionService.List(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromTransactions(txs))
}

func listRequest(r *http.Request) (service.ListTransactionsRequest, error) {
	var req service.ListTransactionsRequest
	var err error

	if req.AccountID, err = queryUUID(r, "accountId"); err != nil {
		return req, err
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := transaction.ParseType(raw)
		if err != nil {
			return req, err
		}
		req.Type = &t
	}
	if req.Start, err = queryTime(r, "startDate"); err != nil {
		return req, err
	}
	if req.End, err = queryTime(r, "endDate"); err != nil {
		return req, err
	}
	if req.Limit, err = queryInt(r, "limit", 0); err != nil {
		return req, err
	}
	if req.Offset, err = queryInt(r, "offset", 0); err != nil {
		return req, err
	}
	if req.Offset < 0 {
		return req, domainErrors.NewValidationError("offset", "cannot be negative")
	}
	return req, nil
}

func (h *TransactionController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.transactionService.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromTransaction(t))
}

func (h *TransactionController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateTransactionRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	amount, err := floatToCents(req.Amount)
	if err != nil {
		writeError(w, domainErrors.NewValidationError("amount", err.Error()))
		return
	}
	var in service.CreateTransactionRequest
	in.AccountID = uuid.MustParse(req.AccountID)
	in.CategoryID = parseUUID(req.CategoryID)
	in.Amount = amount
	in.Type = transaction.Type(req.Type)
	in.Description = req.Description
	if req.Date != "" {
		if in.Date, err = parseTime(req.Date); err != nil {
			writeError(w, domainErrors.NewValidationError("date", "must be RFC 3339 or YYYY-MM-DD"))
			return
		}
	}

	t, err := h.transactionService.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromTransaction(t))
}

func (h *TransactionController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTransactionRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	patch := transaction.Patch{
		Description: req.Description,
		AccountID:   parseUUID(req.AccountID),
	}
	if req.Amount != nil {
		amount, err := floatToCents(*req.Amount)
		if err != nil {
			writeError(w, domainErrors.NewValidationError("amount", err.Error()))
			return
		}
		patch.Amount = &amount
	}
	if req.Type != nil {
		t := transaction.Type(*req.Type)
		patch.Type = &t
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			patch.ClearCategory = true
		} else {
			patch.CategoryID = parseUUID(req.CategoryID)
		}
	}

	t, err := h.transactionService.Update(r.Context(), userID, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromTransaction(t))
}

func (h *TransactionController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.transactionService.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
