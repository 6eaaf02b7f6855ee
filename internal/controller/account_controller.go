package controller

import (
	"net/http"

	"github.com/cassiomorais/finance/internal/domain/account"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/service"
)

type AccountController struct {
	accountService *service.AccountService
}

func NewAccountController(accountService *service.AccountService) *AccountController {
	return &AccountController{accountService: accountService}
}

func (h *AccountController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateAccountRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	balance, err := floatToCents(req.Balance)
	if err != nil {
		writeError(w, domainErrors.NewValidationError("balance", err.Error()))
		return
	}

	acct, err := h.accountService.CreateAccount(r.Context(), userID, service.CreateAccountRequest{
		Name:            req.Name,
		Type:            account.Type(req.Type),
		OpeningBalance:  balance,
		Currency:        req.Currency,
		Color:           req.Color,
		FamilyAccountID: parseUUID(req.FamilyAccountID),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromAccount(acct))
}

// List returns personal accounts, or the accounts of ?familyAccountId.
func (h *AccountController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	familyID, err := queryUUID(r, "familyAccountId")
	if err != nil {
		writeError(w, err)
		return
	}

	accts, err := h.accountService.ListAccounts(r.Context(), userID, familyID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromAccounts(accts))
}

func (h *AccountController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	acct, err := h.accountService.GetAccount(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromAccount(acct))
}

func (h *AccountController) Types(w http.ResponseWriter, r *http.Request) {
	types := h.accountService.Types()
	out := make([]AccountTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, AccountTypeResponse{Value: string(t.Type), Label: t.Label})
	}
	writeJSON(w, http.StatusOK, out)
}
