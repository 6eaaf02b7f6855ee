package controller

import (
	"net/http"

	"github.com/cassiomorais/finance/internal/domain/category"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/cassiomorais/finance/internal/service"
)

type CategoryController struct {
	categoryService *service.CategoryService
}

func NewCategoryController(categoryService *service.CategoryService) *CategoryController {
	return &CategoryController{categoryService: categoryService}
}

// List accepts an optional ?type=INCOME|EXPENSE filter.
func (h *CategoryController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var typ *transaction.Type
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := transaction.ParseType(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		typ = &t
	}

	cats, err := h.categoryService.List(r.Context(), userID, typ)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromCategories(cats))
}

func (h *CategoryController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.categoryService.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromCategory(c))
}

func (h *CategoryController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateCategoryRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	limit, err := optionalCents("limit", req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := h.categoryService.Create(r.Context(), userID, service.CreateCategoryRequest{
		Name:     req.Name,
		Type:     transaction.Type(req.Type),
		Color:    req.Color,
		Icon:     req.Icon,
		Limit:    limit,
		ParentID: parseUUID(req.ParentID),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromCategory(c))
}

func (h *CategoryController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	limit, err := optionalCents("limit", req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	patch := category.Patch{
		Name:        req.Name,
		Color:       req.Color,
		Icon:        req.Icon,
		Limit:       limit,
		ClearLimit:  req.ClearLimit,
		ParentID:    parseUUID(req.ParentID),
		ClearParent: req.ClearParent,
	}
	if req.Type != nil {
		t := transaction.Type(*req.Type)
		patch.Type = &t
	}

	c, err := h.categoryService.Update(r.Context(), userID, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromCategory(c))
}

func (h *CategoryController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.categoryService.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func optionalCents(field string, f *float64) (*int64, error) {
	if f == nil {
		return nil, nil
	}
	cents, err := floatToCents(*f)
	if err != nil {
		return nil, domainErrors.NewValidationError(field, err.Error())
	}
	return &cents, nil
}
