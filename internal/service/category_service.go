package service

import (
	"context"

	"github.com/cassiomorais/finance/internal/domain/category"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/google/uuid"
)

type CategoryService struct {
	categoryRepo category.Repository
	invalidator  CacheInvalidator
}

func NewCategoryService(categoryRepo category.Repository, invalidator CacheInvalidator) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, invalidator: invalidator}
}

func (s *CategoryService) List(ctx context.Context, userID uuid.UUID, typ *transaction.Type) ([]*category.Category, error) {
	return s.categoryRepo.ListByUser(ctx, userID, typ)
}

// Get returns the category when userID owns it. Categories of other users are
// reported as not found.
func (s *CategoryService) Get(ctx context.Context, userID, id uuid.UUID) (*category.Category, error) {
	c, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, domainErrors.ErrCategoryNotFound
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, userID uuid.UUID, req CreateCategoryRequest) (*category.Category, error) {
	if req.ParentID != nil {
		if _, err := s.Get(ctx, userID, *req.ParentID); err != nil {
			return nil, err
		}
	}
	c, err := category.NewCategory(userID, req.Name, req.Type, req.Color, req.Icon, req.Limit, req.ParentID)
	if err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, id uuid.UUID, patch category.Patch) (*category.Category, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.ParentID != nil && !patch.ClearParent && *patch.ParentID != id {
		if _, err := s.Get(ctx, userID, *patch.ParentID); err != nil {
			return nil, err
		}
	}
	if err := c.Apply(patch); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.invalidator.invalidate(ctx, userID)
	return c, nil
}

// Delete removes the category. Its transactions keep existing with no category.
func (s *CategoryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidator.invalidate(ctx, userID)
	return nil
}
