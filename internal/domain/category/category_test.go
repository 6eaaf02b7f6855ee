package category

import (
	"testing"

	"github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewCategory_Defaults(t *testing.T) {
	c, err := NewCategory(uuid.New(), " Food ", "", "", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Food", c.Name)
	assert.Equal(t, transaction.TypeExpense, c.Type)
	assert.Equal(t, DefaultColor, c.Color)
	assert.False(t, c.HasLimit())
}

func TestNewCategory_Invalid(t *testing.T) {
	_, err := NewCategory(uuid.New(), "", transaction.TypeIncome, "", "", nil, nil)
	assert.ErrorIs(t, err, errors.ErrValidationFailed)

	_, err = NewCategory(uuid.New(), "Food", transaction.Type("X"), "", "", nil, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidType)

	_, err = NewCategory(uuid.New(), "Food", transaction.TypeExpense, "", "", ptr(int64(-1)), nil)
	assert.ErrorIs(t, err, errors.ErrValidationFailed)
}

func TestHasLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit *int64
		want  bool
	}{
		{"nil", nil, false},
		{"zero", ptr(int64(0)), false},
		{"positive", ptr(int64(50000)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Category{Limit: tt.limit}
			assert.Equal(t, tt.want, c.HasLimit())
		})
	}
}

func TestApply(t *testing.T) {
	c, err := NewCategory(uuid.New(), "Food", transaction.TypeExpense, "", "", ptr(int64(100)), nil)
	require.NoError(t, err)

	require.NoError(t, c.Apply(Patch{Name: ptr("Groceries"), ClearLimit: true}))
	assert.Equal(t, "Groceries", c.Name)
	assert.Nil(t, c.Limit)

	err = c.Apply(Patch{ParentID: &c.ID})
	assert.ErrorIs(t, err, errors.ErrValidationFailed)
	assert.Nil(t, c.ParentID)
}
