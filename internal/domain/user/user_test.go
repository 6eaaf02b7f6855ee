package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser_Valid(t *testing.T) {
	u, err := NewUser("  Anna@Example.COM ", "Anna", "$2a$10$hash")
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", u.Email)
	assert.Equal(t, "Anna", u.Name)
	assert.False(t, u.IsConfirmed)
	require.NotNil(t, u.ConfirmationToken)
	assert.Len(t, *u.ConfirmationToken, 64)
}

func TestNewUser_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		email string
		uname string
		hash  string
		field string
	}{
		{"empty email", "", "Anna", "h", "email"},
		{"bad email", "not-an-email", "Anna", "h", "email"},
		{"empty name", "a@b.io", "  ", "h", "name"},
		{"empty password", "a@b.io", "Anna", "", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.email, tt.uname, tt.hash)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConfirm_ConsumesToken(t *testing.T) {
	u, err := NewUser("a@b.io", "A", "h")
	require.NoError(t, err)

	u.Confirm()
	assert.True(t, u.IsConfirmed)
	assert.Nil(t, u.ConfirmationToken)
}

func TestNewConfirmationToken_Unique(t *testing.T) {
	a, err := NewConfirmationToken()
	require.NoError(t, err)
	b, err := NewConfirmationToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
