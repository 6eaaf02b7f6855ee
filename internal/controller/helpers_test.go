package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		payload      any
		expectedBody string
	}{
		{
			name:         "simple map",
			status:       http.StatusOK,
			payload:      map[string]string{"message": "hello"},
			expectedBody: `{"message":"hello"}`,
		},
		{
			name:         "success response",
			status:       http.StatusOK,
			payload:      SuccessResponse{Success: true},
			expectedBody: `{"success":true}`,
		},
		{
			name:         "error response",
			status:       http.StatusBadRequest,
			payload:      ErrorResponse{Error: "bad request", Code: "validation_error"},
			expectedBody: `{"error":"bad request","code":"validation_error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.status, tt.payload)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestWriteError_ValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainErrors.NewValidationError("email", "must be valid email")

	writeError(w, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "validation_error", response.Code)
	assert.Contains(t, response.Error, "email")
}

func TestWriteError_DomainErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"invalid credentials", domainErrors.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{"token expired", domainErrors.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
		{"token revoked", domainErrors.ErrTokenRevoked, http.StatusUnauthorized, "token_revoked"},
		{"token invalid", domainErrors.ErrTokenInvalid, http.StatusUnauthorized, "unauthorized"},
		{"missing token", domainErrors.ErrTokenNotFound, http.StatusUnauthorized, "unauthorized"},
		{"bad confirmation", domainErrors.ErrInvalidConfirmation, http.StatusBadRequest, "invalid_token"},
		{"forbidden", domainErrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"account not found", domainErrors.ErrAccountNotFound, http.StatusNotFound, "not_found"},
		{"transaction not found", domainErrors.ErrTransactionNotFound, http.StatusNotFound, "not_found"},
		{"family not found", domainErrors.ErrFamilyNotFound, http.StatusNotFound, "not_found"},
		{"invalid amount", domainErrors.ErrInvalidAmount, http.StatusBadRequest, "validation_error"},
		{"email taken", domainErrors.ErrEmailTaken, http.StatusConflict, "email_taken"},
		{"already member", domainErrors.ErrAlreadyMember, http.StatusConflict, "conflict"},
		{"owner cannot leave", domainErrors.ErrOwnerCannotLeave, http.StatusConflict, "conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedCode, response.Code)
		})
	}
}

func TestWriteError_WrappedSentinelUsesSentinelMessage(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, fmt.Errorf("lookup user 42: %w", domainErrors.ErrInvalidCredentials))

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "invalid credentials", response.Error)
}

func TestWriteError_GenericDomainError(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainErrors.NewDomainError("custom_error", "custom error message", nil)

	writeError(w, err)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "custom_error", response.Code)
	assert.Equal(t, "custom error message", response.Error)
}

func TestWriteError_UnknownError_FallbackToInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()
	err := errors.New("pq: connection refused")

	writeError(w, err)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "internal_error", response.Code)
	assert.Equal(t, "internal server error", response.Error)
}

func TestDecodeAndValidate_Success(t *testing.T) {
	type TestStruct struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"required,email"`
	}

	body := `{"name":"John","email":"john@example.com"}`
	req := httptest.NewRequest("POST", "/test", strings.NewReader(body))

	var result TestStruct
	err := decodeAndValidate(httptest.NewRecorder(), req, &result)

	require.NoError(t, err)
	assert.Equal(t, "John", result.Name)
	assert.Equal(t, "john@example.com", result.Email)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	type TestStruct struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest("POST", "/test", strings.NewReader(`{invalid json}`))

	var result TestStruct
	err := decodeAndValidate(httptest.NewRecorder(), req, &result)

	var validationErr *domainErrors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "body", validationErr.Field)
	assert.Contains(t, validationErr.Message, "invalid JSON")
}

func TestDecodeAndValidate_ReportsJSONFieldName(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", strings.NewReader(`{"amount":10,"type":"REFUND","accountId":"x"}`))

	var result CreateTransactionRequest
	err := decodeAndValidate(httptest.NewRecorder(), req, &result)

	var validationErr *domainErrors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "type", validationErr.Field)
	assert.Contains(t, validationErr.Message, "oneof")
	assert.ErrorIs(t, err, domainErrors.ErrValidationFailed)
}

func TestDecodeAndValidate_EmailFormat(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", strings.NewReader(`{"email":"not-an-email","password":"x"}`))

	var result LoginRequest
	err := decodeAndValidate(httptest.NewRecorder(), req, &result)

	var validationErr *domainErrors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "email", validationErr.Field)
}

func TestDecodeAndValidate_EmptyBody(t *testing.T) {
	type TestStruct struct {
		Name string `json:"name" validate:"required"`
	}

	req := httptest.NewRequest("POST", "/test", bytes.NewReader([]byte{}))

	var result TestStruct
	err := decodeAndValidate(httptest.NewRecorder(), req, &result)

	assert.Error(t, err)
}

func TestDecodeAndValidate_BodyTooLarge(t *testing.T) {
	type TestStruct struct {
		Name string `json:"name"`
	}

	big := `{"name":"` + strings.Repeat("a", maxBodyBytes+1) + `"}`
	req := httptest.NewRequest("POST", "/test", strings.NewReader(big))

	var result TestStruct
	err := decodeAndValidate(httptest.NewRecorder(), req, &result)

	assert.Error(t, err)
}

func TestFloatToCents(t *testing.T) {
	tests := []struct {
		in      float64
		want    int64
		wantErr bool
	}{
		{in: 12.34, want: 1234},
		{in: 0.1 + 0.2, want: 30},
		{in: 19.999, want: 2000},
		{in: -5.5, want: -550},
		{in: math.NaN(), wantErr: true},
		{in: math.Inf(1), wantErr: true},
		{in: 1e300, wantErr: true},
		{in: 9_999_999_999_999.99, want: 999_999_999_999_999},
		{in: 1e13, wantErr: true},
		{in: -1e13, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			got, err := floatToCents(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryTime(t *testing.T) {
	req := httptest.NewRequest("GET", "/x?a=2024-03-01&b=2024-03-01T10:00:00Z&c=yesterday", nil)

	a, err := queryTime(req, "a")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", a.Format("2006-01-02"))

	b, err := queryTime(req, "b")
	require.NoError(t, err)
	assert.Equal(t, 10, b.Hour())

	_, err = queryTime(req, "c")
	assert.ErrorIs(t, err, domainErrors.ErrValidationFailed)

	missing, err := queryTime(req, "d")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
