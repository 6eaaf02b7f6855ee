package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	// credentials
	{domainErrors.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{domainErrors.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
	{domainErrors.ErrTokenRevoked, http.StatusUnauthorized, "token_revoked"},
	{domainErrors.ErrTokenInvalid, http.StatusUnauthorized, "unauthorized"},
	{domainErrors.ErrTokenNotFound, http.StatusUnauthorized, "unauthorized"},
	{domainErrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domainErrors.ErrInvalidConfirmation, http.StatusBadRequest, "invalid_token"},
	{domainErrors.ErrForbidden, http.StatusForbidden, "forbidden"},

	// lookups
	{domainErrors.ErrUserNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrAccountNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrCategoryNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrTransactionNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrFamilyNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrInvitationNotFound, http.StatusNotFound, "not_found"},

	// input
	{domainErrors.ErrInvalidAmount, http.StatusBadRequest, "validation_error"},
	{domainErrors.ErrInvalidType, http.StatusBadRequest, "validation_error"},
	{domainErrors.ErrInvalidInput, http.StatusBadRequest, "validation_error"},

	// state
	{domainErrors.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{domainErrors.ErrAlreadyMember, http.StatusConflict, "conflict"},
	{domainErrors.ErrInvitationPending, http.StatusConflict, "conflict"},
	{domainErrors.ErrInvitationProcessed, http.StatusConflict, "conflict"},
	{domainErrors.ErrOwnerCannotLeave, http.StatusConflict, "conflict"},
	{domainErrors.ErrDuplicateIdempotencyKey, http.StatusConflict, "conflict"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			resp.Error = m.err.Error()
			writeJSON(w, m.status, resp)
			return
		}
	}

	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		resp.Code = domainErr.Code
		resp.Error = domainErr.Message
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(jsonField(ve[0]), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}

// jsonField lowercases the first rune of the struct field so error fields match the wire names.
func jsonField(fe validator.FieldError) string {
	f := fe.Field()
	if f == "" {
		return f
	}
	return strings.ToLower(f[:1]) + f[1:]
}

// currentUser reads the id stored by RequireAuth.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, domainErrors.NewValidationError(name, "must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domainErrors.NewValidationError(name, "must be a valid UUID")
	}
	return &id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domainErrors.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

// queryTime accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, domainErrors.NewValidationError(name, "must be RFC 3339 or YYYY-MM-DD")
	}
	return &t, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
