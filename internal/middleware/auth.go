package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/google/uuid"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// AccessCookie is the cookie carrying the short-lived access token.
const AccessCookie = "accessToken"

// AccessVerifier validates an access token and returns the user it was issued to.
type AccessVerifier interface {
	VerifyAccessToken(raw string) (uuid.UUID, error)
}

// RequireAuth accepts the access token from the accessToken cookie or an
// Authorization: Bearer header, in that order.
func RequireAuth(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := AccessToken(r)
			if !ok {
				writeAuthError(w, "missing access token", "unauthorized")
				return
			}

			userID, err := verifier.VerifyAccessToken(raw)
			if err != nil {
				if errors.Is(err, domainErrors.ErrTokenExpired) {
					writeAuthError(w, "access token expired", "token_expired")
					return
				}
				writeAuthError(w, "invalid access token", "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// AccessToken extracts the raw access token from the request.
func AccessToken(r *http.Request) (string, bool) {
	if c, err := r.Cookie(AccessCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		if raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); raw != "" {
			return raw, true
		}
	}
	return "", false
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

func writeAuthError(w http.ResponseWriter, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
		"code":  code,
	})
}
