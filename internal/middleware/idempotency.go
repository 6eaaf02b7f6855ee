package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cassiomorais/finance/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxIdempotencyBodySize = 1 << 20

const IdempotencyHeader = "Idempotency-Key"

// IdempotencyStore persists replayable responses per user and key.
type IdempotencyStore interface {
	Get(ctx context.Context, userID uuid.UUID, key string) (*postgres.IdempotencyEntry, error)
	Set(ctx context.Context, entry *postgres.IdempotencyEntry) error
}

// Idempotency replays the stored response when an authenticated client repeats
// a request with the same Idempotency-Key. Reusing a key with a different
// request body is rejected with 422. Must be mounted after RequireAuth.
func Idempotency(store IdempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			userID, ok := GetUserID(r.Context())
			if key == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotencyBodySize+1))
			if err != nil || len(body) > maxIdempotencyBodySize {
				writeIdempotencyError(w, http.StatusRequestEntityTooLarge, "request body too large", "validation_error")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			hash := requestHash(r, body)

			entry, err := store.Get(r.Context(), userID, key)
			if err != nil {
				log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed")
			}
			if err == nil && entry != nil {
				if entry.RequestHash != hash {
					writeIdempotencyError(w, http.StatusUnprocessableEntity,
						"idempotency key reused with a different request", "conflict")
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotency-Replayed", "true")
				w.WriteHeader(entry.ResponseStatus)
				w.Write([]byte(entry.ResponseBody))
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= 200 && rec.statusCode < 500 && !rec.bodyTruncated {
				now := time.Now()
				err := store.Set(r.Context(), &postgres.IdempotencyEntry{
					UserID:         userID,
					Key:            key,
					RequestHash:    hash,
					ResponseBody:   rec.body.String(),
					ResponseStatus: rec.statusCode,
					CreatedAt:      now,
					ExpiresAt:      now.Add(ttl),
				})
				if err != nil {
					log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency store failed")
				}
			}
		})
	}
}

func requestHash(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func writeIdempotencyError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
		"code":  code,
	})
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	body          *bytes.Buffer
	bodyTruncated bool
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.bodyTruncated {
		if r.body.Len()+len(b) > maxIdempotencyBodySize {
			r.bodyTruncated = true
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}
