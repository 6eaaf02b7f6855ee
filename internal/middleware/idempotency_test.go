package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cassiomorais/finance/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*postgres.IdempotencyEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]*postgres.IdempotencyEntry)}
}

func (s *memoryStore) Get(_ context.Context, userID uuid.UUID, key string) (*postgres.IdempotencyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[userID.String()+"/"+key], nil
}

func (s *memoryStore) Set(_ context.Context, e *postgres.IdempotencyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.UserID.String()+"/"+e.Key] = e
	return nil
}

func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"n":1}`))
	})
}

func post(h http.Handler, userID uuid.UUID, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	req = req.WithContext(WithUserID(req.Context(), userID))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysSameRequest(t *testing.T) {
	calls := 0
	h := Idempotency(newMemoryStore(), time.Hour)(countingHandler(&calls))
	userID := uuid.New()

	first := post(h, userID, "k1", `{"amount":3}`)
	second := post(h, userID, "k1", `{"amount":3}`)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
}

func TestIdempotency_RejectsDifferentBody(t *testing.T) {
	calls := 0
	h := Idempotency(newMemoryStore(), time.Hour)(countingHandler(&calls))
	userID := uuid.New()

	post(h, userID, "k1", `{"amount":3}`)
	w := post(h, userID, "k1", `{"amount":4}`)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "conflict", decodeCode(t, w))
}

func TestIdempotency_KeysAreScopedPerUser(t *testing.T) {
	calls := 0
	h := Idempotency(newMemoryStore(), time.Hour)(countingHandler(&calls))

	post(h, uuid.New(), "shared", `{}`)
	post(h, uuid.New(), "shared", `{}`)

	assert.Equal(t, 2, calls)
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	calls := 0
	store := newMemoryStore()
	h := Idempotency(store, time.Hour)(countingHandler(&calls))
	userID := uuid.New()

	post(h, userID, "", `{}`)
	post(h, userID, "", `{}`)

	assert.Equal(t, 2, calls)
	assert.Empty(t, store.entries)
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	store := newMemoryStore()
	h := Idempotency(store, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	post(h, uuid.New(), "k1", `{}`)

	assert.Empty(t, store.entries)
}
