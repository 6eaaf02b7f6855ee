package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryCache is an in-memory per-user cache with the same contract as the
// Redis UserCache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]map[string][]byte

	Invalidations map[uuid.UUID]int
	GetErr        error
	InvalidateErr error
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:       make(map[uuid.UUID]map[string][]byte),
		Invalidations: make(map[uuid.UUID]int),
	}
}

func (c *MemoryCache) Get(_ context.Context, userID uuid.UUID, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GetErr != nil {
		return nil, false, c.GetErr
	}
	v, ok := c.entries[userID][key]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, userID uuid.UUID, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[userID] == nil {
		c.entries[userID] = make(map[string][]byte)
	}
	c.entries[userID][key] = value
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Invalidations[userID]++
	if c.InvalidateErr != nil {
		return c.InvalidateErr
	}
	delete(c.entries, userID)
	return nil
}

// Len returns the number of entries cached for userID.
func (c *MemoryCache) Len(userID uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries[userID])
}
