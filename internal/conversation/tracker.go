// Package conversation maps a chat-platform user to the opaque
// conversation id that correlates their questions into one dialogue with
// the answering service.
package conversation

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultMaxEntries = 4096

// Tracker issues one conversation id per user, created lazily and kept
// until an explicit reset. The map is bounded: cold users are evicted in
// LRU order, which only costs the upstream service an old dialogue
// correlation. The cache is internally synchronized; the mutex exists to
// make GetOrCreate's check-then-add atomic, so concurrent handlers for
// the same user cannot each mint an id.
type Tracker struct {
	mu    sync.Mutex
	cache *lru.Cache[string, string]
}

func NewTracker(maxEntries int) (*Tracker, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	cache, err := lru.New[string, string](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("conversation cache: %w", err)
	}
	return &Tracker{cache: cache}, nil
}

// GetOrCreate returns the user's conversation id, generating and storing
// a fresh one on first contact.
func (t *Tracker) GetOrCreate(userID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.cache.Get(userID); ok {
		return id
	}
	id := uuid.NewString()
	t.cache.Add(userID, id)
	return id
}

// Reset forgets the user's conversation id. The next GetOrCreate starts
// a fresh dialogue. Returns whether an id existed.
func (t *Tracker) Reset(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cache.Remove(userID)
}

// Len reports how many users currently hold a conversation id.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cache.Len()
}
