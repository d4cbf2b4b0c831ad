// Package devices tracks the push token registered for each user. At most one
// token is kept per user and the last write wins.
package devices

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Registry maps user ids to push tokens. Implementations must be safe for
// concurrent use; same-user races resolve last-write-wins.
type Registry interface {
	Register(ctx context.Context, userID, token string) error
	Unregister(ctx context.Context, userID string) error
	Token(ctx context.Context, userID string) (string, bool, error)
}

// MemoryRegistry keeps registrations in process memory. Tokens are lost on
// restart, which is acceptable: clients re-register on launch.
type MemoryRegistry struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryRegistry constructs an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{tokens: make(map[string]string)}
}

// Register upserts the token for a user.
func (r *MemoryRegistry) Register(_ context.Context, userID, token string) error {
	userID = strings.TrimSpace(userID)
	token = strings.TrimSpace(token)
	if userID == "" {
		return errors.New("devices: user id is required")
	}
	if token == "" {
		return errors.New("devices: token is required")
	}

	r.mu.Lock()
	r.tokens[userID] = token
	r.mu.Unlock()
	return nil
}

// Unregister removes the token for a user. Absence is not an error.
func (r *MemoryRegistry) Unregister(_ context.Context, userID string) error {
	r.mu.Lock()
	delete(r.tokens, strings.TrimSpace(userID))
	r.mu.Unlock()
	return nil
}

// Token returns the registered token for a user.
func (r *MemoryRegistry) Token(_ context.Context, userID string) (string, bool, error) {
	r.mu.RLock()
	token, ok := r.tokens[strings.TrimSpace(userID)]
	r.mu.RUnlock()
	return token, ok, nil
}
