// Package directory provides the user directory consulted for authentication
// and notification fan-out. Users are an external collaborator's concern: this
// API only needs identity, role, and a password hash, so the default
// implementation is a static, config-seeded set.
package directory

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/medlabs/critalert/internal/models"
	"github.com/medlabs/critalert/pkg/crypto"
)

// UserDirectory resolves users by id and role.
type UserDirectory interface {
	Lookup(id string) (*models.User, bool)
	ListByRole(role models.Role) []models.User
}

// Seed describes one user to load into a static directory. Either Password
// (hashed at load time) or PasswordHash (already bcrypt-hashed) must be set.
type Seed struct {
	ID           string `mapstructure:"id"`
	Name         string `mapstructure:"name"`
	Role         string `mapstructure:"role"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

// StaticDirectory is an immutable in-memory user set.
type StaticDirectory struct {
	mu    sync.RWMutex
	users map[string]models.User
	order []string
}

// NewStaticDirectory builds a directory from the supplied seeds.
func NewStaticDirectory(seeds []Seed) (*StaticDirectory, error) {
	dir := &StaticDirectory{users: make(map[string]models.User, len(seeds))}

	for _, seed := range seeds {
		id := strings.TrimSpace(seed.ID)
		if id == "" {
			return nil, errors.New("directory: user id is required")
		}
		if _, exists := dir.users[id]; exists {
			return nil, fmt.Errorf("directory: duplicate user id %q", id)
		}

		role := models.Role(strings.ToLower(strings.TrimSpace(seed.Role)))
		if !role.Valid() {
			return nil, fmt.Errorf("directory: user %q has unknown role %q", id, seed.Role)
		}

		hash := strings.TrimSpace(seed.PasswordHash)
		if hash == "" {
			if seed.Password == "" {
				return nil, fmt.Errorf("directory: user %q has no password", id)
			}
			hashed, err := crypto.HashPassword(seed.Password)
			if err != nil {
				return nil, fmt.Errorf("directory: hash password for %q: %w", id, err)
			}
			hash = hashed
		}

		dir.users[id] = models.User{
			ID:           id,
			Name:         strings.TrimSpace(seed.Name),
			Role:         role,
			PasswordHash: hash,
		}
		dir.order = append(dir.order, id)
	}

	return dir, nil
}

// Lookup returns the user with the given id.
func (d *StaticDirectory) Lookup(id string) (*models.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[strings.TrimSpace(id)]
	if !ok {
		return nil, false
	}
	return &user, true
}

// ListByRole returns users holding exactly the supplied role, in seed order.
// Admin users are not included when listing receivers: admins are authorized
// everywhere but are not auto-notified.
func (d *StaticDirectory) ListByRole(role models.Role) []models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []models.User
	for _, id := range d.order {
		if user := d.users[id]; user.Role == role {
			out = append(out, user)
		}
	}
	return out
}
