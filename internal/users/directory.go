// Package users resolves caller identities. It stands in for an external
// identity service and holds no credentials.
package users

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"timesheet/internal/core"
)

var ErrUnknownUser = errors.New("unknown user")

type Directory struct {
	mu    sync.RWMutex
	users map[string]core.User
}

// DemoUsers are the accounts the demo deployment ships with.
func DemoUsers() []core.User {
	return []core.User{
		{ID: "1", Username: "admin", Email: "admin@example.com", Role: core.RoleAdmin},
		{ID: "2", Username: "user1", Email: "user1@example.com", Role: core.RoleUser},
		{ID: "3", Username: "user2", Email: "user2@example.com", Role: core.RoleUser},
	}
}

// NewDirectory indexes users by id. Later duplicates replace earlier ones.
func NewDirectory(users []core.User) *Directory {
	d := &Directory{users: make(map[string]core.User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// Get resolves an id. Surrounding whitespace is ignored.
func (d *Directory) Get(id string) (core.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.User{}, ErrUnknownUser
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return core.User{}, ErrUnknownUser
	}
	return u, nil
}

// List returns every user ordered by id (numeric ids sort numerically).
func (d *Directory) List() []core.User {
	d.mu.RLock()
	out := make([]core.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ID, out[j].ID
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return out
}

// Register adds or replaces a user. Email must be unique across users.
func (d *Directory) Register(u core.User) error {
	if strings.TrimSpace(u.ID) == "" {
		return core.ErrEmptyUser
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, existing := range d.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return errors.New("user with this email already exists")
		}
	}
	if u.Role == "" {
		u.Role = core.RoleUser
	}
	d.users[u.ID] = u
	return nil
}
