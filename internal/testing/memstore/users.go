// Package memstore holds mutex-guarded in-memory repositories for service
// and handler tests.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"internship-service/internal/identity"
	"internship-service/internal/user"
)

type Users struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]user.User
	// Err, when set, is returned by every call.
	Err error
}

func NewUsers() *Users {
	return &Users{nextID: 1, byID: make(map[int]user.User)}
}

func (r *Users) Create(ctx context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	u.Normalize()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, user.ErrEmailExists
		}
	}
	now := time.Now()
	u.ID = r.nextID
	u.CreatedAt, u.UpdatedAt = now, now
	r.nextID++
	r.byID[u.ID] = *u
	return u, nil
}

func (r *Users) GetByID(ctx context.Context, id int) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	u, ok := r.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	email = user.NormalizeEmail(email)
	for _, u := range r.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *Users) Update(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	existing, ok := r.byID[u.ID]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Normalize()
	u.Email, u.Password, u.CreatedAt = existing.Email, existing.Password, existing.CreatedAt
	u.UpdatedAt = time.Now()
	r.byID[u.ID] = *u
	return nil
}

func (r *Users) List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}

	var all []user.User
	for _, u := range r.byID {
		if filter.Role == "" || u.Role == filter.Role {
			all = append(all, u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, filter.Page, filter.Limit), len(all), nil
}

func (r *Users) CountByRole(ctx context.Context) (map[identity.Role]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	counts := make(map[identity.Role]int)
	for _, u := range r.byID {
		counts[u.Role]++
	}
	return counts, nil
}

// Put stores u as-is, bypassing validation, and returns its id.
func (r *Users) Put(u user.User) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		u.ID = r.nextID
	}
	if u.ID >= r.nextID {
		r.nextID = u.ID + 1
	}
	r.byID[u.ID] = u
	return u.ID
}

var ErrUnavailable = errors.New("store unavailable")

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
