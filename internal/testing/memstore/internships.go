package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"internship-service/internal/internship"
)

type Internships struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]internship.Internship
	Err    error
	// Now stamps CreatedAt, defaulting to time.Now.
	Now func() time.Time
}

func NewInternships() *Internships {
	return &Internships{nextID: 1, byID: make(map[int]internship.Internship), Now: time.Now}
}

func (r *Internships) Create(ctx context.Context, i *internship.Internship) (*internship.Internship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	now := r.Now()
	i.ID = r.nextID
	r.nextID++
	i.CreatedAt, i.UpdatedAt = now, now
	i.Normalize(time.Now())
	r.byID[i.ID] = clone(*i)
	return i, nil
}

func (r *Internships) GetByID(ctx context.Context, id int) (*internship.Internship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	i, ok := r.byID[id]
	if !ok {
		return nil, internship.ErrNotFound
	}
	i = clone(i)
	i.Normalize(time.Now())
	return &i, nil
}

func (r *Internships) Update(ctx context.Context, i *internship.Internship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	existing, ok := r.byID[i.ID]
	if !ok {
		return internship.ErrNotFound
	}
	i.CreatedAt, i.PostedBy = existing.CreatedAt, existing.PostedBy
	i.UpdatedAt = time.Now()
	i.Normalize(time.Now())
	r.byID[i.ID] = clone(*i)
	return nil
}

func (r *Internships) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	if _, ok := r.byID[id]; !ok {
		return internship.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Internships) List(ctx context.Context, filter internship.ListFilter) ([]internship.Internship, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var all []internship.Internship
	for _, i := range r.byID {
		if search != "" && !strings.Contains(strings.ToLower(i.Title), search) {
			continue
		}
		if filter.Status != "" && i.Status != filter.Status {
			continue
		}
		if filter.PostedBy > 0 && i.PostedBy != filter.PostedBy {
			continue
		}
		i = clone(i)
		i.Normalize(time.Now())
		all = append(all, i)
	}
	sort.Slice(all, func(a, b int) bool {
		if !all[a].CreatedAt.Equal(all[b].CreatedAt) {
			return all[a].CreatedAt.After(all[b].CreatedAt)
		}
		return all[a].ID > all[b].ID
	})
	return paginate(all, filter.Page, filter.Limit), len(all), nil
}

func (r *Internships) CountByStatus(ctx context.Context, postedBy int) (map[internship.Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	counts := make(map[internship.Status]int)
	for _, i := range r.byID {
		if postedBy == 0 || i.PostedBy == postedBy {
			counts[i.Status]++
		}
	}
	return counts, nil
}

func (r *Internships) CountCreatedSince(ctx context.Context, since time.Time, postedBy int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}

	n := 0
	for _, i := range r.byID {
		if !i.CreatedAt.Before(since) && (postedBy == 0 || i.PostedBy == postedBy) {
			n++
		}
	}
	return n, nil
}

// Put stores i as-is and returns its id.
func (r *Internships) Put(i internship.Internship) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i.ID == 0 {
		i.ID = r.nextID
	}
	if i.ID >= r.nextID {
		r.nextID = i.ID + 1
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = r.Now()
	}
	r.byID[i.ID] = clone(i)
	return i.ID
}

func clone(i internship.Internship) internship.Internship {
	i.Skills = append([]string(nil), i.Skills...)
	return i
}
