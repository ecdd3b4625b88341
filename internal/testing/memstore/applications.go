package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"internship-service/internal/application"
)

type Applications struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]application.Application
	// Postings resolves owners for reviewer scopes. Nil means no mentor owns
	// anything.
	Postings *Internships
	Err      error
}

func NewApplications(postings *Internships) *Applications {
	return &Applications{nextID: 1, byID: make(map[int]application.Application), Postings: postings}
}

func (r *Applications) ownerOf(internshipID int) int {
	if r.Postings == nil {
		return 0
	}
	r.Postings.mu.Lock()
	defer r.Postings.mu.Unlock()
	return r.Postings.byID[internshipID].PostedBy
}

func (r *Applications) visible(a application.Application, scope application.Scope) bool {
	if scope.ApplicantID > 0 && a.UserID != scope.ApplicantID {
		return false
	}
	if scope.ReviewerID > 0 {
		assigned := a.MentorID != nil && *a.MentorID == scope.ReviewerID
		if !assigned && r.ownerOf(a.InternshipID) != scope.ReviewerID {
			return false
		}
	}
	return true
}

func (r *Applications) Create(ctx context.Context, a *application.Application) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	a.Normalize()
	for _, existing := range r.byID {
		if existing.UserID == a.UserID && existing.InternshipID == a.InternshipID && existing.Status.Active() {
			return nil, application.ErrDuplicateApplication
		}
	}
	now := time.Now()
	a.ID = r.nextID
	r.nextID++
	a.CreatedAt, a.UpdatedAt = now, now
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = now
	}
	r.byID[a.ID] = *a
	return a, nil
}

func (r *Applications) GetByID(ctx context.Context, id int) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	a, ok := r.byID[id]
	if !ok {
		return nil, application.ErrNotFound
	}
	return &a, nil
}

func (r *Applications) HasActive(ctx context.Context, userID, internshipID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}

	for _, a := range r.byID {
		if a.UserID == userID && a.InternshipID == internshipID && a.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (r *Applications) UpdateStatus(ctx context.Context, a *application.Application, from application.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	existing, ok := r.byID[a.ID]
	if !ok || existing.Status != from {
		return application.ErrStaleStatus
	}
	a.Normalize()
	existing.Status = a.Status
	existing.ReviewedAt = a.ReviewedAt
	existing.ReviewNotes = a.ReviewNotes
	existing.InterviewAt = a.InterviewAt
	existing.UpdatedAt = time.Now()
	a.UpdatedAt = existing.UpdatedAt
	r.byID[a.ID] = existing
	return nil
}

func (r *Applications) AssignMentor(ctx context.Context, id, mentorID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	a, ok := r.byID[id]
	if !ok {
		return application.ErrNotFound
	}
	a.MentorID = &mentorID
	a.UpdatedAt = time.Now()
	r.byID[id] = a
	return nil
}

func (r *Applications) List(ctx context.Context, scope application.Scope, filter application.ListFilter) ([]application.Application, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}

	var all []application.Application
	for _, a := range r.byID {
		if !r.visible(a, scope) {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.InternshipID > 0 && a.InternshipID != filter.InternshipID {
			continue
		}
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].SubmittedAt.Equal(all[j].SubmittedAt) {
			return all[i].SubmittedAt.After(all[j].SubmittedAt)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, filter.Page, filter.Limit), len(all), nil
}

func (r *Applications) CountByStatus(ctx context.Context, scope application.Scope) (map[application.Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	counts := make(map[application.Status]int)
	for _, a := range r.byID {
		if r.visible(a, scope) {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (r *Applications) CountSubmittedSince(ctx context.Context, scope application.Scope, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}

	n := 0
	for _, a := range r.byID {
		if r.visible(a, scope) && !a.SubmittedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *Applications) UpcomingInterviews(ctx context.Context, scope application.Scope, after time.Time, limit int) ([]application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	var items []application.Application
	for _, a := range r.byID {
		if a.Status != application.StatusInterviewScheduled || a.InterviewAt == nil || !a.InterviewAt.After(after) {
			continue
		}
		if r.visible(a, scope) {
			items = append(items, a)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].InterviewAt.Before(*items[j].InterviewAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Put stores a as-is and returns its id.
func (r *Applications) Put(a application.Application) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == 0 {
		a.ID = r.nextID
	}
	if a.ID >= r.nextID {
		r.nextID = a.ID + 1
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now()
	}
	r.byID[a.ID] = a
	return a.ID
}
