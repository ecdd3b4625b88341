package application

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"internship-service/internal/db"
	"internship-service/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, a *Application) (*Application, error)
	GetByID(ctx context.Context, id int) (*Application, error)
	HasActive(ctx context.Context, userID, internshipID int) (bool, error)
	// UpdateStatus writes the review fields only if the stored status still
	// equals from.
	UpdateStatus(ctx context.Context, a *Application, from Status) error
	AssignMentor(ctx context.Context, id, mentorID int) error
	List(ctx context.Context, scope Scope, filter ListFilter) ([]Application, int, error)
	CountByStatus(ctx context.Context, scope Scope) (map[Status]int, error)
	CountSubmittedSince(ctx context.Context, scope Scope, since time.Time) (int, error)
	UpcomingInterviews(ctx context.Context, scope Scope, after time.Time, limit int) ([]Application, error)
}

// Indexes include the partial unique index that allows only one
// non-withdrawn application per user and posting.
var Indexes = []db.Index{
	{
		Name:    "uq_applications_active",
		Table:   "applications",
		Columns: []string{"user_id", "internship_id"},
		Unique:  true,
		Where:   "status <> 'Withdrawn'",
	},
	{Name: "idx_applications_internship_id", Table: "applications", Columns: []string{"internship_id"}},
	{Name: "idx_applications_mentor_id", Table: "applications", Columns: []string{"mentor_id"}},
	{Name: "idx_applications_interview_at", Table: "applications", Columns: []string{"interview_at"}, Where: "interview_at IS NOT NULL"},
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func scoped(q *bun.SelectQuery, scope Scope) *bun.SelectQuery {
	if scope.ApplicantID > 0 {
		q = q.Where("a.user_id = ?", scope.ApplicantID)
	}
	if scope.ReviewerID > 0 {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("a.mentor_id = ?", scope.ReviewerID).
				WhereOr("a.internship_id IN (SELECT id FROM internships WHERE posted_by = ?)", scope.ReviewerID)
		})
	}
	return q
}

func (r *repository) Create(ctx context.Context, a *Application) (*Application, error) {
	a.Normalize()

	start := time.Now()
	_, err := r.db.NewInsert().Model(a).Returning("*").Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "insert", "applications", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateApplication
		}
		return nil, err
	}
	return a, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Application, error) {
	start := time.Now()
	a := new(Application)
	err := r.db.NewSelect().Model(a).Where("a.id = ?", id).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "applications", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Normalize()
	return a, nil
}

func (r *repository) HasActive(ctx context.Context, userID, internshipID int) (bool, error) {
	start := time.Now()
	exists, err := r.db.NewSelect().
		Model((*Application)(nil)).
		Where("a.user_id = ?", userID).
		Where("a.internship_id = ?", internshipID).
		Where("a.status <> ?", StatusWithdrawn).
		Exists(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "applications", time.Since(start), err)
	return exists, err
}

func (r *repository) UpdateStatus(ctx context.Context, a *Application, from Status) error {
	a.Normalize()
	a.UpdatedAt = time.Now()

	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(a).
		Column("status", "reviewed_at", "review_notes", "interview_at", "updated_at").
		WherePK().
		Where("status = ?", from).
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "update", "applications", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateApplication
		}
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *repository) AssignMentor(ctx context.Context, id, mentorID int) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model((*Application)(nil)).
		Set("mentor_id = ?", mentorID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "update", "applications", time.Since(start), err)

	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, scope Scope, filter ListFilter) ([]Application, int, error) {
	start := time.Now()
	var items []Application
	q := scoped(r.db.NewSelect().Model(&items), scope).Order("a.submitted_at DESC", "a.id DESC")
	if filter.Status != "" {
		q = q.Where("a.status = ?", filter.Status)
	}
	if filter.InternshipID > 0 {
		q = q.Where("a.internship_id = ?", filter.InternshipID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset((filter.Page - 1) * filter.Limit)
	}
	total, err := q.ScanAndCount(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "applications", time.Since(start), err)

	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].Normalize()
	}
	return items, total, nil
}

func (r *repository) CountByStatus(ctx context.Context, scope Scope) (map[Status]int, error) {
	start := time.Now()
	var rows []struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}
	q := r.db.NewSelect().
		Model((*Application)(nil)).
		ColumnExpr("a.status AS status").
		ColumnExpr("count(*) AS count").
		GroupExpr("a.status")
	err := scoped(q, scope).Scan(ctx, &rows)
	r.metrics.Database.RecordQuery(ctx, "select", "applications", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	counts := make(map[Status]int, len(rows))
	for _, row := range rows {
		if s, ok := ParseStatus(row.Status); ok {
			counts[s] += row.Count
		}
	}
	return counts, nil
}

func (r *repository) CountSubmittedSince(ctx context.Context, scope Scope, since time.Time) (int, error) {
	start := time.Now()
	q := r.db.NewSelect().
		Model((*Application)(nil)).
		Where("a.submitted_at >= ?", since)
	n, err := scoped(q, scope).Count(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "applications", time.Since(start), err)
	return n, err
}

func (r *repository) UpcomingInterviews(ctx context.Context, scope Scope, after time.Time, limit int) ([]Application, error) {
	start := time.Now()
	var items []Application
	q := r.db.NewSelect().
		Model(&items).
		Where("a.status = ?", StatusInterviewScheduled).
		Where("a.interview_at > ?", after).
		Order("a.interview_at ASC").
		Limit(limit)
	err := scoped(q, scope).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "applications", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Normalize()
	}
	return items, nil
}
