package internship

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"internship-service/internal/db"
	"internship-service/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, i *Internship) (*Internship, error)
	GetByID(ctx context.Context, id int) (*Internship, error)
	Update(ctx context.Context, i *Internship) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter ListFilter) ([]Internship, int, error)
	CountByStatus(ctx context.Context, postedBy int) (map[Status]int, error)
	CountCreatedSince(ctx context.Context, since time.Time, postedBy int) (int, error)
}

// Indexes are created next to the table at startup.
var Indexes = []db.Index{
	{Name: "idx_internships_posted_by", Table: "internships", Columns: []string{"posted_by"}},
	{Name: "idx_internships_status", Table: "internships", Columns: []string{"status"}},
	{Name: "idx_internships_created_at", Table: "internships", Columns: []string{"created_at"}},
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
		now:     time.Now,
	}
}

func (r *repository) Create(ctx context.Context, i *Internship) (*Internship, error) {
	i.Normalize(r.now())

	start := time.Now()
	_, err := r.db.NewInsert().Model(i).Returning("*").Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "insert", "internships", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	i.Normalize(r.now())
	return i, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Internship, error) {
	start := time.Now()
	i := new(Internship)
	err := r.db.NewSelect().Model(i).Where("i.id = ?", id).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "internships", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	i.Normalize(r.now())
	return i, nil
}

func (r *repository) Update(ctx context.Context, i *Internship) error {
	i.UpdatedAt = time.Now()
	i.Normalize(r.now())

	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(i).
		Column("title", "company", "location", "description", "duration", "stipend",
			"skills", "status", "application_deadline", "updated_at").
		WherePK().
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "update", "internships", time.Since(start), err)

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

func (r *repository) Delete(ctx context.Context, id int) error {
	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*Internship)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "delete", "internships", time.Since(start), err)

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

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Internship, int, error) {
	start := time.Now()
	var items []Internship
	q := r.db.NewSelect().Model(&items).Order("i.created_at DESC", "i.id DESC")
	if search := strings.TrimSpace(filter.Search); search != "" {
		q = q.Where("i.title ILIKE ?", "%"+escapeLike(search)+"%")
	}
	if filter.Status != "" {
		q = q.Where("i.status = ?", filter.Status)
	}
	if filter.PostedBy > 0 {
		q = q.Where("i.posted_by = ?", filter.PostedBy)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset((filter.Page - 1) * filter.Limit)
	}
	total, err := q.ScanAndCount(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "internships", time.Since(start), err)

	if err != nil {
		return nil, 0, err
	}
	now := r.now()
	for idx := range items {
		items[idx].Normalize(now)
	}
	return items, total, nil
}

func (r *repository) CountByStatus(ctx context.Context, postedBy int) (map[Status]int, error) {
	start := time.Now()
	var rows []struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}
	q := r.db.NewSelect().
		Model((*Internship)(nil)).
		Column("status").
		ColumnExpr("count(*) AS count").
		Group("status")
	if postedBy > 0 {
		q = q.Where("posted_by = ?", postedBy)
	}
	err := q.Scan(ctx, &rows)
	r.metrics.Database.RecordQuery(ctx, "select", "internships", time.Since(start), err)

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

func (r *repository) CountCreatedSince(ctx context.Context, since time.Time, postedBy int) (int, error) {
	start := time.Now()
	q := r.db.NewSelect().
		Model((*Internship)(nil)).
		Where("created_at >= ?", since)
	if postedBy > 0 {
		q = q.Where("posted_by = ?", postedBy)
	}
	n, err := q.Count(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "internships", time.Since(start), err)
	return n, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
