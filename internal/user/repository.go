package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"internship-service/internal/db"
	"internship-service/internal/identity"
	"internship-service/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	CountByRole(ctx context.Context) (map[identity.Role]int, error)
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

func (r *repository) Create(ctx context.Context, u *User) (*User, error) {
	u.Normalize()

	start := time.Now()
	_, err := r.db.NewInsert().Model(u).Returning("*").Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "insert", "users", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return u, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*User, error) {
	start := time.Now()
	u := new(User)
	err := r.db.NewSelect().Model(u).Where("u.id = ?", id).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Normalize()
	return u, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	start := time.Now()
	u := new(User)
	err := r.db.NewSelect().Model(u).Where("u.email = ?", NormalizeEmail(email)).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Normalize()
	return u, nil
}

func (r *repository) Update(ctx context.Context, u *User) error {
	u.Normalize()
	u.UpdatedAt = time.Now()

	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(u).
		Column("name", "role", "phone", "university", "specialization", "mentor_id", "updated_at").
		WherePK().
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "update", "users", time.Since(start), err)

	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	start := time.Now()
	var users []User
	q := r.db.NewSelect().Model(&users).Order("u.created_at DESC", "u.id DESC")
	if filter.Role != "" {
		q = q.Where("u.role = ?", filter.Role)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset((filter.Page - 1) * filter.Limit)
	}
	total, err := q.ScanAndCount(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		return nil, 0, err
	}
	for i := range users {
		users[i].Normalize()
	}
	return users, total, nil
}

func (r *repository) CountByRole(ctx context.Context) (map[identity.Role]int, error) {
	start := time.Now()
	var rows []struct {
		Role  string `bun:"role"`
		Count int    `bun:"count"`
	}
	err := r.db.NewSelect().
		Model((*User)(nil)).
		Column("role").
		ColumnExpr("count(*) AS count").
		Group("role").
		Scan(ctx, &rows)
	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	counts := make(map[identity.Role]int, len(rows))
	for _, row := range rows {
		role, ok := identity.NormalizeRole(row.Role)
		if !ok {
			continue
		}
		counts[role] += row.Count
	}
	return counts, nil
}
