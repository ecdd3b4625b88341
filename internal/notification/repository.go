package notification

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
	Create(ctx context.Context, n *Notification) (*Notification, error)
	// GetFor loads a notification with IsRead resolved for viewer.
	GetFor(ctx context.Context, id int, viewer identity.Principal) (*Notification, error)
	List(ctx context.Context, viewer identity.Principal, filter ListFilter) ([]Notification, int, error)
	CountUnread(ctx context.Context, viewer identity.Principal) (int, error)
	MarkRead(ctx context.Context, n *Notification, userID int) error
	MarkAllRead(ctx context.Context, viewer identity.Principal) (int, error)
}

var Indexes = []db.Index{
	{Name: "idx_notifications_user_id", Table: "notifications", Columns: []string{"user_id", "is_read"}},
	{Name: "idx_notifications_target_role", Table: "notifications", Columns: []string{"target_role"}, Where: "user_id IS NULL"},
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

const readExpr = `CASE WHEN n.user_id IS NOT NULL THEN n.is_read
	ELSE EXISTS (SELECT 1 FROM notification_reads AS nr WHERE nr.notification_id = n.id AND nr.user_id = ?) END`

func visibleTo(q *bun.SelectQuery, viewer identity.Principal) *bun.SelectQuery {
	return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("n.user_id = ?", viewer.UserID).
			WhereOr("n.user_id IS NULL AND n.target_role = ?", TargetAll).
			WhereOr("n.user_id IS NULL AND n.target_role = ?", string(viewer.Role))
	})
}

func (r *repository) Create(ctx context.Context, n *Notification) (*Notification, error) {
	n.Normalize()

	start := time.Now()
	_, err := r.db.NewInsert().Model(n).Returning("*").Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "insert", "notifications", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *repository) GetFor(ctx context.Context, id int, viewer identity.Principal) (*Notification, error) {
	start := time.Now()
	n := new(Notification)
	err := r.db.NewSelect().
		Model(n).
		ExcludeColumn("is_read").
		ColumnExpr(readExpr+" AS is_read", viewer.UserID).
		Where("n.id = ?", id).
		Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "notifications", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	n.Normalize()
	return n, nil
}

func (r *repository) List(ctx context.Context, viewer identity.Principal, filter ListFilter) ([]Notification, int, error) {
	start := time.Now()
	var items []Notification
	q := r.db.NewSelect().
		Model(&items).
		ExcludeColumn("is_read").
		ColumnExpr(readExpr+" AS is_read", viewer.UserID).
		Order("n.created_at DESC", "n.id DESC")
	q = visibleTo(q, viewer)
	if filter.UnreadOnly {
		q = q.Where("NOT ("+readExpr+")", viewer.UserID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset((filter.Page - 1) * filter.Limit)
	}
	total, err := q.ScanAndCount(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "notifications", time.Since(start), err)

	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].Normalize()
	}
	return items, total, nil
}

func (r *repository) CountUnread(ctx context.Context, viewer identity.Principal) (int, error) {
	start := time.Now()
	q := r.db.NewSelect().Model((*Notification)(nil))
	q = visibleTo(q, viewer).Where("NOT ("+readExpr+")", viewer.UserID)
	n, err := q.Count(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "notifications", time.Since(start), err)
	return n, err
}

// MarkRead is idempotent for both kinds of notification.
func (r *repository) MarkRead(ctx context.Context, n *Notification, userID int) error {
	start := time.Now()
	var err error
	if n.IsBroadcast() {
		_, err = r.db.NewInsert().
			Model(&Read{NotificationID: n.ID, UserID: userID, ReadAt: time.Now()}).
			On("CONFLICT (notification_id, user_id) DO NOTHING").
			Exec(ctx)
		r.metrics.Database.RecordQuery(ctx, "insert", "notification_reads", time.Since(start), err)
	} else {
		_, err = r.db.NewUpdate().
			Model((*Notification)(nil)).
			Set("is_read = ?", true).
			Where("id = ?", n.ID).
			Exec(ctx)
		r.metrics.Database.RecordQuery(ctx, "update", "notifications", time.Since(start), err)
	}
	return err
}

func (r *repository) MarkAllRead(ctx context.Context, viewer identity.Principal) (int, error) {
	start := time.Now()
	var marked int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*Notification)(nil)).
			Set("is_read = ?", true).
			Where("user_id = ?", viewer.UserID).
			Where("is_read = ?", false).
			Exec(ctx)
		if err != nil {
			return err
		}
		direct, _ := res.RowsAffected()

		res, err = tx.NewRaw(`INSERT INTO notification_reads (notification_id, user_id, read_at)
			SELECT n.id, ?, now() FROM notifications AS n
			WHERE n.user_id IS NULL AND n.target_role IN (?, ?)
			ON CONFLICT (notification_id, user_id) DO NOTHING`,
			viewer.UserID, TargetAll, string(viewer.Role)).Exec(ctx)
		if err != nil {
			return err
		}
		broadcast, _ := res.RowsAffected()

		marked = direct + broadcast
		return nil
	})
	r.metrics.Database.RecordQuery(ctx, "update", "notifications", time.Since(start), err)
	return int(marked), err
}
