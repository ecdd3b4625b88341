package notification_test

import (
	"context"
	"testing"

	"internship-service/internal/identity"
	"internship-service/internal/metrics"
	"internship-service/internal/notification"
	"internship-service/internal/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Postgres(t *testing.T) {
	pg := testdb.Setup(t)
	pg.Migrate(t, []any{(*notification.Notification)(nil), (*notification.Read)(nil)}, notification.Indexes...)
	repo := notification.NewRepository(pg.DB, metrics.NewMock())
	ctx := context.Background()

	asha := identity.Principal{UserID: 4, Role: identity.RoleIntern}
	ravi := identity.Principal{UserID: 2, Role: identity.RoleMentor}

	create := func(t *testing.T, n notification.Notification) *notification.Notification {
		t.Helper()
		created, err := repo.Create(ctx, &n)
		require.NoError(t, err)
		return created
	}
	direct := func(userID int) notification.Notification {
		return notification.Notification{UserID: &userID, Message: "direct"}
	}
	broadcast := func(role string) notification.Notification {
		return notification.Notification{TargetRole: &role, Message: "broadcast " + role}
	}

	t.Run("visibility", func(t *testing.T) {
		pg.Truncate(t, "notifications", "notification_reads")

		create(t, direct(asha.UserID))
		create(t, direct(ravi.UserID))
		create(t, broadcast(notification.TargetAll))
		create(t, broadcast(string(identity.RoleIntern)))
		create(t, broadcast(string(identity.RoleMentor)))

		items, total, err := repo.List(ctx, asha, notification.ListFilter{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, items, 3)

		n, err := repo.CountUnread(ctx, ravi)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("broadcast read state is per user", func(t *testing.T) {
		pg.Truncate(t, "notifications", "notification_reads")

		all := create(t, broadcast(notification.TargetAll))
		require.NoError(t, repo.MarkRead(ctx, all, asha.UserID))
		require.NoError(t, repo.MarkRead(ctx, all, asha.UserID))

		forAsha, err := repo.GetFor(ctx, all.ID, asha)
		require.NoError(t, err)
		assert.True(t, forAsha.IsRead)

		forRavi, err := repo.GetFor(ctx, all.ID, ravi)
		require.NoError(t, err)
		assert.False(t, forRavi.IsRead)
	})

	t.Run("mark all read", func(t *testing.T) {
		pg.Truncate(t, "notifications", "notification_reads")

		create(t, direct(asha.UserID))
		create(t, direct(asha.UserID))
		create(t, broadcast(notification.TargetAll))
		create(t, direct(ravi.UserID))

		marked, err := repo.MarkAllRead(ctx, asha)
		require.NoError(t, err)
		assert.Equal(t, 3, marked)

		n, err := repo.CountUnread(ctx, asha)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		n, err = repo.CountUnread(ctx, ravi)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		unread, total, err := repo.List(ctx, asha, notification.ListFilter{UnreadOnly: true, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, unread)
	})

	t.Run("missing", func(t *testing.T) {
		pg.Truncate(t, "notifications", "notification_reads")

		_, err := repo.GetFor(ctx, 42, asha)
		assert.ErrorIs(t, err, notification.ErrNotFound)
	})
}
