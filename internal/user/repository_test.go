package user_test

import (
	"context"
	"testing"

	"internship-service/internal/identity"
	"internship-service/internal/metrics"
	"internship-service/internal/testing/testdb"
	"internship-service/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Postgres(t *testing.T) {
	pg := testdb.Setup(t)
	pg.Migrate(t, []any{(*user.User)(nil)})
	repo := user.NewRepository(pg.DB, metrics.NewMock())
	ctx := context.Background()

	t.Run("create and load", func(t *testing.T) {
		pg.Truncate(t, "users")

		uni := "IIT"
		created, err := repo.Create(ctx, &user.User{Name: "Asha", Email: " Asha@Example.com ", Password: "hash", Role: identity.RoleIntern, University: &uni})
		require.NoError(t, err)
		assert.Equal(t, 1, created.ID)
		assert.Equal(t, "asha@example.com", created.Email)

		byEmail, err := repo.GetByEmail(ctx, "ASHA@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
		assert.Equal(t, "IIT", *byEmail.University)
	})

	t.Run("duplicate email", func(t *testing.T) {
		pg.Truncate(t, "users")

		_, err := repo.Create(ctx, &user.User{Name: "Asha", Email: "asha@example.com", Password: "hash", Role: identity.RoleIntern})
		require.NoError(t, err)
		_, err = repo.Create(ctx, &user.User{Name: "Other", Email: "ASHA@example.com", Password: "hash", Role: identity.RoleMentor})
		assert.ErrorIs(t, err, user.ErrEmailExists)
	})

	t.Run("legacy suspended spelling is normalised on load", func(t *testing.T) {
		pg.Truncate(t, "users")

		created, err := repo.Create(ctx, &user.User{Name: "Sam", Email: "sam@example.com", Password: "hash", Role: identity.RoleIntern})
		require.NoError(t, err)
		_, err = pg.DB.ExecContext(ctx, "UPDATE users SET role = 'Suspend' WHERE id = ?", created.ID)
		require.NoError(t, err)

		loaded, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, identity.RoleSuspended, loaded.Role)

		counts, err := repo.CountByRole(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, counts[identity.RoleSuspended])
	})

	t.Run("update and list", func(t *testing.T) {
		pg.Truncate(t, "users")

		for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
			_, err := repo.Create(ctx, &user.User{Name: email, Email: email, Password: "hash", Role: identity.RoleIntern})
			require.NoError(t, err)
		}
		u, err := repo.GetByID(ctx, 2)
		require.NoError(t, err)
		u.Role = identity.RoleMentor
		require.NoError(t, repo.Update(ctx, u))

		mentors, total, err := repo.List(ctx, user.ListFilter{Role: identity.RoleMentor, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "b@example.com", mentors[0].Email)

		page, total, err := repo.List(ctx, user.ListFilter{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, page, 1)

		assert.ErrorIs(t, repo.Update(ctx, &user.User{ID: 99, Role: identity.RoleIntern}), user.ErrUserNotFound)
		_, err = repo.GetByID(ctx, 99)
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}
