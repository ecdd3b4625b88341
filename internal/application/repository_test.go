package application_test

import (
	"context"
	"testing"
	"time"

	"internship-service/internal/application"
	"internship-service/internal/internship"
	"internship-service/internal/metrics"
	"internship-service/internal/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Postgres(t *testing.T) {
	pg := testdb.Setup(t)
	pg.Migrate(t, []any{(*internship.Internship)(nil), (*application.Application)(nil)}, application.Indexes...)
	m := metrics.NewMock()
	repo := application.NewRepository(pg.DB, m)
	postings := internship.NewRepository(pg.DB, m)
	ctx := context.Background()

	reset := func(t *testing.T) *internship.Internship {
		t.Helper()
		pg.Truncate(t, "applications", "internships")
		p, err := postings.Create(ctx, &internship.Internship{
			Title: "Backend", Company: "Acme", Location: "Remote", Description: "Go", PostedBy: ravi.UserID,
		})
		require.NoError(t, err)
		return p
	}
	submit := func(t *testing.T, userID, internshipID int) *application.Application {
		t.Helper()
		a, err := repo.Create(ctx, &application.Application{UserID: userID, InternshipID: internshipID, Status: application.StatusSubmitted})
		require.NoError(t, err)
		return a
	}

	t.Run("partial unique index blocks a second active application", func(t *testing.T) {
		p := reset(t)

		first := submit(t, asha.UserID, p.ID)
		_, err := repo.Create(ctx, &application.Application{UserID: asha.UserID, InternshipID: p.ID, Status: application.StatusSubmitted})
		assert.ErrorIs(t, err, application.ErrDuplicateApplication)

		withdrawn := *first
		withdrawn.Status = application.StatusWithdrawn
		require.NoError(t, repo.UpdateStatus(ctx, &withdrawn, application.StatusSubmitted))

		active, err := repo.HasActive(ctx, asha.UserID, p.ID)
		require.NoError(t, err)
		assert.False(t, active)

		submit(t, asha.UserID, p.ID)
	})

	t.Run("conditional status update", func(t *testing.T) {
		p := reset(t)
		a := submit(t, asha.UserID, p.ID)

		now := time.Now()
		notes := "Looks good"
		review := *a
		review.Status = application.StatusUnderReview
		review.ReviewedAt = &now
		review.ReviewNotes = &notes
		require.NoError(t, repo.UpdateStatus(ctx, &review, application.StatusSubmitted))

		stale := *a
		stale.Status = application.StatusRejected
		assert.ErrorIs(t, repo.UpdateStatus(ctx, &stale, application.StatusSubmitted), application.ErrStaleStatus)

		loaded, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, application.StatusUnderReview, loaded.Status)
		assert.Equal(t, "Looks good", *loaded.ReviewNotes)
	})

	t.Run("legacy pending status is normalised on load", func(t *testing.T) {
		p := reset(t)
		a := submit(t, asha.UserID, p.ID)
		_, err := pg.DB.ExecContext(ctx, "UPDATE applications SET status = 'Pending' WHERE id = ?", a.ID)
		require.NoError(t, err)

		loaded, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, application.StatusSubmitted, loaded.Status)
	})

	t.Run("reviewer scope covers owned postings and assignments", func(t *testing.T) {
		p := reset(t)
		other, err := postings.Create(ctx, &internship.Internship{
			Title: "Data", Company: "Acme", Location: "Remote", Description: "SQL", PostedBy: priya.UserID,
		})
		require.NoError(t, err)

		submit(t, asha.UserID, p.ID)
		assigned := submit(t, kiran.UserID, other.ID)
		submit(t, asha.UserID, other.ID)
		require.NoError(t, repo.AssignMentor(ctx, assigned.ID, ravi.UserID))

		items, total, err := repo.List(ctx, application.ScopeFor(ravi), application.ListFilter{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, items, 2)

		counts, err := repo.CountByStatus(ctx, application.ScopeFor(priya))
		require.NoError(t, err)
		assert.Equal(t, 2, counts[application.StatusSubmitted])

		n, err := repo.CountSubmittedSince(ctx, application.ScopeFor(asha), time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		assert.ErrorIs(t, repo.AssignMentor(ctx, 999, ravi.UserID), application.ErrNotFound)
	})

	t.Run("upcoming interviews", func(t *testing.T) {
		p := reset(t)
		a := submit(t, asha.UserID, p.ID)

		at := time.Now().Add(24 * time.Hour)
		scheduled := *a
		scheduled.Status = application.StatusInterviewScheduled
		scheduled.InterviewAt = &at
		require.NoError(t, repo.UpdateStatus(ctx, &scheduled, application.StatusSubmitted))

		upcoming, err := repo.UpcomingInterviews(ctx, application.Scope{}, time.Now(), 5)
		require.NoError(t, err)
		require.Len(t, upcoming, 1)
		assert.Equal(t, a.ID, upcoming[0].ID)

		later, err := repo.UpcomingInterviews(ctx, application.Scope{}, at.Add(time.Minute), 5)
		require.NoError(t, err)
		assert.Empty(t, later)
	})
}
