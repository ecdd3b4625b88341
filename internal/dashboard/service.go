// Package dashboard builds the role-scoped summary behind GET /api/dashboard.
package dashboard

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"internship-service/internal/application"
	"internship-service/internal/identity"
	"internship-service/internal/internship"

	"golang.org/x/sync/errgroup"
)

const (
	weekWindow     = 7 * 24 * time.Hour
	interviewLimit = 5
	readTimeout    = 3 * time.Second
)

type Postings interface {
	CountByStatus(ctx context.Context, postedBy int) (map[internship.Status]int, error)
	CountCreatedSince(ctx context.Context, since time.Time, postedBy int) (int, error)
}

type Applications interface {
	CountByStatus(ctx context.Context, scope application.Scope) (map[application.Status]int, error)
	CountSubmittedSince(ctx context.Context, scope application.Scope, since time.Time) (int, error)
	UpcomingInterviews(ctx context.Context, scope application.Scope, after time.Time, limit int) ([]application.Application, error)
}

type Notifications interface {
	CountUnread(ctx context.Context, viewer identity.Principal) (int, error)
}

type Users interface {
	CountByRole(ctx context.Context) (map[identity.Role]int, error)
}

type InternshipSummary struct {
	Total       int                       `json:"total"`
	Active      int                       `json:"active"`
	Closed      int                       `json:"closed"`
	NewThisWeek int                       `json:"newThisWeek"`
	ByStatus    map[internship.Status]int `json:"byStatus"`
}

// ApplicationSummary rates are percentages of Total with one decimal place.
// Pending counts applications nobody has decided on yet.
type ApplicationSummary struct {
	Total         int                        `json:"total"`
	NewThisWeek   int                        `json:"newThisWeek"`
	Pending       int                        `json:"pending"`
	ByStatus      map[application.Status]int `json:"byStatus"`
	InterviewRate float64                    `json:"interviewRate"`
	ShortlistRate float64                    `json:"shortlistRate"`
	HireRate      float64                    `json:"hireRate"`
}

// Summary is one caller's dashboard. Degraded names the sections that could
// not be read and were left at zero.
type Summary struct {
	Role                identity.Role             `json:"role"`
	Internships         InternshipSummary         `json:"internships"`
	Applications        ApplicationSummary        `json:"applications"`
	UpcomingInterviews  []application.Application `json:"upcomingInterviews"`
	UnreadNotifications int                       `json:"unreadNotifications"`
	UsersByRole         map[identity.Role]int     `json:"usersByRole,omitempty"`
	Degraded            []string                  `json:"degraded,omitempty"`
	GeneratedAt         time.Time                 `json:"generatedAt"`
}

type Service struct {
	postings      Postings
	applications  Applications
	notifications Notifications
	users         Users
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(postings Postings, applications Applications, notifications Notifications, users Users, logger *slog.Logger) *Service {
	return &Service{
		postings:      postings,
		applications:  applications,
		notifications: notifications,
		users:         users,
		logger:        logger,
		now:           time.Now,
	}
}

// Summary runs every read concurrently. A failed read is logged, listed in
// Degraded and leaves its section at the zero value, so Summary itself only
// fails when the caller's context is done.
func (s *Service) Summary(ctx context.Context, p identity.Principal) (*Summary, error) {
	now := s.now()
	weekAgo := now.Add(-weekWindow)
	scope := application.ScopeFor(p)

	// Mentors see their own postings, everyone else the whole catalogue.
	postedBy := 0
	if p.Role == identity.RoleMentor {
		postedBy = p.UserID
	}

	var (
		mu                sync.Mutex
		degraded          []string
		internshipCounts  map[internship.Status]int
		newInternships    int
		applicationCounts map[application.Status]int
		newApplications   int
		interviews        []application.Application
		unread            int
		usersByRole       map[identity.Role]int
	)

	readCtx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(readCtx)

	read := func(section string, fn func(ctx context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				s.logger.WarnContext(ctx, "dashboard read failed", "section", section, "user_id", p.UserID, "error", err)
				mu.Lock()
				degraded = append(degraded, section)
				mu.Unlock()
			}
			return nil
		})
	}

	read("internships", func(ctx context.Context) (err error) {
		internshipCounts, err = s.postings.CountByStatus(ctx, postedBy)
		return err
	})
	read("internshipsThisWeek", func(ctx context.Context) (err error) {
		newInternships, err = s.postings.CountCreatedSince(ctx, weekAgo, postedBy)
		return err
	})
	read("applications", func(ctx context.Context) (err error) {
		applicationCounts, err = s.applications.CountByStatus(ctx, scope)
		return err
	})
	read("applicationsThisWeek", func(ctx context.Context) (err error) {
		newApplications, err = s.applications.CountSubmittedSince(ctx, scope, weekAgo)
		return err
	})
	read("upcomingInterviews", func(ctx context.Context) (err error) {
		interviews, err = s.applications.UpcomingInterviews(ctx, scope, now, interviewLimit)
		return err
	})
	read("notifications", func(ctx context.Context) (err error) {
		unread, err = s.notifications.CountUnread(ctx, p)
		return err
	})
	if p.IsAdmin() {
		read("users", func(ctx context.Context) (err error) {
			usersByRole, err = s.users.CountByRole(ctx)
			return err
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if interviews == nil {
		interviews = []application.Application{}
	}
	return &Summary{
		Role:                p.Role,
		Internships:         summarizeInternships(internshipCounts, newInternships),
		Applications:        summarizeApplications(applicationCounts, newApplications),
		UpcomingInterviews:  interviews,
		UnreadNotifications: unread,
		UsersByRole:         usersByRole,
		Degraded:            degraded,
		GeneratedAt:         now,
	}, nil
}

func summarizeInternships(counts map[internship.Status]int, newThisWeek int) InternshipSummary {
	stats := internship.SummarizeCounts(counts)
	return InternshipSummary{
		Total:       stats.TotalInternships,
		Active:      stats.ActiveInternships,
		Closed:      stats.ClosedInternships,
		NewThisWeek: newThisWeek,
		ByStatus:    stats.ByStatus,
	}
}

func summarizeApplications(counts map[application.Status]int, newThisWeek int) ApplicationSummary {
	stats := application.NewStats(counts)
	by := stats.ByStatus

	// Anything that reached a stage counts toward it, including later stages.
	interviewed := by[application.StatusInterviewScheduled] + by[application.StatusShortlisted] + by[application.StatusHired]
	shortlisted := by[application.StatusShortlisted] + by[application.StatusHired]

	return ApplicationSummary{
		Total:         stats.Total,
		NewThisWeek:   newThisWeek,
		Pending:       by[application.StatusSubmitted] + by[application.StatusUnderReview],
		ByStatus:      by,
		InterviewRate: percent(interviewed, stats.Total),
		ShortlistRate: percent(shortlisted, stats.Total),
		HireRate:      percent(by[application.StatusHired], stats.Total),
	}
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}
