package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"internship-service/internal/httputil"
	"internship-service/internal/identity"
	"internship-service/internal/internship"
	"internship-service/internal/mailer"
	"internship-service/internal/messaging"
	"internship-service/internal/metrics"
	"internship-service/internal/pagination"
	"internship-service/internal/resume"
	"internship-service/internal/user"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound             = errors.New("application not found")
	ErrForbidden            = errors.New("not allowed to act on this application")
	ErrDuplicateApplication = errors.New("you already have an active application for this internship")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvalidApplication   = errors.New("invalid application")
	ErrInternshipClosed     = errors.New("internship is not accepting applications")
	ErrInvalidMentor        = errors.New("mentor must be an active mentor account")
	// ErrStaleStatus means another reviewer changed the status first.
	ErrStaleStatus = errors.New("application status changed, reload and retry")
)

// Postings is the slice of the catalogue the workflow reads.
type Postings interface {
	GetByID(ctx context.Context, id int) (*internship.Internship, error)
}

type Users interface {
	GetByID(ctx context.Context, id int) (*user.User, error)
}

// Notifier delivers in-app notices to one user.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int, message, link string) error
}

type Service interface {
	Submit(ctx context.Context, actor identity.Principal, req SubmitRequest) (*Application, error)
	Apply(ctx context.Context, actor identity.Principal, internshipID int, coverLetter, filename string, file io.Reader) (*Application, error)
	Transition(ctx context.Context, actor identity.Principal, id int, req TransitionRequest) (*Application, error)
	Get(ctx context.Context, actor identity.Principal, id int) (*Application, error)
	List(ctx context.Context, actor identity.Principal, filter ListFilter) ([]Application, int, error)
	AssignMentor(ctx context.Context, actor identity.Principal, id, mentorID int) (*Application, error)
	Stats(ctx context.Context, actor identity.Principal) (*Stats, error)
	OpenResume(ctx context.Context, actor identity.Principal, id int) (io.ReadCloser, string, error)
}

type Deps struct {
	Repo     Repository
	Postings Postings
	Users    Users
	Notifier Notifier
	Mailer   mailer.Mailer
	Resumes  *resume.Store
	Events   *messaging.Emitter
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

type service struct {
	Deps
	validate *validator.Validate
	now      func() time.Time
}

func NewService(deps Deps) Service {
	return &service{
		Deps:     deps,
		validate: httputil.NewValidator(),
		now:      time.Now,
	}
}

// eligible loads the posting and checks that actor may apply to it now.
func (s *service) eligible(ctx context.Context, actor identity.Principal, internshipID int) (*internship.Internship, error) {
	posting, err := s.openPosting(ctx, actor, internshipID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoActive(ctx, actor.UserID, internshipID); err != nil {
		return nil, err
	}
	return posting, nil
}

func (s *service) openPosting(ctx context.Context, actor identity.Principal, internshipID int) (*internship.Internship, error) {
	if actor.Role != identity.RoleIntern {
		return nil, ErrForbidden
	}
	posting, err := s.Postings.GetByID(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if !posting.AcceptsApplications(s.now()) {
		return nil, ErrInternshipClosed
	}
	return posting, nil
}

func (s *service) ensureNoActive(ctx context.Context, userID, internshipID int) error {
	active, err := s.Repo.HasActive(ctx, userID, internshipID)
	if err != nil {
		return err
	}
	if active {
		return ErrDuplicateApplication
	}
	return nil
}

// Submit creates a Submitted application. The partial unique index catches
// a concurrent duplicate that slips past the HasActive check.
func (s *service) Submit(ctx context.Context, actor identity.Principal, req SubmitRequest) (*Application, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidApplication, httputil.ValidationMessage(err))
	}
	posting, err := s.eligible(ctx, actor, req.InternshipID)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, actor, posting, req.CoverLetter, req.Resume)
}

func (s *service) create(ctx context.Context, actor identity.Principal, posting *internship.Internship, coverLetter, resumeName string) (*Application, error) {
	now := s.now()
	a := &Application{
		UserID:       actor.UserID,
		InternshipID: posting.ID,
		Status:       StatusSubmitted,
		CoverLetter:  coverLetter,
		SubmittedAt:  now,
	}
	if resumeName != "" {
		a.Resume = &resumeName
	}

	created, err := s.Repo.Create(ctx, a)
	if err != nil {
		return nil, err
	}

	s.Metrics.Domain.RecordApplicationSubmitted(ctx)
	s.Logger.InfoContext(ctx, "application submitted",
		"application_id", created.ID,
		"internship_id", posting.ID,
		"user_id", actor.UserID,
	)
	s.notify(ctx, posting.PostedBy, fmt.Sprintf("New application received for %s", posting.Title), created.ID)
	s.Events.Emit(ctx, messaging.SubjectApplicationSubmitted, map[string]any{
		"applicationId": created.ID,
		"internshipId":  posting.ID,
		"userId":        actor.UserID,
	})
	return created, nil
}

// Apply is the resume upload flow behind POST /internships/{id}/apply.
func (s *service) Apply(ctx context.Context, actor identity.Principal, internshipID int, coverLetter, filename string, file io.Reader) (*Application, error) {
	posting, err := s.openPosting(ctx, actor, internshipID)
	if err != nil {
		return nil, err
	}
	// A missing resume is a validation error even when a duplicate exists.
	if file == nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidApplication, resume.ErrMissing)
	}
	if err := s.ensureNoActive(ctx, actor.UserID, internshipID); err != nil {
		return nil, err
	}
	if len(coverLetter) > 5000 {
		return nil, fmt.Errorf("%w: coverLetter must be at most 5000 characters", ErrInvalidApplication)
	}

	stored, err := s.Resumes.Save(ctx, filename, file)
	if err != nil {
		if errors.Is(err, resume.ErrMissing) || errors.Is(err, resume.ErrTooLarge) || errors.Is(err, resume.ErrUnsupportedType) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidApplication, err)
		}
		return nil, err
	}

	created, err := s.create(ctx, actor, posting, coverLetter, stored.Name)
	if err != nil {
		if rmErr := s.Resumes.Remove(stored.Name); rmErr != nil {
			s.Logger.WarnContext(ctx, "failed to remove orphaned resume", "resume", stored.Name, "error", rmErr)
		}
		return nil, err
	}

	// SMTP can be slow; the response does not wait for it.
	go s.emailOwner(context.WithoutCancel(ctx), actor, posting)
	return created, nil
}

// emailOwner never fails the caller; delivery problems are logged and counted.
func (s *service) emailOwner(ctx context.Context, actor identity.Principal, posting *internship.Internship) {
	if s.Mailer == nil {
		return
	}
	owner, err := s.Users.GetByID(ctx, posting.PostedBy)
	if err == nil {
		err = s.Mailer.Send(ctx, mailer.Message{
			To:      owner.Email,
			Subject: "New application for " + posting.Title,
			Body: fmt.Sprintf("Hello %s,\n\n%s has applied to %s at %s.\nReview it from your dashboard.\n",
				owner.Name, actor.Email, posting.Title, posting.Company),
		})
	}
	if err != nil {
		s.Metrics.Domain.RecordEmailFailed(ctx)
		s.Logger.WarnContext(ctx, "failed to email internship owner", "internship_id", posting.ID, "error", err)
	}
}

// canReview reports whether actor reviews applications to posting.
// posting is nil when it has been deleted.
func canReview(actor identity.Principal, a *Application, posting *internship.Internship) bool {
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleMentor:
		if a.MentorID != nil && *a.MentorID == actor.UserID {
			return true
		}
		return posting != nil && posting.PostedBy == actor.UserID
	default:
		return false
	}
}

func (s *service) load(ctx context.Context, id int) (*Application, *internship.Internship, error) {
	a, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	posting, err := s.Postings.GetByID(ctx, a.InternshipID)
	if err != nil && !errors.Is(err, internship.ErrNotFound) {
		return nil, nil, err
	}
	return a, posting, nil
}

func (s *service) Transition(ctx context.Context, actor identity.Principal, id int, req TransitionRequest) (*Application, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidApplication, httputil.ValidationMessage(err))
	}
	next, ok := ParseStatus(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, req.Status)
	}

	a, posting, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from := a.Status
	updated := *a

	switch {
	case actor.UserID == a.UserID:
		// The applicant may only withdraw, from any non-terminal state.
		if next != StatusWithdrawn {
			return nil, ErrForbidden
		}
		if from.Terminal() {
			return nil, fmt.Errorf("%w: %s is final", ErrInvalidTransition, from)
		}
	case canReview(actor, a, posting):
		if !from.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, next)
		}
		now := s.now()
		updated.ReviewedAt = &now
		if req.Notes != nil {
			updated.ReviewNotes = req.Notes
		}
		if next == StatusInterviewScheduled {
			if req.InterviewAt != nil && !req.InterviewAt.After(now) {
				return nil, fmt.Errorf("%w: interviewAt must be in the future", ErrInvalidApplication)
			}
			updated.InterviewAt = req.InterviewAt
		}
	default:
		return nil, ErrForbidden
	}

	updated.Status = next
	if err := s.Repo.UpdateStatus(ctx, &updated, from); err != nil {
		return nil, err
	}

	s.Metrics.Domain.RecordApplicationTransition(ctx, string(next))
	s.Logger.InfoContext(ctx, "application status changed",
		"application_id", id,
		"from", from,
		"to", next,
		"by", actor.UserID,
	)

	if actor.UserID != a.UserID {
		title := "your internship application"
		if posting != nil {
			title = "your application for " + posting.Title
		}
		s.notify(ctx, a.UserID, fmt.Sprintf("Status of %s changed to %s", title, next), id)
	}
	s.Events.Emit(ctx, messaging.SubjectApplicationStatusChanged, map[string]any{
		"applicationId": id,
		"internshipId":  a.InternshipID,
		"userId":        a.UserID,
		"from":          from,
		"to":            next,
	})
	return &updated, nil
}

func (s *service) notify(ctx context.Context, userID int, message string, applicationID int) {
	if s.Notifier == nil || userID <= 0 {
		return
	}
	link := "/applications/" + strconv.Itoa(applicationID)
	if err := s.Notifier.NotifyUser(ctx, userID, message, link); err != nil {
		s.Logger.WarnContext(ctx, "failed to create notification", "user_id", userID, "error", err)
	}
}

func (s *service) Get(ctx context.Context, actor identity.Principal, id int) (*Application, error) {
	a, posting, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != a.UserID && !canReview(actor, a, posting) {
		return nil, ErrForbidden
	}
	return a, nil
}

func (s *service) List(ctx context.Context, actor identity.Principal, filter ListFilter) ([]Application, int, error) {
	p := pagination.New(filter.Page, filter.Limit)
	filter.Page, filter.Limit = p.Page, p.Limit
	return s.Repo.List(ctx, ScopeFor(actor), filter)
}

func (s *service) AssignMentor(ctx context.Context, actor identity.Principal, id, mentorID int) (*Application, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	mentor, err := s.Users.GetByID(ctx, mentorID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidMentor
		}
		return nil, err
	}
	if mentor.Role != identity.RoleMentor {
		return nil, ErrInvalidMentor
	}

	if err := s.Repo.AssignMentor(ctx, id, mentorID); err != nil {
		return nil, err
	}
	s.notify(ctx, mentorID, "You have been assigned a new application to review", id)
	return s.Repo.GetByID(ctx, id)
}

func (s *service) Stats(ctx context.Context, actor identity.Principal) (*Stats, error) {
	counts, err := s.Repo.CountByStatus(ctx, ScopeFor(actor))
	if err != nil {
		return nil, err
	}
	return NewStats(counts), nil
}

// OpenResume returns the stored resume to the applicant or a reviewer.
func (s *service) OpenResume(ctx context.Context, actor identity.Principal, id int) (io.ReadCloser, string, error) {
	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	if a.Resume == nil {
		return nil, "", ErrNotFound
	}
	f, err := s.Resumes.Open(*a.Resume)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open resume: %w", err)
	}
	return f, *a.Resume, nil
}
