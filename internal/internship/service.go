package internship

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"internship-service/internal/httputil"
	"internship-service/internal/identity"
	"internship-service/internal/messaging"
	"internship-service/internal/metrics"
	"internship-service/internal/pagination"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound          = errors.New("internship not found")
	ErrForbidden         = errors.New("only the owner or an admin can modify this internship")
	ErrInvalidInternship = errors.New("invalid internship")
)

type Service interface {
	Create(ctx context.Context, actor identity.Principal, req CreateRequest) (*Internship, error)
	Get(ctx context.Context, id int) (*Internship, error)
	List(ctx context.Context, filter ListFilter) ([]Internship, int, error)
	Update(ctx context.Context, actor identity.Principal, id int, req UpdateRequest) (*Internship, error)
	Delete(ctx context.Context, actor identity.Principal, id int) error
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo     Repository
	events   *messaging.Emitter
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(repo Repository, events *messaging.Emitter, logger *slog.Logger, m *metrics.Metrics) Service {
	return &service{
		repo:     repo,
		events:   events,
		validate: httputil.NewValidator(),
		logger:   logger,
		metrics:  m,
	}
}

// Create stores a new Open posting owned by actor.
func (s *service) Create(ctx context.Context, actor identity.Principal, req CreateRequest) (*Internship, error) {
	if !actor.Role.CanReview() {
		return nil, ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInternship, httputil.ValidationMessage(err))
	}

	created, err := s.repo.Create(ctx, &Internship{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		Description: req.Description,
		Duration:    req.Duration,
		Stipend:     req.Stipend,
		Skills:      req.Skills,
		PostedBy:    actor.UserID,
		Status:      StatusOpen,
		Deadline:    req.Deadline,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Domain.RecordInternshipCreated(ctx)
	s.logger.InfoContext(ctx, "internship created", "internship_id", created.ID, "posted_by", actor.UserID)
	s.events.Emit(ctx, messaging.SubjectInternshipCreated, map[string]any{
		"internshipId": created.ID,
		"title":        created.Title,
		"company":      created.Company,
		"postedBy":     created.PostedBy,
	})
	return created, nil
}

func (s *service) Get(ctx context.Context, id int) (*Internship, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]Internship, int, error) {
	p := pagination.New(filter.Page, filter.Limit)
	filter.Page, filter.Limit = p.Page, p.Limit
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, actor identity.Principal, id int, req UpdateRequest) (*Internship, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInternship, httputil.ValidationMessage(err))
	}

	i, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		i.Title = *req.Title
	}
	if req.Company != nil {
		i.Company = *req.Company
	}
	if req.Location != nil {
		i.Location = *req.Location
	}
	if req.Description != nil {
		i.Description = *req.Description
	}
	if req.Duration != nil {
		i.Duration = *req.Duration
	}
	if req.Stipend != nil {
		i.Stipend = *req.Stipend
	}
	if req.Skills != nil {
		i.Skills = req.Skills
	}
	if req.Deadline != nil {
		i.Deadline = req.Deadline
	}
	if req.Status != nil {
		status, ok := ParseStatus(*req.Status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInternship, *req.Status)
		}
		i.Status = status
	}

	if err := s.repo.Update(ctx, i); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "internship updated", "internship_id", id, "by", actor.UserID)
	return i, nil
}

// Delete removes the posting. Applications to it are kept.
func (s *service) Delete(ctx context.Context, actor identity.Principal, id int) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "internship deleted", "internship_id", id, "by", actor.UserID)
	return nil
}

// owned loads the posting and checks that actor may mutate it.
func (s *service) owned(ctx context.Context, actor identity.Principal, id int) (*Internship, error) {
	i, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && i.PostedBy != actor.UserID {
		s.logger.WarnContext(ctx, "internship modification forbidden", "internship_id", id, "user_id", actor.UserID)
		return nil, ErrForbidden
	}
	return i, nil
}

// Stats counts Open postings as active and Closed or Archived ones as closed.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.CountByStatus(ctx, 0)
	if err != nil {
		return nil, err
	}
	return SummarizeCounts(counts), nil
}

func SummarizeCounts(counts map[Status]int) *Stats {
	stats := &Stats{ByStatus: make(map[Status]int, len(counts))}
	for status, n := range counts {
		stats.TotalInternships += n
		stats.ByStatus[status] = n
		switch status {
		case StatusOpen:
			stats.ActiveInternships += n
		case StatusClosed, StatusArchived:
			stats.ClosedInternships += n
		}
	}
	return stats
}
