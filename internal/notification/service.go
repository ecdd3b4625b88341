package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"internship-service/internal/httputil"
	"internship-service/internal/identity"
	"internship-service/internal/metrics"
	"internship-service/internal/pagination"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound            = errors.New("notification not found")
	ErrForbidden           = errors.New("notification is not addressed to you")
	ErrInvalidNotification = errors.New("invalid notification")
)

type Service interface {
	Notify(ctx context.Context, target Target, message, link string) (*Notification, error)
	// NotifyUser is the system event shortcut used by other packages.
	NotifyUser(ctx context.Context, userID int, message, link string) error
	Create(ctx context.Context, req CreateRequest) (*Notification, error)
	List(ctx context.Context, viewer identity.Principal, filter ListFilter) ([]Notification, int, error)
	CountUnread(ctx context.Context, viewer identity.Principal) (int, error)
	MarkRead(ctx context.Context, viewer identity.Principal, id int) (*Notification, error)
	MarkAllRead(ctx context.Context, viewer identity.Principal) (int, error)
}

type service struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(repo Repository, logger *slog.Logger, m *metrics.Metrics) Service {
	return &service{
		repo:     repo,
		validate: httputil.NewValidator(),
		logger:   logger,
		metrics:  m,
	}
}

func (s *service) Notify(ctx context.Context, target Target, message, link string) (*Notification, error) {
	n := &Notification{Message: message}
	if link != "" {
		n.Link = &link
	}

	switch {
	case target.UserID > 0 && target.Role != "":
		return nil, fmt.Errorf("%w: target a user or a role, not both", ErrInvalidNotification)
	case target.UserID > 0:
		n.UserID = &target.UserID
	case target.Role != "":
		role, err := parseTargetRole(target.Role)
		if err != nil {
			return nil, err
		}
		n.TargetRole = &role
	default:
		return nil, fmt.Errorf("%w: missing target", ErrInvalidNotification)
	}

	n.Normalize()
	if n.Message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidNotification)
	}

	created, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	s.metrics.Domain.RecordNotificationCreated(ctx, created.IsBroadcast())
	s.logger.DebugContext(ctx, "notification created", "notification_id", created.ID, "broadcast", created.IsBroadcast())
	return created, nil
}

func (s *service) NotifyUser(ctx context.Context, userID int, message, link string) error {
	_, err := s.Notify(ctx, Target{UserID: userID}, message, link)
	return err
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Notification, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidNotification, httputil.ValidationMessage(err))
	}
	return s.Notify(ctx, Target{UserID: req.UserID, Role: req.TargetRole}, req.Message, req.Link)
}

// parseTargetRole accepts "All" or an active role name in any spelling.
// Suspended accounts cannot read notifications, so they are never a target.
func parseTargetRole(raw string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(raw), TargetAll) {
		return TargetAll, nil
	}
	role, ok := identity.NormalizeRole(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown target role %q", ErrInvalidNotification, raw)
	}
	if role == identity.RoleSuspended {
		return "", fmt.Errorf("%w: suspended accounts cannot receive notifications", ErrInvalidNotification)
	}
	return string(role), nil
}

func (s *service) List(ctx context.Context, viewer identity.Principal, filter ListFilter) ([]Notification, int, error) {
	p := pagination.New(filter.Page, filter.Limit)
	filter.Page, filter.Limit = p.Page, p.Limit
	return s.repo.List(ctx, viewer, filter)
}

func (s *service) CountUnread(ctx context.Context, viewer identity.Principal) (int, error) {
	return s.repo.CountUnread(ctx, viewer)
}

// MarkRead succeeds without writing when the notification is already read.
func (s *service) MarkRead(ctx context.Context, viewer identity.Principal, id int) (*Notification, error) {
	n, err := s.repo.GetFor(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	if !n.VisibleTo(viewer) {
		return nil, ErrForbidden
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.repo.MarkRead(ctx, n, viewer.UserID); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

func (s *service) MarkAllRead(ctx context.Context, viewer identity.Principal) (int, error) {
	marked, err := s.repo.MarkAllRead(ctx, viewer)
	if err != nil {
		return 0, err
	}
	s.logger.DebugContext(ctx, "notifications marked read", "user_id", viewer.UserID, "count", marked)
	return marked, nil
}
