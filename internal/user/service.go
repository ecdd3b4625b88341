package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"internship-service/internal/identity"
	"internship-service/internal/pagination"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailExists    = errors.New("email already registered")
	ErrInvalidRole    = errors.New("invalid role")
	ErrSelfRoleChange = errors.New("admins cannot change their own role")
	ErrInvalidMentor  = errors.New("mentor must be an active mentor account")
	ErrNotAnIntern    = errors.New("mentors can only be assigned to interns")
	ErrInvalidProfile = errors.New("invalid profile")
)

type Service interface {
	GetByID(ctx context.Context, id int) (*User, error)
	UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	ChangeRole(ctx context.Context, actor identity.Principal, targetID int, role string) (*User, error)
	AssignMentor(ctx context.Context, internID, mentorID int) (*User, error)
	CountByRole(ctx context.Context) (map[identity.Role]int, error)
}

type service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

func (s *service) GetByID(ctx context.Context, id int) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Phone != nil {
		u.Phone = req.Phone
	}
	if req.University != nil {
		u.University = req.University
	}
	if req.Specialization != nil {
		u.Specialization = req.Specialization
	}
	u.Normalize()

	if u.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidProfile)
	}
	if u.Role == identity.RoleIntern && u.University == nil {
		return nil, fmt.Errorf("%w: university is required for interns", ErrInvalidProfile)
	}
	if u.Role == identity.RoleMentor && u.Specialization == nil {
		return nil, fmt.Errorf("%w: specialization is required for mentors", ErrInvalidProfile)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "profile updated", "user_id", id)
	return u, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	p := pagination.New(filter.Page, filter.Limit)
	filter.Page, filter.Limit = p.Page, p.Limit
	return s.repo.List(ctx, filter)
}

func (s *service) ChangeRole(ctx context.Context, actor identity.Principal, targetID int, raw string) (*User, error) {
	role, ok := identity.NormalizeRole(raw)
	if !ok {
		return nil, ErrInvalidRole
	}
	if actor.UserID == targetID {
		return nil, ErrSelfRoleChange
	}

	u, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if u.Role == role {
		return u, nil
	}

	previous := u.Role
	u.Role = role
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user role changed",
		"user_id", targetID,
		"from", previous,
		"to", role,
		"by", actor.UserID,
	)
	return u, nil
}

func (s *service) AssignMentor(ctx context.Context, internID, mentorID int) (*User, error) {
	intern, err := s.repo.GetByID(ctx, internID)
	if err != nil {
		return nil, err
	}
	if intern.Role != identity.RoleIntern {
		return nil, ErrNotAnIntern
	}

	mentor, err := s.repo.GetByID(ctx, mentorID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidMentor
		}
		return nil, err
	}
	if mentor.Role != identity.RoleMentor {
		return nil, ErrInvalidMentor
	}

	intern.MentorID = &mentor.ID
	if err := s.repo.Update(ctx, intern); err != nil {
		return nil, err
	}
	return intern, nil
}

func (s *service) CountByRole(ctx context.Context) (map[identity.Role]int, error) {
	return s.repo.CountByRole(ctx)
}
