package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"internship-service/internal/httputil"
	"internship-service/internal/identity"
	"internship-service/internal/metrics"
	"internship-service/internal/user"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountSuspended    = errors.New("account suspended, contact an administrator")
	ErrInvalidRegistration = errors.New("invalid registration")
)

type Service struct {
	users    user.Repository
	tokens   *TokenService
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(users user.Repository, tokens *TokenService, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		validate: httputil.NewValidator(),
		logger:   logger,
		metrics:  m,
	}
}

func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Register creates an intern or mentor account and signs them in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRegistration, httputil.ValidationMessage(err))
	}

	role, ok := identity.NormalizeRole(req.Role)
	if !ok || (role != identity.RoleIntern && role != identity.RoleMentor) {
		return nil, fmt.Errorf("%w: role must be intern or mentor", ErrInvalidRegistration)
	}
	if role == identity.RoleIntern && strings.TrimSpace(req.University) == "" {
		return nil, fmt.Errorf("%w: university is required for interns", ErrInvalidRegistration)
	}
	if role == identity.RoleMentor && strings.TrimSpace(req.Specialization) == "" {
		return nil, fmt.Errorf("%w: specialization is required for mentors", ErrInvalidRegistration)
	}

	if existing, err := s.users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, user.ErrEmailExists
	} else if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     role,
		Phone:    &req.Phone,
	}
	switch role {
	case identity.RoleIntern:
		u.University = &req.University
	case identity.RoleMentor:
		u.Specialization = &req.Specialization
	}

	// The unique index on email still catches a concurrent registration.
	created, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, err
	}

	s.metrics.Domain.RecordUserRegistered(ctx, string(role))
	s.logger.InfoContext(ctx, "user registered", "user_id", created.ID, "role", role)

	return s.respond(created)
}

// Login checks credentials before the account state, so a suspended user
// only learns about the suspension with the right password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.metrics.Domain.RecordLogin(ctx, "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		s.metrics.Domain.RecordLogin(ctx, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	if u.IsSuspended() {
		s.metrics.Domain.RecordLogin(ctx, "suspended")
		s.logger.WarnContext(ctx, "suspended account attempted login", "user_id", u.ID)
		return nil, ErrAccountSuspended
	}

	s.metrics.Domain.RecordLogin(ctx, "success")
	return s.respond(u)
}

// EnsureAdmin creates the bootstrap administrator when it does not exist.
// An existing account with that email is left untouched.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin, err := s.users.Create(ctx, &user.User{
		Name:     "Administrator",
		Email:    email,
		Password: string(hashed),
		Role:     identity.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			return nil
		}
		return err
	}
	s.logger.InfoContext(ctx, "bootstrap admin created", "user_id", admin.ID)
	return nil
}

func (s *Service) respond(u *user.User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      u,
	}, nil
}
