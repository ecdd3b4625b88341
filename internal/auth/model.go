package auth

import (
	"time"

	"internship-service/internal/user"
)

// RegisterRequest is the registration payload. Interns must name a
// university and mentors a specialization.
type RegisterRequest struct {
	Name           string `json:"name" validate:"required,max=120"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6,max=72"`
	Role           string `json:"role" validate:"required,oneof=intern mentor"`
	Phone          string `json:"phone" validate:"omitempty,max=32"`
	University     string `json:"university" validate:"required_if=Role intern,max=200"`
	Specialization string `json:"specialization" validate:"required_if=Role mentor,max=200"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      *user.User `json:"user"`
}
