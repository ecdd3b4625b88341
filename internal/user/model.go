package user

import (
	"strings"
	"time"

	"internship-service/internal/identity"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             int           `bun:"id,pk,autoincrement" json:"id"`
	Name           string        `bun:"name,notnull" json:"name"`
	Email          string        `bun:"email,unique,notnull" json:"email"`
	Password       string        `bun:"password,notnull" json:"-"`
	Role           identity.Role `bun:"role,notnull" json:"role"`
	Phone          *string       `bun:"phone" json:"phone,omitempty"`
	University     *string       `bun:"university" json:"university,omitempty"`
	Specialization *string       `bun:"specialization" json:"specialization,omitempty"`
	MentorID       *int          `bun:"mentor_id" json:"mentorId,omitempty"`
	CreatedAt      time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time     `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// Normalize is the single place optional fields and legacy values are
// cleaned up. Repositories call it on every write and load.
func (u *User) Normalize() {
	u.Email = NormalizeEmail(u.Email)
	u.Name = strings.TrimSpace(u.Name)
	if role, ok := identity.NormalizeRole(string(u.Role)); ok {
		u.Role = role
	}
	u.Phone = trimmedOrNil(u.Phone)
	u.University = trimmedOrNil(u.University)
	u.Specialization = trimmedOrNil(u.Specialization)
	if u.MentorID != nil && *u.MentorID <= 0 {
		u.MentorID = nil
	}
}

func (u *User) IsSuspended() bool {
	return u.Role == identity.RoleSuspended
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// UpdateProfileRequest carries the fields a user may change on themselves.
// Nil means unchanged.
type UpdateProfileRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone          *string `json:"phone" validate:"omitempty,max=32"`
	University     *string `json:"university" validate:"omitempty,max=200"`
	Specialization *string `json:"specialization" validate:"omitempty,max=200"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type AssignMentorRequest struct {
	MentorID int `json:"mentorId" validate:"required,gt=0"`
}

type ListFilter struct {
	Role  identity.Role
	Page  int
	Limit int
}
