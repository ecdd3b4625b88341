package application

import (
	"strings"
	"time"

	"internship-service/internal/identity"

	"github.com/uptrace/bun"
)

type Application struct {
	bun.BaseModel `bun:"table:applications,alias:a"`

	ID           int        `bun:"id,pk,autoincrement" json:"id"`
	UserID       int        `bun:"user_id,notnull" json:"userId"`
	InternshipID int        `bun:"internship_id,notnull" json:"internshipId"`
	Status       Status     `bun:"status,notnull" json:"status"`
	CoverLetter  string     `bun:"cover_letter" json:"coverLetter"`
	Resume       *string    `bun:"resume" json:"resume,omitempty"`
	SubmittedAt  time.Time  `bun:"submitted_at,nullzero,notnull,default:current_timestamp" json:"submittedAt"`
	ReviewedAt   *time.Time `bun:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewNotes  *string    `bun:"review_notes" json:"reviewNotes,omitempty"`
	InterviewAt  *time.Time `bun:"interview_at" json:"interviewAt,omitempty"`
	MentorID     *int       `bun:"mentor_id" json:"mentorId,omitempty"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// Normalize canonicalises legacy status spellings and empty optionals.
func (a *Application) Normalize() {
	if s, ok := ParseStatus(string(a.Status)); ok {
		a.Status = s
	} else if a.Status == "" {
		a.Status = StatusSubmitted
	}
	a.CoverLetter = strings.TrimSpace(a.CoverLetter)
	a.Resume = trimmedOrNil(a.Resume)
	a.ReviewNotes = trimmedOrNil(a.ReviewNotes)
	if a.MentorID != nil && *a.MentorID <= 0 {
		a.MentorID = nil
	}
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

// Scope restricts queries to what one caller may see. The zero value sees
// everything.
type Scope struct {
	// ApplicantID limits to the caller's own applications.
	ApplicantID int
	// ReviewerID limits to applications assigned to the mentor or made to
	// postings they own.
	ReviewerID int
}

// ScopeFor derives the visibility scope from the caller's role.
func ScopeFor(p identity.Principal) Scope {
	switch p.Role {
	case identity.RoleAdmin:
		return Scope{}
	case identity.RoleMentor:
		return Scope{ReviewerID: p.UserID}
	default:
		return Scope{ApplicantID: p.UserID}
	}
}

type SubmitRequest struct {
	InternshipID int    `json:"internshipId" validate:"required,gt=0"`
	CoverLetter  string `json:"coverLetter" validate:"max=5000"`
	Resume       string `json:"resume"`
}

type TransitionRequest struct {
	Status      string     `json:"status" validate:"required"`
	Notes       *string    `json:"notes" validate:"omitempty,max=2000"`
	InterviewAt *time.Time `json:"interviewAt"`
}

type AssignMentorRequest struct {
	MentorID int `json:"mentorId" validate:"required,gt=0"`
}

type ListFilter struct {
	Status       Status
	InternshipID int
	Page         int
	Limit        int
}

// Stats holds per-status counts with every status present.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`
}

func NewStats(counts map[Status]int) *Stats {
	stats := &Stats{ByStatus: make(map[Status]int, len(Statuses))}
	for _, s := range Statuses {
		stats.ByStatus[s] = counts[s]
		stats.Total += counts[s]
	}
	return stats
}
