package internship

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type Status string

const (
	StatusOpen     Status = "Open"
	StatusClosed   Status = "Closed"
	StatusDraft    Status = "Draft"
	StatusPaused   Status = "Paused"
	StatusArchived Status = "Archived"
)

// ParseStatus matches case-insensitively.
func ParseStatus(raw string) (Status, bool) {
	for _, s := range []Status{StatusOpen, StatusClosed, StatusDraft, StatusPaused, StatusArchived} {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, true
		}
	}
	return "", false
}

type Internship struct {
	bun.BaseModel `bun:"table:internships,alias:i"`

	ID          int        `bun:"id,pk,autoincrement" json:"id"`
	Title       string     `bun:"title,notnull" json:"title"`
	Company     string     `bun:"company,notnull" json:"company"`
	Location    string     `bun:"location,notnull" json:"location"`
	Description string     `bun:"description,notnull" json:"description"`
	Duration    string     `bun:"duration" json:"duration"`
	Stipend     Stipend    `bun:"stipend,type:varchar(32)" json:"stipend"`
	Skills      []string   `bun:"skills,array" json:"skills"`
	PostedBy    int        `bun:"posted_by,notnull" json:"postedBy"`
	Status      Status     `bun:"status,notnull" json:"status"`
	Deadline    *time.Time `bun:"application_deadline" json:"applicationDeadline,omitempty"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	// IsExpired is derived from Deadline on load and never stored.
	IsExpired bool `bun:"-" json:"isExpired"`
}

// Normalize trims text fields, canonicalises status and derives IsExpired
// against now. The stored status is never changed by an expired deadline.
func (i *Internship) Normalize(now time.Time) {
	i.Title = strings.TrimSpace(i.Title)
	i.Company = strings.TrimSpace(i.Company)
	i.Location = strings.TrimSpace(i.Location)
	i.Description = strings.TrimSpace(i.Description)
	i.Duration = strings.TrimSpace(i.Duration)
	if s, ok := ParseStatus(string(i.Status)); ok {
		i.Status = s
	} else if i.Status == "" {
		i.Status = StatusOpen
	}
	skills := i.Skills[:0]
	for _, s := range i.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	i.Skills = skills
	if i.Skills == nil {
		i.Skills = []string{}
	}
	i.IsExpired = i.Deadline != nil && i.Deadline.Before(now)
}

// AcceptsApplications reports whether interns may currently apply.
func (i *Internship) AcceptsApplications(now time.Time) bool {
	return i.Status == StatusOpen && (i.Deadline == nil || !i.Deadline.Before(now))
}

type CreateRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Company     string     `json:"company" validate:"required,max=200"`
	Location    string     `json:"location" validate:"required,max=200"`
	Description string     `json:"description" validate:"required"`
	Duration    string     `json:"duration" validate:"max=100"`
	Stipend     Stipend    `json:"stipend"`
	Skills      []string   `json:"skills" validate:"omitempty,max=30,dive,max=60"`
	Deadline    *time.Time `json:"applicationDeadline"`
}

// UpdateRequest merges non-nil fields into the stored posting.
type UpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Company     *string    `json:"company" validate:"omitempty,min=1,max=200"`
	Location    *string    `json:"location" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,min=1"`
	Duration    *string    `json:"duration" validate:"omitempty,max=100"`
	Stipend     *Stipend   `json:"stipend"`
	Skills      []string   `json:"skills" validate:"omitempty,max=30,dive,max=60"`
	Status      *string    `json:"status"`
	Deadline    *time.Time `json:"applicationDeadline"`
}

type ListFilter struct {
	Search   string
	Status   Status
	PostedBy int
	Page     int
	Limit    int
}

// Stats is the public catalogue summary.
type Stats struct {
	TotalInternships  int            `json:"totalInternships"`
	ActiveInternships int            `json:"activeInternships"`
	ClosedInternships int            `json:"closedInternships"`
	ByStatus          map[Status]int `json:"byStatus"`
}
