package notification

import (
	"strings"
	"time"

	"internship-service/internal/identity"

	"github.com/uptrace/bun"
)

// TargetAll addresses every user regardless of role.
const TargetAll = "All"

// Notification is addressed either to one user or to a role. Broadcasts are
// stored once; who has read them lives in Read.
type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID         int       `bun:"id,pk,autoincrement" json:"id"`
	UserID     *int      `bun:"user_id" json:"userId,omitempty"`
	TargetRole *string   `bun:"target_role" json:"targetRole,omitempty"`
	Message    string    `bun:"message,notnull" json:"message"`
	Link       *string   `bun:"link" json:"link,omitempty"`
	IsRead     bool      `bun:"is_read,notnull,default:false" json:"isRead"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Read is a per-user receipt for a broadcast notification.
type Read struct {
	bun.BaseModel `bun:"table:notification_reads,alias:nr"`

	NotificationID int       `bun:"notification_id,pk" json:"notificationId"`
	UserID         int       `bun:"user_id,pk" json:"userId"`
	ReadAt         time.Time `bun:"read_at,nullzero,notnull,default:current_timestamp" json:"readAt"`
}

func (n *Notification) IsBroadcast() bool {
	return n.UserID == nil
}

// VisibleTo reports whether p is a recipient of n.
func (n *Notification) VisibleTo(p identity.Principal) bool {
	if n.UserID != nil {
		return *n.UserID == p.UserID
	}
	if n.TargetRole == nil {
		return false
	}
	return *n.TargetRole == TargetAll || *n.TargetRole == string(p.Role)
}

func (n *Notification) Normalize() {
	n.Message = strings.TrimSpace(n.Message)
	if n.Link != nil {
		if l := strings.TrimSpace(*n.Link); l != "" {
			n.Link = &l
		} else {
			n.Link = nil
		}
	}
	if n.UserID != nil {
		n.TargetRole = nil
	}
}

// Target names the recipient: a user id or a role, never both.
type Target struct {
	UserID int
	Role   string
}

// CreateRequest is the admin broadcast or direct message payload.
type CreateRequest struct {
	UserID     int    `json:"userId" validate:"omitempty,gt=0"`
	TargetRole string `json:"targetRole" validate:"required_without=UserID"`
	Message    string `json:"message" validate:"required,max=1000"`
	Link       string `json:"link" validate:"omitempty,max=500"`
}

type ListFilter struct {
	UnreadOnly bool
	Page       int
	Limit      int
}
