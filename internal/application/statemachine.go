package application

import "strings"

type Status string

const (
	StatusSubmitted          Status = "Submitted"
	StatusUnderReview        Status = "Under Review"
	StatusInterviewScheduled Status = "Interview Scheduled"
	StatusShortlisted        Status = "Shortlisted"
	StatusHired              Status = "Hired"
	StatusRejected           Status = "Rejected"
	StatusWithdrawn          Status = "Withdrawn"
)

// Statuses lists every state in pipeline order.
var Statuses = []Status{
	StatusSubmitted,
	StatusUnderReview,
	StatusInterviewScheduled,
	StatusShortlisted,
	StatusHired,
	StatusRejected,
	StatusWithdrawn,
}

// transitions is the reviewer graph. States without an entry are terminal.
var transitions = map[Status][]Status{
	StatusSubmitted:          {StatusUnderReview, StatusRejected, StatusWithdrawn},
	StatusUnderReview:        {StatusInterviewScheduled, StatusShortlisted, StatusRejected, StatusWithdrawn},
	StatusInterviewScheduled: {StatusShortlisted, StatusRejected},
	StatusShortlisted:        {StatusHired, StatusRejected},
}

// ParseStatus matches case-insensitively, ignoring spaces, dashes and
// underscores, and accepts "Pending" as Submitted.
func ParseStatus(raw string) (Status, bool) {
	key := statusKey(raw)
	if key == "pending" {
		return StatusSubmitted, true
	}
	for _, s := range Statuses {
		if statusKey(string(s)) == key {
			return s, true
		}
	}
	return "", false
}

var keyStripper = strings.NewReplacer(" ", "", "_", "", "-", "")

func statusKey(s string) string {
	return keyStripper.Replace(strings.ToLower(strings.TrimSpace(s)))
}

func (s Status) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

// Successors returns the states a reviewer may move s to.
func (s Status) Successors() []Status {
	return append([]Status(nil), transitions[s]...)
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Active reports whether the application still blocks a new submission for
// the same posting.
func (s Status) Active() bool {
	return s != StatusWithdrawn
}
