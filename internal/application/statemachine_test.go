package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
		ok   bool
	}{
		{"Submitted", StatusSubmitted, true},
		{"pending", StatusSubmitted, true},
		{"under review", StatusUnderReview, true},
		{"UNDER_REVIEW", StatusUnderReview, true},
		{"interview-scheduled", StatusInterviewScheduled, true},
		{" Hired ", StatusHired, true},
		{"withdrawn", StatusWithdrawn, true},
		{"accepted", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseStatus(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	allowed := map[Status][]Status{
		StatusSubmitted:          {StatusUnderReview, StatusRejected, StatusWithdrawn},
		StatusUnderReview:        {StatusInterviewScheduled, StatusShortlisted, StatusRejected, StatusWithdrawn},
		StatusInterviewScheduled: {StatusShortlisted, StatusRejected},
		StatusShortlisted:        {StatusHired, StatusRejected},
	}

	for _, from := range Statuses {
		for _, to := range Statuses {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusHired, StatusRejected, StatusWithdrawn} {
		assert.True(t, s.Terminal(), s)
		assert.Empty(t, s.Successors(), s)
	}
	for _, s := range []Status{StatusSubmitted, StatusUnderReview, StatusInterviewScheduled, StatusShortlisted} {
		assert.False(t, s.Terminal(), s)
	}
	assert.False(t, StatusHired.CanTransitionTo(StatusUnderReview))
}

func TestStatus_SuccessorsIsACopy(t *testing.T) {
	next := StatusSubmitted.Successors()
	next[0] = StatusHired
	assert.Equal(t, StatusUnderReview, StatusSubmitted.Successors()[0])
}

func TestStatus_Active(t *testing.T) {
	assert.False(t, StatusWithdrawn.Active())
	assert.True(t, StatusRejected.Active())
	assert.True(t, StatusSubmitted.Active())
}

func TestNewStats(t *testing.T) {
	stats := NewStats(map[Status]int{StatusSubmitted: 2, StatusHired: 1})
	assert.Equal(t, 3, stats.Total)
	assert.Len(t, stats.ByStatus, len(Statuses))
	assert.Equal(t, 0, stats.ByStatus[StatusRejected])
}

func TestApplication_Normalize(t *testing.T) {
	blank := "  "
	zero := 0
	a := Application{Status: "pending", CoverLetter: "  hi ", Resume: &blank, MentorID: &zero}
	a.Normalize()
	assert.Equal(t, StatusSubmitted, a.Status)
	assert.Equal(t, "hi", a.CoverLetter)
	assert.Nil(t, a.Resume)
	assert.Nil(t, a.MentorID)
}
