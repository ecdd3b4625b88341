package internship

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInternship_Normalize(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	i := Internship{Title: "  Backend Intern ", Status: "closed", Skills: []string{" Go ", ""}, Deadline: &past}
	i.Normalize(now)
	assert.Equal(t, "Backend Intern", i.Title)
	assert.Equal(t, StatusClosed, i.Status)
	assert.Equal(t, []string{"Go"}, i.Skills)
	assert.True(t, i.IsExpired)

	open := Internship{Deadline: &past}
	open.Normalize(now)
	assert.Equal(t, StatusOpen, open.Status, "expiry does not change stored status")
	assert.True(t, open.IsExpired)
	assert.False(t, open.AcceptsApplications(now))

	open.Deadline = &future
	open.Normalize(now)
	assert.False(t, open.IsExpired)
	assert.True(t, open.AcceptsApplications(now))

	paused := Internship{Status: StatusPaused}
	assert.False(t, paused.AcceptsApplications(now))
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("archived")
	assert.True(t, ok)
	assert.Equal(t, StatusArchived, s)

	_, ok = ParseStatus("Deleted")
	assert.False(t, ok)
}

func TestSummarizeCounts(t *testing.T) {
	stats := SummarizeCounts(map[Status]int{StatusOpen: 4, StatusClosed: 2, StatusArchived: 1, StatusDraft: 3})
	assert.Equal(t, 10, stats.TotalInternships)
	assert.Equal(t, 4, stats.ActiveInternships)
	assert.Equal(t, 3, stats.ClosedInternships)
	assert.Equal(t, 3, stats.ByStatus[StatusDraft])
}
