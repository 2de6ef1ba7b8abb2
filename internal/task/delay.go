package task

import (
	"math"
	"time"

	"housetasks/internal/models"
)

// DelayDays computes how many whole days a task has slipped past its expected
// date. For a pending task the reference point is now; for a completed task it
// is the completion timestamp, so the value is frozen once the task is done.
// Backlog tasks have no deadline and always report zero.
//
// Day differences use calendar-day granularity with fractional remainders
// rounded up: finishing one hour past the deadline counts as one delayed day.
// The result is never negative.
func DelayDays(t models.Task, now time.Time) int {
	if t.IsBacklog || t.ExpectedDate == nil {
		return 0
	}

	ref := now
	if t.IsCompleted {
		if t.CompletedDate == nil {
			return 0
		}
		ref = *t.CompletedDate
	}

	diff := ref.Sub(*t.ExpectedDate)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}
