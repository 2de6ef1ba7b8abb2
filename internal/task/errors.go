package task

import "errors"

var (
	// ErrNotFound covers both "task does not exist" and "caller may not
	// access it". The two cases stay indistinguishable so a non-assignee
	// cannot probe for the existence of other people's tasks.
	ErrNotFound = errors.New("task not found")

	// ErrMissingTitle is returned when a task is created or renamed with an
	// empty title.
	ErrMissingTitle = errors.New("title is required")

	// ErrMissingSchedule is returned when a non-backlog task would end up
	// without an expected date.
	ErrMissingSchedule = errors.New("expected date or days to complete is required for non-backlog tasks")

	// ErrInvalidAssignee is returned when the requested assignee does not
	// reference an existing account.
	ErrInvalidAssignee = errors.New("assigned user not found")
)

// IsValidation reports whether err is one of the caller-input error kinds.
// Validation failures are terminal and never retried.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingTitle) ||
		errors.Is(err, ErrMissingSchedule) ||
		errors.Is(err, ErrInvalidAssignee)
}
