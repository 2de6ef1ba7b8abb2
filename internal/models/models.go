package models

import "time"

// Household roles. A household has exactly two of them; the role is shown in
// the UI next to usernames and carries no permissions.
const (
	RoleHusband = "husband"
	RoleWife    = "wife"
)

// ValidRoles enumerates the roles an account may register with.
var ValidRoles = map[string]struct{}{
	RoleHusband: {},
	RoleWife:    {},
}

// User is a household account. PasswordHash never leaves the storage layer.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Task is a single household task. A task is visible to and mutable by its
// assignee only; the creator is the only account that may delete it.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Comments      string     `json:"comments,omitempty"`
	IsBacklog     bool       `json:"isBacklog"`
	IsCompleted   bool       `json:"isCompleted"`
	CreatedDate   time.Time  `json:"createdDate"`
	ExpectedDate  *time.Time `json:"expectedDate"`
	CompletedDate *time.Time `json:"completedDate"`
	CreatorID     string     `json:"creatorId"`
	AssigneeID    string     `json:"assigneeId"`
}

// UserRef is the public projection of a User embedded in task responses.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Ref returns the public projection of the user.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, Role: u.Role}
}
