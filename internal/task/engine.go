package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"housetasks/internal/models"
)

// Store is the record keeper the engine runs against. Lookups that find no
// row must return an error matching ErrNotFound.
type Store interface {
	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)
	ListTasksByAssignee(ctx context.Context, accountID string) ([]models.Task, error)
	ListTasksByCreator(ctx context.Context, accountID string) ([]models.Task, error)
	UpdateTask(ctx context.Context, t models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	GetUser(ctx context.Context, id string) (models.User, error)
	UserExists(ctx context.Context, id string) (bool, error)
}

// Identity is the verified caller of an operation, as produced by the auth
// middleware. Role is informational only: every permission check in this
// package compares account ids, never roles.
type Identity struct {
	AccountID string
	Role      string
}

// Engine enforces the task lifecycle rules: who may see, change, and delete a
// task. It holds no state beyond its collaborators; every operation is a
// direct function of its inputs and the store.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// New constructs an Engine on top of the given store.
func New(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// CreateInput carries the caller-supplied fields for a new task. AssigneeID
// defaults to the caller. Exactly one of ExpectedDate or DaysToComplete must
// be present unless IsBacklog is set.
type CreateInput struct {
	Title          string
	Description    string
	ExpectedDate   *time.Time
	DaysToComplete *int
	AssigneeID     string
	IsBacklog      bool
}

// UpdatePatch describes a partial task update. Nil pointers leave the field
// untouched. SetExpectedDate distinguishes "clear the date" (true with a nil
// ExpectedDate) from "not mentioned" (false).
type UpdatePatch struct {
	Title           *string
	Description     *string
	Comments        *string
	IsBacklog       *bool
	ExpectedDate    *time.Time
	SetExpectedDate bool
	DaysToComplete  *int
	IsCompleted     *bool
}

// TaskWithDelay is a task annotated with its current delay and the account
// that created it, as returned by the read paths.
type TaskWithDelay struct {
	models.Task
	DelayDays  int             `json:"delayDays"`
	AssignedBy *models.UserRef `json:"assignedBy"`
}

// Create validates and persists a new task on behalf of caller.
func (e *Engine) Create(ctx context.Context, caller Identity, in CreateInput, now time.Time) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, ErrMissingTitle
	}

	assignee := in.AssigneeID
	if assignee == "" {
		assignee = caller.AccountID
	}
	exists, err := e.store.UserExists(ctx, assignee)
	if err != nil {
		return models.Task{}, fmt.Errorf("resolve assignee: %w", err)
	}
	if !exists {
		return models.Task{}, ErrInvalidAssignee
	}

	expected, err := resolveExpectedDate(in.IsBacklog, in.ExpectedDate, in.DaysToComplete, now)
	if err != nil {
		return models.Task{}, err
	}

	t := models.Task{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		IsBacklog:    in.IsBacklog,
		CreatedDate:  now,
		ExpectedDate: expected,
		CreatorID:    caller.AccountID,
		AssigneeID:   assignee,
	}

	created, err := e.store.CreateTask(ctx, t)
	if err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}

	e.logger.Info("task created",
		slog.String("task_id", created.ID),
		slog.String("creator", caller.AccountID),
		slog.String("assignee", assignee),
		slog.Bool("backlog", created.IsBacklog))
	return created, nil
}

// List returns every task assigned to caller, newest first, each annotated
// with its delay as of now. Tasks the caller merely created for someone else
// are not included: assignment, not authorship, determines visibility.
func (e *Engine) List(ctx context.Context, caller Identity, now time.Time) ([]TaskWithDelay, error) {
	tasks, err := e.store.ListTasksByAssignee(ctx, caller.AccountID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return e.annotate(ctx, tasks, now), nil
}

// Get returns a single task if and only if caller is its assignee. A missing
// task and a task assigned to someone else produce the same ErrNotFound.
func (e *Engine) Get(ctx context.Context, caller Identity, id string, now time.Time) (TaskWithDelay, error) {
	t, err := e.loadOwned(ctx, caller, id, func(t models.Task) string { return t.AssigneeID })
	if err != nil {
		return TaskWithDelay{}, err
	}
	annotated := e.annotate(ctx, []models.Task{t}, now)
	return annotated[0], nil
}

// Update applies a partial update to a task the caller is assigned to.
func (e *Engine) Update(ctx context.Context, caller Identity, id string, patch UpdatePatch, now time.Time) (models.Task, error) {
	cur, err := e.loadOwned(ctx, caller, id, func(t models.Task) string { return t.AssigneeID })
	if err != nil {
		return models.Task{}, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.Task{}, ErrMissingTitle
		}
		cur.Title = title
	}
	if patch.Description != nil {
		cur.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Comments != nil {
		cur.Comments = *patch.Comments
	}
	if patch.IsBacklog != nil {
		cur.IsBacklog = *patch.IsBacklog
	}

	if patch.SetExpectedDate {
		cur.ExpectedDate = patch.ExpectedDate
	} else if patch.DaysToComplete != nil && !cur.IsBacklog {
		d := now.AddDate(0, 0, *patch.DaysToComplete)
		cur.ExpectedDate = &d
	}
	// Backlog wins over any date supplied in the same request.
	if cur.IsBacklog {
		cur.ExpectedDate = nil
	}
	if !cur.IsBacklog && cur.ExpectedDate == nil {
		return models.Task{}, ErrMissingSchedule
	}

	if patch.IsCompleted != nil {
		if *patch.IsCompleted {
			// Idempotent: a repeated "complete" keeps the first timestamp.
			if cur.CompletedDate == nil {
				cur.CompletedDate = &now
			}
		} else {
			cur.CompletedDate = nil
		}
		cur.IsCompleted = *patch.IsCompleted
	}

	updated, err := e.store.UpdateTask(ctx, cur)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return updated, nil
}

// Delete removes a task permanently. Only the creator may delete; the
// assignee (when different) gets the same ErrNotFound as a stranger.
func (e *Engine) Delete(ctx context.Context, caller Identity, id string) error {
	if _, err := e.loadOwned(ctx, caller, id, func(t models.Task) string { return t.CreatorID }); err != nil {
		return err
	}
	if err := e.store.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	e.logger.Info("task deleted", slog.String("task_id", id), slog.String("creator", caller.AccountID))
	return nil
}

// loadOwned fetches a task and verifies the caller against the id selected by
// owner. Mismatch and absence collapse into the same error.
func (e *Engine) loadOwned(ctx context.Context, caller Identity, id string, owner func(models.Task) string) (models.Task, error) {
	t, err := e.store.GetTask(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	if owner(t) != caller.AccountID {
		return models.Task{}, ErrNotFound
	}
	return t, nil
}

// annotate attaches delay and creator info to each task. Creator lookups are
// cached per call so a list of tasks from one creator costs one query.
func (e *Engine) annotate(ctx context.Context, tasks []models.Task, now time.Time) []TaskWithDelay {
	out := make([]TaskWithDelay, 0, len(tasks))
	creators := make(map[string]*models.UserRef)
	for _, t := range tasks {
		ref, ok := creators[t.CreatorID]
		if !ok {
			if u, err := e.store.GetUser(ctx, t.CreatorID); err == nil {
				r := u.Ref()
				ref = &r
			}
			creators[t.CreatorID] = ref
		}
		out = append(out, TaskWithDelay{
			Task:       t,
			DelayDays:  DelayDays(t, now),
			AssignedBy: ref,
		})
	}
	return out
}

func resolveExpectedDate(backlog bool, explicit *time.Time, days *int, now time.Time) (*time.Time, error) {
	if backlog {
		return nil, nil
	}
	if explicit != nil {
		d := *explicit
		return &d, nil
	}
	if days != nil {
		d := now.AddDate(0, 0, *days)
		return &d, nil
	}
	return nil, ErrMissingSchedule
}
