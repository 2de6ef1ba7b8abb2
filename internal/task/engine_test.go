package task_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housetasks/internal/models"
	"housetasks/internal/task"
)

// fakeStore is an in-memory task.Store for engine tests.
type fakeStore struct {
	tasks map[string]models.Task
	users map[string]models.User
}

func newFakeStore(users ...models.User) *fakeStore {
	s := &fakeStore{
		tasks: make(map[string]models.Task),
		users: make(map[string]models.User),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeStore) CreateTask(_ context.Context, t models.Task) (models.Task, error) {
	s.tasks[t.ID] = t
	return t, nil
}

func (s *fakeStore) GetTask(_ context.Context, id string) (models.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (s *fakeStore) ListTasksByAssignee(_ context.Context, accountID string) ([]models.Task, error) {
	return s.list(func(t models.Task) bool { return t.AssigneeID == accountID }), nil
}

func (s *fakeStore) ListTasksByCreator(_ context.Context, accountID string) ([]models.Task, error) {
	return s.list(func(t models.Task) bool { return t.CreatorID == accountID }), nil
}

func (s *fakeStore) list(keep func(models.Task) bool) []models.Task {
	var out []models.Task
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedDate.After(out[j].CreatedDate) })
	return out
}

func (s *fakeStore) UpdateTask(_ context.Context, t models.Task) (models.Task, error) {
	if _, ok := s.tasks[t.ID]; !ok {
		return models.Task{}, task.ErrNotFound
	}
	s.tasks[t.ID] = t
	return t, nil
}

func (s *fakeStore) DeleteTask(_ context.Context, id string) error {
	if _, ok := s.tasks[id]; !ok {
		return task.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *fakeStore) GetUser(_ context.Context, id string) (models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return models.User{}, task.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) UserExists(_ context.Context, id string) (bool, error) {
	_, ok := s.users[id]
	return ok, nil
}

var (
	alice = models.User{ID: "alice", Username: "alice", Role: models.RoleWife}
	bob   = models.User{ID: "bob", Username: "bob", Role: models.RoleHusband}

	asAlice = task.Identity{AccountID: alice.ID, Role: alice.Role}
	asBob   = task.Identity{AccountID: bob.ID, Role: bob.Role}

	day0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
)

func newEngine(t *testing.T) (*task.Engine, *fakeStore) {
	t.Helper()
	store := newFakeStore(alice, bob)
	return task.New(store, nil), store
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestCreateValidation(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, asAlice, task.CreateInput{Title: "  "}, day0)
	assert.ErrorIs(t, err, task.ErrMissingTitle)

	_, err = eng.Create(ctx, asAlice, task.CreateInput{Title: "dishes"}, day0)
	assert.ErrorIs(t, err, task.ErrMissingSchedule)

	_, err = eng.Create(ctx, asAlice, task.CreateInput{
		Title:          "dishes",
		DaysToComplete: intPtr(1),
		AssigneeID:     "nobody",
	}, day0)
	assert.ErrorIs(t, err, task.ErrInvalidAssignee)
}

func TestCreateResolvesExpectedDate(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	explicit := day0.AddDate(0, 0, 10)
	created, err := eng.Create(ctx, asAlice, task.CreateInput{
		Title:          "laundry",
		ExpectedDate:   &explicit,
		DaysToComplete: intPtr(2), // explicit date wins
	}, day0)
	require.NoError(t, err)
	require.NotNil(t, created.ExpectedDate)
	assert.True(t, created.ExpectedDate.Equal(explicit))

	created, err = eng.Create(ctx, asAlice, task.CreateInput{
		Title:          "groceries",
		DaysToComplete: intPtr(3),
	}, day0)
	require.NoError(t, err)
	require.NotNil(t, created.ExpectedDate)
	assert.True(t, created.ExpectedDate.Equal(day0.AddDate(0, 0, 3)))

	// Backlog forces a null expected date even when a schedule is supplied.
	created, err = eng.Create(ctx, asAlice, task.CreateInput{
		Title:        "someday: clean garage",
		ExpectedDate: &explicit,
		IsBacklog:    true,
	}, day0)
	require.NoError(t, err)
	assert.Nil(t, created.ExpectedDate)
	assert.True(t, created.IsBacklog)
}

func TestCreateDefaultsAssigneeToCaller(t *testing.T) {
	eng, _ := newEngine(t)

	created, err := eng.Create(context.Background(), asAlice, task.CreateInput{
		Title:          "vacuum",
		DaysToComplete: intPtr(1),
	}, day0)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, created.CreatorID)
	assert.Equal(t, alice.ID, created.AssigneeID)
	assert.False(t, created.IsCompleted)
	assert.Nil(t, created.CompletedDate)
	assert.True(t, created.CreatedDate.Equal(day0))
}

func TestVisibilityFollowsAssignment(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	// Alice creates a task for Bob with a 3-day offset.
	created, err := eng.Create(ctx, asAlice, task.CreateInput{
		Title:          "fix the fence",
		DaysToComplete: intPtr(3),
		AssigneeID:     bob.ID,
	}, day0)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, created.CreatorID)
	assert.Equal(t, bob.ID, created.AssigneeID)

	// On day 5 and still pending, Bob sees it with two days of delay.
	day5 := day0.AddDate(0, 0, 5)
	bobTasks, err := eng.List(ctx, asBob, day5)
	require.NoError(t, err)
	require.Len(t, bobTasks, 1)
	assert.Equal(t, 2, bobTasks[0].DelayDays)
	require.NotNil(t, bobTasks[0].AssignedBy)
	assert.Equal(t, alice.Username, bobTasks[0].AssignedBy.Username)

	// Alice created it but is not the assignee, so her list is empty and a
	// direct fetch is indistinguishable from a missing task.
	aliceTasks, err := eng.List(ctx, asAlice, day5)
	require.NoError(t, err)
	assert.Empty(t, aliceTasks)

	_, err = eng.Get(ctx, asAlice, created.ID, day5)
	assert.ErrorIs(t, err, task.ErrNotFound)

	got, err := eng.Get(ctx, asBob, created.ID, day5)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestGetUnknownTask(t *testing.T) {
	eng, _ := newEngine(t)
	_, err := eng.Get(context.Background(), asAlice, "missing", day0)
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestListOrdersNewestFirst(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	for i, title := range []string{"first", "second", "third"} {
		_, err := eng.Create(ctx, asAlice, task.CreateInput{
			Title:          title,
			DaysToComplete: intPtr(1),
		}, day0.AddDate(0, 0, i))
		require.NoError(t, err)
	}

	tasks, err := eng.List(ctx, asAlice, day0.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "third", tasks[0].Title)
	assert.Equal(t, "first", tasks[2].Title)
}

func TestUpdateOnlyByAssignee(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	created, err := eng.Create(ctx, asAlice, task.CreateInput{
		Title:          "water plants",
		DaysToComplete: intPtr(2),
		AssigneeID:     bob.ID,
	}, day0)
	require.NoError(t, err)

	_, err = eng.Update(ctx, asAlice, created.ID, task.UpdatePatch{Comments: strPtr("done?")}, day0)
	assert.ErrorIs(t, err, task.ErrNotFound)

	updated, err := eng.Update(ctx, asBob, created.ID, task.UpdatePatch{Comments: strPtr("on it")}, day0)
	require.NoError(t, err)
	assert.Equal(t, "on it", updated.Comments)
}

func TestUpdateBacklogClearsExpectedDate(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	created, err := eng.Create(ctx, asAlice, task.CreateInput{
		Title:          "sort photos",
		DaysToComplete: intPtr(5),
	}, day0)
	require.NoError(t, err)
	require.NotNil(t, created.ExpectedDate)

	// Moving to backlog wins over the day-count supplied in the same patch.
	updated, err := eng.Update(ctx, asAlice, created.ID, task.UpdatePatch{
		IsBacklog:      boolPtr(true),
		DaysToComplete: intPtr(2),
	}, day0)
	require.NoError(t, err)
	assert.True(t, updated.IsBacklog)
	assert.Nil(t, updated.ExpectedDate)

	// Leaving the backlog without supplying any schedule is rejected, so a
	// non-backlog task can never end up dateless.
	_, err = eng.Update(ctx, asAlice, created.ID, task.UpdatePatch{IsBacklog: boolPtr(false)}, day0)
	assert.ErrorIs(t, err, task.ErrMissingSchedule)

	updated, err = eng.Update(ctx, asAlice, created.ID, task.UpdatePatch{
		IsBacklog:      boolPtr(false),
		DaysToComplete: intPtr(4),
	}, day0)
	require.NoError(t, err)
	assert.False(t, updated.IsBacklog)
	require.NotNil(t, updated.ExpectedDate)
	assert.True(t, updated.ExpectedDate.Equal(day0.AddDate(0, 0, 4)))
}

func TestUpdateExplicitDateBeatsDayCount(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	created, err := eng.Create(ctx, asAlice, task.CreateInput{
		Title:          "mow lawn",
		DaysToComplete: intPtr(2),
	}, day0)
	require.NoError(t, err)

	explicit := day0.AddDate(0, 0, 14)
	updated, err := eng.Update(ctx, asAlice, created.ID, task.UpdatePatch{
		ExpectedDate:    &explicit,
		SetExpectedDate: true,
		DaysToComplete:  intPtr(1),
	}, day0)
	require.NoError(t, err)
	require.NotNil(t, updated.ExpectedDate)
	assert.True(t, updated.ExpectedDate.Equal(explicit))

	// Clearing the date of a non-backlog task is a validation failure.
	_, err = eng.Update(ctx, asAlice, created.ID, task.UpdatePatch{SetExpectedDate: true}, day0)
	assert.ErrorIs(t, err, task.ErrMissingSchedule)
}

func TestUpdateEmptyTitleRejected(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	created, err := eng.Create(ctx, asAlice, task.CreateInput{
		Title:          "take out trash",
		DaysToComplete: intPtr(1),
	}, day0)
	require.NoError(t, err)

	_, err = eng.Update(ctx, asAlice, created.ID, task.UpdatePatch{Title: strPtr("  ")}, day0)
	assert.ErrorIs(t, err, task.ErrMissingTitle)
}

func TestCompletionToggle(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	created, err := eng.Create(ctx, asAlice, task.CreateInput{
		Title:          "clean kitchen",
		DaysToComplete: intPtr(2),
	}, day0)
	require.NoError(t, err)

	day1 := day0.AddDate(0, 0, 1)
	updated, err := eng.Update(ctx, asAlice, created.ID, task.UpdatePatch{IsCompleted: boolPtr(true)}, day1)
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
	require.NotNil(t, updated.CompletedDate)
	assert.True(t, updated.CompletedDate.Equal(day1))

	// Completing again later keeps the first timestamp.
	day2 := day0.AddDate(0, 0, 2)
	updated, err = eng.Update(ctx, asAlice, created.ID, task.UpdatePatch{IsCompleted: boolPtr(true)}, day2)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedDate)
	assert.True(t, updated.CompletedDate.Equal(day1))

	// Reopening clears the timestamp, keeping the invariant both ways.
	updated, err = eng.Update(ctx, asAlice, created.ID, task.UpdatePatch{IsCompleted: boolPtr(false)}, day2)
	require.NoError(t, err)
	assert.False(t, updated.IsCompleted)
	assert.Nil(t, updated.CompletedDate)
}

func TestInvariantsHoldAfterMutations(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	created, err := eng.Create(ctx, asAlice, task.CreateInput{
		Title:          "paint shed",
		DaysToComplete: intPtr(3),
	}, day0)
	require.NoError(t, err)

	patches := []task.UpdatePatch{
		{IsCompleted: boolPtr(true)},
		{IsBacklog: boolPtr(true)},
		{IsCompleted: boolPtr(false)},
		{IsBacklog: boolPtr(false), DaysToComplete: intPtr(1)},
		{IsCompleted: boolPtr(true), IsBacklog: boolPtr(true)},
	}
	for _, p := range patches {
		_, err := eng.Update(ctx, asAlice, created.ID, p, day0.AddDate(0, 0, 1))
		require.NoError(t, err)

		got, err := store.GetTask(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, got.IsCompleted, got.CompletedDate != nil, "completed flag must track completedDate")
		assert.Equal(t, got.IsBacklog, got.ExpectedDate == nil, "backlog flag must track expectedDate")
	}
}

func TestDeleteOnlyByCreator(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	created, err := eng.Create(ctx, asAlice, task.CreateInput{
		Title:          "walk the dog",
		DaysToComplete: intPtr(1),
		AssigneeID:     bob.ID,
	}, day0)
	require.NoError(t, err)

	// Bob is the assignee but not the creator; same merged error as a stranger.
	err = eng.Delete(ctx, asBob, created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)

	err = eng.Delete(ctx, asAlice, created.ID)
	require.NoError(t, err)

	_, err = store.GetTask(ctx, created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)

	err = eng.Delete(ctx, asAlice, created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)
}
