package task_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"housetasks/internal/models"
	"housetasks/internal/task"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestDelayDays(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task models.Task
		want int
	}{
		{
			name: "backlog task always zero",
			task: models.Task{IsBacklog: true},
			want: 0,
		},
		{
			name: "backlog task with stale date still zero",
			task: models.Task{IsBacklog: true, ExpectedDate: datePtr(now.AddDate(0, 0, -10))},
			want: 0,
		},
		{
			name: "pending before deadline",
			task: models.Task{ExpectedDate: datePtr(now.AddDate(0, 0, 3))},
			want: 0,
		},
		{
			name: "pending exactly at deadline",
			task: models.Task{ExpectedDate: datePtr(now)},
			want: 0,
		},
		{
			name: "pending two days past deadline",
			task: models.Task{ExpectedDate: datePtr(now.AddDate(0, 0, -2))},
			want: 2,
		},
		{
			name: "pending one hour past deadline rounds up",
			task: models.Task{ExpectedDate: datePtr(now.Add(-time.Hour))},
			want: 1,
		},
		{
			name: "completed on time",
			task: models.Task{
				IsCompleted:   true,
				ExpectedDate:  datePtr(now),
				CompletedDate: datePtr(now.AddDate(0, 0, -1)),
			},
			want: 0,
		},
		{
			name: "completed exactly on expected date",
			task: models.Task{
				IsCompleted:   true,
				ExpectedDate:  datePtr(now),
				CompletedDate: datePtr(now),
			},
			want: 0,
		},
		{
			name: "completed one hour late counts as one day",
			task: models.Task{
				IsCompleted:   true,
				ExpectedDate:  datePtr(now),
				CompletedDate: datePtr(now.Add(time.Hour)),
			},
			want: 1,
		},
		{
			name: "completed delay frozen regardless of now",
			task: models.Task{
				IsCompleted:   true,
				ExpectedDate:  datePtr(now.AddDate(0, 0, -30)),
				CompletedDate: datePtr(now.AddDate(0, 0, -27)),
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := task.DelayDays(tt.task, now)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)

			// Pure function: a second call with the same inputs agrees.
			assert.Equal(t, got, task.DelayDays(tt.task, now))
		})
	}
}
