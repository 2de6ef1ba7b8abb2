package task

import (
	"context"
	"fmt"
	"math"
	"time"

	"housetasks/internal/models"
)

// Summary holds the headline counters of the performance dashboard.
type Summary struct {
	TotalTasks     int     `json:"totalTasks"`
	CompletedTasks int     `json:"completedTasks"`
	PendingTasks   int     `json:"pendingTasks"`
	OverdueTasks   int     `json:"overdueTasks"`
	CompletionRate float64 `json:"completionRate"`
	OnTimeRate     float64 `json:"onTimeRate"`
}

// Completion breaks completed tasks down into on-time and delayed.
type Completion struct {
	CompletedOnTime  int     `json:"completedOnTime"`
	CompletedDelayed int     `json:"completedDelayed"`
	AverageDelay     float64 `json:"averageDelay"`
	DelayedCount     int     `json:"delayedCount"`
}

// Weekly counts activity in the trailing seven days.
type Weekly struct {
	TasksCreated   int `json:"tasksCreated"`
	TasksCompleted int `json:"tasksCompleted"`
}

// TaskMetric is the per-task line of the dashboard detail list.
type TaskMetric struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	IsCompleted   bool       `json:"isCompleted"`
	CreatedDate   time.Time  `json:"createdDate"`
	ExpectedDate  *time.Time `json:"expectedDate"`
	CompletedDate *time.Time `json:"completedDate"`
	DelayDays     int        `json:"delayDays"`
	IsBacklog     bool       `json:"isBacklog"`
}

// Report is the full metrics payload for one account.
type Report struct {
	Summary    Summary      `json:"summary"`
	Completion Completion   `json:"completion"`
	Weekly     Weekly       `json:"weekly"`
	Tasks      []TaskMetric `json:"tasks"`
}

// Metrics builds the performance report for the caller's assigned tasks as of
// now. Backlog tasks are excluded from every count, rate, and the detail
// list: an undated intention is not a deadline that can be missed.
func (e *Engine) Metrics(ctx context.Context, caller Identity, now time.Time) (Report, error) {
	tasks, err := e.store.ListTasksByAssignee(ctx, caller.AccountID)
	if err != nil {
		return Report{}, fmt.Errorf("list tasks: %w", err)
	}
	return Aggregate(tasks, now), nil
}

// Aggregate computes the report from a task set. It is a pure function of its
// inputs; the same now is used for every comparison so overdue counts and
// per-task delays cannot disagree within one report.
func Aggregate(tasks []models.Task, now time.Time) Report {
	dated := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsBacklog {
			dated = append(dated, t)
		}
	}

	var r Report
	r.Summary.TotalTasks = len(dated)
	r.Tasks = make([]TaskMetric, 0, len(dated))

	weekAgo := now.AddDate(0, 0, -7)
	var totalDelay int

	for _, t := range dated {
		delay := DelayDays(t, now)

		if t.IsCompleted {
			r.Summary.CompletedTasks++
			if t.CompletedDate != nil && t.ExpectedDate != nil {
				if t.CompletedDate.After(*t.ExpectedDate) {
					totalDelay += delay
					r.Completion.DelayedCount++
				} else {
					r.Completion.CompletedOnTime++
				}
			}
			if t.CompletedDate != nil && !t.CompletedDate.Before(weekAgo) {
				r.Weekly.TasksCompleted++
			}
		} else if t.ExpectedDate != nil && now.After(*t.ExpectedDate) {
			r.Summary.OverdueTasks++
		}

		if !t.CreatedDate.Before(weekAgo) {
			r.Weekly.TasksCreated++
		}

		r.Tasks = append(r.Tasks, TaskMetric{
			ID:            t.ID,
			Title:         t.Title,
			IsCompleted:   t.IsCompleted,
			CreatedDate:   t.CreatedDate,
			ExpectedDate:  t.ExpectedDate,
			CompletedDate: t.CompletedDate,
			DelayDays:     delay,
			IsBacklog:     t.IsBacklog,
		})
	}

	r.Summary.PendingTasks = r.Summary.TotalTasks - r.Summary.CompletedTasks
	r.Completion.CompletedDelayed = r.Summary.CompletedTasks - r.Completion.CompletedOnTime

	// Every ratio guards its denominator; an empty set reports 0, not NaN.
	if r.Completion.DelayedCount > 0 {
		r.Completion.AverageDelay = round1(float64(totalDelay) / float64(r.Completion.DelayedCount))
	}
	if r.Summary.TotalTasks > 0 {
		r.Summary.CompletionRate = round1(float64(r.Summary.CompletedTasks) / float64(r.Summary.TotalTasks) * 100)
	}
	if r.Summary.CompletedTasks > 0 {
		r.Summary.OnTimeRate = round1(float64(r.Completion.CompletedOnTime) / float64(r.Summary.CompletedTasks) * 100)
	}
	return r
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
