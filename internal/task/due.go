// Package task computes due status for recurring care tasks. Pure functions,
// no I/O: the next due date is always derived from the task's interval and
// last completion, never stored.
package task

import (
	"math"
	"sort"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/model"
)

// DueStatus is the derived schedule state of one recurring task.
type DueStatus struct {
	NextDue      time.Time `json:"next_due"`
	IsDue        bool      `json:"is_due"`
	DaysUntilDue int       `json:"days_until_due"`
}

// ComputeDueStatus derives the next due date and urgency for a task.
// DaysUntilDue may be negative, meaning overdue by that many days.
func ComputeDueStatus(t model.RecurringTask, now time.Time) DueStatus {
	base := t.StartDate
	if t.LastCompleted != nil {
		base = *t.LastCompleted
	}
	nextDue := base.AddDate(0, 0, t.IntervalDays)

	return DueStatus{
		NextDue:      nextDue,
		IsDue:        !nextDue.After(now),
		DaysUntilDue: int(math.Ceil(nextDue.Sub(now).Hours() / 24)),
	}
}

// MarkDone records a completion, bucketed to the start of the current local
// day rather than the exact instant. Completing a task twice in one day does
// not advance the schedule twice.
func MarkDone(t model.RecurringTask, now time.Time) model.RecurringTask {
	day := StartOfDay(now)
	t.LastCompleted = &day
	return t
}

// SortByDue orders tasks ascending by next due date. The sort is stable so
// ties keep insertion order.
func SortByDue(tasks []model.RecurringTask, now time.Time) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return ComputeDueStatus(tasks[i], now).NextDue.Before(ComputeDueStatus(tasks[j], now).NextDue)
	})
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
