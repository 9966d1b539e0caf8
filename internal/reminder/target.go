package reminder

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/model"
	"github.com/dogwatchapp/dogwatch/internal/task"
)

type Kind string

const (
	KindAppointment   Kind = "appointment"
	KindRecurringTask Kind = "recurring_task"
)

// AppointmentLead is how far before an appointment its reminder fires.
const AppointmentLead = 24 * time.Hour

// Target is one reminder the device should currently have scheduled. Its
// identity is (Kind, SourceID) only: a rescheduled appointment moves the
// fire time without changing which reminder it is.
type Target struct {
	Kind     Kind
	SourceID int64
	FireAt   time.Time
	Title    string
	Body     string
}

func (t Target) Key() string {
	return string(t.Kind) + ":" + strconv.FormatInt(t.SourceID, 10)
}

func key(kind Kind, sourceID int64) string {
	return string(kind) + ":" + strconv.FormatInt(sourceID, 10)
}

// AppointmentTargets derives reminders for appointments that are not
// completed and whose lead time has not already passed.
func AppointmentTargets(appointments []model.Appointment, now time.Time) []Target {
	var targets []Target
	for _, a := range appointments {
		if a.Completed {
			continue
		}
		fireAt := a.StartTime.Add(-AppointmentLead)
		if !fireAt.After(now) {
			continue
		}
		targets = append(targets, Target{
			Kind:     KindAppointment,
			SourceID: a.ID,
			FireAt:   fireAt,
			Title:    "Upcoming appointment",
			Body:     fmt.Sprintf("%s tomorrow at %s", a.Title, a.StartTime.Format("3:04 PM")),
		})
	}
	return targets
}

// TaskTargets derives reminders for recurring tasks that are due within a
// day. The fire time is the start of the due day; once that has passed the
// reminder rolls to the next midnight, so an overdue task nags once per day
// and repeated passes within a day stay no-ops.
func TaskTargets(tasks []model.RecurringTask, now time.Time) []Target {
	var targets []Target
	for _, t := range tasks {
		st := task.ComputeDueStatus(t, now)
		if st.DaysUntilDue > 1 {
			continue
		}
		fireAt := task.StartOfDay(st.NextDue)
		if !fireAt.After(now) {
			fireAt = task.StartOfDay(now).AddDate(0, 0, 1)
		}
		body := fmt.Sprintf("%s is due", t.Title)
		if st.DaysUntilDue < 0 {
			body = fmt.Sprintf("%s is %d days overdue", t.Title, -st.DaysUntilDue)
		}
		targets = append(targets, Target{
			Kind:     KindRecurringTask,
			SourceID: t.ID,
			FireAt:   fireAt,
			Title:    "Care task due",
			Body:     body,
		})
	}
	return targets
}

// BuildTargets computes the complete target set from current data.
func BuildTargets(appointments []model.Appointment, tasks []model.RecurringTask, now time.Time) []Target {
	return append(AppointmentTargets(appointments, now), TaskTargets(tasks, now)...)
}
