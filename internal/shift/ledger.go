// Package shift owns the per-day care shift slots: who is assigned, who
// completed, and the transitions between. All mutations are
// household-scoped through the authorization gate and fan out a push to the
// other members after commit.
package shift

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/auth"
	"github.com/dogwatchapp/dogwatch/internal/model"
	"github.com/dogwatchapp/dogwatch/internal/store"
)

var (
	ErrNotFound    = errors.New("shift not found")
	ErrInvalidSlot = errors.New("invalid day or shift kind")
)

// Notifier is the fanout seam; *push.Fanout satisfies it.
type Notifier interface {
	NotifyHousehold(householdID, excludeMemberID int64, title, body string)
}

// Ledger coordinates slot state transitions. Slot uniqueness is enforced by
// the store's transactional upserts; the ledger adds authorization, member
// resolution, and notifications.
type Ledger struct {
	shifts   *store.ShiftStore
	members  *store.MemberStore
	gate     *auth.Gate
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewLedger(shifts *store.ShiftStore, members *store.MemberStore, gate *auth.Gate, notifier Notifier, logger *slog.Logger) *Ledger {
	return &Ledger{
		shifts:   shifts,
		members:  members,
		gate:     gate,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func validSlot(day, kind string) error {
	if !model.ValidShiftKind(kind) {
		return ErrInvalidSlot
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return ErrInvalidSlot
	}
	return nil
}

// Schedule assigns a member to a slot, creating it if absent. Reassigning a
// completed slot keeps the completion.
func (l *Ledger) Schedule(actor auth.Actor, day, kind string, assigneeID int64) (*model.CareShift, error) {
	if err := validSlot(day, kind); err != nil {
		return nil, err
	}

	assignee, err := l.members.GetByID(assigneeID)
	if err != nil {
		return nil, err
	}
	if assignee == nil || assignee.HouseholdID == nil {
		return nil, auth.ErrUnauthorized
	}
	if err := l.gate.Authorize(actor, *assignee.HouseholdID); err != nil {
		return nil, err
	}

	cs, err := l.shifts.UpsertAssignment(actor.Household.ID, day, kind, assignee.ID, assignee.Name)
	if err != nil {
		return nil, err
	}

	l.notify(actor, "Shift scheduled",
		fmt.Sprintf("%s will take %s's %s shift on %s", assignee.Name, actor.Household.DogName, kind, day))
	return cs, nil
}

// LogNow records a slot as done by the actor with no prior scheduling step.
// Idempotent per slot: a repeat overwrites the completion metadata.
func (l *Ledger) LogNow(actor auth.Actor, day, kind string) (*model.CareShift, error) {
	if err := validSlot(day, kind); err != nil {
		return nil, err
	}

	cs, err := l.shifts.UpsertLogged(actor.Household.ID, day, kind, actor.Member.ID, actor.Member.Name, l.now())
	if err != nil {
		return nil, err
	}

	l.notify(actor, "Shift logged",
		fmt.Sprintf("%s just handled %s's %s shift", actor.Member.Name, actor.Household.DogName, kind))
	return cs, nil
}

// Complete marks an existing shift done by the actor.
func (l *Ledger) Complete(actor auth.Actor, shiftID int64) error {
	cs, err := l.authorizedShift(actor, shiftID)
	if err != nil {
		return err
	}

	if err := l.shifts.SetCompleted(cs.ID, actor.Member.ID, l.now()); err != nil {
		return err
	}

	l.notify(actor, "Shift completed",
		fmt.Sprintf("%s completed %s's %s shift on %s", actor.Member.Name, actor.Household.DogName, cs.Kind, cs.Day))
	return nil
}

// Uncomplete reverts a completion. The assignment is retained: undo restores
// who was supposed to do it, not who is doing it now.
func (l *Ledger) Uncomplete(actor auth.Actor, shiftID int64) error {
	cs, err := l.authorizedShift(actor, shiftID)
	if err != nil {
		return err
	}

	if err := l.shifts.ClearCompletion(cs.ID); err != nil {
		return err
	}

	l.notify(actor, "Shift reopened",
		fmt.Sprintf("%s's %s shift on %s is no longer marked done", actor.Household.DogName, cs.Kind, cs.Day))
	return nil
}

// ClearAssignment deletes the slot row if it exists and is not completed.
// Clearing a completed slot is a no-op.
func (l *Ledger) ClearAssignment(actor auth.Actor, day, kind string) error {
	if err := validSlot(day, kind); err != nil {
		return err
	}
	_, err := l.shifts.DeleteIfNotCompleted(actor.Household.ID, day, kind)
	return err
}

func (l *Ledger) GetSlot(actor auth.Actor, day, kind string) (*model.CareShift, error) {
	if err := validSlot(day, kind); err != nil {
		return nil, err
	}
	return l.shifts.GetSlot(actor.Household.ID, day, kind)
}

func (l *Ledger) GetRange(actor auth.Actor, startDay, endDay string) ([]model.CareShift, error) {
	if _, err := time.Parse("2006-01-02", startDay); err != nil {
		return nil, ErrInvalidSlot
	}
	if _, err := time.Parse("2006-01-02", endDay); err != nil {
		return nil, ErrInvalidSlot
	}
	return l.shifts.GetRange(actor.Household.ID, startDay, endDay)
}

func (l *Ledger) authorizedShift(actor auth.Actor, shiftID int64) (*model.CareShift, error) {
	cs, err := l.shifts.GetByID(shiftID)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, ErrNotFound
	}
	if err := l.gate.Authorize(actor, cs.HouseholdID); err != nil {
		return nil, err
	}
	return cs, nil
}

// notify dispatches the fanout after the mutation has committed, off the
// request path.
func (l *Ledger) notify(actor auth.Actor, title, body string) {
	if l.notifier == nil {
		return
	}
	householdID := actor.Household.ID
	excludeID := actor.Member.ID
	go l.notifier.NotifyHousehold(householdID, excludeID, title, body)
}
