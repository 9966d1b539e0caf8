package push

import (
	"errors"
	"log/slog"

	"github.com/dogwatchapp/dogwatch/internal/model"
	"github.com/dogwatchapp/dogwatch/internal/store"
)

// Sender delivers one payload to one subscription. *Service satisfies it;
// tests substitute a recorder.
type Sender interface {
	Send(sub *model.PushSubscription, payload Payload) error
}

// Fanout pushes a remote notification to every subscribed device in a
// household except the acting member's. Fire-and-forget: no retry, no
// delivery confirmation, and a failure for one recipient never affects the
// others or the mutation that triggered it.
type Fanout struct {
	sender Sender
	subs   *store.PushStore
	logger *slog.Logger
}

func NewFanout(sender Sender, subs *store.PushStore, logger *slog.Logger) *Fanout {
	return &Fanout{sender: sender, subs: subs, logger: logger}
}

// NotifyHousehold dispatches one push per registered device, excluding the
// acting member. Errors are logged and swallowed; expired subscriptions are
// pruned.
func (f *Fanout) NotifyHousehold(householdID, excludeMemberID int64, title, body string) {
	if f == nil || f.sender == nil {
		return
	}

	subs, err := f.subs.ListByHousehold(householdID)
	if err != nil {
		f.logger.Error("fanout: list subscriptions", "household_id", householdID, "error", err)
		return
	}

	payload := Payload{Title: title, Body: body}
	for _, sub := range subs {
		if sub.MemberID == excludeMemberID {
			continue
		}
		if err := f.sender.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				f.subs.DeleteByEndpoint(sub.Endpoint)
				continue
			}
			f.logger.Error("fanout: send", "member_id", sub.MemberID, "error", err)
		}
	}
}
