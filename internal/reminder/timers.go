package reminder

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NotifyFunc presents a fired reminder to the user (desktop notification,
// terminal bell, whatever the host wires in).
type NotifyFunc func(title, body string)

// TimerScheduler is an in-process Scheduler backed by time.AfterFunc.
// Handles are only meaningful for the current process; after a restart the
// startup cleanup plus the first reconciliation pass rebuild the schedule,
// so cancelling a stale handle is a harmless no-op.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	notify NotifyFunc
	logger *slog.Logger
}

func NewTimerScheduler(notify NotifyFunc, logger *slog.Logger) *TimerScheduler {
	return &TimerScheduler{
		timers: make(map[string]*time.Timer),
		notify: notify,
		logger: logger,
	}
}

func (s *TimerScheduler) Schedule(fireAt time.Time, title, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle := uuid.NewString()
	s.timers[handle] = time.AfterFunc(time.Until(fireAt), func() {
		s.mu.Lock()
		delete(s.timers, handle)
		s.mu.Unlock()

		s.logger.Info("reminder fired", "title", title)
		s.notify(title, body)
	})
	return handle, nil
}

func (s *TimerScheduler) Cancel(handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[handle]; ok {
		t.Stop()
		delete(s.timers, handle)
	}
	return nil
}

// Stop cancels all pending timers, for shutdown.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for handle, t := range s.timers {
		t.Stop()
		delete(s.timers, handle)
	}
}
