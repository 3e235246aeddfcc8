package app

import (
	"context"
	"time"
)

// RunTimer drives the session countdown at the given interval (one second
// in production; tests shrink it or call Tick directly). The loop exits
// when the countdown forces submission, the session otherwise leaves the
// in-progress phase, or the context is canceled. Tick itself ignores
// firings after submission, so an overlapping runner cannot corrupt state.
func RunTimer(ctx context.Context, session *QuizSession, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if session.Tick(ctx) {
				return
			}
			if session.Phase() != PhaseInProgress {
				return
			}
		}
	}
}

// StartTimer launches RunTimer once per session lifetime, no matter how
// many transports attach. Subsequent calls are no-ops.
func (s *QuizSession) StartTimer(ctx context.Context, interval time.Duration) {
	s.timerOnce.Do(func() {
		go RunTimer(ctx, s, interval)
	})
}
