package app

import (
	"context"
	"log"
	"sync"

	"mock-exam-service/internal/domain"
)

// SessionStore abstracts durable persistence of one attempt's state
// (in-memory, Redis, etc). Writes are per-field last-write-wins; there is a
// single logical actor per bank so no atomicity is needed.
type SessionStore interface {
	// Load returns the persisted state, substituting fresh defaults for any
	// missing field.
	Load(ctx context.Context) (domain.SessionState, error)
	// Save persists the full state. Called after every mutation.
	Save(ctx context.Context, state domain.SessionState) error
	// LoadFingerprint returns the stored bank fingerprint, or "" when absent.
	LoadFingerprint(ctx context.Context) (string, error)
	// Reset replaces persisted state with fresh defaults and records a new
	// fingerprint baseline.
	Reset(ctx context.Context, state domain.SessionState, fingerprint string) error
}

// Phase is the lifecycle position of a session.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseSubmitted
)

// Update is the snapshot pushed to subscribers on every tick and on
// submission. StorageDegraded flips when a persistence write fails, so the
// presentation layer can tell the user the attempt may not survive a
// reload; it clears again once writes succeed.
type Update struct {
	Remaining       int  `json:"remaining"`
	Submitted       bool `json:"submitted"`
	StorageDegraded bool `json:"storageDegraded,omitempty"`
}

// QuizSession owns the mutable state of one exam attempt: the answer set,
// the countdown, and the submission flag. Every mutation writes through to
// the store before returning; persistence failures are logged and tolerated
// so a broken backend degrades durability, never the attempt itself.
//
// Submitted is terminal. A changed bank does not transition out of it; the
// integrity check builds a fresh session instead.
type QuizSession struct {
	bank  domain.QuestionBank
	store SessionStore
	logf  func(format string, args ...any)

	mu          sync.Mutex
	phase       Phase
	state       domain.SessionState
	degraded    bool
	subscribers map[chan Update]struct{}
	timerOnce   sync.Once
}

// NewQuizSession builds a session over hydrated state. A state persisted as
// submitted rehydrates straight into the terminal phase so a reload after
// submission shows results rather than a reopened exam.
func NewQuizSession(bank domain.QuestionBank, state domain.SessionState, store SessionStore) *QuizSession {
	s := &QuizSession{
		bank:        bank,
		store:       store,
		logf:        log.Printf,
		state:       state.Clone(),
		subscribers: make(map[chan Update]struct{}),
	}
	if s.state.Answers == nil {
		s.state.Answers = domain.AnswerSet{}
	}
	if state.Submitted {
		s.phase = PhaseSubmitted
	}
	return s
}

// Bank returns the question bank this session runs against.
func (s *QuizSession) Bank() domain.QuestionBank { return s.bank }

// Start moves a fresh session into progress. Starting an in-progress
// session is a no-op; a submitted session stays submitted.
func (s *QuizSession) Start() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseNotStarted {
		s.phase = PhaseInProgress
	}
	return s.phase
}

// Snapshot returns a copy of the current state for rendering.
func (s *QuizSession) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Phase reports the current lifecycle position.
func (s *QuizSession) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SelectAnswer records an option key for one question and persists the
// mutation. The option key itself is not validated against the question's
// options: an unknown key is tolerated and simply never matches at grading
// time.
func (s *QuizSession) SelectAnswer(ctx context.Context, subject string, index int, optionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case PhaseNotStarted:
		return domain.ErrSessionNotStarted
	case PhaseSubmitted:
		return domain.ErrSessionSubmitted
	}
	group, ok := s.bank.Subject(subject)
	if !ok {
		return domain.ErrSubjectNotFound
	}
	if index < 0 || index >= len(group.Questions) {
		return domain.ErrQuestionNotFound
	}
	s.state.Answers.Set(subject, index, optionKey)
	s.persistLocked(ctx)
	return nil
}

// Tick advances the countdown by one second. It is a silent no-op unless
// the session is in progress, so a stray pending timer firing after
// submission cannot corrupt terminal state. When the countdown reaches
// zero the session is force-submitted regardless of completeness; Tick
// reports true exactly once, on that transition.
func (s *QuizSession) Tick(ctx context.Context) bool {
	s.mu.Lock()
	if s.phase != PhaseInProgress {
		s.mu.Unlock()
		return false
	}
	if s.state.Remaining > 0 {
		s.state.Remaining--
		s.persistLocked(ctx)
		s.broadcastLocked()
	}
	if s.state.Remaining > 0 {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	_, _ = s.Submit(ctx, true)
	return true
}

// Submit finalizes the attempt and returns its grading. Submitting an
// already-submitted session is idempotent: it regrades and mutates nothing.
// An explicit (non-forced) submit is gated on every question in every
// subject having a recorded answer; a forced submit (timer expiry) skips
// the gate.
func (s *QuizSession) Submit(ctx context.Context, forced bool) (domain.GradingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case PhaseSubmitted:
		return Grade(s.bank, s.state.Answers), nil
	case PhaseNotStarted:
		return domain.GradingResult{}, domain.ErrSessionNotStarted
	}
	if !forced && s.incompleteLocked() {
		return domain.GradingResult{}, domain.ErrIncompleteSubmission
	}
	s.state.Submitted = true
	s.state.Remaining = 0
	s.phase = PhaseSubmitted
	s.persistLocked(ctx)
	s.broadcastLocked()
	return Grade(s.bank, s.state.Answers), nil
}

// Subscribe returns a channel receiving timer/submission updates. The
// caller must invoke the cancel function to avoid leaks.
func (s *QuizSession) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.updateLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *QuizSession) incompleteLocked() bool {
	for _, subject := range s.bank.Subjects {
		for i := range subject.Questions {
			if s.state.Answers.Get(subject.Name, i) == "" {
				return true
			}
		}
	}
	return false
}

func (s *QuizSession) persistLocked(ctx context.Context) {
	if err := s.store.Save(ctx, s.state.Clone()); err != nil {
		s.logf("session save failed, continuing in memory: %v", err)
		if !s.degraded {
			s.degraded = true
			s.broadcastLocked()
		}
		return
	}
	if s.degraded {
		s.degraded = false
		s.broadcastLocked()
	}
}

func (s *QuizSession) updateLocked() Update {
	return Update{
		Remaining:       s.state.Remaining,
		Submitted:       s.state.Submitted,
		StorageDegraded: s.degraded,
	}
}

func (s *QuizSession) broadcastLocked() {
	update := s.updateLocked()
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			// Drop the stale update so a slow consumer never blocks the clock.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}
