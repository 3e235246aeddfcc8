package app

import (
	"context"
	"log"
	"sync"

	"mock-exam-service/internal/domain"
)

// BankRepository loads question-bank content (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// SessionStores hands out the durable store scoped to one bank's attempt.
type SessionStores interface {
	ForBank(bankID string, defaults domain.SessionState) SessionStore
}

// ExamService wires bank loading, the integrity check, and session
// hydration into one entry point for transports and the CLI.
type ExamService struct {
	banks  BankRepository
	stores SessionStores
	limit  int

	mu       sync.Mutex
	sessions map[string]*QuizSession
}

func NewExamService(stores SessionStores, banks BankRepository, limitSeconds int) *ExamService {
	return &ExamService{
		banks:    banks,
		stores:   stores,
		limit:    limitSeconds,
		sessions: make(map[string]*QuizSession),
	}
}

// OpenSession loads the bank, invalidates stale persisted state if the bank
// content changed, and hydrates the attempt. Repeat calls for the same bank
// return the same session: there is one logical actor per attempt. Malformed
// questions are logged and kept; they grade as never correct. A store that
// cannot be read yields a fresh in-memory session rather than a failure.
func (s *ExamService) OpenSession(ctx context.Context, bankID string) (*QuizSession, error) {
	s.mu.Lock()
	if session, ok := s.sessions[bankID]; ok {
		s.mu.Unlock()
		return session, nil
	}
	s.mu.Unlock()

	bank, err := s.banks.GetBank(ctx, bankID)
	if err != nil {
		return nil, err
	}
	for _, warn := range bank.Validate() {
		log.Printf("bank %s: %v", bankID, warn)
	}

	store := s.stores.ForBank(bankID, domain.NewSessionState(s.limit))
	if _, err := EnsureIntegrity(ctx, store, bank, s.limit); err != nil {
		log.Printf("bank %s: integrity reset not persisted: %v", bankID, err)
	}
	state, err := store.Load(ctx)
	if err != nil {
		log.Printf("bank %s: stored session unreadable, starting fresh: %v", bankID, err)
		state = domain.NewSessionState(s.limit)
	}
	session := NewQuizSession(bank, state, store)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[bankID]; ok {
		return existing, nil
	}
	s.sessions[bankID] = session
	return session, nil
}

// GradeStored grades the persisted attempt for a bank without opening a
// live session; used by the export command. The same integrity check as
// OpenSession runs first: a stale attempt must never be scored against a
// changed bank, so a fingerprint mismatch resets the stored state and the
// export reflects a fresh (unanswered) attempt. Unlike OpenSession there is
// no in-memory session to fall back on, so a failed reset is fatal.
func (s *ExamService) GradeStored(ctx context.Context, bankID string) (domain.QuestionBank, domain.GradingResult, error) {
	bank, err := s.banks.GetBank(ctx, bankID)
	if err != nil {
		return domain.QuestionBank{}, domain.GradingResult{}, err
	}
	store := s.stores.ForBank(bankID, domain.NewSessionState(s.limit))
	if _, err := EnsureIntegrity(ctx, store, bank, s.limit); err != nil {
		return domain.QuestionBank{}, domain.GradingResult{}, err
	}
	state, err := store.Load(ctx)
	if err != nil {
		return domain.QuestionBank{}, domain.GradingResult{}, err
	}
	return bank, Grade(bank, state.Answers), nil
}
