package memory

import (
	"context"
	"sync"

	"mock-exam-service/internal/app"
	"mock-exam-service/internal/domain"
)

// SessionStores is an in-memory implementation of app.SessionStores. State
// survives for the process lifetime only; it exists for tests and for
// running without Redis.
type SessionStores struct {
	mu    sync.Mutex
	banks map[string]*record
}

type record struct {
	state       domain.SessionState
	fingerprint string
	hasState    bool
}

func NewSessionStores() *SessionStores {
	return &SessionStores{banks: make(map[string]*record)}
}

func (s *SessionStores) ForBank(bankID string, defaults domain.SessionState) app.SessionStore {
	return &SessionStore{parent: s, bankID: bankID, defaults: defaults.Clone()}
}

// SessionStore persists one bank's attempt in process memory.
type SessionStore struct {
	parent   *SessionStores
	bankID   string
	defaults domain.SessionState
}

func (s *SessionStore) Load(_ context.Context) (domain.SessionState, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	rec, ok := s.parent.banks[s.bankID]
	if !ok || !rec.hasState {
		return s.defaults.Clone(), nil
	}
	return rec.state.Clone(), nil
}

func (s *SessionStore) Save(_ context.Context, state domain.SessionState) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	rec := s.record()
	rec.state = state.Clone()
	rec.hasState = true
	return nil
}

func (s *SessionStore) LoadFingerprint(_ context.Context) (string, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if rec, ok := s.parent.banks[s.bankID]; ok {
		return rec.fingerprint, nil
	}
	return "", nil
}

func (s *SessionStore) Reset(_ context.Context, state domain.SessionState, fingerprint string) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	rec := s.record()
	rec.state = state.Clone()
	rec.hasState = true
	rec.fingerprint = fingerprint
	return nil
}

// record must be called with the parent mutex held.
func (s *SessionStore) record() *record {
	rec, ok := s.parent.banks[s.bankID]
	if !ok {
		rec = &record{}
		s.parent.banks[s.bankID] = rec
	}
	return rec
}
