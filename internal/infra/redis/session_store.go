package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"mock-exam-service/internal/app"
	"mock-exam-service/internal/domain"
)

// SessionStores is the Redis-backed implementation of app.SessionStores.
// Attempt state survives process restarts, which is what lets an exam
// resume after a reload. Key layout per bank:
//
//	exam:{bankID}:answers     JSON answer set
//	exam:{bankID}:remaining   integer seconds
//	exam:{bankID}:submitted   "0" / "1"
//	exam:{bankID}:fingerprint bank content hash
//
// Fields are written last-write-wins; the single logical actor per bank
// makes multi-key atomicity unnecessary.
type SessionStores struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStores(client *redis.Client, ttl time.Duration) *SessionStores {
	return &SessionStores{client: client, ttl: ttl}
}

func (s *SessionStores) ForBank(bankID string, defaults domain.SessionState) app.SessionStore {
	return &SessionStore{
		client:   s.client,
		ttl:      s.ttl,
		bankID:   bankID,
		defaults: defaults.Clone(),
	}
}

// SessionStore persists one bank's attempt in Redis.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	bankID   string
	defaults domain.SessionState
}

// Load reads the persisted attempt. A missing key substitutes that field's
// fresh default, so a partially written session still hydrates.
func (s *SessionStore) Load(ctx context.Context) (domain.SessionState, error) {
	state := s.defaults.Clone()

	raw, err := s.client.Get(ctx, s.key("answers")).Result()
	switch {
	case err == redis.Nil:
	case err != nil:
		return domain.SessionState{}, fmt.Errorf("load answers: %w", err)
	default:
		answers := domain.AnswerSet{}
		if err := json.Unmarshal([]byte(raw), &answers); err != nil {
			return domain.SessionState{}, fmt.Errorf("decode answers: %w", err)
		}
		state.Answers = answers
	}

	raw, err = s.client.Get(ctx, s.key("remaining")).Result()
	switch {
	case err == redis.Nil:
	case err != nil:
		return domain.SessionState{}, fmt.Errorf("load remaining: %w", err)
	default:
		remaining, err := strconv.Atoi(raw)
		if err != nil {
			return domain.SessionState{}, fmt.Errorf("decode remaining: %w", err)
		}
		state.Remaining = remaining
	}

	raw, err = s.client.Get(ctx, s.key("submitted")).Result()
	switch {
	case err == redis.Nil:
	case err != nil:
		return domain.SessionState{}, fmt.Errorf("load submitted: %w", err)
	default:
		state.Submitted = raw == "1"
	}

	return state, nil
}

func (s *SessionStore) Save(ctx context.Context, state domain.SessionState) error {
	answers, err := json.Marshal(state.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	submitted := "0"
	if state.Submitted {
		submitted = "1"
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key("answers"), answers, s.ttl)
	pipe.Set(ctx, s.key("remaining"), strconv.Itoa(state.Remaining), s.ttl)
	pipe.Set(ctx, s.key("submitted"), submitted, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) LoadFingerprint(ctx context.Context) (string, error) {
	fp, err := s.client.Get(ctx, s.key("fingerprint")).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load fingerprint: %w", err)
	}
	return fp, nil
}

// Reset drops persisted attempt state and records the new baseline
// fingerprint. Dropped keys hydrate as defaults on the next Load.
func (s *SessionStore) Reset(ctx context.Context, _ domain.SessionState, fingerprint string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key("answers"), s.key("remaining"), s.key("submitted"))
	pipe.Set(ctx, s.key("fingerprint"), fingerprint, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(field string) string {
	return "exam:" + s.bankID + ":" + field
}
