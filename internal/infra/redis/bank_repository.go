package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"mock-exam-service/internal/domain"
)

// BankLoader fetches question-bank content from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// BankRepository caches full bank documents in Redis and falls back to a
// loader on cache miss. The whole bank is cached (not just the answer keys):
// fingerprinting and result rendering need the complete ordered content.
// Cached as: SET exam:bank:{bankID} {json} with TTL+jitter.
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	key := r.bankKey(bankID)

	raw, err := r.client.Get(ctx, key).Result()
	if err == nil {
		return decodeBank(bankID, raw)
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := r.client.Get(ctx, key).Result()
		if err == nil {
			return decodeBank(bankID, raw)
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.QuestionBank{}, err
		}

		if encoded, err := json.Marshal(bank); err == nil {
			_ = r.client.Set(ctx, key, encoded, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (r *BankRepository) bankKey(bankID string) string {
	return "exam:bank:" + bankID
}

func decodeBank(bankID, raw string) (domain.QuestionBank, error) {
	var bank domain.QuestionBank
	if err := json.Unmarshal([]byte(raw), &bank); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("decode cached bank: %w", err)
	}
	bank.ID = bankID
	return bank, nil
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
