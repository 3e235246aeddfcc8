package memory

import (
	"context"
	"testing"
	"time"

	"mock-exam-service/internal/domain"
)

func TestBankRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		BankLoader: NewStaticBankLoader(map[string]domain.QuestionBank{
			"bank-1": sampleBank(),
		}),
	}
	repo := NewBankRepository(loader, time.Minute)

	if _, err := repo.GetBank(context.Background(), "bank-1"); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetBank(context.Background(), "bank-1"); err != nil {
		t.Fatalf("get bank 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestStaticBankLoaderUnknownBank(t *testing.T) {
	loader := NewStaticBankLoader(map[string]domain.QuestionBank{})
	if _, err := loader.LoadBank(context.Background(), "nope"); err != domain.ErrBankNotFound {
		t.Fatalf("expected bank-not-found, got %v", err)
	}
}

type countingLoader struct {
	BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx, bankID)
}

func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{
		ID: "bank-1",
		Subjects: []domain.Subject{{
			Name: "Math",
			Questions: []domain.Question{{
				Text:    "What is 2 + 2?",
				Options: map[string]string{"A": "3", "B": "4"},
				Answer:  "B",
			}},
		}},
	}
}
