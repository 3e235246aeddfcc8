package app_test

import (
	"context"
	"testing"
	"time"

	"mock-exam-service/internal/app"
	"mock-exam-service/internal/domain"
	"mock-exam-service/internal/infra/memory"
)

func newTestService(banks map[string]domain.QuestionBank, limit int) *app.ExamService {
	stores := memory.NewSessionStores()
	repo := memory.NewBankRepository(memory.NewStaticBankLoader(banks), 5*time.Minute)
	return app.NewExamService(stores, repo, limit)
}

func TestOpenSessionHydratesFreshState(t *testing.T) {
	ctx := context.Background()
	service := newTestService(map[string]domain.QuestionBank{"bank-1": sampleBank()}, 60)

	session, err := service.OpenSession(ctx, "bank-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	state := session.Snapshot()
	if state.Remaining != 60 || state.Submitted || len(state.Answers) != 0 {
		t.Fatalf("expected fresh defaults, got %+v", state)
	}
	if session.Phase() != app.PhaseNotStarted {
		t.Fatalf("expected not-started phase")
	}
}

func TestOpenSessionReturnsSameSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(map[string]domain.QuestionBank{"bank-1": sampleBank()}, 60)

	first, err := service.OpenSession(ctx, "bank-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	second, err := service.OpenSession(ctx, "bank-1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if first != second {
		t.Fatalf("expected one session per bank")
	}
}

func TestOpenSessionUnknownBank(t *testing.T) {
	service := newTestService(map[string]domain.QuestionBank{}, 60)
	if _, err := service.OpenSession(context.Background(), "nope"); err != domain.ErrBankNotFound {
		t.Fatalf("expected bank-not-found, got %v", err)
	}
}

func TestOpenSessionResumesPersistedState(t *testing.T) {
	ctx := context.Background()
	bank := sampleBank()
	stores := memory.NewSessionStores()
	repo := memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{"bank-1": bank}), 5*time.Minute)

	// First process: answer something, let state persist.
	service := app.NewExamService(stores, repo, 60)
	session, err := service.OpenSession(ctx, "bank-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	session.Start()
	if err := session.SelectAnswer(ctx, "Math", 0, "B"); err != nil {
		t.Fatalf("select: %v", err)
	}
	session.Tick(ctx)

	// "Reload": a new service over the same stores.
	service = app.NewExamService(stores, repo, 60)
	resumed, err := service.OpenSession(ctx, "bank-1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	state := resumed.Snapshot()
	if state.Answers.Get("Math", 0) != "B" || state.Remaining != 59 {
		t.Fatalf("expected resumed state, got %+v", state)
	}
}

func TestOpenSessionResetsWhenBankChanges(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewSessionStores()

	original := sampleBank()
	repo := memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{"bank-1": original}), 5*time.Minute)
	service := app.NewExamService(stores, repo, 60)
	session, err := service.OpenSession(ctx, "bank-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	session.Start()
	if err := session.SelectAnswer(ctx, "Math", 0, "B"); err != nil {
		t.Fatalf("select: %v", err)
	}

	// New process serves a changed bank: different answer key ordering must
	// not be scored against stale answers.
	changed := sampleBank()
	changed.Subjects[0].Questions[0].Answer = "A"
	repo = memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{"bank-1": changed}), 5*time.Minute)
	service = app.NewExamService(stores, repo, 60)
	fresh, err := service.OpenSession(ctx, "bank-1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	state := fresh.Snapshot()
	if state.Answers.Get("Math", 0) != "" || state.Remaining != 60 || state.Submitted {
		t.Fatalf("expected reset state for changed bank, got %+v", state)
	}
}

func TestGradeStoredResetsWhenBankChanges(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewSessionStores()

	original := sampleBank()
	repo := memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{"bank-1": original}), 5*time.Minute)
	service := app.NewExamService(stores, repo, 60)
	session, err := service.OpenSession(ctx, "bank-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	session.Start()
	if err := session.SelectAnswer(ctx, "Math", 0, "B"); err != nil {
		t.Fatalf("select: %v", err)
	}

	// The bank is republished with a different answer key. Grading the
	// stored attempt must reset it, not score the stale answers against
	// the new key.
	changed := sampleBank()
	changed.Subjects[0].Questions[0].Answer = "A"
	repo = memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{"bank-1": changed}), 5*time.Minute)
	service = app.NewExamService(stores, repo, 60)
	_, result, err := service.GradeStored(ctx, "bank-1")
	if err != nil {
		t.Fatalf("grade stored: %v", err)
	}
	if result.TotalScore != 0 || result.TotalQuestions != 3 {
		t.Fatalf("expected reset attempt to grade 0/3, got %d/%d", result.TotalScore, result.TotalQuestions)
	}

	store := stores.ForBank("bank-1", domain.NewSessionState(60))
	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Answers.Get("Math", 0) != "" || state.Submitted {
		t.Fatalf("expected stored attempt reset, got %+v", state)
	}
}

func TestGradeStored(t *testing.T) {
	ctx := context.Background()
	service := newTestService(map[string]domain.QuestionBank{"bank-1": sampleBank()}, 60)

	session, err := service.OpenSession(ctx, "bank-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	session.Start()
	if err := session.SelectAnswer(ctx, "Math", 0, "B"); err != nil {
		t.Fatalf("select: %v", err)
	}

	_, result, err := service.GradeStored(ctx, "bank-1")
	if err != nil {
		t.Fatalf("grade stored: %v", err)
	}
	if result.TotalScore != 1 || result.TotalQuestions != 3 {
		t.Fatalf("expected 1/3 from persisted answers, got %d/%d", result.TotalScore, result.TotalQuestions)
	}
}
