package cli

import (
	"testing"

	"mock-exam-service/internal/config"
)

func TestResolveBankIDPrefersFlagThenConfig(t *testing.T) {
	var cfg config.Config
	cfg.Exam.BankID = "bank-cfg"

	if got := resolveBankID("bank-flag", cfg); got != "bank-flag" {
		t.Fatalf("expected flag to win, got %q", got)
	}
	if got := resolveBankID("", cfg); got != "bank-cfg" {
		t.Fatalf("expected configured bank, got %q", got)
	}
	if got := resolveBankID("", config.Config{}); got != "bank-1" {
		t.Fatalf("expected sample bank fallback, got %q", got)
	}
}
