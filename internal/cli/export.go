package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mock-exam-service/internal/config"
	"mock-exam-service/internal/report"
)

// NewExportCmd grades the stored attempt for a bank and writes the
// plain-text result transcript.
func NewExportCmd(configPath *string) *cobra.Command {
	var bankID string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export graded results for a stored attempt to a text file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), *configPath, bankID, outPath)
		},
	}
	cmd.Flags().StringVar(&bankID, "bank", "", "question bank to grade (defaults to exam.bank_id)")
	cmd.Flags().StringVar(&outPath, "out", report.ExportFilename, "output file path")
	return cmd
}

func runExport(ctx context.Context, configPath, bankID, outPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	bankID = resolveBankID(bankID, cfg)

	service, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	_, result, err := service.GradeStored(ctx, bankID)
	if err != nil {
		return err
	}

	text := report.ExportText(result)
	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	fmt.Printf("wrote %s (total %d/%d)\n", outPath, result.TotalScore, result.TotalQuestions)
	return nil
}

// resolveBankID picks the bank to grade: explicit flag, then the configured
// exam.bank_id, then the sample bank.
func resolveBankID(flagValue string, cfg config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg.Exam.BankID != "" {
		return cfg.Exam.BankID
	}
	return "bank-1"
}
