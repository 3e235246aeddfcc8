package report

import (
	"strings"
	"testing"

	"mock-exam-service/internal/app"
	"mock-exam-service/internal/domain"
)

func gradedFixture() domain.GradingResult {
	bank := domain.QuestionBank{Subjects: []domain.Subject{
		{
			Name: "Math",
			Questions: []domain.Question{
				{Text: "2+2?", Options: map[string]string{"A": "3", "B": "4"}, Answer: "B"},
				{Text: "3*3?", Options: map[string]string{"A": "9", "B": "6"}, Answer: "A"},
			},
		},
		{
			Name: "Physics",
			Questions: []domain.Question{
				{Text: "Unit of force?", Options: map[string]string{"A": "Newton", "B": "Joule"}, Answer: "A"},
			},
		},
	}}
	// Correct, wrong, unanswered.
	return app.Grade(bank, domain.AnswerSet{"Math": {"B", "B"}})
}

func TestExportTextFormat(t *testing.T) {
	got := ExportText(gradedFixture())
	want := "Subject: Math\n" +
		"\n" +
		"Q1: 2+2?\n" +
		"Your Answer: B. 4\n" +
		"Correct\n" +
		"\n" +
		"Q2: 3*3?\n" +
		"Your Answer: B. 6\n" +
		"Incorrect (Correct: A. 9)\n" +
		"\n" +
		"Score: 1 / 2\n" +
		"\n" +
		"Subject: Physics\n" +
		"\n" +
		"Q1: Unit of force?\n" +
		"Your Answer: No answer\n" +
		"Incorrect (Correct: A. Newton)\n" +
		"\n" +
		"Score: 0 / 1\n" +
		"\n" +
		"Total Score: 1 / 3\n"
	if got != want {
		t.Fatalf("export text mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestExportTextDeterministic(t *testing.T) {
	result := gradedFixture()
	if ExportText(result) != ExportText(result) {
		t.Fatalf("expected byte-identical output for identical input")
	}
}

func TestDisplayModel(t *testing.T) {
	d := DisplayModel(gradedFixture())
	if len(d.Subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(d.Subjects))
	}
	math := d.Subjects[0]
	if math.Header != "Math (1/2)" {
		t.Fatalf("unexpected header %q", math.Header)
	}
	if !math.Collapsed {
		t.Fatalf("expected detail collapsed by default")
	}
	if math.Questions[0].Verdict != "Correct" {
		t.Fatalf("unexpected verdict %q", math.Questions[0].Verdict)
	}
	if math.Questions[1].Verdict != "Incorrect (Correct answer: A. 9)" {
		t.Fatalf("unexpected verdict %q", math.Questions[1].Verdict)
	}
	physics := d.Subjects[1]
	if physics.Questions[0].Answer != "No answer" {
		t.Fatalf("unexpected answer line %q", physics.Questions[0].Answer)
	}
	if d.TotalLine != "Total Score: 1 / 3" {
		t.Fatalf("unexpected total line %q", d.TotalLine)
	}
}

func TestDisplayAndExportAgree(t *testing.T) {
	result := gradedFixture()
	display := DisplayModel(result)
	export := ExportText(result)

	if display.TotalScore != result.TotalScore || display.TotalQuestions != result.TotalQuestions {
		t.Fatalf("display totals diverge from grading")
	}
	if !strings.Contains(export, display.TotalLine) {
		t.Fatalf("export missing total line %q", display.TotalLine)
	}
	for _, subject := range display.Subjects {
		for _, q := range subject.Questions {
			wantVerdict := "Correct"
			if !q.Correct {
				wantVerdict = "Incorrect"
			}
			if !strings.HasPrefix(q.Verdict, wantVerdict) {
				t.Fatalf("display verdict %q disagrees with correctness %v", q.Verdict, q.Correct)
			}
		}
	}
}
