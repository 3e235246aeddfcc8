// Package report renders grading results for display and for plain-text
// export. Both renderings derive from the same GradingResult, so they can
// never disagree on correctness or totals.
package report

import (
	"fmt"
	"strings"

	"mock-exam-service/internal/domain"
)

// QuestionView is one graded question prepared for display.
type QuestionView struct {
	Number  int    `json:"number"`
	Prompt  string `json:"prompt"`
	Answer  string `json:"answer"`
	Verdict string `json:"verdict"`
	Correct bool   `json:"correct"`
}

// SubjectView is a per-subject result block. Detail starts collapsed; the
// flag is presentation state for the renderer to toggle.
type SubjectView struct {
	Name      string         `json:"name"`
	Header    string         `json:"header"`
	Score     int            `json:"score"`
	Total     int            `json:"total"`
	Collapsed bool           `json:"collapsed"`
	Questions []QuestionView `json:"questions"`
}

// Display is the structured result view handed to renderers.
type Display struct {
	Subjects       []SubjectView `json:"subjects"`
	TotalScore     int           `json:"totalScore"`
	TotalQuestions int           `json:"totalQuestions"`
	TotalLine      string        `json:"totalLine"`
}

// DisplayModel builds the on-screen result view.
func DisplayModel(result domain.GradingResult) Display {
	d := Display{
		TotalScore:     result.TotalScore,
		TotalQuestions: result.TotalQuestions,
		TotalLine:      fmt.Sprintf("Total Score: %d / %d", result.TotalScore, result.TotalQuestions),
	}
	for _, subject := range result.Subjects {
		sv := SubjectView{
			Name:      subject.Name,
			Header:    fmt.Sprintf("%s (%d/%d)", subject.Name, subject.Score, subject.Total),
			Score:     subject.Score,
			Total:     subject.Total,
			Collapsed: true,
		}
		for _, q := range subject.Questions {
			verdict := "Correct"
			if !q.Correct {
				verdict = fmt.Sprintf("Incorrect (Correct answer: %s. %s)", q.CorrectAnswer, q.CorrectAnswerText)
			}
			sv.Questions = append(sv.Questions, QuestionView{
				Number:  q.Index + 1,
				Prompt:  fmt.Sprintf("Q%d: %s", q.Index+1, q.Prompt),
				Answer:  answerText(q),
				Verdict: verdict,
				Correct: q.Correct,
			})
		}
		d.Subjects = append(d.Subjects, sv)
	}
	return d
}

// ExportText renders the flat downloadable transcript: subject header, each
// question with the literal answer and a correctness line, per-subject
// score, and a closing total line. Output is line-oriented and byte-stable
// for identical input.
func ExportText(result domain.GradingResult) string {
	var b strings.Builder
	for _, subject := range result.Subjects {
		fmt.Fprintf(&b, "Subject: %s\n\n", subject.Name)
		for _, q := range subject.Questions {
			fmt.Fprintf(&b, "Q%d: %s\n", q.Index+1, q.Prompt)
			fmt.Fprintf(&b, "Your Answer: %s\n", answerText(q))
			if q.Correct {
				b.WriteString("Correct\n\n")
			} else {
				fmt.Fprintf(&b, "Incorrect (Correct: %s. %s)\n\n", q.CorrectAnswer, q.CorrectAnswerText)
			}
		}
		fmt.Fprintf(&b, "Score: %d / %d\n\n", subject.Score, subject.Total)
	}
	fmt.Fprintf(&b, "Total Score: %d / %d\n", result.TotalScore, result.TotalQuestions)
	return b.String()
}

// ExportFilename is the suggested name for saved result files.
const ExportFilename = "quiz_results.txt"

func answerText(q domain.QuestionResult) string {
	if q.UserAnswer == "" {
		return "No answer"
	}
	return fmt.Sprintf("%s. %s", q.UserAnswer, q.UserAnswerText)
}
