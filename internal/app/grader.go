package app

import "mock-exam-service/internal/domain"

// Grade scores an answer set against a bank. Pure and deterministic:
// subjects come out in bank order, every question is binary right/wrong,
// and unanswered or unknown option keys simply never match. A bank whose
// answer key is missing from its options grades as never correct; that is
// a data-quality problem, not a grading failure.
func Grade(bank domain.QuestionBank, answers domain.AnswerSet) domain.GradingResult {
	result := domain.GradingResult{}
	for _, subject := range bank.Subjects {
		sr := domain.SubjectResult{
			Name:  subject.Name,
			Total: len(subject.Questions),
		}
		for i, q := range subject.Questions {
			user := answers.Get(subject.Name, i)
			qr := domain.QuestionResult{
				Index:             i,
				Prompt:            q.Text,
				UserAnswer:        user,
				UserAnswerText:    q.Options[user],
				CorrectAnswer:     q.Answer,
				CorrectAnswerText: q.Options[q.Answer],
				Correct:           user != "" && user == q.Answer,
			}
			if qr.Correct {
				sr.Score++
			}
			sr.Questions = append(sr.Questions, qr)
		}
		result.TotalScore += sr.Score
		result.TotalQuestions += sr.Total
		result.Subjects = append(result.Subjects, sr)
	}
	return result
}
