package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Question models a single MCQ entry. Options map short keys ("A", "B", ...)
// to option text; Answer names the correct key.
type Question struct {
	Text    string            `json:"question"`
	Options map[string]string `json:"options"`
	Answer  string            `json:"answer"`
}

// Subject is a named, ordered group of questions.
type Subject struct {
	Name      string
	Questions []Question
}

// QuestionBank is the immutable question set for one exam, grouped by
// subject. Subject order is significant: it defines display order and the
// index correspondence of recorded answers.
type QuestionBank struct {
	ID       string
	Subjects []Subject
}

// Subject returns the named subject group, if present.
func (b QuestionBank) Subject(name string) (Subject, bool) {
	for _, s := range b.Subjects {
		if s.Name == name {
			return s, true
		}
	}
	return Subject{}, false
}

// QuestionCount is the total number of questions across all subjects.
func (b QuestionBank) QuestionCount() int {
	n := 0
	for _, s := range b.Subjects {
		n += len(s.Questions)
	}
	return n
}

// Validate reports questions whose declared answer key is missing from their
// options. Such questions still grade (always incorrect); callers decide
// whether to log or reject.
func (b QuestionBank) Validate() []error {
	var errs []error
	for _, s := range b.Subjects {
		for i, q := range s.Questions {
			if _, ok := q.Options[q.Answer]; !ok {
				errs = append(errs, fmt.Errorf("%w: subject %q question %d (answer key %q)", ErrMalformedQuestion, s.Name, i+1, q.Answer))
			}
		}
	}
	return errs
}

// UnmarshalJSON reads the external bank format {subject: [question, ...]}.
// A plain map would lose subject order, so the object is walked token by
// token to keep the order the author wrote.
func (b *QuestionBank) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("question bank: expected JSON object, got %v", tok)
	}
	b.Subjects = nil
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("question bank: expected subject name, got %v", tok)
		}
		var questions []Question
		if err := dec.Decode(&questions); err != nil {
			return fmt.Errorf("question bank: subject %q: %w", name, err)
		}
		b.Subjects = append(b.Subjects, Subject{Name: name, Questions: questions})
	}
	_, err = dec.Token() // closing brace
	return err
}

// MarshalJSON writes the external bank format in stored subject order.
func (b QuestionBank) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range b.Subjects {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		questions, err := json.Marshal(s.Questions)
		if err != nil {
			return nil, err
		}
		buf.Write(questions)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AnswerSet records the chosen option key per subject and question index.
// The empty string marks an unanswered question; slices grow lazily so a
// partially answered subject stays sparse.
type AnswerSet map[string][]string

// Get returns the recorded option key, or "" when unanswered.
func (a AnswerSet) Get(subject string, index int) string {
	keys := a[subject]
	if index < 0 || index >= len(keys) {
		return ""
	}
	return keys[index]
}

// Set records an option key, growing the subject's slice as needed.
func (a AnswerSet) Set(subject string, index int, key string) {
	keys := a[subject]
	for len(keys) <= index {
		keys = append(keys, "")
	}
	keys[index] = key
	a[subject] = keys
}

// Clone returns a deep copy safe to hand across goroutines.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for subject, keys := range a {
		out[subject] = append([]string(nil), keys...)
	}
	return out
}

// SessionState is the persisted view of one exam attempt.
type SessionState struct {
	Answers   AnswerSet `json:"answers"`
	Remaining int       `json:"remaining"`
	Submitted bool      `json:"submitted"`
}

// NewSessionState returns the fresh defaults for a given time limit.
func NewSessionState(limitSeconds int) SessionState {
	return SessionState{
		Answers:   AnswerSet{},
		Remaining: limitSeconds,
		Submitted: false,
	}
}

// Clone deep-copies the state.
func (s SessionState) Clone() SessionState {
	out := s
	out.Answers = s.Answers.Clone()
	return out
}

// QuestionResult is the graded outcome of a single question. Answer texts
// are resolved from the bank at grading time so formatters need only the
// result.
type QuestionResult struct {
	Index             int    `json:"index"`
	Prompt            string `json:"prompt"`
	UserAnswer        string `json:"userAnswer"`
	UserAnswerText    string `json:"userAnswerText"`
	CorrectAnswer     string `json:"correctAnswer"`
	CorrectAnswerText string `json:"correctAnswerText"`
	Correct           bool   `json:"correct"`
}

// SubjectResult groups graded questions for one subject.
type SubjectResult struct {
	Name      string           `json:"name"`
	Score     int              `json:"score"`
	Total     int              `json:"total"`
	Questions []QuestionResult `json:"questions"`
}

// GradingResult is the full graded outcome of an attempt, in bank order.
type GradingResult struct {
	Subjects       []SubjectResult `json:"subjects"`
	TotalScore     int             `json:"totalScore"`
	TotalQuestions int             `json:"totalQuestions"`
}
