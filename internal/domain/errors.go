package domain

import "errors"

var (
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrSubjectNotFound is returned when an answer names an unknown subject.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrQuestionNotFound is returned when a question index is out of range.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrIncompleteSubmission is returned when an explicit submit arrives
	// before every question has a recorded answer.
	ErrIncompleteSubmission = errors.New("all questions must be answered before submitting")
	// ErrSessionNotStarted is returned when an operation requires a started session.
	ErrSessionNotStarted = errors.New("session not started")
	// ErrSessionSubmitted is returned when a mutation arrives after submission.
	ErrSessionSubmitted = errors.New("session already submitted")
	// ErrMalformedQuestion marks a question whose answer key is not among its options.
	ErrMalformedQuestion = errors.New("malformed question")
)
