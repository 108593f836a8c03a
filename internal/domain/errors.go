package domain

import "errors"

var (
	// ErrQuizNotFound indicates the record store has no quiz with the requested id.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizUnavailable is returned when a quiz could not be loaded for an attempt.
	ErrQuizUnavailable = errors.New("quiz could not be loaded")
	// ErrInvalidOptions indicates a question without exactly one correct option.
	ErrInvalidOptions = errors.New("question must have exactly one correct option")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrIndexOutOfRange is returned when jumping to a question that does not exist.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrIncompleteAttempt is returned when submitting before every question is answered.
	ErrIncompleteAttempt = errors.New("all questions must be answered before submitting")
	// ErrAttemptNotFound is returned for unknown or already finished attempts.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptClosed is returned when mutating an attempt after teardown.
	ErrAttemptClosed = errors.New("attempt is closed")
	// ErrUnauthenticated indicates a missing or invalid identity token.
	ErrUnauthenticated = errors.New("unauthenticated")
)
