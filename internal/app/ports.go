package app

import (
	"context"

	"quiztaker/internal/domain"
)

// QuizStore is the read side of the record store.
type QuizStore interface {
	// GetQuiz returns the quiz header without questions, or domain.ErrQuizNotFound.
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// GetQuestions returns the quiz questions ordered by position, each with its options.
	GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
}

// SessionWriter persists completed attempts.
type SessionWriter interface {
	InsertSession(ctx context.Context, record domain.SessionRecord) (string, error)
	InsertResponses(ctx context.Context, sessionID string, responses []domain.Response) error
}

// CatalogStore backs the quiz list and the dashboard.
type CatalogStore interface {
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
	// ListQuizStats returns one entry per quiz that has recorded sessions.
	ListQuizStats(ctx context.Context) ([]domain.QuizStats, error)
	// ListUserSessions returns the user's sessions, most recent first.
	ListUserSessions(ctx context.Context, userID string) ([]domain.SessionRecord, error)
}

// QuizRepository loads full quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptRepository abstracts where live attempts are registered (in-memory, Redis, etc).
type AttemptRepository interface {
	Put(attempt *Attempt)
	Get(attemptID string) (*Attempt, bool)
	Delete(attemptID string)
}
