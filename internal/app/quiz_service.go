package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"quiztaker/internal/domain"
	"quiztaker/internal/telemetry"
)

// QuizService contains the core quiz-taking use cases.
type QuizService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
	sessions SessionWriter

	strict        bool
	retries       int
	retryInterval time.Duration
	newTicker     func() Ticker
	shuffle       *shuffler
	newID         func() string
	now           func() time.Time
}

type ServiceOption func(*QuizService)

// WithPermissiveOptions skips the one-correct-option check at load time.
func WithPermissiveOptions() ServiceOption {
	return func(s *QuizService) { s.strict = false }
}

// WithPersistRetries retries a failed session write n times, interval apart.
func WithPersistRetries(n int, interval time.Duration) ServiceOption {
	return func(s *QuizService) {
		s.retries = n
		s.retryInterval = interval
	}
}

// WithTicker replaces the one-second wall clock ticker, mainly for tests.
func WithTicker(fn func() Ticker) ServiceOption {
	return func(s *QuizService) { s.newTicker = fn }
}

// WithRand seeds option shuffling.
func WithRand(rnd *rand.Rand) ServiceOption {
	return func(s *QuizService) { s.shuffle = newShuffler(rnd) }
}

// WithClock is test-only for deterministic completion timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *QuizService) { s.now = now }
}

func NewQuizService(quizzes QuizRepository, attempts AttemptRepository, sessions SessionWriter, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		quizzes:   quizzes,
		attempts:  attempts,
		sessions:  sessions,
		strict:    true,
		newTicker: func() Ticker { return NewTicker(time.Second) },
		shuffle:   newShuffler(rand.New(rand.NewSource(time.Now().UnixNano()))),
		newID:     func() string { return uuid.NewString() },
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the quiz and opens a new attempt with its timer running.
// Any load failure, including an unknown quiz or one without questions, is
// reported as domain.ErrQuizUnavailable and no attempt is created.
func (s *QuizService) Start(ctx context.Context, quizID string) (*Attempt, error) {
	quiz, err := s.load(ctx, quizID)
	if err != nil {
		telemetry.LoadFailures.Inc()
		slog.WarnContext(ctx, "quiz service: quiz unavailable", "quiz", quizID, "error", err)
		return nil, err
	}

	quiz.Questions = s.shuffle.questions(quiz.Questions)
	attempt := newAttempt(s.newID(), quiz, s.newTicker())
	s.attempts.Put(attempt)
	telemetry.AttemptsStarted.Inc()

	slog.InfoContext(ctx, "quiz service: attempt started", "attempt", attempt.ID(), "quiz", quiz.ID, "questions", len(quiz.Questions))
	return attempt, nil
}

func (s *QuizService) load(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quizID == "" {
		return domain.Quiz{}, fmt.Errorf("%w: empty quiz id", domain.ErrQuizUnavailable)
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: %w", domain.ErrQuizUnavailable, err)
	}
	if len(quiz.Questions) == 0 {
		return domain.Quiz{}, fmt.Errorf("%w: quiz %s has no questions", domain.ErrQuizUnavailable, quizID)
	}
	if s.strict {
		if err := validateQuestions(quiz.Questions); err != nil {
			return domain.Quiz{}, fmt.Errorf("%w: %w", domain.ErrQuizUnavailable, err)
		}
	}
	return quiz, nil
}

// Attempt returns a live attempt by id.
func (s *QuizService) Attempt(attemptID string) (*Attempt, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

// Abandon stops the attempt timer and forgets the attempt. Nothing is persisted.
func (s *QuizService) Abandon(ctx context.Context, attemptID string) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return
	}
	wasLive := attempt.Live()
	attempt.close()
	s.attempts.Delete(attemptID)
	if wasLive {
		telemetry.AttemptsFinished.WithLabelValues("abandoned").Inc()
		slog.InfoContext(ctx, "quiz service: attempt abandoned", "attempt", attemptID, "elapsed", attempt.Elapsed())
	}
}

// Submit grades a fully answered attempt and saves it to the record store.
// The completed session is returned even when saving fails; Saved reports
// whether the session row was written. user may be nil for anonymous attempts.
func (s *QuizService) Submit(ctx context.Context, attemptID string, user *domain.User) (domain.SubmitResult, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return domain.SubmitResult{}, domain.ErrAttemptNotFound
	}

	completed, answers, err := attempt.complete()
	if err != nil {
		return domain.SubmitResult{}, err
	}
	s.attempts.Delete(attemptID)
	telemetry.AttemptsFinished.WithLabelValues("submitted").Inc()
	telemetry.ScorePercentage.Observe(float64(completed.Percentage))

	record := domain.SessionRecord{
		ID:             s.newID(),
		QuizID:         completed.QuizID,
		QuizTitle:      completed.QuizTitle,
		Score:          completed.Score,
		TotalQuestions: completed.TotalQuestions,
		ElapsedSeconds: completed.ElapsedSeconds,
		CompletedAt:    s.now(),
	}
	if user != nil {
		record.UserID = user.ID
	}

	sessionID, err := s.persistSession(ctx, record)
	if err != nil {
		telemetry.SessionWrites.WithLabelValues("failed").Inc()
		slog.ErrorContext(ctx, "quiz service: save session failed", "attempt", attemptID, "quiz", record.QuizID, "error", err)
		return domain.SubmitResult{Session: completed}, nil
	}
	telemetry.SessionWrites.WithLabelValues("saved").Inc()

	responses := buildResponses(sessionID, attempt.Quiz().Questions, answers)
	if err := s.sessions.InsertResponses(ctx, sessionID, responses); err != nil {
		slog.ErrorContext(ctx, "quiz service: save responses failed", "session", sessionID, "error", err)
	}

	slog.InfoContext(ctx, "quiz service: attempt submitted", "attempt", attemptID, "session", sessionID,
		"score", completed.Score, "total", completed.TotalQuestions, "anonymous", record.UserID == "")
	return domain.SubmitResult{Session: completed, SessionID: sessionID, Saved: true}, nil
}

func (s *QuizService) persistSession(ctx context.Context, record domain.SessionRecord) (string, error) {
	var sessionID string
	retries := s.retries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryInterval), uint64(retries)),
		ctx,
	)
	err := backoff.Retry(func() error {
		id, err := s.sessions.InsertSession(ctx, record)
		if err != nil {
			slog.WarnContext(ctx, "quiz service: insert session", "quiz", record.QuizID, "error", err)
			return err
		}
		sessionID = id
		return nil
	}, policy)
	return sessionID, err
}

func buildResponses(sessionID string, questions []domain.Question, answers map[string]string) []domain.Response {
	responses := make([]domain.Response, 0, len(answers))
	for _, q := range questions {
		optionID, ok := answers[q.ID]
		if !ok {
			continue
		}
		opt, _ := q.Option(optionID)
		responses = append(responses, domain.Response{
			SessionID:        sessionID,
			QuestionID:       q.ID,
			SelectedOptionID: optionID,
			IsCorrect:        opt.IsCorrect,
		})
	}
	return responses
}
