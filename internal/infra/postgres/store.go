package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiztaker/internal/domain"
)

// Store is the Postgres record store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description FROM quizzes WHERE id = $1`, quizID,
	).Scan(&quiz.ID, &quiz.Title, &quiz.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("select quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT q.id, q.question_text, o.id, o.option_text, o.is_correct
		FROM questions q
		LEFT JOIN options o ON o.question_id = q.id
		WHERE q.quiz_id = $1
		ORDER BY q.order_index, q.id, o.order_index, o.id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var (
			qID, qText     string
			optID, optText *string
			optCorrect     *bool
		)
		if err := rows.Scan(&qID, &qText, &optID, &optText, &optCorrect); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = appendOptionRow(questions, qID, qText, optID, optText, optCorrect)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

// appendOptionRow folds one joined question/option row into the ordered question list.
func appendOptionRow(questions []domain.Question, qID, qText string, optID, optText *string, optCorrect *bool) []domain.Question {
	if n := len(questions); n == 0 || questions[n-1].ID != qID {
		questions = append(questions, domain.Question{ID: qID, Text: qText, Options: []domain.Option{}})
	}
	if optID == nil {
		return questions
	}
	opt := domain.Option{ID: *optID}
	if optText != nil {
		opt.Text = *optText
	}
	if optCorrect != nil {
		opt.IsCorrect = *optCorrect
	}
	last := &questions[len(questions)-1]
	last.Options = append(last.Options, opt)
	return questions
}

func (s *Store) InsertSession(ctx context.Context, record domain.SessionRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO quiz_sessions (id, quiz_id, user_id, score, total_questions, time_spent, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		record.ID, record.QuizID, nullable(record.UserID), record.Score, record.TotalQuestions,
		record.ElapsedSeconds, record.CompletedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

func (s *Store) InsertResponses(ctx context.Context, sessionID string, responses []domain.Response) error {
	if len(responses) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, r := range responses {
		batch.Queue(`
			INSERT INTO user_responses (session_id, question_id, selected_option_id, is_correct)
			VALUES ($1, $2, $3, $4)`,
			sessionID, r.QuestionID, r.SelectedOptionID, r.IsCorrect)
	}
	br := tx.SendBatch(ctx, batch)
	for range responses {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert response: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return tx.Commit(ctx)
}

// SaveQuiz upserts a quiz and replaces its questions and options.
func (s *Store) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `
		INSERT INTO quizzes (id, title, description) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description`,
		quiz.ID, quiz.Title, quiz.Description); err != nil {
		return fmt.Errorf("upsert quiz: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE quiz_id = $1`, quiz.ID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	for qi, q := range quiz.Questions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO questions (id, quiz_id, question_text, order_index) VALUES ($1, $2, $3, $4)`,
			q.ID, quiz.ID, q.Text, qi); err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
		for oi, opt := range q.Options {
			if _, err := tx.Exec(ctx,
				`INSERT INTO options (id, question_id, option_text, is_correct, order_index) VALUES ($1, $2, $3, $4, $5)`,
				opt.ID, q.ID, opt.Text, opt.IsCorrect, oi); err != nil {
				return fmt.Errorf("insert option %s: %w", opt.ID, err)
			}
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT z.id, z.title, z.description, z.created_at, COUNT(q.id)
		FROM quizzes z
		LEFT JOIN questions q ON q.quiz_id = z.id
		GROUP BY z.id
		ORDER BY z.created_at DESC, z.id`)
	if err != nil {
		return nil, fmt.Errorf("select quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuizSummary, 0)
	for rows.Next() {
		var q domain.QuizSummary
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.CreatedAt, &q.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) ListUserSessions(ctx context.Context, userID string) ([]domain.SessionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.quiz_id, COALESCE(z.title, ''), s.user_id, s.score, s.total_questions, s.time_spent, s.completed_at
		FROM quiz_sessions s
		LEFT JOIN quizzes z ON z.id = s.quiz_id
		WHERE s.user_id = $1
		ORDER BY s.completed_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SessionRecord, 0)
	for rows.Next() {
		var (
			r   domain.SessionRecord
			uid *string
		)
		if err := rows.Scan(&r.ID, &r.QuizID, &r.QuizTitle, &uid, &r.Score, &r.TotalQuestions, &r.ElapsedSeconds, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if uid != nil {
			r.UserID = *uid
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListQuizStats(ctx context.Context) ([]domain.QuizStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT quiz_id, COUNT(*),
			COALESCE(AVG(score * 100.0 / NULLIF(total_questions, 0)), 0)::float8
		FROM quiz_sessions
		GROUP BY quiz_id
		ORDER BY quiz_id`)
	if err != nil {
		return nil, fmt.Errorf("select quiz stats: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuizStats, 0)
	for rows.Next() {
		var (
			st          domain.QuizStats
			completions int64
		)
		if err := rows.Scan(&st.QuizID, &completions, &st.MeanPercentage); err != nil {
			return nil, fmt.Errorf("scan quiz stats: %w", err)
		}
		st.Completions = int(completions)
		out = append(out, st)
	}
	return out, rows.Err()
}

// DeleteAnonymousSessions removes sessions without a user; their responses cascade.
func (s *Store) DeleteAnonymousSessions(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quiz_sessions WHERE user_id IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("delete anonymous sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
