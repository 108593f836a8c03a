package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers "sqlite"

	"quiztaker/internal/domain"
)

//go:embed schema.sql
var schema string

// Store is the SQLite record store. Timestamps are kept as unix milliseconds.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the database at path (":memory:" for a private in-memory
// database) and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, `
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragmas: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description FROM quizzes WHERE id = ?`, quizID,
	).Scan(&quiz.ID, &quiz.Title, &quiz.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("select quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.question_text, o.id, o.option_text, o.is_correct
		FROM questions q
		LEFT JOIN options o ON o.question_id = q.id
		WHERE q.quiz_id = ?
		ORDER BY q.order_index, q.id, o.order_index, o.id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var (
			qID, qText     string
			optID, optText sql.NullString
			optCorrect     sql.NullBool
		)
		if err := rows.Scan(&qID, &qText, &optID, &optText, &optCorrect); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if n := len(questions); n == 0 || questions[n-1].ID != qID {
			questions = append(questions, domain.Question{ID: qID, Text: qText, Options: []domain.Option{}})
		}
		if !optID.Valid {
			continue
		}
		last := &questions[len(questions)-1]
		last.Options = append(last.Options, domain.Option{
			ID:        optID.String,
			Text:      optText.String,
			IsCorrect: optCorrect.Bool,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

func (s *Store) InsertSession(ctx context.Context, record domain.SessionRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CompletedAt.IsZero() {
		record.CompletedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quiz_sessions (id, quiz_id, user_id, score, total_questions, time_spent, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.QuizID, nullString(record.UserID), record.Score, record.TotalQuestions,
		record.ElapsedSeconds, record.CompletedAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return record.ID, nil
}

func (s *Store) InsertResponses(ctx context.Context, sessionID string, responses []domain.Response) error {
	if len(responses) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO user_responses (session_id, question_id, selected_option_id, is_correct)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare response insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range responses {
			if _, err := stmt.ExecContext(ctx, sessionID, r.QuestionID, r.SelectedOptionID, r.IsCorrect); err != nil {
				return fmt.Errorf("insert response: %w", err)
			}
		}
		return nil
	})
}

// SaveQuiz upserts a quiz and replaces its questions and options.
func (s *Store) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO quizzes (id, title, description, created_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET title = excluded.title, description = excluded.description`,
			quiz.ID, quiz.Title, quiz.Description, s.now().UnixMilli()); err != nil {
			return fmt.Errorf("upsert quiz: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE quiz_id = ?`, quiz.ID); err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}
		for qi, q := range quiz.Questions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO questions (id, quiz_id, question_text, order_index) VALUES (?, ?, ?, ?)`,
				q.ID, quiz.ID, q.Text, qi); err != nil {
				return fmt.Errorf("insert question %s: %w", q.ID, err)
			}
			for oi, opt := range q.Options {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO options (id, question_id, option_text, is_correct, order_index) VALUES (?, ?, ?, ?, ?)`,
					opt.ID, q.ID, opt.Text, opt.IsCorrect, oi); err != nil {
					return fmt.Errorf("insert option %s: %w", opt.ID, err)
				}
			}
		}
		return nil
	})
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT z.id, z.title, z.description, z.created_at, COUNT(q.id)
		FROM quizzes z
		LEFT JOIN questions q ON q.quiz_id = z.id
		GROUP BY z.id
		ORDER BY z.created_at DESC, z.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("select quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuizSummary, 0)
	for rows.Next() {
		var (
			q       domain.QuizSummary
			created int64
		)
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &created, &q.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		q.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) ListUserSessions(ctx context.Context, userID string) ([]domain.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.quiz_id, COALESCE(z.title, ''), s.user_id, s.score, s.total_questions, s.time_spent, s.completed_at
		FROM quiz_sessions s
		LEFT JOIN quizzes z ON z.id = s.quiz_id
		WHERE s.user_id = ?
		ORDER BY s.completed_at DESC, s.rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SessionRecord, 0)
	for rows.Next() {
		var (
			r         domain.SessionRecord
			uid       sql.NullString
			completed int64
		)
		if err := rows.Scan(&r.ID, &r.QuizID, &r.QuizTitle, &uid, &r.Score, &r.TotalQuestions, &r.ElapsedSeconds, &completed); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		r.UserID = uid.String
		r.CompletedAt = time.UnixMilli(completed).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListQuizStats(ctx context.Context) ([]domain.QuizStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT quiz_id, COUNT(*),
			COALESCE(AVG(CASE WHEN total_questions > 0 THEN score * 100.0 / total_questions END), 0)
		FROM quiz_sessions
		GROUP BY quiz_id
		ORDER BY quiz_id`)
	if err != nil {
		return nil, fmt.Errorf("select quiz stats: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuizStats, 0)
	for rows.Next() {
		var st domain.QuizStats
		if err := rows.Scan(&st.QuizID, &st.Completions, &st.MeanPercentage); err != nil {
			return nil, fmt.Errorf("scan quiz stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// DeleteAnonymousSessions removes sessions without a user; their responses cascade.
func (s *Store) DeleteAnonymousSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quiz_sessions WHERE user_id IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("delete anonymous sessions: %w", err)
	}
	return res.RowsAffected()
}

// Responses returns the response rows stored for a session.
func (s *Store) Responses(ctx context.Context, sessionID string) ([]domain.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, question_id, selected_option_id, is_correct
		FROM user_responses WHERE session_id = ? ORDER BY question_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select responses: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Response, 0)
	for rows.Next() {
		var r domain.Response
		if err := rows.Scan(&r.SessionID, &r.QuestionID, &r.SelectedOptionID, &r.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
