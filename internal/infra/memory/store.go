package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiztaker/internal/domain"
)

// Store is an in-process record store. It backs the memory driver and tests.
type Store struct {
	now func() time.Time

	mu        sync.RWMutex
	seq       int
	quizzes   map[string]storedQuiz
	sessions  []domain.SessionRecord
	responses map[string][]domain.Response
}

type storedQuiz struct {
	quiz      domain.Quiz
	createdAt time.Time
	seq       int
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock is test-only for deterministic timestamps.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		now:       now,
		quizzes:   make(map[string]storedQuiz),
		responses: make(map[string][]domain.Response),
	}
}

// SaveQuiz inserts or replaces a quiz with its questions.
func (s *Store) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.quizzes[quiz.ID]
	if !ok {
		s.seq++
		entry = storedQuiz{createdAt: s.now(), seq: s.seq}
	}
	entry.quiz = cloneQuiz(quiz)
	s.quizzes[quiz.ID] = entry
	return nil
}

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	header := entry.quiz
	header.Questions = nil
	return header, nil
}

func (s *Store) GetQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.quizzes[quizID]
	if !ok {
		return []domain.Question{}, nil
	}
	return cloneQuiz(entry.quiz).Questions, nil
}

func (s *Store) InsertSession(_ context.Context, record domain.SessionRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.quizzes[record.QuizID]; ok && record.QuizTitle == "" {
		record.QuizTitle = entry.quiz.Title
	}
	s.sessions = append(s.sessions, record)
	return record.ID, nil
}

func (s *Store) InsertResponses(_ context.Context, sessionID string, responses []domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range responses {
		r.SessionID = sessionID
		s.responses[sessionID] = append(s.responses[sessionID], r)
	}
	return nil
}

func (s *Store) ListQuizzes(_ context.Context) ([]domain.QuizSummary, error) {
	s.mu.RLock()
	entries := make([]storedQuiz, 0, len(s.quizzes))
	for _, entry := range s.quizzes {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].createdAt.Equal(entries[j].createdAt) {
			return entries[i].createdAt.After(entries[j].createdAt)
		}
		return entries[i].seq > entries[j].seq
	})

	out := make([]domain.QuizSummary, 0, len(entries))
	for _, entry := range entries {
		out = append(out, domain.QuizSummary{
			ID:            entry.quiz.ID,
			Title:         entry.quiz.Title,
			Description:   entry.quiz.Description,
			QuestionCount: len(entry.quiz.Questions),
			CreatedAt:     entry.createdAt,
		})
	}
	return out, nil
}

func (s *Store) ListUserSessions(_ context.Context, userID string) ([]domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SessionRecord, 0)
	for i := len(s.sessions) - 1; i >= 0; i-- {
		if userID != "" && s.sessions[i].UserID == userID {
			out = append(out, s.sessions[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out, nil
}

// ListQuizStats aggregates recorded sessions per quiz, ordered by quiz id.
func (s *Store) ListQuizStats(_ context.Context) ([]domain.QuizStats, error) {
	type acc struct {
		completions int
		scored      int
		sum         float64
	}
	s.mu.RLock()
	byQuiz := make(map[string]*acc)
	for _, record := range s.sessions {
		a, ok := byQuiz[record.QuizID]
		if !ok {
			a = &acc{}
			byQuiz[record.QuizID] = a
		}
		a.completions++
		if record.TotalQuestions > 0 {
			a.scored++
			a.sum += float64(record.Score) * 100 / float64(record.TotalQuestions)
		}
	}
	s.mu.RUnlock()

	out := make([]domain.QuizStats, 0, len(byQuiz))
	for quizID, a := range byQuiz {
		st := domain.QuizStats{QuizID: quizID, Completions: a.completions}
		if a.scored > 0 {
			st.MeanPercentage = a.sum / float64(a.scored)
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuizID < out[j].QuizID })
	return out, nil
}

// DeleteAnonymousSessions removes sessions without a user and their responses.
func (s *Store) DeleteAnonymousSessions(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.sessions[:0]
	var deleted int64
	for _, record := range s.sessions {
		if record.UserID == "" {
			delete(s.responses, record.ID)
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	s.sessions = kept
	return deleted, nil
}

// Sessions returns a copy of every stored session in insertion order.
func (s *Store) Sessions() []domain.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.SessionRecord(nil), s.sessions...)
}

// Responses returns the response rows written for a session.
func (s *Store) Responses(sessionID string) []domain.Response {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Response(nil), s.responses[sessionID]...)
}

func cloneQuiz(quiz domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.Options = append([]domain.Option(nil), q.Options...)
		questions[i] = q
	}
	quiz.Questions = questions
	return quiz
}
