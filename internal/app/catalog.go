package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"quiztaker/internal/domain"
)

const recentSessions = 5

// Difficulty levels derived from the question count.
const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// Catalog serves the quiz list and per-user dashboard.
type Catalog struct {
	store CatalogStore
}

func NewCatalog(store CatalogStore) *Catalog {
	return &Catalog{store: store}
}

// ListQuizzes returns every quiz, newest first, with its question count,
// difficulty, estimated duration and session statistics.
func (c *Catalog) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	var (
		quizzes []domain.QuizSummary
		stats   []domain.QuizStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quizzes, err = c.store.ListQuizzes(gctx)
		if err != nil {
			return fmt.Errorf("list quizzes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats, err = c.store.ListQuizStats(gctx)
		if err != nil {
			return fmt.Errorf("list quiz stats: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byQuiz := make(map[string]domain.QuizStats, len(stats))
	for _, st := range stats {
		byQuiz[st.QuizID] = st
	}
	for i := range quizzes {
		q := &quizzes[i]
		q.Difficulty = Difficulty(q.QuestionCount)
		q.EstimatedMinutes = EstimatedMinutes(q.QuestionCount)
		if st, ok := byQuiz[q.ID]; ok {
			q.Completions = st.Completions
			q.AverageScore = int(decimal.NewFromFloat(st.MeanPercentage).Round(0).IntPart())
		}
	}
	return quizzes, nil
}

// Difficulty grades a quiz by its length.
func Difficulty(questionCount int) string {
	switch {
	case questionCount >= 10:
		return DifficultyAdvanced
	case questionCount >= 5:
		return DifficultyIntermediate
	default:
		return DifficultyBeginner
	}
}

// EstimatedMinutes allows a minute and a half per question, five minutes at least.
func EstimatedMinutes(questionCount int) float64 {
	return max(float64(questionCount)*1.5, 5)
}

// Dashboard summarises the catalog and the user's history.
func (c *Catalog) Dashboard(ctx context.Context, user *domain.User) (domain.Dashboard, error) {
	if user == nil {
		return domain.Dashboard{}, domain.ErrUnauthenticated
	}

	var (
		quizzes  []domain.QuizSummary
		sessions []domain.SessionRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quizzes, err = c.store.ListQuizzes(gctx)
		if err != nil {
			return fmt.Errorf("list quizzes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sessions, err = c.store.ListUserSessions(gctx, user.ID)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Dashboard{}, err
	}

	dash := domain.Dashboard{
		TotalQuizzes:   len(quizzes),
		TotalSessions:  len(sessions),
		AverageScore:   AverageScore(sessions),
		RecentSessions: sessions[:min(len(sessions), recentSessions)],
	}
	for _, q := range quizzes {
		dash.TotalQuestions += q.QuestionCount
	}
	return dash, nil
}

// AverageScore is the mean of per-session percentages, rounded once at the
// end. Sessions without questions are skipped.
func AverageScore(sessions []domain.SessionRecord) int {
	sum := decimal.Zero
	n := 0
	for _, s := range sessions {
		if s.TotalQuestions <= 0 {
			continue
		}
		sum = sum.Add(decimal.NewFromInt(int64(s.Score)).Mul(hundred).Div(decimal.NewFromInt(int64(s.TotalQuestions))))
		n++
	}
	if n == 0 {
		return 0
	}
	return int(sum.Div(decimal.NewFromInt(int64(n))).Round(0).IntPart())
}
