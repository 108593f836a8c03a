package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiztaker/internal/app"
	"quiztaker/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuizLoader: app.NewStoreLoader(storeWith(t, sampleQuiz()))}
	repo := NewQuizRepository(loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}
	if quiz.Title != "Arithmetic" || len(quiz.Questions) != 1 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{QuizLoader: app.NewStoreLoader(storeWith(t, sampleQuiz()))}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz after ttl: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryDoesNotCacheFailures(t *testing.T) {
	loader := &countingLoader{QuizLoader: app.NewStoreLoader(NewStore())}
	repo := NewQuizRepository(loader, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := repo.GetQuiz(context.Background(), "missing")
		if !errors.Is(err, domain.ErrQuizNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected failures to reach loader, calls %d", loader.calls)
	}
}

func TestQuizRepositoryZeroTTLAlwaysLoads(t *testing.T) {
	loader := &countingLoader{QuizLoader: app.NewStoreLoader(storeWith(t, sampleQuiz()))}
	repo := NewQuizRepository(loader, 0)

	for i := 0; i < 2; i++ {
		if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
			t.Fatalf("get quiz: %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected no caching with zero ttl, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryLoadSurvivesCanceledCaller(t *testing.T) {
	loader := ctxLoader{QuizLoader: app.NewStoreLoader(storeWith(t, sampleQuiz()))}
	repo := NewQuizRepository(loader, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	quiz, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("expected shared load to ignore caller cancellation, got %v", err)
	}
	if quiz.ID != "quiz-1" {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
}

// ctxLoader fails like a real store once its context is done.
type ctxLoader struct {
	QuizLoader
}

func (l ctxLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if err := ctx.Err(); err != nil {
		return domain.Quiz{}, err
	}
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func storeWith(t *testing.T, quizzes ...domain.Quiz) *Store {
	t.Helper()
	store := NewStore()
	for _, quiz := range quizzes {
		if err := store.SaveQuiz(context.Background(), quiz); err != nil {
			t.Fatalf("save quiz: %v", err)
		}
	}
	return store
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Arithmetic",
		Questions: []domain.Question{
			{
				ID:   "q1",
				Text: "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "o1", Text: "3"},
					{ID: "o2", Text: "4", IsCorrect: true},
				},
			},
		},
	}
}
