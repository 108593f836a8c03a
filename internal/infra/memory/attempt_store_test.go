package memory

import (
	"context"
	"testing"

	"quiztaker/internal/app"
)

func TestAttemptStoreLifecycle(t *testing.T) {
	store := NewAttemptStore()
	records := storeWith(t, sampleQuiz())
	service := app.NewQuizService(NewQuizRepository(app.NewStoreLoader(records), 0), store, records)

	attempt, err := service.Start(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got, ok := store.Get(attempt.ID()); !ok || got != attempt {
		t.Fatalf("expected attempt registered")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 live attempt, got %d", store.Len())
	}

	service.Abandon(context.Background(), attempt.ID())
	if _, ok := store.Get(attempt.ID()); ok {
		t.Fatalf("expected attempt removed after abandon")
	}
}
