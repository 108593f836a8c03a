package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quiztaker/internal/app"
	"quiztaker/internal/domain"
	"quiztaker/internal/infra/memory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreQuizRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	quiz := sampleQuiz()
	require.NoError(t, store.SaveQuiz(ctx, quiz))

	header, err := store.GetQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Quiz{ID: quiz.ID, Title: quiz.Title, Description: quiz.Description}, header)

	questions, err := store.GetQuestions(ctx, quiz.ID)
	require.NoError(t, err)
	require.Equal(t, quiz.Questions, questions)

	_, err = store.GetQuiz(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrQuizNotFound)

	none, err := store.GetQuestions(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestStoreSaveQuizReplacesQuestions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	quiz := sampleQuiz()
	require.NoError(t, store.SaveQuiz(ctx, quiz))

	quiz.Title = "Renamed"
	quiz.Questions = quiz.Questions[:1]
	require.NoError(t, store.SaveQuiz(ctx, quiz))

	list, err := store.ListQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Renamed", list[0].Title)
	require.Equal(t, 1, list[0].QuestionCount)
}

func TestStoreListQuizzesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.SaveQuiz(ctx, sampleQuiz()))
	now = now.Add(time.Hour)
	require.NoError(t, store.SaveQuiz(ctx, domain.Quiz{ID: "quiz-2", Title: "Empty"}))

	list, err := store.ListQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "quiz-2", list[0].ID)
	require.Equal(t, 0, list[0].QuestionCount)
	require.Equal(t, now, list[0].CreatedAt)
	require.Equal(t, 2, list[1].QuestionCount)
}

func TestStoreSessionsResponsesAndCleanup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveQuiz(ctx, sampleQuiz()))
	at := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

	anonID, err := store.InsertSession(ctx, domain.SessionRecord{QuizID: "quiz-1", Score: 1, TotalQuestions: 2, ElapsedSeconds: 12, CompletedAt: at})
	require.NoError(t, err)
	require.NoError(t, store.InsertResponses(ctx, anonID, []domain.Response{
		{QuestionID: "q1", SelectedOptionID: "q1-b", IsCorrect: true},
		{QuestionID: "q2", SelectedOptionID: "q2-b"},
	}))

	userID, err := store.InsertSession(ctx, domain.SessionRecord{ID: "s-1", QuizID: "quiz-1", UserID: "u1", Score: 2, TotalQuestions: 2, ElapsedSeconds: 30, CompletedAt: at})
	require.NoError(t, err)
	require.Equal(t, "s-1", userID)

	responses, err := store.Responses(ctx, anonID)
	require.NoError(t, err)
	require.Equal(t, []domain.Response{
		{SessionID: anonID, QuestionID: "q1", SelectedOptionID: "q1-b", IsCorrect: true},
		{SessionID: anonID, QuestionID: "q2", SelectedOptionID: "q2-b"},
	}, responses)

	sessions, err := store.ListUserSessions(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []domain.SessionRecord{{
		ID:             "s-1",
		QuizID:         "quiz-1",
		QuizTitle:      "Capitals",
		UserID:         "u1",
		Score:          2,
		TotalQuestions: 2,
		ElapsedSeconds: 30,
		CompletedAt:    at,
	}}, sessions)

	deleted, err := store.DeleteAnonymousSessions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	responses, err = store.Responses(ctx, anonID)
	require.NoError(t, err)
	require.Empty(t, responses)
}

func TestStoreListQuizStats(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveQuiz(ctx, sampleQuiz()))
	require.NoError(t, store.SaveQuiz(ctx, domain.Quiz{ID: "quiz-2", Title: "Unplayed"}))
	at := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

	for _, s := range []struct{ score, total int }{{2, 3}, {1, 2}, {0, 0}} {
		_, err := store.InsertSession(ctx, domain.SessionRecord{QuizID: "quiz-1", Score: s.score, TotalQuestions: s.total, CompletedAt: at})
		require.NoError(t, err)
	}

	stats, err := store.ListQuizStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, "quiz-1", stats[0].QuizID)
	require.Equal(t, 3, stats[0].Completions)
	require.InDelta(t, 58.333, stats[0].MeanPercentage, 0.01)
}

func TestStoreBacksQuizService(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveQuiz(ctx, sampleQuiz()))

	repo := memory.NewQuizRepository(app.NewStoreLoader(store), time.Minute)
	service := app.NewQuizService(repo, memory.NewAttemptStore(), store)
	attempt, err := service.Start(ctx, "quiz-1")
	require.NoError(t, err)
	require.NoError(t, attempt.SelectAnswer("q1", "q1-b"))
	require.NoError(t, attempt.SelectAnswer("q2", "q2-a"))

	res, err := service.Submit(ctx, attempt.ID(), &domain.User{ID: "u1"})
	require.NoError(t, err)
	require.True(t, res.Saved)
	require.Equal(t, 1, res.Session.Score)
	require.Equal(t, 50, res.Session.Percentage)

	responses, err := store.Responses(ctx, res.SessionID)
	require.NoError(t, err)
	require.Len(t, responses, 2)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:          "quiz-1",
		Title:       "Capitals",
		Description: "European capitals",
		Questions: []domain.Question{
			{
				ID:   "q1",
				Text: "Capital of France?",
				Options: []domain.Option{
					{ID: "q1-a", Text: "Lyon"},
					{ID: "q1-b", Text: "Paris", IsCorrect: true},
				},
			},
			{
				ID:   "q2",
				Text: "Capital of Spain?",
				Options: []domain.Option{
					{ID: "q2-a", Text: "Barcelona"},
					{ID: "q2-b", Text: "Madrid", IsCorrect: true},
				},
			},
		},
	}
}
