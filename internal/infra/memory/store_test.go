package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quiztaker/internal/domain"
)

func TestStoreQuizReads(t *testing.T) {
	ctx := context.Background()
	store := storeWith(t, sampleQuiz())

	header, err := store.GetQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	require.Equal(t, "Arithmetic", header.Title)
	require.Empty(t, header.Questions)

	questions, err := store.GetQuestions(ctx, "quiz-1")
	require.NoError(t, err)
	require.Len(t, questions, 1)

	// callers own the returned slices
	questions[0].Options[0].Text = "mutated"
	again, err := store.GetQuestions(ctx, "quiz-1")
	require.NoError(t, err)
	require.Equal(t, "3", again[0].Options[0].Text)

	_, err = store.GetQuiz(ctx, "missing")
	require.True(t, errors.Is(err, domain.ErrQuizNotFound))
}

func TestStoreListQuizzesNewestFirst(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	store := NewStoreWithClock(func() time.Time { return now })

	older := sampleQuiz()
	require.NoError(t, store.SaveQuiz(ctx, older))
	now = now.Add(time.Hour)
	newer := domain.Quiz{ID: "quiz-2", Title: "Empty"}
	require.NoError(t, store.SaveQuiz(ctx, newer))

	list, err := store.ListQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "quiz-2", list[0].ID)
	require.Equal(t, 0, list[0].QuestionCount)
	require.Equal(t, "quiz-1", list[1].ID)
	require.Equal(t, 1, list[1].QuestionCount)
}

func TestStoreSessionsAndAnonymousCleanup(t *testing.T) {
	ctx := context.Background()
	store := storeWith(t, sampleQuiz())
	base := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

	anonID, err := store.InsertSession(ctx, domain.SessionRecord{QuizID: "quiz-1", Score: 1, TotalQuestions: 1, CompletedAt: base})
	require.NoError(t, err)
	require.NotEmpty(t, anonID)
	require.NoError(t, store.InsertResponses(ctx, anonID, []domain.Response{{QuestionID: "q1", SelectedOptionID: "o2", IsCorrect: true}}))

	first, err := store.InsertSession(ctx, domain.SessionRecord{QuizID: "quiz-1", UserID: "u1", TotalQuestions: 1, CompletedAt: base})
	require.NoError(t, err)
	second, err := store.InsertSession(ctx, domain.SessionRecord{QuizID: "quiz-1", UserID: "u1", Score: 1, TotalQuestions: 1, CompletedAt: base.Add(time.Minute)})
	require.NoError(t, err)

	sessions, err := store.ListUserSessions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, second, sessions[0].ID)
	require.Equal(t, first, sessions[1].ID)
	require.Equal(t, "Arithmetic", sessions[0].QuizTitle)

	resp := store.Responses(anonID)
	require.Len(t, resp, 1)
	require.Equal(t, anonID, resp[0].SessionID)

	deleted, err := store.DeleteAnonymousSessions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
	require.Len(t, store.Sessions(), 2)
	require.Empty(t, store.Responses(anonID))
}

func TestSampleQuizzesHaveOneCorrectOption(t *testing.T) {
	for _, quiz := range SampleQuizzes() {
		require.NotEmpty(t, quiz.Questions, quiz.ID)
		for _, q := range quiz.Questions {
			correct := 0
			for _, opt := range q.Options {
				if opt.IsCorrect {
					correct++
				}
			}
			require.Equal(t, 1, correct, q.ID)
		}
	}
}
