package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"quiztaker/internal/domain"
)

// StoreLoader assembles a quiz from the record store: the quiz row and its
// questions are fetched concurrently.
type StoreLoader struct {
	store QuizStore
}

func NewStoreLoader(store QuizStore) *StoreLoader {
	return &StoreLoader{store: store}
}

func (l *StoreLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz      domain.Quiz
		questions []domain.Question
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quiz, err = l.store.GetQuiz(gctx, quizID)
		if err != nil {
			return fmt.Errorf("get quiz: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		questions, err = l.store.GetQuestions(gctx, quizID)
		if err != nil {
			return fmt.Errorf("get questions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Quiz{}, err
	}

	quiz.Questions = questions
	return quiz, nil
}
