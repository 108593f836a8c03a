package app

import (
	"fmt"

	"github.com/shopspring/decimal"

	"quiztaker/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Grade scores answers (question id -> option id) against the questions.
// A question counts when its selected option is flagged correct; a question
// without a selection reports domain.NotAnswered.
func Grade(questions []domain.Question, answers map[string]string) (int, []domain.QuestionResult) {
	score := 0
	results := make([]domain.QuestionResult, 0, len(questions))
	for _, q := range questions {
		result := domain.QuestionResult{
			QuestionID:     q.ID,
			Question:       q.Text,
			SelectedAnswer: domain.NotAnswered,
		}
		if correct, ok := q.CorrectOption(); ok {
			result.CorrectAnswer = correct.Text
		}
		if selected, ok := q.Option(answers[q.ID]); ok {
			result.SelectedAnswer = selected.Text
			result.IsCorrect = selected.IsCorrect
		}
		if result.IsCorrect {
			score++
		}
		results = append(results, result)
	}
	return score, results
}

// Percentage returns round(score/total*100), halves rounded up. Zero total yields 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(score)).Mul(hundred).Div(decimal.NewFromInt(int64(total)))
	return int(pct.Round(0).IntPart())
}

// validateQuestions enforces exactly one correct option per question.
func validateQuestions(questions []domain.Question) error {
	for _, q := range questions {
		correct := 0
		for _, opt := range q.Options {
			if opt.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("%w: question %s has %d", domain.ErrInvalidOptions, q.ID, correct)
		}
	}
	return nil
}
