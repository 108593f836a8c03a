package memory

import (
	"context"

	"quiztaker/internal/domain"
)

// SampleQuizzes are the demo quizzes served by the memory driver and written by the seed command.
func SampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:          "nexlayer-fundamentals",
			Title:       "Nexlayer Platform Fundamentals",
			Description: "Core concepts of deploying applications on Nexlayer.",
			Questions: []domain.Question{
				{
					ID:   "nexlayer-fundamentals-q1",
					Text: "What file describes a Nexlayer application deployment?",
					Options: []domain.Option{
						{ID: "nexlayer-fundamentals-q1-a", Text: "nexlayer.yaml", IsCorrect: true},
						{ID: "nexlayer-fundamentals-q1-b", Text: "Dockerfile.lock"},
						{ID: "nexlayer-fundamentals-q1-c", Text: "package.json"},
						{ID: "nexlayer-fundamentals-q1-d", Text: "deploy.ini"},
					},
				},
				{
					ID:   "nexlayer-fundamentals-q2",
					Text: "Which unit groups the containers of one application?",
					Options: []domain.Option{
						{ID: "nexlayer-fundamentals-q2-a", Text: "A pod", IsCorrect: true},
						{ID: "nexlayer-fundamentals-q2-b", Text: "A volume"},
						{ID: "nexlayer-fundamentals-q2-c", Text: "A registry"},
						{ID: "nexlayer-fundamentals-q2-d", Text: "A secret"},
					},
				},
				{
					ID:   "nexlayer-fundamentals-q3",
					Text: "How do pods in the same application reach each other?",
					Options: []domain.Option{
						{ID: "nexlayer-fundamentals-q3-a", Text: "By public IP only"},
						{ID: "nexlayer-fundamentals-q3-b", Text: "By pod name on the internal network", IsCorrect: true},
						{ID: "nexlayer-fundamentals-q3-c", Text: "Through a shared volume"},
						{ID: "nexlayer-fundamentals-q3-d", Text: "They cannot"},
					},
				},
			},
		},
		{
			ID:          "go-concurrency-basics",
			Title:       "Go Concurrency Basics",
			Description: "Goroutines, channels and synchronisation.",
			Questions: []domain.Question{
				{
					ID:   "go-concurrency-basics-q1",
					Text: "What happens when sending on an unbuffered channel with no receiver?",
					Options: []domain.Option{
						{ID: "go-concurrency-basics-q1-a", Text: "The value is dropped"},
						{ID: "go-concurrency-basics-q1-b", Text: "The sender blocks", IsCorrect: true},
						{ID: "go-concurrency-basics-q1-c", Text: "The program panics"},
					},
				},
				{
					ID:   "go-concurrency-basics-q2",
					Text: "Which type waits for a collection of goroutines to finish?",
					Options: []domain.Option{
						{ID: "go-concurrency-basics-q2-a", Text: "sync.Mutex"},
						{ID: "go-concurrency-basics-q2-b", Text: "sync.Once"},
						{ID: "go-concurrency-basics-q2-c", Text: "sync.WaitGroup", IsCorrect: true},
					},
				},
				{
					ID:   "go-concurrency-basics-q3",
					Text: "Sending on a closed channel...",
					Options: []domain.Option{
						{ID: "go-concurrency-basics-q3-a", Text: "panics", IsCorrect: true},
						{ID: "go-concurrency-basics-q3-b", Text: "returns the zero value"},
						{ID: "go-concurrency-basics-q3-c", Text: "blocks forever"},
					},
				},
				{
					ID:   "go-concurrency-basics-q4",
					Text: "What does context cancellation propagate to?",
					Options: []domain.Option{
						{ID: "go-concurrency-basics-q4-a", Text: "Derived contexts", IsCorrect: true},
						{ID: "go-concurrency-basics-q4-b", Text: "Parent contexts"},
						{ID: "go-concurrency-basics-q4-c", Text: "Sibling contexts"},
					},
				},
			},
		},
	}
}

// NewSampleStore returns a Store preloaded with SampleQuizzes.
func NewSampleStore() *Store {
	s := NewStore()
	for _, quiz := range SampleQuizzes() {
		_ = s.SaveQuiz(context.Background(), quiz)
	}
	return s
}
