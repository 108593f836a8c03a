package app

import (
	"math/rand"
	"sync"

	"quiztaker/internal/domain"
)

// shuffler permutes option order per attempt. The source slices are never
// written to, so cached quiz content stays in store order.
type shuffler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newShuffler(rnd *rand.Rand) *shuffler {
	return &shuffler{rnd: rnd}
}

func (s *shuffler) questions(src []domain.Question) []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Question, len(src))
	for i, q := range src {
		options := make([]domain.Option, len(q.Options))
		copy(options, q.Options)
		s.rnd.Shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})
		q.Options = options
		out[i] = q
	}
	return out
}
