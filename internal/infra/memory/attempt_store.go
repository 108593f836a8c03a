package memory

import (
	"sync"

	"quiztaker/internal/app"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) Put(attempt *app.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID()] = attempt
}

func (s *AttemptStore) Get(attemptID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	return attempt, ok
}

func (s *AttemptStore) Delete(attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, attemptID)
}

// Len reports how many attempts are live.
func (s *AttemptStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}
