package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiztaker/internal/app"
)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Attempts hold a running timer, so they stay in a local map; Redis carries
// a liveness marker per attempt (quiz:attempt:{id} -> quiz id) that other
// instances and operators can observe.
type AttemptStore struct {
	client   redis.UniversalClient
	ttl      time.Duration
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore(client redis.UniversalClient, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) Put(attempt *app.Attempt) {
	s.mu.Lock()
	s.attempts[attempt.ID()] = attempt
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(attempt.ID()), attempt.Quiz().ID, s.ttl).Err()
}

func (s *AttemptStore) Get(attemptID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	return attempt, ok
}

func (s *AttemptStore) Delete(attemptID string) {
	s.mu.Lock()
	delete(s.attempts, attemptID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(attemptID)).Err()
}

func (s *AttemptStore) key(attemptID string) string {
	return "quiz:attempt:" + attemptID
}
