package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiztaker/internal/domain"
)

// QuizLoader fetches full quiz content from the record store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// loadTimeout bounds a shared load, which outlives any single caller's request.
const loadTimeout = 30 * time.Second

// QuizRepository caches loaded quizzes with TTL to avoid repeated store hits.
// Failed loads are not cached; a ttl <= 0 disables caching.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		if quiz, ok := r.cached(quizID); ok {
			return quiz, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		quiz, err := r.loader.LoadQuiz(loadCtx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if r.ttl <= 0 {
			return quiz, nil
		}

		expiresAt := r.clock().Add(r.ttlWithJitter())
		r.mu.Lock()
		r.cache[quizID] = cachedQuiz{quiz: quiz, expiresAt: expiresAt}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate drops a cached quiz so the next read goes to the loader.
func (r *QuizRepository) Invalidate(quizID string) {
	r.mu.Lock()
	delete(r.cache, quizID)
	r.mu.Unlock()
}

func (r *QuizRepository) cached(quizID string) (domain.Quiz, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[quizID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
