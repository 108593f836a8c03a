package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiztaker/internal/domain"
)

// QuizLoader fetches full quiz content from the record store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// loadTimeout bounds a shared load, which outlives any single caller's request.
const loadTimeout = 30 * time.Second

// QuizRepository caches quiz content in Redis and falls back to a loader on cache miss.
// Content is stored as JSON: SET quiz:{quizID}:content {quiz} EX ttl
// A ttl <= 0 disables caching.
type QuizRepository struct {
	client redis.UniversalClient
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizRepository(client redis.UniversalClient, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Callers share this load, so it must not die with the first caller.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(loadCtx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(loadCtx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if r.ttl <= 0 {
			return quiz, nil
		}

		data, err := json.Marshal(quiz)
		if err != nil {
			return quiz, nil
		}
		// best effort: a failed write only costs another load
		if err := r.client.Set(loadCtx, r.contentKey(quizID), data, r.ttlWithJitter()).Err(); err != nil {
			slog.WarnContext(loadCtx, "redis: cache quiz failed", "quiz", quizID, "error", err)
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate drops the cached content of a quiz.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID string) error {
	return r.client.Del(ctx, r.contentKey(quizID)).Err()
}

func (r *QuizRepository) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	data, err := r.client.Get(ctx, r.contentKey(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "redis: read cached quiz failed", "quiz", quizID, "error", err)
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) contentKey(quizID string) string {
	return "quiz:" + quizID + ":content"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
