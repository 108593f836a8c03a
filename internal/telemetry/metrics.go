package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AttemptsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiztaker",
		Name:      "attempts_started_total",
		Help:      "Quiz attempts created.",
	})

	AttemptsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quiztaker",
		Name:      "attempts_finished_total",
		Help:      "Quiz attempts that left the registry, by outcome (submitted, abandoned).",
	}, []string{"outcome"})

	LoadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiztaker",
		Name:      "quiz_load_failures_total",
		Help:      "Quiz loads that left an attempt unavailable.",
	})

	SessionWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quiztaker",
		Name:      "session_writes_total",
		Help:      "Completed session writes to the record store, by result (saved, failed).",
	}, []string{"result"})

	ScorePercentage = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quiztaker",
		Name:      "score_percentage",
		Help:      "Distribution of submitted attempt percentages.",
		Buckets:   []float64{0, 20, 40, 60, 70, 80, 90, 100},
	})

	RedisCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quiztaker",
		Name:      "redis_commands_total",
		Help:      "Redis commands processed, by command and outcome.",
	}, []string{"cmd", "outcome"})
)
