package quiz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anatomy_quiz_sessions_created_total",
		Help: "Quiz sessions created, by mode.",
	}, []string{"mode"})

	attemptsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anatomy_quiz_attempts_total",
		Help: "Quiz attempts submitted, by correctness.",
	}, []string{"result"})

	sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anatomy_quiz_sessions_completed_total",
		Help: "Quiz sessions marked complete.",
	})
)
