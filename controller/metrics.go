package controller

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mcpadmin_session_transitions_total",
		Help: "Session transitions by name and outcome.",
	}, []string{"transition", "outcome"})

	sessionTransitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mcpadmin_session_transition_duration_seconds",
		Help:    "Wall time of session transitions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"transition"})

	tokenIssuance = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mcpadmin_token_issuance_total",
		Help: "Access token requests by scope and outcome.",
	}, []string{"scoped", "outcome"})
)

func observeTokenIssuance(scoped bool, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	tokenIssuance.WithLabelValues(strconv.FormatBool(scoped), outcome).Inc()
}
