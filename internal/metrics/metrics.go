package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check-in outcome counters served at /metrics.
var (
	CheckinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classattend_checkins_total",
		Help: "Verification attempts by method and outcome.",
	}, []string{"method", "outcome"})

	AuditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classattend_face_audits_total",
		Help: "Post-commit face audits by result.",
	}, []string{"result"})
)

// Outcome labels for CheckinsTotal.
const (
	OutcomeRecorded           = "recorded"
	OutcomeAlreadyMarked      = "already_marked"
	OutcomeScheduleClosed     = "schedule_closed"
	OutcomeOutOfRange         = "out_of_range"
	OutcomePermissionDenied   = "permission_denied"
	OutcomeVerificationFailed = "verification_failed"
	OutcomeNetworkError       = "network_error"
)
