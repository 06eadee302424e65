// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	AssessmentDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_decisions_total",
			Help: "Assessment outcomes by scorer and decision",
		},
		[]string{"scorer", "decision"},
	)

	AssessmentFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_fallbacks_total",
			Help: "Assessments that returned the safe fallback result",
		},
		[]string{"scorer"},
	)

	MemberRiskLevels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "member_risk_levels_total",
			Help: "Detected member risk levels",
		},
		[]string{"level"},
	)

	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Notification delivery attempts by channel and status",
		},
		[]string{"channel", "status"},
	)
)
