// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezrelo_worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezrelo_worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ezrelo_worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ezrelo_worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// ProviderSearches counts provider searches by category and outcome
	// (success, error, timeout, stale).
	ProviderSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezrelo_provider_searches_total",
			Help: "Provider searches by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	ProviderSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ezrelo_provider_search_duration_seconds",
			Help:    "Latency of provider search calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	ProviderCacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezrelo_provider_cache_writes_total",
			Help: "Search results written to the per-user cache",
		},
		[]string{"category"},
	)

	ReferralClicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezrelo_referral_clicks_total",
			Help: "Referral tracking posts by outcome",
		},
		[]string{"outcome"},
	)

	TasksToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezrelo_journey_tasks_toggled_total",
			Help: "Journey task toggles by resulting state",
		},
		[]string{"state"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezrelo_notifications_sent_total",
			Help: "Outbound emails and SMS by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)
