// Package metrics provides Prometheus exporters for engine metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the gamification engine.
var (
	// Counters.
	PointsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_awarded_total",
			Help: "Total points awarded, by action",
		},
		[]string{"action"},
	)

	PointsDeductedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "points_deducted_total",
			Help: "Total points deducted through redemptions and manual deductions",
		},
	)

	BadgesAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Total number of badges awarded",
		},
		[]string{"badge"},
	)

	RedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_redemptions_total",
			Help: "Total number of reward redemptions, by outcome",
		},
		[]string{"status"},
	)

	UnknownActivitiesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unknown_activities_total",
			Help: "Activity notifications dropped because the name is not mapped",
		},
	)

	NotificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Notification dispatches that failed, by kind",
		},
		[]string{"kind"},
	)

	// Gauges.
	BadgeHolders = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "badge_holders",
			Help: "Current number of users holding each badge",
		},
		[]string{"badge"},
	)

	// Histograms.
	BadgeEvaluationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "badge_evaluation_seconds",
			Help:    "Duration of a per-user badge evaluation pass",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		},
	)

	LeaderboardRequestSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leaderboard_request_seconds",
			Help:    "Duration of leaderboard computations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"dimension", "cache"},
	)
)

// RecordPointsAwarded records a positive or negative point award.
func RecordPointsAwarded(action string, points int) {
	if points >= 0 {
		PointsAwardedTotal.WithLabelValues(action).Add(float64(points))
	}
}

// RecordPointsDeducted records a deduction.
func RecordPointsDeducted(points int) {
	PointsDeductedTotal.Add(float64(points))
}

// RecordBadgeAwarded increments the badge award counter.
func RecordBadgeAwarded(badge string) {
	BadgesAwardedTotal.WithLabelValues(badge).Inc()
}

// SetBadgeHolders updates the holders gauge for a badge.
func SetBadgeHolders(badge string, count int) {
	BadgeHolders.WithLabelValues(badge).Set(float64(count))
}

// RecordRedemption records a redemption attempt outcome.
func RecordRedemption(status string) {
	RedemptionsTotal.WithLabelValues(status).Inc()
}

// RecordUnknownActivity counts a dropped activity notification.
func RecordUnknownActivity() {
	UnknownActivitiesTotal.Inc()
}

// RecordNotificationFailure counts a failed notification dispatch.
func RecordNotificationFailure(kind string) {
	NotificationFailuresTotal.WithLabelValues(kind).Inc()
}

// ObserveBadgeEvaluation records the duration of an evaluation pass.
func ObserveBadgeEvaluation(d time.Duration) {
	BadgeEvaluationSeconds.Observe(d.Seconds())
}

// ObserveLeaderboardRequest records a leaderboard computation.
func ObserveLeaderboardRequest(dimension, cache string, d time.Duration) {
	LeaderboardRequestSeconds.WithLabelValues(dimension, cache).Observe(d.Seconds())
}
