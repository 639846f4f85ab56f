package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "devpulse",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity persisted to Postgres.",
	})
	streakBrokenCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "devpulse",
		Subsystem: "streak",
		Name:      "broken_today_total",
		Help:      "Number of streak queries that found no activity on the query day.",
	})
	syncCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "devpulse",
		Subsystem: "sync",
		Name:      "activities_created_total",
		Help:      "Number of activity records created by GitHub sync runs.",
	})
	syncExaminedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "devpulse",
		Subsystem: "sync",
		Name:      "events_examined_total",
		Help:      "Number of provider events examined by GitHub sync runs.",
	})
	syncSkippedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devpulse",
		Subsystem: "sync",
		Name:      "events_skipped_total",
		Help:      "Number of provider events skipped during sync, by reason.",
	}, []string{"reason"})
	lastSyncGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "devpulse",
		Subsystem: "sync",
		Name:      "last_completed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed GitHub sync.",
	})
	providerRequestHist = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "devpulse",
		Subsystem: "github",
		Name:      "request_duration_seconds",
		Help:      "Latency of outbound GitHub API requests by endpoint and outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})
)

func init() {
	prometheus.MustRegister(
		activityPersistGauge,
		streakBrokenCounter,
		syncCreatedCounter,
		syncExaminedCounter,
		syncSkippedCounter,
		lastSyncGauge,
		providerRequestHist,
	)
}

// RecordActivityPersisted updates the persistence watermark gauge.
func RecordActivityPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

// RecordStreakBroken counts an advisory streak-broken observation.
func RecordStreakBroken() {
	streakBrokenCounter.Inc()
}

// RecordSyncCompleted updates sync counters and the completion watermark.
func RecordSyncCompleted(created, examined int, ts time.Time) {
	syncCreatedCounter.Add(float64(created))
	syncExaminedCounter.Add(float64(examined))
	if !ts.IsZero() {
		lastSyncGauge.Set(float64(ts.Unix()))
	}
}

// RecordSyncSkipped counts one event dropped during sync.
func RecordSyncSkipped(reason string) {
	syncSkippedCounter.WithLabelValues(reason).Inc()
}

// RecordProviderRequest observes one outbound GitHub API call.
func RecordProviderRequest(endpoint, outcome string, elapsed time.Duration) {
	providerRequestHist.WithLabelValues(endpoint, outcome).Observe(elapsed.Seconds())
}
