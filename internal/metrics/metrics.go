// Package metrics exposes Prometheus collectors for the status client and
// the feed server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_feed_frames_total",
		Help: "Progress frames read from the feed grouped by outcome",
	}, []string{"outcome"})

	subscriptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_feed_subscriptions_total",
		Help: "Feed subscription lifecycle transitions",
	}, []string{"event"})

	connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_feed_connected",
		Help: "1 while the feed subscription is connected",
	})

	snapshotDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "beacon_snapshot_fetch_duration_seconds",
		Help:    "Duration of session snapshot fetches",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"outcome"})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_status_transitions_total",
		Help: "Visual status transitions of the indicator",
	}, []string{"from", "to"})

	hubPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_hub_frames_published_total",
		Help: "Frames published to the feed server hub",
	})

	hubDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_hub_frames_dropped_total",
		Help: "Frames evicted from slow subscriber queues",
	})

	hubSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_hub_subscribers",
		Help: "Current number of feed server subscribers",
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_http_requests_total",
		Help: "Total HTTP requests processed by the feed server",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "beacon_http_request_duration_seconds",
		Help:    "HTTP request duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Frame outcomes.
const (
	FrameAccepted  = "accepted"
	FrameMalformed = "malformed"
)

// Snapshot outcomes.
const (
	SnapshotSuccess   = "success"
	SnapshotFailed    = "failed"
	SnapshotCancelled = "cancelled"
)

// ObserveFrame counts a frame read from the feed.
func ObserveFrame(outcome string) {
	framesTotal.WithLabelValues(outcome).Inc()
}

// ObserveSubscription counts a subscription lifecycle event ("opened",
// "errored", "closed") and keeps the connected gauge in step.
func ObserveSubscription(event string) {
	subscriptionsTotal.WithLabelValues(event).Inc()
	switch event {
	case "opened":
		connected.Set(1)
	case "errored", "closed":
		connected.Set(0)
	}
}

// ObserveSnapshot records the duration and outcome of a snapshot fetch.
func ObserveSnapshot(outcome string, duration time.Duration) {
	snapshotDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveTransition counts a visual status transition.
func ObserveTransition(from, to string) {
	if from == "" {
		from = "none"
	}
	statusTransitions.WithLabelValues(from, to).Inc()
}

// ObservePublish counts a frame published to the hub and how many
// subscriber queues had to evict an older frame to take it.
func ObservePublish(dropped int) {
	hubPublished.Inc()
	if dropped > 0 {
		hubDropped.Add(float64(dropped))
	}
}

// SetSubscribers sets the current hub subscriber count.
func SetSubscribers(n int) {
	hubSubscribers.Set(float64(n))
}

// ObserveRequest records one HTTP request served by the feed server.
func ObserveRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler returns the HTTP handler that serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
