package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API transport metrics
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_kiosk_api_requests_total",
		Help: "Total number of backend API requests",
	}, []string{"endpoint", "status"})

	apiLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "queue_kiosk_api_latency_seconds",
		Help:    "Backend API request latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// Announcement channel metrics
	announcementsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queue_kiosk_announcements_published_total",
		Help: "Total announcements written to the shared channel",
	})

	announcementsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queue_kiosk_announcements_received_total",
		Help: "Total announcements delivered to subscribers",
	})

	announcementsDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queue_kiosk_announcements_deduped_total",
		Help: "Announcements dropped by the per-subscriber dedup history",
	})

	channelWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queue_kiosk_channel_write_failures_total",
		Help: "Announcement channel writes swallowed due to store errors",
	})

	playbackActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "queue_kiosk_playback_active",
		Help: "Whether announcement audio is currently playing (0 or 1)",
	})

	// Refresh controller metrics
	refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_kiosk_refreshes_total",
		Help: "View refreshes issued, by view and trigger (cadence, params, manual, event)",
	}, []string{"view", "trigger"})

	staleResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queue_kiosk_stale_responses_dropped_total",
		Help: "Fetch responses dropped because a later response was already applied",
	})

	queueLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queue_kiosk_queue_length",
		Help: "Number of queue entries in a view's last completed fetch",
	}, []string{"view"})
)

// RecordAPIRequest records one backend call outcome
func RecordAPIRequest(endpoint string, success bool, seconds float64) {
	status := "success"
	if !success {
		status = "error"
	}
	apiRequests.WithLabelValues(endpoint, status).Inc()
	apiLatency.Observe(seconds)
}

// RecordAnnouncementPublished increments the published counter
func RecordAnnouncementPublished() {
	announcementsPublished.Inc()
}

// RecordAnnouncementReceived increments the received counter
func RecordAnnouncementReceived() {
	announcementsReceived.Inc()
}

// RecordAnnouncementDeduped increments the dedup-drop counter
func RecordAnnouncementDeduped() {
	announcementsDeduped.Inc()
}

// RecordChannelWriteFailure increments the swallowed-write counter
func RecordChannelWriteFailure() {
	channelWriteFailures.Inc()
}

// SetPlaybackActive updates the playback gauge
func SetPlaybackActive(playing bool) {
	if playing {
		playbackActive.Set(1)
	} else {
		playbackActive.Set(0)
	}
}

// RecordRefresh records one view refresh by trigger
func RecordRefresh(view, trigger string) {
	refreshes.WithLabelValues(view, trigger).Inc()
}

// RecordStaleResponse increments the stale-response counter
func RecordStaleResponse() {
	staleResponses.Inc()
}

// SetQueueLength updates a view's queue length gauge
func SetQueueLength(view string, n int) {
	queueLength.WithLabelValues(view).Set(float64(n))
}
