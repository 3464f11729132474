package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gt06"

var (
	registerOnce sync.Once

	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "protocol",
			Name:      "frames_decoded_total",
			Help:      "Frames decoded, by message kind.",
		},
		[]string{"kind"},
	)
	bytesDiscarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "protocol",
			Name:      "discarded_bytes_total",
			Help:      "Bytes dropped while resynchronising on a start marker.",
		},
	)
	checksumMismatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "protocol",
			Name:      "checksum_mismatches_total",
			Help:      "Frames whose CRC-ITU did not match.",
		},
	)
	messagesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "protocol",
			Name:      "messages_skipped_total",
			Help:      "Frames not forwarded, by reason (partial, unknown).",
		},
		[]string{"reason"},
	)
	forwardDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forwarder",
			Name:      "dropped_total",
			Help:      "Messages dropped from full or abandoned forward queues.",
		},
	)
	liveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tcp",
			Name:      "sessions",
			Help:      "Live device connections.",
		},
	)
	hubDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "dropped_total",
			Help:      "Events dropped because the live hub was backed up.",
		},
	)
	hubClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected live dashboard clients.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			framesDecoded, bytesDiscarded, checksumMismatches, messagesSkipped,
			forwardDropped, liveSessions, hubDropped, hubClients,
			httpRequests, httpDuration,
		)
	})
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordFrameDecoded(kind string) {
	RegisterMetrics()
	framesDecoded.WithLabelValues(kind).Inc()
}

func RecordDiscarded(n int) {
	if n <= 0 {
		return
	}
	RegisterMetrics()
	bytesDiscarded.Add(float64(n))
}

func RecordChecksumMismatch() {
	RegisterMetrics()
	checksumMismatches.Inc()
}

func RecordSkipped(reason string) {
	RegisterMetrics()
	messagesSkipped.WithLabelValues(reason).Inc()
}

func RecordForwardDropped(n int) {
	if n <= 0 {
		return
	}
	RegisterMetrics()
	forwardDropped.Add(float64(n))
}

func SessionOpened() {
	RegisterMetrics()
	liveSessions.Inc()
}

func SessionClosed() {
	RegisterMetrics()
	liveSessions.Dec()
}

func RecordHubDropped() {
	RegisterMetrics()
	hubDropped.Inc()
}

func SetHubClients(n int) {
	RegisterMetrics()
	hubClients.Set(float64(n))
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
