package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlink",
			Subsystem: "link",
			Name:      "frames_decoded_total",
			Help:      "Valid frames recovered from the inbound byte stream.",
		},
		[]string{"conn", "type"},
	)
	resyncBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlink",
			Subsystem: "link",
			Name:      "resync_bytes_total",
			Help:      "Bytes skipped while resynchronizing past corruption.",
		},
		[]string{"conn"},
	)
	corruptFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlink",
			Subsystem: "link",
			Name:      "corrupt_candidates_total",
			Help:      "Frame candidates rejected for bad version or checksum.",
		},
		[]string{"conn"},
	)
	messagesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlink",
			Subsystem: "link",
			Name:      "messages_completed_total",
			Help:      "Logical messages fully reassembled and delivered.",
		},
		[]string{"conn", "type"},
	)
	inboundDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlink",
			Subsystem: "link",
			Name:      "inbound_dropped_total",
			Help:      "Completed messages dropped because the inbound queue was full.",
		},
		[]string{"conn"},
	)
	pendingReassemblies = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "airlink",
			Subsystem: "link",
			Name:      "pending_reassemblies",
			Help:      "Partial messages currently awaiting chunks.",
		},
		[]string{"conn"},
	)
	chunksSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlink",
			Subsystem: "link",
			Name:      "chunks_sent_total",
			Help:      "Frames written to the transport.",
		},
		[]string{"conn", "type"},
	)
	sendFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlink",
			Subsystem: "link",
			Name:      "send_failures_total",
			Help:      "Logical sends abandoned after a transport write error.",
		},
		[]string{"conn"},
	)
	validationVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlink",
			Subsystem: "voice",
			Name:      "validation_verdicts_total",
			Help:      "Voice capture validation outcomes.",
		},
		[]string{"accepted", "reason"},
	)
	retriesScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlink",
			Subsystem: "voice",
			Name:      "retries_scheduled_total",
			Help:      "Automatic re-capture attempts scheduled after rejection.",
		},
		[]string{"attempt"},
	)
	sendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "airlink",
			Subsystem: "link",
			Name:      "send_duration_seconds",
			Help:      "Wall time for one logical send including pacing delays.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"conn", "type"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			framesDecoded, resyncBytes, corruptFrames,
			messagesCompleted, inboundDropped, pendingReassemblies,
			chunksSent, sendFailures, validationVerdicts,
			retriesScheduled, sendDuration,
		)
	})
}

func RecordFrameDecoded(conn, frameType string) {
	RegisterMetrics()
	framesDecoded.WithLabelValues(conn, frameType).Inc()
}

func RecordResync(conn string, skipped, corrupt uint64) {
	RegisterMetrics()
	resyncBytes.WithLabelValues(conn).Add(float64(skipped))
	corruptFrames.WithLabelValues(conn).Add(float64(corrupt))
}

func RecordMessageCompleted(conn, frameType string) {
	RegisterMetrics()
	messagesCompleted.WithLabelValues(conn, frameType).Inc()
}

func RecordInboundDropped(conn string) {
	RegisterMetrics()
	inboundDropped.WithLabelValues(conn).Inc()
}

func SetPendingReassemblies(conn string, n int) {
	RegisterMetrics()
	pendingReassemblies.WithLabelValues(conn).Set(float64(n))
}

func RecordChunkSent(conn, frameType string) {
	RegisterMetrics()
	chunksSent.WithLabelValues(conn, frameType).Inc()
}

func RecordSendFailure(conn string) {
	RegisterMetrics()
	sendFailures.WithLabelValues(conn).Inc()
}

func RecordSendDuration(conn, frameType string, d time.Duration) {
	RegisterMetrics()
	sendDuration.WithLabelValues(conn, frameType).Observe(d.Seconds())
}

func RecordValidationVerdict(accepted bool, reason string) {
	RegisterMetrics()
	validationVerdicts.WithLabelValues(strconv.FormatBool(accepted), reason).Inc()
}

func RecordRetryScheduled(attempt int) {
	RegisterMetrics()
	retriesScheduled.WithLabelValues(strconv.Itoa(attempt)).Inc()
}
