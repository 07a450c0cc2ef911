package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Exporter publishes aggregator events as Prometheus collectors. A nil
// Exporter ignores every observation.
type Exporter struct {
	transcriptions    *prometheus.CounterVec
	processingSeconds *prometheus.HistogramVec
	audioSeconds      *prometheus.HistogramVec
	requests          *prometheus.CounterVec
	requestSeconds    *prometheus.HistogramVec
	errors            *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
}

// NewExporter creates the collectors and registers them with reg.
func NewExporter(reg prometheus.Registerer) (*Exporter, error) {
	e := &Exporter{
		transcriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omniasr",
			Name:      "transcriptions_total",
			Help:      "Transcriptions by mode and outcome.",
		}, []string{"mode", "status"}),
		processingSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "omniasr",
			Name:      "transcription_processing_seconds",
			Help:      "Engine time spent per successful transcription.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"mode"}),
		audioSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "omniasr",
			Name:      "transcription_audio_seconds",
			Help:      "Duration of transcribed audio.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"mode"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omniasr",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint, method and status code.",
		}, []string{"endpoint", "method", "status"}),
		requestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "omniasr",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omniasr",
			Name:      "errors_total",
			Help:      "Errors by type.",
		}, []string{"type"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omniasr",
			Name:      "cache_hits_total",
			Help:      "Transcriptions served from the result cache.",
		}, []string{"mode"}),
	}

	for _, c := range []prometheus.Collector{
		e.transcriptions, e.processingSeconds, e.audioSeconds,
		e.requests, e.requestSeconds, e.errors, e.cacheHits,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Exporter) observeTranscription(rec TranscriptionRecord) {
	if e == nil {
		return
	}
	status := "success"
	if !rec.Success {
		status = "failed"
	}
	e.transcriptions.WithLabelValues(rec.Mode, status).Inc()
	if rec.Success {
		e.processingSeconds.WithLabelValues(rec.Mode).Observe(rec.ProcessingTime)
		e.audioSeconds.WithLabelValues(rec.Mode).Observe(rec.AudioDuration)
	}
}

func (e *Exporter) observeRequest(rec RequestRecord) {
	if e == nil {
		return
	}
	e.requests.WithLabelValues(rec.Endpoint, rec.Method, strconv.Itoa(rec.StatusCode)).Inc()
	e.requestSeconds.WithLabelValues(rec.Endpoint).Observe(rec.Duration)
}

func (e *Exporter) observeError(rec ErrorRecord) {
	if e == nil {
		return
	}
	e.errors.WithLabelValues(rec.ErrorType).Inc()
}

func (e *Exporter) observeCacheHit(mode string) {
	if e == nil {
		return
	}
	e.cacheHits.WithLabelValues(mode).Inc()
}
