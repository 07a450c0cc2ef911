// Package metrics keeps in-memory records of transcriptions, requests and
// errors, derives summary statistics, and mirrors the events to Prometheus.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"omniasr/internal/model"
)

// Record kinds accepted by Recent.
const (
	KindTranscriptions = "transcriptions"
	KindRequests       = "requests"
	KindErrors         = "errors"
)

// TranscriptionRecord describes one finished transcription attempt.
type TranscriptionRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	RequestID      string    `json:"request_id"`
	Language       string    `json:"language"`
	AudioDuration  float64   `json:"audio_duration"`
	ProcessingTime float64   `json:"processing_time"`
	SegmentsCount  int       `json:"segments_count"`
	Mode           string    `json:"mode"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	RTF            float64   `json:"rtf"`
}

// RequestRecord describes one HTTP request.
type RequestRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Endpoint   string    `json:"endpoint"`
	Method     string    `json:"method"`
	StatusCode int       `json:"status_code"`
	Duration   float64   `json:"duration"` // seconds
}

// ErrorRecord describes one surfaced error.
type ErrorRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	ErrorType    string    `json:"error_type"`
	ErrorMessage string    `json:"error_message"`
	RequestID    string    `json:"request_id,omitempty"`
}

// Averages are computed over successful transcriptions only.
type Averages struct {
	ProcessingTime float64 `json:"processing_time"`
	AudioDuration  float64 `json:"audio_duration"`
	RealTimeFactor float64 `json:"real_time_factor"`
}

// Summary is the aggregate view returned by Summary.
type Summary struct {
	UptimeSeconds       float64          `json:"uptime_seconds"`
	Counters            map[string]int64 `json:"counters"`
	Averages            Averages         `json:"averages"`
	TotalTranscriptions int              `json:"total_transcriptions"`
	TotalRequests       int              `json:"total_requests"`
	TotalErrors         int              `json:"total_errors"`
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.log = logger.With("component", "metrics.Aggregator")
		}
	}
}

// WithExporter mirrors every recorded event to Prometheus collectors.
func WithExporter(e *Exporter) Option {
	return func(a *Aggregator) {
		a.exporter = e
	}
}

// Aggregator is an append-only, mutex-guarded metrics store. Records are
// never modified after they are appended.
type Aggregator struct {
	mu             sync.Mutex
	transcriptions []TranscriptionRecord
	requests       []RequestRecord
	errors         []ErrorRecord
	counters       map[string]int64
	start          time.Time

	now      func() time.Time
	log      *zap.SugaredLogger
	exporter *Exporter
}

// NewAggregator returns an empty aggregator whose uptime starts now.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		counters: make(map[string]int64),
		now:      time.Now,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.start = a.now()
	return a
}

// RecordTranscription appends rec, filling in its timestamp and real-time
// factor, and bumps the mode and outcome counters.
func (a *Aggregator) RecordTranscription(rec TranscriptionRecord) {
	rec.Timestamp = a.now().UTC()
	rec.RTF = model.RTF(rec.ProcessingTime, rec.AudioDuration)

	a.mu.Lock()
	a.transcriptions = append(a.transcriptions, rec)
	a.counters["transcriptions_"+rec.Mode]++
	if rec.Success {
		a.counters["transcriptions_success"]++
	} else {
		a.counters["transcriptions_failed"]++
	}
	a.mu.Unlock()

	a.exporter.observeTranscription(rec)
	a.log.Infow("transcription recorded",
		"request_id", rec.RequestID,
		"language", rec.Language,
		"mode", rec.Mode,
		"success", rec.Success,
		"audio_duration", rec.AudioDuration,
		"processing_time", rec.ProcessingTime,
		"rtf", rec.RTF,
	)
}

// RecordRequest appends one HTTP request.
func (a *Aggregator) RecordRequest(endpoint, method string, status int, duration time.Duration) {
	rec := RequestRecord{
		Timestamp:  a.now().UTC(),
		Endpoint:   endpoint,
		Method:     method,
		StatusCode: status,
		Duration:   duration.Seconds(),
	}

	a.mu.Lock()
	a.requests = append(a.requests, rec)
	a.counters["requests_"+endpoint]++
	a.counters["status_"+strconv.Itoa(status)]++
	a.mu.Unlock()

	a.exporter.observeRequest(rec)
	a.log.Debugw("request recorded", "endpoint", endpoint, "method", method, "status", status, "duration", rec.Duration)
}

// RecordError appends one error.
func (a *Aggregator) RecordError(errorType, message, requestID string) {
	rec := ErrorRecord{
		Timestamp:    a.now().UTC(),
		ErrorType:    errorType,
		ErrorMessage: message,
		RequestID:    requestID,
	}

	a.mu.Lock()
	a.errors = append(a.errors, rec)
	a.counters["errors_"+errorType]++
	a.mu.Unlock()

	a.exporter.observeError(rec)
	a.log.Errorw("error recorded", "error_type", errorType, "error_message", message, "request_id", requestID)
}

// RecordCacheHit counts a transcription served from the cache.
func (a *Aggregator) RecordCacheHit(mode string) {
	a.mu.Lock()
	a.counters["cache_hits_"+mode]++
	a.mu.Unlock()

	a.exporter.observeCacheHit(mode)
}

// Summary returns uptime, a copy of the counters, averages over successful
// transcriptions and record totals.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	counters := make(map[string]int64, len(a.counters))
	for k, v := range a.counters {
		counters[k] = v
	}

	var avg Averages
	var n int
	for _, t := range a.transcriptions {
		if !t.Success {
			continue
		}
		n++
		avg.ProcessingTime += t.ProcessingTime
		avg.AudioDuration += t.AudioDuration
		avg.RealTimeFactor += t.RTF
	}
	if n > 0 {
		avg.ProcessingTime = model.Round(avg.ProcessingTime/float64(n), 3)
		avg.AudioDuration = model.Round(avg.AudioDuration/float64(n), 2)
		avg.RealTimeFactor = model.Round(avg.RealTimeFactor/float64(n), 3)
	}

	return Summary{
		UptimeSeconds:       model.Round(a.now().Sub(a.start).Seconds(), 2),
		Counters:            counters,
		Averages:            avg,
		TotalTranscriptions: len(a.transcriptions),
		TotalRequests:       len(a.requests),
		TotalErrors:         len(a.errors),
	}
}

// RecentTranscriptions returns the last limit records, oldest first. A
// non-positive limit returns every record.
func (a *Aggregator) RecentTranscriptions(limit int) []TranscriptionRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return tail(a.transcriptions, limit)
}

// RecentRequests returns the last limit request records, oldest first.
func (a *Aggregator) RecentRequests(limit int) []RequestRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return tail(a.requests, limit)
}

// RecentErrors returns the last limit error records, oldest first.
func (a *Aggregator) RecentErrors(limit int) []ErrorRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return tail(a.errors, limit)
}

// Recent dispatches on kind. The boolean is false for an unknown kind.
func (a *Aggregator) Recent(kind string, limit int) (any, bool) {
	switch kind {
	case KindTranscriptions:
		return a.RecentTranscriptions(limit), true
	case KindRequests:
		return a.RecentRequests(limit), true
	case KindErrors:
		return a.RecentErrors(limit), true
	default:
		return nil, false
	}
}

// Reset drops all records and counters and restarts the uptime clock.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	a.transcriptions = nil
	a.requests = nil
	a.errors = nil
	a.counters = make(map[string]int64)
	a.start = a.now()
	a.mu.Unlock()

	a.log.Infow("metrics reset")
}

func tail[T any](records []T, limit int) []T {
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	out := make([]T, limit)
	copy(out, records[len(records)-limit:])
	return out
}
