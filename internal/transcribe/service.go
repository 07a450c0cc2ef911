package transcribe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"omniasr/internal/cache"
	"omniasr/internal/metrics"
	"omniasr/internal/model"
)

// Request is one transcription job.
type Request struct {
	Audio     []byte
	Filename  string
	Language  string
	Mode      string // model.ModeStandard or model.ModeLarge
	RequestID string // generated from the audio when empty
}

// Recorder receives transcription metrics. *metrics.Aggregator satisfies it.
type Recorder interface {
	RecordTranscription(rec metrics.TranscriptionRecord)
	RecordError(errorType, message, requestID string)
	RecordCacheHit(mode string)
}

var _ Recorder = (*metrics.Aggregator)(nil)

// Service fronts the orchestrator with the result cache and metrics.
type Service struct {
	orch    *Orchestrator
	cache   *cache.TranscriptionCache
	metrics Recorder

	now func() time.Time
	log *zap.SugaredLogger
}

// NewService returns a Service. A nil cache disables caching; a nil
// recorder disables metrics.
func NewService(orch *Orchestrator, results *cache.TranscriptionCache, recorder Recorder, opts ...Option) *Service {
	o := buildOptions(opts)
	return &Service{
		orch:    orch,
		cache:   results,
		metrics: recorder,
		now:     o.now,
		log:     o.logger.With("component", "transcribe.Service"),
	}
}

// Transcribe serves req from the cache when possible, otherwise runs the
// path selected by req.Mode and caches the result. A cached result is
// returned with the current request id.
func (s *Service) Transcribe(ctx context.Context, req Request) (model.TranscriptionResult, error) {
	if req.RequestID == "" {
		req.RequestID = NewRequestID(req.Audio, s.now())
	}
	if req.Mode == "" {
		req.Mode = model.ModeStandard
	}
	log := s.log.With("request_id", req.RequestID, "mode", req.Mode)

	if cached, ok := s.cache.Get(req.Audio, req.Language, req.Mode); ok {
		log.Infow("returning cached result")
		if s.metrics != nil {
			s.metrics.RecordCacheHit(req.Mode)
		}
		cached.RequestID = req.RequestID
		return cached, nil
	}

	log.Infow("starting transcription", "filename", req.Filename, "language", req.Language, "bytes", len(req.Audio))

	var (
		result model.TranscriptionResult
		err    error
	)
	switch req.Mode {
	case model.ModeStandard:
		result, err = s.orch.Whole(ctx, req.Audio, req.Filename, req.Language)
	case model.ModeLarge:
		result, err = s.orch.Large(ctx, req.Audio, req.Filename, req.Language)
	default:
		err = fmt.Errorf("unknown transcription mode %q", req.Mode)
	}
	if err != nil {
		log.Errorw("transcription failed", "error", err)
		s.recordFailure(req, err)
		return model.TranscriptionResult{}, err
	}

	result.RequestID = req.RequestID
	s.cache.Set(req.Audio, req.Language, req.Mode, result)

	if s.metrics != nil {
		s.metrics.RecordTranscription(metrics.TranscriptionRecord{
			RequestID:      req.RequestID,
			Language:       req.Language,
			AudioDuration:  result.AudioDuration,
			ProcessingTime: result.ProcessingTime,
			SegmentsCount:  result.SegmentsCount,
			Mode:           req.Mode,
			Success:        true,
		})
	}
	log.Infow("transcription finished",
		"audio_duration", result.AudioDuration,
		"processing_time", result.ProcessingTime,
		"segments", result.SegmentsCount,
	)
	return result, nil
}

func (s *Service) recordFailure(req Request, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordTranscription(metrics.TranscriptionRecord{
		RequestID: req.RequestID,
		Language:  req.Language,
		Mode:      req.Mode,
		Success:   false,
		Error:     err.Error(),
	})
	s.metrics.RecordError(model.Kind(err), model.Cause(err), req.RequestID)
}

// CacheStats returns the result cache statistics.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ClearCache empties the result cache.
func (s *Service) ClearCache() {
	s.cache.Clear()
}
