// Package segment cuts uploaded audio into speech-bearing chunks using a
// voice activity detector.
package segment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"omniasr/internal/media"
	"omniasr/internal/model"
	"omniasr/internal/vad"
)

// Kind tells whether segmentation produced chunks.
type Kind int

const (
	// Unsegmented means no speech was detected; the caller transcribes the
	// whole file instead.
	Unsegmented Kind = iota
	// Segmented means Chunks holds at least one chunk.
	Segmented
)

func (k Kind) String() string {
	switch k {
	case Segmented:
		return "segmented"
	default:
		return "unsegmented"
	}
}

// Chunk is a contiguous slice of native-rate audio.
type Chunk struct {
	Index       int
	Samples     []float32
	SampleRate  int     // native rate of Samples
	StartSample int     // native-rate bounds of Samples in the source
	EndSample   int
	StartSec    float64 // from the analysis-rate span
	EndSec      float64
}

// Duration returns the span length in seconds.
func (c Chunk) Duration() float64 {
	return c.EndSec - c.StartSec
}

func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %.3fs-%.3fs", c.Index, c.StartSec, c.EndSec)
}

// Segmentation is the outcome of Segment.
type Segmentation struct {
	Kind   Kind
	Chunks []Chunk
	// Duration and SampleRate describe the native waveform. Both are zero
	// for Unsegmented results.
	Duration   float64
	SampleRate int
}

// Segmenter combines a decoder and a detector.
type Segmenter struct {
	decoder  media.Decoder
	detector vad.Detector
	opts     vad.Options
	log      *zap.SugaredLogger
}

// New returns a Segmenter using opts as the detector thresholds.
func New(decoder media.Decoder, detector vad.Detector, opts vad.Options, logger *zap.SugaredLogger) *Segmenter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Segmenter{
		decoder:  decoder,
		detector: detector,
		opts:     opts,
		log:      logger.With("component", "segment.Segmenter"),
	}
}

// Segment decodes data at the analysis rate, runs the detector and slices
// the native-rate waveform along the reported spans. Decode failures are
// model.ErrInvalidInput; detector failures are model.ErrTranscriptionFailed.
func (s *Segmenter) Segment(ctx context.Context, data []byte, filename string) (Segmentation, error) {
	analysis, err := s.decoder.Read(ctx, data, filename, media.AnalysisRate)
	if err != nil {
		return Segmentation{}, model.InvalidInput(err)
	}

	spans, err := s.detector.SpeechSpans(ctx, analysis, s.opts)
	if err != nil {
		return Segmentation{}, model.TranscriptionFailed(fmt.Errorf("voice activity detection: %w", err))
	}
	if err := vad.Validate(spans, len(analysis.Samples)); err != nil {
		return Segmentation{}, model.TranscriptionFailed(err)
	}
	s.log.Infow("speech spans detected", "filename", filename, "spans", len(spans))

	if len(spans) == 0 {
		return Segmentation{Kind: Unsegmented}, nil
	}

	native, err := s.decoder.Read(ctx, data, filename, 0)
	if err != nil {
		return Segmentation{}, model.InvalidInput(err)
	}
	if native.SampleRate <= 0 {
		return Segmentation{}, model.InvalidInput(fmt.Errorf("unknown sample rate"))
	}

	chunks := Slice(native, spans)
	if len(chunks) == 0 {
		s.log.Warnw("speech spans fall outside the decoded audio", "filename", filename)
		return Segmentation{Kind: Unsegmented}, nil
	}

	return Segmentation{
		Kind:       Segmented,
		Chunks:     chunks,
		Duration:   native.Duration(),
		SampleRate: native.SampleRate,
	}, nil
}

// Slice maps analysis-rate spans onto the native waveform. Sample bounds are
// scaled by native/analysis and floored; timestamps come from the analysis
// bounds. Spans that land entirely past the end of the waveform are dropped.
func Slice(native media.Waveform, spans []vad.SpeechSpan) []Chunk {
	chunks := make([]Chunk, 0, len(spans))
	for _, span := range spans {
		start := rescale(span.Start, native.SampleRate)
		end := rescale(span.End, native.SampleRate)
		samples := native.Slice(start, end)
		if len(samples) == 0 {
			continue
		}
		chunks = append(chunks, Chunk{
			Index:       len(chunks),
			Samples:     samples,
			SampleRate:  native.SampleRate,
			StartSample: start,
			EndSample:   start + len(samples),
			StartSec:    float64(span.Start) / media.AnalysisRate,
			EndSec:      float64(span.End) / media.AnalysisRate,
		})
	}
	return chunks
}

func rescale(sample, nativeRate int) int {
	return int(int64(sample) * int64(nativeRate) / media.AnalysisRate)
}
