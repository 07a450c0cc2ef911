// Package transcribe runs transcriptions end to end: whole-file and chunked
// engine calls, result assembly, caching and metrics.
package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"omniasr/internal/media"
	"omniasr/internal/model"
	"omniasr/internal/segment"
	"omniasr/internal/stt"
)

// Option configures an Orchestrator or a Service.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *zap.SugaredLogger
}

// WithClock overrides the time source used for timing and request ids.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Orchestrator submits audio to an engine and assembles the result.
type Orchestrator struct {
	engine    stt.Engine
	decoder   media.Decoder
	segmenter *segment.Segmenter
	batchSize int

	now func() time.Time
	log *zap.SugaredLogger
}

// NewOrchestrator wires an engine, the decoder used to measure whole files,
// and the segmenter used in large-file mode.
func NewOrchestrator(engine stt.Engine, decoder media.Decoder, segmenter *segment.Segmenter, batchSize int, opts ...Option) *Orchestrator {
	o := buildOptions(opts)
	if batchSize <= 0 {
		batchSize = stt.DefaultBatchSize
	}
	return &Orchestrator{
		engine:    engine,
		decoder:   decoder,
		segmenter: segmenter,
		batchSize: batchSize,
		now:       o.now,
		log:       o.logger.With("component", "transcribe.Orchestrator"),
	}
}

// Whole transcribes the file as a single input. The result has one segment
// spanning [0, audio_duration]. The request id is left empty.
func (o *Orchestrator) Whole(ctx context.Context, data []byte, filename, language string) (model.TranscriptionResult, error) {
	w, err := o.decoder.Read(ctx, data, filename, 0)
	if err != nil {
		return model.TranscriptionResult{}, model.InvalidInput(err)
	}
	if w.SampleRate <= 0 {
		return model.TranscriptionResult{}, model.InvalidInput(fmt.Errorf("unknown sample rate"))
	}
	duration := w.Duration()
	o.log.Infow("audio decoded", "filename", filename, "duration", duration)

	start := o.now()
	texts, err := o.engine.Transcribe(ctx, []stt.Input{{Name: filename, Audio: data}}, []string{language}, o.batchSize)
	elapsed := o.now().Sub(start)
	if err != nil {
		return model.TranscriptionResult{}, model.TranscriptionFailed(err)
	}
	if len(texts) != 1 {
		return model.TranscriptionResult{}, model.TranscriptionFailed(
			fmt.Errorf("engine returned %d transcriptions for 1 input", len(texts)))
	}
	o.log.Infow("transcription completed", "filename", filename, "elapsed", elapsed)

	rounded := model.Round(duration, 2)
	return model.TranscriptionResult{
		Transcription:  texts[0],
		Language:       language,
		ProcessingTime: model.Round(elapsed.Seconds(), 3),
		AudioDuration:  rounded,
		SegmentsCount:  1,
		Segments:       []model.Segment{{Start: 0, End: rounded, Text: texts[0]}},
	}, nil
}

// Large segments the file with the detector and transcribes the chunks,
// falling back to Whole when no speech is found.
func (o *Orchestrator) Large(ctx context.Context, data []byte, filename, language string) (model.TranscriptionResult, error) {
	seg, err := o.segmenter.Segment(ctx, data, filename)
	if err != nil {
		return model.TranscriptionResult{}, err
	}
	return o.Chunked(ctx, data, filename, language, seg)
}

// Chunked transcribes a segmentation in one batched engine call. An
// Unsegmented input is transcribed with Whole on the same bytes.
func (o *Orchestrator) Chunked(ctx context.Context, data []byte, filename, language string, seg segment.Segmentation) (model.TranscriptionResult, error) {
	if seg.Kind == segment.Unsegmented {
		o.log.Warnw("no speech detected, falling back to whole-file transcription", "filename", filename)
		return o.Whole(ctx, data, filename, language)
	}

	inputs := make([]stt.Input, len(seg.Chunks))
	languages := make([]string, len(seg.Chunks))
	for i, c := range seg.Chunks {
		wav, err := media.EncodeWAV(c.Samples, c.SampleRate)
		if err != nil {
			return model.TranscriptionResult{}, model.TranscriptionFailed(fmt.Errorf("encode chunk %d: %w", i, err))
		}
		inputs[i] = stt.Input{Name: fmt.Sprintf("chunk_%03d.wav", i), Audio: wav}
		languages[i] = language
	}

	start := o.now()
	texts, err := o.engine.Transcribe(ctx, inputs, languages, o.batchSize)
	elapsed := o.now().Sub(start)
	if err != nil {
		return model.TranscriptionResult{}, model.TranscriptionFailed(err)
	}
	if len(texts) != len(inputs) {
		return model.TranscriptionResult{}, model.TranscriptionFailed(
			fmt.Errorf("engine returned %d transcriptions for %d chunks", len(texts), len(inputs)))
	}
	o.log.Infow("batch transcription completed", "filename", filename, "chunks", len(inputs), "elapsed", elapsed)

	transcription, segments := Assemble(seg.Chunks, texts)
	o.log.Infow("segments generated", "filename", filename, "segments", len(segments))

	return model.TranscriptionResult{
		Transcription:  transcription,
		Language:       language,
		ProcessingTime: model.Round(elapsed.Seconds(), 3),
		AudioDuration:  model.Round(seg.Duration, 2),
		SegmentsCount:  len(segments),
		Segments:       segments,
	}, nil
}

// Assemble pairs texts with chunks by position. Texts are trimmed; empty
// ones are dropped together with their timestamps. The transcription is the
// retained texts joined by single spaces. len(texts) must equal
// len(chunks).
func Assemble(chunks []segment.Chunk, texts []string) (string, []model.Segment) {
	segments := make([]model.Segment, 0, len(texts))
	parts := make([]string, 0, len(texts))
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		segments = append(segments, model.Segment{
			Start: model.Round(chunks[i].StartSec, 3),
			End:   model.Round(chunks[i].EndSec, 3),
			Text:  text,
		})
	}
	return strings.Join(parts, " "), segments
}
