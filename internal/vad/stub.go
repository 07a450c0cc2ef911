package vad

import (
	"context"

	"omniasr/internal/media"
)

// StubDetector cuts the waveform into fixed windows of MaxSpeechS seconds
// and reports every window containing any non-zero sample. Fully silent
// input yields no spans.
type StubDetector struct{}

var _ Detector = StubDetector{}

func (StubDetector) SpeechSpans(ctx context.Context, w media.Waveform, opts Options) ([]SpeechSpan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	window := opts.MaxSpeechS * w.SampleRate
	if window <= 0 {
		window = DefaultOptions().MaxSpeechS * w.SampleRate
	}
	if window <= 0 {
		return nil, nil
	}

	var spans []SpeechSpan
	for start := 0; start < len(w.Samples); start += window {
		end := min(start+window, len(w.Samples))
		if !silent(w.Samples[start:end]) {
			spans = append(spans, SpeechSpan{Start: start, End: end})
		}
	}
	return spans, nil
}

func silent(samples []float32) bool {
	for _, s := range samples {
		if s != 0 {
			return false
		}
	}
	return true
}
