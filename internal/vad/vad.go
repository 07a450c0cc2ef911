// Package vad defines the voice activity detection collaborator and the
// speech spans it reports.
package vad

//go:generate mockgen -destination=vadmock/mock_detector.go -package=vadmock omniasr/internal/vad Detector

import (
	"context"
	"fmt"

	"omniasr/internal/media"
)

// SpeechSpan is a region of speech in samples at the analysis rate.
type SpeechSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Options are the detector thresholds.
type Options struct {
	MinSpeechMS  int `json:"min_speech_duration_ms" yaml:"min_speech_ms"`
	MaxSpeechS   int `json:"max_speech_duration_s" yaml:"max_speech_s"`
	MinSilenceMS int `json:"min_silence_duration_ms" yaml:"min_silence_ms"`
	PadMS        int `json:"speech_pad_ms" yaml:"speech_pad_ms"`
}

// DefaultOptions returns the thresholds used when none are configured.
func DefaultOptions() Options {
	return Options{
		MinSpeechMS:  250,
		MaxSpeechS:   40,
		MinSilenceMS: 500,
		PadMS:        100,
	}
}

// Detector finds speech in a waveform sampled at media.AnalysisRate. Spans
// are returned in ascending order and never overlap.
type Detector interface {
	SpeechSpans(ctx context.Context, w media.Waveform, opts Options) ([]SpeechSpan, error)
}

// Validate checks that spans are ordered, non-overlapping, non-empty and lie
// within a waveform of n samples.
func Validate(spans []SpeechSpan, n int) error {
	prevEnd := 0
	for i, s := range spans {
		if s.Start < 0 || s.End <= s.Start {
			return fmt.Errorf("span %d has invalid bounds [%d, %d)", i, s.Start, s.End)
		}
		if s.Start < prevEnd {
			return fmt.Errorf("span %d starts at %d before previous end %d", i, s.Start, prevEnd)
		}
		if n > 0 && s.Start >= n {
			return fmt.Errorf("span %d starts at %d past waveform end %d", i, s.Start, n)
		}
		prevEnd = s.End
	}
	return nil
}
