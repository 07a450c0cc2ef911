package model

import "math"

// Transcription modes. The mode is part of the cache key, so results produced
// by the whole-file path and the VAD path never collide.
const (
	ModeStandard = "standard"
	ModeLarge    = "large"
)

// Segment is one time-aligned piece of a transcript.
type Segment struct {
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
	Text  string  `json:"text"`
}

// TranscriptionResult is the payload returned to API callers verbatim.
type TranscriptionResult struct {
	Transcription  string    `json:"transcription"`
	Language       string    `json:"language"`
	ProcessingTime float64   `json:"processing_time"`
	AudioDuration  float64   `json:"audio_duration"`
	SegmentsCount  int       `json:"segments_count"`
	Segments       []Segment `json:"segments"`
	RequestID      string    `json:"request_id"`
}

// Clone returns a deep copy so callers never share the segment slice.
func (r TranscriptionResult) Clone() TranscriptionResult {
	out := r
	if r.Segments != nil {
		out.Segments = make([]Segment, len(r.Segments))
		copy(out.Segments, r.Segments)
	}
	return out
}

// RTF returns the real-time factor. Only an exact zero duration is guarded.
func RTF(processingTime, audioDuration float64) float64 {
	if audioDuration > 0 {
		return processingTime / audioDuration
	}
	return 0
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
