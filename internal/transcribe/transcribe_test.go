package transcribe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"omniasr/internal/cache"
	"omniasr/internal/media"
	"omniasr/internal/metrics"
	"omniasr/internal/model"
	"omniasr/internal/segment"
	"omniasr/internal/stt"
	"omniasr/internal/stt/sttmock"
	"omniasr/internal/vad"
	"omniasr/internal/vad/vadmock"
)

type fixedDecoder struct {
	native  int
	seconds float64
	err     error
}

func (d fixedDecoder) Read(_ context.Context, _ []byte, _ string, rate int) (media.Waveform, error) {
	if d.err != nil {
		return media.Waveform{}, d.err
	}
	if rate == 0 {
		rate = d.native
	}
	return media.Waveform{Samples: make([]float32, int(d.seconds*float64(rate))), SampleRate: rate}, nil
}

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func threeChunks() segment.Segmentation {
	return segment.Segmentation{
		Kind: segment.Segmented,
		Chunks: []segment.Chunk{
			{Index: 0, Samples: make([]float32, 160), SampleRate: 16000, StartSec: 0.1234, EndSec: 1.0},
			{Index: 1, Samples: make([]float32, 160), SampleRate: 16000, StartSec: 1.5, EndSec: 2.0},
			{Index: 2, Samples: make([]float32, 160), SampleRate: 16000, StartSec: 2.5, EndSec: 3.4567},
		},
		Duration:   4.012,
		SampleRate: 16000,
	}
}

func TestWholeFileSingleSegment(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := sttmock.NewMockEngine(ctrl)
	engine.EXPECT().
		Transcribe(gomock.Any(), gomock.Len(1), []string{"eng_Latn"}, stt.DefaultBatchSize).
		Return([]string{"hello world"}, nil)

	orch := NewOrchestrator(engine, fixedDecoder{native: 16000, seconds: 5}, nil, 0,
		WithClock(stepClock(1234567*time.Microsecond)))

	res, err := orch.Whole(context.Background(), []byte("audio"), "a.wav", "eng_Latn")
	if err != nil {
		t.Fatalf("Whole() error: %v", err)
	}
	if res.Transcription != "hello world" || res.AudioDuration != 5.0 || res.SegmentsCount != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	want := model.Segment{Start: 0, End: 5.0, Text: "hello world"}
	if len(res.Segments) != 1 || res.Segments[0] != want {
		t.Fatalf("segments = %+v", res.Segments)
	}
	if res.ProcessingTime != 1.235 {
		t.Fatalf("processing time = %v", res.ProcessingTime)
	}
	if res.Language != "eng_Latn" {
		t.Fatalf("language = %q", res.Language)
	}
}

func TestWholeFileKeepsEngineTextVerbatim(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := sttmock.NewMockEngine(ctrl)
	engine.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]string{" padded "}, nil)

	orch := NewOrchestrator(engine, fixedDecoder{native: 8000, seconds: 1.234}, nil, 2)
	res, err := orch.Whole(context.Background(), []byte("audio"), "a.wav", "eng_Latn")
	if err != nil {
		t.Fatalf("Whole() error: %v", err)
	}
	if res.Transcription != " padded " || res.Segments[0].Text != " padded " {
		t.Fatalf("text was altered: %q", res.Transcription)
	}
	if res.AudioDuration != 1.23 || res.Segments[0].End != 1.23 {
		t.Fatalf("duration = %v", res.AudioDuration)
	}
}

func TestWholeFileDecodeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := sttmock.NewMockEngine(ctrl)

	orch := NewOrchestrator(engine, fixedDecoder{err: errors.New("bad header")}, nil, 4)
	_, err := orch.Whole(context.Background(), []byte("junk"), "a.wav", "eng_Latn")
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWholeFileEngineFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := sttmock.NewMockEngine(ctrl)
	boom := errors.New("backend down")
	engine.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)

	orch := NewOrchestrator(engine, fixedDecoder{native: 16000, seconds: 1}, nil, 4)
	_, err := orch.Whole(context.Background(), []byte("audio"), "a.wav", "eng_Latn")
	if !errors.Is(err, model.ErrTranscriptionFailed) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped engine failure, got %v", err)
	}
}

func TestChunkedDropsEmptyTexts(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := sttmock.NewMockEngine(ctrl)
	engine.EXPECT().
		Transcribe(gomock.Any(), gomock.Any(), []string{"fra_Latn", "fra_Latn", "fra_Latn"}, 4).
		DoAndReturn(func(_ context.Context, inputs []stt.Input, _ []string, _ int) ([]string, error) {
			for i, in := range inputs {
				if !media.IsWAV(in.Audio) {
					t.Errorf("input %d is not WAV", i)
				}
			}
			if inputs[2].Name != "chunk_002.wav" {
				t.Errorf("input name = %q", inputs[2].Name)
			}
			return []string{"hi", "  ", " bye"}, nil
		})

	orch := NewOrchestrator(engine, fixedDecoder{native: 16000, seconds: 5}, nil, 4,
		WithClock(stepClock(500*time.Millisecond)))
	res, err := orch.Chunked(context.Background(), []byte("audio"), "long.wav", "fra_Latn", threeChunks())
	if err != nil {
		t.Fatalf("Chunked() error: %v", err)
	}
	if res.Transcription != "hi bye" || res.SegmentsCount != 2 || len(res.Segments) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Segments[0] != (model.Segment{Start: 0.123, End: 1.0, Text: "hi"}) {
		t.Fatalf("first segment = %+v", res.Segments[0])
	}
	if res.Segments[1] != (model.Segment{Start: 2.5, End: 3.457, Text: "bye"}) {
		t.Fatalf("second segment = %+v", res.Segments[1])
	}
	if res.AudioDuration != 4.01 {
		t.Fatalf("audio duration = %v", res.AudioDuration)
	}
	if res.ProcessingTime != 0.5 {
		t.Fatalf("processing time = %v", res.ProcessingTime)
	}
}

func TestChunkedLengthMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := sttmock.NewMockEngine(ctrl)
	engine.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]string{"only one"}, nil)

	orch := NewOrchestrator(engine, fixedDecoder{native: 16000, seconds: 5}, nil, 4)
	_, err := orch.Chunked(context.Background(), []byte("audio"), "long.wav", "eng_Latn", threeChunks())
	if !errors.Is(err, model.ErrTranscriptionFailed) {
		t.Fatalf("expected ErrTranscriptionFailed, got %v", err)
	}
}

func TestUnsegmentedMatchesWholeFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := sttmock.NewMockEngine(ctrl)
	engine.EXPECT().Transcribe(gomock.Any(), gomock.Len(1), gomock.Any(), gomock.Any()).
		Return([]string{"same text"}, nil).Times(2)

	dec := fixedDecoder{native: 22050, seconds: 2.5}
	whole, err := NewOrchestrator(engine, dec, nil, 4, WithClock(stepClock(time.Second))).
		Whole(context.Background(), []byte("audio"), "a.wav", "eng_Latn")
	if err != nil {
		t.Fatalf("Whole() error: %v", err)
	}
	fallback, err := NewOrchestrator(engine, dec, nil, 4, WithClock(stepClock(time.Second))).
		Chunked(context.Background(), []byte("audio"), "a.wav", "eng_Latn", segment.Segmentation{Kind: segment.Unsegmented})
	if err != nil {
		t.Fatalf("Chunked() error: %v", err)
	}
	if whole.Transcription != fallback.Transcription || whole.AudioDuration != fallback.AudioDuration ||
		whole.SegmentsCount != fallback.SegmentsCount || whole.Segments[0] != fallback.Segments[0] {
		t.Fatalf("fallback %+v differs from whole %+v", fallback, whole)
	}
}

func TestLargeSegmentsThenTranscribes(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := sttmock.NewMockEngine(ctrl)
	detector := vadmock.NewMockDetector(ctrl)
	dec := fixedDecoder{native: 44100, seconds: 3}

	detector.EXPECT().SpeechSpans(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]vad.SpeechSpan{{Start: 0, End: 8000}, {Start: 24000, End: 40000}}, nil)
	engine.EXPECT().Transcribe(gomock.Any(), gomock.Len(2), []string{"eng_Latn", "eng_Latn"}, 4).
		Return([]string{"one", "two"}, nil)

	seg := segment.New(dec, detector, vad.DefaultOptions(), nil)
	res, err := NewOrchestrator(engine, dec, seg, 4).Large(context.Background(), []byte("audio"), "a.wav", "eng_Latn")
	if err != nil {
		t.Fatalf("Large() error: %v", err)
	}
	if res.Transcription != "one two" || res.AudioDuration != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Segments[0].End != 0.5 || res.Segments[1].Start != 1.5 || res.Segments[1].End != 2.5 {
		t.Fatalf("segments = %+v", res.Segments)
	}
}

func TestAssemble(t *testing.T) {
	chunks := threeChunks().Chunks
	tests := []struct {
		name     string
		texts    []string
		want     string
		segments int
	}{
		{"all kept", []string{"a", "b", "c"}, "a b c", 3},
		{"middle empty", []string{"hi", "", "bye"}, "hi bye", 2},
		{"whitespace only", []string{" ", "\t", "\n"}, "", 0},
		{"trimmed", []string{" a ", "b\n", ""}, "a b", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, segments := Assemble(chunks, tt.texts)
			if text != tt.want || len(segments) != tt.segments {
				t.Fatalf("Assemble() = %q with %d segments", text, len(segments))
			}
			for _, s := range segments {
				if s.Text == "" || strings.TrimSpace(s.Text) != s.Text || s.Start > s.End {
					t.Fatalf("bad segment %+v", s)
				}
			}
		})
	}
}

func TestServiceCachesResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := sttmock.NewMockEngine(ctrl)
	engine.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]string{"hello"}, nil).Times(1)

	agg := metrics.NewAggregator()
	results := cache.NewTranscriptionCache(10, time.Hour)
	svc := NewService(NewOrchestrator(engine, fixedDecoder{native: 16000, seconds: 2}, nil, 4), results, agg)

	req := Request{Audio: []byte("audio"), Filename: "a.wav", Language: "eng_Latn", Mode: model.ModeStandard, RequestID: "first"}
	first, err := svc.Transcribe(context.Background(), req)
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if first.RequestID != "first" {
		t.Fatalf("request id = %q", first.RequestID)
	}

	req.RequestID = "second"
	second, err := svc.Transcribe(context.Background(), req)
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if second.RequestID != "second" || second.Transcription != "hello" {
		t.Fatalf("cached result = %+v", second)
	}

	stats := svc.CacheStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Fatalf("cache stats = %+v", stats)
	}
	sum := agg.Summary()
	if sum.TotalTranscriptions != 1 || sum.Counters["cache_hits_standard"] != 1 {
		t.Fatalf("summary = %+v", sum)
	}

	svc.ClearCache()
	if svc.CacheStats().Size != 0 {
		t.Fatal("cache not cleared")
	}
}

func TestServiceModesUseSeparateCacheEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := sttmock.NewMockEngine(ctrl)
	detector := vadmock.NewMockDetector(ctrl)
	dec := fixedDecoder{native: 16000, seconds: 2}

	detector.EXPECT().SpeechSpans(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	engine.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]string{"text"}, nil).Times(2)

	orch := NewOrchestrator(engine, dec, segment.New(dec, detector, vad.DefaultOptions(), nil), 4)
	svc := NewService(orch, cache.NewTranscriptionCache(10, time.Hour), nil)

	for _, mode := range []string{model.ModeStandard, model.ModeLarge} {
		if _, err := svc.Transcribe(context.Background(), Request{Audio: []byte("a"), Language: "eng_Latn", Mode: mode}); err != nil {
			t.Fatalf("Transcribe(%s) error: %v", mode, err)
		}
	}
	if got := svc.CacheStats().Size; got != 2 {
		t.Fatalf("cache size = %d", got)
	}
}

func TestServiceRecordsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := sttmock.NewMockEngine(ctrl)

	agg := metrics.NewAggregator()
	svc := NewService(NewOrchestrator(engine, fixedDecoder{err: errors.New("not audio")}, nil, 4),
		cache.NewTranscriptionCache(10, time.Hour), agg)

	_, err := svc.Transcribe(context.Background(), Request{Audio: []byte("x"), Language: "eng_Latn", RequestID: "r1"})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	errs := agg.RecentErrors(10)
	if len(errs) != 1 || errs[0].ErrorType != "InvalidInput" || errs[0].RequestID != "r1" {
		t.Fatalf("errors = %+v", errs)
	}
	recs := agg.RecentTranscriptions(10)
	if len(recs) != 1 || recs[0].Success {
		t.Fatalf("transcriptions = %+v", recs)
	}
	if svc.CacheStats().Size != 0 {
		t.Fatal("failure was cached")
	}
}

func TestNewRequestID(t *testing.T) {
	now := time.UnixMilli(1700000123456)
	id := NewRequestID([]byte("hello"), now)
	// sha256("hello") = 2cf24dba5fb0a30e...
	if id != "2cf24dba5fb0a30e-00123456" {
		t.Fatalf("NewRequestID() = %q", id)
	}
}
