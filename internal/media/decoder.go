package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/wav"
	"go.uber.org/zap"
)

// ErrNoSamples is returned when a file decodes to an empty waveform.
var ErrNoSamples = errors.New("audio contains no samples")

// Decoder turns raw uploaded bytes into a mono waveform. A sampleRate of 0
// keeps the file's native rate.
type Decoder interface {
	Read(ctx context.Context, data []byte, filename string, sampleRate int) (Waveform, error)
}

// WAVDecoder decodes RIFF/WAVE PCM in process.
type WAVDecoder struct{}

var _ Decoder = WAVDecoder{}

func (WAVDecoder) Read(_ context.Context, data []byte, _ string, sampleRate int) (Waveform, error) {
	return decodeWAV(data, sampleRate)
}

func decodeWAV(data []byte, sampleRate int) (Waveform, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return Waveform{}, fmt.Errorf("invalid WAV file")
	}

	buf, err := d.FullPCMBuffer()
	if err != nil && !errors.Is(err, io.EOF) {
		return Waveform{}, fmt.Errorf("read PCM buffer: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return Waveform{}, ErrNoSamples
	}

	native := int(d.SampleRate)
	if native <= 0 {
		return Waveform{}, fmt.Errorf("invalid WAV sample rate %d", native)
	}

	samples := toFloat(buf.Data, int(d.BitDepth))
	samples = Downmix(samples, int(d.NumChans))

	if sampleRate > 0 && sampleRate != native {
		samples = Resample(samples, native, sampleRate)
		native = sampleRate
	}
	return Waveform{Samples: samples, SampleRate: native}, nil
}

func toFloat(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	if bitDepth == 8 {
		for i, v := range data {
			out[i] = float32(v-128) / 128
		}
		return out
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(1) / float32(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(v) * scale
	}
	return out
}

// AutoDecoder sniffs the container and decodes WAV in process, delegating
// every other format to Fallback.
type AutoDecoder struct {
	Fallback Decoder
	Logger   *zap.SugaredLogger
}

var _ Decoder = (*AutoDecoder)(nil)

// NewAutoDecoder returns a decoder that uses ffmpeg for non-WAV input.
func NewAutoDecoder(fallback Decoder, logger *zap.SugaredLogger) *AutoDecoder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AutoDecoder{Fallback: fallback, Logger: logger.With("component", "media.AutoDecoder")}
}

func (a *AutoDecoder) Read(ctx context.Context, data []byte, filename string, sampleRate int) (Waveform, error) {
	if len(data) == 0 {
		return Waveform{}, ErrNoSamples
	}
	if IsWAV(data) {
		return decodeWAV(data, sampleRate)
	}
	if a.Fallback == nil {
		return Waveform{}, fmt.Errorf("unsupported audio format %q", mimetype.Detect(data).String())
	}
	a.Logger.Debugw("transcoding non-WAV input", "filename", filename, "mime", mimetype.Detect(data).String())
	return a.Fallback.Read(ctx, data, filename, sampleRate)
}

// IsWAV reports whether data looks like a WAVE file.
func IsWAV(data []byte) bool {
	return mimetype.Detect(data).Is("audio/wav")
}
