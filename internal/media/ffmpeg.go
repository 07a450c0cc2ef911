package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"omniasr/internal/storage"
)

// FFmpegDecoder transcodes any container ffmpeg understands into mono WAV
// and decodes the result.
type FFmpegDecoder struct {
	Binary string
	Spool  *storage.Spool
	Logger *zap.SugaredLogger
}

var _ Decoder = (*FFmpegDecoder)(nil)

// NewFFmpegDecoder returns a decoder running binary (default "ffmpeg") on
// files written to spool.
func NewFFmpegDecoder(binary string, spool *storage.Spool, logger *zap.SugaredLogger) *FFmpegDecoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FFmpegDecoder{Binary: binary, Spool: spool, Logger: logger.With("component", "media.FFmpegDecoder")}
}

func (f *FFmpegDecoder) Read(ctx context.Context, data []byte, filename string, sampleRate int) (Waveform, error) {
	in, err := f.Spool.Write(filename, data)
	if err != nil {
		return Waveform{}, err
	}
	defer f.Spool.Remove(in)

	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	out := filepath.Join(filepath.Dir(in), base+"_mono.wav")
	defer f.Spool.Remove(out)

	// ffmpeg -y -i input -ac 1 [-ar rate] -f wav output
	args := []string{"-y", "-loglevel", "error", "-i", in, "-ac", "1"}
	if sampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(sampleRate))
	}
	args = append(args, "-f", "wav", out)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		f.Logger.Warnw("ffmpeg failed", "filename", filename, "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return Waveform{}, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	wavData, err := os.ReadFile(out)
	if err != nil {
		return Waveform{}, fmt.Errorf("read transcoded audio: %w", err)
	}
	return decodeWAV(wavData, sampleRate)
}
