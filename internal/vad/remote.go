package vad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"omniasr/internal/media"
)

// RemoteDetector posts 16 kHz WAV audio to a VAD sidecar and reads back the
// speech spans as JSON.
type RemoteDetector struct {
	url    string
	client *http.Client
	log    *zap.SugaredLogger
}

var _ Detector = (*RemoteDetector)(nil)

// NewRemoteDetector creates a detector for the sidecar at endpoint.
func NewRemoteDetector(endpoint string, client *http.Client, logger *zap.SugaredLogger) *RemoteDetector {
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RemoteDetector{
		url:    endpoint,
		client: client,
		log:    logger.With("component", "vad.RemoteDetector"),
	}
}

type remoteResponse struct {
	Spans []SpeechSpan `json:"spans"`
	Error string       `json:"error,omitempty"`
}

// SpeechSpans sends the waveform with the thresholds as query parameters.
func (d *RemoteDetector) SpeechSpans(ctx context.Context, w media.Waveform, opts Options) ([]SpeechSpan, error) {
	body, err := media.EncodeWAV(w.Samples, w.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("encode vad input: %w", err)
	}

	u, err := url.Parse(d.url)
	if err != nil {
		return nil, fmt.Errorf("invalid VAD url: %w", err)
	}
	q := u.Query()
	q.Set("sampling_rate", strconv.Itoa(w.SampleRate))
	q.Set("min_speech_duration_ms", strconv.Itoa(opts.MinSpeechMS))
	q.Set("max_speech_duration_s", strconv.Itoa(opts.MaxSpeechS))
	q.Set("min_silence_duration_ms", strconv.Itoa(opts.MinSilenceMS))
	q.Set("speech_pad_ms", strconv.Itoa(opts.PadMS))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to VAD: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		d.log.Warnw("VAD returned error status", "status", resp.StatusCode, "body", preview(raw))
		return nil, fmt.Errorf("VAD returned status %d: %s", resp.StatusCode, preview(raw))
	}

	var parsed remoteResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse VAD response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("VAD error: %s", parsed.Error)
	}
	if err := Validate(parsed.Spans, len(w.Samples)); err != nil {
		return nil, fmt.Errorf("VAD returned malformed spans: %w", err)
	}

	d.log.Debugw("speech spans detected", "spans", len(parsed.Spans), "elapsed", time.Since(start))
	return parsed.Spans, nil
}

func preview(body []byte) string {
	if len(body) > 500 {
		return string(body[:500]) + "..."
	}
	return string(body)
}
