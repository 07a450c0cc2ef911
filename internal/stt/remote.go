package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RemoteEngine implements Engine against an inference sidecar that exposes
// POST /transcribe (multipart files + languages) and GET /languages.
type RemoteEngine struct {
	baseURL string
	client  *http.Client
	log     *zap.SugaredLogger
}

var _ Engine = (*RemoteEngine)(nil)

// NewRemoteEngine creates a new sidecar engine
func NewRemoteEngine(baseURL string, client *http.Client, logger *zap.SugaredLogger) *RemoteEngine {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RemoteEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     logger.With("component", "stt.RemoteEngine"),
	}
}

// Name returns the engine name
func (e *RemoteEngine) Name() string {
	return "remote"
}

// remoteResponse represents the sidecar response
type remoteResponse struct {
	Transcriptions []string `json:"transcriptions"`
	Languages      []string `json:"languages"`
	Error          string   `json:"error,omitempty"`
}

// Transcribe sends inputs in batches of batchSize, one request per batch,
// and concatenates the texts in order.
func (e *RemoteEngine) Transcribe(ctx context.Context, inputs []Input, languages []string, batchSize int) ([]string, error) {
	if err := checkInputs(inputs, languages); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(inputs))
	for _, b := range batches(len(inputs), batchSize) {
		texts, err := e.transcribeBatch(ctx, inputs[b[0]:b[1]], languages[b[0]:b[1]], batchSize)
		if err != nil {
			return nil, err
		}
		out = append(out, texts...)
	}
	return out, nil
}

func (e *RemoteEngine) transcribeBatch(ctx context.Context, inputs []Input, languages []string, batchSize int) ([]string, error) {
	startTime := time.Now()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i, in := range inputs {
		fw, err := mw.CreateFormFile("files", in.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := fw.Write(in.Audio); err != nil {
			return nil, fmt.Errorf("failed to write form file: %w", err)
		}
		if err := mw.WriteField("languages", languages[i]); err != nil {
			return nil, fmt.Errorf("failed to write language field: %w", err)
		}
	}
	if err := mw.WriteField("batch_size", strconv.Itoa(max(batchSize, 1))); err != nil {
		return nil, fmt.Errorf("failed to write batch size: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/transcribe", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	parsed, err := e.do(req)
	if err != nil {
		return nil, err
	}
	if len(parsed.Transcriptions) != len(inputs) {
		return nil, fmt.Errorf("engine returned %d transcriptions for %d inputs", len(parsed.Transcriptions), len(inputs))
	}

	e.log.Debugw("batch transcribed", "inputs", len(inputs), "elapsed", time.Since(startTime))
	return parsed.Transcriptions, nil
}

// Languages fetches the sidecar's language list.
func (e *RemoteEngine) Languages(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/languages", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	parsed, err := e.do(req)
	if err != nil {
		return nil, err
	}
	return parsed.Languages, nil
}

func (e *RemoteEngine) do(req *http.Request) (*remoteResponse, error) {
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to engine: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		e.log.Warnw("engine error", "status", resp.StatusCode, "body", preview(body))
		return nil, fmt.Errorf("engine returned status %d: %s", resp.StatusCode, preview(body))
	}

	var parsed remoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		e.log.Warnw("failed to parse engine response", "body", preview(body))
		return nil, fmt.Errorf("failed to parse engine response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("engine error: %s", parsed.Error)
	}
	return &parsed, nil
}

// preview truncates a response body for logs and error messages.
func preview(body []byte) string {
	if len(body) > 500 {
		return string(body[:500]) + "..."
	}
	return string(body)
}
