package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIEngine transcribes each input with the OpenAI audio API, running up
// to batchSize requests concurrently.
type OpenAIEngine struct {
	client *openai.Client
	model  string
	log    *zap.SugaredLogger
}

var _ Engine = (*OpenAIEngine)(nil)

// NewOpenAIEngine creates an engine for apiKey. An empty model selects
// whisper-1.
func NewOpenAIEngine(apiKey, model string, logger *zap.SugaredLogger) *OpenAIEngine {
	return NewOpenAIEngineWithConfig(openai.DefaultConfig(apiKey), model, logger)
}

// NewOpenAIEngineWithConfig creates an engine from a client config, which
// allows pointing at a compatible server.
func NewOpenAIEngineWithConfig(cfg openai.ClientConfig, model string, logger *zap.SugaredLogger) *OpenAIEngine {
	if model == "" {
		model = openai.Whisper1
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &OpenAIEngine{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    logger.With("component", "stt.OpenAIEngine"),
	}
}

func (e *OpenAIEngine) Name() string {
	return "openai"
}

func (e *OpenAIEngine) Transcribe(ctx context.Context, inputs []Input, languages []string, batchSize int) ([]string, error) {
	return transcribeEach(ctx, inputs, languages, batchSize, e.transcribeOne)
}

func (e *OpenAIEngine) transcribeOne(ctx context.Context, in Input, language string) (string, error) {
	req := openai.AudioRequest{
		Model:    e.model,
		FilePath: in.Name,
		Reader:   bytes.NewReader(in.Audio),
		Language: ISO1(language),
		Format:   openai.AudioResponseFormatJSON,
	}
	resp, err := e.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	e.log.Debugw("input transcribed", "name", in.Name, "language", language, "chars", len(resp.Text))
	return strings.TrimSpace(resp.Text), nil
}

// Languages returns the codes that map to a Whisper language.
func (e *OpenAIEngine) Languages(context.Context) ([]string, error) {
	return languagesWhere(func(lc languageCodes) bool { return lc.iso1 != "" }), nil
}
