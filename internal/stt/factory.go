package stt

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"omniasr/internal/config"
)

// NewEngine creates the engine selected by cfg.ASREngine
func NewEngine(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (Engine, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	log := logger.With("component", "stt.factory")

	name := strings.ToLower(cfg.ASREngine)
	if name == "" {
		name = "stub"
		log.Warnw("ASR_ENGINE not set, defaulting to 'stub'")
	}

	switch name {
	case "stub":
		return StubEngine{}, nil
	case "remote":
		if cfg.ASRURL == "" {
			return nil, fmt.Errorf("ASR_URL is required for the remote engine")
		}
		log.Infow("creating remote engine", "url", cfg.ASRURL)
		return NewRemoteEngine(cfg.ASRURL, &http.Client{Timeout: cfg.EngineTimeout}, logger), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai engine")
		}
		log.Infow("creating OpenAI engine", "model", cfg.OpenAIModel)
		return NewOpenAIEngine(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger), nil
	case "google":
		if !IsGoogleAPIKey(cfg.GoogleKeyFile) && cfg.GoogleProjectID == "" {
			return nil, fmt.Errorf("GOOGLE_STT_PROJECT_ID is required when using service account credentials")
		}
		log.Infow("creating Google engine", "project", cfg.GoogleProjectID)
		return NewGoogleEngine(ctx, cfg.GoogleProjectID, cfg.GoogleKeyFile, logger)
	default:
		return nil, fmt.Errorf("unsupported ASR engine: %s. Supported: stub, remote, openai, google", name)
	}
}
