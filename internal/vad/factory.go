package vad

import (
	"net/http"

	"go.uber.org/zap"
)

// NewDetector returns a RemoteDetector when endpoint is set and the stub
// detector otherwise.
func NewDetector(endpoint string, client *http.Client, logger *zap.SugaredLogger) Detector {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if endpoint == "" {
		logger.Warnw("VAD_URL not set, using fixed-window stub detector")
		return StubDetector{}
	}
	logger.Infow("using remote VAD", "url", endpoint)
	return NewRemoteDetector(endpoint, client, logger)
}
