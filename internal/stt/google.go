package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleScope   = "https://www.googleapis.com/auth/cloud-platform"
	googleBaseURL = "https://speech.googleapis.com/v1"
)

// GoogleEngine implements Engine using the Google Cloud Speech-to-Text REST API
type GoogleEngine struct {
	projectID  string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	useAPIKey  bool // true if using API key, false if using service account
	log        *zap.SugaredLogger
}

var _ Engine = (*GoogleEngine)(nil)

// IsGoogleAPIKey reports whether keyData looks like an API key rather than
// service account credentials.
func IsGoogleAPIKey(keyData string) bool {
	k := strings.TrimSpace(keyData)
	return len(k) == 39 && strings.HasPrefix(k, "AIzaSy")
}

// NewGoogleEngine creates a new Google engine
// keyData can be either:
//   - An API key (39 characters, typically starts with "AIzaSy")
//   - A file path to a JSON key file (e.g., "./keys/google-service-account.json")
//   - A JSON string containing the service account credentials
//   - Empty, to use application default credentials
func NewGoogleEngine(ctx context.Context, projectID, keyData string, logger *zap.SugaredLogger) (*GoogleEngine, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	log := logger.With("component", "stt.GoogleEngine")
	keyDataTrimmed := strings.TrimSpace(keyData)

	if IsGoogleAPIKey(keyDataTrimmed) {
		log.Infow("using API key authentication")
		return &GoogleEngine{
			projectID:  projectID,
			apiKey:     keyDataTrimmed,
			baseURL:    googleBaseURL,
			httpClient: &http.Client{Timeout: 90 * time.Second},
			useAPIKey:  true,
			log:        log,
		}, nil
	}

	var client *http.Client
	if keyDataTrimmed == "" {
		creds, err := google.FindDefaultCredentials(ctx, googleScope)
		if err != nil {
			return nil, fmt.Errorf("failed to find default credentials: %w. Please set GOOGLE_STT_KEY_FILE", err)
		}
		client = oauth2.NewClient(ctx, creds.TokenSource)
	} else {
		var jsonData []byte
		if strings.HasPrefix(keyDataTrimmed, "{") {
			log.Infow("using JSON credentials from environment")
			jsonData = []byte(keyDataTrimmed)
		} else {
			log.Infow("reading key file", "path", keyDataTrimmed)
			var err error
			jsonData, err = os.ReadFile(keyDataTrimmed)
			if err != nil {
				return nil, fmt.Errorf("failed to read key file '%s': %w", keyDataTrimmed, err)
			}
		}

		creds, err := google.CredentialsFromJSON(ctx, jsonData, googleScope)
		if err != nil {
			return nil, fmt.Errorf("failed to create credentials from JSON: %w", err)
		}
		client = oauth2.NewClient(ctx, creds.TokenSource)
	}
	client.Timeout = 90 * time.Second

	return &GoogleEngine{
		projectID:  projectID,
		baseURL:    googleBaseURL,
		httpClient: client,
		log:        log,
	}, nil
}

// Name returns the engine name
func (e *GoogleEngine) Name() string {
	return "google"
}

// googleRequest represents a Speech-to-Text recognize request
type googleRequest struct {
	Config googleConfig `json:"config"`
	Audio  googleAudio  `json:"audio"`
}

// googleConfig represents recognition config
type googleConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz,omitempty"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
	Model                      string `json:"model,omitempty"`
}

// googleAudio represents audio data
type googleAudio struct {
	Content string `json:"content"` // Base64 encoded
}

// googleResponse represents a Speech-to-Text recognize response
type googleResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
	Error *googleError `json:"error,omitempty"`
}

// googleError represents an API error
type googleError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Transcribe sends each input as its own recognize call, batchSize at a time.
func (e *GoogleEngine) Transcribe(ctx context.Context, inputs []Input, languages []string, batchSize int) ([]string, error) {
	return transcribeEach(ctx, inputs, languages, batchSize, e.transcribeOne)
}

func (e *GoogleEngine) transcribeOne(ctx context.Context, in Input, language string) (string, error) {
	encoding, sampleRate := googleAudioConfig(filepath.Ext(in.Name))

	reqJSON, err := json.Marshal(googleRequest{
		Config: googleConfig{
			Encoding:                   encoding,
			SampleRateHertz:            sampleRate,
			LanguageCode:               BCP47(language),
			EnableAutomaticPunctuation: true,
			Model:                      "latest_long",
		},
		Audio: googleAudio{Content: base64.StdEncoding.EncodeToString(in.Audio)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var apiURL string
	if e.useAPIKey {
		apiURL = fmt.Sprintf("%s/speech:recognize?key=%s", e.baseURL, e.apiKey)
	} else {
		apiURL = fmt.Sprintf("%s/projects/%s:recognize", e.baseURL, e.projectID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to Google Speech-to-Text: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var sttResp googleResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(body, &sttResp) == nil && sttResp.Error != nil {
			e.log.Warnw("API error", "code", sttResp.Error.Code, "status", sttResp.Error.Status, "message", sttResp.Error.Message)
			return "", fmt.Errorf("Google Speech-to-Text API error: %s", sttResp.Error.Message)
		}
		return "", fmt.Errorf("Google Speech-to-Text API returned status %d: %s", resp.StatusCode, preview(body))
	}
	if err := json.Unmarshal(body, &sttResp); err != nil {
		return "", fmt.Errorf("failed to parse Google Speech-to-Text response: %w", err)
	}
	if sttResp.Error != nil {
		return "", fmt.Errorf("Google Speech-to-Text API error: %s", sttResp.Error.Message)
	}

	// Long audio comes back as several results, one per utterance.
	parts := make([]string, 0, len(sttResp.Results))
	for _, r := range sttResp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		if t := strings.TrimSpace(r.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}

// Languages returns the codes that map to a Google locale.
func (e *GoogleEngine) Languages(context.Context) ([]string, error) {
	return languagesWhere(func(lc languageCodes) bool { return lc.bcp47 != "" }), nil
}

// googleAudioConfig determines encoding and sample rate based on file
// extension. WAV headers carry their own rate.
func googleAudioConfig(fileExt string) (string, int) {
	switch strings.ToLower(fileExt) {
	case ".mp3":
		return "MP3", 44100
	case ".ogg", ".opus":
		return "OGG_OPUS", 48000
	case ".webm":
		return "WEBM_OPUS", 48000
	case ".flac":
		return "FLAC", 0
	default:
		return "LINEAR16", 0
	}
}
