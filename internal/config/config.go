package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPort             = "8080"
	DefaultLogLevel         = "info"
	DefaultMaxFileSizeMB    = 100
	DefaultASREngine        = "stub"
	DefaultOpenAIModel      = "whisper-1"
	DefaultModelCard        = "omniASR_LLM_7B"
	DefaultModelDir         = "models"
	DefaultBatchSize        = 4
	DefaultCacheMaxSize     = 50
	DefaultCacheTTL         = time.Hour
	DefaultLanguageCacheTTL = 24 * time.Hour
	DefaultShortAudioLimit  = 45 * time.Second
	DefaultEngineTimeout    = 10 * time.Minute
	DefaultShutdownTimeout  = 15 * time.Second

	DefaultVADMinSpeechMS  = 250
	DefaultVADMaxSpeechS   = 40
	DefaultVADMinSilenceMS = 500
	DefaultVADSpeechPadMS  = 100
)

// Config holds the service configuration. Values come from defaults, an
// optional YAML file and environment variables, in that order.
type Config struct {
	Port           string   `yaml:"port"`
	GRPCHealthAddr string   `yaml:"grpc_health_addr"`
	LogLevel       string   `yaml:"log_level"`
	APIKeys        []string `yaml:"api_keys"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxFileSizeMB  int      `yaml:"max_file_size_mb"`

	ASREngine       string        `yaml:"asr_engine"`
	ASRURL          string        `yaml:"asr_url"`
	VADURL          string        `yaml:"vad_url"`
	OpenAIAPIKey    string        `yaml:"openai_api_key"`
	OpenAIModel     string        `yaml:"openai_model"`
	GoogleProjectID string        `yaml:"google_stt_project_id"`
	GoogleKeyFile   string        `yaml:"google_stt_key_file"`
	EngineTimeout   time.Duration `yaml:"engine_timeout"`

	ModelCard   string   `yaml:"model_card"`
	ModelDir    string   `yaml:"model_dir"`
	ModelAssets []string `yaml:"model_assets"`

	BatchSize       int `yaml:"batch_size"`
	VADMinSpeechMS  int `yaml:"vad_min_speech_ms"`
	VADMaxSpeechS   int `yaml:"vad_max_speech_s"`
	VADMinSilenceMS int `yaml:"vad_min_silence_ms"`
	VADSpeechPadMS  int `yaml:"vad_speech_pad_ms"`

	CacheMaxSize     int           `yaml:"cache_max_size"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	LanguageCacheTTL time.Duration `yaml:"language_cache_ttl"`
	ShortAudioLimit  time.Duration `yaml:"short_audio_limit"`

	FFmpegPath      string        `yaml:"ffmpeg_path"`
	SpoolDir        string        `yaml:"spool_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns a Config populated with every default value.
func Default() Config {
	cfg := Config{}
	_ = cfg.Validate()
	return cfg
}

// Validate applies defaults and rejects out-of-range values.
func (c *Config) Validate() error {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unsupported log level %q", c.LogLevel)
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.MaxFileSizeMB == 0 {
		c.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if c.ASREngine == "" {
		c.ASREngine = DefaultASREngine
	}
	c.ASREngine = strings.ToLower(c.ASREngine)
	if c.OpenAIModel == "" {
		c.OpenAIModel = DefaultOpenAIModel
	}
	if c.EngineTimeout == 0 {
		c.EngineTimeout = DefaultEngineTimeout
	}
	if c.ModelCard == "" {
		c.ModelCard = DefaultModelCard
	}
	if c.ModelDir == "" {
		c.ModelDir = DefaultModelDir
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.VADMinSpeechMS == 0 {
		c.VADMinSpeechMS = DefaultVADMinSpeechMS
	}
	if c.VADMaxSpeechS == 0 {
		c.VADMaxSpeechS = DefaultVADMaxSpeechS
	}
	if c.VADMinSilenceMS == 0 {
		c.VADMinSilenceMS = DefaultVADMinSilenceMS
	}
	if c.VADSpeechPadMS == 0 {
		c.VADSpeechPadMS = DefaultVADSpeechPadMS
	}
	if c.CacheMaxSize == 0 {
		c.CacheMaxSize = DefaultCacheMaxSize
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.LanguageCacheTTL == 0 {
		c.LanguageCacheTTL = DefaultLanguageCacheTTL
	}
	if c.ShortAudioLimit == 0 {
		c.ShortAudioLimit = DefaultShortAudioLimit
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.MaxFileSizeMB < 0 {
		return fmt.Errorf("config: max_file_size_mb must be > 0, got %d", c.MaxFileSizeMB)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("config: batch_size must be >= 1, got %d", c.BatchSize)
	}
	if c.CacheMaxSize < 1 {
		return fmt.Errorf("config: cache_max_size must be >= 1, got %d", c.CacheMaxSize)
	}
	if c.CacheTTL < 0 || c.LanguageCacheTTL < 0 || c.ShortAudioLimit < 0 || c.EngineTimeout < 0 {
		return fmt.Errorf("config: durations must not be negative")
	}
	if c.VADMinSpeechMS < 0 || c.VADMaxSpeechS < 0 || c.VADMinSilenceMS < 0 || c.VADSpeechPadMS < 0 {
		return fmt.Errorf("config: VAD thresholds must not be negative")
	}
	switch c.ASREngine {
	case "stub", "remote", "openai", "google":
	default:
		return fmt.Errorf("config: unsupported ASR engine %q", c.ASREngine)
	}
	return nil
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (c Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// AuthEnabled reports whether API keys are enforced.
func (c Config) AuthEnabled() bool {
	return len(c.APIKeys) > 0
}
