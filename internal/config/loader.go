package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration from an optional YAML file and environment
// variables. Tests can override Lookup and ReadFile to inject deterministic
// inputs.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load loads configuration from the process environment
func Load() (Config, error) {
	return Loader{}.Load()
}

// Load applies defaults, then CONFIG_FILE, then environment variables, and
// validates the result.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	var cfg Config
	if path, ok := l.Lookup("CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		raw, err := l.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	overrideString(l.Lookup, "PORT", &cfg.Port)
	overrideString(l.Lookup, "GRPC_HEALTH_ADDR", &cfg.GRPCHealthAddr)
	overrideString(l.Lookup, "LOG_LEVEL", &cfg.LogLevel)
	overrideList(l.Lookup, "API_KEYS", &cfg.APIKeys)
	overrideList(l.Lookup, "ALLOWED_ORIGINS", &cfg.AllowedOrigins)
	collect(overrideInt(l.Lookup, "MAX_FILE_SIZE_MB", &cfg.MaxFileSizeMB))

	overrideString(l.Lookup, "ASR_ENGINE", &cfg.ASREngine)
	overrideString(l.Lookup, "ASR_URL", &cfg.ASRURL)
	overrideString(l.Lookup, "VAD_URL", &cfg.VADURL)
	overrideString(l.Lookup, "OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	overrideString(l.Lookup, "OPENAI_MODEL", &cfg.OpenAIModel)
	overrideString(l.Lookup, "GOOGLE_STT_PROJECT_ID", &cfg.GoogleProjectID)
	overrideString(l.Lookup, "GOOGLE_STT_KEY_FILE", &cfg.GoogleKeyFile)
	collect(overrideDuration(l.Lookup, "ENGINE_TIMEOUT", &cfg.EngineTimeout))

	overrideString(l.Lookup, "MODEL_CARD", &cfg.ModelCard)
	overrideString(l.Lookup, "MODEL_DIR", &cfg.ModelDir)
	overrideList(l.Lookup, "MODEL_ASSETS", &cfg.ModelAssets)

	collect(overrideInt(l.Lookup, "BATCH_SIZE", &cfg.BatchSize))
	collect(overrideInt(l.Lookup, "VAD_MIN_SPEECH_MS", &cfg.VADMinSpeechMS))
	collect(overrideInt(l.Lookup, "VAD_MAX_SPEECH_S", &cfg.VADMaxSpeechS))
	collect(overrideInt(l.Lookup, "VAD_MIN_SILENCE_MS", &cfg.VADMinSilenceMS))
	collect(overrideInt(l.Lookup, "VAD_SPEECH_PAD_MS", &cfg.VADSpeechPadMS))

	collect(overrideInt(l.Lookup, "CACHE_MAX_SIZE", &cfg.CacheMaxSize))
	collect(overrideDuration(l.Lookup, "CACHE_TTL", &cfg.CacheTTL))
	collect(overrideDuration(l.Lookup, "LANGUAGE_CACHE_TTL", &cfg.LanguageCacheTTL))
	collect(overrideDuration(l.Lookup, "SHORT_AUDIO_LIMIT", &cfg.ShortAudioLimit))

	overrideString(l.Lookup, "FFMPEG_PATH", &cfg.FFmpegPath)
	overrideString(l.Lookup, "SPOOL_DIR", &cfg.SpoolDir)
	collect(overrideDuration(l.Lookup, "SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout))

	if len(errs) > 0 {
		return Config{}, errs[0]
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideList(lookup func(string) (string, bool), key string, target *[]string) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*target = out
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	*target = n
	return nil
}

// overrideDuration accepts Go durations ("90s") or a bare number of seconds.
func overrideDuration(lookup func(string) (string, bool), key string, target *time.Duration) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	value = strings.TrimSpace(value)
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		*target = time.Duration(secs * float64(time.Second))
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("config: %s must be a duration: %w", key, err)
	}
	*target = d
	return nil
}
