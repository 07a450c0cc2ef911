package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"time"

	"go.uber.org/zap"

	"omniasr/internal/model"
)

// TranscriptionCache stores transcription results keyed by the SHA-256 of
// the uploaded bytes, the language and the mode. The hash covers the raw
// upload, so identical PCM wrapped in different containers gets different
// keys.
type TranscriptionCache struct {
	store *ResultCache[model.TranscriptionResult]
	log   *zap.SugaredLogger
}

// NewTranscriptionCache returns a cache holding at most maxSize results for
// ttl each.
func NewTranscriptionCache(maxSize int, ttl time.Duration, opts ...Option) *TranscriptionCache {
	o := buildOptions(opts)
	return &TranscriptionCache{
		store: NewResultCache[model.TranscriptionResult](maxSize, ttl, opts...),
		log:   o.logger.With("component", "cache.TranscriptionCache"),
	}
}

// Key builds the content-addressed key "{mode}:{language}:{sha256hex}".
func Key(audio []byte, language, mode string) string {
	sum := sha256.Sum256(audio)
	return mode + ":" + language + ":" + hex.EncodeToString(sum[:])
}

// Get returns a copy of the cached result, if any. A nil cache always misses.
func (c *TranscriptionCache) Get(audio []byte, language, mode string) (model.TranscriptionResult, bool) {
	if c == nil {
		return model.TranscriptionResult{}, false
	}
	res, ok := c.store.Get(Key(audio, language, mode))
	if !ok {
		return model.TranscriptionResult{}, false
	}
	c.log.Infow("transcription cache hit", "mode", mode, "language", language)
	return res.Clone(), true
}

// Set stores a copy of result. A nil cache is a no-op.
func (c *TranscriptionCache) Set(audio []byte, language, mode string, result model.TranscriptionResult) {
	if c == nil {
		return
	}
	c.store.Set(Key(audio, language, mode), result.Clone())
	c.log.Infow("cached transcription", "mode", mode, "language", language)
}

// Stats returns the statistics of the underlying store.
func (c *TranscriptionCache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return c.store.Stats()
}

// Clear empties the cache and resets its counters.
func (c *TranscriptionCache) Clear() {
	if c == nil {
		return
	}
	c.store.Clear()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
