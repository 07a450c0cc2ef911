// Package assets downloads model assets once at startup, retrying with
// exponential backoff when the source rate-limits.
package assets

import (
	"errors"
	"time"
)

var (
	// ErrRateLimited marks a transient refusal from the asset source. Only
	// this condition is retried.
	ErrRateLimited = errors.New("asset source rate limited")
	// ErrAcquisitionFailed is returned once retries are exhausted or a
	// non-retryable error occurs. It is fatal at startup.
	ErrAcquisitionFailed = errors.New("model acquisition failed")
)

// Policy bounds the retry loop.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultPolicy allows 3 attempts, waiting 30s then 60s.
var DefaultPolicy = Policy{MaxAttempts: 3, InitialDelay: 30 * time.Second, Multiplier: 2}

// Decision is the outcome of a failed attempt.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Decide applies DefaultPolicy.
func Decide(attempt int, err error) Decision {
	return DefaultPolicy.Decide(attempt, err)
}

// Decide reports whether to retry after attempt (1-based) failed with err,
// and how long to wait first.
func (p Policy) Decide(attempt int, err error) Decision {
	if err == nil || !errors.Is(err, ErrRateLimited) || attempt >= p.MaxAttempts {
		return Decision{}
	}
	delay := p.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return Decision{Retry: true, Delay: delay}
}
