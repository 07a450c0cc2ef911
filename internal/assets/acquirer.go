package assets

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Acquirer makes sure every asset URL has a local copy under Dir.
type Acquirer struct {
	Dir     string
	Fetcher Fetcher
	Policy  Policy

	sleep func(context.Context, time.Duration) error
	log   *zap.SugaredLogger
}

// NewAcquirer returns an Acquirer using DefaultPolicy.
func NewAcquirer(dir string, fetcher Fetcher, logger *zap.SugaredLogger) *Acquirer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Acquirer{
		Dir:     dir,
		Fetcher: fetcher,
		Policy:  DefaultPolicy,
		sleep:   sleepContext,
		log:     logger.With("component", "assets.Acquirer"),
	}
}

// Acquire downloads missing assets and returns their local paths in order.
// Files already present are not fetched again.
func (a *Acquirer) Acquire(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquisitionFailed, err)
	}

	paths := make([]string, 0, len(urls))
	for _, u := range urls {
		dst := filepath.Join(a.Dir, path.Base(u))
		if _, err := os.Stat(dst); err == nil {
			a.log.Debugw("asset already present", "path", dst)
			paths = append(paths, dst)
			continue
		}
		if err := a.fetch(ctx, u, dst); err != nil {
			return nil, err
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

func (a *Acquirer) fetch(ctx context.Context, url, dst string) error {
	for attempt := 1; ; attempt++ {
		a.log.Infow("fetching model asset", "url", url, "attempt", attempt)
		err := a.Fetcher.Fetch(ctx, url, dst)
		if err == nil {
			a.log.Infow("model asset ready", "path", dst)
			return nil
		}

		d := a.Policy.Decide(attempt, err)
		if !d.Retry {
			a.log.Errorw("model asset acquisition failed", "url", url, "attempt", attempt, "error", err)
			return fmt.Errorf("%w: %w", ErrAcquisitionFailed, err)
		}
		a.log.Warnw("asset source rate limited, backing off",
			"url", url,
			"delay", d.Delay,
			"next_attempt", attempt+1,
			"max_attempts", a.Policy.MaxAttempts,
		)
		if err := a.sleep(ctx, d.Delay); err != nil {
			return fmt.Errorf("%w: %w", ErrAcquisitionFailed, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
