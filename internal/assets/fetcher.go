package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Fetcher downloads one asset to dst.
type Fetcher interface {
	Fetch(ctx context.Context, url, dst string) error
}

// HTTPFetcher fetches assets with a plain GET.
type HTTPFetcher struct {
	Client *http.Client
}

var _ Fetcher = HTTPFetcher{}

// Fetch writes the response body to dst. 429 responses, and 403 responses
// mentioning a rate limit, are reported as ErrRateLimited.
func (f HTTPFetcher) Fetch(ctx context.Context, url, dst string) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusTooManyRequests ||
			strings.Contains(strings.ToLower(string(body)), "rate limit") {
			return fmt.Errorf("%w: %s returned %d", ErrRateLimited, url, resp.StatusCode)
		}
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
