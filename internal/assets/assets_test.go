package assets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDecide(t *testing.T) {
	limited := fmt.Errorf("%w: 429", ErrRateLimited)
	tests := []struct {
		name    string
		attempt int
		err     error
		want    Decision
	}{
		{"first rate limit", 1, limited, Decision{Retry: true, Delay: 30 * time.Second}},
		{"second rate limit", 2, limited, Decision{Retry: true, Delay: 60 * time.Second}},
		{"attempts exhausted", 3, limited, Decision{}},
		{"other error", 1, errors.New("not found"), Decision{}},
		{"no error", 1, nil, Decision{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.attempt, tt.err); got != tt.want {
				t.Fatalf("Decide(%d) = %+v, want %+v", tt.attempt, got, tt.want)
			}
		})
	}
}

type scriptedFetcher struct {
	errs  []error
	calls int
}

func (f *scriptedFetcher) Fetch(_ context.Context, _, dst string) error {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	return os.WriteFile(dst, []byte("weights"), 0o644)
}

func newTestAcquirer(t *testing.T, f Fetcher) (*Acquirer, *[]time.Duration) {
	t.Helper()
	a := NewAcquirer(t.TempDir(), f, nil)
	var slept []time.Duration
	a.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return a, &slept
}

func TestAcquireRetriesRateLimit(t *testing.T) {
	f := &scriptedFetcher{errs: []error{ErrRateLimited, ErrRateLimited}}
	a, slept := newTestAcquirer(t, f)

	paths, err := a.Acquire(context.Background(), []string{"https://example.com/m/model.pt"})
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if f.calls != 3 {
		t.Fatalf("fetch calls = %d", f.calls)
	}
	if len(*slept) != 2 || (*slept)[0] != 30*time.Second || (*slept)[1] != 60*time.Second {
		t.Fatalf("sleeps = %v", *slept)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "model.pt" {
		t.Fatalf("paths = %v", paths)
	}
}

func TestAcquireGivesUp(t *testing.T) {
	f := &scriptedFetcher{errs: []error{ErrRateLimited, ErrRateLimited, ErrRateLimited}}
	a, _ := newTestAcquirer(t, f)

	_, err := a.Acquire(context.Background(), []string{"https://example.com/model.pt"})
	if !errors.Is(err, ErrAcquisitionFailed) || !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected wrapped acquisition failure, got %v", err)
	}
	if f.calls != 3 {
		t.Fatalf("fetch calls = %d", f.calls)
	}
}

func TestAcquireDoesNotRetryOtherErrors(t *testing.T) {
	f := &scriptedFetcher{errs: []error{errors.New("404")}}
	a, slept := newTestAcquirer(t, f)

	if _, err := a.Acquire(context.Background(), []string{"https://example.com/model.pt"}); !errors.Is(err, ErrAcquisitionFailed) {
		t.Fatalf("expected ErrAcquisitionFailed, got %v", err)
	}
	if f.calls != 1 || len(*slept) != 0 {
		t.Fatalf("calls = %d, sleeps = %v", f.calls, *slept)
	}
}

func TestAcquireSkipsExistingFiles(t *testing.T) {
	f := &scriptedFetcher{}
	a, _ := newTestAcquirer(t, f)
	if err := os.WriteFile(filepath.Join(a.Dir, "vad.jit"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Acquire(context.Background(), []string{"https://example.com/vad.jit"}); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if f.calls != 0 {
		t.Fatalf("fetch calls = %d", f.calls)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.bin":
			w.Write([]byte("payload"))
		case "/limited.bin":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/forbidden.bin":
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("API rate limit exceeded"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := HTTPFetcher{Client: srv.Client()}

	dst := filepath.Join(dir, "ok.bin")
	if err := f.Fetch(context.Background(), srv.URL+"/ok.bin", dst); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if data, _ := os.ReadFile(dst); string(data) != "payload" {
		t.Fatalf("downloaded %q", data)
	}

	for _, p := range []string{"/limited.bin", "/forbidden.bin"} {
		if err := f.Fetch(context.Background(), srv.URL+p, filepath.Join(dir, "x")); !errors.Is(err, ErrRateLimited) {
			t.Fatalf("%s: expected ErrRateLimited, got %v", p, err)
		}
	}
	if err := f.Fetch(context.Background(), srv.URL+"/missing.bin", filepath.Join(dir, "y")); err == nil || errors.Is(err, ErrRateLimited) {
		t.Fatalf("missing: unexpected error %v", err)
	}
}
