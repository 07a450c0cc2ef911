package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// Spool writes uploaded audio to a scratch directory so external tools such
// as ffmpeg can read it from disk.
type Spool struct {
	dir string
	seq atomic.Uint64
}

// NewSpool returns a spool rooted at dir, or at the OS temp dir when empty.
func NewSpool(dir string) (*Spool, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "omniasr")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	return &Spool{dir: dir}, nil
}

// Dir returns the spool directory.
func (s *Spool) Dir() string {
	return s.dir
}

// Write saves data under a unique name that keeps the original extension
// and returns its path.
func (s *Spool) Write(filename string, data []byte) (string, error) {
	id := fmt.Sprintf("upl_%d_%d", time.Now().UnixNano(), s.seq.Add(1))
	dst := filepath.Join(s.dir, id+sanitizeExt(filename))

	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return dst, nil
}

// Remove deletes a spooled file. Missing files are ignored.
func (s *Spool) Remove(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

/* helper */
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 {
		return ".bin"
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ".bin"
		}
	}
	return ext
}
