package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSpoolWriteAndRemove(t *testing.T) {
	spool, err := NewSpool(t.TempDir())
	if err != nil {
		t.Fatalf("NewSpool() error: %v", err)
	}

	path, err := spool.Write("talk.MP3", []byte("payload"))
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if filepath.Ext(path) != ".mp3" {
		t.Fatalf("extension = %q, want .mp3", filepath.Ext(path))
	}
	if filepath.Dir(path) != spool.Dir() {
		t.Fatalf("file written outside spool dir: %s", path)
	}
	got, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(got, []byte("payload")) {
		t.Fatalf("ReadFile() = %q, %v", got, err)
	}

	spool.Remove(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still present after Remove: %v", err)
	}
	spool.Remove(path)
}

func TestSpoolUniqueNames(t *testing.T) {
	spool, err := NewSpool(t.TempDir())
	if err != nil {
		t.Fatalf("NewSpool() error: %v", err)
	}
	a, _ := spool.Write("a.wav", nil)
	b, _ := spool.Write("a.wav", nil)
	if a == b {
		t.Fatalf("expected unique spool paths, got %s twice", a)
	}
}

func TestSanitizeExt(t *testing.T) {
	cases := map[string]string{
		"clip.wav":        ".wav",
		"clip.M4A":        ".m4a",
		"noext":           ".bin",
		"../../etc/pa$$.": ".bin",
		"x.verylongext":   ".bin",
	}
	for in, want := range cases {
		if got := sanitizeExt(in); got != want {
			t.Errorf("sanitizeExt(%q) = %q, want %q", in, got, want)
		}
	}
}
