package download_test

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/entao/apphttp/client/download"
)

func TestOpen_CreatesParentDirs(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "b", "c", "file.bin")

	if err := download.WriteFile(dest, []byte("payload")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("expected %q, got %q", "payload", got)
	}
}

func TestOpen_ParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := download.Open(filepath.Join(blocker, "sub", "file.bin"))
	if !errors.Is(err, download.ErrCreateDir) {
		t.Fatalf("expected ErrCreateDir, got %v", err)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := download.Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpen_Truncates(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(dest, []byte("a much longer previous content"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := download.WriteFile(dest, []byte("short")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := os.ReadFile(dest)
	if string(got) != "short" {
		t.Errorf("expected truncated file %q, got %q", "short", got)
	}
}

func TestChecksum(t *testing.T) {
	data := []byte("checksum me")
	sum := sha256.Sum256(data)
	good := hex.EncodeToString(sum[:])

	testCases := []struct {
		name     string
		expected string
		expErr   error
	}{
		{name: "match", expected: good},
		{name: "mismatch", expected: "deadbeef", expErr: download.ErrChecksumMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "file.bin")

			err := download.WriteFile(dest, data, download.WithChecksum(sha256.New(), tc.expected))
			if tc.expErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.expErr != nil && !errors.Is(err, tc.expErr) {
				t.Fatalf("expected %v, got %v", tc.expErr, err)
			}

			// The file is left in place either way.
			if _, err := os.Stat(dest); err != nil {
				t.Errorf("expected file to exist: %v", err)
			}
		})
	}
}

func TestOptions_Validation(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "file.bin")

	if _, err := download.Open(dest, download.WithChecksum(nil, "abc")); err == nil {
		t.Error("expected error for nil hash")
	}
	if _, err := download.Open(dest, download.WithChecksum(sha256.New(), "")); err == nil {
		t.Error("expected error for empty checksum")
	}
	if _, err := download.Open(dest, download.WithPerm(0)); err == nil {
		t.Error("expected error for zero perm")
	}
}
