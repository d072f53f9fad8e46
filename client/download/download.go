package download

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Target is an open download destination.
type Target struct {
	file     *os.File
	w        io.Writer
	checksum *checksumVerifier
}

// Open prepares destPath for writing. Missing parent directories are
// created; failing to create them is reported as ErrCreateDir.
func Open(destPath string, optFns ...Option) (*Target, error) {
	if destPath == "" {
		return nil, errors.New("destPath must not be empty")
	}

	opts := options{perm: 0o644}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	if dir := filepath.Dir(destPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &Error{
				Err:    ErrCreateDir,
				Detail: err.Error(),
			}
		}
	}

	file, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, opts.perm)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	var w io.Writer = file
	if opts.checksum != nil {
		w = io.MultiWriter(file, opts.checksum)
	}

	return &Target{file: file, w: w, checksum: opts.checksum}, nil
}

func (t *Target) Write(p []byte) (int, error) {
	return t.w.Write(p)
}

// Name returns the path of the underlying file.
func (t *Target) Name() string { return t.file.Name() }

// Close syncs and closes the file. It is safe to call more than once.
func (t *Target) Close() error {
	if err := t.file.Sync(); err != nil && !errors.Is(err, os.ErrClosed) {
		_ = t.file.Close()
		return fmt.Errorf("syncing file: %w", err)
	}
	if err := t.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("closing file: %w", err)
	}

	return nil
}

// Verify checks the written bytes against the configured checksum, if any.
func (t *Target) Verify() error {
	return t.checksum.Verify()
}

// WriteFile writes data to destPath through a Target.
func WriteFile(destPath string, data []byte, optFns ...Option) error {
	t, err := Open(destPath, optFns...)
	if err != nil {
		return err
	}

	_, err = t.Write(data)

	return errors.Join(err, t.Close(), t.Verify())
}
