package download

import (
	"errors"
	"hash"
	"io/fs"
)

// Option defines optional settings for a download target.
//
// WithChecksum enables checksum validation of the written file.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
//
// WithPerm overrides the 0o644 mode of newly created files.
type Option func(*options) error

type options struct {
	checksum *checksumVerifier
	perm     fs.FileMode
}

func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

func WithPerm(perm fs.FileMode) Option {
	return func(opts *options) error {
		if perm == 0 {
			return errors.New("perm must not be zero")
		}

		opts.perm = perm
		return nil
	}
}
