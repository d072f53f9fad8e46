package download

import (
	"errors"
	"fmt"
)

var (
	ErrCreateDir        = errors.New("creating destination directory")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Error wraps a sentinel error with additional detail.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}
