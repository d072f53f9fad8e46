package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"syscall"
)

// maxErrBodySize caps the response body quoted by a StatusError.
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrConnectionSetup covers malformed URLs, invalid request configuration
	// and transport failures that fit no narrower category.
	ErrConnectionSetup = errors.New("connection setup failed")
	ErrTimeout         = errors.New("request timeout")
	ErrNoRoute         = errors.New("no route to host")
	ErrSocket          = errors.New("socket error")
	// ErrNotFound marks a missing remote resource (404, 410) or a missing
	// local file part.
	ErrNotFound = errors.New("not found")
	// ErrLocalIO marks a failure to create or write the download target.
	ErrLocalIO = errors.New("local io failed")
	ErrDecode  = errors.New("decoding response failed")
	// ErrUnexpectedStatusCode is the sentinel wrapped by [StatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrForegroundBlocking is a usage error: Do was called from a task
	// running on a dispatch loop.
	ErrForegroundBlocking = errors.New("blocking request on the foreground loop")
	ErrRequestReused      = errors.New("request already sent")
)

// categories is searched in order by [Result.Category].
var categories = []error{
	ErrForegroundBlocking,
	ErrRequestReused,
	ErrTimeout,
	ErrNoRoute,
	ErrNotFound,
	ErrAuthFailure,
	ErrUnexpectedStatusCode,
	ErrSocket,
	ErrLocalIO,
	ErrDecode,
	ErrConnectionSetup,
}

// categoryText holds the stable messages reported instead of the raw error.
var categoryText = map[error]string{
	ErrTimeout:  "Request Timeout",
	ErrNoRoute:  "NO Router To Host",
	ErrSocket:   "Socket Error",
	ErrNotFound: "File Not Found",
}

// StatusError is captured when the server answers with a 4xx or 5xx status.
type StatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

func newStatusError(code int, body []byte) *StatusError {
	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	err := ErrUnexpectedStatusCode
	switch code {
	case http.StatusNotFound, http.StatusGone:
		err = errors.Join(ErrUnexpectedStatusCode, ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		err = errors.Join(ErrUnexpectedStatusCode, ErrAuthFailure)
	}

	return &StatusError{
		StatusCode: code,
		Body:       string(body),
		Err:        err,
	}
}

// category returns the first sentinel in categories that err wraps.
func category(err error) error {
	if err == nil {
		return nil
	}
	for _, c := range categories {
		if errors.Is(err, c) {
			return c
		}
	}
	return ErrConnectionSetup
}

// transportError tags an error returned while exchanging the request with
// the sentinel describing its cause.
func transportError(err error) error {
	var (
		ne  net.Error
		dns *net.DNSError
		op  *net.OpError
	)

	switch {
	case errors.Is(err, ErrTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return fmt.Errorf("%w: %w", ErrNoRoute, err)
	case errors.As(err, &dns):
		return fmt.Errorf("%w: %w", ErrConnectionSetup, err)
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE), errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &op):
		return fmt.Errorf("%w: %w", ErrSocket, err)
	default:
		return fmt.Errorf("%w: %w", ErrConnectionSetup, err)
	}
}

// localError tags a failure reading a file part.
func localError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrLocalIO, err)
}
