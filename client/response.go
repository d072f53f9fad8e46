package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"

	"github.com/entao/apphttp/client/download"
	"github.com/entao/apphttp/client/progress"
)

const (
	defaultBufferHint = 64
	maxBufferHint     = 8 << 20
)

// read fills res from resp. Error statuses are always buffered in memory,
// leaving any save target untouched. Bytes received before a failure are
// kept.
func (r *Request) read(resp *http.Response, wd *watchdog, res *Result) error {
	res.code = resp.StatusCode
	res.message = statusMessage(resp)
	res.contentType = resp.Header.Get("Content-Type")
	res.contentLength = resp.ContentLength
	res.header = resp.Header.Clone()

	var in io.Reader = &watchedReader{r: resp.Body, w: wd}
	if !resp.Uncompressed && strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		zr, err := gzip.NewReader(in)
		switch {
		case errors.Is(err, io.EOF):
			in = http.NoBody
		case err != nil:
			return r.readError(wd, err)
		default:
			defer zr.Close()
			in = zr
		}
	}

	if r.saveTo != "" && resp.StatusCode < http.StatusBadRequest {
		return r.readToFile(in, wd, res)
	}

	buf := bytes.NewBuffer(make([]byte, 0, bufferHint(resp.ContentLength)))
	n, err := progress.Copy(buf, in, resp.ContentLength, r.progress, r.client.dispatcher)
	res.received = n
	res.body = buf.Bytes()
	if err != nil {
		return r.readError(wd, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return newStatusError(resp.StatusCode, res.body)
	}

	return nil
}

func (r *Request) readToFile(in io.Reader, wd *watchdog, res *Result) error {
	t, err := download.Open(r.saveTo, r.saveOpts...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLocalIO, err)
	}
	res.savedTo = t.Name()

	n, err := progress.Copy(localWriter{t}, in, res.contentLength, r.progress, r.client.dispatcher)
	res.received = n
	if cerr := t.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: %w", ErrLocalIO, cerr)
	}
	if err != nil {
		return r.readError(wd, err)
	}

	if err := t.Verify(); err != nil {
		return fmt.Errorf("%w: %w", ErrLocalIO, err)
	}

	return nil
}

// readError sorts a failure while copying the body into local, decode or
// transport trouble.
func (r *Request) readError(wd *watchdog, err error) error {
	var corrupt flate.CorruptInputError
	switch {
	case errors.Is(err, ErrLocalIO):
		return err
	case errors.Is(err, gzip.ErrChecksum), errors.Is(err, gzip.ErrHeader), errors.As(err, &corrupt):
		return fmt.Errorf("%w: %w", ErrDecode, err)
	default:
		return transportError(wd.annotate(err))
	}
}

// localWriter tags write failures as local I/O errors.
type localWriter struct {
	w io.Writer
}

func (l localWriter) Write(p []byte) (int, error) {
	n, err := l.w.Write(p)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLocalIO, err)
	}
	return n, err
}

func bufferHint(declared int64) int {
	switch {
	case declared <= 0:
		return defaultBufferHint
	case declared > maxBufferHint:
		return maxBufferHint
	default:
		return int(declared)
	}
}

// statusMessage strips the code from the status line, "404 Not Found"
// becoming "Not Found".
func statusMessage(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}
