package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/entao/apphttp/client/dispatch"
	"github.com/entao/apphttp/client/progress"
)

const crlf = "\r\n"

var errUnknownSize = errors.New("part size unknown")

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// SizeCounter is an io.Writer that discards its input and counts the bytes.
type SizeCounter struct {
	n int64
}

func (c *SizeCounter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

func (c *SizeCounter) WriteString(s string) (int, error) {
	c.n += int64(len(s))
	return len(s), nil
}

// Add counts n bytes that were not written.
func (c *SizeCounter) Add(n int64) { c.n += n }

// Size returns the running byte count.
func (c *SizeCounter) Size() int64 { return c.n }

// multipartBody emits text arguments followed by file parts. The same
// routine feeds both the SizeCounter pre-pass and the real connection.
type multipartBody struct {
	boundary string
	files    []*FileParam
	d        dispatch.Dispatcher
}

func newMultipartBody(d dispatch.Dispatcher) *multipartBody {
	return &multipartBody{
		boundary: uuid.NewString(),
		d:        d,
	}
}

func (m *multipartBody) method() string { return http.MethodPost }
func (m *multipartBody) foldArgs() bool { return false }

func (m *multipartBody) contentType() string {
	return "multipart/form-data; boundary=" + m.boundary
}

func (m *multipartBody) dumpBody(*Args) string { return "" }

// size runs the encoder against a SizeCounter. File parts contribute their
// declared size and are not opened.
func (m *multipartBody) size(args *Args) (int64, error) {
	var c SizeCounter
	if err := m.writeTo(&c, args); err != nil {
		if errors.Is(err, errUnknownSize) {
			return -1, nil
		}
		return 0, err
	}
	return c.Size(), nil
}

func (m *multipartBody) writeTo(w io.Writer, args *Args) error {
	counter, counting := w.(*SizeCounter)
	pw := &partWriter{w: w}

	for k, v := range args.All() {
		pw.line("--", m.boundary)
		pw.line(`Content-Disposition: form-data; name="`, quoteEscaper.Replace(k), `"`)
		pw.line("Content-Type: text/plain;charset=utf-8")
		pw.line()
		pw.line(v)
	}

	for _, fp := range m.files {
		if pw.err != nil {
			return pw.err
		}

		var rc io.ReadCloser
		if !counting {
			var err error
			if rc, err = fp.Source.Open(); err != nil {
				return fmt.Errorf("opening part %q: %w", fp.Filename, err)
			}
		}

		pw.line("--", m.boundary)
		pw.line(`Content-Disposition: form-data; name="`, quoteEscaper.Replace(fp.Key), `"; filename="`, quoteEscaper.Replace(fp.Filename), `"`)
		pw.line("Content-Type: ", fp.MIME)
		pw.line("Content-Transfer-Encoding: binary")
		pw.line()

		if counting {
			n, err := fp.Source.Size()
			if err != nil {
				return fmt.Errorf("sizing part %q: %w", fp.Filename, err)
			}
			if n < 0 {
				return errUnknownSize
			}
			counter.Add(n)
		} else if err := m.copyPart(pw, rc, fp); err != nil {
			return err
		}

		pw.line()
	}

	pw.line("--", m.boundary, "--")

	return pw.err
}

func (m *multipartBody) copyPart(pw *partWriter, rc io.ReadCloser, fp *FileParam) error {
	defer rc.Close()

	if pw.err != nil {
		return pw.err
	}

	total, err := fp.Source.Size()
	if err != nil {
		total = -1
	}

	if _, err := progress.Copy(pw.w, rc, total, fp.Progress, m.d); err != nil {
		return fmt.Errorf("sending part %q: %w", fp.Filename, err)
	}

	return nil
}

// partWriter writes CRLF-terminated lines and remembers the first error.
type partWriter struct {
	w   io.Writer
	err error
}

func (p *partWriter) line(parts ...string) {
	for _, s := range parts {
		p.write(s)
	}
	p.write(crlf)
}

func (p *partWriter) write(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}
