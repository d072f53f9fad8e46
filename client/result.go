package client

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/entao/apphttp/client/download"
)

// DefaultCharset decodes text when the response declares no charset.
const DefaultCharset = "UTF-8"

// Result is the outcome of one request. Code is 0 if and only if a failure
// prevented a response from arriving.
type Result struct {
	url           string
	code          int
	message       string
	contentType   string
	contentLength int64
	header        http.Header
	body          []byte
	savedTo       string
	received      int64
	urlDecode     bool
	err           error
}

func (r *Result) URL() string     { return r.url }
func (r *Result) Code() int       { return r.code }
func (r *Result) Message() string { return r.message }

// ContentType returns the Content-Type header of the response.
func (r *Result) ContentType() string { return r.contentType }

// ContentLength returns the declared length, -1 when unknown. For gzip
// encoded responses it is the compressed length.
func (r *Result) ContentLength() int64 { return r.contentLength }

// Header returns the response headers. It must not be modified.
func (r *Result) Header() http.Header { return r.header }

// Received returns the number of body bytes read after decompression.
func (r *Result) Received() int64 { return r.received }

// SavedTo returns the file the body was written to, if any.
func (r *Result) SavedTo() string { return r.savedTo }

// Err returns the captured failure.
func (r *Result) Err() error { return r.err }

// OK reports whether the status is 2xx.
func (r *Result) OK() bool { return r.code >= 200 && r.code <= 299 }

// Bytes returns the buffered body. It is nil when the body was saved to a
// file or no response arrived.
func (r *Result) Bytes() []byte { return r.body }

// ValueBytes returns Bytes when the status is 2xx, nil otherwise.
func (r *Result) ValueBytes() []byte {
	if !r.OK() {
		return nil
	}
	return r.body
}

// Charset returns the upper-cased charset attribute of the Content-Type
// header, or "" when there is none.
func (r *Result) Charset() string { return parseCharset(r.contentType) }

// Text decodes the body using the response charset, falling back to
// defaultCharset, and to UTF-8 when that is empty. With WithURLDecode the
// percent escapes are resolved first, so they name bytes of that charset.
func (r *Result) Text(defaultCharset string) (string, error) {
	if r.body == nil {
		return "", nil
	}

	name := r.Charset()
	if name == "" {
		name = defaultCharset
	}

	body := r.body
	if r.urlDecode {
		s, err := url.QueryUnescape(string(body))
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrDecode, err)
		}
		body = []byte(s)
	}
	return decodeText(body, name)
}

// ValueText returns the decoded body of a 2xx response, or "" when the
// status is not 2xx or the charset is unknown.
func (r *Result) ValueText() string {
	if !r.OK() {
		return ""
	}
	s, err := r.Text(DefaultCharset)
	if err != nil {
		return ""
	}
	return s
}

// SniffCharset guesses the charset of the body from its content.
func (r *Result) SniffCharset() (string, error) {
	if len(r.body) == 0 {
		return "", errors.New("no body to inspect")
	}

	best, err := chardet.NewTextDetector().DetectBest(r.body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return strings.ToUpper(best.Charset), nil
}

// JSONObject parses a 2xx body as a JSON object. It returns nil when the
// body is empty or not an object.
func (r *Result) JSONObject() map[string]any {
	var m map[string]any
	if err := r.decodeValue(&m); err != nil {
		return nil
	}
	return m
}

// JSONArray parses a 2xx body as a JSON array. It returns nil when the
// body is empty or not an array.
func (r *Result) JSONArray() []any {
	var a []any
	if err := r.decodeValue(&a); err != nil {
		return nil
	}
	return a
}

func (r *Result) decodeValue(v any) error {
	s := r.ValueText()
	if s == "" {
		return fmt.Errorf("%w: empty body", ErrDecode)
	}
	if err := sonic.UnmarshalString(s, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// DecodeJSON parses a 2xx body into a T.
func DecodeJSON[T any](r *Result) (T, error) {
	var v T
	if !r.OK() {
		return v, fmt.Errorf("%w: status %d", ErrDecode, r.code)
	}
	if err := r.decodeValue(&v); err != nil {
		return v, err
	}
	return v, nil
}

// SaveTo writes the body of a 2xx response to path, creating missing
// parent directories.
func (r *Result) SaveTo(path string, opts ...download.Option) error {
	data := r.ValueBytes()
	if data == nil {
		return fmt.Errorf("%w: no body to save", ErrLocalIO)
	}
	if err := download.WriteFile(path, data, opts...); err != nil {
		return fmt.Errorf("%w: %w", ErrLocalIO, err)
	}
	return nil
}

// Category returns the sentinel error describing the failure, nil on
// success.
func (r *Result) Category() error { return category(r.err) }

// ErrorMessage describes the outcome for humans. Transport failures get a
// stable category text; without a captured error it is the status text.
func (r *Result) ErrorMessage() string {
	if r.err == nil {
		return http.StatusText(r.code)
	}
	if s, ok := categoryText[category(r.err)]; ok {
		return s
	}
	return r.err.Error()
}

// Dump logs the result at debug level.
func (r *Result) Dump(logger *slog.Logger) {
	logger.Debug("response", "url", r.url, "code", r.code, "message", r.message)

	for _, name := range slices.Sorted(maps.Keys(r.header)) {
		vs := r.header[name]
		value := strings.Join(vs, ",")
		if len(vs) != 1 {
			value = "[" + value + "]"
		}
		logger.Debug("response header", "name", name, "value", value)
	}

	if r.err != nil {
		logger.Debug("response error", "error", r.err)
	}

	if r.body != nil && allowDump(r.contentType) {
		s, err := r.Text(DefaultCharset)
		if err != nil {
			s = string(r.body)
		}
		logger.Debug("response body", "body", s)
	}
}

func (r *Result) String() string {
	if r.err != nil {
		return fmt.Sprintf("%s %d %s", r.url, r.code, r.ErrorMessage())
	}
	return fmt.Sprintf("%s %d %s", r.url, r.code, r.message)
}

// parseCharset extracts the charset attribute from a Content-Type value,
// "text/html; charset=gbk" yielding "GBK".
func parseCharset(contentType string) string {
	lower := strings.ToLower(contentType)

	i := strings.Index(lower, "charset")
	if i < 0 {
		return ""
	}
	rest := lower[i+len("charset"):]

	j := strings.IndexByte(rest, '=')
	if j < 0 {
		return ""
	}
	rest = rest[j+1:]

	if k := strings.IndexByte(rest, ';'); k >= 0 {
		rest = rest[:k]
	}

	return strings.ToUpper(strings.Trim(strings.TrimSpace(rest), `"'`))
}

func decodeText(b []byte, name string) (string, error) {
	if name == "" || strings.EqualFold(name, "UTF-8") || strings.EqualFold(name, "UTF8") {
		return string(b), nil
	}

	enc, _ := charset.Lookup(name)
	if enc == nil {
		return "", fmt.Errorf("%w: unknown charset %q", ErrDecode, name)
	}

	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return string(out), nil
}
