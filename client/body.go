package client

import (
	"io"
	"net/http"
	"strings"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded;charset=utf-8"
	contentTypeJSON = "application/json;charset=utf-8"
	contentTypeXML  = "application/xml;charset=utf-8"
)

// bodyEncoder is one of the request shapes: plain fetch, form submit, raw
// payload or multipart upload.
type bodyEncoder interface {
	method() string
	// contentType is the default Content-Type header, "" for none.
	contentType() string
	// foldArgs reports whether arguments travel in the query string.
	foldArgs() bool
	// size is the exact body length, or -1 when it cannot be known upfront.
	size(args *Args) (int64, error)
	writeTo(w io.Writer, args *Args) error
	// dumpBody returns a loggable rendition of the body, "" for none.
	dumpBody(args *Args) string
}

type plainBody struct{}

func (plainBody) method() string                 { return http.MethodGet }
func (plainBody) contentType() string            { return "" }
func (plainBody) foldArgs() bool                 { return true }
func (plainBody) size(*Args) (int64, error)      { return 0, nil }
func (plainBody) writeTo(io.Writer, *Args) error { return nil }
func (plainBody) dumpBody(*Args) string          { return "" }

type formBody struct{}

func (formBody) method() string      { return http.MethodPost }
func (formBody) contentType() string { return contentTypeForm }
func (formBody) foldArgs() bool      { return false }

func (formBody) size(args *Args) (int64, error) {
	return int64(len(args.Encode())), nil
}

func (formBody) writeTo(w io.Writer, args *Args) error {
	_, err := io.WriteString(w, args.Encode())
	return err
}

func (formBody) dumpBody(args *Args) string { return args.Encode() }

type rawBody struct {
	ct   string
	data []byte
}

func (b *rawBody) method() string            { return http.MethodPost }
func (b *rawBody) contentType() string       { return b.ct }
func (b *rawBody) foldArgs() bool            { return true }
func (b *rawBody) size(*Args) (int64, error) { return int64(len(b.data)), nil }

func (b *rawBody) writeTo(w io.Writer, _ *Args) error {
	_, err := w.Write(b.data)
	return err
}

func (b *rawBody) dumpBody(*Args) string {
	if !allowDump(b.ct) {
		return ""
	}
	return string(b.data)
}

// allowDump reports whether a body of content type ct is readable text.
func allowDump(ct string) bool {
	ct = strings.ToLower(ct)
	for _, s := range []string{"json", "xml", "html", "text"} {
		if strings.Contains(ct, s) {
			return true
		}
	}
	return false
}
