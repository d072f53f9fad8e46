package client

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/entao/apphttp/client/progress"
)

const octetStream = "application/octet-stream"

// Source is the content of a multipart file part. Open is called once, when
// the part is sent. Size reports the length that will be read, or a
// negative value when it is unknown; it must not consume the content.
type Source interface {
	Open() (io.ReadCloser, error)
	Size() (int64, error)
}

// FileSource reads a file from disk.
type FileSource string

func (p FileSource) Open() (io.ReadCloser, error) {
	return os.Open(string(p))
}

func (p FileSource) Size() (int64, error) {
	fi, err := os.Stat(string(p))
	if err != nil {
		return 0, err
	}
	if !fi.Mode().IsRegular() {
		return -1, nil
	}
	return fi.Size(), nil
}

func (p FileSource) String() string { return "file://" + string(p) }

type funcSource struct {
	size int64
	open func() (io.ReadCloser, error)
}

func (s funcSource) Open() (io.ReadCloser, error) { return s.open() }
func (s funcSource) Size() (int64, error)         { return s.size, nil }

// NewSource adapts an opener with a declared size. Pass a negative size
// when the length is not known in advance.
func NewSource(size int64, open func() (io.ReadCloser, error)) Source {
	return funcSource{size: size, open: open}
}

// FileParam is one file part of a multipart request.
type FileParam struct {
	Key      string        `json:"key" validate:"required"`
	Filename string        `json:"filename" validate:"required"`
	MIME     string        `json:"mime" validate:"required"`
	Source   Source        `json:"source" validate:"required"`
	Progress progress.Sink `json:"-" validate:"-"`
}

// NewFileParam describes the file at path. The filename is the base name
// and the MIME type is derived from the extension, or sniffed from the
// content when the extension is unknown.
func NewFileParam(key, path string) *FileParam {
	return &FileParam{
		Key:      key,
		Filename: filepath.Base(path),
		MIME:     mimeOfFile(path),
		Source:   FileSource(path),
	}
}

// NewSourceParam describes a part backed by an arbitrary Source.
func NewSourceParam(key, filename string, src Source) *FileParam {
	return &FileParam{
		Key:      key,
		Filename: filename,
		MIME:     mimeOfExt(filename),
		Source:   src,
	}
}

// WithMIME overrides the MIME type. Empty values are ignored.
func (fp *FileParam) WithMIME(mime string) *FileParam {
	if mime != "" {
		fp.MIME = mime
	}
	return fp
}

// WithFilename overrides the filename. Empty values are ignored.
func (fp *FileParam) WithFilename(name string) *FileParam {
	if name != "" {
		fp.Filename = name
	}
	return fp
}

// WithProgress sets the sink that observes this part being uploaded.
func (fp *FileParam) WithProgress(sink progress.Sink) *FileParam {
	fp.Progress = sink
	return fp
}

func (fp *FileParam) String() string {
	return fmt.Sprintf("key=%s, filename=%s, mime=%s, source=%v", fp.Key, fp.Filename, fp.MIME, fp.Source)
}

func mimeOfExt(name string) string {
	if ext := filepath.Ext(name); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}
	return octetStream
}

func mimeOfFile(path string) string {
	if t := mimeOfExt(path); t != octetStream {
		return t
	}
	if m, err := mimetype.DetectFile(path); err == nil {
		return m.String()
	}
	return octetStream
}
