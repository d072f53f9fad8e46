//go:build integration

package e2e_test

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/entao/apphttp/client"
	"github.com/entao/apphttp/client/dispatch"
	"github.com/entao/apphttp/client/download"
	"github.com/entao/apphttp/client/progress"
)

// -------------------------------------------------------------------------
// File store server
// -------------------------------------------------------------------------

type store struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newStoreServer(t *testing.T) string {
	t.Helper()

	s := &store{files: make(map[string][]byte)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /files", s.upload)
	mux.HandleFunc("GET /files/{name}", s.fetch)
	mux.HandleFunc("GET /files/{name}/meta", s.meta)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv.URL
}

func (s *store) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for _, fhs := range r.MultipartForm.File {
		for _, fh := range fhs {
			f, err := fh.Open()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			s.files[fh.Filename] = data
			names = append(names, strconv.Quote(fh.Filename))
		}
	}

	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, `{"owner":%q,"stored":[%s]}`, r.FormValue("owner"), strings.Join(names, ","))
}

func (s *store) lookup(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

func (s *store) fetch(w http.ResponseWriter, r *http.Request) {
	data, ok := s.lookup(r.PathValue("name"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		defer zw.Close()
		zw.Write(data)
		return
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *store) meta(w http.ResponseWriter, r *http.Request) {
	data, ok := s.lookup(r.PathValue("name"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	sum := sha256.Sum256(data)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"size":%d,"sha256":%q}`, len(data), hex.EncodeToString(sum[:]))
}

func newClient(t *testing.T, opts ...client.Option) *client.Client {
	t.Helper()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	c, err := client.Build(append([]client.Option{client.WithLogger(log)}, opts...)...)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	return c
}

// -------------------------------------------------------------------------
// Tests
// -------------------------------------------------------------------------

func TestUploadThenDownload(t *testing.T) {
	base := newStoreServer(t)

	loop := dispatch.NewLoop(nil)
	defer loop.Close()
	c := newClient(t, client.WithDispatcher(loop))

	dir := t.TempDir()
	src := filepath.Join(dir, "data.bin")
	content := strings.Repeat("integration payload\n", 50_000)
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var uploaded int64
	upSink := progress.Funcs{
		OnProgress: func(current, total int64, percent int) { uploaded = current },
	}

	res := c.Multipart(base+"/files",
		client.WithArg("owner", "e2e"),
		client.WithFile(client.NewFileParam("file", src).WithProgress(upSink)),
	).Do(t.Context())
	if res.Code() != http.StatusCreated {
		t.Fatalf("upload failed: %v", res)
	}
	obj := res.JSONObject()
	if obj["owner"] != "e2e" {
		t.Errorf("unexpected upload response %v", obj)
	}

	meta, err := client.DecodeJSON[struct {
		Size   int    `json:"size"`
		SHA256 string `json:"sha256"`
	}](c.Get(base + "/files/data.bin/meta").Do(t.Context()))
	if err != nil {
		t.Fatalf("reading meta: %v", err)
	}
	if meta.Size != len(content) {
		t.Errorf("server stored %d bytes, want %d", meta.Size, len(content))
	}

	dest := filepath.Join(dir, "out", "copy.bin")
	var finished int
	dlSink := progress.Funcs{OnFinish: func() { finished++ }}
	res = c.Get(base+"/files/data.bin").Download(t.Context(), dest, dlSink,
		download.WithChecksum(sha256.New(), meta.SHA256),
	)
	if err := res.Err(); err != nil {
		t.Fatalf("download failed: %v", err)
	}
	loop.Flush()

	if uploaded != int64(len(content)) {
		t.Errorf("upload progress ended at %d, want %d", uploaded, len(content))
	}
	if finished != 1 {
		t.Errorf("expected one download finish event, got %d", finished)
	}
}

func TestGzipDownload(t *testing.T) {
	base := newStoreServer(t)
	c := newClient(t)

	res := c.Multipart(base+"/files",
		client.WithFile(client.NewSourceParam("file", "notes.txt", client.NewSource(11, func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("hello gzip!")), nil
		}))),
	).Do(t.Context())
	if res.Code() != http.StatusCreated {
		t.Fatalf("upload failed: %v", res)
	}

	res = c.Get(base+"/files/notes.txt", client.WithHeader("Accept-Encoding", "gzip")).Do(t.Context())
	if got := res.ValueText(); got != "hello gzip!" {
		t.Errorf("unexpected body %q (%v)", got, res.Err())
	}
}

func TestMissingFile(t *testing.T) {
	base := newStoreServer(t)

	res := newClient(t).Get(base + "/files/nope").Do(t.Context())
	if res.OK() || res.ErrorMessage() != "File Not Found" {
		t.Errorf("expected a not-found result, got %v", res)
	}
}
