package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/entao/apphttp/client/dispatch"
	"github.com/entao/apphttp/client/download"
	"github.com/entao/apphttp/client/internal/validate"
	"github.com/entao/apphttp/client/progress"
)

// Request is a single exchange. It is configured, sent once with Do and
// then discarded.
type Request struct {
	client  *Client
	url     string
	enc     bodyEncoder
	headers *Headers
	args    *Args
	files   []*FileParam

	connectTimeout time.Duration
	readTimeout    time.Duration

	saveTo   string
	saveOpts []download.Option
	progress progress.Sink

	dumpReq   bool
	dumpResp  bool
	urlDecode bool

	sent atomic.Bool
}

// requestConfig is the validated view of a Request.
type requestConfig struct {
	URL            string        `json:"url" validate:"required,url"`
	ConnectTimeout time.Duration `json:"connectTimeout" validate:"gte=0"`
	ReadTimeout    time.Duration `json:"readTimeout" validate:"gte=0"`
	Files          []*FileParam  `json:"files" validate:"dive,required"`
}

// URL returns the URL the request was created with.
func (r *Request) URL() string { return r.url }

// Method returns the HTTP method of the request variant.
func (r *Request) Method() string { return r.enc.method() }

// Headers returns the mutable header set.
func (r *Request) Headers() *Headers { return r.headers }

// Args returns the mutable argument map.
func (r *Request) Args() *Args { return r.args }

// AddFile attaches a file part.
func (r *Request) AddFile(fp *FileParam) {
	r.files = append(r.files, fp)
}

// Download saves the response body to path, reporting progress to sink,
// and sends the request.
func (r *Request) Download(ctx context.Context, path string, sink progress.Sink, opts ...download.Option) *Result {
	r.saveTo = path
	r.saveOpts = opts
	r.progress = sink
	return r.Do(ctx)
}

// Do sends the request and reads the response. It never returns nil and
// never panics on network or file failures: they are captured in the
// Result, whose code is 0 when no response was received.
func (r *Request) Do(ctx context.Context) *Result {
	c := r.client
	res := &Result{url: r.url, urlDecode: r.urlDecode}

	if !r.sent.CompareAndSwap(false, true) {
		res.err = fmt.Errorf("%w: %s", ErrRequestReused, r.url)
		c.logger.Error("request", "url", r.url, "error", res.err)
		return res
	}

	if dispatch.InLoop(ctx) {
		res.err = fmt.Errorf("%w: %s", ErrForegroundBlocking, r.url)
		c.logger.Error("network call blocks the foreground loop", "url", r.url)
		return res
	}

	ctx, span := c.tracer.Start(ctx, "apphttp.request")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", r.enc.method()),
		attribute.String("http.url", r.url),
	)

	start := time.Now()
	if r.dumpReq {
		r.dump()
	}

	res.err = r.send(ctx, res)

	var cat string
	span.SetAttributes(attribute.Int("http.status_code", res.code))
	if res.err != nil {
		cat = category(res.err).Error()
		span.RecordError(res.err)
		span.SetStatus(codes.Error, cat)
		c.logger.Error("request", "url", r.url, "code", res.code, "error", res.err)
	}
	c.metrics.Observe(r.enc.method(), res.code, res.received, time.Since(start), cat)

	if r.dumpResp {
		res.Dump(c.logger)
	}

	return res
}

func (r *Request) send(ctx context.Context, res *Result) error {
	c := r.client

	cfg := requestConfig{
		URL:            r.url,
		ConnectTimeout: r.connectTimeout,
		ReadTimeout:    r.readTimeout,
		Files:          r.files,
	}
	if err := validate.Check(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionSetup, err)
	}

	if m, ok := r.enc.(*multipartBody); ok {
		m.files = r.files
	} else if len(r.files) > 0 {
		return fmt.Errorf("%w: file parts need a multipart request", ErrConnectionSetup)
	}

	target := r.url
	if r.enc.foldArgs() {
		target = appendQuery(target, r.args.Encode())
	}

	size, err := r.enc.size(r.args)
	if err != nil {
		return localError(err)
	}

	ctx = withConnectTimeout(ctx, r.connectTimeout)
	ctx, wd := newWatchdog(ctx, r.readTimeout)
	defer wd.stop()
	ctx = httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		WroteRequest: func(httptrace.WroteRequestInfo) { wd.arm() },
	})

	hreq, err := http.NewRequestWithContext(ctx, r.enc.method(), target, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionSetup, err)
	}

	hreq.Header = r.headers.Clone()
	hreq.Close = strings.EqualFold(r.headers.Connection(), "close")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(hreq.Header))

	waitBody := func() error { return nil }
	if size != 0 {
		pr, pw := io.Pipe()
		hreq.Body = pr
		hreq.GetBody = nil
		hreq.ContentLength = size

		done := make(chan error, 1)
		go func() {
			err := r.enc.writeTo(pw, r.args)
			pw.CloseWithError(err)
			done <- err
		}()
		waitBody = sync.OnceValue(func() error {
			pr.Close()
			return <-done
		})
		defer waitBody()
	}

	resp, err := c.c.Do(hreq)
	if err != nil {
		if berr := waitBody(); berr != nil && !errors.Is(berr, io.ErrClosedPipe) {
			return localError(berr)
		}
		return transportError(wd.annotate(err))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	return r.read(resp, wd, res)
}

func (r *Request) dump() {
	log := r.client.logger

	log.Debug("request", "method", r.enc.method(), "url", r.url)
	for _, name := range r.headers.Names() {
		log.Debug("request header", "name", name, "value", r.headers.Get(name))
	}
	for k, v := range r.args.All() {
		log.Debug("request arg", "key", k, "value", v)
	}
	for _, fp := range r.files {
		log.Debug("request file", "file", fp.String())
	}
	if body := r.enc.dumpBody(r.args); body != "" {
		log.Debug("request body", "body", body)
	}
}
