package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/entao/apphttp/client/dispatch"
	"github.com/entao/apphttp/client/metrics"
	"github.com/entao/apphttp/client/throttle"
)

const (
	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "apphttp/1.0"
	// DefaultTimeout applies to both connecting and reading.
	DefaultTimeout = 20 * time.Second
)

// Client builds requests that share a transport, a logger and the
// delivery context for progress events.
type Client struct {
	c          *http.Client
	logger     *slog.Logger
	userAgent  string
	dispatcher dispatch.Dispatcher
	tracer     trace.Tracer
	metrics    *metrics.Collector

	dumpReq        bool
	dumpResp       bool
	connectTimeout time.Duration
	readTimeout    time.Duration
}

// Build returns a Client configured by optFns.
func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		c:              &http.Client{},
		logger:         slog.Default(),
		userAgent:      DefaultUserAgent,
		tracer:         noop.NewTracerProvider().Tracer(""),
		dumpReq:        true,
		dumpResp:       true,
		connectTimeout: DefaultTimeout,
		readTimeout:    DefaultTimeout,
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.client != nil {
		hc := *opts.client
		client.c = &hc
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.userAgent != "" {
		client.userAgent = opts.userAgent
	}
	if opts.dispatcher != nil {
		client.dispatcher = opts.dispatcher
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	if opts.dumpReq != nil {
		client.dumpReq = *opts.dumpReq
		client.dumpResp = *opts.dumpResp
	}
	if opts.connectTimeout != nil {
		client.connectTimeout = *opts.connectTimeout
		client.readTimeout = *opts.readTimeout
	}

	if opts.registerer != nil {
		m, err := metrics.New(opts.registerer)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		client.metrics = m
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = newTransport()
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, client.logger, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	return client, nil
}

var defaultClient = sync.OnceValue(func() *Client {
	c, err := Build()
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the process-wide Client built with no options.
func Default() *Client { return defaultClient() }

// Get creates a GET request. Arguments are appended to the query string.
func (c *Client) Get(url string, opts ...RequestOption) *Request {
	return c.newRequest(url, plainBody{}, opts)
}

// Post creates a url-encoded form POST request.
func (c *Client) Post(url string, opts ...RequestOption) *Request {
	return c.newRequest(url, formBody{}, opts)
}

// Raw creates a POST request whose body is data, sent verbatim with the
// given content type. Arguments are appended to the query string.
func (c *Client) Raw(url, contentType string, data []byte, opts ...RequestOption) *Request {
	return c.newRequest(url, &rawBody{ct: contentType, data: data}, opts)
}

// JSON creates a raw POST request carrying a JSON document.
func (c *Client) JSON(url, doc string, opts ...RequestOption) *Request {
	return c.Raw(url, contentTypeJSON, []byte(doc), opts...)
}

// XML creates a raw POST request carrying an XML document.
func (c *Client) XML(url, doc string, opts ...RequestOption) *Request {
	return c.Raw(url, contentTypeXML, []byte(doc), opts...)
}

// Multipart creates a multipart/form-data upload. Arguments become text
// parts, followed by the attached files.
func (c *Client) Multipart(url string, opts ...RequestOption) *Request {
	return c.newRequest(url, newMultipartBody(c.dispatcher), opts)
}

func (c *Client) newRequest(url string, enc bodyEncoder, opts []RequestOption) *Request {
	r := &Request{
		client:         c,
		url:            url,
		enc:            enc,
		headers:        newHeaders(c.userAgent),
		args:           newArgs(),
		connectTimeout: c.connectTimeout,
		readTimeout:    c.readTimeout,
		dumpReq:        c.dumpReq,
		dumpResp:       c.dumpResp,
	}
	r.headers.SetContentType(enc.contentType())
	for _, opt := range opts {
		opt(r)
	}
	return r
}
