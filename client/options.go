package client

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/entao/apphttp/client/dispatch"
	"github.com/entao/apphttp/client/download"
	"github.com/entao/apphttp/client/progress"
	"github.com/entao/apphttp/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client         *http.Client
	rt             http.RoundTripper
	userAgent      string
	throttle       *throttle.Config
	logger         *slog.Logger
	dispatcher     dispatch.Dispatcher
	tracer         trace.Tracer
	registerer     prometheus.Registerer
	dumpReq        *bool
	dumpResp       *bool
	connectTimeout *time.Duration
	readTimeout    *time.Duration
}

// WithClient replaces the [http.Client] used to send requests. The client
// is copied; its Transport becomes the base transport.
func WithClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
// Connect timeouts only apply to the built-in transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithUserAgent sets the default User-Agent header of new requests.
func WithUserAgent(ua string) Option {
	return func(o *options) error {
		if ua == "" {
			return errors.New("user agent must not be empty")
		}
		o.userAgent = ua
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		o.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithDispatcher sets where progress events are delivered. The default is
// [dispatch.Main].
func WithDispatcher(d dispatch.Dispatcher) Option {
	return func(o *options) error {
		if d == nil {
			return errors.New("dispatcher must not be nil")
		}
		o.dispatcher = d
		return nil
	}
}

// WithTracer records a span for every request and propagates its context
// in the request headers.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithMetrics registers request metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) error {
		if reg == nil {
			return errors.New("registerer must not be nil")
		}
		o.registerer = reg
		return nil
	}
}

// WithDump sets whether requests and responses are logged at debug level.
// Both are on by default.
func WithDump(request, response bool) Option {
	return func(o *options) error {
		o.dumpReq = &request
		o.dumpResp = &response
		return nil
	}
}

// WithTimeouts sets the default connect and read timeouts. Zero disables
// the timeout.
func WithTimeouts(connect, read time.Duration) Option {
	return func(o *options) error {
		if connect < 0 || read < 0 {
			return errors.New("timeouts must not be negative")
		}
		o.connectTimeout = &connect
		o.readTimeout = &read
		return nil
	}
}

// RequestOption configures a single [Request].
type RequestOption func(*Request)

// WithArg sets one argument. Values are stored in their canonical string
// form.
func WithArg(key string, value any) RequestOption {
	return func(r *Request) {
		r.args.Set(key, value)
	}
}

// WithArgs sets every entry of kv, in key order.
func WithArgs(kv map[string]string) RequestOption {
	return func(r *Request) {
		for _, k := range slices.Sorted(maps.Keys(kv)) {
			r.args.Set(k, kv[k])
		}
	}
}

// WithHeader sets a header. An empty value removes it.
func WithHeader(name, value string) RequestOption {
	return func(r *Request) {
		r.headers.Set(name, value)
	}
}

// WithRequestTimeouts overrides the client's connect and read timeouts.
// Negative values are rejected when the request is sent.
func WithRequestTimeouts(connect, read time.Duration) RequestOption {
	return func(r *Request) {
		r.connectTimeout = connect
		r.readTimeout = read
	}
}

// WithSaveTo streams the response body to path instead of memory.
func WithSaveTo(path string, opts ...download.Option) RequestOption {
	return func(r *Request) {
		r.saveTo = path
		r.saveOpts = opts
	}
}

// WithProgress observes the response body as it is received.
func WithProgress(sink progress.Sink) RequestOption {
	return func(r *Request) {
		r.progress = sink
	}
}

// WithFile attaches a file part. Only multipart requests accept files.
func WithFile(fp *FileParam) RequestOption {
	return func(r *Request) {
		r.AddFile(fp)
	}
}

// WithDumpRequest overrides the client's request dump setting.
func WithDumpRequest(on bool) RequestOption {
	return func(r *Request) {
		r.dumpReq = on
	}
}

// WithDumpResponse overrides the client's response dump setting.
func WithDumpResponse(on bool) RequestOption {
	return func(r *Request) {
		r.dumpResp = on
	}
}

// WithURLDecode makes the Result percent-decode its text body, for servers
// that answer with a form-encoded string.
func WithURLDecode() RequestOption {
	return func(r *Request) {
		r.urlDecode = true
	}
}
