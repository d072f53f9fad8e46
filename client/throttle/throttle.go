package throttle

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the limiter's requests per second and burst size.
type Config struct {
	RPS   int
	Burst int
}

func (c Config) validate() error {
	if c.RPS <= 0 || c.Burst <= 0 {
		return fmt.Errorf("rps[%d] and burst[%d] %w", c.RPS, c.Burst, ErrMustNotBeZero)
	}
	return nil
}

// roundTripper holds one limiter shared by every request sent through it.
type roundTripper struct {
	limiter *rate.Limiter
	cfg     Config
	next    http.RoundTripper
	logger  *slog.Logger
}

// NewRoundTripper returns an http.RoundTripper that waits for a limiter
// token before handing each request to next. A nil logger disables the
// exhaustion log lines.
func NewRoundTripper(cfg Config, logger *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if next == nil {
		next = http.DefaultTransport
	}

	return &roundTripper{
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		cfg:     cfg,
		next:    next,
		logger:  logger,
	}, nil
}

func (t *roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	if t.logger != nil && t.limiter.Tokens() < 1 {
		start := time.Now()
		t.logger.Info("throttle tokens exhausted", "rate", t.cfg.RPS, "burst", t.cfg.Burst, "host", r.URL.Host)
		defer func() {
			t.logger.Info("throttle wait complete", "waited", time.Since(start).String(), "host", r.URL.Host)
		}()
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return t.next.RoundTrip(r)
}
