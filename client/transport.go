package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type ctxKey int

const connectTimeoutKey ctxKey = 1

var errReadTimeout = fmt.Errorf("%w: no data within the read timeout", ErrTimeout)

func withConnectTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, connectTimeoutKey, d)
}

// newTransport clones the default transport and applies the per-request
// connect timeout carried by the dial context.
func newTransport() *http.Transport {
	dialer := &net.Dialer{KeepAlive: 30 * time.Second}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if d, ok := ctx.Value(connectTimeoutKey).(time.Duration); ok && d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return dialer.DialContext(ctx, network, addr)
	}

	return tr
}

// watchdog cancels a request when the server stays silent for longer than
// the read timeout. It is armed once the request is written and re-armed by
// every successful body read.
type watchdog struct {
	d      time.Duration
	cancel context.CancelCauseFunc
	fired  atomic.Bool

	mu    sync.Mutex
	timer *time.Timer
}

func newWatchdog(ctx context.Context, d time.Duration) (context.Context, *watchdog) {
	ctx, cancel := context.WithCancelCause(ctx)
	return ctx, &watchdog{d: d, cancel: cancel}
}

func (w *watchdog) arm() {
	if w.d <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer == nil {
		w.timer = time.AfterFunc(w.d, w.expire)
		return
	}
	w.timer.Reset(w.d)
}

func (w *watchdog) expire() {
	w.fired.Store(true)
	w.cancel(errReadTimeout)
}

// stop disarms the timer and releases the context.
func (w *watchdog) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	w.cancel(context.Canceled)
}

// annotate reports err as a read timeout when the watchdog fired.
func (w *watchdog) annotate(err error) error {
	if err == nil || !w.fired.Load() {
		return err
	}
	return fmt.Errorf("%w: %w", errReadTimeout, err)
}

// watchedReader re-arms the watchdog whenever data arrives.
type watchedReader struct {
	r io.Reader
	w *watchdog
}

func (r *watchedReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.w.arm()
	}
	return n, err
}
