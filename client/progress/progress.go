// Package progress turns a byte-copy loop into start, progress and finish
// events delivered on a foreground dispatcher.
package progress

import (
	"context"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/entao/apphttp/client/dispatch"
)

const (
	// Interval is the minimum spacing between throttled progress events.
	Interval = 50 * time.Millisecond

	chunkSize = 8 << 10
)

// Sink receives transfer events. total is non-positive when unknown, in
// which case percent is always 0.
type Sink interface {
	Start(total int64)
	Progress(current, total int64, percent int)
	Finish()
}

// Notifier posts the events of a single copy to a dispatcher. Every method
// is a no-op on a nil *Notifier.
type Notifier struct {
	sink     Sink
	d        dispatch.Dispatcher
	total    int64
	reported int64
	every    rate.Sometimes
}

// NewNotifier returns nil when sink is nil.
func NewNotifier(sink Sink, d dispatch.Dispatcher, total int64) *Notifier {
	if sink == nil {
		return nil
	}
	if d == nil {
		d = dispatch.Main()
	}

	return &Notifier{
		sink:     sink,
		d:        d,
		total:    total,
		reported: -1,
		every:    rate.Sometimes{Interval: Interval},
	}
}

// Start posts the start event.
func (n *Notifier) Start() {
	if n == nil {
		return
	}

	sink, total := n.sink, n.total
	n.d.Post(func(context.Context) { sink.Start(total) })
}

// Update posts a progress event unless one was posted within Interval.
func (n *Notifier) Update(received int64) {
	if n == nil {
		return
	}

	n.every.Do(func() { n.post(received) })
}

// Done posts the trailing progress event for the final count, unless the
// last throttled event already carried it.
func (n *Notifier) Done(received int64) {
	if n == nil || received == n.reported {
		return
	}

	n.post(received)
}

// Finish posts the finish event.
func (n *Notifier) Finish() {
	if n == nil {
		return
	}

	sink := n.sink
	n.d.Post(func(context.Context) { sink.Finish() })
}

func (n *Notifier) post(received int64) {
	n.reported = received

	sink, total, pct := n.sink, n.total, Percent(received, n.total)
	n.d.Post(func(context.Context) { sink.Progress(received, total, pct) })
}

// Percent is received*100/total, or 0 when total is unknown.
func Percent(received, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(received * 100 / total)
}

// Copy copies src to dst in fixed-size chunks. When sink is non-nil it gets
// a start event, throttled progress, a trailing progress event with the final
// count and a finish event. The last two are posted even if the copy fails
// part way through.
func Copy(dst io.Writer, src io.Reader, total int64, sink Sink, d dispatch.Dispatcher) (written int64, err error) {
	n := NewNotifier(sink, d, total)
	n.Start()
	defer func() {
		n.Done(written)
		n.Finish()
	}()

	buf := make([]byte, chunkSize)
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
			n.Update(written)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return written, rerr
		}
	}

	return written, nil
}

// Funcs adapts plain functions to a Sink. Nil fields are skipped.
type Funcs struct {
	OnStart    func(total int64)
	OnProgress func(current, total int64, percent int)
	OnFinish   func()
}

func (f Funcs) Start(total int64) {
	if f.OnStart != nil {
		f.OnStart(total)
	}
}

func (f Funcs) Progress(current, total int64, percent int) {
	if f.OnProgress != nil {
		f.OnProgress(current, total, percent)
	}
}

func (f Funcs) Finish() {
	if f.OnFinish != nil {
		f.OnFinish()
	}
}
