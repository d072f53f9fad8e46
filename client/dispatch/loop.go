package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Task is a unit of work run on a Loop.
type Task func(ctx context.Context)

// Dispatcher accepts tasks for asynchronous, ordered execution.
type Dispatcher interface {
	Post(Task)
}

type loopKey struct{}

// Loop is a FIFO task queue drained by one goroutine.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Task
	closed bool
	done   chan struct{}
	logger *slog.Logger
}

// NewLoop starts a Loop. A nil logger falls back to slog.Default().
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Loop{
		done:   make(chan struct{}),
		logger: logger,
	}
	l.cond = sync.NewCond(&l.mu)

	go l.run()

	return l
}

// Post enqueues t. Tasks posted after Close are dropped.
func (l *Loop) Post(t Task) {
	if t == nil {
		return
	}

	if !l.post(t) {
		l.logger.Warn("dispatch loop closed, dropping task")
	}
}

func (l *Loop) post(t Task) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}

	l.queue = append(l.queue, t)
	l.cond.Signal()

	return true
}

// Flush blocks until every task posted before the call has run.
func (l *Loop) Flush() {
	ch := make(chan struct{})
	if !l.post(func(context.Context) { close(ch) }) {
		<-l.done
		return
	}
	<-ch
}

// Close stops accepting tasks, runs everything already queued and waits
// for the worker goroutine to exit.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()

	<-l.done
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) run() {
	defer close(l.done)

	ctx := context.WithValue(context.Background(), loopKey{}, l)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, t := range batch {
			l.exec(ctx, t)
		}
	}
}

func (l *Loop) exec(ctx context.Context, t Task) {
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error("dispatch task panicked", "error", fmt.Sprintf("PANIC [%v] TRACE[%s]", rec, debug.Stack()))
		}
	}()

	t(ctx)
}

// InLoop reports whether ctx belongs to a task running on a Loop.
func InLoop(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	_, ok := ctx.Value(loopKey{}).(*Loop)
	return ok
}

var mainLoop = sync.OnceValue(func() *Loop { return NewLoop(slog.Default()) })

// Main returns the process-wide loop, starting it on first use.
func Main() *Loop { return mainLoop() }
