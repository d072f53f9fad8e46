// Package dispatch provides the foreground execution context that progress
// and diagnostic callbacks are delivered on.
//
// A [Loop] runs posted tasks one at a time, in the order they were posted,
// on a single goroutine it owns. Posting never blocks the caller:
//
//	loop := dispatch.NewLoop(slog.Default())
//	defer loop.Close()
//
//	loop.Post(func(ctx context.Context) {
//		fmt.Println("runs on the loop")
//	})
//
// Tasks receive a context that reports true from [InLoop]. Blocking network
// calls issued with that context are rejected by the client package, the
// same way a UI thread forbids synchronous I/O.
//
// [Main] returns a lazily started, process-wide loop for callers that do not
// manage their own.
package dispatch
