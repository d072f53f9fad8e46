// Package throttle provides an [http.RoundTripper] that paces outgoing
// requests with a token bucket from [golang.org/x/time/rate].
//
// # Usage
//
// Wrap an existing transport with [NewRoundTripper]:
//
//	rt, err := throttle.NewRoundTripper(
//		throttle.Config{RPS: 10, Burst: 5},
//		slog.Default(),
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// When the bucket is empty a request blocks until a token is available or
// its context ends. Requests already holding an expired context fail before
// touching the limiter.
package throttle
