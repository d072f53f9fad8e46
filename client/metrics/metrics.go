// Package metrics records Prometheus metrics for requests sent by the
// client package.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the request metrics. A nil *Collector records nothing.
type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseBytes   *prometheus.CounterVec
	Failures        *prometheus.CounterVec
}

// New registers the collectors with reg. Collectors already registered by
// an earlier call are reused.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		return nil, errors.New("registerer must not be nil")
	}

	var err error
	c := &Collector{}

	c.RequestsTotal, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apphttp_requests_total",
			Help: "Total number of HTTP requests sent, by method and status code",
		},
		[]string{"method", "code"},
	))
	if err != nil {
		return nil, err
	}

	c.RequestDuration, err = register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apphttp_request_duration_seconds",
			Help:    "Time from connect to the end of the response body",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	))
	if err != nil {
		return nil, err
	}

	c.ResponseBytes, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apphttp_response_bytes_total",
			Help: "Response body bytes received after content decoding",
		},
		[]string{"method"},
	))
	if err != nil {
		return nil, err
	}

	c.Failures, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apphttp_request_failures_total",
			Help: "Requests that ended with a captured error, by category",
		},
		[]string{"category"},
	))
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Observe records one finished request. code is 0 when no response arrived;
// category is empty for requests without a captured error.
func (c *Collector) Observe(method string, code int, received int64, elapsed time.Duration, category string) {
	if c == nil {
		return
	}

	c.RequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	c.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	if received > 0 {
		c.ResponseBytes.WithLabelValues(method).Add(float64(received))
	}
	if category != "" {
		c.Failures.WithLabelValues(category).Inc()
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}

	return c, nil
}
