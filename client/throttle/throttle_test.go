package throttle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRoundTripper_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		cfg    Config
		expErr error
	}{
		{name: "Invalid RPS (zero)", cfg: Config{RPS: 0, Burst: 10}, expErr: ErrMustNotBeZero},
		{name: "Invalid RPS (negative)", cfg: Config{RPS: -5, Burst: 10}, expErr: ErrMustNotBeZero},
		{name: "Invalid Burst (zero)", cfg: Config{RPS: 10, Burst: 0}, expErr: ErrMustNotBeZero},
		{name: "Invalid Burst (negative)", cfg: Config{RPS: 10, Burst: -5}, expErr: ErrMustNotBeZero},
		{name: "Valid input", cfg: Config{RPS: 10, Burst: 20}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rt, err := NewRoundTripper(tc.cfg, nil, http.DefaultTransport)

			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Errorf("exp err %v; got: %v", tc.expErr, err)
				}
				return
			}

			if err != nil {
				t.Errorf("exp nil err, got: %v", err)
			}
			if rt == nil {
				t.Error("exp non-nil RoundTripper")
			}
		})
	}
}

func TestRoundTripper_Behavior(t *testing.T) {
	testCases := []struct {
		name          string
		cfg           Config
		numRequests   int
		reqTimeout    time.Duration
		preCancel     bool
		expectReqErrs int
		expErr        error
		minDuration   time.Duration
		maxDuration   time.Duration
	}{
		{
			name:        "Within burst is fast",
			cfg:         Config{RPS: 5, Burst: 5},
			numRequests: 5,
			maxDuration: 200 * time.Millisecond,
		},
		{
			name:        "Exceeding burst waits for tokens",
			cfg:         Config{RPS: 10, Burst: 5},
			numRequests: 8,
			reqTimeout:  time.Second,
			// (8-5) requests / 10 RPS
			minDuration: 250 * time.Millisecond,
		},
		{
			name:          "Exceeding burst with short deadline fails",
			cfg:           Config{RPS: 5, Burst: 2},
			numRequests:   5,
			reqTimeout:    50 * time.Millisecond,
			expectReqErrs: 3,
			expErr:        ErrWaitingFailed,
		},
		{
			name:          "Pre-cancelled context fails early",
			cfg:           Config{RPS: 20, Burst: 10},
			numRequests:   1,
			preCancel:     true,
			expectReqErrs: 1,
			expErr:        ErrContextEnded,
			maxDuration:   50 * time.Millisecond,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			rt, err := NewRoundTripper(tc.cfg, nil, http.DefaultTransport)
			if err != nil {
				t.Fatal(err)
			}
			hc := &http.Client{Transport: rt}

			var wg sync.WaitGroup
			errs := make([]error, tc.numRequests)
			start := time.Now()

			for i := range tc.numRequests {
				wg.Add(1)
				go func() {
					defer wg.Done()

					ctx, cancel := t.Context(), context.CancelFunc(func() {})
					switch {
					case tc.preCancel:
						ctx, cancel = context.WithCancel(t.Context())
						cancel()
					case tc.reqTimeout > 0:
						ctx, cancel = context.WithTimeout(t.Context(), tc.reqTimeout)
					}
					defer cancel()

					req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
					if err != nil {
						errs[i] = err
						return
					}

					resp, err := hc.Do(req)
					if err != nil {
						errs[i] = err
						return
					}
					resp.Body.Close()
				}()
			}
			wg.Wait()
			elapsed := time.Since(start)

			var failed int
			for _, err := range errs {
				if err == nil {
					continue
				}
				failed++
				if tc.expErr != nil && !errors.Is(err, tc.expErr) {
					t.Errorf("expected %v, got %v", tc.expErr, err)
				}
			}

			if failed != tc.expectReqErrs {
				t.Errorf("expected %d failed requests; got %d", tc.expectReqErrs, failed)
			}
			if got := int(calls.Load()); got != tc.numRequests-failed {
				t.Errorf("expected %d calls to reach the server, got %d", tc.numRequests-failed, got)
			}
			if tc.minDuration > 0 && elapsed < tc.minDuration {
				t.Errorf("expected throttling to take at least %v, took %v", tc.minDuration, elapsed)
			}
			if tc.maxDuration > 0 && elapsed > tc.maxDuration {
				t.Errorf("expected to finish within %v, took %v", tc.maxDuration, elapsed)
			}
		})
	}
}
