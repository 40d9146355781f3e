// Package transport provides the HTTP transport used for backend calls.
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/net/http2"

	"storefront/internal/metrics"
)

// =============================================================================
// BACKEND TRANSPORT
// =============================================================================
//
// Every backend call goes through one RoundTripper:
//
//   1. A pooled http.Transport with HTTP/2 configured via x/net/http2, so
//      TLS backends negotiate h2 and plain-HTTP backends stay on HTTP/1.1.
//   2. A circuit breaker in front of it. Network errors and 5xx responses
//      count as failures; once the failure ratio trips, calls fail fast with
//      ErrBackendUnavailable until the breaker half-opens.
//
// 4xx responses are successes from the breaker's point of view: the backend
// answered, the request was just wrong.
// =============================================================================

// ErrBackendUnavailable is returned while the breaker is open.
var ErrBackendUnavailable = errors.New("backend unavailable")

// errServerStatus marks a 5xx response so the breaker counts it as a failure
// while the caller still receives the response.
var errServerStatus = errors.New("server error status")

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32        // Requests allowed through while half-open
	Interval     time.Duration // Closed-state count reset period (0 = never)
	Timeout      time.Duration // Open duration before half-open
	FailureRatio float64       // Trip when failures/requests reaches this
	MinRequests  uint32        // Requests needed before the ratio is evaluated
}

// DefaultBreakerConfig returns defaults suitable for a single backend.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// New builds the backend RoundTripper.
func New(timeout time.Duration, cfg BreakerConfig) (http.RoundTripper, error) {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if _, err := http2.ConfigureTransports(base); err != nil {
		return nil, fmt.Errorf("configuring http2: %w", err)
	}
	return NewBreaker(base, cfg), nil
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next http.RoundTripper, cfg BreakerConfig) http.RoundTripper {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	}
	metrics.BreakerState.WithLabelValues(cfg.Name).Set(0)
	return &breakerTransport{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

type breakerTransport struct {
	next    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// RoundTrip implements http.RoundTripper.
func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, errServerStatus):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	default:
		return nil, err
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
