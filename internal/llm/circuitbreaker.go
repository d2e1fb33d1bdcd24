package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32 `json:"max_failures"`
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration `json:"timeout"`
	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration `json:"interval"`
}

// CircuitBreakerClient wraps a Client so repeated provider failures fail fast.
type CircuitBreakerClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker[*CompletionResponse]
	logger  *slog.Logger
}

// NewCircuitBreakerClient wraps inner with a circuit breaker. Zero config values use defaults.
func NewCircuitBreakerClient(inner Client, cfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerClient {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	cb := gobreaker.NewCircuitBreaker[*CompletionResponse](gobreaker.Settings{
		Name:        "llm:" + inner.Name(),
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: isProviderHealthy,
	})

	return &CircuitBreakerClient{inner: inner, breaker: cb, logger: logger}
}

// isProviderHealthy treats caller cancellations and non-retryable API errors as healthy responses.
func isProviderHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrNoTools) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Retryable()
	}
	return false
}

// Complete implements Client. Calls are routed through the circuit breaker.
func (c *CircuitBreakerClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := c.breaker.Execute(func() (*CompletionResponse, error) {
		return c.inner.Complete(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("provider %q circuit open: %w", c.inner.Name(), err)
		}
		return nil, err
	}
	return resp, nil
}

// Name implements Client.
func (c *CircuitBreakerClient) Name() string { return c.inner.Name() }

// Close implements Client.
func (c *CircuitBreakerClient) Close() error { return c.inner.Close() }

// State returns the current breaker state.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.breaker.State()
}

var _ Client = (*CircuitBreakerClient)(nil)
