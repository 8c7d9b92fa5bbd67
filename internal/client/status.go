// Package client implements the HTTP transport to the payment gateway.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/continuum-pay/continuum/internal/metrics"
	"github.com/continuum-pay/continuum/pkg/types"
)

// statusCodeError is a non-2xx response from the gateway. It keeps the raw
// status code so the breaker can tell client mistakes from server outages.
type statusCodeError struct {
	code int
	body string
}

func (e *statusCodeError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.code, e.body)
}

func classifyHTTPStatus(code int) types.FailureCategory {
	if code >= 400 && code < 500 {
		return types.FailurePermanent
	}
	return types.FailureTransient
}

// StatusClient polls payment status URLs over HTTP. Calls run behind a
// circuit breaker so a struggling status endpoint fails fast instead of
// holding a poll slot open for the full request timeout.
type StatusClient struct {
	http    *http.Client
	apiKey  string
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewStatusClient creates a status client from the API configuration.
func NewStatusClient(cfg types.APIConfig, logger *slog.Logger) *StatusClient {
	if logger == nil {
		logger = slog.Default()
	}
	c := &StatusClient{
		http:   &http.Client{Timeout: cfg.Timeout()},
		apiKey: cfg.APIKey,
		logger: logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "payment-status",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// 4xx responses are caller mistakes, not endpoint outages.
			// They surface as errors but never trip the breaker.
			var sc *statusCodeError
			if errors.As(err, &sc) {
				return classifyHTTPStatus(sc.code) == types.FailurePermanent
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Poll fetches the current status from the given status URL.
func (c *StatusClient) Poll(ctx context.Context, url string) (types.PollResponse, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doPoll(ctx, url)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.BreakerShortCircuit.Add(1)
			return types.PollResponse{}, types.WrapError(types.ErrCodeTransport,
				"status endpoint circuit open", err)
		}
		var sc *statusCodeError
		if errors.As(err, &sc) {
			return types.PollResponse{}, types.WrapError(types.ErrCodeTransport,
				"status request rejected", err)
		}
		return types.PollResponse{}, err
	}
	return out.(types.PollResponse), nil
}

func (c *StatusClient) doPoll(ctx context.Context, url string) (types.PollResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.PollResponse{}, types.WrapError(types.ErrCodeTransport, "creating status request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return types.PollResponse{}, types.WrapError(types.ErrCodeTransport, "status request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.PollResponse{}, types.WrapError(types.ErrCodeTransport, "reading status response", err)
	}
	if resp.StatusCode >= 400 {
		return types.PollResponse{}, &statusCodeError{code: resp.StatusCode, body: truncate(body)}
	}

	var out types.PollResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return types.PollResponse{}, types.WrapError(types.ErrCodeTransport,
			fmt.Sprintf("undecodable status response (body: %s)", truncate(body)), err)
	}
	return out, nil
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
