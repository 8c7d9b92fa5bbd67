package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/continuum-pay/continuum/pkg/types"
)

// PaymentClient creates and resumes payments against the gateway. Neither
// operation is retried here: create and resume are not idempotent, so a
// failed call surfaces to the caller instead of being replayed.
type PaymentClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewPaymentClient creates a payment client from the API configuration.
func NewPaymentClient(cfg types.APIConfig, logger *slog.Logger) *PaymentClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentClient{
		http:    &http.Client{Timeout: cfg.Timeout()},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// CreatePayment starts a new payment.
func (c *PaymentClient) CreatePayment(ctx context.Context, req types.CreatePaymentRequest) (types.PaymentResponse, error) {
	return c.post(ctx, c.baseURL+"/payments", req)
}

// ResumePayment continues a pending payment with the resume token collected
// from the latest continuation round.
func (c *PaymentClient) ResumePayment(ctx context.Context, id string, req types.ResumePaymentRequest) (types.PaymentResponse, error) {
	return c.post(ctx, fmt.Sprintf("%s/payments/%s/resume", c.baseURL, id), req)
}

func (c *PaymentClient) post(ctx context.Context, url string, payload any) (types.PaymentResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return types.PaymentResponse{}, types.WrapError(types.ErrCodeTransport, "marshaling request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return types.PaymentResponse{}, types.WrapError(types.ErrCodeTransport, "creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return types.PaymentResponse{}, types.WrapError(types.ErrCodeTransport, "payment request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.PaymentResponse{}, types.WrapError(types.ErrCodeTransport, "reading payment response", err)
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn("payment call rejected", "url", url, "status", resp.StatusCode)
		return types.PaymentResponse{}, types.NewFlowError(types.ErrCodeTransport,
			fmt.Sprintf("gateway returned %d: %s", resp.StatusCode, truncate(respBody)))
	}

	var out types.PaymentResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return types.PaymentResponse{}, types.WrapError(types.ErrCodeTransport,
			fmt.Sprintf("undecodable payment response (body: %s)", truncate(respBody)), err)
	}
	return out, nil
}
