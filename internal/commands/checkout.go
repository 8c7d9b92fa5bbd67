package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/continuum-pay/continuum/internal/config"
	"github.com/continuum-pay/continuum/internal/telemetry"
	"github.com/continuum-pay/continuum/pkg/checkout"
	"github.com/continuum-pay/continuum/pkg/types"
)

// NewCheckoutCmd creates the checkout command.
func NewCheckoutCmd() *cobra.Command {
	var (
		orderID     string
		amount      int64
		currency    string
		methodToken string
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Drive one payment attempt against the configured gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckout(cmd.Context(), types.CreatePaymentRequest{
				OrderID:            orderID,
				Amount:             amount,
				Currency:           currency,
				PaymentMethodToken: methodToken,
			})
		},
	}

	cmd.Flags().StringVar(&orderID, "order", "", "order identifier (required)")
	cmd.Flags().Int64Var(&amount, "amount", 1000, "amount in minor units")
	cmd.Flags().StringVar(&currency, "currency", "EUR", "ISO currency code")
	cmd.Flags().StringVar(&methodToken, "method", "pm_redirect", "payment method token")
	_ = cmd.MarkFlagRequired("order")
	return cmd
}

func runCheckout(ctx context.Context, req types.CreatePaymentRequest) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	logger := slog.Default()

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(flushCtx)
	}()

	if err := probeGateway(ctx, cfg.API.BaseURL); err != nil {
		return fmt.Errorf("gateway not reachable at %s: %w", cfg.API.BaseURL, err)
	}

	client, err := checkout.New(*cfg,
		checkout.WithLogger(logger),
		checkout.WithRedirectPresenter(newConsolePresenter),
		checkout.WithChallengeRunner(consoleChallengeRunner{}),
		checkout.WithDecisionHandler(consoleDecisionHandler{in: os.Stdin}),
	)
	if err != nil {
		return err
	}

	color.Cyan("Starting payment for order %s (%d %s)", req.OrderID, req.Amount, req.Currency)
	outcome := client.CreatePayment(ctx, req)

	for _, e := range client.Events(outcome.AttemptID) {
		fmt.Printf("  %s  %-20s %s\n", e.Timestamp.Format(time.TimeOnly), e.Kind, e.Message)
	}

	if !outcome.Success() {
		color.Red("Payment did not succeed: %v", outcome.Err)
		return fmt.Errorf("attempt %s failed", outcome.AttemptID)
	}
	color.Green("Payment %s finished with status %s", outcome.Payment.ID, outcome.Payment.Status)
	return nil
}

// probeGateway waits for the gateway health endpoint to answer, backing off
// exponentially for up to 15 seconds.
func probeGateway(ctx context.Context, baseURL string) error {
	httpClient := &http.Client{Timeout: 2 * time.Second}
	probe := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return struct{}{}, fmt.Errorf("health endpoint returned %d", resp.StatusCode)
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, probe,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(15*time.Second),
	)
	return err
}
