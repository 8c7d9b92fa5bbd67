// Package checkout is the public SDK surface. A Client wires the payment
// gateway transport, the continuation orchestrator and the resume gate into
// a single entry point: CreatePayment drives one payment attempt to its
// terminal outcome.
package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/continuum-pay/continuum/internal/client"
	"github.com/continuum-pay/continuum/internal/events"
	"github.com/continuum-pay/continuum/internal/gate"
	"github.com/continuum-pay/continuum/internal/notify"
	"github.com/continuum-pay/continuum/internal/resume"
	"github.com/continuum-pay/continuum/pkg/types"
)

// RedirectPresenter is the integrator-supplied redirect surface.
type RedirectPresenter = resume.RedirectPresenter

// ChallengeRunner is the integrator-supplied 3DS challenge surface.
type ChallengeRunner = resume.ChallengeRunner

// DecisionHandler is the merchant decision callback used in manual mode.
type DecisionHandler = gate.DecisionHandler

// Option customizes a Client.
type Option func(*options)

type options struct {
	presenters      resume.PresenterFactory
	challengeRunner resume.ChallengeRunner
	decisions       gate.DecisionHandler
	logger          *slog.Logger
}

// WithRedirectPresenter installs the factory producing one presenter per
// redirect. Required for any integration whose payment methods redirect.
func WithRedirectPresenter(factory func() RedirectPresenter) Option {
	return func(o *options) {
		o.presenters = func() resume.RedirectPresenter { return factory() }
	}
}

// WithChallengeRunner installs the 3DS challenge surface.
func WithChallengeRunner(runner ChallengeRunner) Option {
	return func(o *options) { o.challengeRunner = runner }
}

// WithDecisionHandler installs the merchant decision callback. Required in
// manual mode, ignored in automatic mode.
func WithDecisionHandler(handler DecisionHandler) Option {
	return func(o *options) { o.decisions = handler }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Client drives payment attempts against the configured gateway.
type Client struct {
	gate       *gate.Gate
	recorder   *events.Recorder
	dispatcher *notify.Dispatcher
}

// New creates a Client from the configuration.
func New(cfg types.Config, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api base URL is required")
	}

	recorder := events.NewRecorder(0)
	status := client.NewStatusClient(cfg.API, o.logger)
	payments := client.NewPaymentClient(cfg.API, o.logger)
	orchestrator := resume.New(status, o.challengeRunner, o.presenters, cfg.Poll, recorder, o.logger)

	g, err := gate.New(cfg.Mode, payments, o.decisions, orchestrator, recorder, o.logger)
	if err != nil {
		return nil, err
	}
	dispatcher, err := notify.NewDispatcher(cfg.Notifiers, o.logger)
	if err != nil {
		return nil, err
	}
	return &Client{gate: g, recorder: recorder, dispatcher: dispatcher}, nil
}

// CreatePayment starts a payment and drives every continuation round until
// the attempt reaches its terminal outcome. Exactly one outcome is returned
// per call; cancellation of ctx surfaces as a failed outcome, never a hang.
func (c *Client) CreatePayment(ctx context.Context, req types.CreatePaymentRequest) types.TerminalOutcome {
	outcome := c.gate.Run(ctx, req)
	c.dispatcher.Dispatch(notify.FromOutcome(outcome))
	return outcome
}

// Events returns the recorded timeline for one attempt.
func (c *Client) Events(attemptID string) []types.Event {
	return c.recorder.ForAttempt(attemptID)
}

// AllEvents returns every recorded event across attempts.
func (c *Client) AllEvents() []types.Event {
	return c.recorder.All()
}
