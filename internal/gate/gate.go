// Package gate decides how a resumable payment is settled: automatically via
// the resume endpoint, or manually via a merchant-supplied decision callback.
// It also drives the whole attempt from creation to its single terminal
// outcome.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/continuum-pay/continuum/internal/events"
	"github.com/continuum-pay/continuum/internal/lifecycle"
	"github.com/continuum-pay/continuum/internal/metrics"
	"github.com/continuum-pay/continuum/pkg/types"
)

// PaymentClient is the consumed create/resume payment contract. Network
// failures on these calls are not retried here; retry policy, if any,
// belongs to the transport layer.
type PaymentClient interface {
	CreatePayment(ctx context.Context, req types.CreatePaymentRequest) (types.PaymentResponse, error)
	ResumePayment(ctx context.Context, id string, req types.ResumePaymentRequest) (types.PaymentResponse, error)
}

// DecisionHandler is the merchant decision callback consulted in manual
// mode. It must return exactly one decision per invocation.
type DecisionHandler interface {
	Decide(ctx context.Context, prompt types.DecisionPrompt) (types.ResumeDecision, error)
}

// Resumer executes one continuation round. Implemented by the resume
// orchestrator.
type Resumer interface {
	Resume(ctx context.Context, token types.ContinuationToken, attempt *types.PaymentAttemptState) (string, bool, error)
}

// Gate owns the settle loop for one handling mode. The mode is fixed at
// construction, once per SDK configuration, not per call.
type Gate struct {
	mode      types.HandlingMode
	payments  PaymentClient
	decisions DecisionHandler
	resumer   Resumer
	recorder  *events.Recorder
	logger    *slog.Logger
}

// New creates a Gate. Manual mode requires a decision handler.
func New(mode types.HandlingMode, payments PaymentClient, decisions DecisionHandler,
	resumer Resumer, recorder *events.Recorder, logger *slog.Logger) (*Gate, error) {
	if payments == nil {
		return nil, fmt.Errorf("payment client is required")
	}
	if resumer == nil {
		return nil, fmt.Errorf("resumer is required")
	}
	if mode == types.HandlingManual && decisions == nil {
		return nil, fmt.Errorf("manual handling mode requires a decision handler")
	}
	if mode != types.HandlingAuto && mode != types.HandlingManual {
		return nil, fmt.Errorf("unknown handling mode %q", mode)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = events.NewRecorder(0)
	}
	return &Gate{
		mode:      mode,
		payments:  payments,
		decisions: decisions,
		resumer:   resumer,
		recorder:  recorder,
		logger:    logger,
	}, nil
}

// Run drives one payment attempt end to end and produces exactly one
// terminal outcome, never zero and never more than one. Cancellation
// completes the attempt with a failure outcome rather than leaving it
// hanging.
func (g *Gate) Run(ctx context.Context, req types.CreatePaymentRequest) types.TerminalOutcome {
	tracer := otel.Tracer("continuum/gate")
	ctx, span := tracer.Start(ctx, "attempt.run")
	defer span.End()

	attempt := types.NewPaymentAttemptState(ulid.Make().String())
	span.SetAttributes(attribute.String("attempt.id", attempt.ID))
	g.advance(attempt, types.AttemptProcessing)

	resp, err := g.payments.CreatePayment(ctx, req)
	if err != nil {
		return g.fail(attempt, types.WrapError(types.ErrCodeTransport, "create payment call failed", err))
	}
	// Snapshot updated immediately after every successful remote call, so a
	// later failure in the same iteration still sees the latest state.
	attempt.RecordSnapshot(resp.Snapshot())
	g.record(attempt, types.EventPaymentCreated, string(resp.Status))

	if resp.Status == types.PaymentFailed {
		return g.fail(attempt, mapPaymentFailure(resp))
	}
	if !resp.RequiresAction() {
		return g.succeed(attempt)
	}

	// First action-required response fixes the resume payment ID for the
	// remainder of the attempt.
	attempt.MarkResumable(resp.ID)

	token, err := types.DecodeContinuationToken(resp.RequiredActionToken)
	if err != nil {
		return g.fail(attempt, types.WrapError(types.ErrCodeInvalidToken, "server issued an undecodable continuation token", err))
	}

	return g.Settle(ctx, token, attempt)
}

// Settle runs continuation rounds until the attempt reaches a terminal
// outcome. The merchant's continue decision and the server's follow-up
// continuation tokens both feed back into this loop. Iteration, not
// recursion, so continuation depth never grows the call stack.
func (g *Gate) Settle(ctx context.Context, token types.ContinuationToken,
	attempt *types.PaymentAttemptState) types.TerminalOutcome {

	for {
		if err := ctx.Err(); err != nil {
			return g.fail(attempt, types.WrapError(types.ErrCodeUserCancelled, "attempt context cancelled", err))
		}
		g.advance(attempt, types.AttemptActionRequired)

		resumeToken, hasToken, err := g.resumer.Resume(ctx, token, attempt)
		if err != nil {
			return g.fail(attempt, err)
		}
		g.advance(attempt, types.AttemptResuming)

		outcome, next, done := g.settleOnce(ctx, resumeToken, hasToken, attempt)
		if done {
			return outcome
		}
		token = next
	}
}

// settleOnce performs exactly one of {resume-payment call, merchant-callback
// invocation} and reports whether the attempt is finished. When it is not,
// next carries the continuation token for the following round.
func (g *Gate) settleOnce(ctx context.Context, resumeToken string, hasToken bool,
	attempt *types.PaymentAttemptState) (outcome types.TerminalOutcome, next types.ContinuationToken, done bool) {

	switch g.mode {
	case types.HandlingManual:
		if !hasToken {
			// Nothing left to decide: the last known snapshot is final.
			return g.succeed(attempt), types.ContinuationToken{}, true
		}
		metrics.DecisionLoops.Add(1)
		g.record(attempt, types.EventDecisionRequested, "")
		decision, err := g.decisions.Decide(ctx, types.DecisionPrompt{
			ResumeToken: resumeToken,
			HasToken:    hasToken,
			Payment:     attempt.Snapshot(),
		})
		if err != nil {
			return g.fail(attempt, types.WrapError(types.ErrCodeMerchantAborted, "merchant decision callback failed", err)), types.ContinuationToken{}, true
		}
		g.record(attempt, types.EventDecisionReceived, string(decision.Kind))

		switch decision.Kind {
		case types.DecisionSucceed:
			return g.succeed(attempt), types.ContinuationToken{}, true
		case types.DecisionFail:
			message := decision.Message
			if message == "" {
				message = "payment rejected by merchant with no message"
			}
			return g.fail(attempt, types.NewFlowError(types.ErrCodeMerchantAborted, message)), types.ContinuationToken{}, true
		case types.DecisionContinue:
			if decision.Token == nil {
				return g.fail(attempt, types.NewFlowError(types.ErrCodeInvalidToken, "continue decision carried no token")), types.ContinuationToken{}, true
			}
			return types.TerminalOutcome{}, *decision.Token, false
		default:
			return g.fail(attempt, types.NewFlowError(types.ErrCodeMerchantAborted,
				fmt.Sprintf("unrecognized decision %q", decision.Kind))), types.ContinuationToken{}, true
		}

	default: // automatic
		if !hasToken {
			return g.succeed(attempt), types.ContinuationToken{}, true
		}
		metrics.ResumeCalls.Add(1)
		resp, err := g.payments.ResumePayment(ctx, attempt.ResumePaymentID(),
			types.ResumePaymentRequest{ResumeToken: resumeToken})
		if err != nil {
			return g.fail(attempt, types.WrapError(types.ErrCodeTransport, "resume payment call failed", err)), types.ContinuationToken{}, true
		}
		attempt.RecordSnapshot(resp.Snapshot())
		g.record(attempt, types.EventPaymentResumed, string(resp.Status))

		if resp.Status == types.PaymentFailed {
			return g.fail(attempt, mapPaymentFailure(resp)), types.ContinuationToken{}, true
		}
		if resp.RequiresAction() {
			token, err := types.DecodeContinuationToken(resp.RequiredActionToken)
			if err != nil {
				return g.fail(attempt, types.WrapError(types.ErrCodeInvalidToken, "server issued an undecodable continuation token", err)), types.ContinuationToken{}, true
			}
			return types.TerminalOutcome{}, token, false
		}
		return g.succeed(attempt), types.ContinuationToken{}, true
	}
}

func (g *Gate) succeed(attempt *types.PaymentAttemptState) types.TerminalOutcome {
	g.advance(attempt, types.AttemptSucceeded)
	g.record(attempt, types.EventAttemptSucceeded, "")
	metrics.AttemptsSucceeded.Add(1)
	snap := attempt.Snapshot()
	if snap == nil {
		// Reachable only if a success path ran before any remote call
		// completed, which would be a programming error.
		return types.TerminalOutcome{AttemptID: attempt.ID, Err: types.NewFlowError(types.ErrCodePaymentFailed, "no payment snapshot available")}
	}
	return types.TerminalOutcome{AttemptID: attempt.ID, Payment: snap}
}

func (g *Gate) fail(attempt *types.PaymentAttemptState, err error) types.TerminalOutcome {
	if errors.Is(err, types.ErrUserCancelled) {
		g.advance(attempt, types.AttemptCancelled)
		g.record(attempt, types.EventAttemptCancelled, err.Error())
		metrics.AttemptsCancelled.Add(1)
	} else {
		g.advance(attempt, types.AttemptFailed)
		g.record(attempt, types.EventAttemptFailed, err.Error())
		metrics.AttemptsFailed.Add(1)
	}
	g.logger.Warn("payment attempt did not succeed",
		"attempt", attempt.ID, "code", types.CodeOf(err), "error", err)
	return types.TerminalOutcome{AttemptID: attempt.ID, Err: err}
}

func (g *Gate) advance(attempt *types.PaymentAttemptState, to types.AttemptStatus) {
	if err := lifecycle.Transition(attempt.Status, to); err != nil {
		g.logger.Error("attempt lifecycle violation", "attempt", attempt.ID, "error", err)
		return
	}
	attempt.Status = to
}

func (g *Gate) record(attempt *types.PaymentAttemptState, kind types.EventKind, message string) {
	event := types.Event{Kind: kind, AttemptID: attempt.ID, Message: message}
	if snap := attempt.Snapshot(); snap != nil {
		event.PaymentID = snap.ID
	}
	g.recorder.Append(event)
}
