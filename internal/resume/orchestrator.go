// Package resume implements the continuation branch machine: given a
// continuation token it dispatches to the challenge, redirect-plus-poll, or
// poll-only branch and collects the resume token that continues the payment.
package resume

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/continuum-pay/continuum/internal/classify"
	"github.com/continuum-pay/continuum/internal/events"
	"github.com/continuum-pay/continuum/internal/lifecycle"
	"github.com/continuum-pay/continuum/internal/metrics"
	"github.com/continuum-pay/continuum/internal/poll"
	"github.com/continuum-pay/continuum/pkg/types"
)

const dismissTimeout = 10 * time.Second

// Orchestrator executes one continuation round per Resume call. It never
// retries a failed branch: retry, where it exists, lives inside the poller
// for transient transport errors only.
type Orchestrator struct {
	status     poll.StatusClient
	challenge  ChallengeRunner
	presenters PresenterFactory
	pollCfg    types.PollConfig
	recorder   *events.Recorder
	logger     *slog.Logger
}

// New creates an Orchestrator. challenge and presenters may be nil when the
// integration has no challenge or redirect surface; the corresponding
// branches then fail fast instead of hanging.
func New(status poll.StatusClient, challenge ChallengeRunner, presenters PresenterFactory,
	pollCfg types.PollConfig, recorder *events.Recorder, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = events.NewRecorder(0)
	}
	return &Orchestrator{
		status:     status,
		challenge:  challenge,
		presenters: presenters,
		pollCfg:    pollCfg,
		recorder:   recorder,
		logger:     logger,
	}
}

// Resume classifies the token and drives the resulting branch to completion.
// ok is false when the token requires no further resume call. Any branch
// failure is wrapped into a FlowError carrying the underlying cause.
func (o *Orchestrator) Resume(ctx context.Context, token types.ContinuationToken,
	attempt *types.PaymentAttemptState) (resumeToken string, ok bool, err error) {

	tracer := otel.Tracer("continuum/resume")
	ctx, span := tracer.Start(ctx, "resume.round")
	defer span.End()

	action, err := classify.Classify(token, attempt.ResumePaymentID())
	if err != nil {
		return "", false, err
	}
	span.SetAttributes(attribute.String("continuation.action", string(action.Kind)))
	o.record(attempt, types.EventActionClassified, string(action.Kind))

	switch action.Kind {
	case types.ActionNone:
		return "", false, nil
	case types.ActionThreeDSChallenge:
		o.advance(attempt, types.AttemptChallenging)
		tok, err := o.runChallenge(ctx, action, attempt)
		return tok, err == nil, err
	case types.ActionProcessorRedirect, types.ActionRedirect:
		if action.HasRedirect() {
			o.advance(attempt, types.AttemptRedirecting)
			tok, err := o.browseAndPoll(ctx, action, attempt)
			return tok, err == nil, err
		}
		o.advance(attempt, types.AttemptPolling)
		tok, err := o.pollOnly(ctx, action, attempt)
		return tok, err == nil, err
	default:
		return "", false, types.NewFlowError(types.ErrCodeInvalidToken,
			"continuation resolved to an unknown action")
	}
}

func (o *Orchestrator) runChallenge(ctx context.Context, action types.RequiredAction,
	attempt *types.PaymentAttemptState) (string, error) {

	if o.challenge == nil {
		return "", types.NewFlowError(types.ErrCodeChallengeFailed, "no challenge runner configured")
	}
	o.record(attempt, types.EventChallengeStarted, action.PaymentReference)
	metrics.ChallengesRun.Add(1)

	token, err := o.challenge.Run(ctx, action.PaymentReference)
	if err != nil {
		metrics.ChallengesFailed.Add(1)
		o.record(attempt, types.EventChallengeFinished, "failed")
		return "", types.WrapError(types.ErrCodeChallengeFailed, "3DS challenge did not complete", err)
	}
	o.record(attempt, types.EventChallengeFinished, "completed")
	return token, nil
}

func (o *Orchestrator) pollOnly(ctx context.Context, action types.RequiredAction,
	attempt *types.PaymentAttemptState) (string, error) {

	o.record(attempt, types.EventPollStarted, action.StatusURL)
	poller := o.newPoller(action.StatusURL)
	id, err := poller.Start(ctx)
	if err != nil {
		return "", wrapPollError(err)
	}
	o.record(attempt, types.EventPollCompleted, id)
	return id, nil
}

type pollResult struct {
	id  string
	err error
}

type presentResult struct {
	event types.RedirectEvent
	err   error
}

// browseAndPoll runs the presenter and the poller as two concurrently active
// tasks. The first terminal event decides the outcome and the loser is
// actively cancelled, never merely ignored. The presenter is torn down
// exactly once on every exit path, and teardown completes before the branch
// returns.
func (o *Orchestrator) browseAndPoll(ctx context.Context, action types.RequiredAction,
	attempt *types.PaymentAttemptState) (resumeToken string, err error) {

	if o.presenters == nil {
		return "", types.NewFlowError(types.ErrCodeTransport, "no redirect presenter configured")
	}
	presenter := o.presenters()

	ctx, cancel := context.WithCancel(ctx)
	poller := o.newPoller(action.StatusURL)

	pollDone := make(chan pollResult, 1)
	go func() {
		id, perr := poller.Start(ctx)
		pollDone <- pollResult{id: id, err: perr}
	}()
	o.record(attempt, types.EventPollStarted, action.StatusURL)

	presentDone := make(chan presentResult, 1)
	go func() {
		ev, perr := presenter.Present(ctx, action.RedirectURL)
		presentDone <- presentResult{event: ev, err: perr}
	}()
	o.record(attempt, types.EventRedirectPresented, action.RedirectURL)
	metrics.RedirectsPresented.Add(1)

	pollConsumed, presentConsumed := false, false
	defer func() {
		// Release whichever task is still waiting, drain both so nothing
		// outlives the branch, then tear the presenter down exactly once
		// before the branch is declared finished.
		cancel()
		if !presentConsumed {
			<-presentDone
		}
		if !pollConsumed {
			<-pollDone
		}
		dctx, dcancel := context.WithTimeout(context.WithoutCancel(ctx), dismissTimeout)
		defer dcancel()
		if derr := presenter.Dismiss(dctx); derr != nil {
			o.logger.Warn("failed to dismiss redirect presenter",
				"attempt", attempt.ID, "error", derr)
		}
	}()

	select {
	case pr := <-pollDone:
		pollConsumed = true
		if pr.err != nil {
			return "", wrapPollError(pr.err)
		}
		o.record(attempt, types.EventPollCompleted, pr.id)
		return pr.id, nil

	case ps := <-presentDone:
		presentConsumed = true
		if ps.err != nil {
			poller.Fail(types.WrapError(types.ErrCodePollFailed, "redirect presenter failed", ps.err))
			<-pollDone
			pollConsumed = true
			return "", types.WrapError(types.ErrCodeTransport, "redirect presentation failed", ps.err)
		}
		switch ps.event {
		case types.RedirectDismissed:
			o.record(attempt, types.EventRedirectDismissed, "")
			metrics.RedirectsDismissed.Add(1)
			poller.Cancel(types.ErrUserCancelled)
			<-pollDone // discard: dismissal is authoritative for this branch
			pollConsumed = true
			return "", types.ErrUserCancelled
		default:
			// Sentinel observed: the poll result is the resume token.
			pr := <-pollDone
			pollConsumed = true
			if pr.err != nil {
				return "", wrapPollError(pr.err)
			}
			o.record(attempt, types.EventPollCompleted, pr.id)
			return pr.id, nil
		}
	}
}

func (o *Orchestrator) newPoller(statusURL string) *poll.Poller {
	target := types.PollTarget{URL: statusURL, RetryInterval: o.pollCfg.RetryInterval()}
	return poll.New(o.status, target,
		poll.WithPendingInterval(o.pollCfg.PendingInterval()),
		poll.WithLogger(o.logger))
}

func (o *Orchestrator) advance(attempt *types.PaymentAttemptState, to types.AttemptStatus) {
	if err := lifecycle.Transition(attempt.Status, to); err != nil {
		o.logger.Error("attempt lifecycle violation", "attempt", attempt.ID, "error", err)
		return
	}
	attempt.Status = to
}

func (o *Orchestrator) record(attempt *types.PaymentAttemptState, kind types.EventKind, message string) {
	event := types.Event{Kind: kind, AttemptID: attempt.ID, Message: message}
	if snap := attempt.Snapshot(); snap != nil {
		event.PaymentID = snap.ID
	}
	o.recorder.Append(event)
}

// wrapPollError keeps structured poll failures intact and wraps everything
// else (context errors, transport surprises) as a poll failure.
func wrapPollError(err error) error {
	var fe *types.FlowError
	if errors.As(err, &fe) {
		return err
	}
	return types.WrapError(types.ErrCodePollFailed, "status polling did not complete", err)
}
