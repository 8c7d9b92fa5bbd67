// Package poll implements the status poller: it repeatedly queries a remote
// status endpoint until the payment reaches a terminal state, retrying on
// transient transport failures, and can be cancelled or failed from any
// concurrent context.
package poll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/continuum-pay/continuum/internal/metrics"
	"github.com/continuum-pay/continuum/pkg/types"
)

// StatusClient is the consumed status endpoint contract.
type StatusClient interface {
	Poll(ctx context.Context, url string) (types.PollResponse, error)
}

// Poller drives one logical poll against a single PollTarget. A Poller is
// owned by exactly one orchestrator branch invocation and must not be reused
// for another poll.
type Poller struct {
	client          StatusClient
	target          types.PollTarget
	pendingInterval time.Duration
	logger          *slog.Logger

	mu      sync.Mutex
	cause   error // write-once poison; dominates all later scheduling
	started bool
	stopCh  chan struct{}
}

// Option configures a Poller.
type Option func(*Poller)

// WithPendingInterval overrides the delay applied after a pending status.
func WithPendingInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.pendingInterval = d
		}
	}
}

// WithLogger sets the poller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Poller for one logical poll of the given target.
func New(client StatusClient, target types.PollTarget, opts ...Option) *Poller {
	if target.RetryInterval <= 0 {
		target.RetryInterval = types.DefaultRetryInterval
	}
	p := &Poller{
		client:          client,
		target:          target,
		pendingInterval: types.DefaultPendingInterval,
		logger:          slog.Default(),
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cancel poisons the poller with a cancellation cause. The first write wins;
// later Cancel or Fail calls are no-ops. Safe to call from any goroutine at
// any time, including while a request is in flight: the in-flight request
// completes normally, but no further tick is scheduled.
func (p *Poller) Cancel(cause error) {
	if cause == nil {
		cause = types.ErrUserCancelled
	}
	p.poison(cause)
}

// Fail poisons the poller with an external failure cause. Write-once with
// the same semantics as Cancel.
func (p *Poller) Fail(cause error) {
	if cause == nil {
		cause = types.NewFlowError(types.ErrCodePollFailed, "poll failed externally")
	}
	p.poison(cause)
}

func (p *Poller) poison(cause error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cause != nil {
		return
	}
	p.cause = cause
	close(p.stopCh)
}

func (p *Poller) poisoned() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cause
}

// Start runs the poll loop until it reaches a terminal state and returns the
// resume ID. Pending statuses retick after a short fixed delay, transient
// transport errors retick after the target's retry interval. Neither is
// capped; the poller relies on Cancel, Fail, or ctx for an upper bound.
// A pending status is never surfaced to the caller.
func (p *Poller) Start(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return "", fmt.Errorf("poller for %s already started", p.target.URL)
	}
	p.started = true
	p.mu.Unlock()

	for {
		// Poison check must happen before any network call.
		if cause := p.poisoned(); cause != nil {
			return "", cause
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := p.client.Poll(ctx, p.target.URL)
		metrics.PollsTotal.Add(1)
		if err != nil {
			// Transient transport failure: retried indefinitely, unlike a
			// definitive failed status from the server.
			metrics.PollRetries.Add(1)
			p.logger.Warn("status poll failed, retrying",
				"url", p.target.URL, "interval", p.target.RetryInterval, "error", err)
			if werr := p.wait(ctx, p.target.RetryInterval); werr != nil {
				return "", werr
			}
			continue
		}

		switch resp.Status {
		case types.PollComplete:
			return resp.ID, nil
		case types.PollFailed:
			return "", types.NewFlowError(types.ErrCodePollFailed,
				"status endpoint reported a failed payment")
		case types.PollPending:
			if werr := p.wait(ctx, p.pendingInterval); werr != nil {
				return "", werr
			}
		default:
			return "", types.NewFlowError(types.ErrCodeUnexpectedPollStatus,
				fmt.Sprintf("unrecognized poll status %q", resp.Status))
		}
	}
}

// wait sleeps for d but returns early when the poller is poisoned or the
// context ends.
func (p *Poller) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-p.stopCh:
		return p.poisoned()
	case <-ctx.Done():
		return ctx.Err()
	}
}
