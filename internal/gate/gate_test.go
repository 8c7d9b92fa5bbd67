package gate_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/continuum-pay/continuum/internal/events"
	"github.com/continuum-pay/continuum/internal/gate"
	"github.com/continuum-pay/continuum/internal/testutil"
	"github.com/continuum-pay/continuum/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedResumer replays continuation round results and records the tokens
// it was asked to resume.
type scriptedResumer struct {
	mu     sync.Mutex
	steps  []resumeStep
	tokens []types.ContinuationToken
}

type resumeStep struct {
	token string
	ok    bool
	err   error
}

func (r *scriptedResumer) Resume(ctx context.Context, token types.ContinuationToken,
	attempt *types.PaymentAttemptState) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, token)
	if len(r.steps) == 0 {
		return "", false, fmt.Errorf("unexpected Resume call")
	}
	s := r.steps[0]
	r.steps = r.steps[1:]
	return s.token, s.ok, s.err
}

func (r *scriptedResumer) Tokens() []types.ContinuationToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.ContinuationToken(nil), r.tokens...)
}

func newGate(t *testing.T, mode types.HandlingMode, payments gate.PaymentClient,
	decisions gate.DecisionHandler, resumer gate.Resumer) *gate.Gate {
	t.Helper()
	g, err := gate.New(mode, payments, decisions, resumer, events.NewRecorder(0), nil)
	require.NoError(t, err)
	return g
}

func rawToken(tok types.ContinuationToken) string {
	return types.EncodeContinuationToken(tok)
}

var pollToken = types.ContinuationToken{
	Intent:    "WALLET_REDIRECTION",
	StatusURL: "https://api.example.com/status/pay_1",
}

func TestGate_New_Validation(t *testing.T) {
	payments := testutil.NewMockPaymentClient()

	_, err := gate.New(types.HandlingManual, payments, nil, &scriptedResumer{}, nil, nil)
	assert.Error(t, err, "manual mode requires a decision handler")

	_, err = gate.New("SOMETHING", payments, nil, &scriptedResumer{}, nil, nil)
	assert.Error(t, err)

	_, err = gate.New(types.HandlingAuto, nil, nil, &scriptedResumer{}, nil, nil)
	assert.Error(t, err)
}

func TestGate_Automatic_NoActionRequired(t *testing.T) {
	payments := testutil.NewMockPaymentClient().OnCreate(testutil.PaymentStep{
		Resp: types.PaymentResponse{ID: "pay_1", Status: types.PaymentSuccess, Amount: 1000},
	})
	resumer := &scriptedResumer{}
	g := newGate(t, types.HandlingAuto, payments, nil, resumer)

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1", Amount: 1000})
	require.True(t, outcome.Success())
	assert.Equal(t, "pay_1", outcome.Payment.ID)
	assert.Empty(t, payments.ResumeCalls(), "no resume call without a required action")
	assert.Empty(t, resumer.Tokens())
}

func TestGate_Automatic_ActionThenResume(t *testing.T) {
	payments := testutil.NewMockPaymentClient().
		OnCreate(testutil.PaymentStep{Resp: types.PaymentResponse{
			ID: "pay_1", Status: types.PaymentPending, RequiredActionToken: rawToken(pollToken),
		}}).
		OnResume(testutil.PaymentStep{Resp: types.PaymentResponse{
			ID: "pay_1", Status: types.PaymentSettled,
		}})
	resumer := &scriptedResumer{steps: []resumeStep{{token: "resume_tok_1", ok: true}}}
	g := newGate(t, types.HandlingAuto, payments, nil, resumer)

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1"})
	require.True(t, outcome.Success())
	assert.Equal(t, types.PaymentSettled, outcome.Payment.Status)

	require.Len(t, payments.ResumeCalls(), 1)
	assert.Equal(t, "resume_tok_1", payments.ResumeCalls()[0].ResumeToken)
	assert.Equal(t, []string{"pay_1"}, payments.ResumeIDs())
	require.Len(t, resumer.Tokens(), 1)
	assert.Equal(t, pollToken, resumer.Tokens()[0])
}

func TestGate_Automatic_SecondContinuationRound(t *testing.T) {
	secondToken := types.ContinuationToken{
		Intent:    "BANK_REDIRECTION",
		StatusURL: "https://api.example.com/status/pay_1/second",
	}
	payments := testutil.NewMockPaymentClient().
		OnCreate(testutil.PaymentStep{Resp: types.PaymentResponse{
			ID: "pay_1", Status: types.PaymentPending, RequiredActionToken: rawToken(pollToken),
		}}).
		OnResume(testutil.PaymentStep{Resp: types.PaymentResponse{
			ID: "pay_1b", Status: types.PaymentPending, RequiredActionToken: rawToken(secondToken),
		}}).
		OnResume(testutil.PaymentStep{Resp: types.PaymentResponse{
			ID: "pay_1b", Status: types.PaymentSuccess,
		}})
	resumer := &scriptedResumer{steps: []resumeStep{
		{token: "resume_tok_1", ok: true},
		{token: "resume_tok_2", ok: true},
	}}
	g := newGate(t, types.HandlingAuto, payments, nil, resumer)

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1"})
	require.True(t, outcome.Success())

	// The resume payment ID is fixed by the first action-required response
	// and never overwritten, even though a later snapshot carries pay_1b.
	assert.Equal(t, []string{"pay_1", "pay_1"}, payments.ResumeIDs())
	require.Len(t, resumer.Tokens(), 2)
	assert.Equal(t, secondToken, resumer.Tokens()[1])
}

func TestGate_Automatic_ResumeFailureReasonMapped(t *testing.T) {
	payments := testutil.NewMockPaymentClient().
		OnCreate(testutil.PaymentStep{Resp: types.PaymentResponse{
			ID: "pay_1", Status: types.PaymentPending, RequiredActionToken: rawToken(pollToken),
		}}).
		OnResume(testutil.PaymentStep{Resp: types.PaymentResponse{
			ID: "pay_1", Status: types.PaymentFailed, FailureReason: "INSUFFICIENT_FUNDS",
		}})
	resumer := &scriptedResumer{steps: []resumeStep{{token: "resume_tok_1", ok: true}}}
	g := newGate(t, types.HandlingAuto, payments, nil, resumer)

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1"})
	require.False(t, outcome.Success())
	assert.Equal(t, types.ErrCodePaymentFailed, types.CodeOf(outcome.Err))
	assert.Contains(t, outcome.Err.Error(), "insufficient funds")
}

func TestGate_CreateFailed(t *testing.T) {
	payments := testutil.NewMockPaymentClient().OnCreate(testutil.PaymentStep{
		Resp: types.PaymentResponse{ID: "pay_1", Status: types.PaymentFailed, FailureReason: "FRAUD_SUSPECTED"},
	})
	g := newGate(t, types.HandlingAuto, payments, nil, &scriptedResumer{})

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1"})
	require.False(t, outcome.Success())
	assert.Equal(t, types.ErrCodePaymentFailed, types.CodeOf(outcome.Err))
	assert.Contains(t, outcome.Err.Error(), "fraud")
}

func TestGate_CreateTransportError_NotRetried(t *testing.T) {
	payments := testutil.NewMockPaymentClient().OnCreate(testutil.PaymentStep{
		Err: fmt.Errorf("connection reset"),
	})
	g := newGate(t, types.HandlingAuto, payments, nil, &scriptedResumer{})

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1"})
	require.False(t, outcome.Success())
	assert.Equal(t, types.ErrCodeTransport, types.CodeOf(outcome.Err))
	assert.Len(t, payments.CreateCalls(), 1, "create calls are not retried by the core")
}

func TestGate_Manual_Succeed(t *testing.T) {
	payments := testutil.NewMockPaymentClient().OnCreate(testutil.PaymentStep{
		Resp: types.PaymentResponse{ID: "pay_1", Status: types.PaymentPending, RequiredActionToken: rawToken(pollToken)},
	})
	handler := testutil.NewQueueDecisionHandler(types.Succeed())
	resumer := &scriptedResumer{steps: []resumeStep{{token: "resume_tok_1", ok: true}}}
	g := newGate(t, types.HandlingManual, payments, handler, resumer)

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1"})
	require.True(t, outcome.Success())
	assert.Equal(t, "pay_1", outcome.Payment.ID, "success uses the last known snapshot")
	assert.Empty(t, payments.ResumeCalls(), "manual mode never calls resume itself")

	prompts := handler.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, "resume_tok_1", prompts[0].ResumeToken)
}

func TestGate_Manual_FailWithMessage(t *testing.T) {
	payments := testutil.NewMockPaymentClient().OnCreate(testutil.PaymentStep{
		Resp: types.PaymentResponse{ID: "pay_1", Status: types.PaymentPending, RequiredActionToken: rawToken(pollToken)},
	})
	handler := testutil.NewQueueDecisionHandler(types.FailWith("risk check rejected"))
	resumer := &scriptedResumer{steps: []resumeStep{{token: "resume_tok_1", ok: true}}}
	g := newGate(t, types.HandlingManual, payments, handler, resumer)

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1"})
	require.False(t, outcome.Success())
	assert.Equal(t, types.ErrCodeMerchantAborted, types.CodeOf(outcome.Err))
	assert.Contains(t, outcome.Err.Error(), "risk check rejected")
}

func TestGate_Manual_FailWithoutMessage(t *testing.T) {
	payments := testutil.NewMockPaymentClient().OnCreate(testutil.PaymentStep{
		Resp: types.PaymentResponse{ID: "pay_1", Status: types.PaymentPending, RequiredActionToken: rawToken(pollToken)},
	})
	handler := testutil.NewQueueDecisionHandler(types.FailWith(""))
	resumer := &scriptedResumer{steps: []resumeStep{{token: "resume_tok_1", ok: true}}}
	g := newGate(t, types.HandlingManual, payments, handler, resumer)

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1"})
	require.False(t, outcome.Success())
	assert.Contains(t, outcome.Err.Error(), "no message")
}

func TestGate_Manual_ContinueLoop(t *testing.T) {
	secondToken := types.ContinuationToken{
		Intent:    "QR_REDIRECTION",
		StatusURL: "https://api.example.com/status/pay_1/qr",
	}
	payments := testutil.NewMockPaymentClient().OnCreate(testutil.PaymentStep{
		Resp: types.PaymentResponse{ID: "pay_1", Status: types.PaymentPending, RequiredActionToken: rawToken(pollToken)},
	})
	handler := testutil.NewQueueDecisionHandler(
		types.ContinueWith(secondToken),
		types.Succeed(),
	)
	resumer := &scriptedResumer{steps: []resumeStep{
		{token: "resume_tok_1", ok: true},
		{token: "resume_tok_2", ok: true},
	}}
	g := newGate(t, types.HandlingManual, payments, handler, resumer)

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1"})
	require.True(t, outcome.Success())

	// The continue decision triggers a second continuation round and a
	// second callback before the terminal outcome.
	require.Len(t, resumer.Tokens(), 2)
	assert.Equal(t, secondToken, resumer.Tokens()[1])
	require.Len(t, handler.Prompts(), 2)
	assert.Equal(t, "resume_tok_2", handler.Prompts()[1].ResumeToken)
}

func TestGate_Manual_NoResumeToken_SkipsCallback(t *testing.T) {
	payments := testutil.NewMockPaymentClient().OnCreate(testutil.PaymentStep{
		Resp: types.PaymentResponse{ID: "pay_1", Status: types.PaymentPending, RequiredActionToken: rawToken(pollToken)},
	})
	handler := testutil.NewQueueDecisionHandler()
	resumer := &scriptedResumer{steps: []resumeStep{{ok: false}}}
	g := newGate(t, types.HandlingManual, payments, handler, resumer)

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1"})
	require.True(t, outcome.Success())
	assert.Empty(t, handler.Prompts(), "no callback when the round produced no resume token")
}

func TestGate_Cancellation_CompletesAttempt(t *testing.T) {
	payments := testutil.NewMockPaymentClient().OnCreate(testutil.PaymentStep{
		Resp: types.PaymentResponse{ID: "pay_1", Status: types.PaymentPending, RequiredActionToken: rawToken(pollToken)},
	})
	resumer := &scriptedResumer{steps: []resumeStep{{err: types.ErrUserCancelled}}}
	g := newGate(t, types.HandlingAuto, payments, nil, resumer)

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1"})
	require.False(t, outcome.Success())
	assert.True(t, errors.Is(outcome.Err, types.ErrUserCancelled),
		"cancellation is a distinct error kind, not silently swallowed")
}

func TestGate_UndecodableContinuationToken(t *testing.T) {
	payments := testutil.NewMockPaymentClient().OnCreate(testutil.PaymentStep{
		Resp: types.PaymentResponse{ID: "pay_1", Status: types.PaymentPending, RequiredActionToken: "%%not-base64%%"},
	})
	g := newGate(t, types.HandlingAuto, payments, nil, &scriptedResumer{})

	outcome := g.Run(context.Background(), types.CreatePaymentRequest{OrderID: "order_1"})
	require.False(t, outcome.Success())
	assert.Equal(t, types.ErrCodeInvalidToken, types.CodeOf(outcome.Err))
}
