// Package testutil provides shared mock collaborators for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/continuum-pay/continuum/pkg/types"
)

// PollStep is one scripted status endpoint response.
type PollStep struct {
	Resp types.PollResponse
	Err  error
}

// ScriptedStatusClient replays a fixed sequence of status responses. The last
// step repeats once the script is exhausted.
type ScriptedStatusClient struct {
	mu    sync.Mutex
	steps []PollStep
	calls int
	block chan struct{} // when set, Poll waits on it before answering
}

// NewScriptedStatusClient creates a client that replays the given steps.
func NewScriptedStatusClient(steps ...PollStep) *ScriptedStatusClient {
	return &ScriptedStatusClient{steps: steps}
}

// Block makes every Poll call wait until Release is called.
func (c *ScriptedStatusClient) Block() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block = make(chan struct{})
}

// Release unblocks pending and future Poll calls.
func (c *ScriptedStatusClient) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.block != nil {
		close(c.block)
		c.block = nil
	}
}

// Poll implements poll.StatusClient.
func (c *ScriptedStatusClient) Poll(ctx context.Context, url string) (types.PollResponse, error) {
	c.mu.Lock()
	idx := c.calls
	c.calls++
	if idx >= len(c.steps) {
		idx = len(c.steps) - 1
	}
	step := c.steps[idx]
	block := c.block
	c.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return types.PollResponse{}, ctx.Err()
		}
	}
	return step.Resp, step.Err
}

// Calls returns the number of Poll invocations so far.
func (c *ScriptedStatusClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// PaymentStep is one scripted payment endpoint response.
type PaymentStep struct {
	Resp types.PaymentResponse
	Err  error
}

// MockPaymentClient replays scripted create/resume payment responses and
// records the requests it received.
type MockPaymentClient struct {
	mu          sync.Mutex
	createSteps []PaymentStep
	resumeSteps []PaymentStep
	creates     []types.CreatePaymentRequest
	resumes     []types.ResumePaymentRequest
	resumeIDs   []string
}

// NewMockPaymentClient creates an empty mock payment client.
func NewMockPaymentClient() *MockPaymentClient {
	return &MockPaymentClient{}
}

// OnCreate appends a scripted create-payment response.
func (c *MockPaymentClient) OnCreate(step PaymentStep) *MockPaymentClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createSteps = append(c.createSteps, step)
	return c
}

// OnResume appends a scripted resume-payment response.
func (c *MockPaymentClient) OnResume(step PaymentStep) *MockPaymentClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeSteps = append(c.resumeSteps, step)
	return c
}

// CreatePayment implements the payments client contract.
func (c *MockPaymentClient) CreatePayment(ctx context.Context, req types.CreatePaymentRequest) (types.PaymentResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creates = append(c.creates, req)
	if len(c.createSteps) == 0 {
		return types.PaymentResponse{}, fmt.Errorf("unexpected CreatePayment call")
	}
	step := c.createSteps[0]
	c.createSteps = c.createSteps[1:]
	return step.Resp, step.Err
}

// ResumePayment implements the payments client contract.
func (c *MockPaymentClient) ResumePayment(ctx context.Context, id string, req types.ResumePaymentRequest) (types.PaymentResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumes = append(c.resumes, req)
	c.resumeIDs = append(c.resumeIDs, id)
	if len(c.resumeSteps) == 0 {
		return types.PaymentResponse{}, fmt.Errorf("unexpected ResumePayment call")
	}
	step := c.resumeSteps[0]
	c.resumeSteps = c.resumeSteps[1:]
	return step.Resp, step.Err
}

// CreateCalls returns the recorded create-payment requests.
func (c *MockPaymentClient) CreateCalls() []types.CreatePaymentRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.CreatePaymentRequest(nil), c.creates...)
}

// ResumeCalls returns the recorded resume-payment requests.
func (c *MockPaymentClient) ResumeCalls() []types.ResumePaymentRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.ResumePaymentRequest(nil), c.resumes...)
}

// ResumeIDs returns the payment IDs the resume calls targeted.
func (c *MockPaymentClient) ResumeIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.resumeIDs...)
}

// RecordingPresenter is a scripted redirect presenter that records teardown
// invocations.
type RecordingPresenter struct {
	mu        sync.Mutex
	event     types.RedirectEvent
	eventCh   chan types.RedirectEvent
	presented []string
	dismissed int
}

// NewRecordingPresenter creates a presenter that reports the given terminal
// event as soon as Present is called.
func NewRecordingPresenter(event types.RedirectEvent) *RecordingPresenter {
	return &RecordingPresenter{event: event}
}

// NewHeldPresenter creates a presenter whose Present call waits until an
// event is injected with Report, or the context ends.
func NewHeldPresenter() *RecordingPresenter {
	return &RecordingPresenter{eventCh: make(chan types.RedirectEvent, 1)}
}

// Report injects the presenter's terminal event.
func (p *RecordingPresenter) Report(event types.RedirectEvent) {
	p.eventCh <- event
}

// Present implements resume.RedirectPresenter.
func (p *RecordingPresenter) Present(ctx context.Context, url string) (types.RedirectEvent, error) {
	p.mu.Lock()
	p.presented = append(p.presented, url)
	ch := p.eventCh
	event := p.event
	p.mu.Unlock()

	if ch == nil {
		return event, nil
	}
	select {
	case ev := <-ch:
		return ev, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Dismiss implements resume.RedirectPresenter.
func (p *RecordingPresenter) Dismiss(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dismissed++
	return nil
}

// Presented returns the URLs handed to Present.
func (p *RecordingPresenter) Presented() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.presented...)
}

// Dismissed returns how many times teardown ran.
func (p *RecordingPresenter) Dismissed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dismissed
}

// StubChallengeRunner returns a fixed resume token or error.
type StubChallengeRunner struct {
	Token string
	Err   error

	mu   sync.Mutex
	refs []string
}

// Run implements resume.ChallengeRunner.
func (r *StubChallengeRunner) Run(ctx context.Context, paymentReference string) (string, error) {
	r.mu.Lock()
	r.refs = append(r.refs, paymentReference)
	r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	return r.Token, nil
}

// References returns the payment references the runner was invoked with.
func (r *StubChallengeRunner) References() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.refs...)
}

// QueueDecisionHandler replays a fixed sequence of merchant decisions and
// records the prompts it received.
type QueueDecisionHandler struct {
	mu        sync.Mutex
	decisions []types.ResumeDecision
	prompts   []types.DecisionPrompt
}

// NewQueueDecisionHandler creates a handler replaying the given decisions.
func NewQueueDecisionHandler(decisions ...types.ResumeDecision) *QueueDecisionHandler {
	return &QueueDecisionHandler{decisions: decisions}
}

// Decide implements gate.DecisionHandler.
func (h *QueueDecisionHandler) Decide(ctx context.Context, prompt types.DecisionPrompt) (types.ResumeDecision, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prompts = append(h.prompts, prompt)
	if len(h.decisions) == 0 {
		return types.ResumeDecision{}, fmt.Errorf("unexpected decision callback")
	}
	d := h.decisions[0]
	h.decisions = h.decisions[1:]
	return d, nil
}

// Prompts returns the recorded decision prompts.
func (h *QueueDecisionHandler) Prompts() []types.DecisionPrompt {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]types.DecisionPrompt(nil), h.prompts...)
}
