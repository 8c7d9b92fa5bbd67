package server

import (
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/continuum-pay/continuum/pkg/types"
)

// Scenario names selected by the payment method token. Unknown tokens fall
// back to the redirect scenario.
const (
	scenarioSuccess  = "pm_success"
	scenarioDeclined = "pm_declined"
	scenarioThreeDS  = "pm_3ds"
	scenarioRedirect = "pm_redirect"
	scenarioPollOnly = "pm_poll"
)

// sandboxPayment is one simulated payment and its poll countdown.
type sandboxPayment struct {
	resp      types.PaymentResponse
	pollsLeft int
}

// store holds the sandbox's simulated payments. In-memory only: a restart
// forgets everything, which is the point of a sandbox.
type store struct {
	mu           sync.Mutex
	payments     map[string]*sandboxPayment
	pendingPolls int
}

func newStore(pendingPolls int) *store {
	if pendingPolls <= 0 {
		pendingPolls = 2
	}
	return &store{
		payments:     make(map[string]*sandboxPayment),
		pendingPolls: pendingPolls,
	}
}

// create simulates the create-payment call. The payment method token picks
// the scenario; baseURL seeds the redirect and status URLs handed back in
// the continuation token.
func (s *store) create(req types.CreatePaymentRequest, baseURL string) types.PaymentResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := "pay_" + ulid.Make().String()
	resp := types.PaymentResponse{
		ID:       id,
		OrderID:  req.OrderID,
		Status:   types.PaymentPending,
		Amount:   req.Amount,
		Currency: req.Currency,
	}

	switch req.PaymentMethodToken {
	case scenarioSuccess:
		resp.Status = types.PaymentSuccess
	case scenarioDeclined:
		resp.Status = types.PaymentFailed
		resp.FailureReason = "DECLINED_BY_ISSUER"
	case scenarioThreeDS:
		resp.RequiredActionToken = types.EncodeContinuationToken(types.ContinuationToken{
			Intent: types.Intent3DSAuthentication,
		})
	case scenarioPollOnly:
		resp.RequiredActionToken = types.EncodeContinuationToken(types.ContinuationToken{
			Intent:    "BANK" + types.RedirectionIntentSuffix,
			StatusURL: fmt.Sprintf("%s/status/%s", baseURL, id),
		})
	default:
		resp.RequiredActionToken = types.EncodeContinuationToken(types.ContinuationToken{
			Intent:      "WALLET" + types.RedirectionIntentSuffix,
			RedirectURL: fmt.Sprintf("%s/redirect/%s", baseURL, id),
			StatusURL:   fmt.Sprintf("%s/status/%s", baseURL, id),
		})
	}

	s.payments[id] = &sandboxPayment{resp: resp, pollsLeft: s.pendingPolls}
	return resp
}

// poll simulates the status endpoint: pending until the countdown runs out,
// complete afterwards.
func (s *store) poll(id string) (types.PollResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return types.PollResponse{}, false
	}
	if p.resp.Status == types.PaymentFailed {
		return types.PollResponse{Status: types.PollFailed}, true
	}
	if p.pollsLeft > 0 {
		p.pollsLeft--
		return types.PollResponse{Status: types.PollPending}, true
	}
	return types.PollResponse{Status: types.PollComplete, ID: id}, true
}

// resume simulates the resume-payment call and settles the payment.
func (s *store) resume(id string) (types.PaymentResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return types.PaymentResponse{}, false
	}
	p.resp.Status = types.PaymentSettled
	p.resp.RequiredActionToken = ""
	return p.resp, true
}

// get returns the current payment snapshot.
func (s *store) get(id string) (types.PaymentResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return types.PaymentResponse{}, false
	}
	return p.resp, true
}
