package types

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// ContinuationToken is a decoded server-issued token describing the follow-up
// action required before a payment can complete. It is immutable: created
// once per continuation round and consumed exactly once by the classifier.
type ContinuationToken struct {
	Intent      string `json:"intent"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	StatusURL   string `json:"statusUrl,omitempty"`
}

// RequiresChallenge reports whether the token's intent demands an in-SDK
// strong-authentication challenge.
func (t ContinuationToken) RequiresChallenge() bool {
	return t.Intent == Intent3DSAuthentication
}

// DecodeContinuationToken decodes a raw base64 client token into a
// ContinuationToken. The raw token is treated as opaque by everything except
// this codec.
func DecodeContinuationToken(raw string) (ContinuationToken, error) {
	var tok ContinuationToken
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return tok, fmt.Errorf("decoding continuation token: %w", err)
	}
	if err := json.Unmarshal(data, &tok); err != nil {
		return tok, fmt.Errorf("parsing continuation token: %w", err)
	}
	return tok, nil
}

// EncodeContinuationToken encodes a token into its raw wire form.
func EncodeContinuationToken(tok ContinuationToken) string {
	data, _ := json.Marshal(tok)
	return base64.StdEncoding.EncodeToString(data)
}

// RequiredAction is the classifier's output: the single branch a
// continuation token resolves to, with the fields that branch needs.
type RequiredAction struct {
	Kind             ActionKind
	PaymentReference string // 3DS challenge only
	RedirectURL      string // empty for poll-only redirection
	StatusURL        string
}

// HasRedirect reports whether the action includes a user-facing browse step.
func (a RequiredAction) HasRedirect() bool {
	return a.RedirectURL != ""
}

// PollTarget identifies one logical poll: a status URL plus the wait applied
// after transient transport failures. A PollTarget is owned by exactly one
// poller instance and never shared across concurrent polls.
type PollTarget struct {
	URL           string
	RetryInterval time.Duration
}

// PollResponse is the status endpoint's wire response.
type PollResponse struct {
	Status PollStatus `json:"status"`
	ID     string     `json:"id,omitempty"`
}

// ResumeDecision is the merchant decision callback's outcome in manual mode.
// Exactly one decision is produced per callback invocation.
type ResumeDecision struct {
	Kind    DecisionKind
	Message string
	Token   *ContinuationToken
}

// Succeed builds a decision that finishes the attempt with the last known
// payment snapshot.
func Succeed() ResumeDecision {
	return ResumeDecision{Kind: DecisionSucceed}
}

// FailWith builds a decision that fails the attempt with a merchant message.
func FailWith(message string) ResumeDecision {
	return ResumeDecision{Kind: DecisionFail, Message: message}
}

// ContinueWith builds a decision that requests another continuation round.
func ContinueWith(tok ContinuationToken) ResumeDecision {
	return ResumeDecision{Kind: DecisionContinue, Token: &tok}
}

// DecisionPrompt is what the merchant decision callback receives: the resume
// token collected by the current continuation round, or the last known
// payment snapshot when no further resume call is needed.
type DecisionPrompt struct {
	ResumeToken string
	HasToken    bool
	Payment     *Payment
}

// Payment is the last known payment snapshot for an attempt.
type Payment struct {
	ID            string        `json:"id"`
	OrderID       string        `json:"orderId,omitempty"`
	Status        PaymentStatus `json:"status"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currencyCode"`
	FailureReason string        `json:"paymentFailureReason,omitempty"`
}

// CreatePaymentRequest is the create-payment call's request body.
type CreatePaymentRequest struct {
	OrderID            string `json:"orderId"`
	Amount             int64  `json:"amount"`
	Currency           string `json:"currencyCode"`
	PaymentMethodToken string `json:"paymentMethodToken"`
}

// ResumePaymentRequest is the resume-payment call's request body.
type ResumePaymentRequest struct {
	ResumeToken string `json:"resumeToken"`
}

// PaymentResponse is the shared shape of create-payment and resume-payment
// responses. RequiredActionToken, when present, is a raw continuation token
// signalling that further action is needed before the payment completes.
type PaymentResponse struct {
	ID                  string        `json:"id"`
	OrderID             string        `json:"orderId,omitempty"`
	Status              PaymentStatus `json:"status"`
	Amount              int64         `json:"amount"`
	Currency            string        `json:"currencyCode"`
	RequiredActionToken string        `json:"requiredAction,omitempty"`
	FailureReason       string        `json:"paymentFailureReason,omitempty"`
}

// Snapshot converts the response into a payment snapshot.
func (r PaymentResponse) Snapshot() Payment {
	return Payment{
		ID:            r.ID,
		OrderID:       r.OrderID,
		Status:        r.Status,
		Amount:        r.Amount,
		Currency:      r.Currency,
		FailureReason: r.FailureReason,
	}
}

// RequiresAction reports whether the server signalled a continuation round.
func (r PaymentResponse) RequiresAction() bool {
	return r.RequiredActionToken != ""
}

// TerminalOutcome is the single result produced once per payment attempt.
// Exactly one of Payment and Err is set. AttemptID keys the attempt's
// recorded event timeline.
type TerminalOutcome struct {
	AttemptID string
	Payment   *Payment
	Err       error
}

// Success reports whether the attempt finished with a payment snapshot.
func (o TerminalOutcome) Success() bool {
	return o.Err == nil && o.Payment != nil
}

// PaymentAttemptState is the transient, orchestrator-local state of one
// payment attempt. It is owned by a single gate invocation and discarded
// once the attempt reaches a terminal outcome.
type PaymentAttemptState struct {
	ID     string
	Status AttemptStatus

	mu              sync.Mutex
	snapshot        *Payment
	resumePaymentID string
}

// NewPaymentAttemptState creates attempt state in the CREATED status.
func NewPaymentAttemptState(id string) *PaymentAttemptState {
	return &PaymentAttemptState{ID: id, Status: AttemptCreated}
}

// RecordSnapshot overwrites the last known payment snapshot. Writes are
// ordered by call completion; the last writer wins.
func (a *PaymentAttemptState) RecordSnapshot(p Payment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshot = &p
}

// Snapshot returns the last known payment snapshot, or nil before the first
// successful remote call.
func (a *PaymentAttemptState) Snapshot() *Payment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot
}

// MarkResumable records the payment ID used for resume calls. The first
// write wins; later calls are no-ops for the remainder of the attempt.
func (a *PaymentAttemptState) MarkResumable(paymentID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resumePaymentID == "" {
		a.resumePaymentID = paymentID
	}
}

// ResumePaymentID returns the payment ID set by the first action-required
// response, or empty if the attempt never became resumable.
func (a *PaymentAttemptState) ResumePaymentID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resumePaymentID
}

// Event is a single entry in an attempt's timeline.
type Event struct {
	Kind      EventKind `json:"kind"`
	AttemptID string    `json:"attemptId"`
	PaymentID string    `json:"paymentId,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
