// Package types defines the public domain types for the Continuum payment
// continuation core.
package types

// Continuation token intents recognized by the classifier. Any other intent
// signals a client/server contract mismatch.
const (
	Intent3DSAuthentication = "3DS_AUTHENTICATION"
	IntentProcessor3DS      = "PROCESSOR_3DS"

	// RedirectionIntentSuffix marks the family of processor-specific
	// redirection intents (e.g. BANK_REDIRECTION, WALLET_REDIRECTION).
	RedirectionIntentSuffix = "_REDIRECTION"
)

// ActionKind identifies the required-action branch derived from a
// continuation token.
type ActionKind string

// ActionKind values enumerate the continuation branches.
const (
	ActionThreeDSChallenge  ActionKind = "3DS_CHALLENGE"
	ActionProcessorRedirect ActionKind = "PROCESSOR_REDIRECT"
	ActionRedirect          ActionKind = "REDIRECTION"
	ActionNone              ActionKind = "NONE"
)

// PaymentStatus represents the server-declared state of a payment.
type PaymentStatus string

// PaymentStatus values mirror the payment backend's status field.
const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentAuthorized PaymentStatus = "AUTHORIZED"
	PaymentSettled    PaymentStatus = "SETTLED"
	PaymentSuccess    PaymentStatus = "SUCCESS"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentDeclined   PaymentStatus = "DECLINED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
)

// IsSuccessful reports whether the status is a successful terminal state.
func (s PaymentStatus) IsSuccessful() bool {
	return s == PaymentSuccess || s == PaymentAuthorized || s == PaymentSettled
}

// PollStatus is the wire status returned by the remote status endpoint.
type PollStatus string

// PollStatus values are the recognized status endpoint responses. Anything
// else is a fatal decode error for the poll.
const (
	PollPending  PollStatus = "pending"
	PollComplete PollStatus = "complete"
	PollFailed   PollStatus = "failed"
)

// HandlingMode selects how resumable payments are settled. It is fixed once
// per SDK configuration, not per call.
type HandlingMode string

const (
	HandlingAuto   HandlingMode = "AUTO"
	HandlingManual HandlingMode = "MANUAL"
)

// DecisionKind tags the merchant decision callback outcome.
type DecisionKind string

// DecisionKind values enumerate the merchant decisions in manual mode.
const (
	DecisionSucceed  DecisionKind = "SUCCEED"
	DecisionFail     DecisionKind = "FAIL"
	DecisionContinue DecisionKind = "CONTINUE_WITH_NEW_TOKEN"
)

// RedirectEvent is the terminal event reported by a redirect presenter.
type RedirectEvent string

const (
	// RedirectCompleted means the presenter observed a navigation to the
	// completion sentinel URL.
	RedirectCompleted RedirectEvent = "COMPLETED"
	// RedirectDismissed means the user closed the redirect surface before
	// completion.
	RedirectDismissed RedirectEvent = "DISMISSED"
)

// FailureCategory classifies why a remote call failed.
type FailureCategory string

const (
	FailureTransient FailureCategory = "TRANSIENT"
	FailurePermanent FailureCategory = "PERMANENT"
	FailureTimeout   FailureCategory = "TIMEOUT"
)

// AttemptStatus represents the lifecycle state of one payment attempt.
type AttemptStatus string

// AttemptStatus values represent the lifecycle states of a payment attempt.
const (
	AttemptCreated        AttemptStatus = "CREATED"
	AttemptProcessing     AttemptStatus = "PROCESSING"
	AttemptActionRequired AttemptStatus = "ACTION_REQUIRED"
	AttemptChallenging    AttemptStatus = "CHALLENGING"
	AttemptRedirecting    AttemptStatus = "REDIRECTING"
	AttemptPolling        AttemptStatus = "POLLING"
	AttemptResuming       AttemptStatus = "RESUMING"
	AttemptSucceeded      AttemptStatus = "SUCCEEDED"
	AttemptFailed         AttemptStatus = "FAILED"
	AttemptCancelled      AttemptStatus = "CANCELLED"
)

// EventKind classifies the type of attempt timeline event.
type EventKind string

// EventKind values enumerate the categories of recorded events.
const (
	EventPaymentCreated    EventKind = "PAYMENT_CREATED"
	EventActionClassified  EventKind = "ACTION_CLASSIFIED"
	EventChallengeStarted  EventKind = "CHALLENGE_STARTED"
	EventChallengeFinished EventKind = "CHALLENGE_FINISHED"
	EventRedirectPresented EventKind = "REDIRECT_PRESENTED"
	EventRedirectDismissed EventKind = "REDIRECT_DISMISSED"
	EventPollStarted       EventKind = "POLL_STARTED"
	EventPollCompleted     EventKind = "POLL_COMPLETED"
	EventPaymentResumed    EventKind = "PAYMENT_RESUMED"
	EventDecisionRequested EventKind = "DECISION_REQUESTED"
	EventDecisionReceived  EventKind = "DECISION_RECEIVED"
	EventAttemptSucceeded  EventKind = "ATTEMPT_SUCCEEDED"
	EventAttemptFailed     EventKind = "ATTEMPT_FAILED"
	EventAttemptCancelled  EventKind = "ATTEMPT_CANCELLED"
)
