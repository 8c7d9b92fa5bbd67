package types

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a structured failure variant surfaced to the merchant.
type ErrorCode string

// ErrorCode values enumerate the failure variants of the continuation core.
const (
	ErrCodeInvalidToken         ErrorCode = "INVALID_CONTINUATION_TOKEN"
	ErrCodeMissingContext       ErrorCode = "MISSING_PAYMENT_CONTEXT"
	ErrCodeUnexpectedPollStatus ErrorCode = "UNEXPECTED_POLL_STATUS"
	ErrCodeChallengeFailed      ErrorCode = "CHALLENGE_PERFORM_FAILED"
	ErrCodeUserCancelled        ErrorCode = "USER_CANCELLED"
	ErrCodePaymentFailed        ErrorCode = "PAYMENT_FAILED"
	ErrCodeMerchantAborted      ErrorCode = "MERCHANT_ABORTED"
	ErrCodePollFailed           ErrorCode = "POLL_FAILED"
	ErrCodeTransport            ErrorCode = "TRANSPORT_ERROR"
)

// FlowError is a structured failure carrying a stable code, a merchant-facing
// message, and the underlying cause when one exists.
type FlowError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *FlowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *FlowError) Unwrap() error {
	return e.Cause
}

// Is matches FlowErrors by code, so sentinel comparisons like
// errors.Is(err, ErrUserCancelled) work across wrapping.
func (e *FlowError) Is(target error) bool {
	var fe *FlowError
	if !errors.As(target, &fe) {
		return false
	}
	return e.Code == fe.Code
}

// NewFlowError creates a FlowError with no underlying cause.
func NewFlowError(code ErrorCode, message string) *FlowError {
	return &FlowError{Code: code, Message: message}
}

// WrapError creates a FlowError wrapping an underlying cause.
func WrapError(code ErrorCode, message string, cause error) *FlowError {
	return &FlowError{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the error code from err, or empty if err carries none.
func CodeOf(err error) ErrorCode {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// ErrUserCancelled is the cancellation poison written into a poller when the
// user dismisses the redirect surface. It still completes the attempt with a
// Failure outcome, never leaves it hanging.
var ErrUserCancelled = NewFlowError(ErrCodeUserCancelled, "payment cancelled by user")
