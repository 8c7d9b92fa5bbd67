// Package lifecycle implements the payment attempt state machine.
package lifecycle

import (
	"fmt"

	"github.com/continuum-pay/continuum/pkg/types"
)

// Transition table: from -> allowed tos
var validTransitions = map[types.AttemptStatus][]types.AttemptStatus{
	types.AttemptCreated:    {types.AttemptProcessing, types.AttemptCancelled},
	types.AttemptProcessing: {types.AttemptActionRequired, types.AttemptSucceeded, types.AttemptFailed, types.AttemptCancelled},
	types.AttemptActionRequired: {
		types.AttemptChallenging, types.AttemptRedirecting, types.AttemptPolling,
		types.AttemptResuming, types.AttemptFailed, types.AttemptCancelled,
	},
	types.AttemptChallenging: {types.AttemptResuming, types.AttemptFailed, types.AttemptCancelled},
	types.AttemptRedirecting: {types.AttemptResuming, types.AttemptFailed, types.AttemptCancelled},
	types.AttemptPolling:     {types.AttemptResuming, types.AttemptFailed, types.AttemptCancelled},
	// RESUMING loops back to ACTION_REQUIRED when the server issues another
	// continuation token for the same attempt.
	types.AttemptResuming:  {types.AttemptActionRequired, types.AttemptSucceeded, types.AttemptFailed, types.AttemptCancelled},
	types.AttemptSucceeded: {},
	types.AttemptFailed:    {},
	types.AttemptCancelled: {},
}

// CanTransition checks if transitioning from one attempt status to another is valid.
func CanTransition(from, to types.AttemptStatus) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates the move, or returns an error if it is invalid.
func Transition(from, to types.AttemptStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminal returns true if the status is a terminal (final) state.
func IsTerminal(status types.AttemptStatus) bool {
	return status == types.AttemptSucceeded || status == types.AttemptFailed || status == types.AttemptCancelled
}
