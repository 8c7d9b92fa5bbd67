package notify

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/continuum-pay/continuum/pkg/types"
)

// ConsoleSink writes notifications to the terminal with color.
type ConsoleSink struct{}

// NewConsoleSink creates a new console notification sink.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{}
}

// Name returns the sink identifier.
func (s *ConsoleSink) Name() string { return "console" }

// Send writes a notification to the terminal, color-coded by outcome.
func (s *ConsoleSink) Send(n Notification) error {
	if n.Success {
		fmt.Printf("%s payment %s finished with status %s\n",
			color.GreenString("[OK]"), n.PaymentID, n.Status)
		return nil
	}
	prefix := color.RedString("[FAILED]")
	if n.Code == string(types.ErrCodeUserCancelled) {
		prefix = color.YellowString("[CANCELLED]")
	}
	fmt.Printf("%s attempt %s: %s\n", prefix, n.AttemptID, n.Message)
	return nil
}
