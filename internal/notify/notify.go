// Package notify dispatches terminal-outcome notifications to configured sinks.
package notify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/continuum-pay/continuum/pkg/types"
)

// Notification describes one finished payment attempt.
type Notification struct {
	AttemptID string    `json:"attemptId"`
	PaymentID string    `json:"paymentId,omitempty"`
	Success   bool      `json:"success"`
	Status    string    `json:"status,omitempty"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FromOutcome builds a notification from a terminal outcome.
func FromOutcome(outcome types.TerminalOutcome) Notification {
	n := Notification{
		AttemptID: outcome.AttemptID,
		Success:   outcome.Success(),
		Timestamp: time.Now(),
	}
	if outcome.Payment != nil {
		n.PaymentID = outcome.Payment.ID
		n.Status = string(outcome.Payment.Status)
	}
	if outcome.Err != nil {
		n.Code = string(types.CodeOf(outcome.Err))
		n.Message = outcome.Err.Error()
	}
	return n
}

// Sink is a notification destination.
type Sink interface {
	Send(n Notification) error
	Name() string
}

// Dispatcher routes notifications to configured sinks.
type Dispatcher struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher from notifier configs.
func NewDispatcher(configs []types.NotifierConfig, logger *slog.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{logger: logger}
	for _, cfg := range configs {
		sink, err := newSink(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating %s sink: %w", cfg.Type, err)
		}
		d.sinks = append(d.sinks, sink)
	}
	return d, nil
}

// Dispatch sends a notification to all configured sinks. Sink failures are
// logged, never propagated: a broken webhook must not fail the attempt.
func (d *Dispatcher) Dispatch(n Notification) {
	for _, sink := range d.sinks {
		if err := sink.Send(n); err != nil {
			d.logger.Warn("notification delivery failed", "sink", sink.Name(), "error", err)
		}
	}
}

func newSink(cfg types.NotifierConfig) (Sink, error) {
	switch cfg.Type {
	case "console":
		return NewConsoleSink(), nil
	case "webhook":
		if cfg.URL == "" {
			return nil, fmt.Errorf("webhook URL required")
		}
		return NewWebhookSink(cfg.URL), nil
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file path required")
		}
		return NewFileSink(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown notifier type %q", cfg.Type)
	}
}
