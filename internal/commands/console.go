package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/continuum-pay/continuum/pkg/checkout"
	"github.com/continuum-pay/continuum/pkg/types"
)

// consolePresenter stands in for a redirect surface when driving attempts
// from a terminal. It prints the redirect URL and reports completion right
// away; the status poll still decides when the payment is actually done.
type consolePresenter struct{}

func newConsolePresenter() checkout.RedirectPresenter {
	return consolePresenter{}
}

func (consolePresenter) Present(ctx context.Context, url string) (types.RedirectEvent, error) {
	color.Cyan("Redirect: %s", url)
	return types.RedirectCompleted, nil
}

func (consolePresenter) Dismiss(ctx context.Context) error {
	color.Cyan("Redirect surface closed")
	return nil
}

// consoleChallengeRunner fakes the 3DS challenge surface for sandbox runs.
type consoleChallengeRunner struct{}

func (consoleChallengeRunner) Run(ctx context.Context, paymentReference string) (string, error) {
	color.Cyan("Performing 3DS challenge for %s", paymentReference)
	return "sandbox-challenge-token", nil
}

// consoleDecisionHandler prompts the operator for the manual-mode decision.
type consoleDecisionHandler struct {
	in io.Reader
}

func (h consoleDecisionHandler) Decide(ctx context.Context, prompt types.DecisionPrompt) (types.ResumeDecision, error) {
	color.Yellow("Resume token: %s", prompt.ResumeToken)
	fmt.Print("Decision ([s]ettle / [f]ail, default settle): ")

	line, err := bufio.NewReader(h.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return types.ResumeDecision{}, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "f", "fail":
		return types.FailWith("rejected at the terminal"), nil
	default:
		return types.Succeed(), nil
	}
}
