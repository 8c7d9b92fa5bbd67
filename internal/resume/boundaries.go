package resume

import (
	"context"

	"github.com/continuum-pay/continuum/pkg/types"
)

// RedirectPresenter is the external UI collaborator that displays a redirect
// URL to the user. Present blocks until it observes a navigation to the
// completion sentinel or the user dismisses the surface, or ctx ends.
// A presenter is a single-use, single-owner resource: the branch that
// obtained it tears it down with Dismiss exactly once, on every exit path.
type RedirectPresenter interface {
	Present(ctx context.Context, url string) (types.RedirectEvent, error)
	Dismiss(ctx context.Context) error
}

// PresenterFactory supplies a fresh presenter for each redirect branch. The
// overall resume flow has no built-in wall-clock timeout, so the surface
// behind the presenter is expected to cancel (dismiss) after its own timer
// fires.
type PresenterFactory func() RedirectPresenter

// ChallengeRunner is the external collaborator that performs an in-SDK
// strong-authentication challenge for a payment reference, returning the
// resume token on success. It owns its own retry policy; the orchestrator
// never retries a failed challenge.
type ChallengeRunner interface {
	Run(ctx context.Context, paymentReference string) (string, error)
}
