// Package classify resolves a continuation token into the single
// required-action branch that governs the rest of the attempt.
package classify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/continuum-pay/continuum/pkg/types"
)

// Classify inspects a decoded continuation token and derives the required
// action. It is a pure function over the token and the externally supplied
// payment reference. A token yields exactly one action; classification
// failures are fatal for the attempt and never retried.
func Classify(token types.ContinuationToken, paymentReference string) (types.RequiredAction, error) {
	switch {
	case token.Intent == types.Intent3DSAuthentication:
		if paymentReference == "" {
			return types.RequiredAction{}, types.NewFlowError(types.ErrCodeMissingContext,
				"3DS authentication requires a stored payment reference")
		}
		return types.RequiredAction{
			Kind:             types.ActionThreeDSChallenge,
			PaymentReference: paymentReference,
		}, nil

	case token.Intent == types.IntentProcessor3DS:
		if err := requireURL("redirectUrl", token.RedirectURL); err != nil {
			return types.RequiredAction{}, err
		}
		if err := requireURL("statusUrl", token.StatusURL); err != nil {
			return types.RequiredAction{}, err
		}
		return types.RequiredAction{
			Kind:        types.ActionProcessorRedirect,
			RedirectURL: token.RedirectURL,
			StatusURL:   token.StatusURL,
		}, nil

	case strings.HasSuffix(token.Intent, types.RedirectionIntentSuffix):
		if err := requireURL("statusUrl", token.StatusURL); err != nil {
			return types.RequiredAction{}, err
		}
		// redirectUrl is optional here: present means browse-then-poll,
		// absent means poll-only.
		if token.RedirectURL != "" {
			if err := requireURL("redirectUrl", token.RedirectURL); err != nil {
				return types.RequiredAction{}, err
			}
		}
		return types.RequiredAction{
			Kind:        types.ActionRedirect,
			RedirectURL: token.RedirectURL,
			StatusURL:   token.StatusURL,
		}, nil

	default:
		return types.RequiredAction{}, types.NewFlowError(types.ErrCodeInvalidToken,
			fmt.Sprintf("unrecognized continuation intent %q", token.Intent))
	}
}

func requireURL(field, raw string) error {
	if raw == "" {
		return types.NewFlowError(types.ErrCodeInvalidToken,
			fmt.Sprintf("continuation token is missing %s", field))
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return types.NewFlowError(types.ErrCodeInvalidToken,
			fmt.Sprintf("continuation token has malformed %s %q", field, raw))
	}
	return nil
}
