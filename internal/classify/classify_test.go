package classify_test

import (
	"errors"
	"testing"

	"github.com/continuum-pay/continuum/internal/classify"
	"github.com/continuum-pay/continuum/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_ThreeDSChallenge(t *testing.T) {
	token := types.ContinuationToken{Intent: types.Intent3DSAuthentication}

	action, err := classify.Classify(token, "pay_ref_1")
	require.NoError(t, err)
	assert.Equal(t, types.ActionThreeDSChallenge, action.Kind)
	assert.Equal(t, "pay_ref_1", action.PaymentReference)
}

func TestClassify_ThreeDSChallenge_MissingReference(t *testing.T) {
	token := types.ContinuationToken{Intent: types.Intent3DSAuthentication}

	_, err := classify.Classify(token, "")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeMissingContext, types.CodeOf(err))
}

func TestClassify_ProcessorRedirect(t *testing.T) {
	token := types.ContinuationToken{
		Intent:      types.IntentProcessor3DS,
		RedirectURL: "https://acs.example.com/challenge",
		StatusURL:   "https://api.example.com/status/pay_1",
	}

	action, err := classify.Classify(token, "")
	require.NoError(t, err)
	assert.Equal(t, types.ActionProcessorRedirect, action.Kind)
	assert.Equal(t, token.RedirectURL, action.RedirectURL)
	assert.Equal(t, token.StatusURL, action.StatusURL)
	assert.True(t, action.HasRedirect())
}

func TestClassify_ProcessorRedirect_MissingURLs(t *testing.T) {
	tests := []struct {
		name  string
		token types.ContinuationToken
	}{
		{"no redirect url", types.ContinuationToken{
			Intent:    types.IntentProcessor3DS,
			StatusURL: "https://api.example.com/status/pay_1",
		}},
		{"no status url", types.ContinuationToken{
			Intent:      types.IntentProcessor3DS,
			RedirectURL: "https://acs.example.com/challenge",
		}},
		{"malformed redirect url", types.ContinuationToken{
			Intent:      types.IntentProcessor3DS,
			RedirectURL: "not-a-url",
			StatusURL:   "https://api.example.com/status/pay_1",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := classify.Classify(tt.token, "")
			require.Error(t, err)
			assert.Equal(t, types.ErrCodeInvalidToken, types.CodeOf(err))
		})
	}
}

func TestClassify_Redirection_WithBrowseStep(t *testing.T) {
	token := types.ContinuationToken{
		Intent:      "BANK_REDIRECTION",
		RedirectURL: "https://bank.example.com/authorize",
		StatusURL:   "https://api.example.com/status/pay_2",
	}

	action, err := classify.Classify(token, "")
	require.NoError(t, err)
	assert.Equal(t, types.ActionRedirect, action.Kind)
	assert.True(t, action.HasRedirect())
}

func TestClassify_Redirection_PollOnly(t *testing.T) {
	token := types.ContinuationToken{
		Intent:    "WALLET_REDIRECTION",
		StatusURL: "https://api.example.com/status/pay_3",
	}

	action, err := classify.Classify(token, "")
	require.NoError(t, err)
	assert.Equal(t, types.ActionRedirect, action.Kind)
	assert.False(t, action.HasRedirect())
	assert.Equal(t, token.StatusURL, action.StatusURL)
}

func TestClassify_Redirection_NeverFailsWithStatusURL(t *testing.T) {
	// Any intent ending in _REDIRECTION with a well-formed status URL must
	// classify successfully, with or without a redirect URL.
	intents := []string{"BANK_REDIRECTION", "WALLET_REDIRECTION", "QR_REDIRECTION", "X_REDIRECTION"}
	for _, intent := range intents {
		for _, redirect := range []string{"", "https://pay.example.com/go"} {
			token := types.ContinuationToken{
				Intent:      intent,
				RedirectURL: redirect,
				StatusURL:   "https://api.example.com/status/pay_4",
			}
			_, err := classify.Classify(token, "")
			assert.NoError(t, err, "intent %s redirect %q", intent, redirect)
		}
	}
}

func TestClassify_Redirection_MissingStatusURL(t *testing.T) {
	token := types.ContinuationToken{Intent: "BANK_REDIRECTION"}

	_, err := classify.Classify(token, "")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeInvalidToken, types.CodeOf(err))
}

func TestClassify_UnrecognizedIntent(t *testing.T) {
	token := types.ContinuationToken{Intent: "SOMETHING_NEW"}

	_, err := classify.Classify(token, "")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeInvalidToken, types.CodeOf(err))

	var fe *types.FlowError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Message, "SOMETHING_NEW")
}
