package gate

import (
	"fmt"

	"github.com/continuum-pay/continuum/pkg/types"
)

// failureReasons maps server-declared failure-reason codes to merchant-facing
// messages, so a declined payment surfaces as something actionable instead of
// a generic failure.
var failureReasons = map[string]string{
	"INSUFFICIENT_FUNDS":     "the account has insufficient funds",
	"CARD_EXPIRED":           "the card has expired",
	"INVALID_CARD_NUMBER":    "the card number is invalid",
	"DECLINED_BY_ISSUER":     "the payment was declined by the issuing bank",
	"AUTHENTICATION_FAILED":  "strong customer authentication failed",
	"EXCEEDS_LIMIT":          "the payment exceeds the allowed limit",
	"FRAUD_SUSPECTED":        "the payment was declined on suspicion of fraud",
	"PROCESSOR_UNAVAILABLE":  "the payment processor is temporarily unavailable",
	"DUPLICATE_TRANSACTION":  "the payment was flagged as a duplicate transaction",
	"PAYMENT_METHOD_EXPIRED": "the stored payment method is no longer valid",
}

// mapPaymentFailure converts a failed payment response into a structured
// error, preferring a mapped reason message over the raw code.
func mapPaymentFailure(resp types.PaymentResponse) *types.FlowError {
	if resp.FailureReason == "" {
		return types.NewFlowError(types.ErrCodePaymentFailed, "payment failed with no declared reason")
	}
	if message, ok := failureReasons[resp.FailureReason]; ok {
		return types.NewFlowError(types.ErrCodePaymentFailed, message)
	}
	return types.NewFlowError(types.ErrCodePaymentFailed,
		fmt.Sprintf("payment failed: %s", resp.FailureReason))
}
