package domain

import "errors"

// CodedError is a user-visible failure with a machine-readable code
type CodedError struct {
	Code        string `json:"error"`
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`
}

func (e *CodedError) Error() string {
	return e.Message
}

var (
	ErrNotFound          = &CodedError{Code: "NOT_FOUND", Message: "resource not found"}
	ErrValidation        = &CodedError{Code: "VALIDATION_FAILED", Message: "validation failed"}
	ErrNotOrgAdmin       = &CodedError{Code: "NOT_ORG_ADMIN", Message: "only organization admins can perform this action"}
	ErrNotIntentOwner    = &CodedError{Code: "NOT_INTENT_OWNER", Message: "only the sponsor who submitted this intent can perform this action"}
	ErrIntentLocked      = &CodedError{Code: "INTENT_LOCKED", Message: "intent can no longer be modified"}
	ErrInvalidTransition = &CodedError{Code: "INVALID_TRANSITION", Message: "decision is not valid for the intent's current status"}
	ErrUnknownDecision   = &CodedError{Code: "UNKNOWN_DECISION", Message: "unknown review decision"}

	ErrInvalidSignature = &CodedError{
		Code:    "INVALID_SIGNATURE",
		Message: "payment signature verification failed",
	}
	ErrPaymentRequired = &CodedError{
		Code:        "PAYMENT_REQUIRED",
		Message:     "monetary sponsorship cannot be converted before payment is completed",
		Remediation: "collect payment from the sponsor, or resubmit the decision with manualConversion=true to record an offline payment",
	}
	ErrPaymentAlreadyCompleted = &CodedError{Code: "PAYMENT_ALREADY_COMPLETED", Message: "payment for this intent is already completed"}
	ErrAlreadyConverted        = &CodedError{Code: "ALREADY_CONVERTED", Message: "intent has already been converted to a sponsorship"}
	ErrNotApproved             = &CodedError{Code: "NOT_APPROVED", Message: "intent must be approved before payment"}
	ErrNotMonetary             = &CodedError{Code: "NOT_MONETARY", Message: "only monetary sponsorships require payment"}
	ErrNoGatewayPayment        = &CodedError{Code: "NO_GATEWAY_PAYMENT", Message: "sponsorship has no gateway payment to refund"}
	ErrVerificationInProgress  = &CodedError{
		Code:        "VERIFICATION_IN_PROGRESS",
		Message:     "another payment verification for this intent is in progress",
		Remediation: "retry after the current verification completes",
	}
	ErrPaymentVerificationFailed = &CodedError{
		Code:    "PAYMENT_VERIFICATION_FAILED",
		Message: "payment verification failed, contact support if you were charged",
	}
	ErrAmountMismatch = &CodedError{Code: "AMOUNT_MISMATCH", Message: "paid amount does not match the order amount"}
)

// Code extracts the machine-readable code from err, or "" when err carries none
func Code(err error) string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
