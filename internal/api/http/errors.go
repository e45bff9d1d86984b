package http

import (
	"errors"
	"net/http"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
)

var (
	errUnauthenticated = &domain.CodedError{Code: "UNAUTHENTICATED", Message: "authorization token is not provided"}
	errInvalidToken    = &domain.CodedError{Code: "INVALID_TOKEN", Message: "invalid or expired token"}
	errAccessRequired  = &domain.CodedError{Code: "ACCESS_TOKEN_REQUIRED", Message: "access token required"}
	errBadRequest      = &domain.CodedError{Code: "BAD_REQUEST", Message: "malformed request"}
	errInternal        = &domain.CodedError{Code: "INTERNAL", Message: "internal server error"}
)

type errorResponse struct {
	Message     string `json:"message"`
	Error       string `json:"error"`
	Remediation string `json:"remediation,omitempty"`
}

func statusFor(code string) int {
	switch code {
	case "BAD_REQUEST", "VALIDATION_FAILED", "UNKNOWN_DECISION", "INVALID_SIGNATURE":
		return http.StatusBadRequest
	case "UNAUTHENTICATED", "INVALID_TOKEN":
		return http.StatusUnauthorized
	case "PAYMENT_REQUIRED":
		return http.StatusPaymentRequired
	case "ACCESS_TOKEN_REQUIRED", "NOT_ORG_ADMIN", "NOT_INTENT_OWNER":
		return http.StatusForbidden
	case "NOT_FOUND":
		return http.StatusNotFound
	case "INTENT_LOCKED", "ALREADY_CONVERTED", "PAYMENT_ALREADY_COMPLETED", "VERIFICATION_IN_PROGRESS":
		return http.StatusConflict
	case "INVALID_TRANSITION", "NOT_APPROVED", "NOT_MONETARY", "AMOUNT_MISMATCH", "NO_GATEWAY_PAYMENT":
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError renders err as {message, error, remediation}. Server-side
// failures only expose the coded message, never the wrapped cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ce *domain.CodedError
	if !errors.As(err, &ce) {
		ce = errInternal
	}
	status := statusFor(ce.Code)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = ce.Message
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, errorResponse{
		Message:     message,
		Error:       ce.Code,
		Remediation: ce.Remediation,
	})
}
