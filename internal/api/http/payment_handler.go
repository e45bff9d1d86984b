package http

import (
	"fmt"
	"net/http"

	"sponsorhub-backend/internal/service"
)

type verifyPaymentRequest struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

type refundRequest struct {
	Amount *float64 `json:"amount,omitempty"`
	Reason string   `json:"reason"`
}

func (h *Handler) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	intentID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.svc.Payments.CreatePaymentOrder(r.Context(), optionalActor(r.Context()), intentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) VerifyGatewayPayment(w http.ResponseWriter, r *http.Request) {
	intentID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req verifyPaymentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		writeError(w, r, fmt.Errorf("%w: orderId, paymentId and signature are required", errBadRequest))
		return
	}
	outcome, err := h.svc.Payments.VerifyGatewayPayment(r.Context(), optionalActor(r.Context()), intentID, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) VerifyManualPayment(w http.ResponseWriter, r *http.Request) {
	adminID, intentID, err := actorAndPathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var input service.ManualPaymentInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	outcome, err := h.svc.Payments.VerifyManualPayment(r.Context(), adminID, intentID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	adminID, intentID, err := actorAndPathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req refundRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sp, err := h.svc.Payments.RefundPayment(r.Context(), adminID, intentID, req.Amount, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}
