package domain

import "time"

type ReceiptMethod string

const (
	ReceiptMethodOnline ReceiptMethod = "online"
	ReceiptMethodManual ReceiptMethod = "manual"
)

// Receipt is immutable once issued. A re-verification issues a new receipt that supersedes the old one.
type Receipt struct {
	ID               int32         `json:"id"`
	ReceiptNumber    string        `json:"receipt_number"` // RCP-YYYYMM-NNNN
	SponsorshipID    int32         `json:"sponsorship_id"`
	IntentID         *int32        `json:"intent_id,omitempty"`
	Amount           float64       `json:"amount"`
	Currency         string        `json:"currency"`
	Method           ReceiptMethod `json:"method"`
	GatewayPaymentID string        `json:"gateway_payment_id,omitempty"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	PaymentType      string        `json:"payment_type,omitempty"`
	IssuedTo         string        `json:"issued_to"`
	IssuedAt         time.Time     `json:"issued_at"`
	SupersedesID     *int32        `json:"supersedes_id,omitempty"`
}

// ReceiptDetails is what the payment path hands to the receipt generator
type ReceiptDetails struct {
	IntentID         *int32
	Amount           float64
	Currency         string
	GatewayPaymentID string
	PaymentReference string
	PaymentType      string
	IssuedTo         string
}
