package domain

import (
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type GatewayRefs struct {
	OrderID   string `json:"order_id,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
	Signature string `json:"signature,omitempty"`
	RefundID  string `json:"refund_id,omitempty"`
}

// Payment is the payment sub-record shared by intents and sponsorships.
// Amounts are in major currency units.
type Payment struct {
	Status             PaymentStatus `json:"status"`
	Amount             float64       `json:"amount"`
	PaidAmount         float64       `json:"paid_amount"`
	Currency           string        `json:"currency,omitempty"`
	PaymentDate        *time.Time    `json:"payment_date,omitempty"`
	Gateway            GatewayRefs   `json:"gateway"`
	Verified           bool          `json:"verified"`
	VerifiedAt         *time.Time    `json:"verified_at,omitempty"`
	VerifiedBy         *int32        `json:"verified_by,omitempty"`
	ManualVerification bool          `json:"manual_verification,omitempty"`
	ManualConversion   bool          `json:"manual_conversion,omitempty"`
	PaymentType        string        `json:"payment_type,omitempty"`
	PaymentReference   string        `json:"payment_reference,omitempty"`
	PaymentNotes       string        `json:"payment_notes,omitempty"`
}

// VerifiedPayment is proof that a payment happened. It is either GatewayVerified
// (signature checked) or ManualAttestation (an admin vouched for it).
type VerifiedPayment interface {
	PaidAmount() float64
	verifiedPayment()
}

// GatewayVerified can only be obtained from NewGatewayVerified, which runs the signature check.
type GatewayVerified struct {
	orderID   string
	paymentID string
	signature string
	amount    float64
	method    string
}

// SignatureVerifier checks a gateway signature for an order/payment pair
type SignatureVerifier interface {
	VerifySignature(orderID, paymentID, signature string) bool
}

// NewGatewayVerified runs the signature check and returns the proof on success
func NewGatewayVerified(v SignatureVerifier, orderID, paymentID, signature string) (GatewayVerified, error) {
	if orderID == "" || paymentID == "" || signature == "" {
		return GatewayVerified{}, ErrInvalidSignature
	}
	if !v.VerifySignature(orderID, paymentID, signature) {
		return GatewayVerified{}, ErrInvalidSignature
	}
	return GatewayVerified{orderID: orderID, paymentID: paymentID, signature: signature}, nil
}

// WithCapturedAmount records the amount the gateway reports for the verified payment
func (g GatewayVerified) WithCapturedAmount(amount float64, method string) GatewayVerified {
	g.amount = amount
	g.method = method
	return g
}

func (g GatewayVerified) OrderID() string { return g.orderID }
func (g GatewayVerified) PaymentID() string { return g.paymentID }
func (g GatewayVerified) Signature() string { return g.signature }
func (g GatewayVerified) Method() string { return g.method }
func (g GatewayVerified) PaidAmount() float64 { return g.amount }
func (GatewayVerified) verifiedPayment() {}

// ManualAttestation is an admin-entered payment proof; it carries no cryptographic guarantee
type ManualAttestation struct {
	AttestedBy  int32
	PaymentType string
	Reference   string
	Amount      float64
	Date        *time.Time
	Notes       string
	// Forced is set when the attestation comes from a manual conversion override
	// rather than an explicit manual-payment entry.
	Forced bool
}

func (m ManualAttestation) PaidAmount() float64 { return m.Amount }
func (ManualAttestation) verifiedPayment() {}

// Complete marks the payment completed from the given proof. It never touches a record
// that is already completed.
func (p *Payment) Complete(proof VerifiedPayment, now time.Time) {
	if p.Status == PaymentStatusCompleted {
		return
	}
	p.Status = PaymentStatusCompleted
	p.Verified = true
	p.VerifiedAt = &now
	p.PaidAmount = proof.PaidAmount()

	switch pr := proof.(type) {
	case GatewayVerified:
		p.Gateway.OrderID = pr.OrderID()
		p.Gateway.PaymentID = pr.PaymentID()
		p.Gateway.Signature = pr.Signature()
		p.PaymentDate = &now
		p.PaymentType = pr.Method()
		p.ManualVerification = false
	case ManualAttestation:
		attestedBy := pr.AttestedBy
		p.VerifiedBy = &attestedBy
		p.ManualVerification = true
		p.ManualConversion = pr.Forced
		p.PaymentType = pr.PaymentType
		p.PaymentReference = pr.Reference
		p.PaymentNotes = pr.Notes
		if pr.Date != nil {
			p.PaymentDate = pr.Date
		} else {
			p.PaymentDate = &now
		}
	}
}
