package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
)

// Client is the payment gateway adapter. Amounts crossing it are in minor units.
type Client interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receiptID string) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	Refund(ctx context.Context, paymentID string, amountMinor *int64, reason string) (*Refund, error)
}

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status,omitempty"`
}

type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
}

// Captured reports whether the funds are collected. An authorized payment is only
// a hold and lapses unless captured.
func (p *Payment) Captured() bool {
	return p.Status == "captured"
}

type Refund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// Signer computes and checks HMAC-SHA256 signatures over "orderId|paymentId"
type Signer struct {
	secret []byte
}

func NewSigner(secret string) Signer {
	return Signer{secret: []byte(secret)}
}

// Sign returns the hex signature the gateway produces for the pair
func (s Signer) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares signature against the expected value in constant time
func (s Signer) Verify(orderID, paymentID, signature string) bool {
	expected := s.Sign(orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ToMinorUnits converts a major-unit amount (rupees) to minor units (paise)
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ToMajorUnits converts minor units back to a major-unit amount
func ToMajorUnits(amount int64) float64 {
	return float64(amount) / 100
}
