package gateway

import (
	"context"
	"fmt"
	"time"

	"sponsorhub-backend/internal/logger"

	"github.com/go-resty/resty/v2"
)

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// RazorpayClient talks to a Razorpay-compatible REST API
type RazorpayClient struct {
	// reads retries transport failures; writes never does, a repeated
	// POST could create a second order or refund
	reads  *resty.Client
	writes *resty.Client
	signer Signer
}

func NewRazorpayClient(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayClient {
	newClient := func() *resty.Client {
		return resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetBasicAuth(keyID, keySecret).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json")
	}

	return &RazorpayClient{
		reads: newClient().
			SetRetryCount(3).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(3 * time.Second),
		writes: newClient(),
		signer: NewSigner(keySecret),
	}
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, amountMinor int64, currency, receiptID string) (*Order, error) {
	logger.ExternalServiceCall("gateway", "CreateOrder", "amount", amountMinor, "currency", currency, "receipt", receiptID)

	var order Order
	var apiErr apiError
	resp, err := c.writes.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"amount":   amountMinor,
			"currency": currency,
			"receipt":  receiptID,
		}).
		SetResult(&order).
		SetError(&apiErr).
		Post("/orders")
	if err = checkResponse(resp, err, &apiErr); err != nil {
		logger.ExternalServiceResult("gateway", "CreateOrder", err)
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	logger.ExternalServiceResult("gateway", "CreateOrder", nil, "orderID", order.ID)
	return &order, nil
}

func (c *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	return c.signer.Verify(orderID, paymentID, signature)
}

func (c *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	logger.ExternalServiceCall("gateway", "FetchPayment", "paymentID", paymentID)

	var payment Payment
	var apiErr apiError
	resp, err := c.reads.R().
		SetContext(ctx).
		SetPathParam("id", paymentID).
		SetResult(&payment).
		SetError(&apiErr).
		Get("/payments/{id}")
	if err = checkResponse(resp, err, &apiErr); err != nil {
		logger.ExternalServiceResult("gateway", "FetchPayment", err, "paymentID", paymentID)
		return nil, fmt.Errorf("failed to fetch gateway payment: %w", err)
	}

	logger.ExternalServiceResult("gateway", "FetchPayment", nil, "paymentID", paymentID, "status", payment.Status)
	return &payment, nil
}

func (c *RazorpayClient) Refund(ctx context.Context, paymentID string, amountMinor *int64, reason string) (*Refund, error) {
	logger.ExternalServiceCall("gateway", "Refund", "paymentID", paymentID)

	body := map[string]any{}
	if amountMinor != nil {
		body["amount"] = *amountMinor
	}
	if reason != "" {
		body["notes"] = map[string]string{"reason": reason}
	}

	var refund Refund
	var apiErr apiError
	resp, err := c.writes.R().
		SetContext(ctx).
		SetPathParam("id", paymentID).
		SetBody(body).
		SetResult(&refund).
		SetError(&apiErr).
		Post("/payments/{id}/refund")
	if err = checkResponse(resp, err, &apiErr); err != nil {
		logger.ExternalServiceResult("gateway", "Refund", err, "paymentID", paymentID)
		return nil, fmt.Errorf("failed to refund gateway payment: %w", err)
	}

	logger.ExternalServiceResult("gateway", "Refund", nil, "refundID", refund.ID)
	return &refund, nil
}

func checkResponse(resp *resty.Response, err error, apiErr *apiError) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		if apiErr.Error.Description != "" {
			return fmt.Errorf("gateway returned %d: %s (%s)", resp.StatusCode(), apiErr.Error.Description, apiErr.Error.Code)
		}
		return fmt.Errorf("gateway returned %d", resp.StatusCode())
	}
	return nil
}
