package service

import (
	"context"
	"sync"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/gateway"

	"github.com/stretchr/testify/mock"
)

var anyString = mock.AnythingOfType("string")

// MockGateway checks signatures with a real signer; the network calls are mocked
type MockGateway struct {
	mock.Mock
	signer gateway.Signer
}

func (m *MockGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receiptID string) (*gateway.Order, error) {
	args := m.Called(ctx, amountMinor, currency, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Order), args.Error(1)
}

func (m *MockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return m.signer.Verify(orderID, paymentID, signature)
}

func (m *MockGateway) FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Payment), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, paymentID string, amountMinor *int64, reason string) (*gateway.Refund, error) {
	args := m.Called(ctx, paymentID, amountMinor, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Refund), args.Error(1)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendIntentReceived(ctx context.Context, email, name, orgName string, intentID int32) error {
	args := m.Called(ctx, email, name, orgName, intentID)
	return args.Error(0)
}

func (m *MockEmailService) SendReviewDecision(ctx context.Context, email, name, orgName string, decision domain.ReviewDecision, notes string) error {
	args := m.Called(ctx, email, name, orgName, decision, notes)
	return args.Error(0)
}

func (m *MockEmailService) SendPaymentReceipt(ctx context.Context, email, name, orgName string, receipt *domain.Receipt) error {
	args := m.Called(ctx, email, name, orgName, receipt)
	return args.Error(0)
}

func (m *MockEmailService) SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error {
	args := m.Called(ctx, adminEmail, subject, message)
	return args.Error(0)
}

type MockPushService struct {
	mock.Mock
}

func (m *MockPushService) SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error {
	args := m.Called(ctx, topic, title, body, data)
	return args.Error(0)
}

// recordingNotifier remembers which events were raised
type recordingNotifier struct {
	mu       sync.Mutex
	events   []string
	receipts []*domain.Receipt
}

func (n *recordingNotifier) record(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) IntentSubmitted(ctx context.Context, intent *domain.SponsorshipIntent) {
	n.record("submitted")
}

func (n *recordingNotifier) IntentReviewed(ctx context.Context, intent *domain.SponsorshipIntent) {
	n.record("reviewed:" + string(intent.Review.Decision))
}

func (n *recordingNotifier) PaymentVerified(ctx context.Context, intent *domain.SponsorshipIntent, receipt *domain.Receipt) {
	n.record("paid")
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts = append(n.receipts, receipt)
}
