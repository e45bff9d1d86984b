package http

import (
	"context"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockIntentService struct {
	mock.Mock
}

func (m *MockIntentService) SubmitIntent(ctx context.Context, actorID *int32, input service.IntentInput) (*domain.SponsorshipIntent, error) {
	args := m.Called(ctx, actorID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SponsorshipIntent), args.Error(1)
}

func (m *MockIntentService) UpdateIntent(ctx context.Context, actorID, intentID int32, input service.IntentInput) (*domain.SponsorshipIntent, error) {
	args := m.Called(ctx, actorID, intentID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SponsorshipIntent), args.Error(1)
}

func (m *MockIntentService) DeleteIntent(ctx context.Context, actorID, intentID int32) error {
	args := m.Called(ctx, actorID, intentID)
	return args.Error(0)
}

func (m *MockIntentService) GetIntent(ctx context.Context, actorID, intentID int32) (*domain.SponsorshipIntent, error) {
	args := m.Called(ctx, actorID, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SponsorshipIntent), args.Error(1)
}

func (m *MockIntentService) ListMyIntents(ctx context.Context, actorID int32) ([]domain.SponsorshipIntent, error) {
	args := m.Called(ctx, actorID)
	return args.Get(0).([]domain.SponsorshipIntent), args.Error(1)
}

func (m *MockIntentService) ListOrganizationIntents(ctx context.Context, adminID, orgID int32, status domain.IntentStatus) ([]domain.SponsorshipIntent, error) {
	args := m.Called(ctx, adminID, orgID, status)
	return args.Get(0).([]domain.SponsorshipIntent), args.Error(1)
}

func (m *MockIntentService) ListHistory(ctx context.Context, actorID, intentID int32) ([]domain.ChangeHistoryEntry, error) {
	args := m.Called(ctx, actorID, intentID)
	return args.Get(0).([]domain.ChangeHistoryEntry), args.Error(1)
}

func (m *MockIntentService) GetSponsorProfile(ctx context.Context, userID int32) (*domain.Sponsor, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sponsor), args.Error(1)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Review(ctx context.Context, adminID, intentID int32, decision domain.Decision) (*service.ReviewOutcome, error) {
	args := m.Called(ctx, adminID, intentID, decision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReviewOutcome), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreatePaymentOrder(ctx context.Context, actorID *int32, intentID int32) (*service.PaymentOrder, error) {
	args := m.Called(ctx, actorID, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaymentOrder), args.Error(1)
}

func (m *MockPaymentService) VerifyGatewayPayment(ctx context.Context, actorID *int32, intentID int32, orderID, paymentID, signature string) (*service.PaymentOutcome, error) {
	args := m.Called(ctx, actorID, intentID, orderID, paymentID, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaymentOutcome), args.Error(1)
}

func (m *MockPaymentService) VerifyManualPayment(ctx context.Context, adminID, intentID int32, input service.ManualPaymentInput) (*service.PaymentOutcome, error) {
	args := m.Called(ctx, adminID, intentID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaymentOutcome), args.Error(1)
}

func (m *MockPaymentService) RefundPayment(ctx context.Context, adminID, intentID int32, amount *float64, reason string) (*domain.Sponsorship, error) {
	args := m.Called(ctx, adminID, intentID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sponsorship), args.Error(1)
}

type MockSponsorshipService struct {
	mock.Mock
}

func (m *MockSponsorshipService) UpdateSponsorship(ctx context.Context, adminID, sponsorshipID int32, edit service.SponsorshipEdit) (*domain.Sponsorship, error) {
	args := m.Called(ctx, adminID, sponsorshipID, edit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sponsorship), args.Error(1)
}

func (m *MockSponsorshipService) ListOrganizationSponsorships(ctx context.Context, adminID, orgID int32) ([]domain.Sponsorship, error) {
	args := m.Called(ctx, adminID, orgID)
	return args.Get(0).([]domain.Sponsorship), args.Error(1)
}

func (m *MockSponsorshipService) ListReceipts(ctx context.Context, actorID, sponsorshipID int32) ([]domain.Receipt, error) {
	args := m.Called(ctx, actorID, sponsorshipID)
	return args.Get(0).([]domain.Receipt), args.Error(1)
}

type MockMaintenanceService struct {
	mock.Mock
}

func (m *MockMaintenanceService) RepairOrphanedIntents(ctx context.Context) ([]int32, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int32), args.Error(1)
}

func (m *MockMaintenanceService) MergeDuplicateSponsors(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockMaintenanceService) RecomputeAllStats(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockMaintenanceService) ExportOrganizationReport(ctx context.Context, adminID, orgID int32) ([]byte, error) {
	args := m.Called(ctx, adminID, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}
