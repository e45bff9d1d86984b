package service

import (
	"context"
	"time"

	"sponsorhub-backend/internal/domain"
)

// Authorizer answers whether a user administers an organization
type Authorizer interface {
	IsAdmin(ctx context.Context, userID, orgID int32) (bool, error)
}

type IntentInput struct {
	OrgID       int32                   `json:"orgId"`
	EventID     *int32                  `json:"eventId,omitempty"`
	Sponsor     domain.SponsorSnapshot  `json:"sponsor"`
	Sponsorship domain.SponsorshipOffer `json:"sponsorship"`
}

type IntentService interface {
	SubmitIntent(ctx context.Context, actorID *int32, input IntentInput) (*domain.SponsorshipIntent, error)
	UpdateIntent(ctx context.Context, actorID, intentID int32, input IntentInput) (*domain.SponsorshipIntent, error)
	DeleteIntent(ctx context.Context, actorID, intentID int32) error
	GetIntent(ctx context.Context, actorID, intentID int32) (*domain.SponsorshipIntent, error)
	ListMyIntents(ctx context.Context, actorID int32) ([]domain.SponsorshipIntent, error)
	ListOrganizationIntents(ctx context.Context, adminID, orgID int32, status domain.IntentStatus) ([]domain.SponsorshipIntent, error)
	ListHistory(ctx context.Context, actorID, intentID int32) ([]domain.ChangeHistoryEntry, error)
	GetSponsorProfile(ctx context.Context, userID int32) (*domain.Sponsor, error)
}

type ReviewService interface {
	Review(ctx context.Context, adminID, intentID int32, decision domain.Decision) (*ReviewOutcome, error)
}

// ReviewOutcome is the persisted intent plus, when a conversion ran, how it went
type ReviewOutcome struct {
	Intent     *domain.SponsorshipIntent `json:"intent"`
	Conversion *ConversionResult         `json:"conversion,omitempty"`
}

type ManualPaymentInput struct {
	PaymentType string     `json:"paymentType"`
	Reference   string     `json:"reference"`
	Amount      float64    `json:"amount"`
	Date        *time.Time `json:"date,omitempty"`
	Notes       string     `json:"notes"`
}

// PaymentOrder is what the sponsor's checkout needs to start a gateway payment
type PaymentOrder struct {
	IntentID    int32   `json:"intentId"`
	OrderID     string  `json:"orderId"`
	Amount      float64 `json:"amount"`
	AmountMinor int64   `json:"amountMinor"`
	Currency    string  `json:"currency"`
}

// PaymentOutcome is the end state of a successful verification
type PaymentOutcome struct {
	Intent      *domain.SponsorshipIntent `json:"intent"`
	Sponsorship *domain.Sponsorship       `json:"sponsorship"`
	Receipt     *domain.Receipt           `json:"receipt"`
	Conversion  ConversionKind            `json:"conversion"`
}

type PaymentService interface {
	CreatePaymentOrder(ctx context.Context, actorID *int32, intentID int32) (*PaymentOrder, error)
	VerifyGatewayPayment(ctx context.Context, actorID *int32, intentID int32, orderID, paymentID, signature string) (*PaymentOutcome, error)
	VerifyManualPayment(ctx context.Context, adminID, intentID int32, input ManualPaymentInput) (*PaymentOutcome, error)
	RefundPayment(ctx context.Context, adminID, intentID int32, amount *float64, reason string) (*domain.Sponsorship, error)
}

type SponsorshipEdit struct {
	Description  *string          `json:"description,omitempty"`
	Value        *float64         `json:"value,omitempty"`
	Currency     *string          `json:"currency,omitempty"`
	TierOverride *domain.TierName `json:"tierOverride,omitempty"`
	Delivered    *bool            `json:"delivered,omitempty"`
}

type SponsorshipService interface {
	UpdateSponsorship(ctx context.Context, adminID, sponsorshipID int32, edit SponsorshipEdit) (*domain.Sponsorship, error)
	ListOrganizationSponsorships(ctx context.Context, adminID, orgID int32) ([]domain.Sponsorship, error)
	ListReceipts(ctx context.Context, actorID, sponsorshipID int32) ([]domain.Receipt, error)
}

type MaintenanceService interface {
	RepairOrphanedIntents(ctx context.Context) ([]int32, error)
	MergeDuplicateSponsors(ctx context.Context) (int, error)
	RecomputeAllStats(ctx context.Context) (int, error)
	ExportOrganizationReport(ctx context.Context, adminID, orgID int32) ([]byte, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
}

type EmailService interface {
	SendIntentReceived(ctx context.Context, email, name, orgName string, intentID int32) error
	SendReviewDecision(ctx context.Context, email, name, orgName string, decision domain.ReviewDecision, notes string) error
	SendPaymentReceipt(ctx context.Context, email, name, orgName string, receipt *domain.Receipt) error

	// Admin Notifications
	SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error
}

// PushService delivers push notifications to topic subscribers
type PushService interface {
	SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error
}

// Notifier fans domain events out to in-app, email and push channels.
// Delivery failures are logged and never returned.
type Notifier interface {
	IntentSubmitted(ctx context.Context, intent *domain.SponsorshipIntent)
	IntentReviewed(ctx context.Context, intent *domain.SponsorshipIntent)
	PaymentVerified(ctx context.Context, intent *domain.SponsorshipIntent, receipt *domain.Receipt)
}
