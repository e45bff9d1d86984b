package service

import (
	"context"
	"fmt"
	"strconv"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
	"sponsorhub-backend/internal/utils"
)

type notifier struct {
	userRepo repository.UserRepository
	orgRepo  repository.OrganizationRepository
	noteRepo repository.NotificationRepository
	emailSvc EmailService
	pushSvc  PushService
}

func NewNotifier(userRepo repository.UserRepository, orgRepo repository.OrganizationRepository, noteRepo repository.NotificationRepository, emailSvc EmailService, pushSvc PushService) Notifier {
	return &notifier{
		userRepo: userRepo,
		orgRepo:  orgRepo,
		noteRepo: noteRepo,
		emailSvc: emailSvc,
		pushSvc:  pushSvc,
	}
}

func (n *notifier) orgName(ctx context.Context, orgID int32) (*domain.Organization, string) {
	org, err := n.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		logger.Warn("Failed to load organization for notification", "orgID", orgID, "error", err)
		return nil, fmt.Sprintf("organization #%d", orgID)
	}
	return org, org.Name
}

func (n *notifier) notifyUser(ctx context.Context, userID int32, intent *domain.SponsorshipIntent, kind domain.NotificationKind, title, message string, attrs map[string]string) {
	intentID := intent.ID
	note := &domain.Notification{
		UserID:     userID,
		OrgID:      intent.OrgID,
		IntentID:   &intentID,
		Kind:       kind,
		Title:      title,
		Message:    message,
		Attributes: attrs,
	}
	if err := n.noteRepo.Create(ctx, note); err != nil {
		logger.Warn("Failed to create notification", "userID", userID, "error", err)
	}
}

func (n *notifier) notifyAdmins(ctx context.Context, intent *domain.SponsorshipIntent, kind domain.NotificationKind, title, message string, attrs map[string]string) {
	orgID := intent.OrgID
	adminIDs, err := n.userRepo.ListAdminIDsByOrg(ctx, orgID)
	if err != nil {
		logger.Warn("Failed to list organization admins", "orgID", orgID, "error", err)
	}
	for _, id := range adminIDs {
		n.notifyUser(ctx, id, intent, kind, title, message, attrs)
	}
	if err := n.pushSvc.SendToTopic(ctx, orgAdminsTopic(orgID), title, message, attrs); err != nil {
		logger.Warn("Failed to push admin notification", "orgID", orgID, "error", err)
	}
}

func intentAttrs(intent *domain.SponsorshipIntent) map[string]string {
	return map[string]string{
		"intentId": strconv.Itoa(int(intent.ID)),
		"status":   string(intent.Status),
	}
}

func (n *notifier) IntentSubmitted(ctx context.Context, intent *domain.SponsorshipIntent) {
	org, orgName := n.orgName(ctx, intent.OrgID)
	attrs := intentAttrs(intent)

	title := "New sponsorship intent"
	message := fmt.Sprintf("%s offered a %s sponsorship worth %s",
		intent.Sponsor.Name,
		intent.Sponsorship.Type,
		utils.FormatMoney(intent.Sponsorship.EstimatedValue, intent.Sponsorship.Currency))
	n.notifyAdmins(ctx, intent, domain.NotificationIntentSubmitted, title, message, attrs)

	if org != nil && org.AdminEmail != "" {
		if err := n.emailSvc.SendAdminNotification(ctx, org.AdminEmail, title, message); err != nil {
			logger.Warn("Failed to email organization admin", "orgID", intent.OrgID, "error", err)
		}
	}
	if err := n.emailSvc.SendIntentReceived(ctx, intent.Sponsor.Email, intent.Sponsor.Name, orgName, intent.ID); err != nil {
		logger.Warn("Failed to email sponsor", "intentID", intent.ID, "error", err)
	}
}

func (n *notifier) IntentReviewed(ctx context.Context, intent *domain.SponsorshipIntent) {
	_, orgName := n.orgName(ctx, intent.OrgID)
	attrs := intentAttrs(intent)
	attrs["decision"] = string(intent.Review.Decision)

	title := "Sponsorship intent reviewed"
	message := fmt.Sprintf("%s: %s", orgName, utils.FormatEnum(string(intent.Review.Decision)))
	if uid := intent.Sponsor.UserID; uid != nil {
		n.notifyUser(ctx, *uid, intent, domain.NotificationIntentReviewed, title, message, attrs)
		if err := n.pushSvc.SendToTopic(ctx, userTopic(*uid), title, message, attrs); err != nil {
			logger.Warn("Failed to push review notification", "userID", *uid, "error", err)
		}
	}
	if err := n.emailSvc.SendReviewDecision(ctx, intent.Sponsor.Email, intent.Sponsor.Name, orgName, intent.Review.Decision, intent.Review.Notes); err != nil {
		logger.Warn("Failed to email review decision", "intentID", intent.ID, "error", err)
	}
}

func (n *notifier) PaymentVerified(ctx context.Context, intent *domain.SponsorshipIntent, receipt *domain.Receipt) {
	_, orgName := n.orgName(ctx, intent.OrgID)
	attrs := intentAttrs(intent)
	attrs["receiptNumber"] = receipt.ReceiptNumber

	amount := utils.FormatMoney(receipt.Amount, receipt.Currency)
	n.notifyAdmins(ctx, intent, domain.NotificationPaymentVerified, "Sponsorship payment received",
		fmt.Sprintf("%s paid %s (receipt %s)", intent.Sponsor.Name, amount, receipt.ReceiptNumber), attrs)

	if uid := intent.Sponsor.UserID; uid != nil {
		title := "Payment confirmed"
		message := fmt.Sprintf("Your payment of %s to %s is confirmed", amount, orgName)
		n.notifyUser(ctx, *uid, intent, domain.NotificationPaymentVerified, title, message, attrs)
		if err := n.pushSvc.SendToTopic(ctx, userTopic(*uid), title, message, attrs); err != nil {
			logger.Warn("Failed to push payment notification", "userID", *uid, "error", err)
		}
	}
	if err := n.emailSvc.SendPaymentReceipt(ctx, intent.Sponsor.Email, intent.Sponsor.Name, orgName, receipt); err != nil {
		logger.Warn("Failed to email receipt", "receiptNumber", receipt.ReceiptNumber, "error", err)
	}
}
