package service

import (
	"context"
	"fmt"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/utils"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type emailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) send(ctx context.Context, to, toName, subject, plainText string) error {
	if s.apiKey == "" {
		logger.Debug("Email delivery disabled, dropping message", "to", to, "subject", subject)
		return nil
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, "")

	logger.ExternalServiceCall("SendGrid", "Send", "to", to, "subject", subject)
	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	logger.ExternalServiceResult("SendGrid", "Send", err)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (s *emailService) SendIntentReceived(ctx context.Context, email, name, orgName string, intentID int32) error {
	subject := fmt.Sprintf("Your sponsorship intent for %s was received", orgName)
	body := fmt.Sprintf("Hello %s,\n\nThank you for offering to sponsor %s. Your intent (reference #%d) is now waiting for review by the organization.\n\nWe will email you when a decision is made.\n\nBest regards,\nThe Sponsorhub Team", name, orgName, intentID)
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendReviewDecision(ctx context.Context, email, name, orgName string, decision domain.ReviewDecision, notes string) error {
	subject := fmt.Sprintf("Sponsorship update from %s", orgName)
	body := fmt.Sprintf("Hello %s,\n\n%s has reviewed your sponsorship intent.\n\nDecision: %s", name, orgName, utils.FormatEnum(string(decision)))
	if notes != "" {
		body += fmt.Sprintf("\n\nNotes: %s", notes)
	}
	body += "\n\nBest regards,\nThe Sponsorhub Team"
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendPaymentReceipt(ctx context.Context, email, name, orgName string, receipt *domain.Receipt) error {
	subject := fmt.Sprintf("Receipt %s - %s", receipt.ReceiptNumber, orgName)
	body := fmt.Sprintf("Hello %s,\n\nWe have received your sponsorship payment to %s.\n\nReceipt number: %s\nAmount: %s\nMethod: %s\nIssued: %s",
		name, orgName, receipt.ReceiptNumber,
		utils.FormatMoney(receipt.Amount, receipt.Currency),
		utils.FormatEnum(string(receipt.Method)),
		receipt.IssuedAt.Format("02 Jan 2006"))
	if receipt.GatewayPaymentID != "" {
		body += fmt.Sprintf("\nPayment ID: %s", receipt.GatewayPaymentID)
	}
	if receipt.PaymentReference != "" {
		body += fmt.Sprintf("\nReference: %s", receipt.PaymentReference)
	}
	body += "\n\nThank you for your support.\n\nBest regards,\nThe Sponsorhub Team"
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error {
	return s.send(ctx, adminEmail, "", subject, message)
}
