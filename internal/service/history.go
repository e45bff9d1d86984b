package service

import (
	"context"
	"fmt"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/repository"
	"sponsorhub-backend/internal/utils"
)

// Recorder builds change history entries with display-formatted values
type Recorder struct {
	now func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: func() time.Time { return time.Now().UTC() }}
}

func (r *Recorder) entry(intentID int32, actor *int32, ct domain.ChangeType, notes string, changes ...domain.FieldChange) domain.ChangeHistoryEntry {
	if changes == nil {
		changes = []domain.FieldChange{}
	}
	return domain.ChangeHistoryEntry{
		IntentID:   intentID,
		Timestamp:  r.now(),
		ActorID:    actor,
		ChangeType: ct,
		Changes:    changes,
		Notes:      utils.Truncate(notes),
	}
}

func (r *Recorder) Created(intent *domain.SponsorshipIntent, actor *int32) domain.ChangeHistoryEntry {
	return r.entry(intent.ID, actor, domain.ChangeTypeCreated, "intent submitted",
		domain.FieldChange{Field: "status", NewValue: utils.FormatEnum(string(intent.Status))},
		domain.FieldChange{Field: "sponsorship.type", NewValue: utils.FormatEnum(string(intent.Sponsorship.Type))},
		domain.FieldChange{Field: "sponsorship.estimated_value", NewValue: utils.FormatMoney(intent.Sponsorship.EstimatedValue, intent.Sponsorship.Currency)},
	)
}

// Diff lists the display-formatted differences between two versions of an intent
func (r *Recorder) Diff(old, cur *domain.SponsorshipIntent) []domain.FieldChange {
	var changes []domain.FieldChange
	text := func(field, a, b string) {
		if a != b {
			changes = append(changes, domain.FieldChange{Field: field, OldValue: utils.Truncate(a), NewValue: utils.Truncate(b)})
		}
	}
	enum := func(field, a, b string) {
		if a != b {
			changes = append(changes, domain.FieldChange{Field: field, OldValue: utils.FormatEnum(a), NewValue: utils.FormatEnum(b)})
		}
	}

	text("sponsor.name", old.Sponsor.Name, cur.Sponsor.Name)
	text("sponsor.email", old.Sponsor.Email, cur.Sponsor.Email)
	text("sponsor.phone", old.Sponsor.Phone, cur.Sponsor.Phone)
	enum("sponsor.type", string(old.Sponsor.Type), string(cur.Sponsor.Type))
	text("sponsor.business.company_name", companyName(old.Sponsor.Business), companyName(cur.Sponsor.Business))
	enum("sponsorship.type", string(old.Sponsorship.Type), string(cur.Sponsorship.Type))
	text("sponsorship.description", old.Sponsorship.Description, cur.Sponsorship.Description)
	if old.Sponsorship.EstimatedValue != cur.Sponsorship.EstimatedValue || old.Sponsorship.Currency != cur.Sponsorship.Currency {
		changes = append(changes, domain.FieldChange{
			Field:    "sponsorship.estimated_value",
			OldValue: utils.FormatMoney(old.Sponsorship.EstimatedValue, old.Sponsorship.Currency),
			NewValue: utils.FormatMoney(cur.Sponsorship.EstimatedValue, cur.Sponsorship.Currency),
		})
	}
	text("event_id", formatOptionalID(old.EventID), formatOptionalID(cur.EventID))
	return changes
}

// Updated builds the entry for an owner edit; ok is false when nothing changed
func (r *Recorder) Updated(old, cur *domain.SponsorshipIntent, actor *int32) (domain.ChangeHistoryEntry, bool) {
	changes := r.Diff(old, cur)
	if old.Status != cur.Status {
		changes = append(changes, domain.FieldChange{
			Field:    "status",
			OldValue: utils.FormatEnum(string(old.Status)),
			NewValue: utils.FormatEnum(string(cur.Status)),
		})
	}
	if len(changes) == 0 {
		return domain.ChangeHistoryEntry{}, false
	}
	return r.entry(cur.ID, actor, domain.ChangeTypeUpdated, "intent edited by sponsor", changes...), true
}

// Reviewed builds the status entry for an admin decision. It is tagged decision_changed
// when a different decision had been recorded before.
func (r *Recorder) Reviewed(intentID int32, actor *int32, prevDecision, decision domain.ReviewDecision, prevStatus, status domain.IntentStatus, notes string) domain.ChangeHistoryEntry {
	ct := domain.ChangeTypeReviewed
	if prevDecision != "" && prevDecision != decision {
		ct = domain.ChangeTypeDecisionChanged
	}
	changes := []domain.FieldChange{{
		Field:    "review.decision",
		OldValue: utils.FormatEnum(string(prevDecision)),
		NewValue: utils.FormatEnum(string(decision)),
	}}
	if prevStatus != status {
		changes = append(changes, domain.FieldChange{
			Field:    "status",
			OldValue: utils.FormatEnum(string(prevStatus)),
			NewValue: utils.FormatEnum(string(status)),
		})
	}
	return r.entry(intentID, actor, ct, notes, changes...)
}

// FieldChanged records a single field adjustment made during review
func (r *Recorder) FieldChanged(intentID int32, actor *int32, change domain.FieldChange, notes string) domain.ChangeHistoryEntry {
	return r.entry(intentID, actor, domain.ChangeTypeUpdated, notes, change)
}

func (r *Recorder) PaymentStatusChanged(intentID int32, actor *int32, old, cur domain.PaymentStatus, notes string) domain.ChangeHistoryEntry {
	return r.entry(intentID, actor, domain.ChangeTypePaymentStatusChanged, notes, domain.FieldChange{
		Field:    "payment.status",
		OldValue: utils.FormatEnum(string(old)),
		NewValue: utils.FormatEnum(string(cur)),
	})
}

// Append writes entries in order; entries are never rewritten afterwards
func (r *Recorder) Append(ctx context.Context, repo repository.IntentHistoryRepository, entries ...domain.ChangeHistoryEntry) error {
	for i := range entries {
		if err := repo.Append(ctx, &entries[i]); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
	}
	return nil
}

func companyName(b *domain.BusinessInfo) string {
	if b == nil {
		return ""
	}
	return b.CompanyName
}

func formatOptionalID(id *int32) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%d", *id)
}
