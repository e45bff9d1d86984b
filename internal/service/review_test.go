package service

import (
	"fmt"
	"testing"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/lock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastEntry(t *testing.T, entries []domain.ChangeHistoryEntry) domain.ChangeHistoryEntry {
	t.Helper()
	require.NotEmpty(t, entries)
	return entries[len(entries)-1]
}

// findChange returns the most recent change to field
func findChange(entries []domain.ChangeHistoryEntry, field string) (domain.FieldChange, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		for _, c := range entries[i].Changes {
			if c.Field == field {
				return c, true
			}
		}
	}
	return domain.FieldChange{}, false
}

func TestReviewService_Approve(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h := newHarness(t)
		intent := h.submit(t, domain.SponsorshipTypeGoods, 5000)

		out := h.review(t, intent.ID, domain.Approve{Notes: domain.ReviewNotes{Notes: "welcome aboard"}})

		assert.Equal(t, domain.IntentStatusApproved, out.Intent.Status)
		assert.Equal(t, domain.ReviewDecisionApprove, out.Intent.Review.Decision)
		require.NotNil(t, out.Intent.Review.ReviewedBy)
		assert.Equal(t, testAdminID, *out.Intent.Review.ReviewedBy)
		assert.Nil(t, out.Conversion)

		last := lastEntry(t, h.store.historyOf(intent.ID))
		assert.Equal(t, domain.ChangeTypeReviewed, last.ChangeType)
		assert.Equal(t, "welcome aboard", last.Notes)
		assert.Contains(t, h.notifier.events, "reviewed:approve")
	})

	t.Run("NotAdmin", func(t *testing.T) {
		h := newHarness(t)
		intent := h.submit(t, domain.SponsorshipTypeGoods, 5000)

		_, err := h.reviews.Review(h.ctx, testMemberID, intent.ID, domain.Approve{})
		assert.ErrorIs(t, err, domain.ErrNotOrgAdmin)
		assert.Equal(t, domain.IntentStatusPending, h.store.intent(intent.ID).Status)
	})

	t.Run("ApprovedAfterRejection", func(t *testing.T) {
		h := newHarness(t)
		intent := h.submit(t, domain.SponsorshipTypeGoods, 5000)
		h.review(t, intent.ID, domain.Reject{})

		out := h.review(t, intent.ID, domain.Approve{})
		assert.Equal(t, domain.IntentStatusApproved, out.Intent.Status)
		assert.Equal(t, domain.ChangeTypeDecisionChanged, lastEntry(t, h.store.historyOf(intent.ID)).ChangeType)
	})
}

func TestReviewService_ConvertRequiresPayment(t *testing.T) {
	h := newHarness(t)
	intent := h.approved(t, domain.SponsorshipTypeMonetary, 30000)

	_, err := h.reviews.Review(h.ctx, testAdminID, intent.ID, domain.ConvertToSponsorship{})

	require.ErrorIs(t, err, domain.ErrPaymentRequired)
	assert.Equal(t, "PAYMENT_REQUIRED", domain.Code(err))
	assert.NotEmpty(t, domain.ErrPaymentRequired.Remediation)
	assert.Equal(t, domain.IntentStatusApproved, h.store.intent(intent.ID).Status)
	assert.Equal(t, 0, h.store.sponsorshipCount())

	out := h.review(t, intent.ID, domain.ConvertToSponsorship{ManualConversion: true})

	assert.Equal(t, domain.IntentStatusConverted, out.Intent.Status)
	require.NotNil(t, out.Conversion)
	assert.Equal(t, ConversionCreated, out.Conversion.Kind)

	stored := h.store.intent(intent.ID)
	assert.Equal(t, domain.PaymentStatusCompleted, stored.Payment.Status)
	assert.True(t, stored.Payment.ManualConversion)
	assert.True(t, stored.Payment.ManualVerification)
	assert.Equal(t, "manual", stored.Payment.PaymentType)
	require.NotNil(t, stored.Payment.VerifiedBy)
	assert.Equal(t, testAdminID, *stored.Payment.VerifiedBy)

	types := changeTypes(h.store.historyOf(intent.ID))
	assert.Contains(t, types, domain.ChangeTypePaymentStatusChanged)
	assert.Equal(t, domain.ChangeTypeDecisionChanged, types[len(types)-1])

	receipts := h.store.receiptsOf(out.Conversion.Sponsorship.ID)
	require.Len(t, receipts, 1)
	assert.Equal(t, domain.ReceiptMethodManual, receipts[0].Method)
	assert.Equal(t, 30000.0, receipts[0].Amount)
	assert.Contains(t, h.notifier.events, "paid")
}

func TestReviewService_ConvertWithUpdates(t *testing.T) {
	h := newHarness(t)
	intent := h.approved(t, domain.SponsorshipTypeMonetary, 8000)
	value := 12000.0
	description := "Title sponsorship with stage branding"

	out := h.review(t, intent.ID, domain.ConvertToSponsorship{
		Updates:          &domain.SponsorshipUpdates{Value: &value, Description: &description},
		ManualConversion: true,
	})

	sp := out.Conversion.Sponsorship
	assert.Equal(t, domain.TierSilver, sp.Tier.Name)
	assert.Equal(t, 12000.0, sp.Tier.CalculatedFrom)
	assert.Equal(t, 12000.0, sp.Contribution.Value)
	assert.Equal(t, description, sp.Contribution.Description)

	stored := h.store.intent(intent.ID)
	assert.Equal(t, 12000.0, stored.Sponsorship.EstimatedValue)
	assert.Equal(t, 12000.0, stored.Payment.Amount)
	assert.Equal(t, 12000.0, stored.Payment.PaidAmount)

	history := h.store.historyOf(intent.ID)
	change, ok := findChange(history, "sponsorship.estimated_value")
	require.True(t, ok)
	assert.Equal(t, "₹8,000.00", change.OldValue)
	assert.Equal(t, "₹12,000.00", change.NewValue)
	_, ok = findChange(history, "sponsorship.description")
	assert.True(t, ok)

	assert.Equal(t, 12000.0, h.store.org(testOrgID).SponsorshipTotal)
	assert.Equal(t, domain.TierSilver, h.sponsorFor(testSponsorID).Stats.Tier)
}

func TestReviewService_ConvertNonMonetary(t *testing.T) {
	h := newHarness(t)
	intent := h.approved(t, domain.SponsorshipTypeGoods, 15000)

	out := h.review(t, intent.ID, domain.ConvertToSponsorship{})

	assert.Equal(t, domain.IntentStatusConverted, out.Intent.Status)
	assert.Equal(t, domain.SponsorshipTypeGoods, out.Conversion.Sponsorship.Contribution.Type)
	assert.Equal(t, domain.PaymentStatusPending, h.store.intent(intent.ID).Payment.Status)
	assert.Empty(t, h.store.receiptsOf(out.Conversion.Sponsorship.ID))
	assert.NotContains(t, h.notifier.events, "paid")
}

func TestReviewService_RejectConverted(t *testing.T) {
	h := newHarness(t)
	intent := h.approved(t, domain.SponsorshipTypeGoods, 15000)
	h.review(t, intent.ID, domain.ConvertToSponsorship{})
	require.Equal(t, int32(1), h.store.org(testOrgID).SponsorshipCount)
	require.Equal(t, domain.TierSilver, h.sponsorFor(testSponsorID).Stats.Tier)

	out := h.review(t, intent.ID, domain.Reject{Notes: domain.ReviewNotes{Notes: "sponsor withdrew"}})

	assert.Equal(t, domain.IntentStatusRejected, out.Intent.Status)
	stored := h.store.intent(intent.ID)
	assert.Nil(t, stored.ConvertedTo)
	assert.True(t, stored.SponsorshipDeleted)
	assert.Equal(t, 0, h.store.sponsorshipCount())

	org := h.store.org(testOrgID)
	assert.Equal(t, int32(0), org.SponsorshipCount)
	assert.Equal(t, 0.0, org.SponsorshipTotal)
	assert.Equal(t, int32(0), h.store.event(testEventID).SponsorshipCount)

	stats := h.sponsorFor(testSponsorID).Stats
	assert.Equal(t, int32(0), stats.SponsorshipCount)
	assert.Equal(t, 0.0, stats.TotalContribution)
	assert.Equal(t, domain.TierCommunity, stats.Tier)

	assert.Equal(t, domain.ChangeTypeDecisionChanged, lastEntry(t, h.store.historyOf(intent.ID)).ChangeType)
}

func TestReviewService_ReapprovalKeepsPayment(t *testing.T) {
	h := newHarness(t)
	intent := h.approved(t, domain.SponsorshipTypeMonetary, 30000)
	paid := h.payByGateway(t, intent.ID, 30000)

	out := h.review(t, intent.ID, domain.Approve{})

	assert.Equal(t, domain.IntentStatusApproved, out.Intent.Status)
	stored := h.store.intent(intent.ID)
	assert.Equal(t, domain.PaymentStatusCompleted, stored.Payment.Status)
	assert.Equal(t, fmt.Sprintf("pay_%d", intent.ID), stored.Payment.Gateway.PaymentID)
	require.NotNil(t, stored.ConvertedTo)

	history := h.store.historyOf(intent.ID)
	preserved := history[len(history)-2]
	assert.Equal(t, domain.ChangeTypePaymentStatusChanged, preserved.ChangeType)
	assert.Equal(t, "payment preserved on re-approval", preserved.Notes)

	again := h.review(t, intent.ID, domain.ConvertToSponsorship{})

	assert.Equal(t, domain.IntentStatusConverted, again.Intent.Status)
	assert.Equal(t, ConversionUpdated, again.Conversion.Kind)
	assert.Equal(t, paid.Sponsorship.ID, again.Conversion.Sponsorship.ID)
	assert.Equal(t, 1, h.store.sponsorshipCount())
	assert.Equal(t, int32(1), h.store.org(testOrgID).SponsorshipCount)
	assert.Equal(t, 30000.0, h.store.org(testOrgID).SponsorshipTotal)
	assert.Len(t, h.store.receiptsOf(paid.Sponsorship.ID), 1)
}

func TestReviewService_RequestChangesCycle(t *testing.T) {
	h := newHarness(t)
	intent := h.approved(t, domain.SponsorshipTypeGoods, 15000)
	converted := h.review(t, intent.ID, domain.ConvertToSponsorship{})
	spID := converted.Conversion.Sponsorship.ID

	out := h.review(t, intent.ID, domain.RequestChanges{Notes: domain.ReviewNotes{Notes: "add delivery dates"}})

	assert.Equal(t, domain.IntentStatusChangesRequested, out.Intent.Status)
	sp := h.sponsorship(spID)
	assert.Equal(t, domain.SponsorshipStatusSuspended, sp.Status)
	assert.Equal(t, "add delivery dates", sp.Suspension.Reason)
	assert.Equal(t, int32(0), h.sponsorFor(testSponsorID).Stats.SponsorshipCount)
	assert.Equal(t, int32(1), h.store.org(testOrgID).SponsorshipCount)

	input := intentInput(domain.SponsorshipTypeGoods, 15000)
	input.Sponsorship.Details.DeliveryWindow = "first week of March"
	input.Sponsorship.Description = "Title sponsorship, delivered by March"
	edited, err := h.intents.UpdateIntent(h.ctx, testSponsorID, intent.ID, input)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusUnderReview, edited.Status)

	h.review(t, intent.ID, domain.Approve{})
	final := h.review(t, intent.ID, domain.ConvertToSponsorship{})

	assert.Equal(t, ConversionUpdated, final.Conversion.Kind)
	assert.Equal(t, spID, final.Conversion.Sponsorship.ID)
	sp = h.sponsorship(spID)
	assert.Equal(t, domain.SponsorshipStatusActive, sp.Status)
	assert.NotNil(t, sp.Suspension.ReactivatedAt)
	assert.Equal(t, "Title sponsorship, delivered by March", sp.Contribution.Description)
	assert.Equal(t, int32(1), h.store.org(testOrgID).SponsorshipCount)
	assert.Equal(t, int32(1), h.sponsorFor(testSponsorID).Stats.SponsorshipCount)
}

func TestReviewService_SuspendAndReactivate(t *testing.T) {
	h := newHarness(t)
	intent := h.approved(t, domain.SponsorshipTypeGoods, 15000)
	spID := h.review(t, intent.ID, domain.ConvertToSponsorship{}).Conversion.Sponsorship.ID

	out := h.review(t, intent.ID, domain.SuspendSponsorship{Reason: "logo missing"})

	assert.Equal(t, domain.IntentStatusConverted, out.Intent.Status)
	sp := h.sponsorship(spID)
	assert.Equal(t, domain.SponsorshipStatusSuspended, sp.Status)
	assert.Equal(t, "logo missing", sp.Suspension.Reason)
	require.NotNil(t, sp.Suspension.SuspendedBy)
	assert.Equal(t, testAdminID, *sp.Suspension.SuspendedBy)
	assert.Equal(t, int32(0), h.sponsorFor(testSponsorID).Stats.SponsorshipCount)

	h.review(t, intent.ID, domain.ReactivateSponsorship{})

	sp = h.sponsorship(spID)
	assert.Equal(t, domain.SponsorshipStatusActive, sp.Status)
	assert.Equal(t, int32(1), h.sponsorFor(testSponsorID).Stats.SponsorshipCount)
	assert.Equal(t, int32(1), h.store.org(testOrgID).SponsorshipCount)
	assert.Equal(t, 15000.0, h.store.org(testOrgID).SponsorshipTotal)
}

func TestReviewService_DeleteSponsorship(t *testing.T) {
	h := newHarness(t)
	intent := h.approved(t, domain.SponsorshipTypeGoods, 15000)
	h.review(t, intent.ID, domain.ConvertToSponsorship{})

	out := h.review(t, intent.ID, domain.DeleteSponsorship{})

	assert.Equal(t, domain.IntentStatusRejected, out.Intent.Status)
	assert.True(t, h.store.intent(intent.ID).SponsorshipDeleted)
	assert.Equal(t, 0, h.store.sponsorshipCount())
	assert.Equal(t, int32(0), h.store.org(testOrgID).SponsorshipCount)
}

func TestReviewService_InvalidTransitions(t *testing.T) {
	h := newHarness(t)
	pending := h.submit(t, domain.SponsorshipTypeGoods, 5000)
	approved := h.approved(t, domain.SponsorshipTypeGoods, 5000)

	cases := []struct {
		name     string
		intentID int32
		decision domain.Decision
	}{
		{"ConvertPending", pending.ID, domain.ConvertToSponsorship{}},
		{"SuspendApproved", approved.ID, domain.SuspendSponsorship{Reason: "x"}},
		{"ReactivateApproved", approved.ID, domain.ReactivateSponsorship{}},
		{"DeleteApproved", approved.ID, domain.DeleteSponsorship{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := h.store.intent(tc.intentID)
			_, err := h.reviews.Review(h.ctx, testAdminID, tc.intentID, tc.decision)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			assert.Equal(t, before, h.store.intent(tc.intentID))
		})
	}
}

func TestReviewService_ForcedConversionRespectsLock(t *testing.T) {
	h := newHarness(t)
	intent := h.approved(t, domain.SponsorshipTypeMonetary, 30000)
	release, err := h.locker.Acquire(h.ctx, lock.PaymentKey(intent.ID), time.Minute)
	require.NoError(t, err)
	defer release(h.ctx)

	_, err = h.reviews.Review(h.ctx, testAdminID, intent.ID, domain.ConvertToSponsorship{ManualConversion: true})

	assert.ErrorIs(t, err, domain.ErrVerificationInProgress)
	assert.Equal(t, domain.PaymentStatusPending, h.store.intent(intent.ID).Payment.Status)
	assert.Equal(t, 0, h.store.sponsorshipCount())
}

func TestReviewService_ApproveRejectedPaidIntent(t *testing.T) {
	h := newHarness(t)
	intent := h.approved(t, domain.SponsorshipTypeMonetary, 30000)
	h.payByGateway(t, intent.ID, 30000)
	h.review(t, intent.ID, domain.Reject{})
	before := len(h.store.historyOf(intent.ID))

	out := h.review(t, intent.ID, domain.Approve{})

	assert.Equal(t, domain.IntentStatusApproved, out.Intent.Status)
	assert.Equal(t, domain.PaymentStatusCompleted, h.store.intent(intent.ID).Payment.Status)
	added := h.store.historyOf(intent.ID)[before:]
	assert.Equal(t, []domain.ChangeType{domain.ChangeTypePaymentStatusChanged, domain.ChangeTypeDecisionChanged}, changeTypes(added))
	assert.Equal(t, "payment preserved on re-approval", added[0].Notes)
}

func TestReviewService_ForcedConversionLosesClaim(t *testing.T) {
	h := newHarness(t)
	intent := h.approved(t, domain.SponsorshipTypeMonetary, 30000)
	h.store.beforeClaim = func(stored *domain.SponsorshipIntent) {
		stored.Payment.Status = domain.PaymentStatusCompleted
	}

	_, err := h.reviews.Review(h.ctx, testAdminID, intent.ID, domain.ConvertToSponsorship{ManualConversion: true})

	assert.ErrorIs(t, err, domain.ErrPaymentAlreadyCompleted)
	assert.Equal(t, 0, h.store.sponsorshipCount())
	assert.Equal(t, int32(0), h.store.org(testOrgID).SponsorshipCount)
	assert.Empty(t, h.store.st.receipts)
	assert.Equal(t, domain.IntentStatusApproved, h.store.intent(intent.ID).Status)
}
