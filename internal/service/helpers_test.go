package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/gateway"
	"sponsorhub-backend/internal/lock"

	"github.com/stretchr/testify/require"
)

const (
	testAdminID   int32 = 1
	testSponsorID int32 = 2
	testMemberID  int32 = 3
	testOrgID     int32 = 10
	testOtherOrg  int32 = 11
	testEventID   int32 = 20
	testSecret          = "test_key_secret"
)

type harness struct {
	ctx          context.Context
	store        *memStore
	gw           *MockGateway
	signer       gateway.Signer
	locker       *lock.MemoryLocker
	notifier     *recordingNotifier
	stats        *StatsAggregator
	engine       *ConversionEngine
	recorder     *Recorder
	intents      IntentService
	reviews      ReviewService
	payments     PaymentService
	sponsorships SponsorshipService
	maintenance  MaintenanceService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := newMemStore()
	st := store.st
	st.users[testAdminID] = domain.User{ID: testAdminID, Email: "admin@club.org", Name: "Admin"}
	st.users[testSponsorID] = domain.User{ID: testSponsorID, Email: "asha@acme.in", Name: "Asha"}
	st.users[testMemberID] = domain.User{ID: testMemberID, Email: "member@club.org", Name: "Member"}
	st.userOrgs[[2]int32{testMemberID, testOrgID}] = domain.UserOrg{UserID: testMemberID, OrgID: testOrgID, Role: domain.UserOrgRoleMember}
	st.orgs[testOrgID] = domain.Organization{ID: testOrgID, Name: "Riverside Club", AdminEmail: "admin@club.org", CreatedBy: testAdminID}
	st.orgs[testOtherOrg] = domain.Organization{ID: testOtherOrg, Name: "Hill Club", CreatedBy: testMemberID}
	st.events[testEventID] = domain.Event{ID: testEventID, OrgID: testOrgID, Name: "Annual Run"}

	signer := gateway.NewSigner(testSecret)
	gw := &MockGateway{signer: signer}
	locker := lock.NewMemoryLocker()
	notifier := &recordingNotifier{}
	stats := NewStatsAggregator()
	engine := NewConversionEngine(stats)
	recorder := NewRecorder()
	receipts := NewReceiptGenerator("RCP")
	authz := NewOrgAuthorizer(store.repos.Orgs, store.repos.Users)

	return &harness{
		ctx:          context.Background(),
		store:        store,
		gw:           gw,
		signer:       signer,
		locker:       locker,
		notifier:     notifier,
		stats:        stats,
		engine:       engine,
		recorder:     recorder,
		intents:      NewIntentService(store.repos, authz, stats, recorder, notifier, "INR"),
		reviews:      NewReviewService(store.repos, authz, engine, stats, recorder, receipts, locker, time.Minute, notifier),
		payments:     NewPaymentService(store, store.repos, authz, gw, engine, recorder, receipts, locker, time.Minute, notifier),
		sponsorships: NewSponsorshipService(store.repos, authz, stats),
		maintenance:  NewMaintenanceService(store, store.repos, authz, stats, recorder),
	}
}

func intentInput(typ domain.SponsorshipType, value float64) IntentInput {
	eventID := testEventID
	return IntentInput{
		OrgID:   testOrgID,
		EventID: &eventID,
		Sponsor: domain.SponsorSnapshot{
			Name:     "Asha Rao",
			Email:    "asha@acme.in",
			Phone:    "+91 98450 00000",
			Type:     domain.SponsorTypeBusiness,
			Business: &domain.BusinessInfo{CompanyName: "Acme Traders", Website: "https://acme.in"},
			Location: domain.Location{City: "Pune", Country: "IN"},
		},
		Sponsorship: domain.SponsorshipOffer{
			Type:           typ,
			Description:    "Title sponsorship",
			EstimatedValue: value,
		},
	}
}

func (h *harness) submit(t *testing.T, typ domain.SponsorshipType, value float64) *domain.SponsorshipIntent {
	t.Helper()
	actor := testSponsorID
	intent, err := h.intents.SubmitIntent(h.ctx, &actor, intentInput(typ, value))
	require.NoError(t, err)
	return intent
}

func (h *harness) review(t *testing.T, intentID int32, d domain.Decision) *ReviewOutcome {
	t.Helper()
	out, err := h.reviews.Review(h.ctx, testAdminID, intentID, d)
	require.NoError(t, err)
	return out
}

// approved submits and approves an intent
func (h *harness) approved(t *testing.T, typ domain.SponsorshipType, value float64) *domain.SponsorshipIntent {
	t.Helper()
	intent := h.submit(t, typ, value)
	return h.review(t, intent.ID, domain.Approve{}).Intent
}

// payByGateway runs order creation and a successful gateway verification
func (h *harness) payByGateway(t *testing.T, intentID int32, value float64) *PaymentOutcome {
	t.Helper()
	minor := gateway.ToMinorUnits(value)
	orderID := fmt.Sprintf("order_%d", intentID)
	paymentID := fmt.Sprintf("pay_%d", intentID)

	h.gw.On("CreateOrder", h.ctx, minor, "INR", anyString).Return(&gateway.Order{ID: orderID, Amount: minor, Currency: "INR"}, nil).Once()
	h.gw.On("FetchPayment", h.ctx, paymentID).Return(&gateway.Payment{
		ID: paymentID, OrderID: orderID, Amount: minor, Currency: "INR", Status: "captured", Method: "upi",
	}, nil).Once()

	actor := testSponsorID
	_, err := h.payments.CreatePaymentOrder(h.ctx, &actor, intentID)
	require.NoError(t, err)
	out, err := h.payments.VerifyGatewayPayment(h.ctx, &actor, intentID, orderID, paymentID, h.signer.Sign(orderID, paymentID))
	require.NoError(t, err)
	return out
}

func (h *harness) sponsorship(id int32) domain.Sponsorship {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return h.store.st.sponsorships[id]
}

func (h *harness) sponsorFor(userID int32) domain.Sponsor {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	for _, s := range h.store.st.sponsors {
		if s.UserID == userID {
			return s
		}
	}
	return domain.Sponsor{}
}

func changeTypes(entries []domain.ChangeHistoryEntry) []domain.ChangeType {
	out := make([]domain.ChangeType, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ChangeType)
	}
	return out
}
