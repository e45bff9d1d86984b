package repository

import (
	"context"

	"sponsorhub-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error

	// User Organizations
	GetUserOrg(ctx context.Context, userID, orgID int32) (*domain.UserOrg, error)
	ListAdminIDsByOrg(ctx context.Context, orgID int32) ([]int32, error)
}

type OrganizationRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Organization, error)
	// AdjustRollup adds the deltas to the sponsorship counters of the organization
	AdjustRollup(ctx context.Context, id int32, countDelta int32, totalDelta float64) error
}

type EventRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Event, error)
	AdjustRollup(ctx context.Context, id int32, countDelta int32, totalDelta float64) error
}

type IntentRepository interface {
	Create(ctx context.Context, intent *domain.SponsorshipIntent) error
	GetByID(ctx context.Context, id int32) (*domain.SponsorshipIntent, error)
	Update(ctx context.Context, intent *domain.SponsorshipIntent) error
	// UpdateIfUnpaid writes the intent only if its stored payment is not yet completed.
	// It returns false when another writer completed the payment first.
	UpdateIfUnpaid(ctx context.Context, intent *domain.SponsorshipIntent) (bool, error)
	Delete(ctx context.Context, id int32) error
	ListBySponsorUser(ctx context.Context, userID int32) ([]domain.SponsorshipIntent, error)
	ListByOrg(ctx context.Context, orgID int32, status domain.IntentStatus) ([]domain.SponsorshipIntent, error)
	// ListOrphaned returns intents whose converted_to points at a missing sponsorship
	ListOrphaned(ctx context.Context) ([]domain.SponsorshipIntent, error)
}

type IntentHistoryRepository interface {
	Append(ctx context.Context, entry *domain.ChangeHistoryEntry) error
	ListByIntent(ctx context.Context, intentID int32) ([]domain.ChangeHistoryEntry, error)
}

type SponsorshipRepository interface {
	Create(ctx context.Context, s *domain.Sponsorship) error
	GetByID(ctx context.Context, id int32) (*domain.Sponsorship, error)
	GetByIntentID(ctx context.Context, intentID int32) (*domain.Sponsorship, error)
	Update(ctx context.Context, s *domain.Sponsorship) error
	Delete(ctx context.Context, id int32) error
	ListBySponsor(ctx context.Context, sponsorID int32) ([]domain.Sponsorship, error)
	ListByOrg(ctx context.Context, orgID int32) ([]domain.Sponsorship, error)
	// Reassign moves every sponsorship of fromSponsorID to toSponsorID
	Reassign(ctx context.Context, fromSponsorID, toSponsorID int32) (int64, error)
}

type SponsorRepository interface {
	Create(ctx context.Context, s *domain.Sponsor) error
	GetByID(ctx context.Context, id int32) (*domain.Sponsor, error)
	GetByUserID(ctx context.Context, userID int32) (*domain.Sponsor, error)
	Update(ctx context.Context, s *domain.Sponsor) error
	UpdateStats(ctx context.Context, id int32, stats domain.SponsorStats) error
	Delete(ctx context.Context, id int32) error
	ListIDs(ctx context.Context) ([]int32, error)
	// ListDuplicateGroups returns sponsor profiles sharing a case-insensitive email,
	// one slice per email, newest first
	ListDuplicateGroups(ctx context.Context) ([][]domain.Sponsor, error)
}

type ReceiptRepository interface {
	// NextSequence allocates the next receipt sequence number for a YYYYMM period
	NextSequence(ctx context.Context, period string) (int32, error)
	Create(ctx context.Context, r *domain.Receipt) error
	GetLatestBySponsorship(ctx context.Context, sponsorshipID int32) (*domain.Receipt, error)
	ListBySponsorship(ctx context.Context, sponsorshipID int32) ([]domain.Receipt, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}

// Repos is one repository scope: either bound to the pool or to a single transaction
type Repos struct {
	Users         UserRepository
	Orgs          OrganizationRepository
	Events        EventRepository
	Intents       IntentRepository
	History       IntentHistoryRepository
	Sponsorships  SponsorshipRepository
	Sponsors      SponsorRepository
	Receipts      ReceiptRepository
	Notifications NotificationRepository
}

// TxManager runs fn against a transaction-bound scope, committing when fn returns nil
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repos) error) error
}
