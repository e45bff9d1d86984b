package postgres

import (
	"context"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
)

type organizationRepository struct {
	db DBTX
}

func NewOrganizationRepository(db DBTX) repository.OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) GetByID(ctx context.Context, id int32) (*domain.Organization, error) {
	o := &domain.Organization{}
	query := `SELECT id, name, description, admin_email, created_by, sponsorship_count, sponsorship_total, created_on FROM orgs WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.Name, &o.Description, &o.AdminEmail, &o.CreatedBy, &o.SponsorshipCount, &o.SponsorshipTotal, &o.CreatedOn)
	if err != nil {
		return nil, notFound(err, "organization", id)
	}
	return o, nil
}

func (r *organizationRepository) AdjustRollup(ctx context.Context, id int32, countDelta int32, totalDelta float64) error {
	logger.DatabaseCall("UPDATE", "orgs", "orgID", id, "countDelta", countDelta, "totalDelta", totalDelta)
	query := `UPDATE orgs SET sponsorship_count = GREATEST(sponsorship_count + $1, 0), sponsorship_total = GREATEST(sponsorship_total + $2, 0) WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, countDelta, totalDelta, id)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return err
	}
	return checkAffected(res, "organization", id)
}

type eventRepository struct {
	db DBTX
}

func NewEventRepository(db DBTX) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetByID(ctx context.Context, id int32) (*domain.Event, error) {
	e := &domain.Event{}
	query := `SELECT id, org_id, name, starts_on, sponsorship_count, sponsorship_total FROM events WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.OrgID, &e.Name, &e.StartsOn, &e.SponsorshipCount, &e.SponsorshipTotal)
	if err != nil {
		return nil, notFound(err, "event", id)
	}
	return e, nil
}

func (r *eventRepository) AdjustRollup(ctx context.Context, id int32, countDelta int32, totalDelta float64) error {
	logger.DatabaseCall("UPDATE", "events", "eventID", id, "countDelta", countDelta, "totalDelta", totalDelta)
	query := `UPDATE events SET sponsorship_count = GREATEST(sponsorship_count + $1, 0), sponsorship_total = GREATEST(sponsorship_total + $2, 0) WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, countDelta, totalDelta, id)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return err
	}
	return checkAffected(res, "event", id)
}
