package postgres_test

import (
	"context"
	"testing"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSponsorshipRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewSponsorshipRepository(db)
	ctx := context.Background()
	intentID := int32(5)

	t.Run("Success", func(t *testing.T) {
		s := &domain.Sponsorship{SponsorID: 2, OrgID: 1, IntentID: &intentID, Status: domain.SponsorshipStatusActive}
		mock.ExpectQuery("INSERT INTO sponsorships").
			WithArgs(int32(2), int32(1), nil, intentID, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				domain.SponsorshipStatusActive, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

		require.NoError(t, repo.Create(ctx, s))
		assert.Equal(t, int32(11), s.ID)
	})

	t.Run("Duplicate intent", func(t *testing.T) {
		s := &domain.Sponsorship{SponsorID: 2, OrgID: 1, IntentID: &intentID, Status: domain.SponsorshipStatusActive}
		mock.ExpectQuery("INSERT INTO sponsorships").WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(ctx, s)
		assert.ErrorIs(t, err, domain.ErrAlreadyConverted)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSponsorshipRepository_ListBySponsor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewSponsorshipRepository(db)
	now := time.Now()
	cols := []string{"id", "sponsor_id", "org_id", "event_id", "intent_id", "contribution", "tier", "recognition", "status", "payment", "suspension", "created_at", "updated_at"}

	rows := sqlmock.NewRows(cols).
		AddRow(1, 2, 1, nil, 5, []byte(`{"type":"monetary","value":30000,"currency":"INR"}`), []byte(`{"name":"gold"}`), []byte(`{}`), "active", []byte(`{}`), []byte(`{}`), now, now).
		AddRow(2, 2, 4, 8, nil, []byte(`{"type":"goods","value":5000}`), []byte(`{"name":"community"}`), []byte(`{}`), "suspended", []byte(`{}`), []byte(`{"reason":"late"}`), now, now)
	mock.ExpectQuery("SELECT (.+) FROM sponsorships WHERE sponsor_id").WithArgs(int32(2)).WillReturnRows(rows)

	out, err := repo.ListBySponsor(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 30000.0, out[0].Contribution.Value)
	assert.Equal(t, domain.TierGold, out[0].Tier.Name)
	assert.Equal(t, int32(5), *out[0].IntentID)
	assert.Equal(t, domain.SponsorshipStatusSuspended, out[1].Status)
	assert.Equal(t, "late", out[1].Suspension.Reason)
	assert.Equal(t, int32(8), *out[1].EventID)
}

func TestSponsorshipRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewSponsorshipRepository(db)

	t.Run("Missing row", func(t *testing.T) {
		mock.ExpectExec("UPDATE sponsorships SET").WillReturnResult(sqlmock.NewResult(0, 0))
		err := repo.Update(context.Background(), &domain.Sponsorship{ID: 404})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
