package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landrent-backend/internal/domain"
	"landrent-backend/internal/repository/postgres"
)

func TestHostingTierRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewHostingTierRepository(db)
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		tier := &domain.HostingTier{ID: 0, PricePerMonth: 1000, Months: 1, MaxMonths: 50, Enabled: true}
		mock.ExpectExec("INSERT INTO hosting_tiers").
			WithArgs(int32(0), int64(1000), int32(1), int32(50), true).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Create(ctx, tier))
	})

	t.Run("GetByID", func(t *testing.T) {
		mock.ExpectQuery("SELECT price_per_month, months, max_months, enabled FROM hosting_tiers").
			WithArgs(int32(0)).
			WillReturnRows(sqlmock.NewRows([]string{"price_per_month", "months", "max_months", "enabled"}).AddRow(int64(1000), 2, 50, true))
		tier, err := repo.GetByID(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(2), tier.Months)
		assert.Equal(t, domain.Amount(1000), tier.PricePerMonth)
	})

	t.Run("Update Not Found", func(t *testing.T) {
		mock.ExpectExec("UPDATE hosting_tiers").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Update(ctx, &domain.HostingTier{ID: 5}), domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlementRepository_ListByAsset(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewSettlementRepository(db)
	asset := domain.NewAssetRef(lands, 2)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, kind, from_party, to_party, amount, created_on FROM settlement_entries").
		WithArgs(string(lands), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "from_party", "to_party", "amount", "created_on"}).
			AddRow("e1", "ESCROW", string(owner), string(lands), int64(25), at))

	entries, err := repo.ListByAsset(context.Background(), asset)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SettlementEntry{
		ID: "e1", Asset: asset, Kind: domain.SettlementKindEscrow, From: owner, To: lands, Amount: 25, CreatedAt: at,
	}, entries[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}
