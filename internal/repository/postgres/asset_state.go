package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"landrent-backend/internal/domain"
	"landrent-backend/internal/logger"
	"landrent-backend/internal/repository"
)

type assetStateRepository struct {
	db *sql.DB
}

func NewAssetStateRepository(db *sql.DB) repository.AssetStateRepository {
	return &assetStateRepository{db: db}
}

func (r *assetStateRepository) Get(ctx context.Context, asset domain.AssetRef) (*domain.AssetState, error) {
	query := `SELECT offer, tenancy, no_rent FROM asset_states WHERE collection = $1 AND token_id = $2`
	var offer, tenancy, noRent []byte
	err := r.db.QueryRowContext(ctx, query, string(asset.Collection), int64(asset.TokenID)).Scan(&offer, &tenancy, &noRent)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.AssetState{Asset: asset}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeState(asset, offer, tenancy, noRent)
}

func (r *assetStateRepository) Save(ctx context.Context, state *domain.AssetState, entries []domain.SettlementEntry) error {
	offer, err := jsonSlot(state.Offer)
	if err != nil {
		return err
	}
	tenancy, err := jsonSlot(state.Tenancy)
	if err != nil {
		return err
	}
	noRent, err := jsonSlot(state.NoRent)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO asset_states (collection, token_id, offer, tenancy, no_rent, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (collection, token_id) DO UPDATE
	          SET offer = EXCLUDED.offer, tenancy = EXCLUDED.tenancy, no_rent = EXCLUDED.no_rent, updated_on = EXCLUDED.updated_on`
	logger.DatabaseCall("saveAssetState", "upsert asset_states", "asset", state.Asset, "entries", len(entries))
	res, err := tx.ExecContext(ctx, query, string(state.Asset.Collection), int64(state.Asset.TokenID), offer, tenancy, noRent, time.Now())
	if err != nil {
		logger.DatabaseResult("saveAssetState", 0, err, "asset", state.Asset)
		return fmt.Errorf("save asset state %s: %w", state.Asset, err)
	}
	if err := insertEntries(ctx, tx, entries); err != nil {
		logger.DatabaseResult("saveAssetState", 0, err, "asset", state.Asset)
		return err
	}
	err = tx.Commit()
	rows, _ := res.RowsAffected()
	logger.DatabaseResult("saveAssetState", rows, err, "asset", state.Asset)
	return err
}

func (r *assetStateRepository) ListWithOffers(ctx context.Context) ([]domain.AssetState, error) {
	query := `SELECT collection, token_id, offer, tenancy, no_rent FROM asset_states WHERE offer IS NOT NULL ORDER BY collection, token_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []domain.AssetState
	for rows.Next() {
		var collection string
		var tokenID int64
		var offer, tenancy, noRent []byte
		if err := rows.Scan(&collection, &tokenID, &offer, &tenancy, &noRent); err != nil {
			return nil, err
		}
		s, err := decodeState(domain.NewAssetRef(domain.Address(collection), uint64(tokenID)), offer, tenancy, noRent)
		if err != nil {
			return nil, err
		}
		states = append(states, *s)
	}
	return states, rows.Err()
}

func decodeState(asset domain.AssetRef, offer, tenancy, noRent []byte) (*domain.AssetState, error) {
	s := &domain.AssetState{Asset: asset}
	var err error
	if s.Offer, err = scanSlot[domain.Offer](offer); err != nil {
		return nil, fmt.Errorf("decode offer of %s: %w", asset, err)
	}
	if s.Tenancy, err = scanSlot[domain.Tenancy](tenancy); err != nil {
		return nil, fmt.Errorf("decode tenancy of %s: %w", asset, err)
	}
	if s.NoRent, err = scanSlot[domain.NoRentSubscription](noRent); err != nil {
		return nil, fmt.Errorf("decode no-rent of %s: %w", asset, err)
	}
	return s, nil
}
