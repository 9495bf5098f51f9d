package postgres

import (
	"context"
	"database/sql"

	"landrent-backend/internal/domain"
	"landrent-backend/internal/repository"
)

type settlementRepository struct {
	db *sql.DB
}

func NewSettlementRepository(db *sql.DB) repository.SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) Record(ctx context.Context, entries []domain.SettlementEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := insertEntries(ctx, tx, entries); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *settlementRepository) ListByAsset(ctx context.Context, asset domain.AssetRef) ([]domain.SettlementEntry, error) {
	query := `SELECT id, kind, from_party, to_party, amount, created_on FROM settlement_entries
	          WHERE collection = $1 AND token_id = $2 ORDER BY created_on`
	rows, err := r.db.QueryContext(ctx, query, string(asset.Collection), int64(asset.TokenID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.SettlementEntry
	for rows.Next() {
		e := domain.SettlementEntry{Asset: asset}
		if err := rows.Scan(&e.ID, &e.Kind, &e.From, &e.To, &e.Amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func insertEntries(ctx context.Context, tx *sql.Tx, entries []domain.SettlementEntry) error {
	query := `INSERT INTO settlement_entries (id, collection, token_id, kind, from_party, to_party, amount, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, query, e.ID, string(e.Asset.Collection), int64(e.Asset.TokenID), string(e.Kind), string(e.From), string(e.To), int64(e.Amount), e.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}
