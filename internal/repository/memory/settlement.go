package memory

import (
	"context"

	"landrent-backend/internal/domain"
)

type settlementRepository struct {
	db *db
}

func (r *settlementRepository) Record(ctx context.Context, entries []domain.SettlementEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.journal = append(r.db.journal, entries...)
	return nil
}

func (r *settlementRepository) ListByAsset(ctx context.Context, asset domain.AssetRef) ([]domain.SettlementEntry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []domain.SettlementEntry
	for _, e := range r.db.journal {
		if e.Asset == asset {
			out = append(out, e)
		}
	}
	return out, nil
}
