package memory

import (
	"context"
	"sort"

	"landrent-backend/internal/domain"
)

type assetStateRepository struct {
	db *db
}

func (r *assetStateRepository) Get(ctx context.Context, asset domain.AssetRef) (*domain.AssetState, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if s, ok := r.db.states[asset.Key()]; ok {
		return s.Clone(), nil
	}
	return &domain.AssetState{Asset: asset}, nil
}

func (r *assetStateRepository) Save(ctx context.Context, state *domain.AssetState, entries []domain.SettlementEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.states[state.Asset.Key()] = state.Clone()
	r.db.journal = append(r.db.journal, entries...)
	return nil
}

func (r *assetStateRepository) ListWithOffers(ctx context.Context) ([]domain.AssetState, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []domain.AssetState
	for _, s := range r.db.states {
		if s.Offer != nil {
			out = append(out, *s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset.Key() < out[j].Asset.Key() })
	return out, nil
}
