package memory

import (
	"context"
	"fmt"
	"sort"

	"landrent-backend/internal/domain"
)

type tierRepository struct {
	db *db
}

func (r *tierRepository) Create(ctx context.Context, tier *domain.HostingTier) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tiers[tier.ID]; ok {
		return fmt.Errorf("hosting tier %d already exists", tier.ID)
	}
	r.db.tiers[tier.ID] = *tier
	return nil
}

func (r *tierRepository) GetByID(ctx context.Context, id int32) (*domain.HostingTier, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	t, ok := r.db.tiers[id]
	if !ok {
		return nil, fmt.Errorf("hosting tier %d: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

func (r *tierRepository) Update(ctx context.Context, tier *domain.HostingTier) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tiers[tier.ID]; !ok {
		return fmt.Errorf("hosting tier %d: %w", tier.ID, domain.ErrNotFound)
	}
	r.db.tiers[tier.ID] = *tier
	return nil
}

func (r *tierRepository) List(ctx context.Context) ([]domain.HostingTier, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]domain.HostingTier, 0, len(r.db.tiers))
	for _, t := range r.db.tiers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
