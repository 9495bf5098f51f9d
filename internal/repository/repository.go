package repository

import (
	"context"

	"landrent-backend/internal/domain"
)

// AssetStateRepository stores the per-asset rental record keyed by
// (collection, tokenId).
type AssetStateRepository interface {
	// Get returns an empty state for an asset that was never written.
	Get(ctx context.Context, asset domain.AssetRef) (*domain.AssetState, error)
	// Save writes the state and appends the journal entries atomically.
	Save(ctx context.Context, state *domain.AssetState, entries []domain.SettlementEntry) error
	ListWithOffers(ctx context.Context) ([]domain.AssetState, error)
}

type ContainerRepository interface {
	// Create assigns the next sequential id and records every membership
	// pointer, or nothing if any member is already contained.
	Create(ctx context.Context, c *domain.Container) error
	GetByID(ctx context.Context, id uint64) (*domain.Container, error)
	// Delete removes the container and all its membership pointers.
	Delete(ctx context.Context, id uint64) error
	ContainerOf(ctx context.Context, asset domain.AssetRef) (uint64, bool, error)
}

type HostingTierRepository interface {
	Create(ctx context.Context, tier *domain.HostingTier) error
	GetByID(ctx context.Context, id int32) (*domain.HostingTier, error)
	Update(ctx context.Context, tier *domain.HostingTier) error
	List(ctx context.Context) ([]domain.HostingTier, error)
}

type SettlementRepository interface {
	Record(ctx context.Context, entries []domain.SettlementEntry) error
	ListByAsset(ctx context.Context, asset domain.AssetRef) ([]domain.SettlementEntry, error)
}
