package service

import (
	"context"

	"landrent-backend/internal/domain"
)

// SettlementLedger is the fungible token as seen by one operator. Funds
// moved from a party other than the operator spend that party's allowance.
type SettlementLedger interface {
	TransferFrom(ctx context.Context, from, to domain.Address, amount domain.Amount) error
	BalanceOf(ctx context.Context, party domain.Address) (domain.Amount, error)
}

// AssetRegistry resolves ownership across every registered collection.
type AssetRegistry interface {
	OwnerOf(ctx context.Context, asset domain.AssetRef) (domain.Address, error)
	IsApprovedForAll(ctx context.Context, collection, owner, operator domain.Address) (bool, error)
}

// ContainmentChecker reports whether an asset sits inside a container.
type ContainmentChecker interface {
	IsContained(ctx context.Context, asset domain.AssetRef) (uint64, bool, error)
}

// TenancyChecker reports whether an asset has an active tenancy.
type TenancyChecker interface {
	IsTokenRented(ctx context.Context, asset domain.AssetRef) (bool, error)
}

// PaidUntilExtender is the inbound hook the hosting collaborator calls
// after collecting fees.
type PaidUntilExtender interface {
	ExtendPaidUntil(ctx context.Context, caller domain.Address, asset domain.AssetRef, additionalMonths int32) (*domain.NoRentSubscription, error)
	GetNoRent(ctx context.Context, asset domain.AssetRef) (*domain.NoRentSubscription, error)
}

type RentalService interface {
	PlaceOffer(ctx context.Context, caller domain.Address, asset domain.AssetRef, amount domain.Amount, months int32, metadataURI string) (*domain.Offer, error)
	AcceptOffer(ctx context.Context, caller domain.Address, asset domain.AssetRef) (*domain.Tenancy, error)
	CancelOffer(ctx context.Context, caller domain.Address, asset domain.AssetRef) error
	ReleaseExpiredOffer(ctx context.Context, asset domain.AssetRef) error
	IsTokenRented(ctx context.Context, asset domain.AssetRef) (bool, error)
	GetOffer(ctx context.Context, asset domain.AssetRef) (*domain.Offer, error)
	GetTenancy(ctx context.Context, asset domain.AssetRef) (*domain.Tenancy, error)
	Status(ctx context.Context, asset domain.AssetRef) (domain.RentalStatus, error)
	ListSettlements(ctx context.Context, asset domain.AssetRef) ([]domain.SettlementEntry, error)
}

type NoRentService interface {
	ActivateNoRent(ctx context.Context, caller domain.Address, asset domain.AssetRef, policy domain.NoRentPolicy) (*domain.NoRentSubscription, error)
	IsNoRentActive(ctx context.Context, asset domain.AssetRef) (bool, error)
	GetNoRent(ctx context.Context, asset domain.AssetRef) (*domain.NoRentSubscription, error)
	ExtendPaidUntil(ctx context.Context, caller domain.Address, asset domain.AssetRef, additionalMonths int32) (*domain.NoRentSubscription, error)
}

type ContainerService interface {
	CreateContainer(ctx context.Context, caller domain.Address, tokenIDs []uint64, name string) (*domain.Container, error)
	DeleteContainer(ctx context.Context, caller domain.Address, id uint64) error
	GetContainer(ctx context.Context, id uint64) (*domain.Container, error)
	IsContained(ctx context.Context, asset domain.AssetRef) (uint64, bool, error)
}

type HostingService interface {
	AddTier(ctx context.Context, caller domain.Address, tier *domain.HostingTier) error
	UpdateTier(ctx context.Context, caller domain.Address, tier *domain.HostingTier) error
	ListTiers(ctx context.Context) ([]domain.HostingTier, error)
	PayFees(ctx context.Context, caller domain.Address, asset domain.AssetRef, tierID int32) (*domain.NoRentSubscription, error)
}
