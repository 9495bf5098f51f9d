// Package registry resolves asset collections. Any collection exposing
// the Collection capability can be rented; the engine never depends on
// the concrete kind.
package registry

import (
	"context"
	"fmt"
	"sync"

	"landrent-backend/internal/domain"
)

type Collection interface {
	OwnerOf(ctx context.Context, tokenID uint64) (domain.Address, error)
	IsApprovedForAll(ctx context.Context, owner, operator domain.Address) (bool, error)
}

// TransferableCollection is a collection whose tokens can be moved by an
// approved operator, e.g. into container custody.
type TransferableCollection interface {
	Collection
	TransferFrom(ctx context.Context, operator, from, to domain.Address, tokenID uint64) error
}

type Registry struct {
	mu          sync.RWMutex
	collections map[domain.Address]Collection
}

func New() *Registry {
	return &Registry{collections: make(map[domain.Address]Collection)}
}

func (r *Registry) Register(addr domain.Address, c Collection) {
	r.mu.Lock()
	r.collections[addr] = c
	r.mu.Unlock()
}

func (r *Registry) Collection(addr domain.Address) (Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[addr]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", addr, domain.ErrNotFound)
	}
	return c, nil
}

func (r *Registry) OwnerOf(ctx context.Context, asset domain.AssetRef) (domain.Address, error) {
	c, err := r.Collection(asset.Collection)
	if err != nil {
		return "", err
	}
	return c.OwnerOf(ctx, asset.TokenID)
}

func (r *Registry) IsApprovedForAll(ctx context.Context, collection, owner, operator domain.Address) (bool, error) {
	c, err := r.Collection(collection)
	if err != nil {
		return false, err
	}
	return c.IsApprovedForAll(ctx, owner, operator)
}

// approvable is implemented by collections whose owners can grant an
// operator control of all their tokens.
type approvable interface {
	SetApprovalForAll(ctx context.Context, owner, operator domain.Address, approved bool)
}

func (r *Registry) SetApprovalForAll(ctx context.Context, collection, owner, operator domain.Address, approved bool) error {
	c, err := r.Collection(collection)
	if err != nil {
		return err
	}
	a, ok := c.(approvable)
	if !ok {
		return fmt.Errorf("collection %s does not support approvals: %w", collection, domain.ErrNotAuthorized)
	}
	a.SetApprovalForAll(ctx, owner, operator, approved)
	return nil
}
