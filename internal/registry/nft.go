package registry

import (
	"context"
	"fmt"
	"sync"

	"landrent-backend/internal/domain"
)

// NFTCollection is an in-process ERC721 style collection.
type NFTCollection struct {
	address   domain.Address
	mu        sync.RWMutex
	owners    map[uint64]domain.Address
	approvals map[domain.Address]map[domain.Address]bool
}

func NewNFTCollection(address domain.Address) *NFTCollection {
	return &NFTCollection{
		address:   address,
		owners:    make(map[uint64]domain.Address),
		approvals: make(map[domain.Address]map[domain.Address]bool),
	}
}

func (c *NFTCollection) Address() domain.Address { return c.address }

func (c *NFTCollection) Mint(to domain.Address, tokenID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.owners[tokenID]; ok {
		return fmt.Errorf("token %d already minted", tokenID)
	}
	c.owners[tokenID] = to
	return nil
}

func (c *NFTCollection) OwnerOf(ctx context.Context, tokenID uint64) (domain.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	owner, ok := c.owners[tokenID]
	if !ok {
		return "", fmt.Errorf("token %d of %s: %w", tokenID, c.address, domain.ErrNotFound)
	}
	return owner, nil
}

func (c *NFTCollection) SetApprovalForAll(ctx context.Context, owner, operator domain.Address, approved bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.approvals[owner] == nil {
		c.approvals[owner] = make(map[domain.Address]bool)
	}
	c.approvals[owner][operator] = approved
}

func (c *NFTCollection) IsApprovedForAll(ctx context.Context, owner, operator domain.Address) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.approvals[owner][operator], nil
}

func (c *NFTCollection) TransferFrom(ctx context.Context, operator, from, to domain.Address, tokenID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.owners[tokenID]
	if !ok {
		return fmt.Errorf("token %d of %s: %w", tokenID, c.address, domain.ErrNotFound)
	}
	if owner != from {
		return fmt.Errorf("%w: %s does not own token %d", domain.ErrNotAuthorized, from, tokenID)
	}
	if operator != from && !c.approvals[from][operator] {
		return fmt.Errorf("%w: %s is not approved by %s", domain.ErrNotAuthorized, operator, from)
	}
	c.owners[tokenID] = to
	return nil
}
