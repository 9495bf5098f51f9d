package service

import (
	"context"
	"fmt"

	"landrent-backend/internal/clock"
	"landrent-backend/internal/domain"
	"landrent-backend/internal/logger"
	"landrent-backend/internal/registry"
	"landrent-backend/internal/repository"
)

type ContainerConfig struct {
	// Address is both the container collection id and the custody address
	// that holds member tokens.
	Address        domain.Address
	LandCollection domain.Address
	MaxMembers     int
}

// ContainerIndex bundles land tokens into containers. Containers are
// themselves a collection, so the rental engine rents them like any other
// asset.
type ContainerIndex struct {
	cfg       ContainerConfig
	repo      repository.ContainerRepository
	lands     registry.TransferableCollection
	tenancies TenancyChecker
	clock     clock.Clock
	guard     guard
}

func NewContainerIndex(cfg ContainerConfig, repo repository.ContainerRepository, lands registry.TransferableCollection, tenancies TenancyChecker, clk clock.Clock) *ContainerIndex {
	return &ContainerIndex{
		cfg:       cfg,
		repo:      repo,
		lands:     lands,
		tenancies: tenancies,
		clock:     clk,
	}
}

func (c *ContainerIndex) Address() domain.Address { return c.cfg.Address }

func (c *ContainerIndex) CreateContainer(ctx context.Context, caller domain.Address, tokenIDs []uint64, name string) (*domain.Container, error) {
	logger.EnterMethod("containerIndex.CreateContainer", "caller", caller, "tokens", len(tokenIDs), "name", name)
	if err := c.guard.enter(); err != nil {
		logger.ExitMethodWithError("containerIndex.CreateContainer", err)
		return nil, err
	}
	defer c.guard.exit()

	container, err := c.createContainer(ctx, caller, tokenIDs, name)
	if err != nil {
		logger.ExitMethodWithError("containerIndex.CreateContainer", err, "caller", caller)
		return nil, err
	}
	logger.Info("Container created", "containerID", container.ID, "owner", caller, "members", len(container.Members))
	logger.ExitMethod("containerIndex.CreateContainer", "containerID", container.ID)
	return container, nil
}

func (c *ContainerIndex) createContainer(ctx context.Context, caller domain.Address, tokenIDs []uint64, name string) (*domain.Container, error) {
	if len(tokenIDs) == 0 {
		return nil, fmt.Errorf("%w: no assets given", domain.ErrInvalidContainer)
	}
	if c.cfg.MaxMembers > 0 && len(tokenIDs) > c.cfg.MaxMembers {
		return nil, fmt.Errorf("%w: %d assets, at most %d allowed", domain.ErrContainerTooLarge, len(tokenIDs), c.cfg.MaxMembers)
	}

	seen := make(map[uint64]struct{}, len(tokenIDs))
	members := make([]domain.AssetRef, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: token %d listed twice", domain.ErrInvalidContainer, id)
		}
		seen[id] = struct{}{}
		asset := domain.NewAssetRef(c.cfg.LandCollection, id)
		if err := c.checkMember(ctx, caller, asset); err != nil {
			return nil, err
		}
		members = append(members, asset)
	}

	container := &domain.Container{
		Owner:     caller,
		Name:      name,
		Members:   members,
		CreatedAt: c.clock.Now(),
	}
	if err := c.repo.Create(ctx, container); err != nil {
		return nil, err
	}

	if err := c.moveMembers(ctx, caller, c.cfg.Address, members); err != nil {
		if derr := c.repo.Delete(ctx, container.ID); derr != nil {
			logger.Error("Failed to remove container after custody failure", "containerID", container.ID, "error", derr)
		}
		return nil, err
	}
	return container, nil
}

func (c *ContainerIndex) checkMember(ctx context.Context, caller domain.Address, asset domain.AssetRef) error {
	owner, err := c.lands.OwnerOf(ctx, asset.TokenID)
	if err != nil {
		return err
	}
	if owner != caller {
		return fmt.Errorf("%w: %s is not owned by caller", domain.ErrNotAuthorized, asset)
	}
	approved, err := c.lands.IsApprovedForAll(ctx, caller, c.cfg.Address)
	if err != nil {
		return err
	}
	if !approved {
		return fmt.Errorf("%w: container custody is not approved", domain.ErrNotAuthorized)
	}
	if _, contained, err := c.repo.ContainerOf(ctx, asset); err != nil {
		return err
	} else if contained {
		return fmt.Errorf("%w: %s", domain.ErrAssetAlreadyContained, asset)
	}
	rented, err := c.tenancies.IsTokenRented(ctx, asset)
	if err != nil {
		return err
	}
	if rented {
		return fmt.Errorf("%w: %s", domain.ErrAssetRented, asset)
	}
	return nil
}

// moveMembers transfers every member token, undoing completed moves if one
// fails.
func (c *ContainerIndex) moveMembers(ctx context.Context, from, to domain.Address, members []domain.AssetRef) error {
	for i, m := range members {
		logger.ExternalServiceCall("landCollection", "transferFrom", "from", from, "to", to, "token", m.TokenID)
		err := c.lands.TransferFrom(ctx, c.cfg.Address, from, to, m.TokenID)
		logger.ExternalServiceResult("landCollection", "transferFrom", err, "token", m.TokenID)
		if err == nil {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if uerr := c.lands.TransferFrom(ctx, c.cfg.Address, to, from, members[j].TokenID); uerr != nil {
				logger.Error("Failed to undo member transfer", "token", members[j].TokenID, "error", uerr)
			}
		}
		return fmt.Errorf("move token %d: %w", m.TokenID, err)
	}
	return nil
}

// DeleteContainer returns every member to the container owner. A rented
// container cannot be deleted.
func (c *ContainerIndex) DeleteContainer(ctx context.Context, caller domain.Address, id uint64) error {
	logger.EnterMethod("containerIndex.DeleteContainer", "caller", caller, "containerID", id)
	if err := c.guard.enter(); err != nil {
		logger.ExitMethodWithError("containerIndex.DeleteContainer", err, "containerID", id)
		return err
	}
	defer c.guard.exit()

	if err := c.deleteContainer(ctx, caller, id); err != nil {
		logger.ExitMethodWithError("containerIndex.DeleteContainer", err, "containerID", id, "caller", caller)
		return err
	}
	logger.Info("Container deleted", "containerID", id, "owner", caller)
	logger.ExitMethod("containerIndex.DeleteContainer", "containerID", id)
	return nil
}

func (c *ContainerIndex) deleteContainer(ctx context.Context, caller domain.Address, id uint64) error {
	container, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if container.Owner != caller {
		return domain.ErrNotAuthorized
	}
	rented, err := c.tenancies.IsTokenRented(ctx, domain.NewAssetRef(c.cfg.Address, id))
	if err != nil {
		return err
	}
	if rented {
		return domain.ErrContainerIsRented
	}

	if err := c.moveMembers(ctx, c.cfg.Address, container.Owner, container.Members); err != nil {
		return err
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		if merr := c.moveMembers(ctx, container.Owner, c.cfg.Address, container.Members); merr != nil {
			logger.Error("Failed to return members to custody", "containerID", id, "error", merr)
		}
		return err
	}
	return nil
}

func (c *ContainerIndex) GetContainer(ctx context.Context, id uint64) (*domain.Container, error) {
	return c.repo.GetByID(ctx, id)
}

// IsContained reports the container holding a land asset. Assets of other
// collections are never contained.
func (c *ContainerIndex) IsContained(ctx context.Context, asset domain.AssetRef) (uint64, bool, error) {
	if asset.Collection != c.cfg.LandCollection {
		return 0, false, nil
	}
	return c.repo.ContainerOf(ctx, asset)
}

// OwnerOf makes the index a registry.Collection keyed by container id.
func (c *ContainerIndex) OwnerOf(ctx context.Context, tokenID uint64) (domain.Address, error) {
	container, err := c.repo.GetByID(ctx, tokenID)
	if err != nil {
		return "", err
	}
	return container.Owner, nil
}

// IsApprovedForAll is always false: containers are not transferable.
func (c *ContainerIndex) IsApprovedForAll(ctx context.Context, owner, operator domain.Address) (bool, error) {
	return false, nil
}
