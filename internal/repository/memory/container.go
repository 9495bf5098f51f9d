package memory

import (
	"context"
	"fmt"

	"landrent-backend/internal/domain"
)

type containerRepository struct {
	db *db
}

func (r *containerRepository) Create(ctx context.Context, c *domain.Container) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range c.Members {
		if id, ok := r.db.membership[m.Key()]; ok {
			return fmt.Errorf("%w: %s is in container %d", domain.ErrAssetAlreadyContained, m, id)
		}
	}
	c.ID = r.db.nextContainerID
	r.db.nextContainerID++
	for _, m := range c.Members {
		r.db.membership[m.Key()] = c.ID
	}
	r.db.containers[c.ID] = cloneContainer(c)
	return nil
}

func (r *containerRepository) GetByID(ctx context.Context, id uint64) (*domain.Container, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.containers[id]
	if !ok {
		return nil, fmt.Errorf("container %d: %w", id, domain.ErrNotFound)
	}
	return cloneContainer(c), nil
}

func (r *containerRepository) Delete(ctx context.Context, id uint64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.containers[id]
	if !ok {
		return fmt.Errorf("container %d: %w", id, domain.ErrNotFound)
	}
	for _, m := range c.Members {
		delete(r.db.membership, m.Key())
	}
	delete(r.db.containers, id)
	return nil
}

func (r *containerRepository) ContainerOf(ctx context.Context, asset domain.AssetRef) (uint64, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	id, ok := r.db.membership[asset.Key()]
	return id, ok, nil
}

func cloneContainer(c *domain.Container) *domain.Container {
	out := *c
	out.Members = append([]domain.AssetRef(nil), c.Members...)
	return &out
}
