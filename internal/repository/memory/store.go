// Package memory keeps repository state in process. Every method takes the
// store lock for its whole duration, so multi-record writes are atomic.
package memory

import (
	"sync"

	"landrent-backend/internal/domain"
	"landrent-backend/internal/repository"
)

type db struct {
	mu              sync.RWMutex
	states          map[string]*domain.AssetState
	containers      map[uint64]*domain.Container
	membership      map[string]uint64
	nextContainerID uint64
	tiers           map[int32]domain.HostingTier
	journal         []domain.SettlementEntry
}

type Store struct {
	repository.AssetStateRepository
	repository.ContainerRepository
	repository.HostingTierRepository
	repository.SettlementRepository
}

func NewStore() *Store {
	d := &db{
		states:     make(map[string]*domain.AssetState),
		containers: make(map[uint64]*domain.Container),
		membership: make(map[string]uint64),
		tiers:      make(map[int32]domain.HostingTier),
	}
	return &Store{
		AssetStateRepository:  &assetStateRepository{db: d},
		ContainerRepository:   &containerRepository{db: d},
		HostingTierRepository: &tierRepository{db: d},
		SettlementRepository:  &settlementRepository{db: d},
	}
}
