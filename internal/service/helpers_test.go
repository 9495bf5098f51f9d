package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"landrent-backend/internal/clock"
	"landrent-backend/internal/domain"
	"landrent-backend/internal/ledger"
	"landrent-backend/internal/registry"
	"landrent-backend/internal/repository"
	"landrent-backend/internal/repository/memory"
	"landrent-backend/internal/service"
)

const (
	day    = 24 * time.Hour
	month  = 30 * day
	funds  = domain.Amount(1_000_000)
	feePct = 10
)

func addr(n int) domain.Address {
	return domain.MustParseAddress(fmt.Sprintf("0x%040x", n))
}

var (
	owner       = addr(0x01)
	renter1     = addr(0x02)
	renter2     = addr(0x03)
	stranger    = addr(0x04)
	feeReceiver = addr(0xfee)
	custody     = addr(0xc0)
	hostingAddr = addr(0x405)
	admin       = addr(0xad)
	landsAddr   = addr(0xa11d)
	boxAddr     = addr(0xb0c5)
)

type harness struct {
	ctx        context.Context
	clock      *clock.ManualClock
	ledger     *ledger.Ledger
	lands      *registry.NFTCollection
	registry   *registry.Registry
	store      *memory.Store
	engine     *service.RentalEngine
	containers *service.ContainerIndex
	hosting    *service.Hosting
	seq        *service.Sequencer
}

type harnessOption func(*service.RentalConfig, *harnessDeps)

type harnessDeps struct {
	states repository.AssetStateRepository
}

func withStates(states repository.AssetStateRepository) harnessOption {
	return func(_ *service.RentalConfig, d *harnessDeps) { d.states = states }
}

func withFloor(collection domain.Address, perMonth domain.Amount) harnessOption {
	return func(c *service.RentalConfig, _ *harnessDeps) {
		c.MinMonthlyPrice = map[domain.Address]domain.Amount{collection: perMonth}
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	ctx := context.Background()
	h := &harness{
		ctx:      ctx,
		clock:    clock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		ledger:   ledger.New(),
		lands:    registry.NewNFTCollection(landsAddr),
		registry: registry.New(),
		store:    memory.NewStore(),
		seq:      service.NewSequencer(),
	}

	cfg := service.RentalConfig{
		OffererGraceDelay: 48 * time.Hour,
		ValidityWindow:    7 * day,
		PeriodLength:      month,
		FeePercentage:     feePct,
		FeeReceiver:       feeReceiver,
		HostingAddress:    hostingAddr,
	}
	deps := harnessDeps{states: h.store.AssetStateRepository}
	for _, opt := range opts {
		opt(&cfg, &deps)
	}

	h.engine = service.NewRentalEngine(cfg, deps.states, h.store.SettlementRepository, h.ledger.Account(custody), custody, h.registry, h.clock)
	h.containers = service.NewContainerIndex(service.ContainerConfig{
		Address:        boxAddr,
		LandCollection: landsAddr,
		MaxMembers:     50,
	}, h.store.ContainerRepository, h.lands, h.engine, h.clock)
	h.engine.SetContainmentChecker(h.containers)
	h.hosting = newHostingWith(h, h.engine)

	h.registry.Register(landsAddr, h.lands)
	h.registry.Register(boxAddr, h.containers)

	for id := uint64(1); id <= 5; id++ {
		require.NoError(t, h.lands.Mint(owner, id))
	}
	for _, p := range []domain.Address{owner, renter1, renter2, stranger} {
		h.ledger.Mint(p, funds)
		require.NoError(t, h.ledger.Approve(ctx, p, custody, funds))
		require.NoError(t, h.ledger.Approve(ctx, p, hostingAddr, funds))
	}
	return h
}

func (h *harness) land(id uint64) domain.AssetRef {
	return domain.NewAssetRef(landsAddr, id)
}

func (h *harness) box(id uint64) domain.AssetRef {
	return domain.NewAssetRef(boxAddr, id)
}

func (h *harness) balance(t *testing.T, party domain.Address) domain.Amount {
	t.Helper()
	b, err := h.ledger.BalanceOf(h.ctx, party)
	require.NoError(t, err)
	return b
}

func (h *harness) advance(t *testing.T, d time.Duration) {
	t.Helper()
	require.NoError(t, h.clock.Advance(d))
}

func newHostingWith(h *harness, engine service.PaidUntilExtender) *service.Hosting {
	return service.NewHosting(service.HostingConfig{
		Address:      hostingAddr,
		Admin:        admin,
		FeeReceiver:  feeReceiver,
		PeriodLength: month,
	}, h.store.HostingTierRepository, h.store.SettlementRepository, h.ledger.Account(hostingAddr), h.registry, engine, h.clock)
}
