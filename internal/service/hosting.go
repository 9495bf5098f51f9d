package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"landrent-backend/internal/clock"
	"landrent-backend/internal/domain"
	"landrent-backend/internal/logger"
	"landrent-backend/internal/repository"
)

type HostingConfig struct {
	// Address is the hosting collaborator's own account. It collects fees
	// before forwarding them and is the only caller ExtendPaidUntil accepts.
	Address      domain.Address
	Admin        domain.Address
	FeeReceiver  domain.Address
	PeriodLength time.Duration
}

// Hosting sells no-rent time in tiers and credits it through the rental
// engine's ExtendPaidUntil hook.
type Hosting struct {
	cfg      HostingConfig
	tiers    repository.HostingTierRepository
	journal  repository.SettlementRepository
	ledger   SettlementLedger
	registry AssetRegistry
	engine   PaidUntilExtender
	clock    clock.Clock
	guard    guard
}

func NewHosting(cfg HostingConfig, tiers repository.HostingTierRepository, journal repository.SettlementRepository, ledger SettlementLedger, registry AssetRegistry, engine PaidUntilExtender, clk clock.Clock) *Hosting {
	return &Hosting{
		cfg:      cfg,
		tiers:    tiers,
		journal:  journal,
		ledger:   ledger,
		registry: registry,
		engine:   engine,
		clock:    clk,
	}
}

func (h *Hosting) validateTier(t *domain.HostingTier) error {
	if t.Months < 1 {
		return fmt.Errorf("%w: tier months must be at least 1", domain.ErrInvalidPolicy)
	}
	if t.MaxMonths < t.Months {
		return fmt.Errorf("%w: tier max months %d below months %d", domain.ErrInvalidPolicy, t.MaxMonths, t.Months)
	}
	if t.PricePerMonth < 0 {
		return fmt.Errorf("%w: negative tier price", domain.ErrInvalidPolicy)
	}
	if _, ok := domain.MonthsSpan(t.MaxMonths, h.cfg.PeriodLength); !ok {
		return fmt.Errorf("%w: tier max months %d overflows the period length", domain.ErrInvalidPolicy, t.MaxMonths)
	}
	if _, ok := t.PricePerMonth.Times(int64(t.Months)); !ok {
		return fmt.Errorf("%w: tier price overflows", domain.ErrInvalidPolicy)
	}
	return nil
}

func (h *Hosting) AddTier(ctx context.Context, caller domain.Address, tier *domain.HostingTier) error {
	logger.EnterMethod("hosting.AddTier", "caller", caller, "tierID", tier.ID)
	if err := h.guard.enter(); err != nil {
		logger.ExitMethodWithError("hosting.AddTier", err, "tierID", tier.ID)
		return err
	}
	defer h.guard.exit()

	if caller != h.cfg.Admin {
		logger.ExitMethodWithError("hosting.AddTier", domain.ErrNotAuthorized, "caller", caller)
		return domain.ErrNotAuthorized
	}
	if err := h.validateTier(tier); err != nil {
		logger.ExitMethodWithError("hosting.AddTier", err, "tierID", tier.ID)
		return err
	}
	if err := h.tiers.Create(ctx, tier); err != nil {
		logger.ExitMethodWithError("hosting.AddTier", err, "tierID", tier.ID)
		return err
	}
	logger.ExitMethod("hosting.AddTier", "tierID", tier.ID)
	return nil
}

func (h *Hosting) UpdateTier(ctx context.Context, caller domain.Address, tier *domain.HostingTier) error {
	logger.EnterMethod("hosting.UpdateTier", "caller", caller, "tierID", tier.ID)
	if err := h.guard.enter(); err != nil {
		logger.ExitMethodWithError("hosting.UpdateTier", err, "tierID", tier.ID)
		return err
	}
	defer h.guard.exit()

	if caller != h.cfg.Admin {
		logger.ExitMethodWithError("hosting.UpdateTier", domain.ErrNotAuthorized, "caller", caller)
		return domain.ErrNotAuthorized
	}
	if err := h.validateTier(tier); err != nil {
		logger.ExitMethodWithError("hosting.UpdateTier", err, "tierID", tier.ID)
		return err
	}
	if err := h.tiers.Update(ctx, tier); err != nil {
		logger.ExitMethodWithError("hosting.UpdateTier", err, "tierID", tier.ID)
		return err
	}
	logger.ExitMethod("hosting.UpdateTier", "tierID", tier.ID)
	return nil
}

func (h *Hosting) ListTiers(ctx context.Context) ([]domain.HostingTier, error) {
	return h.tiers.List(ctx)
}

// PayFees charges the owner for one purchase of the tier and extends the
// asset's no-rent period by the tier's months. The prepaid period may not
// reach past MaxMonths periods from now.
func (h *Hosting) PayFees(ctx context.Context, caller domain.Address, asset domain.AssetRef, tierID int32) (*domain.NoRentSubscription, error) {
	logger.EnterMethod("hosting.PayFees", "caller", caller, "asset", asset, "tierID", tierID)
	if err := h.guard.enter(); err != nil {
		logger.ExitMethodWithError("hosting.PayFees", err, "asset", asset)
		return nil, err
	}
	defer h.guard.exit()

	sub, err := h.payFees(ctx, caller, asset, tierID)
	if err != nil {
		logger.ExitMethodWithError("hosting.PayFees", err, "asset", asset, "tierID", tierID)
		return nil, err
	}
	logger.Info("Hosting fees paid", "asset", asset, "tierID", tierID, "paidUntil", sub.PaidUntil)
	logger.ExitMethod("hosting.PayFees", "asset", asset)
	return sub, nil
}

func (h *Hosting) payFees(ctx context.Context, caller domain.Address, asset domain.AssetRef, tierID int32) (*domain.NoRentSubscription, error) {
	tier, err := h.tiers.GetByID(ctx, tierID)
	if err != nil {
		return nil, err
	}
	if !tier.Enabled {
		return nil, fmt.Errorf("%w: tier %d is disabled", domain.ErrInvalidPolicy, tierID)
	}
	owner, err := h.registry.OwnerOf(ctx, asset)
	if err != nil {
		return nil, err
	}
	if owner != caller {
		return nil, domain.ErrNotAuthorized
	}

	now := h.clock.Now()
	if err := h.validateTier(tier); err != nil {
		return nil, err
	}
	if err := h.checkCap(ctx, asset, tier, now); err != nil {
		return nil, err
	}

	cost, _ := tier.PricePerMonth.Times(int64(tier.Months))
	s := newSettlement(h.ledger, h.cfg.Address, asset, now)
	if err := s.collect(ctx, domain.SettlementKindHostingFee, caller, cost); err != nil {
		return nil, err
	}
	s.pay(domain.SettlementKindFee, h.cfg.FeeReceiver, cost)

	sub, err := h.engine.ExtendPaidUntil(ctx, h.cfg.Address, asset, tier.Months)
	if err != nil {
		s.revert(ctx)
		return nil, err
	}
	entries := s.entries
	if err := s.execute(ctx); err != nil {
		logger.Error("Hosting fee forwarding failed", "asset", asset, "error", err)
		entries = append(entries, s.reversals()...)
	}
	if err := h.journal.Record(ctx, entries); err != nil {
		logger.Error("Failed to journal hosting fees", "asset", asset, "error", err)
	}
	return sub, nil
}

// checkCap expects a tier that passed validateTier.
func (h *Hosting) checkCap(ctx context.Context, asset domain.AssetRef, tier *domain.HostingTier, now time.Time) error {
	base := now
	sub, err := h.engine.GetNoRent(ctx, asset)
	switch {
	case err == nil:
		if sub.PaidUntil.After(now) {
			base = sub.PaidUntil
		}
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}
	maxSpan, _ := domain.MonthsSpan(tier.MaxMonths, h.cfg.PeriodLength)
	span, _ := domain.MonthsSpan(tier.Months, h.cfg.PeriodLength)
	if base.Add(span).After(now.Add(maxSpan)) {
		return fmt.Errorf("%w: tier %d allows at most %d prepaid months", domain.ErrInvalidPolicy, tier.ID, tier.MaxMonths)
	}
	return nil
}
