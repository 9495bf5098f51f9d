package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"landrent-backend/internal/clock"
	"landrent-backend/internal/domain"
	"landrent-backend/internal/logger"
	"landrent-backend/internal/repository"
)

// RentalConfig holds the marketplace parameters of the rental engine.
type RentalConfig struct {
	OffererGraceDelay time.Duration
	ValidityWindow    time.Duration
	PeriodLength      time.Duration
	FeePercentage     int
	FeeReceiver       domain.Address
	HostingAddress    domain.Address
	// MinMonthlyPrice is an optional per-collection floor on the price of
	// one period.
	MinMonthlyPrice map[domain.Address]domain.Amount
}

// RentalEngine runs the offer/escrow/acceptance state machine and the
// no-rent subscription ledger over every registered collection.
type RentalEngine struct {
	cfg        RentalConfig
	states     repository.AssetStateRepository
	journal    repository.SettlementRepository
	ledger     SettlementLedger
	custody    domain.Address
	registry   AssetRegistry
	containers ContainmentChecker
	clock      clock.Clock
	guard      guard
}

// NewRentalEngine builds the engine. custody is the address the ledger
// account operates as; escrowed funds are held there.
func NewRentalEngine(
	cfg RentalConfig,
	states repository.AssetStateRepository,
	journal repository.SettlementRepository,
	ledger SettlementLedger,
	custody domain.Address,
	registry AssetRegistry,
	clk clock.Clock,
) *RentalEngine {
	return &RentalEngine{
		cfg:      cfg,
		states:   states,
		journal:  journal,
		ledger:   ledger,
		custody:  custody,
		registry: registry,
		clock:    clk,
	}
}

// SetContainmentChecker wires the container index. The index itself
// depends on the engine, so it is attached after both exist.
func (e *RentalEngine) SetContainmentChecker(c ContainmentChecker) {
	e.containers = c
}

func (e *RentalEngine) isContained(ctx context.Context, asset domain.AssetRef) (bool, error) {
	if e.containers == nil {
		return false, nil
	}
	_, ok, err := e.containers.IsContained(ctx, asset)
	return ok, err
}

func (e *RentalEngine) PlaceOffer(ctx context.Context, caller domain.Address, asset domain.AssetRef, amount domain.Amount, months int32, metadataURI string) (*domain.Offer, error) {
	logger.EnterMethod("rentalEngine.PlaceOffer", "caller", caller, "asset", asset, "amount", amount, "months", months)
	if err := e.guard.enter(); err != nil {
		logger.ExitMethodWithError("rentalEngine.PlaceOffer", err, "asset", asset)
		return nil, err
	}
	defer e.guard.exit()

	offer, err := e.placeOffer(ctx, caller, asset, amount, months, metadataURI)
	if err != nil {
		logger.ExitMethodWithError("rentalEngine.PlaceOffer", err, "asset", asset, "caller", caller)
		return nil, err
	}
	logger.Info("Offer placed", "asset", asset, "offerer", caller, "amount", amount, "months", months)
	logger.ExitMethod("rentalEngine.PlaceOffer", "asset", asset, "offerID", offer.ID)
	return offer, nil
}

func (e *RentalEngine) placeOffer(ctx context.Context, caller domain.Address, asset domain.AssetRef, amount domain.Amount, months int32, metadataURI string) (*domain.Offer, error) {
	if months < 1 {
		return nil, fmt.Errorf("%w: months must be at least 1", domain.ErrInvalidOffer)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidOffer)
	}
	if _, ok := domain.MonthsSpan(months, e.cfg.PeriodLength); !ok {
		return nil, fmt.Errorf("%w: %d months overflows the period length", domain.ErrInvalidOffer, months)
	}
	now := e.clock.Now()

	contained, err := e.isContained(ctx, asset)
	if err != nil {
		return nil, err
	}
	if contained {
		return nil, domain.ErrAssetContained
	}

	owner, err := e.registry.OwnerOf(ctx, asset)
	if err != nil {
		return nil, err
	}
	if owner == caller {
		return nil, fmt.Errorf("%w: owner cannot bid on own asset", domain.ErrNotAuthorized)
	}

	state, err := e.states.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	if state.ActiveTenancy(now) != nil {
		return nil, domain.ErrAssetRented
	}
	if state.NoRent != nil && state.NoRent.Active(now) {
		return nil, domain.ErrNoDisturbActive
	}
	if floor, ok := e.cfg.MinMonthlyPrice[asset.Collection]; ok {
		// A floor total past the Amount range is unmeetable.
		if total, fits := floor.Times(int64(months)); !fits || amount < total {
			return nil, fmt.Errorf("%w: collection floor is %d per month", domain.ErrOfferTooLow, floor)
		}
	}
	if live := state.LiveOffer(now, e.cfg.ValidityWindow); live != nil && amount <= live.Amount {
		return nil, fmt.Errorf("%w: must exceed %d", domain.ErrOfferTooLow, live.Amount)
	}

	s := newSettlement(e.ledger, e.custody, asset, now)
	if err := s.collect(ctx, domain.SettlementKindEscrow, caller, amount); err != nil {
		return nil, err
	}
	// Live or expired, the previous escrow goes back to its offerer.
	if prev := state.Offer; prev != nil {
		s.pay(domain.SettlementKindRefund, prev.Offerer, prev.Amount)
	}

	next := state.Clone()
	next.Offer = &domain.Offer{
		ID:          uuid.NewString(),
		Offerer:     caller,
		Amount:      amount,
		Months:      months,
		MetadataURI: metadataURI,
		PlacedAt:    now,
	}
	if err := e.commit(ctx, state, next, s); err != nil {
		return nil, err
	}
	return next.Offer, nil
}

func (e *RentalEngine) AcceptOffer(ctx context.Context, caller domain.Address, asset domain.AssetRef) (*domain.Tenancy, error) {
	logger.EnterMethod("rentalEngine.AcceptOffer", "caller", caller, "asset", asset)
	if err := e.guard.enter(); err != nil {
		logger.ExitMethodWithError("rentalEngine.AcceptOffer", err, "asset", asset)
		return nil, err
	}
	defer e.guard.exit()

	tenancy, err := e.acceptOffer(ctx, caller, asset)
	if err != nil {
		logger.ExitMethodWithError("rentalEngine.AcceptOffer", err, "asset", asset, "caller", caller)
		return nil, err
	}
	logger.Info("Offer accepted", "asset", asset, "renter", tenancy.Renter, "owner", tenancy.Owner, "endTime", tenancy.EndTime)
	logger.ExitMethod("rentalEngine.AcceptOffer", "asset", asset)
	return tenancy, nil
}

func (e *RentalEngine) acceptOffer(ctx context.Context, caller domain.Address, asset domain.AssetRef) (*domain.Tenancy, error) {
	now := e.clock.Now()

	contained, err := e.isContained(ctx, asset)
	if err != nil {
		return nil, err
	}
	if contained {
		return nil, domain.ErrAssetContained
	}

	state, err := e.states.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	if state.ActiveTenancy(now) != nil {
		return nil, domain.ErrAssetRented
	}
	offer := state.Offer
	if offer == nil {
		return nil, domain.ErrNoOffer
	}
	if offer.Expired(now, e.cfg.ValidityWindow) {
		return nil, domain.ErrAcceptanceWindowExpired
	}

	owner, err := e.registry.OwnerOf(ctx, asset)
	if err != nil {
		return nil, err
	}
	switch {
	case caller == owner:
	case caller == offer.Offerer && offer.GraceElapsed(now, e.cfg.OffererGraceDelay):
		// Self-accept must respect the month range of the owner's recorded policy.
		if state.NoRent != nil && !state.NoRent.Policy.Allows(offer.Months) {
			p := state.NoRent.Policy
			return nil, fmt.Errorf("%w: %d months is outside the owner's %d..%d month policy", domain.ErrInvalidOffer, offer.Months, p.MinMonths, p.MaxMonths)
		}
	default:
		return nil, domain.ErrNotAuthorized
	}
	span, ok := domain.MonthsSpan(offer.Months, e.cfg.PeriodLength)
	if !ok {
		return nil, fmt.Errorf("%w: %d months overflows the period length", domain.ErrInvalidOffer, offer.Months)
	}

	fee, payout := domain.SplitFee(offer.Amount, e.cfg.FeePercentage)
	s := newSettlement(e.ledger, e.custody, asset, now)
	s.pay(domain.SettlementKindFee, e.cfg.FeeReceiver, fee)
	s.pay(domain.SettlementKindPayout, owner, payout)

	next := state.Clone()
	next.Offer = nil
	next.Tenancy = &domain.Tenancy{
		Renter:      offer.Offerer,
		Owner:       owner,
		Amount:      offer.Amount,
		Months:      offer.Months,
		MetadataURI: offer.MetadataURI,
		StartTime:   now,
		EndTime:     now.Add(span),
	}
	if err := e.commit(ctx, state, next, s); err != nil {
		return nil, err
	}
	return next.Tenancy, nil
}

// CancelOffer lets the offerer withdraw, live or expired, and refunds the
// escrow in full.
func (e *RentalEngine) CancelOffer(ctx context.Context, caller domain.Address, asset domain.AssetRef) error {
	logger.EnterMethod("rentalEngine.CancelOffer", "caller", caller, "asset", asset)
	if err := e.guard.enter(); err != nil {
		logger.ExitMethodWithError("rentalEngine.CancelOffer", err, "asset", asset)
		return err
	}
	defer e.guard.exit()

	if err := e.removeOffer(ctx, asset, func(o *domain.Offer, now time.Time) error {
		if o.Offerer != caller {
			return domain.ErrNotAuthorized
		}
		return nil
	}); err != nil {
		logger.ExitMethodWithError("rentalEngine.CancelOffer", err, "asset", asset, "caller", caller)
		return err
	}
	logger.Info("Offer cancelled", "asset", asset, "offerer", caller)
	logger.ExitMethod("rentalEngine.CancelOffer", "asset", asset)
	return nil
}

// ReleaseExpiredOffer refunds an offer that aged past the validity window.
// Anyone may call it.
func (e *RentalEngine) ReleaseExpiredOffer(ctx context.Context, asset domain.AssetRef) error {
	logger.EnterMethod("rentalEngine.ReleaseExpiredOffer", "asset", asset)
	if err := e.guard.enter(); err != nil {
		logger.ExitMethodWithError("rentalEngine.ReleaseExpiredOffer", err, "asset", asset)
		return err
	}
	defer e.guard.exit()

	if err := e.removeOffer(ctx, asset, func(o *domain.Offer, now time.Time) error {
		if !o.Expired(now, e.cfg.ValidityWindow) {
			return fmt.Errorf("%w: offer is still inside its validity window", domain.ErrNotAuthorized)
		}
		return nil
	}); err != nil {
		logger.ExitMethodWithError("rentalEngine.ReleaseExpiredOffer", err, "asset", asset)
		return err
	}
	logger.Info("Expired offer released", "asset", asset)
	logger.ExitMethod("rentalEngine.ReleaseExpiredOffer", "asset", asset)
	return nil
}

func (e *RentalEngine) removeOffer(ctx context.Context, asset domain.AssetRef, allow func(o *domain.Offer, now time.Time) error) error {
	now := e.clock.Now()
	state, err := e.states.Get(ctx, asset)
	if err != nil {
		return err
	}
	if state.Offer == nil {
		return domain.ErrNoOffer
	}
	if err := allow(state.Offer, now); err != nil {
		return err
	}

	s := newSettlement(e.ledger, e.custody, asset, now)
	s.pay(domain.SettlementKindRefund, state.Offer.Offerer, state.Offer.Amount)
	next := state.Clone()
	next.Offer = nil
	return e.commit(ctx, state, next, s)
}

// commit persists next together with its journal, then releases payouts.
// Any failure leaves prev in place and returns collected funds. A payout
// failure after the save journals reversals for what did not move.
func (e *RentalEngine) commit(ctx context.Context, prev, next *domain.AssetState, s *settlement) error {
	if err := s.ensureFunds(ctx); err != nil {
		s.revert(ctx)
		return err
	}
	if err := e.states.Save(ctx, next, s.entries); err != nil {
		s.revert(ctx)
		return fmt.Errorf("save asset state %s: %w", next.Asset, err)
	}
	if err := s.execute(ctx); err != nil {
		logger.Error("Payout failed after commit, restoring previous state", "asset", next.Asset, "error", err)
		s.revert(ctx)
		if rerr := e.states.Save(ctx, prev, s.reversals()); rerr != nil {
			logger.Error("Failed to restore asset state", "asset", next.Asset, "error", rerr)
		}
		return err
	}
	return nil
}

func (e *RentalEngine) IsTokenRented(ctx context.Context, asset domain.AssetRef) (bool, error) {
	state, err := e.states.Get(ctx, asset)
	if err != nil {
		return false, err
	}
	return state.ActiveTenancy(e.clock.Now()) != nil, nil
}

// GetOffer returns the live offer, or ErrNoOffer.
func (e *RentalEngine) GetOffer(ctx context.Context, asset domain.AssetRef) (*domain.Offer, error) {
	state, err := e.states.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	offer := state.LiveOffer(e.clock.Now(), e.cfg.ValidityWindow)
	if offer == nil {
		return nil, domain.ErrNoOffer
	}
	return offer, nil
}

// GetTenancy returns the active tenancy, or ErrNotFound.
func (e *RentalEngine) GetTenancy(ctx context.Context, asset domain.AssetRef) (*domain.Tenancy, error) {
	state, err := e.states.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	t := state.ActiveTenancy(e.clock.Now())
	if t == nil {
		return nil, fmt.Errorf("tenancy of %s: %w", asset, domain.ErrNotFound)
	}
	return t, nil
}

func (e *RentalEngine) Status(ctx context.Context, asset domain.AssetRef) (domain.RentalStatus, error) {
	state, err := e.states.Get(ctx, asset)
	if err != nil {
		return "", err
	}
	return state.Status(e.clock.Now(), e.cfg.ValidityWindow), nil
}

func (e *RentalEngine) ListSettlements(ctx context.Context, asset domain.AssetRef) ([]domain.SettlementEntry, error) {
	return e.journal.ListByAsset(ctx, asset)
}

// ExpiredOffers lists assets whose recorded offer aged past the validity
// window and still holds escrow.
func (e *RentalEngine) ExpiredOffers(ctx context.Context) ([]domain.AssetRef, error) {
	states, err := e.states.ListWithOffers(ctx)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	var out []domain.AssetRef
	for _, st := range states {
		if st.Offer != nil && st.Offer.Expired(now, e.cfg.ValidityWindow) {
			out = append(out, st.Asset)
		}
	}
	return out, nil
}
