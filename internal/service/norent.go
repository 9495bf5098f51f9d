package service

import (
	"context"
	"fmt"

	"landrent-backend/internal/domain"
	"landrent-backend/internal/logger"
)

// ActivateNoRent lets the owner prepay a do-not-disturb period. The
// upfront cost of MinMonths periods is collected into custody and
// forwarded to the fee receiver.
func (e *RentalEngine) ActivateNoRent(ctx context.Context, caller domain.Address, asset domain.AssetRef, policy domain.NoRentPolicy) (*domain.NoRentSubscription, error) {
	logger.EnterMethod("rentalEngine.ActivateNoRent", "caller", caller, "asset", asset, "minMonths", policy.MinMonths)
	if err := e.guard.enter(); err != nil {
		logger.ExitMethodWithError("rentalEngine.ActivateNoRent", err, "asset", asset)
		return nil, err
	}
	defer e.guard.exit()

	sub, err := e.activateNoRent(ctx, caller, asset, policy)
	if err != nil {
		logger.ExitMethodWithError("rentalEngine.ActivateNoRent", err, "asset", asset, "caller", caller)
		return nil, err
	}
	logger.Info("No-rent activated", "asset", asset, "owner", caller, "paidUntil", sub.PaidUntil)
	logger.ExitMethod("rentalEngine.ActivateNoRent", "asset", asset)
	return sub, nil
}

func (e *RentalEngine) activateNoRent(ctx context.Context, caller domain.Address, asset domain.AssetRef, policy domain.NoRentPolicy) (*domain.NoRentSubscription, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if _, ok := domain.MonthsSpan(policy.MinMonths, e.cfg.PeriodLength); !ok {
		return nil, fmt.Errorf("%w: %d months overflows the period length", domain.ErrInvalidPolicy, policy.MinMonths)
	}
	owner, err := e.registry.OwnerOf(ctx, asset)
	if err != nil {
		return nil, err
	}
	if owner != caller {
		return nil, domain.ErrNotAuthorized
	}

	now := e.clock.Now()
	state, err := e.states.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	if state.ActiveTenancy(now) != nil {
		return nil, domain.ErrAssetRented
	}

	cost := policy.UpfrontCost()
	s := newSettlement(e.ledger, e.custody, asset, now)
	if err := s.collect(ctx, domain.SettlementKindNoRentPayment, caller, cost); err != nil {
		return nil, err
	}
	s.pay(domain.SettlementKindFee, e.cfg.FeeReceiver, cost)

	next := state.Clone()
	// An already paid period is kept; reactivation extends from its end.
	if next.NoRent == nil || !next.NoRent.Active(now) {
		next.NoRent = &domain.NoRentSubscription{ActivatedAt: now}
	}
	next.NoRent.Policy = policy
	if err := next.NoRent.Extend(now, policy.MinMonths, e.cfg.PeriodLength); err != nil {
		s.revert(ctx)
		return nil, err
	}

	if err := e.commit(ctx, state, next, s); err != nil {
		return nil, err
	}
	return next.NoRent, nil
}

func (e *RentalEngine) IsNoRentActive(ctx context.Context, asset domain.AssetRef) (bool, error) {
	state, err := e.states.Get(ctx, asset)
	if err != nil {
		return false, err
	}
	return state.NoRent != nil && state.NoRent.Active(e.clock.Now()), nil
}

// GetNoRent returns the subscription record, lapsed or not, or ErrNotFound.
func (e *RentalEngine) GetNoRent(ctx context.Context, asset domain.AssetRef) (*domain.NoRentSubscription, error) {
	state, err := e.states.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	if state.NoRent == nil {
		return nil, fmt.Errorf("no-rent of %s: %w", asset, domain.ErrNotFound)
	}
	return state.NoRent, nil
}

// ExtendPaidUntil is called by the hosting collaborator once it has been
// paid. An asset without a subscription gets one starting now.
func (e *RentalEngine) ExtendPaidUntil(ctx context.Context, caller domain.Address, asset domain.AssetRef, additionalMonths int32) (*domain.NoRentSubscription, error) {
	logger.EnterMethod("rentalEngine.ExtendPaidUntil", "caller", caller, "asset", asset, "months", additionalMonths)
	if err := e.guard.enter(); err != nil {
		logger.ExitMethodWithError("rentalEngine.ExtendPaidUntil", err, "asset", asset)
		return nil, err
	}
	defer e.guard.exit()

	sub, err := e.extendPaidUntil(ctx, caller, asset, additionalMonths)
	if err != nil {
		logger.ExitMethodWithError("rentalEngine.ExtendPaidUntil", err, "asset", asset, "caller", caller)
		return nil, err
	}
	logger.Info("No-rent extended", "asset", asset, "months", additionalMonths, "paidUntil", sub.PaidUntil)
	logger.ExitMethod("rentalEngine.ExtendPaidUntil", "asset", asset)
	return sub, nil
}

func (e *RentalEngine) extendPaidUntil(ctx context.Context, caller domain.Address, asset domain.AssetRef, additionalMonths int32) (*domain.NoRentSubscription, error) {
	if caller != e.cfg.HostingAddress {
		return nil, domain.ErrNotAuthorized
	}
	if additionalMonths < 1 {
		return nil, fmt.Errorf("%w: additional months must be at least 1", domain.ErrInvalidPolicy)
	}

	now := e.clock.Now()
	state, err := e.states.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	next := state.Clone()
	if next.NoRent == nil {
		next.NoRent = &domain.NoRentSubscription{ActivatedAt: now}
	}
	if err := next.NoRent.Extend(now, additionalMonths, e.cfg.PeriodLength); err != nil {
		return nil, err
	}

	if err := e.commit(ctx, state, next, newSettlement(e.ledger, e.custody, asset, now)); err != nil {
		return nil, err
	}
	return next.NoRent, nil
}
