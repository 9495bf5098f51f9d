package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"landrent-backend/internal/domain"
	"landrent-backend/internal/logger"
)

type transfer struct {
	kind   domain.SettlementKind
	party  domain.Address
	amount domain.Amount
}

// settlement stages the fund movements of one operation against a custody
// account. Collections pull funds into custody immediately and can be
// reverted; payouts leave custody only once the new state is durable.
type settlement struct {
	ledger  SettlementLedger
	custody domain.Address
	asset   domain.AssetRef
	now     time.Time

	collected []transfer
	payouts   []transfer
	entries   []domain.SettlementEntry

	sent     int        // payouts executed so far
	returned []transfer // collections handed back by revert
}

func newSettlement(ledger SettlementLedger, custody domain.Address, asset domain.AssetRef, now time.Time) *settlement {
	return &settlement{ledger: ledger, custody: custody, asset: asset, now: now}
}

// collect moves amount from a party into custody.
func (s *settlement) collect(ctx context.Context, kind domain.SettlementKind, from domain.Address, amount domain.Amount) error {
	if amount == 0 {
		return nil
	}
	logger.ExternalServiceCall("ledger", "transferFrom", "from", from, "to", s.custody, "amount", amount)
	err := s.ledger.TransferFrom(ctx, from, s.custody, amount)
	logger.ExternalServiceResult("ledger", "transferFrom", err, "from", from, "amount", amount)
	if err != nil {
		return err
	}
	s.collected = append(s.collected, transfer{kind: kind, party: from, amount: amount})
	s.journal(kind, from, s.custody, amount)
	return nil
}

// pay schedules amount to leave custody towards a party.
func (s *settlement) pay(kind domain.SettlementKind, to domain.Address, amount domain.Amount) {
	if amount == 0 {
		return
	}
	s.payouts = append(s.payouts, transfer{kind: kind, party: to, amount: amount})
	s.journal(kind, s.custody, to, amount)
}

func (s *settlement) journal(kind domain.SettlementKind, from, to domain.Address, amount domain.Amount) {
	s.entries = append(s.entries, s.entry(kind, from, to, amount))
}

func (s *settlement) entry(kind domain.SettlementKind, from, to domain.Address, amount domain.Amount) domain.SettlementEntry {
	return domain.SettlementEntry{
		ID:        uuid.NewString(),
		Asset:     s.asset,
		Kind:      kind,
		From:      from,
		To:        to,
		Amount:    amount,
		CreatedAt: s.now,
	}
}

// ensureFunds checks custody can cover every scheduled payout.
func (s *settlement) ensureFunds(ctx context.Context) error {
	var total domain.Amount
	for _, p := range s.payouts {
		total += p.amount
	}
	if total == 0 {
		return nil
	}
	balance, err := s.ledger.BalanceOf(ctx, s.custody)
	if err != nil {
		return err
	}
	if balance < total {
		return fmt.Errorf("%w: custody %s holds %d, payouts need %d", domain.ErrInsufficientBalance, s.custody, balance, total)
	}
	return nil
}

// execute sends the scheduled payouts in order, stopping at the first
// failure.
func (s *settlement) execute(ctx context.Context) error {
	for _, p := range s.payouts[s.sent:] {
		logger.ExternalServiceCall("ledger", "transferFrom", "kind", p.kind, "to", p.party, "amount", p.amount)
		err := s.ledger.TransferFrom(ctx, s.custody, p.party, p.amount)
		logger.ExternalServiceResult("ledger", "transferFrom", err, "kind", p.kind, "to", p.party)
		if err != nil {
			return fmt.Errorf("%s payout to %s: %w", p.kind, p.party, err)
		}
		s.sent++
	}
	return nil
}

// revert returns collected funds to their payers, newest first.
func (s *settlement) revert(ctx context.Context) {
	for i := len(s.collected) - 1; i >= 0; i-- {
		c := s.collected[i]
		if err := s.ledger.TransferFrom(ctx, s.custody, c.party, c.amount); err != nil {
			logger.Error("Failed to revert collected funds", "asset", s.asset, "party", c.party, "amount", c.amount, "error", err)
			continue
		}
		s.returned = append(s.returned, c)
	}
	s.collected = nil
}

// reversals offsets journaled movements that did not stand: payouts that
// were never sent and collections that revert handed back.
func (s *settlement) reversals() []domain.SettlementEntry {
	var out []domain.SettlementEntry
	for _, p := range s.payouts[s.sent:] {
		out = append(out, s.entry(domain.SettlementKindReversal, p.party, s.custody, p.amount))
	}
	for _, c := range s.returned {
		out = append(out, s.entry(domain.SettlementKindReversal, s.custody, c.party, c.amount))
	}
	return out
}
