package domain

import (
	"fmt"
	"time"
)

// NoRentPolicy is the tier an owner pays under to suppress incoming offers.
type NoRentPolicy struct {
	PricePerMonth Amount `json:"price_per_month"`
	MinMonths     int32  `json:"min_months"`
	MaxMonths     int32  `json:"max_months"`
}

func (p NoRentPolicy) Validate() error {
	if p.MinMonths < 1 {
		return fmt.Errorf("%w: min months must be at least 1", ErrInvalidPolicy)
	}
	if p.MinMonths > p.MaxMonths {
		return fmt.Errorf("%w: min months %d exceeds max months %d", ErrInvalidPolicy, p.MinMonths, p.MaxMonths)
	}
	if p.PricePerMonth < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalidPolicy)
	}
	if _, ok := p.PricePerMonth.Times(int64(p.MaxMonths)); !ok {
		return fmt.Errorf("%w: %d months at %d per month overflows", ErrInvalidPolicy, p.MaxMonths, p.PricePerMonth)
	}
	return nil
}

// Allows reports whether a rental of months falls inside the policy's
// month range. A zero policy carries no range and allows anything.
func (p NoRentPolicy) Allows(months int32) bool {
	if p.MinMonths == 0 {
		return true
	}
	return months >= p.MinMonths && months <= p.MaxMonths
}

// UpfrontCost is what activation escrows: MinMonths periods. Only
// meaningful for a policy that passed Validate.
func (p NoRentPolicy) UpfrontCost() Amount {
	cost, _ := p.PricePerMonth.Times(int64(p.MinMonths))
	return cost
}

// NoRentSubscription is a prepaid do-not-disturb period. PaidUntil only
// ever moves forward.
type NoRentSubscription struct {
	Policy      NoRentPolicy `json:"policy"`
	ActivatedAt time.Time    `json:"activated_at"`
	PaidUntil   time.Time    `json:"paid_until"`
}

func (n *NoRentSubscription) Active(now time.Time) bool {
	return now.Before(n.PaidUntil)
}

// Extend pushes PaidUntil forward by months periods, counting from now
// when the previous period has already lapsed. PaidUntil is left alone on
// error.
func (n *NoRentSubscription) Extend(now time.Time, months int32, period time.Duration) error {
	span, ok := MonthsSpan(months, period)
	if !ok {
		return fmt.Errorf("%w: %d months overflows the period length", ErrInvalidPolicy, months)
	}
	base := n.PaidUntil
	if base.Before(now) {
		base = now
	}
	n.PaidUntil = base.Add(span)
	return nil
}
