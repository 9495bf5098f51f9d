package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitFee(t *testing.T) {
	fee, rest := SplitFee(250_000_000_000_000_000, 10)
	assert.Equal(t, Amount(25_000_000_000_000_000), fee)
	assert.Equal(t, Amount(225_000_000_000_000_000), rest)

	fee, rest = SplitFee(math.MaxInt64, 10)
	assert.Equal(t, Amount(math.MaxInt64/10), fee)
	assert.Equal(t, Amount(math.MaxInt64)-fee, rest)

	fee, rest = SplitFee(199, 5)
	assert.Equal(t, Amount(9), fee)
	assert.Equal(t, Amount(190), rest)

	fee, rest = SplitFee(100, 0)
	assert.Equal(t, Amount(0), fee)
	assert.Equal(t, Amount(100), rest)
}

func TestOffer_Windows(t *testing.T) {
	placed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	o := &Offer{PlacedAt: placed}
	grace, validity := 48*time.Hour, 7*24*time.Hour

	assert.False(t, o.GraceElapsed(placed.Add(2*time.Hour), grace))
	assert.True(t, o.GraceElapsed(placed.Add(grace), grace))
	assert.False(t, o.Expired(placed.Add(validity), validity))
	assert.True(t, o.Expired(placed.Add(validity+time.Second), validity))
}

func TestAssetState_Status(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	validity := 7 * 24 * time.Hour
	s := &AssetState{}
	assert.Equal(t, RentalStatusIdle, s.Status(now, validity))

	s.Offer = &Offer{PlacedAt: now}
	assert.Equal(t, RentalStatusOffered, s.Status(now, validity))
	assert.Equal(t, RentalStatusIdle, s.Status(now.Add(8*24*time.Hour), validity))

	s.Offer = nil
	s.Tenancy = &Tenancy{StartTime: now, EndTime: now.Add(time.Hour)}
	assert.Equal(t, RentalStatusRented, s.Status(now, validity))
	assert.Equal(t, RentalStatusIdle, s.Status(now.Add(time.Hour), validity))
}

func TestAssetState_CloneIsDeep(t *testing.T) {
	s := &AssetState{Offer: &Offer{Amount: 1}, NoRent: &NoRentSubscription{}}
	c := s.Clone()
	c.Offer.Amount = 2
	c.NoRent.PaidUntil = time.Now()
	assert.Equal(t, Amount(1), s.Offer.Amount)
	assert.True(t, s.NoRent.PaidUntil.IsZero())
}

func TestNoRentPolicy_Validate(t *testing.T) {
	assert.NoError(t, NoRentPolicy{PricePerMonth: 10, MinMonths: 1, MaxMonths: 3}.Validate())
	assert.ErrorIs(t, NoRentPolicy{MinMonths: 4, MaxMonths: 3}.Validate(), ErrInvalidPolicy)
	assert.ErrorIs(t, NoRentPolicy{MinMonths: 0, MaxMonths: 3}.Validate(), ErrInvalidPolicy)
	assert.ErrorIs(t, NoRentPolicy{PricePerMonth: -1, MinMonths: 1, MaxMonths: 1}.Validate(), ErrInvalidPolicy)
	assert.ErrorIs(t, NoRentPolicy{PricePerMonth: 1 << 62, MinMonths: 4, MaxMonths: 4}.Validate(), ErrInvalidPolicy)
}

func TestNoRentPolicy_Allows(t *testing.T) {
	p := NoRentPolicy{MinMonths: 2, MaxMonths: 3}
	assert.False(t, p.Allows(1))
	assert.True(t, p.Allows(2))
	assert.True(t, p.Allows(3))
	assert.False(t, p.Allows(4))
	assert.True(t, NoRentPolicy{}.Allows(1))
}

func TestAmount_Times(t *testing.T) {
	p, ok := Amount(1_000).Times(12)
	assert.True(t, ok)
	assert.Equal(t, Amount(12_000), p)

	_, ok = Amount(1 << 62).Times(4)
	assert.False(t, ok)

	_, ok = Amount(1 << 40).Times(1 << 23)
	assert.False(t, ok)

	_, ok = Amount(-1).Times(2)
	assert.False(t, ok)
}

func TestMonthsSpan(t *testing.T) {
	month := 30 * 24 * time.Hour

	span, ok := MonthsSpan(12, month)
	assert.True(t, ok)
	assert.Equal(t, 12*month, span)

	_, ok = MonthsSpan(200_000, month)
	assert.False(t, ok)

	_, ok = MonthsSpan(-1, month)
	assert.False(t, ok)
}

func TestNoRentSubscription_Extend(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	month := 30 * 24 * time.Hour
	n := &NoRentSubscription{PaidUntil: now.Add(month)}

	assert.NoError(t, n.Extend(now, 1, month))
	assert.Equal(t, now.Add(2*month), n.PaidUntil)

	later := now.Add(5 * month)
	assert.NoError(t, n.Extend(later, 2, month))
	assert.Equal(t, later.Add(2*month), n.PaidUntil)

	assert.ErrorIs(t, n.Extend(later, 200_000, month), ErrInvalidPolicy)
	assert.Equal(t, later.Add(2*month), n.PaidUntil)
}
