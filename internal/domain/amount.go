package domain

import (
	"math"
	"math/bits"
	"time"
)

// Amount is a quantity of settlement units (the smallest unit of the
// fungible settlement token).
type Amount int64

// Percent returns floor(a * pct / 100) without overflowing for large a.
func (a Amount) Percent(pct int) Amount {
	p := Amount(pct)
	return a/100*p + a%100*p/100
}

// Times returns a*n. ok is false for negative operands or when the product
// does not fit in an Amount.
func (a Amount) Times(n int64) (product Amount, ok bool) {
	if a < 0 || n < 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(a), uint64(n))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	return Amount(lo), true
}

// SplitFee splits a payment into the protocol fee and the owner's share.
func SplitFee(total Amount, feePercentage int) (fee, remainder Amount) {
	fee = total.Percent(feePercentage)
	return fee, total - fee
}

// MonthsSpan returns months rental periods as a duration. ok is false when
// the span does not fit in a time.Duration.
func MonthsSpan(months int32, period time.Duration) (span time.Duration, ok bool) {
	if months < 0 || period <= 0 {
		return 0, false
	}
	if int64(months) > math.MaxInt64/int64(period) {
		return 0, false
	}
	return time.Duration(months) * period, true
}
