package domain

import "time"

// RentalStatus is the derived state of an asset at a given instant.
type RentalStatus string

const (
	RentalStatusIdle    RentalStatus = "IDLE"
	RentalStatusOffered RentalStatus = "OFFERED"
	RentalStatusRented  RentalStatus = "RENTED"
)

// Offer is an escrowed bid to rent an asset for a number of periods.
type Offer struct {
	ID          string    `json:"id"`
	Offerer     Address   `json:"offerer"`
	Amount      Amount    `json:"amount"`
	Months      int32     `json:"months"`
	MetadataURI string    `json:"metadata_uri"`
	PlacedAt    time.Time `json:"placed_at"`
}

// Expired reports whether the offer aged past the validity window.
func (o *Offer) Expired(now time.Time, validity time.Duration) bool {
	return now.Sub(o.PlacedAt) > validity
}

// GraceElapsed reports whether the offerer may self-accept.
func (o *Offer) GraceElapsed(now time.Time, grace time.Duration) bool {
	return now.Sub(o.PlacedAt) >= grace
}

// Tenancy is an accepted rental occupying the asset until EndTime.
type Tenancy struct {
	Renter      Address   `json:"renter"`
	Owner       Address   `json:"owner"`
	Amount      Amount    `json:"amount"`
	Months      int32     `json:"months"`
	MetadataURI string    `json:"metadata_uri"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

func (t *Tenancy) Active(now time.Time) bool {
	return now.Before(t.EndTime)
}

// AssetState is the per-asset record owned by the rental engine. Offer,
// Tenancy and NoRent are nil when the slot is empty.
type AssetState struct {
	Asset   AssetRef            `json:"asset"`
	Offer   *Offer              `json:"offer,omitempty"`
	Tenancy *Tenancy            `json:"tenancy,omitempty"`
	NoRent  *NoRentSubscription `json:"no_rent,omitempty"`
}

// ActiveTenancy returns the tenancy if it has not elapsed.
func (s *AssetState) ActiveTenancy(now time.Time) *Tenancy {
	if s.Tenancy != nil && s.Tenancy.Active(now) {
		return s.Tenancy
	}
	return nil
}

// LiveOffer returns the offer if it is still inside the validity window.
func (s *AssetState) LiveOffer(now time.Time, validity time.Duration) *Offer {
	if s.Offer != nil && !s.Offer.Expired(now, validity) {
		return s.Offer
	}
	return nil
}

func (s *AssetState) Status(now time.Time, validity time.Duration) RentalStatus {
	switch {
	case s.ActiveTenancy(now) != nil:
		return RentalStatusRented
	case s.LiveOffer(now, validity) != nil:
		return RentalStatusOffered
	default:
		return RentalStatusIdle
	}
}

// Clone returns a deep copy so callers can stage changes without touching
// committed state.
func (s *AssetState) Clone() *AssetState {
	c := &AssetState{Asset: s.Asset}
	if s.Offer != nil {
		o := *s.Offer
		c.Offer = &o
	}
	if s.Tenancy != nil {
		t := *s.Tenancy
		c.Tenancy = &t
	}
	if s.NoRent != nil {
		n := *s.NoRent
		c.NoRent = &n
	}
	return c
}
