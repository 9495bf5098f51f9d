package domain

import "time"

// Container groups member assets; the container, not its members, is the
// unit of rental.
type Container struct {
	ID        uint64     `json:"id"`
	Owner     Address    `json:"owner"`
	Name      string     `json:"name"`
	Members   []AssetRef `json:"members"`
	CreatedAt time.Time  `json:"created_at"`
}

// HostingTier is a fee tier of the hosting collaborator. Paying a tier
// extends the no-rent period by Months periods.
type HostingTier struct {
	ID            int32  `json:"id"`
	PricePerMonth Amount `json:"price_per_month"`
	Months        int32  `json:"months"`
	MaxMonths     int32  `json:"max_months"`
	Enabled       bool   `json:"enabled"`
}
