package domain

import "time"

type SettlementKind string

const (
	SettlementKindEscrow        SettlementKind = "ESCROW"
	SettlementKindRefund        SettlementKind = "REFUND"
	SettlementKindPayout        SettlementKind = "PAYOUT"
	SettlementKindFee           SettlementKind = "FEE"
	SettlementKindNoRentPayment SettlementKind = "NO_RENT_PAYMENT"
	SettlementKindHostingFee    SettlementKind = "HOSTING_FEE"
	// SettlementKindReversal offsets an earlier entry whose transfer did not stand.
	SettlementKindReversal SettlementKind = "REVERSAL"
)

// SettlementEntry journals one settlement transfer made on behalf of an asset.
type SettlementEntry struct {
	ID        string         `json:"id"`
	Asset     AssetRef       `json:"asset"`
	Kind      SettlementKind `json:"kind"`
	From      Address        `json:"from"`
	To        Address        `json:"to"`
	Amount    Amount         `json:"amount"`
	CreatedAt time.Time      `json:"created_at"`
}
