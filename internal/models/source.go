package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceType tags the provenance of a credited token batch.
type SourceType string

const (
	SourceShopRepair     SourceType = "shop_repair"
	SourceReferralBonus  SourceType = "referral_bonus"
	SourceTierBonus      SourceType = "tier_bonus"
	SourcePromotion      SourceType = "promotion"
	SourceMarketPurchase SourceType = "market_purchase"
	SourceGift           SourceType = "gift"
)

// Redeemable reports whether tokens from this source count toward the earned
// balance. Market purchases and gifts are held but never redeemable.
func (t SourceType) Redeemable() bool {
	switch t {
	case SourceMarketPurchase, SourceGift:
		return false
	default:
		return true
	}
}

// Earning reports whether this source is an in-ecosystem earning event and
// therefore subject to the daily/monthly earning caps.
func (t SourceType) Earning() bool {
	return t.Redeemable()
}

// TokenSource is one immutable provenance ledger entry: a single credit event
// with its origin. TransactionID is the idempotency key; a replayed credit
// with the same id is a no-op.
type TokenSource struct {
	BaseModel
	CustomerAddress string     `gorm:"index" json:"customer_address"`
	SourceType      SourceType `gorm:"index" json:"source_type"`
	SourceShopID    *uuid.UUID `gorm:"type:uuid;index" json:"source_shop_id"`
	Amount          int64      `json:"amount"`
	IsRedeemable    bool       `json:"is_redeemable"`
	TransactionID   string     `gorm:"uniqueIndex" json:"transaction_id"`
	EarnedAt        time.Time  `json:"earned_at"`
}
