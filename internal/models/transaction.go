package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionMint   TransactionType = "mint"
	TransactionRedeem TransactionType = "redeem"
	// TransactionGift is the giver-side debit of an in-ecosystem transfer.
	// Transfers move existing tokens, so no mint settlement is involved.
	TransactionGift TransactionType = "gift"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionConfirmed TransactionStatus = "confirmed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction is the append-only audit trail. Balances are derivable from
// token_sources plus confirmed redeem transactions; this table additionally
// records settlement status against the external minter.
type Transaction struct {
	BaseModel
	Type            TransactionType   `gorm:"index" json:"type"`
	CustomerAddress string            `gorm:"index" json:"customer_address"`
	ShopID          *uuid.UUID        `gorm:"type:uuid;index" json:"shop_id"`
	Amount          int64             `json:"amount"`
	Timestamp       time.Time         `json:"timestamp"`
	Status          TransactionStatus `gorm:"index" json:"status"`
	TxHash          string            `json:"tx_hash"`
	Metadata        []byte            `gorm:"type:jsonb" json:"metadata"`
}

// MetaKind discriminates the metadata variants.
type MetaKind string

const (
	MetaRepair     MetaKind = "repair"
	MetaReferral   MetaKind = "referral"
	MetaPromo      MetaKind = "promo"
	MetaGift       MetaKind = "gift"
	MetaRedemption MetaKind = "redemption"
)

// RepairMeta describes a repair-completion credit.
type RepairMeta struct {
	RepairAmount int64  `json:"repair_amount"`
	BaseReward   int64  `json:"base_reward"`
	TierBonus    int64  `json:"tier_bonus"`
	OldTier      string `json:"old_tier"`
	NewTier      string `json:"new_tier"`
}

// ReferralMeta describes the two credits of a completed referral.
type ReferralMeta struct {
	ReferralID      uuid.UUID `json:"referral_id"`
	ReferrerAddress string    `json:"referrer_address"`
	RefereeAddress  string    `json:"referee_address"`
	ReferrerTokens  int64     `json:"referrer_tokens"`
	RefereeTokens   int64     `json:"referee_tokens"`
}

// PromoMeta describes a promo-code bonus credit.
type PromoMeta struct {
	PromoCodeID uuid.UUID `json:"promo_code_id"`
	Code        string    `json:"code"`
	BaseReward  int64     `json:"base_reward"`
	BonusAmount int64     `json:"bonus_amount"`
}

// GiftMeta describes a customer-to-customer transfer.
type GiftMeta struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Note        string `json:"note,omitempty"`
}

// RedemptionMeta describes a session-backed redemption debit.
type RedemptionMeta struct {
	SessionID  uuid.UUID `json:"session_id"`
	IsHomeShop bool      `json:"is_home_shop"`
}

// Metadata is the tagged variant attached to a transaction. Exactly one
// payload field matching Kind is set.
type Metadata struct {
	Kind       MetaKind        `json:"kind"`
	Repair     *RepairMeta     `json:"repair,omitempty"`
	Referral   *ReferralMeta   `json:"referral,omitempty"`
	Promo      *PromoMeta      `json:"promo,omitempty"`
	Gift       *GiftMeta       `json:"gift,omitempty"`
	Redemption *RedemptionMeta `json:"redemption,omitempty"`
}

// Encode serializes metadata for the jsonb column.
func (m Metadata) Encode() []byte {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return raw
}

// DecodeMetadata parses a stored metadata blob. An empty blob yields a zero
// Metadata with no kind set.
func DecodeMetadata(raw []byte) (Metadata, error) {
	var m Metadata
	if len(raw) == 0 {
		return m, nil
	}
	err := json.Unmarshal(raw, &m)
	return m, err
}
