package models

import (
	"time"

	"github.com/google/uuid"
)

type BonusType string

const (
	BonusFixed      BonusType = "fixed"
	BonusPercentage BonusType = "percentage"
)

// PromoCode is a shop-issued bonus rule applied atop a base reward.
// TimesUsed and TotalBonusIssued are monotonic counters maintained only by
// the promo use path, in the same transaction as the use row insert.
type PromoCode struct {
	BaseModel
	ShopID           uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_promo_shop_code" json:"shop_id"`
	Code             string    `gorm:"uniqueIndex:idx_promo_shop_code" json:"code"`
	BonusType        BonusType `json:"bonus_type"`
	BonusValue       int64     `json:"bonus_value"`
	MaxBonus         *int64    `json:"max_bonus"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	TotalUsageLimit  *int64    `json:"total_usage_limit"`
	PerCustomerLimit int64     `json:"per_customer_limit"`
	TimesUsed        int64     `json:"times_used"`
	TotalBonusIssued int64     `json:"total_bonus_issued"`
	Active           bool      `json:"active"`
}

// PromoCodeUse records one application of a promo code, 1:1 with the counter
// increments on the code row.
type PromoCodeUse struct {
	BaseModel
	PromoCodeID     uuid.UUID `gorm:"type:uuid;index" json:"promo_code_id"`
	CustomerAddress string    `gorm:"index" json:"customer_address"`
	ShopID          uuid.UUID `gorm:"type:uuid" json:"shop_id"`
	BaseReward      int64     `json:"base_reward"`
	BonusAmount     int64     `json:"bonus_amount"`
	TotalReward     int64     `json:"total_reward"`
	UsedAt          time.Time `json:"used_at"`
}

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralCompleted ReferralStatus = "completed"
)

// Referral links a referrer to a referee. It is completed at most once, on
// the referee's first repair, paying both bonuses in a single transaction.
type Referral struct {
	BaseModel
	ReferrerAddress string         `gorm:"index" json:"referrer_address"`
	RefereeAddress  string         `gorm:"uniqueIndex" json:"referee_address"`
	Code            string         `gorm:"index" json:"code"`
	Status          ReferralStatus `gorm:"index" json:"status"`
	CompletedAt     *time.Time     `json:"completed_at"`
}
