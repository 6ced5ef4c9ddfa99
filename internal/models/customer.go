package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a token-earning participant keyed by wallet address.
//
// LifetimeEarnings, Tier and HomeShopID are cached projections of the
// token_sources ledger. They are recomputed inside the guarded credit/debit
// paths and must never be written directly by other components.
type Customer struct {
	BaseModel
	Address          string     `gorm:"uniqueIndex" json:"address"`
	Name             string     `json:"name"`
	Email            string     `gorm:"index" json:"email"`
	PasswordHash     string     `json:"-"`
	Tier             string     `json:"tier"`
	LifetimeEarnings int64      `json:"lifetime_earnings"`
	DailyEarnings    int64      `json:"daily_earnings"`
	MonthlyEarnings  int64      `json:"monthly_earnings"`
	LastEarnedDate   *time.Time `json:"last_earned_date"`
	HomeShopID       *uuid.UUID `gorm:"type:uuid" json:"home_shop_id"`
	ReferralCode     string     `gorm:"uniqueIndex" json:"referral_code"`
	Active           bool       `json:"active"`
}

// Shop is a participating repair shop. Customers earn RCN here and redeem
// against it; inactive or unverified shops cannot take part in redemptions.
type Shop struct {
	BaseModel
	Name          string `json:"name"`
	WalletAddress string `gorm:"index" json:"wallet_address"`
	Active        bool   `json:"active"`
	Verified      bool   `json:"verified"`
	APIKeyHash    string `json:"-"`
}
