package rcn

import "github.com/google/uuid"

// CrossShopPercent is the share of the earned balance redeemable away from
// the home shop.
const CrossShopPercent = 20

// Decision is the redemption verifier result.
type Decision struct {
	CanRedeem     bool   `json:"can_redeem"`
	EarnedBalance int64  `json:"earned_balance"`
	MaxRedeemable int64  `json:"max_redeemable"`
	IsHomeShop    bool   `json:"is_home_shop"`
	Message       string `json:"message"`
}

// Decide computes the redemption decision for a request of requested RCN at
// shopID. The earned balance excludes gifted and market-bought tokens by
// construction; customers without a home shop (gifted- or market-only) get
// the cross-shop cap everywhere.
func Decide(earned int64, homeShop *uuid.UUID, shopID uuid.UUID, requested int64) Decision {
	d := Decision{
		EarnedBalance: earned,
		IsHomeShop:    homeShop != nil && *homeShop == shopID,
	}

	if d.IsHomeShop {
		d.MaxRedeemable = earned
	} else {
		d.MaxRedeemable = earned * CrossShopPercent / 100
	}

	switch {
	case requested <= 0:
		d.Message = "requested amount must be positive"
	case requested > d.MaxRedeemable && d.IsHomeShop:
		d.Message = "insufficient earned balance"
	case requested > d.MaxRedeemable:
		d.Message = "cross-shop redemptions are limited to 20% of earned balance"
	default:
		d.CanRedeem = true
		if d.IsHomeShop {
			d.Message = "redeemable at home shop"
		} else {
			d.Message = "redeemable cross-shop"
		}
	}

	return d
}
