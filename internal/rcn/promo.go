package rcn

import "time"

// PromoSnapshot is a point-in-time copy of a promo code row. Validation runs
// on the snapshot as a pure function; the usage counters are advanced with a
// transactional compare-and-increment in the services layer.
type PromoSnapshot struct {
	Active            bool
	Fixed             bool
	BonusValue        int64
	MaxBonus          *int64
	StartDate         time.Time
	EndDate           time.Time
	TotalUsageLimit   *int64
	PerCustomerLimit  int64
	TimesUsed         int64
	CustomerTimesUsed int64
}

// ValidatePromo checks the snapshot against the usage rules at now.
func ValidatePromo(snap PromoSnapshot, now time.Time) error {
	if !snap.Active {
		return Validation("promo code is not active")
	}
	if now.Before(snap.StartDate) {
		return Validation("promo code is not yet active")
	}
	if now.After(snap.EndDate) {
		return Validation("promo code has ended")
	}
	if snap.TotalUsageLimit != nil && snap.TimesUsed >= *snap.TotalUsageLimit {
		return LimitExceeded("promo code usage limit reached")
	}
	if snap.PerCustomerLimit > 0 && snap.CustomerTimesUsed >= snap.PerCustomerLimit {
		return Conflict("promo code already used by this customer").
			WithDetail("per_customer_limit", snap.PerCustomerLimit)
	}
	return nil
}

// PromoBonus computes the bonus for a base reward. Percentage values are
// whole percent (50 = 50%) and are capped at MaxBonus when set.
func PromoBonus(snap PromoSnapshot, baseReward int64) int64 {
	if snap.Fixed {
		return snap.BonusValue
	}
	bonus := baseReward * snap.BonusValue / 100
	if snap.MaxBonus != nil && bonus > *snap.MaxBonus {
		bonus = *snap.MaxBonus
	}
	return bonus
}
