package rcn

// Tier is the customer loyalty tier derived from lifetime earnings.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

const (
	silverThreshold = 200
	goldThreshold   = 1000
)

// TierFor maps lifetime earnings to a tier: [0,200) bronze, [200,1000)
// silver, [1000,∞) gold. Callers recompute this on every credit rather than
// trusting the cached column.
func TierFor(lifetimeEarnings int64) Tier {
	switch {
	case lifetimeEarnings >= goldThreshold:
		return TierGold
	case lifetimeEarnings >= silverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// Bonus is the extra RCN granted per completed repair at this tier.
func (t Tier) Bonus() int64 {
	switch t {
	case TierGold:
		return 30
	case TierSilver:
		return 20
	default:
		return 10
	}
}
