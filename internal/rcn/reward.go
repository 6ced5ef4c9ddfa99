package rcn

// Referral bonuses paid when the referee completes their first repair.
const (
	ReferrerBonus = 25
	RefereeBonus  = 10
)

// RepairBaseReward maps a repair's value (whole currency units) to the base
// RCN reward: 10 RCN for repairs of 50-99, 25 RCN from 100 up. Smaller
// repairs earn nothing.
func RepairBaseReward(repairAmount int64) int64 {
	switch {
	case repairAmount >= 100:
		return 25
	case repairAmount >= 50:
		return 10
	default:
		return 0
	}
}
