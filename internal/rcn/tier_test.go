package rcn

import "testing"

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		earnings int64
		want     Tier
	}{
		{0, TierBronze},
		{199, TierBronze},
		{200, TierSilver},
		{999, TierSilver},
		{1000, TierGold},
		{250000, TierGold},
	}

	for _, tc := range cases {
		if got := TierFor(tc.earnings); got != tc.want {
			t.Fatalf("TierFor(%d) = %s, want %s", tc.earnings, got, tc.want)
		}
	}
}

func TestTierBonus(t *testing.T) {
	if got := TierBronze.Bonus(); got != 10 {
		t.Fatalf("bronze bonus = %d, want 10", got)
	}
	if got := TierSilver.Bonus(); got != 20 {
		t.Fatalf("silver bonus = %d, want 20", got)
	}
	if got := TierGold.Bonus(); got != 30 {
		t.Fatalf("gold bonus = %d, want 30", got)
	}
}

func TestRepairBaseReward(t *testing.T) {
	cases := []struct {
		repair int64
		want   int64
	}{
		{49, 0},
		{50, 10},
		{99, 10},
		{100, 25},
		{5000, 25},
	}

	for _, tc := range cases {
		if got := RepairBaseReward(tc.repair); got != tc.want {
			t.Fatalf("RepairBaseReward(%d) = %d, want %d", tc.repair, got, tc.want)
		}
	}
}
