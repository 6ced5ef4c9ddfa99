package rcn

import (
	"testing"
	"time"
)

func activeSnapshot() PromoSnapshot {
	return PromoSnapshot{
		Active:           true,
		Fixed:            true,
		BonusValue:       15,
		StartDate:        testNow.Add(-24 * time.Hour),
		EndDate:          testNow.Add(24 * time.Hour),
		PerCustomerLimit: 1,
	}
}

func TestValidatePromoActiveWindow(t *testing.T) {
	if err := ValidatePromo(activeSnapshot(), testNow); err != nil {
		t.Fatalf("active promo should validate: %v", err)
	}

	snap := activeSnapshot()
	snap.Active = false
	if err := ValidatePromo(snap, testNow); KindOf(err) != KindValidation {
		t.Fatalf("inactive promo should fail validation, got %v", err)
	}

	snap = activeSnapshot()
	snap.StartDate = testNow.Add(time.Hour)
	if err := ValidatePromo(snap, testNow); KindOf(err) != KindValidation {
		t.Fatalf("not-yet-started promo should fail validation, got %v", err)
	}

	snap = activeSnapshot()
	snap.EndDate = testNow.Add(-time.Hour)
	if err := ValidatePromo(snap, testNow); KindOf(err) != KindValidation {
		t.Fatalf("ended promo should fail validation, got %v", err)
	}
}

func TestValidatePromoUsageLimits(t *testing.T) {
	limit := int64(100)

	snap := activeSnapshot()
	snap.TotalUsageLimit = &limit
	snap.TimesUsed = 100
	if err := ValidatePromo(snap, testNow); KindOf(err) != KindLimitExceeded {
		t.Fatalf("exhausted promo should fail LimitExceeded, got %v", err)
	}

	snap.TimesUsed = 99
	if err := ValidatePromo(snap, testNow); err != nil {
		t.Fatalf("promo with remaining uses should validate: %v", err)
	}

	snap = activeSnapshot()
	snap.CustomerTimesUsed = 1
	if err := ValidatePromo(snap, testNow); KindOf(err) != KindConflict {
		t.Fatalf("per-customer re-use should fail Conflict, got %v", err)
	}
}

func TestPromoBonusFixed(t *testing.T) {
	snap := activeSnapshot()
	if got := PromoBonus(snap, 25); got != 15 {
		t.Fatalf("fixed bonus = %d, want 15", got)
	}
}

func TestPromoBonusPercentageWithCap(t *testing.T) {
	cap := int64(10)
	snap := PromoSnapshot{BonusValue: 50, MaxBonus: &cap}

	if got := PromoBonus(snap, 10); got != 5 {
		t.Fatalf("50%% of 10 = %d, want 5", got)
	}
	// never exceeds MaxBonus
	if got := PromoBonus(snap, 100); got != 10 {
		t.Fatalf("capped bonus = %d, want 10", got)
	}

	snap.MaxBonus = nil
	if got := PromoBonus(snap, 100); got != 50 {
		t.Fatalf("uncapped bonus = %d, want 50", got)
	}
}
