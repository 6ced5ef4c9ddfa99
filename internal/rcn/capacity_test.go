package rcn

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestApplyCreditWithinCaps(t *testing.T) {
	c, err := ApplyCredit(Counters{}, 30, testNow, DefaultDailyCap, DefaultMonthlyCap)
	if err != nil {
		t.Fatalf("ApplyCredit failed: %v", err)
	}
	if c.Daily != 30 || c.Monthly != 30 {
		t.Fatalf("counters = %d/%d, want 30/30", c.Daily, c.Monthly)
	}
	if c.LastEarned == nil || !c.LastEarned.Equal(testNow) {
		t.Fatalf("LastEarned not advanced: %v", c.LastEarned)
	}
}

func TestApplyCreditExactDailyCap(t *testing.T) {
	c, err := ApplyCredit(Counters{}, DefaultDailyCap, testNow, DefaultDailyCap, DefaultMonthlyCap)
	if err != nil {
		t.Fatalf("credit of exactly the daily cap should pass: %v", err)
	}

	if _, err := ApplyCredit(c, 1, testNow, DefaultDailyCap, DefaultMonthlyCap); KindOf(err) != KindLimitExceeded {
		t.Fatalf("credit past the daily cap should fail LimitExceeded, got %v", err)
	}
}

func TestApplyCreditDailyRollover(t *testing.T) {
	yesterday := testNow.AddDate(0, 0, -1)
	c := Counters{Daily: DefaultDailyCap, Monthly: 60, LastEarned: &yesterday}

	got, err := ApplyCredit(c, 40, testNow, DefaultDailyCap, DefaultMonthlyCap)
	if err != nil {
		t.Fatalf("daily counter should reset on a new day: %v", err)
	}
	if got.Daily != 40 {
		t.Fatalf("daily = %d, want 40 after rollover", got.Daily)
	}
	if got.Monthly != 100 {
		t.Fatalf("monthly = %d, want 100 (no month rollover)", got.Monthly)
	}
}

func TestApplyCreditMonthlyRollover(t *testing.T) {
	lastMonth := testNow.AddDate(0, -1, 0)
	c := Counters{Daily: 50, Monthly: DefaultMonthlyCap, LastEarned: &lastMonth}

	got, err := ApplyCredit(c, 50, testNow, DefaultDailyCap, DefaultMonthlyCap)
	if err != nil {
		t.Fatalf("both counters should reset on a new month: %v", err)
	}
	if got.Daily != 50 || got.Monthly != 50 {
		t.Fatalf("counters = %d/%d, want 50/50", got.Daily, got.Monthly)
	}
}

func TestApplyCreditMonthlyCap(t *testing.T) {
	earlier := testNow.Add(-time.Hour)
	c := Counters{Daily: 10, Monthly: 480, LastEarned: &earlier}

	if _, err := ApplyCredit(c, 30, testNow, DefaultDailyCap, DefaultMonthlyCap); KindOf(err) != KindLimitExceeded {
		t.Fatalf("credit past the monthly cap should fail LimitExceeded, got %v", err)
	}

	got, err := ApplyCredit(c, 20, testNow, DefaultDailyCap, DefaultMonthlyCap)
	if err != nil {
		t.Fatalf("credit of exactly the monthly remainder should pass: %v", err)
	}
	if got.Monthly != DefaultMonthlyCap {
		t.Fatalf("monthly = %d, want %d", got.Monthly, DefaultMonthlyCap)
	}
}

func TestApplyCreditRejectsNonPositive(t *testing.T) {
	if _, err := ApplyCredit(Counters{}, 0, testNow, DefaultDailyCap, DefaultMonthlyCap); KindOf(err) != KindValidation {
		t.Fatalf("zero credit should fail validation, got %v", err)
	}
	if _, err := ApplyCredit(Counters{}, -5, testNow, DefaultDailyCap, DefaultMonthlyCap); KindOf(err) != KindValidation {
		t.Fatalf("negative credit should fail validation, got %v", err)
	}
}

func TestRolloverNeverEarned(t *testing.T) {
	c := Rollover(Counters{Daily: 10, Monthly: 10}, testNow)
	if c.Daily != 0 || c.Monthly != 0 || c.LastEarned != nil {
		t.Fatalf("counters without an anchor should zero out, got %+v", c)
	}
}
