package rcn

import "time"

// Default earning caps, overridable through configuration.
const (
	DefaultDailyCap   = 50
	DefaultMonthlyCap = 500
)

// Counters is the rolling earning state carried on the customer row.
type Counters struct {
	Daily      int64
	Monthly    int64
	LastEarned *time.Time
}

// Rollover lazily resets the counters when the day or month has advanced
// since the last credit. No cron is involved; callers apply this on every
// read or write of the counters.
func Rollover(c Counters, now time.Time) Counters {
	if c.LastEarned == nil {
		return Counters{LastEarned: nil}
	}
	last := *c.LastEarned
	if !sameDay(last, now) {
		c.Daily = 0
	}
	if last.Year() != now.Year() || last.Month() != now.Month() {
		c.Monthly = 0
	}
	return c
}

// ApplyCredit checks the proposed amount against the daily and monthly caps
// after rollover and returns the advanced counters. The caller persists the
// result in the same transaction as the ledger write it gates.
func ApplyCredit(c Counters, amount int64, now time.Time, dailyCap, monthlyCap int64) (Counters, error) {
	if amount <= 0 {
		return c, Validation("credit amount must be positive")
	}

	c = Rollover(c, now)

	dailyRemaining := dailyCap - c.Daily
	monthlyRemaining := monthlyCap - c.Monthly
	if dailyRemaining <= 0 || amount > dailyRemaining {
		return c, LimitExceeded("daily earning limit reached").
			WithDetail("daily_remaining", max64(dailyRemaining, 0)).
			WithDetail("requested", amount)
	}
	if monthlyRemaining <= 0 || amount > monthlyRemaining {
		return c, LimitExceeded("monthly earning limit reached").
			WithDetail("monthly_remaining", max64(monthlyRemaining, 0)).
			WithDetail("requested", amount)
	}

	c.Daily += amount
	c.Monthly += amount
	c.LastEarned = &now
	return c, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
