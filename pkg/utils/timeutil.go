package utils

import "time"

// Exchange session locations.
var (
	KST *time.Location
	ET  *time.Location
)

func init() {
	var err error
	KST, err = time.LoadLocation("Asia/Seoul")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		KST = time.FixedZone("KST", 9*60*60)
	}
	ET, err = time.LoadLocation("America/New_York")
	if err != nil {
		ET = time.FixedZone("EST", -5*60*60)
	}
}

// session returns the regular trading window of an exchange for the date of t.
func session(ex Exchange, t time.Time) (open, close time.Time) {
	switch ex {
	case ExchangeKRX:
		d := t.In(KST)
		return time.Date(d.Year(), d.Month(), d.Day(), 9, 0, 0, 0, KST),
			time.Date(d.Year(), d.Month(), d.Day(), 15, 30, 0, 0, KST)
	default:
		d := t.In(ET)
		return time.Date(d.Year(), d.Month(), d.Day(), 9, 30, 0, 0, ET),
			time.Date(d.Year(), d.Month(), d.Day(), 16, 0, 0, 0, ET)
	}
}

// IsMarketOpenAt reports whether the exchange's regular session covers t.
// Exchange holidays are not tracked.
func IsMarketOpenAt(ex Exchange, t time.Time) bool {
	open, close := session(ex, t)
	wd := t.In(open.Location()).Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !t.Before(open) && t.Before(close)
}

// MarketStatus returns "open" or "closed" for the exchange at t.
func MarketStatus(ex Exchange, t time.Time) string {
	if IsMarketOpenAt(ex, t) {
		return "open"
	}
	return "closed"
}

// FormatDateTime formats t in the exchange's local zone.
func FormatDateTime(ex Exchange, t time.Time) string {
	open, _ := session(ex, t)
	return t.In(open.Location()).Format("2006-01-02 15:04:05 MST")
}
