package ledger

import "time"

// Truncate returns the start of the bucket containing t, in UTC.
// Weeks start on Monday. Whole returns the zero time.
func Truncate(t time.Time, g Granularity) time.Time {
	y, m, d := t.Date()
	switch g {
	case Day:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case Week:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}

// Next returns the start of the bucket following the one starting at start.
func Next(start time.Time, g Granularity) time.Time {
	switch g {
	case Day:
		return start.AddDate(0, 0, 1)
	case Week:
		return start.AddDate(0, 0, 7)
	case Month:
		return start.AddDate(0, 1, 0)
	case Year:
		return start.AddDate(1, 0, 0)
	default:
		return start
	}
}

// Previous returns the start of the bucket preceding the one starting at start.
func Previous(start time.Time, g Granularity) time.Time {
	switch g {
	case Day:
		return start.AddDate(0, 0, -1)
	case Week:
		return start.AddDate(0, 0, -7)
	case Month:
		return start.AddDate(0, -1, 0)
	case Year:
		return start.AddDate(-1, 0, 0)
	default:
		return start
	}
}

// MonthsBack returns the calendar day n months before now, matching
// "CURRENT_DATE - INTERVAL 'n months'".
func MonthsBack(now time.Time, n int) time.Time {
	return Truncate(now, Day).AddDate(0, -n, 0)
}
