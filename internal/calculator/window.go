package calculator

import "time"

// MonthRange returns the first and last calendar day of a month.
func MonthRange(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}

// WeekOfMonthRange returns the window of the week-th Monday-anchored week of
// a month, clipped to the month. The first week starts on the Monday of the
// week containing day 1; when that Monday falls in the previous month the
// first week starts on day 1 instead.
func WeekOfMonthRange(year int, month time.Month, week int) (start, end time.Time) {
	firstDay, lastDay := MonthRange(year, month)

	firstMonday := mondayOf(firstDay)
	if firstMonday.Month() != month {
		firstMonday = firstDay
	}

	start = firstMonday.AddDate(0, 0, (week-1)*7)
	end = start.AddDate(0, 0, 6)
	if end.Month() != month {
		end = lastDay
	}
	return start, end
}

// WeekdaysRange returns the Monday-through-Friday window of the week
// containing today, with the end capped at today when the week is still in
// progress.
func WeekdaysRange(today time.Time) (start, end time.Time) {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	start = mondayOf(today)
	end = start.AddDate(0, 0, 4)
	if today.Before(end) {
		end = today
	}
	return start, end
}

// RecentMonths lists the n months ending at (year, month), oldest first.
func RecentMonths(year int, month time.Month, n int) [][2]int {
	months := make([][2]int, 0, n)
	for i := n - 1; i >= 0; i-- {
		t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		months = append(months, [2]int{t.Year(), int(t.Month())})
	}
	return months
}

// mondayOf returns the previous-or-same Monday of t.
func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return t.AddDate(0, 0, -offset)
}
