package calculator

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2025, time.February)
	if !start.Equal(date(2025, time.February, 1)) {
		t.Errorf("start = %v, want 2025-02-01", start)
	}
	if !end.Equal(date(2025, time.February, 28)) {
		t.Errorf("end = %v, want 2025-02-28", end)
	}

	start, end = MonthRange(2024, time.February)
	if !end.Equal(date(2024, time.February, 29)) {
		t.Errorf("leap year end = %v, want 2024-02-29", end)
	}
	if !start.Equal(date(2024, time.February, 1)) {
		t.Errorf("leap year start = %v, want 2024-02-01", start)
	}
}

func TestWeekOfMonthRange(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		week      int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			// September 2025 starts on a Monday.
			name: "month starting on monday", year: 2025, month: time.September, week: 1,
			wantStart: date(2025, time.September, 1), wantEnd: date(2025, time.September, 7),
		},
		{
			// June 1st 2025 is a Sunday; its Monday is in May, so week one
			// starts on the 1st instead.
			name: "first monday in previous month", year: 2025, month: time.June, week: 1,
			wantStart: date(2025, time.June, 1), wantEnd: date(2025, time.June, 7),
		},
		{
			name: "second week", year: 2025, month: time.June, week: 2,
			wantStart: date(2025, time.June, 8), wantEnd: date(2025, time.June, 14),
		},
		{
			name: "last week clipped to month end", year: 2025, month: time.September, week: 5,
			wantStart: date(2025, time.September, 29), wantEnd: date(2025, time.September, 30),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekOfMonthRange(tt.year, tt.month, tt.week)
			if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
				t.Errorf("WeekOfMonthRange(%d, %v, %d) = [%v, %v], want [%v, %v]",
					tt.year, tt.month, tt.week, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestWeekdaysRange(t *testing.T) {
	tests := []struct {
		name      string
		today     time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "midweek caps at today",
			today:     date(2025, time.June, 4), // Wednesday
			wantStart: date(2025, time.June, 2),
			wantEnd:   date(2025, time.June, 4),
		},
		{
			name:      "friday keeps full window",
			today:     date(2025, time.June, 6),
			wantStart: date(2025, time.June, 2),
			wantEnd:   date(2025, time.June, 6),
		},
		{
			name:      "weekend keeps full window",
			today:     date(2025, time.June, 7), // Saturday
			wantStart: date(2025, time.June, 2),
			wantEnd:   date(2025, time.June, 6),
		},
		{
			name:      "monday collapses to a single day",
			today:     date(2025, time.June, 2),
			wantStart: date(2025, time.June, 2),
			wantEnd:   date(2025, time.June, 2),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekdaysRange(tt.today)
			if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
				t.Errorf("WeekdaysRange(%v) = [%v, %v], want [%v, %v]",
					tt.today, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestRecentMonths(t *testing.T) {
	got := RecentMonths(2025, time.March, 5)
	want := [][2]int{{2024, 11}, {2024, 12}, {2025, 1}, {2025, 2}, {2025, 3}}
	if len(got) != len(want) {
		t.Fatalf("RecentMonths returned %d months, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("month %d = %v, want %v", i, got[i], want[i])
		}
	}
}
