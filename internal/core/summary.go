package core

import "time"

// DaySummary condenses one calendar day: how many entries were logged, what
// they cost in total and how many of each drink type were consumed.
type DaySummary struct {
	Date         time.Time
	TotalEntries int
	TotalPrice   int64
	DrinkCounts  map[string]int
}

// MonthlyExpense is one data point of the recent-months spending trend.
type MonthlyExpense struct {
	Year       int
	Month      int // 1-12
	TotalPrice int64
}

// WeekExpense is the total for one Monday-anchored week of a month. For group
// queries GroupTotalPaid carries the group's running total alongside.
type WeekExpense struct {
	Year           int
	Month          int
	Week           int
	WeekPrice      int64
	GroupTotalPaid int64
}

// DayAmount is one day of a weekday window, in window order.
type DayAmount struct {
	Date    time.Time
	Weekday string
	Amount  int64
}

// WeekdayExpense covers Monday through the capped end of the current work
// week: the window, the summed total and the per-day breakdown.
type WeekdayExpense struct {
	StartDate  time.Time
	EndDate    time.Time
	TotalPrice int64
	Daily      []DayAmount
}
