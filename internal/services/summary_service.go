package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"drinklog/internal/cache"
	"drinklog/internal/calculator"
	"drinklog/internal/core"
	"drinklog/internal/log"
	"drinklog/internal/storage"
)

// recentMonthsCount is how many months the spending trend covers, the
// requested month included.
const recentMonthsCount = 5

// SummaryService answers the reporting queries: per-day calendar summaries,
// month and week totals and the recent-months trend, for members and groups.
// Results are cached; entry mutations flush the whole cache.
type SummaryService struct {
	store  storage.Store
	cache  cache.Cache[any]
	logger *log.Logger
}

func NewSummaryService(store storage.Store, c cache.Cache[any], logger *log.Logger) *SummaryService {
	return &SummaryService{
		store:  store,
		cache:  c,
		logger: logger.WithComponent(log.ComponentSummary),
	}
}

// MonthlySummary returns one DaySummary per day of the month that has
// entries: entry count, summed price and drink quantities by type.
func (s *SummaryService) MonthlySummary(ctx context.Context, userID int64, year int, month time.Month) ([]core.DaySummary, error) {
	key := fmt.Sprintf("month-summary:user:%d:%d-%d", userID, year, month)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]core.DaySummary), nil
	}

	start, end := calculator.MonthRange(year, month)
	summaries, err := s.summarizeDays(ctx, func(tx storage.Tx) ([]core.Entry, error) {
		return tx.EntriesByUserBetween(ctx, userID, start, end)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, summaries)
	return summaries, nil
}

// GroupMonthlySummary is MonthlySummary over a group's entries, mirrors
// included.
func (s *SummaryService) GroupMonthlySummary(ctx context.Context, groupID int64, year int, month time.Month) ([]core.DaySummary, error) {
	key := fmt.Sprintf("month-summary:group:%d:%d-%d", groupID, year, month)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]core.DaySummary), nil
	}

	start, end := calculator.MonthRange(year, month)
	summaries, err := s.summarizeDays(ctx, func(tx storage.Tx) ([]core.Entry, error) {
		return tx.EntriesByGroupBetween(ctx, groupID, start, end)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, summaries)
	return summaries, nil
}

func (s *SummaryService) summarizeDays(ctx context.Context, list func(tx storage.Tx) ([]core.Entry, error)) ([]core.DaySummary, error) {
	var summaries []core.DaySummary
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		entries, err := list(tx)
		if err != nil {
			return err
		}

		byDay := make(map[time.Time]*core.DaySummary)
		var order []time.Time
		for _, entry := range entries {
			day := core.Day(entry.DrinkingDate)
			summary, ok := byDay[day]
			if !ok {
				summary = &core.DaySummary{Date: day, DrinkCounts: map[string]int{}}
				byDay[day] = summary
				order = append(order, day)
			}
			summary.TotalEntries++
			summary.TotalPrice += entry.TotalPrice

			items, err := loadDrinkItems(ctx, tx, entry.ID)
			if err != nil {
				return err
			}
			for _, item := range items {
				summary.DrinkCounts[item.Type] += item.Quantity
			}
		}

		for _, day := range order {
			summaries = append(summaries, *byDay[day])
		}
		return nil
	})
	return summaries, err
}

// MonthlyTotal sums a member's spending over one month.
func (s *SummaryService) MonthlyTotal(ctx context.Context, userID int64, year int, month time.Month) (int64, error) {
	start, end := calculator.MonthRange(year, month)
	return s.store.SumPriceByUserBetween(ctx, userID, start, end)
}

// GroupMonthlyTotal sums a group's booked entries over one month.
func (s *SummaryService) GroupMonthlyTotal(ctx context.Context, groupID int64, year int, month time.Month) (int64, error) {
	start, end := calculator.MonthRange(year, month)
	return s.store.SumPriceByGroupBetween(ctx, groupID, start, end)
}

// WeeklyTotal sums a member's spending over the week-th Monday-anchored week
// of a month.
func (s *SummaryService) WeeklyTotal(ctx context.Context, userID int64, year int, month time.Month, week int) (int64, error) {
	if week < 1 {
		return 0, fmt.Errorf("%w: week must be positive", core.ErrInvalid)
	}
	start, end := calculator.WeekOfMonthRange(year, month, week)
	return s.store.SumPriceByUserBetween(ctx, userID, start, end)
}

// GroupWeeklyTotal is WeeklyTotal for a group, returned together with the
// group's running total.
func (s *SummaryService) GroupWeeklyTotal(ctx context.Context, groupID int64, year int, month time.Month, week int) (*core.WeekExpense, error) {
	if week < 1 {
		return nil, fmt.Errorf("%w: week must be positive", core.ErrInvalid)
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	start, end := calculator.WeekOfMonthRange(year, month, week)
	weekPrice, err := s.store.SumPriceByGroupBetween(ctx, groupID, start, end)
	if err != nil {
		return nil, err
	}

	return &core.WeekExpense{
		Year:           year,
		Month:          int(month),
		Week:           week,
		WeekPrice:      weekPrice,
		GroupTotalPaid: group.TotalPaid,
	}, nil
}

// RecentMonths returns the spending trend over the last months ending at
// (year, month), oldest first. The month totals are fetched concurrently.
func (s *SummaryService) RecentMonths(ctx context.Context, userID int64, year int, month time.Month) ([]core.MonthlyExpense, error) {
	key := fmt.Sprintf("recent-months:user:%d:%d-%d", userID, year, month)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]core.MonthlyExpense), nil
	}

	result, err := s.recentMonths(ctx, year, month, func(ctx context.Context, y int, m time.Month) (int64, error) {
		return s.MonthlyTotal(ctx, userID, y, m)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, result)
	return result, nil
}

// GroupRecentMonths is RecentMonths over a group's entries.
func (s *SummaryService) GroupRecentMonths(ctx context.Context, groupID int64, year int, month time.Month) ([]core.MonthlyExpense, error) {
	key := fmt.Sprintf("recent-months:group:%d:%d-%d", groupID, year, month)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]core.MonthlyExpense), nil
	}

	result, err := s.recentMonths(ctx, year, month, func(ctx context.Context, y int, m time.Month) (int64, error) {
		return s.GroupMonthlyTotal(ctx, groupID, y, m)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, result)
	return result, nil
}

func (s *SummaryService) recentMonths(ctx context.Context, year int, month time.Month, total func(ctx context.Context, y int, m time.Month) (int64, error)) ([]core.MonthlyExpense, error) {
	months := calculator.RecentMonths(year, month, recentMonthsCount)
	result := make([]core.MonthlyExpense, len(months))

	g, gctx := errgroup.WithContext(ctx)
	for i, ym := range months {
		g.Go(func() error {
			price, err := total(gctx, ym[0], time.Month(ym[1]))
			if err != nil {
				return err
			}
			result[i] = core.MonthlyExpense{Year: ym[0], Month: ym[1], TotalPrice: price}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// Weekdays reports a member's Monday-through-Friday spending of the current
// week, the end capped at today.
func (s *SummaryService) Weekdays(ctx context.Context, userID int64, today time.Time) (*core.WeekdayExpense, error) {
	return s.weekdays(ctx, today, func(tx storage.Tx, start, end time.Time) ([]core.Entry, error) {
		return tx.EntriesByUserBetween(ctx, userID, start, end)
	})
}

// GroupWeekdays is Weekdays over a group's entries.
func (s *SummaryService) GroupWeekdays(ctx context.Context, groupID int64, today time.Time) (*core.WeekdayExpense, error) {
	return s.weekdays(ctx, today, func(tx storage.Tx, start, end time.Time) ([]core.Entry, error) {
		return tx.EntriesByGroupBetween(ctx, groupID, start, end)
	})
}

func (s *SummaryService) weekdays(ctx context.Context, today time.Time, list func(tx storage.Tx, start, end time.Time) ([]core.Entry, error)) (*core.WeekdayExpense, error) {
	start, end := calculator.WeekdaysRange(today)

	var out *core.WeekdayExpense
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		entries, err := list(tx, start, end)
		if err != nil {
			return err
		}

		byDay := make(map[time.Time]int64)
		var total int64
		for _, entry := range entries {
			day := core.Day(entry.DrinkingDate)
			byDay[day] += entry.TotalPrice
			total += entry.TotalPrice
		}

		var daily []core.DayAmount
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			daily = append(daily, core.DayAmount{
				Date:    day,
				Weekday: day.Weekday().String(),
				Amount:  byDay[day],
			})
		}

		out = &core.WeekdayExpense{
			StartDate:  start,
			EndDate:    end,
			TotalPrice: total,
			Daily:      daily,
		}
		return nil
	})
	return out, err
}
