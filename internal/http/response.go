package http

import (
	"drinklog/internal/core"
	"drinklog/internal/services"
)

type drinkItemResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

type entryResponse struct {
	ID            int64               `json:"id"`
	UserID        int64               `json:"userId"`
	GroupID       *int64              `json:"groupId,omitempty"`
	GroupEntryID  *int64              `json:"groupEntryId,omitempty"`
	DrinkingDate  string              `json:"drinkingDate"`
	Memo          string              `json:"memo"`
	TotalPrice    int64               `json:"totalPrice"`
	PhotoURL      string              `json:"photoUrl,omitempty"`
	IsGroupShared bool                `json:"isGroupShared"`
	Drinks        []drinkItemResponse `json:"drinks"`
}

func buildEntryResponse(e core.EntryWithDrinks) entryResponse {
	drinks := make([]drinkItemResponse, 0, len(e.Drinks))
	for _, d := range e.Drinks {
		drinks = append(drinks, drinkItemResponse{
			ID:       d.DrinkID,
			Name:     d.Name,
			Type:     d.Type,
			Quantity: d.Quantity,
		})
	}
	return entryResponse{
		ID:            e.ID,
		UserID:        e.UserID,
		GroupID:       e.GroupID,
		GroupEntryID:  e.GroupEntryID,
		DrinkingDate:  e.DrinkingDate.Format(dateLayout),
		Memo:          e.Memo,
		TotalPrice:    e.TotalPrice,
		PhotoURL:      e.PhotoURL,
		IsGroupShared: e.IsGroupShared,
		Drinks:        drinks,
	}
}

func buildEntryList(entries []core.EntryWithDrinks) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, buildEntryResponse(e))
	}
	return out
}

type daySummaryResponse struct {
	Date         string         `json:"date"`
	TotalEntries int            `json:"totalEntries"`
	TotalPrice   int64          `json:"totalPrice"`
	DrinkCounts  map[string]int `json:"drinkCounts"`
}

func buildSummaryList(summaries []core.DaySummary) []daySummaryResponse {
	out := make([]daySummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, daySummaryResponse{
			Date:         s.Date.Format(dateLayout),
			TotalEntries: s.TotalEntries,
			TotalPrice:   s.TotalPrice,
			DrinkCounts:  s.DrinkCounts,
		})
	}
	return out
}

type monthlyExpenseResponse struct {
	Year       int   `json:"year"`
	Month      int   `json:"month"`
	TotalPrice int64 `json:"totalPrice"`
}

func buildTrend(trend []core.MonthlyExpense) []monthlyExpenseResponse {
	out := make([]monthlyExpenseResponse, 0, len(trend))
	for _, m := range trend {
		out = append(out, monthlyExpenseResponse{Year: m.Year, Month: m.Month, TotalPrice: m.TotalPrice})
	}
	return out
}

type weekExpenseResponse struct {
	Year           int   `json:"year"`
	Month          int   `json:"month"`
	Week           int   `json:"week"`
	WeekPrice      int64 `json:"weekPrice"`
	GroupTotalPaid int64 `json:"groupTotalPaid"`
}

type dayAmountResponse struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Amount  int64  `json:"amount"`
}

type weekdayExpenseResponse struct {
	StartDate  string              `json:"startDate"`
	EndDate    string              `json:"endDate"`
	TotalPrice int64               `json:"totalPrice"`
	Daily      []dayAmountResponse `json:"dailyExpenses"`
}

func buildWeekdayResponse(w *core.WeekdayExpense) weekdayExpenseResponse {
	daily := make([]dayAmountResponse, 0, len(w.Daily))
	for _, d := range w.Daily {
		daily = append(daily, dayAmountResponse{
			Date:    d.Date.Format(dateLayout),
			Weekday: d.Weekday,
			Amount:  d.Amount,
		})
	}
	return weekdayExpenseResponse{
		StartDate:  w.StartDate.Format(dateLayout),
		EndDate:    w.EndDate.Format(dateLayout),
		TotalPrice: w.TotalPrice,
		Daily:      daily,
	}
}

type memberResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	TotalPaid int64  `json:"totalPaid"`
}

func buildMemberResponse(m core.Member) memberResponse {
	return memberResponse{ID: m.ID, Email: m.Email, Nickname: m.Nickname, TotalPaid: m.TotalPaid}
}

type groupResponse struct {
	ID          int64            `json:"id"`
	LeaderID    int64            `json:"leaderId"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	TotalPaid   int64            `json:"totalPaid"`
	Members     []memberResponse `json:"members,omitempty"`
}

func buildGroupResponse(g core.Group, members []core.Member) groupResponse {
	out := groupResponse{
		ID:          g.ID,
		LeaderID:    g.LeaderID,
		Name:        g.Name,
		Description: g.Description,
		TotalPaid:   g.TotalPaid,
	}
	for _, m := range members {
		out.Members = append(out.Members, buildMemberResponse(m))
	}
	return out
}

func buildGroupWithMembers(g *services.GroupWithMembers) groupResponse {
	return buildGroupResponse(g.Group, g.Members)
}

type drinkResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}
