package http

import (
	"net/http"
	"strconv"
	"time"
)

type totalResponse struct {
	Year       int   `json:"year"`
	Month      int   `json:"month"`
	TotalPrice int64 `json:"totalPrice"`
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month := parseYearMonth(r)

	summary, err := s.summary.MonthlySummary(r.Context(), userID, year, month)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildSummaryList(summary))
}

func (s *Server) handleMonthlyTotal(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month := parseYearMonth(r)

	total, err := s.summary.MonthlyTotal(r.Context(), userID, year, month)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, totalResponse{Year: year, Month: int(month), TotalPrice: total})
}

func (s *Server) handleWeeklyTotal(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month := parseYearMonth(r)
	week, err := strconv.Atoi(r.URL.Query().Get("week"))
	if err != nil || week < 1 {
		respondError(w, http.StatusBadRequest, "invalid week")
		return
	}

	total, err := s.summary.WeeklyTotal(r.Context(), userID, year, month, week)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, weekExpenseResponse{
		Year:      year,
		Month:     int(month),
		Week:      week,
		WeekPrice: total,
	})
}

func (s *Server) handleRecentMonths(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month := parseYearMonth(r)

	trend, err := s.summary.RecentMonths(r.Context(), userID, year, month)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildTrend(trend))
}

func (s *Server) handleWeekdays(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.summary.Weekdays(r.Context(), userID, time.Now().UTC())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildWeekdayResponse(out))
}

func (s *Server) handleGroupMonthlySummary(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month := parseYearMonth(r)

	summary, err := s.summary.GroupMonthlySummary(r.Context(), groupID, year, month)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildSummaryList(summary))
}

func (s *Server) handleGroupMonthlyTotal(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month := parseYearMonth(r)

	total, err := s.summary.GroupMonthlyTotal(r.Context(), groupID, year, month)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, totalResponse{Year: year, Month: int(month), TotalPrice: total})
}

func (s *Server) handleGroupWeeklyTotal(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month := parseYearMonth(r)
	week, err := strconv.Atoi(r.URL.Query().Get("week"))
	if err != nil || week < 1 {
		respondError(w, http.StatusBadRequest, "invalid week")
		return
	}

	out, err := s.summary.GroupWeeklyTotal(r.Context(), groupID, year, month, week)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, weekExpenseResponse{
		Year:           out.Year,
		Month:          out.Month,
		Week:           out.Week,
		WeekPrice:      out.WeekPrice,
		GroupTotalPaid: out.GroupTotalPaid,
	})
}

func (s *Server) handleGroupRecentMonths(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month := parseYearMonth(r)

	trend, err := s.summary.GroupRecentMonths(r.Context(), groupID, year, month)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildTrend(trend))
}

func (s *Server) handleGroupWeekdays(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.summary.GroupWeekdays(r.Context(), groupID, time.Now().UTC())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildWeekdayResponse(out))
}
