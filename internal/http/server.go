// Package http exposes the calendar, summary, group and member operations as
// a JSON API.
package http

import (
	"context"
	"net/http"

	"drinklog/internal/blob"
	"drinklog/internal/log"
	"drinklog/internal/metrics"
	"drinklog/internal/middleware/ratelimit"
	"drinklog/internal/middleware/trace"
	"drinklog/internal/services"
)

// Server wires the services into HTTP routes.
type Server struct {
	http.Server

	entries *services.EntryService
	summary *services.SummaryService
	groups  *services.GroupService
	members *services.MemberService
	drinks  *services.DrinkService
	images  blob.ImageStore

	limiter *ratelimit.Limiter
	logger  *log.Logger
}

// Deps carries everything the server needs.
type Deps struct {
	Entries *services.EntryService
	Summary *services.SummaryService
	Groups  *services.GroupService
	Members *services.MemberService
	Drinks  *services.DrinkService
	Images  blob.ImageStore
	Metrics *metrics.Metrics
	Logger  *log.Logger
}

// NewServer configures routes and middleware, returning a ready-to-run
// server listening on addr.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		entries: deps.Entries,
		summary: deps.Summary,
		groups:  deps.Groups,
		members: deps.Members,
		drinks:  deps.Drinks,
		images:  deps.Images,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		logger:  deps.Logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()

	// Calendar entries.
	mux.HandleFunc("POST /api/v1/calendar", s.limited(s.handleCreateEntry))
	mux.HandleFunc("GET /api/v1/calendar", s.handleListEntries)
	mux.HandleFunc("GET /api/v1/calendar/day", s.handleDailyEntries)
	mux.HandleFunc("GET /api/v1/calendar/shared", s.handleSharedEntries)
	mux.HandleFunc("GET /api/v1/calendar/{id}", s.handleGetEntry)
	mux.HandleFunc("PUT /api/v1/calendar/{id}", s.limited(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /api/v1/calendar/{id}", s.limited(s.handleDeleteEntry))

	// Member summaries.
	mux.HandleFunc("GET /api/v1/calendar/month", s.handleMonthlySummary)
	mux.HandleFunc("GET /api/v1/calendar/month-expense", s.handleMonthlyTotal)
	mux.HandleFunc("GET /api/v1/calendar/week-expense", s.handleWeeklyTotal)
	mux.HandleFunc("GET /api/v1/calendar/recent-months", s.handleRecentMonths)
	mux.HandleFunc("GET /api/v1/calendar/current-weekdays", s.handleWeekdays)

	// Group calendar and summaries.
	mux.HandleFunc("GET /api/v1/calendar/group/{groupID}", s.handleGroupEntries)
	mux.HandleFunc("GET /api/v1/calendar/group/{groupID}/month", s.handleGroupMonthlySummary)
	mux.HandleFunc("GET /api/v1/calendar/group/{groupID}/month-expense", s.handleGroupMonthlyTotal)
	mux.HandleFunc("GET /api/v1/calendar/group/{groupID}/week-expense", s.handleGroupWeeklyTotal)
	mux.HandleFunc("GET /api/v1/calendar/group/{groupID}/recent-months", s.handleGroupRecentMonths)
	mux.HandleFunc("GET /api/v1/calendar/group/{groupID}/current-weekdays", s.handleGroupWeekdays)

	// Group registry.
	mux.HandleFunc("POST /api/v1/groups", s.limited(s.handleCreateGroup))
	mux.HandleFunc("GET /api/v1/groups/{id}", s.handleGetGroup)
	mux.HandleFunc("PUT /api/v1/groups/{id}", s.limited(s.handleUpdateGroup))
	mux.HandleFunc("DELETE /api/v1/groups/{id}", s.limited(s.handleDeleteGroup))
	mux.HandleFunc("POST /api/v1/groups/{id}/members", s.limited(s.handleAddGroupMember))
	mux.HandleFunc("DELETE /api/v1/groups/{id}/members/{memberID}", s.limited(s.handleRemoveGroupMember))

	// Members and catalog.
	mux.HandleFunc("POST /api/v1/members", s.limited(s.handleRegisterMember))
	mux.HandleFunc("GET /api/v1/members/{id}", s.handleGetMember)
	mux.HandleFunc("GET /api/v1/drinks", s.handleListDrinks)

	// Operational endpoints.
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleHealth)
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	traced := trace.NewMiddleware(deps.Logger, deps.Metrics)
	s.Server = http.Server{
		Addr:    addr,
		Handler: traced.Wrap(mux),
	}
	return s
}

// limited applies the rate limiter to a mutation handler.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(remoteIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// Shutdown drains in-flight requests and stops the limiter's background
// goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

// Close stops the limiter's background goroutine along with the listener.
func (s *Server) Close() error {
	s.limiter.Stop()
	return s.Server.Close()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
