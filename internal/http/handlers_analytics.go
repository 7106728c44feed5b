package http

import (
	"net/http"
	"strings"

	"timesheet/internal/analytics"
	"timesheet/internal/core"
	applog "timesheet/internal/log"
	"timesheet/internal/services"
)

const dashboardRecentDays = 7

type analyticsResponse struct {
	Period analytics.PeriodKind `json:"period"`
	UserID string               `json:"userId,omitempty"`
	analytics.Analytics
}

// analyticsFilter returns the user filter for an aggregation. Callers that
// view every user get all users unless they name one.
func analyticsFilter(caller core.User, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if caller.Can(core.CapViewAllUsers) {
		return requested, nil
	}
	if requested != "" && requested != caller.ID {
		return "", services.ErrForbidden
	}
	return caller.ID, nil
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params, err := ParseRangeParams(query, s.now())
	if err != nil {
		FromError(err).Write(w)
		return
	}
	filter, err := analyticsFilter(currentUser(r.Context()), query.Get("user"))
	if err != nil {
		FromError(err).Write(w)
		return
	}

	a, err := s.analyticsFor(r.Context(), filter, params.Range)
	if err != nil {
		s.writeError(w, r, applog.OpAggregate, err)
		return
	}

	applog.FromContext(r.Context()).DebugContext(r.Context(), "Analytics served",
		applog.NewFields().
			WithRange(string(params.Kind), params.Range.Start, params.Range.End).
			WithUser(filter).
			ToSlice()...)

	NewJSONResponse().Body(analyticsResponse{
		Period:    params.Kind,
		UserID:    filter,
		Analytics: a,
	}).Write(w)
}

// handleDashboard summarizes the caller's current week.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	now := s.now()
	week := analytics.Resolve(analytics.ThisWeek, now, nil)

	a, err := s.analyticsFor(r.Context(), user.ID, week)
	if err != nil {
		s.writeError(w, r, applog.OpAggregate, err)
		return
	}
	all, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	totals := analytics.Totals(all, user.ID)

	NewJSONResponse().Body(map[string]any{
		"user":             user,
		"range":            week,
		"weekTotal":        a.TotalDuration,
		"weekTotalDisplay": analytics.FormatDuration(a.TotalDuration),
		"categories":       a.CategorySummaries,
		"totalEntries":     totals.EntryCount,
		"recentEntries":    analytics.RecentCount(all, user.ID, now, dashboardRecentDays),
	}).Write(w)
}

// handleCalendarDay lists the caller's entries on one date.
func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	date, err := ParseDateParam(r.URL.Query(), "date", s.now())
	if err != nil {
		FromError(err).Write(w)
		return
	}
	all, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}

	day := analytics.SortForDisplay(analytics.EntriesOn(all, user.ID, date))
	total := 0
	for _, e := range day {
		total += e.Duration
	}
	NewJSONResponse().Body(map[string]any{
		"date":          date,
		"entries":       day,
		"totalDuration": total,
	}).Write(w)
}

// handleCalendarDays returns the dates of a month holding caller entries.
func (s *Server) handleCalendarDays(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	month, err := ParseMonthParam(r.URL.Query(), "month", s.now())
	if err != nil {
		FromError(err).Write(w)
		return
	}
	all, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"month": month,
		"dates": analytics.DatesWithEntries(all, user.ID, month),
	}).Write(w)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	all, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	totals := analytics.Totals(all, user.ID)
	NewJSONResponse().Body(map[string]any{
		"user":         user,
		"totals":       totals,
		"totalDisplay": analytics.FormatDuration(totals.TotalMinutes),
	}).Write(w)
}

type rosterEntry struct {
	User   core.User            `json:"user"`
	Totals analytics.UserTotals `json:"totals"`
}

// handleUsers lists every known user with their all-time totals.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	all, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	roster := s.users.List()
	out := make([]rosterEntry, 0, len(roster))
	for _, u := range roster {
		out = append(out, rosterEntry{User: u, Totals: analytics.Totals(all, u.ID)})
	}
	NewJSONResponse().Body(map[string]any{"users": out}).Write(w)
}
