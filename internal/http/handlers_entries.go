package http

import (
	"context"
	"net/http"
	"strings"

	"timesheet/internal/analytics"
	"timesheet/internal/core"
	applog "timesheet/internal/log"
	"timesheet/internal/services"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), repoTimeout)
	defer cancel()

	tax, err := s.store.Taxonomy(ctx)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}

	main := strings.TrimSpace(r.URL.Query().Get("main"))
	if main == "" {
		NewJSONResponse().Body(tax).Write(w)
		return
	}
	if _, ok := tax.Main(main); !ok {
		FromError(core.ErrUnknownMainCategory).Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"mainCategoryId": main,
		"subCategories":  tax.SubsOf(main),
	}).Write(w)
}

// handleListEntries lists the caller's entries newest first, optionally
// limited to one date. Roles that view every user may pass user.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	target, err := s.targetUser(user, r.URL.Query().Get("user"))
	if err != nil {
		FromError(err).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), repoTimeout)
	defer cancel()
	entries, err := s.entries.ListForUser(ctx, target)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}

	if date := strings.TrimSpace(r.URL.Query().Get("date")); date != "" {
		if !core.ValidDate(date) {
			FromError(core.ErrInvalidDate).Write(w)
			return
		}
		entries = analytics.EntriesOn(entries, target, date)
	}

	NewJSONResponse().Body(map[string]any{
		"entries": entries,
		"count":   len(entries),
	}).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	draft, err := DecodeDraft(w, r)
	if err != nil {
		FromError(err).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), repoTimeout)
	defer cancel()
	e, err := s.entries.CreateEntry(ctx, currentUser(r.Context()), draft)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/entries/"+e.ID).
		Body(e).
		Write(w)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), repoTimeout)
	defer cancel()

	e, err := s.entries.Get(ctx, currentUser(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(e).Write(w)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	draft, err := DecodeDraft(w, r)
	if err != nil {
		FromError(err).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), repoTimeout)
	defer cancel()
	e, err := s.entries.UpdateEntry(ctx, currentUser(r.Context()), r.PathValue("id"), draft)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(e).Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), repoTimeout)
	defer cancel()

	if err := s.entries.DeleteEntry(ctx, currentUser(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// targetUser decides whose entries a request reads. Callers without the
// view-all capability are pinned to themselves; the others may name any
// user.
func (s *Server) targetUser(caller core.User, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == caller.ID {
		return caller.ID, nil
	}
	if !caller.Can(core.CapViewAllUsers) {
		return "", services.ErrForbidden
	}
	return requested, nil
}

// writeError maps err to a response and logs the ones that are not the
// client's fault.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := FromError(err)
	if resp.statusCode >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, op, applog.NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
	}
	resp.Write(w)
}
