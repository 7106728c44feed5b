package http

import (
	"context"
	"net/http"

	"timesheet/internal/core"
	applog "timesheet/internal/log"
)

// HeaderUserID carries the caller id set by the identity provider in front
// of the service.
const HeaderUserID = "X-User-ID"

type ctxKey int

const userKey ctxKey = iota

// UserResolver maps a caller id to a user.
type UserResolver interface {
	Get(id string) (core.User, error)
}

// withUser resolves the caller and rejects the request with 401 when the
// header is missing or unknown.
func (s *Server) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.users.Get(r.Header.Get(HeaderUserID))
		if err != nil {
			s.logger.WarnContext(r.Context(), "Request without a known user",
				applog.FieldPath, r.URL.Path,
				applog.FieldError, err)
			UnauthorizedError("missing or unknown " + HeaderUserID).Write(w)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, user.ID))
		next(w, r.WithContext(ctx))
	}
}

// requireCapability wraps a handler that needs cap; callers lacking it get 403.
func (s *Server) requireCapability(c core.Capability, next http.HandlerFunc) http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r.Context()).Can(c) {
			ForbiddenError("insufficient permissions").Write(w)
			return
		}
		next(w, r)
	})
}

// currentUser returns the user resolved by withUser.
func currentUser(ctx context.Context) core.User {
	u, _ := ctx.Value(userKey).(core.User)
	return u
}
