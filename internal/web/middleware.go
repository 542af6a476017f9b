package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/vbonduro/shopassist/internal/admin"
	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/resource"
	"github.com/vbonduro/shopassist/internal/view"
)

// DeviceCookie identifies a browser across visits. Everything persisted for a
// visitor (admin session, theme, chat ids) is keyed by it.
const DeviceCookie = "sa_device"

const deviceCookieMaxAge = 365 * 24 * 60 * 60

type ctxKey int

const deviceKey ctxKey = iota

// deviceCookie makes sure every request carries a device id, issuing a new
// one when the cookie is missing or malformed.
func (s *Server) deviceCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(DeviceCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     DeviceCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   deviceCookieMaxAge,
				HttpOnly: true,
				Secure:   s.settings.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), deviceKey, id)))
	})
}

func deviceID(r *http.Request) string {
	id, _ := r.Context().Value(deviceKey).(string)
	return id
}

// adminHandler is a handler that runs with the caller's verified console.
type adminHandler func(w http.ResponseWriter, r *http.Request, c *admin.Console)

// requireAdmin restores the device's console and sends anyone without a
// verified session to the login page.
func (s *Server) requireAdmin(h adminHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := s.Admin.Get(r.Context(), deviceID(r))
		if err != nil {
			http.Error(w, "failed to load session", http.StatusInternalServerError)
			s.logger.Error("load console failed", "error", err)
			return
		}
		if !c.Auth.IsAuthenticated() {
			redirect(w, r, "/admin/login")
			return
		}
		h(w, r, c)
	})
}

// statusFor maps a failure to the HTTP status shown to the browser.
func statusFor(err error) int {
	var bulkErr *resource.BulkError
	switch {
	case errors.Is(err, view.ErrNotConfirmed),
		errors.Is(err, view.ErrEmptySelection),
		errors.Is(err, view.ErrUnknownSort):
		return http.StatusBadRequest
	case errors.Is(err, view.ErrReadOnly):
		return http.StatusUnprocessableEntity
	case errors.Is(err, view.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, resource.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &bulkErr):
		return http.StatusOK
	case api.IsNotFound(err):
		return http.StatusNotFound
	}
	switch api.KindOf(err) {
	case api.KindValidation:
		return http.StatusUnprocessableEntity
	case api.KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

// adminFailed handles an error from an admin operation that has no screen of
// its own to show it on. An auth failure ends the session.
func (s *Server) adminFailed(w http.ResponseWriter, r *http.Request, c *admin.Console, err error) {
	if s.endSessionOnAuth(w, r, c, err) {
		return
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("admin request failed", "path", r.URL.Path, "error", err)
	}
	http.Error(w, api.Message(err), status)
}

// endSessionOnAuth logs the console out and redirects to login when err says
// the token is no longer accepted.
func (s *Server) endSessionOnAuth(w http.ResponseWriter, r *http.Request, c *admin.Console, err error) bool {
	if !api.IsAuth(err) {
		return false
	}
	if lerr := c.Auth.Logout(r.Context()); lerr != nil {
		s.logger.Warn("logout after auth failure failed", "error", lerr)
	}
	redirect(w, r, "/admin/login")
	return true
}
