package web

import (
	"net/http"
	"strings"

	"github.com/vbonduro/shopassist/internal/admin"
	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/session"
)

// adminPage carries what the admin layout needs on every page.
type adminPage struct {
	Title  string
	Active string
	User   session.User
	Theme  session.ThemeMode
	Notice string
}

func (s *Server) adminPage(r *http.Request, c *admin.Console, title, active string) adminPage {
	p := adminPage{Title: title, Active: active}
	if sess := c.Auth.Session(); sess != nil {
		p.User = sess.User
	}
	theme, err := c.Theme.Current(r.Context())
	if err != nil {
		s.logger.Warn("read theme failed", "error", err)
	}
	p.Theme = theme
	return p
}

type loginPage struct {
	Theme session.ThemeMode
	Email string
	Err   string
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, data loginPage) {
	if err := s.render(w, status, "login", data, "admin/login.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	c, err := s.Admin.Get(r.Context(), deviceID(r))
	if err != nil {
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		s.logger.Error("load console failed", "error", err)
		return
	}
	if c.Auth.IsAuthenticated() {
		redirect(w, r, "/admin")
		return
	}
	theme, _ := c.Theme.Current(r.Context())
	s.renderLogin(w, http.StatusOK, loginPage{Theme: theme})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	c, err := s.Admin.Get(r.Context(), deviceID(r))
	if err != nil {
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		s.logger.Error("load console failed", "error", err)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	if err := c.Auth.Login(r.Context(), email, r.FormValue("password")); err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("login failed", "error", err)
		}
		theme, _ := c.Theme.Current(r.Context())
		s.renderLogin(w, status, loginPage{Theme: theme, Email: email, Err: api.Message(err)})
		return
	}
	redirect(w, r, "/admin")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, err := s.Admin.Get(r.Context(), deviceID(r))
	if err != nil {
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		s.logger.Error("load console failed", "error", err)
		return
	}
	if err := c.Auth.Logout(r.Context()); err != nil {
		s.logger.Warn("logout failed", "error", err)
	}
	redirect(w, r, "/admin/login")
}

type dashboardPage struct {
	adminPage
	*admin.Dashboard
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	d, err := c.Workspace.Dashboard(r.Context())
	if err != nil {
		s.adminFailed(w, r, c, err)
		return
	}
	data := dashboardPage{adminPage: s.adminPage(r, c, "Dashboard", "dashboard"), Dashboard: d}
	if err := s.renderPage(w, data, "admin/base.html", "admin/dashboard.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

type settingsPage struct {
	adminPage
	Settings Settings
	Themes   []session.ThemeMode
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	s.renderSettings(w, r, c, http.StatusOK, "")
}

func (s *Server) renderSettings(w http.ResponseWriter, r *http.Request, c *admin.Console, status int, notice string) {
	data := settingsPage{
		adminPage: s.adminPage(r, c, "Settings", "settings"),
		Settings:  s.settings,
		Themes:    []session.ThemeMode{session.Light, session.Dark},
	}
	data.Notice = notice
	if err := s.render(w, status, "base", data, "admin/base.html", "admin/settings.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleSettingsTheme(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	mode, err := session.ParseThemeMode(r.FormValue("theme"))
	if err == nil {
		err = c.Theme.Set(r.Context(), mode)
	}
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			status = http.StatusInternalServerError
			s.logger.Error("save theme failed", "error", err)
		}
		s.renderSettings(w, r, c, status, api.Message(err))
		return
	}
	redirect(w, r, "/admin/settings")
}
