package web

import (
	"net/http"

	"github.com/vbonduro/shopassist/internal/admin"
	"github.com/vbonduro/shopassist/internal/domain"
)

// handleUserRole changes a user's role from the users screen.
func (s *Server) handleUserRole(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	p := domain.UserPatch{Role: domain.Ptr(r.FormValue("role"))}
	if _, err := c.Workspace.Users.Update(r.Context(), r.PathValue("id"), p); err != nil {
		listFailed(s, w, r, c, userScreen, err)
		return
	}
	renderList(s, w, r, c, userScreen, http.StatusOK, "Role updated.")
}
