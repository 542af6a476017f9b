package web

import (
	"errors"
	"net/http"

	"github.com/vbonduro/shopassist/internal/admin"
	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/domain"
	"github.com/vbonduro/shopassist/internal/resource"
	"github.com/vbonduro/shopassist/internal/view"
)

// screen binds one resource's list state to its admin pages.
type screen[T view.Item] struct {
	Name  string
	Title string
	Path  string
	// Items is the template file defining "items" for this resource.
	Items string
	list  func(w *admin.Workspace) *view.List[T]
	// publicContent marks resources whose changes show on the public site.
	publicContent bool
	// removed runs for every id the backend confirmed deleted.
	removed func(c *admin.Console, ids ...string)
}

var (
	blogScreen = screen[*domain.BlogPost]{
		Name: "blogs", Title: "Blog posts", Path: "/admin/blogs",
		Items:         "admin/blog_items.html",
		list:          func(w *admin.Workspace) *view.List[*domain.BlogPost] { return w.BlogList },
		publicContent: true,
	}
	bookingScreen = screen[*domain.DemoBooking]{
		Name: "demo-bookings", Title: "Demo bookings", Path: "/admin/demo-bookings",
		Items:   "admin/booking_items.html",
		list:    func(w *admin.Workspace) *view.List[*domain.DemoBooking] { return w.BookingList },
		removed: (*admin.Console).CloseBooking,
	}
	mediaScreen = screen[*domain.MediaItem]{
		Name: "media", Title: "Media", Path: "/admin/media",
		Items: "admin/media_items.html",
		list:  func(w *admin.Workspace) *view.List[*domain.MediaItem] { return w.MediaList },
	}
	userScreen = screen[*domain.User]{
		Name: "users", Title: "Users", Path: "/admin/users",
		Items: "admin/user_items.html",
		list:  func(w *admin.Workspace) *view.List[*domain.User] { return w.UserList },
	}
)

// registerScreen wires the list routes every resource shares.
func registerScreen[T view.Item](s *Server, sc screen[T]) {
	handle := func(pattern string, h func(s *Server, w http.ResponseWriter, r *http.Request, c *admin.Console, sc screen[T])) {
		s.mux.Handle(pattern, s.requireAdmin(func(w http.ResponseWriter, r *http.Request, c *admin.Console) {
			h(s, w, r, c, sc)
		}))
	}
	handle("GET "+sc.Path, handleList[T])
	handle("POST "+sc.Path+"/{id}/select", handleSelect[T])
	handle("POST "+sc.Path+"/selection", handleSelection[T])
	handle("POST "+sc.Path+"/{id}/status", handleSetStatus[T])
	handle("DELETE "+sc.Path+"/{id}", handleDelete[T])
	handle("POST "+sc.Path+"/bulk", handleBulk[T])
}

type listPage[T view.Item] struct {
	adminPage
	Screen        screen[T]
	Items         []T
	Query         string
	Status        string
	Sort          view.Sort
	Sorts         []view.Sort
	Mode          view.Mode
	Statuses      []string
	Selected      map[string]bool
	SelectedCount int
	Err           string
}

func newListPage[T view.Item](s *Server, r *http.Request, c *admin.Console, sc screen[T], notice string) listPage[T] {
	l := sc.list(c.Workspace)
	p := listPage[T]{
		adminPage: s.adminPage(r, c, sc.Title, sc.Name),
		Screen:    sc,
		Items:     l.Visible(),
		Query:     l.Query(),
		Status:    l.Status(),
		Sort:      l.Sort(),
		Sorts:     []view.Sort{view.SortNewest, view.SortOldest, view.SortTitle},
		Mode:      l.Mode(),
		Statuses:  l.Statuses(),
		Selected:  make(map[string]bool),
		Err:       l.Err(),
	}
	for _, id := range l.Selection().IDs() {
		p.Selected[id] = true
	}
	p.SelectedCount = len(p.Selected)
	p.Notice = notice
	return p
}

// renderList renders the whole screen, or only its body for HTMX requests.
func renderList[T view.Item](s *Server, w http.ResponseWriter, r *http.Request, c *admin.Console, sc screen[T], status int, notice string) {
	data := newListPage(s, r, c, sc, notice)
	name := "base"
	if isHTMX(r) {
		name = "list_body"
	}
	if err := s.render(w, status, name, data, "admin/base.html", "admin/list.html", sc.Items); err != nil {
		s.logger.Error("render list failed", "screen", sc.Name, "error", err)
	}
}

// listFailed shows err above the list, or ends the session on auth errors.
func listFailed[T view.Item](s *Server, w http.ResponseWriter, r *http.Request, c *admin.Console, sc screen[T], err error) {
	if s.endSessionOnAuth(w, r, c, err) {
		return
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("admin list operation failed", "screen", sc.Name, "error", err)
	}
	renderList(s, w, r, c, sc, status, api.Message(err))
}

// forget lets the screen drop per-record state of deleted ids.
func forget[T view.Item](c *admin.Console, sc screen[T], ids ...string) {
	if sc.removed != nil && len(ids) > 0 {
		sc.removed(c, ids...)
	}
}

// contentChanged drops the public blog cache after a blog mutation.
func contentChanged[T view.Item](s *Server, sc screen[T]) {
	if sc.publicContent {
		s.Site.Invalidate()
	}
}

// handleList loads the screen. A submitted filter form (q or status present)
// reloads with both; otherwise the current filters are kept.
func handleList[T view.Item](s *Server, w http.ResponseWriter, r *http.Request, c *admin.Console, sc screen[T]) {
	l := sc.list(c.Workspace)
	q := r.URL.Query()

	if v := q.Get("sort"); v != "" {
		if err := l.SetSort(view.Sort(v)); err != nil {
			listFailed(s, w, r, c, sc, err)
			return
		}
	}
	if q.Get("toggle") == "mode" {
		l.ToggleMode()
	}

	var err error
	if q.Has("q") || q.Has("status") {
		err = l.SetFilters(r.Context(), q.Get("q"), q.Get("status"))
	} else {
		err = l.Mount(r.Context())
	}
	if err != nil {
		listFailed(s, w, r, c, sc, err)
		return
	}
	renderList(s, w, r, c, sc, http.StatusOK, "")
}

func handleSelect[T view.Item](s *Server, w http.ResponseWriter, r *http.Request, c *admin.Console, sc screen[T]) {
	sc.list(c.Workspace).Selection().Toggle(r.PathValue("id"))
	renderList(s, w, r, c, sc, http.StatusOK, "")
}

// handleSelection selects every visible row (action=all) or clears the
// selection (action=clear).
func handleSelection[T view.Item](s *Server, w http.ResponseWriter, r *http.Request, c *admin.Console, sc screen[T]) {
	l := sc.list(c.Workspace)
	switch r.FormValue("action") {
	case "all":
		l.SelectAllVisible()
	case "clear":
		l.Selection().Clear()
	default:
		http.Error(w, "unknown selection action", http.StatusBadRequest)
		return
	}
	renderList(s, w, r, c, sc, http.StatusOK, "")
}

func handleSetStatus[T view.Item](s *Server, w http.ResponseWriter, r *http.Request, c *admin.Console, sc screen[T]) {
	if err := sc.list(c.Workspace).SetStatus(r.Context(), r.PathValue("id"), r.FormValue("status")); err != nil {
		listFailed(s, w, r, c, sc, err)
		return
	}
	contentChanged(s, sc)
	renderList(s, w, r, c, sc, http.StatusOK, "")
}

// confirmed reads the confirmation the browser sends along with a
// destructive request once the operator has accepted the prompt.
func confirmed(r *http.Request) view.ConfirmFunc {
	return func(string) bool { return r.FormValue("confirm") == "yes" }
}

func handleDelete[T view.Item](s *Server, w http.ResponseWriter, r *http.Request, c *admin.Console, sc screen[T]) {
	id := r.PathValue("id")
	if err := sc.list(c.Workspace).Delete(r.Context(), id, confirmed(r)); err != nil {
		listFailed(s, w, r, c, sc, err)
		return
	}
	forget(c, sc, id)
	contentChanged(s, sc)
	renderList(s, w, r, c, sc, http.StatusOK, "Deleted.")
}

// handleBulk applies action=status or action=delete to the selection. A
// partial failure still renders the list, with the succeeded count.
func handleBulk[T view.Item](s *Server, w http.ResponseWriter, r *http.Request, c *admin.Console, sc screen[T]) {
	l := sc.list(c.Workspace)
	var (
		res resource.BulkResult
		err error
	)
	switch r.FormValue("action") {
	case "status":
		res, err = l.BulkStatus(r.Context(), r.FormValue("status"))
	case "delete":
		res, err = l.BulkDelete(r.Context(), confirmed(r))
		forget(c, sc, res.Succeeded...)
	default:
		http.Error(w, "unknown bulk action", http.StatusBadRequest)
		return
	}
	if len(res.Succeeded) > 0 {
		contentChanged(s, sc)
	}

	var bulkErr *resource.BulkError
	if err != nil && (!errors.As(err, &bulkErr) || len(res.Succeeded) == 0 && api.IsAuth(err)) {
		listFailed(s, w, r, c, sc, err)
		return
	}
	renderList(s, w, r, c, sc, http.StatusOK, res.Summary())
}
