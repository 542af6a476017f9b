package web

import (
	"context"
	"net/http"

	"github.com/vbonduro/shopassist/internal/admin"
	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/domain"
	"github.com/vbonduro/shopassist/internal/view"
)

type bookingModalView struct {
	Booking    *domain.DemoBooking
	State      string
	Editing    bool
	Draft      map[string]string
	UserFields []string
	Statuses   []string
	Err        string
}

func (s *Server) renderBookingModal(w http.ResponseWriter, status int, m *view.Modal[*domain.DemoBooking]) {
	st := m.State()
	v := bookingModalView{
		Booking:    m.Record(),
		State:      st.String(),
		Editing:    st == view.Editing,
		Draft:      m.Draft(),
		UserFields: domain.BookingUserFields,
		Statuses:   domain.BookingStatuses,
		Err:        m.Err(),
	}
	if err := s.renderPartialStatus(w, status, "admin/booking_modal.html", v); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

// handleBookingModal opens the detail dialog on a freshly loaded record.
// With ?mode=edit it switches to editing; an edit already in progress keeps
// its draft. Without it any pending edit is dropped.
func (s *Server) handleBookingModal(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	id := r.PathValue("id")
	edit := r.URL.Query().Get("mode") == "edit"
	if m, ok := c.Booking(id); ok && edit && m.State() == view.Editing {
		s.renderBookingModal(w, http.StatusOK, m)
		return
	}

	b, err := c.Workspace.Bookings.Get(r.Context(), id)
	if err != nil {
		if api.IsNotFound(err) {
			c.CloseBooking(id)
		}
		s.adminFailed(w, r, c, err)
		return
	}
	m := c.OpenBooking(b)
	if edit {
		if err := m.Edit(); err != nil {
			s.adminFailed(w, r, c, err)
			return
		}
	}
	s.renderBookingModal(w, http.StatusOK, m)
}

// handleBookingSave copies the posted operator fields into the draft and
// saves it. Posting a visitor field is rejected before anything is sent.
func (s *Server) handleBookingSave(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	id := r.PathValue("id")
	m, ok := c.Booking(id)
	if !ok || m.State() != view.Editing {
		http.Error(w, "booking is not being edited", http.StatusConflict)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	for field := range r.PostForm {
		if err := m.Set(field, r.PostForm.Get(field)); err != nil {
			s.adminFailed(w, r, c, err)
			return
		}
	}

	err := m.Save(r.Context(), func(ctx context.Context, draft map[string]string) (*domain.DemoBooking, error) {
		p, err := admin.BookingPatch(draft)
		if err != nil {
			return nil, api.Invalid(err)
		}
		return c.Workspace.Bookings.Update(ctx, id, p)
	})
	if err != nil {
		if api.IsNotFound(err) {
			c.CloseBooking(id)
			s.adminFailed(w, r, c, err)
			return
		}
		if s.endSessionOnAuth(w, r, c, err) {
			return
		}
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("save booking failed", "booking_id", id, "error", err)
		}
		s.renderBookingModal(w, status, m)
		return
	}
	s.renderBookingModal(w, http.StatusOK, m)
}
