// Package admin assembles the admin panel's per-device state: the session,
// the theme and one controller plus list screen per resource.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/shopassist/internal/domain"
	"github.com/vbonduro/shopassist/internal/resource"
	"github.com/vbonduro/shopassist/internal/view"
	"golang.org/x/sync/errgroup"
)

type Workspace struct {
	Blogs    *resource.Blogs
	Bookings *resource.DemoBookings
	Media    *resource.Media
	Users    *resource.Users

	BlogList    *view.List[*domain.BlogPost]
	BookingList *view.List[*domain.DemoBooking]
	MediaList   *view.List[*domain.MediaItem]
	UserList    *view.List[*domain.User]
}

func NewWorkspace(t resource.Transport, tokens resource.TokenSource, logger *slog.Logger) *Workspace {
	w := &Workspace{
		Blogs:    resource.NewBlogs(t, tokens, logger),
		Bookings: resource.NewDemoBookings(t, tokens, logger),
		Media:    resource.NewMedia(t, tokens, logger),
		Users:    resource.NewUsers(t, tokens, logger),
	}
	w.BlogList = view.NewList[*domain.BlogPost](w.Blogs, view.ModeList)
	w.BookingList = view.NewList[*domain.DemoBooking](w.Bookings, view.ModeTable)
	w.MediaList = view.NewList[*domain.MediaItem](w.Media, view.ModeList)
	w.UserList = view.NewList[*domain.User](w.Users, view.ModeTable)
	return w
}

// Close cancels in-flight requests of every controller.
func (w *Workspace) Close() {
	w.Blogs.Close()
	w.Bookings.Close()
	w.Media.Close()
	w.Users.Close()
}

type StatusCount struct {
	Status string
	Count  int
}

// Summary is one dashboard tile.
type Summary struct {
	Name     string
	Path     string
	Total    int
	Statuses []StatusCount
}

type Dashboard struct {
	Summaries       []Summary
	PendingBookings []*domain.DemoBooking
}

const recentPending = 5

// Dashboard loads every resource concurrently and counts records by status.
func (w *Workspace) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		blogs    []*domain.BlogPost
		bookings []*domain.DemoBooking
		media    []*domain.MediaItem
		users    []*domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { blogs, err = w.Blogs.List(gctx, ""); return err })
	g.Go(func() (err error) { bookings, err = w.Bookings.List(gctx, ""); return err })
	g.Go(func() (err error) { media, err = w.Media.List(gctx, ""); return err })
	g.Go(func() (err error) { users, err = w.Users.List(gctx, ""); return err })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}

	d := &Dashboard{Summaries: []Summary{
		summarize("Blog posts", "/admin/blogs", domain.BlogStatuses, blogs),
		summarize("Demo bookings", "/admin/demo-bookings", domain.BookingStatuses, bookings),
		summarize("Media", "/admin/media", domain.MediaStatuses, media),
		summarize("Users", "/admin/users", domain.UserStatuses, users),
	}}
	for _, b := range bookings {
		if b.Status == domain.BookingPending && len(d.PendingBookings) < recentPending {
			d.PendingBookings = append(d.PendingBookings, b)
		}
	}
	return d, nil
}

func summarize[T resource.Record](name, path string, statuses []string, items []T) Summary {
	counts := make(map[string]int, len(statuses))
	for _, it := range items {
		counts[it.GetStatus()]++
	}
	s := Summary{Name: name, Path: path, Total: len(items)}
	for _, st := range statuses {
		s.Statuses = append(s.Statuses, StatusCount{Status: st, Count: counts[st]})
	}
	return s
}

// datetimeLocal is the value format of an HTML datetime-local input.
const datetimeLocal = "2006-01-02T15:04"

// BookingPatch turns a booking modal draft into an update. Only operator
// fields are accepted.
func BookingPatch(draft map[string]string) (domain.DemoBookingPatch, error) {
	var p domain.DemoBookingPatch
	for field, value := range draft {
		value = strings.TrimSpace(value)
		switch field {
		case "status":
			if value != "" {
				p.Status = domain.Ptr(value)
			}
		case "adminNotes":
			p.AdminNotes = domain.Ptr(value)
		case "scheduledAt":
			if value == "" {
				continue
			}
			t, err := parseScheduled(value)
			if err != nil {
				return p, fmt.Errorf("scheduledAt: %w", err)
			}
			p.ScheduledAt = &t
		default:
			return p, fmt.Errorf("%s: %w", field, view.ErrReadOnly)
		}
	}
	return p, nil
}

func parseScheduled(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(datetimeLocal, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", v)
	}
	return t, nil
}
