package admin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/backendtest"
	"github.com/vbonduro/shopassist/internal/db"
	"github.com/vbonduro/shopassist/internal/domain"
	"github.com/vbonduro/shopassist/internal/storage"
	"github.com/vbonduro/shopassist/internal/view"
)

func newRegistry(t *testing.T) (*backendtest.Backend, *storage.Store, *Registry) {
	t.Helper()
	b := backendtest.New(t)
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	store := storage.NewStore(d)
	reg := NewRegistry(api.New(b.URL()), store, 16, time.Hour, nil)
	t.Cleanup(reg.Close)
	return b, store, reg
}

func TestRegistryReturnsOneConsolePerDevice(t *testing.T) {
	_, _, reg := newRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	consoles := make([]*Console, 8)
	for i := range consoles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := reg.Get(ctx, "device-1")
			assert.NoError(t, err)
			consoles[i] = c
		}()
	}
	wg.Wait()
	for _, c := range consoles {
		assert.Same(t, consoles[0], c)
	}

	other, err := reg.Get(ctx, "device-2")
	require.NoError(t, err)
	assert.NotSame(t, consoles[0], other)
}

func TestRegistryRestoresPersistedSession(t *testing.T) {
	b, store, reg := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "device-1", storage.KeyAdminToken, b.IssueToken()))

	c, err := reg.Get(ctx, "device-1")
	require.NoError(t, err)
	assert.False(t, c.Auth.Loading())
	assert.True(t, c.Auth.IsAuthenticated())

	anon, err := reg.Get(ctx, "device-2")
	require.NoError(t, err)
	assert.False(t, anon.Auth.IsAuthenticated())
}

func TestDashboardCountsByStatus(t *testing.T) {
	b, _, reg := newRegistry(t)
	ctx := context.Background()
	b.Seed(backendtest.Blogs, map[string]any{"title": "a", "slug": "a", "status": "published"})
	b.Seed(backendtest.Blogs, map[string]any{"title": "b", "slug": "b"})
	b.Seed(backendtest.DemoBookings, map[string]any{"name": "Alex", "email": "a@b.com"})
	b.Seed(backendtest.DemoBookings, map[string]any{"name": "Sam", "email": "s@b.com", "status": "completed"})
	b.Seed(backendtest.Users, map[string]any{"email": "u@b.com", "role": "viewer"})

	c, err := reg.Get(ctx, "device-1")
	require.NoError(t, err)
	require.NoError(t, c.Auth.Login(ctx, backendtest.DefaultEmail, backendtest.DefaultPassword))

	d, err := c.Workspace.Dashboard(ctx)
	require.NoError(t, err)
	require.Len(t, d.Summaries, 4)

	blogs := d.Summaries[0]
	assert.Equal(t, 2, blogs.Total)
	assert.Equal(t, []StatusCount{{domain.BlogDraft, 1}, {domain.BlogPublished, 1}}, blogs.Statuses)

	assert.Equal(t, 2, d.Summaries[1].Total)
	assert.Equal(t, 0, d.Summaries[2].Total)
	assert.Equal(t, 1, d.Summaries[3].Total)
	require.Len(t, d.PendingBookings, 1)
	assert.Equal(t, "Alex", d.PendingBookings[0].Name)
}

func TestDashboardRequiresLogin(t *testing.T) {
	_, _, reg := newRegistry(t)
	c, err := reg.Get(context.Background(), "device-1")
	require.NoError(t, err)

	_, err = c.Workspace.Dashboard(context.Background())
	assert.True(t, api.IsAuth(err))
}

func TestBookingModalLifecycle(t *testing.T) {
	_, _, reg := newRegistry(t)
	c, err := reg.Get(context.Background(), "device-1")
	require.NoError(t, err)

	m := c.OpenBooking(&domain.DemoBooking{ID: "b1", Name: "Alex"})
	assert.Equal(t, view.Viewing, m.State())
	got, ok := c.Booking("b1")
	require.True(t, ok)
	assert.Same(t, m, got)

	c.CloseBooking("b1")
	_, ok = c.Booking("b1")
	assert.False(t, ok)

	c.OpenBooking(&domain.DemoBooking{ID: "b1", Name: "Alex"})
	c.OpenBooking(&domain.DemoBooking{ID: "b2", Name: "Sam"})
	_, ok = c.Booking("b1")
	assert.False(t, ok, "opening another booking replaces the dialog")
	_, ok = c.Booking("b2")
	assert.True(t, ok)
}

func TestBookingPatch(t *testing.T) {
	p, err := BookingPatch(map[string]string{
		"status":      "scheduled",
		"scheduledAt": "2026-05-01T14:30",
		"adminNotes":  " call first ",
	})
	require.NoError(t, err)
	assert.Equal(t, "scheduled", *p.Status)
	assert.Equal(t, time.Date(2026, 5, 1, 14, 30, 0, 0, time.UTC), *p.ScheduledAt)
	assert.Equal(t, "call first", *p.AdminNotes)
	assert.NoError(t, p.Validate())

	_, err = BookingPatch(map[string]string{"email": "x@y.com"})
	assert.ErrorIs(t, err, view.ErrReadOnly)

	_, err = BookingPatch(map[string]string{"scheduledAt": "next tuesday"})
	assert.Error(t, err)
}
