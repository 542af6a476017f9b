package view

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/backendtest"
	"github.com/vbonduro/shopassist/internal/domain"
	"github.com/vbonduro/shopassist/internal/resource"
)

func always(string) bool { return true }

func newBookingList(t *testing.T) (*backendtest.Backend, *List[*domain.DemoBooking]) {
	t.Helper()
	b := backendtest.New(t)
	token := b.IssueToken()
	ctrl := resource.NewDemoBookings(api.New(b.URL()), resource.TokenFunc(func() string { return token }), nil)
	t.Cleanup(ctrl.Close)
	return b, NewList[*domain.DemoBooking](ctrl, ModeTable)
}

func labels(items []*domain.DemoBooking) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label()
	}
	return out
}

func TestVisibleSortsNewestFirstByDefault(t *testing.T) {
	b, list := newBookingList(t)
	b.Seed(backendtest.DemoBookings, map[string]any{"name": "First", "email": "f@example.com"})
	b.Seed(backendtest.DemoBookings, map[string]any{"name": "Second", "email": "s@example.com"})
	require.NoError(t, list.Mount(context.Background()))

	assert.Equal(t, []string{"Second", "First"}, labels(list.Visible()))

	require.NoError(t, list.SetSort(SortOldest))
	assert.Equal(t, []string{"First", "Second"}, labels(list.Visible()))

	require.NoError(t, list.SetSort(SortTitle))
	assert.Equal(t, []string{"First", "Second"}, labels(list.Visible()))

	assert.ErrorIs(t, list.SetSort("random"), ErrUnknownSort)
}

func TestSubmitFiltersServerAndLocally(t *testing.T) {
	b, list := newBookingList(t)
	b.Seed(backendtest.DemoBookings, map[string]any{"name": "Alex", "email": "alex@acme.com", "company": "Acme"})
	b.Seed(backendtest.DemoBookings, map[string]any{"name": "Robin", "email": "robin@globex.com", "company": "Globex"})
	ctx := context.Background()
	require.NoError(t, list.Mount(ctx))
	require.Len(t, list.Visible(), 2)

	require.NoError(t, list.Submit(ctx, "  acme "))
	assert.Equal(t, "acme", list.Query())
	assert.Equal(t, []string{"Alex"}, labels(list.Visible()))

	require.NoError(t, list.Submit(ctx, ""))
	assert.Len(t, list.Visible(), 2)
}

func TestStatusFilter(t *testing.T) {
	b, list := newBookingList(t)
	b.Seed(backendtest.DemoBookings, map[string]any{"name": "Pending", "email": "p@example.com"})
	b.Seed(backendtest.DemoBookings, map[string]any{"name": "Done", "email": "d@example.com", "status": "completed"})
	ctx := context.Background()

	require.NoError(t, list.SetStatusFilter(ctx, domain.BookingCompleted))
	assert.Equal(t, []string{"Done"}, labels(list.Visible()))

	err := list.SetStatusFilter(ctx, "lost")
	assert.Equal(t, api.KindValidation, api.KindOf(err))
	assert.Equal(t, domain.BookingCompleted, list.Status())
}

func TestSetFiltersAppliesBoth(t *testing.T) {
	b, list := newBookingList(t)
	b.Seed(backendtest.DemoBookings, map[string]any{"name": "Alex", "email": "alex@acme.com", "company": "Acme"})
	b.Seed(backendtest.DemoBookings, map[string]any{"name": "Ann", "email": "ann@acme.com", "company": "Acme", "status": "completed"})
	ctx := context.Background()
	before := b.Requests()

	require.NoError(t, list.SetFilters(ctx, "acme", domain.BookingCompleted))
	assert.Equal(t, before+1, b.Requests())
	assert.Equal(t, []string{"Ann"}, labels(list.Visible()))
}

func TestToggleMode(t *testing.T) {
	_, list := newBookingList(t)
	assert.Equal(t, ModeGrid, list.Mode())
	assert.Equal(t, ModeTable, list.ToggleMode())
	assert.Equal(t, ModeGrid, list.ToggleMode())
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	b, list := newBookingList(t)
	id := b.Seed(backendtest.DemoBookings, map[string]any{"name": "Alex", "email": "a@b.com"})
	ctx := context.Background()
	require.NoError(t, list.Mount(ctx))
	list.Selection().Add(id)

	var asked string
	err := list.Delete(ctx, id, func(label string) bool {
		asked = label
		return false
	})
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, "Alex", asked)
	assert.Equal(t, 1, b.Count(backendtest.DemoBookings))

	assert.ErrorIs(t, list.Delete(ctx, id, nil), ErrNotConfirmed)

	require.NoError(t, list.Delete(ctx, id, always))
	assert.Empty(t, list.Visible())
	assert.False(t, list.Selection().Has(id))
	assert.Equal(t, 0, b.Count(backendtest.DemoBookings))
}

func TestBulkStatusKeepsFailedSelection(t *testing.T) {
	b, list := newBookingList(t)
	ok := b.Seed(backendtest.DemoBookings, map[string]any{"name": "Ok", "email": "ok@example.com"})
	bad := b.Seed(backendtest.DemoBookings, map[string]any{"name": "Bad", "email": "bad@example.com"})
	b.FailIDs(bad)
	ctx := context.Background()
	require.NoError(t, list.Mount(ctx))

	_, err := list.BulkStatus(ctx, domain.BookingScheduled)
	assert.ErrorIs(t, err, ErrEmptySelection)

	list.SelectAllVisible()
	require.Equal(t, 2, list.Selection().Len())

	res, err := list.BulkStatus(ctx, domain.BookingScheduled)
	require.Error(t, err)
	assert.Equal(t, []string{ok}, res.Succeeded)
	assert.Equal(t, []string{bad}, list.Selection().IDs())
	assert.Equal(t, "1 of 2 succeeded", list.Err())
}

func TestBulkDeleteClearsSelectionOnSuccess(t *testing.T) {
	b, list := newBookingList(t)
	b.Seed(backendtest.DemoBookings, map[string]any{"name": "A", "email": "a@example.com"})
	b.Seed(backendtest.DemoBookings, map[string]any{"name": "B", "email": "b@example.com"})
	ctx := context.Background()
	require.NoError(t, list.Mount(ctx))
	list.SelectAllVisible()

	var asked string
	_, err := list.BulkDelete(ctx, func(label string) bool { asked = label; return false })
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, "2 items", asked)

	_, err = list.BulkDelete(ctx, always)
	require.NoError(t, err)
	assert.Equal(t, 0, list.Selection().Len())
	assert.Empty(t, list.Visible())
}

func TestSelection(t *testing.T) {
	s := NewSelection()
	assert.True(t, s.Toggle("b"))
	s.Add("a", "c")
	assert.Equal(t, []string{"a", "b", "c"}, s.IDs())
	assert.False(t, s.Toggle("b"))
	assert.False(t, s.Has("b"))
	s.Remove("a")
	assert.Equal(t, 1, s.Len())
	s.Clear()
	assert.Equal(t, 0, s.Len())
}
