package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/backendtest"
	"github.com/vbonduro/shopassist/internal/domain"
)

func seedBookings(t *testing.T, b *backendtest.Backend, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, n := range names {
		ids = append(ids, b.Seed(backendtest.DemoBookings, map[string]any{"name": n, "email": n + "@example.com"}))
	}
	return ids
}

func statusByID(items []*domain.DemoBooking) map[string]string {
	out := make(map[string]string, len(items))
	for _, it := range items {
		out[it.ID] = it.Status
	}
	return out
}

func TestBulkUpdateStatusReconcilesPerItem(t *testing.T) {
	b, client, tokens := setup(t)
	ids := seedBookings(t, b, "ann", "bob", "cat")
	b.FailIDs(ids[1])

	ctrl := NewDemoBookings(client, tokens, nil)
	defer ctrl.Close()
	ctx := context.Background()
	_, err := ctrl.List(ctx, "")
	require.NoError(t, err)

	res, err := ctrl.BulkUpdateStatus(ctx, ids, domain.BookingScheduled)
	require.Error(t, err)

	var bulkErr *BulkError
	require.True(t, errors.As(err, &bulkErr))
	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, []string{ids[0], ids[2]}, res.Succeeded)
	assert.Contains(t, res.Failed, ids[1])
	assert.Equal(t, "2 of 3 succeeded", ctrl.Err())

	statuses := statusByID(ctrl.Items())
	assert.Equal(t, domain.BookingScheduled, statuses[ids[0]])
	assert.Equal(t, domain.BookingPending, statuses[ids[1]])
	assert.Equal(t, domain.BookingScheduled, statuses[ids[2]])
}

func TestBulkUpdateStatusAllSucceed(t *testing.T) {
	b, client, tokens := setup(t)
	ids := seedBookings(t, b, "ann", "bob")

	ctrl := NewDemoBookings(client, tokens, nil)
	defer ctrl.Close()
	ctx := context.Background()
	_, err := ctrl.List(ctx, "")
	require.NoError(t, err)

	res, err := ctrl.BulkUpdateStatus(ctx, append(ids, ids[0]), domain.BookingCancelled)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Requested)
	assert.Len(t, res.Succeeded, 2)
	assert.Empty(t, ctrl.Err())

	for _, status := range statusByID(ctrl.Items()) {
		assert.Equal(t, domain.BookingCancelled, status)
	}
}

func TestBulkUpdateStatusRejectsUnknownStatus(t *testing.T) {
	b, client, tokens := setup(t)
	ids := seedBookings(t, b, "ann")

	ctrl := NewDemoBookings(client, tokens, nil)
	defer ctrl.Close()

	before := b.Requests()
	_, err := ctrl.BulkUpdateStatus(context.Background(), ids, "bogus")
	require.Error(t, err)
	assert.Equal(t, api.KindValidation, api.KindOf(err))
	assert.Equal(t, before, b.Requests())
}

func TestBulkDeleteReconcilesPerItem(t *testing.T) {
	b, client, tokens := setup(t)
	ids := seedBookings(t, b, "ann", "bob", "cat", "dan")
	b.FailIDs(ids[0], ids[3])

	ctrl := NewDemoBookings(client, tokens, nil)
	defer ctrl.Close()
	ctx := context.Background()
	_, err := ctrl.List(ctx, "")
	require.NoError(t, err)

	res, err := ctrl.BulkDelete(ctx, ids)
	require.Error(t, err)
	assert.Equal(t, "2 of 4 succeeded", err.Error())
	assert.Equal(t, []string{ids[1], ids[2]}, res.Succeeded)
	assert.Len(t, res.Failed, 2)

	remaining := statusByID(ctrl.Items())
	assert.Len(t, remaining, 2)
	assert.Contains(t, remaining, ids[0])
	assert.Contains(t, remaining, ids[3])
	assert.Equal(t, 2, b.Count(backendtest.DemoBookings))
}

func TestBulkDeleteWithoutToken(t *testing.T) {
	b := backendtest.New(t)
	ids := seedBookings(t, b, "ann")
	ctrl := NewDemoBookings(api.New(b.URL()), TokenFunc(func() string { return "" }), nil)
	defer ctrl.Close()

	_, err := ctrl.BulkDelete(context.Background(), ids)
	require.ErrorIs(t, err, api.ErrNotAuthenticated)
	assert.Equal(t, 1, b.Count(backendtest.DemoBookings))
}
