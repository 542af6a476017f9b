package view

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/shopassist/internal/domain"
)

func newBookingModal() *Modal[*domain.DemoBooking] {
	return NewModal(&domain.DemoBooking{ID: "b1", Name: "Alex", Status: domain.BookingPending}, domain.BookingUserFields)
}

func TestModalOpensInViewing(t *testing.T) {
	m := newBookingModal()
	assert.Equal(t, Viewing, m.State())
	assert.ErrorIs(t, m.Cancel(), ErrInvalidTransition)
	assert.ErrorIs(t, m.Set("status", "scheduled"), ErrInvalidTransition)
}

func TestModalCancelDropsEdits(t *testing.T) {
	m := newBookingModal()
	require.NoError(t, m.Edit())
	require.NoError(t, m.Set("adminNotes", "call back"))
	assert.Equal(t, map[string]string{"adminNotes": "call back"}, m.Draft())

	require.NoError(t, m.Cancel())
	assert.Equal(t, Viewing, m.State())
	assert.Empty(t, m.Draft())
}

func TestModalUserFieldsAreReadOnly(t *testing.T) {
	m := newBookingModal()
	require.NoError(t, m.Edit())
	for _, f := range domain.BookingUserFields {
		assert.ErrorIs(t, m.Set(f, "changed"), ErrReadOnly, f)
	}
	assert.NoError(t, m.Set("status", domain.BookingScheduled))
}

func TestModalSaveSuccessReturnsToViewing(t *testing.T) {
	m := newBookingModal()
	require.NoError(t, m.Edit())
	require.NoError(t, m.Set("status", domain.BookingScheduled))

	err := m.Save(context.Background(), func(_ context.Context, draft map[string]string) (*domain.DemoBooking, error) {
		assert.Equal(t, Saving, m.State())
		return &domain.DemoBooking{ID: "b1", Name: "Alex", Status: draft["status"]}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, Viewing, m.State())
	assert.Equal(t, domain.BookingScheduled, m.Record().Status)
	assert.Empty(t, m.Err())
}

func TestModalSaveFailureStaysEditing(t *testing.T) {
	m := newBookingModal()
	require.NoError(t, m.Edit())
	require.NoError(t, m.Set("adminNotes", "vip"))

	err := m.Save(context.Background(), func(context.Context, map[string]string) (*domain.DemoBooking, error) {
		return nil, errors.New("backend unavailable")
	})
	require.Error(t, err)
	assert.Equal(t, Editing, m.State())
	assert.Equal(t, "backend unavailable", m.Err())
	assert.Equal(t, "vip", m.Draft()["adminNotes"])
	assert.Equal(t, domain.BookingPending, m.Record().Status)
}

func TestModalSaveOutsideEditing(t *testing.T) {
	m := newBookingModal()
	err := m.Save(context.Background(), func(context.Context, map[string]string) (*domain.DemoBooking, error) {
		t.Fatal("save must not run")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
