package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/db"
	"github.com/vbonduro/shopassist/internal/storage"
)

func TestThemeDefaultsToDark(t *testing.T) {
	mode, err := NewTheme(storage.NewMemory()).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Dark, mode)
}

func TestThemeToggleSurvivesReload(t *testing.T) {
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	store := storage.NewStore(d)
	ctx := context.Background()

	mode, err := NewTheme(store.Scope("device-1")).Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, Light, mode)

	reloaded, err := NewTheme(store.Scope("device-1")).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Light, reloaded)

	other, err := NewTheme(store.Scope("device-2")).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Dark, other)
}

func TestThemeRejectsUnknownMode(t *testing.T) {
	theme := NewTheme(storage.NewMemory())
	err := theme.Set(context.Background(), "sepia")
	assert.Equal(t, api.KindValidation, api.KindOf(err))
}

func TestThemeIgnoresCorruptValue(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(context.Background(), storage.KeyAdminTheme, "neon"))
	mode, err := NewTheme(kv).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Dark, mode)
}
