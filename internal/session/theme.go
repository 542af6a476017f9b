package session

import (
	"context"
	"fmt"

	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/storage"
)

type ThemeMode string

const (
	Light ThemeMode = "light"
	Dark  ThemeMode = "dark"
)

// ParseThemeMode accepts "light" or "dark".
func ParseThemeMode(s string) (ThemeMode, error) {
	switch ThemeMode(s) {
	case Light, Dark:
		return ThemeMode(s), nil
	default:
		return "", api.Invalid(fmt.Errorf("unknown theme %q", s))
	}
}

// Theme is a device's persisted light/dark preference. It defaults to dark.
type Theme struct {
	kv storage.KV
}

func NewTheme(kv storage.KV) *Theme {
	return &Theme{kv: kv}
}

func (t *Theme) Current(ctx context.Context) (ThemeMode, error) {
	v, ok, err := t.kv.Get(ctx, storage.KeyAdminTheme)
	if err != nil {
		return Dark, fmt.Errorf("failed to read theme: %w", err)
	}
	if !ok {
		return Dark, nil
	}
	mode, err := ParseThemeMode(v)
	if err != nil {
		return Dark, nil
	}
	return mode, nil
}

func (t *Theme) Set(ctx context.Context, mode ThemeMode) error {
	if _, err := ParseThemeMode(string(mode)); err != nil {
		return err
	}
	if err := t.kv.Set(ctx, storage.KeyAdminTheme, string(mode)); err != nil {
		return fmt.Errorf("failed to persist theme: %w", err)
	}
	return nil
}

// Toggle flips the theme, persists it and returns the new value.
func (t *Theme) Toggle(ctx context.Context) (ThemeMode, error) {
	cur, err := t.Current(ctx)
	if err != nil {
		return cur, err
	}
	next := Light
	if cur == Light {
		next = Dark
	}
	return next, t.Set(ctx, next)
}
