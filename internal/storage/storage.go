// Package storage persists the small per-browser values the site needs
// between visits: the admin token and user, the theme, and the anonymous
// chat identifiers. Values are keyed by a device id carried in a cookie.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

const (
	KeyAdminToken     = "admin_token"
	KeyAdminUser      = "admin_user"
	KeyAdminTheme     = "admin_theme"
	KeyAnonUserID     = "anon_user_id"
	KeyConversationID = "conversation_id"
)

// KV is the view of storage that belongs to a single device.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, deviceID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM device_storage WHERE device_id = ? AND key = ?
	`, deviceID, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, deviceID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_storage (device_id, key, value, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT (device_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, deviceID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, deviceID, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM device_storage WHERE device_id = ? AND key = ?
	`, deviceID, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Scope returns the KV for one device.
func (s *Store) Scope(deviceID string) KV {
	return &scoped{store: s, deviceID: deviceID}
}

type scoped struct {
	store    *Store
	deviceID string
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.deviceID, key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.deviceID, key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, s.deviceID, key)
}

// Memory is an in-process KV, used in tests and when no database is wanted.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
