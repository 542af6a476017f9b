package admin

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/vbonduro/shopassist/internal/domain"
	"github.com/vbonduro/shopassist/internal/resource"
	"github.com/vbonduro/shopassist/internal/session"
	"github.com/vbonduro/shopassist/internal/storage"
	"github.com/vbonduro/shopassist/internal/view"
	"golang.org/x/sync/singleflight"
)

// Backend is what the admin panel needs from the API client.
type Backend interface {
	resource.Transport
	session.Authenticator
}

// Console is one device's admin state.
type Console struct {
	DeviceID  string
	Auth      *session.Auth
	Theme     *session.Theme
	Workspace *Workspace

	mu     sync.Mutex
	modals map[string]*view.Modal[*domain.DemoBooking]
}

// OpenBooking starts a fresh detail modal for b in the Viewing state. Only
// one dialog is shown at a time, so any other open modal is discarded.
func (c *Console) OpenBooking(b *domain.DemoBooking) *view.Modal[*domain.DemoBooking] {
	m := view.NewModal(b, domain.BookingUserFields)
	c.mu.Lock()
	clear(c.modals)
	c.modals[b.ID] = m
	c.mu.Unlock()
	return m
}

// Booking returns the open modal for id, if any.
func (c *Console) Booking(id string) (*view.Modal[*domain.DemoBooking], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.modals[id]
	return m, ok
}

// CloseBooking drops the modals of ids, e.g. after the bookings were deleted.
func (c *Console) CloseBooking(ids ...string) {
	c.mu.Lock()
	for _, id := range ids {
		delete(c.modals, id)
	}
	c.mu.Unlock()
}

func (c *Console) Close() {
	c.Workspace.Close()
}

// Registry hands out one Console per device. Idle consoles expire and their
// in-flight requests are cancelled; the persisted session survives and is
// restored on the next visit.
type Registry struct {
	backend Backend
	store   *storage.Store
	logger  *slog.Logger
	opts    []session.Option

	group    singleflight.Group
	consoles *expirable.LRU[string, *Console]
}

func NewRegistry(backend Backend, store *storage.Store, size int, ttl time.Duration, logger *slog.Logger, opts ...session.Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		backend: backend,
		store:   store,
		logger:  logger,
		opts:    opts,
		consoles: expirable.NewLRU[string, *Console](size, func(_ string, c *Console) {
			c.Close()
		}, ttl),
	}
}

// Get returns the device's console, restoring its session on first use.
func (r *Registry) Get(ctx context.Context, deviceID string) (*Console, error) {
	if c, ok := r.consoles.Get(deviceID); ok {
		return c, nil
	}

	v, err, _ := r.group.Do(deviceID, func() (any, error) {
		if c, ok := r.consoles.Get(deviceID); ok {
			return c, nil
		}
		kv := r.store.Scope(deviceID)
		logger := r.logger.With("device_id", deviceID)
		auth := session.NewAuth(r.backend, kv, logger, r.opts...)

		// Restoring must not be cut short by the request that happened to
		// trigger it.
		if err := auth.Init(context.WithoutCancel(ctx)); err != nil {
			return nil, err
		}
		c := &Console{
			DeviceID:  deviceID,
			Auth:      auth,
			Theme:     session.NewTheme(kv),
			Workspace: NewWorkspace(r.backend, auth, logger),
			modals:    make(map[string]*view.Modal[*domain.DemoBooking]),
		}
		r.consoles.Add(deviceID, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Console), nil
}

// Close drops every console.
func (r *Registry) Close() {
	r.consoles.Purge()
}
