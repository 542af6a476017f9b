// Package resource implements the CRUD controller shared by every admin
// screen. A Controller keeps a read-your-writes cache of one resource
// collection: reads replace it, and mutations patch it only after the backend
// confirms them. There is no cross-client consistency; concurrent changes made
// elsewhere show up on the next read.
package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"

	"github.com/vbonduro/shopassist/internal/api"
	"go.uber.org/atomic"
)

// Record is the minimum a backend record exposes to the controller.
type Record interface {
	GetID() string
	GetStatus() string
}

// Transport is the subset of api.Client a Controller requires.
type Transport interface {
	Do(ctx context.Context, method, path string, body any, token string, out any) error
	Upload(ctx context.Context, path, field string, files []api.File, token string, out any) error
}

// TokenSource yields the current bearer token, or "" when logged out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// ErrClosed is returned by operations started after Close.
var ErrClosed = errors.New("resource controller closed")

const defaultBulkConcurrency = 8

// Config describes one resource collection on the backend.
type Config[P any] struct {
	// Name is used in log lines.
	Name string
	// Path is the collection path, e.g. "/api/blogs".
	Path string
	// SearchPath serves ?q= and ?status= searches. Defaults to Path+"/search".
	SearchPath string
	// UploadPath and UploadManyPath accept multipart uploads for resources
	// that are created from files.
	UploadPath     string
	UploadManyPath string
	// Statuses is the closed set of legal status values.
	Statuses []string
	// StatusPatch builds the partial record that changes only the status.
	StatusPatch func(status string) P
	// ValidateCreate and Validate check a patch before Create or Update
	// sends it. Both are optional.
	ValidateCreate func(p P) error
	Validate       func(p P) error
	// BulkConcurrency bounds in-flight requests in bulk operations.
	BulkConcurrency int
}

type Controller[T Record, P any] struct {
	transport Transport
	tokens    TokenSource
	cfg       Config[P]
	logger    *slog.Logger

	lifetime context.Context
	cancel   context.CancelFunc
	inFlight atomic.Int32

	mu     sync.Mutex
	items  []T
	errMsg string
	closed bool
}

func New[T Record, P any](transport Transport, tokens TokenSource, cfg Config[P], logger *slog.Logger) *Controller[T, P] {
	if cfg.SearchPath == "" {
		cfg.SearchPath = cfg.Path + "/search"
	}
	if cfg.BulkConcurrency <= 0 {
		cfg.BulkConcurrency = defaultBulkConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	lifetime, cancel := context.WithCancel(context.Background())
	return &Controller[T, P]{
		transport: transport,
		tokens:    tokens,
		cfg:       cfg,
		logger:    logger.With("resource", cfg.Name),
		lifetime:  lifetime,
		cancel:    cancel,
	}
}

// Close ends the controller's lifetime. In-flight requests are cancelled and
// their completions no longer touch the cache or error state.
func (c *Controller[T, P]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

// Items returns a copy of the cached collection.
func (c *Controller[T, P]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Err returns the message of the most recent failure, or "".
func (c *Controller[T, P]) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Loading reports whether any request is in flight.
func (c *Controller[T, P]) Loading() bool {
	return c.inFlight.Load() > 0
}

func (c *Controller[T, P]) Statuses() []string {
	return c.cfg.Statuses
}

// begin derives a request context that is also cancelled when the controller
// closes, clears the previous error and marks the controller loading.
func (c *Controller[T, P]) begin(ctx context.Context) (context.Context, func(), error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, nil, ErrClosed
	}
	c.errMsg = ""
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.lifetime, cancel)
	c.inFlight.Inc()
	return ctx, func() {
		stop()
		cancel()
		c.inFlight.Dec()
	}, nil
}

// commit applies fn to the cache unless the controller has closed.
func (c *Controller[T, P]) commit(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	fn()
}

// fail records err as the visible error state and returns it.
func (c *Controller[T, P]) fail(op string, err error) error {
	c.commit(func() { c.errMsg = api.Message(err) })
	c.logger.Warn("resource operation failed", "op", op, "kind", api.KindOf(err).String(), "error", err)
	return err
}

// requireToken returns the current token or fails with an auth error.
func (c *Controller[T, P]) requireToken(op string) (string, error) {
	token := c.tokens.Token()
	if token == "" {
		return "", c.fail(op, api.ErrNotAuthenticated)
	}
	return token, nil
}

func (c *Controller[T, P]) validate(op string, check func(P) error, p P) error {
	if check == nil {
		return nil
	}
	if err := check(p); err != nil {
		return c.fail(op, api.Invalid(err))
	}
	return nil
}

func (c *Controller[T, P]) recordPath(id string) string {
	return c.cfg.Path + "/" + url.PathEscape(id)
}

// List loads the collection, optionally filtered server-side by status, and
// replaces the cache.
func (c *Controller[T, P]) List(ctx context.Context, status string) ([]T, error) {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	path := c.cfg.Path
	if status != "" {
		path += "?" + url.Values{"status": {status}}.Encode()
	}

	var items []T
	if err := c.transport.Do(ctx, http.MethodGet, path, nil, c.tokens.Token(), &items); err != nil {
		return nil, c.fail("list", err)
	}
	c.commit(func() { c.items = slices.Clone(items) })
	return items, nil
}

// Get fetches one record without touching the cache.
func (c *Controller[T, P]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return zero, err
	}
	defer done()

	var rec T
	if err := c.transport.Do(ctx, http.MethodGet, c.recordPath(id), nil, c.tokens.Token(), &rec); err != nil {
		return zero, c.fail("get", err)
	}
	return rec, nil
}

// Create sends a partial record; the backend assigns id and timestamps. The
// created record is prepended to the cache.
func (c *Controller[T, P]) Create(ctx context.Context, p P) (T, error) {
	var zero T
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return zero, err
	}
	defer done()

	token, err := c.requireToken("create")
	if err != nil {
		return zero, err
	}
	if err := c.validate("create", c.cfg.ValidateCreate, p); err != nil {
		return zero, err
	}

	var rec T
	if err := c.transport.Do(ctx, http.MethodPost, c.cfg.Path, p, token, &rec); err != nil {
		return zero, c.fail("create", err)
	}
	c.commit(func() { c.items = append([]T{rec}, c.items...) })
	return rec, nil
}

// Update sends only the supplied fields and replaces the cached record with
// the backend's response.
func (c *Controller[T, P]) Update(ctx context.Context, id string, p P) (T, error) {
	var zero T
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return zero, err
	}
	defer done()

	token, err := c.requireToken("update")
	if err != nil {
		return zero, err
	}
	if err := c.validate("update", c.cfg.Validate, p); err != nil {
		return zero, err
	}

	rec, err := c.put(ctx, id, p, token)
	if err != nil {
		return zero, c.fail("update", err)
	}
	c.commit(func() { c.replace(id, rec) })
	return rec, nil
}

// UpdateStatus is Update with only the status field set.
func (c *Controller[T, P]) UpdateStatus(ctx context.Context, id, status string) (T, error) {
	p, err := c.statusPatch(status)
	if err != nil {
		var zero T
		return zero, c.fail("update", err)
	}
	return c.Update(ctx, id, p)
}

// Delete removes the record on the backend and then from the cache.
func (c *Controller[T, P]) Delete(ctx context.Context, id string) error {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	token, err := c.requireToken("delete")
	if err != nil {
		return err
	}
	if err := c.transport.Do(ctx, http.MethodDelete, c.recordPath(id), nil, token, nil); err != nil {
		return c.fail("delete", err)
	}
	c.commit(func() { c.remove(id) })
	return nil
}

// Search runs a server-side keyword search and replaces the cache with the
// results. An empty query is a plain List.
func (c *Controller[T, P]) Search(ctx context.Context, query, status string) ([]T, error) {
	if query == "" {
		return c.List(ctx, status)
	}
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	params := url.Values{"q": {query}}
	if status != "" {
		params.Set("status", status)
	}

	var items []T
	if err := c.transport.Do(ctx, http.MethodGet, c.cfg.SearchPath+"?"+params.Encode(), nil, c.tokens.Token(), &items); err != nil {
		return nil, c.fail("search", err)
	}
	c.commit(func() { c.items = slices.Clone(items) })
	return items, nil
}

// Upload creates records from files. One file is sent as "image" to
// UploadPath, several as "images" to UploadManyPath.
func (c *Controller[T, P]) Upload(ctx context.Context, files []api.File) ([]T, error) {
	if c.cfg.UploadPath == "" {
		return nil, fmt.Errorf("%s does not accept uploads", c.cfg.Name)
	}
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	token, err := c.requireToken("upload")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, c.fail("upload", api.Invalid(errors.New("select at least one file")))
	}

	var created []T
	if len(files) == 1 || c.cfg.UploadManyPath == "" {
		for _, f := range files {
			var rec T
			if err := c.transport.Upload(ctx, c.cfg.UploadPath, "image", []api.File{f}, token, &rec); err != nil {
				return nil, c.fail("upload", err)
			}
			created = append(created, rec)
		}
	} else {
		if err := c.transport.Upload(ctx, c.cfg.UploadManyPath, "images", files, token, &created); err != nil {
			return nil, c.fail("upload", err)
		}
	}

	c.commit(func() { c.items = append(append([]T{}, created...), c.items...) })
	return created, nil
}

func (c *Controller[T, P]) put(ctx context.Context, id string, p P, token string) (T, error) {
	var rec T
	err := c.transport.Do(ctx, http.MethodPut, c.recordPath(id), p, token, &rec)
	return rec, err
}

func (c *Controller[T, P]) statusPatch(status string) (P, error) {
	var zero P
	if c.cfg.StatusPatch == nil {
		return zero, fmt.Errorf("%s has no status field", c.cfg.Name)
	}
	if len(c.cfg.Statuses) > 0 && !slices.Contains(c.cfg.Statuses, status) {
		return zero, api.Invalid(fmt.Errorf("invalid status %q", status))
	}
	return c.cfg.StatusPatch(status), nil
}

// replace swaps the cached record with id for rec. A record that is no longer
// cached (deleted while the update was in flight) is not re-added.
func (c *Controller[T, P]) replace(id string, rec T) {
	for i, item := range c.items {
		if item.GetID() == id {
			c.items[i] = rec
			return
		}
	}
}

func (c *Controller[T, P]) remove(id string) {
	kept := c.items[:0]
	for _, item := range c.items {
		if item.GetID() != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
}
