// Package view holds the per-screen state of the admin panel: the list
// screens shared by every resource and the booking detail modal.
package view

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/resource"
)

// Item is a record that can be shown in a list screen.
type Item interface {
	resource.Record
	Label() string
	Created() time.Time
	SearchFields() []string
}

// Source is the part of a resource controller a List drives.
type Source[T Item] interface {
	Items() []T
	Err() string
	Loading() bool
	Statuses() []string
	List(ctx context.Context, status string) ([]T, error)
	Search(ctx context.Context, query, status string) ([]T, error)
	UpdateStatus(ctx context.Context, id, status string) (T, error)
	Delete(ctx context.Context, id string) error
	BulkUpdateStatus(ctx context.Context, ids []string, status string) (resource.BulkResult, error)
	BulkDelete(ctx context.Context, ids []string) (resource.BulkResult, error)
}

type Sort string

const (
	SortNewest Sort = "newest"
	SortOldest Sort = "oldest"
	SortTitle  Sort = "title"
)

type Mode string

const (
	ModeGrid  Mode = "grid"
	ModeList  Mode = "list"
	ModeTable Mode = "table"
)

// ConfirmFunc asks the operator to confirm a destructive action on label.
type ConfirmFunc func(label string) bool

var (
	ErrNotConfirmed   = errors.New("action not confirmed")
	ErrEmptySelection = errors.New("no items selected")
	ErrUnknownSort    = errors.New("unknown sort order")
)

// List is the state behind one resource screen. The search query only takes
// effect on Submit; the status filter and sort apply immediately.
type List[T Item] struct {
	src       Source[T]
	alt       Mode
	selection *Selection

	mu     sync.Mutex
	query  string
	status string
	sort   Sort
	mode   Mode
}

// NewList creates a list that toggles between grid and alt.
func NewList[T Item](src Source[T], alt Mode) *List[T] {
	return &List[T]{
		src:       src,
		alt:       alt,
		selection: NewSelection(),
		sort:      SortNewest,
		mode:      ModeGrid,
	}
}

// Mount loads the collection with the current filters.
func (l *List[T]) Mount(ctx context.Context) error {
	query, status := l.filters()
	_, err := l.src.Search(ctx, query, status)
	return err
}

// Submit applies query. The backend search replaces the cached items and
// Visible keeps filtering them locally by the same query.
func (l *List[T]) Submit(ctx context.Context, query string) error {
	l.mu.Lock()
	l.query = strings.TrimSpace(query)
	l.mu.Unlock()
	return l.Mount(ctx)
}

// SetStatusFilter reloads with status; "" means every status.
func (l *List[T]) SetStatusFilter(ctx context.Context, status string) error {
	if status != "" && !slices.Contains(l.src.Statuses(), status) {
		return api.Invalid(errors.New("unknown status filter"))
	}
	l.mu.Lock()
	l.status = status
	l.mu.Unlock()
	return l.Mount(ctx)
}

// SetFilters applies a submitted search form: query and status together,
// with a single reload.
func (l *List[T]) SetFilters(ctx context.Context, query, status string) error {
	if status != "" && !slices.Contains(l.src.Statuses(), status) {
		return api.Invalid(errors.New("unknown status filter"))
	}
	l.mu.Lock()
	l.query = strings.TrimSpace(query)
	l.status = status
	l.mu.Unlock()
	return l.Mount(ctx)
}

func (l *List[T]) SetSort(s Sort) error {
	switch s {
	case SortNewest, SortOldest, SortTitle:
	default:
		return ErrUnknownSort
	}
	l.mu.Lock()
	l.sort = s
	l.mu.Unlock()
	return nil
}

// ToggleMode switches between grid and the alternative layout.
func (l *List[T]) ToggleMode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == ModeGrid {
		l.mode = l.alt
	} else {
		l.mode = ModeGrid
	}
	return l.mode
}

func (l *List[T]) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

func (l *List[T]) Status() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *List[T]) Sort() Sort {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sort
}

func (l *List[T]) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

func (l *List[T]) Selection() *Selection { return l.selection }
func (l *List[T]) Statuses() []string    { return l.src.Statuses() }
func (l *List[T]) Err() string           { return l.src.Err() }
func (l *List[T]) Loading() bool         { return l.src.Loading() }

// Visible returns the cached items that match the query and status filter,
// in the chosen order.
func (l *List[T]) Visible() []T {
	query, status := l.filters()
	sortBy := l.Sort()
	needle := strings.ToLower(query)

	var out []T
	for _, it := range l.src.Items() {
		if status != "" && it.GetStatus() != status {
			continue
		}
		if needle != "" && !matches(it, needle) {
			continue
		}
		out = append(out, it)
	}

	slices.SortStableFunc(out, func(a, b T) int {
		switch sortBy {
		case SortOldest:
			return a.Created().Compare(b.Created())
		case SortTitle:
			return cmp.Compare(strings.ToLower(a.Label()), strings.ToLower(b.Label()))
		default:
			return b.Created().Compare(a.Created())
		}
	})
	return out
}

// SelectAllVisible adds every visible id to the selection.
func (l *List[T]) SelectAllVisible() {
	for _, it := range l.Visible() {
		l.selection.Add(it.GetID())
	}
}

func (l *List[T]) SetStatus(ctx context.Context, id, status string) error {
	_, err := l.src.UpdateStatus(ctx, id, status)
	return err
}

// Delete removes id after confirm approves it. The id leaves the selection
// once the backend confirms.
func (l *List[T]) Delete(ctx context.Context, id string, confirm ConfirmFunc) error {
	if confirm == nil || !confirm(l.label(id)) {
		return ErrNotConfirmed
	}
	if err := l.src.Delete(ctx, id); err != nil {
		return err
	}
	l.selection.Remove(id)
	return nil
}

// BulkStatus sets status on the selection. Ids that succeeded leave the
// selection so a retry only touches the failures.
func (l *List[T]) BulkStatus(ctx context.Context, status string) (resource.BulkResult, error) {
	ids := l.selection.IDs()
	if len(ids) == 0 {
		return resource.BulkResult{}, ErrEmptySelection
	}
	res, err := l.src.BulkUpdateStatus(ctx, ids, status)
	l.selection.Remove(res.Succeeded...)
	return res, err
}

func (l *List[T]) BulkDelete(ctx context.Context, confirm ConfirmFunc) (resource.BulkResult, error) {
	ids := l.selection.IDs()
	if len(ids) == 0 {
		return resource.BulkResult{}, ErrEmptySelection
	}
	if confirm == nil || !confirm(pluralItems(len(ids))) {
		return resource.BulkResult{}, ErrNotConfirmed
	}
	res, err := l.src.BulkDelete(ctx, ids)
	l.selection.Remove(res.Succeeded...)
	return res, err
}

func (l *List[T]) filters() (string, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query, l.status
}

func (l *List[T]) label(id string) string {
	for _, it := range l.src.Items() {
		if it.GetID() == id {
			return it.Label()
		}
	}
	return id
}

func matches(it Item, needle string) bool {
	for _, f := range it.SearchFields() {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func pluralItems(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}
