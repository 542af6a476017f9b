package view

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/vbonduro/shopassist/internal/api"
)

type ModalState int

const (
	Viewing ModalState = iota
	Editing
	Saving
)

func (s ModalState) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return "unknown"
	}
}

var (
	ErrReadOnly          = errors.New("field is read-only")
	ErrInvalidTransition = errors.New("invalid modal transition")
)

// SaveFunc persists the edited fields and returns the stored record.
type SaveFunc[T any] func(ctx context.Context, draft map[string]string) (T, error)

// Modal is the detail dialog of one record. It opens in Viewing; fields listed
// as read-only can never be edited.
type Modal[T any] struct {
	readOnly []string

	mu     sync.Mutex
	record T
	state  ModalState
	draft  map[string]string
	errMsg string
}

func NewModal[T any](record T, readOnly []string) *Modal[T] {
	return &Modal[T]{record: record, readOnly: readOnly}
}

func (m *Modal[T]) State() ModalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Modal[T]) Record() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record
}

func (m *Modal[T]) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// Draft returns a copy of the pending edits.
func (m *Modal[T]) Draft() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.draft)
}

func (m *Modal[T]) ReadOnly(field string) bool {
	return slices.Contains(m.readOnly, field)
}

// Edit moves Viewing to Editing with an empty draft.
func (m *Modal[T]) Edit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Viewing {
		return fmt.Errorf("%w: edit while %s", ErrInvalidTransition, m.state)
	}
	m.state = Editing
	m.draft = make(map[string]string)
	m.errMsg = ""
	return nil
}

// Cancel drops the draft and returns to Viewing.
func (m *Modal[T]) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Editing {
		return fmt.Errorf("%w: cancel while %s", ErrInvalidTransition, m.state)
	}
	m.state = Viewing
	m.draft = nil
	m.errMsg = ""
	return nil
}

func (m *Modal[T]) Set(field, value string) error {
	if m.ReadOnly(field) {
		return fmt.Errorf("%w: %s", ErrReadOnly, field)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Editing {
		return fmt.Errorf("%w: set while %s", ErrInvalidTransition, m.state)
	}
	m.draft[field] = value
	return nil
}

// Save persists the draft through fn. Success returns to Viewing with the
// stored record; failure stays in Editing with the error kept.
func (m *Modal[T]) Save(ctx context.Context, fn SaveFunc[T]) error {
	m.mu.Lock()
	if m.state != Editing {
		m.mu.Unlock()
		return fmt.Errorf("%w: save while %s", ErrInvalidTransition, m.state)
	}
	m.state = Saving
	draft := maps.Clone(m.draft)
	m.mu.Unlock()

	rec, err := fn(ctx, draft)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = Editing
		m.errMsg = api.Message(err)
		return err
	}
	m.record = rec
	m.state = Viewing
	m.draft = nil
	m.errMsg = ""
	return nil
}
