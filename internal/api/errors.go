package api

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Kind classifies a failure for display and session handling.
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindAuth
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	default:
		return "server"
	}
}

const (
	fallbackMessage = "request failed"
	networkMessage  = "network error"
)

// Error is the failure half of every backend call. The success half is the
// decoded data with a nil error.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrNotAuthenticated is returned by mutations attempted without a token.
var ErrNotAuthenticated = &Error{Kind: KindAuth, Message: "authentication required"}

// KindOf returns the Kind of err, or KindServer for foreign errors.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return KindValidation
	}
	return KindServer
}

// Message returns the human readable text to show for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// Invalid wraps a client-side validation failure so it never reaches the
// network.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsAuth reports whether err means the token is missing, invalid or expired.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	default:
		return KindServer
	}
}
