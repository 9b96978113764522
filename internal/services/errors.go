package services

import (
	"errors"

	"github.com/chorsey/apiserver/internal/store"
)

// Error is a failure with a message meant to be shown to the user verbatim.
// Kind classifies it and is matched with errors.Is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

var (
	// ErrForbidden is returned when the acting user may not perform the
	// operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is returned when a task cannot move to the
	// requested status from its current one.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCaptionDisabled is returned when no captioning service is
	// configured.
	ErrCaptionDisabled = errors.New("image captioning is not configured")
)

var (
	ErrInvalidCredentials = &Error{Kind: store.ErrNotFound, Message: "Invalid email or password."}
	ErrEmailTaken         = &Error{Kind: store.ErrConflict, Message: "An account with this email already exists."}
	ErrUserNotFound       = &Error{Kind: store.ErrNotFound, Message: "User not found."}
	ErrTaskNotFound       = &Error{Kind: store.ErrNotFound, Message: "Task not found."}
	ErrTaskChanged        = &Error{Kind: store.ErrConflict, Message: "The task was changed by someone else. Reload and try again."}
)

func validationError(message string) error {
	return &Error{Kind: store.ErrValidation, Message: message}
}
