package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrSerializationFailure = errors.New("serialization failure")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrValidation           = errors.New("invalid input")
	ErrStorage              = errors.New("storage unavailable")
	ErrNotification         = errors.New("notification failed")
)

// ValidationError reports a malformed or out-of-range input field. It is
// always returned before any store mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotificationError wraps a failed best-effort notification. The operation
// that triggered it has already succeeded.
type NotificationError struct {
	Recipient string
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Recipient, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

func (e *NotificationError) Is(target error) bool {
	return target == ErrNotification
}

// StorageFailure marks err as a backing store failure while keeping the
// original cause reachable through errors.Is / errors.As.
func StorageFailure(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, op), ErrStorage)
}
