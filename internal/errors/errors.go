package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/fitbot/internal/logger"
)

var (
	// ErrValidation marks malformed user input. Nothing was written.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound marks an operation on a user that never registered.
	ErrNotFound = errors.New("user not found")
)

// StoreError wraps an I/O or schema failure from a storage backend.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Store wraps err as a StoreError for op. nil and ErrNotFound pass through
// unchanged so callers can keep matching on the sentinel.
func Store(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// Validation returns an ErrValidation carrying the rejected input.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// Is and As re-export the standard helpers so callers importing this package
// under the name errors keep working.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

func New(text string) error { return errors.New(text) }

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
