package router

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrCapabilityDisabled matches every *CapabilityDisabledError.
	ErrCapabilityDisabled = errors.New("capability disabled")
	// ErrExecution matches every *ExecutionError.
	ErrExecution = errors.New("execution failure")
)

// NotFoundError reports an identifier absent from a registry. Identifier is
// embedded verbatim in the message.
type NotFoundError struct {
	Category   Category
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Category.title(), e.Identifier)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a *NotFoundError for the given category and identifier.
func NotFound(cat Category, identifier string) error {
	return &NotFoundError{Category: cat, Identifier: identifier}
}

// CapabilityDisabledError reports a request into a category that the
// descriptor does not enable.
type CapabilityDisabledError struct {
	Category Category
}

func (e *CapabilityDisabledError) Error() string {
	return fmt.Sprintf("%s capability is disabled", e.Category.plural())
}

func (e *CapabilityDisabledError) Is(target error) bool { return target == ErrCapabilityDisabled }

// ExecutionError is a tool-specific runtime failure. Detail is the
// human-readable message surfaced to the remote agent.
type ExecutionError struct {
	Tool   string
	Detail string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Detail)
}

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

func (e *ExecutionError) Unwrap() error { return e.Err }

// ExecutionFailure wraps err as a failure of the named tool. A nil err yields
// nil and an existing *ExecutionError is returned unchanged.
func ExecutionFailure(tool string, err error) error {
	if err == nil {
		return nil
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return err
	}
	return &ExecutionError{Tool: tool, Detail: err.Error(), Err: err}
}

// ExecutionFailuref builds an *ExecutionError with a formatted detail.
func ExecutionFailuref(tool string, format string, args ...any) error {
	return &ExecutionError{Tool: tool, Detail: fmt.Sprintf(format, args...)}
}
