// Package errors provides the error types shared by the ClozeMark packages.
//
// None of these represent exceptional control flow: an invalid selection or an
// unknown event is reported as a value and the caller decides how to surface it.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a document, annotation or snapshot was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported event, command or markup construct
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError represents a missing resource with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "document", "annotation")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError reports input the engine refuses to act on, such as a
// collapsed selection handed to cloze creation.
type ValidationError struct {
	Field   string // Input that failed validation (e.g., "selection")
	Message string // Human-readable reason
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// SelectionReason says why a selection was refused.
type SelectionReason int

const (
	SelectionMissing SelectionReason = iota + 1
	SelectionCollapsed
	SelectionOutside
	SelectionInsideAnnotation
	SelectionHoldsAnnotation
	SelectionBlank
	SelectionNoAnnotation
)

var selectionReasons = map[SelectionReason]string{
	SelectionMissing:          "no active selection",
	SelectionCollapsed:        "selection is collapsed",
	SelectionOutside:          "selection is outside the document",
	SelectionInsideAnnotation: "selection starts or ends inside an annotation",
	SelectionHoldsAnnotation:  "selection contains an annotation",
	SelectionBlank:            "selection has no text",
	SelectionNoAnnotation:     "no annotation at caret",
}

func (r SelectionReason) String() string {
	if s, ok := selectionReasons[r]; ok {
		return s
	}
	return fmt.Sprintf("selection reason %d", int(r))
}

// SelectionError reports a selection that cloze creation or a caret command
// cannot act on. It counts as a validation failure.
type SelectionError struct {
	Reason SelectionReason
	// Start and End are the flattened text offsets of the selection, when
	// known.
	Start, End int
}

func (e *SelectionError) Error() string {
	if e.Start != e.End {
		return fmt.Sprintf("invalid selection [%d:%d]: %s", e.Start, e.End, e.Reason)
	}
	return fmt.Sprintf("invalid selection: %s", e.Reason)
}

func (e *SelectionError) Unwrap() error {
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write")
	Path      string // File or store key involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents markup, config or wire message that could not be decoded
type ParseError struct {
	Format  string // Format being parsed (e.g., "markup", "YAML", "event")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an event kind or command the engine does not handle
type UnsupportedError struct {
	Feature string // Feature that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewSelection creates a SelectionError without offsets
func NewSelection(reason SelectionReason) *SelectionError {
	return &SelectionError{Reason: reason}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsValidation reports whether err is, or wraps, a ValidationError or a
// SelectionError.
func IsValidation(err error) bool {
	var ve *ValidationError
	var se *SelectionError
	return errors.As(err, &ve) || errors.As(err, &se)
}

// IsSelection reports whether err is, or wraps, a SelectionError with the
// given reason.
func IsSelection(err error, reason SelectionReason) bool {
	var se *SelectionError
	return errors.As(err, &se) && se.Reason == reason
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
