package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "document", ID: "notes"},
			wantMsg:  "document not found: notes",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "annotation"},
			wantMsg:  "annotation not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlying := fmt.Errorf("no rows")
		err := &NotFoundError{Resource: "snapshot", ID: "a", Err: underlying}
		if got := err.Unwrap(); got != underlying {
			t.Errorf("Unwrap() = %v, want %v", got, underlying)
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     &ValidationError{Field: "selection", Message: "selection is collapsed"},
			wantMsg: "validation failed for selection: selection is collapsed",
		},
		{
			name:    "without field",
			err:     &ValidationError{Message: "empty range"},
			wantMsg: "validation failed: empty range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("ValidationError should unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestIOError(t *testing.T) {
	underlying := fmt.Errorf("permission denied")

	withPath := NewIO("read", "notes.xhtml", underlying)
	if got, want := withPath.Error(), "failed to read notes.xhtml: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	withoutPath := NewIO("write", "", underlying)
	if got, want := withoutPath.Error(), "failed to write: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(withPath, underlying) {
		t.Error("IOError should unwrap to the underlying error")
	}
}

func TestParseError(t *testing.T) {
	err := NewParse("markup", "doc.xhtml", "unexpected EOF")
	if got, want := err.Error(), "failed to parse markup at doc.xhtml: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ParseError should unwrap to ErrInvalidInput")
	}

	noPath := NewParse("event", "", "unknown type")
	if got, want := noPath.Error(), "failed to parse event: unknown type"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("command", "frobnicate")
	if got, want := err.Error(), "unsupported command: frobnicate"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("UnsupportedError should unwrap to ErrUnsupported")
	}
	bare := &UnsupportedError{Feature: "paste"}
	if got := bare.Error(); got != "unsupported paste" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	base := NewValidation("selection", "collapsed")
	wrapped := Wrap(base, "create cloze")
	if got, want := wrapped.Error(), "create cloze: validation failed for selection: collapsed"; got != want {
		t.Errorf("Wrap() = %q, want %q", got, want)
	}
	if !IsValidation(wrapped) {
		t.Error("IsValidation should see through Wrap")
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "doc %s", "a") != nil {
		t.Error("Wrapf(nil) should return nil")
	}
	wrapped := Wrapf(NewNotFound("document", "a"), "load %s", "a")
	if !Is(wrapped, ErrNotFound) {
		t.Error("Wrapf should preserve ErrNotFound")
	}
	var nf *NotFoundError
	if !As(wrapped, &nf) || nf.ID != "a" {
		t.Errorf("As() did not recover NotFoundError: %v", nf)
	}
}

func TestIsValidation(t *testing.T) {
	if IsValidation(fmt.Errorf("plain")) {
		t.Error("plain error is not a validation error")
	}
	if IsValidation(nil) {
		t.Error("nil is not a validation error")
	}
}

func TestSelectionError(t *testing.T) {
	tests := []struct {
		name    string
		err     *SelectionError
		wantMsg string
	}{
		{"reason only", NewSelection(SelectionCollapsed), "invalid selection: selection is collapsed"},
		{"with offsets", &SelectionError{Reason: SelectionBlank, Start: 5, End: 6}, "invalid selection [5:6]: selection has no text"},
		{"unknown reason", NewSelection(SelectionReason(99)), "invalid selection: selection reason 99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("SelectionError should unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestIsSelection(t *testing.T) {
	err := Wrap(NewSelection(SelectionNoAnnotation), "feedback")
	if !IsSelection(err, SelectionNoAnnotation) {
		t.Error("wrapped SelectionError should match its reason")
	}
	if IsSelection(err, SelectionCollapsed) {
		t.Error("a different reason should not match")
	}
	if !IsValidation(err) {
		t.Error("a SelectionError is a validation error")
	}
	if IsSelection(NewValidation("selection", "x"), SelectionMissing) {
		t.Error("a ValidationError is not a SelectionError")
	}
}
