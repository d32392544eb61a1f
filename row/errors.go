package row

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSchema is matched by every schema validation failure.
	ErrInvalidSchema = errors.New("invalid row type")
	// ErrValueMismatch is returned when values do not fit the row type.
	ErrValueMismatch = errors.New("value does not match field")
	// ErrMalformedRow is returned when raw bytes are not a valid row payload.
	ErrMalformedRow = errors.New("malformed row payload")
	// ErrDoubleRelease is the panic value when a row is released past zero.
	ErrDoubleRelease = errors.New("row released more times than referenced")
)

// FieldError describes one problem with one field of a row type.
type FieldError struct {
	Index  int
	Name   string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %d %q: %s", e.Index, e.Name, e.Reason)
}

// SchemaError collects every problem found while validating a row type.
type SchemaError struct {
	Fields []*FieldError
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		parts[i] = fe.Error()
	}
	return ErrInvalidSchema.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual field errors to errors.As.
func (e *SchemaError) Unwrap() []error {
	errs := make([]error, len(e.Fields))
	for i, fe := range e.Fields {
		errs[i] = fe
	}
	return errs
}

// Is reports whether target is ErrInvalidSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}
