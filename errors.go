package cepgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/cepgo/handoff"
	"github.com/hupe1980/cepgo/row"
	"github.com/hupe1980/cepgo/table"
)

var (
	// ErrRejected is matched by inserts refused by a unique index.
	ErrRejected = table.ErrRejected
	// ErrNotInitialized is returned when a table is built from a table type
	// that did not initialize.
	ErrNotInitialized = table.ErrNotInitialized
	// ErrUnknownIndex is returned for index paths that do not exist.
	ErrUnknownIndex = table.ErrUnknownIndex
	// ErrUnknownField is returned for key fields missing from the row type.
	ErrUnknownField = table.ErrUnknownField
	// ErrInvalidSchema is matched by every row type validation failure.
	ErrInvalidSchema = row.ErrInvalidSchema
	// ErrClosed is returned when a handoff queue has been closed.
	ErrClosed = handoff.ErrClosed
	// ErrCorruptFrame is matched by every handoff frame that cannot be decoded.
	ErrCorruptFrame = errors.New("corrupt handoff frame")
	// ErrInvalidBuilder is returned when a builder step cannot be applied.
	ErrInvalidBuilder = errors.New("invalid table type builder")
)

// ErrDuplicateKey indicates an insert refused by a unique index.
//
// It matches ErrRejected; the original error can be accessed via errors.Unwrap.
type ErrDuplicateKey struct {
	Table string
	Index string
	cause error
}

func (e *ErrDuplicateKey) Error() string {
	return fmt.Sprintf("table %q: duplicate key in index %q", e.Table, e.Index)
}

func (e *ErrDuplicateKey) Unwrap() error { return e.cause }

// ErrInvalidTableType indicates a table type that failed to initialize. It
// lists every problem found.
type ErrInvalidTableType struct {
	Problems []error
	cause    error
}

func (e *ErrInvalidTableType) Error() string {
	return fmt.Sprintf("invalid table type: %v", e.cause)
}

func (e *ErrInvalidTableType) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var re *table.RejectError
	if errors.As(err, &re) {
		return &ErrDuplicateKey{Table: re.Table, Index: re.Index, cause: err}
	}

	// Frame decoding failures.
	for _, target := range []error{handoff.ErrBadMagic, handoff.ErrVersion, handoff.ErrChecksum, handoff.ErrCorrupt} {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrCorruptFrame, err)
		}
	}

	// Initialization failures arrive joined, level by level.
	if _, ok := err.(interface{ Unwrap() []error }); ok {
		return &ErrInvalidTableType{Problems: flatten(err, nil), cause: err}
	}
	var ie *table.IndexError
	if errors.As(err, &ie) {
		return &ErrInvalidTableType{Problems: []error{err}, cause: err}
	}

	return err
}

// flatten lists the leaves of nested joined errors. Row schema errors stay
// whole.
func flatten(err error, out []error) []error {
	if _, ok := err.(*row.SchemaError); ok {
		return append(out, err)
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return append(out, err)
	}
	for _, e := range joined.Unwrap() {
		out = flatten(e, out)
	}
	return out
}
