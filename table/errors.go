package table

import (
	"errors"
	"fmt"
)

var (
	// ErrFrozen is reported when a frozen layout or initialized type is modified.
	ErrFrozen = errors.New("table: type is frozen")
	// ErrNotInitialized is returned when a table is built from a type that
	// was not initialized successfully.
	ErrNotInitialized = errors.New("table: table type not initialized")
	// ErrRejected is returned when an insert violates a uniqueness constraint.
	ErrRejected = errors.New("table: row rejected")
	// ErrUnknownField is reported for index keys naming a missing field.
	ErrUnknownField = errors.New("unknown field")
	// ErrNoIndexes is reported for a table type without any index.
	ErrNoIndexes = errors.New("table type has no indexes")
	// ErrIndexReused is reported when one index type is placed in two trees.
	ErrIndexReused = errors.New("index type already initialized, use Copy")
	// ErrLeafOnly is reported when a leaf-only index type gets nested indexes.
	ErrLeafOnly = errors.New("index type cannot have nested indexes")
	// ErrAggregatorOnLeaf is reported when an aggregator is set on a leaf index.
	ErrAggregatorOnLeaf = errors.New("aggregator requires a grouping index")
	// ErrAggregatorBound is reported when an aggregator type is bound twice.
	ErrAggregatorBound = errors.New("aggregator type already bound to another index")
	// ErrDuplicateName is reported for two nested indexes with the same name.
	ErrDuplicateName = errors.New("duplicate index name")
	// ErrRowTypeMismatch is the panic cause for rows of a foreign row type.
	ErrRowTypeMismatch = errors.New("row type does not match table")
	// ErrNilRowop is the panic cause for a nil rowop or missing row.
	ErrNilRowop = errors.New("nil rowop or row")
	// ErrNotFrozen is the panic cause for handles made before the layout is frozen.
	ErrNotFrozen = errors.New("row handle type not frozen")
)

// IndexError reports a configuration problem found while initializing one
// index type. Path is the slash separated position in the tree.
type IndexError struct {
	Path string
	Err  error
}

func (e *IndexError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("index <root>: %v", e.Err)
	}
	return fmt.Sprintf("index %q: %v", e.Path, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// RejectError reports which unique index refused an insert.
type RejectError struct {
	Table string
	Index string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("table %q: duplicate key in index %q", e.Table, e.Index)
}

// Is matches ErrRejected.
func (e *RejectError) Is(target error) bool { return target == ErrRejected }

// ContractError is the panic value for a broken calling discipline: nil
// rowops, foreign row types, mutation of frozen types. It is not meant to
// be recovered from.
type ContractError struct {
	Op  string
	Err error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("table: %s: %v", e.Op, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }

func contractViolation(op string, err error) {
	panic(&ContractError{Op: op, Err: err})
}
