package table

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/cepgo/row"
)

// ErrUnknownIndex is returned when an index path names no index type.
var ErrUnknownIndex = errors.New("table: unknown index")

// TableType combines a row type with an index tree. It is configured with
// AddSubIndex, then initialized exactly once; afterwards it is immutable and
// may back any number of tables.
type TableType struct {
	rt         row.Type
	root       *RootIndexType
	handleType *RowHandleType

	initialized bool
	err         error

	// every non-root index type, parents before children
	types    []IndexType
	aggTypes []AggregatorType
}

// NewTableType starts a table type for rows of rt.
func NewTableType(rt row.Type) *TableType {
	return &TableType{
		rt:         rt,
		root:       NewRootIndexType(),
		handleType: NewRowHandleType(DefaultAlignment),
	}
}

// RowType returns the row type.
func (tt *TableType) RowType() row.Type { return tt.rt }

// Root returns the root index type.
func (tt *TableType) Root() *RootIndexType { return tt.root }

// HandleType returns the handle layout shared by the index types.
func (tt *TableType) HandleType() *RowHandleType { return tt.handleType }

// AddSubIndex adds a top-level index type.
func (tt *TableType) AddSubIndex(name string, it IndexType) *TableType {
	if tt.initialized {
		contractViolation("add sub index", ErrFrozen)
	}
	tt.root.AddSubIndex(name, it)
	return tt
}

// SetAggregator attaches a whole-table aggregator to the root.
func (tt *TableType) SetAggregator(at AggregatorType) *TableType {
	if tt.initialized {
		contractViolation("set aggregator", ErrFrozen)
	}
	tt.root.SetAggregator(at)
	return tt
}

// Initialize validates the row type and the index tree and freezes the
// handle layout. Every problem found is reported, joined into one error
// whose parts are *IndexError or row schema errors. Calling it again
// returns the first result.
func (tt *TableType) Initialize() error {
	if tt.initialized {
		return tt.err
	}
	tt.initialized = true

	var errs []error
	if tt.rt == nil {
		errs = append(errs, errors.New("table: nil row type"))
	} else {
		if err := tt.rt.Validate(); err != nil {
			errs = append(errs, err)
		}
		if err := tt.root.Initialize(tt, nil, ""); err != nil {
			errs = append(errs, err)
		}
		tt.collect(tt.root)
	}
	tt.handleType.Freeze()
	tt.err = errors.Join(errs...)
	return tt.err
}

func (tt *TableType) collect(it IndexType) {
	if it != IndexType(tt.root) {
		tt.types = append(tt.types, it)
	}
	tt.aggTypes = append(tt.aggTypes, it.Aggregators()...)
	for _, n := range it.Nested() {
		if n.Type != nil {
			tt.collect(n.Type)
		}
	}
}

// IsInitialized reports whether Initialize ran and succeeded.
func (tt *TableType) IsInitialized() bool { return tt.initialized && tt.err == nil }

// Err returns the initialization error, if any.
func (tt *TableType) Err() error { return tt.err }

// IndexTypes returns every non-root index type, parents first.
func (tt *TableType) IndexTypes() []IndexType { return tt.types }

// AggregatorTypes returns every aggregator type of the tree.
func (tt *TableType) AggregatorTypes() []AggregatorType { return tt.aggTypes }

// FindSubIndex returns the top-level index type with the given name.
func (tt *TableType) FindSubIndex(name string) IndexType {
	return tt.root.FindNested(name)
}

// FindSubIndexPath resolves a slash separated path such as "byKey/fifo".
func (tt *TableType) FindSubIndexPath(path string) (IndexType, error) {
	var it IndexType = tt.root
	for _, name := range strings.Split(path, "/") {
		next := it.FindNested(name)
		if next == nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownIndex, path)
		}
		it = next
	}
	return it, nil
}

// FirstLeaf follows the first nested index down to a leaf. Tables iterate
// and look rows up through it by default.
func (tt *TableType) FirstLeaf() IndexType {
	var it IndexType = tt.root
	for !it.IsLeaf() {
		it = it.Nested()[0].Type
	}
	return it
}

// Copy returns an uninitialized deep copy, row type included, for use in
// another execution context.
func (tt *TableType) Copy() *TableType {
	var rt row.Type
	if tt.rt != nil {
		rt = tt.rt.Copy()
	}
	return &TableType{
		rt:         rt,
		root:       tt.root.Copy().(*RootIndexType),
		handleType: NewRowHandleType(tt.handleType.Alignment()),
	}
}

// PrintTo writes the row type and the index tree.
func (tt *TableType) PrintTo(w io.Writer) error {
	var fields []string
	if tt.rt != nil {
		for _, f := range tt.rt.Fields() {
			fields = append(fields, f.String())
		}
	}
	if _, err := fmt.Fprintf(w, "table (%s) ", strings.Join(fields, ", ")); err != nil {
		return err
	}
	return tt.root.PrintTo(w, "")
}

// String renders PrintTo output.
func (tt *TableType) String() string {
	var sb strings.Builder
	_ = tt.PrintTo(&sb)
	return sb.String()
}
