package table

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// IndexKind names the strategy of an index type.
type IndexKind int

const (
	KindRoot IndexKind = iota
	KindHashed
	KindFifo
)

func (k IndexKind) String() string {
	switch k {
	case KindRoot:
		return "RootIndex"
	case KindHashed:
		return "HashedIndex"
	case KindFifo:
		return "FifoIndex"
	default:
		return fmt.Sprintf("IndexKind(%d)", int(k))
	}
}

// NestedIndex is a named child of an index type.
type NestedIndex struct {
	Name string
	Type IndexType
}

// IndexType describes one indexing strategy in a table type's tree. It is
// configured, initialized once as part of a TableType, and immutable after
// that. Use Copy to place an equivalent index in another tree.
type IndexType interface {
	Kind() IndexKind
	// Path is the slash separated position below the root, "" for the root.
	Path() string
	Parent() IndexType
	IsLeaf() bool
	IsInitialized() bool
	Nested() []NestedIndex
	FindNested(name string) IndexType
	Aggregators() []AggregatorType

	// AddSubIndex appends a named child and returns the receiver.
	AddSubIndex(name string, sub IndexType) IndexType
	// SetAggregator attaches an aggregator type and returns the receiver.
	SetAggregator(at AggregatorType) IndexType

	// Copy returns an uninitialized deep copy of the configuration.
	Copy() IndexType
	// Initialize validates the configuration, reserves handle sections and
	// initializes children and aggregators, collecting every error found.
	Initialize(tt *TableType, parent IndexType, path string) error
	// MakeIndex creates the runtime index inside group g of table t.
	MakeIndex(t *Table, g *GroupHandle) Index

	InitRowHandleSection(rh *RowHandle)
	ClearRowHandleSection(rh *RowHandle)
	CopyRowHandleSection(dst, src *RowHandle)

	PrintTo(w io.Writer, indent string) error
}

// indexBase carries what every index type shares: the nested list, the
// aggregators and the place in an initialized tree.
type indexBase struct {
	nested      []NestedIndex
	aggs        []AggregatorType
	tt          *TableType
	parent      IndexType
	path        string
	initialized bool
}

func (b *indexBase) Path() string                  { return b.path }
func (b *indexBase) Parent() IndexType             { return b.parent }
func (b *indexBase) IsLeaf() bool                  { return len(b.nested) == 0 }
func (b *indexBase) IsInitialized() bool           { return b.initialized }
func (b *indexBase) Nested() []NestedIndex         { return b.nested }
func (b *indexBase) Aggregators() []AggregatorType { return b.aggs }

func (b *indexBase) FindNested(name string) IndexType {
	for _, n := range b.nested {
		if n.Name == name {
			return n.Type
		}
	}
	return nil
}

func (b *indexBase) addSub(name string, sub IndexType) {
	if b.initialized {
		contractViolation("add sub index", ErrFrozen)
	}
	b.nested = append(b.nested, NestedIndex{Name: name, Type: sub})
}

func (b *indexBase) setAggregator(at AggregatorType) {
	if b.initialized {
		contractViolation("set aggregator", ErrFrozen)
	}
	b.aggs = append(b.aggs, at)
}

func (b *indexBase) copyInto(dst *indexBase) {
	for _, n := range b.nested {
		dst.nested = append(dst.nested, NestedIndex{Name: n.Name, Type: n.Type.Copy()})
	}
	for _, at := range b.aggs {
		dst.aggs = append(dst.aggs, at.Copy())
	}
}

// claim binds the index type to its tree. A second claim, from any table
// type, is an error.
func (b *indexBase) claim(tt *TableType, parent IndexType, path string) error {
	if b.initialized {
		return &IndexError{Path: path, Err: ErrIndexReused}
	}
	b.tt = tt
	b.parent = parent
	b.path = path
	b.initialized = true
	return nil
}

func (b *indexBase) initChildren(tt *TableType, self IndexType) []error {
	var errs []error
	seen := make(map[string]struct{}, len(b.nested))
	for _, n := range b.nested {
		childPath := joinPath(b.path, n.Name)
		if n.Name == "" || strings.Contains(n.Name, "/") {
			errs = append(errs, &IndexError{Path: childPath, Err: fmt.Errorf("invalid index name %q", n.Name)})
		}
		if _, dup := seen[n.Name]; dup {
			errs = append(errs, &IndexError{Path: childPath, Err: ErrDuplicateName})
		}
		seen[n.Name] = struct{}{}
		if n.Type == nil {
			errs = append(errs, &IndexError{Path: childPath, Err: errors.New("nil index type")})
			continue
		}
		if err := n.Type.Initialize(tt, self, childPath); err != nil {
			errs = append(errs, err)
		}
	}
	for _, at := range b.aggs {
		if b.IsLeaf() {
			errs = append(errs, &IndexError{Path: b.path, Err: fmt.Errorf("%w: %s", ErrAggregatorOnLeaf, at.Name())})
			continue
		}
		if err := at.Initialize(tt, self); err != nil {
			errs = append(errs, &IndexError{Path: b.path, Err: fmt.Errorf("aggregator %s: %w", at.Name(), err)})
		}
	}
	return errs
}

func (b *indexBase) printNested(w io.Writer, indent string) error {
	if len(b.nested) == 0 && len(b.aggs) == 0 {
		_, err := io.WriteString(w, "\n")
		return err
	}
	if _, err := io.WriteString(w, " {\n"); err != nil {
		return err
	}
	inner := indent + "  "
	for _, n := range b.nested {
		if _, err := fmt.Fprintf(w, "%s%s: ", inner, n.Name); err != nil {
			return err
		}
		if err := n.Type.PrintTo(w, inner); err != nil {
			return err
		}
	}
	for _, at := range b.aggs {
		if _, err := fmt.Fprintf(w, "%saggregator %s\n", inner, at.Name()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s}\n", indent)
	return err
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
