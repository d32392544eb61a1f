package rowop

import "github.com/hupe1980/cepgo/row"

// Label is an opaque destination for rowops. Scheduling and delivery live
// outside this module; the engine only needs a name and the row type.
type Label interface {
	Name() string
	RowType() row.Type
}

// DummyLabel is a Label that does nothing but identify a destination.
type DummyLabel struct {
	name string
	rt   row.Type
}

// NewDummyLabel returns a label with the given name and row type.
func NewDummyLabel(name string, rt row.Type) *DummyLabel {
	return &DummyLabel{name: name, rt: rt}
}

// Name returns the label name.
func (l *DummyLabel) Name() string { return l.name }

// RowType returns the type of rows the label accepts.
func (l *DummyLabel) RowType() row.Type { return l.rt }
