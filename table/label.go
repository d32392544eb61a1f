package table

import "github.com/hupe1980/cepgo/row"

// Label is the destination of the rowops a table or gadget emits.
type Label struct {
	name string
	rt   row.Type
}

func newLabel(name string, rt row.Type) *Label {
	return &Label{name: name, rt: rt}
}

// Name returns the label name.
func (l *Label) Name() string { return l.name }

// RowType returns the type of rows sent to the label.
func (l *Label) RowType() row.Type { return l.rt }
