package handoff

import (
	"fmt"

	"github.com/hupe1980/cepgo/row"
)

// Schema lists the labels referenced by a frame, in first-use order.
type Schema struct {
	Labels []LabelSchema `json:"labels"`
}

// LabelSchema describes one label and the row type of its rows.
type LabelSchema struct {
	Name   string        `json:"name"`
	Format string        `json:"format"`
	Fields []FieldSchema `json:"fields"`
}

// FieldSchema is a field in the declaration form accepted by row.ParseField.
type FieldSchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func describe(name string, rt row.Type) LabelSchema {
	fields := rt.Fields()
	ls := LabelSchema{Name: name, Format: rt.Format(), Fields: make([]FieldSchema, len(fields))}
	for i, f := range fields {
		ls.Fields[i] = FieldSchema{Name: f.Name, Type: f.TypeDecl()}
	}
	return ls
}

// RowType rebuilds the described row type.
func (ls LabelSchema) RowType() (row.Type, error) {
	if ls.Format != "compact" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ls.Format)
	}
	fields := make([]row.Field, len(ls.Fields))
	for i, fs := range ls.Fields {
		f, err := row.ParseField(fs.Name, fs.Type)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return row.NewCompact(fields)
}
