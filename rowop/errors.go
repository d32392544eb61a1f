package rowop

import "errors"

var (
	// ErrNilLabel is the panic value for a rowop built without a label.
	ErrNilLabel = errors.New("rowop: nil label")
	// ErrMissingRow is the panic value for a payload opcode built without a row.
	ErrMissingRow = errors.New("rowop: opcode requires a row")
)
