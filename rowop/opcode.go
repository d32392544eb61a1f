package rowop

import (
	"fmt"
	"strings"
)

// Opcode is the operation carried by a Rowop.
type Opcode int32

const (
	// FlagInsert marks an insert-like opcode.
	FlagInsert Opcode = 0x01
	// FlagDelete marks a delete-like opcode.
	FlagDelete Opcode = 0x02
)

const (
	// OpNop carries no change.
	OpNop Opcode = 0
	// OpInsert inserts a row.
	OpInsert Opcode = FlagInsert
	// OpDelete deletes a row.
	OpDelete Opcode = FlagDelete
)

// IsInsert reports whether the insert flag is set.
func (op Opcode) IsInsert() bool { return op&FlagInsert != 0 }

// IsDelete reports whether the delete flag is set.
func (op Opcode) IsDelete() bool { return op&FlagDelete != 0 }

// IsNop reports whether neither flag is set.
func (op Opcode) IsNop() bool { return op&(FlagInsert|FlagDelete) == 0 }

// String returns the name of a known opcode and otherwise the decomposition
// into flags, e.g. "[ID]" or "[]".
func (op Opcode) String() string {
	switch op {
	case OpNop:
		return "NOP"
	case OpInsert:
		return "INSERT"
	case OpDelete:
		return "DELETE"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	if op.IsInsert() {
		sb.WriteByte('I')
	}
	if op.IsDelete() {
		sb.WriteByte('D')
	}
	sb.WriteByte(']')
	return sb.String()
}

// OpcodeString is the function form of Opcode.String.
func OpcodeString(op Opcode) string { return op.String() }

// ParseOpcode accepts the names produced by String, with or without an
// "OP_" prefix, and flag forms like "[ID]".
func ParseOpcode(s string) (Opcode, error) {
	name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "OP_")
	switch name {
	case "NOP":
		return OpNop, nil
	case "INSERT":
		return OpInsert, nil
	case "DELETE":
		return OpDelete, nil
	}
	if flags, ok := strings.CutPrefix(name, "["); ok {
		if flags, ok = strings.CutSuffix(flags, "]"); ok {
			var op Opcode
			for _, c := range flags {
				switch c {
				case 'I':
					op |= FlagInsert
				case 'D':
					op |= FlagDelete
				default:
					return OpNop, fmt.Errorf("unknown opcode flag %q in %q", c, s)
				}
			}
			return op, nil
		}
	}
	return OpNop, fmt.Errorf("unknown opcode %q", s)
}
