// Package rowop provides row operations and trays.
//
// A [Rowop] is the atomic unit of change: a destination [Label], an
// [Opcode] and a row. A [Tray] is an ordered batch of rowops; a table update
// returns one, and whatever schedules labels consumes it front to back.
//
// Opcodes are bit sets. The insert and delete flags may be combined, and
// [Opcode.String] classifies any value by its flags:
//
//	rowop.OpInsert.String()                      // "INSERT"
//	(rowop.FlagInsert | rowop.FlagDelete).String() // "[ID]"
package rowop
