package row

import "sync"

// Kind identifies a simple type or the shape of a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindUint8 is an unsigned byte; uint8[] doubles as a byte string.
	KindUint8
	// KindInt32 is a 32-bit signed integer.
	KindInt32
	// KindInt64 is a 64-bit signed integer.
	KindInt64
	// KindFloat64 is a 64-bit float.
	KindFloat64
	// KindBool is a boolean stored as one byte.
	KindBool
	// KindString is a variable-width UTF-8 string.
	KindString
	// KindNull marks a null Value. It is never the kind of a SimpleType.
	KindNull
	// KindArray marks an array Value. It is never the kind of a SimpleType.
	KindArray
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindUint8:
		return "uint8"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// SimpleType is one of the built-in field types. Instances are immutable
// and shared process-wide; compare them by pointer or Kind.
type SimpleType struct {
	kind Kind
	size int
}

// Kind returns the kind of the type.
func (t *SimpleType) Kind() Kind { return t.kind }

// Name returns the type name as used in field declarations.
func (t *SimpleType) Name() string { return t.kind.String() }

// Size returns the width of one element in bytes, or 0 for variable width.
func (t *SimpleType) Size() int { return t.size }

// FixedSize reports whether every element has the same width.
func (t *SimpleType) FixedSize() bool { return t.size > 0 }

var simpleTypes = sync.OnceValue(func() map[string]*SimpleType {
	return map[string]*SimpleType{
		"uint8":   {kind: KindUint8, size: 1},
		"int32":   {kind: KindInt32, size: 4},
		"int64":   {kind: KindInt64, size: 8},
		"float64": {kind: KindFloat64, size: 8},
		"bool":    {kind: KindBool, size: 1},
		"string":  {kind: KindString},
	}
})

// SimpleTypeByName looks up a built-in type. The second result is false
// for unknown names.
func SimpleTypeByName(name string) (*SimpleType, bool) {
	t, ok := simpleTypes()[name]
	return t, ok
}

func mustSimple(name string) *SimpleType {
	t, ok := SimpleTypeByName(name)
	if !ok {
		panic("row: missing built-in type " + name)
	}
	return t
}

// Uint8Type returns the shared uint8 type.
func Uint8Type() *SimpleType { return mustSimple("uint8") }

// Int32Type returns the shared int32 type.
func Int32Type() *SimpleType { return mustSimple("int32") }

// Int64Type returns the shared int64 type.
func Int64Type() *SimpleType { return mustSimple("int64") }

// Float64Type returns the shared float64 type.
func Float64Type() *SimpleType { return mustSimple("float64") }

// BoolType returns the shared bool type.
func BoolType() *SimpleType { return mustSimple("bool") }

// StringType returns the shared string type.
func StringType() *SimpleType { return mustSimple("string") }
