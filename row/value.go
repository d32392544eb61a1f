package row

import (
	"strconv"
	"strings"
)

// Value is a typed field value used to build rows and to read them back.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	B    bool
	S    string
	A    []Value
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Uint8 returns a uint8 Value.
func Uint8(v uint8) Value { return Value{Kind: KindUint8, I64: int64(v)} }

// Int32 returns an int32 Value.
func Int32(v int32) Value { return Value{Kind: KindInt32, I64: int64(v)} }

// Int64 returns an int64 Value.
func Int64(v int64) Value { return Value{Kind: KindInt64, I64: v} }

// Float64 returns a float64 Value.
func Float64(v float64) Value { return Value{Kind: KindFloat64, F64: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, S: v} }

// Array returns an array Value.
func Array(v ...Value) Value { return Value{Kind: KindArray, A: v} }

// Bytes returns a uint8[] Value.
func Bytes(b []byte) Value {
	a := make([]Value, len(b))
	for i, c := range b {
		a[i] = Uint8(c)
	}
	return Array(a...)
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsInt64 returns the integer value for uint8, int32 and int64 values.
func (v Value) AsInt64() (int64, bool) {
	switch v.Kind {
	case KindUint8, KindInt32, KindInt64:
		return v.I64, true
	}
	return 0, false
}

// AsFloat64 returns the value as a float for numeric kinds.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindFloat64:
		return v.F64, true
	case KindUint8, KindInt32, KindInt64:
		return float64(v.I64), true
	}
	return 0, false
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.S, true
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// AsArray returns the elements if Kind is KindArray.
func (v Value) AsArray() ([]Value, bool) {
	if v.Kind != KindArray {
		return nil, false
	}
	return v.A, true
}

// Equal reports whether two values have the same kind and contents.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindUint8, KindInt32, KindInt64:
		return v.I64 == o.I64
	case KindFloat64:
		return v.F64 == o.F64
	case KindBool:
		return v.B == o.B
	case KindString:
		return v.S == o.S
	case KindArray:
		if len(v.A) != len(o.A) {
			return false
		}
		for i := range v.A {
			if !v.A[i].Equal(o.A[i]) {
				return false
			}
		}
	}
	return true
}

// String renders the value the way PrintTo shows it.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindUint8, KindInt32, KindInt64:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindString:
		return v.S
	case KindArray:
		parts := make([]string, len(v.A))
		for i := range v.A {
			parts[i] = strconv.Quote(v.A[i].String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "invalid"
	}
}
