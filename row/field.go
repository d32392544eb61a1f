package row

import (
	"fmt"
	"strings"
)

// Field describes one column of a row type.
type Field struct {
	Name  string
	Type  *SimpleType
	Array bool
}

// NewField returns a scalar field.
func NewField(name string, typ *SimpleType) Field {
	return Field{Name: name, Type: typ}
}

// NewArrayField returns an array field.
func NewArrayField(name string, typ *SimpleType) Field {
	return Field{Name: name, Type: typ, Array: true}
}

// ParseField builds a field from a type declaration such as "int64" or
// "int32[]".
func ParseField(name, decl string) (Field, error) {
	typeName, isArray := strings.CutSuffix(strings.TrimSpace(decl), "[]")
	t, ok := SimpleTypeByName(typeName)
	if !ok {
		return Field{}, &FieldError{Name: name, Reason: fmt.Sprintf("unknown type %q", decl)}
	}
	return Field{Name: name, Type: t, Array: isArray}, nil
}

// TypeDecl returns the declaration string accepted by ParseField.
func (f Field) TypeDecl() string {
	if f.Type == nil {
		return "?"
	}
	if f.Array {
		return f.Type.Name() + "[]"
	}
	return f.Type.Name()
}

// String returns "name type".
func (f Field) String() string {
	return f.Name + " " + f.TypeDecl()
}

func (f Field) sameType(o Field) bool {
	if f.Type == nil || o.Type == nil {
		return f.Type == o.Type && f.Array == o.Array
	}
	return f.Type.Kind() == o.Type.Kind() && f.Array == o.Array
}

// validateFields checks every field and returns all problems at once.
func validateFields(fields []Field) error {
	var errs []*FieldError
	if len(fields) == 0 {
		errs = append(errs, &FieldError{Index: -1, Reason: "row type has no fields"})
	}
	seen := make(map[string]int, len(fields))
	for i, f := range fields {
		fail := func(format string, args ...any) {
			errs = append(errs, &FieldError{Index: i, Name: f.Name, Reason: fmt.Sprintf(format, args...)})
		}
		switch {
		case f.Name == "":
			fail("empty name")
		case !isIdentifier(f.Name):
			fail("name is not an identifier")
		default:
			if first, dup := seen[f.Name]; dup {
				fail("duplicate name, first defined at field %d", first)
			} else {
				seen[f.Name] = i
			}
		}
		if f.Type == nil {
			fail("missing type")
		} else if f.Array && !f.Type.FixedSize() {
			fail("arrays of variable-width type %s are not supported", f.Type.Name())
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &SchemaError{Fields: errs}
}

func isIdentifier(s string) bool {
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
