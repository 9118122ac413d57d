// Package decl loads foreign function declarations and classifies their types.
package decl

import "strings"

// Declaration is a foreign function signature taken from an extern block.
// Declarations are created by the Loader and never mutated afterwards.
type Declaration struct {
	Name     string
	Params   []Param
	Return   *Type // nil for functions returning nothing
	Variadic bool  // trailing C varargs ("...")
	Doc      []string
	Line     int // 1-based line of the signature in the input
}

// Param is a named, typed parameter of a Declaration.
type Param struct {
	Name string
	Type Type
}

// Type is a classified type literal.
type Type struct {
	// Literal is the canonical token-spaced spelling, e.g. "* const cty :: c_char".
	Literal string
	Shape   Shape
	// Const reports whether the literal starts with a const qualifier.
	Const bool
	// Path is the structured form of a Value/Primitive name or of an
	// OtherPointer's pointee. Nil for the remaining shapes.
	Path *TypePath
}

// IsPointer reports whether the type is any kind of raw pointer.
func (t Type) IsPointer() bool {
	return t.Shape.IsPointer()
}

// NewDeclaration builds a Declaration from already classified parts.
func NewDeclaration(name string, params []Param, ret *Type) *Declaration {
	return &Declaration{Name: name, Params: params, Return: ret}
}

// IsMethod reports whether the declaration takes an object as its first
// parameter, i.e. whether it can be attached to a widget.
func (d *Declaration) IsMethod(objectTypes []string) bool {
	if len(d.Params) == 0 {
		return false
	}
	first := d.Params[0].Type.Literal
	for _, obj := range objectTypes {
		if strings.Contains(first, obj) {
			return true
		}
	}
	return false
}

// String renders the declaration in a compact signature form for diagnostics.
func (d *Declaration) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteByte('(')
	for i, p := range d.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(p.Type.Literal)
	}
	if d.Variadic {
		if len(d.Params) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteByte(')')
	if d.Return != nil {
		b.WriteString(" -> ")
		b.WriteString(d.Return.Literal)
	}
	return b.String()
}
