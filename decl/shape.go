package decl

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/chazu/lvglgen/manifest"
)

// Shape is the structural category of a type literal.
type Shape int

const (
	Value Shape = iota
	Primitive
	ConstStringPtr
	MutStringPtr
	ConstObjectPtr
	MutObjectPtr
	VoidPtr
	PointerArray
	OtherPointer
)

var shapeNames = map[Shape]string{
	Value:          "Value",
	Primitive:      "Primitive",
	ConstStringPtr: "ConstStringPtr",
	MutStringPtr:   "MutStringPtr",
	ConstObjectPtr: "ConstObjectPtr",
	MutObjectPtr:   "MutObjectPtr",
	VoidPtr:        "VoidPtr",
	PointerArray:   "PointerArray",
	OtherPointer:   "OtherPointer",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "Shape(?)"
}

// IsPointer reports whether the shape denotes a raw pointer.
func (s Shape) IsPointer() bool {
	return s != Value && s != Primitive
}

// primitives are the Rust scalar types that classify as Primitive.
var primitives = map[string]bool{
	"u8": true, "u16": true, "u32": true, "u64": true,
	"i8": true, "i16": true, "i32": true, "i64": true,
	"usize": true, "isize": true, "f32": true, "f64": true,
	"bool": true,
}

// Classifier maps type literals to shapes. It holds no mutable state.
type Classifier struct {
	objectTypes map[string]bool
	charTypes   map[string]bool
	voidTypes   map[string]bool
}

// NewClassifier creates a classifier for the naming conventions in lib.
func NewClassifier(lib manifest.Library) *Classifier {
	return &Classifier{
		objectTypes: toSet(lib.ObjectTypes),
		charTypes:   toSet(lib.CharTypes),
		voidTypes:   toSet(lib.VoidTypes),
	}
}

// DefaultClassifier creates a classifier with the built-in LVGL conventions.
func DefaultClassifier() *Classifier {
	return NewClassifier(manifest.Default().Library)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[Canonical(it)] = true
	}
	return set
}

// Canonical re-tokenizes a literal into the token-spaced spelling produced
// by the Loader, so "*const cty::c_char" becomes "* const cty :: c_char".
// A literal that does not parse as a type only has its whitespace folded.
func Canonical(literal string) string {
	tree, typ, src, err := parseTypeLiteral(literal)
	if err != nil {
		return strings.Join(strings.Fields(literal), " ")
	}
	defer tree.Close()
	return typeLiteral(typ, src)
}

// IsConst reports whether a literal starts with the const qualifier,
// either directly or as the qualifier of its outermost pointer.
func IsConst(literal string) bool {
	toks := strings.Fields(literal)
	if len(toks) == 0 {
		return false
	}
	if toks[0] == "const" {
		return true
	}
	return len(toks) > 1 && toks[0] == "*" && toks[1] == "const"
}

// Classify computes the shape of a literal. Rules are evaluated in order;
// the first match wins. Only Value, Primitive and OtherPointer literals are
// parsed structurally, and a failed parse is returned as *TypeParseError.
func (c *Classifier) Classify(literal string) (Type, error) {
	tree, typ, src, err := parseTypeLiteral(literal)
	if err != nil {
		return Type{}, err
	}
	defer tree.Close()
	return c.classifyNode(typ, src)
}

func (c *Classifier) classifyNode(n *sitter.Node, src []byte) (Type, error) {
	lit := typeLiteral(n, src)
	t := Type{Literal: lit, Const: IsConst(lit)}

	if n.Type() != "pointer_type" {
		path, err := pathFromNode(n, src)
		if err != nil {
			return Type{}, &TypeParseError{Literal: lit, Msg: err.Error()}
		}
		t.Path = path
		t.Shape = Value
		if len(path.Segments) == 1 && !path.Global && !path.HasGenerics() && primitives[path.Name()] {
			t.Shape = Primitive
		}
		return t, nil
	}

	inner := n.ChildByFieldName("type")
	if inner == nil || n.ChildCount() < 3 {
		return Type{}, &TypeParseError{Literal: lit, Msg: "incomplete pointer"}
	}
	qual := n.Child(1).Content(src)
	pointee := typeLiteral(inner, src)
	switch {
	case qual == "const" && c.charTypes[pointee]:
		t.Shape = ConstStringPtr
		return t, nil
	case qual == "mut" && c.charTypes[pointee]:
		t.Shape = MutStringPtr
		return t, nil
	case qual == "const" && c.objectTypes[pointee]:
		t.Shape = ConstObjectPtr
		return t, nil
	case qual == "mut" && c.objectTypes[pointee]:
		t.Shape = MutObjectPtr
		return t, nil
	}

	if inner.Type() == "pointer_type" {
		t.Shape = PointerArray
		return t, nil
	}
	if c.voidTypes[pointee] {
		t.Shape = VoidPtr
		return t, nil
	}
	path, err := pathFromNode(inner, src)
	if err != nil {
		return Type{}, &TypeParseError{Literal: lit, Msg: err.Error()}
	}
	t.Shape = OtherPointer
	t.Path = path
	return t, nil
}

// MustClassify is like Classify but panics on error. Intended for tests and
// hand-built declarations.
func (c *Classifier) MustClassify(literal string) Type {
	t, err := c.Classify(literal)
	if err != nil {
		panic(err)
	}
	return t
}
