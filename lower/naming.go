package lower

import (
	"go/token"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
)

// WidgetTypeName converts a widget namespace to its Go type name.
// e.g., "arc" → "Arc", "btnmatrix" → "Btnmatrix"
func WidgetTypeName(widget string) string {
	return strcase.ToCamel(widget)
}

// OperationName converts a stripped declaration name to an exported Go name.
// e.g., "set_bg_end_angle" → "SetBgEndAngle", "get_x2" → "GetX2"
func OperationName(short string) string {
	return strcase.ToCamel(short)
}

// ConstructorName returns the Create<W> function name for a widget type.
func ConstructorName(typeName string) string {
	return "Create" + typeName
}

// DefaultConstructorName returns the New<W> function name for a widget type.
func DefaultConstructorName(typeName string) string {
	return "New" + typeName
}

// paramNamer hands out unique Go parameter names within one operation.
type paramNamer struct {
	used map[string]bool
}

func newParamNamer(reserved ...string) *paramNamer {
	n := &paramNamer{used: make(map[string]bool)}
	for _, r := range reserved {
		n.used[r] = true
	}
	return n
}

// name converts a C parameter name to lowerCamelCase, renaming Go keywords
// and collisions with a trailing underscore. Unnamed parameters become argN.
func (n *paramNamer) name(cName string, index int) string {
	base := strcase.ToLowerCamel(strings.TrimLeft(cName, "_"))
	if base == "" {
		base = "arg" + strconv.Itoa(index)
	}
	if token.Lookup(base).IsKeyword() {
		base += "_"
	}
	return n.claim(base)
}

// derived returns a fresh name built from an existing one, e.g. "bufRaw".
func (n *paramNamer) derived(from, suffix string) string {
	return n.claim(from + suffix)
}

func (n *paramNamer) claim(base string) string {
	name := base
	for n.used[name] {
		name += "_"
	}
	n.used[name] = true
	return name
}
