package lower

import (
	"strings"

	"github.com/chazu/lvglgen/decl"
)

// scalar pairs the Go type exposed to callers with the C type the native
// call expects.
type scalar struct {
	Go string
	C  string
}

var rustScalars = map[string]scalar{
	"u8":    {"uint8", "uint8_t"},
	"u16":   {"uint16", "uint16_t"},
	"u32":   {"uint32", "uint32_t"},
	"u64":   {"uint64", "uint64_t"},
	"i8":    {"int8", "int8_t"},
	"i16":   {"int16", "int16_t"},
	"i32":   {"int32", "int32_t"},
	"i64":   {"int64", "int64_t"},
	"usize": {"uint", "size_t"},
	"isize": {"int", "intptr_t"},
	"f32":   {"float32", "float"},
	"f64":   {"float64", "double"},
	"bool":  {"bool", "bool"},
}

// ctyScalars covers the cty / std::os::raw / core::ffi aliases, keyed by the
// last path segment.
var ctyScalars = map[string]scalar{
	"c_char":      {"int8", "char"},
	"c_schar":     {"int8", "schar"},
	"c_uchar":     {"uint8", "uchar"},
	"c_short":     {"int16", "short"},
	"c_ushort":    {"uint16", "ushort"},
	"c_int":       {"int32", "int"},
	"c_uint":      {"uint32", "uint"},
	"c_long":      {"int64", "long"},
	"c_ulong":     {"uint64", "ulong"},
	"c_longlong":  {"int64", "longlong"},
	"c_ulonglong": {"uint64", "ulonglong"},
	"c_float":     {"float32", "float"},
	"c_double":    {"float64", "double"},
}

// typeMapper resolves Value and OtherPointer paths to Go and C types.
type typeMapper struct {
	overrides map[string]string // Rust literal or name → Go type
}

// scalarFor returns the Go/C pair for a path that denotes a C scalar, either
// built in or declared and overridden in the manifest.
func (tm *typeMapper) scalarFor(p *decl.TypePath) (scalar, bool) {
	name := p.Name()
	var s scalar
	var ok bool
	if len(p.Segments) == 1 && !p.Global {
		s, ok = rustScalars[name]
	}
	if !ok && strings.HasPrefix(name, "c_") {
		s, ok = ctyScalars[name]
	}
	if goType, found := tm.override(p); found {
		if !ok {
			s = scalar{C: name}
		}
		s.Go = goType
		ok = true
	}
	return s, ok
}

func (tm *typeMapper) override(p *decl.TypePath) (string, bool) {
	if goType, ok := tm.overrides[p.String()]; ok {
		return goType, true
	}
	goType, ok := tm.overrides[p.Name()]
	return goType, ok
}

// cName returns the cgo type name for a path: scalars map to their C
// spelling, anything else is assumed to be declared by the C headers.
func (tm *typeMapper) cName(p *decl.TypePath) string {
	if len(p.Segments) == 1 && !p.Global {
		if s, ok := rustScalars[p.Name()]; ok {
			return s.C
		}
	}
	if s, ok := ctyScalars[p.Name()]; ok {
		return s.C
	}
	return p.Name()
}
