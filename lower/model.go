// Package lower turns classified declarations into wrapper operations.
package lower

import (
	"errors"
	"fmt"

	"github.com/chazu/lvglgen/decl"
)

// Kind distinguishes generic methods from synthesized constructors.
type Kind int

const (
	// Method is a generically lowered declaration.
	Method Kind = iota
	// Constructor is Create<W>(parent), wrapping the native create call.
	Constructor
	// DefaultConstructor is New<W>(), creating on the active screen.
	DefaultConstructor
)

// TypeRef is a Go type as it appears in emitted code.
type TypeRef struct {
	Name    string // "uint16", "lv_coord_t", "NativeObject"
	C       bool   // qualified with the cgo pseudo-package
	Pointer bool
}

// ExprKind selects how an argument expression is rendered.
type ExprKind int

const (
	// Ident renders the variable as is.
	Ident ExprKind = iota
	// Accessor renders Ident[.Field].Method().
	Accessor
	// Convert renders C.CType(Ident).
	Convert
)

// Expr is an argument at the native call site.
type Expr struct {
	Kind   ExprKind
	Ident  string
	Field  string
	Method string
	CType  string
}

// Receiver is the lowered form of parameter 0.
type Receiver struct {
	Name    string
	Type    string
	Mutable bool // pointer receiver
	Root    bool // the receiver addresses the object itself, not an embedded field
}

// Param is a lowered parameter 1..N.
type Param struct {
	Name  string
	Type  TypeRef
	Shape decl.Shape
}

// StepKind identifies a buffer ownership handoff step.
type StepKind int

const (
	// Detach moves the raw pointer out of a buffer before the call.
	Detach StepKind = iota
	// Reattach restores buffer ownership from the raw pointer after the call.
	Reattach
)

// Step is one half of a buffer handoff. Operation.Pre[i] and Operation.Post[i]
// belong to the same buffer; the reattach is deferred right after its detach.
type Step struct {
	Kind   StepKind
	Param  string
	Raw    string
	Method string
}

// Call is the native invocation.
type Call struct {
	Symbol string
	Args   []Expr
}

// Result is the wrapper's return form. A nil Type means no result.
type Result struct {
	Type *TypeRef
	// Convert names the Go type the native value is converted to, if any.
	Convert string
}

// Operation is a fully lowered wrapper.
type Operation struct {
	Decl   *decl.Declaration
	Widget string // Go type name of the owning widget, e.g. "Arc"
	Short  string // identifier left after stripping the widget prefix
	Name   string // Go identifier
	Kind   Kind
	Doc    []string

	Receiver Receiver // Method only
	Params   []Param
	Pre      []Step
	Call     Call
	Post     []Step
	Result   Result

	// Constructor and DefaultConstructor only.
	InvalidReference string // sentinel error returned for a nil handle
	Delegate         string // DefaultConstructor: the Create<W> function
	ActiveScreen     string // DefaultConstructor: the default-parent function
}

// SkipError reports a declaration that cannot be wrapped. It is recoverable:
// the declaration is left out of the generated code.
type SkipError struct {
	Function string
	Type     string
	Reason   string
}

func (e *SkipError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("skipping %s: %s", e.Function, e.Reason)
	}
	return fmt.Sprintf("skipping %s: %s (%s)", e.Function, e.Reason, e.Type)
}

// IsSkip reports whether err is a *SkipError.
func IsSkip(err error) bool {
	var se *SkipError
	return errors.As(err, &se)
}

func skip(d *decl.Declaration, literal, reason string) error {
	return &SkipError{Function: d.Name, Type: literal, Reason: reason}
}
