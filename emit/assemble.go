// Package emit renders lowered operations as Go source files.
package emit

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/tliron/commonlog"

	"github.com/chazu/lvglgen/lower"
	"github.com/chazu/lvglgen/manifest"
	"github.com/chazu/lvglgen/widget"
)

var log = commonlog.GetLogger("lvglgen.emit")

// Header is the first line of every generated file.
const Header = "Code generated by lvglgen. DO NOT EDIT."

// File is one generated Go source file.
type File struct {
	Name    string // e.g. "arc_gen.go"
	Widget  string // widget namespace, e.g. "arc"
	Content []byte
}

// Assembler renders widgets for one configuration. It holds no mutable
// state and is safe for concurrent use.
type Assembler struct {
	cfg *manifest.Manifest
}

// NewAssembler creates an Assembler for m.
func NewAssembler(m *manifest.Manifest) *Assembler {
	return &Assembler{cfg: m}
}

// FileName returns the generated file name for w.
func (a *Assembler) FileName(w *widget.Widget) string {
	if w.IsRoot(a.cfg.Library) {
		return strings.ToLower(a.cfg.Runtime.Interface) + "_gen.go"
	}
	return w.Name + "_gen.go"
}

// Assemble renders w and its lowered operations as a gofmt'ed Go file.
// The root widget becomes the capability interface plus methods on the
// handle type; every other widget becomes a struct embedding the handle.
func (a *Assembler) Assemble(w *widget.Widget, ops []*lower.Operation) (*File, error) {
	f := jen.NewFile(a.cfg.Project.Package)
	f.HeaderComment(Header)
	f.CgoPreamble(a.preamble())

	typeName := a.cfg.Runtime.Root
	if w.IsRoot(a.cfg.Library) {
		a.rootInterface(f, ops)
	} else {
		typeName = lower.WidgetTypeName(w.Name)
		a.widgetType(f, w, typeName)
	}

	for _, op := range ops {
		switch op.Kind {
		case lower.Constructor:
			a.constructor(f, op)
		case lower.DefaultConstructor:
			a.defaultConstructor(f, op)
		}
	}
	for _, op := range ops {
		if op.Kind == lower.Method {
			a.method(f, op)
		}
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", typeName, err)
	}
	log.Debugf("assembled %s with %d operations", typeName, len(ops))
	return &File{Name: a.FileName(w), Widget: w.Name, Content: buf.Bytes()}, nil
}

func (a *Assembler) preamble() string {
	inc := a.cfg.Project.Include
	if strings.HasPrefix(inc, "<") {
		return "#include " + inc
	}
	return fmt.Sprintf("#include %q", inc)
}

func (a *Assembler) objectType() string {
	return a.cfg.Library.ObjectTypes[0]
}

// rootInterface emits the Widget[Event, Part] capability interface listing
// every root operation.
func (a *Assembler) rootInterface(f *jen.File, ops []*lower.Operation) {
	rt := a.cfg.Runtime
	methods := []jen.Code{
		jen.Id(rt.NativeObject),
		jen.Comment(fmt.Sprintf("FromRaw adopts raw and reports whether it is a valid %s.", a.objectType())),
		jen.Id("FromRaw").Params(jen.Id("raw").Op("*").Qual("C", a.objectType())).Bool(),
	}
	for _, op := range ops {
		if op.Kind != lower.Method {
			continue
		}
		methods = append(methods, a.signature(jen.Id(op.Name), op))
	}

	f.Comment(fmt.Sprintf("%s is implemented by every widget handle through the embedded %s.", rt.Interface, rt.Root))
	f.Comment("Event is reserved for typed event payloads. Part is the native part enumeration.")
	f.Type().Id(rt.Interface).Types(
		jen.Id("Event").Id("any"),
		jen.Id("Part").Op("~").Uint32(),
	).Interface(methods...)
	f.Line()
}

func (a *Assembler) widgetType(f *jen.File, w *widget.Widget, typeName string) {
	rt := a.cfg.Runtime
	f.Comment(fmt.Sprintf("%s is a handle to a native %s%s object.", typeName, a.cfg.Library.Prefix, w.Name))
	f.Type().Id(typeName).Struct(jen.Id(rt.Root))
	f.Line()
	f.Var().Id("_").Id(rt.Interface).Types(jen.Struct(), jen.Uint32()).
		Op("=").Parens(jen.Op("*").Id(typeName)).Parens(jen.Nil())
	f.Line()
}

func (a *Assembler) constructor(f *jen.File, op *lower.Operation) {
	comments(f, op.Doc)
	params := make([]jen.Code, len(op.Params))
	for i, p := range op.Params {
		params[i] = jen.Id(p.Name).Add(typeCode(p.Type))
	}
	f.Func().Id(op.Name).Params(params...).Params(typeCode(*op.Result.Type), jen.Error()).Block(
		jen.Id("raw").Op(":=").Add(nativeCall(op.Call)),
		jen.If(jen.Id("raw").Op("==").Nil()).Block(
			jen.Return(jen.Nil(), jen.Id(op.InvalidReference)),
		),
		jen.Id("w").Op(":=").Op("&").Id(op.Widget).Values(),
		jen.If(jen.Op("!").Id("w").Dot("FromRaw").Call(jen.Id("raw"))).Block(
			jen.Return(jen.Nil(), jen.Id(op.InvalidReference)),
		),
		jen.Return(jen.Id("w"), jen.Nil()),
	)
	f.Line()
}

func (a *Assembler) defaultConstructor(f *jen.File, op *lower.Operation) {
	comments(f, op.Doc)
	f.Func().Id(op.Name).Params().Params(typeCode(*op.Result.Type), jen.Error()).Block(
		jen.Return(jen.Id(op.Delegate).Call(jen.Id(op.ActiveScreen).Call())),
	)
	f.Line()
}

func (a *Assembler) method(f *jen.File, op *lower.Operation) {
	comments(f, op.Doc)
	recv := jen.Id(op.Receiver.Name)
	if op.Receiver.Mutable {
		recv.Op("*").Id(op.Receiver.Type)
	} else {
		recv.Id(op.Receiver.Type)
	}
	a.signature(f.Func().Params(recv).Id(op.Name), op).Block(body(op)...)
	f.Line()
}

// signature appends the parameter list and result of op to s.
func (a *Assembler) signature(s *jen.Statement, op *lower.Operation) *jen.Statement {
	params := make([]jen.Code, len(op.Params))
	for i, p := range op.Params {
		params[i] = jen.Id(p.Name).Add(typeCode(p.Type))
	}
	s.Params(params...)
	if op.Result.Type != nil {
		s.Add(typeCode(*op.Result.Type))
	}
	return s
}

// body renders each detach with its deferred reattach, then the native call.
func body(op *lower.Operation) []jen.Code {
	var stmts []jen.Code
	for i, pre := range op.Pre {
		post := op.Post[i]
		stmts = append(stmts,
			jen.Id(pre.Raw).Op(":=").Id(pre.Param).Dot(pre.Method).Call(),
			jen.Defer().Id(post.Param).Dot(post.Method).Call(jen.Id(post.Raw)),
		)
	}

	call := nativeCall(op.Call)
	if op.Result.Convert != "" {
		call = jen.Id(op.Result.Convert).Call(call)
	}
	if op.Result.Type == nil {
		return append(stmts, call)
	}
	return append(stmts, jen.Return(call))
}

func nativeCall(c lower.Call) *jen.Statement {
	args := make([]jen.Code, len(c.Args))
	for i, e := range c.Args {
		args[i] = argCode(e)
	}
	return jen.Qual("C", c.Symbol).Call(args...)
}

func argCode(e lower.Expr) jen.Code {
	switch e.Kind {
	case lower.Accessor:
		s := jen.Id(e.Ident)
		if e.Field != "" {
			s.Dot(e.Field)
		}
		return s.Dot(e.Method).Call()
	case lower.Convert:
		return jen.Qual("C", e.CType).Call(jen.Id(e.Ident))
	}
	if e.Ident == "nil" {
		return jen.Nil()
	}
	return jen.Id(e.Ident)
}

func typeCode(t lower.TypeRef) *jen.Statement {
	var s *jen.Statement
	if t.C {
		s = jen.Qual("C", t.Name)
	} else {
		s = jen.Id(t.Name)
	}
	if t.Pointer {
		return jen.Op("*").Add(s)
	}
	return s
}

func comments(f *jen.File, lines []string) {
	for _, line := range lines {
		if line == "" {
			f.Comment("//")
			continue
		}
		f.Comment(line)
	}
}
