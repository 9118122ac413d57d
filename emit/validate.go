package emit

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/chazu/lvglgen/manifest"
)

// stubFile is the name under which the runtime contract stub is checked.
const stubFile = "runtime_stub.go"

// ValidationError is a compile error in generated code, attributed to the
// function that contains it.
type ValidationError struct {
	File     string
	Line     int
	Column   int
	Function string // method or function name, "<package>" outside any function
	Receiver string // receiver type for methods
	Message  string
}

func (e ValidationError) Error() string {
	where := e.Function
	if e.Receiver != "" {
		where = "(" + e.Receiver + ")." + e.Function
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, where, e.Message)
}

// Validator type-checks generated files in memory against a stub of the
// runtime contract, without invoking cgo or the compiler.
type Validator struct {
	cfg *manifest.Manifest
}

// NewValidator creates a Validator for m.
func NewValidator(m *manifest.Manifest) *Validator {
	return &Validator{cfg: m}
}

// Validate parses and type-checks files as one package. It returns nil when
// the generated code is well-formed.
func (v *Validator) Validate(files []*File) []ValidationError {
	fset := token.NewFileSet()
	stub, err := v.Stub()
	if err != nil {
		return []ValidationError{{File: stubFile, Function: "<package>", Message: err.Error()}}
	}

	var parsed []*ast.File
	var errs []ValidationError
	sources := append([]*File{{Name: stubFile, Content: stub}}, files...)
	for _, src := range sources {
		file, err := parser.ParseFile(fset, src.Name, src.Content, parser.AllErrors|parser.ParseComments)
		if err != nil {
			errs = append(errs, parseErrors(src.Name, err)...)
			continue
		}
		parsed = append(parsed, file)
	}
	if len(errs) > 0 {
		return errs
	}

	funcs := map[string]map[int]*functionInfo{}
	for _, file := range parsed {
		name := fset.Position(file.Pos()).Filename
		funcs[name] = buildFunctionMap(fset, file)
	}

	conf := types.Config{
		FakeImportC: true,
		Error: func(err error) {
			var typeErr types.Error
			if !errors.As(err, &typeErr) {
				return
			}
			pos := fset.Position(typeErr.Pos)
			fn := funcs[pos.Filename][pos.Line]
			if fn == nil {
				fn = &functionInfo{Name: "<package>"}
			}
			errs = append(errs, ValidationError{
				File:     pos.Filename,
				Line:     pos.Line,
				Column:   pos.Column,
				Function: fn.Name,
				Receiver: fn.Receiver,
				Message:  typeErr.Msg,
			})
		},
	}
	_, _ = conf.Check(v.cfg.Project.Package, fset, parsed, nil)

	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].File != errs[j].File {
			return errs[i].File < errs[j].File
		}
		return errs[i].Line < errs[j].Line
	})
	return errs
}

// Stub renders a minimal Go declaration of every runtime contract name the
// generated code refers to.
func (v *Validator) Stub() ([]byte, error) {
	rt := v.cfg.Runtime
	obj := jen.Op("*").Qual("C", v.cfg.Library.ObjectTypes[0])
	char := jen.Op("*").Qual("C", "char")

	f := jen.NewFile(v.cfg.Project.Package)
	f.CgoPreamble(NewAssembler(v.cfg).preamble())
	f.Var().Id(rt.InvalidReference).Error()
	f.Type().Id(rt.NativeObject).Interface(
		jen.Id("Raw").Params().Add(obj.Clone()),
		jen.Id("RawMut").Params().Add(obj.Clone()),
	)
	f.Type().Id(rt.Root).Struct(jen.Id("raw").Add(obj.Clone()))
	f.Func().Params(jen.Id("o").Id(rt.Root)).Id("Raw").Params().Add(obj.Clone()).Block(jen.Return(jen.Id("o").Dot("raw")))
	f.Func().Params(jen.Id("o").Op("*").Id(rt.Root)).Id("RawMut").Params().Add(obj.Clone()).Block(jen.Return(jen.Id("o").Dot("raw")))
	f.Func().Params(jen.Id("o").Op("*").Id(rt.Root)).Id("FromRaw").Params(jen.Id("raw").Add(obj.Clone())).Bool().Block(
		jen.Id("o").Dot("raw").Op("=").Id("raw"),
		jen.Return(jen.Id("raw").Op("!=").Nil()),
	)
	f.Type().Id(rt.CStr).Struct()
	f.Func().Params(jen.Id("s").Op("*").Id(rt.CStr)).Id("Ptr").Params().Add(char.Clone()).Block(jen.Return(jen.Nil()))
	f.Type().Id(rt.CString).Struct()
	f.Func().Params(jen.Id("s").Op("*").Id(rt.CString)).Id("Detach").Params().Add(char.Clone()).Block(jen.Return(jen.Nil()))
	f.Func().Params(jen.Id("s").Op("*").Id(rt.CString)).Id("Reattach").Params(jen.Id("raw").Add(char.Clone())).Block()
	f.Func().Id(rt.ActiveScreen).Params().Id(rt.NativeObject).Block(jen.Return(jen.Nil()))

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("rendering runtime stub: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatValidationErrors returns a human-readable error report.
func FormatValidationErrors(errs []ValidationError) string {
	if len(errs) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, err := range errs {
		sb.WriteString("  ")
		sb.WriteString(err.Error())
		sb.WriteByte('\n')
	}
	return sb.String()
}

type functionInfo struct {
	Name     string
	Receiver string
}

func parseErrors(file string, err error) []ValidationError {
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		return []ValidationError{{File: file, Line: 1, Column: 1, Function: "<package>", Message: err.Error()}}
	}
	out := make([]ValidationError, len(list))
	for i, e := range list {
		out[i] = ValidationError{
			File:     file,
			Line:     e.Pos.Line,
			Column:   e.Pos.Column,
			Function: "<package>",
			Message:  e.Msg,
		}
	}
	return out
}

func buildFunctionMap(fset *token.FileSet, file *ast.File) map[int]*functionInfo {
	funcMap := make(map[int]*functionInfo)
	for _, d := range file.Decls {
		fn, ok := d.(*ast.FuncDecl)
		if !ok {
			continue
		}
		info := &functionInfo{Name: fn.Name.Name}
		if fn.Recv != nil && len(fn.Recv.List) > 0 {
			info.Receiver = receiverType(fn.Recv.List[0].Type)
		}
		start, end := fset.Position(fn.Pos()).Line, fset.Position(fn.End()).Line
		for line := start; line <= end; line++ {
			funcMap[line] = info
		}
	}
	return funcMap
}

func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return "*" + ident.Name
		}
	}
	return ""
}
