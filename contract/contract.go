// Package contract verifies that a hand-written Go runtime package declares
// the names generated wrappers depend on.
package contract

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/tools/go/packages"

	"github.com/chazu/lvglgen/manifest"
)

var log = commonlog.GetLogger("lvglgen.contract")

// Kind is the declaration kind a runtime name must have.
type Kind int

const (
	Type Kind = iota
	Func
	Var
)

func (k Kind) String() string {
	switch k {
	case Type:
		return "type"
	case Func:
		return "func"
	case Var:
		return "var"
	}
	return "unknown"
}

// Requirement is one runtime name and the methods it must provide.
type Requirement struct {
	Name    string
	Kind    Kind
	Methods []string
}

// Requirements lists what generated code for m refers to.
func Requirements(m *manifest.Manifest) []Requirement {
	rt := m.Runtime
	return []Requirement{
		{Name: rt.NativeObject, Kind: Type, Methods: []string{"Raw", "RawMut"}},
		{Name: rt.Root, Kind: Type, Methods: []string{"Raw", "RawMut", "FromRaw"}},
		{Name: rt.CStr, Kind: Type, Methods: []string{"Ptr"}},
		{Name: rt.CString, Kind: Type, Methods: []string{"Detach", "Reattach"}},
		{Name: rt.InvalidReference, Kind: Var},
		{Name: rt.ActiveScreen, Kind: Func},
	}
}

// Finding is one unmet requirement.
type Finding struct {
	Name    string
	Problem string
}

func (f Finding) String() string {
	return f.Name + ": " + f.Problem
}

// Report is the outcome of a contract check.
type Report struct {
	Package  string
	Files    int
	Findings []Finding
}

// OK reports whether every requirement is met.
func (r *Report) OK() bool {
	return len(r.Findings) == 0
}

// decls indexes the top-level declarations of a package.
type decls struct {
	kinds   map[string]Kind
	methods map[string]map[string]bool
}

func newDecls() *decls {
	return &decls{kinds: map[string]Kind{}, methods: map[string]map[string]bool{}}
}

func (d *decls) addMethod(typeName, method string) {
	if d.methods[typeName] == nil {
		d.methods[typeName] = map[string]bool{}
	}
	d.methods[typeName][method] = true
}

// Check loads the Go package in dir and verifies it against m. The package
// is only parsed, never type-checked, so cgo and the native headers are not
// needed.
func Check(dir string, m *manifest.Manifest) (*Report, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles,
		Dir:  dir,
		Env:  append(os.Environ(), "CGO_ENABLED=1"),
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", dir, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found in %s", dir)
	}
	if len(pkgs[0].Errors) > 0 {
		return nil, fmt.Errorf("package errors: %v", pkgs[0].Errors)
	}
	pkg := pkgs[0]

	fset := token.NewFileSet()
	index := newDecls()
	for _, path := range pkg.GoFiles {
		file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		index.collect(file)
	}
	log.Debugf("indexed %d declarations in %s", len(index.kinds), pkg.PkgPath)

	return &Report{
		Package:  pkg.PkgPath,
		Files:    len(pkg.GoFiles),
		Findings: index.verify(Requirements(m)),
	}, nil
}

// CheckFiles verifies already parsed files against m.
func CheckFiles(files []*ast.File, m *manifest.Manifest) []Finding {
	index := newDecls()
	for _, f := range files {
		index.collect(f)
	}
	return index.verify(Requirements(m))
}

func (d *decls) collect(file *ast.File) {
	for _, decl := range file.Decls {
		switch decl := decl.(type) {
		case *ast.FuncDecl:
			if decl.Recv == nil || len(decl.Recv.List) == 0 {
				d.kinds[decl.Name.Name] = Func
				continue
			}
			if recv := receiverName(decl.Recv.List[0].Type); recv != "" {
				d.addMethod(recv, decl.Name.Name)
			}

		case *ast.GenDecl:
			for _, spec := range decl.Specs {
				switch spec := spec.(type) {
				case *ast.TypeSpec:
					d.kinds[spec.Name.Name] = Type
					iface, ok := spec.Type.(*ast.InterfaceType)
					if !ok {
						continue
					}
					for _, field := range iface.Methods.List {
						for _, name := range field.Names {
							d.addMethod(spec.Name.Name, name.Name)
						}
					}
				case *ast.ValueSpec:
					if decl.Tok != token.VAR {
						continue
					}
					for _, name := range spec.Names {
						d.kinds[name.Name] = Var
					}
				}
			}
		}
	}
}

func (d *decls) verify(reqs []Requirement) []Finding {
	var findings []Finding
	for _, req := range reqs {
		kind, ok := d.kinds[req.Name]
		if !ok {
			findings = append(findings, Finding{Name: req.Name, Problem: "not declared"})
			continue
		}
		if kind != req.Kind {
			findings = append(findings, Finding{
				Name:    req.Name,
				Problem: fmt.Sprintf("declared as %s, want %s", kind, req.Kind),
			})
			continue
		}
		var missing []string
		for _, m := range req.Methods {
			if !d.methods[req.Name][m] {
				missing = append(missing, m)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			findings = append(findings, Finding{
				Name:    req.Name,
				Problem: "missing methods " + strings.Join(missing, ", "),
			})
		}
	}
	return findings
}

// receiverName returns the base type name of a method receiver, unwrapping
// pointers and type parameters.
func receiverName(expr ast.Expr) string {
	for {
		switch t := expr.(type) {
		case *ast.Ident:
			return t.Name
		case *ast.StarExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.ParenExpr:
			expr = t.X
		default:
			return ""
		}
	}
}
