package contract

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/lvglgen/manifest"
)

const runtimeSource = `package lvgl

// #include "lvgl.h"
import "C"

import "errors"

var ErrInvalidReference = errors.New("invalid reference")

type NativeObject interface {
	Raw() *C.lv_obj_t
	RawMut() *C.lv_obj_t
}

type Obj struct {
	raw *C.lv_obj_t
}

func (o Obj) Raw() *C.lv_obj_t     { return o.raw }
func (o *Obj) RawMut() *C.lv_obj_t { return o.raw }

func (o *Obj) FromRaw(raw *C.lv_obj_t) bool {
	o.raw = raw
	return raw != nil
}

type CStr struct{ p *C.char }

func (s *CStr) Ptr() *C.char { return s.p }

type CString[T any] struct{ p *C.char }

func (s *CString[T]) Detach() *C.char     { return s.p }
func (s *CString[T]) Reattach(p *C.char) { s.p = p }

func ActiveScreen() NativeObject { return nil }
`

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "runtime.go", src, 0)
	require.NoError(t, err)
	return f
}

func TestCheckFilesComplete(t *testing.T) {
	findings := CheckFiles([]*ast.File{parse(t, runtimeSource)}, manifest.Default())
	assert.Empty(t, findings)
}

func TestCheckFilesFindings(t *testing.T) {
	src := `package lvgl

type NativeObject interface {
	Raw() uintptr
}

type Obj struct{}

func (o *Obj) FromRaw(raw uintptr) bool { return true }

type CStr struct{}

var ActiveScreen = func() NativeObject { return nil }

func ErrInvalidReference() {}
`
	findings := CheckFiles([]*ast.File{parse(t, src)}, manifest.Default())

	var got []string
	for _, f := range findings {
		got = append(got, f.String())
	}
	assert.Equal(t, []string{
		"NativeObject: missing methods RawMut",
		"Obj: missing methods Raw, RawMut",
		"CStr: missing methods Ptr",
		"CString: not declared",
		"ErrInvalidReference: declared as func, want var",
		"ActiveScreen: declared as var, want func",
	}, got)
}

func TestCheckFilesCustomNames(t *testing.T) {
	m := manifest.Default()
	m.Runtime.ActiveScreen = "Screen"
	findings := CheckFiles([]*ast.File{parse(t, runtimeSource)}, m)
	require.Len(t, findings, 1)
	assert.Equal(t, Finding{Name: "Screen", Problem: "not declared"}, findings[0])
}

func TestCheckPackage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/lvgl\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "runtime.go"), []byte(runtimeSource), 0o644))

	report, err := Check(dir, manifest.Default())
	require.NoError(t, err)
	assert.Equal(t, "example.com/lvgl", report.Package)
	assert.Equal(t, 1, report.Files)
	assert.True(t, report.OK(), "%v", report.Findings)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "type", Type.String())
	assert.Equal(t, "func", Func.String())
	assert.Equal(t, "var", Var.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
