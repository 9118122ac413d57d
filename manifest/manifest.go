// Package manifest handles lvglgen.toml generator configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// FileName is the name of the configuration file looked up by FindAndLoad.
const FileName = "lvglgen.toml"

// Manifest represents an lvglgen.toml configuration.
type Manifest struct {
	Project Project           `toml:"project"`
	Library Library           `toml:"library"`
	Runtime Runtime           `toml:"runtime"`
	Types   map[string]string `toml:"types"`

	// Dir is the directory containing the lvglgen.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project configures input, output and the emitted Go package.
type Project struct {
	Input   string `toml:"input"`
	Output  string `toml:"output"`
	Package string `toml:"package"`
	Include string `toml:"include"`
}

// Library describes the naming conventions of the wrapped toolkit.
type Library struct {
	Prefix      string   `toml:"prefix"`
	RootWidget  string   `toml:"root-widget"`
	ObjectTypes []string `toml:"object-types"`
	VoidTypes   []string `toml:"void-types"`
	CharTypes   []string `toml:"char-types"`
}

// Runtime names the hand-written declarations the generated code depends on.
type Runtime struct {
	NativeObject     string `toml:"native-object"`
	Root             string `toml:"root"`
	Interface        string `toml:"interface"`
	CStr             string `toml:"cstr"`
	CString          string `toml:"cstring"`
	InvalidReference string `toml:"invalid-reference"`
	ActiveScreen     string `toml:"active-screen"`
}

// Default returns the built-in configuration for LVGL bindgen output.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load parses an lvglgen.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes manifest TOML, applies defaults and validates the result.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find an lvglgen.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) applyDefaults() {
	if m.Project.Output == "" {
		m.Project.Output = "."
	}
	if m.Project.Package == "" {
		m.Project.Package = "lvgl"
	}
	if m.Project.Include == "" {
		m.Project.Include = "lvgl.h"
	}

	lib := &m.Library
	if lib.Prefix == "" {
		lib.Prefix = "lv_"
	}
	if lib.RootWidget == "" {
		lib.RootWidget = "obj"
	}
	if len(lib.ObjectTypes) == 0 {
		lib.ObjectTypes = []string{"lv_obj_t", "_lv_obj_t"}
	}
	if len(lib.VoidTypes) == 0 {
		lib.VoidTypes = []string{"cty :: c_void", "c_void", "core :: ffi :: c_void", "std :: os :: raw :: c_void", ":: std :: os :: raw :: c_void"}
	}
	if len(lib.CharTypes) == 0 {
		lib.CharTypes = []string{"cty :: c_char", "c_char", "core :: ffi :: c_char", "std :: os :: raw :: c_char", ":: std :: os :: raw :: c_char"}
	}

	rt := &m.Runtime
	setDefault(&rt.NativeObject, "NativeObject")
	setDefault(&rt.Root, "Obj")
	setDefault(&rt.Interface, "Widget")
	setDefault(&rt.CStr, "CStr")
	setDefault(&rt.CString, "CString")
	setDefault(&rt.InvalidReference, "ErrInvalidReference")
	setDefault(&rt.ActiveScreen, "ActiveScreen")

	if m.Types == nil {
		m.Types = map[string]string{}
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate reports every configuration problem at once.
func (m *Manifest) Validate() error {
	var err error
	if !strings.HasSuffix(m.Library.Prefix, "_") {
		err = multierr.Append(err, fmt.Errorf("library.prefix %q must end with '_'", m.Library.Prefix))
	}
	if strings.Contains(m.Library.RootWidget, "_") {
		err = multierr.Append(err, fmt.Errorf("library.root-widget %q must not contain '_'", m.Library.RootWidget))
	}
	for _, t := range m.Library.ObjectTypes {
		if strings.TrimSpace(t) == "" {
			err = multierr.Append(err, fmt.Errorf("library.object-types contains an empty name"))
		}
	}
	for _, f := range []struct{ key, value string }{
		{"runtime.native-object", m.Runtime.NativeObject},
		{"runtime.root", m.Runtime.Root},
		{"runtime.interface", m.Runtime.Interface},
		{"runtime.cstr", m.Runtime.CStr},
		{"runtime.cstring", m.Runtime.CString},
		{"runtime.invalid-reference", m.Runtime.InvalidReference},
		{"runtime.active-screen", m.Runtime.ActiveScreen},
	} {
		if strings.ContainsAny(f.value, " .*") {
			err = multierr.Append(err, fmt.Errorf("%s %q is not a Go identifier", f.key, f.value))
		}
	}
	rustTypes := make([]string, 0, len(m.Types))
	for rust := range m.Types {
		rustTypes = append(rustTypes, rust)
	}
	sort.Strings(rustTypes)
	for _, rust := range rustTypes {
		if m.Types[rust] == "" {
			err = multierr.Append(err, fmt.Errorf("types.%s maps to an empty Go type", rust))
		}
	}
	return err
}

// InputPath returns the absolute path of the configured declaration input.
func (m *Manifest) InputPath() string {
	if m.Project.Input == "" || filepath.IsAbs(m.Project.Input) {
		return m.Project.Input
	}
	return filepath.Join(m.Dir, m.Project.Input)
}

// OutputDir returns the absolute path of the generated-source directory.
func (m *Manifest) OutputDir() string {
	if filepath.IsAbs(m.Project.Output) {
		return m.Project.Output
	}
	return filepath.Join(m.Dir, m.Project.Output)
}

// WidgetPrefix returns the declaration-name prefix of widget name (e.g. "lv_arc_").
func (m *Manifest) WidgetPrefix(name string) string {
	return m.Library.Prefix + name + "_"
}
