package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/lvglgen/decl"
)

const fixture = "../../codegen/testdata/lvgl_bindings.rs"

func resetFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		configDir, inputPath, outputDir, reportPath = "", "", "", ""
		verbosity, jobs = 0, 0
		noValidate, dryRun = false, false
	}
	reset()
	t.Cleanup(reset)
}

// project writes an lvglgen.toml and the fixture into a fresh directory.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src, err := os.ReadFile(fixture)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bindings.rs"), src, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lvglgen.toml"), []byte(`[project]
input = "bindings.rs"
output = "lvgl"
`), 0o644))
	return dir
}

func newCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetContext(context.Background())
	return cmd, &buf
}

func TestGenerateCommand(t *testing.T) {
	resetFlags(t)
	dir := project(t)
	configDir = dir
	reportPath = filepath.Join(dir, "report.yaml")

	cmd, out := newCmd()
	require.NoError(t, runGenerate(cmd, nil))

	for _, name := range []string{"widget_gen.go", "arc_gen.go", "label_gen.go", "btn_gen.go", "btnmatrix_gen.go", "dropdown_gen.go"} {
		assert.FileExists(t, filepath.Join(dir, "lvgl", name))
	}
	assert.FileExists(t, reportPath)
	assert.Contains(t, out.String(), "skipped lv_obj_set_user_data: void pointer argument (* mut cty :: c_void)")
	assert.Contains(t, out.String(), "6 widgets, 21 operations, 5 skipped; 6 of 6 files written")

	out.Reset()
	require.NoError(t, runGenerate(cmd, nil))
	assert.Contains(t, out.String(), "0 of 6 files written", "second run leaves files untouched")
}

func TestGenerateDryRunFromStdin(t *testing.T) {
	resetFlags(t)
	dir := project(t)
	configDir = dir
	inputPath = "-"
	dryRun = true

	src, err := os.ReadFile(fixture)
	require.NoError(t, err)
	cmd, out := newCmd()
	cmd.SetIn(bytes.NewReader(src))

	require.NoError(t, runGenerate(cmd, nil))
	assert.Contains(t, out.String(), "arc_gen.go (")
	assert.NoDirExists(t, filepath.Join(dir, "lvgl"))
}

func TestGenerateOutputOverride(t *testing.T) {
	resetFlags(t)
	dir := project(t)
	configDir = dir
	outputDir = filepath.Join(t.TempDir(), "elsewhere")

	cmd, _ := newCmd()
	require.NoError(t, runGenerate(cmd, nil))
	assert.FileExists(t, filepath.Join(outputDir, "arc_gen.go"))
}

func TestGenerateMissingInput(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lvglgen.toml"), []byte("[project]\n"), 0o644))
	configDir = dir

	cmd, _ := newCmd()
	err := runGenerate(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input")
}

func TestWidgetsCommand(t *testing.T) {
	resetFlags(t)
	configDir = project(t)

	cmd, out := newCmd()
	require.NoError(t, runWidgets(cmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "WIDGET"))
	assert.Equal(t, []string{"obj", "Obj", "-", "4", "3"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"arc", "Arc", "yes", "6", "0"}, strings.Fields(lines[2]))
}

func TestCheckRuntimeCommand(t *testing.T) {
	resetFlags(t)
	configDir = project(t)
	rt := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rt, "go.mod"), []byte("module example.com/rt\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(rt, "rt.go"), []byte(`package rt

type NativeObject interface{ Raw() uintptr }
`), 0o644))

	cmd, out := newCmd()
	err := runCheckRuntime(cmd, []string{rt})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "example.com/rt does not satisfy the runtime contract")
	assert.Contains(t, out.String(), "NativeObject: missing methods RawMut")
	assert.Contains(t, out.String(), "Obj: not declared")
}

func TestPrintErrorHintsAtParseErrors(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, &decl.ParseError{Line: 2, Column: 5, Msg: "missing )"})
	assert.Equal(t, "error: parse error at 2:5: missing )\n"+
		"  the input must contain bindgen extern \"C\" blocks\n", buf.String())
}
