// Package codegen runs the full generation pipeline: load declarations,
// extract widgets, lower their operations and assemble one Go file per
// widget.
package codegen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/lvglgen/decl"
	"github.com/chazu/lvglgen/emit"
	"github.com/chazu/lvglgen/lower"
	"github.com/chazu/lvglgen/manifest"
	"github.com/chazu/lvglgen/widget"
)

var log = commonlog.GetLogger("lvglgen.codegen")

// Options tunes a generation run.
type Options struct {
	// Jobs bounds the number of widgets lowered concurrently.
	// Zero or less means GOMAXPROCS.
	Jobs int
	// Validate type-checks the emitted package before returning it.
	Validate bool
}

// WidgetResult is the outcome for one widget.
type WidgetResult struct {
	Widget     *widget.Widget
	Type       string
	Operations []*lower.Operation
	Skipped    []*lower.SkipError
	File       *emit.File
}

// Result is the outcome of a generation run. Widgets and Files are in
// widget discovery order.
type Result struct {
	Declarations int
	Widgets      []*WidgetResult
	Files        []*emit.File
	Skipped      []*lower.SkipError
}

// InvalidOutputError is returned when the emitted package does not type-check.
type InvalidOutputError struct {
	Errors []emit.ValidationError
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("generated code does not type-check (%d errors):\n%s",
		len(e.Errors), emit.FormatValidationErrors(e.Errors))
}

// Generate converts the declarations in src into Go wrapper files. Identical
// input and configuration always produce identical output.
func Generate(ctx context.Context, src []byte, m *manifest.Manifest, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	decls, err := decl.NewLoader(m).Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("loading declarations: %w", err)
	}

	widgets := widget.Extract(decls, m.Library)
	if len(widgets) == 0 {
		log.Warningf("no widgets found among %d declarations", len(decls))
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	l := lower.New(m)
	a := emit.NewAssembler(m)
	slots := make([]*WidgetResult, len(widgets))

	// The root is lowered first: every other widget is checked against its
	// methods.
	var rootOps []*lower.Operation
	for i, w := range widgets {
		if w.IsRoot(m.Library) {
			ops, skipped := l.Widget(w)
			slots[i] = &WidgetResult{Widget: w, Type: l.TypeName(w), Operations: ops, Skipped: skipped}
			rootOps = ops
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for i, w := range widgets {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			wr := slots[i]
			if wr == nil {
				ops, skipped := l.Widget(w)
				ops, conflicts := lower.DropConflicts(ops, rootOps)
				wr = &WidgetResult{
					Widget:     w,
					Type:       l.TypeName(w),
					Operations: ops,
					Skipped:    append(skipped, conflicts...),
				}
			}
			file, err := a.Assemble(w, wr.Operations)
			if err != nil {
				return fmt.Errorf("widget %s: %w", w.Name, err)
			}
			wr.File = file
			slots[i] = wr
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Declarations: len(decls), Widgets: slots}
	for _, wr := range slots {
		res.Files = append(res.Files, wr.File)
		res.Skipped = append(res.Skipped, wr.Skipped...)
	}
	log.Infof("generated %d files from %d declarations (%d skipped)", len(res.Files), len(decls), len(res.Skipped))

	if opts.Validate {
		if errs := emit.NewValidator(m).Validate(res.Files); len(errs) > 0 {
			return res, &InvalidOutputError{Errors: errs}
		}
	}
	return res, nil
}

// GenerateFile is Generate reading its input from path.
func GenerateFile(ctx context.Context, path string, m *manifest.Manifest, opts Options) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return Generate(ctx, src, m, opts)
}

// WriteFiles writes files into dir, creating it if needed. Files whose
// content is unchanged are left untouched. It returns the names written.
func WriteFiles(dir string, files []*emit.File) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, f.Content) {
			log.Debugf("%s is up to date", path)
			continue
		}
		if err := os.WriteFile(path, f.Content, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, f.Name)
	}
	return written, nil
}

// RemoveStale deletes generated files in dir that are not among files. Only
// "*_gen.go" files starting with the generated-code header are touched. It
// returns the names removed.
func RemoveStale(dir string, files []*emit.File) ([]string, error) {
	keep := make(map[string]bool, len(files))
	for _, f := range files {
		keep[f.Name] = true
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*_gen.go"))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	header := []byte("// " + emit.Header)
	var removed []string
	for _, path := range matches {
		name := filepath.Base(path)
		if keep[name] {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return removed, fmt.Errorf("reading %s: %w", path, err)
		}
		if !bytes.HasPrefix(data, header) {
			log.Debugf("%s is not generated, keeping it", path)
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", path, err)
		}
		log.Infof("removed stale %s", path)
		removed = append(removed, name)
	}
	return removed, nil
}
