package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chazu/lvglgen/codegen"
	"github.com/chazu/lvglgen/manifest"
)

var (
	reportPath string
	noValidate bool
	dryRun     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate widget wrappers into the output directory",
	Long: `Parses the declarations, lowers every wrappable function and writes
<widget>_gen.go files into the output directory. Files whose content did
not change are left untouched. Declarations that cannot be wrapped are
reported as skipped; malformed input is an error.

Example:
  lvglgen generate -i bindings.rs -o ./lvgl --report report.yaml`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	for _, cmd := range []*cobra.Command{generateCmd, watchCmd} {
		cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides project.output)")
		cmd.Flags().StringVar(&reportPath, "report", "", "write a YAML generation report to this path")
		cmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip type-checking the generated package")
	}
	generateCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "list the files that would be written")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	m, err := loadManifest()
	if err != nil {
		return err
	}
	src, err := readInput(cmd, m)
	if err != nil {
		return err
	}
	return generateOnce(cmd.Context(), cmd.OutOrStdout(), src, m)
}

// generateOnce runs the pipeline and writes its results.
func generateOnce(ctx context.Context, out io.Writer, src []byte, m *manifest.Manifest) error {
	res, err := codegen.Generate(ctx, src, m, codegen.Options{Jobs: jobs, Validate: !noValidate})
	var invalid *codegen.InvalidOutputError
	if errors.As(err, &invalid) && res != nil {
		printSkipped(out, res)
	}
	if err != nil {
		return err
	}
	printSkipped(out, res)

	if reportPath != "" {
		if err := codegen.WriteReport(reportPath, res.Report(m.Project.Input)); err != nil {
			return err
		}
	}

	if dryRun {
		for _, f := range res.Files {
			fmt.Fprintf(out, "%s (%d bytes)\n", f.Name, len(f.Content))
		}
		return nil
	}

	written, err := codegen.WriteFiles(m.OutputDir(), res.Files)
	if err != nil {
		return err
	}
	removed, err := codegen.RemoveStale(m.OutputDir(), res.Files)
	if err != nil {
		return err
	}
	for _, name := range removed {
		fmt.Fprintln(out, render(out, dimStyle, "removed "+name))
	}
	printSummary(out, res, written, m.OutputDir())
	return nil
}
