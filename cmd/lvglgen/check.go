package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/lvglgen/contract"
)

var checkRuntimeCmd = &cobra.Command{
	Use:   "check-runtime [dir]",
	Short: "Verify that a Go package declares the runtime names generated code uses",
	Long: `Parses the Go package in dir (default: the configured output directory)
and checks that it declares the handle types, string buffer types, the
invalid-reference error and the active-screen function named in the
[runtime] section of lvglgen.toml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheckRuntime,
}

func runCheckRuntime(cmd *cobra.Command, args []string) error {
	m, err := loadManifest()
	if err != nil {
		return err
	}
	dir := m.OutputDir()
	if len(args) == 1 {
		dir = args[0]
	}

	report, err := contract.Check(dir, m)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, f := range report.Findings {
		fmt.Fprintln(out, render(out, warnStyle, f.String()))
	}
	if !report.OK() {
		return fmt.Errorf("%s does not satisfy the runtime contract (%d problems)", report.Package, len(report.Findings))
	}
	fmt.Fprintln(out, render(out, okStyle, fmt.Sprintf("%s satisfies the runtime contract", report.Package)))
	return nil
}
