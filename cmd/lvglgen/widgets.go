package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/lvglgen/codegen"
)

var widgetsCmd = &cobra.Command{
	Use:   "widgets",
	Short: "List discovered widgets and their wrappable operations",
	Args:  cobra.NoArgs,
	RunE:  runWidgets,
}

func runWidgets(cmd *cobra.Command, args []string) error {
	m, err := loadManifest()
	if err != nil {
		return err
	}
	src, err := readInput(cmd, m)
	if err != nil {
		return err
	}
	res, err := codegen.Generate(cmd.Context(), src, m, codegen.Options{Jobs: jobs})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-16s %-16s %-5s %4s %4s\n", "WIDGET", "TYPE", "CTOR", "OPS", "SKIP")
	for _, w := range res.Report("").Widgets {
		ctor := "-"
		if w.Constructor {
			ctor = "yes"
		}
		fmt.Fprintf(out, "%-16s %-16s %-5s %4d %4d\n", w.Name, w.Type, ctor, len(w.Operations), w.Skipped)
	}
	return nil
}
