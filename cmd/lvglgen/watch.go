package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/chazu/lvglgen/manifest"
	"github.com/chazu/lvglgen/watch"
)

var watchLog = commonlog.GetLogger("lvglgen.cli")

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate whenever the input or lvglgen.toml changes",
	Long: `Runs generate once, then again each time the declarations file or the
configuration file is written. Errors are reported and watching
continues. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	m, err := loadManifest()
	if err != nil {
		return err
	}
	if m.Project.Input == "" || m.Project.Input == "-" {
		return errors.New("watch needs an input file")
	}

	out := cmd.OutOrStdout()
	regenerate := func(ctx context.Context, m *manifest.Manifest) {
		src, err := os.ReadFile(m.InputPath())
		if err == nil {
			err = generateOnce(ctx, out, src, m)
		}
		if err != nil && ctx.Err() == nil {
			printError(cmd.ErrOrStderr(), err)
		}
	}
	regenerate(cmd.Context(), m)

	paths := []string{m.InputPath(), filepath.Join(m.Dir, manifest.FileName)}
	w, err := watch.New(paths, 0, func(ctx context.Context, changed []string) {
		watchLog.Infof("changed: %v", changed)
		reloaded, err := loadManifest()
		if err != nil {
			printError(cmd.ErrOrStderr(), err)
			return
		}
		regenerate(ctx, reloaded)
	})
	if err != nil {
		return err
	}
	return w.Run(cmd.Context())
}
