// lvglgen generates Go wrappers for LVGL widgets from bindgen declarations.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/chazu/lvglgen/manifest"

	_ "github.com/tliron/commonlog/simple"
)

var (
	// Global flags
	configDir string
	inputPath string
	outputDir string
	verbosity int
	jobs      int
)

var rootCmd = &cobra.Command{
	Use:   "lvglgen",
	Short: "Generate Go widget wrappers from LVGL bindgen declarations",
	Long: `lvglgen reads the extern "C" declarations emitted by bindgen for LVGL,
groups them by widget and writes one Go file per widget containing
cgo wrappers: a struct embedding the base object handle, constructors,
and one method per wrappable function.

Configuration is read from lvglgen.toml, searched upwards from the
working directory unless --config is given.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commonlog.Configure(verbosity, nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "directory containing lvglgen.toml")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "bindgen declarations file, - for stdin (overrides project.input)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().IntVarP(&jobs, "jobs", "j", 0, "widgets lowered concurrently (0 = GOMAXPROCS)")

	rootCmd.AddCommand(generateCmd, widgetsCmd, checkRuntimeCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// loadManifest resolves the configuration and applies command-line
// overrides.
func loadManifest() (*manifest.Manifest, error) {
	var m *manifest.Manifest
	var err error
	if configDir != "" {
		m, err = manifest.Load(configDir)
	} else {
		m, err = manifest.FindAndLoad(".")
	}
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
		if m.Dir, err = filepath.Abs("."); err != nil {
			return nil, err
		}
	}

	if inputPath != "" {
		m.Project.Input = inputPath
		if inputPath != "-" {
			if m.Project.Input, err = filepath.Abs(inputPath); err != nil {
				return nil, err
			}
		}
	}
	if outputDir != "" {
		if m.Project.Output, err = filepath.Abs(outputDir); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// readInput returns the declaration text named by the manifest.
func readInput(cmd *cobra.Command, m *manifest.Manifest) ([]byte, error) {
	switch m.Project.Input {
	case "":
		return nil, fmt.Errorf("no input: set project.input in %s or pass --input", manifest.FileName)
	case "-":
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(m.InputPath())
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}
