package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/chazu/lvglgen/codegen"
	"github.com/chazu/lvglgen/decl"
)

var (
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// styled reports whether w is a terminal that should get colored output.
func styled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func render(w io.Writer, style lipgloss.Style, s string) string {
	if !styled(w) {
		return s
	}
	return style.Render(s)
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", render(w, errorStyle, "error:"), err)

	var pe *decl.ParseError
	if errors.As(err, &pe) {
		fmt.Fprintln(w, render(w, dimStyle, "  the input must contain bindgen extern \"C\" blocks"))
	}
}

func printSkipped(w io.Writer, res *codegen.Result) {
	for _, s := range res.Skipped {
		line := fmt.Sprintf("skipped %s: %s", s.Function, s.Reason)
		if s.Type != "" {
			line += fmt.Sprintf(" (%s)", s.Type)
		}
		fmt.Fprintln(w, render(w, warnStyle, line))
	}
}

func printSummary(w io.Writer, res *codegen.Result, written []string, dir string) {
	ops := 0
	for _, wr := range res.Widgets {
		ops += len(wr.Operations)
	}
	msg := fmt.Sprintf("%d widgets, %d operations, %d skipped; %d of %d files written to %s",
		len(res.Widgets), ops, len(res.Skipped), len(written), len(res.Files), dir)
	fmt.Fprintln(w, render(w, okStyle, msg))
}
