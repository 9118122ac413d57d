package codegen

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chazu/lvglgen/lower"
)

// Report is the YAML summary of a generation run.
type Report struct {
	Input        string         `yaml:"input,omitempty"`
	Declarations int            `yaml:"declarations"`
	Widgets      []WidgetReport `yaml:"widgets"`
	Skipped      []SkipReport   `yaml:"skipped,omitempty"`
}

// WidgetReport summarizes one generated widget.
type WidgetReport struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	File        string   `yaml:"file"`
	Constructor bool     `yaml:"constructor"`
	Operations  []string `yaml:"operations,omitempty"`
	Skipped     int      `yaml:"skipped,omitempty"`
}

// SkipReport is one declaration left out of the generated code.
type SkipReport struct {
	Function string `yaml:"function"`
	Type     string `yaml:"type,omitempty"`
	Reason   string `yaml:"reason"`
}

// Report builds the run summary. input is recorded as given.
func (r *Result) Report(input string) *Report {
	rep := &Report{Input: input, Declarations: r.Declarations, Widgets: []WidgetReport{}}
	for _, wr := range r.Widgets {
		w := WidgetReport{
			Name:    wr.Widget.Name,
			Type:    wr.Type,
			File:    wr.File.Name,
			Skipped: len(wr.Skipped),
		}
		for _, op := range wr.Operations {
			if op.Kind == lower.Constructor {
				w.Constructor = true
			}
			w.Operations = append(w.Operations, op.Name)
		}
		rep.Widgets = append(rep.Widgets, w)
	}
	for _, s := range r.Skipped {
		rep.Skipped = append(rep.Skipped, SkipReport{Function: s.Function, Type: s.Type, Reason: s.Reason})
	}
	return rep
}

// Marshal renders the report as YAML.
func (rep *Report) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteReport writes rep as YAML to path.
func WriteReport(path string, rep *Report) error {
	data, err := rep.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
