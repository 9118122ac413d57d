// Package widget groups foreign declarations into per-widget method lists.
package widget

import (
	"regexp"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/lvglgen/decl"
	"github.com/chazu/lvglgen/manifest"
)

var log = commonlog.GetLogger("lvglgen.widget")

// Widget is a namespace of declarations sharing the "<prefix><name>_" prefix.
// Methods keep declaration order.
type Widget struct {
	Name    string
	Methods []*decl.Declaration
}

// IsRoot reports whether w is the base-object widget of lib.
func (w *Widget) IsRoot(lib manifest.Library) bool {
	return w.Name == lib.RootWidget
}

// DiscoverNames returns widget names taken from "<prefix><name>_create"
// declarations that have exactly one parameter. Names containing '_' are
// never discovered. Order follows the declarations; duplicates are dropped.
func DiscoverNames(decls []*decl.Declaration, lib manifest.Library) []string {
	create := regexp.MustCompile("^" + regexp.QuoteMeta(lib.Prefix) + "([^_]+)_create$")

	var names []string
	seen := make(map[string]bool)
	for _, d := range decls {
		m := create.FindStringSubmatch(d.Name)
		if m == nil || len(d.Params) != 1 {
			continue
		}
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Extract discovers widgets and attaches every method declaration to the
// widget with the longest name whose "<prefix><name>_" prefixes it.
// Widgets are returned in discovery order.
func Extract(decls []*decl.Declaration, lib manifest.Library) []*Widget {
	names := DiscoverNames(decls, lib)
	widgets := make([]*Widget, len(names))
	for i, name := range names {
		widgets[i] = &Widget{Name: name}
	}

	for _, d := range decls {
		if !d.IsMethod(lib.ObjectTypes) {
			continue
		}
		if w := owner(d.Name, widgets, lib.Prefix); w != nil {
			w.Methods = append(w.Methods, d)
		} else {
			log.Debugf("%s: no widget owns this method", d.Name)
		}
	}

	for _, w := range widgets {
		log.Debugf("widget %s: %d methods", w.Name, len(w.Methods))
	}
	return widgets
}

func owner(name string, widgets []*Widget, prefix string) *Widget {
	var best *Widget
	for _, w := range widgets {
		if !strings.HasPrefix(name, prefix+w.Name+"_") {
			continue
		}
		if best == nil || len(w.Name) > len(best.Name) {
			best = w
		}
	}
	return best
}
