package decl

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/tliron/commonlog"

	"github.com/chazu/lvglgen/manifest"
)

var log = commonlog.GetLogger("lvglgen.decl")

// Loader turns extern-block text into classified Declarations.
type Loader struct {
	prefix     string
	classifier *Classifier
}

// NewLoader creates a loader for the library described by m.
func NewLoader(m *manifest.Manifest) *Loader {
	return &Loader{
		prefix:     m.Library.Prefix,
		classifier: NewClassifier(m.Library),
	}
}

// Load parses src and returns the prefixed foreign function declarations in
// source order. Malformed input yields *ParseError; an unparseable type
// literal yields *TypeParseError.
func (l *Loader) Load(ctx context.Context, src []byte) ([]*Declaration, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing declarations: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if bad := firstError(root); bad != nil {
		pt := bad.StartPoint()
		msg := "unexpected input"
		if bad.IsMissing() {
			msg = "missing " + bad.Type()
		} else if text := bad.Content(src); text != "" {
			msg = "unexpected " + strconv.Quote(firstLine(text))
		}
		return nil, &ParseError{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1, Msg: msg}
	}

	var decls []*Declaration
	var walkErr error
	walkForeignMods(root, func(body *sitter.Node) bool {
		var doc []string
		for i := 0; i < int(body.NamedChildCount()); i++ {
			item := body.NamedChild(i)
			switch item.Type() {
			case "attribute_item":
				if line, ok := docText(item, src); ok {
					doc = append(doc, line)
				}
				continue
			case "function_signature_item":
				d, err := l.convert(item, src, doc)
				if err != nil {
					walkErr = err
					return false
				}
				if d != nil {
					decls = append(decls, d)
				}
			}
			doc = nil
		}
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	log.Debugf("loaded %d declarations with prefix %q", len(decls), l.prefix)
	return decls, nil
}

func (l *Loader) convert(fn *sitter.Node, src []byte, doc []string) (*Declaration, error) {
	nameNode := fn.ChildByFieldName("name")
	if nameNode == nil {
		return nil, nil
	}
	name := nameNode.Content(src)
	if !strings.HasPrefix(name, l.prefix) {
		return nil, nil
	}

	d := &Declaration{
		Name: name,
		Doc:  doc,
		Line: int(fn.StartPoint().Row) + 1,
	}

	if params := fn.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			switch p.Type() {
			case "parameter":
				pat := p.ChildByFieldName("pattern")
				typ := p.ChildByFieldName("type")
				if pat == nil || typ == nil {
					return nil, &ParseError{Line: d.Line, Msg: "incomplete parameter in " + name}
				}
				t, err := l.classifier.classifyNode(typ, src)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
				d.Params = append(d.Params, Param{Name: pat.Content(src), Type: t})
			case "variadic_parameter":
				d.Variadic = true
			}
		}
	}

	if ret := fn.ChildByFieldName("return_type"); ret != nil {
		t, err := l.classifier.classifyNode(ret, src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		d.Return = &t
	}
	return d, nil
}

// walkForeignMods calls visit with the body of every extern block, including
// blocks nested in inline modules. visit returns false to stop the walk.
func walkForeignMods(n *sitter.Node, visit func(body *sitter.Node) bool) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "foreign_mod_item":
			if body := child.ChildByFieldName("body"); body != nil {
				if !visit(body) {
					return false
				}
			}
		case "mod_item":
			if body := child.ChildByFieldName("body"); body != nil {
				if !walkForeignMods(body, visit) {
					return false
				}
			}
		}
	}
	return true
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return n
}

// docText returns the decoded text of a #[doc = "..."] attribute item.
func docText(item *sitter.Node, src []byte) (string, bool) {
	attr := item.NamedChild(0)
	if attr == nil || attr.Type() != "attribute" {
		return "", false
	}
	if path := attr.NamedChild(0); path == nil || path.Content(src) != "doc" {
		return "", false
	}
	value := attr.ChildByFieldName("value")
	if value == nil || value.Type() != "string_literal" {
		return "", false
	}

	var b strings.Builder
	for i := 0; i < int(value.NamedChildCount()); i++ {
		part := value.NamedChild(i)
		switch part.Type() {
		case "string_content":
			b.WriteString(part.Content(src))
		case "escape_sequence":
			b.WriteString(unescape(part.Content(src)))
		}
	}
	return strings.TrimSpace(b.String()), true
}

// unescape decodes a single Rust string escape sequence.
func unescape(seq string) string {
	if len(seq) < 2 {
		return seq
	}
	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	case '\\', '\'', '"':
		return seq[1:2]
	case '\n', '\r':
		return ""
	case 'x':
		if v, err := strconv.ParseUint(seq[2:], 16, 8); err == nil {
			return string(rune(v))
		}
	case 'u':
		if v, err := strconv.ParseUint(strings.Trim(seq[2:], "{}"), 16, 32); err == nil && utf8.ValidRune(rune(v)) {
			return string(rune(v))
		}
	}
	return seq
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
