package decl

import (
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// TypePath is the structured form of a path type such as "cty :: c_int"
// or "Option < unsafe extern \"C\" fn (...) >".
type TypePath struct {
	Global   bool     // leading "::"
	Segments []string // "cty", "c_int"
	Generic  string   // raw generic arguments without the angle brackets
}

// Name returns the last path segment.
func (p *TypePath) Name() string {
	return p.Segments[len(p.Segments)-1]
}

// HasGenerics reports whether the path carries generic arguments.
func (p *TypePath) HasGenerics() bool {
	return p.Generic != ""
}

// String renders the path in canonical token-spaced form.
func (p *TypePath) String() string {
	s := strings.Join(p.Segments, " :: ")
	if p.Global {
		s = ":: " + s
	}
	if p.Generic != "" {
		s += " < " + p.Generic + " >"
	}
	return s
}

// ParseTypePath parses a literal as a type path.
func ParseTypePath(literal string) (*TypePath, error) {
	tree, typ, src, err := parseTypeLiteral(literal)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	p, err := pathFromNode(typ, src)
	if err != nil {
		return nil, &TypeParseError{Literal: typeLiteral(typ, src), Msg: err.Error()}
	}
	return p, nil
}

// parseTypeLiteral parses literal as the right-hand side of a type alias
// and returns the node of the aliased type. The caller closes the tree.
func parseTypeLiteral(literal string) (*sitter.Tree, *sitter.Node, []byte, error) {
	fail := func(msg string) (*sitter.Tree, *sitter.Node, []byte, error) {
		return nil, nil, nil, &TypeParseError{Literal: strings.Join(strings.Fields(literal), " "), Msg: msg}
	}
	if strings.TrimSpace(literal) == "" {
		return fail("empty type")
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(rust.GetLanguage())

	src := []byte("type T = " + literal + ";")
	tree := parser.Parse(nil, src)
	if tree == nil {
		return fail("parser returned no tree")
	}
	root := tree.RootNode()
	if root.HasError() || root.NamedChildCount() != 1 || root.NamedChild(0).Type() != "type_item" {
		tree.Close()
		return fail("not a single type")
	}
	typ := root.NamedChild(0).ChildByFieldName("type")
	if typ == nil {
		tree.Close()
		return fail("not a single type")
	}
	return tree, typ, src, nil
}

// pathFromNode builds a TypePath from a primitive, named, scoped or
// generic type node. Any other type kind is rejected.
func pathFromNode(n *sitter.Node, src []byte) (*TypePath, error) {
	switch n.Type() {
	case "primitive_type", "type_identifier", "identifier", "crate", "self", "super":
		return &TypePath{Segments: []string{n.Content(src)}}, nil

	case "scoped_type_identifier", "scoped_identifier":
		p := &TypePath{Global: true}
		if prefix := n.ChildByFieldName("path"); prefix != nil {
			inner, err := pathFromNode(prefix, src)
			if err != nil {
				return nil, err
			}
			if inner.HasGenerics() {
				return nil, errors.New("generic arguments inside a path")
			}
			p = inner
		}
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil, errors.New("missing path segment")
		}
		p.Segments = append(p.Segments, name.Content(src))
		return p, nil

	case "generic_type":
		base := n.ChildByFieldName("type")
		args := n.ChildByFieldName("type_arguments")
		if base == nil || args == nil {
			return nil, errors.New("incomplete generic type")
		}
		p, err := pathFromNode(base, src)
		if err != nil {
			return nil, err
		}
		if p.HasGenerics() {
			return nil, errors.New("nested generic base")
		}
		toks := typeTokens(args, src)
		if len(toks) < 3 {
			return nil, errors.New("empty generic arguments")
		}
		p.Generic = strings.Join(toks[1:len(toks)-1], " ")
		return p, nil
	}
	return nil, fmt.Errorf("unsupported %s", strings.ReplaceAll(n.Type(), "_", " "))
}

// typeTokens returns the leaf tokens of a type node. String literals are
// kept whole.
func typeTokens(n *sitter.Node, src []byte) []string {
	var toks []string
	var collect func(*sitter.Node)
	collect = func(n *sitter.Node) {
		if n.ChildCount() == 0 || n.Type() == "string_literal" || n.Type() == "raw_string_literal" {
			if tok := n.Content(src); tok != "" {
				toks = append(toks, tok)
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			collect(n.Child(i))
		}
	}
	collect(n)
	return toks
}

// typeLiteral joins the leaf tokens of a type node with single spaces.
func typeLiteral(n *sitter.Node, src []byte) string {
	return strings.Join(typeTokens(n, src), " ")
}
