package lower

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/lvglgen/decl"
	"github.com/chazu/lvglgen/manifest"
	"github.com/chazu/lvglgen/widget"
)

var log = commonlog.GetLogger("lvglgen.lower")

const (
	rootReceiver   = "o"
	widgetReceiver = "w"
	parentParam    = "parent"
)

// Lowerer synthesizes wrapper operations for one library configuration.
// It is safe for concurrent use.
type Lowerer struct {
	cfg   *manifest.Manifest
	types *typeMapper
}

// New creates a Lowerer for m.
func New(m *manifest.Manifest) *Lowerer {
	return &Lowerer{
		cfg:   m,
		types: &typeMapper{overrides: m.Types},
	}
}

// TypeName returns the Go type that hosts w's operations.
func (l *Lowerer) TypeName(w *widget.Widget) string {
	if w.IsRoot(l.cfg.Library) {
		return l.cfg.Runtime.Root
	}
	return WidgetTypeName(w.Name)
}

// Widget lowers every method of w in order. Declarations that cannot be
// wrapped are returned as skips; later operations whose Go name is already
// taken within the widget are skipped too.
func (l *Lowerer) Widget(w *widget.Widget) ([]*Operation, []*SkipError) {
	var ops []*Operation
	var skipped []*SkipError
	seen := map[string]bool{}

	for _, d := range w.Methods {
		lowered, err := l.Lower(d, w)
		if err != nil {
			se, ok := err.(*SkipError)
			if !ok {
				se = &SkipError{Function: d.Name, Reason: err.Error()}
			}
			log.Warningf("%s", se)
			skipped = append(skipped, se)
			continue
		}
		for _, op := range lowered {
			if seen[op.Name] {
				se := &SkipError{Function: d.Name, Reason: "duplicate Go name " + op.Name}
				log.Warningf("%s", se)
				skipped = append(skipped, se)
				continue
			}
			seen[op.Name] = true
			ops = append(ops, op)
		}
	}
	return ops, skipped
}

// DropConflicts removes methods of a non-root widget that reuse the name of a
// root method with a different signature. Such a method would hide the
// promoted root method and the widget would no longer satisfy the root
// interface.
func DropConflicts(ops, root []*Operation) ([]*Operation, []*SkipError) {
	rootMethods := make(map[string]*Operation, len(root))
	for _, op := range root {
		if op.Kind == Method {
			rootMethods[op.Name] = op
		}
	}

	var kept []*Operation
	var skipped []*SkipError
	for _, op := range ops {
		if r, ok := rootMethods[op.Name]; ok && op.Kind == Method && !sameSignature(op, r) {
			se := &SkipError{
				Function: op.Decl.Name,
				Reason:   fmt.Sprintf("%s conflicts with %s.%s", op.Name, r.Widget, r.Name),
			}
			log.Warningf("%s", se)
			skipped = append(skipped, se)
			continue
		}
		kept = append(kept, op)
	}
	return kept, skipped
}

func sameSignature(a, b *Operation) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Type != b.Params[i].Type {
			return false
		}
	}
	if a.Result.Type == nil || b.Result.Type == nil {
		return a.Result.Type == b.Result.Type
	}
	return *a.Result.Type == *b.Result.Type
}

// Lower synthesizes the wrapper for d as a member of w. It returns one
// operation for a method, two for a constructor, or a *SkipError.
func (l *Lowerer) Lower(d *decl.Declaration, w *widget.Widget) ([]*Operation, error) {
	root := w.IsRoot(l.cfg.Library)
	typeName := l.TypeName(w)
	short := strings.Replace(d.Name, l.cfg.WidgetPrefix(w.Name), "", 1)

	if short == "create" && !root {
		return l.constructors(d, typeName)
	}

	op, err := l.method(d, typeName, short, root)
	if err != nil {
		return nil, err
	}
	log.Debugf("lowered %s as %s.%s", d.Name, typeName, op.Name)
	return []*Operation{op}, nil
}

func (l *Lowerer) method(d *decl.Declaration, typeName, short string, root bool) (*Operation, error) {
	rt := l.cfg.Runtime
	if d.Variadic {
		return nil, skip(d, "...", "variadic arguments")
	}
	if len(d.Params) == 0 {
		return nil, skip(d, "", "no receiver parameter")
	}
	self := d.Params[0].Type
	if self.Shape != decl.ConstObjectPtr && self.Shape != decl.MutObjectPtr {
		return nil, skip(d, self.Literal, "unsupported receiver")
	}

	op := &Operation{
		Decl:   d,
		Widget: typeName,
		Short:  short,
		Name:   OperationName(short),
		Kind:   Method,
		Doc:    methodDoc(OperationName(short), d),
	}
	switch op.Name {
	case "", "Raw", "RawMut", "FromRaw":
		return nil, skip(d, "", fmt.Sprintf("name %q is reserved", op.Name))
	case rt.Root:
		if !root {
			return nil, skip(d, "", fmt.Sprintf("name %q collides with the embedded handle", op.Name))
		}
	}

	result, err := l.result(d)
	if err != nil {
		return nil, err
	}
	op.Result = result

	recvName := widgetReceiver
	if root {
		recvName = rootReceiver
	}
	op.Receiver = Receiver{
		Name:    recvName,
		Type:    typeName,
		Mutable: self.Shape == decl.MutObjectPtr,
		Root:    root,
	}
	recv := Expr{Kind: Accessor, Ident: recvName, Method: accessor(op.Receiver.Mutable)}
	if !root {
		recv.Field = rt.Root
	}
	op.Call = Call{Symbol: d.Name, Args: []Expr{recv}}

	names := newParamNamer(recvName)
	for i, p := range d.Params[1:] {
		name := names.name(p.Name, i+1)
		param := Param{Name: name, Shape: p.Type.Shape}
		var arg Expr

		switch p.Type.Shape {
		case decl.ConstStringPtr:
			param.Type = TypeRef{Name: rt.CStr, Pointer: true}
			arg = Expr{Kind: Accessor, Ident: name, Method: "Ptr"}

		case decl.MutStringPtr:
			param.Type = TypeRef{Name: rt.CString, Pointer: true}
			raw := names.derived(name, "Raw")
			op.Pre = append(op.Pre, Step{Kind: Detach, Param: name, Raw: raw, Method: "Detach"})
			op.Post = append(op.Post, Step{Kind: Reattach, Param: name, Raw: raw, Method: "Reattach"})
			arg = Expr{Kind: Ident, Ident: raw}

		case decl.ConstObjectPtr, decl.MutObjectPtr:
			param.Type = TypeRef{Name: rt.NativeObject}
			arg = Expr{Kind: Accessor, Ident: name, Method: accessor(p.Type.Shape == decl.MutObjectPtr)}

		case decl.PointerArray:
			return nil, skip(d, p.Type.Literal, "array argument")

		case decl.VoidPtr:
			return nil, skip(d, p.Type.Literal, "void pointer argument")

		case decl.OtherPointer:
			param.Type = TypeRef{Name: l.types.cName(p.Type.Path), C: true, Pointer: true}
			arg = Expr{Kind: Ident, Ident: name}

		default:
			if p.Type.Path.HasGenerics() {
				return nil, skip(d, p.Type.Literal, "generic argument type")
			}
			if s, ok := l.types.scalarFor(p.Type.Path); ok {
				param.Type = TypeRef{Name: s.Go}
				arg = Expr{Kind: Convert, Ident: name, CType: s.C}
			} else {
				param.Type = TypeRef{Name: p.Type.Path.Name(), C: true}
				arg = Expr{Kind: Ident, Ident: name}
			}
		}

		op.Params = append(op.Params, param)
		op.Call.Args = append(op.Call.Args, arg)
	}
	return op, nil
}

func (l *Lowerer) result(d *decl.Declaration) (Result, error) {
	if d.Return == nil {
		return Result{}, nil
	}
	ret := d.Return
	if ret.IsPointer() {
		return Result{}, skip(d, ret.Literal, "pointer return value")
	}
	if ret.Path.HasGenerics() {
		return Result{}, skip(d, ret.Literal, "generic return type")
	}
	if s, ok := l.types.scalarFor(ret.Path); ok {
		return Result{Type: &TypeRef{Name: s.Go}, Convert: s.Go}, nil
	}
	return Result{Type: &TypeRef{Name: ret.Path.Name(), C: true}}, nil
}

// constructors synthesizes Create<W>(parent) and New<W>() for a create
// declaration. Extra object parameters of legacy create signatures are
// passed as nil.
func (l *Lowerer) constructors(d *decl.Declaration, typeName string) ([]*Operation, error) {
	rt := l.cfg.Runtime
	if d.Return == nil || (d.Return.Shape != decl.MutObjectPtr && d.Return.Shape != decl.ConstObjectPtr) {
		lit := ""
		if d.Return != nil {
			lit = d.Return.Literal
		}
		return nil, skip(d, lit, "constructor does not return an object")
	}
	if len(d.Params) == 0 {
		return nil, skip(d, "", "constructor without parent parameter")
	}

	args := []Expr{{Kind: Accessor, Ident: parentParam, Method: "RawMut"}}
	for _, p := range d.Params[1:] {
		if p.Type.Shape != decl.ConstObjectPtr && p.Type.Shape != decl.MutObjectPtr {
			return nil, skip(d, p.Type.Literal, "unsupported constructor parameter")
		}
		args = append(args, Expr{Kind: Ident, Ident: "nil"})
	}

	result := Result{Type: &TypeRef{Name: typeName, Pointer: true}}
	create := &Operation{
		Decl:   d,
		Widget: typeName,
		Short:  "create",
		Name:   ConstructorName(typeName),
		Kind:   Constructor,
		Doc: []string{
			fmt.Sprintf("%s creates a new %s as a child of parent.", ConstructorName(typeName), typeName),
			fmt.Sprintf("It returns %s if %s fails.", rt.InvalidReference, d.Name),
		},
		Params:           []Param{{Name: parentParam, Type: TypeRef{Name: rt.NativeObject}, Shape: d.Params[0].Type.Shape}},
		Call:             Call{Symbol: d.Name, Args: args},
		Result:           result,
		InvalidReference: rt.InvalidReference,
	}
	def := &Operation{
		Decl:   d,
		Widget: typeName,
		Short:  "new",
		Name:   DefaultConstructorName(typeName),
		Kind:   DefaultConstructor,
		Doc: []string{
			fmt.Sprintf("%s creates a new %s on the active screen.", DefaultConstructorName(typeName), typeName),
		},
		Result:       result,
		Delegate:     create.Name,
		ActiveScreen: rt.ActiveScreen,
	}
	return []*Operation{create, def}, nil
}

func accessor(mutable bool) string {
	if mutable {
		return "RawMut"
	}
	return "Raw"
}

func methodDoc(name string, d *decl.Declaration) []string {
	doc := []string{fmt.Sprintf("%s calls %s.", name, d.Name)}
	var body []string
	for _, line := range d.Doc {
		if line = strings.TrimSpace(line); line != "" {
			body = append(body, line)
		}
	}
	if len(body) > 0 {
		doc = append(doc, "")
		doc = append(doc, body...)
	}
	return doc
}
