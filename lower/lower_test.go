package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/lvglgen/decl"
	"github.com/chazu/lvglgen/manifest"
	"github.com/chazu/lvglgen/widget"
)

var cls = decl.DefaultClassifier()

type p struct{ name, typ string }

func fn(name string, ret string, params ...p) *decl.Declaration {
	ps := make([]decl.Param, len(params))
	for i, prm := range params {
		ps[i] = decl.Param{Name: prm.name, Type: cls.MustClassify(prm.typ)}
	}
	var r *decl.Type
	if ret != "" {
		t := cls.MustClassify(ret)
		r = &t
	}
	return decl.NewDeclaration(name, ps, r)
}

var (
	obj = &widget.Widget{Name: "obj"}
	arc = &widget.Widget{Name: "arc"}
)

func lowerOne(t *testing.T, d *decl.Declaration, w *widget.Widget) *Operation {
	t.Helper()
	ops, err := New(manifest.Default()).Lower(d, w)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	return ops[0]
}

func lowerSkip(t *testing.T, d *decl.Declaration, w *widget.Widget) *SkipError {
	t.Helper()
	_, err := New(manifest.Default()).Lower(d, w)
	require.Error(t, err)
	require.True(t, IsSkip(err), "expected skip, got %v", err)
	return err.(*SkipError)
}

func TestLowerSetterWithPrimitives(t *testing.T) {
	d := fn("lv_arc_set_angles", "",
		p{"obj", "* mut lv_obj_t"}, p{"start", "u16"}, p{"end", "u16"})
	op := lowerOne(t, d, arc)

	assert.Equal(t, "SetAngles", op.Name)
	assert.Equal(t, "set_angles", op.Short)
	assert.Equal(t, "Arc", op.Widget)
	assert.Equal(t, Method, op.Kind)
	assert.Equal(t, Receiver{Name: "w", Type: "Arc", Mutable: true}, op.Receiver)

	require.Len(t, op.Params, 2)
	assert.Equal(t, Param{Name: "start", Type: TypeRef{Name: "uint16"}, Shape: decl.Primitive}, op.Params[0])
	assert.Equal(t, "end", op.Params[1].Name)

	assert.Equal(t, "lv_arc_set_angles", op.Call.Symbol)
	assert.Equal(t, []Expr{
		{Kind: Accessor, Ident: "w", Field: "Obj", Method: "RawMut"},
		{Kind: Convert, Ident: "start", CType: "uint16_t"},
		{Kind: Convert, Ident: "end", CType: "uint16_t"},
	}, op.Call.Args)
	assert.Nil(t, op.Result.Type)
}

func TestLowerReceiverMutabilityFollowsConstQualifier(t *testing.T) {
	tests := []struct {
		recv    string
		mutable bool
		method  string
	}{
		{"* mut lv_obj_t", true, "RawMut"},
		{"* const lv_obj_t", false, "Raw"},
		{"*const _lv_obj_t", false, "Raw"},
		{"*mut _lv_obj_t", true, "RawMut"},
	}
	for _, tt := range tests {
		t.Run(tt.recv, func(t *testing.T) {
			op := lowerOne(t, fn("lv_arc_get_value", "i16", p{"obj", tt.recv}), arc)
			assert.Equal(t, tt.mutable, op.Receiver.Mutable)
			assert.Equal(t, tt.method, op.Call.Args[0].Method)
		})
	}
}

func TestLowerRootReceiver(t *testing.T) {
	op := lowerOne(t, fn("lv_obj_get_width", "lv_coord_t", p{"obj", "* const lv_obj_t"}), obj)

	assert.Equal(t, "GetWidth", op.Name)
	assert.Equal(t, Receiver{Name: "o", Type: "Obj", Root: true}, op.Receiver)
	assert.Equal(t, Expr{Kind: Accessor, Ident: "o", Method: "Raw"}, op.Call.Args[0])
	require.NotNil(t, op.Result.Type)
	assert.Equal(t, TypeRef{Name: "lv_coord_t", C: true}, *op.Result.Type)
	assert.Empty(t, op.Result.Convert)
}

func TestLowerStrings(t *testing.T) {
	d := fn("lv_label_set_text", "",
		p{"obj", "* mut lv_obj_t"}, p{"text", "* const cty :: c_char"})
	op := lowerOne(t, d, &widget.Widget{Name: "label"})

	assert.Equal(t, TypeRef{Name: "CStr", Pointer: true}, op.Params[0].Type)
	assert.Equal(t, Expr{Kind: Accessor, Ident: "text", Method: "Ptr"}, op.Call.Args[1])
	assert.Empty(t, op.Pre)
	assert.Empty(t, op.Post)
}

func TestLowerMutableBufferHandoff(t *testing.T) {
	d := fn("lv_dropdown_get_selected_str", "",
		p{"obj", "* const lv_obj_t"},
		p{"buf", "* mut cty :: c_char"},
		p{"buf_size", "u32"},
		p{"alt", "* mut :: std :: os :: raw :: c_char"})
	op := lowerOne(t, d, &widget.Widget{Name: "dropdown"})

	assert.Equal(t, TypeRef{Name: "CString", Pointer: true}, op.Params[0].Type)
	assert.Equal(t, "bufSize", op.Params[1].Name)

	require.Len(t, op.Pre, 2)
	require.Len(t, op.Post, 2)
	for i := range op.Pre {
		assert.Equal(t, Detach, op.Pre[i].Kind)
		assert.Equal(t, Reattach, op.Post[i].Kind)
		assert.Equal(t, op.Pre[i].Param, op.Post[i].Param, "pre and post steps pair by index")
		assert.Equal(t, op.Pre[i].Raw, op.Post[i].Raw)
	}
	assert.Equal(t, "buf", op.Pre[0].Param)
	assert.Equal(t, "bufRaw", op.Pre[0].Raw)
	assert.Equal(t, "altRaw", op.Pre[1].Raw)
	assert.Equal(t, Expr{Kind: Ident, Ident: "bufRaw"}, op.Call.Args[1])
	assert.Equal(t, Expr{Kind: Ident, Ident: "altRaw"}, op.Call.Args[3])
}

func TestLowerObjectArguments(t *testing.T) {
	d := fn("lv_obj_align_to", "",
		p{"obj", "* mut lv_obj_t"},
		p{"base", "* const lv_obj_t"},
		p{"target", "* mut _lv_obj_t"})
	op := lowerOne(t, d, obj)

	assert.Equal(t, TypeRef{Name: "NativeObject"}, op.Params[0].Type)
	assert.Equal(t, Expr{Kind: Accessor, Ident: "base", Method: "Raw"}, op.Call.Args[1])
	assert.Equal(t, Expr{Kind: Accessor, Ident: "target", Method: "RawMut"}, op.Call.Args[2])
}

func TestLowerOtherPointerAndDeclaredValues(t *testing.T) {
	d := fn("lv_obj_add_style", "",
		p{"obj", "* mut lv_obj_t"},
		p{"style", "* mut lv_style_t"},
		p{"selector", "lv_style_selector_t"},
		p{"n", "cty :: c_int"})
	op := lowerOne(t, d, obj)

	assert.Equal(t, TypeRef{Name: "lv_style_t", C: true, Pointer: true}, op.Params[0].Type)
	assert.Equal(t, Expr{Kind: Ident, Ident: "style"}, op.Call.Args[1])
	assert.Equal(t, TypeRef{Name: "lv_style_selector_t", C: true}, op.Params[1].Type)
	assert.Equal(t, Expr{Kind: Ident, Ident: "selector"}, op.Call.Args[2])
	assert.Equal(t, TypeRef{Name: "int32"}, op.Params[2].Type)
	assert.Equal(t, Expr{Kind: Convert, Ident: "n", CType: "int"}, op.Call.Args[3])
}

func TestLowerTypeOverrides(t *testing.T) {
	m := manifest.Default()
	m.Types = map[string]string{"lv_coord_t": "int16"}
	d := fn("lv_obj_set_x", "lv_coord_t", p{"obj", "* mut lv_obj_t"}, p{"x", "lv_coord_t"})

	ops, err := New(m).Lower(d, obj)
	require.NoError(t, err)
	op := ops[0]
	assert.Equal(t, TypeRef{Name: "int16"}, op.Params[0].Type)
	assert.Equal(t, Expr{Kind: Convert, Ident: "x", CType: "lv_coord_t"}, op.Call.Args[1])
	assert.Equal(t, "int16", op.Result.Convert)
}

func TestLowerPrimitiveReturnIsConverted(t *testing.T) {
	op := lowerOne(t, fn("lv_arc_get_angle_start", "u16", p{"obj", "* const lv_obj_t"}), arc)
	require.NotNil(t, op.Result.Type)
	assert.Equal(t, "uint16", op.Result.Type.Name)
	assert.Equal(t, "uint16", op.Result.Convert)
}

func TestLowerSkips(t *testing.T) {
	tests := []struct {
		name   string
		decl   *decl.Declaration
		reason string
	}{
		{
			"pointer return",
			fn("lv_obj_get_screen", "* mut lv_obj_t", p{"obj", "* const lv_obj_t"}),
			"pointer return value",
		},
		{
			"pointer array",
			fn("lv_btnmatrix_set_map", "", p{"obj", "* mut lv_obj_t"}, p{"map", "* mut * const cty :: c_char"}),
			"array argument",
		},
		{
			"const pointer array",
			fn("lv_obj_x", "", p{"obj", "* mut lv_obj_t"}, p{"map", "* const * mut lv_obj_t"}),
			"array argument",
		},
		{
			"void pointer",
			fn("lv_obj_set_user_data", "", p{"obj", "* mut lv_obj_t"}, p{"data", "* mut cty :: c_void"}),
			"void pointer argument",
		},
		{
			"generic argument",
			fn("lv_obj_add_event_cb", "", p{"obj", "* mut lv_obj_t"}, p{"cb", "Option < unsafe extern \"C\" fn () >"}),
			"generic argument type",
		},
		{
			"generic return",
			fn("lv_obj_get_cb", "Option < u8 >", p{"obj", "* mut lv_obj_t"}),
			"generic return type",
		},
		{
			"reserved name",
			fn("lv_obj_raw_mut", "", p{"obj", "* mut lv_obj_t"}),
			"reserved",
		},
		{
			"receiver array",
			fn("lv_obj_get_children", "", p{"obj", "* mut * mut lv_obj_t"}, p{"cnt", "u32"}),
			"unsupported receiver",
		},
		{
			"receiver by value",
			fn("lv_obj_tag", "u32", p{"obj", "lv_obj_t"}),
			"unsupported receiver",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := lowerSkip(t, tt.decl, obj)
			assert.Equal(t, tt.decl.Name, se.Function)
			assert.Contains(t, se.Reason, tt.reason)
		})
	}
}

func TestLowerVariadicSkipped(t *testing.T) {
	d := fn("lv_label_set_text_fmt", "", p{"obj", "* mut lv_obj_t"}, p{"fmt", "* const cty :: c_char"})
	d.Variadic = true
	se := lowerSkip(t, d, &widget.Widget{Name: "label"})
	assert.Equal(t, "...", se.Type)
}

func TestLowerConstructor(t *testing.T) {
	d := fn("lv_arc_create", "* mut lv_obj_t", p{"parent", "* mut lv_obj_t"})
	ops, err := New(manifest.Default()).Lower(d, arc)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	create, def := ops[0], ops[1]
	assert.Equal(t, Constructor, create.Kind)
	assert.Equal(t, "CreateArc", create.Name)
	assert.Equal(t, []Param{{Name: "parent", Type: TypeRef{Name: "NativeObject"}, Shape: decl.MutObjectPtr}}, create.Params)
	assert.Equal(t, []Expr{{Kind: Accessor, Ident: "parent", Method: "RawMut"}}, create.Call.Args)
	assert.Equal(t, &TypeRef{Name: "Arc", Pointer: true}, create.Result.Type)
	assert.Equal(t, "ErrInvalidReference", create.InvalidReference)

	assert.Equal(t, DefaultConstructor, def.Kind)
	assert.Equal(t, "NewArc", def.Name)
	assert.Empty(t, def.Params)
	assert.Equal(t, "CreateArc", def.Delegate)
	assert.Equal(t, "ActiveScreen", def.ActiveScreen)
}

func TestLowerLegacyConstructorPassesNil(t *testing.T) {
	d := fn("lv_btn_create", "* mut lv_obj_t",
		p{"parent", "* mut lv_obj_t"}, p{"copy", "* const lv_obj_t"})
	ops, err := New(manifest.Default()).Lower(d, &widget.Widget{Name: "btn"})
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, Expr{Kind: Ident, Ident: "nil"}, ops[0].Call.Args[1])
}

func TestLowerRootCreateIsNotSynthesized(t *testing.T) {
	d := fn("lv_obj_create", "* mut lv_obj_t", p{"parent", "* mut lv_obj_t"})
	se := lowerSkip(t, d, obj)
	assert.Contains(t, se.Reason, "pointer return")
}

func TestWidgetSkipsDuplicateNames(t *testing.T) {
	w := &widget.Widget{Name: "arc", Methods: []*decl.Declaration{
		fn("lv_arc_create", "* mut lv_obj_t", p{"parent", "* mut lv_obj_t"}),
		fn("lv_arc_set_value", "", p{"obj", "* mut lv_obj_t"}, p{"v", "i16"}),
		fn("lv_arc_set__value", "", p{"obj", "* mut lv_obj_t"}, p{"v", "i16"}),
		fn("lv_arc_get_screen", "* mut lv_obj_t", p{"obj", "* const lv_obj_t"}),
	}}
	ops, skipped := New(manifest.Default()).Widget(w)

	var names []string
	for _, op := range ops {
		names = append(names, op.Name)
	}
	assert.Equal(t, []string{"CreateArc", "NewArc", "SetValue"}, names)

	require.Len(t, skipped, 2)
	assert.Contains(t, skipped[0].Reason, "duplicate Go name SetValue")
	assert.Equal(t, "lv_arc_get_screen", skipped[1].Function)
}

func TestDropConflictsWithRootMethods(t *testing.T) {
	l := New(manifest.Default())
	rootOps, _ := l.Widget(&widget.Widget{Name: "obj", Methods: []*decl.Declaration{
		fn("lv_obj_set_pos", "", p{"obj", "* mut lv_obj_t"}, p{"x", "lv_coord_t"}, p{"y", "lv_coord_t"}),
		fn("lv_obj_get_width", "lv_coord_t", p{"obj", "* const lv_obj_t"}),
	}})
	arcOps, _ := l.Widget(&widget.Widget{Name: "arc", Methods: []*decl.Declaration{
		fn("lv_arc_create", "* mut lv_obj_t", p{"parent", "* mut lv_obj_t"}),
		fn("lv_arc_set_pos", "", p{"obj", "* mut lv_obj_t"}, p{"pos", "u8"}),
		fn("lv_arc_get_width", "lv_coord_t", p{"obj", "* mut lv_obj_t"}),
		fn("lv_arc_set_value", "", p{"obj", "* mut lv_obj_t"}, p{"v", "i16"}),
	}})

	kept, skipped := DropConflicts(arcOps, rootOps)

	var names []string
	for _, op := range kept {
		names = append(names, op.Name)
	}
	assert.Equal(t, []string{"CreateArc", "NewArc", "GetWidth", "SetValue"}, names,
		"same signature with another receiver kind still satisfies the root interface")
	require.Len(t, skipped, 1)
	assert.Equal(t, "lv_arc_set_pos", skipped[0].Function)
	assert.Equal(t, "SetPos conflicts with Obj.SetPos", skipped[0].Reason)
}

func TestParamNaming(t *testing.T) {
	n := newParamNamer("w")
	assert.Equal(t, "bufSize", n.name("buf_size", 1))
	assert.Equal(t, "type_", n.name("type", 2))
	assert.Equal(t, "arg3", n.name("", 3))
	assert.Equal(t, "w_", n.name("w", 4))
	assert.Equal(t, "bufSize_", n.name("buf_size", 5))
	assert.Equal(t, "c", newParamNamer().name("C", 1))
}

func TestDocIncludesDeclarationComments(t *testing.T) {
	d := fn("lv_obj_invalidate", "", p{"obj", "* const lv_obj_t"})
	d.Doc = []string{" Mark the object as invalid to redrawn its area", " @param obj pointer to an object"}
	op := lowerOne(t, d, obj)
	assert.Equal(t, []string{
		"Invalidate calls lv_obj_invalidate.",
		"",
		"Mark the object as invalid to redrawn its area",
		"@param obj pointer to an object",
	}, op.Doc)
}
