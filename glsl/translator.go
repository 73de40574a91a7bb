// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"sort"
	"strings"
)

type symKind uint8

const (
	symLocal   symKind = iota // function-scope var
	symLet                    // immutable local or value parameter
	symPtr                    // out or inout parameter
	symPrivate                // module-scope var<private>
	symConst                  // module-scope const
	symInput                  // copy of a fragment input
	symOutput                 // fragment output
	symUniform                // uniform block or one of its members
	symStorage                // buffer block or one of its members
	symTexture
	symSampler
)

type symbol struct {
	name     string
	wgsl     string // expression text that reads the symbol
	typ      *Type
	kind     symKind
	konst    bool     // usable in a WGSL const-expression
	value    *int64   // known integral constant value
	lit      *operand // literal value of a scalar constant
	sampler  string   // sampler expression of a combined image sampler
	ptr      string   // pointer expression for out parameters
	readonly bool
}

func (s *symbol) mutable() bool {
	if s.readonly {
		return false
	}
	switch s.kind {
	case symLocal, symPtr, symPrivate, symOutput, symStorage:
		return true
	}
	return false
}

type scope struct {
	parent *scope
	syms   map[string]*symbol
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, syms: make(map[string]*symbol)}
}

func (s *scope) lookup(name string) *symbol {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.syms[name]; ok {
			return sym
		}
	}
	return nil
}

type function struct {
	name    string // WGSL name
	glsl    string
	params  []*Type
	storage []string
	ret     *Type
	defined bool
	called  bool
	pos     Position
}

type ioVar struct {
	sym      *symbol
	location int64
	interp   string
}

// writer accumulates indented WGSL lines.
type writer struct {
	out    strings.Builder
	indent int
}

func (w *writer) writeLine(format string, args ...any) {
	w.writeRaw(fmt.Sprintf(format, args...))
}

// writeRaw writes an already formatted line.
func (w *writer) writeRaw(line string) {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
	w.out.WriteString(line)
	w.out.WriteByte('\n')
}

func (w *writer) pushIndent() {
	w.indent++
}

func (w *writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}

func (w *writer) String() string {
	return w.out.String()
}

// translator lowers a GLSL translation unit to WGSL source.
type translator struct {
	opts Options

	decls writer // module-scope declarations
	funcs writer

	global     *scope
	scope      *scope
	structs    map[string]*structType
	structList []string
	functions  map[string][]*function
	overloaded map[string]bool
	bindings   map[[2]int64]string

	inputs          []*ioVar
	outputs         []*ioVar
	nextLocation    [2]int64
	usesFragCoord   bool
	usesFrontFacing bool
	usesFragDepth   bool
	deferred        []string
	entry           *function

	fn  *function // nil at module scope
	w   *writer
	pre []string // lines that must run before the current statement
	tmp int
}

var (
	fragCoordSym   = &symbol{name: "gl_FragCoord", wgsl: "gl_FragCoord", typ: vectorType(Float, 4), kind: symInput}
	frontFacingSym = &symbol{name: "gl_FrontFacing", wgsl: "gl_FrontFacing", typ: tBool, kind: symInput}
	fragDepthSym   = &symbol{name: "gl_FragDepth", wgsl: "gl_FragDepth", typ: tFloat, kind: symOutput}
)

func newTranslator(opts Options) *translator {
	t := &translator{
		opts:       opts,
		global:     newScope(nil),
		structs:    make(map[string]*structType),
		functions:  make(map[string][]*function),
		overloaded: make(map[string]bool),
		bindings:   make(map[[2]int64]string),
	}
	t.scope = t.global
	return t
}

// translate converts a parsed unit into a WGSL module with a @fragment
// entry point named main.
func translate(unit *TranslationUnit, opts Options) (string, error) {
	t := newTranslator(opts)

	defs := make(map[string]int)
	for _, d := range unit.Decls {
		if fd, ok := d.(*FunctionDecl); ok && fd.Body != nil {
			defs[fd.Name]++
		}
	}
	for name, n := range defs {
		if n > 1 {
			t.overloaded[name] = true
		}
	}

	for _, d := range unit.Decls {
		if err := t.decl(d); err != nil {
			return "", err
		}
	}
	if t.entry == nil {
		return "", errorf(Position{}, "no main function defined")
	}
	for _, fns := range t.functions {
		for _, fn := range fns {
			if fn.called && !fn.defined {
				return "", errorf(fn.pos, "function %s is declared but never defined", fn.glsl)
			}
		}
	}
	return t.finish(), nil
}

func (t *translator) decl(d Decl) error {
	switch d := d.(type) {
	case *StructDecl:
		if _, err := t.declareStruct(d); err != nil {
			return err
		}
		if d.Vars != nil {
			return t.globalVar(d.Vars)
		}
		return nil
	case *BlockDecl:
		return t.interfaceBlock(d)
	case *VarDecl:
		return t.globalVar(d)
	case *FunctionDecl:
		return t.function(d)
	}
	return fmt.Errorf("unexpected declaration %T", d)
}

// Types.

func (t *translator) resolveType(ts TypeSpec, d *Declarator) (*Type, error) {
	base, ok := builtinTypes[ts.Name]
	if !ok {
		st, found := t.structs[ts.Name]
		if !found {
			return nil, errorf(ts.Position, "unknown type %s", ts.Name)
		}
		base = &Type{Kind: KindStruct, Struct: st}
	}

	array, size := ts.Array, ts.ArraySize
	if d != nil && d.Array {
		if array {
			return nil, errorf(d.Position, "arrays of arrays are not supported")
		}
		array, size = true, d.ArraySize
	}
	if !array {
		return base, nil
	}
	if base.Kind == KindVoid || base.Kind == KindTexture || base.Kind == KindSampler {
		return nil, errorf(ts.Position, "arrays of %s are not supported", base)
	}
	if size == nil {
		return arrayType(base, 0), nil
	}
	n, err := t.constInt(size)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, errorf(size.Pos(), "array size must be positive")
	}
	return arrayType(base, int(n)), nil
}

func (t *translator) declareStruct(d *StructDecl) (*Type, error) {
	if _, exists := t.structs[d.Name]; exists && t.fn == nil {
		return nil, errorf(d.Position, "redefinition of struct %s", d.Name)
	}
	wgslName := escapeName(d.Name)
	if t.fn != nil {
		// Local structs are hoisted to module scope under a unique name.
		wgslName = fmt.Sprintf("gl_%s_%d", d.Name, len(t.structList))
	}
	st := &structType{name: d.Name, wgsl: wgslName}
	seen := make(map[string]bool)
	for _, m := range d.Members {
		for i := range m.Vars {
			v := &m.Vars[i]
			typ, err := t.resolveType(m.Type, v)
			if err != nil {
				return nil, err
			}
			if typ.Kind == KindArray && typ.Len == 0 {
				return nil, errorf(v.Position, "member %s must have an explicit array size", v.Name)
			}
			if typ.Kind == KindTexture || typ.Kind == KindSampler || typ.Kind == KindVoid {
				return nil, errorf(v.Position, "member %s cannot have type %s", v.Name, typ)
			}
			if seen[v.Name] {
				return nil, errorf(v.Position, "duplicate member %s", v.Name)
			}
			seen[v.Name] = true
			st.fields = append(st.fields, field{name: v.Name, wgsl: escapeName(v.Name), typ: typ})
		}
	}
	t.structs[d.Name] = st
	t.structList = append(t.structList, d.Name)
	t.writeStruct(st)
	return &Type{Kind: KindStruct, Struct: st}, nil
}

func (t *translator) writeStruct(st *structType) {
	t.decls.writeLine("struct %s {", st.wgsl)
	t.decls.pushIndent()
	for _, f := range st.fields {
		t.decls.writeLine("%s: %s,", f.wgsl, f.typ.WGSL())
	}
	t.decls.popIndent()
	t.decls.writeLine("}")
	t.decls.writeLine("")
}

// Module-scope variables.

func (t *translator) layoutValue(q Qualifiers, name string) (int64, bool, error) {
	for _, l := range q.Layout {
		if l.Name != name {
			continue
		}
		if l.Value == nil {
			return 0, false, errorf(l.Position, "layout qualifier %s requires a value", name)
		}
		v, err := t.constInt(l.Value)
		if err != nil {
			return 0, false, err
		}
		if v < 0 {
			return 0, false, errorf(l.Position, "layout qualifier %s must not be negative", name)
		}
		return v, true, nil
	}
	return 0, false, nil
}

func (t *translator) hasLayout(q Qualifiers, name string) bool {
	for _, l := range q.Layout {
		if l.Name == name {
			return true
		}
	}
	return false
}

func (t *translator) declareGlobal(name string, pos Position, sym *symbol) error {
	if _, exists := t.global.syms[name]; exists {
		return errorf(pos, "redefinition of %s", name)
	}
	if _, exists := t.functions[name]; exists {
		return errorf(pos, "%s is already declared as a function", name)
	}
	t.global.syms[name] = sym
	return nil
}

func (t *translator) bind(set, binding int64, name string, pos Position) error {
	key := [2]int64{set, binding}
	if other, taken := t.bindings[key]; taken {
		return errorf(pos, "binding %d in set %d is used by both %s and %s", binding, set, other, name)
	}
	t.bindings[key] = name
	return nil
}

func (t *translator) globalVar(vd *VarDecl) error {
	for i := range vd.Vars {
		d := &vd.Vars[i]
		typ, err := t.resolveType(vd.Type, d)
		if err != nil {
			return err
		}
		if typ.Kind == KindVoid {
			return errorf(d.Position, "variable %s cannot be void", d.Name)
		}
		switch vd.Quals.Storage {
		case "in":
			err = t.stageVar(vd.Quals, d, typ, true)
		case "out":
			err = t.stageVar(vd.Quals, d, typ, false)
		case "uniform":
			err = t.opaqueUniform(vd.Quals, d, typ)
		case "const", "":
			err = t.privateVar(vd.Quals.Storage == "const", d, typ)
		default:
			err = errorf(d.Position, "storage qualifier '%s' is not supported at global scope", vd.Quals.Storage)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *translator) stageVar(q Qualifiers, d *Declarator, typ *Type, input bool) error {
	if d.Init != nil {
		return errorf(d.Position, "shader %s variable %s cannot be initialized", q.Storage, d.Name)
	}
	if !typ.isNumeric() {
		return errorf(d.Position, "shader %s variable %s has unsupported type %s", q.Storage, d.Name, typ)
	}
	slot := 0
	if !input {
		slot = 1
	}
	loc, ok, err := t.layoutValue(q, "location")
	if err != nil {
		return err
	}
	if !ok {
		loc = t.nextLocation[slot]
	}
	t.nextLocation[slot] = loc + 1

	name := escapeFunctionName(d.Name)
	kind := symOutput
	if input {
		kind = symInput
	}
	sym := &symbol{name: d.Name, wgsl: name, typ: typ, kind: kind}
	if err := t.declareGlobal(d.Name, d.Position, sym); err != nil {
		return err
	}

	v := &ioVar{sym: sym, location: loc}
	list := &t.outputs
	if input {
		list = &t.inputs
		switch {
		case typ.Scalar != Float || q.Interp == "flat":
			v.interp = "flat"
		case q.Interp == "noperspective":
			v.interp = "linear"
		}
	}
	for _, other := range *list {
		if other.location == loc {
			return errorf(d.Position, "location %d is used by both %s and %s", loc, other.sym.name, d.Name)
		}
	}
	*list = append(*list, v)
	t.decls.writeLine("var<private> %s: %s;", name, typ.WGSL())
	return nil
}

func (t *translator) opaqueUniform(q Qualifiers, d *Declarator, typ *Type) error {
	if typ.Kind != KindTexture && typ.Kind != KindSampler {
		return errorf(d.Position, "uniform %s must be declared inside a uniform block", d.Name)
	}
	if d.Init != nil {
		return errorf(d.Position, "uniform %s cannot be initialized", d.Name)
	}
	set, _, err := t.layoutValue(q, "set")
	if err != nil {
		return err
	}
	binding, _, err := t.layoutValue(q, "binding")
	if err != nil {
		return err
	}

	name := escapeFunctionName(d.Name)
	sym := &symbol{name: d.Name, wgsl: name, typ: typ, kind: symTexture}
	if typ.Kind == KindSampler {
		sym.kind = symSampler
	}
	if err := t.bind(set, binding, d.Name, d.Position); err != nil {
		return err
	}
	t.decls.writeLine("@group(%d) @binding(%d) var %s: %s;", set, binding, name, typ.WGSL())

	if typ.Combined {
		sym.sampler = "gl_sampler_" + name
		sb := binding + int64(t.opts.SamplerBindingBase)
		if err := t.bind(set, sb, d.Name+" (sampler)", d.Position); err != nil {
			return err
		}
		t.decls.writeLine("@group(%d) @binding(%d) var %s: sampler;", set, sb, sym.sampler)
	}
	return t.declareGlobal(d.Name, d.Position, sym)
}

func (t *translator) privateVar(isConst bool, d *Declarator, typ *Type) error {
	name := escapeFunctionName(d.Name)
	sym := &symbol{name: d.Name, wgsl: name, kind: symPrivate, readonly: isConst}

	if d.Init == nil {
		if isConst {
			return errorf(d.Position, "const %s requires an initializer", d.Name)
		}
		if typ.Kind == KindArray && typ.Len == 0 {
			return errorf(d.Position, "array %s needs an explicit size", d.Name)
		}
		if typ.Kind == KindTexture || typ.Kind == KindSampler {
			return errorf(d.Position, "%s must be declared uniform", d.Name)
		}
		sym.typ = typ
		t.decls.writeLine("var<private> %s: %s;", name, typ.WGSL())
		return t.declareGlobal(d.Name, d.Position, sym)
	}

	init, pre, err := t.captureExpr(func() (operand, error) { return t.initializer(typ, d.Init) })
	if err != nil {
		return err
	}
	sym.typ = init.typ
	if isConst {
		if v, err := t.constInt(d.Init); err == nil {
			sym.value = &v
		}
		if init.isInt || init.isFloat {
			lit := init
			sym.lit = &lit
		}
	}

	// Module-scope initializers other than constants run at the top of
	// the entry point, after the stage inputs are copied.
	if isConst && init.konst && len(pre) == 0 && init.typ.Kind != KindArray {
		sym.kind = symConst
		sym.konst = true
		t.decls.writeLine("const %s: %s = %s;", name, init.typ.WGSL(), init.text)
	} else {
		t.decls.writeLine("var<private> %s: %s;", name, init.typ.WGSL())
		t.deferred = append(t.deferred, pre...)
		t.deferred = append(t.deferred, fmt.Sprintf("%s = %s;", name, init.text))
	}
	return t.declareGlobal(d.Name, d.Position, sym)
}

func (t *translator) interfaceBlock(b *BlockDecl) error {
	var space string
	switch b.Quals.Storage {
	case "uniform":
		space = "uniform"
		if t.hasLayout(b.Quals, "push_constant") {
			space = "push_constant"
		}
	case "buffer":
		space = "storage, read_write"
		for _, m := range b.Quals.Memory {
			if m == "readonly" {
				space = "storage, read"
			}
		}
	default:
		return errorf(b.Position, "%s interface blocks are not supported", b.Quals.Storage)
	}

	st, err := t.declareStruct(&StructDecl{Name: b.Name, Members: b.Members, Position: b.Position})
	if err != nil {
		return err
	}

	kind := symUniform
	if b.Quals.Storage == "buffer" {
		kind = symStorage
	}
	readonly := space != "storage, read_write"

	varName := "gl_" + b.Name
	if b.Instance != "" {
		varName = escapeFunctionName(b.Instance)
	}
	if space == "push_constant" {
		t.decls.writeLine("var<push_constant> %s: %s;", varName, st.WGSL())
	} else {
		set, _, err := t.layoutValue(b.Quals, "set")
		if err != nil {
			return err
		}
		binding, _, err := t.layoutValue(b.Quals, "binding")
		if err != nil {
			return err
		}
		if err := t.bind(set, binding, b.Name, b.Position); err != nil {
			return err
		}
		t.decls.writeLine("@group(%d) @binding(%d) var<%s> %s: %s;", set, binding, space, varName, st.WGSL())
	}

	if b.Instance != "" {
		return t.declareGlobal(b.Instance, b.Position, &symbol{
			name: b.Instance, wgsl: varName, typ: st, kind: kind, readonly: readonly,
		})
	}
	for _, f := range st.Struct.fields {
		sym := &symbol{name: f.name, wgsl: varName + "." + f.wgsl, typ: f.typ, kind: kind, readonly: readonly}
		if err := t.declareGlobal(f.name, b.Position, sym); err != nil {
			return err
		}
	}
	return nil
}

// Functions.

func (t *translator) function(fd *FunctionDecl) error {
	ret, err := t.resolveType(fd.Return, nil)
	if err != nil {
		return err
	}
	if ret.Kind == KindTexture || ret.Kind == KindSampler {
		return errorf(fd.Position, "function %s cannot return %s", fd.Name, ret)
	}

	params := make([]*Type, len(fd.Params))
	storage := make([]string, len(fd.Params))
	for i, p := range fd.Params {
		pt, err := t.resolveType(p.Type, nil)
		if err != nil {
			return err
		}
		if pt.Kind == KindVoid {
			return errorf(p.Position, "parameter of %s cannot be void", fd.Name)
		}
		if pt.Kind == KindArray && pt.Len == 0 {
			return errorf(p.Position, "array parameter of %s needs an explicit size", fd.Name)
		}
		if (pt.Kind == KindTexture || pt.Kind == KindSampler) && (p.Storage == "out" || p.Storage == "inout") {
			return errorf(p.Position, "%s parameter of %s cannot be %s", pt, fd.Name, p.Storage)
		}
		params[i] = pt
		storage[i] = p.Storage
	}

	if _, clash := t.global.syms[fd.Name]; clash {
		return errorf(fd.Position, "%s is already declared as a variable", fd.Name)
	}

	var fn *function
	for _, existing := range t.functions[fd.Name] {
		if sameParams(existing.params, params) {
			fn = existing
			break
		}
	}
	if fn == nil {
		fn = &function{glsl: fd.Name, params: params, storage: storage, ret: ret, pos: fd.Position}
		switch {
		case fd.Name == "main":
			if len(params) != 0 || ret.Kind != KindVoid {
				return errorf(fd.Position, "main must be declared as void main()")
			}
			fn.name = "gl_main"
			t.entry = fn
		case t.overloaded[fd.Name]:
			fn.name = mangle(fd.Name, params)
		default:
			fn.name = escapeFunctionName(fd.Name)
		}
		t.functions[fd.Name] = append(t.functions[fd.Name], fn)
	} else if !fn.ret.equal(ret) {
		return errorf(fd.Position, "conflicting return types for %s", fd.Name)
	}

	if fd.Body == nil {
		return nil
	}
	if fn.defined {
		return errorf(fd.Position, "redefinition of function %s", fd.Name)
	}
	fn.defined = true
	fn.storage = storage
	return t.emitFunction(fn, fd)
}

func sameParams(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].equal(b[i]) {
			return false
		}
	}
	return true
}

func (t *translator) emitFunction(fn *function, fd *FunctionDecl) error {
	w := &writer{}
	t.w = w
	t.fn = fn
	t.scope = newScope(t.global)
	defer func() {
		t.fn = nil
		t.w = nil
		t.scope = t.global
	}()

	assigned := assignedNames(fd.Body)
	var params, prologue []string
	for i, p := range fd.Params {
		typ := fn.params[i]
		glslName := p.Name
		if glslName == "" {
			glslName = fmt.Sprintf("gl_unnamed%d", i)
		}
		name := escapeFunctionName(glslName)
		sym := &symbol{name: glslName, wgsl: name, typ: typ, kind: symLet}

		switch {
		case typ.Kind == KindTexture:
			sym.kind = symTexture
			params = append(params, fmt.Sprintf("%s: %s", name, typ.WGSL()))
			if typ.Combined {
				sym.sampler = "gl_sampler_" + name
				params = append(params, fmt.Sprintf("%s: sampler", sym.sampler))
			}
		case typ.Kind == KindSampler:
			sym.kind = symSampler
			params = append(params, fmt.Sprintf("%s: sampler", name))
		case p.Storage == "out" || p.Storage == "inout":
			sym.kind = symPtr
			sym.ptr = name
			sym.wgsl = "(*" + name + ")"
			params = append(params, fmt.Sprintf("%s: ptr<function, %s>", name, typ.WGSL()))
		case assigned[glslName] && !p.Const:
			sym.kind = symLocal
			arg := "gl_arg_" + name
			params = append(params, fmt.Sprintf("%s: %s", arg, typ.WGSL()))
			prologue = append(prologue, fmt.Sprintf("var %s: %s = %s;", name, typ.WGSL(), arg))
		default:
			params = append(params, fmt.Sprintf("%s: %s", name, typ.WGSL()))
		}
		if _, dup := t.scope.syms[glslName]; dup && p.Name != "" {
			return errorf(p.Position, "duplicate parameter %s", p.Name)
		}
		t.scope.syms[glslName] = sym
	}

	if fn.ret.Kind == KindVoid {
		w.writeLine("fn %s(%s) {", fn.name, strings.Join(params, ", "))
	} else {
		w.writeLine("fn %s(%s) -> %s {", fn.name, strings.Join(params, ", "), fn.ret.WGSL())
	}
	w.pushIndent()
	for _, line := range prologue {
		w.writeRaw(line)
	}
	for _, s := range fd.Body.Stmts {
		if err := t.stmt(s); err != nil {
			return err
		}
	}
	if fn.ret.Kind != KindVoid && !endsWithReturn(fd.Body.Stmts) {
		w.writeLine("return %s;", fn.ret.zeroValue())
	}
	w.popIndent()
	w.writeLine("}")
	w.writeLine("")

	t.funcs.out.WriteString(w.String())
	return nil
}

func endsWithReturn(stmts []Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	_, ok := stmts[len(stmts)-1].(*ReturnStmt)
	return ok
}

// finish assembles the module and the entry point wrapper.
func (t *translator) finish() string {
	var sb strings.Builder

	if t.usesFragDepth {
		// The default depth is the interpolated fragment depth.
		t.usesFragCoord = true
	}

	if t.usesFragCoord {
		t.decls.writeLine("var<private> gl_FragCoord: vec4<f32>;")
	}
	if t.usesFrontFacing {
		t.decls.writeLine("var<private> gl_FrontFacing: bool;")
	}
	if t.usesFragDepth {
		t.decls.writeLine("var<private> gl_FragDepth: f32;")
	}

	sort.Slice(t.outputs, func(i, j int) bool { return t.outputs[i].location < t.outputs[j].location })
	sort.Slice(t.inputs, func(i, j int) bool { return t.inputs[i].location < t.inputs[j].location })

	w := &writer{}
	useStruct := len(t.outputs) > 1 || t.usesFragDepth
	if useStruct {
		w.writeLine("struct gl_FragmentOutput {")
		w.pushIndent()
		for _, o := range t.outputs {
			w.writeLine("@location(%d) %s: %s,", o.location, o.sym.wgsl, o.sym.typ.WGSL())
		}
		if t.usesFragDepth {
			w.writeLine("@builtin(frag_depth) gl_FragDepth: f32,")
		}
		w.popIndent()
		w.writeLine("}")
		w.writeLine("")
	}

	var params, copies []string
	for _, in := range t.inputs {
		attr := fmt.Sprintf("@location(%d)", in.location)
		if in.interp != "" {
			attr += fmt.Sprintf(" @interpolate(%s)", in.interp)
		}
		arg := "gl_in_" + in.sym.wgsl
		params = append(params, fmt.Sprintf("%s %s: %s", attr, arg, in.sym.typ.WGSL()))
		copies = append(copies, fmt.Sprintf("%s = %s;", in.sym.wgsl, arg))
	}
	if t.usesFragCoord {
		params = append(params, "@builtin(position) gl_in_FragCoord: vec4<f32>")
		copies = append(copies, "gl_FragCoord = gl_in_FragCoord;")
	}
	if t.usesFrontFacing {
		params = append(params, "@builtin(front_facing) gl_in_FrontFacing: bool")
		copies = append(copies, "gl_FrontFacing = gl_in_FrontFacing;")
	}

	signature := fmt.Sprintf("fn main(%s)", strings.Join(params, ", "))
	switch {
	case useStruct:
		signature += " -> gl_FragmentOutput"
	case len(t.outputs) == 1:
		o := t.outputs[0]
		signature += fmt.Sprintf(" -> @location(%d) %s", o.location, o.sym.typ.WGSL())
	}

	w.writeLine("@fragment")
	w.writeLine("%s {", signature)
	w.pushIndent()
	for _, line := range copies {
		w.writeRaw(line)
	}
	if t.usesFragDepth {
		w.writeLine("gl_FragDepth = gl_in_FragCoord.z;")
	}
	for _, line := range t.deferred {
		w.writeRaw(line)
	}
	w.writeLine("%s();", t.entry.name)
	switch {
	case useStruct:
		fields := make([]string, 0, len(t.outputs)+1)
		for _, o := range t.outputs {
			fields = append(fields, o.sym.wgsl)
		}
		if t.usesFragDepth {
			fields = append(fields, "gl_FragDepth")
		}
		w.writeLine("return gl_FragmentOutput(%s);", strings.Join(fields, ", "))
	case len(t.outputs) == 1:
		w.writeLine("return %s;", t.outputs[0].sym.wgsl)
	}
	w.popIndent()
	w.writeLine("}")

	sb.WriteString(t.decls.String())
	if t.decls.out.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(t.funcs.String())
	sb.WriteString(w.String())
	return sb.String()
}
