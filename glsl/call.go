// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"
)

func (t *translator) isUserCall(e *CallExpr) bool {
	if e.Type != nil {
		return false
	}
	_, ok := t.functions[e.Callee]
	return ok
}

func (t *translator) args(exprs []Expr) ([]operand, error) {
	ops := make([]operand, len(exprs))
	for i, a := range exprs {
		op, err := t.expr(a)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}

func (t *translator) call(e *CallExpr) (operand, error) {
	switch {
	case e.Callee == "{}":
		return operand{}, errorf(e.Position, "initializer lists are only allowed in declarations")
	case e.Callee == ".length":
		base, err := t.expr(e.Args[0])
		if err != nil {
			return operand{}, err
		}
		switch base.typ.Kind {
		case KindArray:
			return intOperand(int64(base.typ.Len), Int), nil
		case KindVector, KindMatrix:
			return intOperand(int64(base.typ.Size), Int), nil
		}
		return operand{}, errorf(e.Position, "length() cannot be applied to %s", base.typ)
	case e.Type != nil:
		typ, err := t.resolveType(*e.Type, nil)
		if err != nil {
			return operand{}, err
		}
		args, err := t.args(e.Args)
		if err != nil {
			return operand{}, err
		}
		return t.construct(typ, args, e.Position)
	}

	if t.isUserCall(e) {
		return t.userCall(e)
	}
	if fn, ok := builtins[e.Callee]; ok {
		args, err := t.args(e.Args)
		if err != nil {
			return operand{}, err
		}
		return fn(t, e, args)
	}
	if _, ok := unsupportedBuiltins[e.Callee]; ok {
		return operand{}, errorf(e.Position, "built-in function %s is not supported", e.Callee)
	}
	return operand{}, errorf(e.Position, "undefined function %s", e.Callee)
}

// Constructors.

func (t *translator) construct(typ *Type, args []operand, pos Position) (operand, error) {
	if len(args) == 0 {
		return operand{}, errorf(pos, "constructor %s requires arguments", typ)
	}
	switch typ.Kind {
	case KindScalar:
		if len(args) != 1 {
			return operand{}, errorf(pos, "too many arguments to %s constructor", typ)
		}
		a := args[0]
		switch {
		case a.typ.isVector():
			a = operand{text: a.text + ".x", typ: scalarType(a.typ.Scalar)}
		case a.typ.isMatrix():
			a = operand{text: a.text + "[0].x", typ: tFloat}
		case !a.typ.isScalar():
			return operand{}, errorf(pos, "cannot construct %s from %s", typ, a.typ)
		}
		return t.cast(a, typ), nil
	case KindVector:
		return t.vectorConstruct(typ, args, pos)
	case KindMatrix:
		return t.matrixConstruct(typ, args, pos)
	case KindArray:
		n := typ.Len
		if n == 0 {
			n = len(args)
			typ = arrayType(typ.Elem, n)
		}
		if len(args) != n {
			return operand{}, errorf(pos, "%s constructor has %d arguments, want %d", typ, len(args), n)
		}
		elems := make([]*Type, n)
		for i := range elems {
			elems[i] = typ.Elem
		}
		return t.composite(typ, elems, args, pos)
	case KindStruct:
		fields := typ.Struct.fields
		if len(args) != len(fields) {
			return operand{}, errorf(pos, "%s constructor has %d arguments, want %d", typ, len(args), len(fields))
		}
		elems := make([]*Type, len(fields))
		for i, f := range fields {
			elems[i] = f.typ
		}
		return t.composite(typ, elems, args, pos)
	case KindTexture:
		if !typ.Combined || len(args) != 2 {
			break
		}
		tex, smp := args[0], args[1]
		if tex.typ.Kind != KindTexture || tex.typ.Combined || tex.typ.Dim != typ.Dim || smp.typ.Kind != KindSampler {
			return operand{}, errorf(pos, "%s must be constructed from a %s and a sampler", typ, textureNames[typ.Dim])
		}
		return operand{text: tex.text, typ: typ, sampler: smp.text, simple: true}, nil
	}
	return operand{}, errorf(pos, "cannot construct %s from (%s)", typ, operandTypes(args))
}

func operandTypes(args []operand) string {
	types := make([]*Type, len(args))
	for i, a := range args {
		types[i] = a.typ
	}
	return describeTypes(types)
}

// composite builds an array or struct value from converted elements.
func (t *translator) composite(typ *Type, elems []*Type, args []operand, pos Position) (operand, error) {
	parts := make([]string, len(args))
	konst := true
	for i, a := range args {
		c, err := t.convert(a, elems[i], pos)
		if err != nil {
			return operand{}, err
		}
		parts[i] = c.text
		konst = konst && c.konst
	}
	return operand{text: fmt.Sprintf("%s(%s)", typ.WGSL(), strings.Join(parts, ", ")), typ: typ, konst: konst}, nil
}

func (t *translator) vectorConstruct(typ *Type, args []operand, pos Position) (operand, error) {
	n, k := typ.Size, typ.Scalar
	if len(args) == 1 {
		a := args[0]
		switch {
		case a.typ.isScalar():
			a = t.cast(a, scalarType(k))
			return operand{text: fmt.Sprintf("%s(%s)", typ.WGSL(), a.text), typ: typ, konst: a.konst}, nil
		case a.typ.isVector():
			if a.typ.Size < n {
				return operand{}, errorf(pos, "not enough components to construct %s from %s", typ, a.typ)
			}
			if a.typ.Size > n {
				a = t.truncate(a, n)
			}
			return t.cast(a, typ), nil
		}
		return operand{}, errorf(pos, "cannot construct %s from %s", typ, a.typ)
	}

	parts := make([]string, 0, len(args))
	comps := 0
	konst := true
	for i, a := range args {
		if comps >= n {
			return operand{}, errorf(pos, "too many arguments to %s constructor", typ)
		}
		switch {
		case a.typ.isScalar():
			a = t.cast(a, scalarType(k))
			comps++
		case a.typ.isVector():
			if rem := n - comps; a.typ.Size > rem {
				if i != len(args)-1 {
					return operand{}, errorf(pos, "too many arguments to %s constructor", typ)
				}
				a = t.truncate(a, rem)
			}
			comps += a.typ.width()
			a = t.cast(a, a.typ.withScalar(k))
		default:
			return operand{}, errorf(pos, "cannot use %s to construct %s", a.typ, typ)
		}
		parts = append(parts, a.text)
		konst = konst && a.konst
	}
	if comps < n {
		return operand{}, errorf(pos, "not enough components to construct %s", typ)
	}
	return operand{text: fmt.Sprintf("%s(%s)", typ.WGSL(), strings.Join(parts, ", ")), typ: typ, konst: konst}, nil
}

// truncate keeps the first n components of a vector operand.
func (t *translator) truncate(a operand, n int) operand {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return operand{text: a.text + "." + swizzleText(idx), typ: vectorType(a.typ.Scalar, n), simple: a.simple}
}

func (t *translator) matrixConstruct(typ *Type, args []operand, pos Position) (operand, error) {
	cols, rows := typ.Size, typ.Rows
	colType := typ.column()
	build := func(parts []string) string {
		return fmt.Sprintf("%s(%s)", typ.WGSL(), strings.Join(parts, ", "))
	}
	column := func(entries []string) string {
		return fmt.Sprintf("%s(%s)", colType.WGSL(), strings.Join(entries, ", "))
	}

	if len(args) == 1 && args[0].typ.isScalar() {
		s := t.reuse(t.cast(args[0], tFloat))
		parts := make([]string, cols)
		for i := range parts {
			entries := make([]string, rows)
			for j := range entries {
				entries[j] = "0.0"
				if i == j {
					entries[j] = s.text
				}
			}
			parts[i] = column(entries)
		}
		return operand{text: build(parts), typ: typ, konst: s.konst}, nil
	}

	if len(args) == 1 && args[0].typ.isMatrix() {
		src := args[0]
		if src.typ.equal(typ) {
			return src, nil
		}
		src = t.reuse(src)
		parts := make([]string, cols)
		for i := range parts {
			if i >= src.typ.Size {
				entries := make([]string, rows)
				for j := range entries {
					entries[j] = "0.0"
					if i == j {
						entries[j] = "1.0"
					}
				}
				parts[i] = column(entries)
				continue
			}
			c := fmt.Sprintf("%s[%d]", src.text, i)
			switch {
			case src.typ.Rows > rows:
				parts[i] = t.truncate(operand{text: c, typ: src.typ.column()}, rows).text
			case src.typ.Rows < rows:
				entries := []string{c}
				for j := src.typ.Rows; j < rows; j++ {
					if i == j {
						entries = append(entries, "1.0")
					} else {
						entries = append(entries, "0.0")
					}
				}
				parts[i] = column(entries)
			default:
				parts[i] = c
			}
		}
		return operand{text: build(parts), typ: typ}, nil
	}

	columns := len(args) == cols
	for _, a := range args {
		if !a.typ.isVector() || a.typ.Size != rows {
			columns = false
		}
	}
	konst := true
	var parts []string
	if columns {
		for _, a := range args {
			a = t.cast(a, colType)
			parts = append(parts, a.text)
			konst = konst && a.konst
		}
		return operand{text: build(parts), typ: typ, konst: konst}, nil
	}

	for _, a := range args {
		switch {
		case a.typ.isScalar():
			a = t.cast(a, tFloat)
			parts = append(parts, a.text)
			konst = konst && a.konst
		case a.typ.isVector():
			a = t.reuse(t.cast(a, a.typ.withScalar(Float)))
			for j := 0; j < a.typ.Size; j++ {
				parts = append(parts, a.text+"."+swizzleText([]int{j}))
			}
			konst = false
		default:
			return operand{}, errorf(pos, "cannot use %s to construct %s", a.typ, typ)
		}
	}
	if len(parts) != cols*rows {
		return operand{}, errorf(pos, "%s constructor needs %d components, found %d", typ, cols*rows, len(parts))
	}
	return operand{text: build(parts), typ: typ, konst: konst}, nil
}

// Initializers.

func (t *translator) initializer(typ *Type, init Expr) (operand, error) {
	if list, ok := init.(*CallExpr); ok && list.Callee == "{}" && list.Type == nil {
		return t.braceInit(typ, list)
	}
	op, err := t.expr(init)
	if err != nil {
		return operand{}, err
	}
	if typ.Kind == KindArray && typ.Len == 0 {
		if op.typ.Kind != KindArray || !op.typ.Elem.equal(typ.Elem) {
			return operand{}, errorf(init.Pos(), "cannot initialize %s[] with %s", typ.Elem, op.typ)
		}
		return op, nil
	}
	return t.convert(op, typ, init.Pos())
}

func (t *translator) braceInit(typ *Type, list *CallExpr) (operand, error) {
	var elems []*Type
	repeat := func(e *Type, n int) {
		for i := 0; i < n; i++ {
			elems = append(elems, e)
		}
	}
	switch typ.Kind {
	case KindArray:
		if typ.Len == 0 {
			typ = arrayType(typ.Elem, len(list.Args))
		}
		repeat(typ.Elem, typ.Len)
	case KindStruct:
		for _, f := range typ.Struct.fields {
			elems = append(elems, f.typ)
		}
	case KindVector:
		repeat(scalarType(typ.Scalar), typ.Size)
	case KindMatrix:
		repeat(typ.column(), typ.Size)
	case KindScalar:
		elems = []*Type{typ}
	default:
		return operand{}, errorf(list.Position, "%s cannot be initialized with a list", typ)
	}
	if len(list.Args) != len(elems) || len(elems) == 0 {
		return operand{}, errorf(list.Position, "initializer list for %s has %d elements, want %d", typ, len(list.Args), len(elems))
	}

	args := make([]operand, len(elems))
	for i, a := range list.Args {
		op, err := t.initializer(elems[i], a)
		if err != nil {
			return operand{}, err
		}
		args[i] = op
	}
	if typ.Kind == KindScalar {
		return args[0], nil
	}
	return t.composite(typ, elems, args, list.Position)
}

// User functions.

func (t *translator) userCall(e *CallExpr) (operand, error) {
	fns := t.functions[e.Callee]
	fn := fns[0]
	if len(fns) > 1 {
		var err error
		if fn, err = t.resolveOverload(e, fns); err != nil {
			return operand{}, err
		}
	}
	if len(fn.params) != len(e.Args) {
		return operand{}, errorf(e.Position, "%s expects %d arguments, found %d", e.Callee, len(fn.params), len(e.Args))
	}

	var args []string
	var writeback []func() error
	for i, a := range e.Args {
		pt := fn.params[i]
		if fn.storage[i] == "out" || fn.storage[i] == "inout" {
			lv, err := t.lval(a)
			if err != nil {
				return operand{}, err
			}
			if lv.whole && lv.swizzle == nil && lv.typ.equal(pt) {
				switch lv.sym.kind {
				case symLocal:
					args = append(args, "&"+lv.text)
					continue
				case symPtr:
					args = append(args, lv.sym.ptr)
					continue
				}
			}
			if !convertible(pt, lv.typ) {
				return operand{}, errorf(a.Pos(), "cannot pass %s as %s parameter of type %s", lv.typ, fn.storage[i], pt)
			}
			tmp := t.newTemp()
			if fn.storage[i] == "inout" {
				v, err := t.convert(t.read(lv), pt, a.Pos())
				if err != nil {
					return operand{}, err
				}
				t.emit(fmt.Sprintf("var %s: %s = %s;", tmp, pt.WGSL(), v.text))
			} else {
				t.emit(fmt.Sprintf("var %s: %s;", tmp, pt.WGSL()))
			}
			args = append(args, "&"+tmp)
			writeback = append(writeback, func() error {
				return t.store(lv, operand{text: tmp, typ: pt, simple: true}, a.Pos())
			})
			continue
		}

		op, err := t.expr(a)
		if err != nil {
			return operand{}, err
		}
		if pt.Kind == KindTexture || pt.Kind == KindSampler {
			if !op.typ.equal(pt) {
				return operand{}, errorf(a.Pos(), "cannot pass %s as %s", op.typ, pt)
			}
			args = append(args, op.text)
			if pt.Combined {
				args = append(args, op.sampler)
			}
			continue
		}
		op, err = t.convert(op, pt, a.Pos())
		if err != nil {
			return operand{}, err
		}
		args = append(args, op.text)
	}

	fn.called = true
	text := fmt.Sprintf("%s(%s)", fn.name, strings.Join(args, ", "))
	if len(writeback) == 0 {
		return operand{text: text, typ: fn.ret}, nil
	}

	result := operand{typ: tVoid}
	if fn.ret.Kind == KindVoid {
		t.emit(text + ";")
	} else {
		result = t.letTemp(operand{text: text, typ: fn.ret})
	}
	for _, wb := range writeback {
		if err := wb(); err != nil {
			return operand{}, err
		}
	}
	return result, nil
}

// resolveOverload picks the overload of an overloaded function that
// matches the argument types exactly, or else the only one reachable by
// implicit conversions.
func (t *translator) resolveOverload(e *CallExpr, fns []*function) (*function, error) {
	types := make([]*Type, len(e.Args))
	for i, a := range e.Args {
		op, _, err := t.captureExpr(func() (operand, error) { return t.expr(a) })
		if err != nil {
			return nil, err
		}
		types[i] = op.typ
	}

	var candidates []*function
	for _, fn := range fns {
		if len(fn.params) != len(types) {
			continue
		}
		if sameParams(fn.params, types) {
			return fn, nil
		}
		ok := true
		for i, p := range fn.params {
			if !convertible(types[i], p) {
				ok = false
				break
			}
		}
		if ok {
			candidates = append(candidates, fn)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return nil, errorf(e.Position, "no matching overload for %s(%s)", e.Callee, describeTypes(types))
	}
	return nil, errorf(e.Position, "ambiguous call to %s(%s)", e.Callee, describeTypes(types))
}
