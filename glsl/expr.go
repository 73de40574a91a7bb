// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// operand is a translated expression.
type operand struct {
	text    string
	typ     *Type
	konst   bool // text is a constant expression
	isInt   bool // ival holds the value of an integer literal
	ival    int64
	isFloat bool // fval holds the value of a float literal
	fval    float64
	sampler string // sampler expression paired with a combined texture
	simple  bool   // text may be repeated without side effects or cost
}

func intOperand(v int64, k ScalarKind) operand {
	return operand{text: intText(v, k == Uint), typ: scalarType(k), konst: true, isInt: true, ival: v, simple: true}
}

func floatOperand(v float64) operand {
	v = float64(float32(v))
	return operand{text: floatText(v), typ: tFloat, konst: true, isFloat: true, fval: v, simple: true}
}

func boolOperand(b bool) operand {
	return operand{text: strconv.FormatBool(b), typ: tBool, konst: true, simple: true}
}

func intText(v int64, unsigned bool) string {
	if unsigned {
		return fmt.Sprintf("%du", uint32(v))
	}
	i := int32(v)
	switch {
	case i == math.MinInt32:
		return "i32(-2147483647 - 1)"
	case i < 0:
		return fmt.Sprintf("(%d)", i)
	}
	return strconv.Itoa(int(i))
}

func floatText(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 32)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	if v < 0 || (v == 0 && math.Signbit(v)) {
		return "(" + s + ")"
	}
	return s
}

func paren(s string) string {
	return "(" + s + ")"
}

// Temporaries.

func (t *translator) emit(line string) {
	t.pre = append(t.pre, line)
}

func (t *translator) newTemp() string {
	t.tmp++
	return fmt.Sprintf("gl_tmp%d", t.tmp)
}

// letTemp binds op to a fresh immutable temporary.
func (t *translator) letTemp(op operand) operand {
	name := t.newTemp()
	t.emit(fmt.Sprintf("let %s = %s;", name, op.text))
	return operand{text: name, typ: op.typ, sampler: op.sampler, simple: true}
}

// reuse makes op safe to reference more than once.
func (t *translator) reuse(op operand) operand {
	if op.simple {
		return op
	}
	return t.letTemp(op)
}

// captureExpr runs f with an empty list of pending lines and returns the
// lines it produced.
func (t *translator) captureExpr(f func() (operand, error)) (operand, []string, error) {
	saved := t.pre
	t.pre = nil
	op, err := f()
	pre := t.pre
	t.pre = saved
	return op, pre, err
}

func indentLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "    " + l
	}
	return out
}

func (t *translator) lookup(name string) *symbol {
	if sym := t.scope.lookup(name); sym != nil {
		return sym
	}
	switch name {
	case "gl_FragCoord":
		t.usesFragCoord = true
		return fragCoordSym
	case "gl_FrontFacing":
		t.usesFrontFacing = true
		return frontFacingSym
	case "gl_FragDepth":
		t.usesFragDepth = true
		return fragDepthSym
	}
	return nil
}

// Expressions.

func (t *translator) expr(e Expr) (operand, error) {
	switch e := e.(type) {
	case *Ident:
		sym := t.lookup(e.Name)
		if sym == nil {
			return operand{}, errorf(e.Position, "undeclared identifier %s", e.Name)
		}
		if sym.lit != nil {
			return *sym.lit, nil
		}
		return operand{text: sym.wgsl, typ: sym.typ, konst: sym.konst, sampler: sym.sampler, simple: true}, nil
	case *IntLit:
		if e.Unsigned {
			return intOperand(int64(e.Value), Uint), nil
		}
		return intOperand(int64(int32(uint32(e.Value))), Int), nil
	case *FloatLit:
		return floatOperand(e.Value), nil
	case *BoolLit:
		return boolOperand(e.Value), nil
	case *BinaryExpr:
		if e.Op == "&&" || e.Op == "||" {
			return t.logical(e)
		}
		l, err := t.expr(e.Left)
		if err != nil {
			return operand{}, err
		}
		r, err := t.expr(e.Right)
		if err != nil {
			return operand{}, err
		}
		return t.binaryOp(e.Op, l, r, e.Position)
	case *UnaryExpr:
		return t.unary(e)
	case *PostfixExpr:
		lv, err := t.lval(e.Operand)
		if err != nil {
			return operand{}, err
		}
		old := t.letTemp(t.read(lv))
		if err := t.increment(lv, e.Op, e.Position); err != nil {
			return operand{}, err
		}
		return old, nil
	case *AssignExpr:
		lv, err := t.assign(e)
		if err != nil {
			return operand{}, err
		}
		return t.read(lv), nil
	case *TernaryExpr:
		return t.ternary(e)
	case *CallExpr:
		return t.call(e)
	case *IndexExpr:
		return t.index(e)
	case *FieldExpr:
		base, err := t.expr(e.Base)
		if err != nil {
			return operand{}, err
		}
		return t.field(base, e.Field, e.Position)
	case *CommaExpr:
		if err := t.effect(e.Left); err != nil {
			return operand{}, err
		}
		return t.expr(e.Right)
	}
	return operand{}, fmt.Errorf("unexpected expression %T", e)
}

// effect translates an expression evaluated only for its side effects.
func (t *translator) effect(e Expr) error {
	switch e := e.(type) {
	case *AssignExpr:
		_, err := t.assign(e)
		return err
	case *PostfixExpr:
		lv, err := t.lval(e.Operand)
		if err != nil {
			return err
		}
		return t.increment(lv, e.Op, e.Position)
	case *UnaryExpr:
		if e.Op == "++" || e.Op == "--" {
			lv, err := t.lval(e.Operand)
			if err != nil {
				return err
			}
			return t.increment(lv, e.Op, e.Position)
		}
	case *CommaExpr:
		if err := t.effect(e.Left); err != nil {
			return err
		}
		return t.effect(e.Right)
	case *CallExpr:
		op, err := t.expr(e)
		if err != nil {
			return err
		}
		switch {
		case op.text == "":
		case op.typ.Kind == KindVoid:
			t.emit(op.text + ";")
		case t.isUserCall(e):
			t.emit("_ = " + op.text + ";")
		}
		return nil
	}
	_, err := t.expr(e)
	return err
}

func (t *translator) condition(e Expr) (string, error) {
	op, err := t.expr(e)
	if err != nil {
		return "", err
	}
	if !op.typ.equal(tBool) {
		return "", errorf(e.Pos(), "condition must be a boolean expression, found %s", op.typ)
	}
	return op.text, nil
}

// logical translates && and ||, keeping the right operand's side effects
// conditional.
func (t *translator) logical(e *BinaryExpr) (operand, error) {
	l, err := t.expr(e.Left)
	if err != nil {
		return operand{}, err
	}
	r, pre, err := t.captureExpr(func() (operand, error) { return t.expr(e.Right) })
	if err != nil {
		return operand{}, err
	}
	if !l.typ.equal(tBool) || !r.typ.equal(tBool) {
		return operand{}, errorf(e.Position, "operands of %s must be bool, found %s and %s", e.Op, l.typ, r.typ)
	}
	if len(pre) == 0 {
		return operand{text: paren(l.text + " " + e.Op + " " + r.text), typ: tBool}, nil
	}

	name := t.newTemp()
	t.emit(fmt.Sprintf("var %s: bool = %s;", name, l.text))
	if e.Op == "&&" {
		t.emit(fmt.Sprintf("if %s {", name))
	} else {
		t.emit(fmt.Sprintf("if !%s {", name))
	}
	t.pre = append(t.pre, indentLines(pre)...)
	t.emit(fmt.Sprintf("    %s = %s;", name, r.text))
	t.emit("}")
	return operand{text: name, typ: tBool, simple: true}, nil
}

func (t *translator) unary(e *UnaryExpr) (operand, error) {
	if e.Op == "++" || e.Op == "--" {
		lv, err := t.lval(e.Operand)
		if err != nil {
			return operand{}, err
		}
		if err := t.increment(lv, e.Op, e.Position); err != nil {
			return operand{}, err
		}
		return t.read(lv), nil
	}

	x, err := t.expr(e.Operand)
	if err != nil {
		return operand{}, err
	}
	switch e.Op {
	case "+":
		if !x.typ.isNumeric() && !x.typ.isMatrix() {
			break
		}
		return x, nil
	case "-":
		switch {
		case x.isInt:
			return intOperand(-x.ival, x.typ.Scalar), nil
		case x.isFloat:
			return floatOperand(-x.fval), nil
		case x.typ.isScalarOrVector(Uint):
			zero := intOperand(0, Uint)
			return t.binaryOp("-", zero, x, e.Position)
		case x.typ.isNumeric() || x.typ.isMatrix():
			return operand{text: paren("-" + x.text), typ: x.typ, konst: x.konst}, nil
		}
	case "!":
		if x.typ.equal(tBool) {
			return operand{text: paren("!" + x.text), typ: tBool}, nil
		}
	case "~":
		if x.typ.isScalarOrVector(Int) || x.typ.isScalarOrVector(Uint) {
			if x.isInt {
				return intOperand(^x.ival, x.typ.Scalar), nil
			}
			return operand{text: paren("~" + x.text), typ: x.typ}, nil
		}
	}
	return operand{}, errorf(e.Position, "operator %s cannot be applied to %s", e.Op, x.typ)
}

// Conversions.

// cast converts op to the scalar or vector type to, folding literals.
func (t *translator) cast(op operand, to *Type) operand {
	if op.typ.equal(to) {
		return op
	}
	if to.isScalar() && op.typ.isScalar() {
		switch {
		case op.isInt && to.Scalar == Float:
			return floatOperand(float64(op.ival))
		case op.isInt && to.Scalar == Int:
			return intOperand(int64(int32(op.ival)), Int)
		case op.isInt && to.Scalar == Uint:
			return intOperand(int64(uint32(op.ival)), Uint)
		case op.isInt && to.Scalar == Bool:
			return boolOperand(op.ival != 0)
		case op.isFloat && to.Scalar == Int:
			return intOperand(int64(int32(op.fval)), Int)
		case op.isFloat && to.Scalar == Uint && op.fval >= 0:
			return intOperand(int64(uint32(op.fval)), Uint)
		case op.isFloat && to.Scalar == Bool:
			return boolOperand(op.fval != 0)
		}
	}
	return operand{text: fmt.Sprintf("%s(%s)", to.WGSL(), op.text), typ: to, konst: op.konst && to.isVector()}
}

// convertible reports whether from converts implicitly to to.
func convertible(from, to *Type) bool {
	if from.equal(to) {
		return true
	}
	if (from.isScalar() && to.isScalar()) || (from.isVector() && to.isVector() && from.Size == to.Size) {
		return from.Scalar != Bool && to.Scalar != Bool && from.Scalar < to.Scalar
	}
	return false
}

// convert applies an implicit conversion of op to type to.
func (t *translator) convert(op operand, to *Type, pos Position) (operand, error) {
	if op.typ.equal(to) {
		return op, nil
	}
	if !convertible(op.typ, to) {
		return operand{}, errorf(pos, "cannot convert %s to %s", op.typ, to)
	}
	return t.cast(op, to), nil
}

// toFloat converts a numeric scalar or vector operand to float components.
func (t *translator) toFloat(op operand, what string, pos Position) (operand, error) {
	if !op.typ.isNumeric() {
		return operand{}, errorf(pos, "%s expects a float scalar or vector, found %s", what, op.typ)
	}
	return t.cast(op, op.typ.withScalar(Float)), nil
}

// splat widens a scalar operand to an n-component vector.
func (t *translator) splat(op operand, n int) operand {
	if n <= 1 || !op.typ.isScalar() {
		return op
	}
	vt := vectorType(op.typ.Scalar, n)
	return operand{text: fmt.Sprintf("%s(%s)", vt.WGSL(), op.text), typ: vt, konst: op.konst}
}

// unifyKinds converts both numeric operands to their common component kind.
func (t *translator) unifyKinds(l, r operand, pos Position) (operand, operand, error) {
	if !(l.typ.isScalar() || l.typ.isVector()) || !(r.typ.isScalar() || r.typ.isVector()) {
		return l, r, errorf(pos, "incompatible operand types %s and %s", l.typ, r.typ)
	}
	if l.typ.Scalar == r.typ.Scalar {
		return l, r, nil
	}
	if l.typ.Scalar == Bool || r.typ.Scalar == Bool {
		return l, r, errorf(pos, "incompatible operand types %s and %s", l.typ, r.typ)
	}
	k := l.typ.Scalar
	if r.typ.Scalar > k {
		k = r.typ.Scalar
	}
	return t.cast(l, l.typ.withScalar(k)), t.cast(r, r.typ.withScalar(k)), nil
}

// Binary operators.

func (t *translator) binaryOp(op string, l, r operand, pos Position) (operand, error) {
	switch op {
	case "^^":
		if !l.typ.equal(tBool) || !r.typ.equal(tBool) {
			return operand{}, errorf(pos, "operands of ^^ must be bool, found %s and %s", l.typ, r.typ)
		}
		return operand{text: paren(l.text + " != " + r.text), typ: tBool}, nil
	case "&&", "||":
		if !l.typ.equal(tBool) || !r.typ.equal(tBool) {
			return operand{}, errorf(pos, "operands of %s must be bool, found %s and %s", op, l.typ, r.typ)
		}
		return operand{text: paren(l.text + " " + op + " " + r.text), typ: tBool}, nil
	case "==", "!=":
		return t.equality(op, l, r, pos)
	case "<", ">", "<=", ">=":
		l, r, err := t.unifyKinds(l, r, pos)
		if err != nil {
			return operand{}, err
		}
		if !l.typ.isScalar() || !r.typ.isScalar() || l.typ.Scalar == Bool {
			return operand{}, errorf(pos, "operator %s requires numeric scalars, found %s and %s", op, l.typ, r.typ)
		}
		return operand{text: paren(l.text + " " + op + " " + r.text), typ: tBool}, nil
	case "+", "-", "*", "/", "%":
		return t.arith(op, l, r, pos)
	case "&", "|", "^":
		l, r, err := t.unifyKinds(l, r, pos)
		if err != nil {
			return operand{}, err
		}
		if l.typ.Scalar != Int && l.typ.Scalar != Uint {
			return operand{}, errorf(pos, "operator %s requires integer operands, found %s and %s", op, l.typ, r.typ)
		}
		if l.isInt && r.isInt {
			return intOperand(foldBits(op, l.ival, r.ival), l.typ.Scalar), nil
		}
		switch {
		case l.typ.isVector() && r.typ.isScalar():
			r = t.splat(r, l.typ.Size)
		case l.typ.isScalar() && r.typ.isVector():
			l = t.splat(l, r.typ.Size)
		case l.typ.Size != r.typ.Size:
			return operand{}, errorf(pos, "operator %s on mismatched vectors %s and %s", op, l.typ, r.typ)
		}
		return operand{text: paren(l.text + " " + op + " " + r.text), typ: l.typ}, nil
	case "<<", ">>":
		if !(l.typ.isScalarOrVector(Int) || l.typ.isScalarOrVector(Uint)) ||
			!(r.typ.isScalarOrVector(Int) || r.typ.isScalarOrVector(Uint)) {
			return operand{}, errorf(pos, "operator %s requires integer operands, found %s and %s", op, l.typ, r.typ)
		}
		if r.typ.isVector() && l.typ.isScalar() {
			return operand{}, errorf(pos, "cannot shift %s by %s", l.typ, r.typ)
		}
		if l.isInt && r.isInt && r.ival >= 0 && r.ival < 32 {
			v := l.ival << r.ival
			if op == ">>" {
				if l.typ.Scalar == Uint {
					v = int64(uint32(l.ival) >> r.ival)
				} else {
					v = int64(int32(l.ival) >> r.ival)
				}
			}
			return intOperand(v, l.typ.Scalar), nil
		}
		r = t.cast(r, r.typ.withScalar(Uint))
		if l.typ.isVector() {
			r = t.splat(r, l.typ.Size)
		}
		return operand{text: paren(l.text + " " + op + " " + r.text), typ: l.typ}, nil
	}
	return operand{}, errorf(pos, "unsupported operator %s", op)
}

func foldBits(op string, a, b int64) int64 {
	switch op {
	case "&":
		return a & b
	case "|":
		return a | b
	}
	return a ^ b
}

func (t *translator) equality(op string, l, r operand, pos Position) (operand, error) {
	if l.typ.isMatrix() && r.typ.isMatrix() && l.typ.equal(r.typ) {
		l, r = t.reuse(l), t.reuse(r)
		parts := make([]string, l.typ.Size)
		join, reduce := " && ", "all"
		if op == "!=" {
			join, reduce = " || ", "any"
		}
		for i := range parts {
			parts[i] = fmt.Sprintf("%s(%s[%d] %s %s[%d])", reduce, l.text, i, op, r.text, i)
		}
		return operand{text: paren(strings.Join(parts, join)), typ: tBool}, nil
	}
	if l.typ.Kind == KindStruct || l.typ.Kind == KindArray {
		return operand{}, errorf(pos, "comparison of %s values is not supported", l.typ)
	}
	l, r, err := t.unifyKinds(l, r, pos)
	if err != nil {
		return operand{}, err
	}
	if !l.typ.equal(r.typ) {
		return operand{}, errorf(pos, "cannot compare %s with %s", l.typ, r.typ)
	}
	text := paren(l.text + " " + op + " " + r.text)
	if l.typ.isVector() {
		if op == "==" {
			text = "all" + text
		} else {
			text = "any" + text
		}
	}
	return operand{text: text, typ: tBool}, nil
}

func (t *translator) arith(op string, l, r operand, pos Position) (operand, error) {
	if l.typ.isMatrix() || r.typ.isMatrix() {
		return t.matrixArith(op, l, r, pos)
	}
	l, r, err := t.unifyKinds(l, r, pos)
	if err != nil {
		return operand{}, err
	}
	k := l.typ.Scalar
	if k == Bool {
		return operand{}, errorf(pos, "operator %s cannot be applied to %s", op, l.typ)
	}
	if op == "%" && k == Float {
		return operand{}, errorf(pos, "operator %% requires integer operands; use mod() for floats")
	}
	if l.typ.isVector() && r.typ.isVector() && l.typ.Size != r.typ.Size {
		return operand{}, errorf(pos, "operator %s on mismatched vectors %s and %s", op, l.typ, r.typ)
	}

	if folded, ok := foldArith(op, l, r); ok {
		return folded, nil
	}
	typ := l.typ
	if r.typ.isVector() {
		typ = r.typ
	}
	return operand{text: paren(l.text + " " + op + " " + r.text), typ: typ}, nil
}

func foldArith(op string, l, r operand) (operand, bool) {
	switch {
	case l.isInt && r.isInt:
		a, b := l.ival, r.ival
		var v int64
		switch op {
		case "+":
			v = a + b
		case "-":
			v = a - b
		case "*":
			v = a * b
		case "/", "%":
			if b == 0 {
				return operand{}, false
			}
			if l.typ.Scalar == Uint {
				ua, ub := uint32(a), uint32(b)
				if op == "/" {
					v = int64(ua / ub)
				} else {
					v = int64(ua % ub)
				}
			} else {
				ia, ib := int32(a), int32(b)
				if ib == -1 {
					return operand{}, false
				}
				if op == "/" {
					v = int64(ia / ib)
				} else {
					v = int64(ia % ib)
				}
			}
		}
		if l.typ.Scalar == Uint {
			v = int64(uint32(v))
		} else {
			v = int64(int32(v))
		}
		return intOperand(v, l.typ.Scalar), true
	case l.isFloat && r.isFloat:
		a, b := l.fval, r.fval
		var v float64
		switch op {
		case "+":
			v = a + b
		case "-":
			v = a - b
		case "*":
			v = a * b
		case "/":
			if b == 0 {
				return operand{}, false
			}
			v = a / b
		}
		if math.IsInf(float64(float32(v)), 0) {
			return operand{}, false
		}
		return floatOperand(v), true
	}
	return operand{}, false
}

func (t *translator) matrixArith(op string, l, r operand, pos Position) (operand, error) {
	fail := func() (operand, error) {
		return operand{}, errorf(pos, "operator %s cannot be applied to %s and %s", op, l.typ, r.typ)
	}
	switch {
	case l.typ.isMatrix() && r.typ.isMatrix():
		switch op {
		case "*":
			if l.typ.Size != r.typ.Rows {
				return fail()
			}
			return operand{text: paren(l.text + " * " + r.text), typ: matrixType(r.typ.Size, l.typ.Rows)}, nil
		case "+", "-":
			if !l.typ.equal(r.typ) {
				return fail()
			}
			return operand{text: paren(l.text + " " + op + " " + r.text), typ: l.typ}, nil
		case "/":
			if !l.typ.equal(r.typ) {
				return fail()
			}
			return t.columnwise(op, l, r), nil
		}
	case l.typ.isMatrix() && r.typ.isVector():
		if op != "*" || r.typ.Size != l.typ.Size || r.typ.Scalar == Bool {
			return fail()
		}
		r = t.cast(r, r.typ.withScalar(Float))
		return operand{text: paren(l.text + " * " + r.text), typ: vectorType(Float, l.typ.Rows)}, nil
	case l.typ.isVector() && r.typ.isMatrix():
		if op != "*" || l.typ.Size != r.typ.Rows || l.typ.Scalar == Bool {
			return fail()
		}
		l = t.cast(l, l.typ.withScalar(Float))
		return operand{text: paren(l.text + " * " + r.text), typ: vectorType(Float, r.typ.Size)}, nil
	case l.typ.isMatrix() && r.typ.isScalar():
		if r.typ.Scalar == Bool {
			return fail()
		}
		r = t.cast(r, tFloat)
		switch op {
		case "*":
			return operand{text: paren(l.text + " * " + r.text), typ: l.typ}, nil
		case "/":
			return operand{text: fmt.Sprintf("(%s * (1.0 / %s))", l.text, r.text), typ: l.typ}, nil
		case "+", "-":
			return t.columnwise(op, l, r), nil
		}
	case l.typ.isScalar() && r.typ.isMatrix():
		if l.typ.Scalar == Bool {
			return fail()
		}
		l = t.cast(l, tFloat)
		switch op {
		case "*":
			return operand{text: paren(l.text + " * " + r.text), typ: r.typ}, nil
		case "+", "-", "/":
			return t.columnwise(op, l, r), nil
		}
	}
	return fail()
}

// columnwise applies op to each column of the matrix operands.
func (t *translator) columnwise(op string, l, r operand) operand {
	l, r = t.reuse(l), t.reuse(r)
	m := l.typ
	if !m.isMatrix() {
		m = r.typ
	}
	cols := make([]string, m.Size)
	for i := range cols {
		a, b := l.text, r.text
		if l.typ.isMatrix() {
			a = fmt.Sprintf("%s[%d]", l.text, i)
		}
		if r.typ.isMatrix() {
			b = fmt.Sprintf("%s[%d]", r.text, i)
		}
		cols[i] = fmt.Sprintf("(%s %s %s)", a, op, b)
	}
	return operand{text: fmt.Sprintf("%s(%s)", m.WGSL(), strings.Join(cols, ", ")), typ: m}
}

func (t *translator) ternary(e *TernaryExpr) (operand, error) {
	cond, err := t.condition(e.Cond)
	if err != nil {
		return operand{}, err
	}
	a, apre, err := t.captureExpr(func() (operand, error) { return t.expr(e.Then) })
	if err != nil {
		return operand{}, err
	}
	b, bpre, err := t.captureExpr(func() (operand, error) { return t.expr(e.Else) })
	if err != nil {
		return operand{}, err
	}

	typ := a.typ
	switch {
	case a.typ.equal(b.typ):
	case convertible(a.typ, b.typ):
		typ = b.typ
		a = t.cast(a, typ)
	case convertible(b.typ, a.typ):
		b = t.cast(b, typ)
	default:
		return operand{}, errorf(e.Position, "branches of ?: have different types %s and %s", a.typ, b.typ)
	}
	if typ.Kind == KindVoid || typ.Kind == KindTexture || typ.Kind == KindSampler {
		return operand{}, errorf(e.Position, "?: cannot produce %s", typ)
	}

	if len(apre) == 0 && len(bpre) == 0 && (typ.isScalar() || typ.isVector()) {
		return operand{text: fmt.Sprintf("select(%s, %s, %s)", b.text, a.text, cond), typ: typ}, nil
	}
	name := t.newTemp()
	t.emit(fmt.Sprintf("var %s: %s;", name, typ.WGSL()))
	t.emit(fmt.Sprintf("if %s {", cond))
	t.pre = append(t.pre, indentLines(apre)...)
	t.emit(fmt.Sprintf("    %s = %s;", name, a.text))
	t.emit("} else {")
	t.pre = append(t.pre, indentLines(bpre)...)
	t.emit(fmt.Sprintf("    %s = %s;", name, b.text))
	t.emit("}")
	return operand{text: name, typ: typ, simple: true}, nil
}

// Indexing and member access.

func elementType(base *Type) (*Type, int, bool) {
	switch base.Kind {
	case KindVector:
		return scalarType(base.Scalar), base.Size, true
	case KindMatrix:
		return base.column(), base.Size, true
	case KindArray:
		return base.Elem, base.Len, true
	}
	return nil, 0, false
}

func (t *translator) indexOperand(e Expr, length int) (operand, error) {
	idx, err := t.expr(e)
	if err != nil {
		return operand{}, err
	}
	if !idx.typ.equal(tInt) && !idx.typ.equal(tUint) {
		return operand{}, errorf(e.Pos(), "array index must be an integer scalar, found %s", idx.typ)
	}
	if idx.isInt && (idx.ival < 0 || idx.ival >= int64(length)) {
		return operand{}, errorf(e.Pos(), "index %d is out of range for length %d", idx.ival, length)
	}
	return idx, nil
}

func (t *translator) index(e *IndexExpr) (operand, error) {
	base, err := t.expr(e.Base)
	if err != nil {
		return operand{}, err
	}
	elem, n, ok := elementType(base.typ)
	if !ok {
		return operand{}, errorf(e.Position, "cannot index a value of type %s", base.typ)
	}
	idx, err := t.indexOperand(e.Index, n)
	if err != nil {
		return operand{}, err
	}
	return operand{
		text:   fmt.Sprintf("%s[%s]", base.text, idx.text),
		typ:    elem,
		simple: base.simple && idx.simple,
	}, nil
}

var swizzleSets = [...]string{"xyzw", "rgba", "stpq"}

// parseSwizzle returns the component indices named by a swizzle.
func parseSwizzle(s string, width int) ([]int, bool) {
	if len(s) == 0 || len(s) > 4 {
		return nil, false
	}
	for _, set := range swizzleSets {
		if !strings.ContainsRune(set, rune(s[0])) {
			continue
		}
		out := make([]int, len(s))
		for i := 0; i < len(s); i++ {
			c := strings.IndexByte(set, s[i])
			if c < 0 || c >= width {
				return nil, false
			}
			out[i] = c
		}
		return out, true
	}
	return nil, false
}

func swizzleText(idx []int) string {
	var sb strings.Builder
	for _, c := range idx {
		sb.WriteByte("xyzw"[c])
	}
	return sb.String()
}

func (t *translator) field(base operand, name string, pos Position) (operand, error) {
	switch {
	case base.typ.Kind == KindStruct:
		f, ok := base.typ.Struct.field(name)
		if !ok {
			return operand{}, errorf(pos, "%s has no member %s", base.typ, name)
		}
		return operand{text: base.text + "." + f.wgsl, typ: f.typ, simple: base.simple}, nil
	case base.typ.isScalar() || base.typ.isVector():
		idx, ok := parseSwizzle(name, base.typ.width())
		if !ok {
			return operand{}, errorf(pos, "invalid swizzle .%s on %s", name, base.typ)
		}
		typ := vectorType(base.typ.Scalar, len(idx))
		if base.typ.isScalar() {
			if len(idx) == 1 {
				return base, nil
			}
			return t.splat(base, len(idx)), nil
		}
		return operand{text: base.text + "." + swizzleText(idx), typ: typ, simple: base.simple}, nil
	}
	return operand{}, errorf(pos, "cannot access .%s on %s", name, base.typ)
}

// Assignment.

// lvalue is an assignable location.
type lvalue struct {
	text    string // reference to the storage
	typ     *Type  // type of the assigned value
	swizzle []int  // components of text written, if any
	sym     *symbol
	whole   bool // the lvalue is the entire variable
}

func (t *translator) lval(e Expr) (lvalue, error) {
	switch e := e.(type) {
	case *Ident:
		sym := t.lookup(e.Name)
		if sym == nil {
			return lvalue{}, errorf(e.Position, "undeclared identifier %s", e.Name)
		}
		if !sym.mutable() {
			return lvalue{}, errorf(e.Position, "cannot assign to %s", e.Name)
		}
		return lvalue{text: sym.wgsl, typ: sym.typ, sym: sym, whole: true}, nil
	case *IndexExpr:
		base, err := t.lval(e.Base)
		if err != nil {
			return lvalue{}, err
		}
		if base.swizzle != nil {
			return lvalue{}, errorf(e.Position, "cannot index into a swizzle")
		}
		elem, n, ok := elementType(base.typ)
		if !ok {
			return lvalue{}, errorf(e.Position, "cannot index a value of type %s", base.typ)
		}
		idx, err := t.indexOperand(e.Index, n)
		if err != nil {
			return lvalue{}, err
		}
		if !idx.simple {
			idx = t.letTemp(idx)
		}
		return lvalue{text: fmt.Sprintf("%s[%s]", base.text, idx.text), typ: elem, sym: base.sym}, nil
	case *FieldExpr:
		base, err := t.lval(e.Base)
		if err != nil {
			return lvalue{}, err
		}
		if base.typ.Kind == KindStruct && base.swizzle == nil {
			f, ok := base.typ.Struct.field(e.Field)
			if !ok {
				return lvalue{}, errorf(e.Position, "%s has no member %s", base.typ, e.Field)
			}
			return lvalue{text: base.text + "." + f.wgsl, typ: f.typ, sym: base.sym}, nil
		}
		if !base.typ.isVector() {
			return lvalue{}, errorf(e.Position, "cannot assign to .%s of %s", e.Field, base.typ)
		}
		idx, ok := parseSwizzle(e.Field, base.typ.width())
		if !ok {
			return lvalue{}, errorf(e.Position, "invalid swizzle .%s on %s", e.Field, base.typ)
		}
		if base.swizzle != nil {
			composed := make([]int, len(idx))
			for i, c := range idx {
				composed[i] = base.swizzle[c]
			}
			idx = composed
		}
		seen := make(map[int]bool)
		for _, c := range idx {
			if seen[c] {
				return lvalue{}, errorf(e.Position, "swizzle .%s repeats a component and cannot be assigned", e.Field)
			}
			seen[c] = true
		}
		return lvalue{text: base.text, typ: vectorType(base.typ.Scalar, len(idx)), swizzle: idx, sym: base.sym}, nil
	}
	return lvalue{}, errorf(e.Pos(), "expression is not assignable")
}

func (t *translator) read(lv lvalue) operand {
	text := lv.text
	if lv.swizzle != nil {
		text += "." + swizzleText(lv.swizzle)
	}
	return operand{text: text, typ: lv.typ, simple: true}
}

func (t *translator) store(lv lvalue, value operand, pos Position) error {
	value, err := t.convert(value, lv.typ, pos)
	if err != nil {
		return err
	}
	switch len(lv.swizzle) {
	case 0:
		t.emit(fmt.Sprintf("%s = %s;", lv.text, value.text))
	case 1:
		t.emit(fmt.Sprintf("%s.%s = %s;", lv.text, swizzleText(lv.swizzle), value.text))
	default:
		// Multi-component swizzles are not assignable; store each component.
		value = t.reuse(value)
		for i, c := range lv.swizzle {
			t.emit(fmt.Sprintf("%s.%s = %s.%s;", lv.text, swizzleText([]int{c}), value.text, swizzleText([]int{i})))
		}
	}
	return nil
}

func (t *translator) assign(e *AssignExpr) (lvalue, error) {
	lv, err := t.lval(e.Left)
	if err != nil {
		return lvalue{}, err
	}
	rhs, err := t.expr(e.Right)
	if err != nil {
		return lvalue{}, err
	}
	if e.Op != "=" {
		rhs, err = t.binaryOp(strings.TrimSuffix(e.Op, "="), t.read(lv), rhs, e.Position)
		if err != nil {
			return lvalue{}, err
		}
	}
	return lv, t.store(lv, rhs, e.Position)
}

func (t *translator) increment(lv lvalue, op string, pos Position) error {
	var one operand
	switch {
	case lv.typ.isScalarOrVector(Int):
		one = intOperand(1, Int)
	case lv.typ.isScalarOrVector(Uint):
		one = intOperand(1, Uint)
	case lv.typ.isScalarOrVector(Float), lv.typ.isMatrix():
		one = floatOperand(1)
	default:
		return errorf(pos, "operator %s cannot be applied to %s", op, lv.typ)
	}
	next, err := t.binaryOp(op[:1], t.read(lv), one, pos)
	if err != nil {
		return err
	}
	return t.store(lv, next, pos)
}

// Constant integer expressions.

func (t *translator) constInt(e Expr) (int64, error) {
	switch e := e.(type) {
	case *IntLit:
		if e.Unsigned {
			return int64(e.Value), nil
		}
		return int64(int32(uint32(e.Value))), nil
	case *BoolLit:
		if e.Value {
			return 1, nil
		}
		return 0, nil
	case *Ident:
		if sym := t.lookup(e.Name); sym != nil && sym.value != nil {
			return *sym.value, nil
		}
	case *UnaryExpr:
		v, err := t.constInt(e.Operand)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case "-":
			return -v, nil
		case "+":
			return v, nil
		case "~":
			return ^v, nil
		case "!":
			return boolInt(v == 0), nil
		}
	case *BinaryExpr:
		a, err := t.constInt(e.Left)
		if err != nil {
			return 0, err
		}
		b, err := t.constInt(e.Right)
		if err != nil {
			return 0, err
		}
		v, err := applyCondOp(Token{Kind: TokenOperator, Lexeme: e.Op, Line: e.Line, Column: e.Column}, a, b)
		if err != nil {
			return 0, err
		}
		return v, nil
	case *CallExpr:
		if (e.Callee == "int" || e.Callee == "uint") && e.Type != nil && !e.Type.Array && len(e.Args) == 1 {
			return t.constInt(e.Args[0])
		}
		if e.Callee == ".length" && len(e.Args) == 1 {
			if id, ok := e.Args[0].(*Ident); ok {
				if sym := t.lookup(id.Name); sym != nil && sym.typ.Kind == KindArray {
					return int64(sym.typ.Len), nil
				}
			}
		}
	}
	return 0, errorf(e.Pos(), "expected an integral constant expression")
}
