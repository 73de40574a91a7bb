// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"
)

// flush writes pending lines to the current function.
func (t *translator) flush() {
	for _, line := range t.pre {
		t.w.writeRaw(line)
	}
	t.pre = nil
}

func (t *translator) pushScope() {
	t.scope = newScope(t.scope)
}

func (t *translator) popScope() {
	t.scope = t.scope.parent
}

// body emits s inside an already opened WGSL block.
func (t *translator) body(s Stmt) error {
	t.pushScope()
	defer t.popScope()
	t.w.pushIndent()
	defer t.w.popIndent()
	if b, ok := s.(*BlockStmt); ok {
		return t.stmts(b.Stmts)
	}
	return t.stmt(s)
}

func (t *translator) stmts(list []Stmt) error {
	for _, s := range list {
		if err := t.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

// captureLines runs f against a scratch writer and returns what it wrote.
func (t *translator) captureLines(f func() error) ([]string, error) {
	saved := t.w
	scratch := &writer{}
	t.w = scratch
	err := f()
	t.flush()
	t.w = saved
	text := strings.TrimSuffix(scratch.String(), "\n")
	if text == "" {
		return nil, err
	}
	return strings.Split(text, "\n"), err
}

func (t *translator) stmt(s Stmt) error {
	switch s := s.(type) {
	case *BlockStmt:
		t.w.writeLine("{")
		if err := t.body(s); err != nil {
			return err
		}
		t.w.writeLine("}")
	case *DeclStmt:
		return t.localDecl(s)
	case *ExprStmt:
		if err := t.effect(s.X); err != nil {
			return err
		}
		t.flush()
	case *IfStmt:
		return t.ifStmt(s)
	case *ForStmt:
		return t.forStmt(s)
	case *WhileStmt:
		return t.whileStmt(s)
	case *DoStmt:
		return t.doStmt(s)
	case *SwitchStmt:
		return t.switchStmt(s)
	case *CaseStmt:
		return errorf(s.Position, "case label outside of switch")
	case *BranchStmt:
		t.w.writeLine("%s;", s.Keyword)
	case *ReturnStmt:
		return t.returnStmt(s)
	case *EmptyStmt:
	default:
		return fmt.Errorf("unexpected statement %T", s)
	}
	return nil
}

func (t *translator) localDecl(s *DeclStmt) error {
	if s.Struct != nil {
		if _, err := t.declareStruct(s.Struct); err != nil {
			return err
		}
		if s.Struct.Vars == nil {
			return nil
		}
		return t.localVars(s.Struct.Vars)
	}
	return t.localVars(s.Var)
}

func (t *translator) localVars(vd *VarDecl) error {
	isConst := false
	switch vd.Quals.Storage {
	case "":
	case "const":
		isConst = true
	default:
		return errorf(vd.Position, "storage qualifier '%s' is not allowed on local variables", vd.Quals.Storage)
	}

	for i := range vd.Vars {
		d := &vd.Vars[i]
		typ, err := t.resolveType(vd.Type, d)
		if err != nil {
			return err
		}
		switch typ.Kind {
		case KindVoid, KindTexture, KindSampler:
			return errorf(d.Position, "local variable %s cannot have type %s", d.Name, typ)
		}
		if _, dup := t.scope.syms[d.Name]; dup {
			return errorf(d.Position, "redefinition of %s", d.Name)
		}
		name := escapeFunctionName(d.Name)
		sym := &symbol{name: d.Name, wgsl: name, typ: typ, kind: symLocal}

		if d.Init == nil {
			if isConst {
				return errorf(d.Position, "const %s requires an initializer", d.Name)
			}
			if typ.Kind == KindArray && typ.Len == 0 {
				return errorf(d.Position, "array %s needs an explicit size", d.Name)
			}
			t.w.writeLine("var %s: %s;", name, typ.WGSL())
			t.scope.syms[d.Name] = sym
			continue
		}

		init, err := t.initializer(typ, d.Init)
		if err != nil {
			return err
		}
		t.flush()
		sym.typ = init.typ
		keyword := "var"
		if isConst && init.typ.Kind != KindArray {
			keyword = "let"
			sym.kind = symLet
			if v, err := t.constInt(d.Init); err == nil {
				sym.value = &v
			}
			if init.isInt || init.isFloat {
				lit := init
				sym.lit = &lit
			}
		}
		t.w.writeLine("%s %s: %s = %s;", keyword, name, init.typ.WGSL(), init.text)
		t.scope.syms[d.Name] = sym
	}
	return nil
}

func (t *translator) ifStmt(s *IfStmt) error {
	cond, err := t.condition(s.Cond)
	if err != nil {
		return err
	}
	t.flush()
	t.w.writeLine("if %s {", cond)
	if err := t.body(s.Then); err != nil {
		return err
	}
	for s.Else != nil {
		if elif, ok := s.Else.(*IfStmt); ok {
			c, pre, err := t.captureExpr(func() (operand, error) {
				text, err := t.condition(elif.Cond)
				return operand{text: text}, err
			})
			if err != nil {
				return err
			}
			if len(pre) == 0 {
				t.w.writeLine("} else if %s {", c.text)
				if err := t.body(elif.Then); err != nil {
					return err
				}
				s = elif
				continue
			}
		}
		t.w.writeLine("} else {")
		if err := t.body(s.Else); err != nil {
			return err
		}
		break
	}
	t.w.writeLine("}")
	return nil
}

// singleLine reports whether lines can be used inside a for header.
func singleLine(lines []string) (string, bool) {
	switch len(lines) {
	case 0:
		return "", true
	case 1:
		l := lines[0]
		if strings.HasPrefix(l, "let ") || strings.HasPrefix(l, "_ =") || strings.HasPrefix(l, " ") {
			return "", false
		}
		return strings.TrimSuffix(l, ";"), true
	}
	return "", false
}

func (t *translator) forStmt(s *ForStmt) error {
	t.pushScope()
	defer t.popScope()

	var initLines []string
	if s.Init != nil {
		lines, err := t.captureLines(func() error { return t.stmt(s.Init) })
		if err != nil {
			return err
		}
		initLines = lines
	}
	var cond string
	var condPre []string
	if s.Cond != nil {
		op, pre, err := t.captureExpr(func() (operand, error) {
			text, err := t.condition(s.Cond)
			return operand{text: text}, err
		})
		if err != nil {
			return err
		}
		cond, condPre = op.text, pre
	}
	var postLines []string
	if s.Post != nil {
		lines, err := t.captureLines(func() error { return t.effect(s.Post) })
		if err != nil {
			return err
		}
		postLines = lines
	}

	init, initOK := singleLine(initLines)
	post, postOK := singleLine(postLines)
	if initOK && postOK && len(condPre) == 0 {
		t.w.writeLine("for (%s; %s; %s) {", init, cond, post)
		if err := t.body(s.Body); err != nil {
			return err
		}
		t.w.writeLine("}")
		return nil
	}

	t.w.writeLine("{")
	t.w.pushIndent()
	for _, l := range initLines {
		t.w.writeRaw(l)
	}
	t.w.writeLine("loop {")
	t.w.pushIndent()
	if s.Cond != nil {
		for _, l := range condPre {
			t.w.writeRaw(l)
		}
		t.w.writeLine("if !%s {", paren(cond))
		t.w.writeLine("    break;")
		t.w.writeLine("}")
	}
	t.w.popIndent()
	if err := t.body(s.Body); err != nil {
		return err
	}
	t.w.pushIndent()
	if len(postLines) > 0 {
		t.w.writeLine("continuing {")
		t.w.pushIndent()
		for _, l := range postLines {
			t.w.writeRaw(l)
		}
		t.w.popIndent()
		t.w.writeLine("}")
	}
	t.w.popIndent()
	t.w.writeLine("}")
	t.w.popIndent()
	t.w.writeLine("}")
	return nil
}

func (t *translator) whileStmt(s *WhileStmt) error {
	op, pre, err := t.captureExpr(func() (operand, error) {
		text, err := t.condition(s.Cond)
		return operand{text: text}, err
	})
	if err != nil {
		return err
	}
	if len(pre) == 0 {
		t.w.writeLine("while %s {", op.text)
		if err := t.body(s.Body); err != nil {
			return err
		}
		t.w.writeLine("}")
		return nil
	}
	t.w.writeLine("loop {")
	t.w.pushIndent()
	for _, l := range pre {
		t.w.writeRaw(l)
	}
	t.w.writeLine("if !%s {", paren(op.text))
	t.w.writeLine("    break;")
	t.w.writeLine("}")
	t.w.popIndent()
	if err := t.body(s.Body); err != nil {
		return err
	}
	t.w.writeLine("}")
	return nil
}

func (t *translator) doStmt(s *DoStmt) error {
	t.w.writeLine("loop {")
	if err := t.body(s.Body); err != nil {
		return err
	}
	op, pre, err := t.captureExpr(func() (operand, error) {
		text, err := t.condition(s.Cond)
		return operand{text: text}, err
	})
	if err != nil {
		return err
	}
	t.w.pushIndent()
	t.w.writeLine("continuing {")
	t.w.pushIndent()
	for _, l := range pre {
		t.w.writeRaw(l)
	}
	t.w.writeLine("break if !%s;", paren(op.text))
	t.w.popIndent()
	t.w.writeLine("}")
	t.w.popIndent()
	t.w.writeLine("}")
	return nil
}

type switchClause struct {
	labels []string
	body   []Stmt
	pos    Position
}

// terminates reports whether s always leaves the enclosing case.
func terminates(s Stmt) bool {
	switch s := s.(type) {
	case *BranchStmt:
		return true
	case *ReturnStmt:
		return true
	case *BlockStmt:
		return len(s.Stmts) > 0 && terminates(s.Stmts[len(s.Stmts)-1])
	}
	return false
}

func (t *translator) switchStmt(s *SwitchStmt) error {
	sel, err := t.expr(s.Tag)
	if err != nil {
		return err
	}
	if !sel.typ.equal(tInt) && !sel.typ.equal(tUint) {
		return errorf(s.Tag.Pos(), "switch selector must be an integer scalar, found %s", sel.typ)
	}
	unsigned := sel.typ.Scalar == Uint

	var clauses []*switchClause
	seen := make(map[int64]bool)
	hasDefault := false
	for _, st := range s.Body {
		c, isCase := st.(*CaseStmt)
		if !isCase {
			if len(clauses) == 0 {
				return errorf(st.Pos(), "statement before the first case label")
			}
			cur := clauses[len(clauses)-1]
			cur.body = append(cur.body, st)
			continue
		}
		label := "default"
		if c.Value != nil {
			v, err := t.constInt(c.Value)
			if err != nil {
				return err
			}
			if unsigned {
				v = int64(uint32(v))
			} else {
				v = int64(int32(v))
			}
			if seen[v] {
				return errorf(c.Position, "duplicate case value %d", v)
			}
			seen[v] = true
			label = intText(v, unsigned)
		} else {
			if hasDefault {
				return errorf(c.Position, "multiple default labels in one switch")
			}
			hasDefault = true
		}
		if n := len(clauses); n > 0 && len(clauses[n-1].body) == 0 {
			clauses[n-1].labels = append(clauses[n-1].labels, label)
			continue
		}
		if n := len(clauses); n > 0 {
			prev := clauses[n-1]
			if !terminates(prev.body[len(prev.body)-1]) {
				return errorf(c.Position, "fallthrough into case is not supported")
			}
		}
		clauses = append(clauses, &switchClause{labels: []string{label}, pos: c.Position})
	}

	t.flush()
	t.w.writeLine("switch %s {", sel.text)
	t.w.pushIndent()
	for _, c := range clauses {
		body := c.body
		if n := len(body); n > 0 {
			if b, ok := body[n-1].(*BranchStmt); ok && b.Keyword == "break" {
				body = body[:n-1]
			}
		}
		if len(c.labels) == 1 && c.labels[0] == "default" {
			t.w.writeLine("default: {")
		} else {
			t.w.writeLine("case %s: {", strings.Join(c.labels, ", "))
		}
		if err := t.body(&BlockStmt{Stmts: body, Position: c.pos}); err != nil {
			return err
		}
		t.w.writeLine("}")
	}
	if !hasDefault {
		t.w.writeLine("default: {}")
	}
	t.w.popIndent()
	t.w.writeLine("}")
	return nil
}

func (t *translator) returnStmt(s *ReturnStmt) error {
	ret := t.fn.ret
	if s.Value == nil {
		if ret.Kind != KindVoid {
			return errorf(s.Position, "%s must return a value", t.fn.glsl)
		}
		t.w.writeLine("return;")
		return nil
	}
	if ret.Kind == KindVoid {
		return errorf(s.Position, "void function %s cannot return a value", t.fn.glsl)
	}
	op, err := t.expr(s.Value)
	if err != nil {
		return err
	}
	op, err = t.convert(op, ret, s.Value.Pos())
	if err != nil {
		return err
	}
	t.flush()
	t.w.writeLine("return %s;", op.text)
	return nil
}

// assignedNames collects the names written by assignments, increments or
// passed to user functions anywhere in a function body.
func assignedNames(body *BlockStmt) map[string]bool {
	names := make(map[string]bool)
	mark := func(e Expr) {
		for {
			switch x := e.(type) {
			case *Ident:
				names[x.Name] = true
				return
			case *IndexExpr:
				e = x.Base
			case *FieldExpr:
				e = x.Base
			default:
				return
			}
		}
	}
	var visitExpr func(e Expr)
	visitExpr = func(e Expr) {
		switch x := e.(type) {
		case *AssignExpr:
			mark(x.Left)
			visitExpr(x.Left)
			visitExpr(x.Right)
		case *UnaryExpr:
			if x.Op == "++" || x.Op == "--" {
				mark(x.Operand)
			}
			visitExpr(x.Operand)
		case *PostfixExpr:
			mark(x.Operand)
			visitExpr(x.Operand)
		case *BinaryExpr:
			visitExpr(x.Left)
			visitExpr(x.Right)
		case *TernaryExpr:
			visitExpr(x.Cond)
			visitExpr(x.Then)
			visitExpr(x.Else)
		case *CallExpr:
			for _, a := range x.Args {
				if x.Type == nil {
					mark(a)
				}
				visitExpr(a)
			}
		case *IndexExpr:
			visitExpr(x.Base)
			visitExpr(x.Index)
		case *FieldExpr:
			visitExpr(x.Base)
		case *CommaExpr:
			visitExpr(x.Left)
			visitExpr(x.Right)
		}
	}
	var visitStmt func(s Stmt)
	visitStmt = func(s Stmt) {
		switch x := s.(type) {
		case *BlockStmt:
			for _, st := range x.Stmts {
				visitStmt(st)
			}
		case *DeclStmt:
			vd := x.Var
			if x.Struct != nil {
				vd = x.Struct.Vars
			}
			if vd != nil {
				for _, d := range vd.Vars {
					if d.Init != nil {
						visitExpr(d.Init)
					}
				}
			}
		case *ExprStmt:
			visitExpr(x.X)
		case *IfStmt:
			visitExpr(x.Cond)
			visitStmt(x.Then)
			if x.Else != nil {
				visitStmt(x.Else)
			}
		case *ForStmt:
			if x.Init != nil {
				visitStmt(x.Init)
			}
			if x.Cond != nil {
				visitExpr(x.Cond)
			}
			if x.Post != nil {
				visitExpr(x.Post)
			}
			visitStmt(x.Body)
		case *WhileStmt:
			visitExpr(x.Cond)
			visitStmt(x.Body)
		case *DoStmt:
			visitStmt(x.Body)
			visitExpr(x.Cond)
		case *SwitchStmt:
			visitExpr(x.Tag)
			for _, st := range x.Body {
				visitStmt(st)
			}
		case *ReturnStmt:
			if x.Value != nil {
				visitExpr(x.Value)
			}
		}
	}
	visitStmt(body)
	return names
}
