// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

// Pos returns the position itself so that nodes embedding Position
// satisfy Node.
func (p Position) Pos() Position { return p }

// Node is any syntax tree node.
type Node interface {
	Pos() Position
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is a translation-unit level declaration.
type Decl interface {
	Node
	declNode()
}

// TranslationUnit is a parsed shader.
type TranslationUnit struct {
	Version int
	Decls   []Decl
}

// TypeSpec names a type as written, with an optional array suffix.
type TypeSpec struct {
	Name      string
	Array     bool
	ArraySize Expr // nil for an implicitly sized array
	Position
}

// Expressions.

type (
	// Ident is a name reference.
	Ident struct {
		Name string
		Position
	}

	// IntLit is an integer literal. Text is the lexeme without suffix.
	IntLit struct {
		Text     string
		Value    uint64
		Unsigned bool
		Position
	}

	// FloatLit is a floating point literal. Text is the lexeme without suffix.
	FloatLit struct {
		Text  string
		Value float64
		Position
	}

	BoolLit struct {
		Value bool
		Position
	}

	BinaryExpr struct {
		Op          string
		Left, Right Expr
		Position
	}

	// UnaryExpr is a prefix operator: + - ! ~ ++ --.
	UnaryExpr struct {
		Op      string
		Operand Expr
		Position
	}

	// PostfixExpr is x++ or x--.
	PostfixExpr struct {
		Op      string
		Operand Expr
		Position
	}

	AssignExpr struct {
		Op          string // =, +=, -=, ...
		Left, Right Expr
		Position
	}

	TernaryExpr struct {
		Cond, Then, Else Expr
		Position
	}

	// CallExpr is a function call or, when Type is set, a constructor.
	CallExpr struct {
		Callee string
		Type   *TypeSpec
		Args   []Expr
		Position
	}

	IndexExpr struct {
		Base, Index Expr
		Position
	}

	// FieldExpr is a struct member access or a swizzle.
	FieldExpr struct {
		Base  Expr
		Field string
		Position
	}

	CommaExpr struct {
		Left, Right Expr
		Position
	}
)

func (*Ident) exprNode()       {}
func (*IntLit) exprNode()      {}
func (*FloatLit) exprNode()    {}
func (*BoolLit) exprNode()     {}
func (*BinaryExpr) exprNode()  {}
func (*UnaryExpr) exprNode()   {}
func (*PostfixExpr) exprNode() {}
func (*AssignExpr) exprNode()  {}
func (*TernaryExpr) exprNode() {}
func (*CallExpr) exprNode()    {}
func (*IndexExpr) exprNode()   {}
func (*FieldExpr) exprNode()   {}
func (*CommaExpr) exprNode()   {}

// Statements.

type (
	BlockStmt struct {
		Stmts []Stmt
		Position
	}

	// DeclStmt declares local variables, or a local struct when Struct is set.
	DeclStmt struct {
		Var    *VarDecl
		Struct *StructDecl
		Position
	}

	ExprStmt struct {
		X Expr
		Position
	}

	IfStmt struct {
		Cond Expr
		Then Stmt
		Else Stmt
		Position
	}

	ForStmt struct {
		Init Stmt // DeclStmt, ExprStmt or nil
		Cond Expr
		Post Expr
		Body Stmt
		Position
	}

	WhileStmt struct {
		Cond Expr
		Body Stmt
		Position
	}

	DoStmt struct {
		Body Stmt
		Cond Expr
		Position
	}

	// SwitchStmt keeps its body flat; CaseStmt entries mark the labels.
	SwitchStmt struct {
		Tag  Expr
		Body []Stmt
		Position
	}

	// CaseStmt is a case label, or default when Value is nil.
	CaseStmt struct {
		Value Expr
		Position
	}

	// BranchStmt is break, continue or discard.
	BranchStmt struct {
		Keyword string
		Position
	}

	ReturnStmt struct {
		Value Expr
		Position
	}

	EmptyStmt struct {
		Position
	}
)

func (*BlockStmt) stmtNode()  {}
func (*DeclStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()   {}
func (*IfStmt) stmtNode()     {}
func (*ForStmt) stmtNode()    {}
func (*WhileStmt) stmtNode()  {}
func (*DoStmt) stmtNode()     {}
func (*SwitchStmt) stmtNode() {}
func (*CaseStmt) stmtNode()   {}
func (*BranchStmt) stmtNode() {}
func (*ReturnStmt) stmtNode() {}
func (*EmptyStmt) stmtNode()  {}

// Declarations.

// LayoutQualifier is one entry of layout(...). Value is nil for bare names.
type LayoutQualifier struct {
	Name  string
	Value Expr
	Position
}

// Qualifiers collects the qualifiers written before a type.
type Qualifiers struct {
	Storage   string // const, in, out, inout, uniform, buffer, shared
	Layout    []LayoutQualifier
	Interp    string // flat, smooth, noperspective
	Precision string
	Invariant bool
	Memory    []string // readonly, writeonly, coherent, volatile, restrict
}

// Declarator is one name in a declaration list.
type Declarator struct {
	Name      string
	Array     bool
	ArraySize Expr
	Init      Expr
	Position
}

type (
	VarDecl struct {
		Quals Qualifiers
		Type  TypeSpec
		Vars  []Declarator
		Position
	}

	// BlockDecl is a uniform or buffer interface block.
	BlockDecl struct {
		Quals    Qualifiers
		Name     string
		Members  []*VarDecl
		Instance string // empty for an anonymous block
		Position
	}

	StructDecl struct {
		Name    string
		Members []*VarDecl
		Vars    *VarDecl // declarators following the closing brace, if any
		Position
	}

	Param struct {
		Storage string // in, out, inout or empty
		Const   bool
		Type    TypeSpec
		Name    string // may be empty in prototypes
		Position
	}

	FunctionDecl struct {
		Return TypeSpec
		Name   string
		Params []Param
		Body   *BlockStmt // nil for a prototype
		Position
	}
)

func (*VarDecl) declNode()      {}
func (*BlockDecl) declNode()    {}
func (*StructDecl) declNode()   {}
func (*FunctionDecl) declNode() {}
