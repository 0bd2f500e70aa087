// Package ast defines the parse tree node types the parser builds and
// the evaluator walks. Every node carries its source position. There is
// no Accept/Visitor double dispatch here: the evaluator dispatches on
// these node types with a single type switch (see internal/evaluator),
// which is what a closed algebraic sum type naturally wants in Go.
package ast

import (
	"github.com/mcgru/curryinterp/internal/token"
	"github.com/mcgru/curryinterp/internal/values"
)

// Position is the (line, column) a node is anchored to: the last
// character of the token the node starts with (for variable, parameter
// and function declarations, of its identifier token).
type Position struct {
	Line   int
	Column int
}

// PosFromToken builds a Position from a token's line/column.
func PosFromToken(tok token.Token) Position {
	return Position{Line: tok.Line, Column: tok.Column}
}

// Pos satisfies Node for any type embedding Position by value.
func (p Position) Pos() Position { return p }

// Node is implemented by every parse tree node.
type Node interface {
	Pos() Position
}

// Type is a type descriptor: either a simple type (int, float, string,
// bool, void) or a currency type carrying a three-letter name.
type Type interface {
	Node
	TypeName() string
	Equals(Type) bool
}

// SimpleType is one of int, float, string, bool, void.
type SimpleType struct {
	Position
	Kind string
}

func (t SimpleType) TypeName() string { return t.Kind }
func (t SimpleType) Equals(o Type) bool {
	other, ok := o.(SimpleType)
	return ok && other.Kind == t.Kind
}

// CurrencyType carries a three-letter currency name, e.g. USD.
type CurrencyType struct {
	Position
	Name string
}

func (t CurrencyType) TypeName() string { return t.Name }
func (t CurrencyType) Equals(o Type) bool {
	other, ok := o.(CurrencyType)
	return ok && other.Name == t.Name
}

// Expr is implemented by every expression-grammar node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement-grammar node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is implemented by every top-level declaration node.
type Decl interface {
	Node
	declNode()
}

// ---- expressions ----

// Constant is a literal value (int, float, string, bool, or currency).
type Constant struct {
	Position
	Value values.Value
}

func (n *Constant) exprNode() {}

// Variable is a read of an identifier.
type Variable struct {
	Position
	ID string
}

func (n *Variable) exprNode() {}

// FunctionCall is `id(args...)`; it doubles as both an expression
// (a factor) and a statement (a call whose result is discarded).
type FunctionCall struct {
	Position
	ID   string
	Args []Expr
}

func (n *FunctionCall) exprNode() {}
func (n *FunctionCall) stmtNode() {}

// NegationFactor is an optionally `!`-negated factor.
type NegationFactor struct {
	Position
	Factor  Expr
	Negated bool
}

func (n *NegationFactor) exprNode() {}

// TypeCastingFactor is a NegationFactor with an optional leading cast
// type (`int x`, `USD x`). CastType is nil when there is no cast.
type TypeCastingFactor struct {
	Position
	Inner    Expr
	CastType Type
}

func (n *TypeCastingFactor) exprNode() {}

// BinaryOp pairs an operator token with its right-hand operand, used by
// the left-associative fold in MultiplyExpression and SumExpression.
type BinaryOp struct {
	Op    token.TokenType
	Right Expr
}

// MultiplyExpression is `left (*|/|% right)*` folded left-to-right.
type MultiplyExpression struct {
	Position
	Left Expr
	Rest []BinaryOp
}

func (n *MultiplyExpression) exprNode() {}

// SumExpression is `left (+|- right)*` folded left-to-right.
type SumExpression struct {
	Position
	Left Expr
	Rest []BinaryOp
}

func (n *SumExpression) exprNode() {}

// RelationshipExpression is `left [relop right]`; Op is empty when there
// is no comparison.
type RelationshipExpression struct {
	Position
	Left  Expr
	Op    token.TokenType
	Right Expr
}

func (n *RelationshipExpression) exprNode() {}

// AndExpression is a list of RelationshipExpression operands folded with
// `&&` (no short-circuit: all operands are evaluated).
type AndExpression struct {
	Position
	Operands []Expr
}

func (n *AndExpression) exprNode() {}

// Expression is a list of AndExpression operands folded with `||` (no
// short-circuit). This is the grammar's top-level expression production.
type Expression struct {
	Position
	Operands []Expr
}

func (n *Expression) exprNode() {}

// ---- statements ----

// Assignment is `id = expression;`.
type Assignment struct {
	Position
	ID    string
	Value Expr
}

func (n *Assignment) stmtNode() {}

// IfStatement has no else branch (the token exists but is never parsed).
type IfStatement struct {
	Position
	Cond Expr
	Body *Statements
}

func (n *IfStatement) stmtNode() {}

// WhileStatement loops while Cond evaluates to true, bounded by
// config.Limits.MaxWhileIterations.
type WhileStatement struct {
	Position
	Cond Expr
	Body *Statements
}

func (n *WhileStatement) stmtNode() {}

// ReturnStatement optionally carries a value; Value is nil for a bare
// `return;`.
type ReturnStatement struct {
	Position
	Value Expr
}

func (n *ReturnStatement) stmtNode() {}

// Statements is an ordered block of statements.
type Statements struct {
	Position
	List []Stmt
}

func (n *Statements) stmtNode() {}

// VariableDeclaration is `type id [= expression];`. It appears both as a
// top-level declaration and as a statement inside a function body.
type VariableDeclaration struct {
	Position
	Type Type
	ID   string
	Init Expr // nil when there is no initializer
}

func (n *VariableDeclaration) declNode() {}
func (n *VariableDeclaration) stmtNode() {}

// ---- top-level declarations ----

// CurrencyDeclaration is `CCC := rate;`.
type CurrencyDeclaration struct {
	Position
	Name string
	Rate float64
}

func (n *CurrencyDeclaration) declNode() {}

// Param is one function parameter.
type Param struct {
	Position
	ID   string
	Type Type
}

// FunctionDeclaration is `type id(params) { statements }`.
type FunctionDeclaration struct {
	Position
	ReturnType Type
	ID         string
	Params     []Param
	Body       *Statements
}

func (n *FunctionDeclaration) declNode() {}

// ParseTree is the root node: the whole program as an ordered list of
// declarations.
type ParseTree struct {
	Position
	Declarations []Decl
}
