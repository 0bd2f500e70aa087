// Package evaluator walks a parse tree and produces a runtime value. There
// is no Accept/Visitor double dispatch: Eval and its helpers dispatch on
// concrete ast node types with a single type switch, matching the closed
// set of node types ast.go defines.
package evaluator

import (
	"fmt"

	"github.com/mcgru/curryinterp/internal/ast"
	"github.com/mcgru/curryinterp/internal/config"
	"github.com/mcgru/curryinterp/internal/diagnostics"
	"github.com/mcgru/curryinterp/internal/values"
)

// Binding is a declared variable's slot: its static type, its current
// value, and whether it has ever been assigned one. A declared-but-never-
// assigned variable (`int x;`) has HasValue false; reading it is a
// VAR_NOT_INITIALIZED_WITH_VALUE runtime error.
type Binding struct {
	Type     ast.Type
	Value    values.Value
	HasValue bool
}

// Frame is one function activation: its parameter/local bindings and the
// declared return type Return statements are checked against.
type Frame struct {
	Name       string
	Locals     map[string]*Binding
	ReturnType ast.Type
}

// Evaluator holds everything that survives across function calls: global
// variables, currency exchange rates, function declarations, and the
// active call stack.
type Evaluator struct {
	Globals    map[string]*Binding
	Currencies map[string]float64
	Functions  map[string]*ast.FunctionDeclaration
	Current    *Frame
	Stack      []*Frame
	Limits     config.Limits
}

// New builds an Evaluator from a parse tree, registering every top-level
// declaration and evaluating global variable initializers. Declarations
// are processed in source order, exactly as written: a global variable
// initializer may call a function declared earlier in the file but not
// one declared later.
func New(tree *ast.ParseTree, limits config.Limits) (*Evaluator, error) {
	e := &Evaluator{
		Globals:    make(map[string]*Binding),
		Currencies: make(map[string]float64),
		Functions:  make(map[string]*ast.FunctionDeclaration),
		Limits:     limits,
	}
	for _, decl := range tree.Declarations {
		if err := e.registerDeclaration(decl); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Evaluator) registerDeclaration(decl ast.Decl) error {
	switch d := decl.(type) {
	case *ast.CurrencyDeclaration:
		if _, exists := e.Currencies[d.Name]; exists {
			return diagnostics.NewSemanticError(posOf(d.Position), diagnostics.DuplicateID, d.Name)
		}
		e.Currencies[d.Name] = d.Rate
		return nil
	case *ast.FunctionDeclaration:
		if _, exists := e.Functions[d.ID]; exists {
			return diagnostics.NewSemanticError(posOf(d.Position), diagnostics.DuplicateID, d.ID)
		}
		e.Functions[d.ID] = d
		return nil
	case *ast.VariableDeclaration:
		if _, exists := e.Globals[d.ID]; exists {
			return diagnostics.NewSemanticError(posOf(d.Position), diagnostics.DuplicateID, d.ID)
		}
		if d.Init == nil {
			e.Globals[d.ID] = &Binding{Type: d.Type}
			return nil
		}
		val, err := e.evalExpr(d.Init)
		if err != nil {
			return err
		}
		if !valueMatchesType(val, d.Type) {
			return diagnostics.NewTypeError(posOf(d.Position), d.Type.TypeName(), describeType(val))
		}
		e.Globals[d.ID] = &Binding{Type: d.Type, Value: val, HasValue: true}
		return nil
	default:
		return nil
	}
}

// Run calls main() with no arguments, the program's entry point.
func (e *Evaluator) Run() (values.Value, error) {
	if _, ok := e.Functions["main"]; !ok {
		return nil, diagnostics.NewSemanticError(diagnostics.Position{}, diagnostics.FunIDNotFound, "main")
	}
	return e.call(&ast.FunctionCall{ID: "main"})
}

// call resolves, binds, and executes a function call, enforcing the
// call-stack depth guard along the way.
func (e *Evaluator) call(node *ast.FunctionCall) (values.Value, error) {
	decl, ok := e.Functions[node.ID]
	if !ok {
		return nil, diagnostics.NewSemanticError(posOf(node.Position), diagnostics.FunIDNotFound, node.ID)
	}

	args := make([]values.Value, len(node.Args))
	for i, argExpr := range node.Args {
		val, err := e.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	frame, err := e.bindFrame(decl, node.Position, args)
	if err != nil {
		return nil, err
	}

	e.Stack = append(e.Stack, e.Current)
	if len(e.Stack) > e.Limits.MaxCallDepth {
		e.Stack = e.Stack[:len(e.Stack)-1]
		return nil, diagnostics.NewRuntimeError(posOf(node.Position), diagnostics.InfiniteRecursion, node.ID)
	}
	e.Current = frame

	result, didReturn, err := e.execStatements(decl.Body)

	e.Current = e.Stack[len(e.Stack)-1]
	e.Stack = e.Stack[:len(e.Stack)-1]

	if err != nil {
		return nil, err
	}
	if !didReturn {
		return values.Void{}, nil
	}
	return result, nil
}

func (e *Evaluator) bindFrame(decl *ast.FunctionDeclaration, callPos ast.Position, args []values.Value) (*Frame, error) {
	if len(decl.Params) != len(args) {
		return nil, diagnostics.NewSemanticError(posOf(callPos), diagnostics.WrongNumberOfParams, decl.ID)
	}
	locals := make(map[string]*Binding, len(decl.Params))
	for i, param := range decl.Params {
		if !valueMatchesType(args[i], param.Type) {
			return nil, diagnostics.NewTypeError(posOf(callPos), param.Type.TypeName(), describeType(args[i]))
		}
		locals[param.ID] = &Binding{Type: param.Type, Value: args[i], HasValue: true}
	}
	return &Frame{Name: decl.ID, Locals: locals, ReturnType: decl.ReturnType}, nil
}

// execStatements runs a block, stopping and propagating on the first
// return. The bool result reports whether a return was hit.
func (e *Evaluator) execStatements(block *ast.Statements) (values.Value, bool, error) {
	for _, stmt := range block.List {
		val, didReturn, err := e.execStatement(stmt)
		if err != nil {
			return nil, false, err
		}
		if didReturn {
			return val, true, nil
		}
	}
	return nil, false, nil
}

func (e *Evaluator) execStatement(stmt ast.Stmt) (values.Value, bool, error) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		return nil, false, e.execVariableDeclaration(s)
	case *ast.Assignment:
		return nil, false, e.execAssignment(s)
	case *ast.FunctionCall:
		_, err := e.call(s)
		return nil, false, err
	case *ast.IfStatement:
		return e.execIf(s)
	case *ast.WhileStatement:
		return e.execWhile(s)
	case *ast.ReturnStatement:
		return e.execReturn(s)
	case *ast.Statements:
		return e.execStatements(s)
	default:
		panic(fmt.Sprintf("evaluator: unhandled statement node %T", stmt))
	}
}

func (e *Evaluator) scope() map[string]*Binding {
	if e.Current != nil {
		return e.Current.Locals
	}
	return e.Globals
}

func (e *Evaluator) lookup(id string) (*Binding, bool) {
	if e.Current != nil {
		if b, ok := e.Current.Locals[id]; ok {
			return b, true
		}
	}
	b, ok := e.Globals[id]
	return b, ok
}

func (e *Evaluator) execVariableDeclaration(d *ast.VariableDeclaration) error {
	scope := e.scope()
	if _, exists := scope[d.ID]; exists {
		return diagnostics.NewSemanticError(posOf(d.Position), diagnostics.DuplicateID, d.ID)
	}
	if d.Init == nil {
		scope[d.ID] = &Binding{Type: d.Type}
		return nil
	}
	val, err := e.evalExpr(d.Init)
	if err != nil {
		return err
	}
	if !valueMatchesType(val, d.Type) {
		return diagnostics.NewTypeError(posOf(d.Position), d.Type.TypeName(), describeType(val))
	}
	scope[d.ID] = &Binding{Type: d.Type, Value: val, HasValue: true}
	return nil
}

// execAssignment updates the binding wherever it currently lives: the
// active frame's locals if present there, otherwise the globals. This
// mutates the Binding in place, so it works regardless of which scope
// lookup resolved it in.
func (e *Evaluator) execAssignment(a *ast.Assignment) error {
	binding, ok := e.lookup(a.ID)
	if !ok {
		return diagnostics.NewSemanticError(posOf(a.Position), diagnostics.VarIDNotFound, a.ID)
	}
	val, err := e.evalExpr(a.Value)
	if err != nil {
		return err
	}
	if !valueMatchesType(val, binding.Type) {
		return diagnostics.NewTypeError(posOf(a.Position), binding.Type.TypeName(), describeType(val))
	}
	binding.Value = val
	binding.HasValue = true
	return nil
}

func (e *Evaluator) execIf(s *ast.IfStatement) (values.Value, bool, error) {
	cond, err := e.evalExpr(s.Cond)
	if err != nil {
		return nil, false, err
	}
	b, ok := cond.(values.Bool)
	if !ok {
		return nil, false, diagnostics.NewTypeError(posOf(s.Cond.Pos()), "bool", describeType(cond))
	}
	if !bool(b) {
		return nil, false, nil
	}
	return e.execStatements(s.Body)
}

// execWhile runs the loop body while Cond holds, bounded by
// MaxWhileIterations. MaxWhileIterations-1 iterations complete normally;
// the attempt at the MaxWhileIterations-th iteration raises INFINITE_LOOP
// instead of running the body.
func (e *Evaluator) execWhile(s *ast.WhileStatement) (values.Value, bool, error) {
	for iter := 0; ; iter++ {
		cond, err := e.evalExpr(s.Cond)
		if err != nil {
			return nil, false, err
		}
		b, ok := cond.(values.Bool)
		if !ok {
			return nil, false, diagnostics.NewTypeError(posOf(s.Cond.Pos()), "bool", describeType(cond))
		}
		if !bool(b) {
			return nil, false, nil
		}
		if iter >= e.Limits.MaxWhileIterations-1 {
			name := "main"
			if e.Current != nil {
				name = e.Current.Name
			}
			return nil, false, diagnostics.NewRuntimeError(posOf(s.Position), diagnostics.InfiniteLoop, name)
		}
		val, didReturn, err := e.execStatements(s.Body)
		if err != nil {
			return nil, false, err
		}
		if didReturn {
			return val, true, nil
		}
	}
}

func (e *Evaluator) execReturn(s *ast.ReturnStatement) (values.Value, bool, error) {
	returnType := ast.Type(ast.SimpleType{Kind: "void"})
	if e.Current != nil {
		returnType = e.Current.ReturnType
	}

	if s.Value == nil {
		if simple, ok := returnType.(ast.SimpleType); !ok || simple.Kind != "void" {
			return nil, false, diagnostics.NewTypeError(posOf(s.Position), returnType.TypeName(), "void")
		}
		return values.Void{}, true, nil
	}

	val, err := e.evalExpr(s.Value)
	if err != nil {
		return nil, false, err
	}
	if !valueMatchesType(val, returnType) {
		return nil, false, diagnostics.NewTypeError(posOf(s.Position), returnType.TypeName(), describeType(val))
	}
	return val, true, nil
}

func posOf(p ast.Position) diagnostics.Position {
	return diagnostics.Position{Line: p.Line, Column: p.Column}
}
