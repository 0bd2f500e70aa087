package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcgru/curryinterp/internal/ast"
	"github.com/mcgru/curryinterp/internal/diagnostics"
	"github.com/mcgru/curryinterp/internal/token"
	"github.com/mcgru/curryinterp/internal/values"
)

// evalExpr is the expression half of the evaluator's single type-switch
// dispatch (execStatement is the statement half).
func (e *Evaluator) evalExpr(node ast.Expr) (values.Value, error) {
	switch n := node.(type) {
	case *ast.Constant:
		return n.Value, nil

	case *ast.Variable:
		binding, ok := e.lookup(n.ID)
		if !ok {
			return nil, diagnostics.NewSemanticError(posOf(n.Position), diagnostics.VarIDNotFound, n.ID)
		}
		if !binding.HasValue {
			return nil, diagnostics.NewRuntimeError(posOf(n.Position), diagnostics.VarNotInitializedWithValue, n.ID)
		}
		return binding.Value, nil

	case *ast.FunctionCall:
		return e.call(n)

	case *ast.NegationFactor:
		val, err := e.evalExpr(n.Factor)
		if err != nil {
			return nil, err
		}
		if !n.Negated {
			return val, nil
		}
		b, ok := val.(values.Bool)
		if !ok {
			return nil, diagnostics.NewTypeError(posOf(n.Position), "bool", describeType(val))
		}
		return values.Bool(!bool(b)), nil

	case *ast.TypeCastingFactor:
		val, err := e.evalExpr(n.Inner)
		if err != nil {
			return nil, err
		}
		if n.CastType == nil {
			return val, nil
		}
		return e.castValue(n.CastType, val, n.Position)

	case *ast.MultiplyExpression:
		return e.evalArithmetic(n.Position, n.Left, n.Rest)

	case *ast.SumExpression:
		return e.evalArithmetic(n.Position, n.Left, n.Rest)

	case *ast.RelationshipExpression:
		left, err := e.evalExpr(n.Left)
		if err != nil {
			return nil, err
		}
		if n.Right == nil {
			return left, nil
		}
		right, err := e.evalExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return e.compare(n.Position, n.Op, left, right)

	case *ast.AndExpression:
		acc := true
		for _, operand := range n.Operands {
			val, err := e.evalExpr(operand)
			if err != nil {
				return nil, err
			}
			b, ok := val.(values.Bool)
			if !ok {
				return nil, diagnostics.NewTypeError(posOf(operand.Pos()), "bool", describeType(val))
			}
			acc = acc && bool(b)
		}
		return values.Bool(acc), nil

	case *ast.Expression:
		acc := false
		for _, operand := range n.Operands {
			val, err := e.evalExpr(operand)
			if err != nil {
				return nil, err
			}
			b, ok := val.(values.Bool)
			if !ok {
				return nil, diagnostics.NewTypeError(posOf(operand.Pos()), "bool", describeType(val))
			}
			acc = acc || bool(b)
		}
		return values.Bool(acc), nil

	default:
		panic(fmt.Sprintf("evaluator: unhandled expression node %T", node))
	}
}

// evalArithmetic folds a Sum/MultiplyExpression left-to-right. Currency
// times/divided-by a plain int or float (and int or float times currency)
// scales the amount and keeps the currency tag; every other operand pair
// must share the same type (and, for currency-currency, the same tag).
func (e *Evaluator) evalArithmetic(pos ast.Position, left ast.Expr, rest []ast.BinaryOp) (values.Value, error) {
	acc, err := e.evalExpr(left)
	if err != nil {
		return nil, err
	}
	for _, step := range rest {
		rhs, err := e.evalExpr(step.Right)
		if err != nil {
			return nil, err
		}
		acc, err = applyArithmetic(posOf(pos), step.Op, acc, rhs)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func applyArithmetic(pos diagnostics.Position, op token.TokenType, left, right values.Value) (values.Value, error) {
	if lc, ok := left.(values.Currency); ok {
		if _, isCurrency := right.(values.Currency); !isCurrency && op != token.ASTERISK && op != token.SLASH {
			return nil, diagnostics.NewTypeError(pos, lc.Name, describeType(right))
		}
		switch rv := right.(type) {
		case values.Currency:
			if rv.Name != lc.Name {
				return nil, diagnostics.NewTypeError(pos, lc.Name, describeType(right))
			}
			amount, err := arithFloat(pos, op, lc.Amount, rv.Amount)
			if err != nil {
				return nil, err
			}
			return values.Currency{Name: lc.Name, Amount: amount}, nil
		case values.Float:
			amount, err := arithFloat(pos, op, lc.Amount, float64(rv))
			if err != nil {
				return nil, err
			}
			return values.Currency{Name: lc.Name, Amount: amount}, nil
		case values.Int:
			amount, err := arithFloat(pos, op, lc.Amount, float64(rv))
			if err != nil {
				return nil, err
			}
			return values.Currency{Name: lc.Name, Amount: amount}, nil
		default:
			return nil, diagnostics.NewTypeError(pos, lc.Name, describeType(right))
		}
	}

	if rc, ok := right.(values.Currency); ok {
		if op != token.ASTERISK {
			return nil, diagnostics.NewTypeError(pos, rc.Name, describeType(left))
		}
		switch lv := left.(type) {
		case values.Float:
			amount, err := arithFloat(pos, op, float64(lv), rc.Amount)
			if err != nil {
				return nil, err
			}
			return values.Currency{Name: rc.Name, Amount: amount}, nil
		case values.Int:
			amount, err := arithFloat(pos, op, float64(lv), rc.Amount)
			if err != nil {
				return nil, err
			}
			return values.Currency{Name: rc.Name, Amount: amount}, nil
		default:
			return nil, diagnostics.NewTypeError(pos, rc.Name, describeType(left))
		}
	}

	switch lv := left.(type) {
	case values.Int:
		rv, ok := right.(values.Int)
		if !ok {
			return nil, diagnostics.NewTypeError(pos, "int", describeType(right))
		}
		return arithInt(pos, op, int64(lv), int64(rv))
	case values.Float:
		rv, ok := right.(values.Float)
		if !ok {
			return nil, diagnostics.NewTypeError(pos, "float", describeType(right))
		}
		amount, err := arithFloat(pos, op, float64(lv), float64(rv))
		if err != nil {
			return nil, err
		}
		return values.Float(amount), nil
	case values.String:
		rv, ok := right.(values.String)
		if !ok {
			return nil, diagnostics.NewTypeError(pos, "string", describeType(right))
		}
		if op != token.PLUS {
			return nil, diagnostics.NewTypeError(pos, "string operands only support +", string(op))
		}
		return values.String(string(lv) + string(rv)), nil
	default:
		return nil, diagnostics.NewTypeError(pos, "int, float, string, or currency", describeType(left))
	}
}

func arithInt(pos diagnostics.Position, op token.TokenType, l, r int64) (values.Value, error) {
	switch op {
	case token.PLUS:
		return values.Int(l + r), nil
	case token.MINUS:
		return values.Int(l - r), nil
	case token.ASTERISK:
		return values.Int(l * r), nil
	case token.SLASH:
		if r == 0 {
			return nil, diagnostics.NewRuntimeError(pos, diagnostics.DivisionByZero, "/")
		}
		return values.Int(l / r), nil
	case token.PERCENT:
		if r == 0 {
			return nil, diagnostics.NewRuntimeError(pos, diagnostics.DivisionByZero, "%")
		}
		return values.Int(l % r), nil
	default:
		return nil, diagnostics.NewTypeError(pos, "arithmetic operator", string(op))
	}
}

func arithFloat(pos diagnostics.Position, op token.TokenType, l, r float64) (float64, error) {
	switch op {
	case token.PLUS:
		return l + r, nil
	case token.MINUS:
		return l - r, nil
	case token.ASTERISK:
		return l * r, nil
	case token.SLASH:
		if r == 0 {
			return 0, diagnostics.NewRuntimeError(pos, diagnostics.DivisionByZero, "/")
		}
		return l / r, nil
	case token.PERCENT:
		if r == 0 {
			return 0, diagnostics.NewRuntimeError(pos, diagnostics.DivisionByZero, "%")
		}
		return float64(int64(l) % int64(r)), nil
	default:
		return 0, diagnostics.NewTypeError(pos, "arithmetic operator", string(op))
	}
}

// compare evaluates a RelationshipExpression's operator. EQ/NOT_EQ accept
// any matching pair of types; ordering operators require int, float,
// string, or same-tagged currency operands.
func (e *Evaluator) compare(pos ast.Position, op token.TokenType, left, right values.Value) (values.Value, error) {
	if !sameOperandType(left, right) {
		return nil, diagnostics.NewTypeError(posOf(pos), describeType(left), describeType(right))
	}
	if op == token.EQ {
		return values.Bool(values.Equal(left, right)), nil
	}
	if op == token.NOT_EQ {
		return values.Bool(!values.Equal(left, right)), nil
	}

	var cmp int
	switch lv := left.(type) {
	case values.Int:
		cmp = compareInt(int64(lv), int64(right.(values.Int)))
	case values.Float:
		cmp = compareFloat(float64(lv), float64(right.(values.Float)))
	case values.Currency:
		cmp = compareFloat(lv.Amount, right.(values.Currency).Amount)
	case values.String:
		cmp = strings.Compare(string(lv), string(right.(values.String)))
	default:
		return nil, diagnostics.NewTypeError(posOf(pos), "int, float, string, or currency", describeType(left))
	}

	switch op {
	case token.LT:
		return values.Bool(cmp < 0), nil
	case token.GT:
		return values.Bool(cmp > 0), nil
	case token.LTE:
		return values.Bool(cmp <= 0), nil
	case token.GTE:
		return values.Bool(cmp >= 0), nil
	default:
		return nil, diagnostics.NewTypeError(posOf(pos), "relational operator", string(op))
	}
}

func compareInt(l, r int64) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func compareFloat(l, r float64) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func sameOperandType(a, b values.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if ac, ok := a.(values.Currency); ok {
		return ac.Name == b.(values.Currency).Name
	}
	return true
}

// castValue applies an explicit cast (`int x`, `USD x`) to a value.
func (e *Evaluator) castValue(target ast.Type, val values.Value, pos ast.Position) (values.Value, error) {
	switch t := target.(type) {
	case ast.CurrencyType:
		return e.castToCurrency(t, val, pos)
	case ast.SimpleType:
		switch t.Kind {
		case "int":
			return castToInt(val, posOf(pos))
		case "float":
			return castToFloat(val, posOf(pos))
		case "string":
			return values.String(val.String()), nil
		case "bool":
			return castToBool(val, posOf(pos))
		default:
			return nil, diagnostics.NewTypeError(posOf(pos), "int, float, string, or bool", t.Kind)
		}
	default:
		return nil, diagnostics.NewTypeError(posOf(pos), "cast target type", describeType(val))
	}
}

func (e *Evaluator) castToCurrency(t ast.CurrencyType, val values.Value, pos ast.Position) (values.Value, error) {
	switch v := val.(type) {
	case values.Float:
		return values.Currency{Name: t.Name, Amount: float64(v)}, nil
	case values.Int:
		return values.Currency{Name: t.Name, Amount: float64(v)}, nil
	case values.Currency:
		sourceRate, ok := e.Currencies[v.Name]
		if !ok {
			return nil, diagnostics.NewSemanticError(posOf(pos), diagnostics.CurrIDNotFound, v.Name)
		}
		targetRate, ok := e.Currencies[t.Name]
		if !ok {
			return nil, diagnostics.NewSemanticError(posOf(pos), diagnostics.CurrIDNotFound, t.Name)
		}
		return values.Currency{Name: t.Name, Amount: v.Amount * sourceRate / targetRate}, nil
	default:
		return nil, diagnostics.NewTypeError(posOf(pos), "float or currency", describeType(val))
	}
}

func castToInt(val values.Value, pos diagnostics.Position) (values.Value, error) {
	switch v := val.(type) {
	case values.Int:
		return v, nil
	case values.Float:
		return values.Int(int64(v)), nil
	case values.Bool:
		if v {
			return values.Int(1), nil
		}
		return values.Int(0), nil
	case values.String:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return nil, diagnostics.NewTypeError(pos, "int", "string")
		}
		return values.Int(n), nil
	default:
		return nil, diagnostics.NewTypeError(pos, "int, float, bool, or string", describeType(val))
	}
}

func castToFloat(val values.Value, pos diagnostics.Position) (values.Value, error) {
	switch v := val.(type) {
	case values.Float:
		return v, nil
	case values.Int:
		return values.Float(float64(v)), nil
	case values.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil, diagnostics.NewTypeError(pos, "float", "string")
		}
		return values.Float(f), nil
	default:
		return nil, diagnostics.NewTypeError(pos, "int, float, or string", describeType(val))
	}
}

func castToBool(val values.Value, pos diagnostics.Position) (values.Value, error) {
	switch v := val.(type) {
	case values.Bool:
		return v, nil
	case values.Int:
		return values.Bool(v != 0), nil
	case values.String:
		switch strings.TrimSpace(string(v)) {
		case "true":
			return values.Bool(true), nil
		case "false":
			return values.Bool(false), nil
		default:
			return nil, diagnostics.NewTypeError(pos, "bool", "string")
		}
	default:
		return nil, diagnostics.NewTypeError(pos, "bool, int, or string", describeType(val))
	}
}

// valueMatchesType reports whether val is assignable to a variable,
// parameter, or return slot of the given static type.
func valueMatchesType(val values.Value, t ast.Type) bool {
	switch tt := t.(type) {
	case ast.CurrencyType:
		cv, ok := val.(values.Currency)
		return ok && cv.Name == tt.Name
	case ast.SimpleType:
		switch tt.Kind {
		case "int":
			_, ok := val.(values.Int)
			return ok
		case "float":
			_, ok := val.(values.Float)
			return ok
		case "string":
			_, ok := val.(values.String)
			return ok
		case "bool":
			_, ok := val.(values.Bool)
			return ok
		case "void":
			_, ok := val.(values.Void)
			return ok
		}
	}
	return false
}

func describeType(val values.Value) string {
	if cv, ok := val.(values.Currency); ok {
		return cv.Name
	}
	return string(val.Kind())
}
