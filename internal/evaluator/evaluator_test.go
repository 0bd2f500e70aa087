package evaluator

import (
	"math"
	"testing"

	"github.com/mcgru/curryinterp/internal/config"
	"github.com/mcgru/curryinterp/internal/diagnostics"
	"github.com/mcgru/curryinterp/internal/lexer"
	"github.com/mcgru/curryinterp/internal/parser"
	"github.com/mcgru/curryinterp/internal/values"
)

func runProgram(t *testing.T, src string) (values.Value, error) {
	t.Helper()
	tree, err := parser.Parse(lexer.New(src, config.Default()))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	eval, err := New(tree, config.Default())
	if err != nil {
		return nil, err
	}
	return eval.Run()
}

func TestScenarioReturnsIntConstant(t *testing.T) {
	val, err := runProgram(t, "int main(){return 3;}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != values.Int(3) {
		t.Errorf("result = %v, want 3", val)
	}
}

func TestScenarioOrOfBools(t *testing.T) {
	val, err := runProgram(t, "bool main(){return true || false;}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != values.Bool(true) {
		t.Errorf("result = %v, want true", val)
	}
}

func TestScenarioOrOfIntsIsTypeError(t *testing.T) {
	_, err := runProgram(t, "bool main(){return 1 || 1;}")
	if err == nil {
		t.Fatalf("expected a type error, got none")
	}
	if _, ok := err.(*diagnostics.TypeError); !ok {
		t.Errorf("error is %T, want *diagnostics.TypeError", err)
	}
}

func TestScenarioArithmeticPrecedence(t *testing.T) {
	val, err := runProgram(t, "int main(){ return 2 + 2 * 2; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != values.Int(6) {
		t.Errorf("result = %v, want 6", val)
	}
}

func TestScenarioCurrencyCast(t *testing.T) {
	val, err := runProgram(t, "EUR := 2.0; USD := 1.0; EUR main(){ return EUR 1.0USD; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cv, ok := val.(values.Currency)
	if !ok || cv.Name != "EUR" || cv.Amount != 0.5 {
		t.Errorf("result = %+v, want CurrencyValue(EUR, 0.5)", val)
	}
}

func TestScenarioCompoundInterest(t *testing.T) {
	src := `
		USD := 3.0;
		float power(float basis, int exponent) {
			if (exponent == 0) { return 1.0; }
			return basis * power(basis, exponent - 1);
		}
		USD compound_interest(USD capital, float interest_rate, int number_of_times) {
			return capital * power(1.0 + interest_rate, number_of_times);
		}
		USD main(){ return compound_interest(10USD, 0.1, 5); }
	`
	val, err := runProgram(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cv, ok := val.(values.Currency)
	if !ok || cv.Name != "USD" {
		t.Fatalf("result = %+v, want a USD CurrencyValue", val)
	}
	if math.Abs(cv.Amount-16.1051) > 1e-4 {
		t.Errorf("amount = %v, want ~16.1051", cv.Amount)
	}
}

func TestScenarioInfiniteLoopCapped(t *testing.T) {
	_, err := runProgram(t, "int main(){ while(true) {} }")
	rtErr, ok := err.(*diagnostics.Error)
	if !ok {
		t.Fatalf("error is %T, want *diagnostics.Error", err)
	}
	if rtErr.Code != string(diagnostics.InfiniteLoop) {
		t.Errorf("code = %s, want %s", rtErr.Code, diagnostics.InfiniteLoop)
	}
}

func TestScenarioInfiniteRecursionCapped(t *testing.T) {
	_, err := runProgram(t, "int a(){return a();} int main(){return a();}")
	rtErr, ok := err.(*diagnostics.Error)
	if !ok {
		t.Fatalf("error is %T, want *diagnostics.Error", err)
	}
	if rtErr.Code != string(diagnostics.InfiniteRecursion) {
		t.Errorf("code = %s, want %s", rtErr.Code, diagnostics.InfiniteRecursion)
	}
}

func TestRecursionDepthBoundary(t *testing.T) {
	// 9 levels of real recursion before the base case returns: accepted.
	src := `
		int count(int n) {
			if (n == 0) { return 0; }
			return 1 + count(n - 1);
		}
		int main(){ return count(8); }
	`
	val, err := runProgram(t, src)
	if err != nil {
		t.Fatalf("9-deep recursion rejected: %v", err)
	}
	if val != values.Int(8) {
		t.Errorf("result = %v, want 8", val)
	}
}

func TestWhileLoopIterationBoundary(t *testing.T) {
	src := `
		int main() {
			int i = 0;
			while (i < 99) { i = i + 1; }
			return i;
		}
	`
	val, err := runProgram(t, src)
	if err != nil {
		t.Fatalf("99-iteration loop rejected: %v", err)
	}
	if val != values.Int(99) {
		t.Errorf("result = %v, want 99", val)
	}
}

func TestAssignmentUpdatesWhicheverScopeTheVariableLivesIn(t *testing.T) {
	src := `
		int counter = 0;
		void bump() { counter = counter + 1; }
		int main() { bump(); bump(); return counter; }
	`
	val, err := runProgram(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != values.Int(2) {
		t.Errorf("result = %v, want 2 (global mutated by an assignment inside bump's frame)", val)
	}
}

func TestVariableDeclaredWithoutInitializerErrorsOnRead(t *testing.T) {
	_, err := runProgram(t, "int main(){ int x; return x; }")
	rtErr, ok := err.(*diagnostics.Error)
	if !ok {
		t.Fatalf("error is %T, want *diagnostics.Error", err)
	}
	if rtErr.Code != string(diagnostics.VarNotInitializedWithValue) {
		t.Errorf("code = %s, want %s", rtErr.Code, diagnostics.VarNotInitializedWithValue)
	}
}

func TestWrongNumberOfParamsIsSemanticError(t *testing.T) {
	_, err := runProgram(t, "int add(int a, int b){ return a+b; } int main(){ return add(1); }")
	semErr, ok := err.(*diagnostics.Error)
	if !ok {
		t.Fatalf("error is %T, want *diagnostics.Error", err)
	}
	if semErr.Code != string(diagnostics.WrongNumberOfParams) {
		t.Errorf("code = %s, want %s", semErr.Code, diagnostics.WrongNumberOfParams)
	}
}

func TestBareReturnFromNonVoidFunctionIsTypeError(t *testing.T) {
	_, err := runProgram(t, "int main(){ return; }")
	if _, ok := err.(*diagnostics.TypeError); !ok {
		t.Errorf("error is %T, want *diagnostics.TypeError", err)
	}
}

func TestStringConcatenation(t *testing.T) {
	val, err := runProgram(t, `string main(){ return "foo" + "bar"; }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != values.String("foobar") {
		t.Errorf("result = %v, want foobar", val)
	}
}

func TestStringSubtractionIsTypeError(t *testing.T) {
	_, err := runProgram(t, `string main(){ return "foo" - "bar"; }`)
	if err == nil {
		t.Errorf("string subtraction accepted, want an error")
	}
}

func TestMixedCurrencyTagArithmeticIsTypeError(t *testing.T) {
	src := `
		EUR := 2.0; USD := 1.0;
		USD main(){ return 1.0USD + 1.0EUR; }
	`
	_, err := runProgram(t, src)
	if err == nil {
		t.Errorf("mixed-tag currency arithmetic accepted, want a type error")
	}
}

func TestIntegerDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := runProgram(t, "int main(){ return 1 / 0; }")
	rtErr, ok := err.(*diagnostics.Error)
	if !ok {
		t.Fatalf("error is %T, want *diagnostics.Error", err)
	}
	if rtErr.Code != string(diagnostics.DivisionByZero) {
		t.Errorf("code = %s, want %s", rtErr.Code, diagnostics.DivisionByZero)
	}
}

func TestFloatModuloByZeroIsRuntimeError(t *testing.T) {
	_, err := runProgram(t, "float main(){ return 1.0 % 0.0; }")
	rtErr, ok := err.(*diagnostics.Error)
	if !ok {
		t.Fatalf("error is %T, want *diagnostics.Error", err)
	}
	if rtErr.Code != string(diagnostics.DivisionByZero) {
		t.Errorf("code = %s, want %s", rtErr.Code, diagnostics.DivisionByZero)
	}
}

func TestCurrencyCastToItselfIsNoOp(t *testing.T) {
	val, err := runProgram(t, "USD := 1.0; USD main(){ return USD 5.0USD; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cv, ok := val.(values.Currency)
	if !ok || cv.Name != "USD" || cv.Amount != 5.0 {
		t.Errorf("result = %+v, want CurrencyValue(USD, 5.0)", val)
	}
}

func TestChainedCurrencyCastsPreserveBaseAmount(t *testing.T) {
	// EUR rate 2.0, USD rate 1.0, GBP rate 4.0, starting amount 8.0EUR (16.0 base units).
	// 8.0 in EUR -> USD -> GBP should land back on a consistent base value:
	// USD amount = 8*2/1 = 16; GBP amount = 16*1/4 = 4; back to EUR = 4*4/2 = 8.
	src := `
		EUR := 2.0; USD := 1.0; GBP := 4.0;
		EUR main(){
			USD as_usd = USD 8.0EUR;
			GBP as_gbp = GBP as_usd;
			return EUR as_gbp;
		}
	`
	val, err := runProgram(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cv, ok := val.(values.Currency)
	if !ok || cv.Name != "EUR" || math.Abs(cv.Amount-8.0) > 1e-9 {
		t.Errorf("result = %+v, want CurrencyValue(EUR, 8.0)", val)
	}
}

func TestCastStringToInt(t *testing.T) {
	val, err := runProgram(t, `int main(){ return int "42"; }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != values.Int(42) {
		t.Errorf("result = %v, want 42", val)
	}
}

func TestCastNonNumericStringToIntIsTypeError(t *testing.T) {
	_, err := runProgram(t, `int main(){ return int "not a number"; }`)
	if _, ok := err.(*diagnostics.TypeError); !ok {
		t.Errorf("error is %T, want *diagnostics.TypeError", err)
	}
}

func TestCastStringToBool(t *testing.T) {
	val, err := runProgram(t, `bool main(){ return bool "true"; }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != values.Bool(true) {
		t.Errorf("result = %v, want true", val)
	}
}

func TestCurrencyScalarArithmeticScalesAmountAndKeepsTag(t *testing.T) {
	src := `
		USD := 1.0;
		USD main(){ return 3USD * 2; }
	`
	val, err := runProgram(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cv, ok := val.(values.Currency)
	if !ok || cv.Name != "USD" || cv.Amount != 6.0 {
		t.Errorf("result = %+v, want CurrencyValue(USD, 6.0)", val)
	}
}

func TestScalarCurrencyArithmeticIsCommutative(t *testing.T) {
	src := `
		USD := 1.0;
		USD main(){ return 2 * 3USD; }
	`
	val, err := runProgram(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cv, ok := val.(values.Currency)
	if !ok || cv.Name != "USD" || cv.Amount != 6.0 {
		t.Errorf("result = %+v, want CurrencyValue(USD, 6.0)", val)
	}
}

func TestUndeclaredMainIsSemanticError(t *testing.T) {
	_, err := runProgram(t, "int add(int a, int b){ return a+b; }")
	semErr, ok := err.(*diagnostics.Error)
	if !ok {
		t.Fatalf("error is %T, want *diagnostics.Error", err)
	}
	if semErr.Code != string(diagnostics.FunIDNotFound) {
		t.Errorf("code = %s, want %s", semErr.Code, diagnostics.FunIDNotFound)
	}
}
