// Package config holds the bounded-computation guards the lexer and
// evaluator enforce, gathered into one overridable Limits value so a
// caller embedding the interpreter can tune them.
package config

// Limits bounds the otherwise-unbounded constructs the interpreter would
// happily loop or recurse on forever: oversized literals, runaway loops,
// and unbounded recursion.
type Limits struct {
	// MaxIntDigits bounds the digit count of an integer literal.
	MaxIntDigits int
	// MaxStringLength bounds a string literal's character count.
	MaxStringLength int
	// MaxCommentLength bounds a block comment's scanned character count.
	MaxCommentLength int
	// MaxWhileIterations bounds a single while loop's iteration count.
	MaxWhileIterations int
	// MaxCallDepth bounds the function-call frame stack depth.
	MaxCallDepth int
}

// Default returns the limits named in the language's resource model.
func Default() Limits {
	return Limits{
		MaxIntDigits:       100,
		MaxStringLength:    1000,
		MaxCommentLength:   1000,
		MaxWhileIterations: 100,
		MaxCallDepth:       10,
	}
}
