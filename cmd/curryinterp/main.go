// Command curryinterp runs a single source file: lex, parse, evaluate,
// and print the stringified result of main() to standard output.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/mcgru/curryinterp/internal/config"
	"github.com/mcgru/curryinterp/internal/evaluator"
	"github.com/mcgru/curryinterp/internal/lexer"
	"github.com/mcgru/curryinterp/internal/parser"
	"github.com/mcgru/curryinterp/internal/values"
)

func main() {
	runID := uuid.New().String()

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "run=%s usage: curryinterp <source-file>\n", runID)
		os.Exit(1)
	}

	source, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "run=%s cannot read %s: %v\n", runID, os.Args[1], err)
		os.Exit(1)
	}

	result, err := run(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "run=%s %v\n", runID, err)
		os.Exit(1)
	}

	fmt.Println(result.String())
}

func run(source string) (values.Value, error) {
	limits := config.Default()
	lex := lexer.New(source, limits)

	tree, err := parser.Parse(lex)
	if err != nil {
		return nil, err
	}

	eval, err := evaluator.New(tree, limits)
	if err != nil {
		return nil, err
	}

	return eval.Run()
}
