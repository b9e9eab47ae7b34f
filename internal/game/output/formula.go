package output

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// FormulaEnv is the environment a value formula is evaluated against.
type FormulaEnv struct {
	Food       float64
	Production float64
	Gold       float64
	Research   float64
	Culture    float64
	Espionage  float64
}

func envFor(o Output) FormulaEnv {
	return FormulaEnv{
		Food:       float64(o[Food]),
		Production: float64(o[Production]),
		Gold:       float64(o[Gold]),
		Research:   float64(o[Research]),
		Culture:    float64(o[Culture]),
		Espionage:  float64(o[Espionage]),
	}
}

// Formula is a compiled value expression such as
// "Food*4 + Production*3 + (Gold + Research) * 2".
//
// Invariant: program is non-nil and yields a float64.
type Formula struct {
	Source  string
	program *vm.Program
}

// CompileFormula compiles src against FormulaEnv.
//
// Precondition: src must be a non-empty numeric expression.
// Postcondition: returns a Formula ready for Eval or a compile error.
func CompileFormula(src string) (*Formula, error) {
	if src == "" {
		return nil, fmt.Errorf("output.CompileFormula: empty formula")
	}
	program, err := expr.Compile(src, expr.Env(FormulaEnv{}), expr.AsFloat64())
	if err != nil {
		return nil, fmt.Errorf("output.CompileFormula: compiling %q: %w", src, err)
	}
	return &Formula{Source: src, program: program}, nil
}

// Eval evaluates the formula for o.
func (f *Formula) Eval(o Output) (float64, error) {
	result, err := vm.Run(f.program, envFor(o))
	if err != nil {
		return 0, fmt.Errorf("output.Formula.Eval: %w", err)
	}
	v, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("output.Formula.Eval: %q produced %T", f.Source, result)
	}
	return v, nil
}

// ValueF adapts the formula to a ValueF. Evaluation errors score zero.
func (f *Formula) ValueF() ValueF {
	return func(o Output) float64 {
		v, err := f.Eval(o)
		if err != nil {
			return 0
		}
		return v
	}
}
