package catalog

import (
	"fmt"
	"math"

	"github.com/quarterbit/formulary/internal/types"
)

// registerArithmetic installs the arithmetic category.
// Domain faults (sqrt/log of non-positive input) are hard errors, never NaN.
func registerArithmetic(c *Catalog) {
	num := func(name, params, desc string, min, max int, fn func(xs []float64) (float64, error)) {
		c.Register(name, func(args []any) (any, error) {
			xs, err := numericArgs(name, args)
			if err != nil {
				return nil, err
			}
			return fn(xs)
		}, Metadata{Category: "arithmetic", Params: params, Returns: "number", Description: desc, MinArgs: min, MaxArgs: max})
	}

	num("abs", "x", "absolute value", 1, 1, func(xs []float64) (float64, error) {
		return math.Abs(xs[0]), nil
	})
	num("min", "x, ...", "smallest argument", 1, -1, func(xs []float64) (float64, error) {
		m := xs[0]
		for _, x := range xs[1:] {
			if x < m {
				m = x
			}
		}
		return m, nil
	})
	num("max", "x, ...", "largest argument", 1, -1, func(xs []float64) (float64, error) {
		m := xs[0]
		for _, x := range xs[1:] {
			if x > m {
				m = x
			}
		}
		return m, nil
	})
	num("sqrt", "x", "square root", 1, 1, func(xs []float64) (float64, error) {
		if xs[0] < 0 {
			return 0, fmt.Errorf("sqrt of negative number %v: %w", xs[0], types.ErrMathDomain)
		}
		return math.Sqrt(xs[0]), nil
	})
	num("round", "x [, digits]", "round to nearest integer or to digits", 1, 2, func(xs []float64) (float64, error) {
		if len(xs) == 2 {
			p := math.Pow(10, xs[1])
			return math.Round(xs[0]*p) / p, nil
		}
		return math.Round(xs[0]), nil
	})
	num("ceil", "x", "round up", 1, 1, func(xs []float64) (float64, error) {
		return math.Ceil(xs[0]), nil
	})
	num("floor", "x", "round down", 1, 1, func(xs []float64) (float64, error) {
		return math.Floor(xs[0]), nil
	})
	num("pow", "base, exponent", "base raised to exponent", 2, 2, func(xs []float64) (float64, error) {
		return math.Pow(xs[0], xs[1]), nil
	})
	num("log", "x", "natural logarithm", 1, 1, func(xs []float64) (float64, error) {
		if xs[0] <= 0 {
			return 0, fmt.Errorf("log of non-positive number %v: %w", xs[0], types.ErrMathDomain)
		}
		return math.Log(xs[0]), nil
	})
	num("exp", "x", "e raised to x", 1, 1, func(xs []float64) (float64, error) {
		return math.Exp(xs[0]), nil
	})
	num("sin", "x", "sine (radians)", 1, 1, func(xs []float64) (float64, error) {
		return math.Sin(xs[0]), nil
	})
	num("cos", "x", "cosine (radians)", 1, 1, func(xs []float64) (float64, error) {
		return math.Cos(xs[0]), nil
	})
	num("tan", "x", "tangent (radians)", 1, 1, func(xs []float64) (float64, error) {
		return math.Tan(xs[0]), nil
	})
}
