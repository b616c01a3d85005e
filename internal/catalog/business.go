package catalog

import (
	"fmt"
	"math"

	"github.com/quarterbit/formulary/internal/types"
)

// registerBusiness installs the business category.
// Interest rates are decimal fractions (0.05 = 5%); percentage-style
// functions (percentage, discount, markup) take whole-number percents.
func registerBusiness(c *Catalog) {
	num := func(name, params, desc string, arity int, fn func(xs []float64) (float64, error)) {
		c.Register(name, func(args []any) (any, error) {
			xs, err := numericArgs(name, args)
			if err != nil {
				return nil, err
			}
			return fn(xs)
		}, Metadata{Category: "business", Params: params, Returns: "number", Description: desc, MinArgs: arity, MaxArgs: arity})
	}

	num("percentage", "value, percent", "percent of value", 2, func(xs []float64) (float64, error) {
		return xs[0] * xs[1] / 100, nil
	})
	num("simple_interest", "principal, rate, periods", "interest earned at a flat rate", 3, func(xs []float64) (float64, error) {
		return xs[0] * xs[1] * xs[2], nil
	})
	num("compound_interest", "principal, rate, periods", "interest earned with per-period compounding", 3, func(xs []float64) (float64, error) {
		return xs[0]*math.Pow(1+xs[1], xs[2]) - xs[0], nil
	})
	num("discount", "price, percent", "price after percent discount", 2, func(xs []float64) (float64, error) {
		return xs[0] * (1 - xs[1]/100), nil
	})
	num("markup", "cost, percent", "cost after percent markup", 2, func(xs []float64) (float64, error) {
		return xs[0] * (1 + xs[1]/100), nil
	})
	num("loan_payment", "principal, rate, periods", "fixed per-period annuity payment", 3, func(xs []float64) (float64, error) {
		principal, rate, periods := xs[0], xs[1], xs[2]
		if periods <= 0 {
			return 0, fmt.Errorf("loan_payment: periods must be positive, got %v: %w", periods, types.ErrMathDomain)
		}
		if rate == 0 {
			return principal / periods, nil
		}
		return principal * rate / (1 - math.Pow(1+rate, -periods)), nil
	})
}
