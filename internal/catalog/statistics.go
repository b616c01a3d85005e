package catalog

import (
	"math"
	"sort"
)

// registerStatistics installs the statistics category. All functions are
// variadic over their samples; variance and stddev are population forms.
func registerStatistics(c *Catalog) {
	num := func(name, desc string, min int, fn func(xs []float64) (float64, error)) {
		c.Register(name, func(args []any) (any, error) {
			xs, err := numericArgs(name, args)
			if err != nil {
				return nil, err
			}
			return fn(xs)
		}, Metadata{Category: "statistics", Params: "x, ...", Returns: "number", Description: desc, MinArgs: min, MaxArgs: -1})
	}

	num("sum", "sum of arguments", 0, func(xs []float64) (float64, error) {
		s := 0.0
		for _, x := range xs {
			s += x
		}
		return s, nil
	})
	num("count", "number of arguments", 0, func(xs []float64) (float64, error) {
		return float64(len(xs)), nil
	})
	num("avg", "arithmetic mean", 1, func(xs []float64) (float64, error) {
		s := 0.0
		for _, x := range xs {
			s += x
		}
		return s / float64(len(xs)), nil
	})
	num("median", "middle value (mean of middle pair for even counts)", 1, func(xs []float64) (float64, error) {
		sorted := make([]float64, len(xs))
		copy(sorted, xs)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			return sorted[mid], nil
		}
		return (sorted[mid-1] + sorted[mid]) / 2, nil
	})
	num("variance", "population variance", 1, func(xs []float64) (float64, error) {
		return populationVariance(xs), nil
	})
	num("stddev", "population standard deviation", 1, func(xs []float64) (float64, error) {
		return math.Sqrt(populationVariance(xs)), nil
	})
}

func populationVariance(xs []float64) float64 {
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	v := 0.0
	for _, x := range xs {
		d := x - mean
		v += d * d
	}
	return v / float64(len(xs))
}
