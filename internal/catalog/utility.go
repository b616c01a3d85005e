package catalog

import (
	"fmt"
	"time"

	"github.com/quarterbit/formulary/internal/types"
)

// ageReferenceDate is swappable so age_from_date stays testable.
var ageReferenceDate = time.Now

// registerUtility installs the utility category.
func registerUtility(c *Catalog) {
	c.Register("clamp", func(args []any) (any, error) {
		xs, err := numericArgs("clamp", args)
		if err != nil {
			return nil, err
		}
		x, lo, hi := xs[0], xs[1], xs[2]
		if lo > hi {
			return nil, fmt.Errorf("clamp: lower bound %v above upper bound %v", lo, hi)
		}
		if x < lo {
			return lo, nil
		}
		if x > hi {
			return hi, nil
		}
		return x, nil
	}, Metadata{Category: "utility", Params: "x, low, high", Returns: "number", Description: "x limited to [low, high]", MinArgs: 3, MaxArgs: 3})

	c.Register("normalize", func(args []any) (any, error) {
		xs, err := numericArgs("normalize", args)
		if err != nil {
			return nil, err
		}
		x, lo, hi := xs[0], xs[1], xs[2]
		if hi == lo {
			return nil, fmt.Errorf("normalize: degenerate range [%v, %v]: %w", lo, hi, types.ErrDivisionByZero)
		}
		return (x - lo) / (hi - lo), nil
	}, Metadata{Category: "utility", Params: "x, min, max", Returns: "number", Description: "x rescaled to [0, 1] over [min, max]", MinArgs: 3, MaxArgs: 3})

	c.Register("coalesce", func(args []any) (any, error) {
		for _, a := range args {
			if a == nil {
				continue
			}
			if s, ok := a.(string); ok && s == "" {
				continue
			}
			return a, nil
		}
		return nil, nil
	}, Metadata{Category: "utility", Params: "x, ...", Returns: "any", Description: "first non-null, non-empty argument", MinArgs: 1, MaxArgs: -1})

	c.Register("default_if_null", func(args []any) (any, error) {
		if args[0] == nil {
			return args[1], nil
		}
		if s, ok := args[0].(string); ok && s == "" {
			return args[1], nil
		}
		return args[0], nil
	}, Metadata{Category: "utility", Params: "x, default", Returns: "any", Description: "x, or default when x is null/empty", MinArgs: 2, MaxArgs: 2})

	c.Register("bmi", func(args []any) (any, error) {
		xs, err := numericArgs("bmi", args)
		if err != nil {
			return nil, err
		}
		weight, height := xs[0], xs[1]
		if height <= 0 {
			return nil, fmt.Errorf("bmi: height must be positive, got %v: %w", height, types.ErrMathDomain)
		}
		return weight / (height * height), nil
	}, Metadata{Category: "utility", Params: "weight_kg, height_m", Returns: "number", Description: "body mass index", MinArgs: 2, MaxArgs: 2})

	c.Register("age_from_date", func(args []any) (any, error) {
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("age_from_date: argument must be a date string, got %v", args[0])
		}
		birth, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("age_from_date: invalid date %q: %w", s, err)
		}
		now := ageReferenceDate()
		years := now.Year() - birth.Year()
		if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
			years--
		}
		if years < 0 {
			return nil, fmt.Errorf("age_from_date: date %q is in the future", s)
		}
		return float64(years), nil
	}, Metadata{Category: "utility", Params: "date (YYYY-MM-DD)", Returns: "number", Description: "whole years elapsed since date", MinArgs: 1, MaxArgs: 1})
}
