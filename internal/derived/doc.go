// Package derived computes the discount/premium, return and risk metrics of a
// closed-end fund from its normalized price/NAV table.
//
// # Components
//
//   - formulas.go: the metric formulas over series.Series
//   - frame.go: Frame, the English-named output table with a date axis
//   - calculator.go: Calculator, which applies the formulas in two phases
//   - types.go: Params and column names
//
// # Phases
//
// Forward returns look H rows ahead, so they are computed on the full
// history before any date filter. Everything else is computed on the
// filtered rows:
//
//	frame, err := calc.DeriveReturns(ctx, table)
//	if err != nil {
//	    return err
//	}
//	frame = frame.FilterBefore(cutoff)
//	if err := calc.DeriveRisk(ctx, frame); err != nil {
//	    return err
//	}
//
// # Missing Values
//
// Every result passes through series.Finite. A division by zero, a zero
// standard deviation or a zero range yields a missing cell, never an error.
// Calculator only fails when a required column is absent.
package derived
