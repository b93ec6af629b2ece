package main

import (
	"gonum.org/v1/gonum/mat"
)

// --- STATE SPACE BUILDER ---

// buildStateSpace constructs the filtering representation of the regression:
// identity transition (the coefficient vector is constant, which makes OLS a
// limiting case of a non-moving state), one real observation row per time
// step and, when constraints are present, m degenerate rows enforcing
// R*beta = q with zero observation noise. Initialization is diffuse: there
// is no prior belief about the coefficients before the first observation.
func buildStateSpace(endog []float64, exog *mat.Dense, spec RegressionSpec) *StateSpace {
	n, k := exog.Dims()
	m := spec.KConstraints

	obs := mat.NewDense(n, 1+m, nil)
	for t := 0; t < n; t++ {
		obs.Set(t, 0, endog[t])
		for j := 0; j < m; j++ {
			obs.Set(t, 1+j, spec.Q.AtVec(j))
		}
	}

	obsVar := make([]float64, 1+m)
	obsVar[0] = 1 // arbitrary: the concentrated filter output does not depend on it

	transition := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		transition.Set(i, i, 1.0)
	}

	var constr *mat.Dense
	if m > 0 {
		constr = mat.DenseCopyOf(spec.R)
	}

	return &StateSpace{
		NObs:         n,
		KStates:      k,
		KConstraints: m,
		Obs:          obs,
		Design:       mat.DenseCopyOf(exog),
		Constr:       constr,
		ObsVar:       obsVar,
		Transition:   transition,
	}
}
