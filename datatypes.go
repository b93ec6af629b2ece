package main

import (
	"gonum.org/v1/gonum/mat"
)

// RegressionSpec is the immutable description of the problem: k exogenous
// regressors and m linear equality constraints R*beta = q. R always has
// exactly k columns and m <= k.
type RegressionSpec struct {
	// Number of exogenous regressors
	KExog int
	// Number of equality constraints (0 when unconstrained)
	KConstraints int
	// Constraint matrix, m x k (nil when unconstrained)
	R *mat.Dense
	// Constraint values, length m (nil when unconstrained)
	Q *mat.VecDense
}

// Constraints is a validated set of linear equality constraints R*beta = q,
// produced by NewConstraints, ConstraintMatrix or ParseConstraints.
type Constraints struct {
	R *mat.Dense
	Q *mat.VecDense
}

// StateSpace is the linear-Gaussian encoding of the regression: a constant
// state (the coefficient vector) observed through one real equation per time
// step plus, if constraints exist, one degenerate zero-noise equation per
// constraint row.
type StateSpace struct {
	NObs         int
	KStates      int
	KConstraints int

	// Augmented observations, n x (1+m): the real response first, then m
	// copies of the corresponding entry of q (constant across t).
	Obs *mat.Dense
	// Real observation rows: the exogenous regressors, n x k
	Design *mat.Dense
	// Constraint rows R, m x k, time-invariant (nil when m == 0)
	Constr *mat.Dense
	// Observation noise variance per augmented row: [1, 0, ..., 0]. The
	// leading 1 is arbitrary under concentration; the zeros make the
	// constraint rows exact.
	ObsVar []float64
	// Identity k x k: the coefficient vector does not move
	Transition *mat.Dense
}

// ObservedSeries reports how many observed series the model has for all
// user-facing purposes. Constraint rows are a filtering device, so this is
// always 1.
func (ss *StateSpace) ObservedSeries() int { return 1 }

// FilterResult is the forward-pass output of a LinearGaussianFilter.
type FilterResult struct {
	NObs         int
	KStates      int
	KConstraints int

	// Coefficient estimate at each t using data through t, n x k (rows: time)
	FilteredState *mat.Dense
	// Unit-scale state covariance P_t at each t; multiply by a scale
	// estimate to get a covariance in response units
	FilteredStateCov []*mat.SymDense
	// One-step forecast error of the real observation divided by sqrt of
	// its forecast variance; NaN while the state is diffuse or the
	// response is missing
	StandardizedForecastError []float64
	// Per-observation scale contributions v_t^2 / F_t (zero before the
	// burn index and on missing observations)
	ScaleObs []float64
	// Concentrated measurement-noise scale, averaged over the post-burn
	// sample
	Scale float64
	// Number of initial periods consumed by diffuse initialization
	NobsDiffuse int
	// Additional periods to exclude from likelihood-based statistics
	LoglikelihoodBurn int
	// 1 where the response was missing, else 0
	NMissing []int
	// Concentrated log-likelihood of the sample
	Loglikelihood float64
}

// SmoothResult extends FilterResult with the backward-pass output.
type SmoothResult struct {
	FilterResult

	// Coefficient estimate at each t using the whole sample, n x k
	SmoothedState *mat.Dense
	// Unit-scale smoothed state covariance at each t
	SmoothedStateCov []*mat.SymDense
}

// LinearGaussianFilter is the capability this model needs from a filtering
// engine. The default implementation is KalmanFilter; anything satisfying
// the contract can be injected instead.
type LinearGaussianFilter interface {
	// Run the forward recursion over the full sample
	Filter(ss *StateSpace) (*FilterResult, error)
	// Run the forward recursion plus a backward pass over the full sample
	Smooth(ss *StateSpace) (*SmoothResult, error)
}

// RecursiveLS estimates a constant-coefficient regression by recursive
// (expanding window) least squares via the Kalman filter.
type RecursiveLS struct {
	// Response series, length n (NaN marks a missing observation)
	Endog []float64
	// Regressors, n x k
	Exog *mat.Dense
	// Parameter names, length k
	Names []string
	// Problem description including any constraints
	Model RegressionSpec
	// Whether the regressors include an intercept-equivalent column;
	// decides centered vs uncentered total sum of squares
	HasConstant bool
	// Filtering engine; defaults to KalmanFilter
	Engine LinearGaussianFilter
}

// RecursiveCoefficients bundles the per-t coefficient estimates.
type RecursiveCoefficients struct {
	// Filtered estimates, n x k (rows: time)
	Filtered *mat.Dense
	// Filtered covariances, rescaled by the concentrated scale
	FilteredCov []*mat.SymDense
	// Smoothed estimates; nil unless the result came from a smoothing pass
	Smoothed *mat.Dense
	// Smoothed covariances; nil unless smoothed
	SmoothedCov []*mat.SymDense
	// Offset of the coefficient block in the state vector
	Offset int
}

// ContrastResult holds a linear hypothesis test R*beta = q.
type ContrastResult struct {
	// R*beta at the anchoring time
	Effect []float64
	// Standard errors from R Sigma R'
	SD []float64
	// (effect - q) / sd
	Statistic []float64
	// Two-sided p-values under the reference distribution
	PValue []float64
	// Denominator degrees of freedom
	DFDenom float64
	// "t" or "norm"
	Distribution string
}

// TTestOptions selects how a point-in-time test picks its covariance.
// Loc and CovParams are mutually exclusive.
type TTestOptions struct {
	// Zero-indexed observation at which to anchor the test; nil means the
	// end of the sample
	Loc *int
	// Explicit covariance override (already in response units)
	CovParams *mat.SymDense
	// Use the Student-t reference distribution; nil means true
	UseT *bool
}

// RecursiveLSResult owns the output of a single filter or smooth pass. It is
// never mutated after construction; the lazily derived diagnostic series are
// memoized on first access.
type RecursiveLSResult struct {
	Model    *RecursiveLS
	Filter   *FilterResult
	Smoothed *SmoothResult // nil for a filter-only pass

	// Final coefficient estimate and its covariance in response units
	Params []float64
	Cov    *mat.SymDense

	// memoized diagnostics
	residRecursive []float64
	cusum          []float64
	cusumSquares   []float64
	llfObs         []float64
}

// ColumnMatrix promotes a plain series to a single-column regressor matrix.
func ColumnMatrix(xs []float64) *mat.Dense {
	data := make([]float64, len(xs))
	copy(data, xs)
	return mat.NewDense(len(xs), 1, data)
}
