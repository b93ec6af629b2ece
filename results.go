package main

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// --- MODEL CONSTRUCTION ---

// NewRecursiveLS builds a recursive least squares model. names may be nil
// (parameters are then called x1..xk) and cons may be nil (unconstrained).
// A 1-D regressor series can be promoted with ColumnMatrix.
func NewRecursiveLS(endog []float64, exog *mat.Dense, names []string, cons *Constraints) (*RecursiveLS, error) {
	n := len(endog)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty response series", ErrSpecification)
	}
	if exog == nil {
		return nil, fmt.Errorf("%w: no regressors provided", ErrSpecification)
	}
	rows, k := exog.Dims()
	if rows != n {
		return nil, fmt.Errorf("%w: %d responses but %d regressor rows", ErrSpecification, n, rows)
	}

	if names == nil {
		names = make([]string, k)
		for j := 0; j < k; j++ {
			names[j] = fmt.Sprintf("x%d", j+1)
		}
	} else if len(names) != k {
		return nil, fmt.Errorf("%w: %d names for %d regressors", ErrSpecification, len(names), k)
	}

	spec := RegressionSpec{KExog: k}
	if cons != nil {
		if err := cons.check(k); err != nil {
			return nil, err
		}
		m, _ := cons.R.Dims()
		spec.KConstraints = m
		spec.R = mat.DenseCopyOf(cons.R)
		spec.Q = mat.VecDenseCopyOf(cons.Q)
	}

	y := make([]float64, n)
	copy(y, endog)

	return &RecursiveLS{
		Endog:       y,
		Exog:        mat.DenseCopyOf(exog),
		Names:       names,
		Model:       spec,
		HasConstant: hasConstantColumn(exog),
		Engine:      &KalmanFilter{},
	}, nil
}

// Filter runs the forward recursion only.
func (m *RecursiveLS) Filter() (*RecursiveLSResult, error) {
	ss := buildStateSpace(m.Endog, m.Exog, m.Model)
	fr, err := m.Engine.Filter(ss)
	if err != nil {
		return nil, err
	}
	return newResult(m, fr, nil), nil
}

// Smooth runs the forward recursion plus the backward pass.
func (m *RecursiveLS) Smooth() (*RecursiveLSResult, error) {
	ss := buildStateSpace(m.Endog, m.Exog, m.Model)
	sr, err := m.Engine.Smooth(ss)
	if err != nil {
		return nil, err
	}
	return newResult(m, &sr.FilterResult, sr), nil
}

// Fit fits the model by application of the Kalman filter, like Smooth.
func (m *RecursiveLS) Fit() (*RecursiveLSResult, error) {
	return m.Smooth()
}

func newResult(m *RecursiveLS, fr *FilterResult, sr *SmoothResult) *RecursiveLSResult {
	n, k := fr.NObs, fr.KStates
	params := make([]float64, k)
	copy(params, fr.FilteredState.RawRowView(n-1))
	return &RecursiveLSResult{
		Model:    m,
		Filter:   fr,
		Smoothed: sr,
		Params:   params,
		Cov:      scaledSym(fr.FilteredStateCov[n-1], fr.Scale),
	}
}

// hasConstantColumn reports whether any regressor column is a nonzero
// constant, i.e. an intercept equivalent.
func hasConstantColumn(exog *mat.Dense) bool {
	n, k := exog.Dims()
	for j := 0; j < k; j++ {
		v0 := exog.At(0, j)
		if v0 == 0 {
			continue
		}
		constant := true
		for i := 1; i < n; i++ {
			if exog.At(i, j) != v0 {
				constant = false
				break
			}
		}
		if constant {
			return true
		}
	}
	return false
}

// --- RECURSIVE ESTIMATES ---

// Burn is the number of initial periods excluded from all recursive-residual
// statistics: the filter has not accumulated enough information for a
// meaningful one-step forecast before it.
func (res *RecursiveLSResult) Burn() int {
	return max(res.Filter.NobsDiffuse, res.Filter.LoglikelihoodBurn)
}

// DFModel is the model degrees of freedom: the burn index less the number
// of constraints.
func (res *RecursiveLSResult) DFModel() float64 {
	return float64(res.Burn() - res.Filter.KConstraints)
}

// NobsEffective is the number of observations contributing to residual
// statistics: n less the burn periods and missing responses.
func (res *RecursiveLSResult) NobsEffective() float64 {
	d := res.Burn()
	nmiss := 0
	for t := d; t < res.Filter.NObs; t++ {
		nmiss += res.Filter.NMissing[t]
	}
	return float64(res.Filter.NObs - d - nmiss)
}

// DFResid is the residual degrees of freedom.
func (res *RecursiveLSResult) DFResid() float64 {
	return res.NobsEffective() - res.DFModel()
}

// RecursiveCoefficients returns the per-t coefficient estimates with their
// covariances, rescaled by the concentrated scale. Smoothed fields are nil
// unless the result came from a smoothing pass.
func (res *RecursiveLSResult) RecursiveCoefficients() *RecursiveCoefficients {
	fr := res.Filter
	n := fr.NObs

	out := &RecursiveCoefficients{
		Filtered:    mat.DenseCopyOf(fr.FilteredState),
		FilteredCov: make([]*mat.SymDense, n),
		Offset:      0,
	}
	for t := 0; t < n; t++ {
		out.FilteredCov[t] = scaledSym(fr.FilteredStateCov[t], fr.Scale)
	}

	if res.Smoothed != nil {
		out.Smoothed = mat.DenseCopyOf(res.Smoothed.SmoothedState)
		out.SmoothedCov = make([]*mat.SymDense, n)
		for t := 0; t < n; t++ {
			out.SmoothedCov[t] = scaledSym(res.Smoothed.SmoothedStateCov[t], fr.Scale)
		}
	}
	return out
}

// --- POINT-IN-TIME HYPOTHESIS TESTS ---

// PointInTimeTest evaluates the linear hypothesis R*beta = q against the
// filtered estimate at a chosen time. By default the test anchors at the end
// of the sample; opts.Loc anchors it earlier, in which case the covariance
// is rescaled by scale(t)/scale(n) to compensate for the filter's
// full-sample scale bookkeeping. opts.CovParams substitutes an explicit
// covariance and cannot be combined with Loc.
func (res *RecursiveLSResult) PointInTimeTest(R *mat.Dense, q []float64, opts *TTestOptions) (*ContrastResult, error) {
	if opts == nil {
		opts = &TTestOptions{}
	}
	if opts.Loc != nil && opts.CovParams != nil {
		return nil, fmt.Errorf("%w: cannot use Loc together with CovParams", ErrUnsupportedCombination)
	}
	if R == nil {
		return nil, fmt.Errorf("%w: contrast matrix is nil", ErrSpecification)
	}
	p, cols := R.Dims()
	k := res.Filter.KStates
	if cols != k {
		return nil, fmt.Errorf("%w: contrast matrix has %d columns for %d parameters",
			ErrSpecification, cols, k)
	}

	qv := make([]float64, p)
	switch len(q) {
	case 0:
		// hypothesis value zero
	case 1:
		for i := range qv {
			qv[i] = q[0]
		}
	case p:
		copy(qv, q)
	default:
		return nil, fmt.Errorf("%w: %d contrast rows but %d hypothesis values",
			ErrSpecification, p, len(q))
	}

	n := res.Filter.NObs
	t := n - 1
	if opts.Loc != nil {
		t = *opts.Loc
		if t < 0 || t >= n {
			return nil, fmt.Errorf("%w: test location %d with %d observations",
				ErrOutOfSample, t, n)
		}
	}

	d := res.Burn()
	params := res.Filter.FilteredState.RawRowView(t)

	covP := opts.CovParams
	if covP == nil {
		// Average per-observation scale accumulated through t
		scaleT, _ := res.scaleThrough(t)
		covP = scaledSym(res.Filter.FilteredStateCov[t], scaleT)
	}

	var rc mat.Dense
	rc.Mul(R, covP)
	var rcr mat.Dense
	rcr.Mul(&rc, R.T())

	nmiss := 0
	for i := d; i <= t; i++ {
		nmiss += res.Filter.NMissing[i]
	}
	nobsEffective := float64(t + 1 - d - nmiss)
	dfResid := nobsEffective - res.DFModel()

	useT := true
	if opts.UseT != nil {
		useT = *opts.UseT
	}

	out := &ContrastResult{
		Effect:    make([]float64, p),
		SD:        make([]float64, p),
		Statistic: make([]float64, p),
		PValue:    make([]float64, p),
		DFDenom:   dfResid,
	}
	var twoSided func(float64) float64
	if useT {
		out.Distribution = "t"
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dfResid}
		twoSided = func(s float64) float64 { return 2 * dist.Survival(math.Abs(s)) }
	} else {
		out.Distribution = "norm"
		dist := distuv.Normal{Mu: 0, Sigma: 1}
		twoSided = func(s float64) float64 { return 2 * dist.Survival(math.Abs(s)) }
	}

	for i := 0; i < p; i++ {
		e := 0.0
		for j := 0; j < k; j++ {
			e += R.At(i, j) * params[j]
		}
		out.Effect[i] = e
		out.SD[i] = math.Sqrt(rcr.At(i, i))
		out.Statistic[i] = (e - qv[i]) / out.SD[i]
		out.PValue[i] = twoSided(out.Statistic[i])
	}

	return out, nil
}

// scaleThrough computes the average per-observation scale accumulated over
// the post-burn observations up to and including t.
func (res *RecursiveLSResult) scaleThrough(t int) (float64, int) {
	d := res.Burn()
	sum := 0.0
	nmiss := 0
	for i := d; i <= t; i++ {
		sum += res.Filter.ScaleObs[i]
		nmiss += res.Filter.NMissing[i]
	}
	nEff := t + 1 - d - nmiss
	if nEff <= 0 {
		return math.NaN(), nmiss
	}
	return sum / float64(nEff), nmiss
}

// --- PREDICTION ---

// PredictOneStep returns the in-sample one-step-ahead predictions
// x_t' * beta_{t-1}. The first value uses the diffuse prior mean of zero.
func (res *RecursiveLSResult) PredictOneStep() []float64 {
	fr := res.Filter
	n, k := fr.NObs, fr.KStates
	out := make([]float64, n)
	for t := 1; t < n; t++ {
		prev := fr.FilteredState.RawRowView(t - 1)
		x := res.Model.Exog.RawRowView(t)
		v := 0.0
		for j := 0; j < k; j++ {
			v += x[j] * prev[j]
		}
		out[t] = v
	}
	return out
}

// Forecast produces out-of-sample predictions from the final coefficient
// estimate for the given future regressor rows. Not available under linear
// constraints: the constraint rows have no exogenous continuation.
func (res *RecursiveLSResult) Forecast(exogFuture *mat.Dense) ([]float64, error) {
	if res.Filter.KConstraints > 0 {
		return nil, fmt.Errorf("%w: out-of-sample prediction with linear constraints",
			ErrUnsupportedCombination)
	}
	if exogFuture == nil {
		return nil, fmt.Errorf("%w: no future regressors provided", ErrSpecification)
	}
	h, k := exogFuture.Dims()
	if k != res.Filter.KStates {
		return nil, fmt.Errorf("%w: future regressors have %d columns for %d parameters",
			ErrSpecification, k, res.Filter.KStates)
	}

	out := make([]float64, h)
	for i := 0; i < h; i++ {
		x := exogFuture.RawRowView(i)
		v := 0.0
		for j := 0; j < k; j++ {
			v += x[j] * res.Params[j]
		}
		out[i] = v
	}
	return out, nil
}

// scaledSym returns scale * P as a fresh symmetric matrix.
func scaledSym(p *mat.SymDense, scale float64) *mat.SymDense {
	k := p.SymmetricDim()
	out := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			out.SetSym(i, j, scale*p.At(i, j))
		}
	}
	return out
}
