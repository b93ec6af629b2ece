package main

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// --- RECURSIVE RESIDUALS ---

// ResidRecursive returns the recursive (standardized one-step forecast)
// residuals in response units, length n. Entries before the burn index and
// at missing observations are NaN.
func (res *RecursiveLSResult) ResidRecursive() []float64 {
	if res.residRecursive != nil {
		return res.residRecursive
	}

	fr := res.Filter
	n := fr.NObs
	d := res.Burn()
	sqrtScale := math.Sqrt(fr.Scale)

	out := make([]float64, n)
	for t := 0; t < n; t++ {
		if t < d {
			out[t] = math.NaN()
			continue
		}
		out[t] = fr.StandardizedForecastError[t] * sqrtScale
	}

	res.residRecursive = out
	return out
}

// postBurnResiduals collects the non-NaN recursive residuals from the burn
// index onward.
func (res *RecursiveLSResult) postBurnResiduals() []float64 {
	resid := res.ResidRecursive()
	d := res.Burn()
	out := make([]float64, 0, len(resid)-d)
	for t := d; t < len(resid); t++ {
		if !math.IsNaN(resid[t]) {
			out = append(out, resid[t])
		}
	}
	return out
}

// --- CUSUM ---

// Cusum returns the CUSUM statistic of Brown, Durbin and Evans, indexed
// t = d..n-1 where d is the burn index. The first entry is the empty sum,
// zero; entry i accumulates the residuals from d+1 through d+i, standardized
// by the ddof=1 standard deviation of the post-burn residuals. Under
// coefficient stability the path stays within CusumSignificanceBounds.
func (res *RecursiveLSResult) Cusum() []float64 {
	if res.cusum != nil {
		return res.cusum
	}

	resid := res.ResidRecursive()
	d := res.Burn()
	n := res.Filter.NObs
	sigma := stat.StdDev(res.postBurnResiduals(), nil)

	terms := make([]float64, n-d)
	for i := 1; i < n-d; i++ {
		terms[i] = resid[d+i] / sigma
	}
	out := make([]float64, n-d)
	floats.CumSum(out, terms)

	res.cusum = out
	return out
}

// CusumSquares returns the CUSUM-of-squares statistic, indexed like Cusum.
// The first entry is zero and the last is exactly one; a path escaping
// CusumSquaresSignificanceBounds signals parameter or variance instability.
func (res *RecursiveLSResult) CusumSquares() []float64 {
	if res.cusumSquares != nil {
		return res.cusumSquares
	}

	resid := res.ResidRecursive()
	d := res.Burn()
	n := res.Filter.NObs

	terms := make([]float64, n-d)
	for i := 1; i < n-d; i++ {
		terms[i] = resid[d+i] * resid[d+i]
	}
	out := make([]float64, n-d)
	floats.CumSum(out, terms)

	if len(out) > 0 {
		denom := out[len(out)-1]
		for i := range out {
			out[i] /= denom
		}
	}

	res.cusumSquares = out
	return out
}

// --- SIGNIFICANCE BOUNDS ---

// Scalars for the CUSUM crossing lines at the supported significance levels
// (Brown, Durbin, Evans 1975).
var cusumScalars = map[float64]float64{
	0.01: 1.143,
	0.05: 0.948,
	0.10: 0.950,
}

// Edgerton-Wells (1994) expansion coefficients for the CUSUM-of-squares
// critical value, one column per one-sided tail probability.
var (
	cusumSquaresTails = []float64{0.1, 0.05, 0.025, 0.01, 0.005}
	cusumSquaresC0    = []float64{1.0729830, 1.2238734, 1.3581015, 1.5174271, 1.6276236}
	cusumSquaresC1    = []float64{-0.6698868, -0.6700069, -0.6701218, -0.6702672, -0.6703724}
	cusumSquaresC2    = []float64{-0.5816458, -0.7351697, -0.8858694, -1.0847745, -1.2365861}
)

// CusumSignificanceBounds evaluates the straight-line CUSUM crossing bounds
// at the given x positions, measured in observation index units over [0, n].
// points may be nil, in which case the two endpoints d and n are used.
// Supported levels are 0.01, 0.05 and 0.10.
func (res *RecursiveLSResult) CusumSignificanceBounds(alpha float64, points []float64) (lower, upper []float64, err error) {
	scalar, ok := cusumScalars[alpha]
	if !ok {
		return nil, nil, fmt.Errorf("%w: no CUSUM scalar for alpha=%g", ErrUnsupportedLevel, alpha)
	}

	n := float64(res.Filter.NObs)
	d := float64(res.Burn())
	points, err = res.boundPoints(points, d, n)
	if err != nil {
		return nil, nil, err
	}

	// Line from (d, a*sqrt(n-d)) to (n, 3a*sqrt(n-d))
	root := math.Sqrt(n - d)
	lower = make([]float64, len(points))
	upper = make([]float64, len(points))
	for i, x := range points {
		u := scalar*root + 2*scalar*(x-d)/root
		upper[i] = u
		lower[i] = -u
	}
	return lower, upper, nil
}

// CusumSquaresSignificanceBounds evaluates the CUSUM-of-squares bounds: the
// expectation line (x-d)/(n-d) shifted up and down by the Edgerton-Wells
// critical value. Supported levels are the two-sided counterparts of the
// tabulated tails: 0.2, 0.1, 0.05, 0.02 and 0.01.
func (res *RecursiveLSResult) CusumSquaresSignificanceBounds(alpha float64, points []float64) (lower, upper []float64, err error) {
	col := -1
	for i, tail := range cusumSquaresTails {
		if math.Abs(alpha/2-tail) < 1e-12 {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, nil, fmt.Errorf("%w: no CUSUM-of-squares critical value for alpha=%g",
			ErrUnsupportedLevel, alpha)
	}

	n := float64(res.Filter.NObs)
	d := float64(res.Burn())
	points, err = res.boundPoints(points, d, n)
	if err != nil {
		return nil, nil, err
	}

	nu := 0.5*(n-d) - 1
	crit := cusumSquaresC0[col]/math.Sqrt(nu) +
		cusumSquaresC1[col]/nu +
		cusumSquaresC2[col]/math.Pow(nu, 1.5)

	lower = make([]float64, len(points))
	upper = make([]float64, len(points))
	for i, x := range points {
		line := (x - d) / (n - d)
		lower[i] = line - crit
		upper[i] = line + crit
	}
	return lower, upper, nil
}

func (res *RecursiveLSResult) boundPoints(points []float64, d, n float64) ([]float64, error) {
	if points == nil {
		return []float64{d, n}, nil
	}
	for _, x := range points {
		if x < 0 || x > n {
			return nil, fmt.Errorf("%w: bound position %g outside [0, %g]", ErrOutOfSample, x, n)
		}
	}
	out := make([]float64, len(points))
	copy(out, points)
	return out, nil
}

// --- GOODNESS OF FIT ---

// SSR is the sum of squared (standardized) recursive residuals, which under
// the concentrated filter equals the effective observation count times the
// scale.
func (res *RecursiveLSResult) SSR() float64 {
	return res.NobsEffective() * res.Filter.Scale
}

// CenteredTSS is the total sum of squares of the response around its mean,
// over the non-missing observations.
func (res *RecursiveLSResult) CenteredTSS() float64 {
	mean, count := 0.0, 0
	for _, y := range res.Model.Endog {
		if !math.IsNaN(y) {
			mean += y
			count++
		}
	}
	mean /= float64(count)

	tss := 0.0
	for _, y := range res.Model.Endog {
		if !math.IsNaN(y) {
			tss += (y - mean) * (y - mean)
		}
	}
	return tss
}

// UncenteredTSS is the raw total sum of squares of the response over the
// non-missing observations.
func (res *RecursiveLSResult) UncenteredTSS() float64 {
	tss := 0.0
	for _, y := range res.Model.Endog {
		if !math.IsNaN(y) {
			tss += y * y
		}
	}
	return tss
}

// TSS picks the centered or uncentered total sum of squares according to
// whether the regressors include a constant.
func (res *RecursiveLSResult) TSS() float64 {
	if res.Model.HasConstant {
		return res.CenteredTSS()
	}
	return res.UncenteredTSS()
}

// ESS is the explained sum of squares.
func (res *RecursiveLSResult) ESS() float64 {
	return res.TSS() - res.SSR()
}

// RSquared is the coefficient of determination, 1 - SSR/TSS.
func (res *RecursiveLSResult) RSquared() float64 {
	return 1 - res.SSR()/res.TSS()
}

// MSEModel is the explained sum of squares per model degree of freedom.
func (res *RecursiveLSResult) MSEModel() float64 {
	return res.ESS() / res.DFModel()
}

// MSEResid is the residual sum of squares per residual degree of freedom.
func (res *RecursiveLSResult) MSEResid() float64 {
	return res.SSR() / res.DFResid()
}

// MSETotal is the total sum of squares per total degree of freedom.
func (res *RecursiveLSResult) MSETotal() float64 {
	return res.TSS() / (res.DFModel() + res.DFResid())
}

// --- RECURSIVE LOG-LIKELIHOOD ---

// LLFRecursiveObs returns the per-observation Gaussian log-likelihood of the
// recursive residuals at the estimated scale, length n. Entries before the
// burn index and at missing observations are NaN.
func (res *RecursiveLSResult) LLFRecursiveObs() []float64 {
	if res.llfObs != nil {
		return res.llfObs
	}

	resid := res.ResidRecursive()
	dist := distuv.Normal{Mu: 0, Sigma: math.Sqrt(res.Filter.Scale)}

	out := make([]float64, len(resid))
	for t, r := range resid {
		if math.IsNaN(r) {
			out[t] = math.NaN()
			continue
		}
		out[t] = dist.LogProb(r)
	}

	res.llfObs = out
	return out
}

// LLFRecursive is the joint Gaussian log-likelihood of the recursive
// residuals.
func (res *RecursiveLSResult) LLFRecursive() float64 {
	sum := 0.0
	for _, v := range res.LLFRecursiveObs() {
		if !math.IsNaN(v) {
			sum += v
		}
	}
	return sum
}
