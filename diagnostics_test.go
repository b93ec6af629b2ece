package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// fitRunningMeanN fits an intercept-only model on y = 1..n.
func fitRunningMeanN(t *testing.T, n int) *RecursiveLSResult {
	t.Helper()
	endog := make([]float64, n)
	ones := make([]float64, n)
	for i := range endog {
		endog[i] = float64(i + 1)
		ones[i] = 1
	}
	model, err := NewRecursiveLS(endog, ColumnMatrix(ones), []string{"const"}, nil)
	require.NoError(t, err)
	res, err := model.Fit()
	require.NoError(t, err)
	return res
}

func TestResidRecursive_ClosedForm(t *testing.T) {
	res := fitRunningMean(t)
	resid := res.ResidRecursive()

	require.Len(t, resid, 5)
	require.True(t, math.IsNaN(resid[0]))

	// v_t * sqrt(scale / F_t) with scale = 2.5
	want := []float64{
		math.Sqrt(1.25),        // 1 * sqrt(2.5/2)
		1.5 * math.Sqrt(5.0/3), // 1.5 * sqrt(2.5/1.5)
		2 * math.Sqrt(1.875),   // 2 * sqrt(2.5/(4/3))
		2.5 * math.Sqrt(2),     // 2.5 * sqrt(2.5/1.25)
	}
	for i, w := range want {
		require.InDelta(t, w, resid[i+1], 1e-12)
	}
}

func TestCusum_StartsAtZero(t *testing.T) {
	res := fitRunningMean(t)
	cusum := res.Cusum()

	n, d := res.Filter.NObs, res.Burn()
	require.Len(t, cusum, n-d)
	require.Equal(t, 0.0, cusum[0])

	// first accumulated term: resid[d+1] standardized by the ddof=1 std of
	// the post-burn residuals
	require.InDelta(t, 1.86225, cusum[1], 1e-4)

	// upward-trending residuals give a monotone path
	for i := 1; i < len(cusum); i++ {
		require.Greater(t, cusum[i], cusum[i-1])
	}
}

func TestCusumSquares_ClosedForm(t *testing.T) {
	res := fitRunningMean(t)
	squares := res.CusumSquares()

	// squared residuals from d+1 on: 3.75, 7.5, 12.5 with total 23.75
	want := []float64{0, 3.0 / 19, 9.0 / 19, 1}
	require.Len(t, squares, len(want))
	for i, w := range want {
		require.InDelta(t, w, squares[i], 1e-12)
	}

	// path is monotone and stays inside [0, 1]
	for i := 1; i < len(squares); i++ {
		require.GreaterOrEqual(t, squares[i], squares[i-1])
		require.LessOrEqual(t, squares[i], 1.0)
	}
}

func TestCusumSignificanceBounds_Endpoints(t *testing.T) {
	res := fitRunningMean(t)

	// n=5, d=1: upper line runs from 0.948*sqrt(4) to 3*0.948*sqrt(4)
	lower, upper, err := res.CusumSignificanceBounds(0.05, nil)
	require.NoError(t, err)
	require.Len(t, upper, 2)
	require.InDelta(t, 1.896, upper[0], 1e-9)
	require.InDelta(t, 5.688, upper[1], 1e-9)
	require.InDelta(t, -1.896, lower[0], 1e-9)
	require.InDelta(t, -5.688, lower[1], 1e-9)
}

func TestCusumSignificanceBounds_Levels(t *testing.T) {
	res := fitRunningMean(t)

	for _, alpha := range []float64{0.01, 0.05, 0.10} {
		_, _, err := res.CusumSignificanceBounds(alpha, nil)
		require.NoError(t, err, "alpha=%g", alpha)
	}
	for _, alpha := range []float64{0.07, 0.5, 0} {
		_, _, err := res.CusumSignificanceBounds(alpha, nil)
		require.ErrorIs(t, err, ErrUnsupportedLevel, "alpha=%g", alpha)
	}
}

func TestCusumSignificanceBounds_PointRange(t *testing.T) {
	res := fitRunningMean(t)

	_, _, err := res.CusumSignificanceBounds(0.05, []float64{0, 5})
	require.NoError(t, err)

	_, _, err = res.CusumSignificanceBounds(0.05, []float64{-1})
	require.ErrorIs(t, err, ErrOutOfSample)

	_, _, err = res.CusumSignificanceBounds(0.05, []float64{6})
	require.ErrorIs(t, err, ErrOutOfSample)
}

func TestCusumSquaresSignificanceBounds_CriticalValue(t *testing.T) {
	res := fitRunningMeanN(t, 10)

	// n=10, d=1: nu = 3.5, tabulated tail 0.025
	lower, upper, err := res.CusumSquaresSignificanceBounds(0.05, []float64{1, 10})
	require.NoError(t, err)

	crit := upper[0] // expectation line is zero at x=d
	require.InDelta(t, 0.39918, crit, 2e-4)
	require.InDelta(t, -crit, lower[0], 1e-12)
	require.InDelta(t, 1+crit, upper[1], 1e-12)
	require.InDelta(t, 1-crit, lower[1], 1e-12)
}

func TestCusumSquaresSignificanceBounds_Levels(t *testing.T) {
	res := fitRunningMeanN(t, 10)

	for _, alpha := range []float64{0.2, 0.1, 0.05, 0.02, 0.01} {
		_, _, err := res.CusumSquaresSignificanceBounds(alpha, nil)
		require.NoError(t, err, "alpha=%g", alpha)
	}
	_, _, err := res.CusumSquaresSignificanceBounds(0.15, nil)
	require.ErrorIs(t, err, ErrUnsupportedLevel)
}

func TestGoodnessOfFit_RunningMean(t *testing.T) {
	res := fitRunningMean(t)

	require.InDelta(t, 10.0, res.SSR(), 1e-12)  // 4 * 2.5
	require.InDelta(t, 10.0, res.TSS(), 1e-12)  // centered: constant column present
	require.InDelta(t, 0.0, res.ESS(), 1e-12)
	require.InDelta(t, 0.0, res.RSquared(), 1e-12)

	require.InDelta(t, 1.0, res.DFModel(), 1e-12)
	require.InDelta(t, 3.0, res.DFResid(), 1e-12)
	require.InDelta(t, 10.0/3, res.MSEResid(), 1e-12)
	require.InDelta(t, 2.5, res.MSETotal(), 1e-12) // 10 / (1+3)
}

func TestGoodnessOfFit_UncenteredWithoutConstant(t *testing.T) {
	endog := []float64{1, 2, 3}
	exog := ColumnMatrix([]float64{1, 2, 3}) // slope regressor, no constant

	model, err := NewRecursiveLS(endog, exog, nil, nil)
	require.NoError(t, err)
	res, err := model.Fit()
	require.NoError(t, err)

	require.False(t, model.HasConstant)
	require.InDelta(t, 14.0, res.TSS(), 1e-12) // 1 + 4 + 9, uncentered

	// perfect fit: forecast errors past the burn period are zero
	require.InDelta(t, 0.0, res.SSR(), 1e-12)
	require.InDelta(t, 1.0, res.RSquared(), 1e-12)
}

func TestLLFRecursive_MatchesGaussianDensity(t *testing.T) {
	res := fitRunningMean(t)
	obs := res.LLFRecursiveObs()

	require.Len(t, obs, 5)
	require.True(t, math.IsNaN(obs[0]))

	// direct Gaussian density at the estimated scale
	resid := res.ResidRecursive()
	scale := res.Filter.Scale
	sum := 0.0
	for i := 1; i < len(obs); i++ {
		want := -0.5*math.Log(2*math.Pi*scale) - resid[i]*resid[i]/(2*scale)
		require.InDelta(t, want, obs[i], 1e-12)
		sum += want
	}
	require.InDelta(t, sum, res.LLFRecursive(), 1e-12)
}
