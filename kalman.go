package main

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Tolerances for deciding when an innovation variance counts as zero. The
// diffuse prior starts from an identity matrix, so diffuse variances are
// O(z'z) and an absolute cutoff is adequate.
const (
	diffuseFTol = 1e-8
	zeroFTol    = 1e-12
)

// KalmanFilter is the default LinearGaussianFilter: a sequential
// (univariate) filter specialized to a constant state with identity
// transition and no process noise, so the prediction step is a no-op.
// Observation rows are applied one at a time, which absorbs the
// zero-variance constraint rows without any matrix inversion, and the
// diffuse prior is resolved with the exact univariate updates of Koopman
// and Durbin.
type KalmanFilter struct{}

// Filter runs the forward recursion over the full sample.
func (kf *KalmanFilter) Filter(ss *StateSpace) (*FilterResult, error) {
	n, k, m := ss.NObs, ss.KStates, ss.KConstraints
	if n == 0 || k == 0 {
		return nil, fmt.Errorf("%w: empty state space (n=%d, k=%d)", ErrSpecification, n, k)
	}

	a := mat.NewVecDense(k, nil)
	P := mat.NewSymDense(k, nil)
	Pinf := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		Pinf.SetSym(i, i, 1.0)
	}
	diffuseRank := k

	res := &FilterResult{
		NObs:                      n,
		KStates:                   k,
		KConstraints:              m,
		FilteredState:             mat.NewDense(n, k, nil),
		FilteredStateCov:          make([]*mat.SymDense, n),
		StandardizedForecastError: make([]float64, n),
		ScaleObs:                  make([]float64, n),
		NMissing:                  make([]int, n),
	}

	vReal := make([]float64, n)
	fReal := make([]float64, n)
	diffuseRow := make([]bool, n)
	sumLogFinf := 0.0

	for t := 0; t < n; t++ {
		if diffuseRank > 0 {
			res.NobsDiffuse++
		}

		// Real observation row
		y := ss.Obs.At(t, 0)
		if math.IsNaN(y) {
			res.NMissing[t] = 1
			res.StandardizedForecastError[t] = math.NaN()
			vReal[t] = math.NaN()
			fReal[t] = math.NaN()
		} else {
			z := ss.Design.RawRowView(t)
			v, F, Finf, wasDiffuse := kf.step(a, P, Pinf, &diffuseRank, z, y, ss.ObsVar[0])
			vReal[t], fReal[t] = v, F
			diffuseRow[t] = wasDiffuse
			if wasDiffuse {
				// No standardizable one-step forecast while diffuse
				res.StandardizedForecastError[t] = math.NaN()
				sumLogFinf += math.Log(Finf)
			} else {
				res.StandardizedForecastError[t] = v / math.Sqrt(F)
			}
		}

		// Constraint rows: exact observations with zero noise. They bind
		// the state to R*beta = q on first contact and stay satisfied
		// afterwards, so they never produce a forecast error.
		for j := 0; j < m; j++ {
			z := ss.Constr.RawRowView(j)
			_, _, Finf, wasDiffuse := kf.step(a, P, Pinf, &diffuseRank, z, ss.Obs.At(t, 1+j), 0)
			if wasDiffuse {
				sumLogFinf += math.Log(Finf)
			}
		}

		// Snapshot the posterior for this period
		res.FilteredState.SetRow(t, a.RawVector().Data)
		cov := mat.NewSymDense(k, nil)
		cov.CopySym(P)
		res.FilteredStateCov[t] = cov
	}

	// Concentrated scale: average per-observation contribution v^2/F over
	// the post-burn, non-missing real observations.
	d := max(res.NobsDiffuse, res.LoglikelihoodBurn)
	sumLogF := 0.0
	scaleSum := 0.0
	nEff := 0
	for t := d; t < n; t++ {
		if res.NMissing[t] == 1 || diffuseRow[t] {
			continue
		}
		res.ScaleObs[t] = vReal[t] * vReal[t] / fReal[t]
		scaleSum += res.ScaleObs[t]
		sumLogF += math.Log(fReal[t])
		nEff++
	}
	if nEff > 0 {
		res.Scale = scaleSum / float64(nEff)
	} else {
		res.Scale = math.NaN()
	}

	// Concentrated log-likelihood with the diffuse correction term
	res.Loglikelihood = -0.5*sumLogFinf -
		0.5*float64(nEff)*(math.Log(2*math.Pi)+1+math.Log(res.Scale)) -
		0.5*sumLogF

	return res, nil
}

// Smooth runs the forward recursion and then the backward pass. The state
// is constant, so the backward recursion collapses: the smoothed mean and
// covariance at every t equal the final filtered mean and covariance.
func (kf *KalmanFilter) Smooth(ss *StateSpace) (*SmoothResult, error) {
	fr, err := kf.Filter(ss)
	if err != nil {
		return nil, err
	}

	n, k := fr.NObs, fr.KStates
	final := fr.FilteredState.RawRowView(n - 1)
	finalCov := fr.FilteredStateCov[n-1]

	smoothed := mat.NewDense(n, k, nil)
	covs := make([]*mat.SymDense, n)
	for t := 0; t < n; t++ {
		smoothed.SetRow(t, final)
		cov := mat.NewSymDense(k, nil)
		cov.CopySym(finalCov)
		covs[t] = cov
	}

	return &SmoothResult{
		FilterResult:     *fr,
		SmoothedState:    smoothed,
		SmoothedStateCov: covs,
	}, nil
}

// step applies a single observation row z with value y and noise variance h
// to the state. Returns the innovation, its finite and diffuse forecast
// variances, and whether the row consumed one unit of diffuse rank.
func (kf *KalmanFilter) step(a *mat.VecDense, P, Pinf *mat.SymDense, diffuseRank *int, z []float64, y, h float64) (v, F, Finf float64, diffuse bool) {
	k := a.Len()
	zv := mat.NewVecDense(k, z)

	var gain, gainInf mat.VecDense
	gain.MulVec(P, zv)
	gainInf.MulVec(Pinf, zv)

	v = y - mat.Dot(zv, a)
	F = mat.Dot(zv, &gain) + h
	Finf = mat.Dot(zv, &gainInf)

	if *diffuseRank > 0 && Finf > diffuseFTol {
		// Exact diffuse update (Koopman-Durbin):
		//   a'    = a + Kinf v / Finf
		//   P'    = P + Kinf Kinf' F / Finf^2 - (K Kinf' + Kinf K') / Finf
		//   Pinf' = Pinf - Kinf Kinf' / Finf
		a.AddScaledVec(a, v/Finf, &gainInf)
		P.SymRankOne(P, F/(Finf*Finf), &gainInf)
		P.RankTwo(P, -1.0/Finf, &gain, &gainInf)
		Pinf.SymRankOne(Pinf, -1.0/Finf, &gainInf)
		*diffuseRank--
		return v, F, Finf, true
	}

	if F > zeroFTol {
		a.AddScaledVec(a, v/F, &gain)
		P.SymRankOne(P, -1.0/F, &gain)
		return v, F, 0, false
	}

	// Degenerate row: an exact constraint that is already enforced, v ~ 0.
	return v, F, 0, false
}
