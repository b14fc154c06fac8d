package cmmodel

import (
	"fmt"
	"math"

	"bitbucket.org/dtolpin/infergo/dist"

	"github.com/JanBrauner/epimodel/delay"
	"github.com/JanBrauner/epimodel/renewal"
)

// Shift applied to the Gamma draw of the ICL effect prior, placing
// its mode slightly below zero.
var iclShift = math.Log(1.05) / 6

// State holds the deterministic quantities implied by one parameter
// vector: the effect coefficients, region reproduction numbers,
// latent infection curves, and expected daily counts.  Grids are flat
// [region, day] arrays over the full day range, or over the truncated
// day window for the explicit renewal process.
type State struct {
	// CMAlpha are the log-linear effect coefficients; nil for the
	// additive variant, which uses Weights instead.
	CMAlpha []float64

	// CMReduction[j] is the multiplicative effect of NPI j on R
	// when fully active.
	CMReduction []float64

	// Weights is the additive variant's simplex: the no-NPI share
	// followed by one share per NPI.
	Weights []float64

	// RegionR is each region's reproduction number with no NPIs
	// active.
	RegionR []float64

	// GrowthReduction[r*nDays+d] is subtracted from the region's
	// log R on day d.
	GrowthReduction []float64

	// ExpectedLogR is the log reproduction number before daily
	// noise.
	ExpectedLogR []float64

	GrowthCases  []float64
	GrowthDeaths []float64

	InfectedCases  []float64
	InfectedDeaths []float64

	ExpectedCases  []float64
	ExpectedDeaths []float64

	PhiCases  float64
	PhiDeaths float64
}

// Derive returns the deterministic state implied by a parameter
// vector, for posterior summaries and predictive checks.
func (m *Model) Derive(x []float64) *State {
	st := &State{}
	m.eval(x, st)
	return st
}

// eval computes the log joint density at x, filling st along the way
// when it is non-nil.  Observe and Derive are both thin wrappers over
// this one pass, so the density and the derived quantities cannot
// drift apart.
func (m *Model) eval(x []float64, st *State) float64 {

	if len(x) != m.ly.size() {
		panic(fmt.Sprintf("cmmodel: parameter vector has length %d, want %d", len(x), m.ly.size()))
	}

	c := &m.cfg
	nRs, nDs, nCMs := m.nRs, m.nDs, m.nCMs
	hasCases := c.Channels.hasCases()
	hasDeaths := c.Channels.hasDeaths()
	ll := 0.0

	// Effect coefficients.
	var alpha, weights []float64
	switch c.EffectPrior {
	case PriorNormal:
		alpha = m.ly.slice(x, blkCMAlpha)
		ll += dist.Normal.Logps(0, c.EffectPriorScale, alpha...)
	case PriorHalfNormal:
		u := m.ly.slice(x, blkCMAlpha)
		alpha = make([]float64, nCMs)
		for j, v := range u {
			a := math.Exp(renewal.ClampLog(v))
			alpha[j] = a
			ll += halfNormalLogp(c.EffectPriorScale, a) + v
		}
	case PriorICL:
		u := m.ly.slice(x, blkCMAlpha)
		alpha = make([]float64, nCMs)
		for j, v := range u {
			g := math.Exp(renewal.ClampLog(v))
			alpha[j] = g - iclShift
			ll += gammaLogp(1.0/6, 1, g) + v
		}
	case PriorDirichlet:
		raw := m.ly.slice(x, blkAllBeta)
		weights = make([]float64, nCMs+1)
		ll += stickBreak(raw, weights)
		ll += dirichletLogp(c.DirichletConc, weights)
	}

	var regionAlpha []float64
	if c.EffectPooling == PoolRegionVarying {
		regionAlpha = m.ly.slice(x, blkAllCMAlpha)
		for r := 0; r < nRs; r++ {
			for j := 0; j < nCMs; j++ {
				ll += dist.Normal.Logp(alpha[j], c.RegionVariationNoise, regionAlpha[r*nCMs+j])
			}
		}
	}

	// Growth reduction: the amount subtracted from log R on each
	// region-day.  The additive variant folds its R multiplier into
	// the same grid as -log(multiplier).
	gr := make([]float64, nRs*nDs)
	for r := 0; r < nRs; r++ {
		for d := 0; d < nDs; d++ {
			var v float64
			if weights != nil {
				mult := weights[0]
				for j := 0; j < nCMs; j++ {
					mult += weights[j+1] * (1 - m.active.At(r, j, d))
				}
				if mult < 1e-8 {
					mult = 1e-8
				}
				v = -math.Log(mult)
			} else {
				for j := 0; j < nCMs; j++ {
					a := alpha[j]
					if regionAlpha != nil {
						a = regionAlpha[r*nCMs+j]
					}
					v += a * m.active.At(r, j, d)
				}
			}
			gr[r*nDs+d] = v
		}
	}

	// Region reproduction numbers.
	baseLogR := make([]float64, nRs)
	regionR := make([]float64, nRs)
	switch c.Hierarchy {
	case NonCenteredR:
		u := m.ly.slice(x, blkHyperRVar)[0]
		hv := math.Exp(renewal.ClampLog(u))
		ll += halfNormalLogp(0.5, hv) + u
		noise := m.ly.slice(x, blkRegionRNoise)
		ll += dist.Normal.Logps(0, 1, noise...)
		for r, z := range noise {
			v := c.RHyperpriorMean + z*hv
			if v < 1e-8 {
				v = 1e-8
			}
			regionR[r] = v
			baseLogR[r] = math.Log(v)
		}
	case HierarchyLogNormal:
		mu := m.ly.slice(x, blkHyperRMean)[0]
		ll += studentTLogp(10, math.Log(c.RHyperpriorMean), 0.2, mu)
		u := m.ly.slice(x, blkHyperRVar)[0]
		hv := math.Exp(renewal.ClampLog(u))
		ll += halfStudentTLogp(10, 0.2, hv) + u
		lr := m.ly.slice(x, blkRegionLogR)
		ll += dist.Normal.Logps(mu, hv, lr...)
		for r, v := range lr {
			baseLogR[r] = v
			regionR[r] = math.Exp(renewal.ClampLog(v))
		}
	}

	eLogR := make([]float64, nRs*nDs)
	for r := 0; r < nRs; r++ {
		for d := 0; d < nDs; d++ {
			eLogR[r*nDs+d] = baseLogR[r] - gr[r*nDs+d]
		}
	}

	// Dispersion: fixed by configuration, or learned on the log
	// scale under a half-normal prior, either once for both channels
	// or per channel.
	phiC := c.PhiCases
	phiD := c.PhiDeaths
	if m.ly.has(blkPhi) {
		u := m.ly.slice(x, blkPhi)[0]
		p := math.Exp(renewal.ClampLog(u))
		ll += halfNormalLogp(c.PhiScale, p) + u
		phiC, phiD = p, p
	} else {
		if hasCases && phiC == 0 {
			u := m.ly.slice(x, blkPhiCases)[0]
			phiC = math.Exp(renewal.ClampLog(u))
			ll += halfNormalLogp(c.PhiScale, phiC) + u
		}
		if hasDeaths && phiD == 0 {
			u := m.ly.slice(x, blkPhiDeaths)[0]
			phiD = math.Exp(renewal.ClampLog(u))
			ll += halfNormalLogp(c.PhiScale, phiD) + u
		}
	}

	if st != nil {
		if alpha != nil {
			st.CMAlpha = append([]float64(nil), alpha...)
			st.CMReduction = make([]float64, nCMs)
			for j, a := range alpha {
				st.CMReduction[j] = math.Exp(-a)
			}
		} else {
			st.Weights = append([]float64(nil), weights...)
			st.CMReduction = make([]float64, nCMs)
			for j := 0; j < nCMs; j++ {
				st.CMReduction[j] = 1 - weights[j+1]
			}
		}
		st.RegionR = regionR
		st.GrowthReduction = gr
		st.ExpectedLogR = eLogR
		st.PhiCases = phiC
		st.PhiDeaths = phiD
	}

	if c.GrowthProcess == ExplicitRenewal {
		return ll + m.evalRenewal(x, eLogR, phiC, phiD, st)
	}
	return ll + m.evalClosedForm(x, eLogR, phiC, phiD, st)
}

// evalClosedForm adds the latent-process and observation terms under
// the growth-rate approximation: log R maps to a daily growth rate,
// daily noise perturbs it, and infections are the exponentiated
// cumulative sum from a wide log initial size.
func (m *Model) evalClosedForm(x, eLogR []float64, phiC, phiD float64, st *State) float64 {

	c := &m.cfg
	nRs, nDs := m.nRs, m.nDs
	hasCases := c.Channels.hasCases()
	hasDeaths := c.Channels.hasDeaths()
	ll := 0.0

	var noiseC, noiseD []float64
	switch {
	case c.DailyGrowthNoise == 0:
		// Deterministic latent process: the growth is exactly the
		// one implied by the reproduction numbers.
		z := make([]float64, nRs*nDs)
		noiseC, noiseD = z, z
	case c.Noise == SharedNoise:
		shared := m.ly.slice(x, blkGrowthNoise)
		ll += dist.Normal.Logps(0, c.DailyGrowthNoise, shared...)
		noiseC, noiseD = shared, shared
	default:
		if hasCases {
			noiseC = m.ly.slice(x, blkGrowthNoiseCases)
			ll += dist.Normal.Logps(0, c.DailyGrowthNoise, noiseC...)
		}
		if hasDeaths {
			noiseD = m.ly.slice(x, blkGrowthNoiseDeaths)
			ll += dist.Normal.Logps(0, c.DailyGrowthNoise, noiseD...)
		}
	}

	var gC, infC, expC []float64
	if hasCases {
		gC = m.grow(eLogR, noiseC)
		initC := m.ly.slice(x, blkInitialSizeCases)
		ll += dist.Normal.Logps(c.InitialSizeMean, c.InitialSizeScale, initC...)
		infC = m.integrate(gC, initC)
		if c.DelaySplit == DualDelay {
			expC = delay.ScatterConvolve(infC, nRs, nDs, m.shortKernel, m.longKernel, m.shortRs, m.longRs)
		} else {
			expC = m.caseKernel.ConvolveGrid(infC, nRs, nDs)
		}
		for i, k := range m.caseIdx {
			ll += negBinomLogp(expC[k], phiC, m.obsCases[i])
		}
	}

	var gD, infD, expD []float64
	if hasDeaths {
		gD = m.grow(eLogR, noiseD)
		initD := m.ly.slice(x, blkInitialSizeDeaths)
		ll += dist.Normal.Logps(c.InitialSizeMean, c.InitialSizeScale, initD...)
		infD = m.integrate(gD, initD)
		expD = m.deathKernel.ConvolveGrid(infD, nRs, nDs)
		for i, k := range m.deathIdx {
			ll += negBinomLogp(expD[k], phiD, m.obsDeaths[i])
		}
	}

	if st != nil {
		st.GrowthCases = gC
		st.GrowthDeaths = gD
		st.InfectedCases = infC
		st.InfectedDeaths = infD
		st.ExpectedCases = expC
		st.ExpectedDeaths = expD
	}
	return ll
}

// grow maps expected log R plus daily noise to a daily growth-rate
// grid.  Under the log-normal hierarchy the noise lives in log-R
// space and passes through the growth transform; otherwise it adds
// directly to the expected growth rate.
func (m *Model) grow(eLogR, noise []float64) []float64 {
	g := make([]float64, len(eLogR))
	if m.cfg.Hierarchy == HierarchyLogNormal {
		for i := range g {
			g[i] = m.iv.GrowthRate(eLogR[i] + noise[i])
		}
	} else {
		for i := range g {
			g[i] = m.iv.GrowthRate(eLogR[i]) + noise[i]
		}
	}
	return g
}

// integrate exponentiates the cumulative growth from each region's
// log initial size into an infection grid.
func (m *Model) integrate(growth, init []float64) []float64 {
	nDs := m.nDs
	inf := make([]float64, len(growth))
	for r := 0; r < m.nRs; r++ {
		run := init[r]
		for d := 0; d < nDs; d++ {
			run += growth[r*nDs+d]
			inf[r*nDs+d] = math.Exp(renewal.ClampLog(run))
		}
	}
	return inf
}

// evalRenewal adds the latent-process and observation terms under the
// explicit renewal recursion: noisy log R per channel over the
// truncated day window, seeded infection histories, and a sequential
// day-by-day convolution with the generation interval.
func (m *Model) evalRenewal(x, eLogR []float64, phiC, phiD float64, st *State) float64 {

	c := &m.cfg
	nRs, nDs, nW := m.nRs, m.nDs, m.window
	cut := c.CMDelayCut
	hasCases := c.Channels.hasCases()
	hasDeaths := c.Channels.hasDeaths()
	ll := 0.0

	// Expected log R restricted to the likelihood window.
	w := make([]float64, nRs*nW)
	for r := 0; r < nRs; r++ {
		for j := 0; j < nW; j++ {
			w[r*nW+j] = eLogR[r*nDs+cut+j]
		}
	}

	var infC, expC []float64
	if hasCases {
		var lc float64
		infC, lc = m.renewChannel(x, w, blkLogRCases, blkInitialSizeCases)
		ll += lc
		expC = m.caseKernel.ConvolveGrid(infC, nRs, nW)
		for i, k := range m.caseIdx {
			ll += negBinomLogp(expC[k], phiC, m.obsCases[i])
		}
	}

	var infD, expD []float64
	if hasDeaths {
		var ld float64
		infD, ld = m.renewChannel(x, w, blkLogRDeaths, blkInitialSizeDeaths)
		ll += ld
		expD = m.deathKernel.ConvolveGrid(infD, nRs, nW)
		for i, k := range m.deathIdx {
			ll += negBinomLogp(expD[k], phiD, m.obsDeaths[i])
		}
	}

	if st != nil {
		st.InfectedCases = infC
		st.InfectedDeaths = infD
		st.ExpectedCases = expC
		st.ExpectedDeaths = expD
	}
	return ll
}

// renewChannel evaluates one channel of the renewal process: the
// noisy log-R prior around the window's expected log R, the wide
// initial-size prior, and the recursion itself.  It returns the
// infection grid and the channel's prior contribution.
func (m *Model) renewChannel(x, w []float64, lrBlk, initBlk string) ([]float64, float64) {

	c := &m.cfg
	nRs, nW := m.nRs, m.window
	ll := 0.0

	lr := m.ly.slice(x, lrBlk)
	for i := range lr {
		ll += dist.Normal.Logp(w[i], c.DailyGrowthNoise, lr[i])
	}
	init := m.ly.slice(x, initBlk)
	ll += dist.Normal.Logps(c.InitialSizeMean, c.InitialSizeScale, init...)

	inf := make([]float64, nRs*nW)
	for r := 0; r < nRs; r++ {
		copy(inf[r*nW:(r+1)*nW], m.rec.Run(lr[r*nW:(r+1)*nW], init[r], nW))
	}
	return inf, ll
}
