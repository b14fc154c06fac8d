package cmmodel

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/JanBrauner/epimodel/delay"
	"github.com/JanBrauner/epimodel/epidata"
	"github.com/JanBrauner/epimodel/renewal"
)

// Truth records the generating parameters of a simulated dataset, so
// a fit can be checked against what produced the data.
type Truth struct {
	// CMAlpha are the generating effect coefficients.
	CMAlpha []float64

	// RegionR is each region's no-NPI reproduction number.
	RegionR []float64

	// InitialSize is each region's log initial epidemic size.
	InitialSize []float64

	// Phi is the negative-binomial dispersion of both channels.
	Phi float64
}

// SimOptions sizes a simulated dataset.
type SimOptions struct {
	NumRegions int
	NumDays    int
	NumCMs     int

	// Phi is the dispersion of the simulated counts; zero means 30
	// (nearly Poisson).
	Phi float64

	Seed uint64
}

// Simulate draws a synthetic dataset from the generative process of
// the default variant: staggered NPI activations, growth-rate
// dynamics, delay convolution, and negative-binomial counts.  The
// returned truth holds the generating parameters.
func Simulate(opt SimOptions) (*epidata.Dataset, *Truth) {

	nRs, nDs, nCMs := opt.NumRegions, opt.NumDays, opt.NumCMs
	if nRs <= 0 || nDs <= 0 || nCMs <= 0 {
		panic(fmt.Sprintf("cmmodel: invalid simulation shape %d x %d x %d", nRs, nDs, nCMs))
	}
	phi := opt.Phi
	if phi == 0 {
		phi = 30
	}

	src := rand.NewSource(opt.Seed)
	rng := rand.New(src)

	tr := &Truth{
		CMAlpha:     make([]float64, nCMs),
		RegionR:     make([]float64, nRs),
		InitialSize: make([]float64, nRs),
		Phi:         phi,
	}
	for j := range tr.CMAlpha {
		// Effects between roughly 0 and 30 percent reduction.
		tr.CMAlpha[j] = 0.35 * rng.Float64()
	}
	for r := range tr.RegionR {
		tr.RegionR[r] = 2.5 + rng.Float64()
		tr.InitialSize[r] = math.Log(5 + 10*rng.Float64())
	}

	// Staggered activations: each NPI switches on in the middle half
	// of the period, at a region-specific day, and stays on.
	active := epidata.NewIndicator(nRs, nCMs, nDs)
	span := nDs / 2
	if span < 1 {
		span = 1
	}
	for r := 0; r < nRs; r++ {
		for j := 0; j < nCMs; j++ {
			on := nDs/4 + rng.Intn(span)
			for d := on; d < nDs; d++ {
				active.Set(r, j, d, 1)
			}
		}
	}

	iv := renewal.Default()
	caseK := delay.CaseKernel()
	deathK := delay.DeathKernel()

	infected := make([]float64, nRs*nDs)
	for r := 0; r < nRs; r++ {
		run := tr.InitialSize[r]
		logR0 := math.Log(tr.RegionR[r])
		for d := 0; d < nDs; d++ {
			lr := logR0
			for j := 0; j < nCMs; j++ {
				lr -= tr.CMAlpha[j] * active.At(r, j, d)
			}
			run += iv.GrowthRate(lr)
			infected[r*nDs+d] = math.Exp(renewal.ClampLog(run))
		}
	}

	// Deaths lag cases; scale the death channel down so the two
	// channels have realistic relative magnitude.
	const deathRate = 0.01
	muCases := caseK.ConvolveGrid(infected, nRs, nDs)
	muDeaths := deathK.ConvolveGrid(infected, nRs, nDs)

	newCases := epidata.NewSeries(nRs, nDs)
	newDeaths := epidata.NewSeries(nRs, nDs)
	confirmed := epidata.NewSeries(nRs, nDs)
	deaths := epidata.NewSeries(nRs, nDs)

	for r := 0; r < nRs; r++ {
		var cumC, cumD float64
		for d := 0; d < nDs; d++ {
			yc := genNegBinom(rng, muCases[r*nDs+d], phi)
			yd := genNegBinom(rng, deathRate*muDeaths[r*nDs+d], phi)
			newCases.Set(r, d, yc)
			newDeaths.Set(r, d, yd)
			cumC += yc
			cumD += yd
			confirmed.Set(r, d, cumC)
			deaths.Set(r, d, cumD)
		}
	}

	regions := make([]string, nRs)
	days := make([]string, nDs)
	cms := make([]string, nCMs)
	for r := range regions {
		regions[r] = fmt.Sprintf("R%02d", r)
	}
	for d := range days {
		days[d] = fmt.Sprintf("day %d", d)
	}
	for j := range cms {
		cms[j] = fmt.Sprintf("NPI %d", j)
	}

	ds := epidata.NewDataset(regions, days, cms, newCases, newDeaths, confirmed, deaths, active)
	return ds, tr
}

// genNegBinom draws a negative binomial count as a Gamma-Poisson
// mixture: the Gamma has mean mu and shape alpha, so the count has
// mean mu and variance mu + mu^2/alpha.
func genNegBinom(rng *rand.Rand, mu, alpha float64) float64 {

	if mu <= 0 {
		return 0
	}

	g := distuv.Gamma{Alpha: alpha, Beta: alpha / mu, Src: rng}
	p := distuv.Poisson{Lambda: g.Rand(), Src: rng}
	return p.Rand()
}
