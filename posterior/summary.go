// Package posterior summarizes draws from a fitted model: credible
// intervals for scalar quantities, posterior predictive counts, and a
// text table of NPI effects.
package posterior

import (
	"math"

	"github.com/montanaflynn/stats"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Interval is the posterior summary of one scalar: the median and the
// central 95% credible interval.
type Interval struct {
	Median float64
	Lower  float64
	Upper  float64
}

// ErrLow returns the distance from the median down to the lower
// bound.
func (iv Interval) ErrLow() float64 { return iv.Median - iv.Lower }

// ErrHigh returns the distance from the median up to the upper bound.
func (iv Interval) ErrHigh() float64 { return iv.Upper - iv.Median }

// Summarize computes the interval of one scalar's draws.  Degenerate
// input (no draws, or draws the percentile routine rejects) yields an
// all-NaN interval rather than an error, so a single bad column does
// not abort a whole summary pass.
func Summarize(draws []float64) Interval {

	bad := Interval{Median: math.NaN(), Lower: math.NaN(), Upper: math.NaN()}

	med, err := stats.Median(draws)
	if err != nil {
		return bad
	}
	lo, err := stats.Percentile(draws, 2.5)
	if err != nil {
		return bad
	}
	hi, err := stats.Percentile(draws, 97.5)
	if err != nil {
		return bad
	}

	return Interval{Median: med, Lower: lo, Upper: hi}
}

// Column extracts coordinate j across a set of draws, each draw being
// one vector.
func Column(draws [][]float64, j int) []float64 {
	out := make([]float64, len(draws))
	for i, x := range draws {
		out[i] = x[j]
	}
	return out
}

// SummarizeColumns summarizes every coordinate of a set of vector
// draws.
func SummarizeColumns(draws [][]float64) []Interval {
	if len(draws) == 0 {
		return nil
	}
	out := make([]Interval, len(draws[0]))
	for j := range out {
		out[j] = Summarize(Column(draws, j))
	}
	return out
}

// Bounds on predictive-sampler inputs.  Posterior draws from the wide
// initial-size priors can imply astronomically large expected counts,
// and a pathological dispersion draw would poison the Gamma sampler;
// both are capped rather than propagated.
const (
	maxPredictiveMean = 1e10
	minPredictivePhi  = 1e-6
	maxPredictivePhi  = 1e8
)

// PredictiveCounts draws one negative-binomial count per posterior
// draw of (mean, dispersion) and summarizes them.  Non-finite or
// runaway means are capped at a large bound.
func PredictiveCounts(rng *rand.Rand, mu, phi []float64) Interval {

	if len(mu) != len(phi) {
		panic("posterior: mean and dispersion draws differ in length")
	}

	counts := make([]float64, len(mu))
	for i := range mu {
		m := mu[i]
		if math.IsNaN(m) || m > maxPredictiveMean {
			m = maxPredictiveMean
		}
		if m <= 0 {
			counts[i] = 0
			continue
		}
		f := phi[i]
		if math.IsNaN(f) || f < minPredictivePhi {
			f = minPredictivePhi
		}
		if f > maxPredictivePhi {
			f = maxPredictivePhi
		}
		g := distuv.Gamma{Alpha: f, Beta: f / m, Src: rng}
		p := distuv.Poisson{Lambda: g.Rand(), Src: rng}
		counts[i] = p.Rand()
	}
	return Summarize(counts)
}
