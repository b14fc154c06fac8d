package renewal

import (
	"fmt"
	"math"
)

// SeedWindow is the number of days at the end of the history buffer
// that are initialized from the initial epidemic size before the
// recursion starts.
const SeedWindow = 7

// Log-scale bound applied before exponentiation.  Wide initial-size
// priors can push cumulative log quantities past the float64 range;
// values are clamped so derived quantities stay finite.
const maxLog = 500.0

// ClampLog bounds a log-scale value to the safe range for
// exponentiation.
func ClampLog(v float64) float64 {
	if v > maxLog {
		return maxLog
	}
	if v < -maxLog {
		return -maxLog
	}
	return v
}

// Recursion evaluates the discrete renewal equation: each day's new
// infections are a weighted sum of past infections, weighted by the
// serial-interval distribution and scaled by that day's reproduction
// number.
type Recursion struct {
	// si[k-1] is the weight of infections k days back.
	si []float64
}

// NewRecursion returns a recursion over the given serial-interval
// probabilities.
func NewRecursion(si []float64) *Recursion {
	if len(si) == 0 {
		panic("renewal: empty serial interval")
	}
	q := make([]float64, len(si))
	copy(q, si)
	return &Recursion{si: q}
}

// Span returns the serial-interval support length.
func (rc *Recursion) Span() int { return len(rc.si) }

// step computes one day's infections from the preceding history.
// history holds infections for the Span days before the day being
// computed, oldest first.  The step is pure: it reads history and
// returns the new value.
func (rc *Recursion) step(history []float64, r float64) float64 {

	span := len(rc.si)
	var v float64
	for k := 1; k <= span; k++ {
		v += rc.si[k-1] * history[span-k]
	}
	v *= r

	// Keep runaway trajectories finite.
	if v > math.MaxFloat64/1e10 {
		v = math.MaxFloat64 / 1e10
	}
	return v
}

// Run evaluates the recursion over nDays days.  The history buffer is
// seeded with SeedWindow days at the initial epidemic size
// exp(initialLog), placed immediately before day 0; earlier history
// is zero.  logR[d] is the log reproduction number on day d.  The
// recursion is strictly sequential: day d depends on all of days
// [d-Span, d-1] and on nothing later.
func (rc *Recursion) Run(logR []float64, initialLog float64, nDays int) []float64 {

	if len(logR) != nDays {
		msg := fmt.Sprintf("renewal: %d log-R values for %d days", len(logR), nDays)
		panic(msg)
	}

	span := len(rc.si)
	buf := make([]float64, span+nDays)

	w := SeedWindow
	if w > span {
		w = span
	}
	seed := math.Exp(ClampLog(initialLog))
	for i := span - w; i < span; i++ {
		buf[i] = seed
	}

	for d := 0; d < nDays; d++ {
		r := math.Exp(ClampLog(logR[d]))
		buf[span+d] = rc.step(buf[d:span+d], r)
	}

	out := make([]float64, nDays)
	copy(out, buf[span:])
	return out
}
