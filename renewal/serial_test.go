package renewal

import (
	"math"
	"testing"
)

func scalarClose(x, y, eps float64) bool {
	return math.Abs(x-y) <= eps
}

func TestMomentMatching(t *testing.T) {

	iv := Default()

	iv2 := FromMoments(iv.Mean(), iv.Sigma())
	if !scalarClose(iv2.Alpha(), DefaultAlpha, 1e-9) || !scalarClose(iv2.Beta(), DefaultBeta, 1e-9) {
		t.Errorf("moment matching does not round-trip: alpha=%f beta=%f", iv2.Alpha(), iv2.Beta())
	}

	if !scalarClose(iv.Mean(), 7.935/1.188, 1e-12) {
		t.Errorf("default mean = %f", iv.Mean())
	}
}

func TestGrowthRateNeutralAtROne(t *testing.T) {

	iv := Default()
	if g := iv.GrowthRate(0); g != 0 {
		t.Errorf("GrowthRate(0) = %g, want 0", g)
	}
}

func TestGrowthRateStableRange(t *testing.T) {

	iv := Default()

	// R from ~0.05 to ~20.
	for logR := -3.0; logR <= 3.0; logR += 0.25 {
		g := iv.GrowthRate(logR)
		if math.IsNaN(g) || math.IsInf(g, 0) {
			t.Fatalf("GrowthRate(%f) is not finite", logR)
		}
		// Growth must be monotone in R and bounded below by -beta.
		if g <= -iv.Beta() {
			t.Errorf("GrowthRate(%f) = %f below -beta", logR, g)
		}
	}

	if iv.GrowthRate(1) <= 0 || iv.GrowthRate(-1) >= 0 {
		t.Errorf("growth rate does not have the sign of log R")
	}
}

func TestRecursionCausality(t *testing.T) {

	si := []float64{0.2, 0.5, 0.3}
	rc := NewRecursion(si)

	nDays := 12
	logR := make([]float64, nDays)
	for d := range logR {
		logR[d] = 0.3
	}

	base := rc.Run(logR, 1.5, nDays)

	// Changing R at day 8 must leave days 0..7 unchanged.
	logR[8] = 2.0
	mod := rc.Run(logR, 1.5, nDays)

	for d := 0; d < 8; d++ {
		if base[d] != mod[d] {
			t.Errorf("day %d changed after perturbing day 8", d)
		}
	}
	if base[8] == mod[8] {
		t.Errorf("day 8 did not respond to its own R")
	}
}

func TestRecursionSeed(t *testing.T) {

	si := []float64{1.0}
	rc := NewRecursion(si)

	// With a one-day serial interval and R = 2 the curve doubles
	// daily from the seed.
	logR := []float64{math.Log(2), math.Log(2), math.Log(2)}
	out := rc.Run(logR, 0, 3)

	want := []float64{2, 4, 8}
	for d := range want {
		if !scalarClose(out[d], want[d], 1e-9) {
			t.Errorf("day %d = %f, want %f", d, out[d], want[d])
		}
	}
}

func TestRecursionClampsOverflow(t *testing.T) {

	rc := NewRecursion([]float64{0.5, 0.5})

	nDays := 200
	logR := make([]float64, nDays)
	for d := range logR {
		logR[d] = 600 // absurd draw; must not produce Inf/NaN
	}

	out := rc.Run(logR, 400, nDays)
	for d, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("day %d is not finite", d)
		}
	}
}
