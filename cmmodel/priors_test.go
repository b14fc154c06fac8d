package cmmodel

import (
	"math"
	"testing"
)

func scalarClose(x, y, eps float64) bool {
	return math.Abs(x-y) <= eps
}

func TestNegBinomAgainstPoissonLimit(t *testing.T) {

	// As the dispersion grows the negative binomial approaches
	// Poisson: log pmf -> y*log(mu) - mu - log(y!).
	mu, y := 12.0, 9.0
	lg, _ := math.Lgamma(y + 1)
	pois := y*math.Log(mu) - mu - lg

	nb := negBinomLogp(mu, 1e8, y)
	if !scalarClose(nb, pois, 1e-5) {
		t.Errorf("negBinom(%f, 1e8, %f) = %f, Poisson gives %f", mu, y, nb, pois)
	}

	// Small dispersion spreads mass away from the mean.
	tight := negBinomLogp(mu, 100, 3*mu)
	loose := negBinomLogp(mu, 0.5, 3*mu)
	if loose <= tight {
		t.Errorf("overdispersed tail is not heavier: %f <= %f", loose, tight)
	}
}

func TestNegBinomMeanFloor(t *testing.T) {

	// A zero mean must not produce -Inf for a zero count.
	if v := negBinomLogp(0, 5, 0); math.IsInf(v, 0) || math.IsNaN(v) {
		t.Errorf("negBinom at zero mean = %f", v)
	}
}

func TestHalfNormalNormalizes(t *testing.T) {

	// Twice the standard normal density on the positive half line.
	sigma := 1.5
	for _, x := range []float64{0.1, 0.7, 2.0, 4.5} {
		want := math.Log(2) - 0.5*math.Log(2*math.Pi) - math.Log(sigma) - x*x/(2*sigma*sigma)
		if !scalarClose(halfNormalLogp(sigma, x), want, 1e-12) {
			t.Errorf("halfNormal(%f, %f) = %f, want %f", sigma, x, halfNormalLogp(sigma, x), want)
		}
	}
}

func TestStudentTApproachesNormal(t *testing.T) {

	// High degrees of freedom recover the normal log density.
	mu, sigma, x := 1.2, 0.2, 1.35
	want := -0.5*math.Log(2*math.Pi) - math.Log(sigma) - (x-mu)*(x-mu)/(2*sigma*sigma)
	got := studentTLogp(1e7, mu, sigma, x)
	if !scalarClose(got, want, 1e-4) {
		t.Errorf("studentT(1e7) = %f, normal gives %f", got, want)
	}

	// At nu = 1 the density is Cauchy; ten sigma out its tail is far
	// heavier than the normal one.
	z := mu + 10*sigma
	normTail := -0.5*math.Log(2*math.Pi) - math.Log(sigma) - (z-mu)*(z-mu)/(2*sigma*sigma)
	if studentTLogp(1, mu, sigma, z) <= normTail {
		t.Errorf("Cauchy tail thinner than normal")
	}
}

func TestGammaLogp(t *testing.T) {

	// Exponential special case: Gamma(1, beta) at x is
	// log(beta) - beta*x.
	beta, x := 2.0, 0.7
	if got := gammaLogp(1, beta, x); !scalarClose(got, math.Log(beta)-beta*x, 1e-12) {
		t.Errorf("gammaLogp(1, %f, %f) = %f", beta, x, got)
	}
}

func TestStickBreakUniformAtZero(t *testing.T) {

	raw := make([]float64, 4)
	w := make([]float64, 5)
	lj := stickBreak(raw, w)

	if math.IsNaN(lj) || math.IsInf(lj, 0) {
		t.Fatalf("log Jacobian = %f", lj)
	}
	for i, v := range w {
		if !scalarClose(v, 0.2, 1e-9) {
			t.Errorf("w[%d] = %f, want 0.2", i, v)
		}
	}

	// Any input must land on the simplex.
	raw = []float64{3, -2, 0.5, -4}
	stickBreak(raw, w)
	var sum float64
	for _, v := range w {
		if v <= 0 {
			t.Errorf("non-positive weight %f", v)
		}
		sum += v
	}
	if !scalarClose(sum, 1, 1e-9) {
		t.Errorf("weights sum to %f", sum)
	}
}

func TestDirichletUniformConcentration(t *testing.T) {

	// With conc = 1 the density is constant: lgamma(k).
	w := []float64{0.1, 0.2, 0.3, 0.4}
	lgk, _ := math.Lgamma(4)
	if got := dirichletLogp(1, w); !scalarClose(got, lgk, 1e-12) {
		t.Errorf("dirichletLogp(1) = %f, want %f", got, lgk)
	}
}
