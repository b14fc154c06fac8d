package cmmodel

import (
	"math"
)

// Log-density kernels for the non-Gaussian priors and the count
// likelihood.  Gaussian terms go through the sampler library's Normal
// directly; everything here is written out against math.Lgamma.

const (
	ln2   = 0.6931471805599453
	lnPi  = 1.1447298858494002
	ln2Pi = 1.8378770664093453
)

// halfNormalLogp is the log density of |N(0, sigma)| at x >= 0.
func halfNormalLogp(sigma, x float64) float64 {
	return ln2 - 0.5*ln2Pi - math.Log(sigma) - x*x/(2*sigma*sigma)
}

// studentTLogp is the log density of a location-scale Student-t with
// nu degrees of freedom.
func studentTLogp(nu, mu, sigma, x float64) float64 {
	la, _ := math.Lgamma((nu + 1) / 2)
	lb, _ := math.Lgamma(nu / 2)
	z := (x - mu) / sigma
	return la - lb - 0.5*math.Log(nu) - 0.5*lnPi - math.Log(sigma) -
		(nu+1)/2*math.Log1p(z*z/nu)
}

// halfStudentTLogp is the log density of the absolute value of a
// zero-mean Student-t at x >= 0.
func halfStudentTLogp(nu, sigma, x float64) float64 {
	return ln2 + studentTLogp(nu, 0, sigma, x)
}

// gammaLogp is the log density of Gamma(alpha, beta) (shape, rate) at
// x > 0.
func gammaLogp(alpha, beta, x float64) float64 {
	lg, _ := math.Lgamma(alpha)
	return alpha*math.Log(beta) - lg + (alpha-1)*math.Log(x) - beta*x
}

// dirichletLogp is the log density of a symmetric Dirichlet with
// concentration conc at the simplex point w.
func dirichletLogp(conc float64, w []float64) float64 {
	k := float64(len(w))
	lgk, _ := math.Lgamma(conc * k)
	lg1, _ := math.Lgamma(conc)
	ll := lgk - k*lg1
	for _, v := range w {
		ll += (conc - 1) * math.Log(v)
	}
	return ll
}

// negBinomLogp is the log pmf of the mean/dispersion negative
// binomial at count y: mean mu, Gamma-Poisson dispersion alpha.  The
// variance is mu + mu^2/alpha, so larger alpha means closer to
// Poisson.  y is a count stored as a float.
func negBinomLogp(mu, alpha, y float64) float64 {
	if mu < 1e-10 {
		mu = 1e-10
	}
	la, _ := math.Lgamma(y + alpha)
	lb, _ := math.Lgamma(alpha)
	lc, _ := math.Lgamma(y + 1)
	return la - lb - lc +
		alpha*math.Log(alpha/(alpha+mu)) +
		y*math.Log(mu/(alpha+mu))
}

// stickBreak maps len(w)-1 unconstrained values onto the simplex w
// and returns the log Jacobian of the transform.  The shift keeps a
// zero input at the uniform simplex point.
func stickBreak(raw, w []float64) float64 {

	k := len(w)
	if len(raw) != k-1 {
		panic("cmmodel: stick-breaking input must have one fewer element than the simplex")
	}

	var lj float64
	rem := 1.0
	logRem := 0.0
	for i := 0; i < k-1; i++ {
		shift := -math.Log(float64(k - 1 - i))
		z := sigmoid(raw[i] + shift)
		w[i] = rem * z
		lj += math.Log(z) + math.Log1p(-z) + logRem
		rem *= 1 - z
		logRem += math.Log1p(-z)
	}
	w[k-1] = rem
	return lj
}

func sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}
