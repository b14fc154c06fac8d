// Package renewal relates reproduction numbers to epidemic growth.
// It provides the closed-form growth-rate transform under a Gamma
// serial interval, and the explicit day-by-day renewal recursion used
// when the closed form is not appropriate.
package renewal

import (
	"fmt"
	"math"
)

// Default serial-interval Gamma parameters (shape and rate), from
// Eurosurveillance household transmission estimates.
const (
	DefaultAlpha = 7.935
	DefaultBeta  = 1.188
)

// Interval is a Gamma-distributed serial interval, the time between
// successive infections in a transmission chain.
type Interval struct {
	alpha float64
	beta  float64
}

// Default returns the serial interval with the default shape and
// rate.
func Default() Interval {
	return Interval{alpha: DefaultAlpha, beta: DefaultBeta}
}

// FromMoments returns the serial interval with the given mean and
// standard deviation, via moment matching: alpha = mean^2/var,
// beta = mean/var.
func FromMoments(mean, sigma float64) Interval {
	if mean <= 0 || sigma <= 0 {
		msg := fmt.Sprintf("renewal: serial interval moments must be positive, got mean=%f sigma=%f", mean, sigma)
		panic(msg)
	}
	v := sigma * sigma
	return Interval{alpha: mean * mean / v, beta: mean / v}
}

// Alpha returns the Gamma shape parameter.
func (iv Interval) Alpha() float64 { return iv.alpha }

// Beta returns the Gamma rate parameter.
func (iv Interval) Beta() float64 { return iv.beta }

// Mean returns the mean serial interval in days.
func (iv Interval) Mean() float64 { return iv.alpha / iv.beta }

// Sigma returns the standard deviation of the serial interval.
func (iv Interval) Sigma() float64 { return math.Sqrt(iv.alpha) / iv.beta }

// GrowthRate converts a log reproduction number to the implied daily
// exponential growth rate: beta * (exp(logR/alpha) - 1).  At logR = 0
// (R = 1) the growth rate is exactly zero.
func (iv Interval) GrowthRate(logR float64) float64 {
	return iv.beta * (math.Exp(logR/iv.alpha) - 1)
}

// GrowthRates applies GrowthRate elementwise, writing into dst.
func (iv Interval) GrowthRates(dst, logR []float64) {
	if len(dst) != len(logR) {
		msg := fmt.Sprintf("renewal: dst has length %d, logR %d", len(dst), len(logR))
		panic(msg)
	}
	for i, v := range logR {
		dst[i] = iv.GrowthRate(v)
	}
}
