// Package cmmodel declares the hierarchical Bayesian model linking
// intervention activity to reproduction numbers, latent infection
// curves, and observed case/death counts.  The package only declares
// the log joint density; sampling is owned by an external inference
// engine that treats the model as a black-box density over a flat
// parameter vector.
package cmmodel

import (
	"fmt"

	"github.com/JanBrauner/epimodel/renewal"
)

// EffectPooling selects how NPI effects are shared across regions.
type EffectPooling uint8

// PoolShared uses one effect vector for all regions; PoolRegionVarying
// lets each region deviate around the shared vector; PoolAdditive
// replaces log-linear effects with Dirichlet-constrained additive
// weights on R.
const (
	PoolShared EffectPooling = iota
	PoolRegionVarying
	PoolAdditive
)

// DelaySplit selects the case delay-kernel regime.
type DelaySplit uint8

// SingleDelay convolves all regions with one case kernel; DualDelay
// partitions regions by their symptomatic-testing regime and uses a
// short or long kernel per subset.
const (
	SingleDelay DelaySplit = iota
	DualDelay
)

// GrowthProcess selects how reproduction numbers become infection
// curves.
type GrowthProcess uint8

// ClosedFormGrowth uses the Gamma-serial-interval growth-rate
// approximation with cumulative-sum integration; ExplicitRenewal runs
// the day-by-day renewal recursion.
const (
	ClosedFormGrowth GrowthProcess = iota
	ExplicitRenewal
)

// NoiseDiscipline selects how daily noise enters the latent process.
type NoiseDiscipline uint8

// SharedNoise draws one noisy trajectory used by both channels;
// PerChannelNoise draws independent trajectories for cases and
// deaths.
const (
	SharedNoise NoiseDiscipline = iota
	PerChannelNoise
)

// Hierarchy selects the prior structure of region reproduction
// numbers.
type Hierarchy uint8

// NonCenteredR places a half-normal scale around a fixed mean with
// standard-normal region offsets; HierarchyLogNormal learns Student-t
// hyperpriors and draws region log-R directly.  The log-normal
// hierarchy also moves the daily noise into log-R space, per channel.
const (
	NonCenteredR Hierarchy = iota
	HierarchyLogNormal
)

// EffectPrior selects the prior on NPI effect coefficients.
type EffectPrior uint8

// PriorNormal and PriorHalfNormal are scaled by EffectPriorScale;
// PriorICL is the shifted Gamma(1/6, 1) - ln(1.05)/6 prior;
// PriorDirichlet is required by (and only valid with) PoolAdditive.
const (
	PriorNormal EffectPrior = iota
	PriorHalfNormal
	PriorICL
	PriorDirichlet
)

// Channels selects which observation channels enter the likelihood.
type Channels uint8

// BothChannels fits cases and deaths; DeathsOnly and CasesOnly fit a
// single channel.
const (
	BothChannels Channels = iota
	DeathsOnly
	CasesOnly
)

// hasCases reports whether the case channel is fit.
func (c Channels) hasCases() bool { return c != DeathsOnly }

// hasDeaths reports whether the death channel is fit.
func (c Channels) hasDeaths() bool { return c != CasesOnly }

// SamplerOptions are tuning knobs passed through, uninterpreted, to
// the external sampler.
type SamplerOptions struct {
	Draws        int
	Warmup       int
	Chains       int
	MaxTreeDepth int
	TargetAccept float64
	StepSize     float64
	Seed         int64
}

// DefaultSamplerOptions returns the sampling settings used for the
// published effect estimates.
func DefaultSamplerOptions() SamplerOptions {
	return SamplerOptions{
		Draws:        2000,
		Warmup:       500,
		Chains:       2,
		MaxTreeDepth: 12,
		TargetAccept: 0.8,
		StepSize:     0.05,
		Seed:         42,
	}
}

// Config selects and parameterizes a model variant.  The zero value
// is not valid; start from one of the constructors.
type Config struct {
	EffectPooling EffectPooling
	DelaySplit    DelaySplit
	GrowthProcess GrowthProcess
	Noise         NoiseDiscipline
	Hierarchy     Hierarchy
	EffectPrior   EffectPrior
	Channels      Channels

	// EffectPriorScale is the sigma of the normal or half-normal
	// effect prior.
	EffectPriorScale float64

	// DirichletConc is the symmetric concentration of the additive
	// variant's Dirichlet prior.
	DirichletConc float64

	// RHyperpriorMean is the prior center of the no-intervention
	// reproduction number.
	RHyperpriorMean float64

	// DailyGrowthNoise is the sigma of the daily latent noise.
	// Zero removes the noise entirely, making the latent process
	// deterministic given the reproduction numbers; that is only
	// meaningful under ClosedFormGrowth.
	DailyGrowthNoise float64

	// RegionVariationNoise is the sigma of per-region effect
	// deviations under PoolRegionVarying.
	RegionVariationNoise float64

	// SharedPhi makes both channels use one learned dispersion
	// parameter.  It has no effect when a channel's dispersion is
	// fixed or when only one channel is fit.
	SharedPhi bool

	// InitialSizeMean and InitialSizeScale parameterize the wide
	// prior on each region's log initial epidemic size.
	InitialSizeMean  float64
	InitialSizeScale float64

	// CMDelayCut is the warm-up period excluded from the
	// likelihood.
	CMDelayCut int

	// PhiScale is the sigma of the half-normal prior on the
	// negative-binomial dispersion when it is learned.
	PhiScale float64

	// PhiCases and PhiDeaths, when positive, fix the dispersion of
	// a channel instead of learning it.
	PhiCases  float64
	PhiDeaths float64

	// SerialMean and SerialSigma override the serial-interval
	// moments; zero means the default.
	SerialMean  float64
	SerialSigma float64

	// TestingCM names the NPI whose activity splits regions into
	// short/long testing-delay subsets under DualDelay.
	TestingCM string

	// Sampler is passed through to the inference engine.
	Sampler SamplerOptions
}

// DefaultConfig is the combined case+death variant: shared effects,
// one case kernel, closed-form growth, independent case and death
// noise.
func DefaultConfig() Config {
	return Config{
		EffectPooling:        PoolShared,
		DelaySplit:           SingleDelay,
		GrowthProcess:        ClosedFormGrowth,
		Noise:                PerChannelNoise,
		Hierarchy:            NonCenteredR,
		EffectPrior:          PriorNormal,
		Channels:             BothChannels,
		EffectPriorScale:     0.2,
		DirichletConc:        1,
		RHyperpriorMean:      3.25,
		DailyGrowthNoise:     0.2,
		RegionVariationNoise: 0.1,
		SharedPhi:            true,
		InitialSizeMean:      0,
		InitialSizeScale:     50,
		CMDelayCut:           30,
		PhiScale:             5,
		TestingCM:            "Symptomatic Testing",
		Sampler:              DefaultSamplerOptions(),
	}
}

// DualDelayConfig splits regions into short and long testing-delay
// subsets with separate case kernels.
func DualDelayConfig() Config {
	c := DefaultConfig()
	c.DelaySplit = DualDelay
	return c
}

// RegionVaryingConfig lets each region's effect vector deviate around
// the shared one.
func RegionVaryingConfig() Config {
	c := DefaultConfig()
	c.EffectPooling = PoolRegionVarying
	return c
}

// AdditiveConfig composes NPI effects additively on R under a
// Dirichlet prior instead of log-linearly.
func AdditiveConfig() Config {
	c := DefaultConfig()
	c.EffectPooling = PoolAdditive
	c.EffectPrior = PriorDirichlet
	return c
}

// LogNormalHierarchyConfig learns Student-t hyperpriors for region
// log reproduction numbers, with the daily noise moved into log-R
// space.
func LogNormalHierarchyConfig() Config {
	c := DefaultConfig()
	c.Hierarchy = HierarchyLogNormal
	c.DailyGrowthNoise = 0.7
	return c
}

// RenewalConfig replaces the closed-form growth transform with the
// explicit day-by-day renewal recursion.
func RenewalConfig() Config {
	c := DefaultConfig()
	c.GrowthProcess = ExplicitRenewal
	c.DailyGrowthNoise = 0.7
	return c
}

// DeathsOnlyConfig fits the death channel alone with a single shared
// noisy growth trajectory.
func DeathsOnlyConfig() Config {
	c := DefaultConfig()
	c.Channels = DeathsOnly
	c.Noise = SharedNoise
	c.InitialSizeMean = -6
	c.InitialSizeScale = 100
	return c
}

// CasesOnlyConfig fits the case channel alone with a single shared
// noisy growth trajectory.
func CasesOnlyConfig() Config {
	c := DefaultConfig()
	c.Channels = CasesOnly
	c.Noise = SharedNoise
	c.InitialSizeMean = 1
	c.InitialSizeScale = 100
	return c
}

// NoNoiseConfig removes the daily noise from the log-normal-hierarchy
// variant: the latent growth is exactly the one implied by the
// reproduction numbers.
func NoNoiseConfig() Config {
	c := LogNormalHierarchyConfig()
	c.DailyGrowthNoise = 0
	return c
}

// interval returns the serial interval implied by the configuration.
func (c *Config) interval() renewal.Interval {
	d := renewal.Default()
	mean, sigma := c.SerialMean, c.SerialSigma
	if mean == 0 {
		mean = d.Mean()
	}
	if sigma == 0 {
		sigma = d.Sigma()
	}
	return renewal.FromMoments(mean, sigma)
}

// validate panics on an invalid configuration.  It runs before any
// parameter is declared, so a bad variant never half-builds.
func (c *Config) validate() {

	if c.EffectPooling > PoolAdditive {
		panic(fmt.Sprintf("cmmodel: unknown effect pooling %d", c.EffectPooling))
	}
	if c.DelaySplit > DualDelay {
		panic(fmt.Sprintf("cmmodel: unknown delay split %d", c.DelaySplit))
	}
	if c.GrowthProcess > ExplicitRenewal {
		panic(fmt.Sprintf("cmmodel: unknown growth process %d", c.GrowthProcess))
	}
	if c.Noise > PerChannelNoise {
		panic(fmt.Sprintf("cmmodel: unknown noise discipline %d", c.Noise))
	}
	if c.Hierarchy > HierarchyLogNormal {
		panic(fmt.Sprintf("cmmodel: unknown hierarchy %d", c.Hierarchy))
	}
	if c.EffectPrior > PriorDirichlet {
		panic(fmt.Sprintf("cmmodel: unknown effect prior %d", c.EffectPrior))
	}
	if c.Channels > CasesOnly {
		panic(fmt.Sprintf("cmmodel: unknown channel selection %d", c.Channels))
	}

	if (c.EffectPooling == PoolAdditive) != (c.EffectPrior == PriorDirichlet) {
		panic("cmmodel: additive pooling requires (and is required by) the Dirichlet effect prior")
	}
	if c.GrowthProcess == ExplicitRenewal && c.DelaySplit == DualDelay {
		panic("cmmodel: the explicit renewal process does not support dual case kernels")
	}
	if c.Channels == DeathsOnly && c.DelaySplit == DualDelay {
		panic("cmmodel: the deaths-only model has no case channel to split")
	}

	if c.EffectPriorScale <= 0 && c.EffectPrior != PriorICL && c.EffectPrior != PriorDirichlet {
		panic(fmt.Sprintf("cmmodel: effect prior scale %f must be positive", c.EffectPriorScale))
	}
	if c.EffectPrior == PriorDirichlet && c.DirichletConc <= 0 {
		panic(fmt.Sprintf("cmmodel: Dirichlet concentration %f must be positive", c.DirichletConc))
	}
	if c.RHyperpriorMean <= 0 {
		panic(fmt.Sprintf("cmmodel: R hyperprior mean %f must be positive", c.RHyperpriorMean))
	}
	if c.DailyGrowthNoise < 0 {
		panic(fmt.Sprintf("cmmodel: daily growth noise %f must not be negative", c.DailyGrowthNoise))
	}
	if c.DailyGrowthNoise == 0 && c.GrowthProcess == ExplicitRenewal {
		panic("cmmodel: the explicit renewal process needs a positive daily growth noise")
	}
	if c.EffectPooling == PoolRegionVarying && c.RegionVariationNoise <= 0 {
		panic(fmt.Sprintf("cmmodel: region variation noise %f must be positive", c.RegionVariationNoise))
	}
	if c.InitialSizeScale <= 0 {
		panic(fmt.Sprintf("cmmodel: initial size scale %f must be positive", c.InitialSizeScale))
	}
	if c.CMDelayCut < 0 {
		panic(fmt.Sprintf("cmmodel: delay cut %d must be non-negative", c.CMDelayCut))
	}
	learnsPhi := (c.Channels.hasCases() && c.PhiCases == 0) ||
		(c.Channels.hasDeaths() && c.PhiDeaths == 0)
	if c.PhiScale <= 0 && learnsPhi {
		panic(fmt.Sprintf("cmmodel: dispersion prior scale %f must be positive", c.PhiScale))
	}
}
