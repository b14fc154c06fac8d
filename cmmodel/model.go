package cmmodel

//go:generate deriv model

import (
	"log"

	"github.com/JanBrauner/epimodel/delay"
	"github.com/JanBrauner/epimodel/epidata"
	"github.com/JanBrauner/epimodel/renewal"
)

// Parameter block names.  The layout is assembled from these in
// NewModel; which blocks exist depends on the configuration.
const (
	blkCMAlpha           = "CMAlpha"
	blkAllBeta           = "AllBeta"
	blkAllCMAlpha        = "AllCMAlpha"
	blkHyperRMean        = "HyperRMean"
	blkHyperRVar         = "HyperRVar"
	blkRegionRNoise      = "RegionRNoise"
	blkRegionLogR        = "RegionLogR"
	blkGrowthNoise       = "GrowthNoise"
	blkGrowthNoiseCases  = "GrowthNoiseCases"
	blkGrowthNoiseDeaths = "GrowthNoiseDeaths"
	blkLogRCases         = "LogRCases"
	blkLogRDeaths        = "LogRDeaths"
	blkInitialSizeCases  = "InitialSizeCases"
	blkInitialSizeDeaths = "InitialSizeDeaths"
	blkPhi               = "Phi"
	blkPhiCases          = "PhiCases"
	blkPhiDeaths         = "PhiDeaths"
)

// Model is the joint density of one configured variant over a flat
// parameter vector.  It satisfies the inference engine's model
// contract: Observe returns the log joint at a parameter vector, and
// the engine owns everything else (gradients, step sizes, chains).
//
// The model never mutates the dataset it was built from: the
// intervention tensor is copied before any variant-specific surgery,
// and the likelihood masks are derived once at construction.
type Model struct {
	cfg Config

	nRs  int
	nDs  int
	nCMs int

	data   *epidata.Dataset
	active *epidata.Indicator

	// Likelihood cells and the observed counts gathered at them.
	// Index lists address the expected-count grid of the variant:
	// the full (region, day) grid for closed-form growth, the
	// truncated window for the explicit renewal process.
	caseIdx   []int
	deathIdx  []int
	obsCases  []float64
	obsDeaths []float64

	// DualDelay region partition by testing regime.
	shortRs []int
	longRs  []int

	iv  renewal.Interval
	rec *renewal.Recursion

	caseKernel  *delay.Kernel
	deathKernel *delay.Kernel
	shortKernel *delay.Kernel
	longKernel  *delay.Kernel

	// Day window of the explicit renewal process.
	window int

	ly *layout

	logger *log.Logger
}

// NewModel builds the variant selected by cfg over the dataset.  An
// invalid configuration or a shape problem in the data is fatal.
func NewModel(data *epidata.Dataset, cfg Config) *Model {

	cfg.validate()

	m := &Model{
		cfg:  cfg,
		nRs:  data.NumRegions(),
		nDs:  data.NumDays(),
		nCMs: data.NumCMs(),
		data: data,
		iv:   cfg.interval(),
		ly:   newLayout(),
	}

	m.active = data.ActiveCMs.Clone()
	m.setupDelays()
	m.setupMasks()
	m.setupLayout()

	return m
}

// setupDelays picks the delay kernels and, under DualDelay, splits
// regions by testing regime and removes the testing NPI from the
// effect model.
func (m *Model) setupDelays() {

	if m.cfg.Hierarchy == HierarchyLogNormal {
		m.deathKernel = delay.DeathKernelAlt()
	} else {
		m.deathKernel = delay.DeathKernel()
	}

	switch m.cfg.DelaySplit {
	case SingleDelay:
		m.caseKernel = delay.CaseKernel()
	case DualDelay:
		m.shortKernel = delay.CaseKernelShort()
		m.longKernel = delay.CaseKernelLong()

		ci := m.data.CMIndex(m.cfg.TestingCM)
		if ci < 0 {
			panic("cmmodel: dataset has no NPI named " + m.cfg.TestingCM)
		}

		// Regions with a real testing period report cases on the
		// short delay; the rest on the long one.  The testing NPI
		// itself is absorbed into the delay split and must not
		// also act as an effect.
		for r := 0; r < m.nRs; r++ {
			if m.active.ActiveDays(r, ci) > 1 {
				m.shortRs = append(m.shortRs, r)
			} else {
				m.longRs = append(m.longRs, r)
			}
		}
		m.active.ZeroCM(ci)
	}

	if m.cfg.GrowthProcess == ExplicitRenewal {
		m.rec = renewal.NewRecursion(delay.GenerationInterval().Probs())
		m.window = m.nDs - m.cfg.CMDelayCut
		if m.window <= 0 {
			panic("cmmodel: delay cut leaves no likelihood window")
		}
	}
}

// setupMasks derives the likelihood masks and gathers the observed
// counts.  The masks are computed once here; the dataset's own masks
// are never touched again.
func (m *Model) setupMasks() {

	start := m.cfg.CMDelayCut + 1
	caseTrim := 7
	if m.cfg.GrowthProcess == ExplicitRenewal {
		start = m.cfg.CMDelayCut
		caseTrim = 0
	}

	windowed := func(mask *epidata.ObservationMask) []int {
		if m.cfg.GrowthProcess == ExplicitRenewal {
			return mask.WindowIndices()
		}
		idx := mask.Indices()
		out := make([]int, len(idx))
		copy(out, idx)
		return out
	}

	if m.cfg.Channels.hasCases() {
		cm := epidata.NewObservationMask(m.data.NewCases, m.data.Confirmed,
			epidata.MaskOptions{Start: start, TrimTail: caseTrim})
		m.caseIdx = windowed(cm)
		m.obsCases = cm.Gather(m.data.NewCases)
	}

	if m.cfg.Channels.hasDeaths() {
		dm := epidata.NewObservationMask(m.data.NewDeaths, m.data.Deaths,
			epidata.MaskOptions{Start: start})
		m.deathIdx = windowed(dm)
		m.obsDeaths = dm.Gather(m.data.NewDeaths)
	}
}

// setupLayout declares the parameter blocks of the variant, in a
// fixed order.
func (m *Model) setupLayout() {

	c := &m.cfg

	if c.EffectPrior == PriorDirichlet {
		// nCMs+1 simplex weights need nCMs unconstrained values.
		m.ly.add(blkAllBeta, m.nCMs)
	} else {
		m.ly.add(blkCMAlpha, m.nCMs)
	}
	if c.EffectPooling == PoolRegionVarying {
		m.ly.add(blkAllCMAlpha, m.nRs*m.nCMs)
	}

	switch c.Hierarchy {
	case NonCenteredR:
		m.ly.add(blkHyperRVar, 1)
		m.ly.add(blkRegionRNoise, m.nRs)
	case HierarchyLogNormal:
		m.ly.add(blkHyperRMean, 1)
		m.ly.add(blkHyperRVar, 1)
		m.ly.add(blkRegionLogR, m.nRs)
	}

	hasCases := c.Channels.hasCases()
	hasDeaths := c.Channels.hasDeaths()

	switch {
	case c.GrowthProcess == ExplicitRenewal:
		if hasCases {
			m.ly.add(blkLogRCases, m.nRs*m.window)
		}
		if hasDeaths {
			m.ly.add(blkLogRDeaths, m.nRs*m.window)
		}
	case c.DailyGrowthNoise == 0:
		// Deterministic latent process: no noise blocks.
	case c.Noise == SharedNoise:
		m.ly.add(blkGrowthNoise, m.nRs*m.nDs)
	default:
		if hasCases {
			m.ly.add(blkGrowthNoiseCases, m.nRs*m.nDs)
		}
		if hasDeaths {
			m.ly.add(blkGrowthNoiseDeaths, m.nRs*m.nDs)
		}
	}

	if hasCases {
		m.ly.add(blkInitialSizeCases, m.nRs)
	}
	if hasDeaths {
		m.ly.add(blkInitialSizeDeaths, m.nRs)
	}

	if c.SharedPhi && hasCases && hasDeaths && c.PhiCases == 0 && c.PhiDeaths == 0 {
		m.ly.add(blkPhi, 1)
		return
	}
	if hasCases && c.PhiCases == 0 {
		m.ly.add(blkPhiCases, 1)
	}
	if hasDeaths && c.PhiDeaths == 0 {
		m.ly.add(blkPhiDeaths, 1)
	}
}

// Log sets an optional logger for construction and fit diagnostics
// and returns the model for chaining.
func (m *Model) Log(lg *log.Logger) *Model {
	m.logger = lg
	if lg != nil {
		lg.Printf("model: %d regions, %d days, %d NPIs, %d parameters",
			m.nRs, m.nDs, m.nCMs, m.ly.size())
		lg.Printf("model: %d case cells, %d death cells in likelihood",
			len(m.caseIdx), len(m.deathIdx))
	}
	return m
}

// NumParams returns the length of the flat parameter vector.
func (m *Model) NumParams() int { return m.ly.size() }

// Config returns the configuration the model was built with.
func (m *Model) Config() Config { return m.cfg }

// Data returns the dataset the model was built over.
func (m *Model) Data() *epidata.Dataset { return m.data }

// BlockNames returns the parameter block names in vector order.
func (m *Model) BlockNames() []string { return m.ly.names() }

// Block returns the sub-slice of x holding the named parameter block.
func (m *Model) Block(x []float64, name string) []float64 {
	return m.ly.slice(x, name)
}

// Observe returns the log joint density at the parameter vector x.
// This is the inference engine's entry point.
func (m *Model) Observe(x []float64) float64 {
	return m.eval(x, nil)
}
