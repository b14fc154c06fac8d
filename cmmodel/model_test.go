package cmmodel

import (
	"fmt"
	"math"
	"testing"

	"github.com/JanBrauner/epimodel/epidata"
)

func testDataset(t *testing.T) *epidata.Dataset {
	t.Helper()
	ds, _ := Simulate(SimOptions{NumRegions: 3, NumDays: 60, NumCMs: 4, Seed: 17})
	return ds
}

func TestVariantsObserveFinite(t *testing.T) {

	ds := testDataset(t)

	configs := map[string]Config{
		"default":   DefaultConfig(),
		"dualDelay": DualDelayConfig(),
		"regionVar": RegionVaryingConfig(),
		"additive":  AdditiveConfig(),
		"logNormal": LogNormalHierarchyConfig(),
		"renewal":   RenewalConfig(),
		"deaths":    DeathsOnlyConfig(),
	}

	for name, cfg := range configs {
		if name == "dualDelay" {
			// The simulated NPI names do not include the testing
			// NPI; point the split at an existing one.
			cfg.TestingCM = "NPI 0"
		}
		m := NewModel(ds, cfg)
		if m.NumParams() == 0 {
			t.Errorf("%s: no parameters", name)
		}
		x := make([]float64, m.NumParams())
		ll := m.Observe(x)
		if math.IsNaN(ll) || math.IsInf(ll, 0) {
			t.Errorf("%s: log density %f at the origin", name, ll)
		}
	}
}

func TestEffectsReduceExpectedCounts(t *testing.T) {

	ds := testDataset(t)
	m := NewModel(ds, DefaultConfig())

	x0 := make([]float64, m.NumParams())
	st0 := m.Derive(x0)

	x1 := make([]float64, m.NumParams())
	alpha := m.Block(x1, blkCMAlpha)
	for j := range alpha {
		alpha[j] = 0.3
	}
	st1 := m.Derive(x1)

	nDs := ds.NumDays()
	d := nDs - 1
	var with, without float64
	for r := 0; r < ds.NumRegions(); r++ {
		without += st0.ExpectedCases[r*nDs+d]
		with += st1.ExpectedCases[r*nDs+d]
	}
	if with >= without {
		t.Errorf("positive effects did not reduce late expected counts: %f >= %f", with, without)
	}

	for j, red := range st1.CMReduction {
		if !scalarClose(red, math.Exp(-0.3), 1e-12) {
			t.Errorf("NPI %d reduction = %f", j, red)
		}
	}
}

func TestLikelihoodWindowExcludesWarmupAndTail(t *testing.T) {

	ds := testDataset(t)
	m := NewModel(ds, DefaultConfig())

	nDs := ds.NumDays()
	cut := m.cfg.CMDelayCut
	for _, k := range m.caseIdx {
		d := k % nDs
		if d <= cut {
			t.Fatalf("case likelihood includes warm-up day %d", d)
		}
		if d >= nDs-7 {
			t.Fatalf("case likelihood includes revision-prone day %d", d)
		}
	}
	for _, k := range m.deathIdx {
		if d := k % nDs; d <= cut {
			t.Fatalf("death likelihood includes warm-up day %d", d)
		}
	}
	if len(m.obsCases) != len(m.caseIdx) || len(m.obsDeaths) != len(m.deathIdx) {
		t.Errorf("observed values and index lists disagree")
	}
}

func TestDualDelayPartition(t *testing.T) {

	ds := testDataset(t)
	cfg := DualDelayConfig()
	cfg.TestingCM = "NPI 1"
	ci := ds.CMIndex("NPI 1")

	m := NewModel(ds, cfg)

	if len(m.shortRs)+len(m.longRs) != ds.NumRegions() {
		t.Fatalf("testing partition does not cover all regions")
	}
	for _, r := range m.shortRs {
		if ds.ActiveCMs.ActiveDays(r, ci) <= 1 {
			t.Errorf("region %d on the short delay without a testing period", r)
		}
	}
	for _, r := range m.longRs {
		if ds.ActiveCMs.ActiveDays(r, ci) > 1 {
			t.Errorf("region %d on the long delay despite a testing period", r)
		}
	}

	// The testing NPI is absorbed into the split: zero in the
	// model's private indicator, untouched in the dataset.
	for r := 0; r < ds.NumRegions(); r++ {
		for d := 0; d < ds.NumDays(); d++ {
			if m.active.At(r, ci, d) != 0 {
				t.Fatalf("testing NPI still active in the model copy")
			}
		}
	}
	var orig float64
	for r := 0; r < ds.NumRegions(); r++ {
		orig += ds.ActiveCMs.ActiveDays(r, ci)
	}
	if orig == 0 {
		t.Errorf("dataset indicator was mutated")
	}
}

func TestDeathsOnlyHasNoCaseBlocks(t *testing.T) {

	ds := testDataset(t)
	m := NewModel(ds, DeathsOnlyConfig())

	for _, name := range m.BlockNames() {
		switch name {
		case blkGrowthNoiseCases, blkInitialSizeCases, blkPhiCases, blkLogRCases:
			t.Errorf("deaths-only model declares case block %s", name)
		}
	}
	if len(m.caseIdx) != 0 {
		t.Errorf("deaths-only model gathered case observations")
	}
	if !m.ly.has(blkGrowthNoise) {
		t.Errorf("deaths-only model lacks the shared noise block")
	}
}

func TestRenewalWindow(t *testing.T) {

	ds := testDataset(t)
	m := NewModel(ds, RenewalConfig())

	nW := ds.NumDays() - m.cfg.CMDelayCut
	if m.window != nW {
		t.Fatalf("window = %d, want %d", m.window, nW)
	}
	for _, k := range m.deathIdx {
		if k < 0 || k >= ds.NumRegions()*nW {
			t.Fatalf("window index %d out of range", k)
		}
	}

	x := make([]float64, m.NumParams())
	st := m.Derive(x)
	if len(st.ExpectedDeaths) != ds.NumRegions()*nW {
		t.Errorf("expected-death grid has length %d", len(st.ExpectedDeaths))
	}
	for i, v := range st.InfectedDeaths {
		if math.IsNaN(v) || v < 0 {
			t.Fatalf("infection grid cell %d = %f", i, v)
		}
	}
}

func TestAdditiveWeightsSimplex(t *testing.T) {

	ds := testDataset(t)
	m := NewModel(ds, AdditiveConfig())

	x := make([]float64, m.NumParams())
	raw := m.Block(x, blkAllBeta)
	raw[0] = 0.7
	raw[1] = -1.2

	st := m.Derive(x)
	if len(st.Weights) != ds.NumCMs()+1 {
		t.Fatalf("weights have length %d", len(st.Weights))
	}
	var sum float64
	for _, w := range st.Weights {
		if w <= 0 || w >= 1 {
			t.Errorf("weight %f outside (0, 1)", w)
		}
		sum += w
	}
	if !scalarClose(sum, 1, 1e-9) {
		t.Errorf("weights sum to %f", sum)
	}

	for j, red := range st.CMReduction {
		if !scalarClose(red, 1-st.Weights[j+1], 1e-12) {
			t.Errorf("NPI %d reduction inconsistent with its weight", j)
		}
	}
}

func TestConfigValidation(t *testing.T) {

	mustPanic := func(name string, f func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s did not panic", name)
			}
		}()
		f()
	}

	ds := testDataset(t)

	mustPanic("additive without Dirichlet", func() {
		c := AdditiveConfig()
		c.EffectPrior = PriorNormal
		NewModel(ds, c)
	})
	mustPanic("renewal with dual delay", func() {
		c := RenewalConfig()
		c.DelaySplit = DualDelay
		NewModel(ds, c)
	})
	mustPanic("negative growth noise", func() {
		c := DefaultConfig()
		c.DailyGrowthNoise = -1
		NewModel(ds, c)
	})
	mustPanic("unknown testing NPI", func() {
		c := DualDelayConfig()
		c.TestingCM = "no such NPI"
		NewModel(ds, c)
	})
	mustPanic("duplicate layout block", func() {
		ly := newLayout()
		ly.add("a", 2)
		ly.add("a", 3)
	})
	mustPanic("wrong vector length", func() {
		m := NewModel(ds, DefaultConfig())
		m.Observe(make([]float64, m.NumParams()+1))
	})
}

func TestSimulateShapes(t *testing.T) {

	ds, tr := Simulate(SimOptions{NumRegions: 2, NumDays: 50, NumCMs: 3, Seed: 3})

	if ds.NumRegions() != 2 || ds.NumDays() != 50 || ds.NumCMs() != 3 {
		t.Fatalf("unexpected dataset shape")
	}
	if len(tr.CMAlpha) != 3 || len(tr.RegionR) != 2 {
		t.Fatalf("unexpected truth shape")
	}

	for r := 0; r < 2; r++ {
		prev := 0.0
		for d := 0; d < 50; d++ {
			if ds.NewCases.At(r, d) < 0 || ds.NewDeaths.At(r, d) < 0 {
				t.Fatalf("negative count at (%d, %d)", r, d)
			}
			if ds.Confirmed.At(r, d) < prev {
				t.Fatalf("cumulative cases decrease at (%d, %d)", r, d)
			}
			prev = ds.Confirmed.At(r, d)
		}
	}
}

func TestExpectedLogRDropsAtActivation(t *testing.T) {

	nDs := 45
	counts := make([]float64, nDs)
	cum := make([]float64, nDs)
	run := 0.0
	for d := 0; d < nDs; d++ {
		counts[d] = 10
		run += 10
		cum[d] = run
	}
	days := make([]string, nDs)
	for d := range days {
		days[d] = fmt.Sprintf("day %d", d)
	}

	active := epidata.NewIndicator(1, 1, nDs)
	on := 20
	for d := on; d < nDs; d++ {
		active.Set(0, 0, d, 1)
	}

	ds := epidata.NewDataset([]string{"R0"}, days, []string{"Mask wearing"},
		epidata.SeriesFromRows([][]float64{counts}),
		epidata.SeriesFromRows([][]float64{counts}),
		epidata.SeriesFromRows([][]float64{cum}),
		epidata.SeriesFromRows([][]float64{cum}),
		active)

	m := NewModel(ds, DefaultConfig())

	x := make([]float64, m.NumParams())
	m.Block(x, blkCMAlpha)[0] = 0.25
	st := m.Derive(x)

	base := math.Log(3.25)
	if !scalarClose(st.ExpectedLogR[on-1], base, 1e-9) {
		t.Errorf("pre-activation log R = %f, want %f", st.ExpectedLogR[on-1], base)
	}
	if !scalarClose(st.ExpectedLogR[on], base-0.25, 1e-9) {
		t.Errorf("post-activation log R = %f, want %f", st.ExpectedLogR[on], base-0.25)
	}
	if !scalarClose(st.GrowthReduction[on], 0.25, 1e-12) {
		t.Errorf("growth reduction at activation = %f", st.GrowthReduction[on])
	}
}

func TestRegionWithoutDeathsBuilds(t *testing.T) {

	ds, _ := Simulate(SimOptions{NumRegions: 3, NumDays: 60, NumCMs: 4, Seed: 9})
	nDs := ds.NumDays()
	for d := 0; d < nDs; d++ {
		ds.NewDeaths.Set(0, d, math.NaN())
		ds.Deaths.Set(0, d, math.NaN())
	}

	m := NewModel(ds, DefaultConfig())
	for _, k := range m.deathIdx {
		if k/nDs == 0 {
			t.Fatalf("death likelihood includes the region with no death data")
		}
	}

	ll := m.Observe(make([]float64, m.NumParams()))
	if math.IsNaN(ll) || math.IsInf(ll, 0) {
		t.Errorf("log density %f with an all-NaN death region", ll)
	}
}

func TestObserveFiniteAtTruth(t *testing.T) {

	ds, tr := Simulate(SimOptions{NumRegions: 3, NumDays: 60, NumCMs: 4, Seed: 5})
	m := NewModel(ds, DefaultConfig())

	x := make([]float64, m.NumParams())
	copy(m.Block(x, blkCMAlpha), tr.CMAlpha)
	noise := m.Block(x, blkRegionRNoise)
	for r := range noise {
		// HyperRVar is exp(0) = 1 at the origin.
		noise[r] = tr.RegionR[r] - m.cfg.RHyperpriorMean
	}
	copy(m.Block(x, blkInitialSizeCases), tr.InitialSize)
	copy(m.Block(x, blkInitialSizeDeaths), tr.InitialSize)

	ll := m.Observe(x)
	if math.IsNaN(ll) || math.IsInf(ll, 0) {
		t.Fatalf("log density %f at the generating parameters", ll)
	}

	st := m.Derive(x)
	for r, v := range st.RegionR {
		if !scalarClose(v, tr.RegionR[r], 1e-9) {
			t.Errorf("region %d R = %f, want %f", r, v, tr.RegionR[r])
		}
	}
}

func TestCasesOnlyHasNoDeathBlocks(t *testing.T) {

	ds := testDataset(t)
	m := NewModel(ds, CasesOnlyConfig())

	for _, name := range m.BlockNames() {
		switch name {
		case blkGrowthNoiseDeaths, blkInitialSizeDeaths, blkPhiDeaths, blkLogRDeaths, blkPhi:
			t.Errorf("cases-only model declares death block %s", name)
		}
	}
	if len(m.deathIdx) != 0 {
		t.Errorf("cases-only model gathered death observations")
	}
	if !m.ly.has(blkGrowthNoise) {
		t.Errorf("cases-only model lacks the shared noise block")
	}
	if !m.ly.has(blkPhiCases) {
		t.Errorf("cases-only model lacks its own dispersion block")
	}

	// The case mask keeps its trailing-week trim.
	nDs := ds.NumDays()
	for _, k := range m.caseIdx {
		if d := k % nDs; d >= nDs-7 {
			t.Fatalf("case likelihood includes revision-prone day %d", d)
		}
	}

	ll := m.Observe(make([]float64, m.NumParams()))
	if math.IsNaN(ll) || math.IsInf(ll, 0) {
		t.Errorf("log density %f at the origin", ll)
	}

	st := m.Derive(make([]float64, m.NumParams()))
	if st.ExpectedDeaths != nil || st.InfectedDeaths != nil {
		t.Errorf("cases-only model derived death curves")
	}
	if len(st.ExpectedCases) != ds.NumRegions()*nDs {
		t.Errorf("expected-case grid has length %d", len(st.ExpectedCases))
	}
}

func TestNoNoiseGrowthIsDeterministic(t *testing.T) {

	ds := testDataset(t)
	m := NewModel(ds, NoNoiseConfig())

	for _, name := range m.BlockNames() {
		switch name {
		case blkGrowthNoise, blkGrowthNoiseCases, blkGrowthNoiseDeaths:
			t.Errorf("zero-noise model declares noise block %s", name)
		}
	}

	x := make([]float64, m.NumParams())
	m.Block(x, blkCMAlpha)[0] = 0.2
	st := m.Derive(x)

	iv := m.iv
	for i := range st.GrowthCases {
		want := iv.GrowthRate(st.ExpectedLogR[i])
		if st.GrowthCases[i] != want || st.GrowthDeaths[i] != want {
			t.Fatalf("growth at cell %d deviates from the expected growth", i)
		}
	}

	ll := m.Observe(x)
	if math.IsNaN(ll) || math.IsInf(ll, 0) {
		t.Errorf("log density %f", ll)
	}
}

func TestNoNoiseRejectedForRenewal(t *testing.T) {

	defer func() {
		if recover() == nil {
			t.Errorf("zero noise with the renewal process did not panic")
		}
	}()
	c := RenewalConfig()
	c.DailyGrowthNoise = 0
	NewModel(testDataset(t), c)
}

func TestSharedDispersion(t *testing.T) {

	ds := testDataset(t)

	m := NewModel(ds, DefaultConfig())
	if !m.ly.has(blkPhi) || m.ly.has(blkPhiCases) || m.ly.has(blkPhiDeaths) {
		t.Fatalf("default model does not share one dispersion block")
	}

	x := make([]float64, m.NumParams())
	m.Block(x, blkPhi)[0] = 1.5
	st := m.Derive(x)
	if st.PhiCases != st.PhiDeaths {
		t.Errorf("shared dispersion differs between channels: %f vs %f", st.PhiCases, st.PhiDeaths)
	}
	if !scalarClose(st.PhiCases, math.Exp(1.5), 1e-12) {
		t.Errorf("shared dispersion = %f", st.PhiCases)
	}

	cfg := DefaultConfig()
	cfg.SharedPhi = false
	m2 := NewModel(ds, cfg)
	if m2.ly.has(blkPhi) || !m2.ly.has(blkPhiCases) || !m2.ly.has(blkPhiDeaths) {
		t.Errorf("per-channel dispersion blocks missing with sharing off")
	}

	// A fixed case dispersion disables sharing.
	cfg = DefaultConfig()
	cfg.PhiCases = 10
	m3 := NewModel(ds, cfg)
	if m3.ly.has(blkPhi) || m3.ly.has(blkPhiCases) || !m3.ly.has(blkPhiDeaths) {
		t.Errorf("fixed case dispersion did not fall back to per-channel handling")
	}
}
