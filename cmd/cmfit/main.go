// Command cmfit fits an NPI effect model to a simulated dataset and
// prints the posterior effect table.  It exists to exercise the whole
// pipeline end to end; real analyses construct the dataset from their
// own data source and pick a variant the same way.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"bitbucket.org/dtolpin/infergo/infer"
	"golang.org/x/exp/rand"

	"github.com/JanBrauner/epimodel/cmmodel"
	"github.com/JanBrauner/epimodel/posterior"
)

var variants = map[string]func() cmmodel.Config{
	"default":   cmmodel.DefaultConfig,
	"dual":      cmmodel.DualDelayConfig,
	"regionvar": cmmodel.RegionVaryingConfig,
	"additive":  cmmodel.AdditiveConfig,
	"lognormal": cmmodel.LogNormalHierarchyConfig,
	"renewal":   cmmodel.RenewalConfig,
	"deaths":    cmmodel.DeathsOnlyConfig,
	"cases":     cmmodel.CasesOnlyConfig,
	"nonoise":   cmmodel.NoNoiseConfig,
}

func main() {

	variant := flag.String("variant", "default", "model variant to fit")
	nRegions := flag.Int("regions", 8, "number of simulated regions")
	nDays := flag.Int("days", 80, "number of simulated days")
	nCMs := flag.Int("npis", 5, "number of simulated NPIs")
	draws := flag.Int("draws", 0, "posterior draws (0 uses the variant default)")
	warmup := flag.Int("warmup", 0, "warm-up draws (0 uses the variant default)")
	eps := flag.Float64("eps", 0, "leapfrog step size (0 uses the variant default)")
	depth := flag.Int("depth", 0, "max tree depth (0 uses the variant default)")
	accept := flag.Float64("accept", 0, "target acceptance rate (0 uses the variant default)")
	seed := flag.Uint64("seed", 42, "simulation and sampler seed")
	flag.Parse()

	mk, ok := variants[*variant]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown variant %q\n", *variant)
		os.Exit(1)
	}
	cfg := mk()
	if *variant == "dual" {
		// Simulated NPIs are named by index.
		cfg.TestingCM = "NPI 0"
	}
	if *draws > 0 {
		cfg.Sampler.Draws = *draws
	}
	if *warmup > 0 {
		cfg.Sampler.Warmup = *warmup
	}
	if *eps > 0 {
		cfg.Sampler.StepSize = *eps
	}
	if *depth > 0 {
		cfg.Sampler.MaxTreeDepth = *depth
	}
	if *accept > 0 {
		cfg.Sampler.TargetAccept = *accept
	}
	cfg.Sampler.Seed = int64(*seed)

	lg := log.New(os.Stderr, "cmfit: ", log.LstdFlags)

	ds, truth := cmmodel.Simulate(cmmodel.SimOptions{
		NumRegions: *nRegions,
		NumDays:    *nDays,
		NumCMs:     *nCMs,
		Seed:       *seed,
	})
	lg.Printf("simulated %d regions x %d days, %d NPIs", ds.NumRegions(), ds.NumDays(), ds.NumCMs())

	m := cmmodel.NewModel(ds, cfg).Log(lg)

	red := fit(m, lg)

	names := ds.CMs
	ivs := posterior.SummarizeColumns(red)
	tab := &posterior.EffectTable{
		Title:     "NPI effects on R",
		Names:     names,
		Reduction: ivs,
		Top: []string{
			"Variant:", *variant,
			"Regions:", fmt.Sprintf("%d", ds.NumRegions()),
			"Draws:", fmt.Sprintf("%d", len(red)),
			"Params:", fmt.Sprintf("%d", m.NumParams()),
		},
		Msg: []string{"Reductions are percentage changes of R when the NPI is fully active."},
	}
	fmt.Print(tab.String())

	for j, a := range truth.CMAlpha {
		fmt.Printf("true %-8s %6.1f%%\n", names[j], 100*(1-math.Exp(-a)))
	}
}

// fit runs the sampler and returns, per kept draw, the percentage
// reduction of R for each NPI.
func fit(m *cmmodel.Model, lg *log.Logger) [][]float64 {

	opt := m.Config().Sampler

	rng := rand.New(rand.NewSource(uint64(opt.Seed)))
	x := make([]float64, m.NumParams())
	for i := range x {
		x[i] = 0.01 * rng.NormFloat64()
	}

	nuts := &infer.NUTS{}
	nuts.Eps = opt.StepSize
	nuts.MaxDepth = opt.MaxTreeDepth
	nuts.Delta = opt.TargetAccept

	samples := make(chan []float64)
	nuts.Sample(m, x, samples)

	var red [][]float64
	total := opt.Warmup + opt.Draws
	for i := 0; i < total; i++ {
		x, ok := <-samples
		if !ok || len(x) == 0 {
			lg.Printf("sampler stopped after %d draws", i)
			break
		}
		if i < opt.Warmup {
			continue
		}
		st := m.Derive(x)
		row := make([]float64, len(st.CMReduction))
		for j, r := range st.CMReduction {
			row[j] = 100 * (1 - r)
		}
		red = append(red, row)
	}
	nuts.Stop()

	lg.Printf("kept %d of %d draws", len(red), total)
	return red
}
