// Package delay provides the fixed infection-to-report delay kernels
// and the causal convolution that maps latent infection curves to
// expected daily counts.
package delay

import (
	"fmt"
	"math"
)

// Tolerance for the kernel normalization check.
const normTol = 1e-6

// Kernel is a fixed, normalized discrete distribution over reporting
// delay in days.  Kernels are model constants; they are validated at
// construction and never re-estimated.
type Kernel struct {
	p []float64
}

// NewKernel validates and wraps a delay probability array.  The
// entries must be non-negative and sum to one within tolerance.
func NewKernel(p []float64) (*Kernel, error) {

	if len(p) == 0 {
		return nil, fmt.Errorf("delay: empty kernel")
	}

	var sum float64
	for i, v := range p {
		if v < 0 || math.IsNaN(v) {
			return nil, fmt.Errorf("delay: kernel entry %d is %f", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > normTol {
		return nil, fmt.Errorf("delay: kernel sums to %f, want 1", sum)
	}

	q := make([]float64, len(p))
	copy(q, p)
	return &Kernel{p: q}, nil
}

func mustKernel(p []float64) *Kernel {
	k, err := NewKernel(p)
	if err != nil {
		panic(err)
	}
	return k
}

// Len returns the kernel support length in days.
func (k *Kernel) Len() int { return len(k.p) }

// Probs returns a copy of the delay probabilities.
func (k *Kernel) Probs() []float64 {
	q := make([]float64, len(k.p))
	copy(q, k.p)
	return q
}

// Convolve maps a latent daily curve to the expected reported curve:
// out[d] = sum_j k[j] * x[d-j].  This is full-mode discrete
// convolution truncated to the input length, so the output is causal
// and day d depends only on input days <= d.
func (k *Kernel) Convolve(x []float64) []float64 {

	out := make([]float64, len(x))
	for d := range x {
		jmax := d
		if jmax > len(k.p)-1 {
			jmax = len(k.p) - 1
		}
		var v float64
		for j := 0; j <= jmax; j++ {
			v += k.p[j] * x[d-j]
		}
		out[d] = v
	}
	return out
}

// ConvolveGrid applies the kernel to every region row of a flat
// [region, day] grid.
func (k *Kernel) ConvolveGrid(x []float64, nRegions, nDays int) []float64 {

	if len(x) != nRegions*nDays {
		msg := fmt.Sprintf("delay: grid has %d values, want %d x %d", len(x), nRegions, nDays)
		panic(msg)
	}

	out := make([]float64, len(x))
	for r := 0; r < nRegions; r++ {
		copy(out[r*nDays:(r+1)*nDays], k.Convolve(x[r*nDays:(r+1)*nDays]))
	}
	return out
}

// ScatterConvolve convolves two disjoint region subsets with two
// different kernels and recombines the rows into a single grid.  The
// subsets must partition the region index range.
func ScatterConvolve(x []float64, nRegions, nDays int, short, long *Kernel, shortRs, longRs []int) []float64 {

	if len(shortRs)+len(longRs) != nRegions {
		msg := fmt.Sprintf("delay: region subsets cover %d of %d regions",
			len(shortRs)+len(longRs), nRegions)
		panic(msg)
	}

	out := make([]float64, len(x))
	for _, r := range shortRs {
		copy(out[r*nDays:(r+1)*nDays], short.Convolve(x[r*nDays:(r+1)*nDays]))
	}
	for _, r := range longRs {
		copy(out[r*nDays:(r+1)*nDays], long.Convolve(x[r*nDays:(r+1)*nDays]))
	}
	return out
}
