package delay

import (
	"math"
	"testing"
)

func scalarClose(x, y, eps float64) bool {
	return math.Abs(x-y) <= eps
}

func TestShippedKernelsNormalized(t *testing.T) {

	kernels := map[string]*Kernel{
		"case":       CaseKernel(),
		"death":      DeathKernel(),
		"death-alt":  DeathKernelAlt(),
		"case-short": CaseKernelShort(),
		"case-long":  CaseKernelLong(),
		"generation": GenerationInterval(),
	}

	for name, k := range kernels {
		var sum float64
		for _, v := range k.Probs() {
			if v < 0 {
				t.Errorf("%s kernel has a negative entry", name)
			}
			sum += v
		}
		if !scalarClose(sum, 1, 1e-6) {
			t.Errorf("%s kernel sums to %f", name, sum)
		}
	}

	if CaseKernel().Len() != 32 || DeathKernel().Len() != 64 || GenerationInterval().Len() != 30 {
		t.Errorf("unexpected kernel support lengths")
	}
}

func TestNewKernelRejectsMalformed(t *testing.T) {

	if _, err := NewKernel([]float64{0.5, 0.4}); err == nil {
		t.Errorf("unnormalized kernel accepted")
	}
	if _, err := NewKernel([]float64{1.5, -0.5}); err == nil {
		t.Errorf("negative kernel entry accepted")
	}
	if _, err := NewKernel(nil); err == nil {
		t.Errorf("empty kernel accepted")
	}
	if _, err := NewKernel([]float64{0.25, 0.25, 0.5}); err != nil {
		t.Errorf("valid kernel rejected: %v", err)
	}
}

func TestConvolveCausal(t *testing.T) {

	k, _ := NewKernel([]float64{0.5, 0.3, 0.2})

	x := []float64{1, 0, 0, 0, 2}
	out := k.Convolve(x)

	want := []float64{0.5, 0.3, 0.2, 0, 1}
	for i := range want {
		if !scalarClose(out[i], want[i], 1e-12) {
			t.Errorf("out[%d] = %f, want %f", i, out[i], want[i])
		}
	}

	// Perturbing a late day must not change earlier output.
	x2 := []float64{1, 0, 0, 0, 7}
	out2 := k.Convolve(x2)
	for i := 0; i < 4; i++ {
		if out[i] != out2[i] {
			t.Errorf("day %d output depends on a later input", i)
		}
	}
}

func TestConvolveLinear(t *testing.T) {

	k := CaseKernel()

	x1 := make([]float64, 40)
	x2 := make([]float64, 40)
	for i := range x1 {
		x1[i] = float64(i % 7)
		x2[i] = math.Exp(float64(i) / 20)
	}

	a, b := 2.5, -1.25
	combo := make([]float64, len(x1))
	for i := range combo {
		combo[i] = a*x1[i] + b*x2[i]
	}

	c1 := k.Convolve(x1)
	c2 := k.Convolve(x2)
	cc := k.Convolve(combo)

	for i := range cc {
		if !scalarClose(cc[i], a*c1[i]+b*c2[i], 1e-9) {
			t.Errorf("convolution is not linear at day %d", i)
		}
	}
}

func TestScatterConvolve(t *testing.T) {

	nRs, nDs := 3, 10
	x := make([]float64, nRs*nDs)
	for i := range x {
		x[i] = float64(i + 1)
	}

	short := CaseKernelShort()
	long := CaseKernelLong()

	out := ScatterConvolve(x, nRs, nDs, short, long, []int{0, 2}, []int{1})

	for _, r := range []int{0, 2} {
		want := short.Convolve(x[r*nDs : (r+1)*nDs])
		for d := 0; d < nDs; d++ {
			if out[r*nDs+d] != want[d] {
				t.Errorf("short region %d day %d mismatch", r, d)
			}
		}
	}
	want := long.Convolve(x[nDs : 2*nDs])
	for d := 0; d < nDs; d++ {
		if out[nDs+d] != want[d] {
			t.Errorf("long region day %d mismatch", d)
		}
	}
}
