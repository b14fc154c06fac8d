package epidata

// MaskOptions controls which (region, day) cells of a channel enter
// the likelihood.
type MaskOptions struct {
	// Start is the first day index eligible for the likelihood.
	// Days before it are warm-up and always excluded.
	Start int

	// TrimTail excludes the last TrimTail days.  Recent confirmed
	// case counts are revision-prone, so the case channel is built
	// with TrimTail = 7.
	TrimTail int
}

// ObservationMask records, for one channel, which cells participate
// in the likelihood.  It is computed once from the dataset and is
// immutable afterwards; it never aliases the dataset's own masks.
// The boolean grid and the flat index list are two encodings of the
// same set and are produced by the same pass.
type ObservationMask struct {
	nRegions int
	nDays    int
	start    int

	// live[r*nDays+d] is true when the cell enters the likelihood.
	live []bool

	// indices are the live cells as flat r*nDays+d offsets, in
	// row-major order.
	indices []int
}

// NewObservationMask derives the likelihood mask for one channel.  A
// cell is live when the provider did not mask it, its day is inside
// [opt.Start, nDays-opt.TrimTail), and the cumulative series has a
// non-NaN value there (a NaN cumulative count marks days before the
// region's reporting onset).  The inputs are read only.
func NewObservationMask(obs, cum *Series, opt MaskOptions) *ObservationMask {

	nRs := obs.NumRegions()
	nDs := obs.NumDays()

	m := &ObservationMask{
		nRegions: nRs,
		nDays:    nDs,
		start:    opt.Start,
		live:     make([]bool, nRs*nDs),
	}

	end := nDs - opt.TrimTail

	for r := 0; r < nRs; r++ {
		for d := 0; d < nDs; d++ {
			if obs.Masked(r, d) || d < opt.Start || d >= end {
				continue
			}
			if cum.Missing(r, d) || obs.Missing(r, d) {
				continue
			}
			m.live[r*nDs+d] = true
			m.indices = append(m.indices, r*nDs+d)
		}
	}

	return m
}

// Live reports whether (r, d) participates in the likelihood.
func (m *ObservationMask) Live(r, d int) bool { return m.live[r*m.nDays+d] }

// Indices returns the live cells as flat r*nDays+d offsets.  The
// returned slice is owned by the mask and must not be modified.
func (m *ObservationMask) Indices() []int { return m.indices }

// NumLive returns the number of live cells.
func (m *ObservationMask) NumLive() int { return len(m.indices) }

// NumLiveRegion returns the number of live cells for one region.
func (m *ObservationMask) NumLiveRegion(r int) int {
	n := 0
	for d := 0; d < m.nDays; d++ {
		if m.live[r*m.nDays+d] {
			n++
		}
	}
	return n
}

// WindowIndices re-frames the live cells as flat offsets into the
// truncated day window starting at the mask's Start day, i.e.
// r*(nDays-start) + (d-start).  The explicit-renewal variant works
// entirely inside this window.
func (m *ObservationMask) WindowIndices() []int {
	nW := m.nDays - m.start
	idx := make([]int, 0, len(m.indices))
	for _, k := range m.indices {
		r := k / m.nDays
		d := k % m.nDays
		idx = append(idx, r*nW+(d-m.start))
	}
	return idx
}

// Gather selects the live values of a series, in index order.  The
// result is aligned with Indices.
func (m *ObservationMask) Gather(s *Series) []float64 {
	out := make([]float64, 0, len(m.indices))
	for _, k := range m.indices {
		out = append(out, s.At(k/m.nDays, k%m.nDays))
	}
	return out
}
