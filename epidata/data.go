// Package epidata holds the aligned case/death time series and
// intervention indicators that the model is fit to.  All arrays are
// rectangular and indexed by (region, day); the data provider is
// responsible for alignment, this package only validates shapes.
package epidata

import (
	"fmt"
	"math"
)

// Series is one observed time series over all regions and days.  Each
// value carries a mask flag; masked values are unusable for the
// likelihood.  NaN is a legal data value and is treated as missing by
// the observation mask.
type Series struct {
	nRegions int
	nDays    int
	data     []float64
	mask     []bool
}

// NewSeries returns an all-zero, fully unmasked series.
func NewSeries(nRegions, nDays int) *Series {
	if nRegions <= 0 || nDays <= 0 {
		msg := fmt.Sprintf("epidata: invalid series shape %d x %d", nRegions, nDays)
		panic(msg)
	}
	return &Series{
		nRegions: nRegions,
		nDays:    nDays,
		data:     make([]float64, nRegions*nDays),
		mask:     make([]bool, nRegions*nDays),
	}
}

// SeriesFromRows builds a series from per-region rows.  The rows must
// all have the same length.
func SeriesFromRows(rows [][]float64) *Series {
	if len(rows) == 0 {
		panic("epidata: series needs at least one region row")
	}
	nDays := len(rows[0])
	s := NewSeries(len(rows), nDays)
	for r, row := range rows {
		if len(row) != nDays {
			msg := fmt.Sprintf("epidata: region row %d has %d days, want %d", r, len(row), nDays)
			panic(msg)
		}
		copy(s.data[r*nDays:(r+1)*nDays], row)
	}
	return s
}

// NumRegions returns the number of regions covered by the series.
func (s *Series) NumRegions() int { return s.nRegions }

// NumDays returns the number of days covered by the series.
func (s *Series) NumDays() int { return s.nDays }

// At returns the value for region r on day d.
func (s *Series) At(r, d int) float64 { return s.data[r*s.nDays+d] }

// Set stores a value for region r on day d.
func (s *Series) Set(r, d int, v float64) { s.data[r*s.nDays+d] = v }

// Masked reports whether the value for region r on day d is flagged
// unusable by the data provider.
func (s *Series) Masked(r, d int) bool { return s.mask[r*s.nDays+d] }

// SetMask flags or unflags the value for region r on day d.
func (s *Series) SetMask(r, d int, m bool) { s.mask[r*s.nDays+d] = m }

// Missing reports whether the value at (r, d) is NaN.
func (s *Series) Missing(r, d int) bool { return math.IsNaN(s.At(r, d)) }

// Row returns a copy of region r's values.
func (s *Series) Row(r int) []float64 {
	row := make([]float64, s.nDays)
	copy(row, s.data[r*s.nDays:(r+1)*s.nDays])
	return row
}

// Clone returns a deep copy of the series.
func (s *Series) Clone() *Series {
	c := NewSeries(s.nRegions, s.nDays)
	copy(c.data, s.data)
	copy(c.mask, s.mask)
	return c
}

// Indicator is the intervention-activity tensor: the degree, in
// [0, 1], to which each NPI is active in each region on each day.
type Indicator struct {
	nRegions int
	nCMs     int
	nDays    int
	data     []float64
}

// NewIndicator returns an all-zero indicator tensor.
func NewIndicator(nRegions, nCMs, nDays int) *Indicator {
	if nRegions <= 0 || nCMs <= 0 || nDays <= 0 {
		msg := fmt.Sprintf("epidata: invalid indicator shape %d x %d x %d", nRegions, nCMs, nDays)
		panic(msg)
	}
	return &Indicator{
		nRegions: nRegions,
		nCMs:     nCMs,
		nDays:    nDays,
		data:     make([]float64, nRegions*nCMs*nDays),
	}
}

// NumRegions returns the region dimension of the tensor.
func (a *Indicator) NumRegions() int { return a.nRegions }

// NumCMs returns the NPI dimension of the tensor.
func (a *Indicator) NumCMs() int { return a.nCMs }

// NumDays returns the day dimension of the tensor.
func (a *Indicator) NumDays() int { return a.nDays }

// At returns the activity of NPI c in region r on day d.
func (a *Indicator) At(r, c, d int) float64 {
	return a.data[(r*a.nCMs+c)*a.nDays+d]
}

// Set stores the activity of NPI c in region r on day d.
func (a *Indicator) Set(r, c, d int, v float64) {
	if v < 0 || v > 1 {
		msg := fmt.Sprintf("epidata: indicator value %f out of [0, 1]", v)
		panic(msg)
	}
	a.data[(r*a.nCMs+c)*a.nDays+d] = v
}

// ActiveDays returns the total activity of NPI c in region r summed
// over all days.
func (a *Indicator) ActiveDays(r, c int) float64 {
	var t float64
	for d := 0; d < a.nDays; d++ {
		t += a.At(r, c, d)
	}
	return t
}

// ZeroCM clears NPI c across all regions and days.
func (a *Indicator) ZeroCM(c int) {
	for r := 0; r < a.nRegions; r++ {
		base := (r*a.nCMs + c) * a.nDays
		for d := 0; d < a.nDays; d++ {
			a.data[base+d] = 0
		}
	}
}

// Clone returns a deep copy of the indicator tensor.
func (a *Indicator) Clone() *Indicator {
	c := NewIndicator(a.nRegions, a.nCMs, a.nDays)
	copy(c.data, a.data)
	return c
}

// Dataset is one fit's worth of aligned input data: the daily and
// cumulative count series, the NPI activity tensor, and the axis
// labels.  A dataset is immutable once handed to a model; models that
// need to adjust masks or indicators work on private copies.
type Dataset struct {
	// Region codes, day labels and NPI names, in axis order.
	Regions []string
	Days    []string
	CMs     []string

	// Daily new counts, with provider masks.
	NewCases  *Series
	NewDeaths *Series

	// Cumulative counts, used only for pre-onset NaN tests.
	Confirmed *Series
	Deaths    *Series

	// NPI activity.
	ActiveCMs *Indicator
}

// NewDataset assembles and validates a dataset.  All series must
// share the region/day shape implied by the axis labels, and the
// indicator's NPI axis must match the NPI name list.  Shape
// mismatches are fatal.
func NewDataset(regions, days, cms []string, newCases, newDeaths, confirmed, deaths *Series, active *Indicator) *Dataset {

	nRs := len(regions)
	nDs := len(days)

	for _, s := range []struct {
		name string
		ser  *Series
	}{
		{"NewCases", newCases},
		{"NewDeaths", newDeaths},
		{"Confirmed", confirmed},
		{"Deaths", deaths},
	} {
		if s.ser == nil {
			msg := fmt.Sprintf("epidata: series %s is nil", s.name)
			panic(msg)
		}
		if s.ser.NumRegions() != nRs || s.ser.NumDays() != nDs {
			msg := fmt.Sprintf("epidata: series %s has shape %d x %d, want %d x %d",
				s.name, s.ser.NumRegions(), s.ser.NumDays(), nRs, nDs)
			panic(msg)
		}
	}

	if active.NumRegions() != nRs || active.NumDays() != nDs {
		msg := fmt.Sprintf("epidata: ActiveCMs has shape %d x %d x %d, want %d regions and %d days",
			active.NumRegions(), active.NumCMs(), active.NumDays(), nRs, nDs)
		panic(msg)
	}
	if active.NumCMs() != len(cms) {
		msg := fmt.Sprintf("epidata: ActiveCMs has %d NPIs but %d NPI names given",
			active.NumCMs(), len(cms))
		panic(msg)
	}

	return &Dataset{
		Regions:   regions,
		Days:      days,
		CMs:       cms,
		NewCases:  newCases,
		NewDeaths: newDeaths,
		Confirmed: confirmed,
		Deaths:    deaths,
		ActiveCMs: active,
	}
}

// NumRegions returns the number of regions in the dataset.
func (ds *Dataset) NumRegions() int { return len(ds.Regions) }

// NumDays returns the number of days in the dataset.
func (ds *Dataset) NumDays() int { return len(ds.Days) }

// NumCMs returns the number of NPIs in the dataset.
func (ds *Dataset) NumCMs() int { return len(ds.CMs) }

// CMIndex returns the position of the named NPI, or -1 if the dataset
// does not include it.
func (ds *Dataset) CMIndex(name string) int {
	for i, c := range ds.CMs {
		if c == name {
			return i
		}
	}
	return -1
}
