package level

import (
	"math"
	"sort"
	"time"
)

// RawSample is a single reading taken from the distance sensor.
// Valid is false when the driver failed or returned garbage.
type RawSample struct {
	DistanceMM float64
	Timestamp  time.Time
	Valid      bool
}

// Reading is a smoothed distance measurement produced by the filter.
type Reading struct {
	DistanceMM float64
	Timestamp  time.Time
}

// MedianFilter smooths raw samples using a fixed-size sliding window of the
// most recent valid distances. The median is used rather than the mean so a
// single spike (an insect crossing the beam, a reflection glitch) cannot move
// the output.
//
// A sample that is invalid or outside [minMM, maxMM] is rejected: it does not
// enter the window and the filter produces no output for that tick. The window
// is kept warm across rejections so one good sample restores a spike-resistant
// median immediately.
type MedianFilter struct {
	window []float64
	width  int
	minMM  float64
	maxMM  float64
}

// NewMedianFilter creates a filter with the given window width and valid
// physical range in millimetres.
func NewMedianFilter(width int, minMM, maxMM float64) *MedianFilter {
	if width < 1 {
		width = 1
	}
	return &MedianFilter{
		window: make([]float64, 0, width),
		width:  width,
		minMM:  minMM,
		maxMM:  maxMM,
	}
}

// Apply feeds one raw sample through the filter.
// ok is false when the sample was rejected and no reading is produced.
func (f *MedianFilter) Apply(s RawSample) (Reading, bool) {
	// NaN compares false against both range bounds, so non-finite values
	// need an explicit check or they would poison the window
	if !s.Valid || math.IsNaN(s.DistanceMM) || math.IsInf(s.DistanceMM, 0) {
		return Reading{}, false
	}
	if s.DistanceMM < f.minMM || s.DistanceMM > f.maxMM {
		return Reading{}, false
	}

	f.window = append(f.window, s.DistanceMM)
	if len(f.window) > f.width {
		f.window = f.window[1:]
	}

	return Reading{DistanceMM: f.median(), Timestamp: s.Timestamp}, true
}

// Len returns the number of samples currently in the window.
func (f *MedianFilter) Len() int {
	return len(f.window)
}

// median computes the median of the current window without disturbing
// insertion order. Even-length windows average the two middle values.
func (f *MedianFilter) median() float64 {
	sorted := make([]float64, len(f.window))
	copy(sorted, f.window)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
