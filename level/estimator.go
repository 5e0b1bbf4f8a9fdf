package level

import (
	"errors"
	"time"
)

// ErrInvalidGeometry is returned when the calibrated empty distance does not
// exceed the full distance. The agent must not start with such a calibration.
var ErrInvalidGeometry = errors.New("level: empty distance must be greater than full distance")

// Geometry holds the calibrated reference distances for a bin: the distance
// the sensor reports when the bin is empty and when it is full. Calibrated
// once at configuration time, immutable afterwards.
type Geometry struct {
	EmptyDistanceMM float64
	FullDistanceMM  float64
}

// NewGeometry validates and returns a bin geometry.
func NewGeometry(emptyMM, fullMM float64) (Geometry, error) {
	if emptyMM <= fullMM {
		return Geometry{}, ErrInvalidGeometry
	}
	return Geometry{EmptyDistanceMM: emptyMM, FullDistanceMM: fullMM}, nil
}

// FillLevel is a normalized fill estimate for the bin.
type FillLevel struct {
	Percent   float64
	Timestamp time.Time
}

// Estimate converts a filtered distance reading into a fill percentage.
// The result is clamped to [0, 100] even when the reading falls outside the
// calibrated range.
func (g Geometry) Estimate(r Reading) FillLevel {
	percent := (g.EmptyDistanceMM - r.DistanceMM) / (g.EmptyDistanceMM - g.FullDistanceMM) * 100
	return FillLevel{
		Percent:   max(0, min(100, percent)),
		Timestamp: r.Timestamp,
	}
}

// DistanceFor is the inverse of Estimate: the raw distance that would produce
// the given fill percentage. Used to inject simulated readings through the
// full filter path.
func (g Geometry) DistanceFor(percent float64) float64 {
	percent = max(0, min(100, percent))
	return g.EmptyDistanceMM - percent/100*(g.EmptyDistanceMM-g.FullDistanceMM)
}
