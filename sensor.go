package main

import (
	"errors"
	"math/rand"
	"time"

	"github.com/tmackey/binwatch/level"
)

// ErrSensorRead indicates the driver failed to produce a measurement.
// The pipeline absorbs it as an invalid sample; it is never fatal.
var ErrSensorRead = errors.New("sensor read failed")

// Sensor produces a raw distance measurement on demand. Hardware drivers
// (e.g. an HC-SR04 behind a GPIO library) implement this; the agent itself
// never touches pins.
type Sensor interface {
	Read() (level.RawSample, error)
}

// SimulatedSensor stands in for the ultrasonic driver when no hardware is
// wired. It walks the distance randomly between the configured bounds so the
// whole pipeline, thresholds included, can be exercised on a desk.
type SimulatedSensor struct {
	minMM   float64
	maxMM   float64
	current float64
}

// NewSimulatedSensor creates a simulator starting in the middle of the range.
func NewSimulatedSensor(minMM, maxMM float64) *SimulatedSensor {
	return &SimulatedSensor{
		minMM:   minMM,
		maxMM:   maxMM,
		current: (minMM + maxMM) / 2,
	}
}

// Read returns the next step of the random walk. Steps are small relative to
// the range so consecutive readings look like a bin filling or emptying
// rather than white noise.
func (s *SimulatedSensor) Read() (level.RawSample, error) {
	step := (s.maxMM - s.minMM) / 50
	s.current += (rand.Float64()*2 - 1) * step
	s.current = max(s.minMM, min(s.maxMM, s.current))

	return level.RawSample{
		DistanceMM: s.current,
		Timestamp:  time.Now(),
		Valid:      true,
	}, nil
}
