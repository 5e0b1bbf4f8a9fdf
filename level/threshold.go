package level

import "errors"

// State is the externally observable state of a monitored bin.
type State int

const (
	NotFull State = iota
	Full
	SensorFault
)

// String returns the wire name for the state.
func (s State) String() string {
	switch s {
	case NotFull:
		return "not_full"
	case Full:
		return "full"
	case SensorFault:
		return "sensor_fault"
	default:
		return "unknown"
	}
}

// ErrInvalidThresholds is returned when the hysteresis band is malformed.
var ErrInvalidThresholds = errors.New("level: high threshold must be greater than low threshold, both within [0, 100]")

// Tracker is the threshold state machine for a single bin. It applies
// hysteresis so the state cannot flap when the estimate oscillates near a
// single cutoff: once Full, the bin stays Full until the percent falls to the
// low threshold, not merely below the high one.
//
// Consecutive ticks where the filter produced no output are counted; a run of
// faultSkips of them means the sensor is unresponsive and the tracker enters
// SensorFault. The first valid fill level afterwards re-evaluates the
// thresholds immediately and leaves the fault state.
//
// Tracker is not safe for concurrent use. It is owned by the sampling
// pipeline and mutated only by Observe and ObserveSkip.
type Tracker struct {
	state      State
	high       float64
	low        float64
	faultSkips int
	skipRun    int
}

// NewTracker creates a tracker in the NotFull state.
// faultSkips is the number of consecutive missing readings that trips
// SensorFault; values below 1 are rejected.
func NewTracker(high, low float64, faultSkips int) (*Tracker, error) {
	if high <= low || low < 0 || high > 100 {
		return nil, ErrInvalidThresholds
	}
	if faultSkips < 1 {
		return nil, errors.New("level: fault skip count must be at least 1")
	}
	return &Tracker{
		state:      NotFull,
		high:       high,
		low:        low,
		faultSkips: faultSkips,
	}, nil
}

// State returns the current bin state.
func (t *Tracker) State() State {
	return t.state
}

// Observe feeds one fill level into the state machine and returns the
// resulting state plus whether a transition occurred. Exactly one transition
// is reported per call; a tick that does not change state reports none.
func (t *Tracker) Observe(l FillLevel) (State, bool) {
	t.skipRun = 0
	prev := t.state

	switch t.state {
	case NotFull:
		if l.Percent >= t.high {
			t.state = Full
		}
	case Full:
		if l.Percent <= t.low {
			t.state = NotFull
		}
	case SensorFault:
		// Sensor recovered: re-evaluate the thresholds immediately.
		if l.Percent >= t.high {
			t.state = Full
		} else {
			t.state = NotFull
		}
	}

	return t.state, t.state != prev
}

// ObserveSkip records a tick where the filter produced no output. A run of
// faultSkips consecutive skips transitions the tracker into SensorFault.
func (t *Tracker) ObserveSkip() (State, bool) {
	t.skipRun++
	if t.state != SensorFault && t.skipRun >= t.faultSkips {
		t.state = SensorFault
		return t.state, true
	}
	return t.state, false
}
