package main

import (
	"time"

	"github.com/tmackey/binwatch/level"
)

// EventKind distinguishes state-change alerts from periodic liveness telemetry.
type EventKind string

const (
	KindAlert     EventKind = "alert"
	KindTelemetry EventKind = "telemetry"
)

// Event is the unit queued for delivery to the transport.
//
// SequenceID is assigned at enqueue time and increases monotonically across
// both kinds, so the consumer can detect queue-overflow drops as gaps.
// Dropped is the cumulative overflow counter; the dispatcher stamps it onto
// telemetry events at delivery time so the next telemetry that gets through
// reports every drop to date.
type Event struct {
	Kind       EventKind `json:"kind"`
	State      string    `json:"state"`
	Percent    float64   `json:"percent"`
	Timestamp  int64     `json:"timestamp"` // epoch millis
	SequenceID uint64    `json:"sequence_id"`
	Dropped    uint64    `json:"dropped,omitempty"`
}

// newEvent builds an event for the given kind from the current pipeline state.
// The sequence id is left for the dispatcher to assign.
func newEvent(kind EventKind, state level.State, percent float64, at time.Time) Event {
	return Event{
		Kind:      kind,
		State:     state.String(),
		Percent:   percent,
		Timestamp: at.UnixMilli(),
	}
}
