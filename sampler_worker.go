package main

import (
	"context"
	"log"
	"time"

	"github.com/tmackey/binwatch/level"
)

// Snapshot is the externally visible status of the monitored bin, published
// after every processed tick. Field names on the wire match the status API.
type Snapshot struct {
	BinID      string    `json:"bin_id"`
	Name       string    `json:"name"`
	Percent    float64   `json:"level"`
	State      string    `json:"state"`
	Alert      bool      `json:"is_alert"`
	LastUpdate time.Time `json:"last_update"`
	QueueDepth int       `json:"queue_depth"`
	Dropped    uint64    `json:"dropped"`
}

// binPipeline is the synchronous sampling pipeline for one bin: filter,
// estimator and threshold tracker, plus the last known fill estimate.
// It runs entirely on the sampler goroutine and never blocks on I/O.
type binPipeline struct {
	filter   *level.MedianFilter
	geometry level.Geometry
	tracker  *level.Tracker
	percent  float64
}

// newBinPipeline builds the pipeline from a validated configuration.
func newBinPipeline(cfg Config) (*binPipeline, error) {
	tracker, err := level.NewTracker(cfg.HighThresholdPct, cfg.LowThresholdPct, cfg.FaultSkipCount)
	if err != nil {
		return nil, err
	}
	return &binPipeline{
		filter:   level.NewMedianFilter(cfg.FilterWindowSize, cfg.MinValidMM, cfg.MaxValidMM),
		geometry: cfg.Geometry,
		tracker:  tracker,
	}, nil
}

// process runs one raw sample through the pipeline. It returns an alert event
// and true when the sample caused a state transition; a rejected sample is
// counted toward sensor-fault detection instead of producing an estimate.
func (p *binPipeline) process(s level.RawSample) (Event, bool) {
	reading, ok := p.filter.Apply(s)
	if !ok {
		state, changed := p.tracker.ObserveSkip()
		if changed {
			return newEvent(KindAlert, state, p.percent, s.Timestamp), true
		}
		return Event{}, false
	}

	l := p.geometry.Estimate(reading)
	p.percent = l.Percent

	state, changed := p.tracker.Observe(l)
	if changed {
		return newEvent(KindAlert, state, l.Percent, l.Timestamp), true
	}
	return Event{}, false
}

// telemetry builds a periodic liveness event from the current pipeline state.
func (p *binPipeline) telemetry(at time.Time) Event {
	return newEvent(KindTelemetry, p.tracker.State(), p.percent, at)
}

// readSample turns a driver failure into an invalid sample so the filter
// rejects it like any other bad reading.
func readSample(sensor Sensor) level.RawSample {
	raw, err := sensor.Read()
	if err != nil {
		log.Printf("Sensor read failed: %v\n", err)
		return level.RawSample{Timestamp: time.Now(), Valid: false}
	}
	return raw
}

// samplerWorker drives the sampling pipeline. Each tick reads the sensor,
// runs the pipeline, hands any alert to the dispatcher and publishes a status
// snapshot. A separate ticker enqueues periodic telemetry so the consumer
// sees liveness even without threshold crossings. Values arriving on
// injectChan are processed as valid readings through the full filter path.
func samplerWorker(
	ctx context.Context,
	cfg Config,
	sensor Sensor,
	pipeline *binPipeline,
	dispatcher *Dispatcher,
	injectChan <-chan float64,
	snapshotChan chan<- Snapshot,
) {
	log.Printf("Sampler started for %s (every %v)\n", cfg.BinID, cfg.SampleInterval)

	sampleTicker := time.NewTicker(cfg.SampleInterval)
	defer sampleTicker.Stop()
	telemetryTicker := time.NewTicker(cfg.TelemetryInterval)
	defer telemetryTicker.Stop()

	tick := func(raw level.RawSample) {
		if ev, changed := pipeline.process(raw); changed {
			log.Printf("Bin %s is now %s (%.1f%%)\n", cfg.BinID, ev.State, ev.Percent)
			dispatcher.Enqueue(ev)
		}

		snap := Snapshot{
			BinID:      cfg.BinID,
			Name:       cfg.BinName,
			Percent:    pipeline.percent,
			State:      pipeline.tracker.State().String(),
			Alert:      pipeline.tracker.State() == level.Full,
			LastUpdate: raw.Timestamp,
			QueueDepth: dispatcher.QueueDepth(),
			Dropped:    dispatcher.Dropped(),
		}
		select {
		case snapshotChan <- snap:
		default:
			// Snapshot consumers lagging must never stall sampling
		}
	}

	for {
		select {
		case <-sampleTicker.C:
			tick(readSample(sensor))

		case mm := <-injectChan:
			log.Printf("Injecting simulated reading: %.1fmm\n", mm)
			tick(level.RawSample{DistanceMM: mm, Timestamp: time.Now(), Valid: true})

		case <-telemetryTicker.C:
			dispatcher.Enqueue(pipeline.telemetry(time.Now()))

		case <-ctx.Done():
			log.Println("Sampler stopped")
			return
		}
	}
}
