package main

import (
	"context"
	"log"
	"sync"
	"time"
)

// Dispatcher owns the bounded store-and-forward queue between the sampling
// pipeline and the transport. The pipeline enqueues, the delivery loop
// dequeues; no other mutation is permitted from either side.
//
// Delivery is strict FIFO. The head event is retried in place with
// exponential backoff until the transport accepts it, so ordering is never
// broken by a failed send. When the queue is at capacity, the oldest event is
// evicted to admit the new one and the cumulative dropped counter increases;
// the counter is stamped onto outgoing telemetry events so the consumer can
// see overflow even if the dropped events themselves are gone.
type Dispatcher struct {
	transport Transport
	capacity  int
	baseDelay time.Duration
	maxDelay  time.Duration
	grace     time.Duration

	mu      sync.Mutex
	queue   []Event
	seq     uint64
	dropped uint64
	closed  bool

	notify chan struct{}
	done   chan struct{}
}

// NewDispatcher creates a dispatcher; grace bounds how long the delivery loop
// may keep flushing the queue after shutdown begins.
func NewDispatcher(t Transport, capacity int, baseDelay, maxDelay, grace time.Duration) *Dispatcher {
	return &Dispatcher{
		transport: t,
		capacity:  capacity,
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
		grace:     grace,
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Enqueue assigns the next sequence id and appends the event to the queue.
// It never blocks and never fails: at capacity the oldest queued event is
// dropped to admit the new one. Once the shutdown flush has run, nothing can
// deliver the event anymore, so it is counted as dropped instead of queued.
func (d *Dispatcher) Enqueue(ev Event) {
	d.mu.Lock()
	if d.closed {
		d.dropped++
		d.mu.Unlock()
		return
	}
	d.seq++
	ev.SequenceID = d.seq

	if len(d.queue) >= d.capacity {
		over := len(d.queue) - d.capacity + 1
		d.queue = append(d.queue[:0:0], d.queue[over:]...)
		d.dropped += uint64(over)
	}
	d.queue = append(d.queue, ev)
	d.mu.Unlock()

	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// QueueDepth returns the number of events currently awaiting delivery.
func (d *Dispatcher) QueueDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Dropped returns the cumulative count of events lost to queue overflow or
// discarded at shutdown.
func (d *Dispatcher) Dropped() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Done is closed once the delivery loop has finished its shutdown flush.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Run is the delivery loop. It repeatedly attempts to send the head of the
// queue, backing off exponentially on failure, and exits after a bounded
// flush once ctx is cancelled. Run blocks only inside the transport call and
// the backoff wait; the sampling pipeline is never held up by it.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Println("Delivery loop started")
	defer close(d.done)

	delay := d.baseDelay
	for {
		ev, ok := d.head()
		if !ok {
			select {
			case <-d.notify:
				continue
			case <-ctx.Done():
				d.flush()
				return
			}
		}

		if ev.Kind == KindTelemetry {
			ev.Dropped = d.Dropped()
		}

		if err := d.transport.Send(ctx, ev); err != nil {
			if ctx.Err() != nil {
				d.flush()
				return
			}

			log.Printf("Failed to deliver event %d, retrying in %v: %v\n", ev.SequenceID, delay, err)
			select {
			case <-time.After(delay):
				delay = min(delay*2, d.maxDelay)
			case <-ctx.Done():
				d.flush()
				return
			}
			continue
		}

		d.popHead(ev.SequenceID)
		delay = d.baseDelay
	}
}

// head returns a copy of the oldest queued event.
func (d *Dispatcher) head() (Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return Event{}, false
	}
	return d.queue[0], true
}

// popHead removes the head only if it is still the event that was just
// delivered. An overflow eviction can race the in-flight send and remove it
// first; popping unconditionally would then lose an undelivered event.
func (d *Dispatcher) popHead(seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) > 0 && d.queue[0].SequenceID == seq {
		d.queue = d.queue[1:]
	}
}

// flush drains as much of the queue as the shutdown grace period allows, one
// attempt per event. Whatever remains is discarded and counted as dropped,
// and the queue is closed so a sampler tick racing shutdown cannot slip an
// event past the accounting.
func (d *Dispatcher) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), d.grace)
	defer cancel()

	flushed := 0
	for ctx.Err() == nil {
		ev, ok := d.head()
		if !ok {
			break
		}
		if ev.Kind == KindTelemetry {
			ev.Dropped = d.Dropped()
		}
		if err := d.transport.Send(ctx, ev); err != nil {
			break
		}
		d.popHead(ev.SequenceID)
		flushed++
	}

	d.mu.Lock()
	d.closed = true
	discarded := len(d.queue)
	d.queue = nil
	d.dropped += uint64(discarded)
	d.mu.Unlock()

	log.Printf("Delivery loop stopped: flushed %d events, discarded %d\n", flushed, discarded)
}
