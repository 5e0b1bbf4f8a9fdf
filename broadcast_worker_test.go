package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastWorker_StalledConsumerDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshotChan := make(chan Snapshot)
	stalled := make(chan Snapshot) // unbuffered and never read
	healthy := make(chan Snapshot, 128)

	go broadcastWorker(ctx, snapshotChan, []chan<- Snapshot{stalled, healthy})

	// Every send must go through promptly even though one consumer is stuck
	for i := 0; i < 100; i++ {
		select {
		case snapshotChan <- Snapshot{BinID: "bin_1", Percent: float64(i)}:
		case <-time.After(time.Second):
			t.Fatalf("broadcast backed up at snapshot %d", i)
		}
	}

	waitFor(t, func() bool { return len(healthy) == 100 })
	first := <-healthy
	assert.Equal(t, 0.0, first.Percent)
}

func TestBroadcastWorker_FansOutToAllConsumers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshotChan := make(chan Snapshot)
	a := make(chan Snapshot, 8)
	b := make(chan Snapshot, 8)

	go broadcastWorker(ctx, snapshotChan, []chan<- Snapshot{a, b})

	snapshotChan <- Snapshot{BinID: "bin_1", Percent: 42}

	waitFor(t, func() bool { return len(a) == 1 && len(b) == 1 })
	assert.Equal(t, 42.0, (<-a).Percent)
	assert.Equal(t, 42.0, (<-b).Percent)
}
