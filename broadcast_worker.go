package main

import (
	"context"
	"log"
)

// broadcastWorker fans status snapshots out to every consumer (HTTP status
// server, debug console). Sends are non-blocking: a consumer that cannot keep
// up misses a snapshot rather than backing up the sampler.
func broadcastWorker(ctx context.Context, snapshotChan <-chan Snapshot, outputChans []chan<- Snapshot) {
	for {
		select {
		case snap := <-snapshotChan:
			for i, ch := range outputChans {
				select {
				case ch <- snap:
				case <-ctx.Done():
					return
				default:
					log.Printf("Snapshot consumer %d is lagging, skipping update\n", i)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
