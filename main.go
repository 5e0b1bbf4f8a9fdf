package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

// SafeGo launches a goroutine with panic recovery and retry logic.
// On panic, retries with exponential backoff (max 10 retries).
// Retry count resets if the worker ran for 2+ minutes before failing.
// After exhausting retries, cancels the context to trigger shutdown.
func SafeGo(
	ctx context.Context,
	cancel context.CancelFunc,
	name string,
	fn func(ctx context.Context),
) {
	const maxRetries = 10
	const maxDelay = 10 * time.Minute
	const resetAfter = 2 * time.Minute

	go func() {
		retries := 0
		delay := time.Second

		for {
			startTime := time.Now()
			var panicValue any

			func() {
				defer func() {
					panicValue = recover()
				}()
				fn(ctx)
			}()

			// Normal return covers both cancellation and completion
			if panicValue == nil {
				return
			}

			if time.Since(startTime) >= resetAfter {
				retries = 0
				delay = time.Second
			}

			retries++
			log.Printf("Panic in %s (attempt %d/%d): %v\n", name, retries, maxRetries, panicValue)

			if retries >= maxRetries {
				log.Printf("%s failed after %d retries, shutting down\n", name, maxRetries)
				cancel()
				return
			}

			log.Printf("%s will retry in %v\n", name, delay)
			select {
			case <-time.After(delay):
				delay = min(delay*2, maxDelay)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func main() {
	log.Println("Starting binwatch...")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v\n", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	pipeline, err := newBinPipeline(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	transport, err := newTransport(cfg)
	if err != nil {
		log.Fatalf("Failed to set up %s transport: %v", cfg.TransportKind, err)
	}
	defer transport.Close() //nolint:errcheck // nothing left to do with the error at exit

	ctx, cancel := context.WithCancel(context.Background())

	dispatcher := NewDispatcher(transport, cfg.QueueCapacity, cfg.BackoffBase, cfg.BackoffCap, cfg.ShutdownGrace)
	SafeGo(ctx, cancel, "delivery-loop", func(ctx context.Context) {
		dispatcher.Run(ctx)
	})

	// Channels between the pipeline and its consumers
	injectChan := make(chan float64, 4)
	snapshotChan := make(chan Snapshot, 10)

	// Snapshot consumers, fed by the broadcast worker
	var downstreamChans []chan<- Snapshot
	statusChan := make(chan Snapshot, 10)
	downstreamChans = append(downstreamChans, statusChan)

	status := newStatusServer(cfg, injectChan)
	SafeGo(ctx, cancel, "status-consumer", func(ctx context.Context) {
		status.run(ctx, statusChan)
	})
	SafeGo(ctx, cancel, "status-server", func(ctx context.Context) {
		status.serve(ctx)
	})

	if cfg.DebugConsole {
		debugChan := make(chan Snapshot, 10)
		downstreamChans = append(downstreamChans, debugChan)
		SafeGo(ctx, cancel, "debug-console", func(ctx context.Context) {
			debugWorker(ctx, cfg, dispatcher, injectChan, debugChan)
		})
		log.Println("Debug console started")
	}

	SafeGo(ctx, cancel, "broadcast-worker", func(ctx context.Context) {
		broadcastWorker(ctx, snapshotChan, downstreamChans)
	})

	sensor := NewSimulatedSensor(cfg.MinValidMM, cfg.MaxValidMM)
	SafeGo(ctx, cancel, "sampler", func(ctx context.Context) {
		samplerWorker(ctx, cfg, sensor, pipeline, dispatcher, injectChan, snapshotChan)
	})

	// Wait for interrupt signal or context cancellation (from panic)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Println("\nShutting down...")
	case <-ctx.Done():
		log.Println("\nShutting down due to error...")
	}
	cancel()

	// Sampling stops immediately; the delivery loop gets its flush grace
	select {
	case <-dispatcher.Done():
	case <-time.After(cfg.ShutdownGrace + 2*time.Second):
		log.Println("Delivery loop did not stop in time")
	}
}
