package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

// debugWorker is an interactive console for on-site diagnosis. It shows the
// live pipeline status and lets an operator inject simulated readings without
// touching the sensor.
func debugWorker(
	ctx context.Context,
	cfg Config,
	dispatcher *Dispatcher,
	injectChan chan<- float64,
	snapshotChan <-chan Snapshot,
) {
	rl, err := readline.New("binwatch> ")
	if err != nil {
		log.Printf("Debug console unavailable: %v\n", err)
		return
	}
	defer rl.Close()

	var mu sync.Mutex
	latest := Snapshot{BinID: cfg.BinID, Name: cfg.BinName, State: "not_full"}

	// Keep the cached snapshot fresh; closing rl unblocks the Readline loop
	// when the agent shuts down.
	go func() {
		for {
			select {
			case snap := <-snapshotChan:
				mu.Lock()
				latest = snap
				mu.Unlock()
			case <-ctx.Done():
				rl.Close()
				return
			}
		}
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			// Closed by shutdown, ^C or ^D
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "status":
			mu.Lock()
			snap := latest
			mu.Unlock()
			fmt.Printf("%s (%s): %.1f%% %s", snap.Name, snap.BinID, snap.Percent, snap.State)
			if snap.Alert {
				fmt.Print("  [ALERT]")
			}
			if !snap.LastUpdate.IsZero() {
				fmt.Printf("  updated %s", snap.LastUpdate.Format("15:04:05"))
			}
			fmt.Println()

		case "queue":
			fmt.Printf("queued: %d  dropped: %d\n", dispatcher.QueueDepth(), dispatcher.Dropped())

		case "simulate":
			if len(fields) != 2 {
				fmt.Println("usage: simulate <distance_mm>")
				continue
			}
			mm, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				fmt.Printf("bad distance %q\n", fields[1])
				continue
			}
			select {
			case injectChan <- mm:
				fmt.Printf("injected %.1fmm\n", mm)
			default:
				fmt.Println("pipeline busy, reading not injected")
			}

		case "quit", "exit":
			return

		case "help":
			fmt.Println("commands: status, queue, simulate <distance_mm>, quit")

		default:
			fmt.Printf("unknown command %q (try help)\n", fields[0])
		}
	}
}
