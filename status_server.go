package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// statusServer exposes the local status API: current level, the bin listing,
// a server-sent-events stream of live updates and a simulation hook that
// injects readings into the pipeline. This is a read-side convenience for
// on-site debugging and dashboards; the telemetry path to the remote
// consumer goes through the dispatcher, not through this server.
type statusServer struct {
	cfg        Config
	injectChan chan<- float64

	mu          sync.RWMutex
	latest      Snapshot
	subscribers map[chan Snapshot]struct{}
}

func newStatusServer(cfg Config, injectChan chan<- float64) *statusServer {
	return &statusServer{
		cfg:         cfg,
		injectChan:  injectChan,
		latest:      Snapshot{BinID: cfg.BinID, Name: cfg.BinName, State: "not_full"},
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// run consumes snapshots from the broadcast worker, caching the latest and
// fanning out to any connected SSE clients.
func (s *statusServer) run(ctx context.Context, snapshotChan <-chan Snapshot) {
	for {
		select {
		case snap := <-snapshotChan:
			s.mu.Lock()
			s.latest = snap
			for ch := range s.subscribers {
				select {
				case ch <- snap:
				default:
					// Slow SSE client misses this update
				}
			}
			s.mu.Unlock()

		case <-ctx.Done():
			return
		}
	}
}

// serve runs the HTTP server until the context is cancelled.
func (s *statusServer) serve(ctx context.Context) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/level", s.getLevel)
	r.GET("/api/bins", s.getBins)
	r.GET("/stream", s.stream)
	r.POST("/api/simulate/:level", s.simulate)

	srv := &http.Server{Addr: s.cfg.ListenAddr, Handler: r}

	go func() {
		log.Printf("Status API listening on %s\n", s.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Status API server failed: %v\n", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Status API shutdown: %v\n", err)
	}
}

func (s *statusServer) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// getLevel returns the monitored bin's latest status.
func (s *statusServer) getLevel(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot())
}

// getBins returns all bins keyed by id. The agent monitors a single bin, so
// the map has one entry; the shape matches multi-bin dashboards.
func (s *statusServer) getBins(c *gin.Context) {
	snap := s.snapshot()
	c.JSON(http.StatusOK, gin.H{snap.BinID: snap})
}

// stream is the SSE endpoint: an initial snapshot followed by live updates.
func (s *statusServer) stream(c *gin.Context) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.latest
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subscribers, ch)
		s.mu.Unlock()
	}()

	c.SSEvent("snapshot", gin.H{initial.BinID: initial})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case snap := <-ch:
			c.SSEvent("update", snap)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// simulate injects a synthetic reading for the given fill percentage. The
// value is converted back to a raw distance and flows through the full
// filter path, so it behaves exactly like a real measurement.
func (s *statusServer) simulate(c *gin.Context) {
	percent, err := strconv.ParseFloat(c.Param("level"), 64)
	if err != nil || percent < 0 || percent > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "level must be a percentage in [0, 100]"})
		return
	}

	mm := s.cfg.Geometry.DistanceFor(percent)
	select {
	case s.injectChan <- mm:
		c.JSON(http.StatusOK, gin.H{"ok": true, "bin": s.cfg.BinID, "level": percent})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline busy, try again"})
	}
}
