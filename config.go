package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tmackey/binwatch/level"
)

// Config holds every agent setting. Loaded once at startup from the
// environment (a .env file is honoured via godotenv) and immutable after.
type Config struct {
	BinID   string
	BinName string

	SampleInterval   time.Duration
	FilterWindowSize int
	MinValidMM       float64
	MaxValidMM       float64
	Geometry         level.Geometry

	HighThresholdPct  float64
	LowThresholdPct   float64
	FaultSkipCount    int
	TelemetryInterval time.Duration

	QueueCapacity int
	BackoffBase   time.Duration
	BackoffCap    time.Duration
	ShutdownGrace time.Duration

	TransportKind string // mqtt, http or file
	MQTTBroker    string
	MQTTUsername  string
	MQTTPassword  string
	HTTPEndpoint  string
	EventsFile    string

	ListenAddr   string
	DebugConsole bool
}

// LoadConfig reads and validates the agent configuration. Any validation
// failure here is fatal: the agent must not start with a geometry or
// threshold band it cannot honour.
func LoadConfig() (Config, error) {
	cfg := Config{
		BinID:   envString("BINWATCH_BIN_ID", "bin_1"),
		BinName: envString("BINWATCH_BIN_NAME", "Main Gate Bin"),

		SampleInterval:   envSeconds("BINWATCH_SAMPLE_INTERVAL_S", 5),
		FilterWindowSize: envInt("BINWATCH_FILTER_WINDOW_SIZE", 5),
		MinValidMM:       envFloat("BINWATCH_MIN_VALID_MM", 20),
		MaxValidMM:       envFloat("BINWATCH_MAX_VALID_MM", 4000),

		HighThresholdPct:  envFloat("BINWATCH_HIGH_THRESHOLD_PCT", 80),
		LowThresholdPct:   envFloat("BINWATCH_LOW_THRESHOLD_PCT", 65),
		FaultSkipCount:    envInt("BINWATCH_FAULT_SKIP_COUNT", 5),
		TelemetryInterval: envSeconds("BINWATCH_TELEMETRY_INTERVAL_S", 60),

		QueueCapacity: envInt("BINWATCH_QUEUE_CAPACITY", 128),
		BackoffBase:   envMillis("BINWATCH_BACKOFF_BASE_MS", 1000),
		BackoffCap:    envMillis("BINWATCH_BACKOFF_CAP_MS", 300_000),
		ShutdownGrace: envSeconds("BINWATCH_SHUTDOWN_GRACE_S", 5),

		TransportKind: envString("BINWATCH_TRANSPORT", "mqtt"),
		MQTTBroker:    envString("BINWATCH_MQTT_BROKER", "localhost"),
		MQTTUsername:  os.Getenv("MQTT_USERNAME"),
		MQTTPassword:  os.Getenv("MQTT_PASSWORD"),
		HTTPEndpoint:  envString("BINWATCH_HTTP_ENDPOINT", ""),
		EventsFile:    envString("BINWATCH_EVENTS_FILE", "binwatch-events.ndjson"),

		ListenAddr:   envString("BINWATCH_LISTEN_ADDR", ":5000"),
		DebugConsole: envBool("BINWATCH_DEBUG_CONSOLE", false),
	}

	geometry, err := level.NewGeometry(
		envFloat("BINWATCH_EMPTY_DISTANCE_MM", 400),
		envFloat("BINWATCH_FULL_DISTANCE_MM", 50),
	)
	if err != nil {
		return Config{}, err
	}
	cfg.Geometry = geometry

	if cfg.SampleInterval <= 0 {
		return Config{}, fmt.Errorf("sample interval must be positive, got %v", cfg.SampleInterval)
	}
	if cfg.FilterWindowSize < 1 {
		return Config{}, fmt.Errorf("filter window size must be at least 1, got %d", cfg.FilterWindowSize)
	}
	if cfg.MinValidMM >= cfg.MaxValidMM {
		return Config{}, fmt.Errorf("min valid distance %.0fmm must be below max %.0fmm", cfg.MinValidMM, cfg.MaxValidMM)
	}
	if cfg.TelemetryInterval <= 0 {
		return Config{}, fmt.Errorf("telemetry interval must be positive, got %v", cfg.TelemetryInterval)
	}
	if cfg.QueueCapacity < 1 {
		return Config{}, fmt.Errorf("queue capacity must be at least 1, got %d", cfg.QueueCapacity)
	}
	if cfg.BackoffBase <= 0 || cfg.BackoffCap < cfg.BackoffBase {
		return Config{}, fmt.Errorf("backoff base %v and cap %v are inconsistent", cfg.BackoffBase, cfg.BackoffCap)
	}
	if cfg.TransportKind == "http" && cfg.HTTPEndpoint == "" {
		return Config{}, fmt.Errorf("BINWATCH_HTTP_ENDPOINT is required for the http transport")
	}

	// Threshold validation lives with the tracker; surface it at load time
	// so a bad band never reaches the pipeline.
	if _, err := level.NewTracker(cfg.HighThresholdPct, cfg.LowThresholdPct, cfg.FaultSkipCount); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envSeconds(key string, def float64) time.Duration {
	return time.Duration(envFloat(key, def) * float64(time.Second))
}

func envMillis(key string, def float64) time.Duration {
	return time.Duration(envFloat(key, def) * float64(time.Millisecond))
}
