package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmackey/binwatch/level"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "bin_1", cfg.BinID)
	assert.Equal(t, 5*time.Second, cfg.SampleInterval)
	assert.Equal(t, 5, cfg.FilterWindowSize)
	assert.Equal(t, 20.0, cfg.MinValidMM)
	assert.Equal(t, 4000.0, cfg.MaxValidMM)
	assert.Equal(t, 400.0, cfg.Geometry.EmptyDistanceMM)
	assert.Equal(t, 50.0, cfg.Geometry.FullDistanceMM)
	assert.Equal(t, 80.0, cfg.HighThresholdPct)
	assert.Equal(t, 65.0, cfg.LowThresholdPct)
	assert.Equal(t, 5, cfg.FaultSkipCount)
	assert.Equal(t, time.Minute, cfg.TelemetryInterval)
	assert.Equal(t, 128, cfg.QueueCapacity)
	assert.Equal(t, time.Second, cfg.BackoffBase)
	assert.Equal(t, 5*time.Minute, cfg.BackoffCap)
	assert.Equal(t, "mqtt", cfg.TransportKind)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("BINWATCH_BIN_ID", "dock_3")
	t.Setenv("BINWATCH_SAMPLE_INTERVAL_S", "1.5")
	t.Setenv("BINWATCH_FILTER_WINDOW_SIZE", "7")
	t.Setenv("BINWATCH_EMPTY_DISTANCE_MM", "100")
	t.Setenv("BINWATCH_FULL_DISTANCE_MM", "10")
	t.Setenv("BINWATCH_QUEUE_CAPACITY", "32")
	t.Setenv("BINWATCH_BACKOFF_BASE_MS", "250")
	t.Setenv("BINWATCH_TRANSPORT", "file")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "dock_3", cfg.BinID)
	assert.Equal(t, 1500*time.Millisecond, cfg.SampleInterval)
	assert.Equal(t, 7, cfg.FilterWindowSize)
	assert.Equal(t, 100.0, cfg.Geometry.EmptyDistanceMM)
	assert.Equal(t, 32, cfg.QueueCapacity)
	assert.Equal(t, 250*time.Millisecond, cfg.BackoffBase)
	assert.Equal(t, "file", cfg.TransportKind)
}

func TestLoadConfig_InvalidGeometryIsFatal(t *testing.T) {
	t.Setenv("BINWATCH_EMPTY_DISTANCE_MM", "50")
	t.Setenv("BINWATCH_FULL_DISTANCE_MM", "400")

	_, err := LoadConfig()
	assert.ErrorIs(t, err, level.ErrInvalidGeometry)
}

func TestLoadConfig_InvalidThresholdBand(t *testing.T) {
	t.Setenv("BINWATCH_HIGH_THRESHOLD_PCT", "60")
	t.Setenv("BINWATCH_LOW_THRESHOLD_PCT", "70")

	_, err := LoadConfig()
	assert.ErrorIs(t, err, level.ErrInvalidThresholds)
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Run("http transport needs an endpoint", func(t *testing.T) {
		t.Setenv("BINWATCH_TRANSPORT", "http")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("zero queue capacity", func(t *testing.T) {
		t.Setenv("BINWATCH_QUEUE_CAPACITY", "0")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("cap below base", func(t *testing.T) {
		t.Setenv("BINWATCH_BACKOFF_BASE_MS", "5000")
		t.Setenv("BINWATCH_BACKOFF_CAP_MS", "1000")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("inverted physical range", func(t *testing.T) {
		t.Setenv("BINWATCH_MIN_VALID_MM", "500")
		t.Setenv("BINWATCH_MAX_VALID_MM", "100")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
