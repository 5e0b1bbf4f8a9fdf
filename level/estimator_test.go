package level

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeometry_Validation(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		g, err := NewGeometry(400, 50)
		require.NoError(t, err)
		assert.Equal(t, 400.0, g.EmptyDistanceMM)
		assert.Equal(t, 50.0, g.FullDistanceMM)
	})

	t.Run("empty equal to full", func(t *testing.T) {
		_, err := NewGeometry(100, 100)
		assert.ErrorIs(t, err, ErrInvalidGeometry)
	})

	t.Run("empty below full", func(t *testing.T) {
		_, err := NewGeometry(50, 400)
		assert.ErrorIs(t, err, ErrInvalidGeometry)
	})
}

func TestEstimate_LinearMapping(t *testing.T) {
	g, err := NewGeometry(100, 10)
	require.NoError(t, err)

	// Readings of 95, 90, 85, 80, 75 mm against a 100mm-empty, 10mm-full bin
	cases := []struct {
		distanceMM float64
		percent    float64
	}{
		{95, 5.555},
		{90, 11.111},
		{85, 16.666},
		{80, 22.222},
		{75, 27.777},
		{55, 50.0},
		{10, 100.0},
		{100, 0.0},
	}

	for _, c := range cases {
		l := g.Estimate(Reading{DistanceMM: c.distanceMM})
		assert.InDelta(t, c.percent, l.Percent, 0.001, "distance %.0fmm", c.distanceMM)
	}
}

func TestEstimate_ClampsOvershoot(t *testing.T) {
	g, err := NewGeometry(100, 10)
	require.NoError(t, err)

	t.Run("closer than full", func(t *testing.T) {
		l := g.Estimate(Reading{DistanceMM: 2})
		assert.Equal(t, 100.0, l.Percent)
	})

	t.Run("farther than empty", func(t *testing.T) {
		l := g.Estimate(Reading{DistanceMM: 150})
		assert.Equal(t, 0.0, l.Percent)
	})
}

func TestEstimate_PreservesTimestamp(t *testing.T) {
	g, err := NewGeometry(100, 10)
	require.NoError(t, err)

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	l := g.Estimate(Reading{DistanceMM: 55, Timestamp: ts})
	assert.Equal(t, ts, l.Timestamp)
}

func TestDistanceFor_InvertsEstimate(t *testing.T) {
	g, err := NewGeometry(400, 50)
	require.NoError(t, err)

	for _, percent := range []float64{0, 25, 50, 86.7, 100} {
		d := g.DistanceFor(percent)
		l := g.Estimate(Reading{DistanceMM: d})
		assert.InDelta(t, percent, l.Percent, 0.001)
	}
}
