package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wattnudge/wattnudge/internal/engine"
)

func TestPotentialFor(t *testing.T) {
	tests := []struct {
		name       string
		irradiance float64
		cloudCover float64
		want       engine.Potential
	}{
		{"strong sun clear sky", 650, 10, engine.PotentialHigh},
		{"strong sun but cloudy", 650, 30, engine.PotentialMedium}, // cloud boundary is exclusive
		{"exactly 600 is not high", 600, 10, engine.PotentialMedium},
		{"moderate sun", 250, 70, engine.PotentialMedium},
		{"weak sun few clouds", 100, 50, engine.PotentialMedium},
		{"weak sun heavy clouds", 100, 60, engine.PotentialLow},
		{"night", 0, 90, engine.PotentialLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PotentialFor(tt.irradiance, tt.cloudCover))
		})
	}
}

func TestConditionFor(t *testing.T) {
	assert.Equal(t, "clear", ConditionFor(0))
	assert.Equal(t, "clear", ConditionFor(19.9))
	assert.Equal(t, "partly_cloudy", ConditionFor(20))
	assert.Equal(t, "cloudy", ConditionFor(50))
	assert.Equal(t, "overcast", ConditionFor(80))
	assert.Equal(t, "overcast", ConditionFor(100))
}

func TestReduceSnapshotAlignsProjection(t *testing.T) {
	now := time.Date(2026, 8, 27, 14, 37, 0, 0, time.UTC)
	f := &Forecast{
		Irradiance: 480,
		CloudCover: 25,
		Daytime:    true,
		Sunrise:    time.Date(2026, 8, 27, 4, 10, 0, 0, time.UTC),
		Sunset:     time.Date(2026, 8, 27, 18, 55, 0, 0, time.UTC),
	}
	// Hourly data covering yesterday's tail through tomorrow
	for h := -3; h < 30; h++ {
		f.Hourly = append(f.Hourly, HourPoint{
			Time:       time.Date(2026, 8, 27, 14, 0, 0, 0, time.UTC).Add(time.Duration(h) * time.Hour),
			Irradiance: float64(100 + h),
			CloudCover: 25,
		})
	}

	snap := ReduceSnapshot(f, now)
	require.NotNil(t, snap)

	// Past hours dropped, projection capped at 24 entries
	require.Len(t, snap.Projection, 24)
	assert.Equal(t, 0, snap.Projection[0].Offset)
	assert.Equal(t, 100.0, snap.Projection[0].Irradiance)
	assert.Equal(t, 23, snap.Projection[23].Offset)
	assert.Equal(t, 123.0, snap.Projection[23].Irradiance)

	assert.Equal(t, engine.PotentialMedium, snap.Potential)
	assert.Equal(t, "partly_cloudy", snap.Condition)
	assert.True(t, snap.Daytime)
}

func TestReduceSnapshotNilForecast(t *testing.T) {
	assert.Nil(t, ReduceSnapshot(nil, time.Now()))
}
