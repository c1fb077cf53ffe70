package weather

import (
	"time"

	"github.com/wattnudge/wattnudge/internal/engine"
)

// Generation-potential thresholds
const (
	highIrradiance   = 600.0
	highMaxCloud     = 30.0
	mediumIrradiance = 200.0
	mediumMaxCloud   = 60.0
)

// ReduceSnapshot reduces a raw forecast into the simplified solar signal
// the recommendation engine consumes. The hourly projection is aligned so
// that offset 0 is the hour containing now; up to 24 hours are kept.
// A nil forecast reduces to a nil snapshot.
func ReduceSnapshot(f *Forecast, now time.Time) *engine.SunSnapshot {
	if f == nil {
		return nil
	}

	snap := &engine.SunSnapshot{
		Irradiance: f.Irradiance,
		CloudCover: f.CloudCover,
		Daytime:    f.Daytime,
		Potential:  PotentialFor(f.Irradiance, f.CloudCover),
		Condition:  ConditionFor(f.CloudCover),
		Sunrise:    f.Sunrise,
		Sunset:     f.Sunset,
	}

	hourStart := now.UTC().Truncate(time.Hour)
	for _, p := range f.Hourly {
		offset := int(p.Time.Sub(hourStart) / time.Hour)
		if offset < 0 || offset > 23 {
			continue
		}
		snap.Projection = append(snap.Projection, engine.SunHour{
			Offset:     offset,
			Irradiance: p.Irradiance,
			CloudCover: p.CloudCover,
		})
	}
	return snap
}

// PotentialFor classifies solar generation potential from irradiance and
// cloud cover.
func PotentialFor(irradiance, cloudCover float64) engine.Potential {
	if irradiance > highIrradiance && cloudCover < highMaxCloud {
		return engine.PotentialHigh
	}
	if irradiance > mediumIrradiance || cloudCover < mediumMaxCloud {
		return engine.PotentialMedium
	}
	return engine.PotentialLow
}

// ConditionFor labels the sky purely from cloud cover.
func ConditionFor(cloudCover float64) string {
	switch {
	case cloudCover < 20:
		return "clear"
	case cloudCover < 50:
		return "partly_cloudy"
	case cloudCover < 80:
		return "cloudy"
	default:
		return "overcast"
	}
}
