package engine

import "time"

// Tier is the coarse classification of an hour's price relative to the
// rest of its day
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// TradingDay identifies which day-ahead series a sample belongs to
type TradingDay int

const (
	DayToday TradingDay = iota
	DayTomorrow
)

// PriceSample is one hour's spot price as delivered by the market feed,
// in EUR/MWh
type PriceSample struct {
	Hour     int        `json:"hour"` // 0-23
	Day      TradingDay `json:"day"`
	PriceEUR float64    `json:"price_eur"`
}

// HourlyRecord is a PriceSample enriched with the display-currency price
// and the hour's relative cheapness within its own day
type HourlyRecord struct {
	Hour     int        `json:"hour"`
	Day      TradingDay `json:"day"`
	PriceEUR float64    `json:"price_eur"`
	Display  float64    `json:"display"` // converted to the display currency
	Currency string     `json:"currency"`
	Tier     Tier       `json:"tier"`
	Rank     int        `json:"rank"` // 1 = cheapest hour of the day
}

// DailySeries holds one calendar day's hourly records, sorted ascending by
// hour. Missing hours are simply absent; consumers must handle series with
// fewer than 24 entries.
type DailySeries struct {
	Day     TradingDay     `json:"day"`
	Records []HourlyRecord `json:"records"`
}

// At returns the record for the given hour, if present.
func (s DailySeries) At(hour int) (HourlyRecord, bool) {
	for _, r := range s.Records {
		if r.Hour == hour {
			return r, true
		}
	}
	return HourlyRecord{}, false
}

// Empty reports whether the series carries no records.
func (s DailySeries) Empty() bool {
	return len(s.Records) == 0
}

// Min returns the lowest display-currency price of the day, or 0 for an
// empty series.
func (s DailySeries) Min() float64 {
	if len(s.Records) == 0 {
		return 0
	}
	min := s.Records[0].Display
	for _, r := range s.Records[1:] {
		if r.Display < min {
			min = r.Display
		}
	}
	return min
}

// Average returns the arithmetic mean of the day's display-currency
// prices, or 0 for an empty series.
func (s DailySeries) Average() float64 {
	if len(s.Records) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range s.Records {
		sum += r.Display
	}
	return sum / float64(len(s.Records))
}

// Potential is the coarse solar generation classification
type Potential string

const (
	PotentialHigh   Potential = "high"
	PotentialMedium Potential = "medium"
	PotentialLow    Potential = "low"
)

// SunHour is one hour of the irradiance projection. Offset 0 is the
// current hour.
type SunHour struct {
	Offset     int     `json:"offset"`
	Irradiance float64 `json:"irradiance"`  // W/m^2
	CloudCover float64 `json:"cloud_cover"` // percent 0-100
}

// SunSnapshot is the reduced solar forecast signal: current conditions
// plus an hourly projection aligned to the current hour.
type SunSnapshot struct {
	Irradiance float64   `json:"irradiance"`
	CloudCover float64   `json:"cloud_cover"`
	Daytime    bool      `json:"daytime"`
	Potential  Potential `json:"potential"`
	Condition  string    `json:"condition"` // clear, partly_cloudy, cloudy, overcast
	Projection []SunHour `json:"projection"`
	Sunrise    time.Time `json:"sunrise"`
	Sunset     time.Time `json:"sunset"`
}

// Activity is something the user might want to time against cheap power
type Activity string

const (
	ActivityEVCharging Activity = "ev_charging"
	ActivityLaundry    Activity = "laundry"
)

// Quality grades how good the current conditions are for an activity
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityOkay      Quality = "okay"
	QualityWait      Quality = "wait"
)

// Recommendation is a single per-activity suggestion. WindowEnd, when set,
// estimates how long the favourable conditions last.
type Recommendation struct {
	Activity  Activity   `json:"activity"`
	Quality   Quality    `json:"quality"`
	Reason    string     `json:"reason"`
	WindowEnd *time.Time `json:"window_end,omitempty"`
}

// Status aggregates the active recommendations into a single signal
type Status string

const (
	StatusGo   Status = "go"
	StatusOkay Status = "okay"
	StatusWait Status = "wait"
)

// NextWindow projects the next good time to use power when nothing is
// recommended right now.
type NextWindow struct {
	Time   time.Time `json:"time"`
	Reason string    `json:"reason"`
}

// RecommendationState is the full output of one engine recomputation.
// It is rebuilt from scratch every cycle; the only history kept anywhere
// is the notifier's last-observed markers.
type RecommendationState struct {
	Recommendations []Recommendation `json:"recommendations"`
	Overall         Status           `json:"overall"`
	Message         string           `json:"message"`
	NextWindow      *NextWindow      `json:"next_window,omitempty"`
}
