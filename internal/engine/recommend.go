package engine

import (
	"fmt"
	"time"
)

const (
	// Tolerance bands around the daily minimum
	toleranceVeryNear = 0.05
	toleranceNear     = 0.15

	// Irradiance thresholds for the activity scorers, W/m^2
	evSunThreshold      = 500.0
	laundrySunThreshold = 300.0
	solarDropThreshold  = 200.0

	// Price stability window and limit
	stabilityHours = 2
	stabilityLimit = 0.30
)

// Fixed status messages shown by the presentation layer
const (
	MessageGo   = "Good time to use power now"
	MessageOkay = "Decent time to use power"
	MessageWait = "Wait for better conditions"
)

// Inputs carries everything one recomputation needs. The clock is
// injected so the engine stays a pure function of its arguments.
type Inputs struct {
	Now      time.Time
	Current  *HourlyRecord // nil when today's series lacks the current hour
	Today    DailySeries
	Tomorrow DailySeries
	Sun      *SunSnapshot // nil when the weather feed is unavailable
}

// Recommend runs both activity scorers and aggregates the result. It is
// total over partial inputs: missing price or sun data degrades to fewer
// (or no) recommendations, never an error.
func Recommend(in Inputs) RecommendationState {
	state := RecommendationState{Recommendations: []Recommendation{}}

	if rec := scoreEVCharging(in); rec != nil {
		state.Recommendations = append(state.Recommendations, *rec)
	}
	if rec := scoreLaundry(in); rec != nil {
		state.Recommendations = append(state.Recommendations, *rec)
	}

	state.Overall, state.Message = aggregateStatus(state.Recommendations)
	if len(state.Recommendations) == 0 {
		state.NextWindow = nextGoodWindow(in)
	}
	return state
}

// IsNearLowest reports whether price is within tolerance of the daily
// minimum. The boundary is inclusive: exactly min*(1+tolerance) counts.
func IsNearLowest(price, min, tolerance float64) bool {
	return price <= min*(1+tolerance)
}

// IsPriceStable checks the spread of prices over the next few hours,
// spilling into tomorrow's series when today's runs out. Fewer than two
// available records counts as stable.
func IsPriceStable(in Inputs, hours int) bool {
	window := upcomingRecords(in, hours)
	if len(window) < 2 {
		return true
	}
	min, max := window[0].Display, window[0].Display
	for _, r := range window[1:] {
		if r.Display < min {
			min = r.Display
		}
		if r.Display > max {
			max = r.Display
		}
	}
	if min <= 0 {
		return true
	}
	return (max-min)/min < stabilityLimit
}

// upcomingRecords collects up to n hourly records starting at the current
// hour, continuing into tomorrow if needed.
func upcomingRecords(in Inputs, n int) []HourlyRecord {
	out := make([]HourlyRecord, 0, n)
	cur := in.Now.Hour()
	for _, r := range in.Today.Records {
		if r.Hour >= cur && len(out) < n {
			out = append(out, r)
		}
	}
	for _, r := range in.Tomorrow.Records {
		if len(out) < n {
			out = append(out, r)
		}
	}
	return out
}

func scoreEVCharging(in Inputs) *Recommendation {
	if in.Current == nil || in.Today.Empty() {
		return nil
	}
	price := in.Current.Display
	min := in.Today.Min()
	avg := in.Today.Average()

	if IsNearLowest(price, min, toleranceVeryNear) && in.Sun != nil && in.Sun.Irradiance > evSunThreshold {
		return &Recommendation{
			Activity:  ActivityEVCharging,
			Quality:   QualityExcellent,
			Reason:    "Lowest price + sunny",
			WindowEnd: solarDropOff(in.Now, in.Sun),
		}
	}
	if IsNearLowest(price, min, toleranceNear) {
		return &Recommendation{
			Activity: ActivityEVCharging,
			Quality:  QualityGood,
			Reason:   nearMinimumReason(price, min),
		}
	}
	if in.Sun != nil && in.Sun.Irradiance > evSunThreshold && price < avg {
		return &Recommendation{
			Activity:  ActivityEVCharging,
			Quality:   QualityGood,
			Reason:    "High solar generation",
			WindowEnd: solarDropOff(in.Now, in.Sun),
		}
	}
	return nil
}

func scoreLaundry(in Inputs) *Recommendation {
	if in.Current == nil || in.Today.Empty() {
		return nil
	}
	if !IsPriceStable(in, stabilityHours) {
		return nil
	}
	price := in.Current.Display
	min := in.Today.Min()
	avg := in.Today.Average()
	sunny := in.Sun != nil && in.Sun.Daytime && in.Sun.Irradiance > laundrySunThreshold

	if IsNearLowest(price, min, toleranceVeryNear) && sunny {
		return &Recommendation{
			Activity:  ActivityLaundry,
			Quality:   QualityExcellent,
			Reason:    "Lowest price + sunny",
			WindowEnd: solarDropOff(in.Now, in.Sun),
		}
	}
	if IsNearLowest(price, min, toleranceNear) {
		return &Recommendation{
			Activity: ActivityLaundry,
			Quality:  QualityGood,
			Reason:   nearMinimumReason(price, min),
		}
	}
	if sunny && price < avg {
		return &Recommendation{
			Activity:  ActivityLaundry,
			Quality:   QualityGood,
			Reason:    "High solar generation",
			WindowEnd: solarDropOff(in.Now, in.Sun),
		}
	}
	return nil
}

// nearMinimumReason phrases how close the price is to the day's cheapest
// hour. Within 2% it simply claims the lowest price.
func nearMinimumReason(price, min float64) string {
	if min <= 0 {
		return "Lowest price of the day"
	}
	pct := (price - min) / min * 100
	if pct <= 2 {
		return "Lowest price of the day"
	}
	return fmt.Sprintf("%.0f%% above daily minimum", pct)
}

// solarDropOff estimates when solar generation falls away: the first
// future hour projected below 200 W/m^2, otherwise sunset.
func solarDropOff(now time.Time, sun *SunSnapshot) *time.Time {
	if sun == nil {
		return nil
	}
	hourStart := now.Truncate(time.Hour)
	for _, h := range sun.Projection {
		if h.Offset >= 1 && h.Irradiance < solarDropThreshold {
			t := hourStart.Add(time.Duration(h.Offset) * time.Hour)
			return &t
		}
	}
	if sun.Sunset.IsZero() {
		return nil
	}
	t := sun.Sunset
	return &t
}

func aggregateStatus(recs []Recommendation) (Status, string) {
	hasGood := false
	for _, r := range recs {
		switch r.Quality {
		case QualityExcellent:
			return StatusGo, MessageGo
		case QualityGood:
			hasGood = true
		}
	}
	if hasGood {
		return StatusOkay, MessageOkay
	}
	return StatusWait, MessageWait
}

// nextGoodWindow projects when conditions improve, tried in order: a
// cheap hour later today, tomorrow's cheapest hour, then a solar peak.
func nextGoodWindow(in Inputs) *NextWindow {
	cur := in.Now.Hour()

	if !in.Today.Empty() {
		min := in.Today.Min()
		for _, r := range in.Today.Records {
			if r.Hour > cur && IsNearLowest(r.Display, min, toleranceNear) {
				return &NextWindow{Time: dayHour(in.Now, 0, r.Hour), Reason: "Price drops"}
			}
		}
	}

	if !in.Tomorrow.Empty() {
		min := in.Tomorrow.Min()
		for _, r := range in.Tomorrow.Records {
			if IsNearLowest(r.Display, min, toleranceVeryNear) {
				return &NextWindow{Time: dayHour(in.Now, 1, r.Hour), Reason: "Lowest price"}
			}
		}
	}

	if in.Sun != nil {
		hourStart := in.Now.Truncate(time.Hour)
		for _, h := range in.Sun.Projection {
			if h.Offset >= 1 && h.Irradiance > evSunThreshold {
				return &NextWindow{
					Time:   hourStart.Add(time.Duration(h.Offset) * time.Hour),
					Reason: "Solar peaks",
				}
			}
		}
	}

	return nil
}

func dayHour(now time.Time, dayOffset, hour int) time.Time {
	d := now.AddDate(0, 0, dayOffset)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, now.Location())
}
