package prices

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/wattnudge/wattnudge/internal/engine"
	"github.com/wattnudge/wattnudge/internal/log"
)

// RateSource supplies the display-currency exchange rate (units per EUR).
// Implementations fall back to a last-known rate instead of failing.
type RateSource interface {
	Rate(ctx context.Context, currency string) float64
}

// Aggregator merges raw feed samples into normalized daily series: sorted
// by hour, gaps preserved, every hour enriched with the converted price
// and its tier/rank within its own day. On feed failure it keeps serving
// the previous series for that day.
type Aggregator struct {
	feed      Feed
	rates     RateSource
	currency  string
	precision int

	cached map[engine.TradingDay]engine.DailySeries
}

// NewAggregator creates an aggregator for the given feed and display
// currency. Converted prices are rounded to precision decimal places.
func NewAggregator(feed Feed, rates RateSource, currency string, precision int) *Aggregator {
	return &Aggregator{
		feed:      feed,
		rates:     rates,
		currency:  currency,
		precision: precision,
		cached:    make(map[engine.TradingDay]engine.DailySeries),
	}
}

// Prime seeds the fallback cache, typically from persisted state at
// startup.
func (a *Aggregator) Prime(series ...engine.DailySeries) {
	for _, s := range series {
		if !s.Empty() {
			a.cached[s.Day] = s
		}
	}
}

// Refresh fetches and normalizes both trading days. Feed failures are
// soft: they are logged and the cached series for that day is returned
// unchanged.
func (a *Aggregator) Refresh(ctx context.Context, now time.Time) (today, tomorrow engine.DailySeries) {
	today = a.RefreshDay(ctx, now, engine.DayToday)
	tomorrow = a.RefreshDay(ctx, now, engine.DayTomorrow)
	return today, tomorrow
}

// RefreshDay fetches and normalizes a single trading day.
func (a *Aggregator) RefreshDay(ctx context.Context, now time.Time, day engine.TradingDay) engine.DailySeries {
	date := now
	if day == engine.DayTomorrow {
		date = now.AddDate(0, 0, 1)
	}

	samples, err := a.feed.FetchDay(ctx, date)
	if err != nil {
		log.Ctx(ctx).Warn("price fetch failed, serving cached series",
			"day", int(day), "date", date.Format("2006-01-02"), "error", err)
		return a.Cached(day)
	}

	rate := a.rates.Rate(ctx, a.currency)
	series := a.build(samples, day, rate)
	a.cached[day] = series
	return series
}

// Cached returns the last good series for a day, which may be empty.
func (a *Aggregator) Cached(day engine.TradingDay) engine.DailySeries {
	return a.cached[day]
}

// build normalizes raw samples into a DailySeries: hours deduplicated
// (last sample wins), sorted ascending, classified against the day's own
// distribution only.
func (a *Aggregator) build(samples []Sample, day engine.TradingDay, rate float64) engine.DailySeries {
	byHour := make(map[int]float64, len(samples))
	for _, s := range samples {
		if s.Hour < 0 || s.Hour > 23 {
			continue
		}
		byHour[s.Hour] = s.PriceEUR
	}

	hours := make([]int, 0, len(byHour))
	for h := range byHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	series := engine.DailySeries{Day: day}
	if len(hours) == 0 {
		return series
	}

	eurPrices := make([]float64, len(hours))
	for i, h := range hours {
		eurPrices[i] = byHour[h]
	}
	cls := engine.ClassifyDay(eurPrices)

	for i, h := range hours {
		series.Records = append(series.Records, engine.HourlyRecord{
			Hour:     h,
			Day:      day,
			PriceEUR: eurPrices[i],
			Display:  roundTo(eurPrices[i]*rate, a.precision),
			Currency: a.currency,
			Tier:     cls[i].Tier,
			Rank:     cls[i].Rank,
		})
	}
	return series
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
