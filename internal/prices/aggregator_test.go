package prices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wattnudge/wattnudge/internal/engine"
)

type fakeFeed struct {
	byDate map[string][]Sample
	err    error
}

func (f *fakeFeed) FetchDay(ctx context.Context, day time.Time) ([]Sample, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDate[day.Format("2006-01-02")], nil
}

type fixedRate float64

func (r fixedRate) Rate(ctx context.Context, currency string) float64 {
	return float64(r)
}

var testNow = time.Date(2026, 8, 27, 14, 0, 0, 0, time.UTC)

func TestAggregatorSortsAndClassifies(t *testing.T) {
	feed := &fakeFeed{byDate: map[string][]Sample{
		"2026-08-27": {
			{Hour: 5, PriceEUR: 90},
			{Hour: 0, PriceEUR: 30},
			{Hour: 3, PriceEUR: 60},
			{Hour: 1, PriceEUR: 45},
		},
	}}
	agg := NewAggregator(feed, fixedRate(25.3), "CZK", 2)

	today, tomorrow := agg.Refresh(context.Background(), testNow)

	require.Len(t, today.Records, 4)
	assert.True(t, tomorrow.Empty())

	// Sorted ascending by hour
	hours := []int{today.Records[0].Hour, today.Records[1].Hour, today.Records[2].Hour, today.Records[3].Hour}
	assert.Equal(t, []int{0, 1, 3, 5}, hours)

	// Cheapest hour is rank 1 and low, most expensive is rank 4 and high
	r0, _ := today.At(0)
	assert.Equal(t, 1, r0.Rank)
	assert.Equal(t, engine.TierLow, r0.Tier)
	r5, _ := today.At(5)
	assert.Equal(t, 4, r5.Rank)
	assert.Equal(t, engine.TierHigh, r5.Tier)

	// Converted price rounded to 2 decimals: 30 * 25.3 = 759.00
	assert.Equal(t, 759.0, r0.Display)
	assert.Equal(t, "CZK", r0.Currency)
}

func TestAggregatorPreservesGaps(t *testing.T) {
	feed := &fakeFeed{byDate: map[string][]Sample{
		"2026-08-27": {{Hour: 2, PriceEUR: 40}, {Hour: 7, PriceEUR: 80}},
	}}
	agg := NewAggregator(feed, fixedRate(1), "EUR", 2)

	today, _ := agg.Refresh(context.Background(), testNow)

	require.Len(t, today.Records, 2)
	_, ok := today.At(3)
	assert.False(t, ok, "missing hours must stay absent, not be synthesized")
}

func TestAggregatorDaysClassifiedIndependently(t *testing.T) {
	// Tomorrow's prices are all higher than today's; each day must be
	// ranked against its own distribution
	feed := &fakeFeed{byDate: map[string][]Sample{
		"2026-08-27": {{Hour: 0, PriceEUR: 10}, {Hour: 1, PriceEUR: 20}, {Hour: 2, PriceEUR: 30}},
		"2026-08-28": {{Hour: 0, PriceEUR: 100}, {Hour: 1, PriceEUR: 200}, {Hour: 2, PriceEUR: 300}},
	}}
	agg := NewAggregator(feed, fixedRate(1), "EUR", 2)

	today, tomorrow := agg.Refresh(context.Background(), testNow)

	tr, _ := today.At(0)
	mr, _ := tomorrow.At(0)
	assert.Equal(t, 1, tr.Rank)
	assert.Equal(t, 1, mr.Rank)
	assert.Equal(t, engine.TierLow, mr.Tier)
}

func TestAggregatorServesCachedOnFailure(t *testing.T) {
	feed := &fakeFeed{byDate: map[string][]Sample{
		"2026-08-27": {{Hour: 0, PriceEUR: 50}, {Hour: 1, PriceEUR: 75}},
	}}
	agg := NewAggregator(feed, fixedRate(1), "EUR", 2)

	first, _ := agg.Refresh(context.Background(), testNow)
	require.Len(t, first.Records, 2)

	feed.err = errors.New("connection refused")
	second, _ := agg.Refresh(context.Background(), testNow)

	// The previous series is returned unchanged
	assert.Equal(t, first, second)
}

func TestAggregatorPrime(t *testing.T) {
	feed := &fakeFeed{err: errors.New("offline")}
	agg := NewAggregator(feed, fixedRate(1), "EUR", 2)

	seed := engine.DailySeries{Day: engine.DayToday, Records: []engine.HourlyRecord{
		{Hour: 0, Display: 42, Currency: "EUR", Tier: engine.TierLow, Rank: 1},
	}}
	agg.Prime(seed)

	today, _ := agg.Refresh(context.Background(), testNow)
	assert.Equal(t, seed, today)
}

func TestAggregatorDropsOutOfRangeHours(t *testing.T) {
	feed := &fakeFeed{byDate: map[string][]Sample{
		"2026-08-27": {{Hour: -1, PriceEUR: 5}, {Hour: 24, PriceEUR: 5}, {Hour: 12, PriceEUR: 55}},
	}}
	agg := NewAggregator(feed, fixedRate(1), "EUR", 2)

	today, _ := agg.Refresh(context.Background(), testNow)
	require.Len(t, today.Records, 1)
	assert.Equal(t, 12, today.Records[0].Hour)
}
