package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wattnudge/wattnudge/internal/engine"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSeriesRoundtrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	date := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	series := engine.DailySeries{Day: engine.DayToday, Records: []engine.HourlyRecord{
		{Hour: 0, PriceEUR: 85.01, Display: 2150.75, Currency: "CZK", Tier: engine.TierMedium, Rank: 12},
		{Hour: 1, PriceEUR: 79.5, Display: 2011.35, Currency: "CZK", Tier: engine.TierLow, Rank: 3},
	}}

	require.NoError(t, s.SaveSeries(ctx, date, series))

	got, err := s.GetSeries(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, series, got)

	_, err = s.GetSeries(ctx, date.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSeriesOverwrite(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	date := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveSeries(ctx, date, engine.DailySeries{Day: engine.DayToday}))
	updated := engine.DailySeries{Day: engine.DayToday, Records: []engine.HourlyRecord{{Hour: 5, Display: 99}}}
	require.NoError(t, s.SaveSeries(ctx, date, updated))

	got, err := s.GetSeries(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestPruneSeries(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	old := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveSeries(ctx, old, engine.DailySeries{}))
	require.NoError(t, s.SaveSeries(ctx, recent, engine.DailySeries{}))
	require.NoError(t, s.PruneSeries(ctx, recent))

	_, err := s.GetSeries(ctx, old)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = s.GetSeries(ctx, recent)
	assert.NoError(t, err)
}

func TestSnapshotRoundtrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	snap := engine.SunSnapshot{
		Irradiance: 512.5,
		CloudCover: 18,
		Daytime:    true,
		Potential:  engine.PotentialMedium,
		Condition:  "clear",
		Projection: []engine.SunHour{{Offset: 0, Irradiance: 512.5, CloudCover: 18}},
	}

	require.NoError(t, s.SaveSnapshot(ctx, snap))

	got, err := s.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestRateRoundtrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)

	require.NoError(t, s.SaveRate(ctx, "CZK", 25.305, at))

	rate, gotAt, err := s.LoadRate(ctx, "CZK")
	require.NoError(t, err)
	assert.Equal(t, 25.305, rate)
	assert.True(t, gotAt.Equal(at))

	_, _, err = s.LoadRate(ctx, "USD")
	assert.Error(t, err)
}
