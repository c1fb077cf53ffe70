package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/wattnudge/wattnudge/internal/config"
	"github.com/wattnudge/wattnudge/internal/engine"
	"github.com/wattnudge/wattnudge/internal/log"
	"github.com/wattnudge/wattnudge/internal/prices"
	"github.com/wattnudge/wattnudge/internal/weather"
)

// SeriesCache persists fetched series and snapshots across restarts.
// Implemented by the sqlite store; nil disables persistence.
type SeriesCache interface {
	SaveSeries(ctx context.Context, date time.Time, series engine.DailySeries) error
	GetSeries(ctx context.Context, date time.Time) (engine.DailySeries, error)
	SaveSnapshot(ctx context.Context, snap engine.SunSnapshot) error
	GetSnapshot(ctx context.Context) (engine.SunSnapshot, error)
	PruneSeries(ctx context.Context, before time.Time) error
}

// StateView is a consistent copy of the monitor's shared state for
// read-only consumers.
type StateView struct {
	UpdatedAt       time.Time                  `json:"updated_at"`
	Current         *engine.HourlyRecord       `json:"current,omitempty"`
	Today           engine.DailySeries         `json:"today"`
	Tomorrow        engine.DailySeries         `json:"tomorrow"`
	Sun             *engine.SunSnapshot        `json:"sun,omitempty"`
	Recommendations engine.RecommendationState `json:"recommendations"`
}

// Monitor drives the fetch/recompute cycle: a short cadence refreshes
// today's prices, a long cadence refreshes both days plus the weather.
// Every completed fetch triggers a full synchronous recomputation and a
// bus broadcast. Shared state is guarded by a single mutex.
type Monitor struct {
	settings config.Settings
	agg      *prices.Aggregator
	source   weather.Source
	cache    SeriesCache
	notifier *engine.Notifier
	bus      *Bus
	clock    func() time.Time

	mu       sync.Mutex
	today    engine.DailySeries
	tomorrow engine.DailySeries
	current  *engine.HourlyRecord
	sun      *engine.SunSnapshot
	state    engine.RecommendationState
	updated  time.Time
}

// New creates a monitor. cache may be nil.
func New(settings config.Settings, agg *prices.Aggregator, source weather.Source, cache SeriesCache, bus *Bus) *Monitor {
	return &Monitor{
		settings: settings,
		agg:      agg,
		source:   source,
		cache:    cache,
		notifier: engine.NewNotifier(),
		bus:      bus,
		clock:    time.Now,
	}
}

// Bus exposes the event bus for additional subscribers.
func (m *Monitor) Bus() *Bus {
	return m.bus
}

// Run seeds state from the cache, does an initial full refresh and then
// alternates between the two fetch cadences until the context ends.
func (m *Monitor) Run(ctx context.Context) error {
	m.seed(ctx)
	m.Refresh(ctx)

	priceTicker := time.NewTicker(m.settings.PriceInterval)
	defer priceTicker.Stop()
	fullTicker := time.NewTicker(m.settings.FullInterval)
	defer fullTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-priceTicker.C:
			m.RefreshPrices(ctx)
		case <-fullTicker.C:
			m.Refresh(ctx)
		}
	}
}

// seed primes the aggregator and weather state from the persisted cache
// so a restart does not begin empty.
func (m *Monitor) seed(ctx context.Context) {
	if m.cache == nil {
		return
	}
	now := m.clock()

	if s, err := m.cache.GetSeries(ctx, now); err == nil {
		s.Day = engine.DayToday
		m.agg.Prime(s)
	}
	if s, err := m.cache.GetSeries(ctx, now.AddDate(0, 0, 1)); err == nil {
		s.Day = engine.DayTomorrow
		m.agg.Prime(s)
	}
	if snap, err := m.cache.GetSnapshot(ctx); err == nil {
		m.mu.Lock()
		m.sun = &snap
		m.mu.Unlock()
	}
	if err := m.cache.PruneSeries(ctx, now.AddDate(0, 0, -2)); err != nil {
		log.Ctx(ctx).Warn("pruning cached series failed", "error", err)
	}
}

// Refresh runs the long cycle: both trading days plus the weather
// forecast, then one recomputation.
func (m *Monitor) Refresh(ctx context.Context) {
	now := m.clock()
	today, tomorrow := m.agg.Refresh(ctx, now)
	m.persistSeries(ctx, now, today, tomorrow)

	sun := m.fetchWeather(ctx, now)

	m.mu.Lock()
	m.today = today
	m.tomorrow = tomorrow
	if sun != nil {
		m.sun = sun
	}
	m.mu.Unlock()

	m.recompute(now)

	m.bus.Publish(Event{Kind: EventHourlyUpdated, Today: &today, Tomorrow: &tomorrow})
	if sun != nil {
		m.bus.Publish(Event{Kind: EventWeatherUpdated, Sun: sun})
	}
}

// RefreshPrices runs the short cycle: today's series only.
func (m *Monitor) RefreshPrices(ctx context.Context) {
	now := m.clock()
	today := m.agg.RefreshDay(ctx, now, engine.DayToday)
	m.persistSeries(ctx, now, today, engine.DailySeries{Day: engine.DayTomorrow})

	m.mu.Lock()
	m.today = today
	m.mu.Unlock()

	m.recompute(now)
}

// recompute derives the current price, reruns the engine and the
// notification policy, and publishes the results.
func (m *Monitor) recompute(now time.Time) {
	m.mu.Lock()
	var current *engine.HourlyRecord
	if r, ok := m.today.At(now.Hour()); ok {
		current = &r
	}
	m.current = current

	in := engine.Inputs{
		Now:      now,
		Current:  current,
		Today:    m.today,
		Tomorrow: m.tomorrow,
		Sun:      m.sun,
	}
	state := engine.Recommend(in)
	m.state = state
	m.updated = now

	notif := m.notifier.Evaluate(state, current, m.settings.Notifications)
	m.mu.Unlock()

	m.bus.Publish(Event{Kind: EventPriceUpdated, Current: current})
	m.bus.Publish(Event{Kind: EventRecommendationsUpdated, Recommendations: &state})
	if notif != nil {
		m.bus.Publish(Event{Kind: EventNotification, Notification: notif})
	}
}

func (m *Monitor) fetchWeather(ctx context.Context, now time.Time) *engine.SunSnapshot {
	if m.source == nil {
		return nil
	}
	forecast, err := m.source.FetchForecast(ctx, m.settings.Latitude, m.settings.Longitude)
	if err != nil {
		log.Ctx(ctx).Warn("weather fetch failed, keeping previous snapshot", "error", err)
		return nil
	}

	snap := weather.ReduceSnapshot(forecast, now)
	if snap != nil && m.cache != nil {
		if err := m.cache.SaveSnapshot(ctx, *snap); err != nil {
			log.Ctx(ctx).Warn("persisting snapshot failed", "error", err)
		}
	}
	return snap
}

func (m *Monitor) persistSeries(ctx context.Context, now time.Time, today, tomorrow engine.DailySeries) {
	if m.cache == nil {
		return
	}
	if !today.Empty() {
		if err := m.cache.SaveSeries(ctx, now, today); err != nil {
			log.Ctx(ctx).Warn("persisting today's series failed", "error", err)
		}
	}
	if !tomorrow.Empty() {
		if err := m.cache.SaveSeries(ctx, now.AddDate(0, 0, 1), tomorrow); err != nil {
			log.Ctx(ctx).Warn("persisting tomorrow's series failed", "error", err)
		}
	}
}

// Snapshot returns a copy of the current shared state.
func (m *Monitor) Snapshot() StateView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return StateView{
		UpdatedAt:       m.updated,
		Current:         m.current,
		Today:           m.today,
		Tomorrow:        m.tomorrow,
		Sun:             m.sun,
		Recommendations: m.state,
	}
}
