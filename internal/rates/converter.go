package rates

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/wattnudge/wattnudge/internal/log"
)

const cnbFixingURL = "https://www.cnb.cz/en/financial-markets/foreign-exchange-market/central-bank-exchange-rate-fixing/central-bank-exchange-rate-fixing/daily.txt"

// DefaultCZKPerEUR is the built-in fallback used before the first
// successful fixing fetch.
const DefaultCZKPerEUR = 25.3

// Cache persists the last-known rates across restarts.
type Cache interface {
	SaveRate(ctx context.Context, code string, rate float64, at time.Time) error
	LoadRate(ctx context.Context, code string) (float64, time.Time, error)
}

// Converter maps EUR-denominated prices into display currencies using
// the CNB daily fixing. Rates are refreshed at most once per TTL; on
// fetch failure the last-known rate keeps being served.
type Converter struct {
	client *resty.Client
	cache  Cache
	ttl    time.Duration

	mu        sync.Mutex
	rates     map[string]float64 // display-currency units per 1 EUR
	precision map[string]int
	fetchedAt time.Time
}

// NewConverter creates a converter seeded with the built-in CZK rate.
func NewConverter(cache Cache) *Converter {
	return &Converter{
		client: resty.New().
			SetBaseURL(cnbFixingURL).
			SetTimeout(15 * time.Second).
			SetRetryCount(1),
		cache: cache,
		ttl:   time.Hour,
		rates: map[string]float64{
			"EUR": 1,
			"CZK": DefaultCZKPerEUR,
		},
		precision: map[string]int{"EUR": 2, "CZK": 2},
	}
}

// SetPrecision overrides the decimal precision used for a currency.
func (c *Converter) SetPrecision(code string, places int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.precision[strings.ToUpper(code)] = places
}

// Precision returns the decimal precision for a currency (default 2).
func (c *Converter) Precision(code string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.precision[strings.ToUpper(code)]; ok {
		return p
	}
	return 2
}

// Rate returns the display-currency units per 1 EUR, refreshing the
// fixing if it is older than the TTL. Failures fall back to the
// last-known value.
func (c *Converter) Rate(ctx context.Context, currency string) float64 {
	currency = strings.ToUpper(currency)

	c.mu.Lock()
	stale := time.Since(c.fetchedAt) >= c.ttl
	c.mu.Unlock()

	if stale {
		if err := c.refresh(ctx); err != nil {
			log.Ctx(ctx).Warn("rate refresh failed, using last-known rate",
				"currency", currency, "error", err)
			c.loadPersisted(ctx, currency)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rates[currency]; ok {
		return r
	}
	return 1
}

// refresh fetches and parses the CNB daily fixing. The fixing quotes CZK
// per unit of each foreign currency; cross rates against EUR are derived
// from it.
func (c *Converter) refresh(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("")
	if err != nil {
		return fmt.Errorf("fetching fixing: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("fixing returned status %d", resp.StatusCode())
	}

	czkPer, err := parseFixing(string(resp.Body()))
	if err != nil {
		return err
	}
	czkPerEUR, ok := czkPer["EUR"]
	if !ok || czkPerEUR <= 0 {
		return fmt.Errorf("fixing has no EUR rate")
	}

	now := time.Now()

	c.mu.Lock()
	c.rates["CZK"] = czkPerEUR
	c.rates["EUR"] = 1
	for code, r := range czkPer {
		if code != "EUR" && r > 0 {
			c.rates[code] = czkPerEUR / r
		}
	}
	c.fetchedAt = now
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.SaveRate(ctx, "CZK", czkPerEUR, now); err != nil {
			log.Ctx(ctx).Warn("persisting rate failed", "error", err)
		}
	}
	return nil
}

// loadPersisted pulls the last persisted rate into the in-memory table
// when a refresh fails and nothing fresher is held.
func (c *Converter) loadPersisted(ctx context.Context, currency string) {
	if c.cache == nil {
		return
	}
	rate, at, err := c.cache.LoadRate(ctx, currency)
	if err != nil || rate <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if at.After(c.fetchedAt) {
		c.rates[currency] = rate
		c.fetchedAt = at
	}
}

// Convert turns an EUR price into the display currency, rounded to the
// currency's precision.
func (c *Converter) Convert(ctx context.Context, eur float64, currency string) float64 {
	rate := c.Rate(ctx, currency)
	pow := math.Pow(10, float64(c.Precision(currency)))
	return math.Round(eur*rate*pow) / pow
}

// parseFixing reads the pipe-delimited fixing table:
//
//	27 Aug 2026 #166
//	Country|Currency|Amount|Code|Rate
//	EMU|euro|1|EUR|25.305
func parseFixing(body string) (map[string]float64, error) {
	czkPer := make(map[string]float64)
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "|")
		if len(fields) != 5 || fields[3] == "Code" {
			continue
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil || amount <= 0 {
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
		if err != nil {
			continue
		}
		czkPer[strings.TrimSpace(fields[3])] = rate / amount
	}
	if len(czkPer) == 0 {
		return nil, fmt.Errorf("fixing table empty or malformed")
	}
	return czkPer, nil
}
