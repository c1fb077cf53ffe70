package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const openMeteoAPIBase = "https://api.open-meteo.com/v1/forecast"

// HourPoint is one hour of the raw irradiance forecast.
type HourPoint struct {
	Time       time.Time
	Irradiance float64 // shortwave radiation, W/m^2
	CloudCover float64 // percent 0-100
}

// Forecast is the raw solar forecast as fetched, before reduction into a
// SunSnapshot.
type Forecast struct {
	Irradiance float64
	CloudCover float64
	Daytime    bool
	Hourly     []HourPoint
	Sunrise    time.Time
	Sunset     time.Time
}

// Source fetches a raw solar forecast for a location.
type Source interface {
	FetchForecast(ctx context.Context, lat, lon float64) (*Forecast, error)
}

// OpenMeteoClient fetches irradiance forecasts from the Open-Meteo API.
type OpenMeteoClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewOpenMeteoClient creates a new Open-Meteo client.
func NewOpenMeteoClient() *OpenMeteoClient {
	return &OpenMeteoClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    openMeteoAPIBase,
	}
}

// openMeteoResponse represents the API response. All times are requested
// in UTC.
type openMeteoResponse struct {
	Current struct {
		Time               string  `json:"time"`
		ShortwaveRadiation float64 `json:"shortwave_radiation"`
		CloudCover         float64 `json:"cloud_cover"`
		IsDay              int     `json:"is_day"`
	} `json:"current"`
	Hourly struct {
		Time               []string  `json:"time"`
		ShortwaveRadiation []float64 `json:"shortwave_radiation"`
		CloudCover         []float64 `json:"cloud_cover"`
	} `json:"hourly"`
	Daily struct {
		Time    []string `json:"time"`
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	} `json:"daily"`
}

// FetchForecast fetches current conditions plus a two-day hourly
// irradiance projection.
func (c *OpenMeteoClient) FetchForecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	params := url.Values{}
	params.Add("latitude", fmt.Sprintf("%.4f", lat))
	params.Add("longitude", fmt.Sprintf("%.4f", lon))
	params.Add("current", "shortwave_radiation,cloud_cover,is_day")
	params.Add("hourly", "shortwave_radiation,cloud_cover")
	params.Add("daily", "sunrise,sunset")
	params.Add("forecast_days", "2")
	params.Add("timezone", "UTC")

	fullURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("forecast API returned status %d: %s", resp.StatusCode, string(body))
	}

	var meteoResp openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&meteoResp); err != nil {
		return nil, fmt.Errorf("decoding forecast: %w", err)
	}

	return buildForecast(meteoResp), nil
}

const openMeteoTimeLayout = "2006-01-02T15:04"

func buildForecast(resp openMeteoResponse) *Forecast {
	f := &Forecast{
		Irradiance: resp.Current.ShortwaveRadiation,
		CloudCover: resp.Current.CloudCover,
		Daytime:    resp.Current.IsDay == 1,
	}

	for i, ts := range resp.Hourly.Time {
		t, err := time.Parse(openMeteoTimeLayout, ts)
		if err != nil {
			continue
		}
		p := HourPoint{Time: t.UTC()}
		if i < len(resp.Hourly.ShortwaveRadiation) {
			p.Irradiance = resp.Hourly.ShortwaveRadiation[i]
		}
		if i < len(resp.Hourly.CloudCover) {
			p.CloudCover = resp.Hourly.CloudCover[i]
		}
		f.Hourly = append(f.Hourly, p)
	}

	if len(resp.Daily.Sunrise) > 0 {
		if t, err := time.Parse(openMeteoTimeLayout, resp.Daily.Sunrise[0]); err == nil {
			f.Sunrise = t.UTC()
		}
	}
	if len(resp.Daily.Sunset) > 0 {
		if t, err := time.Parse(openMeteoTimeLayout, resp.Daily.Sunset[0]); err == nil {
			f.Sunset = t.UTC()
		}
	}
	return f
}
