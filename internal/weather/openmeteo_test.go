package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleForecast = `{
	"current": {"time": "2026-08-27T14:15", "shortwave_radiation": 512.5, "cloud_cover": 18, "is_day": 1},
	"hourly": {
		"time": ["2026-08-27T14:00", "2026-08-27T15:00", "2026-08-27T16:00"],
		"shortwave_radiation": [512.5, 430.0, 260.5],
		"cloud_cover": [18, 22, 35]
	},
	"daily": {
		"time": ["2026-08-27"],
		"sunrise": ["2026-08-27T04:08"],
		"sunset": ["2026-08-27T18:52"]
	}
}`

func TestOpenMeteoClientParsesForecast(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(sampleForecast))
	}))
	defer srv.Close()

	c := NewOpenMeteoClient()
	c.baseURL = srv.URL

	f, err := c.FetchForecast(context.Background(), 50.0755, 14.4378)
	require.NoError(t, err)

	assert.Contains(t, query, "latitude=50.0755")
	assert.Contains(t, query, "shortwave_radiation")

	assert.Equal(t, 512.5, f.Irradiance)
	assert.Equal(t, 18.0, f.CloudCover)
	assert.True(t, f.Daytime)

	require.Len(t, f.Hourly, 3)
	assert.Equal(t, time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC), f.Hourly[1].Time)
	assert.Equal(t, 430.0, f.Hourly[1].Irradiance)

	assert.Equal(t, time.Date(2026, 8, 27, 18, 52, 0, 0, time.UTC), f.Sunset)
}

func TestOpenMeteoClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenMeteoClient()
	c.baseURL = srv.URL

	_, err := c.FetchForecast(context.Background(), 50, 14)
	assert.Error(t, err)
}
