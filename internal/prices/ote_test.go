package prices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleChartData = `{
	"data": {
		"dataLine": [
			{
				"title": "Price (EUR/MWh)",
				"point": [
					{"x": "1", "y": 85.01},
					{"x": "2", "y": 79.5},
					{"x": "3", "y": 74.19},
					{"x": "24", "y": 101.3}
				]
			},
			{
				"title": "Volume (MWh)",
				"point": [
					{"x": "1", "y": 4321.0},
					{"x": "2", "y": 4100.5}
				]
			}
		]
	}
}`

func testClient(handler http.HandlerFunc) (*OTEClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewOTEClient()
	c.baseURL = srv.URL
	return c, srv
}

func TestOTEClientParsesPriceLine(t *testing.T) {
	var gotDate string
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		gotDate = r.URL.Query().Get("report_date")
		w.Write([]byte(sampleChartData))
	})
	defer srv.Close()

	day := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	samples, err := c.FetchDay(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-27", gotDate)

	// The volume line is ignored; market hours 1-24 map to 0-23
	require.Len(t, samples, 4)
	assert.Equal(t, Sample{Hour: 0, PriceEUR: 85.01}, samples[0])
	assert.Equal(t, Sample{Hour: 23, PriceEUR: 101.3}, samples[3])
}

func TestOTEClientPartialDay(t *testing.T) {
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"dataLine":[{"title":"Price (EUR/MWh)","point":[{"x":"1","y":50}]}]}}`))
	})
	defer srv.Close()

	samples, err := c.FetchDay(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

func TestOTEClientHTTPError(t *testing.T) {
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	defer srv.Close()

	_, err := c.FetchDay(context.Background(), time.Now())
	assert.ErrorIs(t, err, ErrFeedUnavailable)
}

func TestOTEClientMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"no price line", `{"data":{"dataLine":[{"title":"Volume (MWh)","point":[]}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			defer srv.Close()

			_, err := c.FetchDay(context.Background(), time.Now())
			assert.ErrorIs(t, err, ErrFeedMalformed)
		})
	}
}
