package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const oteAPIBase = "https://www.ote-cr.cz/en/short-term-markets/electricity/day-ahead-market/@@chart-data"

var (
	// ErrFeedUnavailable covers network and HTTP-level failures
	ErrFeedUnavailable = errors.New("price feed unavailable")
	// ErrFeedMalformed covers parse and shape failures
	ErrFeedMalformed = errors.New("price feed malformed")
)

// Sample is one raw hourly price from the day-ahead market, EUR/MWh.
type Sample struct {
	Hour     int     `json:"hour"`
	PriceEUR float64 `json:"price_eur"`
}

// Feed fetches raw day-ahead prices for a single calendar day. A day may
// be partial (tomorrow before publication) without being an error.
type Feed interface {
	FetchDay(ctx context.Context, day time.Time) ([]Sample, error)
}

// OTEClient fetches day-ahead prices from the OTE-CR market operator.
type OTEClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewOTEClient creates a client for the OTE day-ahead chart endpoint.
func NewOTEClient() *OTEClient {
	return &OTEClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    oteAPIBase,
	}
}

// oteResponse mirrors the chart-data payload: a set of data lines, one of
// which carries the hourly price points.
type oteResponse struct {
	Data struct {
		DataLine []oteDataLine `json:"dataLine"`
	} `json:"data"`
}

type oteDataLine struct {
	Title string     `json:"title"`
	Point []otePoint `json:"point"`
}

type otePoint struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// FetchDay fetches the hourly prices for one trading day. Hours the
// market has not published yet are simply absent from the result.
func (c *OTEClient) FetchDay(ctx context.Context, day time.Time) ([]Sample, error) {
	params := url.Values{}
	params.Add("report_date", day.Format("2006-01-02"))
	fullURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrFeedUnavailable, resp.StatusCode, string(body))
	}

	var payload oteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedMalformed, err)
	}

	line, ok := priceLine(payload)
	if !ok {
		return nil, fmt.Errorf("%w: no price line in payload", ErrFeedMalformed)
	}

	samples := make([]Sample, 0, len(line.Point))
	for _, p := range line.Point {
		// The market counts hours 1-24
		h, err := strconv.Atoi(p.X)
		if err != nil || h < 1 || h > 24 {
			continue
		}
		samples = append(samples, Sample{Hour: h - 1, PriceEUR: p.Y})
	}
	return samples, nil
}

// priceLine picks the data line carrying prices, identified by title.
func priceLine(payload oteResponse) (oteDataLine, bool) {
	for _, line := range payload.Data.DataLine {
		if strings.Contains(strings.ToLower(line.Title), "price") {
			return line, true
		}
	}
	return oteDataLine{}, false
}
