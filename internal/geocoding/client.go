// Package geocoding wraps a Nominatim-compatible geocoding service:
// free-text place name in, ordered coordinate candidates out.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tripflow/flightfinder/pkg/logger"
)

// Location is a single geocoding candidate.
type Location struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
}

// nominatimResult is shaped for the API response. Nominatim returns
// coordinates as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Client calls a Nominatim-style search endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	maxResults int
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a geocoding client. userAgent is mandatory for the
// public Nominatim instance.
func NewClient(baseURL, userAgent string, maxResults int, timeout time.Duration, log *logger.Logger) *Client {
	if maxResults <= 0 {
		maxResults = 1
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.Named("geocoding"),
	}
}

// Geocode resolves a place name to coordinate candidates, best first.
// An empty slice with a nil error means the service answered but knows
// no such place; errors mean the service itself was unreachable or
// unusable.
func (c *Client) Geocode(ctx context.Context, place string) ([]Location, error) {
	params := url.Values{}
	params.Set("q", place)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(c.maxResults))
	params.Set("accept-language", "en")

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("Geocoding place", logger.String("place", place))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	locations := make([]Location, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		locations = append(locations, Location{
			Latitude:    lat,
			Longitude:   lon,
			DisplayName: r.DisplayName,
		})
	}

	c.logger.Debug("Geocoding response",
		logger.String("place", place),
		logger.Int("results", len(locations)))

	return locations, nil
}
