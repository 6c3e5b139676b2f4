// Package geonames wraps the GeoNames geographic directory. Only the
// airport search-by-name capability is used here.
package geonames

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

	"github.com/tripflow/flightfinder/pkg/logger"
)

// ErrAuth marks a rejected GeoNames username. GeoNames reports it inside
// a 200 response, so callers cannot rely on HTTP status alone.
var ErrAuth = errors.New("geonames: invalid or missing username")

// GeoNames status values that indicate credential problems vs. quota
// exhaustion (see geonames.org/export/webservice-exception.html).
const (
	statusAuthException   = 10
	statusDailyLimit      = 18
	statusHourlyLimit     = 19
	statusWeeklyLimit     = 20
	statusServiceOverload = 22
)

// Airport is an airport-like record from the directory.
type Airport struct {
	Name      string
	Code      string
	City      string
	Country   string
	Latitude  float64
	Longitude float64
}

type alternateName struct {
	Lang string `json:"lang"`
	Name string `json:"name"`
}

type geoname struct {
	Name           string          `json:"name"`
	ToponymName    string          `json:"toponymName"`
	AdminName1     string          `json:"adminName1"`
	CountryName    string          `json:"countryName"`
	Lat            string          `json:"lat"`
	Lng            string          `json:"lng"`
	AlternateNames []alternateName `json:"alternateNames"`
}

type searchResponse struct {
	Status *struct {
		Message string `json:"message"`
		Value   int    `json:"value"`
	} `json:"status"`
	Geonames []geoname `json:"geonames"`
}

// Client calls the GeoNames search endpoint.
type Client struct {
	baseURL    string
	username   string
	maxRows    int
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a GeoNames client. An empty username is allowed at
// construction time; requests will then fail with ErrAuth.
func NewClient(baseURL, username string, maxRows int, timeout time.Duration, log *logger.Logger) *Client {
	if username == "" {
		log.Warn("GeoNames username is not set, directory lookups will fail")
	}
	if maxRows <= 0 {
		maxRows = 10
	}
	return &Client{
		baseURL:  baseURL,
		username: username,
		maxRows:  maxRows,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.Named("geonames"),
	}
}

// SearchAirports looks up airports by free-text name. Results preserve
// the directory's relevance order; records without an extractable IATA
// code are still returned with an empty Code.
func (c *Client) SearchAirports(ctx context.Context, place string) ([]Airport, error) {
	if c.username == "" {
		return nil, ErrAuth
	}

	params := url.Values{}
	params.Set("q", place)
	params.Set("featureClass", "S")
	params.Set("featureCode", "AIRP")
	params.Set("maxRows", strconv.Itoa(c.maxRows))
	params.Set("style", "FULL")
	params.Set("username", c.username)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Searching directory for airports", logger.String("place", place))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrAuth
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var data searchResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if data.Status != nil {
		switch data.Status.Value {
		case statusAuthException:
			return nil, fmt.Errorf("%w: %s", ErrAuth, data.Status.Message)
		case statusDailyLimit, statusHourlyLimit, statusWeeklyLimit, statusServiceOverload:
			return nil, fmt.Errorf("geonames rate limited: %s", data.Status.Message)
		default:
			return nil, fmt.Errorf("geonames error %d: %s", data.Status.Value, data.Status.Message)
		}
	}

	airports := make([]Airport, 0, len(data.Geonames))
	for _, g := range data.Geonames {
		lat, _ := strconv.ParseFloat(g.Lat, 64)
		lng, _ := strconv.ParseFloat(g.Lng, 64)
		airports = append(airports, Airport{
			Name:      g.Name,
			Code:      extractIATACode(g),
			City:      g.AdminName1,
			Country:   g.CountryName,
			Latitude:  lat,
			Longitude: lng,
		})
	}

	c.logger.Debug("Directory search response",
		logger.String("place", place),
		logger.Int("results", len(airports)))

	return airports, nil
}

// extractIATACode pulls an IATA code out of a directory record, either
// from an explicit iata alternate name or from the common
// "Some Name (XXX)" display form.
func extractIATACode(g geoname) string {
	for _, alt := range g.AlternateNames {
		if alt.Lang == "iata" && isIATA(alt.Name) {
			return alt.Name
		}
	}

	for _, name := range []string{g.Name, g.ToponymName} {
		open := strings.LastIndex(name, "(")
		end := strings.LastIndex(name, ")")
		if open >= 0 && end > open {
			if code := strings.TrimSpace(name[open+1 : end]); isIATA(code) {
				return code
			}
		}
	}
	return ""
}

func isIATA(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
