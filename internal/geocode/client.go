// Package geocode resolves ZIP codes and city/state pairs to coordinates
// against the zippopotam.us API, behind a three-tier cache (memory, durable
// SQLite store, network) and a single serialized, throttled request queue.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openmat/matdir/internal/domain"
	"github.com/openmat/matdir/internal/observability"
)

// Locator is the upstream lookup surface the resolver drives. The bool
// result distinguishes "service answered: no such place" from transport
// errors.
type Locator interface {
	LocateZIP(ctx context.Context, zip string) (domain.Coordinate, bool, error)
	LocateCity(ctx context.Context, city, state string) (domain.Coordinate, bool, error)
}

// Client implements Locator against the zippopotam.us place API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a zippopotam.us client. baseURL "" means the public API.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.zippopotam.us"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		metrics:    metrics,
		logger:     logger,
	}
}

// LocateZIP resolves a 5-digit US ZIP to its centroid.
func (c *Client) LocateZIP(ctx context.Context, zip string) (domain.Coordinate, bool, error) {
	u := fmt.Sprintf("%s/us/%s", c.baseURL, url.PathEscape(zip))
	return c.doRequest(ctx, u, "zip")
}

// LocateCity resolves a city and two-letter state to the city's primary
// place entry.
func (c *Client) LocateCity(ctx context.Context, city, state string) (domain.Coordinate, bool, error) {
	u := fmt.Sprintf("%s/us/%s/%s", c.baseURL, url.PathEscape(strings.ToLower(state)), url.PathEscape(city))
	return c.doRequest(ctx, u, "city")
}

func (c *Client) doRequest(ctx context.Context, fullURL, kind string) (domain.Coordinate, bool, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Coordinate{}, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(kind, "error").Inc()
		return domain.Coordinate{}, false, fmt.Errorf("%s geocode request: %w", kind, err)
	}
	defer resp.Body.Close()

	c.metrics.GeocodeAPIDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	// zippopotam answers 404 for unknown places; that's a clean miss, not
	// a transport failure.
	if resp.StatusCode == http.StatusNotFound {
		c.metrics.GeocodeRequests.WithLabelValues(kind, "not_found").Inc()
		return domain.Coordinate{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues(kind, "error").Inc()
		return domain.Coordinate{}, false, fmt.Errorf("geocode API error: status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(kind, "error").Inc()
		return domain.Coordinate{}, false, fmt.Errorf("decode response: %w", err)
	}

	if len(body.Places) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues(kind, "not_found").Inc()
		return domain.Coordinate{}, false, nil
	}

	p := body.Places[0]
	coord, ok := domain.ParseCoordinate(p.Latitude, p.Longitude)
	if !ok {
		c.metrics.GeocodeRequests.WithLabelValues(kind, "not_found").Inc()
		return domain.Coordinate{}, false, nil
	}

	c.metrics.GeocodeRequests.WithLabelValues(kind, "found").Inc()
	return coord, true, nil
}

// zippopotam.us API response types. Coordinates arrive as decimal strings.

type response struct {
	Places []place `json:"places"`
}

type place struct {
	PlaceName string `json:"place name"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}
