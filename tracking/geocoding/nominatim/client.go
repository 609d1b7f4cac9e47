package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"export-tracking-service/tracking/geo"
	"export-tracking-service/tracking/geocoding"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultBaseURI = "https://nominatim.openstreetmap.org"

type Config struct {
	BaseURI   string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to a Nominatim instance for forward and reverse geocoding.
type Client struct {
	config Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURI == "" {
		cfg.BaseURI = DefaultBaseURI
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *Client) Search(ctx context.Context, query string) (geo.Coordinates, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", query)
	q.Set("limit", "1")

	var results []SearchResult
	if err := c.get(ctx, "/search", q, &results); err != nil {
		return geo.Coordinates{}, err
	}
	if len(results) == 0 {
		return geo.Coordinates{}, geocoding.ErrNoResults
	}
	return parseCoordinates(results[0].Lat, results[0].Lon)
}

func (c *Client) Reverse(ctx context.Context, at geo.Coordinates) (geocoding.Address, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(at.Lng, 'f', -1, 64))
	q.Set("addressdetails", "1")

	var result ReverseResult
	if err := c.get(ctx, "/reverse", q, &result); err != nil {
		return geocoding.Address{}, err
	}
	if result.Error != "" {
		return geocoding.Address{}, fmt.Errorf("%w: %s", geocoding.ErrNoResults, result.Error)
	}
	return result.Address, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u, err := url.Parse(strings.TrimRight(c.config.BaseURI, "/") + path)
	if err != nil {
		return fmt.Errorf("parsing nominatim url: %w", err)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("nominatim request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Nominatim lookup", zap.String("path", path), zap.String("query", query.Encode()))
	return nil
}

func parseCoordinates(lat, lon string) (geo.Coordinates, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return geo.Coordinates{}, fmt.Errorf("invalid latitude %q: %w", lat, err)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return geo.Coordinates{}, fmt.Errorf("invalid longitude %q: %w", lon, err)
	}
	return geo.Coordinates{Lat: la, Lng: lo}, nil
}
