package osrm

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

	"export-tracking-service/tracking/geo"

	"github.com/google/uuid"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

const DefaultBaseURI = "https://router.project-osrm.org"

var ErrNoRoute = errors.New("no route found")

type Config struct {
	BaseURI string
	Timeout time.Duration
}

// Client requests driving routes from an OSRM server.
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
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *Client) Route(ctx context.Context, from, to geo.Coordinates) (*geom.LineString, error) {
	endpoint := fmt.Sprintf("%s/route/v1/driving/%s;%s",
		strings.TrimRight(c.config.BaseURI, "/"), lngLat(from), lngLat(to))

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing osrm url: %w", err)
	}
	q := u.Query()
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var routeResponse RouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&routeResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(routeResponse.Routes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, routeResponse.Code)
	}

	path, err := toLineString(routeResponse.Routes[0].Geometry)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("OSRM route resolved",
		zap.Int("points", path.NumCoords()),
		zap.Float64("distance_m", routeResponse.Routes[0].Distance),
	)
	return path, nil
}

func toLineString(g Geometry) (*geom.LineString, error) {
	if len(g.Coordinates) < 2 {
		return nil, fmt.Errorf("%w: geometry has %d points", ErrNoRoute, len(g.Coordinates))
	}
	points := make([]geo.Coordinates, 0, len(g.Coordinates))
	for _, c := range g.Coordinates {
		if len(c) < 2 {
			return nil, fmt.Errorf("malformed coordinate %v", c)
		}
		points = append(points, geo.Coordinates{Lat: c[1], Lng: c[0]})
	}
	return geo.NewRoute(points), nil
}

func lngLat(c geo.Coordinates) string {
	return strconv.FormatFloat(c.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}
