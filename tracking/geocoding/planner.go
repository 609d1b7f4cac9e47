package geocoding

import (
	"context"
	"fmt"

	"export-tracking-service/core"
	"export-tracking-service/tracking/geo"
	"export-tracking-service/tracking/models"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// RoutePlan is the planned path between a shipment's origin and destination.
type RoutePlan struct {
	Origin      geo.Coordinates  `json:"origin"`
	Destination geo.Coordinates  `json:"destination"`
	Path        *geom.LineString `json:"-"`
	Straight    bool             `json:"straight"`
	LengthKm    float64          `json:"lengthKm"`
}

type Planner struct {
	geocoder Geocoder
	router   Router
	logger   *zap.Logger
}

func NewPlanner(geocoder Geocoder, router Router, logger *zap.Logger) *Planner {
	return &Planner{geocoder: geocoder, router: router, logger: logger}
}

// Plan geocodes both ends and asks the router for a road path. Air
// shipments and routing failures get a straight line. Only a failed
// geocode is returned as an error.
func (p *Planner) Plan(ctx context.Context, origin, destination string, mode models.TransportMode) (*RoutePlan, error) {
	from, err := p.geocoder.Search(ctx, origin)
	if err != nil {
		core.ExternalFailures.WithLabelValues("geocode").Inc()
		return nil, fmt.Errorf("geocoding origin %q: %w", origin, err)
	}
	to, err := p.geocoder.Search(ctx, destination)
	if err != nil {
		core.ExternalFailures.WithLabelValues("geocode").Inc()
		return nil, fmt.Errorf("geocoding destination %q: %w", destination, err)
	}

	plan := &RoutePlan{Origin: from, Destination: to}
	if mode.IsAir() || p.router == nil {
		plan.Path = geo.StraightRoute(from, to)
		plan.Straight = true
	} else {
		path, err := p.router.Route(ctx, from, to)
		if err != nil {
			core.ExternalFailures.WithLabelValues("route").Inc()
			p.logger.Warn("Routing failed, using straight line",
				zap.String("origin", origin),
				zap.String("destination", destination),
				zap.Error(err),
			)
			path = geo.StraightRoute(from, to)
			plan.Straight = true
		}
		plan.Path = path
	}
	plan.LengthKm = geo.RouteLength(plan.Path)
	return plan, nil
}

// Locate geocodes a single place.
func (p *Planner) Locate(ctx context.Context, place string) (geo.Coordinates, error) {
	c, err := p.geocoder.Search(ctx, place)
	if err != nil {
		core.ExternalFailures.WithLabelValues("geocode").Inc()
		return geo.Coordinates{}, err
	}
	return c, nil
}

// DescribeLocation reverse geocodes at into "Region, Locality". It returns
// fallback when the lookup fails or yields nothing.
func (p *Planner) DescribeLocation(ctx context.Context, at geo.Coordinates, fallback string) string {
	addr, err := p.geocoder.Reverse(ctx, at)
	if err != nil {
		core.ExternalFailures.WithLabelValues("reverse_geocode").Inc()
		p.logger.Warn("Reverse geocoding failed",
			zap.Float64("lat", at.Lat),
			zap.Float64("lng", at.Lng),
			zap.Error(err),
		)
		return fallback
	}
	if desc := addr.Describe(); desc != "" {
		return desc
	}
	return fallback
}
