package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"export-tracking-service/tracking/geo"
	"export-tracking-service/tracking/geocoding"
	"export-tracking-service/tracking/models"
)

const (
	defaultCheckpointStatus    = models.CheckpointInTransit
	defaultCheckpointTransport = models.TransportTruck
	fallbackCheckpointDesc     = "Checkpoint automático"
)

// CheckpointInput is the structured capture of a checkpoint. Lat and Lng are
// the device position; Location, when given, overrides the reverse geocoded
// description.
type CheckpointInput struct {
	Lat             *float64             `json:"lat"`
	Lng             *float64             `json:"lng"`
	Timestamp       string               `json:"timestamp,omitempty"`
	Location        string               `json:"location,omitempty"`
	Transport       models.TransportMode `json:"transport,omitempty"`
	Status          string               `json:"status,omitempty"`
	NextDestination string               `json:"nextDestination,omitempty"`
	Notes           string               `json:"notes,omitempty"`
}

func (in CheckpointInput) validate() error {
	if in.Lat == nil || in.Lng == nil {
		return invalid("position", "lat and lng are required")
	}
	if *in.Lat < -90 || *in.Lat > 90 {
		return invalid("lat", "must be between -90 and 90")
	}
	if *in.Lng < -180 || *in.Lng > 180 {
		return invalid("lng", "must be between -180 and 180")
	}
	if in.Transport != "" && !in.Transport.Valid() {
		return invalid("transport", "unknown transport mode %q", in.Transport)
	}
	return nil
}

// checkpointBuilder turns inputs into checkpoints, resolving the description
// through reverse geocoding when the operator gave none.
type checkpointBuilder struct {
	planner *geocoding.Planner
	now     clock
}

func (b checkpointBuilder) build(ctx context.Context, session models.Session, in CheckpointInput) (models.Checkpoint, error) {
	if err := in.validate(); err != nil {
		return models.Checkpoint{}, err
	}

	at := b.now()
	if ts := strings.TrimSpace(in.Timestamp); ts != "" {
		parsed, err := models.ParseTimestamp(ts, time.UTC)
		if err != nil {
			return models.Checkpoint{}, invalid("timestamp", "%v", err)
		}
		at = parsed
	}

	transport := in.Transport
	if transport == "" {
		transport = defaultCheckpointTransport
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = defaultCheckpointStatus
	}

	position := geo.Coordinates{Lat: *in.Lat, Lng: *in.Lng}
	return models.Checkpoint{
		Lat:             position.Lat,
		Lng:             position.Lng,
		Timestamp:       at.UTC(),
		Desc:            b.describe(ctx, position, in.Location),
		Operator:        session.Actor,
		Transport:       transport,
		Status:          status,
		NextDestination: strings.TrimSpace(in.NextDestination),
		Notes:           strings.TrimSpace(in.Notes),
	}, nil
}

func (b checkpointBuilder) describe(ctx context.Context, at geo.Coordinates, location string) string {
	if location = strings.TrimSpace(location); location != "" {
		return location
	}
	if b.planner == nil {
		return fallbackCheckpointDesc
	}
	return b.planner.DescribeLocation(ctx, at, fallbackCheckpointDesc)
}

func wrapEntity(kind, id string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s %s: %w", kind, id, err)
}
