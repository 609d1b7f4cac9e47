package models

import (
	"time"

	"export-tracking-service/tracking/geo"
)

// Checkpoint is a geolocated transit event. The storage columns are hidden
// from JSON so the serialized shape stays {lat, lng, timestamp, ...}.
type Checkpoint struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	OwnerID   string `gorm:"size:64;index:idx_checkpoint_owner,priority:1;not null" json:"-"`
	OwnerType string `gorm:"size:32;index:idx_checkpoint_owner,priority:2;not null" json:"-"`
	Seq       int    `gorm:"not null" json:"-"`

	Lat             float64       `gorm:"not null" json:"lat"`
	Lng             float64       `gorm:"not null" json:"lng"`
	Timestamp       time.Time     `gorm:"not null" json:"timestamp"`
	Desc            string        `gorm:"column:description;size:256" json:"desc"`
	Operator        string        `gorm:"size:100" json:"operator"`
	Transport       TransportMode `gorm:"size:20" json:"transport"`
	Status          string        `gorm:"size:50" json:"status"`
	NextDestination string        `gorm:"size:200" json:"nextDestination,omitempty"`
	Notes           string        `gorm:"type:text" json:"notes,omitempty"`
}

func (c Checkpoint) Position() geo.Coordinates {
	return geo.Coordinates{Lat: c.Lat, Lng: c.Lng}
}

// IsDelivery reports whether recording c closes the shipment.
func (c Checkpoint) IsDelivery() bool {
	return c.Status == CheckpointDelivered
}
