package models

import "time"

// Producer represents producers table
type Producer struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Location  string    `gorm:"size:200" json:"location,omitempty"`
	Document  string    `gorm:"size:100" json:"bi,omitempty"`
	Type      string    `gorm:"size:100" json:"type,omitempty"`
	Quantity  float64   `gorm:"not null;default:0" json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProducerSelection is one producer picked during batch construction with
// the quantity, in tonnes, of every product it contributes.
type ProducerSelection struct {
	ProducerID string             `json:"producerId"`
	Products   map[string]float64 `json:"products"`
}
