package models

import "time"

type EventCategory string

const (
	EventCreated    EventCategory = "created"
	EventSealed     EventCategory = "sealed"
	EventCheckpoint EventCategory = "checkpoint"
)

// Event is a display-ready timeline entry derived from a Batch or Product.
type Event struct {
	Type        string        `json:"type"`
	Timestamp   time.Time     `json:"timestamp"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    EventCategory `json:"category"`
}
