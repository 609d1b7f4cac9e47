package models

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted from clients, RFC 3339 first. The locale layouts cover
// the pt-BR and en-US renderings older clients send.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006, 15:04:05",
	"02/01/2006 15:04:05",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006 3:04:05 PM",
	"2006-01-02",
}

// ParseTimestamp normalizes a client supplied timestamp to UTC. Locale
// layouts without an offset are read in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
