// Package geocoding resolves place names and coordinates through external
// services. Every call is best effort: callers fall back to a straight line
// or a generic description when a lookup fails.
package geocoding

import (
	"context"
	"errors"
	"strings"

	"export-tracking-service/tracking/geo"

	"github.com/twpayne/go-geom"
)

var ErrNoResults = errors.New("no geocoding results")

// Address holds the administrative components returned by reverse geocoding.
type Address struct {
	State        string `json:"state,omitempty"`
	Province     string `json:"province,omitempty"`
	City         string `json:"city,omitempty"`
	Town         string `json:"town,omitempty"`
	Village      string `json:"village,omitempty"`
	Municipality string `json:"municipality,omitempty"`
}

// Region is the first-level division (state or province).
func (a Address) Region() string {
	return firstNonEmpty(a.State, a.Province)
}

// Locality is the most specific settlement name available.
func (a Address) Locality() string {
	return firstNonEmpty(a.City, a.Town, a.Village, a.Municipality)
}

// Describe renders "Region, Locality", or whichever part exists.
func (a Address) Describe() string {
	region, locality := a.Region(), a.Locality()
	switch {
	case region != "" && locality != "":
		return region + ", " + locality
	case region != "":
		return region
	default:
		return locality
	}
}

type Geocoder interface {
	Search(ctx context.Context, query string) (geo.Coordinates, error)
	Reverse(ctx context.Context, at geo.Coordinates) (Address, error)
}

type Router interface {
	Route(ctx context.Context, from, to geo.Coordinates) (*geom.LineString, error)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
