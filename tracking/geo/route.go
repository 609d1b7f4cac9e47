package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// SRID of WGS84 coordinates.
const SRID = 4326

// NewRoute builds a polyline from points. Coordinates are stored in
// GeoJSON order (lng, lat).
func NewRoute(points []Coordinates) *geom.LineString {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.Lng, p.Lat)
	}
	ls := geom.NewLineStringFlat(geom.XY, flat)
	ls.SetSRID(SRID)
	return ls
}

// StraightRoute is the two-point fallback used when routing is skipped or fails.
func StraightRoute(from, to Coordinates) *geom.LineString {
	return NewRoute([]Coordinates{from, to})
}

// RoutePoints converts a polyline back to coordinates.
func RoutePoints(ls *geom.LineString) []Coordinates {
	if ls == nil {
		return nil
	}
	points := make([]Coordinates, 0, ls.NumCoords())
	for i := 0; i < ls.NumCoords(); i++ {
		c := ls.Coord(i)
		points = append(points, Coordinates{Lat: c.Y(), Lng: c.X()})
	}
	return points
}

// RouteLength sums the great-circle length of every leg, in kilometers.
func RouteLength(ls *geom.LineString) float64 {
	points := RoutePoints(ls)
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

func RouteGeoJSON(ls *geom.LineString) ([]byte, error) {
	return geojson.Marshal(ls)
}
