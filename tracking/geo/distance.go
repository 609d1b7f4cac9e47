package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DefaultDeliveryThresholdKm is how close the last checkpoint has to be to
// the destination for a shipment to count as delivered.
const DefaultDeliveryThresholdKm = 5.0

// InternationalConnectionKm separates local legs from long-haul ones.
const InternationalConnectionKm = 1000.0

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GreatCircleDistance returns the haversine distance in kilometers.
func GreatCircleDistance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func Distance(a, b Coordinates) float64 {
	return GreatCircleDistance(a.Lat, a.Lng, b.Lat, b.Lng)
}

// IsDeliveredByProximity is a heuristic, not an authoritative delivery signal.
func IsDeliveredByProximity(last, destination Coordinates, thresholdKm float64) bool {
	return Distance(last, destination) <= thresholdKm
}

func IsInternationalConnection(a, b Coordinates) bool {
	return Distance(a, b) > InternationalConnectionKm
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
