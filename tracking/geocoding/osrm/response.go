package osrm

type RouteResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Routes  []Route `json:"routes"`
}

type Route struct {
	Distance float64  `json:"distance"`
	Duration float64  `json:"duration"`
	Geometry Geometry `json:"geometry"`
}

// Geometry is a GeoJSON LineString; each coordinate is [lng, lat].
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}
