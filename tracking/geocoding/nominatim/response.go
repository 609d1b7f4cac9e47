package nominatim

import "export-tracking-service/tracking/geocoding"

type SearchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type ReverseResult struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     geocoding.Address `json:"address"`
	Error       string            `json:"error"`
}
