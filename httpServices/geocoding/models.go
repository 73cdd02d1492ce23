package geocoding

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geometry struct {
	Location Coordinates `json:"location"`
}

type result struct {
	Geometry geometry `json:"geometry"`
}

// geocodeResponse mirrors the provider's JSON payload. Anything other than
// status "OK" with at least one result is treated as a failure.
type geocodeResponse struct {
	Status  string   `json:"status"`
	Results []result `json:"results"`
}
