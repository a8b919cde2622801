package geocoding

import (
	"arcgo/geometry"
	"context"
)

const (
	DefaultServiceURL = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer"
	DefaultBatchSize  = 100
)

// Candidate is a location the service considers a match for an address.
type Candidate struct {
	Address    string         `json:"address"`
	Location   geometry.Point `json:"location"`
	Score      float64        `json:"score"`
	Attributes map[string]any `json:"attributes"`
}

// Address is the result of a reverse geocode.
type Address struct {
	MatchAddress string         `json:"Match_addr"`
	LongLabel    string         `json:"LongLabel"`
	Address      string         `json:"Address"`
	City         string         `json:"City"`
	Region       string         `json:"Region"`
	Postal       string         `json:"Postal"`
	CountryCode  string         `json:"CountryCode"`
	Location     geometry.Point `json:"-"`
}

// BatchResult is the result for one input of a batch geocode. When Found is false, the candidate is empty.
type BatchResult struct {
	Input string
	Found bool
	Candidate
}

// Geocoder converts between addresses and locations. Addresses or locations that can't be found are no errors: Geocode
// returns an empty list, ReverseGeocode returns nil and BatchGeocode returns a result with Found=false.
//
// BatchGeocode returns exactly one result per input in the order of the input.
type Geocoder interface {
	Geocode(ctx context.Context, address string, maxLocations int) ([]Candidate, error)
	ReverseGeocode(ctx context.Context, location geometry.Point) (*Address, error)
	BatchGeocode(ctx context.Context, addresses []string) ([]BatchResult, error)
}

func notFound(addresses []string) []BatchResult {
	results := make([]BatchResult, len(addresses))
	for i, address := range addresses {
		results[i] = BatchResult{Input: address}
	}
	return results
}
