package demo

import (
	"arcgo/geocoding"
	"arcgo/geometry"
	"context"
)

var (
	geocodingAddresses = []string{
		"1600 Pennsylvania Avenue NW, Washington, DC",
		"380 New York St, Redlands, CA 92373",
	}
	landmarks = []string{
		"Times Square, New York, NY",
		"Golden Gate Bridge, San Francisco, CA",
		"Space Needle, Seattle, WA",
	}
)

// Geocoding geocodes single addresses, reverse geocodes the first result and batch geocodes a few landmarks.
func (r *Runner) Geocoding(ctx context.Context) error {
	s, err := r.connect(ctx)
	if err != nil {
		return wrapConnectError(err)
	}

	r.header("Geocoding Examples")

	r.section("1. Single Address Geocoding")
	var first *geometry.Point
	for _, address := range geocodingAddresses {
		location := r.geocodeAddress(ctx, s.geocoder, address)
		if first == nil {
			first = location
		}
		r.printf("\n")
	}

	r.section("2. Reverse Geocoding")
	if first != nil {
		r.reverseGeocodeLocation(ctx, s.geocoder, *first)
	}
	r.printf("\n")

	r.section("3. Batch Geocoding")
	r.batchGeocodeAddresses(ctx, s.geocoder, landmarks)
	r.printf("\n")

	r.printf("Example completed!\n")
	return nil
}

// geocodeAddress returns the location of the best match or nil if there's none.
func (r *Runner) geocodeAddress(ctx context.Context, geocoder geocoding.Geocoder, address string) *geometry.Point {
	r.printf("Geocoding: %s\n", address)

	candidates, err := geocoder.Geocode(ctx, address, 1)
	if err != nil {
		r.stepFailed("geocoding address", err)
		return nil
	}
	if len(candidates) == 0 {
		r.printf("  ✗ No results found\n")
		return nil
	}

	candidate := candidates[0]
	r.printf("  ✓ Found: %s\n", candidate.Address)
	r.printf("    Coordinates: (%.6f, %.6f)\n", candidate.Location.Y(), candidate.Location.X())
	r.printf("    Score: %v\n", candidate.Score)

	return &candidate.Location
}

func (r *Runner) reverseGeocodeLocation(ctx context.Context, geocoder geocoding.Geocoder, location geometry.Point) {
	r.printf("Reverse geocoding: (%v, %v)\n", location.Y(), location.X())

	address, err := geocoder.ReverseGeocode(ctx, location)
	if err != nil {
		r.stepFailed("reverse geocoding location", err)
		return
	}
	if address == nil {
		r.printf("  ✗ No address found\n")
		return
	}

	r.printf("  ✓ Address: %s\n", orNA(address.Address))
	r.printf("    City: %s\n", orNA(address.City))
	r.printf("    Region: %s\n", orNA(address.Region))
	r.printf("    Country: %s\n", orNA(address.CountryCode))
}

func (r *Runner) batchGeocodeAddresses(ctx context.Context, geocoder geocoding.Geocoder, addresses []string) {
	r.printf("Batch geocoding %d addresses...\n", len(addresses))

	results, err := geocoder.BatchGeocode(ctx, addresses)
	if err != nil {
		r.stepFailed("batch geocoding addresses", err)
		return
	}

	r.printf("  Results:\n")
	for i, result := range results {
		if !result.Found {
			r.printf("  %d. Not found: %s\n", i+1, result.Input)
			continue
		}
		r.printf("  %d. %s\n", i+1, result.Address)
		r.printf("     Location: (%.6f, %.6f)\n", result.Location.Y(), result.Location.X())
	}
}
