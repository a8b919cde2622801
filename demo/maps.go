package demo

import (
	"arcgo/geocoding"
	"arcgo/webmap"
	"context"
	"github.com/pkg/errors"
)

var cities = []string{
	"New York, NY",
	"Los Angeles, CA",
	"Chicago, IL",
	"Houston, TX",
	"Phoenix, AZ",
}

// MapVisualization creates a basic map, a map with markers, a map with a custom basemap and a map centered on a
// geocoded landmark.
func (r *Runner) MapVisualization(ctx context.Context) error {
	s, err := r.connect(ctx)
	if err != nil {
		return wrapConnectError(err)
	}

	r.header("Map Visualization Examples")

	r.section("1. Basic Map")
	r.createBasicMap(ctx, s.geocoder)

	r.printf("\n")
	r.section("2. Map with Multiple Locations")
	r.addLocationsToMap(ctx, s.geocoder)

	r.printf("\n")
	r.section("3. Customized Map")
	r.customizeMap(ctx, s.geocoder)

	r.printf("\n")
	r.section("4. Search and Map")
	r.searchAndMap(ctx, s.geocoder)

	r.box(
		"Note: These maps are only held in memory.",
		"To view a map interactively, export it to HTML:",
		"  1. Run: arcgo simple-map",
		"  2. The map is written to "+r.cfg.Map.OutputFile,
		"  3. Open the file in your browser",
		"  4. Or serve it with: arcgo serve",
	)

	r.completed()
	return nil
}

func (r *Runner) createBasicMap(ctx context.Context, geocoder geocoding.Geocoder) *webmap.Map {
	r.printf("Creating basic map...\n")

	m, err := webmap.NewForLocation(ctx, geocoder, "San Francisco, CA", 12)
	if err != nil {
		r.mapFailed(err)
		return nil
	}

	r.printf("  ✓ Map created\n")
	r.printf("  Note: Export the map to HTML to display it interactively\n")
	return m
}

func (r *Runner) addLocationsToMap(ctx context.Context, geocoder geocoding.Geocoder) *webmap.Map {
	r.printf("\nCreating map with multiple locations...\n")

	m, err := webmap.NewForLocation(ctx, geocoder, "United States", 4)
	if err != nil {
		r.mapFailed(err)
		return nil
	}

	r.printf("  Adding locations:\n")
	for _, city := range cities {
		candidates, err := geocoder.Geocode(ctx, city, 1)
		if err != nil {
			r.stepFailed("geocoding "+city, err)
			continue
		}
		if len(candidates) == 0 {
			continue
		}

		m.AddMarker(city, candidates[0].Location)
		r.printf("    + %s\n", city)
	}

	r.printf("  ✓ Map created with locations\n")
	return m
}

func (r *Runner) customizeMap(ctx context.Context, geocoder geocoding.Geocoder) *webmap.Map {
	r.printf("\nCreating customized map...\n")

	m, err := webmap.NewForLocation(ctx, geocoder, "Los Angeles, CA", 0)
	if err != nil {
		r.mapFailed(err)
		return nil
	}

	err = m.SetBasemap("satellite")
	if err != nil {
		r.mapFailed(err)
		return nil
	}
	m.Zoom = 10

	r.printf("  ✓ Map created with %s basemap\n", m.Basemap())
	return m
}

func (r *Runner) searchAndMap(ctx context.Context, geocoder geocoding.Geocoder) *webmap.Map {
	r.printf("\nSearching and mapping location...\n")

	candidates, err := geocoder.Geocode(ctx, "Golden Gate Bridge, San Francisco", 1)
	if err != nil {
		r.stepFailed("searching location", err)
		return nil
	}
	if len(candidates) == 0 {
		r.printf("  ✗ Location not found\n")
		return nil
	}

	location := candidates[0].Location
	r.printf("  Found: %s\n", candidates[0].Address)
	r.printf("  Coordinates: (%.6f, %.6f)\n", location.Y(), location.X())

	m := webmap.New(location.Point, 15)

	r.printf("  ✓ Map created and centered on location\n")
	return m
}

func (r *Runner) mapFailed(err error) {
	if errors.Is(err, webmap.ErrLocationNotFound) {
		r.printf("  ✗ Location not found\n")
		return
	}
	r.stepFailed("creating map", err)
}
