package demo

import (
	"arcgo/geometry"
	"arcgo/webmap"
	"context"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

const simpleMapLocation = "San Francisco, CA"

// SimpleMap exports a map of San Francisco to the configured HTML file and opens it in the browser.
func (r *Runner) SimpleMap(ctx context.Context) error {
	r.printf("Creating map...\n")

	s, err := r.connect(ctx)
	if err != nil {
		return wrapConnectError(err)
	}

	m, err := webmap.NewForLocation(ctx, s.geocoder, simpleMapLocation, 12)
	if err != nil {
		return err
	}
	m.SetTitle(r.cfg.Map.Title)

	htmlFile, err := m.ExportToHTML(r.cfg.Map.OutputFile)
	if err != nil {
		return errors.Wrap(err, "Unable to export map")
	}

	r.printf("✓ Map saved to: %s\n", htmlFile)

	if r.cfg.Map.OpenBrowser {
		err = r.openFile(htmlFile)
		if err != nil {
			sigolo.Warnf("Unable to open browser: %+v", err)
			r.printf("✗ Unable to open the map in your browser\n")
		} else {
			r.printf("✓ Map should open in your browser!\n")
		}
	}

	r.printf("\nIf it doesn't open automatically:\n")
	r.printf("  Open this file: %s\n", htmlFile)
	return nil
}

// Distance prints the haversine distance between two lon/lat points. No service is involved.
func (r *Runner) Distance(from orb.Point, to orb.Point) {
	km := geometry.DistanceKm(from, to)
	r.printf("Distance: %.2f km\n", km)
	r.printf("Distance: %.2f miles\n", geometry.KmToMiles(km))
}
