package demo

import (
	"arcgo/geometry"
	"context"
	"github.com/paulmach/orb"
	"strings"
)

const bufferDistanceKm = 50

type spatialGeometries struct {
	point1   geometry.Point
	point2   geometry.Point
	polyline geometry.Polyline
	polygon  geometry.Polygon
}

// SpatialAnalysis creates geometries and runs distance, buffer, area and relation operations on them. Remote operations
// that fail are reported and skipped.
func (r *Runner) SpatialAnalysis(ctx context.Context) error {
	s, err := r.connect(ctx)
	if err != nil {
		return wrapConnectError(err)
	}

	r.header("Spatial Analysis Examples")

	r.section("1. Creating Geometries")
	g := r.createGeometries()

	r.printf("\n")
	r.section("2. Distance Calculation")
	r.calculateDistance(ctx, s.geometry, g)

	r.printf("\n")
	r.section("3. Buffer Analysis")
	r.bufferAnalysis(ctx, s.geometry, g.point1)

	r.printf("\n")
	r.section("4. Area Calculation")
	r.calculateArea(ctx, s.geometry, g.polygon)

	r.printf("\n")
	r.section("5. Spatial Relationships")
	r.spatialRelationships(ctx, s.geometry, g.point1, g.polygon)

	r.completed()
	return nil
}

func (r *Runner) createGeometries() spatialGeometries {
	r.printf("Creating geometries...\n")

	g := spatialGeometries{
		point1: geometry.NewPoint(-118.15, 33.80, geometry.WKIDWGS84),
		point2: geometry.NewPoint(-122.45, 37.78, geometry.WKIDWGS84),
		polyline: geometry.NewPolyline(geometry.WKIDWGS84, orb.LineString{
			{-118.15, 33.80},
			{-120.00, 35.00},
			{-122.45, 37.78},
		}),
		polygon: geometry.NewPolygon(geometry.WKIDWGS84, orb.Ring{
			{-118.0, 34.0},
			{-118.0, 34.5},
			{-117.5, 34.5},
			{-117.5, 34.0},
			{-118.0, 34.0},
		}),
	}

	r.printf("  Point 1: Longitude %v, Latitude %v\n", g.point1.X(), g.point1.Y())
	r.printf("  Point 2: Longitude %v, Latitude %v\n", g.point2.X(), g.point2.Y())
	r.printf("  Polyline created with %d points\n", len(g.polyline.Paths[0]))
	r.printf("  Polygon created\n")

	return g
}

func (r *Runner) calculateDistance(ctx context.Context, service *geometry.Service, g spatialGeometries) {
	r.printf("\nCalculating distance...\n")

	approximation := geometry.DistanceKm(g.point1.Point, g.point2.Point)

	distance, err := service.Distance(ctx, g.point1, g.point2, geometry.Kilometers)
	if err != nil {
		r.stepFailed("calculating distance", err)
	} else {
		r.printf("  Distance: %.2f km\n", distance)
		r.printf("  Distance: %.2f miles\n", geometry.KmToMiles(distance))
	}
	r.printf("  Approximate distance (haversine): %.2f km\n", approximation)

	lengths, err := service.Lengths(ctx, []geometry.Polyline{g.polyline}, geometry.Kilometers)
	if err != nil {
		r.stepFailed("calculating polyline length", err)
		return
	}
	r.printf("  Polyline length: %.2f km\n", lengths[0])
}

func (r *Runner) bufferAnalysis(ctx context.Context, service *geometry.Service, point geometry.Point) {
	r.printf("\nBuffer analysis...\n")

	buffers, err := service.Buffer(ctx, []geometry.Point{point}, bufferDistanceKm, geometry.Kilometers)
	if err != nil {
		r.stepFailed("creating buffer", err)
		return
	}
	if len(buffers) == 0 {
		r.printf("  ✗ Service returned no buffer\n")
		return
	}

	r.printf("  Created buffer around point\n")
	r.printf("  Buffer type: %s\n", strings.TrimPrefix(buffers[0].Type().String(), "esriGeometry"))
}

func (r *Runner) calculateArea(ctx context.Context, service *geometry.Service, polygon geometry.Polygon) {
	r.printf("\nCalculating area...\n")

	areas, err := service.Areas(ctx, []geometry.Polygon{polygon}, geometry.SquareKilometers)
	if err != nil {
		r.stepFailed("calculating area", err)
	} else {
		r.printf("  Area: %.2f square kilometers\n", areas[0])
		r.printf("  Area: %.2f square miles\n", geometry.SqKmToSqMiles(areas[0]))
	}

	approximation := geometry.ApproxAreaKm2(polygon.Rings[0])
	r.printf("  Approximate area (bounding box, not geodesically accurate): %.2f square kilometers\n", approximation)
}

func (r *Runner) spatialRelationships(ctx context.Context, service *geometry.Service, point geometry.Point, polygon geometry.Polygon) {
	r.printf("\nChecking spatial relationships...\n")

	within, err := service.Within(ctx, point, polygon)
	if err != nil {
		r.stepFailed("checking within relation", err)
	} else {
		r.printf("  Point within polygon: %t\n", within)
	}

	intersects, err := service.Intersects(ctx, point, polygon)
	if err != nil {
		r.stepFailed("checking intersects relation", err)
		return
	}
	r.printf("  Point intersects polygon: %t\n", intersects)
}
