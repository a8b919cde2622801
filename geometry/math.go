package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
	"math"
	"strconv"
	"strings"
)

const (
	MilesPerKilometer             = 0.621371
	SquareMilesPerSquareKilometer = 0.386102

	// Rough length of one degree on the earth's surface. The longitude value applies at the equator and shrinks with
	// the cosine of the latitude.
	KilometersPerDegreeLongitude = 111.32
	KilometersPerDegreeLatitude  = 110.57
)

// DistanceKm returns the great-circle distance between two lon/lat points in kilometers using the haversine formula.
func DistanceKm(a orb.Point, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b) / 1000
}

func KmToMiles(km float64) float64 {
	return km * MilesPerKilometer
}

func SqKmToSqMiles(squareKm float64) float64 {
	return squareKm * SquareMilesPerSquareKilometer
}

// ApproxAreaKm2 returns the area of the bounding box of the given lon/lat ring in square kilometers. This is NOT
// geodesically accurate and overestimates everything that isn't an axis-aligned rectangle. Use the geometry service for
// real areas.
//
// The longitude extent is scaled with the cosine of the latitude of the bounding box center. Empty rings, single points
// and rings without width or height have an area of 0.
func ApproxAreaKm2(ring orb.Ring) float64 {
	if len(ring) == 0 {
		return 0
	}

	bound := ring.Bound()
	widthDegree := bound.Right() - bound.Left()
	heightDegree := bound.Top() - bound.Bottom()
	if widthDegree <= 0 || heightDegree <= 0 {
		return 0
	}

	centerLatitude := bound.Center().Lat()
	widthKm := widthDegree * KilometersPerDegreeLongitude * math.Cos(centerLatitude*math.Pi/180)
	heightKm := heightDegree * KilometersPerDegreeLatitude

	return math.Abs(widthKm * heightKm)
}

// ParseLatLon parses a "latitude,longitude" pair like "37.7749,-122.4194" into a lon/lat point.
func ParseLatLon(s string) (orb.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return orb.Point{}, errors.Errorf("Expected 'latitude,longitude' but got '%s'", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return orb.Point{}, errors.Wrapf(err, "Invalid latitude in '%s'", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return orb.Point{}, errors.Wrapf(err, "Invalid longitude in '%s'", s)
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return orb.Point{}, errors.Errorf("Coordinate '%s' is out of range", s)
	}

	return orb.Point{lon, lat}, nil
}
