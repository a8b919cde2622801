package geometry

import (
	"encoding/json"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"math"
)

const WKIDWGS84 = 4326

type SpatialReference struct {
	WKID       int `json:"wkid,omitempty"`
	LatestWKID int `json:"latestWkid,omitempty"`
}

var WGS84 = SpatialReference{WKID: WKIDWGS84}

// Geometry is a geometry with a spatial reference which serializes to the Esri JSON format used by ArcGIS services.
type Geometry interface {
	Type() GeometryType
	SpatialRef() SpatialReference
	Orb() orb.Geometry
	Bound() orb.Bound
	// IsEmpty is true for geometries without coordinates. They have no GeoJSON representation.
	IsEmpty() bool
	json.Marshaler
}

/*
	Point
*/

// Point is a single position. X is the longitude and Y the latitude for geographic spatial references.
type Point struct {
	orb.Point
	SR SpatialReference
}

func NewPoint(x float64, y float64, wkid int) Point {
	return Point{
		Point: orb.Point{x, y},
		SR:    SpatialReference{WKID: wkid},
	}
}

func (p Point) Type() GeometryType           { return GeometryTypePoint }
func (p Point) SpatialRef() SpatialReference { return p.SR }
func (p Point) Orb() orb.Geometry            { return p.Point }

// IsEmpty is true for points the services return with "NaN" or null coordinates, e.g. unmatched batch geocode records.
func (p Point) IsEmpty() bool {
	return math.IsNaN(p.X()) || math.IsNaN(p.Y())
}

type esriPoint struct {
	X  coordinate        `json:"x"`
	Y  coordinate        `json:"y"`
	SR *SpatialReference `json:"spatialReference,omitempty"`
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(esriPoint{
		X:  coordinate(p.X()),
		Y:  coordinate(p.Y()),
		SR: spatialReferenceOrNil(p.SR),
	})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	raw := esriPoint{
		X: coordinate(math.NaN()),
		Y: coordinate(math.NaN()),
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "Unable to decode point")
	}

	p.Point = orb.Point{float64(raw.X), float64(raw.Y)}
	if raw.SR != nil {
		p.SR = *raw.SR
	}
	return nil
}

/*
	Multipoint
*/

type Multipoint struct {
	Points orb.MultiPoint
	SR     SpatialReference
}

func (m Multipoint) Type() GeometryType           { return GeometryTypeMultipoint }
func (m Multipoint) SpatialRef() SpatialReference { return m.SR }
func (m Multipoint) Orb() orb.Geometry            { return m.Points }
func (m Multipoint) Bound() orb.Bound             { return m.Points.Bound() }
func (m Multipoint) IsEmpty() bool                { return len(m.Points) == 0 }

type esriMultipoint struct {
	Points [][]float64       `json:"points"`
	SR     *SpatialReference `json:"spatialReference,omitempty"`
}

func (m Multipoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(esriMultipoint{
		Points: fromPoints(m.Points),
		SR:     spatialReferenceOrNil(m.SR),
	})
}

func (m *Multipoint) UnmarshalJSON(data []byte) error {
	var raw esriMultipoint
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "Unable to decode multipoint")
	}

	points, err := toPoints(raw.Points)
	if err != nil {
		return err
	}

	m.Points = orb.MultiPoint(points)
	if raw.SR != nil {
		m.SR = *raw.SR
	}
	return nil
}

/*
	Polyline
*/

// Polyline consists of one or more paths, each an ordered sequence of points.
type Polyline struct {
	Paths orb.MultiLineString
	SR    SpatialReference
}

func NewPolyline(wkid int, paths ...orb.LineString) Polyline {
	return Polyline{
		Paths: paths,
		SR:    SpatialReference{WKID: wkid},
	}
}

func (l Polyline) Type() GeometryType           { return GeometryTypePolyline }
func (l Polyline) SpatialRef() SpatialReference { return l.SR }
func (l Polyline) Orb() orb.Geometry            { return l.Paths }
func (l Polyline) Bound() orb.Bound             { return l.Paths.Bound() }

func (l Polyline) IsEmpty() bool {
	for _, path := range l.Paths {
		if len(path) > 0 {
			return false
		}
	}
	return true
}

type esriPolyline struct {
	Paths [][][]float64     `json:"paths"`
	SR    *SpatialReference `json:"spatialReference,omitempty"`
}

func (l Polyline) MarshalJSON() ([]byte, error) {
	paths := make([][][]float64, len(l.Paths))
	for i, path := range l.Paths {
		paths[i] = fromPoints(path)
	}

	return json.Marshal(esriPolyline{
		Paths: paths,
		SR:    spatialReferenceOrNil(l.SR),
	})
}

func (l *Polyline) UnmarshalJSON(data []byte) error {
	var raw esriPolyline
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "Unable to decode polyline")
	}

	l.Paths = make(orb.MultiLineString, len(raw.Paths))
	for i, path := range raw.Paths {
		points, err := toPoints(path)
		if err != nil {
			return errors.Wrapf(err, "Invalid path %d", i)
		}
		l.Paths[i] = points
	}

	if raw.SR != nil {
		l.SR = *raw.SR
	}
	return nil
}

/*
	Polygon
*/

// Polygon consists of one or more rings. Every ring is closed, i.e. its last point equals its first point.
type Polygon struct {
	Rings orb.Polygon
	SR    SpatialReference
}

// NewPolygon creates a polygon and closes every ring which isn't closed yet.
func NewPolygon(wkid int, rings ...orb.Ring) Polygon {
	polygon := Polygon{
		Rings: make(orb.Polygon, len(rings)),
		SR:    SpatialReference{WKID: wkid},
	}

	for i, ring := range rings {
		polygon.Rings[i] = closeRing(ring)
	}

	return polygon
}

func closeRing(ring orb.Ring) orb.Ring {
	if len(ring) == 0 || ring[0].Equal(ring[len(ring)-1]) {
		return ring
	}

	closed := make(orb.Ring, len(ring), len(ring)+1)
	copy(closed, ring)
	return append(closed, ring[0])
}

func (p Polygon) Type() GeometryType           { return GeometryTypePolygon }
func (p Polygon) SpatialRef() SpatialReference { return p.SR }
func (p Polygon) Orb() orb.Geometry            { return p.Rings }
func (p Polygon) Bound() orb.Bound             { return p.Rings.Bound() }

func (p Polygon) IsEmpty() bool {
	for _, ring := range p.Rings {
		if len(ring) > 0 {
			return false
		}
	}
	return true
}

type esriPolygon struct {
	Rings [][][]float64     `json:"rings"`
	SR    *SpatialReference `json:"spatialReference,omitempty"`
}

func (p Polygon) MarshalJSON() ([]byte, error) {
	rings := make([][][]float64, len(p.Rings))
	for i, ring := range p.Rings {
		rings[i] = fromPoints(ring)
	}

	return json.Marshal(esriPolygon{
		Rings: rings,
		SR:    spatialReferenceOrNil(p.SR),
	})
}

func (p *Polygon) UnmarshalJSON(data []byte) error {
	var raw esriPolygon
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "Unable to decode polygon")
	}

	p.Rings = make(orb.Polygon, len(raw.Rings))
	for i, ring := range raw.Rings {
		points, err := toPoints(ring)
		if err != nil {
			return errors.Wrapf(err, "Invalid ring %d", i)
		}
		p.Rings[i] = points
	}

	if raw.SR != nil {
		p.SR = *raw.SR
	}
	return nil
}

/*
	Envelope
*/

type Envelope struct {
	XMin float64           `json:"xmin"`
	YMin float64           `json:"ymin"`
	XMax float64           `json:"xmax"`
	YMax float64           `json:"ymax"`
	SR   *SpatialReference `json:"spatialReference,omitempty"`
}

func (e Envelope) Type() GeometryType { return GeometryTypeEnvelope }

func (e Envelope) SpatialRef() SpatialReference {
	if e.SR == nil {
		return SpatialReference{}
	}
	return *e.SR
}

func (e Envelope) Orb() orb.Geometry { return e.Bound() }

func (e Envelope) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{e.XMin, e.YMin},
		Max: orb.Point{e.XMax, e.YMax},
	}
}

func (e Envelope) IsEmpty() bool {
	return math.IsNaN(e.XMin) || math.IsNaN(e.YMin) || math.IsNaN(e.XMax) || math.IsNaN(e.YMax)
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	type plainEnvelope Envelope
	return json.Marshal(plainEnvelope(e))
}

/*
	Decoding
*/

// Decode decodes an Esri JSON geometry. When the type is unknown, it's derived from the keys of the JSON object.
func Decode(geometryType GeometryType, data json.RawMessage) (Geometry, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	if geometryType == GeometryTypeUnknown {
		var err error
		geometryType, err = detectGeometryType(data)
		if err != nil {
			return nil, err
		}
	}

	switch geometryType {
	case GeometryTypePoint:
		var point Point
		err := json.Unmarshal(data, &point)
		return point, err
	case GeometryTypeMultipoint:
		var multipoint Multipoint
		err := json.Unmarshal(data, &multipoint)
		return multipoint, err
	case GeometryTypePolyline:
		var polyline Polyline
		err := json.Unmarshal(data, &polyline)
		return polyline, err
	case GeometryTypePolygon:
		var polygon Polygon
		err := json.Unmarshal(data, &polygon)
		return polygon, err
	case GeometryTypeEnvelope:
		var envelope Envelope
		err := json.Unmarshal(data, &envelope)
		return envelope, err
	}

	return nil, errors.Errorf("Unsupported geometry type %s", geometryType)
}

func detectGeometryType(data json.RawMessage) (GeometryType, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return GeometryTypeUnknown, errors.Wrap(err, "Unable to decode geometry")
	}

	if _, ok := keys["rings"]; ok {
		return GeometryTypePolygon, nil
	}
	if _, ok := keys["paths"]; ok {
		return GeometryTypePolyline, nil
	}
	if _, ok := keys["points"]; ok {
		return GeometryTypeMultipoint, nil
	}
	if _, ok := keys["xmin"]; ok {
		return GeometryTypeEnvelope, nil
	}
	if _, ok := keys["x"]; ok {
		return GeometryTypePoint, nil
	}

	return GeometryTypeUnknown, errors.New("Unable to detect geometry type from JSON keys")
}

func toPoints(coordinates [][]float64) ([]orb.Point, error) {
	points := make([]orb.Point, len(coordinates))
	for i, c := range coordinates {
		// Coordinates may carry z and m values, only x and y are used.
		if len(c) < 2 {
			return nil, errors.Errorf("Coordinate %d has %d instead of at least 2 values", i, len(c))
		}
		points[i] = orb.Point{c[0], c[1]}
	}
	return points, nil
}

func fromPoints[T ~[]orb.Point](points T) [][]float64 {
	coordinates := make([][]float64, len(points))
	for i, p := range points {
		coordinates[i] = []float64{p.X(), p.Y()}
	}
	return coordinates
}

func spatialReferenceOrNil(sr SpatialReference) *SpatialReference {
	if sr.WKID == 0 && sr.LatestWKID == 0 {
		return nil
	}
	return &sr
}

// WithDefaultSpatialReference sets the spatial reference of geometries that don't have one. Feature query results
// carry the spatial reference only once for all geometries.
func WithDefaultSpatialReference(g Geometry, sr SpatialReference) Geometry {
	if g == nil || g.SpatialRef().WKID != 0 {
		return g
	}

	switch typed := g.(type) {
	case Point:
		typed.SR = sr
		return typed
	case Multipoint:
		typed.SR = sr
		return typed
	case Polyline:
		typed.SR = sr
		return typed
	case Polygon:
		typed.SR = sr
		return typed
	case Envelope:
		typed.SR = &sr
		return typed
	}
	return g
}
