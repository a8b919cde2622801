package geometry

import (
	"arcgo/util"
	"encoding/json"
	"github.com/paulmach/orb"
	"math"
	"testing"
)

func TestNewPoint(t *testing.T) {
	// Act
	point := NewPoint(-118.15, 33.80, 4326)

	// Assert
	util.AssertEqual(t, -118.15, point.X())
	util.AssertEqual(t, 33.80, point.Y())
	util.AssertEqual(t, 4326, point.SpatialRef().WKID)
	util.AssertEqual(t, GeometryTypePoint, point.Type())
	util.AssertFalse(t, point.IsEmpty())
}

func TestPoint_MarshalJSON(t *testing.T) {
	// Arrange
	point := NewPoint(-118.15, 33.8, 4326)

	// Act
	data, err := json.Marshal(point)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, `{"x":-118.15,"y":33.8,"spatialReference":{"wkid":4326}}`, string(data))
}

func TestPoint_UnmarshalJSON_nanAndNull(t *testing.T) {
	// Arrange
	var nanPoint Point
	var nullPoint Point

	// Act
	nanErr := json.Unmarshal([]byte(`{"x":"NaN","y":"NaN"}`), &nanPoint)
	nullErr := json.Unmarshal([]byte(`{"x":null,"y":null}`), &nullPoint)

	// Assert
	util.AssertNil(t, nanErr)
	util.AssertNil(t, nullErr)
	util.AssertTrue(t, nanPoint.IsEmpty())
	util.AssertTrue(t, nullPoint.IsEmpty())
}

func TestNewPolygon_closesRing(t *testing.T) {
	// Arrange
	openRing := orb.Ring{{-118.0, 34.0}, {-118.0, 34.5}, {-117.5, 34.5}, {-117.5, 34.0}}

	// Act
	polygon := NewPolygon(4326, openRing)

	// Assert
	util.AssertEqual(t, 5, len(polygon.Rings[0]))
	util.AssertEqual(t, polygon.Rings[0][0], polygon.Rings[0][4])
	util.AssertEqual(t, 4, len(openRing))
}

func TestNewPolygon_keepsClosedRing(t *testing.T) {
	// Arrange
	closedRing := orb.Ring{{-118.0, 34.0}, {-118.0, 34.5}, {-117.5, 34.5}, {-117.5, 34.0}, {-118.0, 34.0}}

	// Act
	polygon := NewPolygon(4326, closedRing)

	// Assert
	util.AssertEqual(t, closedRing, polygon.Rings[0])
	util.AssertEqual(t, GeometryTypePolygon, polygon.Type())
}

func TestPolygon_JSONRoundTrip(t *testing.T) {
	// Arrange
	polygon := NewPolygon(4326, orb.Ring{{0, 0}, {0, 1}, {1, 1}, {1, 0}})

	// Act
	data, err := json.Marshal(polygon)
	util.AssertNil(t, err)

	var decoded Polygon
	err = json.Unmarshal(data, &decoded)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, `{"rings":[[[0,0],[0,1],[1,1],[1,0],[0,0]]],"spatialReference":{"wkid":4326}}`, string(data))
	util.AssertEqual(t, polygon, decoded)
}

func TestNewPolyline(t *testing.T) {
	// Act
	polyline := NewPolyline(4326, orb.LineString{{-118.15, 33.80}, {-120.00, 35.00}, {-122.45, 37.78}})

	// Assert
	util.AssertEqual(t, 1, len(polyline.Paths))
	util.AssertEqual(t, 3, len(polyline.Paths[0]))
	util.AssertEqual(t, orb.Bound{Min: orb.Point{-122.45, 33.80}, Max: orb.Point{-118.15, 37.78}}, polyline.Bound())
}

func TestPolyline_UnmarshalJSON_ignoresZValues(t *testing.T) {
	// Arrange
	var polyline Polyline

	// Act
	err := json.Unmarshal([]byte(`{"paths":[[[1,2,3],[4,5,6]]],"spatialReference":{"wkid":102100,"latestWkid":3857}}`), &polyline)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, orb.LineString{{1, 2}, {4, 5}}, polyline.Paths[0])
	util.AssertEqual(t, SpatialReference{WKID: 102100, LatestWKID: 3857}, polyline.SR)
}

func TestPolyline_UnmarshalJSON_invalidCoordinate(t *testing.T) {
	// Arrange
	var polyline Polyline

	// Act
	err := json.Unmarshal([]byte(`{"paths":[[[1]]]}`), &polyline)

	// Assert
	util.AssertNotNil(t, err)
}

func TestDecode_withType(t *testing.T) {
	// Act
	geometry, err := Decode(GeometryTypePoint, json.RawMessage(`{"x":1.5,"y":2.5}`))

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, orb.Point{1.5, 2.5}, geometry.Orb())
}

func TestDecode_detectsType(t *testing.T) {
	// Act & Assert
	geometry, err := Decode(GeometryTypeUnknown, json.RawMessage(`{"rings":[[[0,0],[0,1],[1,1],[0,0]]]}`))
	util.AssertNil(t, err)
	util.AssertEqual(t, GeometryTypePolygon, geometry.Type())

	geometry, err = Decode(GeometryTypeUnknown, json.RawMessage(`{"paths":[[[0,0],[0,1]]]}`))
	util.AssertNil(t, err)
	util.AssertEqual(t, GeometryTypePolyline, geometry.Type())

	geometry, err = Decode(GeometryTypeUnknown, json.RawMessage(`{"points":[[0,0],[0,1]]}`))
	util.AssertNil(t, err)
	util.AssertEqual(t, GeometryTypeMultipoint, geometry.Type())

	geometry, err = Decode(GeometryTypeUnknown, json.RawMessage(`{"xmin":0,"ymin":1,"xmax":2,"ymax":3}`))
	util.AssertNil(t, err)
	util.AssertEqual(t, GeometryTypeEnvelope, geometry.Type())
	util.AssertEqual(t, orb.Bound{Min: orb.Point{0, 1}, Max: orb.Point{2, 3}}, geometry.Bound())

	geometry, err = Decode(GeometryTypeUnknown, json.RawMessage(`{"x":0,"y":1}`))
	util.AssertNil(t, err)
	util.AssertEqual(t, GeometryTypePoint, geometry.Type())

	_, err = Decode(GeometryTypeUnknown, json.RawMessage(`{"foo":1}`))
	util.AssertNotNil(t, err)
}

func TestDecode_emptyAndNull(t *testing.T) {
	// Act & Assert
	geometry, err := Decode(GeometryTypePoint, nil)
	util.AssertNil(t, err)
	util.AssertNil(t, geometry)

	geometry, err = Decode(GeometryTypePoint, json.RawMessage(`null`))
	util.AssertNil(t, err)
	util.AssertNil(t, geometry)
}

func TestGeometryType_textRoundTrip(t *testing.T) {
	// Arrange
	var layer struct {
		GeometryType GeometryType `json:"geometryType"`
	}

	// Act & Assert
	err := json.Unmarshal([]byte(`{"geometryType":"esriGeometryPolygon"}`), &layer)
	util.AssertNil(t, err)
	util.AssertEqual(t, GeometryTypePolygon, layer.GeometryType)

	err = json.Unmarshal([]byte(`{"geometryType":""}`), &layer)
	util.AssertNil(t, err)
	util.AssertEqual(t, GeometryTypeUnknown, layer.GeometryType)

	err = json.Unmarshal([]byte(`{"geometryType":"esriGeometrySphere"}`), &layer)
	util.AssertNotNil(t, err)
}

func TestParseLinearUnit(t *testing.T) {
	// Act & Assert
	unit, err := ParseLinearUnit("KILOMETERS")
	util.AssertNil(t, err)
	util.AssertEqual(t, Kilometers, unit)

	unit, err = ParseLinearUnit("mi")
	util.AssertNil(t, err)
	util.AssertEqual(t, StatuteMiles, unit)

	_, err = ParseLinearUnit("parsec")
	util.AssertError(t, "Unknown linear unit 'parsec'", err)
}

func TestWithDefaultSpatialReference(t *testing.T) {
	// Arrange
	withoutSr := Polygon{Rings: orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {0, 0}}}}
	withSr := NewPoint(1, 2, 3857)

	// Act
	updated := WithDefaultSpatialReference(withoutSr, WGS84)
	unchanged := WithDefaultSpatialReference(withSr, WGS84)

	// Assert
	util.AssertEqual(t, WGS84, updated.SpatialRef())
	util.AssertEqual(t, 3857, unchanged.SpatialRef().WKID)
	util.AssertEqual(t, 0, withoutSr.SR.WKID)
	util.AssertNil(t, WithDefaultSpatialReference(nil, WGS84))
}

func TestIsEmpty(t *testing.T) {
	// Arrange
	var nanPoint Point
	util.AssertNil(t, json.Unmarshal([]byte(`{"x":"NaN","y":"NaN"}`), &nanPoint))

	// Act & Assert
	util.AssertTrue(t, Geometry(nanPoint).IsEmpty())
	util.AssertFalse(t, Geometry(NewPoint(1, 2, 4326)).IsEmpty())
	util.AssertTrue(t, Geometry(Multipoint{}).IsEmpty())
	util.AssertFalse(t, Geometry(Multipoint{Points: orb.MultiPoint{{1, 2}}}).IsEmpty())
	util.AssertTrue(t, Geometry(NewPolyline(4326)).IsEmpty())
	util.AssertTrue(t, Geometry(NewPolyline(4326, orb.LineString{})).IsEmpty())
	util.AssertFalse(t, Geometry(NewPolyline(4326, orb.LineString{{0, 0}, {1, 1}})).IsEmpty())
	util.AssertTrue(t, Geometry(NewPolygon(4326)).IsEmpty())
	util.AssertFalse(t, Geometry(NewPolygon(4326, orb.Ring{{0, 0}, {0, 1}, {1, 1}})).IsEmpty())
	util.AssertTrue(t, Geometry(Envelope{XMin: math.NaN(), YMin: math.NaN(), XMax: math.NaN(), YMax: math.NaN()}).IsEmpty())
	util.AssertFalse(t, Geometry(Envelope{XMin: 0, YMin: 1, XMax: 2, YMax: 3}).IsEmpty())
}
